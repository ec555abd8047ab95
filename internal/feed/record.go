package feed

import (
	"encoding/binary"
	"hash/crc32"
)

// Record encoding: varint tsLen | ts_ms(8B BE) | payload | crc32c(ts|payload)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

func encodeRecord(tsMs int64, payload []byte) []byte {
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(tsMs))

	out := make([]byte, 0, 10+8+len(payload)+4)
	var tmp [10]byte
	n := binary.PutUvarint(tmp[:], uint64(len(ts)))
	out = append(out, tmp[:n]...)
	out = append(out, ts[:]...)
	out = append(out, payload...)

	crc := crc32.Update(0, castagnoli, ts[:])
	crc = crc32.Update(crc, castagnoli, payload)
	var crcb [4]byte
	binary.BigEndian.PutUint32(crcb[:], crc)
	out = append(out, crcb[:]...)
	return out
}

func decodeRecord(b []byte) (tsMs int64, payload []byte, ok bool) {
	if len(b) < 1+4 {
		return 0, nil, false
	}
	tlen, n := binary.Uvarint(b)
	if n <= 0 || tlen != 8 {
		return 0, nil, false
	}
	if n+int(tlen)+4 > len(b) {
		return 0, nil, false
	}
	ts := b[n : n+8]
	body := b[n+8 : len(b)-4]
	expect := binary.BigEndian.Uint32(b[len(b)-4:])
	crc := crc32.Update(0, castagnoli, ts)
	crc = crc32.Update(crc, castagnoli, body)
	if crc != expect {
		return 0, nil, false
	}
	return int64(binary.BigEndian.Uint64(ts)), append([]byte(nil), body...), true
}
