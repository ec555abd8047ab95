// Package fanout delivers live updates for query keys to attached
// subscribers.
//
// Every committed change is announced onto the durable feed of each
// query key it affects, which assigns the key's next monotonic version.
// Subscribe attaches a sink to a key: it first folds the current state
// into a snapshot item stamped with the key's version at attach time,
// then streams every delta with a version above that watermark, in
// version order with no gaps. A subscriber that presents a resume
// version skips the snapshot and continues from where it left off.
//
// Delivery to each sink runs through a buffered writer goroutine so one
// slow transport never stalls the read loop or other subscribers.
package fanout
