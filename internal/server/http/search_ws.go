package httpserver

import (
	"net/http"
	"sync"

	"github.com/inklet/inklet/internal/blog"
	searchsvc "github.com/inklet/inklet/internal/services/search"
	"github.com/inklet/inklet/pkg/log"
)

type searchTermMsg struct {
	Term string `json:"term"`
}

// searchResultMsg frames one result set with the query key it answers,
// matching the key-tagged items on the subscribe transports.
type searchResultMsg struct {
	Key string `json:"key"`
	searchsvc.Results
}

// handleSearchWS runs one incremental search session per connection. Each
// inbound frame carries the current term; result sets stream back as the
// debounced queries complete, newest query winning.
func (s *Server) handleSearchWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	sess := s.search.NewSession(func(res searchsvc.Results) {
		writeMu.Lock()
		defer writeMu.Unlock()
		msg := searchResultMsg{Key: blog.KeySearch(res.Term), Results: res}
		if err := conn.WriteJSON(msg); err != nil {
			s.logger.Debug("search session write failed", log.Err(err))
		}
	})
	defer sess.Close()

	for {
		var msg searchTermMsg
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		sess.SetTerm(msg.Term)
	}
}
