// Package search runs incremental post search sessions.
//
// A session tracks one subscriber's evolving search term. Keystrokes
// arrive via SetTerm; the session debounces them so only the term that
// survives the quiet window is queried. Every issued query carries a
// sequence number and only the highest-issued sequence may deliver, so
// a slow early query can never overwrite the results of a later one.
// Terms below the minimum length clear the result set without querying.
//
// The coordinator additionally watches the post-list feed and refreshes
// every live session when new posts commit, so open search results stay
// current without re-typing.
package search
