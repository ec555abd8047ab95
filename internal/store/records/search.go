package records

import (
	"strings"
)

// SearchResult is one matching post with its match provenance.
type SearchResult struct {
	Post    SearchPost `json:"post"`
	InTitle bool       `json:"inTitle"`
}

// SearchPost is the subset of a post surfaced in search results.
type SearchPost struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// SearchPosts scans all posts for a case-insensitive substring match on
// title or body. Title matches rank before body matches; within a rank,
// results keep newest-first order. A limit of 0 means no limit.
func (s *Store) SearchPosts(term string, limit int) ([]SearchResult, error) {
	needle := strings.ToLower(term)
	posts, err := s.ListPosts(0)
	if err != nil {
		return nil, err
	}

	var titleHits, bodyHits []SearchResult
	for _, p := range posts {
		switch {
		case strings.Contains(strings.ToLower(p.Title), needle):
			titleHits = append(titleHits, SearchResult{
				Post:    SearchPost{ID: p.ID.String(), Title: p.Title},
				InTitle: true,
			})
		case strings.Contains(strings.ToLower(p.Body), needle):
			bodyHits = append(bodyHits, SearchResult{
				Post: SearchPost{ID: p.ID.String(), Title: p.Title},
			})
		}
	}

	results := append(titleHits, bodyHits...)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
