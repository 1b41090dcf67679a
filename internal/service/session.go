package service

import (
	"sync"

	"github.com/mhersberg/pictor/internal/domain"
)

// SearchState is the last search a client ran: what it looked for and
// which page it was on. It exists so a UI can restore its previous view
// after a restart.
type SearchState struct {
	Query string
	Tags  []string
	Sort  domain.SortOrder
	Page  int
}

// SearchSession holds the current SearchState behind a lock. One instance
// is owned by the application; handlers read and replace it but never
// reach for shared globals.
type SearchSession struct {
	mu    sync.Mutex
	state SearchState
}

// NewSearchSession starts with an empty query on the first page, newest
// entries first.
func NewSearchSession() *SearchSession {
	return &SearchSession{state: SearchState{Sort: domain.SortCreatedDesc}}
}

// Current returns a copy of the stored state.
func (s *SearchSession) Current() SearchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Tags = append([]string(nil), s.state.Tags...)
	return st
}

// Replace swaps in a new state wholesale.
func (s *SearchSession) Replace(st SearchState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.Tags = append([]string(nil), st.Tags...)
	if st.Sort == "" {
		st.Sort = domain.SortCreatedDesc
	}
	if st.Page < 0 {
		st.Page = 0
	}
	s.state = st
}

// Filter converts the state into the repository filter it describes.
func (st SearchState) Filter() domain.Filter {
	return domain.Filter{Query: st.Query, Tags: st.Tags, Sort: st.Sort}
}
