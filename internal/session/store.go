// Package session keeps the bounded undo history of each editing session.
package session

import (
	"sync"
	"time"

	"banner-creator/internal/banner"
)

// Revision is a superseded configuration.
type Revision struct {
	Config     banner.Config
	Reason     string
	ReplacedAt time.Time
}

type Options struct {
	MaxRevisions int
}

type history struct {
	revisions    []Revision
	lastActivity time.Time
}

type Store struct {
	mu           sync.Mutex
	sessions     map[string]*history
	maxRevisions int
}

func NewStore(opts Options) *Store {
	maxRevisions := opts.MaxRevisions
	if maxRevisions <= 0 {
		maxRevisions = 20
	}

	return &Store{
		sessions:     make(map[string]*history),
		maxRevisions: maxRevisions,
	}
}

// Push records cfg as the revision replaced by an edit. The oldest revision
// is dropped once the bound is reached.
func (s *Store) Push(id string, cfg banner.Config, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.getOrCreateLocked(id)
	h.lastActivity = time.Now()
	h.revisions = append(h.revisions, Revision{Config: cfg, Reason: reason, ReplacedAt: h.lastActivity})
	if len(h.revisions) > s.maxRevisions {
		h.revisions = h.revisions[len(h.revisions)-s.maxRevisions:]
	}
}

// Pop removes and returns the latest revision.
func (s *Store) Pop(id string) (Revision, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.sessions[id]
	if !ok || len(h.revisions) == 0 {
		return Revision{}, false
	}
	last := h.revisions[len(h.revisions)-1]
	h.revisions = h.revisions[:len(h.revisions)-1]
	h.lastActivity = time.Now()
	return last, true
}

func (s *Store) Len(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok := s.sessions[id]; ok {
		return len(h.revisions)
	}
	return 0
}

func (s *Store) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok := s.sessions[id]; ok {
		h.revisions = nil
		h.lastActivity = time.Now()
	}
}

// Forget drops the session's history entirely.
func (s *Store) Forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Prune forgets sessions idle since before cutoff and returns how many went.
func (s *Store) Prune(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, h := range s.sessions {
		if h.lastActivity.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

func (s *Store) getOrCreateLocked(id string) *history {
	if h, ok := s.sessions[id]; ok {
		return h
	}
	h := &history{lastActivity: time.Now()}
	s.sessions[id] = h
	return h
}
