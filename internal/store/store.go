// Package store holds the one authoritative AnalysisSet of a session.
package store

import (
	"sync"
)

// AnalysisSet is the full current result state as returned by the service
type AnalysisSet struct {
	Results   []string `json:"results"`
	Filenames []string `json:"filenames"`
	DataCount int      `json:"data_count"`
}

// IsEmpty reports whether the set has no result lines
func (s AnalysisSet) IsEmpty() bool {
	return len(s.Results) == 0
}

// Clone returns a deep copy so callers can never alias the store's slices
func (s AnalysisSet) Clone() AnalysisSet {
	out := AnalysisSet{DataCount: s.DataCount}
	if s.Results != nil {
		out.Results = append(make([]string, 0, len(s.Results)), s.Results...)
	}
	if s.Filenames != nil {
		out.Filenames = append(make([]string, 0, len(s.Filenames)), s.Filenames...)
	}
	return out
}

// Store owns the session's AnalysisSet. Every Replace swaps the whole set
// under the lock; readers get copies, so a render never sees a torn mix of
// two sets. Concurrent writers resolve by arrival order: the last Replace wins.
type Store struct {
	mu         sync.RWMutex
	current    AnalysisSet
	generation uint64
	observers  []func(AnalysisSet, uint64)
}

// New creates an empty store, the session-start state
func New() *Store {
	return &Store{}
}

// Replace atomically swaps the held set and returns the new generation
func (s *Store) Replace(set AnalysisSet) uint64 {
	snapshot := set.Clone()

	s.mu.Lock()
	s.current = snapshot
	s.generation++
	gen := s.generation
	observers := append([]func(AnalysisSet, uint64){}, s.observers...)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(snapshot.Clone(), gen)
	}
	return gen
}

// Current returns a snapshot of the held set
func (s *Store) Current() AnalysisSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// IsEmpty is true iff the held set has no results
func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.IsEmpty()
}

// Filenames returns a copy of the held file list
func (s *Store) Filenames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.current.Filenames...)
}

// Generation counts replaces since the store was created
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Subscribe registers fn to run after every Replace, outside the lock
func (s *Store) Subscribe(fn func(set AnalysisSet, generation uint64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}
