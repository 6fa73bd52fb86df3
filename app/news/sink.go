package news

import (
	"sync"
)

// Sink collects per-source fetch results from concurrent workers while
// preserving source-major output order regardless of completion order.
type Sink struct {
	mu      sync.Mutex
	buckets [][]Candidate
}

func NewSink(sourceCount int) *Sink {
	return &Sink{
		buckets: make([][]Candidate, sourceCount),
	}
}

func (s *Sink) Put(sourceIndex int, items []Candidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sourceIndex < 0 || sourceIndex >= len(s.buckets) {
		return
	}
	s.buckets[sourceIndex] = items
}

func (s *Sink) Flatten() []Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []Candidate
	for _, bucket := range s.buckets {
		all = append(all, bucket...)
	}
	return all
}
