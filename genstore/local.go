package genstore

import (
	"context"
	"sync"
	"time"
)

type localEntry struct {
	gen       uint64
	updatedAt time.Time
}

// Local keeps generations in-process. Per-group scopes accumulate as groups
// are visited, so an optional cleanup loop prunes scopes that have not been
// bumped for longer than the retention.
type Local struct {
	mu   sync.RWMutex
	gens map[string]localEntry

	ticker    *time.Ticker
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ GenStore = (*Local)(nil)

// NewLocal creates a Local store. cleanupInterval <= 0 or retention <= 0
// disables the background loop.
func NewLocal(cleanupInterval, retention time.Duration) *Local {
	s := &Local{gens: make(map[string]localEntry)}
	if cleanupInterval > 0 && retention > 0 {
		s.ticker = time.NewTicker(cleanupInterval)
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go s.loop(retention)
	}
	return s
}

func (s *Local) loop(retention time.Duration) {
	defer s.wg.Done()
	for {
		select {
		case <-s.ticker.C:
			s.Cleanup(retention)
		case <-s.stopCh:
			return
		}
	}
}

func (s *Local) Snapshot(_ context.Context, scope string) (uint64, error) {
	s.mu.RLock()
	e := s.gens[scope]
	s.mu.RUnlock()
	return e.gen, nil
}

// SnapshotMany reads every scope under one read lock.
func (s *Local) SnapshotMany(_ context.Context, scopes []string) (map[string]uint64, error) {
	out := make(map[string]uint64, len(scopes))
	s.mu.RLock()
	for _, k := range scopes {
		out[k] = s.gens[k].gen
	}
	s.mu.RUnlock()
	return out, nil
}

func (s *Local) Bump(_ context.Context, scope string) (uint64, error) {
	now := time.Now()
	s.mu.Lock()
	e := s.gens[scope]
	e.gen++
	e.updatedAt = now
	s.gens[scope] = e
	s.mu.Unlock()
	return e.gen, nil
}

// Cleanup drops scopes not bumped within retention. A dropped scope reads as
// generation 0 again, which can only make a pending commit for it fail if
// that commit had observed a non-zero generation.
func (s *Local) Cleanup(retention time.Duration) {
	if retention <= 0 {
		return
	}
	cutoff := time.Now().Add(-retention)

	s.mu.Lock()
	for k, e := range s.gens {
		if e.updatedAt.Before(cutoff) {
			delete(s.gens, k)
		}
	}
	s.mu.Unlock()
}

func (s *Local) Close(_ context.Context) error {
	s.closeOnce.Do(func() {
		if s.stopCh != nil {
			close(s.stopCh)
			s.ticker.Stop()
			s.wg.Wait()
		}
	})
	return nil
}
