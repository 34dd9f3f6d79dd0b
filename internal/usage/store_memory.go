package usage

import (
	"context"
	"sync"
	"time"
)

const memorySweepInterval = time.Hour

type memoryStore struct {
	mu        sync.Mutex
	data      map[string]Usage
	lastSweep time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]Usage)}
}

func (s *memoryStore) Get(ctx context.Context, clientID string, policy Policy, now time.Time) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.ensureLocked(clientID, policy, now)
	return u, nil
}

func (s *memoryStore) Consume(ctx context.Context, clientID string, n int, policy Policy, now time.Time) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.ensureLocked(clientID, policy, now)
	if n <= 0 {
		return u, nil
	}
	if u.Used+n > u.Limit {
		return u, ErrLimitReached
	}
	u.Used += n
	s.data[clientID] = u
	return u, nil
}

func (s *memoryStore) Reset(ctx context.Context, clientID string, policy Policy, now time.Time) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(now)
	u := Usage{Limit: policy.Limit, Used: 0, ResetsAt: now.Add(policy.Window)}
	s.data[clientID] = u
	return u, nil
}

func (s *memoryStore) ensureLocked(clientID string, policy Policy, now time.Time) Usage {
	s.sweepLocked(now)
	u, ok := s.data[clientID]
	if !ok || !now.Before(u.ResetsAt) {
		u = Usage{Used: 0, ResetsAt: now.Add(policy.Window)}
	}
	u.Limit = policy.Limit
	s.data[clientID] = u
	return u
}

// sweepLocked drops windows that have already reset; they would be recreated empty.
func (s *memoryStore) sweepLocked(now time.Time) {
	if now.Sub(s.lastSweep) < memorySweepInterval {
		return
	}
	s.lastSweep = now
	for id, u := range s.data {
		if !now.Before(u.ResetsAt) {
			delete(s.data, id)
		}
	}
}
