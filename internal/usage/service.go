package usage

import (
	"context"
	"time"

	"resume-optimizer/internal/shared/util"
)

const defaultWindow = 24 * time.Hour

type store interface {
	Get(ctx context.Context, clientID string, policy Policy, now time.Time) (Usage, error)
	Consume(ctx context.Context, clientID string, n int, policy Policy, now time.Time) (Usage, error)
	Reset(ctx context.Context, clientID string, policy Policy, now time.Time) (Usage, error)
}

// Service manages generation quotas via an underlying store. Client IDs are
// hashed before they reach the store.
type Service struct {
	store  store
	policy Policy
	now    func() time.Time
}

// NewService constructs a Service with in-memory store. A limit <= 0 disables the quota.
func NewService(limit int) *Service {
	return newService(newMemoryStore(), limit)
}

// NewPostgresService constructs a Service backed by Postgres.
func NewPostgresService(pgStore store, limit int) *Service {
	return newService(pgStore, limit)
}

func newService(st store, limit int) *Service {
	return &Service{
		store:  st,
		policy: Policy{Limit: limit, Window: defaultWindow},
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Enabled reports whether calls are counted at all.
func (s *Service) Enabled() bool {
	return s != nil && s.policy.Limit > 0
}

// Get returns the current usage for a client, starting a new window if the old one expired.
func (s *Service) Get(ctx context.Context, clientID string) (Usage, error) {
	return s.store.Get(ctx, util.HashClientKey(clientID), s.policy, s.now())
}

// Consume records one generation call, or returns ErrLimitReached without recording it.
func (s *Service) Consume(ctx context.Context, clientID string) (Usage, error) {
	if !s.Enabled() {
		return Usage{}, nil
	}
	return s.store.Consume(ctx, util.HashClientKey(clientID), 1, s.policy, s.now())
}

// Reset sets usage to zero and restarts the window.
func (s *Service) Reset(ctx context.Context, clientID string) (Usage, error) {
	return s.store.Reset(ctx, util.HashClientKey(clientID), s.policy, s.now())
}
