package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"resume-optimizer/internal/usage"
)

type MockQuota struct {
	mock.Mock
}

func (m *MockQuota) Consume(ctx context.Context, clientID string) (usage.Usage, error) {
	args := m.Called(ctx, clientID)

	return args.Get(0).(usage.Usage), args.Error(1)
}
