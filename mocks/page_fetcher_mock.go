package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"resume-optimizer/internal/jobdesc"
)

type MockPageFetcher struct {
	mock.Mock
}

func (m *MockPageFetcher) Fetch(ctx context.Context, rawURL string) (jobdesc.Page, error) {
	args := m.Called(ctx, rawURL)

	return args.Get(0).(jobdesc.Page), args.Error(1)
}
