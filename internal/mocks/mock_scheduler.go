package mocks

import (
	"context"
	"time"

	"github.com/metinatakli/movie-booking-engine/internal/scheduler"
	"github.com/stretchr/testify/mock"
)

type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Schedule(ctx context.Context, task scheduler.Task, fireAt time.Time) error {
	args := m.Called(ctx, task, fireAt)
	return args.Error(0)
}

func (m *MockScheduler) Enqueue(ctx context.Context, task scheduler.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}
