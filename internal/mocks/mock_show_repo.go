package mocks

import (
	"context"
	"time"

	"github.com/metinatakli/movie-booking-engine/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockShowRepo struct {
	mock.Mock
	domain.ShowRepository
}

func (m *MockShowRepo) Create(ctx context.Context, show *domain.Show) error {
	args := m.Called(ctx, show)
	return args.Error(0)
}

func (m *MockShowRepo) GetById(ctx context.Context, id int) (*domain.Show, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Show), args.Error(1)
}

func (m *MockShowRepo) UpdateSeatMap(ctx context.Context, show *domain.Show) error {
	args := m.Called(ctx, show)
	return args.Error(0)
}

func (m *MockShowRepo) GetUpcomingShows(ctx context.Context, from, to time.Time) ([]domain.UpcomingShow, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UpcomingShow), args.Error(1)
}
