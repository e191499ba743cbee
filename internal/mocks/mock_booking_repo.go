package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/metinatakli/movie-booking-engine/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockBookingRepo struct {
	mock.Mock
	domain.BookingRepository
}

func (m *MockBookingRepo) CreateWithSeatMap(ctx context.Context, booking *domain.Booking, show *domain.Show) error {
	args := m.Called(ctx, booking, show)
	return args.Error(0)
}

func (m *MockBookingRepo) GetById(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepo) SetCheckoutSession(ctx context.Context, id uuid.UUID, sessionID, url string) error {
	args := m.Called(ctx, id, sessionID, url)
	return args.Error(0)
}

func (m *MockBookingRepo) ConfirmIfPending(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepo) ExpireIfPending(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepo) GetSummariesByUserId(
	ctx context.Context,
	userID int,
	pagination domain.Pagination) ([]domain.BookingSummary, domain.Metadata, error) {

	args := m.Called(ctx, userID, pagination)
	if args.Get(0) == nil {
		return nil, domain.Metadata{}, args.Error(2)
	}
	return args.Get(0).([]domain.BookingSummary), args.Get(1).(domain.Metadata), args.Error(2)
}
