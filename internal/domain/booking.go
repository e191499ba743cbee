package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LeaseWindow is how long a Pending booking holds its seats before the
// expiry worker releases them.
const LeaseWindow = 10 * time.Minute

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusPaid      BookingStatus = "paid"
	BookingStatusExpired   BookingStatus = "expired"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Terminal reports whether the status is immutable.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusPaid || s == BookingStatusExpired || s == BookingStatusCancelled
}

// CanTransitionTo encodes the monotonic lifecycle: pending may move to any
// terminal state, terminal states never move.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	return s == BookingStatusPending && next.Terminal()
}

type Booking struct {
	ID                uuid.UUID
	UserID            int
	ShowID            int
	Seats             []string
	Amount            decimal.Decimal
	Status            BookingStatus
	CheckoutSessionID *string
	CheckoutURL       *string
	CreatedAt         time.Time
	LeaseExpiresAt    time.Time
}

// NewBooking creates a Pending booking for the given seats with the lease
// clock started at now.
func NewBooking(userID int, show *Show, seatIDs []string, now time.Time) *Booking {
	amount := show.BasePrice.Mul(decimal.NewFromInt(int64(len(seatIDs))))

	return &Booking{
		ID:             uuid.New(),
		UserID:         userID,
		ShowID:         show.ID,
		Seats:          seatIDs,
		Amount:         amount,
		Status:         BookingStatusPending,
		CreatedAt:      now,
		LeaseExpiresAt: now.Add(LeaseWindow),
	}
}

// BookingSummary is the listing projection for a user's bookings.
type BookingSummary struct {
	BookingID  uuid.UUID
	MovieTitle string
	ShowTime   time.Time
	Seats      []string
	Amount     decimal.Decimal
	Status     BookingStatus
	CreatedAt  time.Time
}

type BookingRepository interface {
	// CreateWithSeatMap writes the booking and its seat-map claim in a
	// single transaction. The seat map write is conditional on
	// show.Version; ErrEditConflict means another writer won the race and
	// nothing was persisted.
	CreateWithSeatMap(ctx context.Context, booking *Booking, show *Show) error

	GetById(ctx context.Context, id uuid.UUID) (*Booking, error)

	// SetCheckoutSession attaches the payment session to the booking.
	SetCheckoutSession(ctx context.Context, id uuid.UUID, sessionID, url string) error

	// ConfirmIfPending transitions the booking to paid only if it is still
	// pending at write time. Returns false if the conditional update
	// matched no row.
	ConfirmIfPending(ctx context.Context, id uuid.UUID) (bool, error)

	// ExpireIfPending transitions the booking to expired only if it is
	// still pending, releasing exactly its seats from the show's seat map
	// in the same transaction. Returns false if the booking was no longer
	// pending.
	ExpireIfPending(ctx context.Context, id uuid.UUID) (bool, error)

	GetSummariesByUserId(ctx context.Context, userID int, pagination Pagination) ([]BookingSummary, Metadata, error)
}
