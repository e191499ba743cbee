// Package booking implements the reservation and settlement core: atomic
// seat claims, the booking lifecycle transitions, and the race between
// payment confirmation and lease expiry.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/movie-booking-engine/internal/domain"
	"github.com/metinatakli/movie-booking-engine/internal/scheduler"
	"github.com/metinatakli/movie-booking-engine/internal/tasks"
)

// maxReserveAttempts bounds the check-then-set retry loop when the seat
// map's conditional update loses to a concurrent writer.
const maxReserveAttempts = 3

// TaskScheduler is the deferred-execution capability the core consumes. It
// promises delivery no earlier than the deadline, possibly late, possibly
// more than once.
type TaskScheduler interface {
	Schedule(ctx context.Context, task scheduler.Task, fireAt time.Time) error
	Enqueue(ctx context.Context, task scheduler.Task) error
}

type Service struct {
	logger    *slog.Logger
	shows     domain.ShowRepository
	bookings  domain.BookingRepository
	movies    domain.MovieRepository
	payments  domain.PaymentProvider
	scheduler TaskScheduler
	now       func() time.Time
}

func NewService(
	logger *slog.Logger,
	shows domain.ShowRepository,
	bookings domain.BookingRepository,
	movies domain.MovieRepository,
	payments domain.PaymentProvider,
	taskScheduler TaskScheduler) *Service {

	return &Service{
		logger:    logger,
		shows:     shows,
		bookings:  bookings,
		movies:    movies,
		payments:  payments,
		scheduler: taskScheduler,
		now:       time.Now,
	}
}

// ReserveSeats atomically claims the requested seats, creates a Pending
// booking with a 10-minute lease, opens a hosted checkout for it and
// schedules the lease expiry check. The claim either marks every requested
// seat or none: a held seat fails with ErrSeatAlreadyReserved before any
// write, and a lost conditional update restarts the whole check-then-set
// cycle up to maxReserveAttempts.
func (s *Service) ReserveSeats(
	ctx context.Context,
	showID int,
	seatIDs []string,
	userID int) (*domain.Booking, error) {

	if len(seatIDs) == 0 {
		return nil, fmt.Errorf("at least one seat is required")
	}

	// A repeated label names the same seat. Collapse duplicates here so the
	// booking's seat list and amount always match what is actually held,
	// whatever the caller sent.
	seatIDs = slices.Clone(seatIDs)
	slices.Sort(seatIDs)
	seatIDs = slices.Compact(seatIDs)

	var booking *domain.Booking
	var show *domain.Show

	for attempt := 0; attempt < maxReserveAttempts; attempt++ {
		var err error

		show, err = s.shows.GetById(ctx, showID)
		if err != nil {
			return nil, err
		}

		candidate := domain.NewBooking(userID, show, seatIDs, s.now())

		err = show.MarkSeats(seatIDs, candidate.ID)
		if err != nil {
			return nil, err
		}

		err = s.bookings.CreateWithSeatMap(ctx, candidate, show)
		if err != nil {
			if errors.Is(err, domain.ErrEditConflict) {
				s.logger.Info("seat map conditional update lost race, retrying",
					"show_id", showID, "attempt", attempt+1)
				continue
			}

			return nil, err
		}

		booking = candidate
		break
	}

	if booking == nil {
		return nil, domain.ErrSeatAlreadyReserved
	}

	// The expiry check is scheduled before the checkout session is opened
	// so the seats cannot leak if the provider call fails.
	expireTask, err := scheduler.NewTask(tasks.TypeBookingExpire, tasks.BookingExpirePayload{BookingID: booking.ID})
	if err != nil {
		return nil, err
	}

	err = s.scheduler.Schedule(ctx, expireTask, booking.LeaseExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule lease expiry for booking %s: %w", booking.ID, err)
	}

	movie, err := s.movies.GetById(ctx, show.MovieID)
	if err != nil {
		return nil, err
	}

	checkout, err := s.payments.CreateCheckoutSession(ctx, booking, movie)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session for booking %s: %w", booking.ID, err)
	}

	err = s.bookings.SetCheckoutSession(ctx, booking.ID, checkout.ID, checkout.URL)
	if err != nil {
		return nil, err
	}

	booking.CheckoutSessionID = &checkout.ID
	booking.CheckoutURL = &checkout.URL

	return booking, nil
}

// OccupiedSeats returns the seats currently held for the show, sorted.
func (s *Service) OccupiedSeats(ctx context.Context, showID int) ([]string, error) {
	show, err := s.shows.GetById(ctx, showID)
	if err != nil {
		return nil, err
	}

	return show.OccupiedSeats(), nil
}

// ConfirmPayment applies the pending-to-paid transition. It is idempotent:
// an already-paid booking returns nil without a duplicate notification,
// while a booking in any other terminal state returns ErrInvalidState so
// automated callers can treat it as a no-op.
func (s *Service) ConfirmPayment(ctx context.Context, bookingID uuid.UUID) error {
	confirmed, err := s.bookings.ConfirmIfPending(ctx, bookingID)
	if err != nil {
		return err
	}

	if confirmed {
		s.logger.Info("booking confirmed", "booking_id", bookingID)
		s.emitBookingConfirmed(ctx, bookingID)

		return nil
	}

	booking, err := s.bookings.GetById(ctx, bookingID)
	if err != nil {
		return err
	}

	if booking.Status == domain.BookingStatusPaid {
		return nil
	}

	return domain.ErrInvalidState
}

// ExpireIfUnpaid releases the booking's seats if and only if it is still
// pending. Late, duplicate or already-settled deliveries are silent
// no-ops; the worker re-checks stored state and never trusts the clock.
func (s *Service) ExpireIfUnpaid(ctx context.Context, bookingID uuid.UUID) error {
	expired, err := s.bookings.ExpireIfPending(ctx, bookingID)
	if err != nil {
		return err
	}

	if expired {
		s.logger.Info("released seats for unpaid booking", "booking_id", bookingID)
	}

	return nil
}

// Booking returns a single booking by id.
func (s *Service) Booking(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	return s.bookings.GetById(ctx, bookingID)
}

// UserBookings lists a user's bookings, newest first.
func (s *Service) UserBookings(
	ctx context.Context,
	userID int,
	pagination domain.Pagination) ([]domain.BookingSummary, domain.Metadata, error) {

	return s.bookings.GetSummariesByUserId(ctx, userID, pagination)
}

// PublishShow creates a show with an empty seat map and announces it. The
// announcement is fire-and-forget: a scheduling failure is logged and never
// affects the created show.
func (s *Service) PublishShow(ctx context.Context, show *domain.Show) error {
	_, err := s.movies.GetById(ctx, show.MovieID)
	if err != nil {
		return err
	}

	err = s.shows.Create(ctx, show)
	if err != nil {
		return err
	}

	task, err := scheduler.NewTask(tasks.TypeEmailNewShow, tasks.NewShowPayload{ShowID: show.ID})
	if err == nil {
		err = s.scheduler.Enqueue(ctx, task)
	}
	if err != nil {
		s.logger.Error("failed to emit new show event", "show_id", show.ID, "error", err)
	}

	return nil
}

func (s *Service) emitBookingConfirmed(ctx context.Context, bookingID uuid.UUID) {
	task, err := scheduler.NewTask(tasks.TypeEmailBookingConfirmed, tasks.BookingConfirmedPayload{BookingID: bookingID})
	if err == nil {
		err = s.scheduler.Enqueue(ctx, task)
	}
	if err != nil {
		s.logger.Error("failed to emit booking confirmed event", "booking_id", bookingID, "error", err)
	}
}
