package integration_test

import (
	"context"
	"io"
	"log"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/movie-booking-engine/internal/booking"
	"github.com/metinatakli/movie-booking-engine/internal/domain"
	"github.com/metinatakli/movie-booking-engine/internal/repository"
	"github.com/metinatakli/movie-booking-engine/internal/scheduler"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
)

// fixedCheckoutProvider and dropScheduler stand in for the external
// collaborators; the suite is about the SQL underneath them.
type fixedCheckoutProvider struct{}

func (fixedCheckoutProvider) CreateCheckoutSession(
	ctx context.Context,
	booking *domain.Booking,
	movie *domain.Movie) (*domain.CheckoutSession, error) {

	return &domain.CheckoutSession{
		ID:  "cs_" + booking.ID.String(),
		URL: "https://checkout.test/" + booking.ID.String(),
	}, nil
}

type dropScheduler struct{}

func (dropScheduler) Schedule(ctx context.Context, task scheduler.Task, fireAt time.Time) error {
	return nil
}

func (dropScheduler) Enqueue(ctx context.Context, task scheduler.Task) error {
	return nil
}

// BookingStorageSuite runs the reservation and settlement paths against a
// real database, where the seat-map conditional update and the booking
// state transitions actually contend.
type BookingStorageSuite struct {
	suite.Suite
	container *PostgresContainer
	db        *pgxpool.Pool
	shows     *repository.PostgresShowRepository
	bookings  *repository.PostgresBookingRepository
	service   *booking.Service

	showId int
	userId int
}

func TestBookingStorageSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed suite in short mode")
	}

	suite.Run(t, new(BookingStorageSuite))
}

func (s *BookingStorageSuite) SetupSuite() {
	ctx := context.Background()

	container, err := getDbContainer(ctx)
	s.Require().NoError(err)
	s.container = container

	db, err := pgxpool.New(ctx, container.ConnectionString)
	s.Require().NoError(err)
	s.db = db

	s.shows = repository.NewPostgresShowRepository(db)
	s.bookings = repository.NewPostgresBookingRepository(db)

	s.service = booking.NewService(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		s.shows,
		s.bookings,
		repository.NewPostgresMovieRepository(db),
		fixedCheckoutProvider{},
		dropScheduler{},
	)
}

func (s *BookingStorageSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		if err := testcontainers.TerminateContainer(s.container.Container); err != nil {
			log.Printf("failed to terminate container: %s", err)
		}
	}
}

func (s *BookingStorageSuite) SetupTest() {
	ctx := context.Background()

	_, err := s.db.Exec(ctx, `TRUNCATE bookings, shows, movies, users RESTART IDENTITY CASCADE`)
	s.Require().NoError(err)

	var movieId int
	err = s.db.QueryRow(ctx, `INSERT INTO movies (title) VALUES ('Dune') RETURNING id`).Scan(&movieId)
	s.Require().NoError(err)

	err = s.db.QueryRow(ctx, `INSERT INTO users (name, email) VALUES ('Ada', 'ada@example.com') RETURNING id`).
		Scan(&s.userId)
	s.Require().NoError(err)

	show := &domain.Show{
		MovieID:    movieId,
		StartTime:  time.Now().Add(24 * time.Hour).Truncate(time.Second),
		BasePrice:  decimal.NewFromFloat(10.00),
		SeatLayout: []string{"A1", "A2", "A3", "A4"},
	}
	s.Require().NoError(s.shows.Create(ctx, show))
	s.showId = show.ID
}

func (s *BookingStorageSuite) reserve(seats ...string) *domain.Booking {
	created, err := s.service.ReserveSeats(context.Background(), s.showId, seats, s.userId)
	s.Require().NoError(err)

	return created
}

func (s *BookingStorageSuite) TestConcurrentOverlappingReservationsHaveOneWinner() {
	ctx := context.Background()

	seatSets := [][]string{{"A1", "A2"}, {"A2", "A3"}}
	results := make([]*domain.Booking, len(seatSets))
	errs := make([]error, len(seatSets))

	var wg sync.WaitGroup
	for i := range seatSets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.service.ReserveSeats(ctx, s.showId, seatSets[i], s.userId)
		}(i)
	}
	wg.Wait()

	var winner *domain.Booking
	for i := range seatSets {
		if errs[i] == nil {
			s.Require().Nil(winner, "only one reservation may win")
			winner = results[i]
		} else {
			s.ErrorIs(errs[i], domain.ErrSeatAlreadyReserved)
		}
	}
	s.Require().NotNil(winner, "one reservation must win")

	stored, err := s.bookings.GetById(ctx, winner.ID)
	s.Require().NoError(err)
	s.Equal(domain.BookingStatusPending, stored.Status)

	// the committed seat map holds exactly the winner's seats
	show, err := s.shows.GetById(ctx, s.showId)
	s.Require().NoError(err)
	s.Len(show.SeatMap, len(winner.Seats))
	for _, seat := range winner.Seats {
		holder, held := show.HeldBy(seat)
		s.True(held)
		s.Equal(winner.ID, holder)
	}
}

func (s *BookingStorageSuite) TestConfirmAndExpireRaceSettlesExactlyOnce() {
	ctx := context.Background()

	created := s.reserve("A1", "A2")

	var confirmed, expired bool
	var confirmErr, expireErr error

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		confirmed, confirmErr = s.bookings.ConfirmIfPending(ctx, created.ID)
	}()
	go func() {
		defer wg.Done()
		expired, expireErr = s.bookings.ExpireIfPending(ctx, created.ID)
	}()
	wg.Wait()

	s.Require().NoError(confirmErr)
	s.Require().NoError(expireErr)
	s.True(confirmed != expired, "exactly one transition must win")

	stored, err := s.bookings.GetById(ctx, created.ID)
	s.Require().NoError(err)

	show, err := s.shows.GetById(ctx, s.showId)
	s.Require().NoError(err)

	if confirmed {
		s.Equal(domain.BookingStatusPaid, stored.Status)
		s.Len(show.SeatMap, 2, "a paid booking keeps its seats")
	} else {
		s.Equal(domain.BookingStatusExpired, stored.Status)
		s.Empty(show.SeatMap, "an expired booking releases its seats")
	}
}

func (s *BookingStorageSuite) TestExpireAfterConfirmLeavesPaidSeatsHeld() {
	ctx := context.Background()

	created := s.reserve("A1")

	confirmed, err := s.bookings.ConfirmIfPending(ctx, created.ID)
	s.Require().NoError(err)
	s.True(confirmed)

	expired, err := s.bookings.ExpireIfPending(ctx, created.ID)
	s.Require().NoError(err)
	s.False(expired)

	stored, err := s.bookings.GetById(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(domain.BookingStatusPaid, stored.Status)

	show, err := s.shows.GetById(ctx, s.showId)
	s.Require().NoError(err)
	holder, held := show.HeldBy("A1")
	s.True(held)
	s.Equal(created.ID, holder)
}

func (s *BookingStorageSuite) TestExpireReleasesOnlyTheBookingsOwnSeats() {
	ctx := context.Background()

	first := s.reserve("A1")
	second := s.reserve("A2", "A3")

	expired, err := s.bookings.ExpireIfPending(ctx, second.ID)
	s.Require().NoError(err)
	s.True(expired)

	stored, err := s.bookings.GetById(ctx, second.ID)
	s.Require().NoError(err)
	s.Equal(domain.BookingStatusExpired, stored.Status)

	show, err := s.shows.GetById(ctx, s.showId)
	s.Require().NoError(err)
	s.Equal(domain.SeatMap{"A1": first.ID}, show.SeatMap)
}

func (s *BookingStorageSuite) TestSeatMapUpdateRejectsStaleVersion() {
	ctx := context.Background()

	first, err := s.shows.GetById(ctx, s.showId)
	s.Require().NoError(err)

	second, err := s.shows.GetById(ctx, s.showId)
	s.Require().NoError(err)

	s.Require().NoError(first.MarkSeats([]string{"A1"}, uuid.New()))
	s.Require().NoError(s.shows.UpdateSeatMap(ctx, first))

	s.Require().NoError(second.MarkSeats([]string{"A2"}, uuid.New()))
	s.ErrorIs(s.shows.UpdateSeatMap(ctx, second), domain.ErrEditConflict)
}
