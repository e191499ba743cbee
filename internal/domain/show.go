package domain

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SeatMap maps a seat label (e.g. "A12") to the booking currently holding it.
// Seats not present in the map are free. The map is only ever persisted
// through a conditional update keyed on the show's version.
type SeatMap map[string]uuid.UUID

type Show struct {
	ID         int
	MovieID    int
	StartTime  time.Time
	BasePrice  decimal.Decimal
	SeatLayout []string
	SeatMap    SeatMap
	Version    int
}

// HasSeat reports whether the seat label exists in the show's layout.
func (s *Show) HasSeat(seatID string) bool {
	return slices.Contains(s.SeatLayout, seatID)
}

// HeldBy returns the booking holding the seat, if any.
func (s *Show) HeldBy(seatID string) (uuid.UUID, bool) {
	bookingID, ok := s.SeatMap[seatID]
	return bookingID, ok
}

// MarkSeats assigns every requested seat to the booking. It is
// all-or-nothing: if any seat is already held, nothing is mutated and
// ErrSeatAlreadyReserved is returned. A seat outside the layout returns
// ErrSeatNotFound.
func (s *Show) MarkSeats(seatIDs []string, bookingID uuid.UUID) error {
	for _, seatID := range seatIDs {
		if !s.HasSeat(seatID) {
			return ErrSeatNotFound
		}
		if _, held := s.SeatMap[seatID]; held {
			return ErrSeatAlreadyReserved
		}
	}

	if s.SeatMap == nil {
		s.SeatMap = make(SeatMap, len(seatIDs))
	}

	for _, seatID := range seatIDs {
		s.SeatMap[seatID] = bookingID
	}

	return nil
}

// ReleaseSeats frees every seat held by the booking and no others.
func (s *Show) ReleaseSeats(bookingID uuid.UUID) {
	for seatID, holder := range s.SeatMap {
		if holder == bookingID {
			delete(s.SeatMap, seatID)
		}
	}
}

// OccupiedSeats returns the held seat labels in sorted order.
func (s *Show) OccupiedSeats() []string {
	seats := make([]string, 0, len(s.SeatMap))
	for seatID := range s.SeatMap {
		seats = append(seats, seatID)
	}

	slices.Sort(seats)

	return seats
}

// UpcomingShow is the projection used by the reminder scan.
type UpcomingShow struct {
	ShowID     int
	MovieTitle string
	StartTime  time.Time
	Attendees  []int
}

type ShowRepository interface {
	Create(ctx context.Context, show *Show) error
	GetById(ctx context.Context, id int) (*Show, error)

	// UpdateSeatMap persists the seat map with a conditional update keyed
	// on the version the show was loaded with. Returns ErrEditConflict if
	// another writer committed first.
	UpdateSeatMap(ctx context.Context, show *Show) error

	// GetUpcomingShows returns shows starting within [from, to) together
	// with the distinct user ids holding paid bookings for them.
	GetUpcomingShows(ctx context.Context, from, to time.Time) ([]UpcomingShow, error)
}
