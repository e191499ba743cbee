package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/movie-booking-engine/internal/domain"
)

type PostgresBookingRepository struct {
	db *pgxpool.Pool
}

func NewPostgresBookingRepository(db *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{
		db: db,
	}
}

// CreateWithSeatMap persists the seat-map claim and the new booking in a
// single transaction. The seat map write is conditional on the version the
// show was loaded with, so two racing reservations can never both commit:
// the loser sees zero affected rows and gets domain.ErrEditConflict with
// no partial state left behind.
func (p *PostgresBookingRepository) CreateWithSeatMap(
	ctx context.Context,
	booking *domain.Booking,
	show *domain.Show) error {

	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			UPDATE shows
			SET seat_map = $1, version = version + 1
			WHERE id = $2 AND version = $3
		`

		tag, err := tx.Exec(ctx, query, show.SeatMap, show.ID, show.Version)
		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return domain.ErrEditConflict
		}

		query = `
			INSERT INTO bookings (id, user_id, show_id, seats, amount, status, created_at, lease_expires_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`

		_, err = tx.Exec(
			ctx,
			query,
			booking.ID,
			booking.UserID,
			booking.ShowID,
			booking.Seats,
			booking.Amount,
			booking.Status,
			booking.CreatedAt,
			booking.LeaseExpiresAt,
		)

		return err
	})
}

func (p *PostgresBookingRepository) GetById(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	query := `
		SELECT id, user_id, show_id, seats, amount, status, checkout_session_id, checkout_url,
			created_at, lease_expires_at
		FROM bookings
		WHERE id = $1
	`

	var booking domain.Booking

	err := p.db.QueryRow(ctx, query, id).Scan(
		&booking.ID,
		&booking.UserID,
		&booking.ShowID,
		&booking.Seats,
		&booking.Amount,
		&booking.Status,
		&booking.CheckoutSessionID,
		&booking.CheckoutURL,
		&booking.CreatedAt,
		&booking.LeaseExpiresAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &booking, nil
}

func (p *PostgresBookingRepository) SetCheckoutSession(
	ctx context.Context,
	id uuid.UUID,
	sessionID, url string) error {

	query := `
		UPDATE bookings
		SET checkout_session_id = $1, checkout_url = $2
		WHERE id = $3
	`

	tag, err := p.db.Exec(ctx, query, sessionID, url, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

// ConfirmIfPending applies the paid transition conditionally on the stored
// state still being pending. The returned bool is true only for the caller
// that actually won the transition.
func (p *PostgresBookingRepository) ConfirmIfPending(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE bookings
		SET status = 'paid'
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := p.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// ExpireIfPending transitions the booking to expired and releases its seats
// from the show's seat map in one transaction. The status predicate makes
// the transition race-safe against a concurrent payment confirmation; the
// FOR UPDATE on the show row serializes the seat-map prune against
// concurrent reservation writers.
func (p *PostgresBookingRepository) ExpireIfPending(ctx context.Context, id uuid.UUID) (bool, error) {
	expired := false

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			UPDATE bookings
			SET status = 'expired'
			WHERE id = $1 AND status = 'pending'
			RETURNING show_id
		`

		var showID int

		err := tx.QueryRow(ctx, query, id).Scan(&showID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}

			return err
		}

		var seatMap domain.SeatMap

		query = `SELECT seat_map FROM shows WHERE id = $1 FOR UPDATE`

		err = tx.QueryRow(ctx, query, showID).Scan(&seatMap)
		if err != nil {
			return err
		}

		for seatID, holder := range seatMap {
			if holder == id {
				delete(seatMap, seatID)
			}
		}

		query = `UPDATE shows SET seat_map = $1, version = version + 1 WHERE id = $2`

		_, err = tx.Exec(ctx, query, seatMap, showID)
		if err != nil {
			return err
		}

		expired = true

		return nil
	})

	return expired, err
}

func (p *PostgresBookingRepository) GetSummariesByUserId(
	ctx context.Context,
	userID int,
	pagination domain.Pagination) ([]domain.BookingSummary, domain.Metadata, error) {

	query := `
		SELECT
			COUNT(*) OVER(),
			b.id,
			m.title,
			s.start_time,
			b.seats,
			b.amount,
			b.status,
			b.created_at
		FROM bookings b
		JOIN shows s ON b.show_id = s.id
		JOIN movies m ON s.movie_id = m.id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := p.db.Query(ctx, query, userID, pagination.Limit(), pagination.Offset())
	if err != nil {
		return nil, domain.Metadata{}, err
	}
	defer rows.Close()

	summaries := make([]domain.BookingSummary, 0)
	totalRecords := 0

	for rows.Next() {
		var summary domain.BookingSummary

		err := rows.Scan(
			&totalRecords,
			&summary.BookingID,
			&summary.MovieTitle,
			&summary.ShowTime,
			&summary.Seats,
			&summary.Amount,
			&summary.Status,
			&summary.CreatedAt,
		)
		if err != nil {
			return nil, domain.Metadata{}, err
		}

		summaries = append(summaries, summary)
	}

	if err = rows.Err(); err != nil {
		return nil, domain.Metadata{}, err
	}

	return summaries, pagination.Metadata(totalRecords), nil
}

func runInTx(ctx context.Context, db *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	var txOptions pgx.TxOptions

	tx, err := db.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}

	err = fn(tx)
	if err == nil {
		return tx.Commit(ctx)
	}

	rollbackErr := tx.Rollback(ctx)
	if rollbackErr != nil {
		return errors.Join(err, rollbackErr)
	}

	return err
}
