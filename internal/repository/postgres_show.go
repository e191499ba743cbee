package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/movie-booking-engine/internal/domain"
)

type PostgresShowRepository struct {
	db *pgxpool.Pool
}

func NewPostgresShowRepository(db *pgxpool.Pool) *PostgresShowRepository {
	return &PostgresShowRepository{
		db: db,
	}
}

func (p *PostgresShowRepository) Create(ctx context.Context, show *domain.Show) error {
	query := `
		INSERT INTO shows (movie_id, start_time, base_price, seat_layout, seat_map)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, version
	`

	if show.SeatMap == nil {
		show.SeatMap = domain.SeatMap{}
	}

	err := p.db.QueryRow(
		ctx,
		query,
		show.MovieID,
		show.StartTime,
		show.BasePrice,
		show.SeatLayout,
		show.SeatMap,
	).Scan(&show.ID, &show.Version)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.ErrEditConflict
		}

		return err
	}

	return nil
}

func (p *PostgresShowRepository) GetById(ctx context.Context, id int) (*domain.Show, error) {
	query := `
		SELECT id, movie_id, start_time, base_price, seat_layout, seat_map, version
		FROM shows
		WHERE id = $1
	`

	var show domain.Show

	err := p.db.QueryRow(ctx, query, id).Scan(
		&show.ID,
		&show.MovieID,
		&show.StartTime,
		&show.BasePrice,
		&show.SeatLayout,
		&show.SeatMap,
		&show.Version,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &show, nil
}

func (p *PostgresShowRepository) UpdateSeatMap(ctx context.Context, show *domain.Show) error {
	query := `
		UPDATE shows
		SET seat_map = $1, version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING version
	`

	err := p.db.QueryRow(ctx, query, show.SeatMap, show.ID, show.Version).Scan(&show.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrEditConflict
		}

		return err
	}

	return nil
}

func (p *PostgresShowRepository) GetUpcomingShows(
	ctx context.Context,
	from, to time.Time) ([]domain.UpcomingShow, error) {

	query := `
		SELECT s.id, m.title, s.start_time,
			COALESCE(array_agg(DISTINCT b.user_id) FILTER (WHERE b.user_id IS NOT NULL), '{}')
		FROM shows s
		JOIN movies m ON s.movie_id = m.id
		LEFT JOIN bookings b ON b.show_id = s.id AND b.status = 'paid'
		WHERE s.start_time >= $1 AND s.start_time < $2
		GROUP BY s.id, m.title, s.start_time
		ORDER BY s.start_time
	`

	rows, err := p.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shows := make([]domain.UpcomingShow, 0)

	for rows.Next() {
		var show domain.UpcomingShow

		err := rows.Scan(&show.ShowID, &show.MovieTitle, &show.StartTime, &show.Attendees)
		if err != nil {
			return nil, err
		}

		shows = append(shows, show)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return shows, nil
}
