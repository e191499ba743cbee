package domain

import "context"

// Movie is the read-only slice of the catalog the engine needs for
// checkout line items and notification copy. Catalog management itself is
// an external concern.
type Movie struct {
	ID        int
	Title     string
	PosterUrl string
}

type MovieRepository interface {
	GetById(ctx context.Context, id int) (*Movie, error)
}
