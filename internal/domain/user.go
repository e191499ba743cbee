package domain

import "context"

// User is the notification profile kept in sync by the external identity
// provider. The engine only ever reads it.
type User struct {
	ID    int
	Name  string
	Email string
}

type UserRepository interface {
	GetById(ctx context.Context, id int) (*User, error)
	GetByIds(ctx context.Context, ids []int) ([]User, error)
	GetAll(ctx context.Context) ([]User, error)
}
