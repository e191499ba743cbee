package domain

import "errors"

var (
	ErrRecordNotFound      = errors.New("record not found")
	ErrEditConflict        = errors.New("edit conflict")
	ErrSeatAlreadyReserved = errors.New("seat(s) are already reserved")
	ErrSeatNotFound        = errors.New("seat does not exist for this show")
	ErrInvalidState        = errors.New("booking is already in a terminal state")
)
