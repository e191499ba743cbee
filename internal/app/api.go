package app

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	ValidationErrors []ValidationError `json:"validationErrors"`
	RequestId        string            `json:"requestId,omitempty"`
	Timestamp        time.Time         `json:"timestamp"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}

type CreateBookingRequest struct {
	UserId int      `json:"userId" validate:"required,gt=0"`
	ShowId int      `json:"showId" validate:"required,gt=0"`
	Seats  []string `json:"seats" validate:"required,min=1,max=10,unique,dive,seat_label"`
}

type BookingResponse struct {
	Id             uuid.UUID       `json:"id"`
	ShowId         int             `json:"showId"`
	Seats          []string        `json:"seats"`
	Amount         decimal.Decimal `json:"amount"`
	Status         string          `json:"status"`
	CheckoutUrl    *string         `json:"checkoutUrl,omitempty"`
	LeaseExpiresAt time.Time       `json:"leaseExpiresAt"`
}

type SeatsResponse struct {
	ShowId        int      `json:"showId"`
	OccupiedSeats []string `json:"occupiedSeats"`
}

type CreateShowRequest struct {
	MovieId    int             `json:"movieId" validate:"required,gt=0"`
	StartTime  time.Time       `json:"startTime" validate:"required"`
	BasePrice  decimal.Decimal `json:"basePrice" validate:"required"`
	SeatLayout []string        `json:"seatLayout" validate:"required,min=1,unique,dive,seat_label"`
}

type ShowResponse struct {
	Id         int             `json:"id"`
	MovieId    int             `json:"movieId"`
	StartTime  time.Time       `json:"startTime"`
	BasePrice  decimal.Decimal `json:"basePrice"`
	SeatLayout []string        `json:"seatLayout"`
}

type BookingSummary struct {
	Id         uuid.UUID       `json:"id"`
	MovieTitle string          `json:"movieTitle"`
	ShowTime   time.Time       `json:"showTime"`
	Seats      []string        `json:"seats"`
	Amount     decimal.Decimal `json:"amount"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type Metadata struct {
	CurrentPage  int `json:"currentPage"`
	FirstPage    int `json:"firstPage"`
	LastPage     int `json:"lastPage"`
	PageSize     int `json:"pageSize"`
	TotalRecords int `json:"totalRecords"`
}

type UserBookingsResponse struct {
	Bookings []BookingSummary `json:"bookings"`
	Metadata Metadata         `json:"metadata"`
}
