// Package tasks defines the deferred-task contracts shared between the
// booking core (producer) and the notification workers (consumers).
package tasks

import "github.com/google/uuid"

const (
	TypeBookingExpire         = "booking:expire"
	TypeEmailBookingConfirmed = "email:booking_confirmed"
	TypeEmailNewShow          = "email:new_show"
	TypeEmailShowReminders    = "email:show_reminders"
)

type BookingExpirePayload struct {
	BookingID uuid.UUID `json:"bookingId"`
}

type BookingConfirmedPayload struct {
	BookingID uuid.UUID `json:"bookingId"`
}

type NewShowPayload struct {
	ShowID int `json:"showId"`
}
