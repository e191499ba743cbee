package app

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/metinatakli/movie-booking-engine/internal/domain"
)

func (app *application) CreateBookingHandler(w http.ResponseWriter, r *http.Request) {
	var input CreateBookingRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	booking, err := app.bookings.ReserveSeats(r.Context(), input.ShowId, input.Seats, input.UserId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponseWithErr(w, r, fmt.Errorf("show %d not found", input.ShowId))
		case errors.Is(err, domain.ErrSeatNotFound):
			app.badRequestResponse(w, r, err)
		case errors.Is(err, domain.ErrSeatAlreadyReserved):
			app.metrics.seatConflicts.Add(r.Context(), 1)
			app.editConflictResponseWithErr(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	app.metrics.bookingsReserved.Add(r.Context(), 1)

	resp := toBookingResponse(booking)

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) GetBookingHandler(w http.ResponseWriter, r *http.Request) {
	bookingId, err := app.readUUIDParam(r, "bookingId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	booking, err := app.bookings.Booking(r.Context(), bookingId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	resp := toBookingResponse(booking)

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) GetOccupiedSeatsHandler(w http.ResponseWriter, r *http.Request) {
	showId, err := app.readIntParam(r, "showId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	seats, err := app.bookings.OccupiedSeats(r.Context(), showId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	resp := SeatsResponse{
		ShowId:        showId,
		OccupiedSeats: seats,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) GetUserBookingsHandler(w http.ResponseWriter, r *http.Request) {
	userId, err := app.readIntParam(r, "userId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	pagination := app.readPagination(r)

	summaries, metadata, err := app.bookings.UserBookings(r.Context(), userId, pagination)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := UserBookingsResponse{
		Bookings: toBookingSummaries(summaries),
		Metadata: toApiMetadata(metadata),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toBookingResponse(booking *domain.Booking) BookingResponse {
	return BookingResponse{
		Id:             booking.ID,
		ShowId:         booking.ShowID,
		Seats:          booking.Seats,
		Amount:         booking.Amount,
		Status:         string(booking.Status),
		CheckoutUrl:    booking.CheckoutURL,
		LeaseExpiresAt: booking.LeaseExpiresAt,
	}
}

func toBookingSummaries(summaries []domain.BookingSummary) []BookingSummary {
	bookingSummaries := make([]BookingSummary, len(summaries))

	for i, v := range summaries {
		bookingSummary := &bookingSummaries[i]

		bookingSummary.Id = v.BookingID
		bookingSummary.MovieTitle = v.MovieTitle
		bookingSummary.ShowTime = v.ShowTime
		bookingSummary.Seats = v.Seats
		bookingSummary.Amount = v.Amount
		bookingSummary.Status = string(v.Status)
		bookingSummary.CreatedAt = v.CreatedAt
	}

	return bookingSummaries
}

func toApiMetadata(metadata domain.Metadata) Metadata {
	return Metadata{
		CurrentPage:  metadata.CurrentPage,
		FirstPage:    metadata.FirstPage,
		LastPage:     metadata.LastPage,
		PageSize:     metadata.PageSize,
		TotalRecords: metadata.TotalRecords,
	}
}
