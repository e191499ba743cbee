package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/metinatakli/movie-booking-engine/internal/domain"
)

func (app *application) CreateShowHandler(w http.ResponseWriter, r *http.Request) {
	var input CreateShowRequest

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

	if !input.StartTime.After(time.Now()) {
		app.badRequestResponse(w, r, fmt.Errorf("start time must be in the future"))
		return
	}

	show := &domain.Show{
		MovieID:    input.MovieId,
		StartTime:  input.StartTime,
		BasePrice:  input.BasePrice,
		SeatLayout: input.SeatLayout,
		SeatMap:    domain.SeatMap{},
	}

	err = app.bookings.PublishShow(r.Context(), show)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponseWithErr(w, r, fmt.Errorf("movie %d not found", input.MovieId))
		case errors.Is(err, domain.ErrEditConflict):
			app.editConflictResponseWithErr(w, r, fmt.Errorf("a show already exists for this movie and start time"))
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	resp := ShowResponse{
		Id:         show.ID,
		MovieId:    show.MovieID,
		StartTime:  show.StartTime,
		BasePrice:  show.BasePrice,
		SeatLayout: show.SeatLayout,
	}

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
