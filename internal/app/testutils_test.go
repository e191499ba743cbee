package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/metinatakli/movie-booking-engine/internal/booking"
	"github.com/metinatakli/movie-booking-engine/internal/mocks"
	"github.com/metinatakli/movie-booking-engine/internal/validator"
)

type testMocks struct {
	showRepo    *mocks.MockShowRepo
	bookingRepo *mocks.MockBookingRepo
	movieRepo   *mocks.MockMovieRepo
	provider    *mocks.MockPaymentProvider
	scheduler   *mocks.MockScheduler
}

func (m *testMocks) assertAll(t *testing.T) {
	m.showRepo.AssertExpectations(t)
	m.bookingRepo.AssertExpectations(t)
	m.movieRepo.AssertExpectations(t)
	m.provider.AssertExpectations(t)
	m.scheduler.AssertExpectations(t)
}

func newTestApplication(t *testing.T) (*application, *testMocks) {
	t.Helper()

	m := &testMocks{
		showRepo:    new(mocks.MockShowRepo),
		bookingRepo: new(mocks.MockBookingRepo),
		movieRepo:   new(mocks.MockMovieRepo),
		provider:    new(mocks.MockPaymentProvider),
		scheduler:   new(mocks.MockScheduler),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	metrics, err := newAppMetrics()
	if err != nil {
		t.Fatal(err)
	}

	app := &application{
		config:    config{env: "test"},
		logger:    logger,
		validator: validator.NewValidator(),
		bookings:  booking.NewService(logger, m.showRepo, m.bookingRepo, m.movieRepo, m.provider, m.scheduler),
		metrics:   metrics,
	}

	return app, m
}

func executeRequest(t *testing.T, method, url string, body any) (*httptest.ResponseRecorder, *http.Request) {
	t.Helper()

	jsonData, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}

	r := httptest.NewRequest(method, url, bytes.NewReader(jsonData))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	return w, r
}

func checkErrorResponse(t *testing.T, w *httptest.ResponseRecorder, wantStatus int, wantErrMessage string) {
	t.Helper()

	if wantStatus >= 200 && wantStatus < 300 {
		return
	}

	switch wantStatus {
	case http.StatusUnprocessableEntity:
		var validationResp ValidationErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&validationResp); err != nil {
			t.Fatalf("Failed to decode validation error response: %v", err)
		}

		errorSet := make(map[string]bool)
		for _, vErr := range validationResp.ValidationErrors {
			errorSet[vErr.Issue] = true
		}

		if !errorSet[wantErrMessage] {
			t.Errorf("Expected validation error message '%s' not found in response", wantErrMessage)
		}

	default:
		var errorResp ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&errorResp); err != nil {
			t.Fatalf("Failed to decode error response: %v", err)
		}

		if wantErrMessage != "" && errorResp.Message != wantErrMessage {
			t.Errorf("Error message = %v, want %v", errorResp.Message, wantErrMessage)
		}
	}
}
