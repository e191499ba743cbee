package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/metinatakli/movie-booking-engine/internal/domain"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const maxWebhookBodyBytes = 65536

// StripeWebhookHandler settles bookings from checkout session events. A 2xx
// acknowledges the event; anything else makes Stripe redeliver it, so only
// transient failures return an error status.
func (app *application) StripeWebhookHandler(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("failed to read webhook body"))
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), app.config.stripe.webhookSecret)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid webhook signature"))
		return
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		err = app.handleCheckoutCompleted(r.Context(), event)
	case stripe.EventTypeCheckoutSessionExpired:
		err = app.handleCheckoutExpired(r.Context(), event)
	default:
		app.logger.Info("ignoring unhandled webhook event", "type", event.Type)
	}

	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (app *application) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	bookingId, err := bookingIdFromEvent(event)
	if err != nil {
		app.logger.Error("dropping webhook event without a usable booking id", "event_id", event.ID, "error", err)
		return nil
	}

	err = app.bookings.ConfirmPayment(ctx, bookingId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.logger.Warn("payment completed for unknown booking", "booking_id", bookingId)
			return nil
		case errors.Is(err, domain.ErrInvalidState):
			// The lease expired before the payment settled. The seats are
			// already released, so the charge needs a manual refund.
			app.logger.Error("payment settled after booking left pending state", "booking_id", bookingId)
			return nil
		default:
			return err
		}
	}

	app.metrics.bookingsConfirmed.Add(ctx, 1)

	return nil
}

func (app *application) handleCheckoutExpired(ctx context.Context, event stripe.Event) error {
	bookingId, err := bookingIdFromEvent(event)
	if err != nil {
		app.logger.Error("dropping webhook event without a usable booking id", "event_id", event.ID, "error", err)
		return nil
	}

	return app.bookings.ExpireIfUnpaid(ctx, bookingId)
}

func bookingIdFromEvent(event stripe.Event) (uuid.UUID, error) {
	var session stripe.CheckoutSession

	err := json.Unmarshal(event.Data.Raw, &session)
	if err != nil {
		return uuid.Nil, err
	}

	id := session.Metadata["booking_id"]
	if id == "" {
		id = session.ClientReferenceID
	}

	return uuid.Parse(id)
}
