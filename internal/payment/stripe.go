package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/metinatakli/movie-booking-engine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

// checkoutExpiry is the provider-side session lifetime. It is deliberately
// longer than the internal seat lease: the lease decides when seats are
// released, the provider only decides when the payment page dies.
const checkoutExpiry = 30 * time.Minute

type StripePaymentProvider struct {
	successUrl string
	failureUrl string
}

func NewStripePaymentProvider(failureUrl, successUrl string) *StripePaymentProvider {
	return &StripePaymentProvider{
		successUrl: successUrl,
		failureUrl: failureUrl,
	}
}

// CreateCheckoutSession opens a hosted checkout for the booking. The
// booking id travels in opaque metadata and comes back on the webhook;
// it is the only linkage between the provider and the engine.
func (s *StripePaymentProvider) CreateCheckoutSession(
	ctx context.Context,
	booking *domain.Booking,
	movie *domain.Movie) (*domain.CheckoutSession, error) {

	seatPrice := booking.Amount.Div(decimal.NewFromInt(int64(len(booking.Seats))))
	priceCents := seatPrice.Mul(decimal.NewFromInt(100)).IntPart()

	var lineItems []*stripe.CheckoutSessionLineItemParams

	for _, seatID := range booking.Seats {
		lineItem := &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(string(stripe.CurrencyUSD)),
				UnitAmount: stripe.Int64(priceCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(fmt.Sprintf("🎬 %s - Seat %s", movie.Title, seatID)),
				},
			},
			Quantity: stripe.Int64(1),
		}

		lineItems = append(lineItems, lineItem)
	}

	params := &stripe.CheckoutSessionParams{
		LineItems:  lineItems,
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.successUrl),
		CancelURL:  stripe.String(s.failureUrl),
		Metadata: map[string]string{
			"booking_id": booking.ID.String(),
		},
		ClientReferenceID: stripe.String(booking.ID.String()),
		ExpiresAt:         stripe.Int64(time.Now().Add(checkoutExpiry).Unix()),
	}
	params.Context = ctx

	checkoutSession, err := session.New(params)
	if err != nil {
		return nil, err
	}

	return &domain.CheckoutSession{
		ID:        checkoutSession.ID,
		URL:       checkoutSession.URL,
		ExpiresAt: checkoutSession.ExpiresAt,
	}, nil
}
