package domain

import "context"

// CheckoutSession is the engine's view of a provider-hosted checkout. The
// ID is opaque; ExpiresAt is the provider-side expiry, independent of the
// internal lease window.
type CheckoutSession struct {
	ID        string
	URL       string
	ExpiresAt int64
}

// PaymentProvider opens hosted checkouts bound to a booking through opaque
// metadata. Confirmation arrives asynchronously over the provider's
// webhook, never as a return value here.
type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, booking *Booking, movie *Movie) (*CheckoutSession, error)
}
