package ledger

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain failures. Handlers map these to HTTP
// statuses; the messages are part of the API contract and are returned
// to clients verbatim.
var (
	ErrInvalidPromoCode    = errors.New("Invalid promo code")
	ErrPromotionNotStarted = errors.New("Promotion has not started yet")
	ErrPromotionExpired    = errors.New("Promotion has expired")
	ErrPromotionUsageLimit = errors.New("Promotion usage limit reached")
	ErrInsufficientPoints  = errors.New("Insufficient points")
	ErrInsufficientBalance = errors.New("Insufficient wallet balance")
	ErrInvalidAmount       = errors.New("Amount must be greater than zero")
)

// MinimumOrderError reports the promotion's minimum order so the client
// message can include the threshold.
type MinimumOrderError struct {
	Minimum float64
}

func (e *MinimumOrderError) Error() string {
	return fmt.Sprintf("Minimum order of %g THB required for this promotion", e.Minimum)
}
