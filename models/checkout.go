package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/websitedesigna/tastygrill/common/validation"
)

// CheckoutState tracks a single checkout attempt.
type CheckoutState string

const (
	CheckoutIdle            CheckoutState = "idle"
	CheckoutAwaitingPayment CheckoutState = "awaiting_payment"
	CheckoutCapturing       CheckoutState = "capturing"
	CheckoutPersisting      CheckoutState = "persisting"
	CheckoutComplete        CheckoutState = "complete"
)

var checkoutEdges = map[CheckoutState][]CheckoutState{
	CheckoutIdle:            {CheckoutAwaitingPayment},
	CheckoutAwaitingPayment: {CheckoutCapturing, CheckoutIdle},
	CheckoutCapturing:       {CheckoutPersisting, CheckoutIdle},
	// persisting -> persisting is the retry of a failed write after capture.
	CheckoutPersisting: {CheckoutComplete, CheckoutPersisting, CheckoutIdle},
	CheckoutComplete:   {},
}

func (s CheckoutState) CanAdvance(next CheckoutState) bool {
	for _, n := range checkoutEdges[s] {
		if n == next {
			return true
		}
	}
	return false
}

// CheckoutAttempt is the server-side record of one payment authorization
// and what became of it.
type CheckoutAttempt struct {
	AuthorizationID string          `json:"authorization_id"`
	UserID          uuid.UUID       `json:"user_id"`
	CartID          string          `json:"cart_id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	State           CheckoutState   `json:"state"`
	TransactionID   string          `json:"transaction_id,omitempty"`
	OrderID         *uuid.UUID      `json:"order_id,omitempty"`
	LastError       string          `json:"last_error,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Items is the cart as it was when payment was captured. A retried
	// order write uses it instead of the live cart.
	Items []CartItem `json:"items,omitempty"`
}

// IsCaptured reports whether funds were already secured for this attempt.
func (a *CheckoutAttempt) IsCaptured() bool {
	return a.TransactionID != ""
}

// DeliveryDetails are collected on the checkout form.
type DeliveryDetails struct {
	FullName string  `json:"full_name" validate:"notblank"`
	Email    string  `json:"email" validate:"required,email"`
	Phone    string  `json:"phone" validate:"notblank"`
	Address  string  `json:"address" validate:"notblank"`
	Notes    *string `json:"notes,omitempty"`
}

// Validate returns a field -> message map; empty means valid.
func (d *DeliveryDetails) Validate() map[string]string {
	return validation.Struct(d)
}
