package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrPaymentDeclined       = errors.New("payment declined")
	ErrPaymentNotApproved    = errors.New("payment not approved by customer")
	ErrAuthorizationNotFound = errors.New("payment authorization not found")
)

// Authorization is a payment the customer can approve in the payment widget.
type Authorization struct {
	ID           string          `json:"authorization_id"`
	ClientSecret string          `json:"client_secret,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
}

// Capture is the outcome of collecting an approved authorization.
type Capture struct {
	TransactionID string
	Amount        decimal.Decimal
	Currency      string
}

// PaymentGateway is the external payment collaborator. Capture must be
// idempotent per authorization: capturing twice returns the first result.
type PaymentGateway interface {
	CreateAuthorization(ctx context.Context, amount decimal.Decimal, currency string) (*Authorization, error)
	Capture(ctx context.Context, authorizationID string) (*Capture, error)
}

// toMinorUnits converts pounds to pence.
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func fromMinorUnits(v int64) decimal.Decimal {
	return decimal.New(v, -2)
}

type sandboxAuth struct {
	amount   decimal.Decimal
	currency string
	declined bool
	capture  *Capture
}

// SandboxGateway approves every authorization unless told to decline it.
// Used for local runs.
type SandboxGateway struct {
	mu       sync.Mutex
	auths    map[string]*sandboxAuth
	captures int
}

func NewSandboxGateway() *SandboxGateway {
	return &SandboxGateway{auths: make(map[string]*sandboxAuth)}
}

func (g *SandboxGateway) CreateAuthorization(ctx context.Context, amount decimal.Decimal, currency string) (*Authorization, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("invalid amount %s", amount)
	}
	id := "sandbox_auth_" + uuid.NewString()

	g.mu.Lock()
	g.auths[id] = &sandboxAuth{amount: amount, currency: currency}
	g.mu.Unlock()

	return &Authorization{
		ID:           id,
		ClientSecret: id + "_secret",
		Amount:       amount,
		Currency:     currency,
	}, nil
}

// Decline makes the next capture of authorizationID fail.
func (g *SandboxGateway) Decline(authorizationID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if a, ok := g.auths[authorizationID]; ok {
		a.declined = true
	}
}

func (g *SandboxGateway) Capture(ctx context.Context, authorizationID string) (*Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	a, ok := g.auths[authorizationID]
	if !ok {
		return nil, ErrAuthorizationNotFound
	}
	if a.capture != nil {
		return a.capture, nil
	}
	if a.declined {
		return nil, ErrPaymentDeclined
	}
	a.capture = &Capture{
		TransactionID: "sandbox_txn_" + uuid.NewString(),
		Amount:        a.amount,
		Currency:      a.currency,
	}
	g.captures++
	return a.capture, nil
}

// CaptureCount reports how many distinct captures succeeded.
func (g *SandboxGateway) CaptureCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.captures
}
