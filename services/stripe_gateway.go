package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/paymentintent"
	"go.uber.org/zap"
)

// StripeGateway authorizes with a manual-capture PaymentIntent; the
// storefront confirms it with the client secret and SubmitOrder captures.
type StripeGateway struct {
	intents *paymentintent.Client
	log     *zap.Logger
}

func NewStripeGateway(secretKey string, log *zap.Logger) *StripeGateway {
	return newStripeGateway(secretKey, stripe.GetBackend(stripe.APIBackend), log)
}

func newStripeGateway(secretKey string, backend stripe.Backend, log *zap.Logger) *StripeGateway {
	return &StripeGateway{
		intents: &paymentintent.Client{B: backend, Key: secretKey},
		log:     log,
	}
}

func (g *StripeGateway) CreateAuthorization(ctx context.Context, amount decimal.Decimal, currency string) (*Authorization, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(toMinorUnits(amount)),
		Currency:      stripe.String(strings.ToLower(currency)),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	pi, err := g.intents.New(params)
	if err != nil {
		return nil, mapStripeError(err)
	}
	g.log.Info("payment intent created", zap.String("payment_intent", pi.ID), zap.Int64("amount", pi.Amount))

	return &Authorization{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       fromMinorUnits(pi.Amount),
		Currency:     strings.ToUpper(string(pi.Currency)),
	}, nil
}

func (g *StripeGateway) Capture(ctx context.Context, authorizationID string) (*Capture, error) {
	getParams := &stripe.PaymentIntentParams{}
	getParams.Context = ctx
	pi, err := g.intents.Get(authorizationID, getParams)
	if err != nil {
		return nil, mapStripeError(err)
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return captureFromIntent(pi), nil
	case stripe.PaymentIntentStatusRequiresCapture:
	case stripe.PaymentIntentStatusCanceled:
		return nil, ErrPaymentDeclined
	default:
		return nil, fmt.Errorf("%w: intent status %s", ErrPaymentNotApproved, pi.Status)
	}

	captureParams := &stripe.PaymentIntentCaptureParams{}
	captureParams.Context = ctx
	captureParams.SetIdempotencyKey("capture-" + authorizationID)
	pi, err = g.intents.Capture(authorizationID, captureParams)
	if err != nil {
		return nil, mapStripeError(err)
	}
	g.log.Info("payment intent captured", zap.String("payment_intent", pi.ID))
	return captureFromIntent(pi), nil
}

func captureFromIntent(pi *stripe.PaymentIntent) *Capture {
	ref := pi.ID
	if pi.LatestCharge != nil && pi.LatestCharge.ID != "" {
		ref = pi.LatestCharge.ID
	}
	return &Capture{
		TransactionID: ref,
		Amount:        fromMinorUnits(pi.AmountReceived),
		Currency:      strings.ToUpper(string(pi.Currency)),
	}
}

func mapStripeError(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		if se.Type == stripe.ErrorTypeCard {
			return fmt.Errorf("%w: %s", ErrPaymentDeclined, se.Msg)
		}
		if se.HTTPStatusCode == http.StatusNotFound {
			return ErrAuthorizationNotFound
		}
	}
	return fmt.Errorf("stripe: %w", err)
}
