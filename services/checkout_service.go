package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/websitedesigna/tastygrill/common/errors"
	"github.com/websitedesigna/tastygrill/common/logger"
	"github.com/websitedesigna/tastygrill/events"
	"github.com/websitedesigna/tastygrill/models"
	awspkg "github.com/websitedesigna/tastygrill/pkg/aws"
	"github.com/websitedesigna/tastygrill/repository"
)

const (
	signInRedirect    = "/auth?redirect=checkout"
	cartRedirect      = "/cart"
	confirmationRoute = "/order-confirmation/"
)

// CheckoutStore keeps checkout attempts, the per-user submit lock and
// idempotency keys.
type CheckoutStore interface {
	SaveAttempt(ctx context.Context, attempt *models.CheckoutAttempt) error
	GetAttempt(ctx context.Context, authorizationID string) (*models.CheckoutAttempt, error)
	AcquireLock(ctx context.Context, userID uuid.UUID, ttl time.Duration) (string, bool, error)
	ReleaseLock(ctx context.Context, userID uuid.UUID, token string) error
	GetIdempotency(ctx context.Context, key string) (string, error)
	SetIdempotency(ctx context.Context, key, orderID string) error
}

type CheckoutConfig struct {
	Currency string
	LockTTL  time.Duration
}

type BeginPaymentResult struct {
	AuthorizationID string               `json:"authorization_id"`
	ClientSecret    string               `json:"client_secret,omitempty"`
	Amount          decimal.Decimal      `json:"amount"`
	Currency        string               `json:"currency"`
	State           models.CheckoutState `json:"state"`
}

type SubmitOrderRequest struct {
	AuthorizationID string                 `json:"authorization_id"`
	IdempotencyKey  string                 `json:"idempotency_key"`
	Delivery        models.DeliveryDetails `json:"delivery"`
}

type SubmitOrderResult struct {
	Order        *models.Order       `json:"order"`
	Redirect     string              `json:"redirect"`
	Notification models.Notification `json:"notification"`
	Replayed     bool                `json:"replayed,omitempty"`
}

// CheckoutService turns a cart into a paid order: authorize, capture, then
// write the order and its lines in one transaction.
type CheckoutService struct {
	carts    *CartStore
	store    CheckoutStore
	orders   repository.OrderRepository
	gateway  PaymentGateway
	events   events.Publisher
	notifier Notifier
	metrics  *awspkg.MetricsClient
	cfg      CheckoutConfig
	log      *zap.Logger
}

func NewCheckoutService(
	carts *CartStore,
	store CheckoutStore,
	orders repository.OrderRepository,
	gateway PaymentGateway,
	publisher events.Publisher,
	notifier Notifier,
	metrics *awspkg.MetricsClient,
	cfg CheckoutConfig,
	log *zap.Logger,
) *CheckoutService {
	if cfg.Currency == "" {
		cfg.Currency = "GBP"
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = time.Minute
	}
	return &CheckoutService{
		carts:    carts,
		store:    store,
		orders:   orders,
		gateway:  gateway,
		events:   publisher,
		notifier: notifier,
		metrics:  metrics,
		cfg:      cfg,
		log:      log,
	}
}

func signInRequired() error {
	return apperrors.Unauthorized(models.MsgSignInToOrder).WithRedirect(signInRedirect)
}

func cartEmpty() error {
	return apperrors.Conflict(models.MsgCartEmpty, nil).WithRedirect(cartRedirect)
}

func paymentFailed(err error) error {
	return apperrors.New(http.StatusPaymentRequired, models.MsgPaymentFailed, err)
}

func advance(attempt *models.CheckoutAttempt, next models.CheckoutState) error {
	if !attempt.State.CanAdvance(next) {
		return fmt.Errorf("checkout attempt %s: cannot move from %s to %s", attempt.AuthorizationID, attempt.State, next)
	}
	attempt.State = next
	return nil
}

// BeginPayment opens a payment authorization for the current cart total.
func (s *CheckoutService) BeginPayment(ctx context.Context, userID uuid.UUID, cartID string) (*BeginPaymentResult, error) {
	if userID == uuid.Nil {
		return nil, signInRequired()
	}
	cart, err := s.carts.Cart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, cartEmpty()
	}

	amount := cart.Total()
	auth, err := s.gateway.CreateAuthorization(ctx, amount, s.cfg.Currency)
	if err != nil {
		s.metrics.RecordCountAsync(awspkg.MetricPaymentFailed, map[string]string{"stage": "authorize"})
		if errors.Is(err, ErrPaymentDeclined) || errors.Is(err, ErrPaymentNotApproved) {
			return nil, paymentFailed(err)
		}
		return nil, apperrors.New(http.StatusBadGateway, "Payment provider unavailable. Please try again.", err)
	}

	attempt := &models.CheckoutAttempt{
		AuthorizationID: auth.ID,
		UserID:          userID,
		CartID:          cartID,
		Amount:          amount,
		Currency:        s.cfg.Currency,
		State:           models.CheckoutIdle,
	}
	if err := advance(attempt, models.CheckoutAwaitingPayment); err != nil {
		return nil, apperrors.Internal("Failed to start checkout", err)
	}
	if err := s.store.SaveAttempt(ctx, attempt); err != nil {
		return nil, apperrors.Internal("Failed to start checkout", err)
	}

	s.metrics.RecordCountAsync(awspkg.MetricCheckoutStarted, nil)
	logger.With(ctx, s.log).Info("checkout started",
		zap.String("user_id", userID.String()),
		zap.String("authorization_id", auth.ID),
		zap.String("amount", amount.StringFixed(2)),
	)

	return &BeginPaymentResult{
		AuthorizationID: auth.ID,
		ClientSecret:    auth.ClientSecret,
		Amount:          amount,
		Currency:        s.cfg.Currency,
		State:           attempt.State,
	}, nil
}

// SubmitOrder captures the authorized payment and records the order. A
// repeated submit with the same idempotency key returns the first order. If
// the order write fails after capture, a retry writes it without capturing
// again.
func (s *CheckoutService) SubmitOrder(ctx context.Context, userID uuid.UUID, cartID string, req SubmitOrderRequest) (*SubmitOrderResult, error) {
	if userID == uuid.Nil {
		return nil, signInRequired()
	}
	problems := req.Delivery.Validate()
	if req.AuthorizationID == "" {
		problems["authorization_id"] = "payment has not been approved"
	}
	if len(problems) > 0 {
		return nil, apperrors.Validation(problems)
	}

	key := req.IdempotencyKey
	if key == "" {
		key = req.AuthorizationID
	}
	log := logger.With(ctx, s.log).With(
		zap.String("user_id", userID.String()),
		zap.String("authorization_id", req.AuthorizationID),
	)

	if res, err := s.replay(ctx, userID, key); res != nil || err != nil {
		return res, err
	}

	token, ok, err := s.store.AcquireLock(ctx, userID, s.cfg.LockTTL)
	if err != nil {
		return nil, apperrors.Internal(models.MsgOrderFailed, err)
	}
	if !ok {
		return nil, apperrors.Conflict(models.MsgCheckoutPending, nil)
	}
	defer func() {
		if err := s.store.ReleaseLock(context.WithoutCancel(ctx), userID, token); err != nil {
			log.Warn("failed to release checkout lock", zap.Error(err))
		}
	}()

	attempt, err := s.store.GetAttempt(ctx, req.AuthorizationID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.BadRequest("Payment session expired. Please try again.", err)
	}
	if err != nil {
		return nil, apperrors.Internal(models.MsgOrderFailed, err)
	}
	if attempt.UserID != userID {
		return nil, apperrors.Forbidden("This payment belongs to another account")
	}

	switch attempt.State {
	case models.CheckoutComplete:
		if attempt.OrderID != nil {
			return s.replayOrder(ctx, userID, *attempt.OrderID)
		}
	case models.CheckoutIdle:
		return nil, paymentFailed(errors.New(attempt.LastError))
	}

	if !attempt.IsCaptured() {
		if err := s.capture(ctx, log, attempt, cartID); err != nil {
			return nil, err
		}
	} else {
		log.Info("retrying order write for captured payment", zap.String("transaction_id", attempt.TransactionID))
		if err := advance(attempt, models.CheckoutPersisting); err != nil {
			return nil, apperrors.Internal(models.MsgOrderFailed, err)
		}
	}

	order, err := s.persist(ctx, log, userID, key, attempt, req.Delivery)
	if err != nil {
		return nil, err
	}

	s.finish(ctx, log, attempt, order, key)

	n := models.Notification{
		Level:   models.NotifySuccess,
		Kind:    "order_created",
		Message: models.MsgOrderPlaced,
		UserID:  &userID,
		OrderID: &order.ID,
	}
	s.notifier.Notify(ctx, n)

	return &SubmitOrderResult{
		Order:        order,
		Redirect:     confirmationRoute + order.ID.String(),
		Notification: n,
	}, nil
}

// capture checks the cart against the authorized amount and collects the
// payment. A decline returns the attempt to idle and keeps the cart. Any other
// gateway error leaves the attempt in capturing so a retry captures again.
func (s *CheckoutService) capture(ctx context.Context, log *zap.Logger, attempt *models.CheckoutAttempt, cartID string) error {
	if attempt.State == models.CheckoutCapturing {
		// the cart was snapshotted before the interrupted capture
		log.Info("resuming interrupted capture")
	} else if err := s.prepareCapture(ctx, log, attempt, cartID); err != nil {
		return err
	}

	started := time.Now()
	capture, err := s.gateway.Capture(ctx, attempt.AuthorizationID)
	if err != nil {
		s.metrics.RecordCountAsync(awspkg.MetricPaymentFailed, map[string]string{"stage": "capture"})
		if !isPaymentDecline(err) {
			log.Warn("capture outcome unknown; attempt left for retry", zap.Error(err))
			return apperrors.New(http.StatusBadGateway, models.MsgPaymentUnconfirmed, err)
		}
		s.fail(ctx, log, attempt, err)
		s.notifier.Notify(ctx, models.Notification{
			Level:   models.NotifyError,
			Kind:    "payment_failed",
			Message: models.MsgPaymentFailed,
			UserID:  &attempt.UserID,
		})
		return paymentFailed(err)
	}
	s.metrics.RecordLatencyAsync(awspkg.MetricCheckoutLatency, time.Since(started), map[string]string{"stage": "capture"})
	s.metrics.RecordCountAsync(awspkg.MetricPaymentSucceeded, nil)

	if !capture.Amount.IsZero() && !capture.Amount.Equal(attempt.Amount) {
		log.Warn("captured amount differs from authorized amount",
			zap.String("captured", capture.Amount.StringFixed(2)),
			zap.String("authorized", attempt.Amount.StringFixed(2)),
		)
	}

	attempt.TransactionID = capture.TransactionID
	attempt.LastError = ""
	if err := advance(attempt, models.CheckoutPersisting); err != nil {
		return apperrors.Internal(models.MsgOrderFailed, err)
	}
	if err := s.store.SaveAttempt(ctx, attempt); err != nil {
		// the order write below still goes ahead
		log.Error("failed to record captured payment", zap.String("transaction_id", capture.TransactionID), zap.Error(err))
	}
	log.Info("payment captured", zap.String("transaction_id", capture.TransactionID))
	return nil
}

// prepareCapture moves an awaiting attempt to capturing with a snapshot of
// the cart it is paying for.
func (s *CheckoutService) prepareCapture(ctx context.Context, log *zap.Logger, attempt *models.CheckoutAttempt, cartID string) error {
	if cartID != attempt.CartID {
		return apperrors.Conflict("Your cart changed during checkout. Please review it and pay again.", nil).WithRedirect(cartRedirect)
	}
	cart, err := s.carts.Cart(ctx, cartID)
	if err != nil {
		return err
	}
	if cart.IsEmpty() {
		return cartEmpty()
	}
	if !cart.Total().Equal(attempt.Amount) {
		s.fail(ctx, log, attempt, fmt.Errorf("cart total %s differs from authorized %s", cart.Total(), attempt.Amount))
		return apperrors.Conflict("Your cart changed during checkout. Please review it and pay again.", nil).WithRedirect(cartRedirect)
	}

	if err := advance(attempt, models.CheckoutCapturing); err != nil {
		return apperrors.Internal(models.MsgOrderFailed, err)
	}
	attempt.Items = cart.Items
	if err := s.store.SaveAttempt(ctx, attempt); err != nil {
		return apperrors.Internal(models.MsgOrderFailed, err)
	}
	return nil
}

func isPaymentDecline(err error) bool {
	return errors.Is(err, ErrPaymentDeclined) ||
		errors.Is(err, ErrPaymentNotApproved) ||
		errors.Is(err, ErrAuthorizationNotFound)
}

// persist writes the order built from the captured cart snapshot. On
// failure the attempt stays in persisting with its transaction id.
func (s *CheckoutService) persist(ctx context.Context, log *zap.Logger, userID uuid.UUID, key string, attempt *models.CheckoutAttempt, delivery models.DeliveryDetails) (*models.Order, error) {
	snapshot := &models.Cart{ID: attempt.CartID, Items: attempt.Items}
	ref := attempt.TransactionID
	idem := key
	order := &models.Order{
		UserID:           userID,
		TotalAmount:      snapshot.Total(),
		Status:           models.StatusConfirmed,
		PaymentStatus:    models.PaymentPaid,
		PaymentReference: &ref,
		IdempotencyKey:   &idem,
		DeliveryAddress:  delivery.Address,
		Phone:            delivery.Phone,
		Notes:            delivery.Notes,
		OrderItems:       models.OrderItemsFromCart(snapshot),
	}

	err := order.Validate()
	if err == nil {
		err = s.orders.CreateWithItems(ctx, order)
	}
	if err != nil {
		attempt.LastError = err.Error()
		if saveErr := s.store.SaveAttempt(context.WithoutCancel(ctx), attempt); saveErr != nil {
			log.Error("failed to record order write failure", zap.Error(saveErr))
		}
		log.Error("order write failed after capture",
			zap.String("transaction_id", attempt.TransactionID),
			zap.Error(err),
		)
		s.metrics.RecordCountAsync(awspkg.MetricOrdersFailed, nil)
		s.notifier.Notify(ctx, models.Notification{
			Level:   models.NotifyError,
			Kind:    "order_failed",
			Message: models.MsgOrderFailed,
			UserID:  &userID,
		})
		return nil, apperrors.Internal(models.MsgOrderFailed, err)
	}
	return order, nil
}

// finish runs the post-write steps. The order already exists, so failures
// here are logged and do not fail the request.
func (s *CheckoutService) finish(ctx context.Context, log *zap.Logger, attempt *models.CheckoutAttempt, order *models.Order, key string) {
	ctx = context.WithoutCancel(ctx)

	attempt.OrderID = &order.ID
	attempt.LastError = ""
	if err := advance(attempt, models.CheckoutComplete); err != nil {
		log.Error("checkout attempt state", zap.Error(err))
	}
	if err := s.store.SaveAttempt(ctx, attempt); err != nil {
		log.Warn("failed to save completed checkout attempt", zap.Error(err))
	}
	if err := s.store.SetIdempotency(ctx, key, order.ID.String()); err != nil {
		log.Warn("failed to record idempotency key", zap.Error(err))
	}
	// the paid cart, which a retry from another session may not carry
	if err := s.carts.ClearCart(ctx, attempt.CartID); err != nil {
		log.Warn("failed to clear cart after order", zap.String("cart_id", attempt.CartID), zap.Error(err))
	}

	s.events.Publish(ctx, models.NewOrderCreatedEvent(order))
	s.metrics.RecordCountAsync(awspkg.MetricOrdersCreated, nil)
	s.metrics.RecordLatencyAsync(awspkg.MetricCheckoutLatency, time.Since(attempt.CreatedAt), map[string]string{"stage": "total"})

	log.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("total", order.TotalAmount.StringFixed(2)),
		zap.Int("items", len(order.OrderItems)),
	)
}

// fail returns an attempt that has not been captured to idle.
func (s *CheckoutService) fail(ctx context.Context, log *zap.Logger, attempt *models.CheckoutAttempt, cause error) {
	attempt.LastError = cause.Error()
	if err := advance(attempt, models.CheckoutIdle); err != nil {
		log.Error("checkout attempt state", zap.Error(err))
		return
	}
	if err := s.store.SaveAttempt(context.WithoutCancel(ctx), attempt); err != nil {
		log.Warn("failed to save failed checkout attempt", zap.Error(err))
	}
	log.Warn("checkout failed", zap.Error(cause))
}

// replay returns the order a previous submit with this key produced, if any.
func (s *CheckoutService) replay(ctx context.Context, userID uuid.UUID, key string) (*SubmitOrderResult, error) {
	orderID, err := s.store.GetIdempotency(ctx, key)
	if err != nil {
		s.log.Warn("idempotency lookup failed", zap.Error(err))
	}
	if orderID != "" {
		id, err := uuid.Parse(orderID)
		if err == nil {
			return s.replayOrder(ctx, userID, id)
		}
	}

	order, err := s.orders.FindByIdempotencyKey(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Internal(models.MsgOrderFailed, err)
	}
	return s.replayResult(userID, order)
}

func (s *CheckoutService) replayOrder(ctx context.Context, userID, orderID uuid.UUID) (*SubmitOrderResult, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, apperrors.Internal(models.MsgOrderFailed, err)
	}
	return s.replayResult(userID, order)
}

func (s *CheckoutService) replayResult(userID uuid.UUID, order *models.Order) (*SubmitOrderResult, error) {
	if order.UserID != userID {
		return nil, apperrors.Conflict("Idempotency key already used", nil)
	}
	return &SubmitOrderResult{
		Order:    order,
		Redirect: confirmationRoute + order.ID.String(),
		Notification: models.Notification{
			Level:   models.NotifySuccess,
			Kind:    "order_created",
			Message: models.MsgOrderPlaced,
			UserID:  &order.UserID,
			OrderID: &order.ID,
		},
		Replayed: true,
	}, nil
}
