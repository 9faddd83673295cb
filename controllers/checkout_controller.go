package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/websitedesigna/tastygrill/common/errors"
	"github.com/websitedesigna/tastygrill/middleware"
	"github.com/websitedesigna/tastygrill/models"
	"github.com/websitedesigna/tastygrill/services"
)

type CheckoutFlow interface {
	BeginPayment(ctx context.Context, userID uuid.UUID, cartID string) (*services.BeginPaymentResult, error)
	SubmitOrder(ctx context.Context, userID uuid.UUID, cartID string, req services.SubmitOrderRequest) (*services.SubmitOrderResult, error)
}

type CheckoutController struct {
	checkout CheckoutFlow
}

func NewCheckoutController(checkout CheckoutFlow) *CheckoutController {
	return &CheckoutController{checkout: checkout}
}

// checkoutErrorBody is the error response for checkout calls. It carries
// the toast the storefront shows alongside the usual error fields.
type checkoutErrorBody struct {
	Error        string              `json:"error"`
	Redirect     string              `json:"redirect,omitempty"`
	Fields       map[string]string   `json:"fields,omitempty"`
	Notification models.Notification `json:"notification"`
}

func notificationKind(code int) string {
	switch code {
	case http.StatusUnauthorized:
		return "sign_in_required"
	case http.StatusPaymentRequired:
		return "payment_failed"
	case http.StatusInternalServerError:
		return "order_failed"
	case http.StatusBadGateway:
		return "payment_retry"
	default:
		return "checkout_rejected"
	}
}

func abortCheckout(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	_ = c.Error(appErr)
	c.AbortWithStatusJSON(appErr.Code, checkoutErrorBody{
		Error:    appErr.Message,
		Redirect: appErr.Redirect,
		Fields:   appErr.Fields,
		Notification: models.Notification{
			Level:   models.NotifyError,
			Kind:    notificationKind(appErr.Code),
			Message: appErr.Message,
		},
	})
}

// currentUser is uuid.Nil for anonymous callers; the checkout service
// answers those with a sign-in redirect.
func currentUser(c *gin.Context) uuid.UUID {
	id, err := middleware.GetUserID(c)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// BeginPayment authorizes the cart total and returns the handle the
// payment widget needs.
func (cc *CheckoutController) BeginPayment(c *gin.Context) {
	res, err := cc.checkout.BeginPayment(c.Request.Context(), currentUser(c), middleware.CartID(c))
	if err != nil {
		abortCheckout(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SubmitOrder captures the authorized payment and places the order.
func (cc *CheckoutController) SubmitOrder(c *gin.Context) {
	var req services.SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortCheckout(c, apperrors.BadRequest("Invalid request", err))
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	res, err := cc.checkout.SubmitOrder(c.Request.Context(), currentUser(c), middleware.CartID(c), req)
	if err != nil {
		abortCheckout(c, err)
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, res)
}
