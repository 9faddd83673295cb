package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/websitedesigna/tastygrill/common/auth"
	apperrors "github.com/websitedesigna/tastygrill/common/errors"
	"github.com/websitedesigna/tastygrill/controllers"
	"github.com/websitedesigna/tastygrill/models"
	"github.com/websitedesigna/tastygrill/services"
)

type tokenTable map[string]*auth.Claims

func (t tokenTable) Authenticate(_ context.Context, token string) (*auth.Claims, error) {
	if c, ok := t[token]; ok {
		return c, nil
	}
	return nil, apperrors.Unauthorized("Invalid or expired token")
}

type emptyDashboard struct{}

func (emptyDashboard) Load(_ context.Context, filter *models.OrderStatus) (*services.DashboardView, error) {
	view := services.BuildView(nil, filter, time.Now())
	return &view, nil
}

type anonymousCheckout struct{}

func (anonymousCheckout) BeginPayment(_ context.Context, userID uuid.UUID, _ string) (*services.BeginPaymentResult, error) {
	if userID == uuid.Nil {
		return nil, apperrors.Unauthorized(models.MsgSignInToOrder).WithRedirect("/auth?redirect=checkout")
	}
	return &services.BeginPaymentResult{AuthorizationID: "auth_1"}, nil
}

func (anonymousCheckout) SubmitOrder(context.Context, uuid.UUID, string, services.SubmitOrderRequest) (*services.SubmitOrderResult, error) {
	return nil, apperrors.Internal(models.MsgOrderFailed, nil)
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, Handlers{
		Auth:      controllers.NewAuthController(nil),
		Menu:      controllers.NewMenuController(nil),
		Cart:      controllers.NewCartController(nil),
		Checkout:  controllers.NewCheckoutController(anonymousCheckout{}),
		Orders:    controllers.NewOrderController(nil),
		Dashboard: controllers.NewDashboardController(emptyDashboard{}, nil),
		Health:    controllers.NewHealthController(nil),
		Live:      func(c *gin.Context) { c.Status(http.StatusNoContent) },
		Authenticator: tokenTable{
			"customer": {UserID: uuid.NewString(), Role: models.RoleCustomer},
			"staff":    {UserID: uuid.NewString(), Role: models.RoleStaff},
		},
	})
	return r
}

func request(r http.Handler, method, path, token string) int {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestDashboardRequiresStaff(t *testing.T) {
	r := newTestRouter()

	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodGet, "/dashboard/orders", ""))
	assert.Equal(t, http.StatusForbidden, request(r, http.MethodGet, "/dashboard/orders", "customer"))
	assert.Equal(t, http.StatusOK, request(r, http.MethodGet, "/dashboard/orders", "staff"))

	assert.Equal(t, http.StatusForbidden, request(r, http.MethodGet, "/dashboard/live?token=customer", ""))
	assert.Equal(t, http.StatusNoContent, request(r, http.MethodGet, "/dashboard/live?token=staff", ""))
}

func TestCheckoutAllowsAnonymousToReachHandler(t *testing.T) {
	r := newTestRouter()

	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodPost, "/checkout/payment", ""))
	assert.Equal(t, http.StatusOK, request(r, http.MethodPost, "/checkout/payment", "customer"))
}

func TestOrdersRequireAuth(t *testing.T) {
	r := newTestRouter()

	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodGet, "/orders", ""))
	assert.Equal(t, http.StatusOK, request(r, http.MethodGet, "/health", ""))
}
