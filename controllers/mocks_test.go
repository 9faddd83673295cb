package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/websitedesigna/tastygrill/common/auth"
	"github.com/websitedesigna/tastygrill/middleware"
	"github.com/websitedesigna/tastygrill/models"
	"github.com/websitedesigna/tastygrill/services"
)

// --- Mock services ---

type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) Get(ctx context.Context, cartID string) (*models.CartView, error) {
	args := m.Called(ctx, cartID)
	return cartViewArg(args.Get(0)), args.Error(1)
}

func (m *MockCartService) AddItem(ctx context.Context, cartID string, in services.AddItemInput) (*models.CartView, error) {
	args := m.Called(ctx, cartID, in)
	return cartViewArg(args.Get(0)), args.Error(1)
}

func (m *MockCartService) UpdateQuantity(ctx context.Context, cartID, itemID string, quantity int) (*models.CartView, error) {
	args := m.Called(ctx, cartID, itemID, quantity)
	return cartViewArg(args.Get(0)), args.Error(1)
}

func (m *MockCartService) RemoveItem(ctx context.Context, cartID, itemID string) (*models.CartView, error) {
	args := m.Called(ctx, cartID, itemID)
	return cartViewArg(args.Get(0)), args.Error(1)
}

func (m *MockCartService) ClearCart(ctx context.Context, cartID string) error {
	return m.Called(ctx, cartID).Error(0)
}

func cartViewArg(v interface{}) *models.CartView {
	if v == nil {
		return nil
	}
	return v.(*models.CartView)
}

type MockCheckout struct {
	mock.Mock
}

func (m *MockCheckout) BeginPayment(ctx context.Context, userID uuid.UUID, cartID string) (*services.BeginPaymentResult, error) {
	args := m.Called(ctx, userID, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.BeginPaymentResult), args.Error(1)
}

func (m *MockCheckout) SubmitOrder(ctx context.Context, userID uuid.UUID, cartID string, req services.SubmitOrderRequest) (*services.SubmitOrderResult, error) {
	args := m.Called(ctx, userID, cartID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SubmitOrderResult), args.Error(1)
}

type MockOrders struct {
	mock.Mock
}

func (m *MockOrders) GetOrderForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, userID, orderID)
	return orderArg(args.Get(0)), args.Error(1)
}

func (m *MockOrders) ListUserOrders(ctx context.Context, userID uuid.UUID, page, limit int) (*services.OrderResponse, error) {
	args := m.Called(ctx, userID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.OrderResponse), args.Error(1)
}

func (m *MockOrders) UpdateStatus(ctx context.Context, orderID uuid.UUID, next models.OrderStatus) (*models.Order, error) {
	args := m.Called(ctx, orderID, next)
	return orderArg(args.Get(0)), args.Error(1)
}

func (m *MockOrders) ApplyAction(ctx context.Context, orderID uuid.UUID, action models.OrderAction) (*models.Order, error) {
	args := m.Called(ctx, orderID, action)
	return orderArg(args.Get(0)), args.Error(1)
}

func orderArg(v interface{}) *models.Order {
	if v == nil {
		return nil
	}
	return v.(*models.Order)
}

type MockDashboard struct {
	mock.Mock
}

func (m *MockDashboard) Load(ctx context.Context, filter *models.OrderStatus) (*services.DashboardView, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.DashboardView), args.Error(1)
}

type MockAuth struct {
	mock.Mock
}

func (m *MockAuth) Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AuthResult), args.Error(1)
}

func (m *MockAuth) Login(ctx context.Context, email, password string) (*services.AuthResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AuthResult), args.Error(1)
}

func (m *MockAuth) Logout(ctx context.Context, claims *auth.Claims) error {
	return m.Called(ctx, claims).Error(0)
}

func (m *MockAuth) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuth) UpdateProfile(ctx context.Context, userID uuid.UUID, in services.ProfileInput) (*models.User, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// --- Helpers ---

const testCartID = "cart-session-0001"

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// asUser stands in for the auth middleware.
func asUser(id uuid.UUID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserContextKey, id.String())
		c.Set(middleware.RoleContextKey, role)
		c.Set(middleware.ClaimsContextKey, &auth.Claims{UserID: id.String(), Role: role, TokenID: "jti-1"})
		c.Next()
	}
}

func perform(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req, _ = http.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, req)
	return recorder
}

func cartHeader() map[string]string {
	return map[string]string{middleware.CartIDHeader: testCartID}
}
