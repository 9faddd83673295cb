package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/websitedesigna/tastygrill/common/errors"
	"github.com/websitedesigna/tastygrill/common/logger"
	"github.com/websitedesigna/tastygrill/events"
	"github.com/websitedesigna/tastygrill/models"
	awspkg "github.com/websitedesigna/tastygrill/pkg/aws"
	"github.com/websitedesigna/tastygrill/repository"
)

type OrderResponse struct {
	Orders []models.Order `json:"orders"`
	Meta   MetaData       `json:"meta"`
}

type MetaData struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalOrders int64 `json:"total_orders"`
	TotalPages  int64 `json:"total_pages"`
	HasMore     bool  `json:"has_more"`
}

type OrderService struct {
	orders  repository.OrderRepository
	events  events.Publisher
	metrics *awspkg.MetricsClient
	log     *zap.Logger
	now     func() time.Time
}

func NewOrderService(orders repository.OrderRepository, publisher events.Publisher, metrics *awspkg.MetricsClient, log *zap.Logger) *OrderService {
	return &OrderService{
		orders:  orders,
		events:  publisher,
		metrics: metrics,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *OrderService) load(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Order not found")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch order", err)
	}
	return order, nil
}

// UpdateStatus moves an order to next if the status machine allows it.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, next models.OrderStatus) (*models.Order, error) {
	if !next.IsValid() {
		return nil, apperrors.BadRequest("Unknown order status", models.ErrUnknownStatus)
	}
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, order, next)
}

// ApplyAction resolves a dashboard action against the order's current
// status and applies it.
func (s *OrderService) ApplyAction(ctx context.Context, orderID uuid.UUID, action models.OrderAction) (*models.Order, error) {
	target, ok := action.Target()
	if !ok {
		return nil, apperrors.BadRequest("Unknown order action", models.ErrUnknownAction)
	}
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, order, target)
}

func (s *OrderService) transition(ctx context.Context, order *models.Order, next models.OrderStatus) (*models.Order, error) {
	before := order.Status
	if err := models.ValidateTransition(before, next); err != nil {
		appErr := apperrors.Conflict("Invalid status transition", err)
		appErr.Fields = map[string]string{"from": string(before), "to": string(next)}
		return nil, appErr
	}

	at := s.now()
	if err := s.orders.UpdateStatus(ctx, order.ID, before, next, at); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, apperrors.Conflict("Order was updated by someone else. Please refresh.", err)
		}
		return nil, apperrors.Internal("Failed to update order status", err)
	}

	order.Status = next
	order.UpdatedAt = at
	switch next {
	case models.StatusCompleted:
		order.CompletedAt = &at
	case models.StatusCancelled:
		order.CanceledAt = &at
	}

	s.events.Publish(ctx, models.NewStatusChangedEvent(order, before))
	s.metrics.RecordCountAsync(awspkg.MetricOrderStatusChange, map[string]string{"status": string(next)})
	logger.With(ctx, s.log).Info("order status changed",
		zap.String("order_id", order.ID.String()),
		zap.String("from", string(before)),
		zap.String("to", string(next)),
	)
	return order, nil
}

// GetOrderForUser backs the order confirmation view.
func (s *OrderService) GetOrderForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByIDAndUserID(ctx, orderID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Order not found")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch order", err)
	}
	return order, nil
}

func (s *OrderService) ListUserOrders(ctx context.Context, userID uuid.UUID, page, limit int) (*OrderResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}

	orders, total, err := s.orders.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch orders", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}

	return &OrderResponse{
		Orders: orders,
		Meta: MetaData{
			Page:        page,
			Limit:       limit,
			TotalOrders: total,
			TotalPages:  calculateTotalPages(total, limit),
			HasMore:     total > int64(page*limit),
		},
	}, nil
}

func calculateTotalPages(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
