package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderEventType string

const (
	OrderCreated       OrderEventType = "order.created"
	OrderStatusChanged OrderEventType = "order.status_changed"
)

// OrderEvent is a before/after delta for one order.
type OrderEvent struct {
	ID          string          `json:"id"`
	Type        OrderEventType  `json:"type"`
	OrderID     uuid.UUID       `json:"order_id"`
	UserID      uuid.UUID       `json:"user_id"`
	Before      *OrderStatus    `json:"before,omitempty"`
	After       OrderStatus     `json:"after"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Source      string          `json:"source"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

func NewOrderCreatedEvent(o *Order) OrderEvent {
	return OrderEvent{
		ID:          uuid.NewString(),
		Type:        OrderCreated,
		OrderID:     o.ID,
		UserID:      o.UserID,
		After:       o.Status,
		TotalAmount: o.TotalAmount,
		OccurredAt:  time.Now().UTC(),
	}
}

func NewStatusChangedEvent(o *Order, before OrderStatus) OrderEvent {
	return OrderEvent{
		ID:          uuid.NewString(),
		Type:        OrderStatusChanged,
		OrderID:     o.ID,
		UserID:      o.UserID,
		Before:      &before,
		After:       o.Status,
		TotalAmount: o.TotalAmount,
		OccurredAt:  time.Now().UTC(),
	}
}
