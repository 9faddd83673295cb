package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// Order is immutable after creation except for Status and its timestamps.
type Order struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	TotalAmount      decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_amount"`
	Status           OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentStatus    PaymentStatus   `gorm:"type:varchar(20);not null;default:'unpaid'" json:"payment_status"`
	PaymentReference *string         `gorm:"type:varchar(255)" json:"payment_reference,omitempty"`
	IdempotencyKey   *string         `gorm:"type:varchar(255);uniqueIndex" json:"-"`
	DeliveryAddress  string          `gorm:"type:text;not null" json:"delivery_address"`
	Phone            string          `gorm:"type:varchar(50);not null" json:"phone"`
	Notes            *string         `gorm:"type:text" json:"notes,omitempty"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
	CanceledAt       *time.Time      `json:"canceled_at,omitempty"`
	CreatedAt        time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	OrderItems []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items"`
	Customer   *User       `gorm:"foreignKey:UserID;references:ID" json:"customer,omitempty"`
}

type OrderItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	MenuItemID string          `gorm:"type:uuid;not null" json:"menu_item_id"`
	Size       *string         `gorm:"type:varchar(20)" json:"size,omitempty"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"unit_price"`
	LineTotal  decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"line_total"`
	CreatedAt  time.Time       `json:"created_at"`

	MenuItem *MenuItem `gorm:"foreignKey:MenuItemID;references:ID" json:"menu_item,omitempty"`
}

var ErrOrderTotalMismatch = errors.New("order total does not match line totals")

// Validate checks an order before it is written: at least one line, positive
// quantities, line totals consistent with unit prices and the order total
// equal to the sum of line totals.
func (o *Order) Validate() error {
	if len(o.OrderItems) == 0 {
		return errors.New("order has no items")
	}
	sum := decimal.Zero
	for i, item := range o.OrderItems {
		if item.Quantity < 1 {
			return fmt.Errorf("item %d: quantity must be at least 1", i)
		}
		want := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		if !item.LineTotal.Equal(want) {
			return fmt.Errorf("item %d: line total %s != %s", i, item.LineTotal, want)
		}
		sum = sum.Add(item.LineTotal)
	}
	if !o.TotalAmount.Equal(sum) {
		return fmt.Errorf("%w: total %s, items %s", ErrOrderTotalMismatch, o.TotalAmount, sum)
	}
	return nil
}

// OrderItemsFromCart maps each cart entry to an order line.
func OrderItemsFromCart(cart *Cart) []OrderItem {
	items := make([]OrderItem, 0, len(cart.Items))
	for _, entry := range cart.Items {
		var size *string
		if entry.Size != nil {
			s := *entry.Size
			size = &s
		}
		items = append(items, OrderItem{
			MenuItemID: entry.MenuItemID(),
			Size:       size,
			Quantity:   entry.Quantity,
			UnitPrice:  entry.UnitPrice,
			LineTotal:  entry.LineTotal(),
		})
	}
	return items
}
