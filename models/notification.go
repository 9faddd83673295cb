package models

import "github.com/google/uuid"

type NotificationLevel string

const (
	NotifySuccess NotificationLevel = "success"
	NotifyError   NotificationLevel = "error"
	NotifyInfo    NotificationLevel = "info"
)

// Notification is a user-facing toast.
type Notification struct {
	Level   NotificationLevel `json:"level"`
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	UserID  *uuid.UUID        `json:"user_id,omitempty"`
	OrderID *uuid.UUID        `json:"order_id,omitempty"`
}

const (
	MsgOrderPlaced        = "Order placed successfully!"
	MsgPaymentFailed      = "Payment failed. Please try again."
	MsgPaymentUnconfirmed = "We could not confirm your payment. Please submit your order again."
	MsgOrderFailed        = "Error processing order. Please try again."
	MsgSignInToOrder      = "Please sign in to place an order"
	MsgCartEmpty          = "Your cart is empty"
	MsgCheckoutPending    = "A checkout is already in progress"
)
