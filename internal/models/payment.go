// internal/models/payment.go
package models

type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "CREATED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
)

// Order is returned by POST /create-subscription-order.
type Order struct {
	OrderID    string      `json:"order_id"`
	ApproveURL string      `json:"approve_url"`
	Status     OrderStatus `json:"status"`
}

// PendingOrder is remembered in the session while the user is at the payment provider.
type PendingOrder struct {
	OrderID string
	Plan    Plan
}

type CaptureResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
