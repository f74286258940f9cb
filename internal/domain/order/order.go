package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// StatusReceived is the initial status of every new order. No further status
// transitions happen in this service; fulfillment tooling owns them.
const StatusReceived = "received"

// Order is a committed customer order.
type Order struct {
	ID        string
	Lines     []Line
	Total     decimal.Decimal
	Customer  Customer
	Status    string
	CreatedAt time.Time
}

// Line is one product position in an order. Name and UnitPrice are a snapshot
// taken when the line entered the cart, so later catalog edits never change
// what the customer agreed to pay.
type Line struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// Customer holds the delivery details collected during checkout.
type Customer struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Total returns the line subtotal (unit price times quantity).
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create durably appends a new order.
	Create(ctx context.Context, o *Order) error
}
