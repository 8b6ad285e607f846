package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
)

const DefaultCurrency = "USD"

// OrderItem is a line as it was in the cart at checkout. It never changes
// once the order is written.
type OrderItem struct {
	BookID    string          `json:"book_id"`
	Title     string          `json:"title"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt32(i.Quantity))
}

type Order struct {
	ID          uuid.UUID
	CheckoutID  uuid.UUID
	UserID      string
	Items       []OrderItem
	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	CouponCode  string
	TotalAmount decimal.Decimal
	Currency    string
	Status      OrderStatus
	CreatedAt   time.Time
}

// SubtotalOf sums the line subtotals.
func SubtotalOf(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
