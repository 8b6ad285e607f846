package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartSnapshotItem struct {
	BookID    string          `json:"book_id"`
	Title     string          `json:"title"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartSnapshot is the cart as read at the start of a checkout. Version is the
// cart version it was read at.
type CartSnapshot struct {
	UserID     string             `json:"user_id"`
	Items      []CartSnapshotItem `json:"items"`
	CouponCode string             `json:"coupon_code,omitempty"`
	Subtotal   decimal.Decimal    `json:"subtotal"`
	Version    int64              `json:"version"`
	CapturedAt time.Time          `json:"captured_at"`
}

func (s *CartSnapshot) IsEmpty() bool {
	return s == nil || len(s.Items) == 0
}
