package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidLine reports a rejected cart mutation.
var ErrInvalidLine = errors.New("invalid cart line")

// Cart is the per-user aggregate. Lines are unique by BookID and keep their
// insertion order. Version increases by one with every persisted change.
type Cart struct {
	UserID     string         `json:"userId"`
	Items      []CartLineItem `json:"items"`
	CouponCode string         `json:"couponCode,omitempty"`
	Version    int64          `json:"version"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// CartLineItem snapshots the title and price a book had when it was added.
type CartLineItem struct {
	BookID    string          `json:"bookId"`
	Title     string          `json:"title"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	AddedAt   time.Time       `json:"addedAt"`
}

func (l CartLineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt32(l.Quantity))
}

// NewCart returns an empty, not yet persisted cart.
func NewCart(userID string, now time.Time) *Cart {
	return &Cart{UserID: userID, CreatedAt: now, UpdatedAt: now}
}

// TotalPrice is the sum of line subtotals.
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Subtotal is the cart value before any coupon.
func (c *Cart) Subtotal() decimal.Decimal {
	return c.TotalPrice()
}

// TotalItems sums line quantities. It is int64 because the sum of several
// int32 lines can exceed int32.
func (c *Cart) TotalItems() int64 {
	var n int64
	for _, item := range c.Items {
		n += int64(item.Quantity)
	}
	return n
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) indexOf(bookID string) int {
	for i, item := range c.Items {
		if item.BookID == bookID {
			return i
		}
	}
	return -1
}

// Line returns the line for bookID.
func (c *Cart) Line(bookID string) (CartLineItem, bool) {
	if i := c.indexOf(bookID); i >= 0 {
		return c.Items[i], true
	}
	return CartLineItem{}, false
}

// Add appends a line, or accumulates quantity onto the existing line for the
// same book. An existing line keeps its original title and price.
func (c *Cart) Add(bookID, title string, quantity int32, unitPrice decimal.Decimal, now time.Time) error {
	if strings.TrimSpace(bookID) == "" {
		return fmt.Errorf("%w: bookId is required", ErrInvalidLine)
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidLine, quantity)
	}
	if unitPrice.IsNegative() {
		return fmt.Errorf("%w: unitPrice must not be negative", ErrInvalidLine)
	}

	if i := c.indexOf(bookID); i >= 0 {
		if int64(c.Items[i].Quantity)+int64(quantity) > math.MaxInt32 {
			return fmt.Errorf("%w: quantity for %s would exceed %d", ErrInvalidLine, bookID, int32(math.MaxInt32))
		}
		c.Items[i].Quantity += quantity
	} else {
		c.Items = append(c.Items, CartLineItem{
			BookID:    bookID,
			Title:     title,
			Quantity:  quantity,
			UnitPrice: unitPrice,
			AddedAt:   now,
		})
	}
	c.UpdatedAt = now
	return nil
}

// Update sets a line's quantity in place. Zero removes the line. A missing
// line is inserted when quantity is positive, which needs a unit price.
// A non-nil title or price refreshes the snapshot. It reports whether the
// cart changed.
func (c *Cart) Update(bookID string, quantity int32, title *string, unitPrice *decimal.Decimal, now time.Time) (bool, error) {
	if strings.TrimSpace(bookID) == "" {
		return false, fmt.Errorf("%w: bookId is required", ErrInvalidLine)
	}
	if quantity < 0 {
		return false, fmt.Errorf("%w: quantity must not be negative, got %d", ErrInvalidLine, quantity)
	}
	if unitPrice != nil && unitPrice.IsNegative() {
		return false, fmt.Errorf("%w: unitPrice must not be negative", ErrInvalidLine)
	}

	i := c.indexOf(bookID)
	switch {
	case quantity == 0:
		return c.Remove(bookID), nil
	case i < 0:
		if unitPrice == nil {
			return false, fmt.Errorf("%w: unitPrice is required for a new line", ErrInvalidLine)
		}
		line := CartLineItem{BookID: bookID, Quantity: quantity, UnitPrice: *unitPrice, AddedAt: now}
		if title != nil {
			line.Title = *title
		}
		c.Items = append(c.Items, line)
	default:
		c.Items[i].Quantity = quantity
		if title != nil {
			c.Items[i].Title = *title
		}
		if unitPrice != nil {
			c.Items[i].UnitPrice = *unitPrice
		}
	}
	c.UpdatedAt = now
	return true, nil
}

// Remove drops the line for bookID and reports whether it was present.
func (c *Cart) Remove(bookID string) bool {
	i := c.indexOf(bookID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

// Clear drops every line and the coupon. It reports whether anything changed.
func (c *Cart) Clear(now time.Time) bool {
	if len(c.Items) == 0 && c.CouponCode == "" {
		return false
	}
	c.Items = nil
	c.CouponCode = ""
	c.UpdatedAt = now
	return true
}

func (c *Cart) ApplyCoupon(code string, now time.Time) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("%w: coupon code is required", ErrInvalidLine)
	}
	c.CouponCode = strings.ToUpper(code)
	c.UpdatedAt = now
	return nil
}

func (c *Cart) RemoveCoupon(now time.Time) bool {
	if c.CouponCode == "" {
		return false
	}
	c.CouponCode = ""
	c.UpdatedAt = now
	return true
}

// Clone returns a deep copy.
func (c *Cart) Clone() *Cart {
	out := *c
	if c.Items != nil {
		out.Items = append([]CartLineItem(nil), c.Items...)
	}
	return &out
}
