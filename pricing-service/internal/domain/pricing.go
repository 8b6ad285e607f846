package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CouponKind is how a coupon is meant to be applied.
type CouponKind string

const (
	CouponFlat    CouponKind = "FLAT"
	CouponPercent CouponKind = "PERCENT"
)

// Coupon carries both a flat amount and a percentage. Kind decides which one
// is applied; the other is informational.
type Coupon struct {
	Code    string
	Kind    CouponKind
	Amount  decimal.Decimal
	Percent int32
}

// Coupons is the fixed coupon table, keyed by upper-case code.
var Coupons = map[string]Coupon{
	"SAVE10":   {Code: "SAVE10", Kind: CouponFlat, Amount: decimal.NewFromInt(10), Percent: 10},
	"WELCOME":  {Code: "WELCOME", Kind: CouponFlat, Amount: decimal.NewFromInt(10), Percent: 10},
	"BOOKWORM": {Code: "BOOKWORM", Kind: CouponFlat, Amount: decimal.NewFromInt(10), Percent: 10},
}

// NormalizeCode trims and upper-cases a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CouponValidation is the answer to a coupon lookup. Unknown codes are
// invalid with zero amounts.
type CouponValidation struct {
	Code            string
	Valid           bool
	Kind            CouponKind
	DiscountAmount  decimal.Decimal
	DiscountPercent int32
}

// BookPrice is a list price.
type BookPrice struct {
	BookID    string
	Title     string
	Price     decimal.Decimal
	Currency  string
	UpdatedAt time.Time
}

// Quote prices quantity units of a book with an optional coupon.
type Quote struct {
	BookID      string
	Quantity    int32
	UnitPrice   decimal.Decimal
	Price       decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
	CouponCode  string
	CouponValid bool
}

// ApplyFlatDiscount subtracts amount from price once, never going below zero.
// It returns the discount actually applied and the resulting total.
func ApplyFlatDiscount(price, amount decimal.Decimal) (discount, total decimal.Decimal) {
	discount = decimal.Min(amount, price)
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount, price.Sub(discount)
}

var hundred = decimal.NewFromInt(100)

// Apply discounts price according to the coupon kind. PERCENT takes
// DiscountPercent of price rounded to cents; anything else subtracts the
// flat amount. Both are clamped to price.
func (v CouponValidation) Apply(price decimal.Decimal) (discount, total decimal.Decimal) {
	if v.Kind == CouponPercent {
		amount := price.Mul(decimal.NewFromInt32(v.DiscountPercent)).Div(hundred).Round(2)
		return ApplyFlatDiscount(price, amount)
	}
	return ApplyFlatDiscount(price, v.DiscountAmount)
}
