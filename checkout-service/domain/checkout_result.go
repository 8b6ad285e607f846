package domain

import "github.com/shopspring/decimal"

// InsufficientItem is a cart line the stock oracle could not cover.
type InsufficientItem struct {
	BookID    string `json:"book_id"`
	Requested int32  `json:"requested"`
	Available int32  `json:"available"`
}

// CheckoutResult is the outcome of one checkout. Business failures have
// Success false and a stable Reason.
type CheckoutResult struct {
	Success           bool
	OrderID           string
	Message           string
	Reason            string
	Status            CheckoutStatus
	Total             decimal.Decimal
	Discount          decimal.Decimal
	InsufficientItems []InsufficientItem
}
