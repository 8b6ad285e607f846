// Package apperr is the error taxonomy shared by every bookstore service.
// Each kind carries a stable reason string that survives the wire.
package apperr

import (
	"errors"
	"fmt"
)

// Reason is the stable, client-visible identifier of a failure kind.
type Reason string

const (
	ReasonValidation          Reason = "VALIDATION_ERROR"
	ReasonNotFound            Reason = "NOT_FOUND"
	ReasonStockInsufficient   Reason = "STOCK_INSUFFICIENT"
	ReasonEmptyCart           Reason = "EMPTY_CART"
	ReasonUpstreamUnavailable Reason = "UPSTREAM_UNAVAILABLE"
	ReasonOrderCreationFailed Reason = "ORDER_CREATION_FAILED"
	ReasonInternal            Reason = "INTERNAL"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrStockInsufficient   = errors.New("insufficient stock")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrOrderCreationFailed = errors.New("order creation failed")
)

var kinds = []struct {
	err    error
	reason Reason
}{
	{ErrValidation, ReasonValidation},
	{ErrNotFound, ReasonNotFound},
	{ErrStockInsufficient, ReasonStockInsufficient},
	{ErrEmptyCart, ReasonEmptyCart},
	{ErrUpstreamUnavailable, ReasonUpstreamUnavailable},
	{ErrOrderCreationFailed, ReasonOrderCreationFailed},
}

// Error pairs a taxonomy kind with a message and an optional cause.
// errors.Is matches both the kind and anything in the cause chain.
type Error struct {
	Kind  error
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Msg + ": " + e.Cause.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func newf(kind error, cause error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

func Validation(format string, args ...any) error {
	return newf(ErrValidation, nil, format, args...)
}

func NotFound(format string, args ...any) error {
	return newf(ErrNotFound, nil, format, args...)
}

func StockInsufficient(format string, args ...any) error {
	return newf(ErrStockInsufficient, nil, format, args...)
}

func EmptyCart(format string, args ...any) error {
	return newf(ErrEmptyCart, nil, format, args...)
}

// Upstream wraps cause as an UpstreamUnavailable failure.
func Upstream(cause error, format string, args ...any) error {
	return newf(ErrUpstreamUnavailable, cause, format, args...)
}

// OrderCreation wraps cause as an OrderCreationFailed failure.
func OrderCreation(cause error, format string, args ...any) error {
	return newf(ErrOrderCreationFailed, cause, format, args...)
}

// ReasonOf returns the reason of the outermost taxonomy kind in err's chain,
// or ReasonInternal.
func ReasonOf(err error) Reason {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		for _, k := range kinds {
			if ae.Kind == k.err {
				return k.reason
			}
		}
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.reason
		}
	}
	return ReasonInternal
}

// KindOf maps a reason back to its sentinel. Unknown reasons yield nil.
func KindOf(r Reason) error {
	for _, k := range kinds {
		if k.reason == r {
			return k.err
		}
	}
	return nil
}
