package service

import (
	"context"
	"fmt"
	"time"

	d "github.com/fjod/go_bookstore/checkout-service/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/singleflight"
)

// Policy decides how stock is held between validation and order creation.
type Policy string

const (
	// PolicyAdvisory trusts the stock check alone. Two concurrent checkouts
	// for the last unit may both succeed.
	PolicyAdvisory Policy = "advisory"
	// PolicyReserve holds stock before the order is written and releases it
	// if the order fails.
	PolicyReserve Policy = "reserve"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyAdvisory, "":
		return PolicyAdvisory, nil
	case PolicyReserve:
		return PolicyReserve, nil
	}
	return "", fmt.Errorf("unknown checkout policy %q", s)
}

const DefaultCheckoutTimeout = 15 * time.Second

var tracer = otel.Tracer("github.com/fjod/go_bookstore/checkout-service")

type CheckoutService interface {
	Checkout(ctx context.Context, userID string) (*d.CheckoutResult, error)
}

type CheckoutServiceImpl struct {
	cart      *CartHandler
	inventory *InventoryHandler
	pricing   *PricingHandler
	orders    *OrdersHandler

	policy  Policy
	timeout time.Duration
	sfg     singleflight.Group // one saga per user at a time
	now     func() time.Time
	newID   func() string
}

var _ CheckoutService = (*CheckoutServiceImpl)(nil)

func NewCheckoutService(cart *CartHandler, inventory *InventoryHandler, pricing *PricingHandler, orders *OrdersHandler, policy Policy) *CheckoutServiceImpl {
	return &CheckoutServiceImpl{
		cart:      cart,
		inventory: inventory,
		pricing:   pricing,
		orders:    orders,
		policy:    policy,
		timeout:   DefaultCheckoutTimeout,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// WithTimeout bounds each saga run. Non-positive values keep the current bound.
func (s *CheckoutServiceImpl) WithTimeout(timeout time.Duration) *CheckoutServiceImpl {
	if timeout > 0 {
		s.timeout = timeout
	}
	return s
}

// checkout carries one saga's state between steps.
type checkout struct {
	id            string
	userID        string
	status        d.CheckoutStatus
	snapshot      *d.CartSnapshot
	discount      decimal.Decimal
	total         decimal.Decimal
	notes         []string
	reservationID string
}

func (c *checkout) advance(to d.CheckoutStatus) error {
	if !d.CanTransitionTo(c.status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, c.status, to)
	}
	c.status = to
	return nil
}
