package domain

type CheckoutStatus string

const (
	CheckoutStatusInitiated      CheckoutStatus = "INITIATED"
	CheckoutStatusStockValidated CheckoutStatus = "STOCK_VALIDATED"
	CheckoutStatusReserved       CheckoutStatus = "RESERVED"
	CheckoutStatusOrderCreated   CheckoutStatus = "ORDER_CREATED"
	CheckoutStatusCartCleared    CheckoutStatus = "CART_CLEARED"
	CheckoutStatusCompleted      CheckoutStatus = "COMPLETED"

	CheckoutStatusEmptyCart           CheckoutStatus = "EMPTY_CART"
	CheckoutStatusStockInsufficient   CheckoutStatus = "STOCK_INSUFFICIENT"
	CheckoutStatusOrderCreationFailed CheckoutStatus = "ORDER_CREATION_FAILED"
	CheckoutStatusUpstreamUnavailable CheckoutStatus = "UPSTREAM_UNAVAILABLE"
)

var transitions = map[CheckoutStatus][]CheckoutStatus{
	CheckoutStatusInitiated: {
		CheckoutStatusStockValidated,
		CheckoutStatusEmptyCart,
		CheckoutStatusStockInsufficient,
		CheckoutStatusUpstreamUnavailable,
	},
	CheckoutStatusStockValidated: {
		CheckoutStatusReserved,
		CheckoutStatusOrderCreated,
		CheckoutStatusStockInsufficient,
		CheckoutStatusOrderCreationFailed,
		CheckoutStatusUpstreamUnavailable,
	},
	CheckoutStatusReserved: {
		CheckoutStatusOrderCreated,
		CheckoutStatusOrderCreationFailed,
	},
	CheckoutStatusOrderCreated: {
		CheckoutStatusCartCleared,
		CheckoutStatusCompleted,
	},
	CheckoutStatusCartCleared: {
		CheckoutStatusCompleted,
	},
}

// CanTransitionTo reports whether the saga may move from one status to the
// next. Terminal statuses have no outgoing edges.
func CanTransitionTo(from, to CheckoutStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s CheckoutStatus) IsTerminal() bool {
	switch s {
	case CheckoutStatusCompleted,
		CheckoutStatusEmptyCart,
		CheckoutStatusStockInsufficient,
		CheckoutStatusOrderCreationFailed,
		CheckoutStatusUpstreamUnavailable:
		return true
	}
	return false
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}
