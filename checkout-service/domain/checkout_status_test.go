package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to CheckoutStatus
		want     bool
	}{
		{CheckoutStatusInitiated, CheckoutStatusStockValidated, true},
		{CheckoutStatusInitiated, CheckoutStatusEmptyCart, true},
		{CheckoutStatusInitiated, CheckoutStatusOrderCreated, false},
		{CheckoutStatusStockValidated, CheckoutStatusReserved, true},
		{CheckoutStatusStockValidated, CheckoutStatusOrderCreated, true},
		{CheckoutStatusStockValidated, CheckoutStatusEmptyCart, false},
		{CheckoutStatusReserved, CheckoutStatusOrderCreationFailed, true},
		{CheckoutStatusReserved, CheckoutStatusUpstreamUnavailable, false},
		{CheckoutStatusOrderCreated, CheckoutStatusCartCleared, true},
		{CheckoutStatusOrderCreated, CheckoutStatusOrderCreationFailed, false},
		{CheckoutStatusCartCleared, CheckoutStatusCompleted, true},
		{CheckoutStatusCompleted, CheckoutStatusInitiated, false},
		{CheckoutStatusEmptyCart, CheckoutStatusStockValidated, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransitionTo(tt.from, tt.to))
		})
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	all := []CheckoutStatus{
		CheckoutStatusInitiated, CheckoutStatusStockValidated, CheckoutStatusReserved,
		CheckoutStatusOrderCreated, CheckoutStatusCartCleared, CheckoutStatusCompleted,
		CheckoutStatusEmptyCart, CheckoutStatusStockInsufficient,
		CheckoutStatusOrderCreationFailed, CheckoutStatusUpstreamUnavailable,
	}
	for _, from := range all {
		if !from.IsTerminal() {
			continue
		}
		for _, to := range all {
			assert.False(t, CanTransitionTo(from, to), "%s -> %s", from, to)
		}
	}
}
