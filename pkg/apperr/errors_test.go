package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestReasonOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Reason
	}{
		{"nil", nil, ""},
		{"validation", Validation("quantity must be positive"), ReasonValidation},
		{"wrapped not found", fmt.Errorf("lookup: %w", NotFound("order %s", "x")), ReasonNotFound},
		{"plain sentinel", ErrEmptyCart, ReasonEmptyCart},
		{"order creation wins over its upstream cause", OrderCreation(Upstream(errors.New("dial"), "ledger"), "create"), ReasonOrderCreationFailed},
		{"unknown", errors.New("boom"), ReasonInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReasonOf(tt.err))
		})
	}
}

func TestError_IsMatchesKindAndCause(t *testing.T) {
	cause := context.DeadlineExceeded
	err := Upstream(cause, "stock oracle")

	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "stock oracle: context deadline exceeded", err.Error())
}

func TestStatusRoundTrip_PreservesReason(t *testing.T) {
	for _, err := range []error{
		Validation("bad"),
		NotFound("missing"),
		StockInsufficient("short"),
		EmptyCart("empty"),
		Upstream(nil, "down"),
		OrderCreation(nil, "ledger write"),
	} {
		st := ToStatus(err)
		back := FromStatus(st)
		assert.Equal(t, ReasonOf(err), ReasonOf(back), "round trip of %v", err)
	}
}

func TestToStatus_Codes(t *testing.T) {
	st, ok := status.FromError(ToStatus(StockInsufficient("x")))
	require.True(t, ok)
	assert.Equal(t, codes.FailedPrecondition, st.Code())

	st, ok = status.FromError(ToStatus(errors.New("boom")))
	require.True(t, ok)
	assert.Equal(t, codes.Internal, st.Code())

	existing := status.Error(codes.PermissionDenied, "nope")
	assert.Equal(t, existing, ToStatus(existing))
}

func TestFromStatus_TransportFailuresAreUpstream(t *testing.T) {
	assert.ErrorIs(t, FromStatus(status.Error(codes.Unavailable, "connection refused")), ErrUpstreamUnavailable)
	assert.ErrorIs(t, FromStatus(status.Error(codes.DeadlineExceeded, "slow")), ErrUpstreamUnavailable)
	assert.ErrorIs(t, FromStatus(status.Error(codes.Internal, "panic")), ErrUpstreamUnavailable)
	assert.ErrorIs(t, FromStatus(context.DeadlineExceeded), ErrUpstreamUnavailable)
	assert.ErrorIs(t, FromStatus(errors.New("eof")), ErrUpstreamUnavailable)

	assert.ErrorIs(t, FromStatus(status.Error(codes.NotFound, "gone")), ErrNotFound)
	assert.NoError(t, FromStatus(nil))
}
