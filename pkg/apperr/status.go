package apperr

import (
	"context"
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Domain tags the ErrorInfo details this package attaches.
const Domain = "bookstore"

func codeOf(r Reason) codes.Code {
	switch r {
	case ReasonValidation:
		return codes.InvalidArgument
	case ReasonNotFound:
		return codes.NotFound
	case ReasonStockInsufficient, ReasonEmptyCart:
		return codes.FailedPrecondition
	case ReasonUpstreamUnavailable:
		return codes.Unavailable
	case ReasonOrderCreationFailed:
		return codes.Aborted
	default:
		return codes.Internal
	}
}

// ToStatus converts err into a gRPC status error carrying its reason.
// Errors that already are statuses pass through untouched.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if !errors.As(err, &ae) {
		if _, ok := status.FromError(err); ok {
			return err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = Upstream(err, "deadline exceeded")
		}
	}

	reason := ReasonOf(err)
	st := status.New(codeOf(reason), err.Error())
	if reason == ReasonInternal {
		return st.Err()
	}
	detailed, dErr := st.WithDetails(&errdetails.ErrorInfo{Reason: string(reason), Domain: Domain})
	if dErr != nil {
		return st.Err()
	}
	return detailed.Err()
}

// FromStatus converts an error returned by a gRPC client call back into the
// taxonomy. Transport failures, timeouts and unclassified upstream errors all
// become UpstreamUnavailable.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Upstream(err, "upstream call interrupted")
	}
	st, ok := status.FromError(err)
	if !ok {
		return Upstream(err, "upstream call failed")
	}

	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != Domain {
			continue
		}
		if kind := KindOf(Reason(info.GetReason())); kind != nil {
			return &Error{Kind: kind, Msg: st.Message()}
		}
	}

	switch st.Code() {
	case codes.InvalidArgument:
		return &Error{Kind: ErrValidation, Msg: st.Message()}
	case codes.NotFound:
		return &Error{Kind: ErrNotFound, Msg: st.Message()}
	default:
		return Upstream(err, "upstream returned %s", st.Code())
	}
}
