package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_bookstore/pkg/apperr"
	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// statusForReason maps the stable failure reasons to HTTP.
func statusForReason(reason apperr.Reason) int {
	switch reason {
	case apperr.ReasonValidation:
		return http.StatusBadRequest
	case apperr.ReasonNotFound:
		return http.StatusNotFound
	case apperr.ReasonStockInsufficient:
		return http.StatusConflict
	case apperr.ReasonEmptyCart:
		return http.StatusUnprocessableEntity
	case apperr.ReasonOrderCreationFailed:
		return http.StatusBadGateway
	case apperr.ReasonUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func reasonFromStatus(st *status.Status) apperr.Reason {
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetDomain() == apperr.Domain {
			return apperr.Reason(info.GetReason())
		}
	}
	return ""
}

func handleGRPCError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		respondError(w, http.StatusGatewayTimeout, string(apperr.ReasonUpstreamUnavailable), "upstream timed out")
		return
	}
	// Convert gRPC status codes to HTTP status codes
	st, ok := status.FromError(err)
	if !ok {
		respondError(w, http.StatusInternalServerError, string(apperr.ReasonInternal), "internal server error")
		return
	}

	if reason := reasonFromStatus(st); reason != "" {
		respondError(w, statusForReason(reason), string(reason), st.Message())
		return
	}

	var httpStatus int
	var code string

	switch st.Code() {
	case codes.InvalidArgument:
		httpStatus = http.StatusBadRequest
		code = string(apperr.ReasonValidation)
	case codes.NotFound:
		httpStatus = http.StatusNotFound
		code = string(apperr.ReasonNotFound)
	case codes.AlreadyExists:
		httpStatus = http.StatusConflict
		code = "ALREADY_EXISTS"
	case codes.Unauthenticated:
		httpStatus = http.StatusUnauthorized
		code = "UNAUTHENTICATED"
	case codes.PermissionDenied:
		httpStatus = http.StatusForbidden
		code = "PERMISSION_DENIED"
	case codes.ResourceExhausted:
		httpStatus = http.StatusTooManyRequests
		code = "RATE_LIMITED"
	case codes.Unavailable:
		httpStatus = http.StatusServiceUnavailable
		code = string(apperr.ReasonUpstreamUnavailable)
	case codes.DeadlineExceeded:
		httpStatus = http.StatusGatewayTimeout
		code = string(apperr.ReasonUpstreamUnavailable)
	default:
		httpStatus = http.StatusInternalServerError
		code = string(apperr.ReasonInternal)
	}

	respondError(w, httpStatus, code, st.Message())
}

// decodeBody reads a JSON body, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, string(apperr.ReasonValidation), "invalid JSON body")
		return false
	}
	return true
}
