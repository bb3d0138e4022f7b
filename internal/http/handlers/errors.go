package handlers

import (
	"errors"
	"net/http"

	"github.com/luisovando/payout-orchestrator/internal/domain/payout"
	"github.com/luisovando/payout-orchestrator/internal/platform/apierr"
)

const (
	CodeRequestInvalid      = "request_invalid"
	CodeValidation          = "validation_error"
	CodeIdempotencyConflict = "idempotency_conflict"
	CodePayoutNotFound      = "payout_not_found"
	CodeInvalidPayoutID     = "invalid_payout_id"
)

// toAPIError maps the domain taxonomy onto HTTP. Internal failures never
// leak their cause to the caller.
func toAPIError(err error) *apierr.Error {
	msg := errors.New(payout.MessageOf(err))
	switch payout.CodeOf(err) {
	case payout.CodeValidation:
		return apierr.New(http.StatusBadRequest, CodeValidation, msg)
	case payout.CodeIdempotencyConflict:
		return apierr.New(http.StatusConflict, CodeIdempotencyConflict, msg)
	case payout.CodeNotFound:
		return apierr.New(http.StatusNotFound, CodePayoutNotFound, msg)
	default:
		return apierr.Internal()
	}
}

func isServerError(err error) bool {
	switch payout.CodeOf(err) {
	case payout.CodeValidation, payout.CodeIdempotencyConflict, payout.CodeNotFound:
		return false
	default:
		return true
	}
}
