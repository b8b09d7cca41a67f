package contract

import "errors"

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrValidation      = errors.New("validation failed")

	// ErrClassificationUnavailable covers classifier timeouts and malformed
	// rankings. The router degrades to a continuation instead of failing.
	ErrClassificationUnavailable = errors.New("intent classification unavailable")
)
