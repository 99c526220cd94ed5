package tokensale

import (
	"errors"
	"fmt"
)

// Sentinel errors for sale failure scenarios.
var (
	// Configuration errors
	ErrInvalidConfig      = errors.New("tokensale: invalid config")
	ErrNotInitialized     = errors.New("tokensale: not initialized")
	ErrAlreadyInitialized = errors.New("tokensale: already initialized")
	ErrUnknownAsset       = errors.New("tokensale: unknown asset")

	// Admission errors
	ErrNotStarted     = errors.New("tokensale: sale not started")
	ErrSaleEnded      = errors.New("tokensale: already ended")
	ErrZeroAmount     = errors.New("tokensale: zero amount")
	ErrCapExceeded    = errors.New("tokensale: total amount exceeded")
	ErrNotAuthorized  = errors.New("tokensale: not authorized")
	ErrGroupMismatch  = errors.New("tokensale: can't vote for multiple daos")
	ErrAmountOverflow = errors.New("tokensale: output amount overflows")

	// Lifecycle errors
	ErrNotFinalized        = errors.New("tokensale: sale not finalized")
	ErrAlreadyFinalized    = errors.New("tokensale: sale already finalized")
	ErrNotEnded            = errors.New("tokensale: sale has not ended")
	ErrInsufficientReserve = errors.New("tokensale: not enough balance")

	// Settlement errors
	ErrAlreadyClaimed = errors.New("tokensale: already claimed")
	ErrNothingToClaim = errors.New("tokensale: nothing to claim")
	ErrNothingToSweep = errors.New("tokensale: no tokens to sweep")
	ErrTransferFailed = errors.New("tokensale: asset transfer failed")

	// Access errors
	ErrUnauthorized = errors.New("tokensale: caller is not the owner")
	ErrPaused       = errors.New("tokensale: paused")
	ErrNotPaused    = errors.New("tokensale: not paused")

	// Store errors
	ErrNotFound    = errors.New("tokensale: not found")
	ErrStoreClosed = errors.New("tokensale: store is closed")
)

// ValidationError names the configuration field that failed validation.
// It matches ErrInvalidConfig under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("tokensale: invalid %s: %s", e.Field, e.Message)
}

// Unwrap returns ErrInvalidConfig.
func (e ValidationError) Unwrap() error { return ErrInvalidConfig }

func invalid(field, message string) error {
	return ValidationError{Field: field, Message: message}
}

// MultiError collects independent failures, such as several plugin or
// shutdown errors.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "tokensale: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("tokensale: %d errors occurred", len(e.Errors))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ErrOrNil returns nil when nothing was collected.
func (e MultiError) ErrOrNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAdmissionError returns true if a purchase was rejected by one of the
// admission checks.
func IsAdmissionError(err error) bool {
	return errors.Is(err, ErrNotStarted) ||
		errors.Is(err, ErrSaleEnded) ||
		errors.Is(err, ErrZeroAmount) ||
		errors.Is(err, ErrCapExceeded) ||
		errors.Is(err, ErrPaused) ||
		errors.Is(err, ErrNotAuthorized) ||
		errors.Is(err, ErrGroupMismatch) ||
		errors.Is(err, ErrAmountOverflow)
}

// IsLifecycleError returns true if the error concerns the sale phase.
func IsLifecycleError(err error) bool {
	return errors.Is(err, ErrNotInitialized) ||
		errors.Is(err, ErrAlreadyInitialized) ||
		errors.Is(err, ErrNotFinalized) ||
		errors.Is(err, ErrAlreadyFinalized) ||
		errors.Is(err, ErrNotEnded) ||
		errors.Is(err, ErrInsufficientReserve)
}

// IsSettlementError returns true if a claim or sweep was rejected.
func IsSettlementError(err error) bool {
	return errors.Is(err, ErrAlreadyClaimed) ||
		errors.Is(err, ErrNothingToClaim) ||
		errors.Is(err, ErrNothingToSweep) ||
		errors.Is(err, ErrTransferFailed)
}
