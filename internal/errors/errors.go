package errors

import (
	"errors"
	"fmt"
)

// Kind is a stable, machine-readable classification for every failure the
// trading core can surface. Handlers map kinds to user-facing responses.
type Kind string

const (
	KindInvalidKeyFormat    Kind = "invalid_key_format"
	KindDecryption          Kind = "decryption_error"
	KindInvalidSlippage     Kind = "invalid_slippage"
	KindNoLiquidity         Kind = "no_liquidity"
	KindChain               Kind = "chain_error"
	KindAllowanceCheck      Kind = "allowance_check_failed"
	KindApproval            Kind = "approval_failed"
	KindSwapSubmission      Kind = "swap_submission_failed"
	KindConfirmationTimeout Kind = "confirmation_timeout"
	KindPasswordMismatch    Kind = "password_mismatch"
	KindRateLimited         Kind = "rate_limited"
	KindInternal            Kind = "internal"
)

// Error carries a kind plus an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// KindOf extracts the kind from err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if typed, ok := As(err); ok {
		return typed.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
