package contestclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Injamhossan/contest-arena/internal/domain"
)

var (
	// ErrInFlight is returned when the same gated action on the same subject
	// is already waiting for the server.
	ErrInFlight = errors.New("action already in flight")

	// ErrTransient marks 5xx responses and network failures. Only these are
	// ever retried.
	ErrTransient = errors.New("transient failure")

	// ErrPaymentPending is returned by Enter when the processor has not
	// settled the payment yet. Confirming again later is safe.
	ErrPaymentPending = errors.New("payment still processing")
)

// APIError is a non-2xx response. It unwraps to the domain sentinel named
// by Code, or to ErrTransient for server faults, so callers match it with
// errors.Is.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	if err := domain.ErrorFromCode(e.Code); err != nil {
		return err
	}
	if e.StatusCode >= http.StatusInternalServerError {
		return ErrTransient
	}

	return nil
}

func isTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// PartialSuccessError reports that the payment went through but the effect
// it paid for did not. The payment stays unredeemed and the server flags it
// for refund when the effect can no longer happen.
type PartialSuccessError struct {
	PaymentID uint
	Err       error
}

func (e *PartialSuccessError) Error() string {
	return fmt.Sprintf("payment %d completed but registration failed: %v", e.PaymentID, e.Err)
}

func (e *PartialSuccessError) Unwrap() error {
	return e.Err
}
