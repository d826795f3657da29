// Package processor talks to the external payment processor. Only intent
// creation and retrieval are needed: the payer confirms the intent directly
// with the processor and the service then re-reads it.
package processor

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrUnavailable    = errors.New("payment processor unavailable")
	ErrIntentNotFound = errors.New("payment intent not found")
)

type IntentStatus string

const (
	IntentSucceeded             IntentStatus = "succeeded"
	IntentProcessing            IntentStatus = "processing"
	IntentRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentRequiresConfirmation  IntentStatus = "requires_confirmation"
	IntentRequiresAction        IntentStatus = "requires_action"
	IntentCanceled              IntentStatus = "canceled"
)

type Intent struct {
	ID            string
	ClientSecret  string
	Status        IntentStatus
	Amount        int64
	Currency      string
	TransactionID string
	Metadata      map[string]string
}

type IntentParams struct {
	Amount         decimal.Decimal
	Currency       string
	IdempotencyKey string
	Description    string
	Metadata       map[string]string
}

type Processor interface {
	CreateIntent(ctx context.Context, params IntentParams) (Intent, error)
	RetrieveIntent(ctx context.Context, id string) (Intent, error)
}

// MinorUnits converts an amount to the processor's integer representation.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
