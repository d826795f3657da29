package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentType string

const (
	PaymentCreation PaymentType = "creation"
	PaymentEntry    PaymentType = "entry"
	PaymentUpdate   PaymentType = "update"
)

func (t PaymentType) Valid() bool {
	switch t {
	case PaymentCreation, PaymentEntry, PaymentUpdate:
		return true
	}

	return false
}

type PaymentStatus string

const (
	// PaymentUnpaid only appears on a contest's creation payment status.
	PaymentUnpaid    PaymentStatus = "unpaid"
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

const (
	FailureDeclined  = "declined"
	FailureCanceled  = "canceled"
	FailureMismatch  = "mismatch"
	FailureAbandoned = "abandoned"
)

// Payment is a consumable capability: once completed it unlocks exactly one
// effect, recorded by RedeemedAt.
type Payment struct {
	ID             uint            `json:"id"`
	UserID         uint            `json:"user_id"`
	ContestID      uint            `json:"contest_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Type           PaymentType     `json:"payment_type"`
	Status         PaymentStatus   `json:"payment_status"`
	ProcessorRef   string          `json:"processor_ref"`
	ClientSecret   string          `json:"client_secret,omitempty"`
	IdempotencyKey string          `json:"idempotency_key"`
	TransactionID  string          `json:"transaction_id"`
	FailureReason  string          `json:"failure_reason,omitempty"`
	RedeemedAt     *time.Time      `json:"redeemed_at"`
	RedeemedFor    string          `json:"redeemed_for,omitempty"`
	NeedsRefund    bool            `json:"needs_refund"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (p Payment) IsTerminal() bool {
	return p.Status == PaymentCompleted || p.Status == PaymentFailed
}

func (p Payment) IsRedeemed() bool {
	return p.RedeemedAt != nil
}

// CheckRedeemable reports whether p may unlock an effect of type typ on the
// given contest for the given user. A payment queued for refund unlocks
// nothing.
func (p Payment) CheckRedeemable(userID, contestID uint, typ PaymentType) error {
	if p.UserID != userID || p.ContestID != contestID || p.Type != typ {
		return ErrPaymentRequired
	}
	if p.Status != PaymentCompleted || p.IsRedeemed() || p.NeedsRefund {
		return ErrPaymentRequired
	}

	return nil
}

func (p *Payment) Redeem(now time.Time, target string) {
	p.RedeemedAt = &now
	p.RedeemedFor = target
}

func (p *Payment) Complete(transactionID string) {
	p.Status = PaymentCompleted
	p.TransactionID = transactionID
	p.FailureReason = ""
}

func (p *Payment) Fail(reason string) {
	p.Status = PaymentFailed
	p.FailureReason = reason
}

// FlagRefund marks money taken without a delivered effect. It reports
// whether the flag changed.
func (p *Payment) FlagRefund() bool {
	if p.Status != PaymentCompleted || p.NeedsRefund {
		return false
	}

	p.NeedsRefund = true

	return true
}

// RefundableOnDelete reports whether deleting contest c voids the effect
// that p paid for.
func (p Payment) RefundableOnDelete(c Contest) bool {
	if p.Status != PaymentCompleted {
		return false
	}

	switch p.Type {
	case PaymentEntry:
		return true
	case PaymentCreation:
		return c.Status == ContestPending
	default:
		return !p.IsRedeemed()
	}
}

func ContestTarget(contestID uint) string {
	return fmt.Sprintf("contest:%d", contestID)
}

func ParticipationTarget(participationID uint) string {
	return fmt.Sprintf("participation:%d", participationID)
}

type PaymentFilter struct {
	UserID        uint
	ContestID     uint
	Type          PaymentType
	Statuses      []PaymentStatus
	Unredeemed    bool
	NeedsRefund   *bool
	CreatedBefore time.Time
}
