package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/shopspring/decimal"

	"github.com/Injamhossan/contest-arena/internal/domain"
)

// BeginPaymentRequest opens a payment intent. Amount is optional and only
// checked against the server side fee.
type BeginPaymentRequest struct {
	ContestID   uint            `json:"contest_id"`
	PaymentType string          `json:"payment_type"`
	Amount      decimal.Decimal `json:"amount"`
}

func (req *BeginPaymentRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.ContestID, validation.Required),
		validation.Field(&req.PaymentType, validation.Required, validation.In(
			string(domain.PaymentCreation), string(domain.PaymentEntry), string(domain.PaymentUpdate))),
		validation.Field(&req.Amount, validation.By(nonNegative)),
	)
}

type ConfirmPaymentRequest struct {
	ProcessorRef string `json:"processor_ref"`
}

func (req *ConfirmPaymentRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.ProcessorRef, validation.Required),
	)
}

type ListPaymentsQuery struct {
	ContestID   uint   `form:"contest_id"`
	PaymentType string `form:"payment_type"`
	Status      string `form:"status"`
	NeedsRefund *bool  `form:"needs_refund"`
}

func (q *ListPaymentsQuery) Validate() error {
	return validation.ValidateStruct(
		q,
		validation.Field(&q.PaymentType, validation.In(
			string(domain.PaymentCreation), string(domain.PaymentEntry), string(domain.PaymentUpdate))),
		validation.Field(&q.Status, validation.In(
			string(domain.PaymentPending), string(domain.PaymentCompleted), string(domain.PaymentFailed))),
	)
}

func (q *ListPaymentsQuery) Filter() domain.PaymentFilter {
	f := domain.PaymentFilter{
		ContestID:   q.ContestID,
		Type:        domain.PaymentType(q.PaymentType),
		NeedsRefund: q.NeedsRefund,
	}
	if q.Status != "" {
		f.Statuses = []domain.PaymentStatus{domain.PaymentStatus(q.Status)}
	}

	return f
}
