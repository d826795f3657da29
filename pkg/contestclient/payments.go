package contestclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Injamhossan/contest-arena/internal/domain"
)

// PayerConfirm completes a pending payment with the processor on the
// payer's side, using the payment's client secret. The client never decides
// that a payment succeeded; it only relays the outcome to the server.
type PayerConfirm func(ctx context.Context, payment Payment) error

// BeginPayment opens a payment for the fee of typ on contest. The server
// computes the amount and hands back the pending payment of an earlier call
// for the same contest and type instead of opening a second one.
func (c *Client) BeginPayment(ctx context.Context, contest Contest, typ PaymentType) (Payment, error) {
	action := domain.PayAction(typ)
	if _, err := c.authorize(action, domain.ContestSubject(contest)); err != nil {
		return Payment{}, err
	}
	release, err := c.begin(action, contest.ID)
	if err != nil {
		return Payment{}, err
	}
	defer release()

	var payment Payment
	err = c.do(ctx, http.MethodPost, "/payments/intents", map[string]any{
		"contest_id":   contest.ID,
		"payment_type": typ,
		"amount":       decimal.Zero,
	}, &payment)

	return payment, err
}

// ConfirmPayment asks the server to settle payment against the processor.
// Confirming is idempotent on the server, but a transient failure is still
// resolved by reading the payment back before the one retry.
func (c *Client) ConfirmPayment(ctx context.Context, payment Payment) (Payment, error) {
	if _, err := c.authorize(domain.ActionConfirmPayment, domain.PaymentSubject(payment)); err != nil {
		return Payment{}, err
	}
	release, err := c.begin(domain.ActionConfirmPayment, payment.ID)
	if err != nil {
		return Payment{}, err
	}
	defer release()

	landed := func(ctx context.Context) (bool, error) {
		current, err := c.Payment(ctx, payment.ID)
		if err != nil {
			return false, err
		}
		return current.IsTerminal(), nil
	}

	path := fmt.Sprintf("/payments/%d/confirm", payment.ID)
	if err := c.write(ctx, http.MethodPost, path, map[string]string{"processor_ref": payment.ProcessorRef}, nil, landed); err != nil {
		return Payment{}, err
	}
	c.forget(paymentPath(payment.ID))

	return c.Payment(ctx, payment.ID)
}

func paymentPath(id uint) string {
	return fmt.Sprintf("/payments/%d", id)
}

func (c *Client) Payment(ctx context.Context, id uint) (Payment, error) {
	var payment Payment
	err := c.get(ctx, paymentPath(id), &payment)

	return payment, err
}

type PaymentQuery struct {
	ContestID   uint
	Type        PaymentType
	Status      PaymentStatus
	NeedsRefund *bool
}

// Payments lists the caller's payments, or every payment for an admin.
func (c *Client) Payments(ctx context.Context, q PaymentQuery) ([]Payment, error) {
	v := url.Values{}
	if q.ContestID != 0 {
		v.Set("contest_id", strconv.FormatUint(uint64(q.ContestID), 10))
	}
	if q.Type != "" {
		v.Set("payment_type", string(q.Type))
	}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.NeedsRefund != nil {
		v.Set("needs_refund", strconv.FormatBool(*q.NeedsRefund))
	}
	path := "/payments"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}

	var payments []Payment
	err := c.get(ctx, path, &payments)

	return payments, err
}

// Pay runs begin, payer confirmation and server confirmation for a fee.
// It returns ErrPaymentPending while the processor is still working and a
// wrapped ErrPaymentFailed when the payment was declined.
func (c *Client) Pay(ctx context.Context, contest Contest, typ PaymentType, payer PayerConfirm) (Payment, error) {
	payment, err := c.BeginPayment(ctx, contest, typ)
	if err != nil {
		return Payment{}, err
	}
	if payment.Status == PaymentCompleted {
		return payment, nil
	}

	if payer != nil {
		if err := payer(ctx, payment); err != nil {
			return payment, fmt.Errorf("payer -> %w", err)
		}
	}

	payment, err = c.ConfirmPayment(ctx, payment)
	if err != nil {
		return payment, err
	}

	switch payment.Status {
	case PaymentCompleted:
		return payment, nil
	case PaymentFailed:
		return payment, fmt.Errorf("payment %d %s: %w", payment.ID, payment.FailureReason, ErrPaymentFailed)
	}

	return payment, ErrPaymentPending
}
