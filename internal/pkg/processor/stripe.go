package processor

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

type Stripe struct {
	api *client.API
}

func NewStripe(secretKey string) *Stripe {
	return &Stripe{api: client.New(secretKey, nil)}
}

func (s *Stripe) CreateIntent(ctx context.Context, params IntentParams) (Intent, error) {
	p := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(MinorUnits(params.Amount)),
		Currency: stripe.String(params.Currency),
		PaymentMethodTypes: stripe.StringSlice([]string{
			"card",
		}),
	}
	if params.Description != "" {
		p.Description = stripe.String(params.Description)
	}
	p.Context = ctx
	p.SetIdempotencyKey(params.IdempotencyKey)
	for k, v := range params.Metadata {
		p.AddMetadata(k, v)
	}

	pi, err := s.api.PaymentIntents.New(p)
	if err != nil {
		return Intent{}, fmt.Errorf("s.api.PaymentIntents.New -> %w", classify(err))
	}

	return intentFromStripe(pi), nil
}

func (s *Stripe) RetrieveIntent(ctx context.Context, id string) (Intent, error) {
	p := &stripe.PaymentIntentParams{}
	p.Context = ctx

	pi, err := s.api.PaymentIntents.Get(id, p)
	if err != nil {
		return Intent{}, fmt.Errorf("s.api.PaymentIntents.Get -> %w", classify(err))
	}

	return intentFromStripe(pi), nil
}

func intentFromStripe(pi *stripe.PaymentIntent) Intent {
	return Intent{
		ID:            pi.ID,
		ClientSecret:  pi.ClientSecret,
		Status:        IntentStatus(pi.Status),
		Amount:        pi.Amount,
		Currency:      string(pi.Currency),
		TransactionID: pi.ID,
		Metadata:      pi.Metadata,
	}
}

// classify separates processor rejections from transport failures, which
// must never be read as a payment outcome.
func classify(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	switch {
	case stripeErr.HTTPStatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrIntentNotFound, err)
	case stripeErr.HTTPStatusCode >= http.StatusInternalServerError,
		stripeErr.HTTPStatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return err
}
