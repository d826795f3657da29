package processor

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v72"
)

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(1050), MinorUnits(decimal.RequireFromString("10.50")))
	assert.Equal(t, int64(1), MinorUnits(decimal.RequireFromString("0.005")))
	assert.Equal(t, int64(0), MinorUnits(decimal.Zero))
}

func TestMock_IdempotentCreate(t *testing.T) {
	ctx := context.Background()
	m := NewMock(false)

	params := IntentParams{Amount: decimal.NewFromInt(5), Currency: "usd", IdempotencyKey: "k1"}
	first, err := m.CreateIntent(ctx, params)
	require.NoError(t, err)
	second, err := m.CreateIntent(ctx, params)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, m.Created())
	assert.Equal(t, IntentRequiresPaymentMethod, first.Status)
	assert.Equal(t, int64(500), first.Amount)

	require.NoError(t, m.Settle(first.ID, IntentSucceeded))
	got, err := m.RetrieveIntent(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, IntentSucceeded, got.Status)
	assert.NotEmpty(t, got.TransactionID)
}

func TestMock_Down(t *testing.T) {
	m := NewMock(true)
	m.SetDown(true)

	_, err := m.CreateIntent(context.Background(), IntentParams{IdempotencyKey: "k"})
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = m.RetrieveIntent(context.Background(), "pi_x")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClassify(t *testing.T) {
	assert.ErrorIs(t, classify(errors.New("dial tcp: timeout")), ErrUnavailable)
	assert.ErrorIs(t, classify(&stripe.Error{HTTPStatusCode: 503}), ErrUnavailable)
	assert.ErrorIs(t, classify(&stripe.Error{HTTPStatusCode: 404}), ErrIntentNotFound)

	declined := &stripe.Error{HTTPStatusCode: 402}
	err := classify(declined)
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, declined, err)
}
