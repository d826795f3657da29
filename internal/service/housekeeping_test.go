package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Injamhossan/contest-arena/internal/domain"
	"github.com/Injamhossan/contest-arena/internal/pkg/processor"
)

func TestHousekeepingService_ReconcilePending(t *testing.T) {
	t.Run("settles payments the payer never confirmed", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 0)
		p, err := f.payments.BeginPayment(f.ctx, f.alice, c.ID, domain.PaymentEntry, decimal.Zero)
		require.NoError(t, err)
		require.NoError(t, f.proc.Settle(p.ProcessorRef, processor.IntentSucceeded))

		f.setNow(time.Now().Add(time.Hour))
		report, err := f.housekeeping.Run(f.ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Settled)

		got, err := f.store.FindPayment(f.ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentCompleted, got.Status)
	})

	t.Run("leaves recent and in progress payments alone", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 0)
		p, err := f.payments.BeginPayment(f.ctx, f.alice, c.ID, domain.PaymentEntry, decimal.Zero)
		require.NoError(t, err)

		_, err = f.housekeeping.Run(f.ctx)
		require.NoError(t, err)

		f.setNow(time.Now().Add(time.Hour))
		_, err = f.housekeeping.Run(f.ctx)
		require.NoError(t, err)

		got, err := f.store.FindPayment(f.ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentPending, got.Status)
	})

	t.Run("abandons payments after the cutoff", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 0)
		p, err := f.payments.BeginPayment(f.ctx, f.alice, c.ID, domain.PaymentEntry, decimal.Zero)
		require.NoError(t, err)

		f.setNow(time.Now().Add(25 * time.Hour))
		report, err := f.housekeeping.Run(f.ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Abandoned)

		got, err := f.store.FindPayment(f.ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentFailed, got.Status)
		assert.Equal(t, domain.FailureAbandoned, got.FailureReason)

		again, err := f.payments.BeginPayment(f.ctx, f.alice, c.ID, domain.PaymentEntry, decimal.Zero)
		require.NoError(t, err)
		assert.NotEqual(t, p.ID, again.ID)
	})

	t.Run("processor outage is retried later", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 0)
		p, err := f.payments.BeginPayment(f.ctx, f.alice, c.ID, domain.PaymentEntry, decimal.Zero)
		require.NoError(t, err)
		f.proc.SetDown(true)

		f.setNow(time.Now().Add(25 * time.Hour))
		report, err := f.housekeeping.Run(f.ctx)
		require.NoError(t, err)
		assert.Zero(t, report.Abandoned)

		got, err := f.store.FindPayment(f.ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentPending, got.Status)
	})
}

func TestHousekeepingService_FlagUnredeemed(t *testing.T) {
	f := newFixture(t)
	c := f.openContest(t, "5.00", 0)
	idle := f.pay(t, f.alice, c.ID, domain.PaymentEntry)
	f.enter(t, f.bob, c.ID)

	f.setNow(c.Deadline.Add(time.Hour))
	report, err := f.housekeeping.Run(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Flagged)

	got, err := f.store.FindPayment(f.ctx, idle.ID)
	require.NoError(t, err)
	assert.True(t, got.NeedsRefund)

	report, err = f.housekeeping.Run(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Flagged)
}

func TestPaymentService_FlagRefundReportsChange(t *testing.T) {
	f := newFixture(t)
	c := f.openContest(t, "5.00", 0)
	idle := f.pay(t, f.alice, c.ID, domain.PaymentEntry)
	part := f.enter(t, f.bob, c.ID)

	assert.True(t, f.payments.flagRefund(f.ctx, idle.ID, domain.ErrContestClosed))
	assert.False(t, f.payments.flagRefund(f.ctx, idle.ID, domain.ErrContestClosed))
	assert.False(t, f.payments.flagRefund(f.ctx, part.PaymentID, domain.ErrContestClosed))

	f.setNow(c.Deadline.Add(time.Hour))
	report, err := f.housekeeping.Run(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Flagged)
}
