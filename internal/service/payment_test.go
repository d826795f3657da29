package service

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Injamhossan/contest-arena/internal/domain"
	"github.com/Injamhossan/contest-arena/internal/pkg/processor"
)

func TestPaymentService_BeginPayment(t *testing.T) {
	t.Run("creation fee uses configured amount", func(t *testing.T) {
		f := newFixture(t)
		c, err := f.contests.Create(f.ctx, f.creator, domain.Contest{Name: "Essay", Deadline: time.Now().Add(time.Hour)})
		require.NoError(t, err)

		p, err := f.payments.BeginPayment(f.ctx, f.creator, c.ID, domain.PaymentCreation, decimal.Zero)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("10").Equal(p.Amount))
		assert.Equal(t, domain.PaymentPending, p.Status)
		assert.NotEmpty(t, p.ProcessorRef)
		assert.NotEmpty(t, p.ClientSecret)

		c, err = f.store.FindContest(f.ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentPending, c.PaymentStatus)
	})

	t.Run("declared amount must match the fee", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 0)

		_, err := f.payments.BeginPayment(f.ctx, f.alice, c.ID, domain.PaymentEntry, decimal.NewFromInt(1))
		assert.ErrorIs(t, err, domain.ErrPaymentFailed)
	})

	t.Run("repeat begin reuses the open payment", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 0)
		created := f.proc.Created()

		first, err := f.payments.BeginPayment(f.ctx, f.alice, c.ID, domain.PaymentEntry, decimal.Zero)
		require.NoError(t, err)
		second, err := f.payments.BeginPayment(f.ctx, f.alice, c.ID, domain.PaymentEntry, decimal.Zero)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, first.ProcessorRef, second.ProcessorRef)
		assert.Equal(t, created+1, f.proc.Created())
	})

	t.Run("creator cannot pay an entry fee for their own contest", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 0)

		_, err := f.payments.BeginPayment(f.ctx, f.creator, c.ID, domain.PaymentEntry, decimal.Zero)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("no entry fee is taken for a full contest", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 1)
		f.enter(t, f.alice, c.ID)

		_, err := f.payments.BeginPayment(f.ctx, f.bob, c.ID, domain.PaymentEntry, decimal.Zero)
		assert.ErrorIs(t, err, domain.ErrContestFull)
	})

	t.Run("no entry fee is taken twice from a participant", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 0)
		f.enter(t, f.alice, c.ID)

		_, err := f.payments.BeginPayment(f.ctx, f.alice, c.ID, domain.PaymentEntry, decimal.Zero)
		assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)
	})

	t.Run("free contests complete immediately", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "0", 0)

		p, err := f.payments.BeginPayment(f.ctx, f.alice, c.ID, domain.PaymentEntry, decimal.Zero)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentCompleted, p.Status)
		assert.Empty(t, p.ProcessorRef)
	})

	t.Run("processor down leaves payment pending without intent", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 0)
		f.proc.SetDown(true)

		_, err := f.payments.BeginPayment(f.ctx, f.alice, c.ID, domain.PaymentEntry, decimal.Zero)
		assert.ErrorIs(t, err, ErrProcessorUnavailable)

		f.proc.SetDown(false)
		p, err := f.payments.BeginPayment(f.ctx, f.alice, c.ID, domain.PaymentEntry, decimal.Zero)
		require.NoError(t, err)
		assert.NotEmpty(t, p.ProcessorRef)
	})
}

func TestPaymentService_ConfirmPayment(t *testing.T) {
	begin := func(t *testing.T, f *fixture) domain.Payment {
		c := f.openContest(t, "5.00", 0)
		p, err := f.payments.BeginPayment(f.ctx, f.alice, c.ID, domain.PaymentEntry, decimal.Zero)
		require.NoError(t, err)
		return p
	}

	t.Run("processor success completes", func(t *testing.T) {
		f := newFixture(t)
		p := begin(t, f)
		require.NoError(t, f.proc.Settle(p.ProcessorRef, processor.IntentSucceeded))

		got, err := f.payments.ConfirmPayment(f.ctx, f.alice, p.ID, p.ProcessorRef)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentCompleted, got.Status)
		assert.Equal(t, "txn_"+p.ProcessorRef, got.TransactionID)
		assert.True(t, f.notes.has(domain.SubjectPayment, string(domain.PaymentCompleted)))
	})

	t.Run("payer cannot self report success", func(t *testing.T) {
		f := newFixture(t)
		p := begin(t, f)
		require.NoError(t, f.proc.Settle(p.ProcessorRef, processor.IntentProcessing))

		got, err := f.payments.ConfirmPayment(f.ctx, f.alice, p.ID, p.ProcessorRef)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentPending, got.Status)
	})

	t.Run("unpaid intent is declined", func(t *testing.T) {
		f := newFixture(t)
		p := begin(t, f)

		got, err := f.payments.ConfirmPayment(f.ctx, f.alice, p.ID, p.ProcessorRef)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentFailed, got.Status)
		assert.Equal(t, domain.FailureDeclined, got.FailureReason)
	})

	t.Run("foreign processor reference fails the payment", func(t *testing.T) {
		f := newFixture(t)
		p := begin(t, f)

		got, err := f.payments.ConfirmPayment(f.ctx, f.alice, p.ID, "pi_someone_else")
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentFailed, got.Status)
		assert.Equal(t, domain.FailureMismatch, got.FailureReason)
	})

	t.Run("processor unavailable keeps the payment pending", func(t *testing.T) {
		f := newFixture(t)
		p := begin(t, f)
		f.proc.SetDown(true)

		_, err := f.payments.ConfirmPayment(f.ctx, f.alice, p.ID, p.ProcessorRef)
		assert.ErrorIs(t, err, ErrProcessorUnavailable)

		got, err := f.store.FindPayment(f.ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentPending, got.Status)
	})

	t.Run("other users cannot confirm", func(t *testing.T) {
		f := newFixture(t)
		p := begin(t, f)

		_, err := f.payments.ConfirmPayment(f.ctx, f.bob, p.ID, p.ProcessorRef)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("terminal payments are returned unchanged", func(t *testing.T) {
		f := newFixture(t)
		p := begin(t, f)
		require.NoError(t, f.proc.Settle(p.ProcessorRef, processor.IntentSucceeded))
		done, err := f.payments.ConfirmPayment(f.ctx, f.alice, p.ID, p.ProcessorRef)
		require.NoError(t, err)

		require.NoError(t, f.proc.Settle(p.ProcessorRef, processor.IntentCanceled))
		again, err := f.payments.ConfirmPayment(f.ctx, f.alice, p.ID, p.ProcessorRef)
		require.NoError(t, err)
		assert.Equal(t, done.Status, again.Status)
		assert.Equal(t, done.TransactionID, again.TransactionID)
	})

	t.Run("concurrent confirms settle once", func(t *testing.T) {
		f := newFixture(t)
		p := begin(t, f)
		require.NoError(t, f.proc.Settle(p.ProcessorRef, processor.IntentSucceeded))

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, err := f.payments.ConfirmPayment(f.ctx, f.alice, p.ID, p.ProcessorRef)
				assert.NoError(t, err)
				assert.Equal(t, domain.PaymentCompleted, got.Status)
			}()
		}
		wg.Wait()
	})
}

func TestPaymentService_CreationFee(t *testing.T) {
	t.Run("completion marks the contest paid", func(t *testing.T) {
		f := newFixture(t)
		c, err := f.contests.Create(f.ctx, f.creator, domain.Contest{Name: "Photo", Deadline: time.Now().Add(time.Hour)})
		require.NoError(t, err)

		p := f.pay(t, f.creator, c.ID, domain.PaymentCreation)
		assert.True(t, p.IsRedeemed())

		c, err = f.store.FindContest(f.ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentCompleted, c.PaymentStatus)
		assert.Equal(t, domain.ContestPending, c.Status)

		_, err = f.payments.BeginPayment(f.ctx, f.creator, c.ID, domain.PaymentCreation, decimal.Zero)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("completion after the contest was deleted flags a refund", func(t *testing.T) {
		f := newFixture(t)
		c, err := f.contests.Create(f.ctx, f.creator, domain.Contest{Name: "Photo", Deadline: time.Now().Add(time.Hour)})
		require.NoError(t, err)
		p, err := f.payments.BeginPayment(f.ctx, f.creator, c.ID, domain.PaymentCreation, decimal.Zero)
		require.NoError(t, err)

		require.NoError(t, f.contests.Delete(f.ctx, f.creator, c.ID))
		require.NoError(t, f.proc.Settle(p.ProcessorRef, processor.IntentSucceeded))

		got, err := f.payments.ConfirmPayment(f.ctx, f.creator, p.ID, p.ProcessorRef)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentCompleted, got.Status)
		assert.True(t, got.NeedsRefund)
	})
}

func TestPaymentService_ListPayments(t *testing.T) {
	f := newFixture(t)
	c := f.openContest(t, "5.00", 0)
	f.enter(t, f.alice, c.ID)
	f.enter(t, f.bob, c.ID)

	mine, err := f.payments.ListPayments(f.ctx, f.alice, domain.PaymentFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, f.alice.ActorID, mine[0].UserID)

	all, err := f.payments.ListPayments(f.ctx, f.admin, domain.PaymentFilter{ContestID: c.ID})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = f.payments.GetPayment(f.ctx, f.bob, mine[0].ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
