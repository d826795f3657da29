package service

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Injamhossan/contest-arena/internal/domain"
)

func TestParticipationService_Register(t *testing.T) {
	t.Run("consumes the entry payment", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 0)
		p := f.pay(t, f.alice, c.ID, domain.PaymentEntry)

		part, err := f.participations.Register(f.ctx, f.alice, c.ID, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.ID, part.PaymentID)

		p, err = f.store.FindPayment(f.ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, p.IsRedeemed())
		assert.Equal(t, domain.ParticipationTarget(part.ID), p.RedeemedFor)

		c, err = f.store.FindContest(f.ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, c.ParticipantsCount)
	})

	t.Run("requires a payment", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 0)

		_, err := f.participations.Register(f.ctx, f.alice, c.ID, 0)
		assert.ErrorIs(t, err, domain.ErrPaymentRequired)
	})

	t.Run("someone else's payment does not count", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 0)
		p := f.pay(t, f.alice, c.ID, domain.PaymentEntry)

		_, err := f.participations.Register(f.ctx, f.bob, c.ID, p.ID)
		assert.ErrorIs(t, err, domain.ErrPaymentRequired)
	})

	t.Run("pending payment does not count", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 0)
		f.pay(t, f.alice, c.ID, domain.PaymentEntry)
		p, err := f.payments.BeginPayment(f.ctx, f.bob, c.ID, domain.PaymentEntry, c.Price)
		require.NoError(t, err)

		_, err = f.participations.Register(f.ctx, f.bob, c.ID, p.ID)
		assert.ErrorIs(t, err, domain.ErrPaymentRequired)
	})

	t.Run("a payment unlocks one registration", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 0)
		p := f.pay(t, f.alice, c.ID, domain.PaymentEntry)

		_, err := f.participations.Register(f.ctx, f.alice, c.ID, p.ID)
		require.NoError(t, err)
		_, err = f.participations.Register(f.ctx, f.alice, c.ID, p.ID)
		assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)
	})

	t.Run("creator cannot enter their own contest", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 0)

		_, err := f.participations.Register(f.ctx, f.creator, c.ID, 0)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("contest filled while paying flags a refund", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 1)
		bobPayment := f.pay(t, f.bob, c.ID, domain.PaymentEntry)
		f.enter(t, f.alice, c.ID)

		_, err := f.participations.Register(f.ctx, f.bob, c.ID, bobPayment.ID)
		assert.ErrorIs(t, err, domain.ErrContestFull)

		got, err := f.store.FindPayment(f.ctx, bobPayment.ID)
		require.NoError(t, err)
		assert.True(t, got.NeedsRefund)
		assert.False(t, got.IsRedeemed())
	})

	t.Run("payment flagged for refund cannot register later", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 1)
		bobPayment := f.pay(t, f.bob, c.ID, domain.PaymentEntry)
		f.enter(t, f.alice, c.ID)

		_, err := f.participations.Register(f.ctx, f.bob, c.ID, bobPayment.ID)
		require.ErrorIs(t, err, domain.ErrContestFull)

		f.pay(t, f.creator, c.ID, domain.PaymentUpdate)
		limit := 2
		_, err = f.contests.Update(f.ctx, f.creator, c.ID, domain.ContestUpdate{ParticipationLimit: &limit})
		require.NoError(t, err)

		_, err = f.participations.Register(f.ctx, f.bob, c.ID, bobPayment.ID)
		assert.ErrorIs(t, err, domain.ErrPaymentRequired)

		got, err := f.store.FindPayment(f.ctx, bobPayment.ID)
		require.NoError(t, err)
		assert.True(t, got.NeedsRefund)
		assert.False(t, got.IsRedeemed())

		c, err = f.store.FindContest(f.ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, c.ParticipantsCount)
	})

	t.Run("deadline passed while paying flags a refund", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 0)
		p := f.pay(t, f.alice, c.ID, domain.PaymentEntry)
		f.setNow(c.Deadline.Add(time.Minute))

		_, err := f.participations.Register(f.ctx, f.alice, c.ID, p.ID)
		assert.ErrorIs(t, err, domain.ErrContestClosed)

		got, err := f.store.FindPayment(f.ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, got.NeedsRefund)
	})
}

func TestParticipationService_Register_Capacity(t *testing.T) {
	f := newFixture(t)
	c := f.openContest(t, "5.00", 3)

	const racers = 10
	sessions := make([]domain.Session, racers)
	paymentIDs := make([]uint, racers)
	for i := range sessions {
		sessions[i] = f.newUser(t, fmt.Sprintf("racer%d@example.com", i), domain.RoleUser)
		paymentIDs[i] = f.pay(t, sessions[i], c.ID, domain.PaymentEntry).ID
	}

	var (
		wg   sync.WaitGroup
		ok   atomic.Int32
		full atomic.Int32
	)
	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.participations.Register(f.ctx, sessions[i], c.ID, paymentIDs[i])
			switch {
			case err == nil:
				ok.Add(1)
			case assert.ErrorIs(t, err, domain.ErrContestFull):
				full.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(3), ok.Load())
	assert.Equal(t, int32(racers-3), full.Load())

	c, err := f.store.FindContest(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, c.ParticipantsCount)
}

func TestParticipationService_Register_Duplicate(t *testing.T) {
	f := newFixture(t)
	c := f.openContest(t, "5.00", 0)
	p := f.pay(t, f.alice, c.ID, domain.PaymentEntry)

	var (
		wg  sync.WaitGroup
		ok  atomic.Int32
		dup atomic.Int32
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.participations.Register(f.ctx, f.alice, c.ID, p.ID)
			switch {
			case err == nil:
				ok.Add(1)
			case assert.ErrorIs(t, err, domain.ErrAlreadyRegistered):
				dup.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(4), dup.Load())
}

func TestParticipationService_Submit(t *testing.T) {
	t.Run("resubmission overwrites", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 0)
		part := f.enter(t, f.alice, c.ID)

		_, err := f.participations.Submit(f.ctx, f.alice, part.ID, "https://example.com/v1", "first")
		require.NoError(t, err)
		got, err := f.participations.Submit(f.ctx, f.alice, part.ID, "https://example.com/v2", "second")
		require.NoError(t, err)

		assert.Equal(t, "https://example.com/v2", got.SubmissionLink)
		assert.Equal(t, "second", got.SubmissionText)
		assert.True(t, got.HasSubmitted())
	})

	t.Run("only the participant may submit", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 0)
		part := f.enter(t, f.alice, c.ID)

		_, err := f.participations.Submit(f.ctx, f.bob, part.ID, "https://example.com", "")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("closed after the deadline", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 0)
		part := f.enter(t, f.alice, c.ID)
		f.setNow(c.Deadline.Add(time.Second))

		_, err := f.participations.Submit(f.ctx, f.alice, part.ID, "https://example.com", "")
		assert.ErrorIs(t, err, domain.ErrSubmissionClosed)
	})
}

func TestParticipationService_Lists(t *testing.T) {
	f := newFixture(t)
	c := f.openContest(t, "5.00", 0)
	f.enter(t, f.alice, c.ID)
	f.enter(t, f.bob, c.ID)

	_, err := f.participations.WinnerCandidates(f.ctx, f.creator, c.ID)
	assert.ErrorIs(t, err, domain.ErrDeadlineNotReached)

	f.setNow(c.Deadline.Add(time.Second))
	candidates, err := f.participations.WinnerCandidates(f.ctx, f.creator, c.ID)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)

	_, err = f.participations.WinnerCandidates(f.ctx, f.alice, c.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	mine, err := f.participations.ListMine(f.ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Contest)
	assert.Equal(t, c.ID, mine[0].Contest.ID)

	received, err := f.participations.ListReceived(f.ctx, f.creator)
	require.NoError(t, err)
	assert.Len(t, received, 2)

	_, err = f.participations.ListReceived(f.ctx, f.alice)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
