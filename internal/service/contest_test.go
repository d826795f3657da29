package service

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Injamhossan/contest-arena/internal/domain"
)

func TestContestService_Create(t *testing.T) {
	f := newFixture(t)

	c, err := f.contests.Create(f.ctx, f.creator, domain.Contest{
		Name:     "Short Story",
		Status:   domain.ContestConfirmed,
		Deadline: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ContestPending, c.Status)
	assert.Equal(t, domain.PaymentUnpaid, c.PaymentStatus)
	assert.Equal(t, f.creator.ActorID, c.CreatorID)
	assert.Contains(t, c.Slug, "short-story-")

	_, err = f.contests.Create(f.ctx, f.alice, domain.Contest{Name: "x", Deadline: time.Now().Add(time.Hour)})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.contests.Create(f.ctx, f.creator, domain.Contest{Name: "x", Deadline: time.Now().Add(-time.Hour)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestContestService_Visibility(t *testing.T) {
	f := newFixture(t)
	pending, err := f.contests.Create(f.ctx, f.creator, domain.Contest{Name: "Hidden", Deadline: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	open := f.openContest(t, "5.00", 0)

	_, err = f.contests.Get(f.ctx, f.alice, pending.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.contests.Get(f.ctx, domain.Session{}, pending.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.contests.Get(f.ctx, f.creator, pending.ID)
	assert.NoError(t, err)
	_, err = f.contests.Get(f.ctx, f.admin, pending.ID)
	assert.NoError(t, err)

	listed, total, err := f.contests.List(f.ctx, domain.ContestFilter{Statuses: []domain.ContestStatus{domain.ContestPending}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, listed, 1)
	assert.Equal(t, open.ID, listed[0].ID)

	all, total, err := f.contests.ListAll(f.ctx, f.admin, domain.ContestFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	_, _, err = f.contests.ListAll(f.ctx, f.creator, domain.ContestFilter{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestContestService_Approve(t *testing.T) {
	f := newFixture(t)
	c, err := f.contests.Create(f.ctx, f.creator, domain.Contest{Name: "Poem", Deadline: time.Now().Add(time.Hour)})
	require.NoError(t, err)

	_, err = f.contests.Approve(f.ctx, f.admin, c.ID)
	assert.ErrorIs(t, err, domain.ErrPaymentRequired)

	f.pay(t, f.creator, c.ID, domain.PaymentCreation)

	_, err = f.contests.Approve(f.ctx, f.creator, c.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	approved, err := f.contests.Approve(f.ctx, f.admin, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ContestConfirmed, approved.Status)

	again, err := f.contests.Approve(f.ctx, f.admin, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ContestConfirmed, again.Status)
}

func TestContestService_Update(t *testing.T) {
	name := "Renamed"

	t.Run("pending contests are edited for free", func(t *testing.T) {
		f := newFixture(t)
		c, err := f.contests.Create(f.ctx, f.creator, domain.Contest{Name: "Poem", Deadline: time.Now().Add(time.Hour)})
		require.NoError(t, err)

		got, err := f.contests.Update(f.ctx, f.creator, c.ID, domain.ContestUpdate{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, name, got.Name)
	})

	t.Run("confirmed contests consume an update payment", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 0)

		_, err := f.contests.Update(f.ctx, f.creator, c.ID, domain.ContestUpdate{Name: &name})
		assert.ErrorIs(t, err, domain.ErrPaymentRequired)

		fee := f.pay(t, f.creator, c.ID, domain.PaymentUpdate)
		assert.True(t, decimal.RequireFromString("5").Equal(fee.Amount))

		got, err := f.contests.Update(f.ctx, f.creator, c.ID, domain.ContestUpdate{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, name, got.Name)

		fee, err = f.store.FindPayment(f.ctx, fee.ID)
		require.NoError(t, err)
		assert.True(t, fee.IsRedeemed())

		_, err = f.contests.Update(f.ctx, f.creator, c.ID, domain.ContestUpdate{Name: &name})
		assert.ErrorIs(t, err, domain.ErrPaymentRequired)
	})

	t.Run("invalid edit keeps the payment", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 0)
		fee := f.pay(t, f.creator, c.ID, domain.PaymentUpdate)
		past := time.Now().Add(-time.Hour)

		_, err := f.contests.Update(f.ctx, f.creator, c.ID, domain.ContestUpdate{Deadline: &past})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		fee, err = f.store.FindPayment(f.ctx, fee.ID)
		require.NoError(t, err)
		assert.False(t, fee.IsRedeemed())
	})

	t.Run("other creators cannot edit", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 0)
		other := f.newUser(t, "other@example.com", domain.RoleCreator)

		_, err := f.contests.Update(f.ctx, other, c.ID, domain.ContestUpdate{Name: &name})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestContestService_Delete(t *testing.T) {
	t.Run("creator cannot delete a contest with participants", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 0)
		f.enter(t, f.alice, c.ID)

		assert.ErrorIs(t, f.contests.Delete(f.ctx, f.creator, c.ID), domain.ErrForbidden)
	})

	t.Run("admin delete flags entry fees for refund", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 0)
		part := f.enter(t, f.alice, c.ID)

		require.NoError(t, f.contests.Delete(f.ctx, f.admin, c.ID))

		p, err := f.store.FindPayment(f.ctx, part.PaymentID)
		require.NoError(t, err)
		assert.True(t, p.NeedsRefund)

		_, err = f.contests.Get(f.ctx, f.admin, c.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.True(t, f.notes.has(domain.SubjectPayment, "needs_refund"))
	})

	t.Run("creation fee of an approved contest is kept", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 0)

		require.NoError(t, f.contests.Delete(f.ctx, f.creator, c.ID))

		payments, err := f.payments.ListPayments(f.ctx, f.creator, domain.PaymentFilter{ContestID: c.ID})
		require.NoError(t, err)
		require.Len(t, payments, 1)
		assert.False(t, payments[0].NeedsRefund)
	})
}

func TestContestService_DeclareWinner(t *testing.T) {
	t.Run("before the deadline", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 0)
		f.enter(t, f.alice, c.ID)

		_, err := f.contests.DeclareWinner(f.ctx, f.creator, c.ID, f.alice.ActorID)
		assert.ErrorIs(t, err, domain.ErrDeadlineNotReached)
	})

	t.Run("winner must be a participant", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 0)
		f.enter(t, f.alice, c.ID)
		f.setNow(c.Deadline.Add(time.Second))

		_, err := f.contests.DeclareWinner(f.ctx, f.creator, c.ID, f.bob.ActorID)
		assert.ErrorIs(t, err, domain.ErrNotAParticipant)
	})

	t.Run("closes the contest and counts the win", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 0)
		f.enter(t, f.alice, c.ID)
		f.setNow(c.Deadline.Add(time.Second))

		closed, err := f.contests.DeclareWinner(f.ctx, f.creator, c.ID, f.alice.ActorID)
		require.NoError(t, err)
		assert.Equal(t, domain.ContestClosed, closed.Status)
		require.NotNil(t, closed.WinnerUserID)
		assert.Equal(t, f.alice.ActorID, *closed.WinnerUserID)

		stats, err := f.users.Stats(f.ctx, f.alice.ActorID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stats.Won)
		assert.Equal(t, 1.0, stats.WinRate)

		board, err := f.users.Leaderboard(f.ctx)
		require.NoError(t, err)
		require.Len(t, board, 1)
		assert.Equal(t, f.alice.ActorID, board[0].UserID)

		_, err = f.contests.Update(f.ctx, f.creator, c.ID, domain.ContestUpdate{})
		assert.ErrorIs(t, err, domain.ErrContestClosed)
	})

	t.Run("only one concurrent declaration wins", func(t *testing.T) {
		f := newFixture(t)
		c := f.openContest(t, "5.00", 0)
		f.enter(t, f.alice, c.ID)
		f.enter(t, f.bob, c.ID)
		f.setNow(c.Deadline.Add(time.Second))

		var (
			wg       sync.WaitGroup
			ok       atomic.Int32
			declined atomic.Int32
		)
		for i := 0; i < 6; i++ {
			winner := f.alice.ActorID
			if i%2 == 1 {
				winner = f.bob.ActorID
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.contests.DeclareWinner(f.ctx, f.creator, c.ID, winner)
				switch {
				case err == nil:
					ok.Add(1)
				case assert.ErrorIs(t, err, domain.ErrWinnerAlreadyDeclared):
					declined.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), ok.Load())
		assert.Equal(t, int32(5), declined.Load())
	})
}
