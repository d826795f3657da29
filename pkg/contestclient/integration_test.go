package contestclient

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Injamhossan/contest-arena/internal/api"
	"github.com/Injamhossan/contest-arena/internal/config"
	"github.com/Injamhossan/contest-arena/internal/pkg/processor"
	"github.com/Injamhossan/contest-arena/internal/repository/repotest"
)

type env struct {
	ctx   context.Context
	url   string
	store *repotest.Store
	proc  *processor.Mock
}

func newEnv(t *testing.T) *env {
	t.Helper()

	conf := &config.AppConfig{
		API: &config.APIConfig{
			Environment:        "test",
			JWTSigningKey:      "test-signing-key",
			TokenTTL:           time.Hour,
			AllowedCORSDomains: []string{"http://localhost:5173"},
		},
		Gin:    &config.GinConfig{Mode: gin.TestMode},
		Stripe: &config.StripeConfig{Currency: "usd"},
		Payment: &config.PaymentConfig{
			Processor:    "mock",
			CreationFee:  "10.00",
			UpdateFee:    "5.00",
			PendingTTL:   30 * time.Minute,
			AbandonAfter: 24 * time.Hour,
		},
	}

	e := &env{
		ctx:   context.Background(),
		store: repotest.NewStore(),
		proc:  processor.NewMock(false),
	}
	s := api.NewServer(conf, e.store, e.proc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go s.RunEvents(ctx)
	srv := httptest.NewServer(s.Router)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	e.url = srv.URL + "/api/v1"

	return e
}

// payer settles the intent the way the payer's browser would.
func (e *env) payer(status processor.IntentStatus) PayerConfirm {
	return func(_ context.Context, p Payment) error {
		return e.proc.Settle(p.ProcessorRef, status)
	}
}

func (e *env) signIn(t *testing.T, email string, role Role) *Client {
	t.Helper()

	c := New(e.url, WithReadRetries(1, time.Millisecond))
	_, err := c.Signup(e.ctx, email, "Secret123!", email)
	require.NoError(t, err)
	_, err = c.Login(e.ctx, email, "Secret123!")
	require.NoError(t, err)

	switch role {
	case RoleCreator:
		_, err = c.ChooseRole(e.ctx, RoleCreator)
		require.NoError(t, err)
	case RoleAdmin:
		u, err := e.store.FindUserByEmail(e.ctx, email)
		require.NoError(t, err)
		u.Role = RoleAdmin
		_, err = e.store.UpdateUser(e.ctx, u)
		require.NoError(t, err)
		_, err = c.Me(e.ctx)
		require.NoError(t, err)
	}
	require.Equal(t, role, c.Session().Role)

	return c
}

// openContest creates a contest, pays its creation fee and has it approved.
func (e *env) openContest(t *testing.T, creator, admin *Client, limit int, deadline time.Time) ContestView {
	t.Helper()

	view, err := creator.CreateContest(e.ctx, Contest{
		Name:               "Poster Design",
		Description:        "Design a poster",
		ContestType:        "design",
		Price:              decimal.RequireFromString("5.00"),
		PrizeMoney:         decimal.NewFromInt(50),
		ParticipationLimit: limit,
		Deadline:           deadline,
	})
	require.NoError(t, err)
	assert.Equal(t, ContestPending, view.Status)

	_, err = creator.Pay(e.ctx, view.Contest, PaymentCreation, e.payer(processor.IntentSucceeded))
	require.NoError(t, err)

	view, err = admin.ApproveContest(e.ctx, view.Contest)
	require.NoError(t, err)
	require.Equal(t, ContestConfirmed, view.Status)

	return view
}

func TestClient_EnterFlow(t *testing.T) {
	e := newEnv(t)
	admin := e.signIn(t, "admin@example.com", RoleAdmin)
	creator := e.signIn(t, "creator@example.com", RoleCreator)
	alice := e.signIn(t, "alice@example.com", RoleUser)
	bob := e.signIn(t, "bob@example.com", RoleUser)

	contest := e.openContest(t, creator, admin, 1, time.Now().Add(48*time.Hour))

	t.Run("declined payment registers nothing", func(t *testing.T) {
		_, err := bob.Enter(e.ctx, contest.Contest, e.payer(processor.IntentCanceled))
		assert.ErrorIs(t, err, ErrPaymentFailed)

		var partial *PartialSuccessError
		assert.False(t, errors.As(err, &partial))
	})

	t.Run("losing the last spot while paying is a partial success", func(t *testing.T) {
		var aliceEnrollment Enrollment
		racingPayer := func(ctx context.Context, p Payment) error {
			if err := e.proc.Settle(p.ProcessorRef, processor.IntentSucceeded); err != nil {
				return err
			}
			var err error
			aliceEnrollment, err = alice.Enter(ctx, contest.Contest, e.payer(processor.IntentSucceeded))
			return err
		}

		_, err := bob.Enter(e.ctx, contest.Contest, racingPayer)
		require.Error(t, err)

		var partial *PartialSuccessError
		require.True(t, errors.As(err, &partial))
		assert.ErrorIs(t, err, ErrContestFull)
		assert.NotZero(t, partial.PaymentID)

		assert.Equal(t, 1, aliceEnrollment.Contest.ParticipantsCount)
		assert.True(t, aliceEnrollment.Contest.Availability.Full)

		flagged := true
		refunds, err := admin.Payments(e.ctx, PaymentQuery{NeedsRefund: &flagged})
		require.NoError(t, err)
		require.Len(t, refunds, 1)
		assert.Equal(t, partial.PaymentID, refunds[0].ID)
	})

	t.Run("participant submits", func(t *testing.T) {
		mine, err := alice.MyParticipations(e.ctx)
		require.NoError(t, err)
		require.Len(t, mine, 1)

		got, err := alice.Submit(e.ctx, mine[0], "https://example.com/poster", "final")
		require.NoError(t, err)
		assert.True(t, got.HasSubmitted())

		_, err = bob.Submit(e.ctx, mine[0], "https://example.com/other", "")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("creator sees received submissions", func(t *testing.T) {
		received, err := creator.ReceivedParticipations(e.ctx)
		require.NoError(t, err)
		assert.Len(t, received, 1)
	})
}

func TestClient_ConfirmIsIdempotent(t *testing.T) {
	e := newEnv(t)
	admin := e.signIn(t, "admin@example.com", RoleAdmin)
	creator := e.signIn(t, "creator@example.com", RoleCreator)
	alice := e.signIn(t, "alice@example.com", RoleUser)
	contest := e.openContest(t, creator, admin, 0, time.Now().Add(48*time.Hour))

	payment, err := alice.BeginPayment(e.ctx, contest.Contest, PaymentEntry)
	require.NoError(t, err)
	again, err := alice.BeginPayment(e.ctx, contest.Contest, PaymentEntry)
	require.NoError(t, err)
	assert.Equal(t, payment.ID, again.ID)

	require.NoError(t, e.proc.Settle(payment.ProcessorRef, processor.IntentSucceeded))
	first, err := alice.ConfirmPayment(e.ctx, payment)
	require.NoError(t, err)
	second, err := alice.ConfirmPayment(e.ctx, payment)
	require.NoError(t, err)
	assert.Equal(t, PaymentCompleted, first.Status)
	assert.Equal(t, first.TransactionID, second.TransactionID)

	_, err = alice.Register(e.ctx, contest.Contest, payment.ID)
	require.NoError(t, err)
	_, err = alice.Register(e.ctx, contest.Contest, payment.ID)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestClient_DeclareWinner(t *testing.T) {
	e := newEnv(t)
	admin := e.signIn(t, "admin@example.com", RoleAdmin)
	creator := e.signIn(t, "creator@example.com", RoleCreator)
	alice := e.signIn(t, "alice@example.com", RoleUser)

	contest := e.openContest(t, creator, admin, 0, time.Now().Add(2*time.Second))
	enrollment, err := alice.Enter(e.ctx, contest.Contest, e.payer(processor.IntentSucceeded))
	require.NoError(t, err)

	_, err = creator.DeclareWinner(e.ctx, contest.Contest, alice.Session().ActorID)
	assert.ErrorIs(t, err, ErrDeadlineNotReached)

	time.Sleep(time.Until(contest.Deadline) + 50*time.Millisecond)

	_, err = alice.Submit(e.ctx, enrollment.Participation, "https://example.com/late", "")
	assert.ErrorIs(t, err, ErrSubmissionClosed)

	closed, err := creator.DeclareWinner(e.ctx, contest.Contest, alice.Session().ActorID)
	require.NoError(t, err)
	assert.Equal(t, ContestClosed, closed.Status)
	require.NotNil(t, closed.WinnerUserID)
	assert.Equal(t, alice.Session().ActorID, *closed.WinnerUserID)

	_, err = creator.DeclareWinner(e.ctx, closed.Contest, alice.Session().ActorID)
	assert.ErrorIs(t, err, ErrWinnerAlreadyDeclared)

	stats, err := alice.Stats(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Won)
}

func TestClient_UpdateNeedsPayment(t *testing.T) {
	e := newEnv(t)
	admin := e.signIn(t, "admin@example.com", RoleAdmin)
	creator := e.signIn(t, "creator@example.com", RoleCreator)
	contest := e.openContest(t, creator, admin, 0, time.Now().Add(48*time.Hour))
	name := "Poster Design 2"

	_, err := creator.UpdateContest(e.ctx, contest.Contest, ContestUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrPaymentRequired)

	_, err = creator.Pay(e.ctx, contest.Contest, PaymentUpdate, e.payer(processor.IntentSucceeded))
	require.NoError(t, err)

	updated, err := creator.UpdateContest(e.ctx, contest.Contest, ContestUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	_, err = creator.UpdateContest(e.ctx, updated.Contest, ContestUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrPaymentRequired)
}
