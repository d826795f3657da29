package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Injamhossan/contest-arena/internal/config"
	"github.com/Injamhossan/contest-arena/internal/domain"
	"github.com/Injamhossan/contest-arena/internal/pkg/processor"
	"github.com/Injamhossan/contest-arena/internal/repository/repotest"
)

type recorder struct {
	mu      sync.Mutex
	changes []domain.Change
}

func (r *recorder) Notify(c domain.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.changes = append(r.changes, c)
}

func (r *recorder) has(subject, kind string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.changes {
		if c.Subject == subject && c.Kind == kind {
			return true
		}
	}

	return false
}

type fixture struct {
	ctx   context.Context
	store *repotest.Store
	proc  *processor.Mock
	notes *recorder
	conf  *config.PaymentConfig

	payments       *PaymentService
	contests       *ContestService
	participations *ParticipationService
	users          *UserService
	housekeeping   *HousekeepingService

	admin, creator, alice, bob domain.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		ctx:   context.Background(),
		store: repotest.NewStore(),
		proc:  processor.NewMock(false),
		notes: &recorder{},
		conf: &config.PaymentConfig{
			Processor:    "mock",
			CreationFee:  "10.00",
			UpdateFee:    "5.00",
			PendingTTL:   30 * time.Minute,
			AbandonAfter: 24 * time.Hour,
		},
	}
	f.payments = NewPaymentService(f.store, f.proc, f.conf, "usd", f.notes)
	f.contests = NewContestService(f.store, f.notes)
	f.participations = NewParticipationService(f.store, f.payments, f.notes)
	f.users = NewUserService(f.store, f.notes)
	f.housekeeping = NewHousekeepingService(f.store, f.payments, f.conf)

	f.admin = f.newUser(t, "admin@example.com", domain.RoleAdmin)
	f.creator = f.newUser(t, "creator@example.com", domain.RoleCreator)
	f.alice = f.newUser(t, "alice@example.com", domain.RoleUser)
	f.bob = f.newUser(t, "bob@example.com", domain.RoleUser)

	return f
}

func (f *fixture) newUser(t *testing.T, email string, role domain.Role) domain.Session {
	t.Helper()

	u, err := f.store.CreateUser(f.ctx, domain.User{Email: email, Name: email, Role: role, RoleChosen: true})
	require.NoError(t, err)

	return domain.NewSession(u, "")
}

// setNow moves every service clock.
func (f *fixture) setNow(now time.Time) {
	clk := func() time.Time { return now }
	f.payments.now = clk
	f.contests.now = clk
	f.participations.now = clk
	f.housekeeping.now = clk
}

// pay runs the begin and confirm flow with the processor settling the
// intent as succeeded.
func (f *fixture) pay(t *testing.T, sess domain.Session, contestID uint, typ domain.PaymentType) domain.Payment {
	t.Helper()

	p, err := f.payments.BeginPayment(f.ctx, sess, contestID, typ, decimal.Zero)
	require.NoError(t, err)
	if p.Status == domain.PaymentCompleted {
		return p
	}
	require.NoError(t, f.proc.Settle(p.ProcessorRef, processor.IntentSucceeded))

	p, err = f.payments.ConfirmPayment(f.ctx, sess, p.ID, p.ProcessorRef)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentCompleted, p.Status)

	return p
}

// openContest creates, pays for and approves a contest.
func (f *fixture) openContest(t *testing.T, price string, limit int) domain.Contest {
	t.Helper()

	c, err := f.contests.Create(f.ctx, f.creator, domain.Contest{
		Name:               "Logo Design",
		ContestType:        "design",
		Price:              decimal.RequireFromString(price),
		PrizeMoney:         decimal.NewFromInt(100),
		ParticipationLimit: limit,
		Deadline:           time.Now().Add(48 * time.Hour),
	})
	require.NoError(t, err)

	f.pay(t, f.creator, c.ID, domain.PaymentCreation)

	c, err = f.contests.Approve(f.ctx, f.admin, c.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ContestConfirmed, c.Status)

	return c
}

// enter pays the entry fee and registers.
func (f *fixture) enter(t *testing.T, sess domain.Session, contestID uint) domain.Participation {
	t.Helper()

	p := f.pay(t, sess, contestID, domain.PaymentEntry)
	part, err := f.participations.Register(f.ctx, sess, contestID, p.ID)
	require.NoError(t, err)

	return part
}
