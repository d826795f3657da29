package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Injamhossan/contest-arena/internal/db"
	"github.com/Injamhossan/contest-arena/internal/domain"
)

// testDB is nil when no Docker daemon is reachable.
var testDB *gorm.DB

func TestMain(m *testing.M) {
	os.Exit(runWithPostgres(m))
}

func runWithPostgres(m *testing.M) int {
	pool, err := dockertest.NewPool("")
	if err == nil {
		err = pool.Client.Ping()
	}
	if err != nil {
		log.Printf("docker unavailable, postgres tests are skipped: %v", err)
		return m.Run()
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=contest",
			"POSTGRES_PASSWORD=contest",
			"POSTGRES_DB=contest",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Printf("start postgres: %v", err)
		return 1
	}
	defer func() {
		if err := pool.Purge(resource); err != nil {
			log.Printf("purge postgres: %v", err)
		}
	}()
	_ = resource.Expire(120)

	url := fmt.Sprintf("postgres://contest:contest@%s/contest?sslmode=disable", resource.GetHostPort("5432/tcp"))
	pool.MaxWait = time.Minute
	if err := pool.Retry(func() error {
		conn, err := db.OpenPostgresWithURL(url, true)
		if err != nil {
			return err
		}
		testDB = conn
		return nil
	}); err != nil {
		log.Printf("connect postgres: %v", err)
		return 1
	}

	return m.Run()
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	if testDB == nil {
		t.Skip("postgres not available")
	}

	require.NoError(t, testDB.Exec("TRUNCATE users, contests, participations, payments RESTART IDENTITY CASCADE").Error)

	return NewStore(testDB)
}

func seedContest(t *testing.T, ctx context.Context, s *Store) (domain.User, domain.User, domain.Contest) {
	t.Helper()

	creator, err := s.CreateUser(ctx, domain.User{Email: "creator@example.com", Name: "Creator", Role: domain.RoleCreator})
	require.NoError(t, err)
	player, err := s.CreateUser(ctx, domain.User{Email: "player@example.com", Name: "Player", Role: domain.RoleUser})
	require.NoError(t, err)

	contest, err := s.CreateContest(ctx, domain.Contest{
		CreatorID:          creator.ID,
		Name:               "Logo Design",
		Slug:               "logo-design",
		ContestType:        "design",
		Price:              decimal.RequireFromString("5.00"),
		ParticipationLimit: 2,
		Deadline:           time.Now().Add(time.Hour).UTC(),
		Status:             domain.ContestConfirmed,
		PaymentStatus:      domain.PaymentCompleted,
	})
	require.NoError(t, err)

	return creator, player, contest
}

func TestStore_UniqueConstraints(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, player, contest := seedContest(t, ctx, s)

	_, err := s.CreateUser(ctx, domain.User{Email: "player@example.com", Name: "Again"})
	assert.ErrorIs(t, err, domain.ErrEmailExists)

	_, err = s.CreateParticipation(ctx, domain.Participation{ContestID: contest.ID, UserID: player.ID})
	require.NoError(t, err)
	_, err = s.CreateParticipation(ctx, domain.Participation{ContestID: contest.ID, UserID: player.ID})
	assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)
}

func TestStore_WithinTxRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, player, contest := seedContest(t, ctx, s)
	errStop := errors.New("stop")

	err := s.WithinTx(ctx, func(tx Tx) error {
		locked, err := tx.LockContest(ctx, contest.ID)
		if err != nil {
			return err
		}
		locked.ParticipantsCount++
		if _, err := tx.UpdateContest(ctx, locked); err != nil {
			return err
		}
		if _, err := tx.CreateParticipation(ctx, domain.Participation{ContestID: contest.ID, UserID: player.ID}); err != nil {
			return err
		}
		return errStop
	})
	assert.ErrorIs(t, err, errStop)

	got, err := s.FindContest(ctx, contest.ID)
	require.NoError(t, err)
	assert.Zero(t, got.ParticipantsCount)

	_, err = s.FindParticipationByContestAndUser(ctx, contest.ID, player.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_FindOpenPayment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, player, contest := seedContest(t, ctx, s)

	_, err := s.FindOpenPayment(ctx, player.ID, contest.ID, domain.PaymentEntry)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	pending, err := s.CreatePayment(ctx, domain.Payment{
		UserID:         player.ID,
		ContestID:      contest.ID,
		Amount:         contest.Price,
		Currency:       "usd",
		Type:           domain.PaymentEntry,
		Status:         domain.PaymentPending,
		IdempotencyKey: "entry-1",
	})
	require.NoError(t, err)

	open, err := s.FindOpenPayment(ctx, player.ID, contest.ID, domain.PaymentEntry)
	require.NoError(t, err)
	assert.Equal(t, pending.ID, open.ID)
	assert.True(t, contest.Price.Equal(open.Amount))

	now := time.Now()
	pending.Status = domain.PaymentCompleted
	pending.RedeemedAt = &now
	pending.RedeemedFor = domain.ParticipationTarget(1)
	_, err = s.UpdatePayment(ctx, pending)
	require.NoError(t, err)

	_, err = s.FindOpenPayment(ctx, player.ID, contest.ID, domain.PaymentEntry)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.CreatePayment(ctx, domain.Payment{
		UserID:         player.ID,
		ContestID:      contest.ID,
		Amount:         contest.Price,
		Currency:       "usd",
		Type:           domain.PaymentEntry,
		Status:         domain.PaymentPending,
		IdempotencyKey: "entry-1",
	})
	assert.Error(t, err)
}

func TestStore_ListContests(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	creator, _, contest := seedContest(t, ctx, s)

	_, err := s.CreateContest(ctx, domain.Contest{
		CreatorID:     creator.ID,
		Name:          "Pending Poem",
		Slug:          "pending-poem",
		ContestType:   "writing",
		Deadline:      time.Now().Add(time.Hour).UTC(),
		Status:        domain.ContestPending,
		PaymentStatus: domain.PaymentUnpaid,
	})
	require.NoError(t, err)

	confirmed, total, err := s.ListContests(ctx, domain.ContestFilter{Statuses: []domain.ContestStatus{domain.ContestConfirmed}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, confirmed, 1)
	assert.Equal(t, contest.ID, confirmed[0].ID)

	require.NoError(t, s.DeleteContest(ctx, contest.ID))
	_, err = s.FindContest(ctx, contest.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
