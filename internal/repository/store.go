package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Injamhossan/contest-arena/internal/domain"
	"github.com/Injamhossan/contest-arena/internal/repository/dao"
)

// Tx is the set of storage operations available to services, both inside
// and outside a transaction. Lock* methods take a row lock and are only
// meaningful inside WithinTx.
type Tx interface {
	CreateUser(ctx context.Context, user domain.User) (domain.User, error)
	FindUser(ctx context.Context, id uint) (domain.User, error)
	FindUsers(ctx context.Context, ids []uint) ([]domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (domain.User, error)
	UpdateUser(ctx context.Context, user domain.User) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	DeleteUser(ctx context.Context, id uint) error

	CreateContest(ctx context.Context, contest domain.Contest) (domain.Contest, error)
	FindContest(ctx context.Context, id uint) (domain.Contest, error)
	LockContest(ctx context.Context, id uint) (domain.Contest, error)
	UpdateContest(ctx context.Context, contest domain.Contest) (domain.Contest, error)
	DeleteContest(ctx context.Context, id uint) error
	ListContests(ctx context.Context, filter domain.ContestFilter) ([]domain.Contest, int64, error)
	CountWins(ctx context.Context, userID uint) (int64, error)
	TopWinners(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)

	CreateParticipation(ctx context.Context, p domain.Participation) (domain.Participation, error)
	FindParticipation(ctx context.Context, id uint) (domain.Participation, error)
	FindParticipationByContestAndUser(ctx context.Context, contestID, userID uint) (domain.Participation, error)
	UpdateParticipation(ctx context.Context, p domain.Participation) (domain.Participation, error)
	ListParticipations(ctx context.Context, filter domain.ParticipationFilter) ([]domain.Participation, error)
	CountParticipations(ctx context.Context, userID uint) (int64, error)

	CreatePayment(ctx context.Context, p domain.Payment) (domain.Payment, error)
	FindPayment(ctx context.Context, id uint) (domain.Payment, error)
	LockPayment(ctx context.Context, id uint) (domain.Payment, error)
	FindOpenPayment(ctx context.Context, userID, contestID uint, typ domain.PaymentType) (domain.Payment, error)
	UpdatePayment(ctx context.Context, p domain.Payment) (domain.Payment, error)
	ListPayments(ctx context.Context, filter domain.PaymentFilter) ([]domain.Payment, error)
}

var _ Tx = (*Store)(nil)

// Store is the gorm backed Tx. Each aggregate keeps its own repository and
// DAO, bound to either the root connection or an open transaction.
type Store struct {
	db *gorm.DB

	*UserRepository
	*ContestRepository
	*ParticipationRepository
	*PaymentRepository
}

func NewStore(db *gorm.DB) *Store {
	users := NewUserRepository(dao.NewUserDAO(db))

	return &Store{
		db:                      db,
		UserRepository:          users,
		ContestRepository:       NewContestRepository(dao.NewContestDAO(db), users),
		ParticipationRepository: NewParticipationRepository(dao.NewParticipationDAO(db)),
		PaymentRepository:       NewPaymentRepository(dao.NewPaymentDAO(db)),
	}
}

// WithinTx runs fn in a database transaction. Returning an error from fn
// rolls back every write made through tx.
func (s *Store) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(NewStore(db))
	})
}

// translate maps storage errors onto the domain taxonomy while keeping the
// original error in the chain.
func translate(err error) error {
	switch {
	case errors.Is(err, dao.ErrUserNotFound),
		errors.Is(err, dao.ErrContestNotFound),
		errors.Is(err, dao.ErrParticipationNotFound),
		errors.Is(err, dao.ErrPaymentNotFound):
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	case errors.Is(err, dao.ErrUserEmailExists):
		return fmt.Errorf("%w: %w", domain.ErrEmailExists, err)
	case errors.Is(err, dao.ErrParticipationExists):
		return fmt.Errorf("%w: %w", domain.ErrAlreadyRegistered, err)
	}

	return err
}
