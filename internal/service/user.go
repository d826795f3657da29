package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Injamhossan/contest-arena/internal/domain"
	"github.com/Injamhossan/contest-arena/internal/repository"
)

const leaderboardSize = 10

type UserService struct {
	store    Store
	notifier Notifier
}

func NewUserService(store Store, notifier Notifier) *UserService {
	return &UserService{
		store:    store,
		notifier: notifierOrNop(notifier),
	}
}

func (s *UserService) GetUser(ctx context.Context, id uint) (domain.User, error) {
	user, err := s.store.FindUser(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.store.FindUser -> %w", err)
	}

	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, sess domain.Session, profile domain.UserProfile) (domain.User, error) {
	if sess.IsZero() {
		return domain.User{}, domain.ErrUnauthorized
	}

	user, err := s.store.FindUser(ctx, sess.ActorID)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.store.FindUser -> %w", err)
	}
	user.ApplyProfile(profile)

	updated, err := s.store.UpdateUser(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.store.UpdateUser -> %w", err)
	}

	return updated, nil
}

// ChooseRole applies the caller's one-time choice between user and creator.
func (s *UserService) ChooseRole(ctx context.Context, sess domain.Session, role domain.Role) (domain.User, error) {
	if sess.IsZero() {
		return domain.User{}, domain.ErrUnauthorized
	}

	var out domain.User
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		user, err := tx.FindUser(ctx, sess.ActorID)
		if err != nil {
			return fmt.Errorf("tx.FindUser -> %w", err)
		}
		if err = user.ChooseRole(role); err != nil {
			return err
		}
		if out, err = tx.UpdateUser(ctx, user); err != nil {
			return fmt.Errorf("tx.UpdateUser -> %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	s.notifier.Notify(domain.Change{Subject: domain.SubjectUser, ID: out.ID, Kind: "role"})

	return out, nil
}

// SetRole lets an admin assign any role to another user.
func (s *UserService) SetRole(ctx context.Context, sess domain.Session, userID uint, role domain.Role) (domain.User, error) {
	if err := sess.Authorize(domain.ActionChangeRole, domain.Subject{OwnerID: userID}); err != nil {
		return domain.User{}, err
	}
	if !role.Valid() {
		return domain.User{}, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}

	user, err := s.store.FindUser(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.store.FindUser -> %w", err)
	}
	user.Role = role
	user.RoleChosen = true

	updated, err := s.store.UpdateUser(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.store.UpdateUser -> %w", err)
	}

	zap.L().Info("user role changed",
		zap.Uint("user_id", userID),
		zap.String("role", string(role)),
		zap.Uint("admin_id", sess.ActorID))
	s.notifier.Notify(domain.Change{Subject: domain.SubjectUser, ID: userID, Kind: "role"})

	return updated, nil
}

func (s *UserService) ListUsers(ctx context.Context, sess domain.Session) ([]domain.User, error) {
	if err := sess.Authorize(domain.ActionListUsers, domain.Subject{}); err != nil {
		return nil, err
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.store.ListUsers -> %w", err)
	}

	return users, nil
}

func (s *UserService) DeleteUser(ctx context.Context, sess domain.Session, userID uint) error {
	if err := sess.Authorize(domain.ActionDeleteUser, domain.Subject{OwnerID: userID}); err != nil {
		return err
	}
	if userID == sess.ActorID {
		return fmt.Errorf("%w: admins cannot delete themselves", domain.ErrInvalidInput)
	}

	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("s.store.DeleteUser -> %w", err)
	}

	s.notifier.Notify(domain.Change{Subject: domain.SubjectUser, ID: userID, Kind: "deleted"})

	return nil
}

func (s *UserService) Stats(ctx context.Context, userID uint) (domain.UserStats, error) {
	participated, err := s.store.CountParticipations(ctx, userID)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("s.store.CountParticipations -> %w", err)
	}
	won, err := s.store.CountWins(ctx, userID)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("s.store.CountWins -> %w", err)
	}

	return domain.NewUserStats(userID, participated, won), nil
}

func (s *UserService) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	entries, err := s.store.TopWinners(ctx, leaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("s.store.TopWinners -> %w", err)
	}

	return entries, nil
}
