package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/Injamhossan/contest-arena/internal/domain"
	"github.com/Injamhossan/contest-arena/internal/repository"
)

const popularLimit = 6

type ContestService struct {
	store    Store
	notifier Notifier
	now      clock
}

func NewContestService(store Store, notifier Notifier) *ContestService {
	return &ContestService{
		store:    store,
		notifier: notifierOrNop(notifier),
		now:      time.Now,
	}
}

// Create stores a new contest in pending status. It is not listed publicly
// until its creation fee is paid and an admin approves it.
func (s *ContestService) Create(ctx context.Context, sess domain.Session, contest domain.Contest) (domain.Contest, error) {
	if err := sess.Authorize(domain.ActionCreateContest, domain.Subject{OwnerID: sess.ActorID}); err != nil {
		return domain.Contest{}, err
	}
	if !contest.Deadline.After(s.now()) {
		return domain.Contest{}, fmt.Errorf("%w: deadline must be in the future", domain.ErrInvalidInput)
	}
	if contest.Price.IsNegative() || contest.PrizeMoney.IsNegative() {
		return domain.Contest{}, fmt.Errorf("%w: amounts must not be negative", domain.ErrInvalidInput)
	}

	contest.ID = 0
	contest.CreatorID = sess.ActorID
	contest.Slug = slug.Make(contest.Name) + "-" + strings.Split(uuid.NewString(), "-")[0]
	contest.Status = domain.ContestPending
	contest.PaymentStatus = domain.PaymentUnpaid
	contest.ParticipantsCount = 0
	contest.WinnerUserID = nil

	created, err := s.store.CreateContest(ctx, contest)
	if err != nil {
		return domain.Contest{}, fmt.Errorf("s.store.CreateContest -> %w", err)
	}

	zap.L().Info("contest created", zap.Uint("contest_id", created.ID), zap.Uint("creator_id", created.CreatorID))
	s.notifier.Notify(domain.Change{Subject: domain.SubjectContest, ID: created.ID, Kind: "created"})

	return created, nil
}

// Get returns a contest. Pending contests are only visible to their creator
// and admins, everyone else gets ErrNotFound.
func (s *ContestService) Get(ctx context.Context, sess domain.Session, id uint) (domain.Contest, error) {
	contest, err := s.store.FindContest(ctx, id)
	if err != nil {
		return domain.Contest{}, fmt.Errorf("s.store.FindContest -> %w", err)
	}
	if contest.Status == domain.ContestPending && !sess.Can(domain.ActionViewContest, domain.ContestSubject(contest)) {
		return domain.Contest{}, fmt.Errorf("%w: contest %d", domain.ErrNotFound, id)
	}

	return contest, nil
}

// List returns confirmed and closed contests. Requested statuses outside
// that set are dropped.
func (s *ContestService) List(ctx context.Context, filter domain.ContestFilter) ([]domain.Contest, int64, error) {
	filter.CreatorID = 0
	filter.Statuses = publicOnly(filter.Statuses)

	contests, total, err := s.store.ListContests(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("s.store.ListContests -> %w", err)
	}

	return contests, total, nil
}

func publicOnly(requested []domain.ContestStatus) []domain.ContestStatus {
	var out []domain.ContestStatus
	for _, st := range requested {
		for _, public := range domain.PublicStatuses {
			if st == public {
				out = append(out, st)
			}
		}
	}
	if len(out) == 0 {
		return domain.PublicStatuses
	}

	return out
}

// Popular returns the open contests with the most participants.
func (s *ContestService) Popular(ctx context.Context) ([]domain.Contest, error) {
	contests, _, err := s.store.ListContests(ctx, domain.ContestFilter{
		Statuses: []domain.ContestStatus{domain.ContestConfirmed},
		Sort:     domain.SortByPopular,
		Limit:    popularLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("s.store.ListContests -> %w", err)
	}

	return contests, nil
}

func (s *ContestService) ListMine(ctx context.Context, sess domain.Session, filter domain.ContestFilter) ([]domain.Contest, int64, error) {
	if err := sess.Authorize(domain.ActionCreateContest, domain.Subject{OwnerID: sess.ActorID}); err != nil {
		return nil, 0, err
	}
	filter.CreatorID = sess.ActorID

	contests, total, err := s.store.ListContests(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("s.store.ListContests -> %w", err)
	}

	return contests, total, nil
}

func (s *ContestService) ListAll(ctx context.Context, sess domain.Session, filter domain.ContestFilter) ([]domain.Contest, int64, error) {
	if err := sess.Authorize(domain.ActionListAllContests, domain.Subject{}); err != nil {
		return nil, 0, err
	}

	contests, total, err := s.store.ListContests(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("s.store.ListContests -> %w", err)
	}

	return contests, total, nil
}

// Approve confirms a pending contest whose creation fee has been paid.
func (s *ContestService) Approve(ctx context.Context, sess domain.Session, id uint) (domain.Contest, error) {
	var out domain.Contest

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		contest, err := tx.LockContest(ctx, id)
		if err != nil {
			return fmt.Errorf("tx.LockContest -> %w", err)
		}
		if err = sess.Authorize(domain.ActionApproveContest, domain.ContestSubject(contest)); err != nil {
			return err
		}

		wasPending := contest.Status == domain.ContestPending
		if err = contest.Approve(); err != nil {
			return err
		}
		if !wasPending {
			out = contest
			return nil
		}

		if out, err = tx.UpdateContest(ctx, contest); err != nil {
			return fmt.Errorf("tx.UpdateContest -> %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.Contest{}, err
	}

	zap.L().Info("contest approved", zap.Uint("contest_id", id), zap.Uint("admin_id", sess.ActorID))
	s.notifier.Notify(domain.Change{Subject: domain.SubjectContest, ID: id, Kind: "approved"})

	return out, nil
}

// Update edits a contest. Pending contests are edited freely. Confirmed
// contests consume a completed update payment made by the creator.
func (s *ContestService) Update(ctx context.Context, sess domain.Session, id uint, update domain.ContestUpdate) (domain.Contest, error) {
	var out domain.Contest

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		contest, err := tx.LockContest(ctx, id)
		if err != nil {
			return fmt.Errorf("tx.LockContest -> %w", err)
		}
		if err = sess.Authorize(domain.ActionEditContest, domain.ContestSubject(contest)); err != nil {
			return err
		}
		if contest.IsClosed() {
			return domain.ErrContestClosed
		}

		now := s.now()
		var fee *domain.Payment
		if contest.Status == domain.ContestConfirmed {
			if fee, err = s.lockUpdatePayment(ctx, tx, sess.ActorID, id); err != nil {
				return err
			}
		}

		if err = contest.Apply(update, now); err != nil {
			return err
		}
		if out, err = tx.UpdateContest(ctx, contest); err != nil {
			return fmt.Errorf("tx.UpdateContest -> %w", err)
		}

		if fee != nil {
			fee.Redeem(now, domain.ContestTarget(id))
			if _, err = tx.UpdatePayment(ctx, *fee); err != nil {
				return fmt.Errorf("tx.UpdatePayment -> %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return domain.Contest{}, err
	}

	s.notifier.Notify(domain.Change{Subject: domain.SubjectContest, ID: id, Kind: "updated"})

	return out, nil
}

func (s *ContestService) lockUpdatePayment(ctx context.Context, tx repository.Tx, userID, contestID uint) (*domain.Payment, error) {
	candidates, err := tx.ListPayments(ctx, domain.PaymentFilter{
		UserID:     userID,
		ContestID:  contestID,
		Type:       domain.PaymentUpdate,
		Statuses:   []domain.PaymentStatus{domain.PaymentCompleted},
		Unredeemed: true,
	})
	if err != nil {
		return nil, fmt.Errorf("tx.ListPayments -> %w", err)
	}

	for _, c := range candidates {
		p, err := tx.LockPayment(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("tx.LockPayment -> %w", err)
		}
		if p.NeedsRefund {
			continue
		}
		if p.CheckRedeemable(userID, contestID, domain.PaymentUpdate) == nil {
			return &p, nil
		}
	}

	return nil, domain.ErrPaymentRequired
}

// Delete removes a contest. Completed payments whose effect is voided by
// the deletion are flagged for refund in the same transaction.
func (s *ContestService) Delete(ctx context.Context, sess domain.Session, id uint) error {
	var flagged []uint

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		contest, err := tx.LockContest(ctx, id)
		if err != nil {
			return fmt.Errorf("tx.LockContest -> %w", err)
		}
		if err = sess.Authorize(domain.ActionDeleteContest, domain.ContestSubject(contest)); err != nil {
			return err
		}

		payments, err := tx.ListPayments(ctx, domain.PaymentFilter{
			ContestID: id,
			Statuses:  []domain.PaymentStatus{domain.PaymentCompleted},
		})
		if err != nil {
			return fmt.Errorf("tx.ListPayments -> %w", err)
		}
		for _, p := range payments {
			if !p.RefundableOnDelete(contest) {
				continue
			}
			locked, err := tx.LockPayment(ctx, p.ID)
			if err != nil {
				return fmt.Errorf("tx.LockPayment -> %w", err)
			}
			if !locked.FlagRefund() {
				continue
			}
			if _, err = tx.UpdatePayment(ctx, locked); err != nil {
				return fmt.Errorf("tx.UpdatePayment -> %w", err)
			}
			flagged = append(flagged, locked.ID)
		}

		if err = tx.DeleteContest(ctx, id); err != nil {
			return fmt.Errorf("tx.DeleteContest -> %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	zap.L().Info("contest deleted",
		zap.Uint("contest_id", id),
		zap.Uint("actor_id", sess.ActorID),
		zap.Uints("refunds", flagged))
	s.notifier.Notify(domain.Change{Subject: domain.SubjectContest, ID: id, Kind: "deleted"})
	for _, paymentID := range flagged {
		s.notifier.Notify(domain.Change{Subject: domain.SubjectPayment, ID: paymentID, Kind: "needs_refund"})
	}

	return nil
}

// DeclareWinner closes a contest with one of its participants as winner.
// Exactly one concurrent call succeeds; the others see
// ErrWinnerAlreadyDeclared.
func (s *ContestService) DeclareWinner(ctx context.Context, sess domain.Session, contestID, winnerUserID uint) (domain.Contest, error) {
	var out domain.Contest

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		contest, err := tx.LockContest(ctx, contestID)
		if err != nil {
			return fmt.Errorf("tx.LockContest -> %w", err)
		}
		if err = sess.Authorize(domain.ActionDeclareWinner, domain.ContestSubject(contest)); err != nil {
			return err
		}

		_, err = tx.FindParticipationByContestAndUser(ctx, contestID, winnerUserID)
		isParticipant := err == nil
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("tx.FindParticipationByContestAndUser -> %w", err)
		}

		if err = contest.CheckDeclareWinner(s.now(), isParticipant); err != nil {
			return err
		}

		contest.Close(winnerUserID)
		if out, err = tx.UpdateContest(ctx, contest); err != nil {
			return fmt.Errorf("tx.UpdateContest -> %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.Contest{}, err
	}

	zap.L().Info("winner declared", zap.Uint("contest_id", contestID), zap.Uint("winner_id", winnerUserID))
	s.notifier.Notify(domain.Change{Subject: domain.SubjectContest, ID: contestID, Kind: "closed"})

	return out, nil
}
