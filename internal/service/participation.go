package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Injamhossan/contest-arena/internal/domain"
	"github.com/Injamhossan/contest-arena/internal/repository"
)

type ParticipationService struct {
	store    Store
	payments *PaymentService
	notifier Notifier
	now      clock
}

func NewParticipationService(store Store, payments *PaymentService, notifier Notifier) *ParticipationService {
	return &ParticipationService{
		store:    store,
		payments: payments,
		notifier: notifierOrNop(notifier),
		now:      time.Now,
	}
}

// Register creates the caller's participation in a contest, consuming a
// completed entry payment. The contest and payment rows are locked so the
// capacity, uniqueness and redemption checks hold under concurrent calls.
func (s *ParticipationService) Register(ctx context.Context, sess domain.Session, contestID, paymentID uint) (domain.Participation, error) {
	var (
		created domain.Participation
		paid    bool
	)

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		contest, err := tx.LockContest(ctx, contestID)
		if err != nil {
			return fmt.Errorf("tx.LockContest -> %w", err)
		}
		if err = sess.Authorize(domain.ActionRegister, domain.ContestSubject(contest)); err != nil {
			return err
		}

		_, err = tx.FindParticipationByContestAndUser(ctx, contestID, sess.ActorID)
		registered := err == nil
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("tx.FindParticipationByContestAndUser -> %w", err)
		}

		var payment *domain.Payment
		if paymentID != 0 {
			p, err := tx.LockPayment(ctx, paymentID)
			switch {
			case err == nil:
				payment = &p
				paid = p.CheckRedeemable(sess.ActorID, contestID, domain.PaymentEntry) == nil
			case !errors.Is(err, domain.ErrNotFound):
				return fmt.Errorf("tx.LockPayment -> %w", err)
			}
		}

		now := s.now()
		if err = contest.CheckRegistration(now, sess.ActorID, registered, payment); err != nil {
			return err
		}

		created, err = tx.CreateParticipation(ctx, domain.Participation{
			ContestID: contestID,
			UserID:    sess.ActorID,
			PaymentID: payment.ID,
		})
		if err != nil {
			return fmt.Errorf("tx.CreateParticipation -> %w", err)
		}

		contest.ParticipantsCount++
		if _, err = tx.UpdateContest(ctx, contest); err != nil {
			return fmt.Errorf("tx.UpdateContest -> %w", err)
		}

		payment.Redeem(now, domain.ParticipationTarget(created.ID))
		if _, err = tx.UpdatePayment(ctx, *payment); err != nil {
			return fmt.Errorf("tx.UpdatePayment -> %w", err)
		}

		return nil
	})
	if err != nil {
		if paid && (errors.Is(err, domain.ErrContestFull) || errors.Is(err, domain.ErrContestClosed)) {
			s.payments.flagRefund(ctx, paymentID, err)
		}

		return domain.Participation{}, err
	}

	zap.L().Info("participant registered",
		zap.Uint("contest_id", contestID),
		zap.Uint("user_id", sess.ActorID),
		zap.Uint("participation_id", created.ID))
	s.notifier.Notify(domain.Change{Subject: domain.SubjectContest, ID: contestID, Kind: "registered"})
	s.notifier.Notify(domain.Change{Subject: domain.SubjectParticipation, ID: created.ID, Kind: "created"})

	return created, nil
}

// Submit records the participant's work. Resubmitting before the deadline
// overwrites the previous submission.
func (s *ParticipationService) Submit(ctx context.Context, sess domain.Session, participationID uint, link, text string) (domain.Participation, error) {
	var updated domain.Participation

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		p, err := tx.FindParticipation(ctx, participationID)
		if err != nil {
			return fmt.Errorf("tx.FindParticipation -> %w", err)
		}
		if err = sess.Authorize(domain.ActionSubmit, domain.ParticipationSubject(p)); err != nil {
			return err
		}

		contest, err := tx.LockContest(ctx, p.ContestID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrSubmissionClosed
			}
			return fmt.Errorf("tx.LockContest -> %w", err)
		}

		now := s.now()
		if err = contest.CheckSubmission(now); err != nil {
			return err
		}

		p.Submit(link, text, now)
		if updated, err = tx.UpdateParticipation(ctx, p); err != nil {
			return fmt.Errorf("tx.UpdateParticipation -> %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.Participation{}, err
	}

	s.notifier.Notify(domain.Change{Subject: domain.SubjectParticipation, ID: updated.ID, Kind: "submitted"})

	return updated, nil
}

// WinnerCandidates lists the participations eligible to win. It is only
// available once the deadline has passed.
func (s *ParticipationService) WinnerCandidates(ctx context.Context, sess domain.Session, contestID uint) ([]domain.Participation, error) {
	contest, err := s.store.FindContest(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("s.store.FindContest -> %w", err)
	}
	if err = sess.Authorize(domain.ActionViewSubmissions, domain.ContestSubject(contest)); err != nil {
		return nil, err
	}
	if !contest.DeadlinePassed(s.now()) {
		return nil, domain.ErrDeadlineNotReached
	}

	participations, err := s.store.ListParticipations(ctx, domain.ParticipationFilter{ContestID: contestID})
	if err != nil {
		return nil, fmt.Errorf("s.store.ListParticipations -> %w", err)
	}

	return participations, nil
}

func (s *ParticipationService) ListForContest(ctx context.Context, sess domain.Session, contestID uint) ([]domain.Participation, error) {
	contest, err := s.store.FindContest(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("s.store.FindContest -> %w", err)
	}
	if err = sess.Authorize(domain.ActionViewSubmissions, domain.ContestSubject(contest)); err != nil {
		return nil, err
	}

	participations, err := s.store.ListParticipations(ctx, domain.ParticipationFilter{ContestID: contestID})
	if err != nil {
		return nil, fmt.Errorf("s.store.ListParticipations -> %w", err)
	}

	return participations, nil
}

func (s *ParticipationService) ListMine(ctx context.Context, sess domain.Session) ([]domain.Participation, error) {
	if sess.IsZero() {
		return nil, domain.ErrUnauthorized
	}

	participations, err := s.store.ListParticipations(ctx, domain.ParticipationFilter{UserID: sess.ActorID})
	if err != nil {
		return nil, fmt.Errorf("s.store.ListParticipations -> %w", err)
	}

	return participations, nil
}

// ListReceived returns every participation across the creator's contests.
func (s *ParticipationService) ListReceived(ctx context.Context, sess domain.Session) ([]domain.Participation, error) {
	if err := sess.Authorize(domain.ActionListReceived, domain.Subject{OwnerID: sess.ActorID}); err != nil {
		return nil, err
	}

	participations, err := s.store.ListParticipations(ctx, domain.ParticipationFilter{CreatorID: sess.ActorID})
	if err != nil {
		return nil, fmt.Errorf("s.store.ListParticipations -> %w", err)
	}

	return participations, nil
}
