package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Injamhossan/contest-arena/internal/config"
	"github.com/Injamhossan/contest-arena/internal/domain"
	"github.com/Injamhossan/contest-arena/internal/pkg/processor"
)

// HousekeepingReport summarizes one housekeeping run.
type HousekeepingReport struct {
	Settled   int `json:"settled"`
	Abandoned int `json:"abandoned"`
	Flagged   int `json:"flagged"`
}

// HousekeepingService settles payments whose payer never came back and
// flags completed payments that can no longer unlock anything.
type HousekeepingService struct {
	store    Store
	payments *PaymentService
	conf     *config.PaymentConfig
	now      clock
}

func NewHousekeepingService(store Store, payments *PaymentService, conf *config.PaymentConfig) *HousekeepingService {
	return &HousekeepingService{
		store:    store,
		payments: payments,
		conf:     conf,
		now:      time.Now,
	}
}

func (s *HousekeepingService) Run(ctx context.Context) (HousekeepingReport, error) {
	var report HousekeepingReport

	if err := s.ReconcilePending(ctx, &report); err != nil {
		return report, fmt.Errorf("s.ReconcilePending -> %w", err)
	}
	if err := s.FlagUnredeemed(ctx, &report); err != nil {
		return report, fmt.Errorf("s.FlagUnredeemed -> %w", err)
	}

	if report != (HousekeepingReport{}) {
		zap.L().Info("housekeeping done",
			zap.Int("settled", report.Settled),
			zap.Int("abandoned", report.Abandoned),
			zap.Int("flagged", report.Flagged))
	}

	return report, nil
}

// ReconcilePending asks the processor about payments left pending for
// longer than the configured TTL. Payments still unresolved after
// AbandonAfter fail as abandoned.
func (s *HousekeepingService) ReconcilePending(ctx context.Context, report *HousekeepingReport) error {
	now := s.now()
	stale, err := s.store.ListPayments(ctx, domain.PaymentFilter{
		Statuses:      []domain.PaymentStatus{domain.PaymentPending},
		CreatedBefore: now.Add(-s.conf.PendingTTL),
	})
	if err != nil {
		return fmt.Errorf("s.store.ListPayments -> %w", err)
	}

	for _, p := range stale {
		if err = ctx.Err(); err != nil {
			return err
		}
		abandon := now.Sub(p.CreatedAt) > s.conf.AbandonAfter

		var transition func(*domain.Payment)
		if p.ProcessorRef == "" {
			if !abandon {
				continue
			}
			transition = func(locked *domain.Payment) { locked.Fail(domain.FailureAbandoned) }
		} else {
			intent, err := s.payments.processor.RetrieveIntent(ctx, p.ProcessorRef)
			switch {
			case errors.Is(err, processor.ErrUnavailable):
				zap.L().Warn("processor unavailable, retrying next run", zap.Uint("payment_id", p.ID))
				continue
			case errors.Is(err, processor.ErrIntentNotFound):
				transition = func(locked *domain.Payment) { locked.Fail(domain.FailureAbandoned) }
			case err != nil:
				zap.L().Error("failed to retrieve intent", zap.Uint("payment_id", p.ID), zap.Error(err))
				continue
			case intent.Status == processor.IntentRequiresPaymentMethod && !abandon:
				// The payer may still be entering card details.
				continue
			default:
				transition = func(locked *domain.Payment) {
					if intent.Status != processor.IntentRequiresPaymentMethod {
						applyIntent(locked, intent)
					}
					if !locked.IsTerminal() && abandon {
						locked.Fail(domain.FailureAbandoned)
					}
				}
			}
		}

		settled, err := s.payments.settle(ctx, p.ID, transition)
		if err != nil {
			zap.L().Error("failed to settle stale payment", zap.Uint("payment_id", p.ID), zap.Error(err))
			continue
		}
		switch {
		case settled.FailureReason == domain.FailureAbandoned:
			report.Abandoned++
		case settled.IsTerminal():
			report.Settled++
		}
	}

	return nil
}

// FlagUnredeemed flags completed payments whose effect can no longer be
// delivered, e.g. an entry fee for a contest that filled up or closed.
func (s *HousekeepingService) FlagUnredeemed(ctx context.Context, report *HousekeepingReport) error {
	now := s.now()
	needsRefund := false
	idle, err := s.store.ListPayments(ctx, domain.PaymentFilter{
		Statuses:      []domain.PaymentStatus{domain.PaymentCompleted},
		Unredeemed:    true,
		NeedsRefund:   &needsRefund,
		CreatedBefore: now.Add(-s.conf.PendingTTL),
	})
	if err != nil {
		return fmt.Errorf("s.store.ListPayments -> %w", err)
	}

	for _, p := range idle {
		if err = ctx.Err(); err != nil {
			return err
		}

		contest, err := s.store.FindContest(ctx, p.ContestID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("s.store.FindContest -> %w", err)
		}
		reason := undeliverable(now, p, contest, err == nil)
		if reason == nil {
			continue
		}

		if s.payments.flagRefund(ctx, p.ID, reason) {
			report.Flagged++
		}
	}

	return nil
}

// undeliverable returns why p can no longer unlock its effect, or nil.
func undeliverable(now time.Time, p domain.Payment, c domain.Contest, found bool) error {
	if !found {
		return domain.ErrNotFound
	}

	switch p.Type {
	case domain.PaymentEntry:
		if err := c.AcceptsEntries(now); err != nil {
			return err
		}
		if !c.HasCapacity() {
			return domain.ErrContestFull
		}
	case domain.PaymentUpdate:
		if c.IsClosed() {
			return domain.ErrContestClosed
		}
	case domain.PaymentCreation:
		if c.Status != domain.ContestPending || c.PaymentStatus == domain.PaymentCompleted {
			return domain.ErrInvalidTransition
		}
	}

	return nil
}
