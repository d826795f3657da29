package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Injamhossan/contest-arena/internal/config"
	"github.com/Injamhossan/contest-arena/internal/domain"
	"github.com/Injamhossan/contest-arena/internal/pkg/processor"
	"github.com/Injamhossan/contest-arena/internal/repository"
)

var ErrProcessorUnavailable = processor.ErrUnavailable

type PaymentService struct {
	store     Store
	processor processor.Processor
	conf      *config.PaymentConfig
	currency  string
	notifier  Notifier
	now       clock
}

func NewPaymentService(store Store, proc processor.Processor, conf *config.PaymentConfig, currency string, notifier Notifier) *PaymentService {
	return &PaymentService{
		store:     store,
		processor: proc,
		conf:      conf,
		currency:  currency,
		notifier:  notifierOrNop(notifier),
		now:       time.Now,
	}
}

// Fee returns the amount the server expects for a payment of type typ.
func (s *PaymentService) Fee(contest domain.Contest, typ domain.PaymentType) decimal.Decimal {
	switch typ {
	case domain.PaymentCreation:
		return s.conf.CreationFeeAmount()
	case domain.PaymentUpdate:
		return s.conf.UpdateFeeAmount()
	default:
		return contest.Price
	}
}

// BeginPayment opens a payment intent for (actor, contest, typ). A pending
// or completed-but-unredeemed payment for the same triple is returned
// instead of charging twice. A zero declared amount skips the amount check.
func (s *PaymentService) BeginPayment(ctx context.Context, sess domain.Session, contestID uint, typ domain.PaymentType, declared decimal.Decimal) (domain.Payment, error) {
	if !typ.Valid() {
		return domain.Payment{}, fmt.Errorf("%w: unknown payment type %q", domain.ErrInvalidInput, typ)
	}

	contest, err := s.store.FindContest(ctx, contestID)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("s.store.FindContest -> %w", err)
	}
	if err = sess.Authorize(domain.PayAction(typ), domain.ContestSubject(contest)); err != nil {
		return domain.Payment{}, err
	}

	expected := s.Fee(contest, typ)
	if !declared.IsZero() && !declared.Equal(expected) {
		return domain.Payment{}, fmt.Errorf("%w: amount %s does not match fee %s", domain.ErrPaymentFailed, declared, expected)
	}

	var payment domain.Payment
	err = s.store.WithinTx(ctx, func(tx repository.Tx) error {
		locked, err := tx.LockContest(ctx, contestID)
		if err != nil {
			return fmt.Errorf("tx.LockContest -> %w", err)
		}
		if err = s.checkPayable(ctx, tx, sess, locked, typ); err != nil {
			return err
		}

		open, err := tx.FindOpenPayment(ctx, sess.ActorID, contestID, typ)
		if err == nil {
			payment = open
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("tx.FindOpenPayment -> %w", err)
		}

		p := domain.Payment{
			UserID:         sess.ActorID,
			ContestID:      contestID,
			Amount:         expected,
			Currency:       s.currency,
			Type:           typ,
			Status:         domain.PaymentPending,
			IdempotencyKey: uuid.NewString(),
		}
		if expected.IsZero() {
			p.Complete("free")
		}
		if payment, err = tx.CreatePayment(ctx, p); err != nil {
			return fmt.Errorf("tx.CreatePayment -> %w", err)
		}

		if typ == domain.PaymentCreation {
			if payment.Status == domain.PaymentCompleted {
				locked.PaymentStatus = domain.PaymentCompleted
				payment.Redeem(s.now(), domain.ContestTarget(contestID))
				if payment, err = tx.UpdatePayment(ctx, payment); err != nil {
					return fmt.Errorf("tx.UpdatePayment -> %w", err)
				}
			} else {
				locked.PaymentStatus = domain.PaymentPending
			}
			if _, err = tx.UpdateContest(ctx, locked); err != nil {
				return fmt.Errorf("tx.UpdateContest -> %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return domain.Payment{}, err
	}

	if payment.Status == domain.PaymentPending && payment.ProcessorRef == "" {
		if payment, err = s.attachIntent(ctx, payment); err != nil {
			return domain.Payment{}, err
		}
	}

	s.notifier.Notify(domain.Change{Subject: domain.SubjectPayment, ID: payment.ID, Kind: "begun"})

	return payment, nil
}

// checkPayable refuses to take money for an effect that could not be
// delivered right now.
func (s *PaymentService) checkPayable(ctx context.Context, tx repository.Tx, sess domain.Session, c domain.Contest, typ domain.PaymentType) error {
	switch typ {
	case domain.PaymentCreation:
		if c.Status != domain.ContestPending || c.PaymentStatus == domain.PaymentCompleted {
			return fmt.Errorf("%w: creation fee already settled", domain.ErrInvalidTransition)
		}
	case domain.PaymentUpdate:
		if c.IsClosed() {
			return domain.ErrContestClosed
		}
		if c.Status != domain.ContestConfirmed {
			return fmt.Errorf("%w: pending contests are edited without a fee", domain.ErrInvalidTransition)
		}
	case domain.PaymentEntry:
		if err := c.AcceptsEntries(s.now()); err != nil {
			return err
		}
		_, err := tx.FindParticipationByContestAndUser(ctx, c.ID, sess.ActorID)
		if err == nil {
			return domain.ErrAlreadyRegistered
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("tx.FindParticipationByContestAndUser -> %w", err)
		}
		if !c.HasCapacity() {
			return domain.ErrContestFull
		}
	}

	return nil
}

// attachIntent creates the processor intent outside of any transaction and
// records it unless a concurrent call already did. The idempotency key
// makes the processor return the same intent to both callers.
func (s *PaymentService) attachIntent(ctx context.Context, payment domain.Payment) (domain.Payment, error) {
	intent, err := s.processor.CreateIntent(ctx, processor.IntentParams{
		Amount:         payment.Amount,
		Currency:       payment.Currency,
		IdempotencyKey: payment.IdempotencyKey,
		Description:    fmt.Sprintf("%s fee for contest %d", payment.Type, payment.ContestID),
		Metadata: map[string]string{
			"payment_id": strconv.FormatUint(uint64(payment.ID), 10),
			"contest_id": strconv.FormatUint(uint64(payment.ContestID), 10),
			"user_id":    strconv.FormatUint(uint64(payment.UserID), 10),
			"type":       string(payment.Type),
		},
	})
	if err != nil {
		return domain.Payment{}, fmt.Errorf("s.processor.CreateIntent -> %w", err)
	}

	var out domain.Payment
	err = s.store.WithinTx(ctx, func(tx repository.Tx) error {
		locked, err := tx.LockPayment(ctx, payment.ID)
		if err != nil {
			return fmt.Errorf("tx.LockPayment -> %w", err)
		}
		if locked.ProcessorRef != "" {
			out = locked
			return nil
		}

		locked.ProcessorRef = intent.ID
		locked.ClientSecret = intent.ClientSecret
		out, err = tx.UpdatePayment(ctx, locked)
		if err != nil {
			return fmt.Errorf("tx.UpdatePayment -> %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.Payment{}, err
	}
	if out.ClientSecret == "" {
		out.ClientSecret = intent.ClientSecret
	}

	return out, nil
}

// ConfirmPayment settles a payment from the processor's view of its intent.
// The payer's own claim of success is never trusted. A payment already in a
// terminal state is returned unchanged.
func (s *PaymentService) ConfirmPayment(ctx context.Context, sess domain.Session, paymentID uint, processorRef string) (domain.Payment, error) {
	p, err := s.store.FindPayment(ctx, paymentID)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("s.store.FindPayment -> %w", err)
	}
	if err = sess.Authorize(domain.ActionConfirmPayment, domain.PaymentSubject(p)); err != nil {
		return domain.Payment{}, err
	}
	if p.IsTerminal() {
		return p, nil
	}
	if p.ProcessorRef == "" {
		return p, fmt.Errorf("%w: payment %d has no intent yet", domain.ErrInvalidTransition, p.ID)
	}

	if processorRef != "" && processorRef != p.ProcessorRef {
		return s.settle(ctx, p.ID, func(locked *domain.Payment) {
			locked.Fail(domain.FailureMismatch)
		})
	}

	intent, err := s.processor.RetrieveIntent(ctx, p.ProcessorRef)
	if err != nil {
		return p, fmt.Errorf("s.processor.RetrieveIntent -> %w", err)
	}

	return s.settle(ctx, p.ID, func(locked *domain.Payment) {
		applyIntent(locked, intent)
	})
}

func applyIntent(p *domain.Payment, intent processor.Intent) {
	if intent.ID != p.ProcessorRef ||
		intent.Amount != processor.MinorUnits(p.Amount) ||
		!strings.EqualFold(intent.Currency, p.Currency) {
		p.Fail(domain.FailureMismatch)
		return
	}

	switch intent.Status {
	case processor.IntentSucceeded:
		txnID := intent.TransactionID
		if txnID == "" {
			txnID = intent.ID
		}
		p.Complete(txnID)
	case processor.IntentCanceled:
		p.Fail(domain.FailureCanceled)
	case processor.IntentRequiresPaymentMethod:
		p.Fail(domain.FailureDeclined)
	}
}

// settle applies transition to the locked payment and, for creation
// payments, records the outcome on the contest in the same transaction.
func (s *PaymentService) settle(ctx context.Context, paymentID uint, transition func(p *domain.Payment)) (domain.Payment, error) {
	var out domain.Payment

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		current, err := tx.FindPayment(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("tx.FindPayment -> %w", err)
		}

		// Contest rows are always locked before payment rows.
		var (
			contest    domain.Contest
			hasContest bool
		)
		if current.Type == domain.PaymentCreation {
			contest, err = tx.LockContest(ctx, current.ContestID)
			switch {
			case err == nil:
				hasContest = true
			case !errors.Is(err, domain.ErrNotFound):
				return fmt.Errorf("tx.LockContest -> %w", err)
			}
		}

		locked, err := tx.LockPayment(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("tx.LockPayment -> %w", err)
		}
		if locked.IsTerminal() {
			out = locked
			return nil
		}

		transition(&locked)
		if !locked.IsTerminal() {
			out = locked
			return nil
		}

		if locked.Type == domain.PaymentCreation {
			switch {
			case !hasContest:
				// The contest was deleted while the payment was in flight.
				locked.FlagRefund()
			case contest.PaymentStatus != domain.PaymentCompleted:
				contest.PaymentStatus = locked.Status
				if locked.Status == domain.PaymentCompleted {
					locked.Redeem(s.now(), domain.ContestTarget(contest.ID))
				}
				if _, err = tx.UpdateContest(ctx, contest); err != nil {
					return fmt.Errorf("tx.UpdateContest -> %w", err)
				}
			default:
				// A second creation payment completed after the first.
				locked.FlagRefund()
			}
		}

		if out, err = tx.UpdatePayment(ctx, locked); err != nil {
			return fmt.Errorf("tx.UpdatePayment -> %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.Payment{}, err
	}

	if out.IsTerminal() {
		zap.L().Info("payment settled",
			zap.Uint("payment_id", out.ID),
			zap.String("status", string(out.Status)),
			zap.String("reason", out.FailureReason))
		s.notifier.Notify(domain.Change{Subject: domain.SubjectPayment, ID: out.ID, Kind: string(out.Status)})
		if out.Type == domain.PaymentCreation {
			s.notifier.Notify(domain.Change{Subject: domain.SubjectContest, ID: out.ContestID, Kind: "payment"})
		}
	}

	return out, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, sess domain.Session, id uint) (domain.Payment, error) {
	p, err := s.store.FindPayment(ctx, id)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("s.store.FindPayment -> %w", err)
	}
	if err = sess.Authorize(domain.ActionViewPayment, domain.PaymentSubject(p)); err != nil {
		return domain.Payment{}, err
	}

	return p, nil
}

// ListPayments returns the caller's payments. Admins see every payment.
func (s *PaymentService) ListPayments(ctx context.Context, sess domain.Session, filter domain.PaymentFilter) ([]domain.Payment, error) {
	if sess.IsZero() {
		return nil, domain.ErrUnauthorized
	}
	if !sess.Can(domain.ActionListAllPayments, domain.Subject{}) {
		filter.UserID = sess.ActorID
		filter.NeedsRefund = nil
	}

	payments, err := s.store.ListPayments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("s.store.ListPayments -> %w", err)
	}

	return payments, nil
}

// flagRefund marks a completed, unredeemed payment for refund and reports
// whether this call changed it.
func (s *PaymentService) flagRefund(ctx context.Context, paymentID uint, reason error) bool {
	var flagged bool

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		p, err := tx.LockPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		if p.IsRedeemed() || !p.FlagRefund() {
			return nil
		}
		flagged = true
		_, err = tx.UpdatePayment(ctx, p)

		return err
	})
	if err != nil {
		zap.L().Error("failed to flag payment for refund", zap.Uint("payment_id", paymentID), zap.Error(err))
		return false
	}
	if flagged {
		zap.L().Warn("payment flagged for refund", zap.Uint("payment_id", paymentID), zap.NamedError("reason", reason))
		s.notifier.Notify(domain.Change{Subject: domain.SubjectPayment, ID: paymentID, Kind: "needs_refund"})
	}

	return flagged
}
