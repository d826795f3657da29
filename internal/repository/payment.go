package repository

import (
	"context"
	"fmt"

	"github.com/Injamhossan/contest-arena/internal/domain"
	"github.com/Injamhossan/contest-arena/internal/repository/dao"
)

type PaymentDAO interface {
	Insert(ctx context.Context, p dao.Payment) (dao.Payment, error)
	FindByID(ctx context.Context, id uint) (dao.Payment, error)
	FindByIDForUpdate(ctx context.Context, id uint) (dao.Payment, error)
	FindOpen(ctx context.Context, userID, contestID uint, typ string) (dao.Payment, error)
	Update(ctx context.Context, p dao.Payment) (dao.Payment, error)
	List(ctx context.Context, q dao.PaymentQuery) ([]dao.Payment, error)
}

type PaymentRepository struct {
	dao PaymentDAO
}

func NewPaymentRepository(dao PaymentDAO) *PaymentRepository {
	return &PaymentRepository{
		dao: dao,
	}
}

func (r *PaymentRepository) CreatePayment(ctx context.Context, p domain.Payment) (domain.Payment, error) {
	created, err := r.dao.Insert(ctx, paymentToDAO(p))
	if err != nil {
		return domain.Payment{}, fmt.Errorf("r.dao.Insert -> %w", translate(err))
	}

	return paymentToDomain(created), nil
}

func (r *PaymentRepository) FindPayment(ctx context.Context, id uint) (domain.Payment, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("r.dao.FindByID -> %w", translate(err))
	}

	return paymentToDomain(found), nil
}

func (r *PaymentRepository) LockPayment(ctx context.Context, id uint) (domain.Payment, error) {
	found, err := r.dao.FindByIDForUpdate(ctx, id)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("r.dao.FindByIDForUpdate -> %w", translate(err))
	}

	return paymentToDomain(found), nil
}

func (r *PaymentRepository) FindOpenPayment(ctx context.Context, userID, contestID uint, typ domain.PaymentType) (domain.Payment, error) {
	found, err := r.dao.FindOpen(ctx, userID, contestID, string(typ))
	if err != nil {
		return domain.Payment{}, fmt.Errorf("r.dao.FindOpen -> %w", translate(err))
	}

	return paymentToDomain(found), nil
}

func (r *PaymentRepository) UpdatePayment(ctx context.Context, p domain.Payment) (domain.Payment, error) {
	updated, err := r.dao.Update(ctx, paymentToDAO(p))
	if err != nil {
		return domain.Payment{}, fmt.Errorf("r.dao.Update -> %w", translate(err))
	}

	return paymentToDomain(updated), nil
}

func (r *PaymentRepository) ListPayments(ctx context.Context, filter domain.PaymentFilter) ([]domain.Payment, error) {
	q := dao.PaymentQuery{
		UserID:        filter.UserID,
		ContestID:     filter.ContestID,
		Type:          string(filter.Type),
		Unredeemed:    filter.Unredeemed,
		NeedsRefund:   filter.NeedsRefund,
		CreatedBefore: filter.CreatedBefore,
	}
	for _, s := range filter.Statuses {
		q.Statuses = append(q.Statuses, string(s))
	}

	found, err := r.dao.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("r.dao.List -> %w", err)
	}

	payments := make([]domain.Payment, 0, len(found))
	for _, p := range found {
		payments = append(payments, paymentToDomain(p))
	}

	return payments, nil
}

func paymentToDomain(p dao.Payment) domain.Payment {
	return domain.Payment{
		ID:             p.ID,
		UserID:         p.UserID,
		ContestID:      p.ContestID,
		Amount:         p.Amount,
		Currency:       p.Currency,
		Type:           domain.PaymentType(p.Type),
		Status:         domain.PaymentStatus(p.Status),
		ProcessorRef:   p.ProcessorRef,
		ClientSecret:   p.ClientSecret,
		IdempotencyKey: p.IdempotencyKey,
		TransactionID:  p.TransactionID,
		FailureReason:  p.FailureReason,
		RedeemedAt:     p.RedeemedAt,
		RedeemedFor:    p.RedeemedFor,
		NeedsRefund:    p.NeedsRefund,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func paymentToDAO(p domain.Payment) dao.Payment {
	return dao.Payment{
		ID:             p.ID,
		UserID:         p.UserID,
		ContestID:      p.ContestID,
		Amount:         p.Amount,
		Currency:       p.Currency,
		Type:           string(p.Type),
		Status:         string(p.Status),
		ProcessorRef:   p.ProcessorRef,
		ClientSecret:   p.ClientSecret,
		IdempotencyKey: p.IdempotencyKey,
		TransactionID:  p.TransactionID,
		FailureReason:  p.FailureReason,
		RedeemedAt:     p.RedeemedAt,
		RedeemedFor:    p.RedeemedFor,
		NeedsRefund:    p.NeedsRefund,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
