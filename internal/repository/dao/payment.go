package dao

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrPaymentExists   = errors.New("payment idempotency key already used")
)

type Payment struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"not null;index"`
	ContestID uint `gorm:"not null;index"`

	Amount   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Currency string          `gorm:"not null"`
	Type     string          `gorm:"not null"` // "creation", "entry" or "update"
	Status   string          `gorm:"not null;index"`

	ProcessorRef   string `gorm:"index"`
	ClientSecret   string
	IdempotencyKey string `gorm:"unique;not null"`
	TransactionID  string
	FailureReason  string

	RedeemedAt  *time.Time
	RedeemedFor string
	NeedsRefund bool `gorm:"not null;default:false;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type PaymentQuery struct {
	UserID        uint
	ContestID     uint
	Type          string
	Statuses      []string
	Unredeemed    bool
	NeedsRefund   *bool
	CreatedBefore time.Time
}

type PaymentDAO struct {
	db *gorm.DB
}

func NewPaymentDAO(db *gorm.DB) *PaymentDAO {
	return &PaymentDAO{
		db: db,
	}
}

func (d *PaymentDAO) Insert(ctx context.Context, p Payment) (Payment, error) {
	result := d.db.WithContext(ctx).Create(&p)
	if result.Error != nil {
		if isUniqueViolation(result.Error, "uni_payments_idempotency_key") {
			return Payment{}, ErrPaymentExists
		}

		return Payment{}, result.Error
	}

	return p, nil
}

func (d *PaymentDAO) FindByID(ctx context.Context, id uint) (Payment, error) {
	return d.first(d.db.WithContext(ctx), id)
}

// FindByIDForUpdate locks the payment row. It must run inside a transaction.
func (d *PaymentDAO) FindByIDForUpdate(ctx context.Context, id uint) (Payment, error) {
	return d.first(forUpdate(d.db.WithContext(ctx)), id)
}

func (d *PaymentDAO) first(db *gorm.DB, id uint) (Payment, error) {
	var p Payment

	result := db.First(&p, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Payment{}, ErrPaymentNotFound
		}

		return Payment{}, result.Error
	}

	return p, nil
}

// FindOpen returns the newest payment that is still pending or completed
// without having been redeemed.
func (d *PaymentDAO) FindOpen(ctx context.Context, userID, contestID uint, typ string) (Payment, error) {
	var p Payment

	result := d.db.WithContext(ctx).
		Where("user_id = ? AND contest_id = ? AND type = ?", userID, contestID, typ).
		Where("status = ? OR (status = ? AND redeemed_at IS NULL AND needs_refund = ?)", "pending", "completed", false).
		Order("created_at DESC").
		First(&p)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Payment{}, ErrPaymentNotFound
		}

		return Payment{}, result.Error
	}

	return p, nil
}

func (d *PaymentDAO) Update(ctx context.Context, p Payment) (Payment, error) {
	result := d.db.WithContext(ctx).Save(&p)
	if result.Error != nil {
		return Payment{}, result.Error
	}

	return p, nil
}

func (d *PaymentDAO) List(ctx context.Context, q PaymentQuery) ([]Payment, error) {
	db := d.db.WithContext(ctx).Model(&Payment{})

	if q.UserID != 0 {
		db = db.Where("user_id = ?", q.UserID)
	}
	if q.ContestID != 0 {
		db = db.Where("contest_id = ?", q.ContestID)
	}
	if q.Type != "" {
		db = db.Where("type = ?", q.Type)
	}
	if len(q.Statuses) > 0 {
		db = db.Where("status IN ?", q.Statuses)
	}
	if q.Unredeemed {
		db = db.Where("redeemed_at IS NULL")
	}
	if q.NeedsRefund != nil {
		db = db.Where("needs_refund = ?", *q.NeedsRefund)
	}
	if !q.CreatedBefore.IsZero() {
		db = db.Where("created_at < ?", q.CreatedBefore)
	}

	var payments []Payment
	if err := db.Order("created_at DESC").Find(&payments).Error; err != nil {
		return nil, err
	}

	return payments, nil
}
