package dao

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrContestNotFound   = errors.New("contest not found")
	ErrContestSlugExists = errors.New("contest slug already exists")
)

type Contest struct {
	ID        uint `gorm:"primaryKey"`
	CreatorID uint `gorm:"not null;index"`
	Creator   User `gorm:"foreignKey:CreatorID"`

	Name            string `gorm:"not null"`
	Slug            string `gorm:"unique;not null"`
	Image           string
	Description     string
	TaskInstruction string
	ContestType     string          `gorm:"not null;index"`
	Price           decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	PrizeMoney      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`

	ParticipationLimit int       `gorm:"not null;default:0"` // 0 means unlimited
	ParticipantsCount  int       `gorm:"not null;default:0"`
	Deadline           time.Time `gorm:"not null;index"`

	Status        string `gorm:"not null;index"` // "pending", "confirmed" or "closed"
	WinnerUserID  *uint  `gorm:"index"`
	PaymentStatus string `gorm:"not null;default:unpaid"`

	CreatedAt time.Time      `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

type ContestQuery struct {
	CreatorID   uint
	ContestType string
	Search      string
	Statuses    []string
	OrderBy     string
	Limit       int
	Offset      int
}

type WinCount struct {
	UserID uint
	Wins   int64
}

type ContestDAO struct {
	db *gorm.DB
}

func NewContestDAO(db *gorm.DB) *ContestDAO {
	return &ContestDAO{
		db: db,
	}
}

func (d *ContestDAO) Insert(ctx context.Context, contest Contest) (Contest, error) {
	result := d.db.WithContext(ctx).Omit("Creator").Create(&contest)
	if result.Error != nil {
		if isUniqueViolation(result.Error, "uni_contests_slug") {
			return Contest{}, ErrContestSlugExists
		}

		return Contest{}, result.Error
	}

	return contest, nil
}

func (d *ContestDAO) FindByID(ctx context.Context, id uint) (Contest, error) {
	return d.first(d.db.WithContext(ctx), id)
}

// FindByIDForUpdate locks the contest row. It must run inside a transaction.
func (d *ContestDAO) FindByIDForUpdate(ctx context.Context, id uint) (Contest, error) {
	return d.first(forUpdate(d.db.WithContext(ctx)), id)
}

func (d *ContestDAO) first(db *gorm.DB, id uint) (Contest, error) {
	var contest Contest

	result := db.First(&contest, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Contest{}, ErrContestNotFound
		}

		return Contest{}, result.Error
	}

	return contest, nil
}

func (d *ContestDAO) Update(ctx context.Context, contest Contest) (Contest, error) {
	result := d.db.WithContext(ctx).Omit("Creator").Save(&contest)
	if result.Error != nil {
		return Contest{}, result.Error
	}

	return contest, nil
}

func (d *ContestDAO) Delete(ctx context.Context, id uint) error {
	result := d.db.WithContext(ctx).Delete(&Contest{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrContestNotFound
	}

	return nil
}

func (d *ContestDAO) List(ctx context.Context, q ContestQuery) ([]Contest, int64, error) {
	db := d.db.WithContext(ctx).Model(&Contest{})

	if q.CreatorID != 0 {
		db = db.Where("creator_id = ?", q.CreatorID)
	}
	if q.ContestType != "" {
		db = db.Where("contest_type = ?", q.ContestType)
	}
	if q.Search != "" {
		db = db.Where("name ILIKE ?", "%"+q.Search+"%")
	}
	if len(q.Statuses) > 0 {
		db = db.Where("status IN ?", q.Statuses)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if q.OrderBy != "" {
		db = db.Order(q.OrderBy)
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	if q.Offset > 0 {
		db = db.Offset(q.Offset)
	}

	var contests []Contest
	if err := db.Find(&contests).Error; err != nil {
		return nil, 0, err
	}

	return contests, total, nil
}

func (d *ContestDAO) CountWins(ctx context.Context, userID uint) (int64, error) {
	var wins int64

	result := d.db.WithContext(ctx).Model(&Contest{}).Where("winner_user_id = ?", userID).Count(&wins)
	if result.Error != nil {
		return 0, result.Error
	}

	return wins, nil
}

func (d *ContestDAO) TopWinners(ctx context.Context, limit int) ([]WinCount, error) {
	var counts []WinCount

	result := d.db.WithContext(ctx).Model(&Contest{}).
		Select("winner_user_id AS user_id, COUNT(*) AS wins").
		Where("winner_user_id IS NOT NULL").
		Group("winner_user_id").
		Order("wins DESC, winner_user_id").
		Limit(limit).
		Scan(&counts)
	if result.Error != nil {
		return nil, result.Error
	}

	return counts, nil
}
