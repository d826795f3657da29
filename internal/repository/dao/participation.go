package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrParticipationNotFound = errors.New("participation not found")
	ErrParticipationExists   = errors.New("participation already exists")
)

type Participation struct {
	ID        uint    `gorm:"primaryKey"`
	ContestID uint    `gorm:"not null;uniqueIndex:uni_participations_contest_user"`
	Contest   Contest `gorm:"foreignKey:ContestID"`
	UserID    uint    `gorm:"not null;uniqueIndex:uni_participations_contest_user;index"`
	User      User    `gorm:"foreignKey:UserID"`
	PaymentID uint    `gorm:"not null"`

	SubmissionLink string
	SubmissionText string
	SubmittedAt    *time.Time

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type ParticipationQuery struct {
	ContestID uint
	UserID    uint
	CreatorID uint
	Submitted bool
}

type ParticipationDAO struct {
	db *gorm.DB
}

func NewParticipationDAO(db *gorm.DB) *ParticipationDAO {
	return &ParticipationDAO{
		db: db,
	}
}

func (d *ParticipationDAO) Insert(ctx context.Context, p Participation) (Participation, error) {
	result := d.db.WithContext(ctx).Omit("Contest", "User").Create(&p)
	if result.Error != nil {
		if isUniqueViolation(result.Error, "uni_participations_contest_user") {
			return Participation{}, ErrParticipationExists
		}

		return Participation{}, result.Error
	}

	return p, nil
}

func (d *ParticipationDAO) FindByID(ctx context.Context, id uint) (Participation, error) {
	var p Participation

	result := d.db.WithContext(ctx).First(&p, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Participation{}, ErrParticipationNotFound
		}

		return Participation{}, result.Error
	}

	return p, nil
}

func (d *ParticipationDAO) FindByContestAndUser(ctx context.Context, contestID, userID uint) (Participation, error) {
	var p Participation

	result := d.db.WithContext(ctx).First(&p, "contest_id = ? AND user_id = ?", contestID, userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Participation{}, ErrParticipationNotFound
		}

		return Participation{}, result.Error
	}

	return p, nil
}

func (d *ParticipationDAO) Update(ctx context.Context, p Participation) (Participation, error) {
	result := d.db.WithContext(ctx).Omit("Contest", "User").Save(&p)
	if result.Error != nil {
		return Participation{}, result.Error
	}

	return p, nil
}

func (d *ParticipationDAO) List(ctx context.Context, q ParticipationQuery) ([]Participation, error) {
	db := d.db.WithContext(ctx).Model(&Participation{}).Preload("Contest").Preload("User")

	if q.ContestID != 0 {
		db = db.Where("participations.contest_id = ?", q.ContestID)
	}
	if q.UserID != 0 {
		db = db.Where("participations.user_id = ?", q.UserID)
	}
	if q.CreatorID != 0 {
		db = db.Joins("JOIN contests ON contests.id = participations.contest_id AND contests.deleted_at IS NULL").
			Where("contests.creator_id = ?", q.CreatorID)
	}
	if q.Submitted {
		db = db.Where("participations.submitted_at IS NOT NULL")
	}

	var participations []Participation
	if err := db.Order("participations.created_at DESC").Find(&participations).Error; err != nil {
		return nil, err
	}

	return participations, nil
}

func (d *ParticipationDAO) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64

	result := d.db.WithContext(ctx).Model(&Participation{}).Where("user_id = ?", userID).Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}

	return count, nil
}
