package repository

import (
	"context"
	"fmt"

	"github.com/Injamhossan/contest-arena/internal/domain"
	"github.com/Injamhossan/contest-arena/internal/repository/dao"
)

type ParticipationDAO interface {
	Insert(ctx context.Context, p dao.Participation) (dao.Participation, error)
	FindByID(ctx context.Context, id uint) (dao.Participation, error)
	FindByContestAndUser(ctx context.Context, contestID, userID uint) (dao.Participation, error)
	Update(ctx context.Context, p dao.Participation) (dao.Participation, error)
	List(ctx context.Context, q dao.ParticipationQuery) ([]dao.Participation, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
}

type ParticipationRepository struct {
	dao ParticipationDAO
}

func NewParticipationRepository(dao ParticipationDAO) *ParticipationRepository {
	return &ParticipationRepository{
		dao: dao,
	}
}

func (r *ParticipationRepository) CreateParticipation(ctx context.Context, p domain.Participation) (domain.Participation, error) {
	created, err := r.dao.Insert(ctx, participationToDAO(p))
	if err != nil {
		return domain.Participation{}, fmt.Errorf("r.dao.Insert -> %w", translate(err))
	}

	return participationToDomain(created), nil
}

func (r *ParticipationRepository) FindParticipation(ctx context.Context, id uint) (domain.Participation, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Participation{}, fmt.Errorf("r.dao.FindByID -> %w", translate(err))
	}

	return participationToDomain(found), nil
}

func (r *ParticipationRepository) FindParticipationByContestAndUser(ctx context.Context, contestID, userID uint) (domain.Participation, error) {
	found, err := r.dao.FindByContestAndUser(ctx, contestID, userID)
	if err != nil {
		return domain.Participation{}, fmt.Errorf("r.dao.FindByContestAndUser -> %w", translate(err))
	}

	return participationToDomain(found), nil
}

func (r *ParticipationRepository) UpdateParticipation(ctx context.Context, p domain.Participation) (domain.Participation, error) {
	updated, err := r.dao.Update(ctx, participationToDAO(p))
	if err != nil {
		return domain.Participation{}, fmt.Errorf("r.dao.Update -> %w", translate(err))
	}

	return participationToDomain(updated), nil
}

func (r *ParticipationRepository) ListParticipations(ctx context.Context, filter domain.ParticipationFilter) ([]domain.Participation, error) {
	found, err := r.dao.List(ctx, dao.ParticipationQuery{
		ContestID: filter.ContestID,
		UserID:    filter.UserID,
		CreatorID: filter.CreatorID,
		Submitted: filter.Submitted,
	})
	if err != nil {
		return nil, fmt.Errorf("r.dao.List -> %w", err)
	}

	participations := make([]domain.Participation, 0, len(found))
	for _, p := range found {
		dp := participationToDomain(p)
		if p.Contest.ID != 0 {
			c := contestToDomain(p.Contest)
			dp.Contest = &c
		}
		if p.User.ID != 0 {
			u := userToDomain(p.User)
			dp.User = &u
		}
		participations = append(participations, dp)
	}

	return participations, nil
}

func (r *ParticipationRepository) CountParticipations(ctx context.Context, userID uint) (int64, error) {
	count, err := r.dao.CountByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountByUser -> %w", err)
	}

	return count, nil
}

func participationToDomain(p dao.Participation) domain.Participation {
	return domain.Participation{
		ID:             p.ID,
		ContestID:      p.ContestID,
		UserID:         p.UserID,
		PaymentID:      p.PaymentID,
		SubmissionLink: p.SubmissionLink,
		SubmissionText: p.SubmissionText,
		SubmittedAt:    p.SubmittedAt,
		CreatedAt:      p.CreatedAt,
	}
}

func participationToDAO(p domain.Participation) dao.Participation {
	return dao.Participation{
		ID:             p.ID,
		ContestID:      p.ContestID,
		UserID:         p.UserID,
		PaymentID:      p.PaymentID,
		SubmissionLink: p.SubmissionLink,
		SubmissionText: p.SubmissionText,
		SubmittedAt:    p.SubmittedAt,
		CreatedAt:      p.CreatedAt,
	}
}
