package repository

import (
	"context"
	"fmt"

	"github.com/Injamhossan/contest-arena/internal/domain"
	"github.com/Injamhossan/contest-arena/internal/repository/dao"
)

type ContestDAO interface {
	Insert(ctx context.Context, contest dao.Contest) (dao.Contest, error)
	FindByID(ctx context.Context, id uint) (dao.Contest, error)
	FindByIDForUpdate(ctx context.Context, id uint) (dao.Contest, error)
	Update(ctx context.Context, contest dao.Contest) (dao.Contest, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, q dao.ContestQuery) ([]dao.Contest, int64, error)
	CountWins(ctx context.Context, userID uint) (int64, error)
	TopWinners(ctx context.Context, limit int) ([]dao.WinCount, error)
}

type ContestRepository struct {
	dao   ContestDAO
	users *UserRepository
}

func NewContestRepository(dao ContestDAO, users *UserRepository) *ContestRepository {
	return &ContestRepository{
		dao:   dao,
		users: users,
	}
}

func (r *ContestRepository) CreateContest(ctx context.Context, contest domain.Contest) (domain.Contest, error) {
	created, err := r.dao.Insert(ctx, contestToDAO(contest))
	if err != nil {
		return domain.Contest{}, fmt.Errorf("r.dao.Insert -> %w", translate(err))
	}

	return contestToDomain(created), nil
}

func (r *ContestRepository) FindContest(ctx context.Context, id uint) (domain.Contest, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Contest{}, fmt.Errorf("r.dao.FindByID -> %w", translate(err))
	}

	return contestToDomain(found), nil
}

func (r *ContestRepository) LockContest(ctx context.Context, id uint) (domain.Contest, error) {
	found, err := r.dao.FindByIDForUpdate(ctx, id)
	if err != nil {
		return domain.Contest{}, fmt.Errorf("r.dao.FindByIDForUpdate -> %w", translate(err))
	}

	return contestToDomain(found), nil
}

func (r *ContestRepository) UpdateContest(ctx context.Context, contest domain.Contest) (domain.Contest, error) {
	updated, err := r.dao.Update(ctx, contestToDAO(contest))
	if err != nil {
		return domain.Contest{}, fmt.Errorf("r.dao.Update -> %w", translate(err))
	}

	return contestToDomain(updated), nil
}

func (r *ContestRepository) DeleteContest(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", translate(err))
	}

	return nil
}

func (r *ContestRepository) ListContests(ctx context.Context, filter domain.ContestFilter) ([]domain.Contest, int64, error) {
	q := dao.ContestQuery{
		CreatorID:   filter.CreatorID,
		ContestType: filter.ContestType,
		Search:      filter.Search,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	for _, s := range filter.Statuses {
		q.Statuses = append(q.Statuses, string(s))
	}

	switch filter.Sort {
	case domain.SortByPopular:
		q.OrderBy = "participants_count DESC, deadline"
	case domain.SortByNewest:
		q.OrderBy = "created_at DESC"
	default:
		q.OrderBy = "deadline"
	}

	found, total, err := r.dao.List(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("r.dao.List -> %w", err)
	}

	contests := make([]domain.Contest, 0, len(found))
	for _, c := range found {
		contests = append(contests, contestToDomain(c))
	}

	return contests, total, nil
}

func (r *ContestRepository) CountWins(ctx context.Context, userID uint) (int64, error) {
	wins, err := r.dao.CountWins(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountWins -> %w", err)
	}

	return wins, nil
}

func (r *ContestRepository) TopWinners(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	counts, err := r.dao.TopWinners(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("r.dao.TopWinners -> %w", err)
	}

	ids := make([]uint, 0, len(counts))
	for _, c := range counts {
		ids = append(ids, c.UserID)
	}

	users, err := r.users.FindUsers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("r.users.FindUsers -> %w", err)
	}
	byID := make(map[uint]domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	entries := make([]domain.LeaderboardEntry, 0, len(counts))
	for _, c := range counts {
		u := byID[c.UserID]
		entries = append(entries, domain.LeaderboardEntry{
			UserID:   c.UserID,
			Name:     u.Name,
			PhotoURL: u.PhotoURL,
			Wins:     c.Wins,
		})
	}

	return entries, nil
}

func contestToDomain(c dao.Contest) domain.Contest {
	return domain.Contest{
		ID:                 c.ID,
		CreatorID:          c.CreatorID,
		Name:               c.Name,
		Slug:               c.Slug,
		Image:              c.Image,
		Description:        c.Description,
		TaskInstruction:    c.TaskInstruction,
		ContestType:        c.ContestType,
		Price:              c.Price,
		PrizeMoney:         c.PrizeMoney,
		ParticipationLimit: c.ParticipationLimit,
		ParticipantsCount:  c.ParticipantsCount,
		Deadline:           c.Deadline,
		Status:             domain.ContestStatus(c.Status),
		WinnerUserID:       c.WinnerUserID,
		PaymentStatus:      domain.PaymentStatus(c.PaymentStatus),
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

func contestToDAO(c domain.Contest) dao.Contest {
	return dao.Contest{
		ID:                 c.ID,
		CreatorID:          c.CreatorID,
		Name:               c.Name,
		Slug:               c.Slug,
		Image:              c.Image,
		Description:        c.Description,
		TaskInstruction:    c.TaskInstruction,
		ContestType:        c.ContestType,
		Price:              c.Price,
		PrizeMoney:         c.PrizeMoney,
		ParticipationLimit: c.ParticipationLimit,
		ParticipantsCount:  c.ParticipantsCount,
		Deadline:           c.Deadline,
		Status:             string(c.Status),
		WinnerUserID:       c.WinnerUserID,
		PaymentStatus:      string(c.PaymentStatus),
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}
