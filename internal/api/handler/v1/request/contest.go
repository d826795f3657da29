package request

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/shopspring/decimal"

	"github.com/Injamhossan/contest-arena/internal/domain"
)

const maxPageSize = 100

var errNegativeAmount = errors.New("must not be negative")

func nonNegative(value interface{}) error {
	switch v := value.(type) {
	case decimal.Decimal:
		if v.IsNegative() {
			return errNegativeAmount
		}
	case *decimal.Decimal:
		if v != nil && v.IsNegative() {
			return errNegativeAmount
		}
	}

	return nil
}

type CreateContestRequest struct {
	Name               string          `json:"name"`
	Image              string          `json:"image"`
	Description        string          `json:"description"`
	TaskInstruction    string          `json:"task_instruction"`
	ContestType        string          `json:"contest_type"`
	Price              decimal.Decimal `json:"price"`
	PrizeMoney         decimal.Decimal `json:"prize_money"`
	ParticipationLimit int             `json:"participation_limit"`
	Deadline           time.Time       `json:"deadline"`
}

func (req *CreateContestRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(3, 120)),
		validation.Field(&req.Image, is.URL),
		validation.Field(&req.Description, validation.Required, validation.Length(1, 5000)),
		validation.Field(&req.TaskInstruction, validation.Length(0, 5000)),
		validation.Field(&req.ContestType, validation.Required, validation.Length(1, 50)),
		validation.Field(&req.Price, validation.By(nonNegative)),
		validation.Field(&req.PrizeMoney, validation.By(nonNegative)),
		validation.Field(&req.ParticipationLimit, validation.Min(0)),
		validation.Field(&req.Deadline, validation.Required),
	)
}

func (req *CreateContestRequest) Contest() domain.Contest {
	return domain.Contest{
		Name:               req.Name,
		Image:              req.Image,
		Description:        req.Description,
		TaskInstruction:    req.TaskInstruction,
		ContestType:        req.ContestType,
		Price:              req.Price,
		PrizeMoney:         req.PrizeMoney,
		ParticipationLimit: req.ParticipationLimit,
		Deadline:           req.Deadline,
	}
}

// UpdateContestRequest only changes the fields that are present.
type UpdateContestRequest struct {
	Name               *string          `json:"name"`
	Image              *string          `json:"image"`
	Description        *string          `json:"description"`
	TaskInstruction    *string          `json:"task_instruction"`
	ContestType        *string          `json:"contest_type"`
	Price              *decimal.Decimal `json:"price"`
	PrizeMoney         *decimal.Decimal `json:"prize_money"`
	ParticipationLimit *int             `json:"participation_limit"`
	Deadline           *time.Time       `json:"deadline"`
}

func (req *UpdateContestRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.NilOrNotEmpty, validation.Length(3, 120)),
		validation.Field(&req.Image, is.URL),
		validation.Field(&req.Description, validation.NilOrNotEmpty, validation.Length(1, 5000)),
		validation.Field(&req.ContestType, validation.NilOrNotEmpty),
		validation.Field(&req.Price, validation.By(nonNegative)),
		validation.Field(&req.PrizeMoney, validation.By(nonNegative)),
		validation.Field(&req.ParticipationLimit, validation.Min(0)),
	)
}

func (req *UpdateContestRequest) Update() domain.ContestUpdate {
	return domain.ContestUpdate{
		Name:               req.Name,
		Image:              req.Image,
		Description:        req.Description,
		TaskInstruction:    req.TaskInstruction,
		ContestType:        req.ContestType,
		Price:              req.Price,
		PrizeMoney:         req.PrizeMoney,
		ParticipationLimit: req.ParticipationLimit,
		Deadline:           req.Deadline,
	}
}

type ApproveContestRequest struct {
	Status string `json:"status"`
}

func (req *ApproveContestRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Status, validation.Required, validation.In(string(domain.ContestConfirmed))),
	)
}

type DeclareWinnerRequest struct {
	WinnerUserID uint `json:"winner_user_id"`
}

func (req *DeclareWinnerRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.WinnerUserID, validation.Required),
	)
}

type ListContestsQuery struct {
	ContestType string   `form:"type"`
	Search      string   `form:"search"`
	Sort        string   `form:"sort"`
	Status      []string `form:"status"`
	Limit       int      `form:"limit"`
	Offset      int      `form:"offset"`
}

func (q *ListContestsQuery) Validate() error {
	return validation.ValidateStruct(
		q,
		validation.Field(&q.Sort, validation.In(
			string(domain.SortByDeadline), string(domain.SortByPopular), string(domain.SortByNewest))),
		validation.Field(&q.Status, validation.Each(validation.In(
			string(domain.ContestPending), string(domain.ContestConfirmed), string(domain.ContestClosed)))),
		validation.Field(&q.Limit, validation.Min(0), validation.Max(maxPageSize)),
		validation.Field(&q.Offset, validation.Min(0)),
	)
}

func (q *ListContestsQuery) Filter() domain.ContestFilter {
	f := domain.ContestFilter{
		ContestType: q.ContestType,
		Search:      q.Search,
		Sort:        domain.ContestSort(q.Sort),
		Limit:       q.Limit,
		Offset:      q.Offset,
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	for _, st := range q.Status {
		f.Statuses = append(f.Statuses, domain.ContestStatus(st))
	}

	return f
}
