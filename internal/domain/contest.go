package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type ContestStatus string

const (
	ContestPending   ContestStatus = "pending"
	ContestConfirmed ContestStatus = "confirmed"
	ContestClosed    ContestStatus = "closed"
)

type Contest struct {
	ID                 uint            `json:"id"`
	CreatorID          uint            `json:"creator_id"`
	Name               string          `json:"name"`
	Slug               string          `json:"slug"`
	Image              string          `json:"image"`
	Description        string          `json:"description"`
	TaskInstruction    string          `json:"task_instruction"`
	ContestType        string          `json:"contest_type"`
	Price              decimal.Decimal `json:"price"`
	PrizeMoney         decimal.Decimal `json:"prize_money"`
	ParticipationLimit int             `json:"participation_limit"`
	ParticipantsCount  int             `json:"participants_count"`
	Deadline           time.Time       `json:"deadline"`
	Status             ContestStatus   `json:"status"`
	WinnerUserID       *uint           `json:"winner_user_id"`
	PaymentStatus      PaymentStatus   `json:"payment_status"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (c Contest) IsOwnedBy(userID uint) bool {
	return c.CreatorID == userID
}

func (c Contest) IsClosed() bool {
	return c.Status == ContestClosed || c.WinnerUserID != nil
}

func (c Contest) DeadlinePassed(now time.Time) bool {
	return now.After(c.Deadline)
}

func (c Contest) HasCapacity() bool {
	return c.ParticipationLimit <= 0 || c.ParticipantsCount < c.ParticipationLimit
}

// SpotsLeft returns -1 for contests without a participation limit.
func (c Contest) SpotsLeft() int {
	if c.ParticipationLimit <= 0 {
		return -1
	}
	if left := c.ParticipationLimit - c.ParticipantsCount; left > 0 {
		return left
	}

	return 0
}

// AcceptsEntries reports whether new participations may be created now.
func (c Contest) AcceptsEntries(now time.Time) error {
	if c.Status != ContestConfirmed || c.IsClosed() || c.DeadlinePassed(now) {
		return ErrContestClosed
	}

	return nil
}

// Availability is advisory only. Registration revalidates against the
// authoritative record.
type Availability struct {
	Open      bool `json:"open"`
	Full      bool `json:"full"`
	SpotsLeft int  `json:"spots_left"`
}

func (c Contest) Availability(now time.Time) Availability {
	return Availability{
		Open:      c.AcceptsEntries(now) == nil,
		Full:      !c.HasCapacity(),
		SpotsLeft: c.SpotsLeft(),
	}
}

// CheckRegistration validates a registration attempt. Checks run in a fixed
// order so concurrent losers observe a stable error.
func (c Contest) CheckRegistration(now time.Time, userID uint, alreadyRegistered bool, payment *Payment) error {
	if err := c.AcceptsEntries(now); err != nil {
		return err
	}
	if alreadyRegistered {
		return ErrAlreadyRegistered
	}
	if !c.HasCapacity() {
		return ErrContestFull
	}
	if payment == nil {
		return ErrPaymentRequired
	}

	return payment.CheckRedeemable(userID, c.ID, PaymentEntry)
}

func (c Contest) CheckSubmission(now time.Time) error {
	if c.IsClosed() || c.DeadlinePassed(now) {
		return ErrSubmissionClosed
	}

	return nil
}

func (c Contest) CheckDeclareWinner(now time.Time, isParticipant bool) error {
	if c.IsClosed() {
		return ErrWinnerAlreadyDeclared
	}
	if c.Status != ContestConfirmed {
		return ErrInvalidTransition
	}
	if !c.DeadlinePassed(now) {
		return ErrDeadlineNotReached
	}
	if !isParticipant {
		return ErrNotAParticipant
	}

	return nil
}

// Approve moves a pending contest to confirmed. Approving a confirmed
// contest again is a no-op.
func (c *Contest) Approve() error {
	switch c.Status {
	case ContestConfirmed:
		return nil
	case ContestPending:
	default:
		return ErrInvalidTransition
	}
	if c.PaymentStatus != PaymentCompleted {
		return ErrPaymentRequired
	}

	c.Status = ContestConfirmed

	return nil
}

func (c *Contest) Close(winnerID uint) {
	c.Status = ContestClosed
	c.WinnerUserID = &winnerID
}

// ContestUpdate carries the editable fields of a contest. Nil fields are
// left untouched.
type ContestUpdate struct {
	Name               *string
	Image              *string
	Description        *string
	TaskInstruction    *string
	ContestType        *string
	Price              *decimal.Decimal
	PrizeMoney         *decimal.Decimal
	ParticipationLimit *int
	Deadline           *time.Time
}

func (c *Contest) Apply(u ContestUpdate, now time.Time) error {
	if u.ParticipationLimit != nil && *u.ParticipationLimit > 0 && *u.ParticipationLimit < c.ParticipantsCount {
		return fmt.Errorf("%w: participation limit %d is below the current %d participants",
			ErrInvalidInput, *u.ParticipationLimit, c.ParticipantsCount)
	}
	if u.Deadline != nil && !u.Deadline.After(now) {
		return fmt.Errorf("%w: deadline must be in the future", ErrInvalidInput)
	}
	if u.Price != nil && u.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}

	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Image != nil {
		c.Image = *u.Image
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.TaskInstruction != nil {
		c.TaskInstruction = *u.TaskInstruction
	}
	if u.ContestType != nil {
		c.ContestType = *u.ContestType
	}
	if u.Price != nil {
		c.Price = *u.Price
	}
	if u.PrizeMoney != nil {
		c.PrizeMoney = *u.PrizeMoney
	}
	if u.ParticipationLimit != nil {
		c.ParticipationLimit = *u.ParticipationLimit
	}
	if u.Deadline != nil {
		c.Deadline = *u.Deadline
	}

	return nil
}

type ContestSort string

const (
	SortByDeadline ContestSort = "deadline"
	SortByPopular  ContestSort = "popular"
	SortByNewest   ContestSort = "newest"
)

type ContestFilter struct {
	CreatorID   uint
	ContestType string
	Search      string
	Statuses    []ContestStatus
	Sort        ContestSort
	Limit       int
	Offset      int
}

// PublicStatuses are the statuses listed to anonymous visitors.
var PublicStatuses = []ContestStatus{ContestConfirmed, ContestClosed}
