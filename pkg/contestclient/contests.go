package contestclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Injamhossan/contest-arena/internal/domain"
)

// ContestView is a contest as the server returned it. Availability is
// advisory and never used for authorization.
type ContestView struct {
	Contest

	Availability Availability `json:"availability"`
}

type ContestPage struct {
	Items []ContestView `json:"items"`
	Total int64         `json:"total"`
}

type ContestQuery struct {
	Type   string
	Search string
	Sort   ContestSort
	Status []ContestStatus
	Limit  int
	Offset int
}

func (q ContestQuery) encode() string {
	v := url.Values{}
	if q.Type != "" {
		v.Set("type", q.Type)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Sort != "" {
		v.Set("sort", string(q.Sort))
	}
	for _, st := range q.Status {
		v.Add("status", string(st))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	if len(v) == 0 {
		return ""
	}

	return "?" + v.Encode()
}

func contestPath(id uint) string {
	return fmt.Sprintf("/contests/%d", id)
}

func (c *Client) Contest(ctx context.Context, id uint) (ContestView, error) {
	var view ContestView
	err := c.get(ctx, contestPath(id), &view)

	return view, err
}

func (c *Client) Contests(ctx context.Context, q ContestQuery) (ContestPage, error) {
	var page ContestPage
	err := c.get(ctx, "/contests"+q.encode(), &page)

	return page, err
}

func (c *Client) PopularContests(ctx context.Context) ([]ContestView, error) {
	var page ContestPage
	err := c.get(ctx, "/contests/popular", &page)

	return page.Items, err
}

func (c *Client) MyContests(ctx context.Context, q ContestQuery) (ContestPage, error) {
	if _, err := c.authorize(domain.ActionCreateContest, domain.Subject{}); err != nil {
		return ContestPage{}, err
	}

	var page ContestPage
	err := c.get(ctx, "/contests/mine"+q.encode(), &page)

	return page, err
}

type contestBody struct {
	Name               string          `json:"name"`
	Image              string          `json:"image,omitempty"`
	Description        string          `json:"description"`
	TaskInstruction    string          `json:"task_instruction,omitempty"`
	ContestType        string          `json:"contest_type"`
	Price              decimal.Decimal `json:"price"`
	PrizeMoney         decimal.Decimal `json:"prize_money"`
	ParticipationLimit int             `json:"participation_limit"`
	Deadline           time.Time       `json:"deadline"`
}

// CreateContest creates a pending contest owned by the caller.
func (c *Client) CreateContest(ctx context.Context, contest Contest) (ContestView, error) {
	sess, err := c.authorize(domain.ActionCreateContest, domain.Subject{})
	if err != nil {
		return ContestView{}, err
	}
	release, err := c.begin(domain.ActionCreateContest, sess.ActorID)
	if err != nil {
		return ContestView{}, err
	}
	defer release()

	var created Contest
	err = c.do(ctx, http.MethodPost, "/contests", contestBody{
		Name:               contest.Name,
		Image:              contest.Image,
		Description:        contest.Description,
		TaskInstruction:    contest.TaskInstruction,
		ContestType:        contest.ContestType,
		Price:              contest.Price,
		PrizeMoney:         contest.PrizeMoney,
		ParticipationLimit: contest.ParticipationLimit,
		Deadline:           contest.Deadline,
	}, &created)
	if err != nil {
		return ContestView{}, err
	}

	return c.Contest(ctx, created.ID)
}

// UpdateContest edits a contest. Editing a confirmed contest needs a
// completed update payment, see Pay.
func (c *Client) UpdateContest(ctx context.Context, contest Contest, update ContestUpdate) (ContestView, error) {
	if _, err := c.authorize(domain.ActionEditContest, domain.ContestSubject(contest)); err != nil {
		return ContestView{}, err
	}
	release, err := c.begin(domain.ActionEditContest, contest.ID)
	if err != nil {
		return ContestView{}, err
	}
	defer release()

	body := map[string]any{}
	setIf := func(key string, ok bool, v any) {
		if ok {
			body[key] = v
		}
	}
	setIf("name", update.Name != nil, update.Name)
	setIf("image", update.Image != nil, update.Image)
	setIf("description", update.Description != nil, update.Description)
	setIf("task_instruction", update.TaskInstruction != nil, update.TaskInstruction)
	setIf("contest_type", update.ContestType != nil, update.ContestType)
	setIf("price", update.Price != nil, update.Price)
	setIf("prize_money", update.PrizeMoney != nil, update.PrizeMoney)
	setIf("participation_limit", update.ParticipationLimit != nil, update.ParticipationLimit)
	setIf("deadline", update.Deadline != nil, update.Deadline)

	if err := c.do(ctx, http.MethodPut, contestPath(contest.ID), body, nil); err != nil {
		return ContestView{}, err
	}
	c.forget(contestPath(contest.ID))

	return c.Contest(ctx, contest.ID)
}

func (c *Client) ApproveContest(ctx context.Context, contest Contest) (ContestView, error) {
	if _, err := c.authorize(domain.ActionApproveContest, domain.ContestSubject(contest)); err != nil {
		return ContestView{}, err
	}
	release, err := c.begin(domain.ActionApproveContest, contest.ID)
	if err != nil {
		return ContestView{}, err
	}
	defer release()

	path := fmt.Sprintf("/contests/%d/status", contest.ID)
	if err := c.do(ctx, http.MethodPatch, path, map[string]string{"status": string(ContestConfirmed)}, nil); err != nil {
		return ContestView{}, err
	}
	c.forget(contestPath(contest.ID))

	return c.Contest(ctx, contest.ID)
}

func (c *Client) DeleteContest(ctx context.Context, contest Contest) error {
	if _, err := c.authorize(domain.ActionDeleteContest, domain.ContestSubject(contest)); err != nil {
		return err
	}
	release, err := c.begin(domain.ActionDeleteContest, contest.ID)
	if err != nil {
		return err
	}
	defer release()

	return c.do(ctx, http.MethodDelete, contestPath(contest.ID), nil, nil)
}

// DeclareWinner closes the contest. A transient failure is resolved by
// reading the contest back before the single retry.
func (c *Client) DeclareWinner(ctx context.Context, contest Contest, winnerUserID uint) (ContestView, error) {
	if _, err := c.authorize(domain.ActionDeclareWinner, domain.ContestSubject(contest)); err != nil {
		return ContestView{}, err
	}
	release, err := c.begin(domain.ActionDeclareWinner, contest.ID)
	if err != nil {
		return ContestView{}, err
	}
	defer release()

	landed := func(ctx context.Context) (bool, error) {
		current, err := c.Contest(ctx, contest.ID)
		if err != nil {
			return false, err
		}
		switch {
		case current.WinnerUserID == nil:
			return false, nil
		case *current.WinnerUserID == winnerUserID:
			return true, nil
		}
		return false, ErrWinnerAlreadyDeclared
	}

	path := fmt.Sprintf("/contests/%d/winner", contest.ID)
	err = c.write(ctx, http.MethodPatch, path, map[string]uint{"winner_user_id": winnerUserID}, nil, landed)
	if err != nil {
		return ContestView{}, err
	}
	c.forget(contestPath(contest.ID))

	return c.Contest(ctx, contest.ID)
}
