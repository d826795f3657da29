package contestclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Injamhossan/contest-arena/internal/domain"
)

const mineParticipationsPath = "/participations/mine"

// Enrollment is the refetched state after a registration.
type Enrollment struct {
	Participation Participation
	Contest       ContestView
}

// Register consumes a completed entry payment. The contest is revalidated
// by the server; capacity or deadline losses come back as named errors.
func (c *Client) Register(ctx context.Context, contest Contest, paymentID uint) (Enrollment, error) {
	if _, err := c.authorize(domain.ActionRegister, domain.ContestSubject(contest)); err != nil {
		return Enrollment{}, err
	}
	release, err := c.begin(domain.ActionRegister, contest.ID)
	if err != nil {
		return Enrollment{}, err
	}
	defer release()

	landed := func(ctx context.Context) (bool, error) {
		_, err := c.findMine(ctx, contest.ID)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, ErrNotFound):
			return false, nil
		}
		return false, err
	}

	path := fmt.Sprintf("/contests/%d/participations", contest.ID)
	if err := c.write(ctx, http.MethodPost, path, map[string]uint{"payment_id": paymentID}, nil, landed); err != nil {
		return Enrollment{}, err
	}
	c.forget(mineParticipationsPath, contestPath(contest.ID))

	participation, err := c.findMine(ctx, contest.ID)
	if err != nil {
		return Enrollment{}, err
	}
	view, err := c.Contest(ctx, contest.ID)
	if err != nil {
		return Enrollment{}, err
	}

	return Enrollment{Participation: participation, Contest: view}, nil
}

// Enter is the whole entry flow: pay the entry fee, then register with the
// completed payment. When the payment completed but registration failed
// the error is a *PartialSuccessError.
func (c *Client) Enter(ctx context.Context, contest Contest, payer PayerConfirm) (Enrollment, error) {
	if _, err := c.authorize(domain.ActionRegister, domain.ContestSubject(contest)); err != nil {
		return Enrollment{}, err
	}

	payment, err := c.Pay(ctx, contest, PaymentEntry, payer)
	if err != nil {
		return Enrollment{}, err
	}

	enrollment, err := c.Register(ctx, contest, payment.ID)
	if err != nil {
		return Enrollment{}, &PartialSuccessError{PaymentID: payment.ID, Err: err}
	}

	return enrollment, nil
}

// Submit records or replaces the submission of the caller's participation.
func (c *Client) Submit(ctx context.Context, participation Participation, link, text string) (Participation, error) {
	if _, err := c.authorize(domain.ActionSubmit, domain.ParticipationSubject(participation)); err != nil {
		return Participation{}, err
	}
	release, err := c.begin(domain.ActionSubmit, participation.ID)
	if err != nil {
		return Participation{}, err
	}
	defer release()

	path := fmt.Sprintf("/participations/%d/submission", participation.ID)
	body := map[string]string{"submission_link": link, "submission_text": text}
	if err := c.do(ctx, http.MethodPatch, path, body, nil); err != nil {
		return Participation{}, err
	}
	c.forget(mineParticipationsPath)

	return c.findMine(ctx, participation.ContestID)
}

func (c *Client) MyParticipations(ctx context.Context) ([]Participation, error) {
	var participations []Participation
	err := c.get(ctx, mineParticipationsPath, &participations)

	return participations, err
}

func (c *Client) ReceivedParticipations(ctx context.Context) ([]Participation, error) {
	if _, err := c.authorize(domain.ActionListReceived, domain.Subject{}); err != nil {
		return nil, err
	}

	var participations []Participation
	err := c.get(ctx, "/participations/received", &participations)

	return participations, err
}

func (c *Client) WinnerCandidates(ctx context.Context, contest Contest) ([]Participation, error) {
	if _, err := c.authorize(domain.ActionViewSubmissions, domain.ContestSubject(contest)); err != nil {
		return nil, err
	}

	var participations []Participation
	err := c.get(ctx, fmt.Sprintf("/contests/%d/winner-candidates", contest.ID), &participations)

	return participations, err
}

func (c *Client) findMine(ctx context.Context, contestID uint) (Participation, error) {
	mine, err := c.MyParticipations(ctx)
	if err != nil {
		return Participation{}, err
	}
	for _, p := range mine {
		if p.ContestID == contestID {
			return p, nil
		}
	}

	return Participation{}, fmt.Errorf("participation in contest %d: %w", contestID, ErrNotFound)
}
