package domain

import "time"

type Participation struct {
	ID             uint       `json:"id"`
	ContestID      uint       `json:"contest_id"`
	UserID         uint       `json:"user_id"`
	PaymentID      uint       `json:"payment_id"`
	SubmissionLink string     `json:"submission_link"`
	SubmissionText string     `json:"submission_text"`
	SubmittedAt    *time.Time `json:"submitted_at"`
	CreatedAt      time.Time  `json:"created_at"`

	Contest *Contest `json:"contest,omitempty"`
	User    *User    `json:"user,omitempty"`
}

func (p Participation) HasSubmitted() bool {
	return p.SubmittedAt != nil
}

// Submit records the submission. A later call overwrites the previous one.
func (p *Participation) Submit(link, text string, now time.Time) {
	p.SubmissionLink = link
	p.SubmissionText = text
	p.SubmittedAt = &now
}

type ParticipationFilter struct {
	ContestID uint
	UserID    uint
	CreatorID uint
	Submitted bool
}
