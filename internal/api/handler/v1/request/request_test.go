package request

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSignupRequest_Validate(t *testing.T) {
	valid := SignupRequest{
		Email:           "a@example.com",
		Password:        "abc123!x",
		ConfirmPassword: "abc123!x",
		Name:            "A",
	}
	assert.NoError(t, valid.Validate())

	weak := valid
	weak.Password, weak.ConfirmPassword = "abcdefgh", "abcdefgh"
	assert.ErrorIs(t, weak.Validate(), errInvalidPassword)

	mismatch := valid
	mismatch.ConfirmPassword = "abc123!y"
	assert.ErrorIs(t, mismatch.Validate(), errConfirmPasswordMismatch)

	badEmail := valid
	badEmail.Email = "nope"
	assert.Error(t, badEmail.Validate())
}

func TestCreateContestRequest_Validate(t *testing.T) {
	req := CreateContestRequest{
		Name:        "Logo Design",
		Description: "Design a logo",
		ContestType: "design",
		Price:       decimal.NewFromInt(5),
		Deadline:    time.Now().Add(time.Hour),
	}
	assert.NoError(t, req.Validate())

	req.Price = decimal.NewFromInt(-1)
	assert.Error(t, req.Validate())
}

func TestSubmitRequest_Validate(t *testing.T) {
	assert.NoError(t, (&SubmitRequest{SubmissionLink: "https://example.com/work"}).Validate())
	assert.Error(t, (&SubmitRequest{SubmissionLink: "not a link"}).Validate())
	assert.Error(t, (&SubmitRequest{}).Validate())
}

func TestListContestsQuery_Filter(t *testing.T) {
	q := ListContestsQuery{Sort: "popular", Status: []string{"closed"}}
	assert.NoError(t, q.Validate())

	f := q.Filter()
	assert.Equal(t, 20, f.Limit)
	assert.Len(t, f.Statuses, 1)

	q.Sort = "random"
	assert.Error(t, q.Validate())
}
