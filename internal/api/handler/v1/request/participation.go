package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

type RegisterRequest struct {
	PaymentID uint `json:"payment_id"`
}

func (req *RegisterRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.PaymentID, validation.Required),
	)
}

type SubmitRequest struct {
	SubmissionLink string `json:"submission_link"`
	SubmissionText string `json:"submission_text"`
}

func (req *SubmitRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.SubmissionLink, validation.Required, is.URL),
		validation.Field(&req.SubmissionText, validation.Length(0, 10000)),
	)
}
