package domain

import "errors"

// Business errors shared by the service, the API and the client library.
var (
	ErrForbidden             = errors.New("forbidden")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrNotFound              = errors.New("not found")
	ErrInvalidInput          = errors.New("invalid input")
	ErrPaymentRequired       = errors.New("payment required")
	ErrPaymentFailed         = errors.New("payment failed")
	ErrContestClosed         = errors.New("contest closed")
	ErrContestFull           = errors.New("contest full")
	ErrAlreadyRegistered     = errors.New("already registered")
	ErrNotAParticipant       = errors.New("not a participant")
	ErrWinnerAlreadyDeclared = errors.New("winner already declared")
	ErrSubmissionClosed      = errors.New("submission closed")
	ErrDeadlineNotReached    = errors.New("deadline not reached")
	ErrInvalidTransition     = errors.New("invalid transition")
	ErrRoleAlreadyChosen     = errors.New("role already chosen")
	ErrEmailExists           = errors.New("user already exists")
)

// Stable codes carried by API error bodies. Clients map them back to the
// sentinels above.
const (
	CodeForbidden             = "FORBIDDEN"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeNotFound              = "NOT_FOUND"
	CodeBadRequest            = "BAD_REQUEST"
	CodePaymentRequired       = "PAYMENT_REQUIRED"
	CodePaymentFailed         = "PAYMENT_FAILED"
	CodeContestClosed         = "CONTEST_CLOSED"
	CodeContestFull           = "CONTEST_FULL"
	CodeAlreadyRegistered     = "ALREADY_REGISTERED"
	CodeNotAParticipant       = "NOT_A_PARTICIPANT"
	CodeWinnerAlreadyDeclared = "WINNER_ALREADY_DECLARED"
	CodeSubmissionClosed      = "SUBMISSION_CLOSED"
	CodeDeadlineNotReached    = "DEADLINE_NOT_REACHED"
	CodeInvalidTransition     = "INVALID_TRANSITION"
	CodeRoleAlreadyChosen     = "ROLE_ALREADY_CHOSEN"
	CodeEmailExists           = "EMAIL_EXISTS"
	CodeUnavailable           = "UNAVAILABLE"
	CodeInternal              = "INTERNAL"
)

var codes = []struct {
	code string
	err  error
}{
	{CodeForbidden, ErrForbidden},
	{CodeUnauthorized, ErrUnauthorized},
	{CodeNotFound, ErrNotFound},
	{CodeBadRequest, ErrInvalidInput},
	{CodePaymentRequired, ErrPaymentRequired},
	{CodePaymentFailed, ErrPaymentFailed},
	{CodeContestClosed, ErrContestClosed},
	{CodeContestFull, ErrContestFull},
	{CodeAlreadyRegistered, ErrAlreadyRegistered},
	{CodeNotAParticipant, ErrNotAParticipant},
	{CodeWinnerAlreadyDeclared, ErrWinnerAlreadyDeclared},
	{CodeSubmissionClosed, ErrSubmissionClosed},
	{CodeDeadlineNotReached, ErrDeadlineNotReached},
	{CodeInvalidTransition, ErrInvalidTransition},
	{CodeRoleAlreadyChosen, ErrRoleAlreadyChosen},
	{CodeEmailExists, ErrEmailExists},
}

// ErrorCode returns the code of the first sentinel err wraps, or "" for
// errors outside the business taxonomy.
func ErrorCode(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}

	return ""
}

// ErrorFromCode is the inverse of ErrorCode. Unknown codes return nil.
func ErrorFromCode(code string) error {
	for _, c := range codes {
		if c.code == code {
			return c.err
		}
	}

	return nil
}
