package contestclient

import "github.com/Injamhossan/contest-arena/internal/domain"

// Records exchanged with the API. They alias the server types so values
// move between the two without conversion.
type (
	User             = domain.User
	UserProfile      = domain.UserProfile
	UserStats        = domain.UserStats
	LeaderboardEntry = domain.LeaderboardEntry
	Role             = domain.Role
	Session          = domain.Session

	Contest       = domain.Contest
	ContestStatus = domain.ContestStatus
	ContestUpdate = domain.ContestUpdate
	ContestSort   = domain.ContestSort
	Availability  = domain.Availability

	Participation = domain.Participation

	Payment       = domain.Payment
	PaymentType   = domain.PaymentType
	PaymentStatus = domain.PaymentStatus
)

const (
	RoleUser    = domain.RoleUser
	RoleCreator = domain.RoleCreator
	RoleAdmin   = domain.RoleAdmin

	ContestPending   = domain.ContestPending
	ContestConfirmed = domain.ContestConfirmed
	ContestClosed    = domain.ContestClosed

	SortByDeadline = domain.SortByDeadline
	SortByPopular  = domain.SortByPopular
	SortByNewest   = domain.SortByNewest

	PaymentCreation = domain.PaymentCreation
	PaymentEntry    = domain.PaymentEntry
	PaymentUpdate   = domain.PaymentUpdate

	PaymentPending   = domain.PaymentPending
	PaymentCompleted = domain.PaymentCompleted
	PaymentFailed    = domain.PaymentFailed
)

// Business errors. API failures unwrap to these, so callers outside this
// module can tell them apart with errors.Is.
var (
	ErrForbidden             = domain.ErrForbidden
	ErrUnauthorized          = domain.ErrUnauthorized
	ErrNotFound              = domain.ErrNotFound
	ErrInvalidInput          = domain.ErrInvalidInput
	ErrPaymentRequired       = domain.ErrPaymentRequired
	ErrPaymentFailed         = domain.ErrPaymentFailed
	ErrContestClosed         = domain.ErrContestClosed
	ErrContestFull           = domain.ErrContestFull
	ErrAlreadyRegistered     = domain.ErrAlreadyRegistered
	ErrNotAParticipant       = domain.ErrNotAParticipant
	ErrWinnerAlreadyDeclared = domain.ErrWinnerAlreadyDeclared
	ErrSubmissionClosed      = domain.ErrSubmissionClosed
	ErrDeadlineNotReached    = domain.ErrDeadlineNotReached
	ErrInvalidTransition     = domain.ErrInvalidTransition
	ErrRoleAlreadyChosen     = domain.ErrRoleAlreadyChosen
	ErrEmailExists           = domain.ErrEmailExists
)
