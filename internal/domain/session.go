package domain

// Session identifies the actor behind a gated call. It is passed explicitly
// to every operation instead of being read from ambient state.
type Session struct {
	ActorID uint   `json:"actor_id"`
	Role    Role   `json:"role"`
	Token   string `json:"-"`
}

func NewSession(u User, token string) Session {
	return Session{ActorID: u.ID, Role: u.Role, Token: token}
}

func (s Session) IsZero() bool {
	return s.ActorID == 0
}

func (s Session) Can(action Action, subject Subject) bool {
	return CanPerform(s.Role, s.ActorID, action, subject)
}

// Authorize returns ErrForbidden when the session may not perform action.
func (s Session) Authorize(action Action, subject Subject) error {
	if s.IsZero() {
		return ErrUnauthorized
	}
	if !s.Can(action, subject) {
		return ErrForbidden
	}

	return nil
}

// Change notifies listeners that a record was modified and should be
// refetched. It never carries the record itself.
type Change struct {
	Subject string `json:"subject"`
	ID      uint   `json:"id"`
	Kind    string `json:"kind"`
}

const (
	SubjectContest       = "contest"
	SubjectParticipation = "participation"
	SubjectPayment       = "payment"
	SubjectUser          = "user"
)
