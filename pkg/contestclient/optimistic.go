package contestclient

// Optimistic is what a UI may show while a gated action is in flight. It
// is a separate type so it cannot be passed where a Contest is
// expected, and nothing in this package reads it back.
type Optimistic struct {
	ContestID         uint
	ParticipantsCount int
	Registered        bool
	Pending           bool
}

// Registering predicts the contest after the caller's registration lands.
func Registering(c Contest) Optimistic {
	return Optimistic{
		ContestID:         c.ID,
		ParticipantsCount: c.ParticipantsCount + 1,
		Registered:        true,
		Pending:           true,
	}
}

// ContestState pairs the last authoritative contest with an optional
// optimistic overlay.
type ContestState struct {
	Authoritative ContestView
	Optimistic    *Optimistic
}

// Display returns the count to render. Authorization never uses it.
func (s ContestState) Display() int {
	if s.Optimistic != nil && s.Optimistic.Pending {
		return s.Optimistic.ParticipantsCount
	}

	return s.Authoritative.ParticipantsCount
}

// Settle replaces the state with the refetched record and drops the
// overlay, whatever the overlay predicted.
func (s ContestState) Settle(view ContestView) ContestState {
	return ContestState{Authoritative: view}
}
