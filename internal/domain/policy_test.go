package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanPerform(t *testing.T) {
	const (
		actor = uint(7)
		other = uint(9)
	)

	own := func(status ContestStatus, count int) Subject {
		return Subject{OwnerID: actor, ContestStatus: status, ParticipantsCount: count}
	}
	foreign := func(status ContestStatus, count int) Subject {
		return Subject{OwnerID: other, ContestStatus: status, ParticipantsCount: count}
	}

	tests := []struct {
		name    string
		role    Role
		action  Action
		subject Subject
		want    bool
	}{
		{"admin approves any contest", RoleAdmin, ActionApproveContest, foreign(ContestPending, 0), true},
		{"admin deletes confirmed contest with participants", RoleAdmin, ActionDeleteContest, foreign(ContestConfirmed, 3), true},
		{"admin changes roles", RoleAdmin, ActionChangeRole, Subject{OwnerID: other}, true},
		{"admin cannot create contests", RoleAdmin, ActionCreateContest, Subject{}, false},
		{"admin cannot register", RoleAdmin, ActionRegister, foreign(ContestConfirmed, 0), false},
		{"admin cannot declare winner", RoleAdmin, ActionDeclareWinner, foreign(ContestConfirmed, 1), false},

		{"creator creates contest", RoleCreator, ActionCreateContest, Subject{}, true},
		{"creator edits own contest", RoleCreator, ActionEditContest, own(ContestConfirmed, 2), true},
		{"creator cannot edit foreign contest", RoleCreator, ActionEditContest, foreign(ContestPending, 0), false},
		{"creator deletes own pending contest", RoleCreator, ActionDeleteContest, own(ContestPending, 0), true},
		{"creator deletes own empty confirmed contest", RoleCreator, ActionDeleteContest, own(ContestConfirmed, 0), true},
		{"creator cannot delete confirmed contest with participants", RoleCreator, ActionDeleteContest, own(ContestConfirmed, 1), false},
		{"creator cannot delete closed contest", RoleCreator, ActionDeleteContest, own(ContestClosed, 1), false},
		{"creator cannot approve", RoleCreator, ActionApproveContest, own(ContestPending, 0), false},
		{"creator declares winner on own contest", RoleCreator, ActionDeclareWinner, own(ContestConfirmed, 1), true},
		{"creator cannot declare winner elsewhere", RoleCreator, ActionDeclareWinner, foreign(ContestConfirmed, 1), false},
		{"creator never registers", RoleCreator, ActionRegister, foreign(ContestConfirmed, 0), false},
		{"creator never pays entry fee", RoleCreator, ActionPayEntryFee, foreign(ContestConfirmed, 0), false},
		{"creator pays own creation fee", RoleCreator, ActionPayCreationFee, own(ContestPending, 0), true},

		{"user pays entry fee", RoleUser, ActionPayEntryFee, foreign(ContestConfirmed, 0), true},
		{"user registers", RoleUser, ActionRegister, foreign(ContestConfirmed, 0), true},
		{"user cannot register for own contest", RoleUser, ActionRegister, own(ContestConfirmed, 0), false},
		{"user submits own participation", RoleUser, ActionSubmit, Subject{OwnerID: actor}, true},
		{"user cannot submit foreign participation", RoleUser, ActionSubmit, Subject{OwnerID: other}, false},
		{"user cannot create contests", RoleUser, ActionCreateContest, Subject{}, false},
		{"user cannot view submissions", RoleUser, ActionViewSubmissions, foreign(ContestConfirmed, 1), false},

		{"unknown role is denied", Role("guest"), ActionRegister, foreign(ContestConfirmed, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanPerform(tt.role, actor, tt.action, tt.subject))
		})
	}
}

func TestCanPerform_AnonymousActor(t *testing.T) {
	assert.False(t, CanPerform(RoleAdmin, 0, ActionApproveContest, Subject{OwnerID: 1}))
}

func TestSession_Authorize(t *testing.T) {
	assert.ErrorIs(t, Session{}.Authorize(ActionRegister, Subject{OwnerID: 1}), ErrUnauthorized)

	s := Session{ActorID: 2, Role: RoleUser}
	assert.NoError(t, s.Authorize(ActionRegister, Subject{OwnerID: 1}))
	assert.ErrorIs(t, s.Authorize(ActionApproveContest, Subject{OwnerID: 1}), ErrForbidden)
}
