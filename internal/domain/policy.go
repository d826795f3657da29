package domain

type Action string

const (
	ActionCreateContest   Action = "contest:create"
	ActionEditContest     Action = "contest:edit"
	ActionDeleteContest   Action = "contest:delete"
	ActionApproveContest  Action = "contest:approve"
	ActionDeclareWinner   Action = "contest:declare_winner"
	ActionViewSubmissions Action = "contest:view_submissions"
	ActionViewContest     Action = "contest:view"
	ActionListAllContests Action = "contest:list_all"
	ActionPayCreationFee  Action = "payment:creation"
	ActionPayUpdateFee    Action = "payment:update"
	ActionPayEntryFee     Action = "payment:entry"
	ActionConfirmPayment  Action = "payment:confirm"
	ActionViewPayment     Action = "payment:view"
	ActionListAllPayments Action = "payment:list_all"
	ActionRegister        Action = "participation:register"
	ActionSubmit          Action = "participation:submit"
	ActionChangeRole      Action = "user:change_role"
	ActionDeleteUser      Action = "user:delete"
	ActionListUsers       Action = "user:list"
	ActionListReceived    Action = "participation:list_received"
)

// Subject describes the record an action targets. OwnerID is the contest
// creator for contest actions, and the payer or participant otherwise.
type Subject struct {
	OwnerID           uint
	ContestStatus     ContestStatus
	ParticipantsCount int
}

func ContestSubject(c Contest) Subject {
	return Subject{
		OwnerID:           c.CreatorID,
		ContestStatus:     c.Status,
		ParticipantsCount: c.ParticipantsCount,
	}
}

func ParticipationSubject(p Participation) Subject {
	return Subject{OwnerID: p.UserID}
}

func PaymentSubject(p Payment) Subject {
	return Subject{OwnerID: p.UserID}
}

func PayAction(t PaymentType) Action {
	switch t {
	case PaymentCreation:
		return ActionPayCreationFee
	case PaymentUpdate:
		return ActionPayUpdateFee
	default:
		return ActionPayEntryFee
	}
}

// CanPerform is the single authorization rule set. It depends only on its
// arguments so the server and clients evaluate it identically.
func CanPerform(role Role, actorID uint, action Action, subject Subject) bool {
	if actorID == 0 {
		return false
	}
	owns := subject.OwnerID == actorID

	switch role {
	case RoleAdmin:
		return canAdmin(action, owns)
	case RoleCreator:
		return canCreator(action, owns, subject)
	case RoleUser:
		return canUser(action, owns)
	}

	return false
}

func canAdmin(action Action, owns bool) bool {
	switch action {
	case ActionApproveContest, ActionDeleteContest, ActionViewSubmissions, ActionViewContest,
		ActionListAllContests, ActionListAllPayments, ActionViewPayment,
		ActionChangeRole, ActionDeleteUser, ActionListUsers:
		return true
	case ActionConfirmPayment:
		return owns
	}

	return false
}

func canCreator(action Action, owns bool, subject Subject) bool {
	switch action {
	case ActionCreateContest, ActionListReceived:
		return true
	case ActionEditContest, ActionPayCreationFee, ActionPayUpdateFee, ActionDeclareWinner,
		ActionViewSubmissions, ActionViewContest, ActionConfirmPayment, ActionViewPayment:
		return owns
	case ActionDeleteContest:
		if !owns {
			return false
		}
		switch subject.ContestStatus {
		case ContestPending:
			return true
		case ContestConfirmed:
			return subject.ParticipantsCount == 0
		}
	}

	return false
}

func canUser(action Action, owns bool) bool {
	switch action {
	case ActionPayEntryFee, ActionRegister:
		return !owns
	case ActionSubmit, ActionConfirmPayment, ActionViewPayment:
		return owns
	}

	return false
}
