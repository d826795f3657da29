package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayment_FlagRefund(t *testing.T) {
	p := Payment{Status: PaymentPending, Type: PaymentEntry}
	assert.False(t, p.FlagRefund())
	assert.False(t, p.NeedsRefund)

	p.Complete("txn_1")
	assert.True(t, p.FlagRefund())
	assert.True(t, p.NeedsRefund)

	// Flagging twice reports no change.
	assert.False(t, p.FlagRefund())
}

func TestPayment_CheckRedeemable(t *testing.T) {
	p := Payment{UserID: 1, ContestID: 2, Type: PaymentEntry, Status: PaymentCompleted}
	require.NoError(t, p.CheckRedeemable(1, 2, PaymentEntry))

	assert.ErrorIs(t, p.CheckRedeemable(3, 2, PaymentEntry), ErrPaymentRequired)
	assert.ErrorIs(t, p.CheckRedeemable(1, 4, PaymentEntry), ErrPaymentRequired)
	assert.ErrorIs(t, p.CheckRedeemable(1, 2, PaymentUpdate), ErrPaymentRequired)

	flagged := p
	require.True(t, flagged.FlagRefund())
	assert.ErrorIs(t, flagged.CheckRedeemable(1, 2, PaymentEntry), ErrPaymentRequired)

	redeemed := p
	redeemed.Redeem(testNow, ParticipationTarget(1))
	assert.ErrorIs(t, redeemed.CheckRedeemable(1, 2, PaymentEntry), ErrPaymentRequired)
}

func TestPayment_RefundableOnDelete(t *testing.T) {
	pending := Contest{Status: ContestPending}
	confirmed := Contest{Status: ContestConfirmed}

	entry := Payment{Type: PaymentEntry, Status: PaymentCompleted}
	entry.Redeem(testNow, ParticipationTarget(1))
	assert.True(t, entry.RefundableOnDelete(confirmed))

	creation := Payment{Type: PaymentCreation, Status: PaymentCompleted}
	assert.True(t, creation.RefundableOnDelete(pending))
	assert.False(t, creation.RefundableOnDelete(confirmed))

	update := Payment{Type: PaymentUpdate, Status: PaymentCompleted}
	assert.True(t, update.RefundableOnDelete(confirmed))
	update.Redeem(testNow, ContestTarget(1))
	assert.False(t, update.RefundableOnDelete(confirmed))

	failed := Payment{Type: PaymentEntry, Status: PaymentFailed}
	assert.False(t, failed.RefundableOnDelete(confirmed))
}

func TestPayment_Transitions(t *testing.T) {
	p := Payment{Status: PaymentPending}
	assert.False(t, p.IsTerminal())

	p.Fail(FailureDeclined)
	assert.True(t, p.IsTerminal())
	assert.Equal(t, FailureDeclined, p.FailureReason)

	p = Payment{Status: PaymentPending}
	p.Complete("pi_123")
	assert.True(t, p.IsTerminal())
	assert.Equal(t, "pi_123", p.TransactionID)
}

func TestUser_ChooseRole(t *testing.T) {
	u := User{Role: RoleUser}
	assert.ErrorIs(t, u.ChooseRole(RoleAdmin), ErrForbidden)

	require.NoError(t, u.ChooseRole(RoleCreator))
	assert.Equal(t, RoleCreator, u.Role)
	assert.True(t, u.RoleChosen)

	assert.ErrorIs(t, u.ChooseRole(RoleUser), ErrRoleAlreadyChosen)
	assert.Equal(t, RoleCreator, u.Role)
}

func TestNewUserStats(t *testing.T) {
	assert.Equal(t, UserStats{UserID: 1}, NewUserStats(1, 0, 0))
	assert.InDelta(t, 0.25, NewUserStats(1, 4, 1).WinRate, 1e-9)
}
