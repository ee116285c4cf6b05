package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginTracker_HappyPath(t *testing.T) {
	tracker := NewLoginTracker()
	assert.Equal(t, StateUnauthenticated, tracker.State())

	require.NoError(t, tracker.Transition(StateCredentialsEntered))
	require.NoError(t, tracker.Transition(StateOTPChallenge))
	require.NoError(t, tracker.Transition(StateOTPChallenge))
	require.NoError(t, tracker.Transition(StateAuthenticated))

	assert.True(t, tracker.State().Terminal())
	assert.Equal(t, []LoginState{
		StateUnauthenticated,
		StateCredentialsEntered,
		StateOTPChallenge,
		StateOTPChallenge,
		StateAuthenticated,
	}, tracker.History())
	assert.Equal(t, "unauthenticated -> credentials_entered -> otp_challenge -> otp_challenge -> authenticated", tracker.String())
}

func TestLoginTracker_IllegalTransitions(t *testing.T) {
	tests := []struct {
		name string
		path []LoginState
		next LoginState
	}{
		{name: "skip credentials", next: StateAuthenticated},
		{name: "otp before credentials", next: StateOTPChallenge},
		{name: "leave authenticated", path: []LoginState{StateCredentialsEntered, StateAuthenticated}, next: StateOTPChallenge},
		{name: "leave failed", path: []LoginState{StateFailed}, next: StateCredentialsEntered},
		{name: "back to credentials", path: []LoginState{StateCredentialsEntered, StateOTPChallenge}, next: StateCredentialsEntered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewLoginTracker()
			for _, s := range tt.path {
				require.NoError(t, tracker.Transition(s))
			}
			before := tracker.State()
			err := tracker.Transition(tt.next)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "illegal login transition")
			assert.Equal(t, before, tracker.State())
		})
	}
}

func TestLoginTracker_Fail(t *testing.T) {
	tracker := NewLoginTracker()
	require.NoError(t, tracker.Transition(StateCredentialsEntered))
	tracker.Fail()
	assert.Equal(t, StateFailed, tracker.State())

	tracker.Fail()
	assert.Len(t, tracker.History(), 3)

	done := NewLoginTracker()
	require.NoError(t, done.Transition(StateCredentialsEntered))
	require.NoError(t, done.Transition(StateAuthenticated))
	done.Fail()
	assert.Equal(t, StateAuthenticated, done.State())
}

func TestLoginState_String(t *testing.T) {
	assert.Equal(t, "otp_challenge", StateOTPChallenge.String())
	assert.Equal(t, "unknown", LoginState(99).String())
}
