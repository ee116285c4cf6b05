package provider

import (
	"fmt"
	"strings"
)

// LoginState is a step of a single login attempt.
type LoginState int

const (
	StateUnauthenticated    LoginState = iota // StateUnauthenticated is the initial state.
	StateCredentialsEntered                   // StateCredentialsEntered follows submitting email and password.
	StateOTPChallenge                         // StateOTPChallenge means the UI is asking for a one-time code.
	StateAuthenticated                        // StateAuthenticated is terminal: signed in.
	StateFailed                               // StateFailed is terminal: the error went to the caller.
)

// String returns the string representation of the state.
func (s LoginState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateCredentialsEntered:
		return "credentials_entered"
	case StateOTPChallenge:
		return "otp_challenge"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are allowed.
func (s LoginState) Terminal() bool {
	return s == StateAuthenticated || s == StateFailed
}

// allowed lists the legal successors of every non-terminal state. Failed is
// reachable from anywhere non-terminal.
var allowed = map[LoginState][]LoginState{
	StateUnauthenticated:    {StateCredentialsEntered, StateFailed},
	StateCredentialsEntered: {StateOTPChallenge, StateAuthenticated, StateFailed},
	StateOTPChallenge:       {StateOTPChallenge, StateAuthenticated, StateFailed},
}

// LoginTracker records the path of one login attempt and rejects illegal
// transitions.
type LoginTracker struct {
	state   LoginState
	history []LoginState
}

// NewLoginTracker starts a tracker in StateUnauthenticated.
func NewLoginTracker() *LoginTracker {
	return &LoginTracker{
		state:   StateUnauthenticated,
		history: []LoginState{StateUnauthenticated},
	}
}

// State returns the current state.
func (t *LoginTracker) State() LoginState {
	return t.state
}

// History returns every state visited, in order.
func (t *LoginTracker) History() []LoginState {
	out := make([]LoginState, len(t.history))
	copy(out, t.history)
	return out
}

// Transition moves to next or returns an error if the move is illegal.
func (t *LoginTracker) Transition(next LoginState) error {
	for _, s := range allowed[t.state] {
		if s == next {
			t.state = next
			t.history = append(t.history, next)
			return nil
		}
	}
	return fmt.Errorf("illegal login transition %s -> %s", t.state, next)
}

// Fail moves to StateFailed unless already terminal.
func (t *LoginTracker) Fail() {
	if !t.state.Terminal() {
		t.state = StateFailed
		t.history = append(t.history, StateFailed)
	}
}

// String renders the path, e.g. "unauthenticated -> credentials_entered".
func (t *LoginTracker) String() string {
	names := make([]string, len(t.history))
	for i, s := range t.history {
		names[i] = s.String()
	}
	return strings.Join(names, " -> ")
}
