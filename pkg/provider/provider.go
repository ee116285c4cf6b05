// Package provider defines the capability set a chat web UI adapter offers
// (sign in, send a prompt) and the login state machine shared by adapters.
package provider

import (
	"context"

	"github.com/entrhq/llmsession/pkg/types"
)

// OTPFunc returns a one-time passcode. It is called synchronously while the
// login form waits for the code.
type OTPFunc func() (string, error)

// Provider drives one chat web UI through a bound browser page.
type Provider interface {
	// Name returns the provider identifier, e.g. "chatgpt"
	Name() string

	// URL is the page the session manager loads for the auth check
	URL() string

	// ProfileSelector matches an element that only exists when signed in
	ProfileSelector() string

	// Login signs in with creds, calling the OTP callback if challenged
	Login(ctx context.Context, creds types.Credentials) error

	// SendPrompt submits text and returns the assistant's response
	SendPrompt(ctx context.Context, text string) (string, error)
}
