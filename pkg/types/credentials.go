package types

import "strings"

// LoginMethod selects which branch of a provider's login form is used.
type LoginMethod string

const (
	// LoginMethodEmail signs in with the provider's own email/password form
	LoginMethodEmail LoginMethod = "email"
	// LoginMethodGoogle signs in through the "Continue with Google" flow
	LoginMethodGoogle LoginMethod = "google"
)

// Credentials holds what a provider needs to sign a user in.
type Credentials struct {
	Email       string      `yaml:"email" json:"email"`
	Password    string      `yaml:"password" json:"password"`
	Method      LoginMethod `yaml:"method" json:"method"`
	GoogleLogin bool        `yaml:"google_login" json:"google_login"`
}

// UseGoogle reports whether the federated Google login branch applies.
func (c Credentials) UseGoogle() bool {
	return c.GoogleLogin || LoginMethod(strings.ToLower(string(c.Method))) == LoginMethodGoogle
}

// Complete reports whether both email and password are set.
func (c Credentials) Complete() bool {
	return c.Email != "" && c.Password != ""
}
