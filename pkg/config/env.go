package config

import (
	"os"
	"strings"

	"github.com/entrhq/llmsession/pkg/types"
)

// HeadlessEnvVar toggles headless browsing when no explicit value is given.
const HeadlessEnvVar = "LLM_AUTOMATOR_HEADLESS"

// Environment is a snapshot of environment variables. Resolution functions
// read from a snapshot instead of the live process environment so callers
// (and tests) control exactly what is visible.
type Environment map[string]string

// FromOS captures the current process environment.
func FromOS() Environment {
	env := make(Environment)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[key] = value
	}
	return env
}

// Get returns the value for key, or def when the key is unset.
func (e Environment) Get(key, def string) string {
	if v, ok := e[key]; ok {
		return v
	}
	return def
}

// Bool reads key as a boolean. Only "true" (any case) is true; an unset key
// yields def.
func (e Environment) Bool(key string, def bool) bool {
	v, ok := e[key]
	if !ok {
		return def
	}
	return strings.EqualFold(strings.TrimSpace(v), "true")
}

// EnvPrefix returns the variable prefix used for a provider, e.g. CHATGPT.
func EnvPrefix(provider string) string {
	return strings.ToUpper(strings.TrimSpace(provider))
}

// CredentialEnvVars returns the email, password and google-login variable
// names for provider.
func CredentialEnvVars(provider string) (email, password, google string) {
	prefix := EnvPrefix(provider)
	return prefix + "_EMAIL", prefix + "_PASSWORD", prefix + "_GOOGLE_LOGIN"
}

// CredentialsFromEnv builds credentials for provider from env.
func CredentialsFromEnv(provider string, env Environment) types.Credentials {
	emailKey, passwordKey, googleKey := CredentialEnvVars(provider)

	creds := types.Credentials{
		Email:       env.Get(emailKey, ""),
		Password:    env.Get(passwordKey, ""),
		GoogleLogin: env.Bool(googleKey, false),
		Method:      types.LoginMethodEmail,
	}
	if creds.GoogleLogin {
		creds.Method = types.LoginMethodGoogle
	}
	return creds
}

// ResolveCredentials picks the credentials used for login. Explicitly
// supplied credentials win over the environment; a nil or empty explicit
// value falls through to env.
func ResolveCredentials(provider string, explicit *types.Credentials, env Environment) types.Credentials {
	if explicit != nil && *explicit != (types.Credentials{}) {
		creds := *explicit
		if creds.Method == "" {
			creds.Method = types.LoginMethodEmail
		}
		return creds
	}
	return CredentialsFromEnv(provider, env)
}

// ResolveHeadless returns the explicit headless flag when set, otherwise
// LLM_AUTOMATOR_HEADLESS (default true).
func ResolveHeadless(explicit *bool, env Environment) bool {
	if explicit != nil {
		return *explicit
	}
	return env.Bool(HeadlessEnvVar, true)
}
