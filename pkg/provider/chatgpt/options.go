package chatgpt

import (
	"fmt"
	"math"
	"time"

	"github.com/gobwas/glob"
)

// Name is the provider identifier used for lookup and env var prefixes.
const Name = "chatgpt"

// DefaultURL is the chat UI home page.
const DefaultURL = "https://chatgpt.com"

// Default timings
const (
	DefaultLoginTimeout     = 60 * time.Second
	DefaultResponseTimeout  = 120 * time.Second
	DefaultStabilityTimeout = 10 * time.Second
	DefaultInputTimeout     = 30 * time.Second
	DefaultPollInterval     = 500 * time.Millisecond
	DefaultMaxOTPAttempts   = 3
)

// DefaultAuthHosts match identity-provider pages visited during login.
var DefaultAuthHosts = []string{
	"https://auth.openai.com/**",
	"https://auth0.openai.com/**",
	"https://accounts.google.com/**",
}

// Selectors locate the UI elements the provider interacts with.
type Selectors struct {
	ProfileButton  string
	LoginButton    string
	EmailInput     string
	PasswordInput  string
	ContinueButton string
	OTPInput       string
	OTPError       string

	GoogleButton        string
	GoogleEmailInput    string
	GoogleEmailNext     string
	GooglePasswordInput string
	GooglePasswordNext  string

	PromptInput      string
	SendButton       string
	StopButton       string
	AssistantMessage string
	CopyButton       string
}

// DefaultSelectors returns the selectors for the current ChatGPT web UI.
func DefaultSelectors() Selectors {
	return Selectors{
		ProfileButton:  `[data-testid="profile-button"]`,
		LoginButton:    `[data-testid="login-button"]`,
		EmailInput:     `input[name="email"], input[type="email"]`,
		PasswordInput:  `input[name="password"], input[type="password"]`,
		ContinueButton: `button[type="submit"]`,
		OTPInput:       `input[name="code"], input[autocomplete="one-time-code"]`,
		OTPError:       `[role="alert"], [data-error="true"]`,

		GoogleButton:        `button:has-text("Continue with Google")`,
		GoogleEmailInput:    `input#identifierId`,
		GoogleEmailNext:     `#identifierNext button, #identifierNext`,
		GooglePasswordInput: `input[name="Passwd"]`,
		GooglePasswordNext:  `#passwordNext button, #passwordNext`,

		PromptInput:      `#prompt-textarea`,
		SendButton:       `[data-testid="send-button"]`,
		StopButton:       `[data-testid="stop-button"]`,
		AssistantMessage: `[data-message-author-role="assistant"]`,
		CopyButton:       `[data-testid="copy-turn-action-button"]`,
	}
}

// selectorKeys maps config keys under "selectors" to fields.
func (s *Selectors) selectorKeys() map[string]*string {
	return map[string]*string{
		"profile_button":        &s.ProfileButton,
		"login_button":          &s.LoginButton,
		"email_input":           &s.EmailInput,
		"password_input":        &s.PasswordInput,
		"continue_button":       &s.ContinueButton,
		"otp_input":             &s.OTPInput,
		"otp_error":             &s.OTPError,
		"google_button":         &s.GoogleButton,
		"google_email_input":    &s.GoogleEmailInput,
		"google_email_next":     &s.GoogleEmailNext,
		"google_password_input": &s.GooglePasswordInput,
		"google_password_next":  &s.GooglePasswordNext,
		"prompt_input":          &s.PromptInput,
		"send_button":           &s.SendButton,
		"stop_button":           &s.StopButton,
		"assistant_message":     &s.AssistantMessage,
		"copy_button":           &s.CopyButton,
	}
}

// Options configures the provider. Zero values are replaced by defaults.
type Options struct {
	URL              string
	Selectors        Selectors
	LoginTimeout     time.Duration
	ResponseTimeout  time.Duration
	StabilityTimeout time.Duration
	InputTimeout     time.Duration
	PollInterval     time.Duration
	MaxOTPAttempts   int
	AuthHosts        []string
}

// DefaultOptions returns options with every default applied.
func DefaultOptions() Options {
	return Options{
		URL:              DefaultURL,
		Selectors:        DefaultSelectors(),
		LoginTimeout:     DefaultLoginTimeout,
		ResponseTimeout:  DefaultResponseTimeout,
		StabilityTimeout: DefaultStabilityTimeout,
		InputTimeout:     DefaultInputTimeout,
		PollInterval:     DefaultPollInterval,
		MaxOTPAttempts:   DefaultMaxOTPAttempts,
		AuthHosts:        append([]string(nil), DefaultAuthHosts...),
	}
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.URL == "" {
		o.URL = def.URL
	}
	defSel := def.Selectors
	fields, defaults := o.Selectors.selectorKeys(), defSel.selectorKeys()
	for key, dst := range fields {
		if *dst == "" {
			*dst = *defaults[key]
		}
	}
	if o.LoginTimeout <= 0 {
		o.LoginTimeout = def.LoginTimeout
	}
	if o.ResponseTimeout <= 0 {
		o.ResponseTimeout = def.ResponseTimeout
	}
	if o.StabilityTimeout <= 0 {
		o.StabilityTimeout = def.StabilityTimeout
	}
	if o.InputTimeout <= 0 {
		o.InputTimeout = def.InputTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = def.PollInterval
	}
	if o.MaxOTPAttempts <= 0 {
		o.MaxOTPAttempts = def.MaxOTPAttempts
	}
	if o.AuthHosts == nil {
		o.AuthHosts = def.AuthHosts
	}
	return o
}

// ParseOptions builds Options from the free-form automator config map.
//
// Recognised keys: url, login_timeout, response_timeout, stability_timeout,
// input_timeout, poll_interval (duration strings like "90s" or numbers of
// seconds), max_otp_attempts, auth_hosts (list of globs) and selectors (map
// of selector name to CSS selector). Unknown keys are ignored.
func ParseOptions(cfg map[string]any) (Options, error) {
	opts := DefaultOptions()

	if v, ok := cfg["url"]; ok {
		s, ok := v.(string)
		if !ok || s == "" {
			return opts, fmt.Errorf("url must be a non-empty string")
		}
		opts.URL = s
	}

	durations := map[string]*time.Duration{
		"login_timeout":     &opts.LoginTimeout,
		"response_timeout":  &opts.ResponseTimeout,
		"stability_timeout": &opts.StabilityTimeout,
		"input_timeout":     &opts.InputTimeout,
		"poll_interval":     &opts.PollInterval,
	}
	for key, dst := range durations {
		v, ok := cfg[key]
		if !ok {
			continue
		}
		d, err := parseDuration(v)
		if err != nil {
			return opts, fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}

	if v, ok := cfg["max_otp_attempts"]; ok {
		n, ok := wholeNumber(v)
		if !ok || n < 1 {
			return opts, fmt.Errorf("max_otp_attempts must be a positive integer")
		}
		opts.MaxOTPAttempts = n
	}

	if v, ok := cfg["auth_hosts"]; ok {
		hosts, err := stringList(v)
		if err != nil {
			return opts, fmt.Errorf("auth_hosts: %w", err)
		}
		opts.AuthHosts = hosts
	}

	if v, ok := cfg["selectors"]; ok {
		overrides, ok := v.(map[string]any)
		if !ok {
			return opts, fmt.Errorf("selectors must be a map")
		}
		fields := opts.Selectors.selectorKeys()
		for key, raw := range overrides {
			dst, known := fields[key]
			if !known {
				return opts, fmt.Errorf("unknown selector %q", key)
			}
			s, ok := raw.(string)
			if !ok || s == "" {
				return opts, fmt.Errorf("selector %q must be a non-empty string", key)
			}
			*dst = s
		}
	}

	return opts, nil
}

// compileAuthHosts compiles the auth host globs with '/' as separator so
// "**" spans path segments.
func compileAuthHosts(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid auth host pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func parseDuration(v any) (time.Duration, error) {
	var d time.Duration
	switch val := v.(type) {
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return 0, err
		}
		d = parsed
	case int:
		d = time.Duration(val) * time.Second
	case float64:
		d = time.Duration(val * float64(time.Second))
	case time.Duration:
		d = val
	default:
		return 0, fmt.Errorf("unsupported duration value %v (%T)", v, v)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive")
	}
	return d, nil
}

// wholeNumber accepts ints and integral floats (JSON numbers decode as
// float64).
func wholeNumber(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

func stringList(v any) ([]string, error) {
	switch val := v.(type) {
	case []string:
		return val, nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list of strings, got %T", v)
	}
}
