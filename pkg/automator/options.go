package automator

import (
	"strings"

	"github.com/entrhq/llmsession/pkg/browser"
	"github.com/entrhq/llmsession/pkg/config"
	"github.com/entrhq/llmsession/pkg/logging"
	"github.com/entrhq/llmsession/pkg/provider"
	"github.com/entrhq/llmsession/pkg/provider/chatgpt"
	"github.com/entrhq/llmsession/pkg/types"
)

// Options describes the session to set up. Nil Headless and Credentials are
// resolved from the environment.
type Options struct {
	Provider      string
	Headless      *bool
	Credentials   *types.Credentials
	SessionPath   string
	Config        map[string]any
	OnOTPRequired provider.OTPFunc
}

// SessionManager is the browser lifecycle the automator depends on.
// *browser.SessionManager implements it.
type SessionManager interface {
	Start(opts browser.SessionOptions) (browser.Page, error)
	IsAuthenticated(url, profileSelector string) (bool, error)
	SaveSession(path string) error
	Stop() error
}

var _ SessionManager = (*browser.SessionManager)(nil)

// ProviderFactory builds the adapter named name bound to page.
type ProviderFactory func(name string, page browser.Page, cfg map[string]any, onOTP provider.OTPFunc, logger *logging.Logger) (provider.Provider, error)

// DefaultProviderFactory knows the built-in providers.
func DefaultProviderFactory(name string, page browser.Page, cfg map[string]any, onOTP provider.OTPFunc, logger *logging.Logger) (provider.Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case chatgpt.Name:
		return chatgpt.New(page, cfg, onOTP, logger)
	default:
		return nil, types.NewSetupError("create provider", "provider "+name+" not supported")
	}
}

// Option customises the collaborators used by New.
type Option func(*settings)

type settings struct {
	manager SessionManager
	factory ProviderFactory
	env     config.Environment
	logger  *logging.Logger
}

// WithSessionManager replaces the Playwright-backed session manager.
func WithSessionManager(m SessionManager) Option {
	return func(s *settings) {
		s.manager = m
	}
}

// WithProviderFactory replaces DefaultProviderFactory.
func WithProviderFactory(f ProviderFactory) Option {
	return func(s *settings) {
		s.factory = f
	}
}

// WithEnvironment resolves credentials and headless mode from env instead
// of the process environment.
func WithEnvironment(env config.Environment) Option {
	return func(s *settings) {
		s.env = env
	}
}

// WithLogger sets the logger. Components log under derived names.
func WithLogger(l *logging.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}
