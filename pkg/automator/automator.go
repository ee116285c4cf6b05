package automator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/entrhq/llmsession/pkg/browser"
	"github.com/entrhq/llmsession/pkg/chain"
	"github.com/entrhq/llmsession/pkg/config"
	"github.com/entrhq/llmsession/pkg/logging"
	"github.com/entrhq/llmsession/pkg/provider"
	"github.com/entrhq/llmsession/pkg/types"
)

// Automator is an authenticated chat session. It is not safe for concurrent
// use; prompts are processed one at a time.
type Automator struct {
	opts     Options
	manager  SessionManager
	provider provider.Provider
	logger   *logging.Logger

	closeOnce sync.Once
	closeErr  error
}

// New starts the browser, signs in when needed and returns a ready
// automator. On failure the browser is stopped and nil is returned. An
// *types.OTPRequiredError is returned as is when the login asks for a code
// and opts.OnOTPRequired is nil; every other setup failure is a
// *types.SetupError.
func New(ctx context.Context, opts Options, options ...Option) (*Automator, error) {
	s := settings{factory: DefaultProviderFactory}
	for _, o := range options {
		o(&s)
	}
	if s.env == nil {
		s.env = config.FromOS()
	}
	if s.logger == nil {
		s.logger = logging.Discard("automator")
	}
	if s.manager == nil {
		s.manager = browser.NewSessionManager(s.logger.With("browser"))
	}
	if opts.Provider == "" {
		opts.Provider = config.DefaultProvider
	}
	opts.Config = copyConfig(opts.Config)

	a := &Automator{
		opts:    opts,
		manager: s.manager,
		logger:  s.logger,
	}

	if err := a.setup(ctx, s); err != nil {
		if stopErr := s.manager.Stop(); stopErr != nil {
			a.logger.Warnf("Failed to stop browser after setup error: %v", stopErr)
		}
		a.logger.Errorf("Setup failed: %v", err)
		return nil, err
	}
	return a, nil
}

func (a *Automator) setup(ctx context.Context, s settings) error {
	if err := ctx.Err(); err != nil {
		return types.WrapSetupError("start", "", err)
	}

	headless := config.ResolveHeadless(a.opts.Headless, s.env)
	a.logger.Infof("Starting %s session (headless=%t)", a.opts.Provider, headless)

	page, err := a.manager.Start(browser.SessionOptions{
		Headless:    headless,
		SessionPath: a.opts.SessionPath,
	})
	if err != nil {
		return asSetupError("start browser", err)
	}

	p, err := s.factory(a.opts.Provider, page, a.opts.Config, a.opts.OnOTPRequired, a.logger.With(a.opts.Provider))
	if err != nil {
		return asSetupError("create provider", err)
	}
	a.provider = p

	authenticated, err := a.manager.IsAuthenticated(p.URL(), p.ProfileSelector())
	if err != nil {
		return asSetupError("check authentication", err)
	}

	if authenticated {
		a.logger.Infof("Existing %s session is signed in", p.Name())
		return nil
	}

	if err := a.login(ctx, s.env); err != nil {
		return err
	}

	// only a fresh login changes what is worth persisting
	if a.opts.SessionPath != "" {
		if err := a.manager.SaveSession(a.opts.SessionPath); err != nil {
			return asSetupError("save session", err)
		}
		a.logger.Debugf("Session saved to %s", a.opts.SessionPath)
	}
	return nil
}

func (a *Automator) login(ctx context.Context, env config.Environment) error {
	creds := config.ResolveCredentials(a.opts.Provider, a.opts.Credentials, env)
	if !creds.Complete() {
		emailKey, passwordKey, _ := config.CredentialEnvVars(a.opts.Provider)
		return types.NewSetupError("login", fmt.Sprintf(
			"not signed in and no credentials available; set %s and %s or pass credentials",
			emailKey, passwordKey))
	}

	a.logger.Infof("Not signed in, logging in to %s (%s)", a.provider.Name(), creds.Method)
	if err := a.provider.Login(ctx, creds); err != nil {
		if types.IsOTPRequired(err) {
			return err
		}
		return asSetupError("login", err)
	}
	return nil
}

// ProcessPrompt sends prompt and returns the response.
func (a *Automator) ProcessPrompt(ctx context.Context, prompt string) (string, error) {
	if a == nil || a.provider == nil {
		return "", types.WrapSetupError("process prompt", "", types.ErrNotInitialized)
	}
	return a.provider.SendPrompt(ctx, prompt)
}

// ProcessChain sends each item in order, rendering it against the previous
// response (empty for the first). On error the responses collected so far
// are returned with it.
func (a *Automator) ProcessChain(ctx context.Context, items []chain.Item) ([]string, error) {
	if a == nil || a.provider == nil {
		return nil, types.WrapSetupError("process chain", "", types.ErrNotInitialized)
	}

	responses := make([]string, 0, len(items))
	last := ""
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return responses, err
		}
		a.logger.Infof("Processing prompt %d/%d", i+1, len(items))

		response, err := a.ProcessPrompt(ctx, item.Render(last))
		if err != nil {
			return responses, fmt.Errorf("prompt %d: %w", i+1, err)
		}
		responses = append(responses, response)
		last = response
	}
	return responses, nil
}

// Close stops the browser. Calling it again is a no-op.
func (a *Automator) Close() error {
	if a == nil || a.manager == nil {
		return nil
	}
	a.closeOnce.Do(func() {
		a.closeErr = a.manager.Stop()
		if a.closeErr != nil {
			a.logger.Warnf("Failed to stop browser: %v", a.closeErr)
		}
	})
	return a.closeErr
}

func asSetupError(op string, err error) error {
	var setupErr *types.SetupError
	if errors.As(err, &setupErr) {
		return err
	}
	return types.WrapSetupError(op, "", err)
}

func copyConfig(cfg map[string]any) map[string]any {
	if cfg == nil {
		return nil
	}
	out := make(map[string]any, len(cfg))
	for k, v := range cfg {
		out[k] = v
	}
	return out
}
