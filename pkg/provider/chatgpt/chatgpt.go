// Package chatgpt implements provider.Provider for the ChatGPT web UI.
package chatgpt

import (
	"context"
	"time"

	"github.com/entrhq/llmsession/pkg/browser"
	"github.com/entrhq/llmsession/pkg/logging"
	"github.com/entrhq/llmsession/pkg/provider"
	"github.com/entrhq/llmsession/pkg/types"
	"github.com/gobwas/glob"
)

// Provider drives chatgpt.com through a single browser page.
type Provider struct {
	page      browser.Page
	opts      Options
	onOTP     provider.OTPFunc
	logger    *logging.Logger
	authHosts []glob.Glob

	// clock, replaced in tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	lastResponse string
}

var _ provider.Provider = (*Provider)(nil)

// New binds a provider to page. cfg is the automator's free-form config map
// (see ParseOptions); onOTP may be nil.
func New(page browser.Page, cfg map[string]any, onOTP provider.OTPFunc, logger *logging.Logger) (*Provider, error) {
	if page == nil {
		return nil, types.NewSetupError("chatgpt", "browser page is required")
	}

	opts, err := ParseOptions(cfg)
	if err != nil {
		return nil, types.WrapSetupError("chatgpt", "invalid provider config", err)
	}
	return NewWithOptions(page, opts, onOTP, logger)
}

// NewWithOptions binds a provider to page with explicit options.
func NewWithOptions(page browser.Page, opts Options, onOTP provider.OTPFunc, logger *logging.Logger) (*Provider, error) {
	if page == nil {
		return nil, types.NewSetupError("chatgpt", "browser page is required")
	}
	if logger == nil {
		logger = logging.Discard(Name)
	}

	opts = opts.withDefaults()
	authHosts, err := compileAuthHosts(opts.AuthHosts)
	if err != nil {
		return nil, types.WrapSetupError("chatgpt", "invalid provider config", err)
	}

	return &Provider{
		page:      page,
		opts:      opts,
		onOTP:     onOTP,
		logger:    logger,
		authHosts: authHosts,
		now:       time.Now,
		sleep:     sleepContext,
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return Name
}

// URL returns the chat home page.
func (p *Provider) URL() string {
	return p.opts.URL
}

// ProfileSelector returns the selector of the signed-in profile menu.
func (p *Provider) ProfileSelector() string {
	return p.opts.Selectors.ProfileButton
}

// Options returns the effective options.
func (p *Provider) Options() Options {
	return p.opts
}

// onAuthHost reports whether the page is on an identity-provider page.
func (p *Provider) onAuthHost() bool {
	url := p.page.URL()
	for _, g := range p.authHosts {
		if g.Match(url) {
			return true
		}
	}
	return false
}

// visible reports whether selector is visible, treating query errors as
// not visible.
func (p *Provider) visible(selector string) bool {
	ok, err := p.page.IsVisible(selector)
	if err != nil {
		p.logger.Debugf("Visibility check for %q failed: %v", selector, err)
		return false
	}
	return ok
}

func ms(d time.Duration) float64 {
	return float64(d.Milliseconds())
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
