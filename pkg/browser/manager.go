package browser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/entrhq/llmsession/pkg/logging"
	"github.com/entrhq/llmsession/pkg/types"
	"github.com/playwright-community/playwright-go"
)

// SessionManager owns the Playwright driver and at most one browser session.
type SessionManager struct {
	mu          sync.Mutex
	playwright  *playwright.Playwright
	session     *Session
	initialized bool
	logger      *logging.Logger
	authTimeout float64
}

// NewSessionManager creates a new session manager.
func NewSessionManager(logger *logging.Logger) *SessionManager {
	if logger == nil {
		logger = logging.Discard("browser")
	}
	return &SessionManager{
		logger:      logger,
		authTimeout: DefaultAuthCheckTimeout,
	}
}

// SetAuthCheckTimeout sets how long IsAuthenticated waits for the profile
// selector.
func (m *SessionManager) SetAuthCheckTimeout(timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authTimeout = float64(timeout.Milliseconds())
}

// initialize installs (if needed) and starts the Playwright driver; the
// caller holds mu.
func (m *SessionManager) initialize() error {
	if m.initialized {
		return nil
	}

	// Keep driver output off the terminal; the CLI prints responses to stdout
	opts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	m.playwright = pw
	m.initialized = true
	return nil
}

// Start launches Chromium and opens a single page. When opts.SessionPath
// names an existing file, its cookies and storage are loaded into the new
// context. Clipboard access is granted on the context. Every failure is a
// *types.SetupError and leaves nothing running.
func (m *SessionManager) Start(opts SessionOptions) (Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		return nil, types.NewSetupError("start browser", "session already started")
	}

	if err := m.initialize(); err != nil {
		return nil, types.WrapSetupError("start browser", "", err)
	}

	if opts.Viewport == nil {
		opts.Viewport = &Viewport{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		}
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}

	browser, err := m.playwright.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
	})
	if err != nil {
		m.stopDriver()
		return nil, types.WrapSetupError("start browser", "failed to launch browser", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		},
	}
	if opts.SessionPath != "" {
		if _, statErr := os.Stat(opts.SessionPath); statErr == nil {
			contextOpts.StorageStatePath = &opts.SessionPath
			m.logger.Infof("Restoring session state from %s", opts.SessionPath)
		} else {
			m.logger.Debugf("No session state at %s, starting fresh", opts.SessionPath)
		}
	}

	context, err := browser.NewContext(contextOpts)
	if err != nil {
		browser.Close()
		m.stopDriver()
		return nil, types.WrapSetupError("start browser", "failed to create context", err)
	}

	if err := context.GrantPermissions(ClipboardPermissions); err != nil {
		context.Close()
		browser.Close()
		m.stopDriver()
		return nil, types.WrapSetupError("start browser", "failed to grant clipboard permissions", err)
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		browser.Close()
		m.stopDriver()
		return nil, types.WrapSetupError("start browser", "failed to create page", err)
	}

	page.SetDefaultTimeout(opts.Timeout)

	m.session = &Session{
		Browser:  browser,
		Context:  context,
		Page:     page,
		Headless: opts.Headless,
	}

	m.logger.Infof("Browser started (headless=%t)", opts.Headless)
	return m.session, nil
}

// Session returns the active session, or nil before Start.
func (m *SessionManager) Session() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// IsAuthenticated navigates to url and waits briefly for profileSelector.
// A timeout means "not signed in" and is not an error.
func (m *SessionManager) IsAuthenticated(url, profileSelector string) (bool, error) {
	m.mu.Lock()
	session, timeout := m.session, m.authTimeout
	m.mu.Unlock()

	if session == nil {
		return false, fmt.Errorf("browser session not started")
	}
	return m.checkAuthenticated(session, url, profileSelector, timeout)
}

func (m *SessionManager) checkAuthenticated(page Page, url, profileSelector string, timeout float64) (bool, error) {
	if err := page.Navigate(url, NavigateOptions{WaitUntil: "domcontentloaded"}); err != nil {
		return false, err
	}

	err := page.Wait(WaitOptions{
		Selector: profileSelector,
		State:    StateVisible,
		Timeout:  timeout,
	})
	if err != nil {
		if errors.Is(err, types.ErrTimeout) {
			m.logger.Debugf("Profile selector %q not found at %s", profileSelector, url)
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SaveSession writes the context's cookies and local storage to path,
// overwriting any existing file.
func (m *SessionManager) SaveSession(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return fmt.Errorf("browser session not started")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	if _, err := m.session.Context.StorageState(path); err != nil {
		return fmt.Errorf("failed to save session state: %w", err)
	}

	m.logger.Infof("Session saved to %s", path)
	return nil
}

// Stop closes the page, context, browser and driver. Calling Stop when
// nothing is running is a no-op.
func (m *SessionManager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	if m.session != nil {
		if err := m.session.Page.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := m.session.Context.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := m.session.Browser.Close(); err != nil {
			errs = append(errs, err)
		}
		m.session = nil
	}

	if err := m.stopDriver(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors stopping browser: %w", errors.Join(errs...))
	}
	return nil
}

// stopDriver stops Playwright; the caller holds mu.
func (m *SessionManager) stopDriver() error {
	if !m.initialized || m.playwright == nil {
		return nil
	}
	err := m.playwright.Stop()
	m.playwright = nil
	m.initialized = false
	if err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}
