package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/entrhq/llmsession/pkg/types"
	"github.com/playwright-community/playwright-go"
)

// readClipboardScript reads the page's clipboard; needs clipboard-read.
const readClipboardScript = `() => navigator.clipboard.readText()`

// hostClipboard reads the OS clipboard; swapped in tests.
var hostClipboard = clipboard.ReadAll

// Navigate navigates the session's page to the specified URL.
func (s *Session) Navigate(url string, opts NavigateOptions) error {
	playwrightOpts := playwright.PageGotoOptions{}
	if opts.WaitUntil != "" {
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		playwrightOpts.WaitUntil = &waitUntil
	}
	if opts.Timeout > 0 {
		playwrightOpts.Timeout = &opts.Timeout
	}

	if _, err := s.Page.Goto(url, playwrightOpts); err != nil {
		return timeoutOr("navigate to "+url, opts.Timeout, err)
	}
	return nil
}

// Click clicks an element matching the selector.
func (s *Session) Click(opts ClickOptions) error {
	playwrightOpts := playwright.LocatorClickOptions{}
	if opts.Timeout > 0 {
		playwrightOpts.Timeout = &opts.Timeout
	}

	if err := s.pick(opts.Selector, opts.Last).Click(playwrightOpts); err != nil {
		return timeoutOr("click "+opts.Selector, opts.Timeout, err)
	}
	return nil
}

// Fill fills an input element with the specified value.
func (s *Session) Fill(opts FillOptions) error {
	playwrightOpts := playwright.LocatorFillOptions{}
	if opts.Timeout > 0 {
		playwrightOpts.Timeout = &opts.Timeout
	}

	if err := s.Page.Locator(opts.Selector).First().Fill(opts.Value, playwrightOpts); err != nil {
		return timeoutOr("fill "+opts.Selector, opts.Timeout, err)
	}
	return nil
}

// Press sends key to the first element matching selector.
func (s *Session) Press(selector, key string) error {
	if err := s.Page.Locator(selector).First().Press(key); err != nil {
		return timeoutOr("press "+key+" on "+selector, 0, err)
	}
	return nil
}

// Wait waits for an element to reach a state.
func (s *Session) Wait(opts WaitOptions) error {
	if opts.Selector == "" {
		return fmt.Errorf("selector is required for wait")
	}

	playwrightOpts := playwright.LocatorWaitForOptions{}
	if opts.State != "" {
		state := playwright.WaitForSelectorState(opts.State)
		playwrightOpts.State = &state
	}
	if opts.Timeout > 0 {
		playwrightOpts.Timeout = &opts.Timeout
	}

	if err := s.Page.Locator(opts.Selector).First().WaitFor(playwrightOpts); err != nil {
		return timeoutOr("wait for "+opts.Selector, opts.Timeout, err)
	}
	return nil
}

// IsVisible reports whether any element matching selector is visible.
func (s *Session) IsVisible(selector string) (bool, error) {
	n, err := s.Page.Locator(selector).Count()
	if err != nil {
		return false, fmt.Errorf("selector query failed: %w", err)
	}
	for i := 0; i < n; i++ {
		visible, err := s.Page.Locator(selector).Nth(i).IsVisible()
		if err != nil {
			return false, fmt.Errorf("visibility check failed: %w", err)
		}
		if visible {
			return true, nil
		}
	}
	return false, nil
}

// Count returns the number of elements matching selector.
func (s *Session) Count(selector string) (int, error) {
	n, err := s.Page.Locator(selector).Count()
	if err != nil {
		return 0, fmt.Errorf("selector query failed: %w", err)
	}
	return n, nil
}

// LastInnerText returns the rendered text of the last match.
func (s *Session) LastInnerText(selector string) (string, error) {
	text, err := s.Page.Locator(selector).Last().InnerText()
	if err != nil {
		return "", timeoutOr("read text of "+selector, 0, err)
	}
	return text, nil
}

// LastInnerHTML returns the markup of the last match.
func (s *Session) LastInnerHTML(selector string) (string, error) {
	markup, err := s.Page.Locator(selector).Last().InnerHTML()
	if err != nil {
		return "", timeoutOr("read html of "+selector, 0, err)
	}
	return markup, nil
}

// ReadClipboard returns the clipboard text as seen by the page. In headed
// mode the page writes to the OS clipboard, so that is used when the
// in-page read fails.
func (s *Session) ReadClipboard() (string, error) {
	result, err := s.Page.Evaluate(readClipboardScript)
	if err == nil {
		if text, ok := result.(string); ok {
			return text, nil
		}
		err = fmt.Errorf("clipboard returned %T", result)
	}

	if s.Headless {
		return "", fmt.Errorf("clipboard read failed: %w", err)
	}

	text, hostErr := hostClipboard()
	if hostErr != nil {
		return "", fmt.Errorf("clipboard read failed: %w", errors.Join(err, hostErr))
	}
	return text, nil
}

// URL returns the current page URL.
func (s *Session) URL() string {
	return s.Page.URL()
}

func (s *Session) pick(selector string, last bool) playwright.Locator {
	loc := s.Page.Locator(selector)
	if last {
		return loc.Last()
	}
	return loc.First()
}

// timeoutOr turns Playwright timeouts into types.TimeoutError and wraps
// everything else with op.
func timeoutOr(op string, timeout float64, err error) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return &types.TimeoutError{
			Op:    op,
			After: time.Duration(timeout) * time.Millisecond,
			Err:   err,
		}
	}
	return fmt.Errorf("%s failed: %w", op, err)
}
