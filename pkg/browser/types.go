package browser

import "github.com/playwright-community/playwright-go"

// Session is the running browser: one context, one page. It implements Page.
type Session struct {
	Browser playwright.Browser
	Context playwright.BrowserContext // cookies and local storage live here
	Page    playwright.Page

	Headless bool
}

// SessionOptions are passed to SessionManager.Start.
type SessionOptions struct {
	Headless bool

	// SessionPath is a storage-state file restored on start when it exists
	SessionPath string

	Viewport *Viewport // nil uses 1280x720

	// Timeout is the page default in ms; 0 uses DefaultTimeout
	Timeout float64
}

// Viewport is a window size in CSS pixels.
type Viewport struct {
	Width  int
	Height int
}

// NavigateOptions for Page.Navigate. WaitUntil is one of "load",
// "domcontentloaded", "networkidle" or "commit"; empty means "load".
type NavigateOptions struct {
	WaitUntil string
	Timeout   float64
}

// ClickOptions for Page.Click. The first match is clicked unless Last is set.
type ClickOptions struct {
	Selector string
	Last     bool
	Timeout  float64
}

// FillOptions for Page.Fill.
type FillOptions struct {
	Selector string
	Value    string
	Timeout  float64
}

// WaitOptions for Page.Wait. State is one of the State constants.
type WaitOptions struct {
	Selector string
	State    string
	Timeout  float64
}

// Element states for WaitOptions.
const (
	StateAttached = "attached"
	StateDetached = "detached"
	StateVisible  = "visible"
	StateHidden   = "hidden"
)

// ClipboardPermissions are granted on every context so responses can be
// read back after the page's copy button is clicked.
var ClipboardPermissions = []string{"clipboard-read", "clipboard-write"}

// Timeouts are in milliseconds, as Playwright expects.
const (
	DefaultTimeout          = 30000.0
	DefaultAuthCheckTimeout = 5000.0
	DefaultViewportWidth    = 1280
	DefaultViewportHeight   = 720
)
