// Package browser provides the browser session used to drive chat web UIs
// through Playwright.
//
// # Architecture
//
// The package is built around two types:
//
// 1. SessionManager: owns the Playwright driver and at most one Session
// 2. Session: a Chromium browser, its context and a single page
//
// Providers never see Playwright directly. They program against the Page
// interface, which Session implements and tests replace with fakes.
//
// # Session Lifecycle
//
//  1. Start: launch Chromium, restore storage state if a session file exists,
//     grant clipboard permissions
//  2. IsAuthenticated: load the provider URL and look for a signed-in marker
//  3. SaveSession: write cookies and local storage back to the session file
//  4. Stop: close everything; safe to call repeatedly
//
// # Response Extraction
//
// Chat responses are read either from the clipboard after clicking the
// page's copy button (ReadClipboard) or from the message markup converted
// with HTMLToText.
//
// # Example Usage
//
//	manager := browser.NewSessionManager(logger)
//	page, err := manager.Start(browser.SessionOptions{
//	    Headless:    true,
//	    SessionPath: "state.json",
//	})
//	if err != nil {
//	    return err
//	}
//	defer manager.Stop()
//
//	ok, err := manager.IsAuthenticated("https://chatgpt.com", "[data-testid=profile-button]")
package browser
