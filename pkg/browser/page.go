package browser

// Page is the set of page operations providers drive. *Session implements
// it over Playwright; tests substitute scripted fakes.
type Page interface {
	// Navigate loads url in the page
	Navigate(url string, opts NavigateOptions) error

	// Click clicks the first (or last) element matching the selector
	Click(opts ClickOptions) error

	// Fill replaces the value of an input or contenteditable element
	Fill(opts FillOptions) error

	// Press sends a key (e.g. "Enter") to the element matching selector
	Press(selector, key string) error

	// Wait blocks until the selector reaches the requested state
	Wait(opts WaitOptions) error

	// IsVisible reports whether any element matching selector is visible now
	IsVisible(selector string) (bool, error)

	// Count returns the number of elements matching selector
	Count(selector string) (int, error)

	// LastInnerText returns the rendered text of the last match
	LastInnerText(selector string) (string, error)

	// LastInnerHTML returns the markup of the last match
	LastInnerHTML(selector string) (string, error)

	// ReadClipboard returns the current clipboard text
	ReadClipboard() (string, error)

	// URL returns the current page URL
	URL() string
}

var _ Page = (*Session)(nil)
