package browser

// stubPage is a Page whose navigation and wait results are set per test.
type stubPage struct {
	url         string
	navigateErr error
	waitErr     error

	navigated []NavigateOptions
	waited    []WaitOptions
}

var _ Page = (*stubPage)(nil)

func (p *stubPage) Navigate(url string, opts NavigateOptions) error {
	p.navigated = append(p.navigated, opts)
	if p.navigateErr != nil {
		return p.navigateErr
	}
	p.url = url
	return nil
}

func (p *stubPage) Wait(opts WaitOptions) error {
	p.waited = append(p.waited, opts)
	return p.waitErr
}

func (p *stubPage) Click(ClickOptions) error             { return nil }
func (p *stubPage) Fill(FillOptions) error               { return nil }
func (p *stubPage) Press(string, string) error           { return nil }
func (p *stubPage) IsVisible(string) (bool, error)       { return false, nil }
func (p *stubPage) Count(string) (int, error)            { return 0, nil }
func (p *stubPage) LastInnerText(string) (string, error) { return "", nil }
func (p *stubPage) LastInnerHTML(string) (string, error) { return "", nil }
func (p *stubPage) ReadClipboard() (string, error)       { return "", nil }
func (p *stubPage) URL() string                          { return p.url }
