package chatgpt

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/entrhq/llmsession/pkg/browser"
	"github.com/entrhq/llmsession/pkg/provider"
	"github.com/stretchr/testify/require"
)

// fakePage is a scripted browser.Page. Visibility and counts are plain maps
// that hooks mutate to move the "UI" forward.
type fakePage struct {
	url       string
	visible   map[string]bool
	counts    map[string]int
	waitErr   map[string]error
	htmlFn    func(call int) string
	htmlCalls int
	clipboard string
	clipErr   error
	calls     []string

	onClick func(selector string)
	onFill  func(selector, value string)
	onPress func(selector, key string)
}

var _ browser.Page = (*fakePage)(nil)

func newFakePage() *fakePage {
	return &fakePage{
		url:     "about:blank",
		visible: map[string]bool{},
		counts:  map[string]int{},
		waitErr: map[string]error{},
	}
}

func (f *fakePage) Navigate(url string, _ browser.NavigateOptions) error {
	f.calls = append(f.calls, "navigate:"+url)
	f.url = url
	return nil
}

func (f *fakePage) Click(opts browser.ClickOptions) error {
	f.calls = append(f.calls, "click:"+opts.Selector)
	if f.onClick != nil {
		f.onClick(opts.Selector)
	}
	return nil
}

func (f *fakePage) Fill(opts browser.FillOptions) error {
	f.calls = append(f.calls, fmt.Sprintf("fill:%s=%s", opts.Selector, opts.Value))
	if f.onFill != nil {
		f.onFill(opts.Selector, opts.Value)
	}
	return nil
}

func (f *fakePage) Press(selector, key string) error {
	f.calls = append(f.calls, fmt.Sprintf("press:%s:%s", selector, key))
	if f.onPress != nil {
		f.onPress(selector, key)
	}
	return nil
}

func (f *fakePage) Wait(opts browser.WaitOptions) error {
	f.calls = append(f.calls, "wait:"+opts.Selector)
	return f.waitErr[opts.Selector]
}

func (f *fakePage) IsVisible(selector string) (bool, error) {
	return f.visible[selector], nil
}

func (f *fakePage) Count(selector string) (int, error) {
	return f.counts[selector], nil
}

func (f *fakePage) LastInnerText(selector string) (string, error) {
	return f.LastInnerHTML(selector)
}

func (f *fakePage) LastInnerHTML(string) (string, error) {
	call := f.htmlCalls
	f.htmlCalls++
	if f.htmlFn == nil {
		return "", nil
	}
	return f.htmlFn(call), nil
}

func (f *fakePage) ReadClipboard() (string, error) {
	return f.clipboard, f.clipErr
}

func (f *fakePage) URL() string {
	return f.url
}

func (f *fakePage) called(call string) bool {
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

// fakeClock advances only when the provider sleeps.
type fakeClock struct {
	t       time.Time
	sleeps  int
	onSleep func(n int)
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) sleep(ctx context.Context, d time.Duration) error {
	c.t = c.t.Add(d)
	c.sleeps++
	if c.onSleep != nil {
		c.onSleep(c.sleeps)
	}
	return ctx.Err()
}

func newTestProvider(t *testing.T, page *fakePage, onOTP provider.OTPFunc) (*Provider, *fakeClock) {
	t.Helper()

	p, err := NewWithOptions(page, DefaultOptions(), onOTP, nil)
	require.NoError(t, err)

	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	p.now = clock.now
	p.sleep = clock.sleep
	return p, clock
}
