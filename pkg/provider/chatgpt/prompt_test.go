package chatgpt

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/entrhq/llmsession/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// generatingPage simulates a response: submitting adds an assistant message
// and shows the stop button, which disappears after the first poll.
func generatingPage(html ...string) *fakePage {
	sel := DefaultSelectors()
	page := newFakePage()
	page.counts[sel.AssistantMessage] = 1
	page.visible[sel.SendButton] = true
	page.visible[sel.CopyButton] = true
	page.htmlFn = func(call int) string {
		if call >= len(html) {
			return html[len(html)-1]
		}
		return html[call]
	}
	page.onClick = func(selector string) {
		if selector == sel.SendButton {
			page.counts[sel.AssistantMessage] = 2
			page.visible[sel.StopButton] = true
		}
	}
	return page
}

func stopAfterFirstPoll(page *fakePage) func(int) {
	return func(n int) {
		if n == 1 {
			page.visible[DefaultSelectors().StopButton] = false
		}
	}
}

func TestSendPrompt_Clipboard(t *testing.T) {
	sel := DefaultSelectors()
	page := generatingPage("<p>Hel</p>", "<p>Hello</p>", "<p>Hello</p>")
	page.clipboard = "Hello **world**\n"

	p, clock := newTestProvider(t, page, nil)
	clock.onSleep = stopAfterFirstPoll(page)

	got, err := p.SendPrompt(context.Background(), "Say hello")
	require.NoError(t, err)

	assert.Equal(t, "Hello **world**", got)
	assert.True(t, page.called("fill:"+sel.PromptInput+"=Say hello"))
	assert.True(t, page.called("click:"+sel.SendButton))
	assert.True(t, page.called("click:"+sel.CopyButton))
}

func TestSendPrompt_DOMFallback(t *testing.T) {
	page := generatingPage("<p>Hello</p>")
	page.clipErr = errors.New("permission denied")

	p, clock := newTestProvider(t, page, nil)
	clock.onSleep = stopAfterFirstPoll(page)

	got, err := p.SendPrompt(context.Background(), "Say hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello", got)
}

func TestSendPrompt_NoCopyButton(t *testing.T) {
	sel := DefaultSelectors()
	page := generatingPage("<p>Hello</p>")
	page.visible[sel.CopyButton] = false
	page.clipboard = "should not be read"

	p, clock := newTestProvider(t, page, nil)
	clock.onSleep = stopAfterFirstPoll(page)

	got, err := p.SendPrompt(context.Background(), "Say hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello", got)
	assert.False(t, page.called("click:"+sel.CopyButton))
}

func TestSendPrompt_StaleClipboard(t *testing.T) {
	page := generatingPage("<p>Second answer</p>")
	page.clipboard = "First answer"

	p, clock := newTestProvider(t, page, nil)
	clock.onSleep = stopAfterFirstPoll(page)
	p.lastResponse = "First answer"

	got, err := p.SendPrompt(context.Background(), "again")
	require.NoError(t, err)
	assert.Equal(t, "Second answer", got)
}

func TestSendPrompt_EnterWhenNoSendButton(t *testing.T) {
	sel := DefaultSelectors()
	page := generatingPage("<p>ok</p>")
	page.visible[sel.SendButton] = false
	page.onPress = func(selector, key string) {
		if selector == sel.PromptInput && key == "Enter" {
			page.counts[sel.AssistantMessage] = 2
		}
	}

	p, _ := newTestProvider(t, page, nil)

	got, err := p.SendPrompt(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.True(t, page.called("press:"+sel.PromptInput+":Enter"))
}

func TestSendPrompt_ResponseTimeout(t *testing.T) {
	sel := DefaultSelectors()
	page := generatingPage("<p>partial</p>")
	page.onClick = nil // nothing ever arrives

	p, _ := newTestProvider(t, page, nil)

	_, err := p.SendPrompt(context.Background(), "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrTimeout)
	assert.Contains(t, err.Error(), "waiting for response")
	assert.Equal(t, 1, page.counts[sel.AssistantMessage])
}

func TestSendPrompt_NeverStabilizes(t *testing.T) {
	page := generatingPage("<p>x</p>")
	page.htmlFn = func(call int) string {
		return fmt.Sprintf("<p>token %d</p>", call)
	}

	p, clock := newTestProvider(t, page, nil)
	clock.onSleep = stopAfterFirstPoll(page)

	_, err := p.SendPrompt(context.Background(), "hi")
	require.Error(t, err)

	var timeoutErr *types.TimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	assert.Equal(t, "waiting for response to stabilize", timeoutErr.Op)
}

func TestSendPrompt_InputMissing(t *testing.T) {
	sel := DefaultSelectors()
	page := generatingPage("<p>x</p>")
	page.waitErr[sel.PromptInput] = &types.TimeoutError{Op: "wait for " + sel.PromptInput}

	p, _ := newTestProvider(t, page, nil)

	_, err := p.SendPrompt(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompt input not available")
	assert.False(t, page.called("click:"+sel.SendButton))
}

func TestSendPrompt_ContextCanceled(t *testing.T) {
	page := generatingPage("<p>x</p>")
	p, _ := newTestProvider(t, page, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.SendPrompt(ctx, "hi")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, page.calls)
}
