package chatgpt

import (
	"context"
	"fmt"
	"strings"

	"github.com/entrhq/llmsession/pkg/browser"
	"github.com/entrhq/llmsession/pkg/types"
)

// SendPrompt types text into the composer, submits it, waits for generation
// to finish and returns the new assistant message. The copy button and the
// clipboard are preferred since they return the message as markdown; the
// rendered DOM text is the fallback.
func (p *Provider) SendPrompt(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	sel := p.opts.Selectors
	timeout := ms(p.opts.InputTimeout)

	if err := p.page.Wait(browser.WaitOptions{Selector: sel.PromptInput, State: browser.StateVisible, Timeout: timeout}); err != nil {
		return "", fmt.Errorf("prompt input not available: %w", err)
	}

	before, err := p.page.Count(sel.AssistantMessage)
	if err != nil {
		return "", fmt.Errorf("failed to count messages: %w", err)
	}

	if err := p.page.Fill(browser.FillOptions{Selector: sel.PromptInput, Value: text, Timeout: timeout}); err != nil {
		return "", fmt.Errorf("failed to enter prompt: %w", err)
	}

	if p.visible(sel.SendButton) {
		err = p.page.Click(browser.ClickOptions{Selector: sel.SendButton, Timeout: timeout})
	} else {
		err = p.page.Press(sel.PromptInput, "Enter")
	}
	if err != nil {
		return "", fmt.Errorf("failed to submit prompt: %w", err)
	}
	p.logger.Debugf("Prompt submitted (%d chars)", len(text))

	if err := p.waitForGeneration(ctx, before); err != nil {
		return "", err
	}

	domText, err := p.waitForStableText(ctx)
	if err != nil {
		return "", err
	}

	response := domText
	if copied := p.copyResponse(); copied != "" {
		response = copied
	}

	p.lastResponse = response
	p.logger.Infof("Response received (%d chars)", len(response))
	return response, nil
}

// waitForGeneration polls until a new assistant message exists and the
// stop button is gone.
func (p *Provider) waitForGeneration(ctx context.Context, before int) error {
	sel := p.opts.Selectors
	deadline := p.now().Add(p.opts.ResponseTimeout)

	for {
		count, err := p.page.Count(sel.AssistantMessage)
		if err != nil {
			return fmt.Errorf("failed to count messages: %w", err)
		}
		if count > before && !p.visible(sel.StopButton) {
			return nil
		}

		if !p.now().Before(deadline) {
			return &types.TimeoutError{Op: "waiting for response", After: p.opts.ResponseTimeout}
		}
		if err := p.sleep(ctx, p.opts.PollInterval); err != nil {
			return err
		}
	}
}

// waitForStableText samples the last assistant message until two
// consecutive reads agree.
func (p *Provider) waitForStableText(ctx context.Context) (string, error) {
	sel := p.opts.Selectors
	deadline := p.now().Add(p.opts.StabilityTimeout)
	previous := ""

	for {
		markup, err := p.page.LastInnerHTML(sel.AssistantMessage)
		if err != nil {
			return "", fmt.Errorf("failed to read response: %w", err)
		}
		current, err := browser.HTMLToText(markup)
		if err != nil {
			return "", fmt.Errorf("failed to read response: %w", err)
		}

		if current != "" && current == previous {
			return current, nil
		}
		previous = current

		if !p.now().Before(deadline) {
			return "", &types.TimeoutError{Op: "waiting for response to stabilize", After: p.opts.StabilityTimeout}
		}
		if err := p.sleep(ctx, p.opts.PollInterval); err != nil {
			return "", err
		}
	}
}

// copyResponse clicks the last copy button and reads the clipboard. An
// empty string means the DOM text should be used. Clipboard contents equal
// to the previous response are treated as stale.
func (p *Provider) copyResponse() string {
	sel := p.opts.Selectors
	if !p.visible(sel.CopyButton) {
		return ""
	}

	if err := p.page.Click(browser.ClickOptions{Selector: sel.CopyButton, Last: true, Timeout: ms(p.opts.InputTimeout)}); err != nil {
		p.logger.Debugf("Copy button click failed: %v", err)
		return ""
	}

	text, err := p.page.ReadClipboard()
	if err != nil {
		p.logger.Debugf("Clipboard read failed, using page text: %v", err)
		return ""
	}
	text = strings.TrimSpace(text)
	if text == "" || (p.lastResponse != "" && text == p.lastResponse) {
		return ""
	}
	return text
}
