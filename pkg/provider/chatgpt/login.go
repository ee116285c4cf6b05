package chatgpt

import (
	"context"
	"fmt"
	"strings"

	"github.com/entrhq/llmsession/pkg/browser"
	"github.com/entrhq/llmsession/pkg/provider"
	"github.com/entrhq/llmsession/pkg/types"
)

// Login signs in through the web form. After the credentials are submitted
// the page is polled until the profile menu shows up. If a one-time code is
// requested the OTP callback is called and the code submitted; a rejected
// code triggers another callback, up to MaxOTPAttempts. A code counts as
// rejected only when the error marker shows up after it was submitted.
func (p *Provider) Login(ctx context.Context, creds types.Credentials) error {
	if !creds.Complete() {
		return types.NewSetupError("login", "email and password are required")
	}

	tracker := provider.NewLoginTracker()
	fail := func(err error) error {
		tracker.Fail()
		p.logger.Errorf("Login failed (%s): %v", tracker, err)
		return err
	}

	method := "email"
	if creds.UseGoogle() {
		method = "google"
	}
	p.logger.Infof("Logging in as %s via %s", creds.Email, method)

	if err := p.enterCredentials(creds); err != nil {
		return fail(types.WrapSetupError("login", "failed to enter credentials", err))
	}
	if err := tracker.Transition(provider.StateCredentialsEntered); err != nil {
		return fail(types.WrapSetupError("login", "", err))
	}

	deadline := p.now().Add(p.opts.LoginTimeout)
	attempts := 0
	awaitingCode := false
	// staleMarker is set while an error marker that survived the last submit
	// is still on screen; it must clear before a rejection is counted again.
	staleMarker := false

	for {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		if p.visible(p.opts.Selectors.ProfileButton) {
			if err := tracker.Transition(provider.StateAuthenticated); err != nil {
				return fail(types.WrapSetupError("login", "", err))
			}
			p.logger.Infof("Login succeeded (%s)", tracker)
			return nil
		}

		if p.visible(p.opts.Selectors.OTPInput) {
			markerVisible := p.visible(p.opts.Selectors.OTPError)
			if !markerVisible {
				staleMarker = false
			}
			rejected := awaitingCode && markerVisible && !staleMarker
			if !awaitingCode || rejected {
				if rejected {
					p.logger.Warnf("One-time passcode rejected (attempt %d of %d)", attempts, p.opts.MaxOTPAttempts)
				}
				if p.onOTP == nil {
					return fail(&types.OTPRequiredError{Provider: Name})
				}
				if attempts >= p.opts.MaxOTPAttempts {
					return fail(types.NewSetupError("login", fmt.Sprintf("one-time passcode rejected %d times", attempts)))
				}
				if err := tracker.Transition(provider.StateOTPChallenge); err != nil {
					return fail(types.WrapSetupError("login", "", err))
				}
				if err := p.submitOTP(); err != nil {
					return fail(err)
				}
				attempts++
				awaitingCode = true
				staleMarker = markerVisible && p.visible(p.opts.Selectors.OTPError)
			}
		}

		if !p.now().Before(deadline) {
			where := p.page.URL()
			if p.onAuthHost() {
				where = "identity provider page " + where
			}
			p.logger.Warnf("Login did not complete; stuck at %s", where)
			return fail(types.WrapSetupError("login", "login failed", &types.TimeoutError{
				Op:    "waiting for login to complete",
				After: p.opts.LoginTimeout,
			}))
		}

		if err := p.sleep(ctx, p.opts.PollInterval); err != nil {
			return fail(err)
		}
	}
}

// enterCredentials opens the login form and submits the credentials on the
// email or the Google branch.
func (p *Provider) enterCredentials(creds types.Credentials) error {
	sel := p.opts.Selectors
	timeout := ms(p.opts.InputTimeout)

	if err := p.page.Navigate(p.opts.URL, browser.NavigateOptions{WaitUntil: "domcontentloaded"}); err != nil {
		return err
	}

	if err := p.page.Wait(browser.WaitOptions{Selector: sel.LoginButton, State: browser.StateVisible, Timeout: timeout}); err != nil {
		return fmt.Errorf("login button not found: %w", err)
	}
	if err := p.page.Click(browser.ClickOptions{Selector: sel.LoginButton, Timeout: timeout}); err != nil {
		return err
	}

	if creds.UseGoogle() {
		return p.enterGoogleCredentials(creds)
	}

	return p.fillSteps([]formStep{
		{sel.EmailInput, creds.Email, sel.ContinueButton},
		{sel.PasswordInput, creds.Password, sel.ContinueButton},
	})
}

func (p *Provider) enterGoogleCredentials(creds types.Credentials) error {
	sel := p.opts.Selectors
	timeout := ms(p.opts.InputTimeout)

	if err := p.page.Wait(browser.WaitOptions{Selector: sel.GoogleButton, State: browser.StateVisible, Timeout: timeout}); err != nil {
		return fmt.Errorf("google login button not found: %w", err)
	}
	if err := p.page.Click(browser.ClickOptions{Selector: sel.GoogleButton, Timeout: timeout}); err != nil {
		return err
	}

	return p.fillSteps([]formStep{
		{sel.GoogleEmailInput, creds.Email, sel.GoogleEmailNext},
		{sel.GooglePasswordInput, creds.Password, sel.GooglePasswordNext},
	})
}

// formStep is one page of a multi-step login form.
type formStep struct {
	input, value, submit string
}

// fillSteps waits for each input, fills it and clicks its submit button.
func (p *Provider) fillSteps(steps []formStep) error {
	timeout := ms(p.opts.InputTimeout)

	for _, step := range steps {
		if err := p.page.Wait(browser.WaitOptions{Selector: step.input, State: browser.StateVisible, Timeout: timeout}); err != nil {
			return err
		}
		if err := p.page.Fill(browser.FillOptions{Selector: step.input, Value: step.value, Timeout: timeout}); err != nil {
			return err
		}
		if err := p.page.Click(browser.ClickOptions{Selector: step.submit, Timeout: timeout}); err != nil {
			return err
		}
	}
	return nil
}

// submitOTP asks the callback for a code and submits it.
func (p *Provider) submitOTP() error {
	sel := p.opts.Selectors
	timeout := ms(p.opts.InputTimeout)

	p.logger.Infof("One-time passcode requested")
	code, err := p.onOTP()
	if err != nil {
		return types.WrapSetupError("login", "OTP callback failed", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return types.NewSetupError("login", "OTP callback returned an empty code")
	}

	if err := p.page.Fill(browser.FillOptions{Selector: sel.OTPInput, Value: code, Timeout: timeout}); err != nil {
		return types.WrapSetupError("login", "failed to enter one-time passcode", err)
	}
	if p.visible(sel.ContinueButton) {
		err = p.page.Click(browser.ClickOptions{Selector: sel.ContinueButton, Timeout: timeout})
	} else {
		err = p.page.Press(sel.OTPInput, "Enter")
	}
	if err != nil {
		return types.WrapSetupError("login", "failed to submit one-time passcode", err)
	}
	return nil
}
