package chatgpt

import (
	"context"
	"errors"
	"testing"

	"github.com/entrhq/llmsession/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = types.Credentials{Email: "me@example.com", Password: "secret"}

// signInAfterPassword makes the profile menu appear once the password step
// is submitted.
func signInAfterPassword(page *fakePage, submit string) {
	clicks := 0
	page.onClick = func(selector string) {
		if selector != submit {
			return
		}
		clicks++
		if clicks == 2 {
			page.visible[DefaultSelectors().ProfileButton] = true
		}
	}
}

// challengeAfterPassword shows the OTP form once the password step is
// submitted.
func challengeAfterPassword(page *fakePage) {
	sel := DefaultSelectors()
	clicks := 0
	page.onClick = func(selector string) {
		if selector != sel.ContinueButton {
			return
		}
		clicks++
		if clicks == 2 {
			page.visible[sel.OTPInput] = true
		}
	}
}

func TestLogin_Email(t *testing.T) {
	sel := DefaultSelectors()
	page := newFakePage()
	signInAfterPassword(page, sel.ContinueButton)

	otpCalls := 0
	p, _ := newTestProvider(t, page, func() (string, error) {
		otpCalls++
		return "000000", nil
	})

	require.NoError(t, p.Login(context.Background(), testCreds))

	assert.True(t, page.called("navigate:"+DefaultURL))
	assert.True(t, page.called("click:"+sel.LoginButton))
	assert.True(t, page.called("fill:"+sel.EmailInput+"=me@example.com"))
	assert.True(t, page.called("fill:"+sel.PasswordInput+"=secret"))
	assert.False(t, page.called("click:"+sel.GoogleButton))
	assert.Zero(t, otpCalls)
}

func TestLogin_Google(t *testing.T) {
	sel := DefaultSelectors()
	page := newFakePage()
	page.onClick = func(selector string) {
		if selector == sel.GooglePasswordNext {
			page.visible[sel.ProfileButton] = true
		}
	}

	p, _ := newTestProvider(t, page, nil)

	creds := testCreds
	creds.GoogleLogin = true
	require.NoError(t, p.Login(context.Background(), creds))

	assert.True(t, page.called("click:"+sel.GoogleButton))
	assert.True(t, page.called("fill:"+sel.GoogleEmailInput+"=me@example.com"))
	assert.True(t, page.called("fill:"+sel.GooglePasswordInput+"=secret"))
	assert.False(t, page.called("fill:"+sel.EmailInput+"=me@example.com"))
}

func TestLogin_OTPRequiredWithoutCallback(t *testing.T) {
	page := newFakePage()
	challengeAfterPassword(page)

	p, _ := newTestProvider(t, page, nil)

	err := p.Login(context.Background(), testCreds)
	require.Error(t, err)

	var otpErr *types.OTPRequiredError
	require.True(t, errors.As(err, &otpErr))
	assert.Equal(t, Name, otpErr.Provider)
	assert.NotErrorIs(t, err, types.ErrTimeout)
	assert.False(t, types.IsSetupError(err))
}

func TestLogin_OTPAccepted(t *testing.T) {
	sel := DefaultSelectors()
	page := newFakePage()
	challengeAfterPassword(page)
	page.onFill = func(selector, value string) {
		if selector == sel.OTPInput && value == "123456" {
			page.visible[sel.OTPInput] = false
			page.visible[sel.ProfileButton] = true
		}
	}

	calls := 0
	p, _ := newTestProvider(t, page, func() (string, error) {
		calls++
		return " 123456\n", nil
	})

	require.NoError(t, p.Login(context.Background(), testCreds))
	assert.Equal(t, 1, calls)
	assert.True(t, page.called("fill:"+sel.OTPInput+"=123456"))
	assert.True(t, page.called("press:"+sel.OTPInput+":Enter"))
}

func TestLogin_OTPRejectedThenAccepted(t *testing.T) {
	sel := DefaultSelectors()
	page := newFakePage()
	challengeAfterPassword(page)
	page.onFill = func(selector, value string) {
		if selector != sel.OTPInput {
			return
		}
		if value == "222222" {
			page.visible[sel.OTPInput] = false
			page.visible[sel.OTPError] = false
			page.visible[sel.ProfileButton] = true
			return
		}
		page.visible[sel.OTPError] = true
	}

	codes := []string{"111111", "222222"}
	calls := 0
	p, _ := newTestProvider(t, page, func() (string, error) {
		code := codes[calls]
		calls++
		return code, nil
	})

	require.NoError(t, p.Login(context.Background(), testCreds))
	assert.Equal(t, 2, calls)
}

func TestLogin_OTPRejectedTooOften(t *testing.T) {
	sel := DefaultSelectors()
	page := newFakePage()
	challengeAfterPassword(page)

	// each submit clears the marker; the server rejects on the next poll
	verifying := false
	page.onFill = func(selector, _ string) {
		if selector == sel.OTPInput {
			page.visible[sel.OTPError] = false
			verifying = true
		}
	}

	calls := 0
	p, clock := newTestProvider(t, page, func() (string, error) {
		calls++
		return "999999", nil
	})
	clock.onSleep = func(int) {
		if verifying {
			page.visible[sel.OTPError] = true
			verifying = false
		}
	}

	err := p.Login(context.Background(), testCreds)
	require.Error(t, err)
	assert.True(t, types.IsSetupError(err))
	assert.Contains(t, err.Error(), "rejected 3 times")
	assert.Equal(t, DefaultMaxOTPAttempts, calls)
}

func TestLogin_OTPSlowVerificationWithLingeringError(t *testing.T) {
	sel := DefaultSelectors()
	page := newFakePage()
	challengeAfterPassword(page)

	// the first code is rejected; the second is valid but takes a few polls
	// to verify while the old error marker stays on screen
	acceptAtSleep := -1
	page.onFill = func(selector, value string) {
		if selector != sel.OTPInput {
			return
		}
		if value == "111111" {
			page.visible[sel.OTPError] = true
		}
	}

	codes := []string{"111111", "222222", "333333"}
	calls := 0
	var clock *fakeClock
	p, clock := newTestProvider(t, page, func() (string, error) {
		code := codes[calls]
		calls++
		if code == "222222" {
			acceptAtSleep = clock.sleeps + 3
		}
		return code, nil
	})
	clock.onSleep = func(n int) {
		if acceptAtSleep > 0 && n >= acceptAtSleep {
			page.visible[sel.OTPInput] = false
			page.visible[sel.OTPError] = false
			page.visible[sel.ProfileButton] = true
		}
	}

	require.NoError(t, p.Login(context.Background(), testCreds))
	assert.Equal(t, 2, calls)
	assert.True(t, page.called("fill:"+sel.OTPInput+"=222222"))
	assert.False(t, page.called("fill:"+sel.OTPInput+"=333333"))
}

func TestLogin_OTPErrorReappearsAfterClearing(t *testing.T) {
	sel := DefaultSelectors()
	page := newFakePage()
	challengeAfterPassword(page)

	// a marker left over from an earlier rejection hides, then shows again
	// for the new code
	page.onFill = func(selector, value string) {
		if selector != sel.OTPInput {
			return
		}
		switch value {
		case "111111":
			page.visible[sel.OTPError] = true
		case "333333":
			page.visible[sel.OTPInput] = false
			page.visible[sel.OTPError] = false
			page.visible[sel.ProfileButton] = true
		}
	}

	codes := []string{"111111", "222222", "333333"}
	calls := 0
	p, clock := newTestProvider(t, page, func() (string, error) {
		code := codes[calls]
		calls++
		return code, nil
	})
	clock.onSleep = func(int) {
		if calls == 2 {
			// toggles the marker each poll while the second code is pending
			page.visible[sel.OTPError] = !page.visible[sel.OTPError]
		}
	}

	require.NoError(t, p.Login(context.Background(), testCreds))
	assert.Equal(t, 3, calls)
}

func TestLogin_OTPCallbackError(t *testing.T) {
	page := newFakePage()
	challengeAfterPassword(page)

	boom := errors.New("mailbox unavailable")
	p, _ := newTestProvider(t, page, func() (string, error) {
		return "", boom
	})

	err := p.Login(context.Background(), testCreds)
	require.Error(t, err)
	assert.True(t, types.IsSetupError(err))
	assert.ErrorIs(t, err, boom)
}

func TestLogin_Timeout(t *testing.T) {
	page := newFakePage()
	p, clock := newTestProvider(t, page, nil)

	err := p.Login(context.Background(), testCreds)
	require.Error(t, err)

	assert.True(t, types.IsSetupError(err))
	assert.ErrorIs(t, err, types.ErrTimeout)
	assert.Contains(t, err.Error(), "login failed")
	assert.False(t, types.IsOTPRequired(err))
	assert.GreaterOrEqual(t, clock.sleeps, int(DefaultLoginTimeout/DefaultPollInterval))
}

func TestLogin_IncompleteCredentials(t *testing.T) {
	page := newFakePage()
	p, _ := newTestProvider(t, page, nil)

	err := p.Login(context.Background(), types.Credentials{Email: "me@example.com"})
	require.Error(t, err)
	assert.True(t, types.IsSetupError(err))
	assert.Empty(t, page.calls)
}

func TestLogin_CredentialEntryFails(t *testing.T) {
	sel := DefaultSelectors()
	page := newFakePage()
	page.waitErr[sel.LoginButton] = &types.TimeoutError{Op: "wait for " + sel.LoginButton}

	p, _ := newTestProvider(t, page, nil)

	err := p.Login(context.Background(), testCreds)
	require.Error(t, err)
	assert.True(t, types.IsSetupError(err))
	assert.Contains(t, err.Error(), "failed to enter credentials")
}

func TestLogin_ContextCanceled(t *testing.T) {
	page := newFakePage()
	p, _ := newTestProvider(t, page, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Login(ctx, testCreds)
	assert.ErrorIs(t, err, context.Canceled)
}
