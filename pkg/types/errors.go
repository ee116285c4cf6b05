package types

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotInitialized is returned when an operation runs before setup completed.
	ErrNotInitialized = errors.New("automator not initialized")

	// ErrTimeout is matched by every TimeoutError via errors.Is.
	ErrTimeout = errors.New("timeout")
)

// SetupError reports that the browser, the provider or the credentials could
// not be brought into a usable state.
type SetupError struct {
	Op  string
	Msg string
	Err error
}

func (e *SetupError) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op == "" {
		return "setup failed: " + msg
	}
	return fmt.Sprintf("setup failed (%s): %s", e.Op, msg)
}

// Unwrap returns the underlying error
func (e *SetupError) Unwrap() error {
	return e.Err
}

// NewSetupError creates a SetupError without an underlying cause.
func NewSetupError(op, msg string) *SetupError {
	return &SetupError{Op: op, Msg: msg}
}

// WrapSetupError wraps err as a SetupError for op.
func WrapSetupError(op, msg string, err error) *SetupError {
	return &SetupError{Op: op, Msg: msg, Err: err}
}

// OTPRequiredError is returned when the login UI asks for a one-time code
// and no OTP callback was configured.
type OTPRequiredError struct {
	Provider string
}

func (e *OTPRequiredError) Error() string {
	if e.Provider == "" {
		return "one-time passcode required but no OTP callback configured"
	}
	return fmt.Sprintf("%s: one-time passcode required but no OTP callback configured", e.Provider)
}

// TimeoutError is returned when a bounded UI wait elapsed.
type TimeoutError struct {
	Op    string
	After time.Duration
	Err   error
}

func (e *TimeoutError) Error() string {
	if e.After > 0 {
		return fmt.Sprintf("timeout after %s: %s", e.After, e.Op)
	}
	return "timeout: " + e.Op
}

// Unwrap returns the underlying error
func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// Is reports ErrTimeout as a match so callers can test with errors.Is.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// IsSetupError returns true if err is or wraps a SetupError.
func IsSetupError(err error) bool {
	var setupErr *SetupError
	return errors.As(err, &setupErr)
}

// IsOTPRequired returns true if err is or wraps an OTPRequiredError.
func IsOTPRequired(err error) bool {
	var otpErr *OTPRequiredError
	return errors.As(err, &otpErr)
}
