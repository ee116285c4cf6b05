package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/entrhq/llmsession/pkg/provider"
	"golang.org/x/term"
)

var errOTPCanceled = errors.New("passcode entry canceled")

// promptOTP asks for a passcode with a masked input when in is a terminal
// and reads plain lines otherwise (piped stdin).
func promptOTP(in io.Reader, out io.Writer) provider.OTPFunc {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return terminalOTP(f, out)
	}
	return lineOTP(in, out)
}

// terminalOTP runs a small bubbletea program per request.
func terminalOTP(in *os.File, out io.Writer) provider.OTPFunc {
	return func() (string, error) {
		program := tea.NewProgram(newOTPModel(), tea.WithInput(in), tea.WithOutput(out))
		final, err := program.Run()
		if err != nil {
			return "", fmt.Errorf("failed to run passcode prompt: %w", err)
		}
		m := final.(otpModel)
		if m.canceled {
			return "", errOTPCanceled
		}
		return m.code, nil
	}
}

// lineOTP reads one passcode per call from in, prompting on out.
func lineOTP(in io.Reader, out io.Writer) provider.OTPFunc {
	reader := bufio.NewReader(in)
	return func() (string, error) {
		fmt.Fprint(out, "One-time passcode: ")
		line, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", fmt.Errorf("failed to read passcode: %w", err)
		}
		return strings.TrimSpace(line), nil
	}
}

// otpModel is a single masked input line. Enter submits a non-empty code;
// Esc and Ctrl+C cancel.
type otpModel struct {
	input    textinput.Model
	code     string
	canceled bool
	done     bool
}

func newOTPModel() otpModel {
	input := textinput.New()
	input.Prompt = "› "
	input.Placeholder = "123456"
	input.EchoMode = textinput.EchoPassword
	input.EchoCharacter = '•'
	input.CharLimit = 32
	input.Focus()
	return otpModel{input: input}
}

func (m otpModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m otpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			code := strings.TrimSpace(m.input.Value())
			if code == "" {
				return m, nil
			}
			m.code = code
			m.done = true
			return m, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			m.canceled = true
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m otpModel) View() string {
	if m.done {
		return ""
	}
	return headerStyle.Render("One-time passcode") + " " +
		promptStyle.Render("(check your email)") + "\n" +
		m.input.View() + "\n"
}
