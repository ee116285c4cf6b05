package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/entrhq/llmsession/pkg/automator"
	"github.com/entrhq/llmsession/pkg/chain"
	"github.com/entrhq/llmsession/pkg/config"
	"github.com/entrhq/llmsession/pkg/logging"
	"github.com/urfave/cli/v2"
)

// session is the part of *automator.Automator the commands use.
type session interface {
	ProcessChain(ctx context.Context, items []chain.Item) ([]string, error)
	Close() error
}

// runner holds the collaborators the commands reach outside the process
// through.
type runner struct {
	open      func(ctx context.Context, opts automator.Options, logger *logging.Logger) (session, error)
	copy      func(text string) error
	stdin     io.Reader
	newLogger func(level logging.Level, toFile bool, stderr io.Writer) *logging.Logger
}

func defaultRunner() *runner {
	return &runner{
		open: func(ctx context.Context, opts automator.Options, logger *logging.Logger) (session, error) {
			a, err := automator.New(ctx, opts, automator.WithLogger(logger))
			if err != nil {
				return nil, err
			}
			return a, nil
		},
		copy:      clipboard.WriteAll,
		stdin:     os.Stdin,
		newLogger: newLogger,
	}
}

// newLogger returns a file logger when toFile is set. If the log file cannot
// be opened the stderr fallback is used and a warning printed.
func newLogger(level logging.Level, toFile bool, stderr io.Writer) *logging.Logger {
	var logger *logging.Logger
	if toFile {
		l, err := logging.NewLogger("llmsession")
		if err != nil {
			fmt.Fprintf(stderr, "Warning: file logging unavailable, logging to stderr: %v\n", err)
		}
		logger = l
	} else {
		logger = logging.NewWriterLogger("llmsession", stderr)
	}
	logger.SetLevel(level)
	return logger
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	promptStyle = lipgloss.NewStyle().Faint(true)
)

// sessionFlags returns the flags shared by every command.
func sessionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "provider",
			Aliases: []string{"p"},
			Usage:   "Chat provider to drive",
			Value:   config.DefaultProvider,
			EnvVars: []string{"LLMSESSION_PROVIDER"},
		},
		&cli.BoolFlag{
			Name:  "headless",
			Usage: "Run the browser headless (default from " + config.HeadlessEnvVar + ", else true)",
		},
		&cli.StringFlag{
			Name:    "session",
			Aliases: []string{"s"},
			Usage:   "Browser session file to restore and save",
			EnvVars: []string{"LLMSESSION_SESSION"},
		},
		&cli.BoolFlag{
			Name:  "otp-stdin",
			Usage: "Ask for a one-time passcode on the terminal when login requires one",
		},
		&cli.BoolFlag{
			Name:  "copy",
			Usage: "Copy the final response to the clipboard",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level (debug, info, warn, error)",
			Value: "warn",
		},
		&cli.BoolFlag{
			Name:  "log-file",
			Usage: "Write logs to ~/.llmsession/logs instead of stderr",
		},
	}
}

func newApp(r *runner) *cli.App {
	return &cli.App{
		Name:    "llmsession",
		Usage:   "Drive a chat web UI from the terminal",
		Version: Version,
		Description: `llmsession signs in to a chat web UI in a real browser and sends prompts
to it. Credentials come from <PROVIDER>_EMAIL and <PROVIDER>_PASSWORD.

Examples:
  llmsession prompt "Summarise RFC 9110 in one paragraph"
  llmsession chain "Name a prime" "Double {{previous}}"
  llmsession chain --file run.yaml --session chatgpt.json`,
		Commands: []*cli.Command{
			{
				Name:      "prompt",
				Usage:     "Send a single prompt",
				ArgsUsage: "TEXT",
				Flags:     sessionFlags(),
				Action:    r.runPrompt,
			},
			{
				Name:      "chain",
				Usage:     "Send prompts in order; {{previous}} is replaced by the last response",
				ArgsUsage: "PROMPT...",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "YAML run file with provider settings and prompts",
					},
				}, sessionFlags()...),
				Action: r.runChain,
			},
		},
	}
}

func (r *runner) runPrompt(c *cli.Context) error {
	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if text == "" {
		return cli.Exit("a prompt is required", 2)
	}

	rf := config.DefaultRunFile()
	rf.Prompts = []string{text}
	return r.run(c, rf)
}

func (r *runner) runChain(c *cli.Context) error {
	rf := config.DefaultRunFile()
	if path := c.String("file"); path != "" {
		loaded, err := config.LoadRunFile(path)
		if err != nil {
			return err
		}
		rf = loaded
	}
	if c.Args().Len() > 0 {
		rf.Prompts = c.Args().Slice()
	}
	return r.run(c, rf)
}

// run applies command-line overrides to rf and sends its prompts.
func (r *runner) run(c *cli.Context, rf *config.RunFile) error {
	applyFlags(c, rf)
	if err := rf.Validate(); err != nil {
		return cli.Exit(err.Error(), 2)
	}

	level, err := logging.ParseLevel(c.String("log-level"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	logger := r.newLogger(level, c.Bool("log-file"), c.App.ErrWriter)
	defer logger.Close()

	opts := automator.Options{
		Provider:    rf.Provider,
		Headless:    rf.Headless,
		Credentials: rf.Credentials,
		SessionPath: rf.SessionPath,
		Config:      rf.Config,
	}
	if c.Bool("otp-stdin") {
		opts.OnOTPRequired = promptOTP(r.stdin, c.App.ErrWriter)
	}

	s, err := r.open(c.Context, opts, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	responses, err := s.ProcessChain(c.Context, chain.Parse(rf.Prompts))
	printResponses(c.App.Writer, rf.Prompts, responses)
	if err != nil {
		return err
	}

	if c.Bool("copy") && len(responses) > 0 {
		if err := r.copy(responses[len(responses)-1]); err != nil {
			return fmt.Errorf("failed to copy response: %w", err)
		}
	}
	return nil
}

// applyFlags lets explicitly set flags override run file values.
func applyFlags(c *cli.Context, rf *config.RunFile) {
	if c.IsSet("provider") || rf.Provider == "" {
		rf.Provider = c.String("provider")
	}
	if c.IsSet("headless") {
		headless := c.Bool("headless")
		rf.Headless = &headless
	}
	if c.IsSet("session") || rf.SessionPath == "" {
		rf.SessionPath = c.String("session")
	}
}

// printResponses writes each response; chains get a header per step.
func printResponses(w io.Writer, prompts, responses []string) {
	if len(prompts) == 1 {
		for _, r := range responses {
			fmt.Fprintln(w, r)
		}
		return
	}
	for i, r := range responses {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("[%d/%d]", i+1, len(prompts)))+" "+promptStyle.Render(prompts[i]))
		fmt.Fprintln(w, r)
	}
}
