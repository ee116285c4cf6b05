package config

import (
	"fmt"
	"os"

	"github.com/entrhq/llmsession/pkg/types"
	"gopkg.in/yaml.v3"
)

// DefaultProvider is used when a run file names no provider.
const DefaultProvider = "chatgpt"

// RunFile describes a batch run: which provider to drive, how to start the
// browser and which prompts to send in order.
type RunFile struct {
	// Provider name, e.g. "chatgpt"
	Provider string `yaml:"provider" json:"provider"`

	// Headless overrides LLM_AUTOMATOR_HEADLESS when set
	Headless *bool `yaml:"headless" json:"headless"`

	// SessionPath is where browser storage state is restored from and saved to
	SessionPath string `yaml:"session_path" json:"session_path"`

	// Credentials override the <PROVIDER>_* environment variables
	Credentials *types.Credentials `yaml:"credentials" json:"credentials"`

	// Config is handed to the provider unchanged (selectors, timeouts)
	Config map[string]any `yaml:"config" json:"config"`

	// Prompts are sent in order; later prompts may reference {{previous}}
	Prompts []string `yaml:"prompts" json:"prompts"`
}

// DefaultRunFile returns a run file with default values.
func DefaultRunFile() *RunFile {
	return &RunFile{
		Provider: DefaultProvider,
		Config:   map[string]any{},
	}
}

// LoadRunFile reads and validates a YAML run file.
func LoadRunFile(path string) (*RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run file: %w", err)
	}

	return ParseRunFile(data)
}

// ParseRunFile decodes YAML data into a RunFile with defaults applied.
func ParseRunFile(data []byte) (*RunFile, error) {
	rf := DefaultRunFile()
	if err := yaml.Unmarshal(data, rf); err != nil {
		return nil, fmt.Errorf("failed to parse run file: %w", err)
	}
	if rf.Provider == "" {
		rf.Provider = DefaultProvider
	}
	if rf.Config == nil {
		rf.Config = map[string]any{}
	}

	if err := rf.Validate(); err != nil {
		return nil, err
	}
	return rf, nil
}

// Validate validates the run file
func (r *RunFile) Validate() error {
	if len(r.Prompts) == 0 {
		return fmt.Errorf("at least one prompt is required")
	}
	for i, p := range r.Prompts {
		if p == "" {
			return fmt.Errorf("prompt %d is empty", i+1)
		}
	}
	if r.Credentials != nil && r.Credentials.Method != "" {
		switch r.Credentials.Method {
		case types.LoginMethodEmail, types.LoginMethodGoogle:
		default:
			return fmt.Errorf("invalid login method: %s (must be 'email' or 'google')", r.Credentials.Method)
		}
	}
	return nil
}
