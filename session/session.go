// Package session stores the CLI's login and preferences between invocations.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/a-h/jarvik/auth"
	"gopkg.in/yaml.v3"
)

type Session struct {
	APIURL   string `yaml:"api_url,omitempty"`
	Username string `yaml:"username,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
	// Model is the preferred model, empty to let the gateway choose.
	Model string `yaml:"model,omitempty"`
	// Memory sets the remember flag on ask and code requests.
	Memory bool `yaml:"memory"`
	// Models is the list last returned by the gateway.
	Models []string `yaml:"models,omitempty"`
}

func (s Session) Credentials() auth.Credentials {
	return auth.Credentials{
		APIURL:   s.APIURL,
		Username: s.Username,
		APIKey:   s.APIKey,
	}
}

func (s Session) LoggedIn() bool {
	return len(s.Credentials().Missing()) == 0
}

// DefaultPath is jarvik/session.yaml under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to find config directory: %w", err)
	}
	return filepath.Join(dir, "jarvik", "session.yaml"), nil
}

// Load reads the session at path. A missing file is an empty session.
func Load(path string) (s Session, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("failed to read session: %w", err)
	}
	if err = yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse session %q: %w", path, err)
	}
	return s, nil
}

// Save writes the session readable only by the current user, since it holds the API key.
func Save(path string, s Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err = os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return os.Chmod(path, 0o600)
}

// Delete removes the session file, if there is one.
func Delete(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
