package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds CLI configuration. Flags override the environment.
type Config struct {
	ServerURL string `env:"PRISONSCTL_SERVER" envDefault:"http://localhost:8080"`
	Token     string `env:"PRISONSCTL_TOKEN"`
	TokenFile string `env:"PRISONSCTL_TOKEN_FILE"`
	Output    string `env:"PRISONSCTL_OUTPUT" envDefault:"text"`
}

// DefaultConfig reads the PRISONSCTL_* environment
func DefaultConfig() *Config {
	c := &Config{}
	if err := env.Parse(c); err != nil {
		// Only string fields, so parsing cannot fail on values.
		c.ServerURL = "http://localhost:8080"
		c.Output = "text"
	}
	if c.TokenFile == "" {
		c.TokenFile = defaultTokenFile()
	}
	return c
}

// LoadToken reads the admin token from the token file unless one was given
func (c *Config) LoadToken() error {
	if c.Token != "" {
		return nil
	}

	data, err := os.ReadFile(c.TokenFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	c.Token = strings.TrimSpace(string(data))
	return nil
}

// SaveToken writes the admin token to the token file, readable by the owner only
func (c *Config) SaveToken(token string) error {
	c.Token = token

	if err := os.MkdirAll(filepath.Dir(c.TokenFile), 0o700); err != nil {
		return err
	}
	return os.WriteFile(c.TokenFile, []byte(token), 0o600)
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".prisonsctl", "token")
	}
	return filepath.Join(home, ".prisonsctl", "token")
}
