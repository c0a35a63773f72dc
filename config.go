package blinkyvu

import (
	"io"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"libdb.so/blinkyvu/internal/board"
)

// Config is the configuration for the blinkyvu daemon.
type Config struct {
	// Hardware selects and configures the board the LED bar is wired to.
	Hardware board.Config `toml:"hardware"`
}

// DefaultConfig returns the configuration used when no file is given. It
// draws the bar in the terminal and feeds it a synthetic volume.
func DefaultConfig() *Config {
	return &Config{Hardware: board.DefaultConfig()}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Hardware.Validate(); err != nil {
		return errors.Wrap(err, "hardware")
	}
	return nil
}

// ParseConfig parses a configuration from a reader. Missing fields take
// their default values.
func ParseConfig(r io.Reader) (*Config, error) {
	var config Config
	if err := toml.NewDecoder(r).Decode(&config); err != nil {
		return nil, err
	}
	config.Hardware.SetDefaults()
	return &config, nil
}
