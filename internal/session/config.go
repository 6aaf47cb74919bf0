package session

import (
	"errors"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/alanbriolat/spotdown/internal/preference"
)

type Config struct {
	// Fixed interval between progress requests.
	PollInterval time.Duration
	// How long a task may report no change before it is failed; 0 disables the bound.
	StallTimeout time.Duration
	// Where the quality preference is read from; nil means always use the default quality.
	Preferences preference.Store
	History     History
}

var DefaultConfig = Config{
	PollInterval: 500 * time.Millisecond,
	StallTimeout: 10 * time.Minute,
	History:      NilHistory{},
}

// Validate reports every problem with the Config at once.
func (c Config) Validate() error {
	var result error
	if c.PollInterval <= 0 {
		result = multierror.Append(result, errors.New("poll interval must be positive"))
	}
	if c.StallTimeout < 0 {
		result = multierror.Append(result, errors.New("stall timeout must not be negative"))
	}
	if c.History == nil {
		result = multierror.Append(result, errors.New("history must be set (use NilHistory{} to disable)"))
	}
	return result
}
