package exec

import (
	"errors"
	"fmt"
	"time"

	"github.com/zakeri-dev/simrun/sandbox"
)

// Default timeout policy.
const (
	// DefaultTimeout is the budget applied when a request carries none.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxTimeout caps the budget any single request may ask for.
	DefaultMaxTimeout = 5 * time.Minute
)

// ErrConfiguration indicates an invalid or incomplete dispatcher
// configuration.
var ErrConfiguration = errors.New("configuration error")

// Options configures a Dispatcher.
type Options struct {
	// Local executes JavaScript in-process.
	// Optional when Remote is set.
	Local sandbox.Invoker

	// Remote executes code on the ephemeral sandbox service. Python
	// requests require it.
	// Optional when Local is set.
	Remote sandbox.Invoker

	// PreferLocal routes JavaScript to the local invoker even when a
	// remote invoker is configured. Individual requests can also opt in.
	PreferLocal bool

	// DefaultTimeout is the budget applied when a request has none.
	// Default: 10s.
	DefaultTimeout time.Duration

	// MaxTimeout caps the budget of any request.
	// Default: 5m.
	MaxTimeout time.Duration

	// Logger is an optional logger for observability.
	Logger Logger
}

// Validate checks that the options describe a usable dispatcher.
// Returns ErrConfiguration when no invoker is configured.
func (o *Options) Validate() error {
	if o.Local == nil && o.Remote == nil {
		return fmt.Errorf("%w: at least one invoker is required", ErrConfiguration)
	}
	return nil
}

// applyDefaults sets default values for optional fields.
func (o *Options) applyDefaults() {
	if o.DefaultTimeout <= 0 {
		o.DefaultTimeout = DefaultTimeout
	}
	if o.MaxTimeout <= 0 {
		o.MaxTimeout = DefaultMaxTimeout
	}
}

// budget returns the effective execution budget for a requested timeout.
func (o *Options) budget(requested time.Duration) time.Duration {
	timeout := requested
	if timeout <= 0 {
		timeout = o.DefaultTimeout
	}
	if timeout > o.MaxTimeout {
		timeout = o.MaxTimeout
	}
	return timeout
}
