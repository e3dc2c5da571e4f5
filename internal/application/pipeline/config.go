package pipeline

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/penwyp/go-wesgr/internal/core/interpret"
	"github.com/penwyp/go-wesgr/internal/core/model"
	"github.com/penwyp/go-wesgr/internal/errs"
	"github.com/penwyp/go-wesgr/internal/util"
)

// StdStream is the Input or Output value selecting stdin or stdout
const StdStream = "-"

const defaultDebounce = 100 * time.Millisecond

// Config contains configuration for one conversion
type Config struct {
	// Input and output paths, "-" for stdin/stdout
	Input  string
	Output string

	// Time window in milliseconds, nil for the observed bound
	From *int64
	To   *int64

	// Optional YAML style file
	StylePath string

	// Policies, in their flag spelling
	UnmatchedEnd string // ignore, error
	OpenInterval string // open, drop, error

	// Logging
	Debug   bool
	LogFile string

	// Re-run when the input file changes
	Watch    bool
	Debounce time.Duration

	// Standard streams, replaced in tests
	Stdin  io.Reader
	Stdout io.Writer

	opts interpret.Options
}

// Validate checks the configuration and fills in defaults
func (c *Config) Validate() error {
	if c.Input == "" {
		return errs.Config("config", fmt.Errorf("%w (use -i FILE or -i - for stdin)", errs.ErrMissingInput))
	}
	if c.Output == "" {
		return errs.Config("config", fmt.Errorf("%w (use -o FILE or -o - for stdout)", errs.ErrMissingOutput))
	}
	if err := c.Window().Validate(); err != nil {
		return err
	}

	unmatched, err := interpret.ParseUnmatchedEndPolicy(c.UnmatchedEnd)
	if err != nil {
		return err
	}
	open, err := interpret.ParseOpenIntervalPolicy(c.OpenInterval)
	if err != nil {
		return err
	}
	c.opts = interpret.Options{UnmatchedEnd: unmatched, OpenInterval: open}

	if c.Stdin == nil {
		c.Stdin = os.Stdin
	}
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	if c.Output == StdStream && util.IsTerminal(c.Stdout) {
		return errs.Config("config", fmt.Errorf("refusing to write SVG to a terminal, redirect stdout or use -o FILE"))
	}

	if c.Watch {
		if c.Input == StdStream || c.Output == StdStream {
			return errs.Config("config", fmt.Errorf("watch needs a file input and a file output"))
		}
		if c.Debounce <= 0 {
			c.Debounce = defaultDebounce
		}
	}
	return nil
}

// Window returns the requested time window
func (c *Config) Window() model.TimeWindow {
	return model.TimeWindow{From: c.From, To: c.To}
}

// Options returns the interpreter options parsed by Validate
func (c *Config) Options() interpret.Options {
	return c.opts
}
