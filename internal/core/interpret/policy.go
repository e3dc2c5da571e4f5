package interpret

import (
	"fmt"
	"strings"

	"github.com/penwyp/go-wesgr/internal/errs"
)

// UnmatchedEndPolicy decides what an end record without an open begin does
type UnmatchedEndPolicy int

const (
	// UnmatchedEndIgnore drops the record with a warning
	UnmatchedEndIgnore UnmatchedEndPolicy = iota
	// UnmatchedEndError fails the run
	UnmatchedEndError
)

// String returns the flag spelling of the policy
func (p UnmatchedEndPolicy) String() string {
	switch p {
	case UnmatchedEndIgnore:
		return "ignore"
	case UnmatchedEndError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseUnmatchedEndPolicy parses "ignore" or "error"
func ParseUnmatchedEndPolicy(s string) (UnmatchedEndPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ignore":
		return UnmatchedEndIgnore, nil
	case "error":
		return UnmatchedEndError, nil
	default:
		return 0, errs.Config("unmatched-end policy", fmt.Errorf("unknown value %q (ignore, error)", s))
	}
}

// OpenIntervalPolicy decides what happens to intervals still open at end of stream
type OpenIntervalPolicy int

const (
	// OpenIntervalRender closes them at the observed maximum and marks them open
	OpenIntervalRender OpenIntervalPolicy = iota
	// OpenIntervalDrop discards them with a warning
	OpenIntervalDrop
	// OpenIntervalError fails the run
	OpenIntervalError
)

// String returns the flag spelling of the policy
func (p OpenIntervalPolicy) String() string {
	switch p {
	case OpenIntervalRender:
		return "open"
	case OpenIntervalDrop:
		return "drop"
	case OpenIntervalError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseOpenIntervalPolicy parses "open", "drop" or "error"
func ParseOpenIntervalPolicy(s string) (OpenIntervalPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "open":
		return OpenIntervalRender, nil
	case "drop":
		return OpenIntervalDrop, nil
	case "error":
		return OpenIntervalError, nil
	default:
		return 0, errs.Config("open-interval policy", fmt.Errorf("unknown value %q (open, drop, error)", s))
	}
}

// Options configures an Interpreter
type Options struct {
	UnmatchedEnd UnmatchedEndPolicy
	OpenInterval OpenIntervalPolicy
}
