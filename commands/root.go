package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/penwyp/go-wesgr/internal/application/pipeline"
	"github.com/penwyp/go-wesgr/internal/util"
	"github.com/spf13/cobra"
)

// options holds the parsed flags of one invocation
type options struct {
	// Input and output
	input  string
	output string

	// Time window
	fromMs int64
	toMs   int64

	// Rendering and interpretation
	stylePath    string
	unmatchedEnd string
	openInterval string

	// Re-run on input change
	watch bool

	// Logging related
	debug     bool
	logFile   string
	logFormat string
}

const longHelp = `go-wesgr converts a stream of timestamped JSON event records into an SVG
timeline with one lane per entity.

Records are JSON objects, concatenated or one per line:
  {"kind":"begin","entity":"output.0","token":1,"ts":0,"label":"repaint"}
  {"kind":"end","token":1,"ts":16}
  {"kind":"instant","entity":"output.0","ts":16,"label":"vblank"}
  {"kind":"info","entity":"output.0","ts":2,"text":"mode 1920x1080"}
  {"kind":"entity","entity":"output.0","name":"HDMI-A-1"}

Examples:
  go-wesgr -i timeline.json -o timeline.svg            # Whole recording
  go-wesgr -i timeline.json -o timeline.svg -a 1000 -b 1500
                                                       # Milliseconds 1000 to 1500 only
  go-wesgr -i - -o - < timeline.json > timeline.svg    # Filter mode
  go-wesgr -i timeline.json -o timeline.svg --watch    # Re-render on every change
  go-wesgr -i timeline.json -o timeline.svg --style dark.yaml --open-intervals drop`

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "go-wesgr -i INPUT -o OUTPUT [flags]",
		Short: "Render compositor event timelines as SVG",
		Long:  longHelp,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Input and output
	cmd.Flags().StringVarP(&opts.input, "input", "i", "",
		"Input file with JSON event records (- for stdin)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "",
		"Output SVG file (- for stdout)")

	// Time window
	cmd.Flags().Int64VarP(&opts.fromMs, "from-ms", "a", 0,
		"Start of the rendered window in milliseconds (default: first event)")
	cmd.Flags().Int64VarP(&opts.toMs, "to-ms", "b", 0,
		"End of the rendered window in milliseconds (default: last event)")

	// Rendering and interpretation
	cmd.Flags().StringVar(&opts.stylePath, "style", "",
		"YAML style file overriding the default geometry and colors")
	cmd.Flags().StringVar(&opts.unmatchedEnd, "unmatched-end", "ignore",
		"End records without a begin (ignore, error)")
	cmd.Flags().StringVar(&opts.openInterval, "open-intervals", "open",
		"Intervals still open at end of input (open, drop, error)")

	// Watch mode
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false,
		"Render again whenever the input file changes")

	// System and debugging
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false,
		"Enable debug mode")
	cmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "",
		"Also write logs to this file")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text",
		"Log format (text, json)")

	return cmd
}

func runConvert(cmd *cobra.Command, opts *options) error {
	// Determine log level based on debug flag
	logLevel := "info"
	if opts.debug {
		logLevel = "debug"
	}

	format := util.LogFormat(strings.ToLower(opts.logFormat))
	if format != util.FormatText && format != util.FormatJSON {
		return fmt.Errorf("invalid log format '%s': must be either 'text' or 'json'", opts.logFormat)
	}

	// Initialize logging
	logFile := ""
	if opts.logFile != "" {
		logFile = expandPath(opts.logFile)
		if err := ensureDir(filepath.Dir(logFile)); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	if err := util.InitLogger(logLevel, logFile, opts.debug, format); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	config := &pipeline.Config{
		Input:        opts.input,
		Output:       opts.output,
		StylePath:    opts.stylePath,
		UnmatchedEnd: opts.unmatchedEnd,
		OpenInterval: opts.openInterval,
		Debug:        opts.debug,
		LogFile:      logFile,
		Watch:        opts.watch,
		Stdin:        cmd.InOrStdin(),
		Stdout:       cmd.OutOrStdout(),
	}
	// Unset bounds fall back to the observed ones
	if cmd.Flags().Changed("from-ms") {
		config.From = &opts.fromMs
	}
	if cmd.Flags().Changed("to-ms") {
		config.To = &opts.toMs
	}
	if config.StylePath != "" {
		config.StylePath = expandPath(config.StylePath)
	}

	p, err := pipeline.New(config)
	if err != nil {
		return err
	}

	if !config.Watch {
		_, err := p.Run()
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return p.Watch(ctx)
}

// Execute runs the root command with the process arguments
func Execute() error {
	return newRootCmd().Execute()
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
