// Package pipeline wires the value stream, the interpreter and the renderer
// into one conversion, and re-runs it when the input changes.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/penwyp/go-wesgr/internal/core/interpret"
	"github.com/penwyp/go-wesgr/internal/core/model"
	"github.com/penwyp/go-wesgr/internal/data/source"
	"github.com/penwyp/go-wesgr/internal/errs"
	"github.com/penwyp/go-wesgr/internal/presentation/svg"
	"github.com/penwyp/go-wesgr/internal/util"
)

// Result describes one successful conversion
type Result struct {
	Entities int
	Events   int
	Bytes    int
	Stats    interpret.Stats
}

// Pipeline converts an event stream into an SVG timeline
type Pipeline struct {
	config   *Config
	renderer *svg.Renderer

	// Identity of the input at the last run, for skipping unchanged files
	lastInfo        *util.FileInfo
	lastFingerprint string
}

// New validates config, loads the style and returns a ready pipeline
func New(config *Config) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	style, err := svg.LoadStyle(config.StylePath)
	if err != nil {
		return nil, err
	}
	renderer, err := svg.NewRenderer(style)
	if err != nil {
		return nil, err
	}

	return &Pipeline{config: config, renderer: renderer}, nil
}

// Run performs one conversion. The output is only created or replaced once
// the whole input has been interpreted and the document rendered.
func (p *Pipeline) Run() (*Result, error) {
	start := time.Now()

	g, stats, err := p.interpret()
	if err != nil {
		return nil, err
	}

	window := p.config.Window()
	data, err := p.renderer.Build(g, window)
	if err != nil {
		return nil, err
	}
	if err := p.write(data); err != nil {
		return nil, err
	}

	result := &Result{
		Entities: g.Len(),
		Events:   g.EventCount(),
		Bytes:    len(data),
		Stats:    stats,
	}
	util.LogInfof("Rendered %s to %s: %d entities, %d events, window %s, %d bytes in %v",
		p.config.Input, p.config.Output, result.Entities, result.Events, window, result.Bytes, time.Since(start))
	return result, nil
}

func (p *Pipeline) interpret() (*model.Graph, interpret.Stats, error) {
	var stream interpret.ValueSource
	if p.config.Input == StdStream {
		stream = source.NewStream("stdin", p.config.Stdin)
	} else {
		f, err := source.Open(p.config.Input)
		if err != nil {
			return nil, interpret.Stats{}, err
		}
		defer f.Close()
		stream = f
	}

	g, stats, err := interpret.Interpret(stream, p.config.Options())
	if err != nil {
		return nil, stats, err
	}
	if stats.UnmatchedEnds > 0 || stats.DroppedOpen > 0 {
		util.LogWarnf("Input %s: %d unmatched end record(s) ignored, %d open interval(s) dropped",
			p.config.Input, stats.UnmatchedEnds, stats.DroppedOpen)
	}
	return g, stats, nil
}

// write hands data to stdout in one call, or replaces the output file via a
// temporary file in the same directory
func (p *Pipeline) write(data []byte) error {
	if p.config.Output == StdStream {
		if _, err := p.config.Stdout.Write(data); err != nil {
			return errs.Sink("write stdout", err)
		}
		return nil
	}

	dir, name := filepath.Split(p.config.Output)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return errs.Sink("create "+p.config.Output, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errs.Sink("write "+p.config.Output, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errs.Sink("write "+p.config.Output, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		util.LogDebugf("Failed to chmod %s: %v", tmpName, err)
	}
	if err := os.Rename(tmpName, p.config.Output); err != nil {
		os.Remove(tmpName)
		return errs.Sink("replace "+p.config.Output, err)
	}
	return nil
}

// changed reports whether the input differs from the last recorded state.
// It records the current state as a side effect.
func (p *Pipeline) changed() bool {
	info, err := util.GetFileInfo(p.config.Input)
	if err != nil {
		// Let the run report the problem
		return true
	}
	if p.lastInfo != nil && *info == *p.lastInfo {
		return false
	}
	p.lastInfo = info

	fingerprint, err := util.CalculateFileFingerprint(p.config.Input)
	if err != nil {
		return true
	}
	if fingerprint == p.lastFingerprint {
		util.LogDebugf("Input %s touched without content change (%s)", p.config.Input, fingerprint)
		return false
	}
	p.lastFingerprint = fingerprint
	return true
}

// Watch runs the conversion, then again each time the input file changes,
// until ctx is cancelled. Failed runs are logged and keep the previous output.
func (p *Pipeline) Watch(ctx context.Context) error {
	watcher, err := NewFileWatcher(p.config.Input)
	if err != nil {
		return errs.Source("watch "+p.config.Input, err)
	}
	defer watcher.Close()

	p.refresh()
	util.LogInfof("Watching %s for changes", p.config.Input)

	debounce := time.NewTimer(p.config.Debounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			util.LogInfo("Stop watching " + p.config.Input)
			return nil

		case event, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			util.LogDebug(fmt.Sprintf("File changed: %s (%s)", event.Path, event.Operation))
			debounce.Reset(p.config.Debounce)

		case <-debounce.C:
			p.refresh()
		}
	}
}

func (p *Pipeline) refresh() {
	if !p.changed() {
		return
	}
	if _, err := p.Run(); err != nil {
		util.LogErrorf("Conversion of %s failed, keeping previous output: %v", p.config.Input, err)
		// Retry on the next event even if the content comes back unchanged
		p.lastInfo = nil
		p.lastFingerprint = ""
	}
}
