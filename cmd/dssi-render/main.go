// Command dssi-render plays one note through a DSSI synth plugin and writes
// the result to a WAV file.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/dssi-render/analysis"
	"github.com/cwbudde/dssi-render/dssi"
	"github.com/cwbudde/dssi-render/host"
	"github.com/cwbudde/dssi-render/internal/wavfile"
	"github.com/cwbudde/dssi-render/plugin"
)

const progName = "dssi-render"

// loadFunc resolves a locator to an open library and one of its
// descriptors.
type loadFunc func(locator string, dirs []string, logger *slog.Logger) (io.Closer, plugin.Descriptor, error)

func loadNative(locator string, dirs []string, logger *slog.Logger) (io.Closer, plugin.Descriptor, error) {
	lib, desc, err := dssi.Load(locator, dirs, logger)
	if err != nil {
		return nil, nil, err
	}
	return lib, desc, nil
}

type environment struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
	load   loadFunc
}

func main() {
	os.Exit(run(os.Args[1:], environment{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
		load:   loadNative,
	}))
}

// newLogger returns a text logger on w; verbose enables debug records with
// source positions.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: verbose,
	}))
}

func run(args []string, env environment) int {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(env.stderr, "%s: Error: %v\n", progName, err)
		printUsage(env.stderr)
		return 1
	}
	logger := newLogger(env.stderr, opts.verbose).With("prog", progName)
	slog.SetDefault(logger)

	dirs, fromEnv := plugin.SearchPath(env.getenv)
	if path, _ := plugin.ParseLocator(opts.locator); !fromEnv && !filepath.IsAbs(path) {
		logger.Warn("DSSI path not set, using default", "path", strings.Join(dirs, ":"))
	}

	lib, desc, err := env.load(opts.locator, dirs, logger)
	if err != nil {
		logger.Error("failed to load plugin library", "library", opts.locator, "err", err)
		return 1
	}
	defer func() {
		if err := lib.Close(); err != nil {
			logger.Warn("closing plugin library", "err", err)
		}
	}()

	controls, err := opts.controls(env.stdin, logger)
	if err != nil {
		logger.Error("control values", "err", err)
		return 1
	}
	cfg := opts.config(controls, logger)

	var tap *analysis.Tap
	open := func(sampleRate, channels int) (host.FrameWriter, error) {
		w, err := wavfile.Create(opts.output, sampleRate, channels)
		if err != nil {
			return nil, err
		}
		if opts.reportPath == "" {
			return w, nil
		}
		tap = analysis.NewTap(w, sampleRate, channels)
		return tap, nil
	}

	res, err := host.Run(desc, cfg, open)
	if err != nil {
		logger.Error("render failed", "plugin", desc.Label(), "err", err)
		return 1
	}
	logger.Debug("render finished", "plugin", res.Label, "blocks", res.Blocks,
		"channels", res.Channels, "truncated", res.Truncated, "replaced_controls", res.Replaced)
	fmt.Fprintf(env.stdout, "%s: Wrote %d frames to %s\n", progName, res.Frames, opts.output)

	if tap == nil {
		return 0
	}
	report, err := tap.Report(cfg.Note)
	if err == nil {
		err = report.WriteJSON(opts.reportPath)
	}
	if err != nil {
		logger.Error("analysis report failed", "path", opts.reportPath, "err", err)
		return 1
	}
	logger.Info("analysis", "peak_db", fmt.Sprintf("%.1f", report.PeakDB),
		"dominant_hz", fmt.Sprintf("%.2f", report.DominantHz),
		"cents_off", fmt.Sprintf("%+.1f", report.CentsOff), "report", opts.reportPath)
	return 0
}
