package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/cwbudde/dssi-render/host"
	"github.com/cwbudde/dssi-render/preset"
)

var errUsage = errors.New("usage")

const (
	programDefaults = -1
	programRandom   = -2
)

// keyValues collects repeated -k key=value flags.
type keyValues []host.KeyValue

func (kv *keyValues) String() string {
	parts := make([]string, len(*kv))
	for i, p := range *kv {
		parts[i] = p.Key + "=" + p.Value
	}
	return strings.Join(parts, ",")
}

func (kv *keyValues) Set(s string) error {
	key, value, _ := strings.Cut(s, "=")
	if key == "" {
		return fmt.Errorf("empty configure key in %q", s)
	}
	*kv = append(*kv, host.KeyValue{Key: key, Value: value})
	return nil
}

type options struct {
	locator    string
	program    string
	presetPath string
	length     float64
	release    float64
	output     string
	channels   int
	note       int
	velocity   int
	projectDir string
	configure  keyValues
	clip       bool
	sampleRate int
	reportPath string
	seed       uint64
	seedSet    bool
	verbose    bool
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `A command-line DSSI host.
Usage:
$ %[1]s <dssi_plugin.so>[:<label>]
  [-p [<bank>:]<preset>] (use -p -1 for default port values;
           -p -2 for random values; omit -p to read port values from stdin)
  [-P <values.json>] (port values by name or index, over the defaults)
  [-l <length>] (in seconds, between note-on and note-off; default is 1s)
  [-r <release_tail>] (in seconds: amount of data to allow after note-off;
           default waits until silence (up to a maximum of 15s))
  [-f <output_file.wav>] (default == "output.wav")
  [-c <no_channels>] (default == 1; use -c -1 to use plugin's channel count)
  [-n <midi_note_no>] (default == 60)
  [-v <midi_velocity>] (default == 127)
  [-d <project_directory>]
  [-k <configure_key>=<value>] ...
  [-b] (clip out-of-bounds values, including Inf and NaN, to within bounds;
       exits with an error if -b is omitted)
  [-s <sample_rate>] (default == 44100)
  [-a <report.json>] (write level and pitch analysis of the output)
  [-S <seed>] (seed for -p -2)
  [-V] (verbose logging)
`, progName)
}

// parseArgs parses the command line after the program name.
func parseArgs(args []string) (*options, error) {
	if len(args) == 0 || args[0] == "" || strings.HasPrefix(args[0], "-") {
		return nil, fmt.Errorf("%w: missing plugin library", errUsage)
	}
	o := &options{locator: args[0]}

	fs := flag.NewFlagSet(progName, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&o.program, "p", "", "[bank:]program, -1 for defaults, -2 for random")
	fs.StringVar(&o.presetPath, "P", "", "port values JSON file")
	fs.Float64Var(&o.length, "l", 1.0, "seconds between note-on and note-off")
	fs.Float64Var(&o.release, "r", -1, "seconds rendered after note-off")
	fs.StringVar(&o.output, "f", "output.wav", "output WAV file")
	fs.IntVar(&o.channels, "c", 1, "output channels, -1 for the plugin's count")
	fs.IntVar(&o.note, "n", 60, "MIDI note")
	fs.IntVar(&o.velocity, "v", 127, "MIDI velocity")
	fs.StringVar(&o.projectDir, "d", "", "project directory")
	fs.Var(&o.configure, "k", "configure key=value (repeatable)")
	fs.BoolVar(&o.clip, "b", false, "clip invalid samples instead of failing")
	fs.IntVar(&o.sampleRate, "s", host.DefaultSampleRate, "sample rate in Hz")
	fs.StringVar(&o.reportPath, "a", "", "analysis report JSON file")
	fs.Uint64Var(&o.seed, "S", 0, "random seed")
	fs.BoolVar(&o.verbose, "V", false, "verbose logging")

	if err := fs.Parse(args[1:]); err != nil {
		return nil, fmt.Errorf("%w: %w", errUsage, err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected argument %q", errUsage, fs.Arg(0))
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "S" {
			o.seedSet = true
		}
	})

	switch {
	case o.note < 0 || o.note > 127:
		return nil, fmt.Errorf("%w: note %d out of range 0..127", errUsage, o.note)
	case o.velocity < 0 || o.velocity > 127:
		return nil, fmt.Errorf("%w: velocity %d out of range 0..127", errUsage, o.velocity)
	case o.channels == 0 || o.channels < host.MatchPlugin:
		return nil, fmt.Errorf("%w: invalid channel count %d", errUsage, o.channels)
	case o.sampleRate <= 0:
		return nil, fmt.Errorf("%w: invalid sample rate %d", errUsage, o.sampleRate)
	case o.length < 0:
		return nil, fmt.Errorf("%w: negative length", errUsage)
	case math.IsNaN(o.length) || math.IsInf(o.length, 0):
		return nil, fmt.Errorf("%w: invalid length %g", errUsage, o.length)
	case math.IsNaN(o.release) || math.IsInf(o.release, 0):
		return nil, fmt.Errorf("%w: invalid release tail %g", errUsage, o.release)
	case (o.length+max(o.release, 0))*float64(o.sampleRate) > host.MaxFrames:
		return nil, fmt.Errorf("%w: length too long at %d Hz", errUsage, o.sampleRate)
	case o.program != "" && o.presetPath != "":
		return nil, fmt.Errorf("%w: -p and -P are exclusive", errUsage)
	}
	if o.program != "" {
		if _, _, err := parseProgram(o.program); err != nil {
			return nil, fmt.Errorf("%w: %w", errUsage, err)
		}
	}
	return o, nil
}

// parseProgram splits "[bank:]program". Numbers follow C literal syntax.
func parseProgram(s string) (bank, program int, err error) {
	first, second, hasBank := strings.Cut(s, ":")
	if !hasBank {
		second, first = first, "0"
	}
	b, err := strconv.ParseInt(first, 0, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid bank %q", first)
	}
	p, err := strconv.ParseInt(second, 0, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid program %q", second)
	}
	if b < 0 || p < programRandom {
		return 0, 0, fmt.Errorf("invalid program %q", s)
	}
	return int(b), int(p), nil
}

// controls picks the control source for the parsed options.
func (o *options) controls(stdin io.Reader, logger *slog.Logger) (host.ControlSource, error) {
	if o.presetPath != "" {
		return preset.LoadJSON(o.presetPath)
	}
	if o.program == "" {
		return host.Stdin{Reader: stdin}, nil
	}
	bank, program, err := parseProgram(o.program)
	if err != nil {
		return nil, err
	}
	switch program {
	case programDefaults:
		return host.Defaults{}, nil
	case programRandom:
		seed := o.seed
		if !o.seedSet {
			seed = rand.Uint64()
		}
		logger.Debug("random control values", "seed", seed)
		return host.Random{Rand: rand.New(rand.NewPCG(seed, seed))}, nil
	default:
		return host.Program{Bank: bank, Program: program}, nil
	}
}

// config builds the render configuration.
func (o *options) config(controls host.ControlSource, logger *slog.Logger) host.Config {
	cfg := host.DefaultConfig()
	cfg.SampleRate = o.sampleRate
	cfg.Channels = o.channels
	cfg.Note = uint8(o.note)
	cfg.Velocity = uint8(o.velocity)
	cfg.Length = o.length
	cfg.ReleaseTail = o.release
	cfg.Clip = o.clip
	cfg.ProjectDir = o.projectDir
	cfg.Configure = o.configure
	cfg.Controls = controls
	cfg.Logger = logger
	return cfg
}
