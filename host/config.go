package host

import (
	"fmt"
	"log/slog"
	"math"
)

const (
	DefaultSampleRate = 44100
	DefaultBlockSize  = 256
	// DefaultMaxLength caps renders that wait for silence, in seconds.
	DefaultMaxLength = 15.0
	// MatchPlugin as Config.Channels requests one channel per audio output.
	MatchPlugin = -1
	// SilenceThreshold is the absolute-sum energy below which a block is
	// considered silent.
	SilenceThreshold = 0.01
	// MaxFrames bounds every length in frames.
	MaxFrames = 1<<31 - 1
)

// KeyValue is one configure pair passed to the plugin.
type KeyValue struct {
	Key   string
	Value string
}

// Config describes one render.
type Config struct {
	SampleRate int
	BlockSize  int
	// Channels in the output file, or MatchPlugin.
	Channels int
	Note     uint8
	Velocity uint8
	// Length is the time between note-on and note-off, in seconds.
	Length float64
	// ReleaseTail is the time rendered after note-off, in seconds. A
	// negative value renders until silence or MaxLength.
	ReleaseTail float64
	MaxLength   float64
	// Clip clamps invalid samples instead of failing.
	Clip       bool
	ProjectDir string
	Configure  []KeyValue
	Controls   ControlSource
	Logger     *slog.Logger
}

// DefaultConfig returns the documented defaults: mono, one second, middle C
// at full velocity, control values from defaults.
func DefaultConfig() Config {
	return Config{
		SampleRate:  DefaultSampleRate,
		BlockSize:   DefaultBlockSize,
		Channels:    1,
		Note:        60,
		Velocity:    127,
		Length:      1.0,
		ReleaseTail: -1,
		MaxLength:   DefaultMaxLength,
		Controls:    Defaults{},
	}
}

// Validate checks the fields Run depends on.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidConfig, c.SampleRate)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("%w: block size %d", ErrInvalidConfig, c.BlockSize)
	}
	if c.Channels == 0 || c.Channels < MatchPlugin {
		return fmt.Errorf("%w: channel count %d", ErrInvalidConfig, c.Channels)
	}
	if c.Note > 127 || c.Velocity > 127 {
		return fmt.Errorf("%w: note %d velocity %d", ErrInvalidConfig, c.Note, c.Velocity)
	}
	if c.Length < 0 {
		return fmt.Errorf("%w: negative length", ErrInvalidConfig)
	}
	if c.MaxLength <= 0 {
		return fmt.Errorf("%w: max length %g", ErrInvalidConfig, c.MaxLength)
	}
	if err := c.checkSeconds("length", c.Length); err != nil {
		return err
	}
	if err := c.checkSeconds("release tail", c.ReleaseTail); err != nil {
		return err
	}
	if err := c.checkSeconds("max length", c.MaxLength); err != nil {
		return err
	}
	if err := c.checkSeconds("length plus release tail", c.Length+max(c.ReleaseTail, 0)); err != nil {
		return err
	}
	if c.Controls == nil {
		return fmt.Errorf("%w: no control source", ErrInvalidConfig)
	}
	return nil
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// checkSeconds rejects durations that are not finite or exceed MaxFrames.
func (c Config) checkSeconds(name string, seconds float64) error {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return fmt.Errorf("%w: %s %g", ErrInvalidConfig, name, seconds)
	}
	if math.Abs(seconds)*float64(c.SampleRate) > MaxFrames {
		return fmt.Errorf("%w: %s %g s exceeds %d frames", ErrInvalidConfig, name, seconds, MaxFrames)
	}
	return nil
}

// frames converts seconds to frames, truncating.
func (c Config) frames(seconds float64) int {
	return int(float64(c.SampleRate) * seconds)
}
