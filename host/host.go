// Package host runs one offline render of a DSSI synthesis plugin: it
// negotiates ports, assigns control values, plays one note and streams the
// validated, interleaved output to a FrameWriter.
package host

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/cwbudde/dssi-render/plugin"
)

// OutputFunc opens the destination once the channel count is known.
type OutputFunc func(sampleRate, channels int) (FrameWriter, error)

// Result summarizes a finished render.
type Result struct {
	Label     string
	Frames    int
	Blocks    int
	Channels  int
	Truncated bool
	// Replaced counts control values reset to their defaults.
	Replaced int
}

// Run renders one note through desc and writes it to the output opened by
// open. The output is closed before the instance is deactivated and cleaned
// up; all three happen on every error path after they were acquired.
func Run(desc plugin.Descriptor, cfg Config, open OutputFunc) (res Result, err error) {
	if err := cfg.Validate(); err != nil {
		return res, err
	}
	logger := cfg.logger()
	caps := desc.Capabilities()
	res.Label = desc.Label()

	if !caps.CanRender() {
		return res, fmt.Errorf("%s: %w", desc.Label(), ErrNoRenderCallback)
	}

	ports := desc.Ports()
	counts := Classify(ports)
	if counts.AudioOut == 0 {
		return res, fmt.Errorf("%s: %w", desc.Label(), ErrNoAudioOutputs)
	}
	res.Channels = cfg.Channels
	if res.Channels == MatchPlugin {
		res.Channels = counts.AudioOut
	}
	logger.Debug("ports", "audio_in", counts.AudioIn, "audio_out", counts.AudioOut,
		"control_in", counts.ControlIn, "control_out", counts.ControlOut, "channels", res.Channels)

	inst, err := desc.Instantiate(cfg.SampleRate)
	if err != nil {
		return res, fmt.Errorf("%w %q: %w", ErrInstantiate, desc.Label(), err)
	}
	activated := false
	defer func() {
		if activated && caps&plugin.CapDeactivate != 0 {
			inst.Deactivate()
		}
		// Cleanup also releases the port buffers, with or without a
		// plugin cleanup callback.
		inst.Cleanup()
	}()

	bufs := Connect(inst, ports, cfg.BlockSize)

	sampleRate := float32(cfg.SampleRate)
	err = cfg.Controls.Assign(Assignment{
		Instance:     inst,
		Capabilities: caps,
		Controls:     bufs.ControlIn,
		SampleRate:   sampleRate,
		Logger:       logger,
	})
	if err != nil {
		return res, err
	}
	res.Replaced = SanitizeControls(bufs.ControlIn, sampleRate, logger)

	if caps&plugin.CapActivate != 0 {
		inst.Activate()
	}
	activated = true

	configure(inst, caps, cfg, logger)

	w, err := open(cfg.SampleRate, res.Channels)
	if err != nil {
		return res, err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	r := &renderer{
		inst:        inst,
		outs:        bufs.AudioOut,
		w:           w,
		notes:       plugin.NewNotePair(cfg.Note, cfg.Velocity),
		validator:   &Validator{Clip: cfg.Clip, Logger: logger},
		logger:      logger,
		blockSize:   cfg.BlockSize,
		channels:    res.Channels,
		length:      cfg.frames(cfg.Length),
		releaseTail: -1,
		maxFrames:   cfg.frames(cfg.MaxLength),
	}
	if cfg.ReleaseTail >= 0 {
		r.releaseTail = cfg.frames(cfg.ReleaseTail)
	}

	err = r.run()
	res.Frames = r.total
	res.Blocks = r.blocks
	res.Truncated = r.truncated
	return res, err
}

func configure(inst plugin.Instance, caps plugin.Capability, cfg Config, logger *slog.Logger) {
	if cfg.ProjectDir == "" && len(cfg.Configure) == 0 {
		return
	}
	if caps&plugin.CapConfigure == 0 {
		logger.Warn("plugin has no configure(), ignoring configure keys")
		return
	}
	if cfg.ProjectDir != "" {
		if err := inst.Configure(plugin.ProjectDirectoryKey, cfg.ProjectDir); err != nil {
			logger.Warn("plugin doesn't like project directory", "dir", cfg.ProjectDir, "reply", err.Error())
		}
	}
	for _, kv := range cfg.Configure {
		if err := inst.Configure(kv.Key, kv.Value); err != nil {
			logger.Warn("plugin doesn't like configure key-value pair", "key", kv.Key, "value", kv.Value, "reply", err.Error())
		}
	}
}
