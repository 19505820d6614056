// Package wavfile streams interleaved float blocks into a 16-bit PCM WAV.
package wavfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

const bitDepth = 16

var ErrInvalidFile = errors.New("invalid wav file")

// Writer encodes blocks as they arrive. The header is finalized by Close.
type Writer struct {
	f        *os.File
	enc      *wav.Encoder
	format   *audio.Format
	channels int
	frames   int
	closed   bool
}

// Create truncates or creates path, along with its directory.
func Create(path string, sampleRate, channels int) (*Writer, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("wav %s: sample rate %d, %d channels", path, sampleRate, channels)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	format := &audio.Format{SampleRate: sampleRate, NumChannels: channels}
	return &Writer{
		f:        f,
		enc:      wav.NewEncoder(f, sampleRate, bitDepth, channels, 1),
		format:   format,
		channels: channels,
	}, nil
}

// WriteFrames encodes one interleaved block and returns the frames written.
func (w *Writer) WriteFrames(interleaved []float32) (int, error) {
	if w.closed {
		return 0, os.ErrClosed
	}
	if len(interleaved)%w.channels != 0 {
		return 0, fmt.Errorf("wav: %d samples is not a whole number of %d-channel frames", len(interleaved), w.channels)
	}
	buf := &audio.Float32Buffer{
		Format:         w.format,
		Data:           interleaved,
		SourceBitDepth: bitDepth,
	}
	if err := w.enc.Write(buf); err != nil {
		return 0, err
	}
	n := len(interleaved) / w.channels
	w.frames += n
	return n, nil
}

// Frames returns the number of frames written so far.
func (w *Writer) Frames() int { return w.frames }

func (w *Writer) Name() string { return w.f.Name() }

// Close writes the final header and closes the file. It is safe to call
// more than once.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	encErr := w.enc.Close()
	return errors.Join(encErr, w.f.Close())
}

// Read decodes a WAV file into interleaved samples in [-1, 1].
func Read(path string) (data []float32, sampleRate, channels int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, 0, fmt.Errorf("%w: %s", ErrInvalidFile, path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, 0, fmt.Errorf("%w: no audio format in %s", ErrInvalidFile, path)
	}
	return buf.Data, buf.Format.SampleRate, buf.Format.NumChannels, nil
}
