package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/algo-approx"
	"github.com/cwbudde/algo-dsp/dsp/window"
	"github.com/cwbudde/algo-dsp/stats/frequency"
	algofft "github.com/cwbudde/algo-fft"
)

// floorDB stands in for the level of digital silence.
const floorDB = -240.0

// Report contains level, decay and pitch measurements of one render.
type Report struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Frames     int     `json:"frames"`
	DurationS  float64 `json:"duration_s"`

	SamplePeak    float64 `json:"sample_peak"`
	PeakDB        float64 `json:"peak_db"`
	RMSDB         float64 `json:"rms_db"`
	CrestDB       float64 `json:"crest_db"`
	DC            float64 `json:"dc"`
	ZeroCrossings int     `json:"zero_crossings"`
	// DecayDBPerS is the slope of the envelope after its peak; absent when
	// the render is too short or never decays.
	DecayDBPerS *float64 `json:"decay_db_per_s,omitempty"`

	Note        int     `json:"note"`
	ExpectedHz  float64 `json:"expected_hz"`
	DominantHz  float64 `json:"dominant_hz"`
	CentsOff    float64 `json:"cents_off"`
	CentroidHz  float64 `json:"centroid_hz"`
	RolloffHz   float64 `json:"rolloff_hz"`
	Flatness    float64 `json:"flatness"`
	SpectrumLen int     `json:"spectrum_frames"`
}

// Report measures everything seen so far against the given MIDI note.
func (t *Tap) Report(note uint8) (Report, error) {
	st := t.stats.Result()
	r := Report{
		SampleRate:    t.sampleRate,
		Channels:      t.channels,
		Frames:        t.frames,
		DurationS:     float64(t.frames) / float64(t.sampleRate),
		SamplePeak:    t.samplePeak,
		PeakDB:        finiteDB(st.Peak_dB),
		RMSDB:         finiteDB(st.RMS_dB),
		CrestDB:       finiteDB(st.CrestFactor_dB),
		DC:            st.DC,
		ZeroCrossings: st.ZeroCrossings,
		Note:          int(note),
		ExpectedHz:    NoteFrequency(note),
		SpectrumLen:   len(t.head),
	}
	if slope := t.decay.slope(); !math.IsNaN(slope) {
		r.DecayDBPerS = &slope
	}

	if len(t.head) < 2 || st.RMS == 0 {
		return r, nil
	}
	mag, err := spectrum(t.head)
	if err != nil {
		return r, err
	}
	fs := frequency.Calculate(mag, float64(t.sampleRate))
	binHz := float64(t.sampleRate) / float64(SpectrumFrames)
	r.DominantHz = interpolatePeak(mag, fs.MaxBin) * binHz
	r.CentroidHz = finiteOr(fs.Centroid, 0)
	r.RolloffHz = finiteOr(fs.Rolloff, 0)
	r.Flatness = finiteOr(fs.Flatness, 0)
	if r.DominantHz > 0 {
		r.CentsOff = 1200 * math.Log2(r.DominantHz/r.ExpectedHz)
	}
	return r, nil
}

// WriteJSON writes r to path, indented.
func (r Report) WriteJSON(path string) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// NoteFrequency returns the equal-tempered frequency of a MIDI note, A4 =
// 440 Hz.
func NoteFrequency(note uint8) float64 {
	const ln2 = 0.6931471805599453
	return 440 * float64(approx.FastExp(float32(ln2*(float64(note)-69)/12)))
}

// spectrum returns the one-sided magnitude spectrum of x, Hann windowed over
// its own length and zero padded to SpectrumFrames.
func spectrum(x []float64) ([]float64, error) {
	win, err := window.Hann(len(x))
	if err != nil {
		return nil, fmt.Errorf("analysis window: %w", err)
	}
	plan, err := algofft.NewPlanReal64(SpectrumFrames)
	if err != nil {
		return nil, fmt.Errorf("fft plan: %w", err)
	}
	buf := make([]float64, SpectrumFrames)
	for i, v := range x {
		buf[i] = v * win[i]
	}
	spec := make([]complex128, SpectrumFrames/2+1)
	plan.Forward(spec, buf)

	mag := make([]float64, len(spec))
	for i, c := range spec {
		mag[i] = math.Hypot(real(c), imag(c))
	}
	return mag, nil
}

// interpolatePeak refines bin k with a parabola through the log magnitudes
// of its neighbours.
func interpolatePeak(mag []float64, k int) float64 {
	if k <= 0 || k >= len(mag)-1 {
		return float64(k)
	}
	a := levelDB(mag[k-1])
	b := levelDB(mag[k])
	c := levelDB(mag[k+1])
	den := a - 2*b + c
	if den == 0 {
		return float64(k)
	}
	return float64(k) + 0.5*(a-c)/den
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

func finiteDB(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < floorDB {
		return floorDB
	}
	return v
}
