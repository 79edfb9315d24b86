package dynamics

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-comp/dsp/core"
)

const (
	// Default compressor parameters
	defaultSampleRate  = 48000.0
	defaultThresholdDB = 0.0
	defaultRatio       = 2.0
	defaultAttackMs    = 10.0
	defaultReleaseMs   = 50.0

	// Peak detector time constants are fixed; only the gain smoother is
	// user-adjustable.
	peakAttackMs  = 0.01
	peakReleaseMs = 10.0

	minRatio = 1.0
)

// Compressor is a feed-forward peak compressor with a hard-knee dB gain law
// and separate attack/release smoothing of the computed gain.
//
// The gain law never exceeds unity. Makeup gain is left to the caller.
//
// This implementation is single-threaded and not thread-safe.
type Compressor struct {
	// Peak follower
	peakAttack  float64
	peakRelease float64
	peak        Envelope

	// Gain smoother
	gainAttack  float64
	gainRelease float64
	gain        Envelope

	thresholdDB float64
	ratio       float64

	// Kept so the coefficients can be rebuilt when the sample rate changes.
	sampleRate float64
	attackMs   float64
	releaseMs  float64
}

// Option configures a Compressor at construction time.
type Option func(*Compressor)

// WithSampleRate sets the sample rate in Hz.
func WithSampleRate(sampleRate float64) Option {
	return func(c *Compressor) { c.sampleRate = sampleRate }
}

// WithAttack sets the gain attack time in milliseconds.
func WithAttack(ms float64) Option {
	return func(c *Compressor) { c.attackMs = ms }
}

// WithRelease sets the gain release time in milliseconds.
func WithRelease(ms float64) Option {
	return func(c *Compressor) { c.releaseMs = ms }
}

// WithThreshold sets the threshold in dB.
func WithThreshold(dB float64) Option {
	return func(c *Compressor) { c.thresholdDB = dB }
}

// WithRatio sets the compression ratio (1 = no compression).
func WithRatio(ratio float64) Option {
	return func(c *Compressor) { c.ratio = ratio }
}

// NewCompressor creates a compressor. Without options it uses:
//   - Sample rate: 48000 Hz
//   - Threshold: 0 dB
//   - Ratio: 2:1
//   - Attack: 10 ms
//   - Release: 50 ms
func NewCompressor(opts ...Option) (*Compressor, error) {
	c := &Compressor{
		thresholdDB: defaultThresholdDB,
		ratio:       defaultRatio,
		sampleRate:  defaultSampleRate,
		attackMs:    defaultAttackMs,
		releaseMs:   defaultReleaseMs,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := validateSampleRate(c.sampleRate); err != nil {
		return nil, err
	}
	if err := validateTime("attack", c.attackMs); err != nil {
		return nil, err
	}
	if err := validateTime("release", c.releaseMs); err != nil {
		return nil, err
	}
	if err := validateThreshold(c.thresholdDB); err != nil {
		return nil, err
	}
	if err := validateRatio(c.ratio); err != nil {
		return nil, err
	}

	c.updateTimeConstants()
	c.Reset()

	return c, nil
}

// SetSampleRate updates the sample rate and recomputes both coefficient
// pairs. Envelope state is kept.
func (c *Compressor) SetSampleRate(sampleRate float64) error {
	if err := validateSampleRate(sampleRate); err != nil {
		return err
	}
	c.sampleRate = sampleRate
	c.updateTimeConstants()
	return nil
}

// SetAttack sets the gain attack time in milliseconds and recomputes the
// attack coefficient. The release coefficient is untouched.
func (c *Compressor) SetAttack(ms float64) error {
	if err := validateTime("attack", ms); err != nil {
		return err
	}
	c.attackMs = ms
	c.gainAttack = TimeConstant(ms, c.sampleRate)
	return nil
}

// SetRelease sets the gain release time in milliseconds and recomputes the
// release coefficient. The attack coefficient is untouched.
func (c *Compressor) SetRelease(ms float64) error {
	if err := validateTime("release", ms); err != nil {
		return err
	}
	c.releaseMs = ms
	c.gainRelease = TimeConstant(ms, c.sampleRate)
	return nil
}

// SetThreshold sets the threshold in dB.
func (c *Compressor) SetThreshold(dB float64) error {
	if err := validateThreshold(dB); err != nil {
		return err
	}
	c.thresholdDB = dB
	return nil
}

// SetRatio sets the compression ratio. Range: [1, +Inf).
//   - 1.0 = no compression
//   - 4.0 = 4 dB of input above threshold yields 1 dB of output
func (c *Compressor) SetRatio(ratio float64) error {
	if err := validateRatio(ratio); err != nil {
		return err
	}
	c.ratio = ratio
	return nil
}

// Threshold returns the current threshold in dB.
func (c *Compressor) Threshold() float64 { return c.thresholdDB }

// Ratio returns the current compression ratio.
func (c *Compressor) Ratio() float64 { return c.ratio }

// Attack returns the gain attack time in milliseconds.
func (c *Compressor) Attack() float64 { return c.attackMs }

// Release returns the gain release time in milliseconds.
func (c *Compressor) Release() float64 { return c.releaseMs }

// SampleRate returns the current sample rate in Hz.
func (c *Compressor) SampleRate() float64 { return c.sampleRate }

// PeakCoeffs returns the peak follower attack and release coefficients.
func (c *Compressor) PeakCoeffs() (attack, release float64) {
	return c.peakAttack, c.peakRelease
}

// GainCoeffs returns the gain smoother attack and release coefficients.
func (c *Compressor) GainCoeffs() (attack, release float64) {
	return c.gainAttack, c.gainRelease
}

// PeakLevel returns the running peak envelope.
func (c *Compressor) PeakLevel() float64 { return c.peak.Value() }

// SmoothedGain returns the running smoothed linear gain.
func (c *Compressor) SmoothedGain() float64 { return c.gain.Value() }

// Compress processes one sample and returns the output together with the
// intermediate detector values: the peak envelope, the instantaneous gain of
// the gain law and the smoothed gain applied to the input.
//
// Non-finite input is treated as silence.
func (c *Compressor) Compress(input float64) (output, peak, gain, smoothed float64) {
	if !core.IsFinite(input) {
		input = 0
	}

	peak = core.FlushDenormals(c.peak.Process(c.peakAttack, c.peakRelease, math.Abs(input)))
	c.peak.Reset(peak)

	gain = c.GainForLevel(peak)

	// Gain moves opposite to level: rising gain is recovery and follows the
	// release coefficient, falling gain follows attack.
	smoothed = c.gain.Process(c.gainRelease, c.gainAttack, gain)

	return smoothed * input, peak, gain, smoothed
}

// ProcessSample processes one sample and returns the compressed output.
func (c *Compressor) ProcessSample(input float64) float64 {
	out, _, _, _ := c.Compress(input)
	return out
}

// ProcessInPlace applies compression to buf in place.
func (c *Compressor) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = c.ProcessSample(buf[i])
	}
}

// ProcessBlock compresses src into dst. Only min(len(dst), len(src)) samples
// are processed.
func (c *Compressor) ProcessBlock(dst, src []float64) {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] = c.ProcessSample(src[i])
	}
}

// GainForLevel evaluates the static gain law for a detector level:
//
//	gainDB = min(0, (1 - 1/ratio) * (threshold - 20*log10(level)))
//	gain   = 10^(gainDB / 20)
//
// A level of zero or below maps to unity gain. The result is in (0, 1].
func (c *Compressor) GainForLevel(level float64) float64 {
	if level <= 0 || c.ratio == minRatio {
		return 1.0
	}

	levelDB := 20.0 * mathLog10(level)

	gainDB := (1.0 - 1.0/c.ratio) * (c.thresholdDB - levelDB)
	if gainDB >= 0 {
		return 1.0
	}

	return mathPower10(0.05 * gainDB)
}

// CalculateOutputLevel computes the steady-state output level for a given
// input magnitude. This allows visualizing the compression curve.
func (c *Compressor) CalculateOutputLevel(inputMagnitude float64) float64 {
	inputMagnitude = math.Abs(inputMagnitude)
	return inputMagnitude * c.GainForLevel(inputMagnitude)
}

// Reset clears the envelope memory: peak to 0 and gain to unity.
// Configuration is kept.
func (c *Compressor) Reset() {
	c.peak.Reset(0)
	c.gain.Reset(1.0)
}

func (c *Compressor) updateTimeConstants() {
	c.peakAttack = TimeConstant(peakAttackMs, c.sampleRate)
	c.peakRelease = TimeConstant(peakReleaseMs, c.sampleRate)
	c.gainAttack = TimeConstant(c.attackMs, c.sampleRate)
	c.gainRelease = TimeConstant(c.releaseMs, c.sampleRate)
}

func validateSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return fmt.Errorf("compressor sample rate must be positive and finite: %f", sampleRate)
	}
	return nil
}

func validateTime(name string, ms float64) error {
	if ms <= 0 || !core.IsFinite(ms) {
		return fmt.Errorf("compressor %s must be positive and finite: %f", name, ms)
	}
	return nil
}

func validateThreshold(dB float64) error {
	if !core.IsFinite(dB) {
		return fmt.Errorf("compressor threshold must be finite: %f", dB)
	}
	return nil
}

func validateRatio(ratio float64) error {
	if ratio < minRatio || !core.IsFinite(ratio) {
		return fmt.Errorf("compressor ratio must be finite and >= %f: %f", minRatio, ratio)
	}
	return nil
}
