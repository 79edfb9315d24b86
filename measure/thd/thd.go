// Package thd measures harmonic distortion of a steady tone. It is used to
// quantify the distortion a compressor adds when its envelope follows the
// waveform instead of its level.
package thd

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-comp/dsp/window"
)

const (
	defaultRangeLowerHz = 20.0
	defaultRangeUpperHz = 20000.0
)

var errEmptySignal = errors.New("thd: empty signal")

// Config holds THD calculation parameters. Zero fields take defaults: the
// FFT size is the next power of two of the signal length, the sample rate
// equals the FFT size (frequencies in bins), the fundamental is the
// strongest bin in range, capture bins follow the window's main lobe.
type Config struct {
	SampleRate      float64
	FFTSize         int
	FundamentalFreq float64
	RangeLowerFreq  float64
	RangeUpperFreq  float64
	// MaxHarmonics limits the harmonics evaluated; 0 means all in range.
	MaxHarmonics int
	// CaptureBins is the half-width of the bin group summed per tone.
	CaptureBins int
	Window      window.Type
}

// Result holds THD measurement results. Levels are sine amplitudes; ratios
// are relative to the fundamental.
type Result struct {
	FundamentalFreq  float64
	FundamentalLevel float64
	// Harmonics holds the level of harmonic 2, 3, ... relative to the
	// fundamental.
	Harmonics []float64
	THD       float64
	THDdB     float64
	THDN      float64
	THDNdB    float64
	SINAD     float64
}

type forwardPlan interface {
	Forward(dst, src []complex128) error
}

// Calculator analyzes signals of one FFT size, reusing its plan and buffers.
// It is not safe for concurrent use.
type Calculator struct {
	cfg    Config
	coeffs []float64
	// windowEnergy is the sum of squared window coefficients.
	windowEnergy float64

	plan   forwardPlan
	in     []complex128
	out    []complex128
	re, im []float64
	power  []float64
}

// NewCalculator creates a calculator. cfg.FFTSize must be a power of two.
func NewCalculator(cfg Config) (*Calculator, error) {
	cfg = normalizeConfig(cfg)
	if cfg.FFTSize < 2 || cfg.FFTSize&(cfg.FFTSize-1) != 0 {
		return nil, fmt.Errorf("thd: FFT size must be a power of two >= 2: %d", cfg.FFTSize)
	}

	plan, err := algofft.NewPlan64(cfg.FFTSize)
	if err != nil {
		return nil, fmt.Errorf("thd: fft plan: %w", err)
	}

	bins := cfg.FFTSize/2 + 1

	return &Calculator{
		cfg:   cfg,
		plan:  plan,
		in:    make([]complex128, cfg.FFTSize),
		out:   make([]complex128, cfg.FFTSize),
		re:    make([]float64, bins),
		im:    make([]float64, bins),
		power: make([]float64, bins),
	}, nil
}

// AnalyzeSignal is a one-shot analysis. Errors yield a zero Result.
func AnalyzeSignal(signal []float64, cfg Config) Result {
	if cfg.FFTSize <= 0 {
		cfg.FFTSize = nextPowerOf2(len(signal))
	}

	calc, err := NewCalculator(cfg)
	if err != nil {
		return Result{}
	}

	res, err := calc.Analyze(signal)
	if err != nil {
		return Result{}
	}

	return res
}

// Config returns the normalized configuration.
func (c *Calculator) Config() Config { return c.cfg }

// Analyze windows the first FFTSize samples of signal (zero padded if
// shorter), transforms them and evaluates the distortion metrics.
func (c *Calculator) Analyze(signal []float64) (Result, error) {
	if len(signal) == 0 {
		return Result{}, errEmptySignal
	}

	n := min(len(signal), c.cfg.FFTSize)
	c.prepareWindow(n)

	for i := range c.in {
		if i < n {
			c.in[i] = complex(signal[i]*c.coeffs[i], 0)
		} else {
			c.in[i] = 0
		}
	}

	if err := c.plan.Forward(c.out, c.in); err != nil {
		return Result{}, fmt.Errorf("thd: forward transform: %w", err)
	}

	for i := range c.re {
		c.re[i] = real(c.out[i])
		c.im[i] = imag(c.out[i])
	}
	vecmath.Power(c.power, c.re, c.im)

	return c.evaluate(c.power), nil
}

// prepareWindow builds the analysis window for n samples once per length.
func (c *Calculator) prepareWindow(n int) {
	if len(c.coeffs) == n {
		return
	}

	c.coeffs = window.Generate(c.cfg.Window, n, window.WithPeriodic())
	c.windowEnergy = 0
	for _, w := range c.coeffs {
		c.windowEnergy += w * w
	}
}

// evaluate computes the metrics from a one-sided power spectrum.
func (c *Calculator) evaluate(power []float64) Result {
	cfg := c.cfg
	maxBin := len(power) - 1
	binHz := cfg.SampleRate / float64(cfg.FFTSize)

	lowerBin := clampInt(int(math.Round(cfg.RangeLowerFreq/binHz)), 1, maxBin)
	upperBin := clampInt(int(math.Round(cfg.RangeUpperFreq/binHz)), lowerBin, maxBin)

	fundamentalBin := lowerBin
	if cfg.FundamentalFreq > 0 {
		fundamentalBin = clampInt(int(math.Round(cfg.FundamentalFreq/binHz)), lowerBin, upperBin)
	} else {
		for i := lowerBin + 1; i <= upperBin; i++ {
			if power[i] > power[fundamentalBin] {
				fundamentalBin = i
			}
		}
	}

	capture := cfg.CaptureBins
	if capture <= 0 {
		capture = window.Info(cfg.Window).FirstMinimumBins
	}
	// Keep neighbouring harmonic groups from overlapping.
	capture = min(capture, max((fundamentalBin-1)/2, 0))

	res := Result{FundamentalFreq: float64(fundamentalBin) * binHz}

	fundamental := groupPower(power, fundamentalBin, capture)
	if fundamental <= 0 {
		return res
	}
	res.FundamentalLevel = c.amplitude(fundamental)

	harmonicPower := 0.0
	for k := 2; cfg.MaxHarmonics == 0 || k-1 <= cfg.MaxHarmonics; k++ {
		bin := k * fundamentalBin
		if bin > upperBin {
			break
		}

		p := groupPower(power, bin, capture)
		harmonicPower += p
		res.Harmonics = append(res.Harmonics, math.Sqrt(p/fundamental))
	}

	total := 0.0
	for i := lowerBin; i <= upperBin; i++ {
		total += power[i]
	}
	residual := max(total-fundamental, 0)

	res.THD = math.Sqrt(harmonicPower / fundamental)
	res.THDN = math.Sqrt(residual / fundamental)
	res.THDdB = ratioToDB(res.THD)
	res.THDNdB = ratioToDB(res.THDN)
	res.SINAD = -res.THDNdB

	return res
}

// amplitude converts the power of one captured tone back to a sine
// amplitude using Parseval's relation for the windowed exponential.
func (c *Calculator) amplitude(power float64) float64 {
	if c.windowEnergy <= 0 {
		return 0
	}
	return 2 * math.Sqrt(power/(float64(c.cfg.FFTSize)*c.windowEnergy))
}

func groupPower(power []float64, bin, capture int) float64 {
	lo := max(bin-capture, 0)
	hi := min(bin+capture, len(power)-1)

	sum := 0.0
	for i := lo; i <= hi; i++ {
		sum += power[i]
	}
	return sum
}

func normalizeConfig(cfg Config) Config {
	if cfg.RangeLowerFreq <= 0 {
		cfg.RangeLowerFreq = defaultRangeLowerHz
	}
	if cfg.RangeUpperFreq <= 0 {
		cfg.RangeUpperFreq = defaultRangeUpperHz
	}
	if cfg.RangeUpperFreq < cfg.RangeLowerFreq {
		cfg.RangeUpperFreq = cfg.RangeLowerFreq
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = float64(cfg.FFTSize)
	}
	cfg.CaptureBins = max(cfg.CaptureBins, 0)
	cfg.MaxHarmonics = max(cfg.MaxHarmonics, 0)

	return cfg
}

func ratioToDB(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(v)
}

func clampInt(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
