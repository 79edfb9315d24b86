// Command compinfo prints the static and dynamic behaviour of the
// compressor for a given setting.
//
// Usage:
//
//	compinfo [flags]
//
// It prints the detector and smoother coefficients, the static curve from
// -60 to +12 dBFS, attack and release settling times for a full-scale step
// and the THD the envelope adds to a full-scale sine.
//
// Examples:
//
//	compinfo
//	compinfo -threshold -20 -ratio 8
//	compinfo -rate 96000 -attack 0.5 -release 20 -freq 100
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-comp/dsp/core"
	"github.com/cwbudde/algo-comp/dsp/effects/dynamics"
	"github.com/cwbudde/algo-comp/measure/thd"
)

const (
	curveLowDB  = -60
	curveHighDB = 12
	curveStepDB = 6

	thdFFTSize = 8192
	// settledFraction is the share of the gain change after which a step
	// counts as settled.
	settledFraction = 0.9
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	log := logrus.New()
	log.SetOutput(stderr)

	fs := flag.NewFlagSet("compinfo", flag.ContinueOnError)
	fs.SetOutput(stderr)

	rate := fs.Float64("rate", 48000, "sample rate in Hz")
	threshold := fs.Float64("threshold", -6, "threshold in dBFS")
	ratio := fs.Float64("ratio", 2, "compression ratio (>= 1)")
	attack := fs.Float64("attack", 10, "attack time in ms")
	release := fs.Float64("release", 50, "release time in ms")
	freq := fs.Float64("freq", 1000, "THD test tone in Hz")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: compinfo [flags]\n\n")
		fmt.Fprintf(stderr, "Prints coefficients, static curve, settling times and THD of the compressor.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  compinfo -threshold -20 -ratio 8\n")
		fmt.Fprintf(stderr, "  compinfo -rate 96000 -attack 0.5 -release 20\n")
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	newComp := func() (*dynamics.Compressor, error) {
		return dynamics.NewCompressor(
			dynamics.WithSampleRate(*rate),
			dynamics.WithThreshold(*threshold),
			dynamics.WithRatio(*ratio),
			dynamics.WithAttack(*attack),
			dynamics.WithRelease(*release),
		)
	}

	comp, err := newComp()
	if err != nil {
		log.WithError(err).Error("invalid compressor settings")
		return 1
	}

	if *freq <= 0 || *freq >= *rate/2 {
		log.WithField("freq", *freq).Error("test tone must lie between 0 Hz and Nyquist")
		return 1
	}

	if err := report(stdout, comp, *freq); err != nil {
		log.WithError(err).Error("failed to write report")
		return 1
	}

	return 0
}

func report(w io.Writer, comp *dynamics.Compressor, freq float64) error {
	if _, err := fmt.Fprintf(w, "Compressor @ %g Hz: threshold %.2f dB, ratio %.2f:1, attack %.2f ms, release %.2f ms\n\n",
		comp.SampleRate(), comp.Threshold(), comp.Ratio(), comp.Attack(), comp.Release()); err != nil {
		return err
	}

	if err := printCoefficients(w, comp); err != nil {
		return err
	}
	if err := printCurve(w, comp); err != nil {
		return err
	}
	if err := printSettling(w, comp); err != nil {
		return err
	}

	return printTHD(w, comp, freq)
}

func printCoefficients(w io.Writer, comp *dynamics.Compressor) error {
	peakAttack, peakRelease := comp.PeakCoeffs()
	gainAttack, gainRelease := comp.GainCoeffs()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Coefficient\tValue\n")
	fmt.Fprintf(tw, "-----------\t-----\n")
	fmt.Fprintf(tw, "peak attack\t%.9f\n", peakAttack)
	fmt.Fprintf(tw, "peak release\t%.9f\n", peakRelease)
	fmt.Fprintf(tw, "gain attack\t%.9f\n", gainAttack)
	fmt.Fprintf(tw, "gain release\t%.9f\n", gainRelease)
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w)
	return err
}

func printCurve(w io.Writer, comp *dynamics.Compressor) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Input [dBFS]\tGain [dB]\tOutput [dBFS]\t\n")

	for in := curveLowDB; in <= curveHighDB; in += curveStepDB {
		level := core.DBToLinear(float64(in))
		gainDB := core.LinearToDB(comp.GainForLevel(level))
		outDB := core.LinearToDB(comp.CalculateOutputLevel(level))
		fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t\n", in, gainDB, outDB)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w)
	return err
}

func printSettling(w io.Writer, comp *dynamics.Compressor) error {
	attackMs, releaseMs, ok := settlingTimes(comp)
	if !ok {
		_, err := fmt.Fprintf(w, "Settling: no gain reduction at 0 dBFS\n\n")
		return err
	}

	_, err := fmt.Fprintf(w, "Attack settling (0 dBFS step, %.0f%%): %.2f ms\nRelease settling (to silence, %.0f%%): %.2f ms\n\n",
		settledFraction*100, attackMs, settledFraction*100, releaseMs)
	return err
}

// settlingTimes steps a constant full-scale input on and off and measures
// how long the smoothed gain takes to cover settledFraction of its travel.
// It reports false when the step causes no reduction.
func settlingTimes(comp *dynamics.Compressor) (attackMs, releaseMs float64, ok bool) {
	targetDB := core.LinearToDB(comp.GainForLevel(1))
	if targetDB >= -1e-9 {
		return 0, 0, false
	}

	limit := int(10 * comp.SampleRate())
	toMs := 1000 / comp.SampleRate()

	comp.Reset()
	defer comp.Reset()

	attackSamples := limit
	for i := 0; i < limit; i++ {
		_, _, _, g := comp.Compress(1)
		if core.LinearToDB(g) <= settledFraction*targetDB {
			attackSamples = i + 1
			break
		}
	}

	// Let the gain finish converging before releasing.
	for i := 0; i < int(comp.SampleRate()); i++ {
		comp.Compress(1)
	}
	startDB := core.LinearToDB(comp.SmoothedGain())

	releaseSamples := limit
	for i := 0; i < limit; i++ {
		_, _, _, g := comp.Compress(0)
		if core.LinearToDB(g) >= (1-settledFraction)*startDB {
			releaseSamples = i + 1
			break
		}
	}

	return float64(attackSamples) * toMs, float64(releaseSamples) * toMs, true
}

func printTHD(w io.Writer, comp *dynamics.Compressor, freq float64) error {
	res, tone := measureTHD(comp, freq)

	if res.FundamentalLevel == 0 {
		_, err := fmt.Fprintf(w, "THD at %.2f Hz: no signal\n", tone)
		return err
	}

	_, err := fmt.Fprintf(w, "THD at %.2f Hz, 0 dBFS sine: %.4f%% (%.2f dB)\n", tone, res.THD*100, res.THDdB)
	return err
}

// measureTHD runs a full-scale sine snapped to an FFT bin through the
// compressor and analyzes the settled tail.
func measureTHD(comp *dynamics.Compressor, freq float64) (thd.Result, float64) {
	fs := comp.SampleRate()
	binHz := fs / thdFFTSize
	tone := math.Max(1, math.Round(freq/binHz)) * binHz

	warmup := int(fs)
	signal := make([]float64, warmup+thdFFTSize)
	for i := range signal {
		signal[i] = math.Sin(2 * math.Pi * tone * float64(i) / fs)
	}

	comp.Reset()
	comp.ProcessInPlace(signal)
	comp.Reset()

	res := thd.AnalyzeSignal(signal[warmup:], thd.Config{
		SampleRate:      fs,
		FFTSize:         thdFFTSize,
		FundamentalFreq: tone,
		RangeUpperFreq:  fs / 2,
	})

	return res, tone
}
