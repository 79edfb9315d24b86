package thd

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-comp/dsp/effects/dynamics"
	"github.com/cwbudde/algo-comp/dsp/window"
	"github.com/cwbudde/algo-comp/internal/testutil"
)

const (
	testRate = 48000.0
	testSize = 4096
	// 64 bins at 48 kHz / 4096.
	testFreq = 750.0
)

func tone(amps map[int]float64, n int) []float64 {
	out := make([]float64, n)
	for k, a := range amps {
		for i := range out {
			out[i] += a * math.Sin(2*math.Pi*float64(k)*testFreq*float64(i)/testRate)
		}
	}
	return out
}

func TestNewCalculatorValidation(t *testing.T) {
	for _, size := range []int{0, 1, 1000, -8} {
		if _, err := NewCalculator(Config{FFTSize: size}); err == nil {
			t.Errorf("NewCalculator(FFTSize=%d) should fail", size)
		}
	}

	calc, err := NewCalculator(Config{FFTSize: 1024})
	if err != nil {
		t.Fatal(err)
	}
	cfg := calc.Config()
	if cfg.SampleRate != 1024 || cfg.RangeLowerFreq != 20 || cfg.RangeUpperFreq != 20000 {
		t.Fatalf("normalized config = %+v", cfg)
	}

	if _, err := calc.Analyze(nil); err == nil {
		t.Fatal("Analyze(nil) should fail")
	}
}

func TestAnalyzePureTone(t *testing.T) {
	for _, typ := range []window.Type{window.TypeHann, window.TypeRectangular, window.TypeBlackman} {
		t.Run(typ.String(), func(t *testing.T) {
			res := AnalyzeSignal(tone(map[int]float64{1: 0.5}, testSize), Config{
				SampleRate:      testRate,
				FFTSize:         testSize,
				FundamentalFreq: testFreq,
				Window:          typ,
			})

			if math.Abs(res.FundamentalFreq-testFreq) > 1e-9 {
				t.Fatalf("fundamental freq = %v", res.FundamentalFreq)
			}
			if math.Abs(res.FundamentalLevel-0.5) > 1e-6 {
				t.Fatalf("fundamental level = %v, want 0.5", res.FundamentalLevel)
			}
			if res.THD > 1e-3 {
				t.Fatalf("expected near-zero THD, got %g", res.THD)
			}
		})
	}
}

func TestAnalyzeKnownHarmonics(t *testing.T) {
	signal := tone(map[int]float64{1: 1, 2: 0.1, 3: 0.05}, testSize)

	res := AnalyzeSignal(signal, Config{
		SampleRate:      testRate,
		FFTSize:         testSize,
		FundamentalFreq: testFreq,
		MaxHarmonics:    4,
	})

	want := math.Sqrt(0.1*0.1 + 0.05*0.05)
	if math.Abs(res.THD-want) > 1e-6 {
		t.Fatalf("THD = %.9f, want %.9f", res.THD, want)
	}
	if math.Abs(res.THDdB-20*math.Log10(want)) > 1e-4 {
		t.Fatalf("THDdB = %v", res.THDdB)
	}
	if len(res.Harmonics) != 4 {
		t.Fatalf("harmonic count = %d, want 4", len(res.Harmonics))
	}
	if math.Abs(res.Harmonics[0]-0.1) > 1e-6 || math.Abs(res.Harmonics[1]-0.05) > 1e-6 || res.Harmonics[2] > 1e-6 {
		t.Fatalf("harmonics = %v", res.Harmonics)
	}
	if math.Abs(res.THDN-want) > 1e-6 || math.Abs(res.SINAD+res.THDNdB) > 1e-12 {
		t.Fatalf("THDN = %v SINAD = %v", res.THDN, res.SINAD)
	}
}

func TestAnalyzeAutodetectFundamental(t *testing.T) {
	signal := tone(map[int]float64{1: 0.2, 2: 0.9}, testSize)

	res := AnalyzeSignal(signal, Config{SampleRate: testRate, FFTSize: testSize})
	if math.Abs(res.FundamentalFreq-2*testFreq) > 1e-9 {
		t.Fatalf("auto fundamental = %v, want %v", res.FundamentalFreq, 2*testFreq)
	}
}

func TestAnalyzeNoiseCountsInTHDN(t *testing.T) {
	signal := tone(map[int]float64{1: 1}, testSize)
	noise := testutil.DeterministicNoise(3, 0.01, testSize)
	for i := range signal {
		signal[i] += noise[i]
	}

	res := AnalyzeSignal(signal, Config{SampleRate: testRate, FFTSize: testSize, FundamentalFreq: testFreq})
	if res.THDN <= res.THD {
		t.Fatalf("THDN %v should exceed THD %v with broadband noise", res.THDN, res.THD)
	}
}

func TestAnalyzeSilence(t *testing.T) {
	res := AnalyzeSignal(make([]float64, testSize), Config{SampleRate: testRate, FFTSize: testSize, FundamentalFreq: testFreq})
	if res.FundamentalLevel != 0 || res.THD != 0 {
		t.Fatalf("silence result = %+v", res)
	}
}

func TestAnalyzeZeroPadsShortSignal(t *testing.T) {
	res := AnalyzeSignal(tone(map[int]float64{1: 1}, 3000), Config{SampleRate: testRate, FundamentalFreq: testFreq})
	if res.FundamentalLevel <= 0 {
		t.Fatal("expected a fundamental for a zero-padded signal")
	}
}

func TestCalculatorReuse(t *testing.T) {
	calc, err := NewCalculator(Config{SampleRate: testRate, FFTSize: testSize, FundamentalFreq: testFreq})
	if err != nil {
		t.Fatal(err)
	}

	clean := tone(map[int]float64{1: 1}, testSize)
	dirty := tone(map[int]float64{1: 1, 3: 0.2}, testSize)

	first, _ := calc.Analyze(dirty)
	_, _ = calc.Analyze(clean)
	again, _ := calc.Analyze(dirty)

	if math.Abs(first.THD-again.THD) > 1e-12 {
		t.Fatalf("reused calculator drifted: %v vs %v", first.THD, again.THD)
	}
}

// TestCompressorDistortion checks that a fast envelope modulates the
// waveform while a unity ratio leaves it untouched.
func TestCompressorDistortion(t *testing.T) {
	measure := func(ratio, attackMs, releaseMs float64) float64 {
		t.Helper()

		c, err := dynamics.NewCompressor(
			dynamics.WithSampleRate(testRate),
			dynamics.WithThreshold(-20),
			dynamics.WithRatio(ratio),
			dynamics.WithAttack(attackMs),
			dynamics.WithRelease(releaseMs),
		)
		if err != nil {
			t.Fatal(err)
		}

		signal := tone(map[int]float64{1: 0.9}, 3*testSize)
		c.ProcessInPlace(signal)

		return AnalyzeSignal(signal[2*testSize:], Config{
			SampleRate:      testRate,
			FFTSize:         testSize,
			FundamentalFreq: testFreq,
		}).THD
	}

	unity := measure(1, 10, 50)
	fast := measure(10, 0.1, 5)

	if unity > 1e-6 {
		t.Fatalf("unity ratio THD = %g, want ~0", unity)
	}
	if fast < 1e-3 {
		t.Fatalf("fast 10:1 THD = %g, want audible distortion", fast)
	}
}
