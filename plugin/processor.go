package plugin

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-comp/dsp/core"
	"github.com/cwbudde/algo-comp/dsp/effects/dynamics"
	"github.com/cwbudde/algo-comp/plugin/param"
)

var (
	errInvalidMakeup = errors.New("plugin: makeup gain must be finite")
	errUnknownSlot   = errors.New("plugin: unknown parameter slot")
)

// Processor is the audio-side half of the plugin. All methods except
// GainReductionDB and Rejected must be called from the audio goroutine.
type Processor struct {
	cfg      core.ProcessorConfig
	channels []*dynamics.Compressor
	changes  *param.Queue

	makeupDB float64
	// makeup holds the linear makeup gain repeated over one block so it can
	// be applied with a vector multiply.
	makeup []float64

	apply func(param.Change)

	// Published for control-side readers.
	gainReduction atomic.Uint64
	rejected      atomic.Uint64
}

// NewProcessor creates a processor that drains changes from the given queue.
// A nil queue is allowed and means no parameter source.
func NewProcessor(changes *param.Queue, opts ...core.ProcessorOption) (*Processor, error) {
	cfg := core.ApplyProcessorOptions(opts...)

	p := &Processor{
		cfg:      cfg,
		channels: make([]*dynamics.Compressor, cfg.Channels),
		changes:  changes,
		makeup:   make([]float64, cfg.BlockSize),
	}

	for i := range p.channels {
		c, err := dynamics.NewCompressor(
			dynamics.WithSampleRate(cfg.SampleRate),
			dynamics.WithThreshold(param.Threshold.Default()),
			dynamics.WithRatio(param.Ratio.Default()),
			dynamics.WithAttack(param.Attack.Default()),
			dynamics.WithRelease(param.Release.Default()),
		)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", i, err)
		}
		p.channels[i] = c
	}

	p.setMakeup(param.Makeup.Default())
	p.gainReduction.Store(math.Float64bits(0))
	// Bound once so draining does not build a method value per block.
	p.apply = p.applyChange

	return p, nil
}

// Config returns the processing configuration.
func (p *Processor) Config() core.ProcessorConfig { return p.cfg }

// Channels returns the number of channels.
func (p *Processor) Channels() int { return len(p.channels) }

// Channel returns the compressor for channel i.
func (p *Processor) Channel(i int) *dynamics.Compressor { return p.channels[i] }

// MakeupGain returns the makeup gain in dB.
func (p *Processor) MakeupGain() float64 { return p.makeupDB }

// GainReductionDB returns the deepest smoothed gain of the last processed
// block in dB (0 = no reduction). Safe to call from any goroutine.
func (p *Processor) GainReductionDB() float64 {
	return math.Float64frombits(p.gainReduction.Load())
}

// Rejected returns how many drained changes failed validation and were
// ignored. Safe to call from any goroutine.
func (p *Processor) Rejected() uint64 { return p.rejected.Load() }

// SetSampleRate recomputes every channel's coefficients. Envelope state is
// kept.
func (p *Processor) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return fmt.Errorf("processor sample rate must be positive and finite: %f", sampleRate)
	}

	for _, c := range p.channels {
		if err := c.SetSampleRate(sampleRate); err != nil {
			return err
		}
	}
	p.cfg.SampleRate = sampleRate

	return nil
}

// Reset clears the envelope memory of every channel.
func (p *Processor) Reset() {
	for _, c := range p.channels {
		c.Reset()
	}
	p.gainReduction.Store(math.Float64bits(0))
}

// Drain applies all currently queued parameter changes in arrival order and
// returns how many were taken.
func (p *Processor) Drain() int {
	if p.changes == nil {
		return 0
	}
	return p.changes.Drain(p.apply)
}

// Process drains pending changes and then compresses in into out, channel by
// channel. Channels beyond min(len(in), len(out), Channels()) are left
// untouched; within a channel min(len(in[ch]), len(out[ch])) samples are
// processed. in and out may be the same buffers.
func (p *Processor) Process(in, out [][]float64) {
	p.Drain()

	nch := min(len(in), len(out), len(p.channels))
	minGain := 1.0
	unity := p.makeupDB == 0

	for ch := 0; ch < nch; ch++ {
		src, dst := in[ch], out[ch]
		comp := p.channels[ch]
		n := min(len(src), len(dst))

		for off := 0; off < n; off += len(p.makeup) {
			end := min(off+len(p.makeup), n)

			for i := off; i < end; i++ {
				y, _, _, smoothed := comp.Compress(src[i])
				dst[i] = y
				if smoothed < minGain {
					minGain = smoothed
				}
			}

			if !unity {
				vecmath.MulBlockInPlace(dst[off:end], p.makeup[:end-off])
			}
		}
	}

	p.gainReduction.Store(math.Float64bits(core.LinearToDB(minGain)))
}

func (p *Processor) applyChange(c param.Change) {
	var err error

	switch c.Slot {
	case param.Threshold:
		err = p.each((*dynamics.Compressor).SetThreshold, c.Value)
	case param.Ratio:
		err = p.each((*dynamics.Compressor).SetRatio, c.Value)
	case param.Attack:
		err = p.each((*dynamics.Compressor).SetAttack, c.Value)
	case param.Release:
		err = p.each((*dynamics.Compressor).SetRelease, c.Value)
	case param.Makeup:
		if core.IsFinite(c.Value) {
			p.setMakeup(c.Value)
		} else {
			err = errInvalidMakeup
		}
	default:
		err = errUnknownSlot
	}

	// Invalid values leave the previous setting in place.
	if err != nil {
		p.rejected.Add(1)
	}
}

// each applies one setter to every channel. Validation does not depend on
// channel state, so either all channels accept the value or none does.
func (p *Processor) each(set func(*dynamics.Compressor, float64) error, v float64) error {
	for _, c := range p.channels {
		if err := set(c, v); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) setMakeup(dB float64) {
	p.makeupDB = dB
	lin := core.DBToLinear(dB)
	for i := range p.makeup {
		p.makeup[i] = lin
	}
}
