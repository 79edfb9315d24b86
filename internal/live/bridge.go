// Package live connects the plugin to a real-time audio callback and a
// line-oriented control console.
package live

import "github.com/cwbudde/algo-comp/plugin"

// Bridge adapts the float32 non-interleaved buffers of an audio callback to
// the float64 processor. Scratch buffers are allocated once.
type Bridge struct {
	proc    *plugin.Processor
	in, out [][]float64
	// Per-chunk views into in and out.
	src, dst [][]float64
}

// NewBridge allocates scratch for maxFrames frames per callback chunk.
// Callbacks with more frames are processed in several chunks.
func NewBridge(proc *plugin.Processor, maxFrames int) *Bridge {
	maxFrames = max(maxFrames, 1)

	b := &Bridge{
		proc: proc,
		in:   make([][]float64, proc.Channels()),
		out:  make([][]float64, proc.Channels()),
		src:  make([][]float64, proc.Channels()),
		dst:  make([][]float64, proc.Channels()),
	}
	for ch := range b.in {
		b.in[ch] = make([]float64, maxFrames)
		b.out[ch] = make([]float64, maxFrames)
	}

	return b
}

// Process is the audio callback. Output channels without a matching input
// or processor channel are silenced.
func (b *Bridge) Process(in, out [][]float32) {
	nch := min(len(in), len(out), len(b.in))

	for ch := nch; ch < len(out); ch++ {
		clear(out[ch])
	}
	if nch == 0 || len(out[0]) == 0 {
		return
	}

	frames := len(out[0])
	for ch := 0; ch < nch; ch++ {
		frames = min(frames, len(in[ch]), len(out[ch]))
	}

	chunk := len(b.in[0])
	for off := 0; off < frames; off += chunk {
		n := min(chunk, frames-off)

		src := b.src[:nch]
		dst := b.dst[:nch]
		for ch := 0; ch < nch; ch++ {
			src[ch] = b.in[ch][:n]
			dst[ch] = b.out[ch][:n]
			for i, v := range in[ch][off : off+n] {
				src[ch][i] = float64(v)
			}
		}

		b.proc.Process(src, dst)

		for ch := 0; ch < nch; ch++ {
			o := out[ch][off : off+n]
			for i, v := range dst[ch] {
				o[i] = float32(v)
			}
		}
	}
}
