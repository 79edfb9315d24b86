// Package plugin wires the compressor into a two-context host model.
//
// The Processor lives on the audio thread: it owns one Compressor per
// channel, drains pending parameter changes at the start of every block and
// then processes the block without allocating or taking locks.
//
// The Controller lives on the control side (UI, automation, remote
// surfaces): it takes normalized values per slot, mirrors them into an
// atomic store for readback and pushes the cooked change onto the queue the
// Processor drains.
//
//	proc, ctrl, err := plugin.New()
//	ctrl.SetParameter(param.Threshold, 0.8) // control goroutine
//	proc.Process(in, out)                   // audio callback
package plugin
