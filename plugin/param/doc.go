// Package param carries compressor parameters from control-rate code to the
// audio thread.
//
// Three pieces cooperate:
//   - Slot maps a normalized [0, 1] control value to engineering units and
//     back (Cook/Uncook) and knows each parameter's name, label and default.
//   - Store keeps the last normalized value per slot in independent atomic
//     cells for readback by control surfaces. It is never read by the audio
//     path.
//   - Queue is a bounded multi-producer/single-consumer channel of Change
//     values. Producers never block indefinitely; the consumer drains it
//     without blocking at the start of each audio block.
package param
