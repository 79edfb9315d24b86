// Package dynamics provides a feed-forward peak compressor built from two
// asymmetric one-pole envelope followers.
//
// Signal flow per sample:
//
//	|x| -> peak follower -> dB gain law -> gain smoother -> x * gain
//
// The peak follower uses fixed time constants (0.01 ms attack, 10 ms release).
// The gain smoother uses the user attack and release times. Both are
// recomputed whenever the sample rate or a time changes and never per sample.
//
// A Compressor is mono and not safe for concurrent use. Multichannel hosts
// keep one Compressor per channel and apply parameter changes to each of them
// from the audio thread; see package plugin.
//
// Building with the fastmath tag swaps the dB conversions in the gain law for
// the approximations from algo-approx.
package dynamics
