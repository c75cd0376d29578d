// Package noise synthesizes the brown-noise backdrop played while a countdown
// runs. The generator is a random walk over uniform white noise, hard limited
// to [-1, 1], and exposed as a beep.Streamer so any pull-based output can
// render it.
package noise
