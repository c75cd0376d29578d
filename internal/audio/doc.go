// Package audio drives sound output for tim.
// It owns the brown-noise source played while a countdown runs and the
// completion chime, rendering both through a pull-based Output backed by
// beep's speaker or directly by oto.
package audio
