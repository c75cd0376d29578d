// Package timer implements the countdown state machine driven by a 1 Hz tick.
package timer

import (
	"fmt"
	"strconv"
	"time"
)

// maxInput bounds the typed buffer to four hour digits plus two minute digits.
const maxInput = 6

// Countdown holds the remaining time split into hours, minutes and seconds.
type Countdown struct {
	Hours   int
	Minutes int
	Seconds int
	Running bool

	// Digits typed since the last start, reset or toggle
	input string
}

// New creates a stopped countdown set to d.
func New(d time.Duration) *Countdown {
	c := &Countdown{}
	c.Set(d)
	return c
}

// Set replaces the remaining time. Negative durations become zero and
// sub-second precision is dropped.
func (c *Countdown) Set(d time.Duration) {
	c.setTotal(int(d / time.Second))
}

func (c *Countdown) setTotal(total int) {
	if total < 0 {
		total = 0
	}
	c.Hours = total / 3600
	c.Minutes = (total % 3600) / 60
	c.Seconds = total % 60
}

// Remaining returns the time left.
func (c *Countdown) Remaining() time.Duration {
	return time.Duration(c.total()) * time.Second
}

func (c *Countdown) total() int {
	return c.Hours*3600 + c.Minutes*60 + c.Seconds
}

// Tick advances a running countdown by one second. It returns true when the
// countdown was already at zero, in which case it stops.
func (c *Countdown) Tick() bool {
	if !c.Running {
		return false
	}

	switch {
	case c.Seconds > 0:
		c.Seconds--
	case c.Minutes > 0:
		c.Minutes--
		c.Seconds = 59
	case c.Hours > 0:
		c.Hours--
		c.Minutes = 59
		c.Seconds = 59
	default:
		c.Running = false
		return true
	}
	return false
}

// Toggle starts or pauses the countdown and clears typed digits.
func (c *Countdown) Toggle() {
	c.Running = !c.Running
	c.input = ""
}

// Reset stops the countdown and zeroes it.
func (c *Countdown) Reset() {
	c.Running = false
	c.Hours = 0
	c.Minutes = 0
	c.Seconds = 0
	c.input = ""
}

// Adjust adds delta to the remaining time, clamping at zero.
func (c *Countdown) Adjust(delta time.Duration) {
	total := c.total() + int(delta/time.Second)
	if total < 0 {
		c.Hours, c.Minutes, c.Seconds = 0, 0, 0
		return
	}
	c.setTotal(total)
}

// Input appends a typed digit and reinterprets the buffer. A single digit is
// minutes; with more, the last two digits are minutes and the rest hours.
// Ignored while running, for non-digits, or once the buffer is full.
func (c *Countdown) Input(r rune) {
	if c.Running || r < '0' || r > '9' || len(c.input) >= maxInput {
		return
	}
	input := c.input + string(r)

	split := max(len(input)-2, 0)
	hours, err := parseDigits(input[:split])
	if err != nil {
		return
	}
	minutes, err := parseDigits(input[split:])
	if err != nil {
		return
	}

	c.input = input
	c.Hours = hours
	c.Minutes = minutes
	c.Seconds = 0
}

// Buffer returns the digits typed so far.
func (c *Countdown) Buffer() string {
	return c.input
}

// Label formats the remaining time as HH:MM:SS, or MM:SS below an hour.
func (c *Countdown) Label() string {
	if c.Hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", c.Hours, c.Minutes, c.Seconds)
	}
	return fmt.Sprintf("%02d:%02d", c.Minutes, c.Seconds)
}

// parseDigits parses a string of ASCII digits; the empty string is zero.
func parseDigits(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
