package noise

import (
	"math/rand/v2"
	"time"
)

// White yields independent white-noise draws in [-1, 1].
type White interface {
	Sample() float64
}

// Uniform draws white noise from a PCG generator. Statistical quality is
// adequate for audio; it is not a cryptographic source.
type Uniform struct {
	r *rand.Rand
}

// NewUniform creates a uniform white-noise source from the given seed.
func NewUniform(seed uint64) *Uniform {
	return &Uniform{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewTimeSeeded creates a uniform source seeded from the wall clock.
func NewTimeSeeded() *Uniform {
	return NewUniform(uint64(time.Now().UnixNano()))
}

// Sample returns a draw in [-1, 1).
func (u *Uniform) Sample() float64 {
	return 2*u.r.Float64() - 1
}
