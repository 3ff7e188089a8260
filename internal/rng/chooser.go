// Package rng supplies the pluggable "pick one of these feasible
// values" seam the original hard-wires to random.choice
// (Controller.py's getFeasibleInputsForTrigger/getFeasibleInputsForAction).
// Making it an interface lets the same feasible-input walk drive two
// different callers: random rule generation (property tests want a
// real random.choice-alike) and exhaustive enumeration (every feasible
// combination, one at a time).
package rng

import (
	"math/rand"
	"strings"
)

// Chooser selects one element from a non-empty slice of candidates.
type Chooser interface {
	Choose(options []string) string
}

// Random is the direct analogue of Python's random.choice: uniform
// selection over options, seeded for reproducibility.
type Random struct {
	r *rand.Rand
}

// NewRandom returns a Random seeded with seed. Two Randoms built from
// the same seed make the same sequence of choices over the same
// sequence of option slices.
func NewRandom(seed int64) *Random {
	return &Random{r: rand.New(rand.NewSource(seed))}
}

func (c *Random) Choose(options []string) string {
	return options[c.r.Intn(len(options))]
}

// Exhaustive returns every distinct option slice it is called with, one
// element at a time, cycling back to the first once every element of
// that particular slice has been returned once. Calling code drives a
// full enumeration by calling repeatedly and stopping once an index
// repeats, visiting every feasible trigger/action input rather than a
// single random pick.
type Exhaustive struct {
	cursor map[string]int
}

func NewExhaustive() *Exhaustive {
	return &Exhaustive{cursor: map[string]int{}}
}

func (c *Exhaustive) Choose(options []string) string {
	key := strings.Join(options, "\x00")
	i := c.cursor[key]
	choice := options[i%len(options)]
	c.cursor[key] = i + 1
	return choice
}
