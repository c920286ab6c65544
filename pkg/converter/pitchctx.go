package converter

import "github.com/james-see/ly2mei/pkg/lilypond"

// Default reference used by \relative when no pitch is given.
const (
	defaultRelativeStep   = 'f'
	defaultRelativeOctave = 0
)

type transposition struct {
	from, to lilypond.Pitch
}

// PitchContext carries the pitch state of one scope: the relative or fixed
// reference, the active transpositions and the last chord seen.
//
// A context is owned by a single walk. Scoped constructs get a Clone, so
// nothing set inside \relative, \fixed or \transpose leaks outwards.
type PitchContext struct {
	relative  bool
	refStep   rune
	refOctave int

	fixed       bool
	fixedOctave int

	transpositions []transposition
	lastChord      []lilypond.Pitch
}

// NewPitchContext returns a context in absolute mode with no transpositions.
func NewPitchContext() *PitchContext {
	return &PitchContext{}
}

// Clone returns a deep copy.
func (c *PitchContext) Clone() *PitchContext {
	out := *c
	out.transpositions = append([]transposition(nil), c.transpositions...)
	out.lastChord = append([]lilypond.Pitch(nil), c.lastChord...)
	return &out
}

// SetRelative switches to relative mode with the given reference.
func (c *PitchContext) SetRelative(step rune, octave int) {
	c.relative = true
	c.refStep = step
	c.refOctave = octave
	c.fixed = false
}

// SetFixed switches to fixed mode; octave marks count from octave.
func (c *PitchContext) SetFixed(octave int) {
	c.fixed = true
	c.fixedOctave = octave
	c.relative = false
}

// PushTransposition adds an interval applied after every earlier one.
func (c *PitchContext) PushTransposition(from, to lilypond.Pitch) {
	c.transpositions = append(c.transpositions, transposition{from: from, to: to})
}

// Reference returns the relative-mode reference, if relative mode is on.
func (c *PitchContext) Reference() (step rune, octave int, ok bool) {
	return c.refStep, c.refOctave, c.relative
}

// LastChord returns the pitches of the most recently resolved chord.
func (c *PitchContext) LastChord() []lilypond.Pitch {
	return c.lastChord
}

// Resolve turns a written pitch into an absolute one. In relative mode the
// reference moves to the result, so call order matters.
func (c *PitchContext) Resolve(p lilypond.Pitch) lilypond.Pitch {
	return c.transpose(c.place(p))
}

// ResolveChord resolves the pitches of a chord in source order. The
// relative reference then points at the first pitch, not the last, and the
// result is remembered for chord repetition.
func (c *PitchContext) ResolveChord(ps []lilypond.Pitch) []lilypond.Pitch {
	out := make([]lilypond.Pitch, len(ps))
	var first lilypond.Pitch
	for i, p := range ps {
		placed := c.place(p)
		if i == 0 {
			first = placed
		}
		out[i] = c.transpose(placed)
	}
	if c.relative && len(ps) > 0 {
		c.refStep = first.Step
		c.refOctave = first.Octave
	}
	c.lastChord = append([]lilypond.Pitch(nil), out...)
	return out
}

// place applies relative or fixed octave placement, before transposition.
func (c *PitchContext) place(p lilypond.Pitch) lilypond.Pitch {
	switch {
	case c.relative:
		abs := p.ResolveRelative(c.refStep, c.refOctave)
		c.refStep = abs.Step
		c.refOctave = abs.Octave
		return abs
	case c.fixed:
		p.Octave += c.fixedOctave
		return p
	}
	return p
}

func (c *PitchContext) transpose(p lilypond.Pitch) lilypond.Pitch {
	for _, t := range c.transpositions {
		p = p.Transpose(t.from, t.to)
	}
	return p
}
