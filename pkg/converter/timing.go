package converter

import (
	"strconv"

	"github.com/james-see/ly2mei/pkg/lilypond"
)

// clock follows musical time through an event stream, in whole notes.
// Unwritten durations repeat the previous one, tuplets scale, and grace
// notes take no time.
type clock struct {
	last   lilypond.Duration
	scales []float64
	grace  int
	pos    float64
}

func newClock() *clock {
	return &clock{last: lilypond.Duration{Base: 4}}
}

// observe updates the tuplet and grace state for marker events.
func (c *clock) observe(e Event) {
	switch ev := e.(type) {
	case TupletStart:
		if ev.Numerator > 0 {
			c.scales = append(c.scales, float64(ev.Denominator)/float64(ev.Numerator))
		}
	case TupletEnd:
		if len(c.scales) > 0 {
			c.scales = c.scales[:len(c.scales)-1]
		}
	case GraceStart:
		c.grace++
	case GraceEnd:
		if c.grace > 0 {
			c.grace--
		}
	}
}

// advance moves past a note-like event and returns its start and length.
func (c *clock) advance(d *lilypond.Duration) (start, length float64) {
	if d != nil {
		c.last = *d
	}
	start = c.pos
	if c.grace > 0 {
		return start, 0
	}
	l := c.last.Length()
	if l.Denom == 0 {
		return start, 0
	}
	length = float64(l.Num) / float64(l.Denom)
	for _, s := range c.scales {
		length *= s
	}
	c.pos += length
	return start, length
}

// tstamp formats a position as a 1-based beat for a meter unit.
func tstamp(pos float64, unit int) string {
	if unit <= 0 {
		unit = 4
	}
	return strconv.FormatFloat(1+pos*float64(unit), 'f', -1, 64)
}

// noteDuration returns the duration carried by a note-like event.
func noteDuration(e Event) (*lilypond.Duration, bool) {
	switch ev := e.(type) {
	case Note:
		return ev.Duration, true
	case Chord:
		return ev.Duration, true
	case ChordRepetition:
		return ev.Duration, true
	case Rest:
		return ev.Duration, true
	case PitchedRest:
		return ev.Duration, true
	case MultiMeasureRest:
		return ev.Duration, true
	case Skip:
		return ev.Duration, true
	case DrumEvent:
		return ev.Note.Duration, true
	case DrumChordEvent:
		return ev.Chord.Duration, true
	case ChordModeEntry:
		return ev.Entry.Duration, true
	case FigureEvent:
		return ev.Figure.Duration, true
	}
	return nil, false
}
