package converter

import (
	"math"
	"strconv"

	"github.com/james-see/ly2mei/pkg/lilypond"
	"github.com/james-see/ly2mei/pkg/mei"
)

// meiDur maps a written duration to @dur. Bases MEI cannot express give "".
func meiDur(d *lilypond.Duration) string {
	if d == nil {
		return ""
	}
	switch d.Base {
	case lilypond.BaseBreve:
		return "breve"
	case lilypond.BaseLonga:
		return "long"
	case 1, 2, 4, 8, 16, 32, 64, 128:
		return strconv.Itoa(d.Base)
	}
	return ""
}

func meiDots(d *lilypond.Duration) int {
	if d == nil {
		return 0
	}
	return d.Dots
}

// accidGes maps an alteration to @accid.ges. Microtones have no value.
func accidGes(alter float64) string {
	switch int(math.Round(alter * 2)) {
	case 2:
		return "s"
	case 4:
		return "ss"
	case -2:
		return "f"
	case -4:
		return "ff"
	}
	return ""
}

// accidWritten maps an alteration to a written <accid>, "n" for naturals.
func accidWritten(alter float64) string {
	if alter == 0 {
		return "n"
	}
	return accidGes(alter)
}

// meiOctave converts octave marks to the MEI octave number, clamped at 0.
func meiOctave(p lilypond.Pitch) int {
	if o := p.AbsoluteOctave(); o > 0 {
		return o
	}
	return 0
}

func (b *Builder) pitchNote(p lilypond.Pitch) *mei.Note {
	n := &mei.Note{
		ID:       b.ids.Next("note"),
		Pname:    string(p.Step),
		Oct:      meiOctave(p),
		AccidGes: accidGes(p.Alter),
	}
	if p.ForceAccidental || p.Cautionary {
		if a := accidWritten(p.Alter); a != "" {
			n.Accid = &mei.Accid{Accid: a}
			if p.Cautionary {
				n.Accid.Func = "cautionary"
			}
		}
	}
	return n
}

// NoteElement converts a resolved note.
func (b *Builder) NoteElement(p lilypond.Pitch, d *lilypond.Duration) *mei.Note {
	n := b.pitchNote(p)
	n.Dur = meiDur(d)
	n.Dots = meiDots(d)
	return n
}

// ChordElement converts a resolved chord. The chord takes the first id and
// each pitch becomes a child note without duration.
func (b *Builder) ChordElement(ps []lilypond.Pitch, d *lilypond.Duration) *mei.Chord {
	c := &mei.Chord{ID: b.ids.Next("chord"), Dur: meiDur(d), Dots: meiDots(d)}
	for _, p := range ps {
		c.Notes = append(c.Notes, b.pitchNote(p))
	}
	return c
}

// RestElement converts r.
func (b *Builder) RestElement(d *lilypond.Duration) *mei.Rest {
	return &mei.Rest{ID: b.ids.Next("rest"), Dur: meiDur(d), Dots: meiDots(d)}
}

// PitchedRestElement converts pitch\rest. The position goes to @ploc and
// @oloc, the written pitch to the label.
func (b *Builder) PitchedRestElement(p lilypond.Pitch, d *lilypond.Duration) *mei.Rest {
	r := b.RestElement(d)
	r.Ploc = string(p.Step)
	r.Oloc = meiOctave(p)
	r.Label = b.Label(CatPitchedRest, p.NoteName()+p.OctaveMarks()).String()
	return r
}

// SpaceElement converts s.
func (b *Builder) SpaceElement(d *lilypond.Duration) *mei.Space {
	return &mei.Space{ID: b.ids.Next("space"), Dur: meiDur(d), Dots: meiDots(d)}
}

// MRestElement converts R. Its duration and multipliers have no MEI
// attribute and are kept in the label.
func (b *Builder) MRestElement(d *lilypond.Duration) *mei.MRest {
	r := &mei.MRest{ID: b.ids.Next("mrest")}
	if d != nil {
		r.Label = b.Label(CatMRest).With("dur", d.String()).String()
	}
	return r
}

// DrumElement converts a drum note or drum chord to an unpitched note
// labelled with its source text.
func (b *Builder) DrumElement(text string, d *lilypond.Duration) *mei.Note {
	return &mei.Note{
		ID:    b.ids.Next("note"),
		Dur:   meiDur(d),
		Dots:  meiDots(d),
		Label: b.Label(CatDrum, text).String(),
	}
}

// GraceLabel encodes the kind of a grace group.
func (b *Builder) GraceLabel(g GraceType) string {
	l := b.Label(CatGrace, string(g.Kind))
	if g.Fraction != nil {
		l = l.With("fraction", g.Fraction.String())
	}
	return l.String()
}
