package lilypond

import (
	"math"
	"strings"
)

// Pitch is a LilyPond pitch: note name, accidental and octave marks.
//
// Octave is expressed in marks: 0 is the octave written without marks
// (the one below middle C), c' is middle C, c, is an octave lower.
// In relative mode the marks are an offset from the nearest position;
// after resolution they are absolute.
type Pitch struct {
	Step            rune    // 'a'..'g'
	Alter           float64 // half-steps; 0.5 is a quarter tone
	Octave          int     // octave marks, ' positive and , negative
	ForceAccidental bool    // !
	Cautionary      bool    // ?
	OctaveCheck     *int    // = followed by marks, carried but not enforced
}

var stepOrder = [7]rune{'c', 'd', 'e', 'f', 'g', 'a', 'b'}

// semitones above C for each diatonic step
var stepSemitones = [7]int{0, 2, 4, 5, 7, 9, 11}

// StepIndex returns the diatonic index of a step (c=0 .. b=6).
// Unknown steps map to 0.
func StepIndex(step rune) int {
	for i, s := range stepOrder {
		if s == step {
			return i
		}
	}
	return 0
}

// StepAt returns the step name for a diatonic index, wrapping modulo 7.
func StepAt(index int) rune {
	return stepOrder[floorMod(index, 7)]
}

// AbsoluteOctave returns the scientific octave number (c = 3, c' = 4).
func (p Pitch) AbsoluteOctave() int {
	return 3 + p.Octave
}

// quarterTones is the absolute height of the pitch in quarter tones,
// counted from c (no marks).
func (p Pitch) quarterTones() int {
	semis := stepSemitones[StepIndex(p.Step)] + 12*p.Octave
	return semis*2 + int(math.Round(p.Alter*2))
}

// diatonic is the absolute diatonic position counted from c (no marks).
func (p Pitch) diatonic() int {
	return StepIndex(p.Step) + 7*p.Octave
}

// ResolveRelative places the pitch in the octave nearest to the reference
// (within a fourth) and then applies its own octave marks.
// refOctave is in marks format.
func (p Pitch) ResolveRelative(refStep rune, refOctave int) Pitch {
	refIdx := StepIndex(refStep)
	diff := StepIndex(p.Step) - refIdx
	if diff > 3 {
		diff -= 7
	} else if diff < -3 {
		diff += 7
	}

	base := refOctave
	target := refIdx + diff
	if target < 0 {
		base--
	} else if target >= 7 {
		base++
	}

	out := p
	out.Octave = base + p.Octave
	return out
}

// RelativeMarks is the inverse of ResolveRelative: the octave marks needed
// to write this absolute pitch after the given reference.
func (p Pitch) RelativeMarks(refStep rune, refOctave int) int {
	placed := Pitch{Step: p.Step}.ResolveRelative(refStep, refOctave)
	return p.Octave - placed.Octave
}

// Transpose shifts the pitch by the interval from one pitch to another,
// keeping the diatonic spelling (c→d maps e to fis, not ges).
func (p Pitch) Transpose(from, to Pitch) Pitch {
	stepDelta := to.diatonic() - from.diatonic()
	quarterDelta := to.quarterTones() - from.quarterTones()

	raw := p.diatonic() + stepDelta
	idx := floorMod(raw, 7)
	octave := floorDiv(raw, 7)

	target := p.quarterTones() + quarterDelta
	natural := (stepSemitones[idx] + 12*octave) * 2

	out := p
	out.Step = stepOrder[idx]
	out.Octave = octave
	out.Alter = float64(target-natural) / 2
	return out
}

// Untranspose reverses Transpose(from, to).
func (p Pitch) Untranspose(from, to Pitch) Pitch {
	return p.Transpose(to, from)
}

// NoteName returns the Dutch note name (step plus accidental suffix).
func (p Pitch) NoteName() string {
	return string(p.Step) + alterSuffix(p.Step, p.Alter)
}

// OctaveMarks renders the octave as ' or , characters.
func (p Pitch) OctaveMarks() string {
	switch {
	case p.Octave > 0:
		return strings.Repeat("'", p.Octave)
	case p.Octave < 0:
		return strings.Repeat(",", -p.Octave)
	}
	return ""
}

// String renders the pitch as LilyPond source.
func (p Pitch) String() string {
	var b strings.Builder
	b.WriteString(p.NoteName())
	b.WriteString(p.OctaveMarks())
	if p.ForceAccidental {
		b.WriteByte('!')
	}
	if p.Cautionary {
		b.WriteByte('?')
	}
	if p.OctaveCheck != nil {
		b.WriteByte('=')
		b.WriteString(Pitch{Octave: *p.OctaveCheck}.OctaveMarks())
	}
	return b.String()
}

// ParseNoteName splits a Dutch note name into step and alteration.
func ParseNoteName(name string) (rune, float64, bool) {
	if name == "" {
		return 0, 0, false
	}
	step := rune(name[0])
	if step < 'a' || step > 'g' {
		return 0, 0, false
	}
	suffix := name[1:]
	switch suffix {
	case "":
		return step, 0, true
	case "is":
		return step, 1, true
	case "isis":
		return step, 2, true
	case "es":
		return step, -1, true
	case "eses":
		return step, -2, true
	case "ih":
		return step, 0.5, true
	case "isih":
		return step, 1.5, true
	case "eh":
		return step, -0.5, true
	case "eseh":
		return step, -1.5, true
	case "s":
		if step == 'a' || step == 'e' {
			return step, -1, true
		}
	case "ses":
		if step == 'a' || step == 'e' {
			return step, -2, true
		}
	}
	return 0, 0, false
}

func alterSuffix(step rune, alter float64) string {
	switch int(math.Round(alter * 2)) {
	case 2:
		return "is"
	case 4:
		return "isis"
	case -2:
		if step == 'a' || step == 'e' {
			return "s"
		}
		return "es"
	case -4:
		if step == 'a' || step == 'e' {
			return "ses"
		}
		return "eses"
	case 1:
		return "ih"
	case 3:
		return "isih"
	case -1:
		return "eh"
	case -3:
		return "eseh"
	}
	return ""
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}

// MarshalText encodes the pitch in LilyPond notation.
func (p Pitch) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
