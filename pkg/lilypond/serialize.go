package lilypond

import (
	"fmt"
	"strconv"
	"strings"
)

// SerializeMarkup renders a \markup expression.
func SerializeMarkup(m Markup) string {
	return `\markup ` + m.Text
}

// SerializeMarkupList renders a \markuplist expression.
func SerializeMarkupList(m MarkupList) string {
	return `\markuplist ` + m.Text
}

// SerializeTempo renders a \tempo expression.
func SerializeTempo(t Tempo) string {
	parts := []string{`\tempo`}
	if t.Text != "" {
		parts = append(parts, t.Text)
	}
	if t.Duration != nil {
		bpm := fmt.Sprintf("%d", t.BPM)
		if t.BPMHigh > 0 {
			bpm = fmt.Sprintf("%d-%d", t.BPM, t.BPMHigh)
		}
		parts = append(parts, t.Duration.String(), "=", bpm)
	}
	return strings.Join(parts, " ")
}

// SerializeMark renders a \mark expression.
func SerializeMark(m Mark) string {
	if m.Label == "" {
		return `\mark \default`
	}
	return `\mark ` + m.Label
}

// SerializeTextMark renders a \textMark expression.
func SerializeTextMark(m TextMark) string {
	return `\textMark ` + m.Text
}

// SerializePropertyOp renders \override, \revert, \set, \unset and \once
// wrapping one of them. Other music yields "".
func SerializePropertyOp(m Music) string {
	switch op := m.(type) {
	case Override:
		return fmt.Sprintf(`\override %s = %s`, op.Path, op.Value)
	case Revert:
		return `\revert ` + op.Path
	case Set:
		return fmt.Sprintf(`\set %s = %s`, op.Path, op.Value)
	case Unset:
		return `\unset ` + op.Path
	case Once:
		if inner := SerializePropertyOp(op.Music); inner != "" {
			return `\once ` + inner
		}
	}
	return ""
}

// SerializeFunction renders a music function call.
func SerializeFunction(f MusicFunction) string {
	if len(f.Args) == 0 {
		return `\` + f.Name
	}
	return `\` + f.Name + " " + strings.Join(f.Args, " ")
}

// SerializeScheme renders a Scheme expression in music position.
func SerializeScheme(s SchemeMusic) string {
	return "#" + s.Expr
}

// SerializeChordModeEntry renders a chord-mode entry such as c4:m7/+e.
func SerializeChordModeEntry(c ChordModeEntry) string {
	var b strings.Builder
	b.WriteString(c.Root.NoteName())
	b.WriteString(c.Root.OctaveMarks())
	if c.Duration != nil {
		b.WriteString(c.Duration.String())
	}
	if c.Quality != "" {
		b.WriteByte(':')
		b.WriteString(c.Quality)
	}
	if c.Inversion != nil {
		b.WriteByte('/')
		b.WriteString(c.Inversion.NoteName())
	}
	if c.Bass != nil {
		b.WriteString("/+")
		b.WriteString(c.Bass.NoteName())
	}
	return b.String()
}

// SerializeDrumNote renders a drum-mode note.
func SerializeDrumNote(d DrumNote) string {
	s := d.Name
	if d.Duration != nil {
		s += d.Duration.String()
	}
	return s
}

// SerializeDrumChord renders a drum-mode chord.
func SerializeDrumChord(d DrumChord) string {
	s := "<" + strings.Join(d.Names, " ") + ">"
	if d.Duration != nil {
		s += d.Duration.String()
	}
	return s
}

// SerializeFigure renders a figured-bass event.
func SerializeFigure(f Figure) string {
	s := `\<` + strings.Join(f.Figures, " ") + `\>`
	if f.Duration != nil {
		s += f.Duration.String()
	}
	return s
}

// SerializePostEvent renders a post-event as it is written after a note.
func SerializePostEvent(pe PostEvent) string {
	switch e := pe.(type) {
	case Tie:
		return "~"
	case SlurStart:
		return "("
	case SlurEnd:
		return ")"
	case PhrasingSlurStart:
		return `\(`
	case PhrasingSlurEnd:
		return `\)`
	case BeamStart:
		return "["
	case BeamEnd:
		return "]"
	case Crescendo:
		return `\<`
	case Decrescendo:
		return `\>`
	case HairpinEnd:
		return `\!`
	case Dynamic:
		return `\` + e.Name
	case Articulation:
		return directionPrefix(e.Direction) + string(e.Script)
	case NamedArticulation:
		if e.Direction == Neutral {
			return `\` + e.Name
		}
		return directionPrefix(e.Direction) + `\` + e.Name
	case Fingering:
		return directionPrefix(e.Direction) + strconv.Itoa(e.Digit)
	case StringNumber:
		if e.Direction == Neutral {
			return `\` + strconv.Itoa(e.Number)
		}
		return directionPrefix(e.Direction) + `\` + strconv.Itoa(e.Number)
	case Tremolo:
		if e.Value == 0 {
			return ":"
		}
		return ":" + strconv.Itoa(e.Value)
	case TextScript:
		return directionPrefix(e.Direction) + e.Text
	}
	return ""
}

func directionPrefix(d Direction) string {
	switch d {
	case Up:
		return "^"
	case Down:
		return "_"
	}
	return "-"
}
