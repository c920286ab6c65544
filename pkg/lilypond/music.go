// Package lilypond provides a model, parser and serializer for the subset of
// LilyPond notation that ly2mei converts.
package lilypond

// File is a parsed .ly file.
type File struct {
	Version     string
	Header      []HeaderField
	Assignments []Assignment
	Scores      []*Score
	Music       []Music // bare top-level music expressions
	Markups     []Markup
}

// HeaderField is one name = "value" entry of a \header block.
type HeaderField struct {
	Name  string
	Value string
}

// Assignment is a top-level variable definition: name = music.
type Assignment struct {
	Name  string
	Value Music
}

// Score is a \score { ... } block.
type Score struct {
	Music  Music
	Header []HeaderField
}

// FirstMusic returns the music of the first score, or the first bare music
// expression when the file has no \score block.
func (f *File) FirstMusic() Music {
	for _, s := range f.Scores {
		if s.Music != nil {
			return s.Music
		}
	}
	if len(f.Music) > 0 {
		return f.Music[0]
	}
	return nil
}

// Variables returns the music assignments keyed by name.
func (f *File) Variables() map[string]Music {
	vars := make(map[string]Music, len(f.Assignments))
	for _, a := range f.Assignments {
		vars[a.Name] = a.Value
	}
	return vars
}

// Title returns the header title, preferring the score header.
func (f *File) Title() string {
	for _, s := range f.Scores {
		for _, h := range s.Header {
			if h.Name == "title" {
				return h.Value
			}
		}
	}
	for _, h := range f.Header {
		if h.Name == "title" {
			return h.Value
		}
	}
	return ""
}

// Music is a node of a LilyPond music expression.
type Music interface {
	isMusic()
}

// RepeatType is the first argument of \repeat.
type RepeatType string

const (
	RepeatVolta   RepeatType = "volta"
	RepeatUnfold  RepeatType = "unfold"
	RepeatPercent RepeatType = "percent"
	RepeatTremolo RepeatType = "tremolo"
	RepeatSegno   RepeatType = "segno"
)

// ParseRepeatType validates a repeat type name.
func ParseRepeatType(name string) (RepeatType, bool) {
	switch rt := RepeatType(name); rt {
	case RepeatVolta, RepeatUnfold, RepeatPercent, RepeatTremolo, RepeatSegno:
		return rt, true
	}
	return "", false
}

type (
	// Sequential is { ... }.
	Sequential struct{ Items []Music }
	// Simultaneous is << ... >>.
	Simultaneous struct{ Items []Music }

	// Relative is \relative [pitch] music. Pitch is nil when omitted.
	Relative struct {
		Pitch Music
		Body  Music
	}
	// Fixed is \fixed pitch music.
	Fixed struct {
		Pitch Music
		Body  Music
	}
	// Transpose is \transpose from to music.
	Transpose struct {
		From Music
		To   Music
		Body Music
	}

	// Tuplet is \tuplet n/d [span] music or \times d/n music.
	Tuplet struct {
		Numerator   int
		Denominator int
		Span        *Duration
		Body        Music
	}

	// ContextedMusic is \new or \context Type [= "name"] [\with {...}] music.
	ContextedMusic struct {
		Keyword string // "new" or "context"
		Type    string
		Name    string
		With    string // raw \with block body, if any
		Music   Music
	}
	// ContextChange is \change Type = "name".
	ContextChange struct {
		Type string
		Name string
	}

	// NoteEvent is a single pitch with duration and post-events.
	NoteEvent struct {
		Pitch       Pitch
		Duration    *Duration
		PitchedRest bool // written as pitch\rest
		PostEvents  []PostEvent
	}
	// ChordEvent is < pitches > duration.
	ChordEvent struct {
		Pitches    []Pitch
		Duration   *Duration
		PostEvents []PostEvent
	}
	// ChordRepetition is q.
	ChordRepetition struct {
		Duration   *Duration
		PostEvents []PostEvent
	}
	// RestEvent is r.
	RestEvent struct {
		Duration   *Duration
		PostEvents []PostEvent
	}
	// SkipEvent is s.
	SkipEvent struct {
		Duration   *Duration
		PostEvents []PostEvent
	}
	// MultiMeasureRest is R.
	MultiMeasureRest struct {
		Duration   *Duration
		PostEvents []PostEvent
	}

	// Clef is \clef name.
	Clef struct{ Name string }
	// KeySignature is \key pitch \mode.
	KeySignature struct {
		Pitch Pitch
		Mode  string
	}
	// TimeSignature is \time n/d, with additive numerators (2+3/8).
	TimeSignature struct {
		Numerators  []int
		Denominator int
	}
	// Tempo is \tempo [text] [duration = bpm[-bpm]].
	Tempo struct {
		Text     string // serialized text or markup, may be empty
		Duration *Duration
		BPM      int
		BPMHigh  int // upper bound of a range, 0 if none
	}
	// Mark is \mark label; an empty Label means \default.
	Mark struct{ Label string }
	// TextMark is \textMark text.
	TextMark struct{ Text string }

	// AutoBeamOn is \autoBeamOn.
	AutoBeamOn struct{}
	// AutoBeamOff is \autoBeamOff.
	AutoBeamOff struct{}

	// Grace is \grace music.
	Grace struct{ Body Music }
	// Acciaccatura is \acciaccatura music.
	Acciaccatura struct{ Body Music }
	// Appoggiatura is \appoggiatura music.
	Appoggiatura struct{ Body Music }
	// AfterGrace is \afterGrace [fraction] main grace.
	AfterGrace struct {
		Fraction *Fraction
		Main     Music
		Grace    Music
	}

	// Repeat is \repeat type count body [\alternative { ... }].
	Repeat struct {
		Type         RepeatType
		Count        int
		Body         Music
		Alternatives []Music
	}

	// BarCheck is |.
	BarCheck struct{}
	// BarLine is \bar "type".
	BarLine struct{ Type string }

	// Override is \override path = value.
	Override struct{ Path, Value string }
	// Revert is \revert path.
	Revert struct{ Path string }
	// Set is \set path = value.
	Set struct{ Path, Value string }
	// Unset is \unset path.
	Unset struct{ Path string }
	// Once is \once music.
	Once struct{ Music Music }

	// ChordMode is \chordmode { ... }.
	ChordMode struct{ Body Music }
	// ChordModeEntry is root[duration][:quality][/inversion][/+bass].
	ChordModeEntry struct {
		Root       Pitch
		Duration   *Duration
		Quality    string
		Inversion  *Pitch
		Bass       *Pitch
		PostEvents []PostEvent
	}

	// LyricMode is \lyricmode { ... }; the body is kept as raw text.
	LyricMode struct{ Raw string }
	// AddLyrics is music \addlyrics { ... }.
	AddLyrics struct {
		Music  Music
		Lyrics []string
	}

	// DrumMode is \drummode { ... }.
	DrumMode struct{ Body Music }
	// DrumNote is a drum name with duration inside drum mode.
	DrumNote struct {
		Name       string
		Duration   *Duration
		PostEvents []PostEvent
	}
	// DrumChord is < drum names > duration.
	DrumChord struct {
		Names      []string
		Duration   *Duration
		PostEvents []PostEvent
	}

	// FigureMode is \figuremode { ... }.
	FigureMode struct{ Body Music }
	// Figure is \< figures \> duration inside figure mode.
	Figure struct {
		Figures  []string
		Duration *Duration
	}

	// Markup is \markup followed by its raw argument.
	Markup struct{ Text string }
	// MarkupList is \markuplist followed by its raw argument.
	MarkupList struct{ Text string }

	// MusicFunction is a call to a function without a dedicated node.
	MusicFunction struct {
		Name string
		Args []string // raw source of each argument
	}
	// SchemeMusic is #expr in music position; Expr excludes the #.
	SchemeMusic struct{ Expr string }
	// Identifier is a reference to a variable, \name.
	Identifier struct{ Name string }
)

func (Sequential) isMusic()       {}
func (Simultaneous) isMusic()     {}
func (Relative) isMusic()         {}
func (Fixed) isMusic()            {}
func (Transpose) isMusic()        {}
func (Tuplet) isMusic()           {}
func (ContextedMusic) isMusic()   {}
func (ContextChange) isMusic()    {}
func (NoteEvent) isMusic()        {}
func (ChordEvent) isMusic()       {}
func (ChordRepetition) isMusic()  {}
func (RestEvent) isMusic()        {}
func (SkipEvent) isMusic()        {}
func (MultiMeasureRest) isMusic() {}
func (Clef) isMusic()             {}
func (KeySignature) isMusic()     {}
func (TimeSignature) isMusic()    {}
func (Tempo) isMusic()            {}
func (Mark) isMusic()             {}
func (TextMark) isMusic()         {}
func (AutoBeamOn) isMusic()       {}
func (AutoBeamOff) isMusic()      {}
func (Grace) isMusic()            {}
func (Acciaccatura) isMusic()     {}
func (Appoggiatura) isMusic()     {}
func (AfterGrace) isMusic()       {}
func (Repeat) isMusic()           {}
func (BarCheck) isMusic()         {}
func (BarLine) isMusic()          {}
func (Override) isMusic()         {}
func (Revert) isMusic()           {}
func (Set) isMusic()              {}
func (Unset) isMusic()            {}
func (Once) isMusic()             {}
func (ChordMode) isMusic()        {}
func (ChordModeEntry) isMusic()   {}
func (LyricMode) isMusic()        {}
func (AddLyrics) isMusic()        {}
func (DrumMode) isMusic()         {}
func (DrumNote) isMusic()         {}
func (DrumChord) isMusic()        {}
func (FigureMode) isMusic()       {}
func (Figure) isMusic()           {}
func (Markup) isMusic()           {}
func (MarkupList) isMusic()       {}
func (MusicFunction) isMusic()    {}
func (SchemeMusic) isMusic()      {}
func (Identifier) isMusic()       {}

// PitchOf extracts the pitch of a single-note expression, as used by the
// pitch arguments of \relative, \fixed and \transpose.
func PitchOf(m Music) (Pitch, bool) {
	switch n := m.(type) {
	case NoteEvent:
		return n.Pitch, true
	case *NoteEvent:
		return n.Pitch, true
	}
	return Pitch{}, false
}

// IsPropertyOp reports whether m is \override, \revert, \set or \unset.
func IsPropertyOp(m Music) bool {
	switch m.(type) {
	case Override, Revert, Set, Unset:
		return true
	}
	return false
}
