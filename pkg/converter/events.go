package converter

import (
	"encoding/json"

	"github.com/james-see/ly2mei/pkg/lilypond"
)

// EventKind names an event variant.
type EventKind string

const (
	KindNote              EventKind = "note"
	KindChord             EventKind = "chord"
	KindChordRepetition   EventKind = "chord-repetition"
	KindRest              EventKind = "rest"
	KindPitchedRest       EventKind = "pitched-rest"
	KindMultiMeasureRest  EventKind = "multi-measure-rest"
	KindSkip              EventKind = "skip"
	KindClef              EventKind = "clef"
	KindKeySignature      EventKind = "key-signature"
	KindTimeSignature     EventKind = "time-signature"
	KindAutoBeamOn        EventKind = "auto-beam-on"
	KindAutoBeamOff       EventKind = "auto-beam-off"
	KindTupletStart       EventKind = "tuplet-start"
	KindTupletEnd         EventKind = "tuplet-end"
	KindGraceStart        EventKind = "grace-start"
	KindGraceEnd          EventKind = "grace-end"
	KindRepeatStart       EventKind = "repeat-start"
	KindRepeatEnd         EventKind = "repeat-end"
	KindAlternativeStart  EventKind = "alternative-start"
	KindAlternativeEnd    EventKind = "alternative-end"
	KindBarCheck          EventKind = "bar-check"
	KindBarLine           EventKind = "bar-line"
	KindMarkup            EventKind = "markup"
	KindMarkupList        EventKind = "markup-list"
	KindTempo             EventKind = "tempo"
	KindMark              EventKind = "mark"
	KindTextMark          EventKind = "text-mark"
	KindChordModeEntry    EventKind = "chord-mode-entry"
	KindFigure            EventKind = "figure"
	KindDrum              EventKind = "drum"
	KindDrumChord         EventKind = "drum-chord"
	KindPropertyOperation EventKind = "property-operation"
	KindMusicFunctionCall EventKind = "music-function-call"
	KindSchemeExpression  EventKind = "scheme-expression"
	KindContextChange     EventKind = "context-change"
)

// Event is one entry of the flat event stream. The set of implementations
// is closed: every variant is declared in this file.
type Event interface {
	Kind() EventKind
	isEvent()
}

// PostEvents is the list of decorations attached to a note-like event. It
// encodes as the LilyPond text of each decoration.
type PostEvents []lilypond.PostEvent

// Strings renders each post-event as LilyPond source.
func (p PostEvents) Strings() []string {
	out := make([]string, len(p))
	for i, pe := range p {
		out[i] = lilypond.SerializePostEvent(pe)
	}
	return out
}

// MarshalJSON encodes the post-events as a list of LilyPond strings.
func (p PostEvents) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Strings())
}

// MarshalYAML encodes the post-events as a YAML sequence of LilyPond strings.
func (p PostEvents) MarshalYAML() (interface{}, error) {
	return p.Strings(), nil
}

// Has reports whether a post-event of the same type as pe is present.
func (p PostEvents) Has(pe lilypond.PostEvent) bool {
	for _, e := range p {
		if e == pe {
			return true
		}
	}
	return false
}

// GraceKind distinguishes the grace-note constructs.
type GraceKind string

const (
	GraceNormal       GraceKind = "grace"
	GraceAcciaccatura GraceKind = "acciaccatura"
	GraceAppoggiatura GraceKind = "appoggiatura"
	GraceAfter        GraceKind = "after"
)

// GraceType is the kind of a grace group plus the \afterGrace fraction.
type GraceType struct {
	Kind     GraceKind          `json:"kind" yaml:"kind"`
	Fraction *lilypond.Fraction `json:"fraction,omitempty" yaml:"fraction,omitempty"`
}

// MEIGrace is the @grace value: appoggiaturas take time, the rest do not.
func (g GraceType) MEIGrace() string {
	if g.Kind == GraceAppoggiatura {
		return "acc"
	}
	return "unacc"
}

type (
	// Note is a single resolved pitch.
	Note struct {
		Pitch      lilypond.Pitch     `json:"pitch" yaml:"pitch"`
		Duration   *lilypond.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
		PostEvents PostEvents         `json:"postEvents,omitempty" yaml:"postEvents,omitempty"`
	}
	// Chord is a set of resolved pitches sounding together.
	Chord struct {
		Pitches    []lilypond.Pitch   `json:"pitches" yaml:"pitches"`
		Duration   *lilypond.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
		PostEvents PostEvents         `json:"postEvents,omitempty" yaml:"postEvents,omitempty"`
	}
	// ChordRepetition is q expanded to the previous chord's pitches.
	ChordRepetition struct {
		Pitches    []lilypond.Pitch   `json:"pitches" yaml:"pitches"`
		Duration   *lilypond.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
		PostEvents PostEvents         `json:"postEvents,omitempty" yaml:"postEvents,omitempty"`
	}
	// Rest is r.
	Rest struct {
		Duration   *lilypond.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
		PostEvents PostEvents         `json:"postEvents,omitempty" yaml:"postEvents,omitempty"`
	}
	// PitchedRest is a rest positioned at a resolved pitch.
	PitchedRest struct {
		Pitch      lilypond.Pitch     `json:"pitch" yaml:"pitch"`
		Duration   *lilypond.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
		PostEvents PostEvents         `json:"postEvents,omitempty" yaml:"postEvents,omitempty"`
	}
	// MultiMeasureRest is R.
	MultiMeasureRest struct {
		Duration   *lilypond.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
		PostEvents PostEvents         `json:"postEvents,omitempty" yaml:"postEvents,omitempty"`
	}
	// Skip is s.
	Skip struct {
		Duration   *lilypond.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
		PostEvents PostEvents         `json:"postEvents,omitempty" yaml:"postEvents,omitempty"`
	}

	// Clef is \clef.
	Clef struct {
		Name string `json:"name" yaml:"name"`
	}
	// KeySignature is \key.
	KeySignature struct {
		Pitch lilypond.Pitch `json:"pitch" yaml:"pitch"`
		Mode  string         `json:"mode" yaml:"mode"`
	}
	// TimeSignature is \time.
	TimeSignature struct {
		Numerators  []int `json:"numerators" yaml:"numerators"`
		Denominator int   `json:"denominator" yaml:"denominator"`
	}
	// AutoBeamOn is \autoBeamOn.
	AutoBeamOn struct{}
	// AutoBeamOff is \autoBeamOff.
	AutoBeamOff struct{}

	// TupletStart opens a tuplet group.
	TupletStart struct {
		Numerator   int                `json:"numerator" yaml:"numerator"`
		Denominator int                `json:"denominator" yaml:"denominator"`
		Span        *lilypond.Duration `json:"span,omitempty" yaml:"span,omitempty"`
	}
	// TupletEnd closes the innermost tuplet group.
	TupletEnd struct{}
	// GraceStart opens a grace group.
	GraceStart struct {
		Grace GraceType `json:"grace" yaml:"grace"`
	}
	// GraceEnd closes the innermost grace group.
	GraceEnd struct{}
	// RepeatStart opens a repeat body.
	RepeatStart struct {
		Type         lilypond.RepeatType `json:"type" yaml:"type"`
		Count        int                 `json:"count" yaml:"count"`
		Alternatives int                 `json:"alternatives" yaml:"alternatives"`
	}
	// RepeatEnd closes the innermost repeat body.
	RepeatEnd struct{}
	// AlternativeStart opens alternative ending Index (0-based).
	AlternativeStart struct {
		Index int `json:"index" yaml:"index"`
	}
	// AlternativeEnd closes the innermost alternative ending.
	AlternativeEnd struct{}

	// BarCheck is |.
	BarCheck struct{}
	// BarLine is \bar.
	BarLine struct {
		Type string `json:"type" yaml:"type"`
	}

	// Markup carries a serialized \markup.
	Markup struct {
		Text string `json:"text" yaml:"text"`
	}
	// MarkupList carries a serialized \markuplist.
	MarkupList struct {
		Text string `json:"text" yaml:"text"`
	}
	// Tempo carries a serialized \tempo together with its parsed parts.
	Tempo struct {
		Text  string         `json:"text" yaml:"text"`
		Value lilypond.Tempo `json:"-" yaml:"-"`
	}
	// Mark carries a serialized \mark.
	Mark struct {
		Text string `json:"text" yaml:"text"`
	}
	// TextMark carries a serialized \textMark.
	TextMark struct {
		Text string `json:"text" yaml:"text"`
	}

	// ChordModeEntry is a chord name with resolved root, inversion and bass.
	ChordModeEntry struct {
		Entry lilypond.ChordModeEntry `json:"-" yaml:"-"`
		Text  string                  `json:"text" yaml:"text"`
	}
	// FigureEvent is a figured-bass entry.
	FigureEvent struct {
		Figure lilypond.Figure `json:"-" yaml:"-"`
		Text   string          `json:"text" yaml:"text"`
	}
	// DrumEvent is a single drum note.
	DrumEvent struct {
		Note lilypond.DrumNote `json:"-" yaml:"-"`
		Text string            `json:"text" yaml:"text"`
	}
	// DrumChordEvent is a set of simultaneous drum notes.
	DrumChordEvent struct {
		Chord lilypond.DrumChord `json:"-" yaml:"-"`
		Text  string             `json:"text" yaml:"text"`
	}

	// PropertyOperation carries a serialized \override, \set, \revert,
	// \unset or \once of one of them.
	PropertyOperation struct {
		Text string `json:"text" yaml:"text"`
	}
	// MusicFunctionCall carries a serialized function call.
	MusicFunctionCall struct {
		Name string `json:"name" yaml:"name"`
		Text string `json:"text" yaml:"text"`
	}
	// SchemeExpression carries a serialized #expr.
	SchemeExpression struct {
		Text string `json:"text" yaml:"text"`
	}
	// ContextChange is \change Type = name.
	ContextChange struct {
		Type string `json:"type" yaml:"type"`
		Name string `json:"name" yaml:"name"`
	}
)

func (Note) Kind() EventKind              { return KindNote }
func (Chord) Kind() EventKind             { return KindChord }
func (ChordRepetition) Kind() EventKind   { return KindChordRepetition }
func (Rest) Kind() EventKind              { return KindRest }
func (PitchedRest) Kind() EventKind       { return KindPitchedRest }
func (MultiMeasureRest) Kind() EventKind  { return KindMultiMeasureRest }
func (Skip) Kind() EventKind              { return KindSkip }
func (Clef) Kind() EventKind              { return KindClef }
func (KeySignature) Kind() EventKind      { return KindKeySignature }
func (TimeSignature) Kind() EventKind     { return KindTimeSignature }
func (AutoBeamOn) Kind() EventKind        { return KindAutoBeamOn }
func (AutoBeamOff) Kind() EventKind       { return KindAutoBeamOff }
func (TupletStart) Kind() EventKind       { return KindTupletStart }
func (TupletEnd) Kind() EventKind         { return KindTupletEnd }
func (GraceStart) Kind() EventKind        { return KindGraceStart }
func (GraceEnd) Kind() EventKind          { return KindGraceEnd }
func (RepeatStart) Kind() EventKind       { return KindRepeatStart }
func (RepeatEnd) Kind() EventKind         { return KindRepeatEnd }
func (AlternativeStart) Kind() EventKind  { return KindAlternativeStart }
func (AlternativeEnd) Kind() EventKind    { return KindAlternativeEnd }
func (BarCheck) Kind() EventKind          { return KindBarCheck }
func (BarLine) Kind() EventKind           { return KindBarLine }
func (Markup) Kind() EventKind            { return KindMarkup }
func (MarkupList) Kind() EventKind        { return KindMarkupList }
func (Tempo) Kind() EventKind             { return KindTempo }
func (Mark) Kind() EventKind              { return KindMark }
func (TextMark) Kind() EventKind          { return KindTextMark }
func (ChordModeEntry) Kind() EventKind    { return KindChordModeEntry }
func (FigureEvent) Kind() EventKind       { return KindFigure }
func (DrumEvent) Kind() EventKind         { return KindDrum }
func (DrumChordEvent) Kind() EventKind    { return KindDrumChord }
func (PropertyOperation) Kind() EventKind { return KindPropertyOperation }
func (MusicFunctionCall) Kind() EventKind { return KindMusicFunctionCall }
func (SchemeExpression) Kind() EventKind  { return KindSchemeExpression }
func (ContextChange) Kind() EventKind     { return KindContextChange }

func (Note) isEvent()              {}
func (Chord) isEvent()             {}
func (ChordRepetition) isEvent()   {}
func (Rest) isEvent()              {}
func (PitchedRest) isEvent()       {}
func (MultiMeasureRest) isEvent()  {}
func (Skip) isEvent()              {}
func (Clef) isEvent()              {}
func (KeySignature) isEvent()      {}
func (TimeSignature) isEvent()     {}
func (AutoBeamOn) isEvent()        {}
func (AutoBeamOff) isEvent()       {}
func (TupletStart) isEvent()       {}
func (TupletEnd) isEvent()         {}
func (GraceStart) isEvent()        {}
func (GraceEnd) isEvent()          {}
func (RepeatStart) isEvent()       {}
func (RepeatEnd) isEvent()         {}
func (AlternativeStart) isEvent()  {}
func (AlternativeEnd) isEvent()    {}
func (BarCheck) isEvent()          {}
func (BarLine) isEvent()           {}
func (Markup) isEvent()            {}
func (MarkupList) isEvent()        {}
func (Tempo) isEvent()             {}
func (Mark) isEvent()              {}
func (TextMark) isEvent()          {}
func (ChordModeEntry) isEvent()    {}
func (FigureEvent) isEvent()       {}
func (DrumEvent) isEvent()         {}
func (DrumChordEvent) isEvent()    {}
func (PropertyOperation) isEvent() {}
func (MusicFunctionCall) isEvent() {}
func (SchemeExpression) isEvent()  {}
func (ContextChange) isEvent()     {}

// Record is the serialized form of an event used by the events dump.
type Record struct {
	Kind  EventKind `json:"kind" yaml:"kind"`
	Event Event     `json:"event,omitempty" yaml:"event,omitempty"`
}

// Records wraps each event with its kind for dumping.
func Records(events []Event) []Record {
	out := make([]Record, len(events))
	for i, e := range events {
		out[i] = Record{Kind: e.Kind(), Event: e}
	}
	return out
}

// closer returns the kind that closes a start marker, or "" when k opens
// nothing.
func closer(k EventKind) EventKind {
	switch k {
	case KindTupletStart:
		return KindTupletEnd
	case KindGraceStart:
		return KindGraceEnd
	case KindRepeatStart:
		return KindRepeatEnd
	case KindAlternativeStart:
		return KindAlternativeEnd
	}
	return ""
}

// Balanced reports whether every start marker in events is closed by its
// matching end marker at the same depth.
func Balanced(events []Event) bool {
	var open []EventKind
	for _, e := range events {
		k := e.Kind()
		if c := closer(k); c != "" {
			open = append(open, c)
			continue
		}
		switch k {
		case KindTupletEnd, KindGraceEnd, KindRepeatEnd, KindAlternativeEnd:
			if len(open) == 0 || open[len(open)-1] != k {
				return false
			}
			open = open[:len(open)-1]
		}
	}
	return len(open) == 0
}
