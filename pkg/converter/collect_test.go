package converter

import (
	"reflect"
	"testing"

	"github.com/james-see/ly2mei/pkg/lilypond"
)

func mustCollect(t *testing.T, src string) []Event {
	t.Helper()
	m, err := lilypond.ParseMusic(src)
	if err != nil {
		t.Fatalf("ParseMusic(%q) failed: %v", src, err)
	}
	return CollectEvents(m, NewPitchContext())
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind()
	}
	return out
}

func TestCollectKinds(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []EventKind
	}{
		{"notes and rests", "{ c4 r8 s R1 }", []EventKind{KindNote, KindRest, KindSkip, KindMultiMeasureRest}},
		{"pitched rest", `{ a4\rest }`, []EventKind{KindPitchedRest}},
		{"tuplet", `\tuplet 3/2 { c8 d e }`, []EventKind{KindTupletStart, KindNote, KindNote, KindNote, KindTupletEnd}},
		{"after grace", `\afterGrace c2 { d16 e }`, []EventKind{KindNote, KindGraceStart, KindNote, KindNote, KindGraceEnd}},
		{"repeat with alternatives", `\repeat volta 2 { c } \alternative { { d } { e } }`, []EventKind{
			KindRepeatStart, KindNote, KindRepeatEnd,
			KindAlternativeStart, KindNote, KindAlternativeEnd,
			KindAlternativeStart, KindNote, KindAlternativeEnd,
		}},
		{"signatures", `{ \clef bass \key bes \major \time 2+3/8 \bar "|." }`, []EventKind{
			KindClef, KindKeySignature, KindTimeSignature, KindBarLine,
		}},
		{"once override", `\once \override Staff.TimeSignature.font-size = #3`, []EventKind{KindPropertyOperation}},
		{"leading chord repetition", "{ q4 <c e>4 q }", []EventKind{KindChord, KindChordRepetition}},
		{"drums", `\drummode { bd4 <sn hh>8 }`, []EventKind{KindDrum, KindDrumChord}},
		{"figures", `\figuremode { \<6 4\>4 }`, []EventKind{KindFigure}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := kinds(mustCollect(t, tt.src))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CollectEvents(%q) kinds = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}

func TestCollectBalanced(t *testing.T) {
	srcs := []string{
		`\tuplet 3/2 { c8 \grace d16 e8 f }`,
		`\repeat volta 2 { \tuplet 3/2 { c8 d e } } \alternative { { d } { e } }`,
		`{ \acciaccatura d8 \appoggiatura e8 c4 }`,
	}
	for _, src := range srcs {
		if events := mustCollect(t, src); !Balanced(events) {
			t.Errorf("CollectEvents(%q) is not balanced: %v", src, kinds(events))
		}
	}
}

func TestBalancedRejectsCrossedMarkers(t *testing.T) {
	events := []Event{TupletStart{Numerator: 3, Denominator: 2}, GraceStart{}, TupletEnd{}, GraceEnd{}}
	if Balanced(events) {
		t.Error("Balanced() = true for crossed markers, want false")
	}
	if Balanced([]Event{TupletStart{}}) {
		t.Error("Balanced() = true for an unclosed tuplet, want false")
	}
}

func TestCollectRelative(t *testing.T) {
	events := mustCollect(t, `\relative c' { c4 g e' }`)
	want := []int{1, 0, 1}
	for i, e := range events {
		n, ok := e.(Note)
		if !ok {
			t.Fatalf("event %d = %T, want Note", i, e)
		}
		if n.Pitch.Octave != want[i] {
			t.Errorf("note %d octave = %d, want %d", i, n.Pitch.Octave, want[i])
		}
	}
}

func TestCollectScopesDoNotLeak(t *testing.T) {
	events := mustCollect(t, `{ \relative c'' { c } c }`)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if got := events[1].(Note).Pitch.Octave; got != 0 {
		t.Errorf("note after \\relative has octave %d, want 0", got)
	}
}

func TestCollectChordRepetition(t *testing.T) {
	events := mustCollect(t, `\relative c' { <c e g>4 q8 }`)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	chord := events[0].(Chord)
	rep := events[1].(ChordRepetition)
	if !reflect.DeepEqual(chord.Pitches, rep.Pitches) {
		t.Errorf("repetition pitches = %v, want %v", rep.Pitches, chord.Pitches)
	}
	if rep.Duration == nil || rep.Duration.Base != 8 {
		t.Errorf("repetition duration = %v, want 8", rep.Duration)
	}
}

func TestCollectIdentifier(t *testing.T) {
	vars := map[string]lilypond.Music{
		"melody": lilypond.Sequential{Items: []lilypond.Music{
			lilypond.NoteEvent{Pitch: pitch('c', 1)},
			lilypond.NoteEvent{Pitch: pitch('d', 1)},
		}},
		"loop": lilypond.Identifier{Name: "loop"},
	}

	c := NewCollector(vars)
	c.Collect(lilypond.Identifier{Name: "melody"}, NewPitchContext())
	if n := len(c.Events()); n != 2 {
		t.Errorf("\\melody expanded to %d events, want 2", n)
	}

	c = NewCollector(vars)
	c.Collect(lilypond.Identifier{Name: "loop"}, NewPitchContext())
	if n := len(c.Events()); n != 0 {
		t.Errorf("\\loop expanded to %d events, want 0", n)
	}
}

func TestCollectTransposedChordMode(t *testing.T) {
	m := lilypond.Transpose{
		From: lilypond.NoteEvent{Pitch: pitch('c', 0)},
		To:   lilypond.NoteEvent{Pitch: pitch('d', 0)},
		Body: lilypond.ChordMode{Body: lilypond.Sequential{Items: []lilypond.Music{
			lilypond.ChordModeEntry{Root: pitch('c', 0), Quality: "m7"},
		}}},
	}
	events := CollectEvents(m, NewPitchContext())
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	e := events[0].(ChordModeEntry)
	if e.Entry.Root.Step != 'd' {
		t.Errorf("root = %v, want d", e.Entry.Root)
	}
	if e.Text != "d:m7" {
		t.Errorf("text = %q, want %q", e.Text, "d:m7")
	}
}

func TestCollectTempoKeepsValue(t *testing.T) {
	events := mustCollect(t, `\tempo "Allegro" 4 = 120`)
	tempo, ok := events[0].(Tempo)
	if !ok {
		t.Fatalf("event = %T, want Tempo", events[0])
	}
	if tempo.Text != `\tempo "Allegro" 4 = 120` || tempo.Value.BPM != 120 {
		t.Errorf("Tempo = %+v", tempo)
	}
}
