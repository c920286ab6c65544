package converter

import (
	"testing"

	"github.com/james-see/ly2mei/pkg/lilypond"
	"github.com/james-see/ly2mei/pkg/mei"
)

func newTestBuilder() *Builder {
	return NewBuilder(NewIDGen(""), "")
}

func TestOrnament(t *testing.T) {
	tests := []struct {
		name      string
		dir       lilypond.Direction
		wantLabel string
		check     func(mei.Control) bool
	}{
		{"trill", lilypond.Neutral, "", func(c mei.Control) bool { _, ok := c.(*mei.Trill); return ok }},
		{"trill", lilypond.Down, "lilypond:trill,dir=down", func(c mei.Control) bool { _, ok := c.(*mei.Trill); return ok }},
		{"prall", lilypond.Neutral, "", func(c mei.Control) bool { m, ok := c.(*mei.Mordent); return ok && m.Form == "upper" }},
		{"mordent", lilypond.Neutral, "", func(c mei.Control) bool { m, ok := c.(*mei.Mordent); return ok && m.Form == "lower" }},
		{"reverseturn", lilypond.Up, "lilypond:turn,dir=up", func(c mei.Control) bool { m, ok := c.(*mei.Turn); return ok && m.Form == "lower" }},
		{"fermata", lilypond.Neutral, "", func(c mei.Control) bool { f, ok := c.(*mei.Fermata); return ok && f.Shape == "" }},
		{"fermata", lilypond.Down, "lilypond:fermata,dir=down", func(c mei.Control) bool { _, ok := c.(*mei.Fermata); return ok }},
		{"shortfermata", lilypond.Neutral, "lilypond:fermata,shortfermata", func(c mei.Control) bool { f, ok := c.(*mei.Fermata); return ok && f.Shape == "angular" }},
		{"verylongfermata", lilypond.Neutral, "lilypond:fermata,verylongfermata", func(c mei.Control) bool { f, ok := c.(*mei.Fermata); return ok && f.Shape == "square" }},
		{"prallprall", lilypond.Neutral, "lilypond:ornam,prallprall", func(c mei.Control) bool { o, ok := c.(*mei.Ornam); return ok && o.Text == "prallprall" }},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.dir.String(), func(t *testing.T) {
			c := newTestBuilder().Ornament(tt.name, tt.dir, "ly-note-1", 1)
			if c == nil {
				t.Fatalf("Ornament(%q) = nil", tt.name)
			}
			if !tt.check(c) {
				t.Errorf("Ornament(%q) = %#v, wrong element", tt.name, c)
			}
			if got := c.Common().Label; got != tt.wantLabel {
				t.Errorf("Ornament(%q) label = %q, want %q", tt.name, got, tt.wantLabel)
			}
			if got := c.Common().StartID; got != "#ly-note-1" {
				t.Errorf("Ornament(%q) startid = %q, want #ly-note-1", tt.name, got)
			}
		})
	}

	if c := newTestBuilder().Ornament("staccato", lilypond.Neutral, "ly-note-1", 1); c != nil {
		t.Errorf("Ornament(staccato) = %#v, want nil", c)
	}
}

func TestTremoloSlashes(t *testing.T) {
	tests := []struct {
		value int
		want  int
	}{
		{0, 0}, {4, 0}, {8, 1}, {16, 2}, {32, 3}, {64, 4}, {-8, 0},
	}
	for _, tt := range tests {
		if got := TremoloSlashes(tt.value); got != tt.want {
			t.Errorf("TremoloSlashes(%d) = %d, want %d", tt.value, got, tt.want)
		}
	}
}

func TestWrapLastInBTrem(t *testing.T) {
	b := newTestBuilder()
	layer := &mei.Layer{N: 1}
	note := b.NoteElement(pitch('c', 1), &lilypond.Duration{Base: 4})
	layer.Append(note)

	b.WrapLastInBTrem(layer, 16)
	if len(layer.Children) != 1 {
		t.Fatalf("layer has %d children, want 1", len(layer.Children))
	}
	trem, ok := layer.Children[0].(*mei.BTrem)
	if !ok {
		t.Fatalf("child = %T, want *mei.BTrem", layer.Children[0])
	}
	if trem.Num != 2 || trem.Child != note || trem.Label != "lilypond:tremolo,16" {
		t.Errorf("bTrem = %+v", trem)
	}

	before := b.IDs().Count()
	rest := &mei.Rest{ID: "r"}
	layer.Append(rest)
	b.WrapLastInBTrem(layer, 32)
	if layer.Children[1] != rest {
		t.Errorf("rest was wrapped: %T", layer.Children[1])
	}
	if b.IDs().Count() != before {
		t.Error("an id was used without wrapping")
	}

	empty := &mei.Layer{}
	b.WrapLastInBTrem(empty, 8)
	if len(empty.Children) != 0 {
		t.Error("wrapping an empty layer added a child")
	}
}

func TestSpanners(t *testing.T) {
	b := newTestBuilder()

	slur := b.Slur("a", "b", 1, true)
	if slur.StartID != "#a" || slur.EndID != "#b" || slur.Label != "lilypond:phrase" {
		t.Errorf("Slur = %+v", slur.ControlEvent)
	}
	if plain := b.Slur("a", "b", 1, false); plain.Label != "" {
		t.Errorf("plain slur label = %q, want empty", plain.Label)
	}

	span := b.TupletSpan("a", "c", 2, TupletStart{Numerator: 3, Denominator: 2, Span: &lilypond.Duration{Base: 4}})
	if span.Num != 3 || span.NumBase != 2 || span.Staff != 2 {
		t.Errorf("TupletSpan = %+v", span)
	}
	if span.Label != "lilypond:tuplet,3/2,span=4" {
		t.Errorf("TupletSpan label = %q", span.Label)
	}

	rep := b.RepeatDir("a", "c", 1, RepeatStart{Type: lilypond.RepeatVolta, Count: 2, Alternatives: 2})
	if rep.Text != "volta 2" || rep.Label != "lilypond:repeat,volta,2,alts=2" {
		t.Errorf("RepeatDir = %+v", rep)
	}

	end := b.EndingDir("a", "c", 1, 0)
	if end.Text != "1" || end.Label != "lilypond:ending,0" {
		t.Errorf("EndingDir = %+v", end)
	}
}

func TestTempoDirective(t *testing.T) {
	b := newTestBuilder()
	value := lilypond.Tempo{Text: `"Allegro"`, Duration: &lilypond.Duration{Base: 4, Dots: 1}, BPM: 96}
	tempo := b.Tempo(Tempo{Text: lilypond.SerializeTempo(value), Value: value}, "n", 1)

	if tempo.Text != "Allegro" || tempo.MM != "96" || tempo.MMUnit != "4" || tempo.MMDots != 1 {
		t.Errorf("Tempo = %+v", tempo)
	}
	l, err := ParseLabel(tempo.Label)
	if err != nil {
		t.Fatal(err)
	}
	if got := l.Positional(); len(got) != 1 || got[0] != `\tempo "Allegro" 4. = 96` {
		t.Errorf("tempo label values = %q", got)
	}
}

func TestHarm(t *testing.T) {
	b := newTestBuilder()
	bass := lilypond.Pitch{Step: 'e', Alter: -1}
	entry := lilypond.ChordModeEntry{Root: pitch('c', 0), Quality: "m7", Bass: &bass}
	e := ChordModeEntry{Entry: entry, Text: lilypond.SerializeChordModeEntry(entry)}

	anchored := b.Harm(e, "ly-note-1", 1, "3")
	if anchored.Text != "Cm7/Eb" || anchored.Tstamp != "" || anchored.StartID != "#ly-note-1" {
		t.Errorf("anchored Harm = %+v", anchored)
	}
	free := b.Harm(e, "", 1, "3")
	if free.Tstamp != "3" || free.StartID != "" {
		t.Errorf("free Harm = %+v", free)
	}
}

func TestDisplayText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`"dolce"`, "dolce"},
		{`"a \"b\""`, `a "b"`},
		{`\markup { \bold "x" }`, `\markup { \bold "x" }`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := displayText(tt.in); got != tt.want {
			t.Errorf("displayText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
