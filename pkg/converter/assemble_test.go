package converter

import (
	"testing"

	"github.com/james-see/ly2mei/pkg/lilypond"
	"github.com/james-see/ly2mei/pkg/mei"
)

func mustConvert(t *testing.T, src string) *mei.MEI {
	t.Helper()
	f, err := lilypond.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	doc, err := New().Convert(f)
	if err != nil {
		t.Fatalf("Convert(%q) failed: %v", src, err)
	}
	return doc
}

func measureOf(doc *mei.MEI) *mei.Measure {
	return doc.Score.Sections[0].Measures[0]
}

func firstLayer(doc *mei.MEI) *mei.Layer {
	return measureOf(doc).Staves[0].Layers[0]
}

func TestAssembleNotesAndControls(t *testing.T) {
	doc := mustConvert(t, `\relative c' { \time 3/4 c4( d) e\p f~ f }`)

	layer := firstLayer(doc)
	if len(layer.Children) != 5 {
		t.Fatalf("layer has %d children, want 5", len(layer.Children))
	}
	wantIDs := []string{"ly-note-1", "ly-note-2", "ly-note-4", "ly-note-6", "ly-note-7"}
	for i, want := range wantIDs {
		if got := layer.Children[i].(*mei.Note).ID; got != want {
			t.Errorf("child %d id = %q, want %q", i, got, want)
		}
	}
	if tie := layer.Children[3].(*mei.Note).Tie; tie != "i" {
		t.Errorf("tie start = %q, want i", tie)
	}
	if tie := layer.Children[4].(*mei.Note).Tie; tie != "t" {
		t.Errorf("tie end = %q, want t", tie)
	}

	controls := measureOf(doc).Controls
	if len(controls) != 2 {
		t.Fatalf("got %d controls, want 2", len(controls))
	}
	slur, ok := controls[0].(*mei.Slur)
	if !ok || slur.ID != "ly-slur-3" || slur.StartID != "#ly-note-1" || slur.EndID != "#ly-note-2" {
		t.Errorf("slur = %#v", controls[0])
	}
	dynam, ok := controls[1].(*mei.Dynam)
	if !ok || dynam.Text != "p" || dynam.StartID != "#ly-note-4" {
		t.Errorf("dynam = %#v", controls[1])
	}

	def := doc.Score.ScoreDef.StaffGrp.StaffDefs[0]
	if def.MeterCount != "3" || def.MeterUnit != 4 || def.Lines != 5 {
		t.Errorf("staffDef = %+v", def)
	}
}

func TestAssembleBeam(t *testing.T) {
	layer := firstLayer(mustConvert(t, `{ c'8[ d' e'] f'4 }`))
	if len(layer.Children) != 2 {
		t.Fatalf("layer has %d children, want 2", len(layer.Children))
	}
	beam, ok := layer.Children[0].(*mei.Beam)
	if !ok {
		t.Fatalf("first child = %T, want *mei.Beam", layer.Children[0])
	}
	if len(beam.Children) != 3 {
		t.Errorf("beam has %d children, want 3", len(beam.Children))
	}
	if _, ok := layer.Children[1].(*mei.Note); !ok {
		t.Errorf("second child = %T, want *mei.Note", layer.Children[1])
	}
}

func TestAssembleTupletSpan(t *testing.T) {
	doc := mustConvert(t, `{ \tuplet 3/2 { c'8 d' e' } f'4 }`)
	controls := measureOf(doc).Controls
	if len(controls) != 1 {
		t.Fatalf("got %d controls, want 1", len(controls))
	}
	span, ok := controls[0].(*mei.TupletSpan)
	if !ok {
		t.Fatalf("control = %T, want *mei.TupletSpan", controls[0])
	}
	if span.StartID != "#ly-note-1" || span.EndID != "#ly-note-3" || span.Num != 3 || span.NumBase != 2 {
		t.Errorf("tupletSpan = %+v", span)
	}
	if span.Label != "lilypond:tuplet,3/2" {
		t.Errorf("tupletSpan label = %q", span.Label)
	}
}

func TestAssembleTremolo(t *testing.T) {
	layer := firstLayer(mustConvert(t, `{ c'4:16 r4:16 }`))
	if len(layer.Children) != 2 {
		t.Fatalf("layer has %d children, want 2", len(layer.Children))
	}
	trem, ok := layer.Children[0].(*mei.BTrem)
	if !ok || trem.Num != 2 {
		t.Errorf("first child = %#v, want bTrem with 2 slashes", layer.Children[0])
	}
	if _, ok := layer.Children[1].(*mei.Rest); !ok {
		t.Errorf("second child = %T, want *mei.Rest", layer.Children[1])
	}
}

func TestAssembleWaitingControls(t *testing.T) {
	doc := mustConvert(t, `{ \tempo 4 = 100 c'4 \mark \default }`)
	controls := measureOf(doc).Controls
	if len(controls) != 2 {
		t.Fatalf("got %d controls, want 2", len(controls))
	}
	for i, c := range controls {
		if got := c.Common().StartID; got != "#ly-note-1" {
			t.Errorf("control %d startid = %q, want #ly-note-1", i, got)
		}
	}
	if tempo, ok := controls[0].(*mei.Tempo); !ok || tempo.MM != "100" {
		t.Errorf("control 0 = %#v, want tempo 100", controls[0])
	}

	empty := mustConvert(t, `{ \tempo 4 = 100 }`)
	controls = measureOf(empty).Controls
	if len(controls) != 1 || controls[0].Common().Tstamp != "1" || controls[0].Common().StartID != "" {
		t.Errorf("unanchored tempo = %#v", controls)
	}
}

func TestAssembleGrace(t *testing.T) {
	layer := firstLayer(mustConvert(t, `{ \appoggiatura d'16 c'4 }`))
	grace := layer.Children[0].(*mei.Note)
	if grace.Grace != "acc" || grace.Label != "lilypond:grace,appoggiatura" {
		t.Errorf("grace note = %+v", grace)
	}
	if main := layer.Children[1].(*mei.Note); main.Grace != "" || main.Label != "" {
		t.Errorf("main note = %+v", main)
	}
}

func TestAssembleVoices(t *testing.T) {
	doc := mustConvert(t, `\new Staff \relative c'' << { c4 d } \\ { a4 g } >>`)
	staff := measureOf(doc).Staves[0]
	if len(staff.Layers) != 2 {
		t.Fatalf("staff has %d layers, want 2", len(staff.Layers))
	}
	// each voice starts from the \relative reference
	lower := staff.Layers[1].Children[0].(*mei.Note)
	if lower.Pname != "a" || lower.Oct != 4 {
		t.Errorf("first note of voice 2 = %s%d, want a4", lower.Pname, lower.Oct)
	}
}

func TestAssembleStaves(t *testing.T) {
	doc := mustConvert(t, `\new PianoStaff << \new Staff = "rh" { c''4 } \new Staff { \clef bass c4 } >>`)
	defs := doc.Score.ScoreDef.StaffGrp.StaffDefs
	if len(defs) != 2 {
		t.Fatalf("got %d staffDefs, want 2", len(defs))
	}
	if defs[0].N != 1 || defs[0].LabelText != "rh" {
		t.Errorf("staffDef 1 = %+v", defs[0])
	}
	if defs[1].N != 2 || defs[1].ClefShape != "F" {
		t.Errorf("staffDef 2 = %+v", defs[1])
	}
	if n := len(measureOf(doc).Staves); n != 2 {
		t.Errorf("measure has %d staves, want 2", n)
	}
}

func TestAssembleChordNames(t *testing.T) {
	doc := mustConvert(t, `<< \new ChordNames \chordmode { c2 g } \new Staff { c'2 d' } >>`)
	var harms []*mei.Harm
	for _, c := range measureOf(doc).Controls {
		if h, ok := c.(*mei.Harm); ok {
			harms = append(harms, h)
		}
	}
	if len(harms) != 2 {
		t.Fatalf("got %d harms, want 2", len(harms))
	}
	if harms[0].Tstamp != "1" || harms[1].Tstamp != "3" {
		t.Errorf("harm tstamps = %q, %q, want 1, 3", harms[0].Tstamp, harms[1].Tstamp)
	}
	if harms[1].Text != "G" {
		t.Errorf("harm text = %q, want G", harms[1].Text)
	}
}

func TestAssembleFiguredBass(t *testing.T) {
	doc := mustConvert(t, `\new PianoStaff <<
  \new Staff { c''2 d'' }
  \new Staff { \clef bass c2 g, }
  \new FiguredBass \figuremode { <6 4>2 <7>2 }
>>`)
	var fbs []*mei.Fb
	for _, c := range measureOf(doc).Controls {
		if fb, ok := c.(*mei.Fb); ok {
			fbs = append(fbs, fb)
		}
	}
	if len(fbs) != 2 {
		t.Fatalf("got %d fbs, want 2", len(fbs))
	}
	if fbs[0].Tstamp != "1" || fbs[1].Tstamp != "3" {
		t.Errorf("fb tstamps = %q, %q, want 1, 3", fbs[0].Tstamp, fbs[1].Tstamp)
	}
	if len(fbs[0].Figures) != 2 || fbs[0].Figures[0] != "6" || fbs[0].Figures[1] != "4" {
		t.Errorf("fb figures = %v, want [6 4]", fbs[0].Figures)
	}
	for i, fb := range fbs {
		if fb.Staff != 2 {
			t.Errorf("fb %d staff = %d, want 2", i, fb.Staff)
		}
	}
}

func TestAssembleAttachedStaff(t *testing.T) {
	doc := mustConvert(t, `<<
  \new Staff { c''1 }
  \new ChordNames \chordmode { c1 }
  \new Staff { c1 }
>>`)
	var harm *mei.Harm
	for _, c := range measureOf(doc).Controls {
		if h, ok := c.(*mei.Harm); ok {
			harm = h
		}
	}
	if harm == nil {
		t.Fatal("no harm found")
	}
	if harm.Staff != 2 {
		t.Errorf("harm staff = %d, want 2", harm.Staff)
	}

	// nothing follows the chord names, so they stay with the last staff
	doc = mustConvert(t, `<< \new Staff { c'1 } \new ChordNames \chordmode { g1 } >>`)
	for _, c := range measureOf(doc).Controls {
		if h, ok := c.(*mei.Harm); ok && h.Staff != 1 {
			t.Errorf("harm staff = %d, want 1", h.Staff)
		}
	}
}

func TestAssembleDrumStaff(t *testing.T) {
	doc := mustConvert(t, `\drums { bd4 hh }`)
	def := doc.Score.ScoreDef.StaffGrp.StaffDefs[0]
	if def.Lines != 5 {
		t.Errorf("drum staff lines = %d, want 5", def.Lines)
	}
	layer := firstLayer(doc)
	if len(layer.Children) != 2 {
		t.Fatalf("layer has %d children, want 2", len(layer.Children))
	}
	if n := layer.Children[1].(*mei.Note); n.Label != "lilypond:drum,hh" {
		t.Errorf("drum label = %q", n.Label)
	}
}

func TestAssembleUniqueIDs(t *testing.T) {
	doc := mustConvert(t, `\relative c' { \tuplet 3/2 { c8( d e) } <c e>4:32 q\f \grace f16 g4\trill }`)
	seen := map[string]bool{}
	check := func(id string) {
		if id == "" {
			return
		}
		if seen[id] {
			t.Errorf("duplicate id %q", id)
		}
		seen[id] = true
	}
	var walk func(mei.Element)
	walk = func(e mei.Element) {
		switch el := e.(type) {
		case *mei.Note:
			check(el.ID)
		case *mei.Chord:
			check(el.ID)
			for _, n := range el.Notes {
				check(n.ID)
			}
		case *mei.BTrem:
			check(el.ID)
			walk(el.Child)
		case *mei.Beam:
			check(el.ID)
			for _, c := range el.Children {
				walk(c)
			}
		case mei.Identified:
			check(el.XMLID())
		}
	}
	for _, child := range firstLayer(doc).Children {
		walk(child)
	}
	for _, c := range measureOf(doc).Controls {
		check(c.Common().ID)
	}
	if len(seen) == 0 {
		t.Fatal("no ids found")
	}
}
