package mei

import (
	"bytes"
	"encoding/xml"
	"io"
	"testing"
)

func sampleDocument() *MEI {
	layer := &Layer{N: 1}
	layer.Append(&Note{ID: "ly-note-1", Pname: "c", Oct: 4, Dur: "4", Tie: "i"})
	layer.Append(&Chord{ID: "ly-chord-2", Dur: "2", Dots: 1, Notes: []*Note{
		{ID: "ly-note-3", Pname: "e", Oct: 4, AccidGes: "f"},
		{ID: "ly-note-4", Pname: "g", Oct: 4, Accid: &Accid{Accid: "n", Func: "cautionary"}},
	}})
	layer.Append(&Rest{ID: "ly-rest-5", Dur: "8", Ploc: "a", Oloc: 3})

	measure := &Measure{
		N:      1,
		Staves: []*Staff{{N: 1, Layers: []*Layer{layer}}},
		Controls: []Control{
			&Slur{ControlEvent{ID: "ly-slur-6", StartID: Ref("ly-note-1"), EndID: Ref("ly-chord-2"), Staff: 1}},
			&Fermata{ControlEvent: ControlEvent{ID: "ly-ornam-7", StartID: Ref("ly-chord-2"), Staff: 1, Label: "lilypond:fermata,longfermata"}, Shape: "square"},
			&Fb{ControlEvent: ControlEvent{ID: "ly-fb-8", Staff: 1, Tstamp: "1"}, Figures: []string{"6", "4"}},
		},
	}

	return &MEI{
		Title: "Sample",
		Score: &Score{
			ScoreDef: &ScoreDef{StaffGrp: &StaffGrp{StaffDefs: []*StaffDef{
				{N: 1, ClefShape: "G", ClefLine: 2, KeySig: "1f", MeterCount: "3", MeterUnit: 4},
			}}},
			Sections: []*Section{{Measures: []*Measure{measure}}},
		},
	}
}

func TestDocumentStructure(t *testing.T) {
	doc := sampleDocument().Document()
	root := doc.Root
	if root.Name != "mei" {
		t.Fatalf("root = %q, want mei", root.Name)
	}
	if got := root.GetAttributeValue("meiversion"); got != Version {
		t.Errorf("meiversion = %q, want %q", got, Version)
	}

	counts := map[string]int{
		"title":      1,
		"staffDef":   1,
		"measure":    1,
		"note":       3,
		"chord":      1,
		"rest":       1,
		"accid":      1,
		"slur":       1,
		"fermata":    1,
		"f":          2,
		"tupletSpan": 0,
	}
	for name, want := range counts {
		if got := len(root.FindByName(name)); got != want {
			t.Errorf("found %d <%s>, want %d", got, name, want)
		}
	}
}

func TestAttributes(t *testing.T) {
	root := sampleDocument().Document().Root

	tests := []struct {
		element string
		attr    string
		want    string
	}{
		{"note", "xml:id", "ly-note-1"},
		{"note", "oct", "4"},
		{"note", "tie", "i"},
		{"chord", "dots", "1"},
		{"rest", "ploc", "a"},
		{"rest", "oloc", "3"},
		{"slur", "startid", "#ly-note-1"},
		{"slur", "endid", "#ly-chord-2"},
		{"slur", "staff", "1"},
		{"fermata", "shape", "square"},
		{"fermata", "label", "lilypond:fermata,longfermata"},
		{"fb", "tstamp", "1"},
		{"staffDef", "lines", "5"},
		{"staffDef", "keysig", "1f"},
		{"accid", "func", "cautionary"},
	}

	for _, tt := range tests {
		t.Run(tt.element+"@"+tt.attr, func(t *testing.T) {
			n := root.FindOneByName(tt.element)
			if n == nil {
				t.Fatalf("<%s> not found", tt.element)
			}
			if got := n.GetAttributeValue(tt.attr); got != tt.want {
				t.Errorf("<%s %s> = %q, want %q", tt.element, tt.attr, got, tt.want)
			}
		})
	}
}

func TestOmittedAttributes(t *testing.T) {
	root := sampleDocument().Document().Root
	slur := root.FindOneByName("slur")
	if slur.GetAttribute("label") != nil {
		t.Error("slur without label should not carry @label")
	}
	note := root.FindOneByName("note")
	if note.GetAttribute("dots") != nil {
		t.Error("undotted note should not carry @dots")
	}
}

func TestMarshalWellFormed(t *testing.T) {
	data := Marshal(sampleDocument())
	dec := xml.NewDecoder(bytes.NewReader(data))
	elements := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("output is not well-formed XML: %v\n%s", err, data)
		}
		if _, ok := tok.(xml.StartElement); ok {
			elements++
		}
	}
	if elements < 20 {
		t.Errorf("decoded %d elements, want at least 20", elements)
	}
}

func TestLayerPop(t *testing.T) {
	l := &Layer{}
	if l.Pop() != nil {
		t.Error("Pop() on empty layer should return nil")
	}
	n := &Note{ID: "a"}
	l.Append(n)
	if got := l.Pop(); got != n {
		t.Errorf("Pop() = %v, want %v", got, n)
	}
	if len(l.Children) != 0 {
		t.Errorf("layer has %d children after Pop, want 0", len(l.Children))
	}
}
