package converter

import (
	"testing"

	"github.com/james-see/ly2mei/pkg/lilypond"
	"github.com/james-see/ly2mei/pkg/mei"
)

func TestApplyClef(t *testing.T) {
	tests := []struct {
		name  string
		shape string
		line  int
		dis   int
		place string
	}{
		{"treble", "G", 2, 0, ""},
		{"bass", "F", 4, 0, ""},
		{"alto", "C", 3, 0, ""},
		{"treble_8", "G", 2, 8, "below"},
		{"bass^15", "F", 4, 15, "above"},
		{"tenorG", "G", 2, 8, "below"},
		{"nonsense", "G", 2, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := &mei.StaffDef{}
			applyClef(def, tt.name)
			if def.ClefShape != tt.shape || def.ClefLine != tt.line || def.ClefDis != tt.dis || def.ClefDisPlace != tt.place {
				t.Errorf("applyClef(%q) = %s%d dis %d %s, want %s%d dis %d %s", tt.name,
					def.ClefShape, def.ClefLine, def.ClefDis, def.ClefDisPlace,
					tt.shape, tt.line, tt.dis, tt.place)
			}
		})
	}
}

func TestKeyFifths(t *testing.T) {
	tests := []struct {
		tonic lilypond.Pitch
		mode  string
		want  int
	}{
		{lilypond.Pitch{Step: 'c'}, "major", 0},
		{lilypond.Pitch{Step: 'd'}, "major", 2},
		{lilypond.Pitch{Step: 'b', Alter: -1}, "major", -2},
		{lilypond.Pitch{Step: 'a'}, "minor", 0},
		{lilypond.Pitch{Step: 'f', Alter: 1}, "minor", 3},
		{lilypond.Pitch{Step: 'd'}, "dorian", 0},
		{lilypond.Pitch{Step: 'e', Alter: -1}, "major", -3},
	}
	for _, tt := range tests {
		if got := KeyFifths(tt.tonic, tt.mode); got != tt.want {
			t.Errorf("KeyFifths(%v, %s) = %d, want %d", tt.tonic, tt.mode, got, tt.want)
		}
	}
}

func TestMEIKeySig(t *testing.T) {
	for fifths, want := range map[int]string{0: "0", 3: "3s", -2: "2f"} {
		if got := meiKeySig(fifths); got != want {
			t.Errorf("meiKeySig(%d) = %q, want %q", fifths, got, want)
		}
	}
}

func TestApplySignatures(t *testing.T) {
	events := mustCollect(t, `{ \clef bass \key d \major \time 3/4 c4 d \autoBeamOff \clef treble e }`)
	def := &mei.StaffDef{}
	label := newTestBuilder().applySignatures(events, def)

	if def.ClefShape != "F" || def.KeySig != "2s" || def.KeyMode != "major" || def.MeterCount != "3" || def.MeterUnit != 4 {
		t.Errorf("staffDef = %+v", def)
	}
	want := "lilypond:events,clef=bass@0,key=d.0.major@0,time=3/4@0,autobeamoff@2,clef=treble@2"
	if label != want {
		t.Errorf("applySignatures() label = %q, want %q", label, want)
	}

	if got := newTestBuilder().applySignatures(mustCollect(t, "{ c d }"), &mei.StaffDef{}); got != "" {
		t.Errorf("label without signatures = %q, want empty", got)
	}
}
