package lilypond

import (
	"testing"
)

func TestResolveRelative(t *testing.T) {
	tests := []struct {
		name      string
		pitch     Pitch
		refStep   rune
		refOctave int
		want      int
	}{
		{"second up", Pitch{Step: 'd'}, 'c', 0, 0},
		{"fourth up", Pitch{Step: 'f'}, 'c', 0, 0},
		{"third up from d", Pitch{Step: 'f'}, 'd', 0, 0},
		{"fifth up goes down", Pitch{Step: 'g'}, 'c', 0, -1},
		{"seventh up goes down", Pitch{Step: 'b'}, 'c', 0, -1},
		{"c above b", Pitch{Step: 'c'}, 'b', 0, 1},
		{"marks add octaves", Pitch{Step: 'e', Octave: 1}, 'c', 1, 2},
		{"comma subtracts", Pitch{Step: 'a', Octave: -1}, 'c', 1, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.pitch.ResolveRelative(tt.refStep, tt.refOctave)
			if got.Octave != tt.want {
				t.Errorf("ResolveRelative(%c, %d) octave = %d, want %d", tt.refStep, tt.refOctave, got.Octave, tt.want)
			}
			if got.Step != tt.pitch.Step {
				t.Errorf("ResolveRelative changed step to %c", got.Step)
			}
		})
	}
}

func TestRelativeMarksInvertsResolve(t *testing.T) {
	for _, step := range "cdefgab" {
		for octave := -2; octave <= 3; octave++ {
			p := Pitch{Step: step, Octave: octave}
			marks := p.RelativeMarks('e', 1)
			back := Pitch{Step: step, Octave: marks}.ResolveRelative('e', 1)
			if back.Octave != octave {
				t.Errorf("%c octave %d: marks %d resolve to %d", step, octave, marks, back.Octave)
			}
		}
	}
}

func TestTranspose(t *testing.T) {
	c := Pitch{Step: 'c'}
	d := Pitch{Step: 'd'}
	es := Pitch{Step: 'e', Alter: -1}

	tests := []struct {
		name     string
		pitch    Pitch
		from, to Pitch
		want     string
	}{
		{"e up a tone", Pitch{Step: 'e'}, c, d, "fis"},
		{"bes crosses octave", Pitch{Step: 'b', Alter: -1}, c, d, "c'"},
		{"minor third", c, c, es, "es"},
		{"minor third from a", Pitch{Step: 'a', Octave: 1}, c, es, "c''"},
		{"down a tone", Pitch{Step: 'c', Octave: 1}, d, c, "bes"},
		{"quarter tone", Pitch{Step: 'g', Alter: 0.5}, c, d, "aih"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.pitch.Transpose(tt.from, tt.to).String()
			if got != tt.want {
				t.Errorf("%s.Transpose(%s, %s) = %s, want %s", tt.pitch, tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestUntranspose(t *testing.T) {
	from := Pitch{Step: 'c'}
	to := Pitch{Step: 'a', Alter: -1, Octave: -1}
	for _, step := range "cdefgab" {
		for _, alter := range []float64{-1, 0, 1} {
			p := Pitch{Step: step, Alter: alter, Octave: 1}
			back := p.Transpose(from, to).Untranspose(from, to)
			if back.String() != p.String() {
				t.Errorf("Untranspose(Transpose(%s)) = %s", p, back)
			}
		}
	}
}

func TestParseNoteName(t *testing.T) {
	tests := []struct {
		name  string
		step  rune
		alter float64
		ok    bool
	}{
		{"c", 'c', 0, true},
		{"cis", 'c', 1, true},
		{"bes", 'b', -1, true},
		{"es", 'e', -1, true},
		{"as", 'a', -1, true},
		{"ases", 'a', -2, true},
		{"fisis", 'f', 2, true},
		{"geh", 'g', -0.5, true},
		{"cs", 0, 0, false},
		{"x", 0, 0, false},
		{"", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step, alter, ok := ParseNoteName(tt.name)
			if ok != tt.ok || step != tt.step || alter != tt.alter {
				t.Errorf("ParseNoteName(%q) = %c, %v, %v, want %c, %v, %v", tt.name, step, alter, ok, tt.step, tt.alter, tt.ok)
			}
		})
	}
}

func TestPitchString(t *testing.T) {
	check := 1
	tests := []struct {
		pitch Pitch
		want  string
	}{
		{Pitch{Step: 'f', Alter: 1, Octave: 2}, "fis''"},
		{Pitch{Step: 'e', Alter: -1, Octave: -1}, "es,"},
		{Pitch{Step: 'b', Alter: -1, ForceAccidental: true}, "bes!"},
		{Pitch{Step: 'c', Cautionary: true, Octave: 1, OctaveCheck: &check}, "c'?='"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.pitch.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAbsoluteOctave(t *testing.T) {
	if got := (Pitch{Step: 'c', Octave: 1}).AbsoluteOctave(); got != 4 {
		t.Errorf("c' AbsoluteOctave() = %d, want 4", got)
	}
	if got := (Pitch{Step: 'a', Octave: -1}).AbsoluteOctave(); got != 2 {
		t.Errorf("a, AbsoluteOctave() = %d, want 2", got)
	}
}
