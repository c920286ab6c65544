package converter

import (
	"math"
	"strconv"
	"strings"

	"github.com/james-see/ly2mei/pkg/lilypond"
	"github.com/james-see/ly2mei/pkg/mei"
)

type clefInfo struct {
	shape string
	line  int
}

var clefs = map[string]clefInfo{
	"treble":        {"G", 2},
	"violin":        {"G", 2},
	"G":             {"G", 2},
	"G2":            {"G", 2},
	"french":        {"G", 1},
	"GG":            {"GG", 2},
	"tenorG":        {"G", 2},
	"soprano":       {"C", 1},
	"mezzosoprano":  {"C", 2},
	"alto":          {"C", 3},
	"C":             {"C", 3},
	"tenor":         {"C", 4},
	"baritone":      {"C", 5},
	"varbaritone":   {"F", 3},
	"bass":          {"F", 4},
	"F":             {"F", 4},
	"subbass":       {"F", 5},
	"percussion":    {"perc", 3},
	"varpercussion": {"perc", 3},
	"tab":           {"TAB", 5},
	"varC":          {"C", 3},
	"altovarC":      {"C", 3},
	"tenorvarC":     {"C", 4},
	"baritonevarC":  {"C", 5},
}

// applyClef sets the clef attributes of def. Unknown clefs fall back to
// treble; an _8 or ^15 style suffix becomes @clef.dis.
func applyClef(def *mei.StaffDef, name string) {
	base, dis, place := name, 0, ""
	for _, suffix := range []struct {
		text  string
		dis   int
		place string
	}{{"_8", 8, "below"}, {"^8", 8, "above"}, {"_15", 15, "below"}, {"^15", 15, "above"}} {
		if strings.HasSuffix(name, suffix.text) {
			base, dis, place = strings.TrimSuffix(name, suffix.text), suffix.dis, suffix.place
			break
		}
	}
	info, ok := clefs[base]
	if !ok {
		info = clefs["treble"]
	}
	if base == "tenorG" && dis == 0 {
		dis, place = 8, "below"
	}
	def.ClefShape = info.shape
	def.ClefLine = info.line
	def.ClefDis = dis
	def.ClefDisPlace = place
}

var modeFifths = map[string]int{
	"major": 0, "ionian": 0,
	"minor": -3, "aeolian": -3,
	"dorian":     -2,
	"phrygian":   -4,
	"lydian":     1,
	"mixolydian": -1,
	"locrian":    -5,
}

var stepFifths = map[rune]int{'c': 0, 'd': 2, 'e': 4, 'f': -1, 'g': 1, 'a': 3, 'b': 5}

// KeyFifths returns the position of a key on the circle of fifths:
// positive for sharps, negative for flats.
func KeyFifths(tonic lilypond.Pitch, mode string) int {
	return stepFifths[tonic.Step] + int(math.Round(tonic.Alter))*7 + modeFifths[mode]
}

// meiKeySig renders fifths as @keysig ("0", "3s", "2f").
func meiKeySig(fifths int) string {
	switch {
	case fifths > 0:
		return strconv.Itoa(fifths) + "s"
	case fifths < 0:
		return strconv.Itoa(-fifths) + "f"
	}
	return "0"
}

// applySignatures sets the first clef, key and meter of the stream on def
// and returns a label listing every signature change with the index of the
// note it precedes.
func (b *Builder) applySignatures(events []Event, def *mei.StaffDef) string {
	var (
		seenClef, seenKey, seenTime bool
		index                       int
		l                           = b.Label(CatEvents)
	)
	at := func(s string) string { return s + "@" + strconv.Itoa(index) }

	for _, e := range events {
		switch ev := e.(type) {
		case Clef:
			l = l.With("clef", at(ev.Name))
			if !seenClef {
				applyClef(def, ev.Name)
				seenClef = true
			}
		case KeySignature:
			alter := strconv.FormatFloat(ev.Pitch.Alter, 'f', -1, 64)
			l = l.With("key", at(string(ev.Pitch.Step)+"."+alter+"."+ev.Mode))
			if !seenKey {
				def.KeySig = meiKeySig(KeyFifths(ev.Pitch, ev.Mode))
				def.KeyMode = ev.Mode
				seenKey = true
			}
		case TimeSignature:
			count := make([]string, len(ev.Numerators))
			for i, n := range ev.Numerators {
				count[i] = strconv.Itoa(n)
			}
			meter := strings.Join(count, "+")
			l = l.With("time", at(meter+"/"+strconv.Itoa(ev.Denominator)))
			if !seenTime {
				def.MeterCount = meter
				def.MeterUnit = ev.Denominator
				seenTime = true
			}
		case AutoBeamOn:
			l.Fields = append(l.Fields, Field{Value: at("autobeamon")})
		case AutoBeamOff:
			l.Fields = append(l.Fields, Field{Value: at("autobeamoff")})
		case Note, Chord, ChordRepetition, Rest, PitchedRest, MultiMeasureRest:
			index++
		}
	}
	if len(l.Fields) == 0 {
		return ""
	}
	return l.String()
}
