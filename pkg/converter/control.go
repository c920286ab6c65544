package converter

import (
	"math/bits"
	"strconv"
	"strings"

	"github.com/james-see/ly2mei/pkg/lilypond"
	"github.com/james-see/ly2mei/pkg/mei"
)

// Builder creates MEI control events and labels. It shares one IDGen with
// the leaf converters of the same conversion.
type Builder struct {
	ids *IDGen
	ns  string
}

// NewBuilder returns a builder writing labels in namespace (the default
// when empty).
func NewBuilder(ids *IDGen, namespace string) *Builder {
	if namespace == "" {
		namespace = DefaultLabelNamespace
	}
	return &Builder{ids: ids, ns: namespace}
}

// IDs returns the shared id generator.
func (b *Builder) IDs() *IDGen {
	return b.ids
}

// Label returns a label in the builder's namespace.
func (b *Builder) Label(category string, values ...string) Label {
	l := NewLabel(category, values...)
	l.Namespace = b.ns
	return l
}

func (b *Builder) control(kind, startID string, staff int) mei.ControlEvent {
	c := mei.ControlEvent{ID: b.ids.Next(kind), Staff: staff}
	if startID != "" {
		c.StartID = mei.Ref(startID)
	}
	return c
}

func (b *Builder) spanner(kind, startID, endID string, staff int) mei.ControlEvent {
	c := b.control(kind, startID, staff)
	if endID != "" {
		c.EndID = mei.Ref(endID)
	}
	return c
}

var genericOrnaments = map[string]bool{
	"prallprall": true, "prallmordent": true, "upprall": true,
	"downprall": true, "upmordent": true, "downmordent": true,
	"pralldown": true, "prallup": true, "lineprall": true,
}

var fermataShapes = map[string]string{
	"fermata":         "",
	"shortfermata":    "angular",
	"longfermata":     "square",
	"verylongfermata": "square",
}

// Ornament maps a named articulation to its dedicated MEI element. It
// returns nil for names without one; callers fall back to ArticDir.
func (b *Builder) Ornament(name string, dir lilypond.Direction, startID string, staff int) mei.Control {
	switch name {
	case "trill":
		t := &mei.Trill{ControlEvent: b.control("ornam", startID, staff)}
		if dir != lilypond.Neutral {
			t.Label = b.Label(CatTrill).WithDirection(dir).String()
		}
		return t
	case "mordent", "prall":
		form := "lower"
		if name == "prall" {
			form = "upper"
		}
		m := &mei.Mordent{ControlEvent: b.control("ornam", startID, staff), Form: form}
		if dir != lilypond.Neutral {
			m.Label = b.Label(CatMordent).WithDirection(dir).String()
		}
		return m
	case "turn", "reverseturn":
		form := "upper"
		if name == "reverseturn" {
			form = "lower"
		}
		t := &mei.Turn{ControlEvent: b.control("ornam", startID, staff), Form: form}
		if dir != lilypond.Neutral {
			t.Label = b.Label(CatTurn).WithDirection(dir).String()
		}
		return t
	}

	if shape, ok := fermataShapes[name]; ok {
		f := &mei.Fermata{ControlEvent: b.control("ornam", startID, staff), Shape: shape}
		l := b.Label(CatFermata)
		if name != "fermata" {
			l = b.Label(CatFermata, name)
		}
		if name != "fermata" || dir != lilypond.Neutral {
			f.Label = l.WithDirection(dir).String()
		}
		return f
	}

	if genericOrnaments[name] {
		return &mei.Ornam{
			ControlEvent: b.labelled(b.control("ornam", startID, staff), b.Label(CatOrnam, name).WithDirection(dir)),
			Text:         name,
		}
	}
	return nil
}

func (b *Builder) labelled(c mei.ControlEvent, l Label) mei.ControlEvent {
	c.Label = l.String()
	return c
}

// TremoloSlashes is the number of beams drawn through a stem for a
// tremolo of subdivision v: 8 gives 1, 16 gives 2, 32 gives 3. An
// unmeasured tremolo (v == 0) has none.
func TremoloSlashes(v int) int {
	if v <= 0 {
		return 0
	}
	n := bits.TrailingZeros(uint(v)) - 2
	if n < 0 {
		return 0
	}
	return n
}

// WrapLastInBTrem moves the last note or chord of layer into a <bTrem>.
// Any other last child is left where it was and no id is used.
func (b *Builder) WrapLastInBTrem(layer *mei.Layer, value int) {
	last := layer.Pop()
	switch last.(type) {
	case *mei.Note, *mei.Chord:
	default:
		if last != nil {
			layer.Append(last)
		}
		return
	}
	layer.Append(&mei.BTrem{
		ID:    b.ids.Next("btrem"),
		Num:   TremoloSlashes(value),
		Label: b.Label(CatTremolo, strconv.Itoa(value)).String(),
		Child: last,
	})
}

// Slur links two notes; phrasing slurs carry a phrase label.
func (b *Builder) Slur(startID, endID string, staff int, phrase bool) *mei.Slur {
	s := &mei.Slur{ControlEvent: b.spanner("slur", startID, endID, staff)}
	if phrase {
		s.Label = b.Label(CatPhrase).String()
	}
	return s
}

// Dynam is an absolute dynamic mark.
func (b *Builder) Dynam(name, startID string, staff int) *mei.Dynam {
	return &mei.Dynam{ControlEvent: b.control("dynam", startID, staff), Text: name}
}

// Hairpin is a crescendo ("cres") or diminuendo ("dim") wedge.
func (b *Builder) Hairpin(startID, endID string, staff int, form string) *mei.Hairpin {
	return &mei.Hairpin{ControlEvent: b.spanner("hairpin", startID, endID, staff), Form: form}
}

// TupletSpan covers a tuplet group. The label keeps the written ratio and
// the optional span duration.
func (b *Builder) TupletSpan(startID, endID string, staff int, t TupletStart) *mei.TupletSpan {
	l := b.Label(CatTuplet, strconv.Itoa(t.Numerator)+"/"+strconv.Itoa(t.Denominator))
	if t.Span != nil {
		l = l.With("span", t.Span.String())
	}
	return &mei.TupletSpan{
		ControlEvent: b.labelled(b.spanner("tuplet", startID, endID, staff), l),
		Num:          t.Numerator,
		NumBase:      t.Denominator,
	}
}

// RepeatDir marks the extent of a repeat body.
func (b *Builder) RepeatDir(startID, endID string, staff int, r RepeatStart) *mei.Dir {
	l := b.Label(CatRepeat, string(r.Type), strconv.Itoa(r.Count))
	if r.Alternatives > 0 {
		l = l.With("alts", strconv.Itoa(r.Alternatives))
	}
	return &mei.Dir{
		ControlEvent: b.labelled(b.spanner("repeat", startID, endID, staff), l),
		Text:         string(r.Type) + " " + strconv.Itoa(r.Count),
	}
}

// EndingDir marks the extent of an alternative ending.
func (b *Builder) EndingDir(startID, endID string, staff, index int) *mei.Dir {
	return &mei.Dir{
		ControlEvent: b.labelled(b.spanner("repeat", startID, endID, staff), b.Label(CatEnding, strconv.Itoa(index))),
		Text:         strconv.Itoa(index + 1),
	}
}

// Tempo converts \tempo. The metronome mark becomes @mm and @mm.unit, the
// full source text is kept in the label.
func (b *Builder) Tempo(t Tempo, startID string, staff int) *mei.Tempo {
	out := &mei.Tempo{
		ControlEvent: b.labelled(b.control("tempo", startID, staff), b.Label(CatTempo, t.Text)),
		Text:         displayText(t.Value.Text),
	}
	if d := t.Value.Duration; d != nil {
		out.MM = strconv.Itoa(t.Value.BPM)
		out.MMUnit = meiDur(d)
		out.MMDots = d.Dots
	}
	return out
}

// MarkDir converts \mark.
func (b *Builder) MarkDir(text, startID string, staff int) *mei.Dir {
	return b.textDir("mark", CatMark, text, startID, staff)
}

// TextMarkDir converts \textMark.
func (b *Builder) TextMarkDir(text, startID string, staff int) *mei.Dir {
	return b.textDir("mark", CatTextMark, text, startID, staff)
}

// PropertyDir keeps a property operation on the note that follows it.
func (b *Builder) PropertyDir(text, startID string, staff int) *mei.Dir {
	return b.textDir("prop", CatProp, text, startID, staff)
}

// FunctionDir keeps a music function call on the note that follows it.
func (b *Builder) FunctionDir(text, startID string, staff int) *mei.Dir {
	return b.textDir("func", CatFunc, text, startID, staff)
}

// SchemeDir keeps a Scheme expression on the note that follows it.
func (b *Builder) SchemeDir(text, startID string, staff int) *mei.Dir {
	return b.textDir("scm", CatScheme, text, startID, staff)
}

// ContextChangeDir records \change on the note that follows it.
func (b *Builder) ContextChangeDir(cc ContextChange, startID string, staff int) *mei.Dir {
	l := b.Label(CatContextChange).With("type", cc.Type).With("name", cc.Name)
	return &mei.Dir{
		ControlEvent: b.labelled(b.control("dir", startID, staff), l),
		Text:         cc.Type + " " + cc.Name,
	}
}

func (b *Builder) textDir(kind, category, text, startID string, staff int) *mei.Dir {
	return &mei.Dir{
		ControlEvent: b.labelled(b.control(kind, startID, staff), b.Label(category, text)),
		Text:         displayText(text),
	}
}

// ArticDir is the generic directive for articulations without a dedicated
// element.
func (b *Builder) ArticDir(name string, dir lilypond.Direction, startID string, staff int) *mei.Dir {
	return b.scriptDir(CatArtic, name, dir, startID, staff)
}

// FingDir converts a fingering digit.
func (b *Builder) FingDir(digit int, dir lilypond.Direction, startID string, staff int) *mei.Dir {
	return b.scriptDir(CatFing, strconv.Itoa(digit), dir, startID, staff)
}

// StringDir converts a string number.
func (b *Builder) StringDir(number int, dir lilypond.Direction, startID string, staff int) *mei.Dir {
	return b.scriptDir(CatString, strconv.Itoa(number), dir, startID, staff)
}

func (b *Builder) scriptDir(category, value string, dir lilypond.Direction, startID string, staff int) *mei.Dir {
	return &mei.Dir{
		ControlEvent: b.labelled(b.control("artic", startID, staff), b.Label(category, value).WithDirection(dir)),
		Text:         value,
	}
}

// TextScriptDir converts a quoted string or markup attached to a note.
func (b *Builder) TextScriptDir(text string, dir lilypond.Direction, startID string, staff int) *mei.Dir {
	return &mei.Dir{
		ControlEvent: b.labelled(b.control("text", startID, staff), b.Label(CatText, text).WithDirection(dir)),
		Text:         displayText(text),
	}
}

// Harm converts a chord-mode entry. Without a start anchor the chord is
// placed by tstamp.
func (b *Builder) Harm(e ChordModeEntry, startID string, staff int, tstamp string) *mei.Harm {
	c := b.labelled(b.control("harm", startID, staff), b.Label(CatChordMode, e.Text))
	if startID == "" {
		c.Tstamp = tstamp
	}
	return &mei.Harm{ControlEvent: c, Text: chordSymbol(e.Entry)}
}

// Fb converts a figured-bass entry placed by tstamp.
func (b *Builder) Fb(f FigureEvent, staff int, tstamp string) *mei.Fb {
	c := b.labelled(b.control("fb", "", staff), b.Label(CatFigure, f.Text))
	c.Tstamp = tstamp
	return &mei.Fb{ControlEvent: c, Figures: f.Figure.Figures}
}

// chordSymbol renders a readable chord name such as "Cm7/E".
func chordSymbol(e lilypond.ChordModeEntry) string {
	var s strings.Builder
	s.WriteString(pitchSymbol(e.Root))
	s.WriteString(e.Quality)
	if e.Inversion != nil {
		s.WriteString("/" + pitchSymbol(*e.Inversion))
	}
	if e.Bass != nil {
		s.WriteString("/" + pitchSymbol(*e.Bass))
	}
	return s.String()
}

func pitchSymbol(p lilypond.Pitch) string {
	s := strings.ToUpper(string(p.Step))
	switch {
	case p.Alter >= 1:
		s += strings.Repeat("#", int(p.Alter))
	case p.Alter <= -1:
		s += strings.Repeat("b", int(-p.Alter))
	}
	return s
}

// displayText strips the quotes of a LilyPond string; markup stays as
// written.
func displayText(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
		return s[1 : len(s)-1]
	}
	return s
}
