package converter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/james-see/ly2mei/pkg/lilypond"
)

// DefaultLabelNamespace is the prefix of every round-trip label.
const DefaultLabelNamespace = "lilypond"

// Label categories.
const (
	CatTuplet          = "tuplet"
	CatTremolo         = "tremolo"
	CatTrill           = "trill"
	CatMordent         = "mordent"
	CatTurn            = "turn"
	CatOrnam           = "ornam"
	CatFermata         = "fermata"
	CatChordMode       = "chord-mode"
	CatMRest           = "mrest"
	CatPitchedRest     = "pitched-rest"
	CatRepeat          = "repeat"
	CatEnding          = "ending"
	CatMark            = "mark"
	CatTextMark        = "textmark"
	CatTempo           = "tempo"
	CatArtic           = "artic"
	CatFing            = "fing"
	CatString          = "string"
	CatGrace           = "grace"
	CatPhrase          = "phrase"
	CatDrum            = "drum"
	CatFigure          = "figure"
	CatProp            = "prop"
	CatFunc            = "func"
	CatScheme          = "scheme"
	CatText            = "text"
	CatEvents          = "events"
	CatContextChange   = "context-change"
	CatChordRepetition = "chord-repetition"
)

// ErrMalformedLabel is returned by ParseLabel.
var ErrMalformedLabel = errors.New("malformed label")

// Field is one comma-separated part of a label. An empty Key makes the
// field positional.
type Field struct {
	Key   string
	Value string
}

// Label records source semantics that have no native MEI attribute.
// Its text form is ns:category[,key=value|,value]*.
type Label struct {
	Namespace string
	Category  string
	Fields    []Field
}

// NewLabel returns a label in the default namespace with positional values.
func NewLabel(category string, values ...string) Label {
	l := Label{Namespace: DefaultLabelNamespace, Category: category}
	for _, v := range values {
		l.Fields = append(l.Fields, Field{Value: v})
	}
	return l
}

// With returns a copy with a key=value field appended.
func (l Label) With(key, value string) Label {
	l.Fields = append(append([]Field(nil), l.Fields...), Field{Key: key, Value: value})
	return l
}

// WithDirection appends dir=up or dir=down; neutral adds nothing.
func (l Label) WithDirection(d lilypond.Direction) Label {
	if d == lilypond.Neutral {
		return l
	}
	return l.With("dir", d.String())
}

// Get returns the value of the first field named key.
func (l Label) Get(key string) (string, bool) {
	for _, f := range l.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Positional returns the values of the fields without a key.
func (l Label) Positional() []string {
	var out []string
	for _, f := range l.Fields {
		if f.Key == "" {
			out = append(out, f.Value)
		}
	}
	return out
}

// String encodes the label, escaping every key and value.
func (l Label) String() string {
	var b strings.Builder
	ns := l.Namespace
	if ns == "" {
		ns = DefaultLabelNamespace
	}
	b.WriteString(EscapeValue(ns))
	b.WriteByte(':')
	b.WriteString(EscapeValue(l.Category))
	for _, f := range l.Fields {
		b.WriteByte(',')
		if f.Key != "" {
			b.WriteString(EscapeValue(f.Key))
			b.WriteByte('=')
		}
		b.WriteString(EscapeValue(f.Value))
	}
	return b.String()
}

// ParseLabel decodes one label produced by Label.String.
func ParseLabel(s string) (Label, error) {
	head, rest, _ := strings.Cut(s, ",")
	ns, cat, ok := strings.Cut(head, ":")
	if !ok || ns == "" || cat == "" {
		return Label{}, fmt.Errorf("%w: %q", ErrMalformedLabel, s)
	}
	l := Label{Namespace: UnescapeValue(ns), Category: UnescapeValue(cat)}
	if !strings.Contains(s, ",") {
		return l, nil
	}
	for _, part := range strings.Split(rest, ",") {
		if key, value, ok := strings.Cut(part, "="); ok {
			l.Fields = append(l.Fields, Field{Key: UnescapeValue(key), Value: UnescapeValue(value)})
			continue
		}
		l.Fields = append(l.Fields, Field{Value: UnescapeValue(part)})
	}
	return l, nil
}

// JoinLabels combines several encoded labels for one element, skipping
// empty ones.
func JoinLabels(labels ...string) string {
	var parts []string
	for _, l := range labels {
		if l != "" {
			parts = append(parts, l)
		}
	}
	return strings.Join(parts, "|")
}

// SplitLabels is the inverse of JoinLabels.
func SplitLabels(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "|")
}

const escapeHex = "0123456789ABCDEF"

func needsEscape(c byte) bool {
	switch c {
	case '%', ',', '=', ':', '|':
		return true
	}
	return false
}

// EscapeValue percent-encodes the characters that delimit label fields.
func EscapeValue(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if needsEscape(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if needsEscape(c) {
			b.WriteByte('%')
			b.WriteByte(escapeHex[c>>4])
			b.WriteByte(escapeHex[c&15])
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// UnescapeValue reverses EscapeValue. Invalid escapes are kept verbatim.
func UnescapeValue(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, okHi := unhex(s[i+1])
			lo, okLo := unhex(s[i+2])
			if okHi && okLo {
				b.WriteByte(hi<<4 | lo)
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
