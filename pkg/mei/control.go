package mei

import (
	"strconv"

	xmldom "github.com/subchen/go-xmldom"
)

// ControlEvent holds the attributes shared by every control element. Anchor
// references are fragment URIs such as "#ly-note-3".
type ControlEvent struct {
	ID      string
	StartID string
	EndID   string
	Staff   int
	Tstamp  string // beat position, for events without a start anchor
	Label   string
}

// Control is a control element placed in a measure.
type Control interface {
	Element
	Common() *ControlEvent
}

// Common returns the shared control-event attributes.
func (c *ControlEvent) Common() *ControlEvent { return c }

// Ref turns an xml:id into a fragment reference.
func Ref(id string) string {
	return "#" + id
}

func (c *ControlEvent) gen(parent *xmldom.Node, name string) *xmldom.Node {
	x := parent.CreateNode(name)
	setID(x, c.ID)
	setAttr(x, "startid", c.StartID)
	setAttr(x, "endid", c.EndID)
	setInt(x, "staff", c.Staff)
	setAttr(x, "tstamp", c.Tstamp)
	setAttr(x, "label", c.Label)
	return x
}

type (
	// Slur is <slur>; phrasing slurs are labelled.
	Slur struct{ ControlEvent }
	// Dynam is <dynam> with the dynamic name as text.
	Dynam struct {
		ControlEvent
		Text string
	}
	// Hairpin is <hairpin>, form "cres" or "dim".
	Hairpin struct {
		ControlEvent
		Form string
	}
	// TupletSpan is <tupletSpan>.
	TupletSpan struct {
		ControlEvent
		Num     int
		NumBase int
	}
	// Dir is <dir>, a generic textual directive.
	Dir struct {
		ControlEvent
		Text string
	}
	// Trill is <trill>.
	Trill struct{ ControlEvent }
	// Mordent is <mordent>, form "upper" or "lower".
	Mordent struct {
		ControlEvent
		Form string
		Long bool
	}
	// Turn is <turn>, form "upper" or "lower".
	Turn struct {
		ControlEvent
		Form string
	}
	// Fermata is <fermata>; Shape is "angular", "square" or empty.
	Fermata struct {
		ControlEvent
		Shape string
	}
	// Ornam is <ornam>, a generic ornament with its name as text.
	Ornam struct {
		ControlEvent
		Text string
	}
	// Tempo is <tempo> with optional text and metronome mark.
	Tempo struct {
		ControlEvent
		Text   string
		MM     string
		MMUnit string
		MMDots int
	}
	// Harm is <harm>, a chord symbol.
	Harm struct {
		ControlEvent
		Text string
	}
	// Fb is <fb>, figured bass with one <f> per figure.
	Fb struct {
		ControlEvent
		Figures []string
	}
)

func (s *Slur) Gen(parent *xmldom.Node) *xmldom.Node {
	return s.gen(parent, "slur")
}

func (d *Dynam) Gen(parent *xmldom.Node) *xmldom.Node {
	x := d.gen(parent, "dynam")
	x.Text = d.Text
	return x
}

func (h *Hairpin) Gen(parent *xmldom.Node) *xmldom.Node {
	x := h.gen(parent, "hairpin")
	setAttr(x, "form", h.Form)
	return x
}

func (t *TupletSpan) Gen(parent *xmldom.Node) *xmldom.Node {
	x := t.gen(parent, "tupletSpan")
	setInt(x, "num", t.Num)
	setInt(x, "numbase", t.NumBase)
	return x
}

func (d *Dir) Gen(parent *xmldom.Node) *xmldom.Node {
	x := d.gen(parent, "dir")
	x.Text = d.Text
	return x
}

func (t *Trill) Gen(parent *xmldom.Node) *xmldom.Node {
	return t.gen(parent, "trill")
}

func (m *Mordent) Gen(parent *xmldom.Node) *xmldom.Node {
	x := m.gen(parent, "mordent")
	setAttr(x, "form", m.Form)
	if m.Long {
		x.SetAttributeValue("long", "true")
	}
	return x
}

func (t *Turn) Gen(parent *xmldom.Node) *xmldom.Node {
	x := t.gen(parent, "turn")
	setAttr(x, "form", t.Form)
	return x
}

func (f *Fermata) Gen(parent *xmldom.Node) *xmldom.Node {
	x := f.gen(parent, "fermata")
	setAttr(x, "shape", f.Shape)
	return x
}

func (o *Ornam) Gen(parent *xmldom.Node) *xmldom.Node {
	x := o.gen(parent, "ornam")
	x.Text = o.Text
	return x
}

func (t *Tempo) Gen(parent *xmldom.Node) *xmldom.Node {
	x := t.gen(parent, "tempo")
	setAttr(x, "mm", t.MM)
	setAttr(x, "mm.unit", t.MMUnit)
	if t.MMDots > 0 {
		x.SetAttributeValue("mm.dots", strconv.Itoa(t.MMDots))
	}
	x.Text = t.Text
	return x
}

func (h *Harm) Gen(parent *xmldom.Node) *xmldom.Node {
	x := h.gen(parent, "harm")
	x.Text = h.Text
	return x
}

func (f *Fb) Gen(parent *xmldom.Node) *xmldom.Node {
	x := f.gen(parent, "fb")
	for _, fig := range f.Figures {
		x.CreateNode("f").Text = fig
	}
	return x
}
