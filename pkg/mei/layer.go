package mei

import (
	"strconv"

	xmldom "github.com/subchen/go-xmldom"
)

// Identified is an element carrying an xml:id that control events can
// point at.
type Identified interface {
	Element
	XMLID() string
}

// Note is <note>. A note without Pname is unpitched (drum notation).
type Note struct {
	ID       string
	Pname    string
	Oct      int
	Dur      string // "4", "breve", "long"; empty when not written
	Dots     int
	AccidGes string
	Accid    *Accid // written accidental, for forced and cautionary ones
	Grace    string // "acc" or "unacc"
	Tie      string // "i", "m" or "t"
	Label    string
}

// Accid is a written <accid> child of a note.
type Accid struct {
	Accid string
	Func  string
}

// Chord is <chord>.
type Chord struct {
	ID    string
	Dur   string
	Dots  int
	Grace string
	Tie   string
	Label string
	Notes []*Note
}

// Rest is <rest>. Pitched rests carry their position in Ploc/Oloc.
type Rest struct {
	ID    string
	Dur   string
	Dots  int
	Ploc  string
	Oloc  int
	Label string
}

// MRest is <mRest>.
type MRest struct {
	ID    string
	Label string
}

// Space is <space>, an invisible rest.
type Space struct {
	ID    string
	Dur   string
	Dots  int
	Label string
}

// BTrem is <bTrem>, a single-note tremolo wrapping a note or chord.
type BTrem struct {
	ID    string
	Num   int // slash count, 0 for unmeasured
	Label string
	Child Element
}

// Beam is <beam>.
type Beam struct {
	ID       string
	Label    string
	Children []Element
}

func (n *Note) XMLID() string  { return n.ID }
func (c *Chord) XMLID() string { return c.ID }
func (r *Rest) XMLID() string  { return r.ID }
func (r *MRest) XMLID() string { return r.ID }
func (s *Space) XMLID() string { return s.ID }
func (b *BTrem) XMLID() string { return b.ID }
func (b *Beam) XMLID() string  { return b.ID }

func setID(n *xmldom.Node, id string) {
	setAttr(n, "xml:id", id)
}

func setDuration(n *xmldom.Node, dur string, dots int) {
	setAttr(n, "dur", dur)
	setInt(n, "dots", dots)
}

func (n *Note) Gen(parent *xmldom.Node) *xmldom.Node {
	x := parent.CreateNode("note")
	setID(x, n.ID)
	if n.Pname != "" {
		x.SetAttributeValue("pname", n.Pname)
		x.SetAttributeValue("oct", strconv.Itoa(n.Oct))
	}
	setDuration(x, n.Dur, n.Dots)
	setAttr(x, "accid.ges", n.AccidGes)
	setAttr(x, "grace", n.Grace)
	setAttr(x, "tie", n.Tie)
	setAttr(x, "label", n.Label)
	if n.Accid != nil {
		a := x.CreateNode("accid")
		setAttr(a, "accid", n.Accid.Accid)
		setAttr(a, "func", n.Accid.Func)
	}
	return x
}

func (c *Chord) Gen(parent *xmldom.Node) *xmldom.Node {
	x := parent.CreateNode("chord")
	setID(x, c.ID)
	setDuration(x, c.Dur, c.Dots)
	setAttr(x, "grace", c.Grace)
	setAttr(x, "tie", c.Tie)
	setAttr(x, "label", c.Label)
	for _, n := range c.Notes {
		n.Gen(x)
	}
	return x
}

func (r *Rest) Gen(parent *xmldom.Node) *xmldom.Node {
	x := parent.CreateNode("rest")
	setID(x, r.ID)
	setDuration(x, r.Dur, r.Dots)
	if r.Ploc != "" {
		x.SetAttributeValue("ploc", r.Ploc)
		x.SetAttributeValue("oloc", strconv.Itoa(r.Oloc))
	}
	setAttr(x, "label", r.Label)
	return x
}

func (r *MRest) Gen(parent *xmldom.Node) *xmldom.Node {
	x := parent.CreateNode("mRest")
	setID(x, r.ID)
	setAttr(x, "label", r.Label)
	return x
}

func (s *Space) Gen(parent *xmldom.Node) *xmldom.Node {
	x := parent.CreateNode("space")
	setID(x, s.ID)
	setDuration(x, s.Dur, s.Dots)
	setAttr(x, "label", s.Label)
	return x
}

func (b *BTrem) Gen(parent *xmldom.Node) *xmldom.Node {
	x := parent.CreateNode("bTrem")
	setID(x, b.ID)
	setInt(x, "num", b.Num)
	setAttr(x, "label", b.Label)
	if b.Child != nil {
		b.Child.Gen(x)
	}
	return x
}

func (b *Beam) Gen(parent *xmldom.Node) *xmldom.Node {
	x := parent.CreateNode("beam")
	setID(x, b.ID)
	setAttr(x, "label", b.Label)
	for _, c := range b.Children {
		c.Gen(x)
	}
	return x
}
