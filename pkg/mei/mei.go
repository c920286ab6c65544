// Package mei holds the MEI element types produced by the converter and
// writes them as XML.
package mei

import (
	"strconv"

	xmldom "github.com/subchen/go-xmldom"
)

const (
	Namespace = "http://www.music-encoding.org/ns/mei"
	Version   = "5.1"
)

// Element is an MEI element that writes itself beneath a parent node.
type Element interface {
	Gen(parent *xmldom.Node) *xmldom.Node
}

// MEI is the document root: header title plus one score.
type MEI struct {
	Title string
	Score *Score
}

// Score is <score> with its scoreDef and sections.
type Score struct {
	ScoreDef *ScoreDef
	Sections []*Section
}

// ScoreDef is <scoreDef> wrapping a single staff group.
type ScoreDef struct {
	StaffGrp *StaffGrp
}

// StaffGrp is <staffGrp>.
type StaffGrp struct {
	StaffDefs []*StaffDef
}

// StaffDef is <staffDef> with the initial clef, key and meter.
type StaffDef struct {
	N            int
	Lines        int
	Label        string
	LabelText    string // instrument name, written as a <label> child
	ClefShape    string
	ClefLine     int
	ClefDis      int
	ClefDisPlace string
	KeySig       string // e.g. "2s", "3f", "0"
	KeyMode      string
	MeterCount   string // "3" or "2+3"
	MeterUnit    int
}

// Section is <section>.
type Section struct {
	Measures []*Measure
}

// Measure is <measure> holding staves and the control events anchored in it.
type Measure struct {
	N        int
	Staves   []*Staff
	Controls []Control
}

// Staff is <staff>.
type Staff struct {
	N      int
	Layers []*Layer
}

// Layer is <layer>; Children are notes, chords, rests, beams and tremolos.
type Layer struct {
	N        int
	Children []Element
}

// Append adds an element to the end of the layer.
func (l *Layer) Append(e Element) {
	l.Children = append(l.Children, e)
}

// Pop removes and returns the last child, or nil when the layer is empty.
func (l *Layer) Pop() Element {
	if len(l.Children) == 0 {
		return nil
	}
	last := l.Children[len(l.Children)-1]
	l.Children = l.Children[:len(l.Children)-1]
	return last
}

// Document builds the XML document tree.
func (m *MEI) Document() *xmldom.Document {
	doc := xmldom.NewDocument("mei")
	root := doc.Root
	root.SetAttributeValue("xmlns", Namespace)
	root.SetAttributeValue("meiversion", Version)

	fileDesc := root.CreateNode("meiHead").CreateNode("fileDesc")
	fileDesc.CreateNode("titleStmt").CreateNode("title").Text = m.Title
	fileDesc.CreateNode("pubStmt")

	mdiv := root.CreateNode("music").CreateNode("body").CreateNode("mdiv")
	if m.Score != nil {
		m.Score.Gen(mdiv)
	}
	return doc
}

// Marshal renders the document as indented XML.
func Marshal(m *MEI) []byte {
	return []byte(m.Document().XMLPretty())
}

func (s *Score) Gen(parent *xmldom.Node) *xmldom.Node {
	n := parent.CreateNode("score")
	if s.ScoreDef != nil {
		s.ScoreDef.Gen(n)
	}
	for _, sec := range s.Sections {
		sec.Gen(n)
	}
	return n
}

func (sd *ScoreDef) Gen(parent *xmldom.Node) *xmldom.Node {
	n := parent.CreateNode("scoreDef")
	if sd.StaffGrp != nil {
		sd.StaffGrp.Gen(n)
	}
	return n
}

func (g *StaffGrp) Gen(parent *xmldom.Node) *xmldom.Node {
	n := parent.CreateNode("staffGrp")
	for _, def := range g.StaffDefs {
		def.Gen(n)
	}
	return n
}

func (d *StaffDef) Gen(parent *xmldom.Node) *xmldom.Node {
	n := parent.CreateNode("staffDef")
	setInt(n, "n", d.N)
	lines := d.Lines
	if lines == 0 {
		lines = 5
	}
	setInt(n, "lines", lines)
	setAttr(n, "clef.shape", d.ClefShape)
	setInt(n, "clef.line", d.ClefLine)
	setInt(n, "clef.dis", d.ClefDis)
	setAttr(n, "clef.dis.place", d.ClefDisPlace)
	setAttr(n, "keysig", d.KeySig)
	setAttr(n, "key.mode", d.KeyMode)
	setAttr(n, "meter.count", d.MeterCount)
	setInt(n, "meter.unit", d.MeterUnit)
	setAttr(n, "label", d.Label)
	if d.LabelText != "" {
		n.CreateNode("label").Text = d.LabelText
	}
	return n
}

func (s *Section) Gen(parent *xmldom.Node) *xmldom.Node {
	n := parent.CreateNode("section")
	for _, m := range s.Measures {
		m.Gen(n)
	}
	return n
}

func (m *Measure) Gen(parent *xmldom.Node) *xmldom.Node {
	n := parent.CreateNode("measure")
	setInt(n, "n", m.N)
	for _, st := range m.Staves {
		st.Gen(n)
	}
	for _, c := range m.Controls {
		c.Gen(n)
	}
	return n
}

func (s *Staff) Gen(parent *xmldom.Node) *xmldom.Node {
	n := parent.CreateNode("staff")
	setInt(n, "n", s.N)
	for _, l := range s.Layers {
		l.Gen(n)
	}
	return n
}

func (l *Layer) Gen(parent *xmldom.Node) *xmldom.Node {
	n := parent.CreateNode("layer")
	setInt(n, "n", l.N)
	for _, c := range l.Children {
		c.Gen(n)
	}
	return n
}

func setAttr(n *xmldom.Node, name, value string) {
	if value != "" {
		n.SetAttributeValue(name, value)
	}
}

func setInt(n *xmldom.Node, name string, value int) {
	if value != 0 {
		n.SetAttributeValue(name, strconv.Itoa(value))
	}
}
