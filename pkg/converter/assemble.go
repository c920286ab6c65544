package converter

import (
	"github.com/james-see/ly2mei/pkg/lilypond"
	"github.com/james-see/ly2mei/pkg/mei"
)

var staffContexts = map[string]int{
	"Staff":         5,
	"DrumStaff":     5,
	"RhythmicStaff": 1,
	"TabStaff":      6,
}

var groupContexts = map[string]bool{
	"StaffGroup": true,
	"PianoStaff": true,
	"GrandStaff": true,
	"ChoirStaff": true,
}

// staffInfo is one staff found in the music tree.
type staffInfo struct {
	n      int
	typ    string
	name   string
	voices []lilypond.Music
}

// scoreLayout is the staff structure of a score.
type scoreLayout struct {
	staves      []*staffInfo
	chordNames  []attached
	figuredBass []attached
}

// attached is a ChordNames or FiguredBass body and the staff it belongs
// to: chord names sit above the staff that follows them, figures below
// the staff before them.
type attached struct {
	music lilypond.Music
	staff int
}

func (l *scoreLayout) addChordNames(m lilypond.Music) {
	l.chordNames = append(l.chordNames, attached{music: m, staff: len(l.staves) + 1})
}

func (l *scoreLayout) addFigures(m lilypond.Music) {
	l.figuredBass = append(l.figuredBass, attached{music: m, staff: len(l.staves)})
}

// staffFor clamps n to an existing staff number.
func (l *scoreLayout) staffFor(n int) int {
	if n > len(l.staves) {
		n = len(l.staves)
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Assembler places the events of each voice into an MEI score.
type Assembler struct {
	b    *Builder
	vars map[string]lilypond.Music
}

// NewAssembler returns an assembler that draws ids and labels from b and
// expands variable references through vars.
func NewAssembler(b *Builder, vars map[string]lilypond.Music) *Assembler {
	return &Assembler{b: b, vars: vars}
}

// expand follows variable references until it reaches music.
func (a *Assembler) expand(m lilypond.Music) lilypond.Music {
	seen := map[string]bool{}
	for {
		id, ok := m.(lilypond.Identifier)
		if !ok || seen[id.Name] {
			return m
		}
		seen[id.Name] = true
		body, ok := a.vars[id.Name]
		if !ok {
			return m
		}
		m = body
	}
}

// Score builds the <score> for one music expression.
func (a *Assembler) Score(music lilypond.Music) *mei.Score {
	layout := a.analyze(music)

	grp := &mei.StaffGrp{}
	measure := &mei.Measure{N: 1}
	unit := 4
	for _, st := range layout.staves {
		def, u := a.staff(st, measure)
		if st.n == 1 && u > 0 {
			unit = u
		}
		grp.StaffDefs = append(grp.StaffDefs, def)
	}
	for _, at := range layout.chordNames {
		a.chordNames(at.music, layout.staffFor(at.staff), measure, unit)
	}
	for _, at := range layout.figuredBass {
		a.figures(at.music, layout.staffFor(at.staff), measure, unit)
	}

	return &mei.Score{
		ScoreDef: &mei.ScoreDef{StaffGrp: grp},
		Sections: []*mei.Section{{Measures: []*mei.Measure{measure}}},
	}
}

func (a *Assembler) analyze(music lilypond.Music) *scoreLayout {
	music = a.expand(music)
	layout := &scoreLayout{}

	switch m := music.(type) {
	case lilypond.AddLyrics:
		return a.analyze(m.Music)
	case lilypond.ContextedMusic:
		switch {
		case groupContexts[m.Type]:
			a.scan(m.Music, layout)
			if len(layout.staves) > 0 {
				return layout
			}
		case staffContexts[m.Type] > 0:
			layout.addStaff(m.Type, m.Name, a.splitVoices(m.Music))
			return layout
		case m.Type == "FiguredBass":
			layout.addFigures(m.Music)
			return layout
		case m.Type == "ChordNames":
			layout.addChordNames(m.Music)
			return layout
		}
		return a.analyze(m.Music)
	case lilypond.Simultaneous:
		a.scan(m, layout)
		if len(layout.staves) > 0 {
			return layout
		}
		layout.chordNames, layout.figuredBass = nil, nil
	case lilypond.DrumMode:
		layout.addStaff("DrumStaff", "", a.splitVoices(m))
		return layout
	case lilypond.ChordMode:
		layout.addChordNames(m)
		return layout
	case lilypond.FigureMode:
		layout.addFigures(m)
		return layout
	}

	layout.addStaff("Staff", "", a.splitVoices(music))
	return layout
}

// scan collects the staves, chord names and figured bass directly inside
// a group or simultaneous block.
func (a *Assembler) scan(music lilypond.Music, layout *scoreLayout) {
	music = a.expand(music)
	switch m := music.(type) {
	case lilypond.Simultaneous:
		for _, item := range m.Items {
			a.scan(item, layout)
		}
	case lilypond.Sequential:
		if len(m.Items) == 1 {
			a.scan(m.Items[0], layout)
		}
	case lilypond.ContextedMusic:
		switch {
		case groupContexts[m.Type]:
			a.scan(m.Music, layout)
		case staffContexts[m.Type] > 0:
			layout.addStaff(m.Type, m.Name, a.splitVoices(m.Music))
		case m.Type == "ChordNames":
			layout.addChordNames(m.Music)
		case m.Type == "FiguredBass":
			layout.addFigures(m.Music)
		}
	}
}

func (l *scoreLayout) addStaff(typ, name string, voices []lilypond.Music) {
	l.staves = append(l.staves, &staffInfo{n: len(l.staves) + 1, typ: typ, name: name, voices: voices})
}

// splitVoices returns the voices of a staff. Pitch-context wrappers around
// a voice split are repeated on every voice so each starts from the same
// reference.
func (a *Assembler) splitVoices(music lilypond.Music) []lilypond.Music {
	music = a.expand(music)
	switch m := music.(type) {
	case lilypond.Sequential:
		if len(m.Items) == 1 {
			if vs := a.splitVoices(m.Items[0]); len(vs) > 1 {
				return vs
			}
		}
	case lilypond.Simultaneous:
		if len(m.Items) > 1 {
			return append([]lilypond.Music(nil), m.Items...)
		}
	case lilypond.Relative:
		if vs := a.splitVoices(m.Body); len(vs) > 1 {
			for i, v := range vs {
				vs[i] = lilypond.Relative{Pitch: m.Pitch, Body: v}
			}
			return vs
		}
	case lilypond.Fixed:
		if vs := a.splitVoices(m.Body); len(vs) > 1 {
			for i, v := range vs {
				vs[i] = lilypond.Fixed{Pitch: m.Pitch, Body: v}
			}
			return vs
		}
	case lilypond.Transpose:
		if vs := a.splitVoices(m.Body); len(vs) > 1 {
			for i, v := range vs {
				vs[i] = lilypond.Transpose{From: m.From, To: m.To, Body: v}
			}
			return vs
		}
	}
	return []lilypond.Music{music}
}

// Voice is the event stream of one layer.
type Voice struct {
	Staff     int
	Layer     int
	StaffType string
	Events    []Event
}

// Voices returns the event stream of every voice of every staff, in staff
// order.
func (a *Assembler) Voices(music lilypond.Music) []Voice {
	var out []Voice
	for _, st := range a.analyze(music).staves {
		for i, v := range st.voices {
			col := NewCollector(a.vars)
			col.Collect(v, NewPitchContext())
			out = append(out, Voice{Staff: st.n, Layer: i + 1, StaffType: st.typ, Events: col.Events()})
		}
	}
	return out
}

// staff fills one <staff> of measure and returns its staffDef and the
// meter unit in effect.
func (a *Assembler) staff(st *staffInfo, measure *mei.Measure) (*mei.StaffDef, int) {
	def := &mei.StaffDef{N: st.n, Lines: staffContexts[st.typ], LabelText: st.name}
	staff := &mei.Staff{N: st.n}

	for i, voice := range st.voices {
		col := NewCollector(a.vars)
		col.Collect(voice, NewPitchContext())
		events := col.Events()
		if i == 0 {
			def.Label = a.b.applySignatures(events, def)
		}
		lw := newLayerWriter(a.b, i+1, st.n, def.MeterUnit)
		lw.write(events)
		staff.Layers = append(staff.Layers, lw.layer)
		measure.Controls = append(measure.Controls, lw.controls...)
	}
	measure.Staves = append(measure.Staves, staff)
	return def, def.MeterUnit
}

// chordNames turns a ChordNames context into <harm> elements placed by
// beat.
func (a *Assembler) chordNames(music lilypond.Music, staff int, measure *mei.Measure, unit int) {
	col := NewCollector(a.vars)
	col.Collect(music, NewPitchContext())
	clk := newClock()
	for _, e := range col.Events() {
		clk.observe(e)
		d, ok := noteDuration(e)
		if !ok {
			continue
		}
		pos, _ := clk.advance(d)
		if ce, ok := e.(ChordModeEntry); ok {
			measure.Controls = append(measure.Controls, a.b.Harm(ce, "", staff, tstamp(pos, unit)))
		}
	}
}

// figures turns a FiguredBass context into <fb> elements placed by beat.
func (a *Assembler) figures(music lilypond.Music, staff int, measure *mei.Measure, unit int) {
	col := NewCollector(a.vars)
	col.Collect(music, NewPitchContext())
	clk := newClock()
	for _, e := range col.Events() {
		clk.observe(e)
		d, ok := noteDuration(e)
		if !ok {
			continue
		}
		pos, _ := clk.advance(d)
		if fe, ok := e.(FigureEvent); ok {
			measure.Controls = append(measure.Controls, a.b.Fb(fe, staff, tstamp(pos, unit)))
		}
	}
}

type pendingSpan struct {
	startID string
	phrase  bool
	form    string
}

type pendingGroup struct {
	startID string
	event   Event
}

// layerWriter converts the events of one voice into a <layer> and the
// control events anchored to it.
type layerWriter struct {
	b        *Builder
	staff    int
	unit     int
	layer    *mei.Layer
	controls []mei.Control

	clk        *clock
	lastID     string
	tiePending bool
	grace      []GraceType
	beamStarts []int

	slurs    []pendingSpan
	hairpins []pendingSpan
	groups   []pendingGroup

	// controls waiting for the next anchor
	waiting []func(startID string) mei.Control
	harms   []ChordModeEntry
}

func newLayerWriter(b *Builder, n, staff, unit int) *layerWriter {
	return &layerWriter{b: b, staff: staff, unit: unit, layer: &mei.Layer{N: n}, clk: newClock()}
}

func (w *layerWriter) write(events []Event) {
	for _, e := range events {
		w.clk.observe(e)
		w.event(e)
	}
	w.finish()
}

func (w *layerWriter) event(e Event) {
	b := w.b
	switch ev := e.(type) {
	case Note:
		w.clk.advance(ev.Duration)
		n := b.NoteElement(ev.Pitch, ev.Duration)
		n.Tie = w.tie(ev.PostEvents)
		w.applyGrace(&n.Grace, &n.Label)
		w.place(n, n.ID, ev.PostEvents)
	case Chord:
		w.clk.advance(ev.Duration)
		c := b.ChordElement(ev.Pitches, ev.Duration)
		c.Tie = w.tie(ev.PostEvents)
		w.applyGrace(&c.Grace, &c.Label)
		w.place(c, c.ID, ev.PostEvents)
	case ChordRepetition:
		w.clk.advance(ev.Duration)
		c := b.ChordElement(ev.Pitches, ev.Duration)
		c.Label = b.Label(CatChordRepetition).String()
		c.Tie = w.tie(ev.PostEvents)
		w.applyGrace(&c.Grace, &c.Label)
		w.place(c, c.ID, ev.PostEvents)
	case Rest:
		w.clk.advance(ev.Duration)
		r := b.RestElement(ev.Duration)
		w.place(r, r.ID, ev.PostEvents)
	case PitchedRest:
		w.clk.advance(ev.Duration)
		r := b.PitchedRestElement(ev.Pitch, ev.Duration)
		w.place(r, r.ID, ev.PostEvents)
	case MultiMeasureRest:
		w.clk.advance(ev.Duration)
		r := b.MRestElement(ev.Duration)
		w.place(r, r.ID, ev.PostEvents)
	case Skip:
		w.clk.advance(ev.Duration)
		s := b.SpaceElement(ev.Duration)
		w.place(s, s.ID, ev.PostEvents)
	case DrumEvent:
		w.clk.advance(ev.Note.Duration)
		n := b.DrumElement(ev.Text, ev.Note.Duration)
		w.place(n, n.ID, ev.Note.PostEvents)
	case DrumChordEvent:
		w.clk.advance(ev.Chord.Duration)
		n := b.DrumElement(ev.Text, ev.Chord.Duration)
		w.place(n, n.ID, ev.Chord.PostEvents)

	case TupletStart, RepeatStart, AlternativeStart:
		w.groups = append(w.groups, pendingGroup{event: e})
	case TupletEnd, RepeatEnd, AlternativeEnd:
		w.closeGroup()
	case GraceStart:
		w.grace = append(w.grace, ev.Grace)
	case GraceEnd:
		if len(w.grace) > 0 {
			w.grace = w.grace[:len(w.grace)-1]
		}

	case Tempo:
		w.wait(func(id string) mei.Control { return b.Tempo(ev, id, w.staff) })
	case Mark:
		w.wait(func(id string) mei.Control { return b.MarkDir(ev.Text, id, w.staff) })
	case TextMark:
		w.wait(func(id string) mei.Control { return b.TextMarkDir(ev.Text, id, w.staff) })
	case PropertyOperation:
		w.wait(func(id string) mei.Control { return b.PropertyDir(ev.Text, id, w.staff) })
	case MusicFunctionCall:
		w.wait(func(id string) mei.Control { return b.FunctionDir(ev.Text, id, w.staff) })
	case SchemeExpression:
		w.wait(func(id string) mei.Control { return b.SchemeDir(ev.Text, id, w.staff) })
	case ContextChange:
		w.wait(func(id string) mei.Control { return b.ContextChangeDir(ev, id, w.staff) })
	case Markup:
		w.wait(func(id string) mei.Control { return b.textDir("dir", CatText, ev.Text, id, w.staff) })
	case MarkupList:
		w.wait(func(id string) mei.Control { return b.textDir("dir", CatText, ev.Text, id, w.staff) })

	case ChordModeEntry:
		if w.lastID != "" {
			w.controls = append(w.controls, b.Harm(ev, w.lastID, w.staff, ""))
		} else {
			w.harms = append(w.harms, ev)
		}
	case FigureEvent:
		w.controls = append(w.controls, b.Fb(ev, w.staff, tstamp(w.clk.pos, w.unit)))
	}
	// Clef, key, time and beaming events live in the staffDef label; bar
	// checks and bar lines carry nothing.
}

func (w *layerWriter) wait(f func(startID string) mei.Control) {
	w.waiting = append(w.waiting, f)
}

// tie returns the @tie value of the next note and updates the pending tie.
func (w *layerWriter) tie(pe PostEvents) string {
	starts := pe.Has(lilypond.Tie{})
	var tie string
	switch {
	case starts && w.tiePending:
		tie = "m"
	case starts:
		tie = "i"
	case w.tiePending:
		tie = "t"
	}
	w.tiePending = starts
	return tie
}

func (w *layerWriter) applyGrace(grace, label *string) {
	if len(w.grace) == 0 {
		return
	}
	g := w.grace[len(w.grace)-1]
	*grace = g.MEIGrace()
	*label = JoinLabels(*label, w.b.GraceLabel(g))
}

// place appends an anchor element and attaches everything that was
// waiting for it, then converts its post-events.
func (w *layerWriter) place(el mei.Element, id string, pe PostEvents) {
	w.layer.Append(el)

	for i := range w.groups {
		if w.groups[i].startID == "" {
			w.groups[i].startID = id
		}
	}
	for _, f := range w.waiting {
		w.controls = append(w.controls, f(id))
	}
	w.waiting = nil
	for _, h := range w.harms {
		w.controls = append(w.controls, w.b.Harm(h, id, w.staff, ""))
	}
	w.harms = nil
	w.lastID = id

	for _, p := range pe {
		w.postEvent(p, id)
	}
}

func (w *layerWriter) closeGroup() {
	if len(w.groups) == 0 {
		return
	}
	g := w.groups[len(w.groups)-1]
	w.groups = w.groups[:len(w.groups)-1]
	if g.startID == "" || w.lastID == "" {
		return
	}
	var c mei.Control
	switch ev := g.event.(type) {
	case TupletStart:
		c = w.b.TupletSpan(g.startID, w.lastID, w.staff, ev)
	case RepeatStart:
		c = w.b.RepeatDir(g.startID, w.lastID, w.staff, ev)
	case AlternativeStart:
		c = w.b.EndingDir(g.startID, w.lastID, w.staff, ev.Index)
	}
	if c != nil {
		w.controls = append(w.controls, c)
	}
}

func (w *layerWriter) postEvent(p lilypond.PostEvent, id string) {
	b := w.b
	switch e := p.(type) {
	case lilypond.SlurStart:
		w.slurs = append(w.slurs, pendingSpan{startID: id})
	case lilypond.PhrasingSlurStart:
		w.slurs = append(w.slurs, pendingSpan{startID: id, phrase: true})
	case lilypond.SlurEnd, lilypond.PhrasingSlurEnd:
		_, phrase := p.(lilypond.PhrasingSlurEnd)
		for i := len(w.slurs) - 1; i >= 0; i-- {
			if w.slurs[i].phrase == phrase {
				s := w.slurs[i]
				w.slurs = append(w.slurs[:i], w.slurs[i+1:]...)
				w.controls = append(w.controls, b.Slur(s.startID, id, w.staff, phrase))
				break
			}
		}
	case lilypond.Dynamic:
		w.controls = append(w.controls, b.Dynam(e.Name, id, w.staff))
	case lilypond.Crescendo:
		w.hairpins = append(w.hairpins, pendingSpan{startID: id, form: "cres"})
	case lilypond.Decrescendo:
		w.hairpins = append(w.hairpins, pendingSpan{startID: id, form: "dim"})
	case lilypond.HairpinEnd:
		if n := len(w.hairpins); n > 0 {
			h := w.hairpins[n-1]
			w.hairpins = w.hairpins[:n-1]
			w.controls = append(w.controls, b.Hairpin(h.startID, id, w.staff, h.form))
		}
	case lilypond.Articulation:
		w.controls = append(w.controls, b.ArticDir(e.Name(), e.Direction, id, w.staff))
	case lilypond.NamedArticulation:
		if c := b.Ornament(e.Name, e.Direction, id, w.staff); c != nil {
			w.controls = append(w.controls, c)
		} else {
			w.controls = append(w.controls, b.ArticDir(e.Name, e.Direction, id, w.staff))
		}
	case lilypond.Fingering:
		w.controls = append(w.controls, b.FingDir(e.Digit, e.Direction, id, w.staff))
	case lilypond.StringNumber:
		w.controls = append(w.controls, b.StringDir(e.Number, e.Direction, id, w.staff))
	case lilypond.TextScript:
		w.controls = append(w.controls, b.TextScriptDir(e.Text, e.Direction, id, w.staff))
	case lilypond.BeamStart:
		w.beamStarts = append(w.beamStarts, len(w.layer.Children)-1)
	case lilypond.BeamEnd:
		w.closeBeam()
	case lilypond.Tremolo:
		b.WrapLastInBTrem(w.layer, e.Value)
	}
}

// closeBeam groups the children from the latest beam start through the
// last child into a <beam>.
func (w *layerWriter) closeBeam() {
	n := len(w.beamStarts)
	if n == 0 {
		return
	}
	start := w.beamStarts[n-1]
	w.beamStarts = w.beamStarts[:n-1]
	end := len(w.layer.Children) - 1
	if start < 0 || start > end {
		return
	}
	beam := &mei.Beam{ID: w.b.ids.Next("beam")}
	beam.Children = append(beam.Children, w.layer.Children[start:end+1]...)
	w.layer.Children = append(w.layer.Children[:start], beam)
	for i, s := range w.beamStarts {
		if s > start {
			w.beamStarts[i] = start
		}
	}
}

// finish attaches controls still waiting at the end of the voice to the
// last anchor, or places them by beat when the voice had none.
func (w *layerWriter) finish() {
	for _, f := range w.waiting {
		c := f(w.lastID)
		if w.lastID == "" {
			c.Common().Tstamp = "1"
		}
		w.controls = append(w.controls, c)
	}
	w.waiting = nil
	for _, h := range w.harms {
		w.controls = append(w.controls, w.b.Harm(h, "", w.staff, "1"))
	}
	w.harms = nil
}
