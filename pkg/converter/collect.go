package converter

import "github.com/james-see/ly2mei/pkg/lilypond"

// Collector walks a music tree and appends events in source order.
type Collector struct {
	vars      map[string]lilypond.Music
	expanding map[string]bool
	events    []Event
}

// NewCollector returns a collector that expands \name references through
// vars. vars may be nil.
func NewCollector(vars map[string]lilypond.Music) *Collector {
	return &Collector{vars: vars, expanding: make(map[string]bool)}
}

// CollectEvents walks m with ctx and returns the event stream.
func CollectEvents(m lilypond.Music, ctx *PitchContext) []Event {
	c := NewCollector(nil)
	c.Collect(m, ctx)
	return c.Events()
}

// Events returns everything collected so far.
func (c *Collector) Events() []Event {
	return c.events
}

func (c *Collector) emit(e Event) {
	c.events = append(c.events, e)
}

// Collect appends the events of m. Siblings share ctx; scoped constructs
// work on a clone.
func (c *Collector) Collect(m lilypond.Music, ctx *PitchContext) {
	switch n := m.(type) {
	case nil:
		return

	case lilypond.Sequential:
		for _, item := range n.Items {
			c.Collect(item, ctx)
		}
	case lilypond.Simultaneous:
		for _, item := range n.Items {
			c.Collect(item, ctx)
		}

	case lilypond.Relative:
		inner := ctx.Clone()
		step, octave := rune(defaultRelativeStep), defaultRelativeOctave
		if p, ok := lilypond.PitchOf(n.Pitch); ok {
			step, octave = p.Step, p.Octave
		}
		inner.SetRelative(step, octave)
		c.Collect(n.Body, inner)
	case lilypond.Fixed:
		inner := ctx.Clone()
		if p, ok := lilypond.PitchOf(n.Pitch); ok {
			inner.SetFixed(p.Octave)
		}
		c.Collect(n.Body, inner)
	case lilypond.Transpose:
		from, okFrom := lilypond.PitchOf(n.From)
		to, okTo := lilypond.PitchOf(n.To)
		if !okFrom || !okTo {
			c.Collect(n.Body, ctx)
			return
		}
		inner := ctx.Clone()
		inner.PushTransposition(from, to)
		c.Collect(n.Body, inner)

	case lilypond.NoteEvent:
		if n.PitchedRest {
			c.emit(PitchedRest{Pitch: ctx.Resolve(n.Pitch), Duration: n.Duration, PostEvents: n.PostEvents})
			return
		}
		c.emit(Note{Pitch: ctx.Resolve(n.Pitch), Duration: n.Duration, PostEvents: n.PostEvents})
	case lilypond.ChordEvent:
		c.emit(Chord{Pitches: ctx.ResolveChord(n.Pitches), Duration: n.Duration, PostEvents: n.PostEvents})
	case lilypond.ChordRepetition:
		last := ctx.LastChord()
		if len(last) == 0 {
			return
		}
		c.emit(ChordRepetition{
			Pitches:    append([]lilypond.Pitch(nil), last...),
			Duration:   n.Duration,
			PostEvents: n.PostEvents,
		})
	case lilypond.RestEvent:
		c.emit(Rest{Duration: n.Duration, PostEvents: n.PostEvents})
	case lilypond.SkipEvent:
		c.emit(Skip{Duration: n.Duration, PostEvents: n.PostEvents})
	case lilypond.MultiMeasureRest:
		c.emit(MultiMeasureRest{Duration: n.Duration, PostEvents: n.PostEvents})

	case lilypond.Tuplet:
		c.emit(TupletStart{Numerator: n.Numerator, Denominator: n.Denominator, Span: n.Span})
		c.Collect(n.Body, ctx)
		c.emit(TupletEnd{})
	case lilypond.Grace:
		c.collectGrace(GraceType{Kind: GraceNormal}, n.Body, ctx)
	case lilypond.Acciaccatura:
		c.collectGrace(GraceType{Kind: GraceAcciaccatura}, n.Body, ctx)
	case lilypond.Appoggiatura:
		c.collectGrace(GraceType{Kind: GraceAppoggiatura}, n.Body, ctx)
	case lilypond.AfterGrace:
		c.Collect(n.Main, ctx)
		c.collectGrace(GraceType{Kind: GraceAfter, Fraction: n.Fraction}, n.Grace, ctx)
	case lilypond.Repeat:
		c.emit(RepeatStart{Type: n.Type, Count: n.Count, Alternatives: len(n.Alternatives)})
		c.Collect(n.Body, ctx)
		c.emit(RepeatEnd{})
		for i, alt := range n.Alternatives {
			c.emit(AlternativeStart{Index: i})
			c.Collect(alt, ctx)
			c.emit(AlternativeEnd{})
		}

	case lilypond.ContextedMusic:
		c.Collect(n.Music, ctx)
	case lilypond.ContextChange:
		c.emit(ContextChange{Type: n.Type, Name: n.Name})

	case lilypond.Clef:
		c.emit(Clef{Name: n.Name})
	case lilypond.KeySignature:
		c.emit(KeySignature{Pitch: n.Pitch, Mode: n.Mode})
	case lilypond.TimeSignature:
		c.emit(TimeSignature{Numerators: n.Numerators, Denominator: n.Denominator})
	case lilypond.AutoBeamOn:
		c.emit(AutoBeamOn{})
	case lilypond.AutoBeamOff:
		c.emit(AutoBeamOff{})
	case lilypond.BarCheck:
		c.emit(BarCheck{})
	case lilypond.BarLine:
		c.emit(BarLine{Type: n.Type})

	case lilypond.Markup:
		c.emit(Markup{Text: lilypond.SerializeMarkup(n)})
	case lilypond.MarkupList:
		c.emit(MarkupList{Text: lilypond.SerializeMarkupList(n)})
	case lilypond.Tempo:
		c.emit(Tempo{Text: lilypond.SerializeTempo(n), Value: n})
	case lilypond.Mark:
		c.emit(Mark{Text: lilypond.SerializeMark(n)})
	case lilypond.TextMark:
		c.emit(TextMark{Text: lilypond.SerializeTextMark(n)})

	case lilypond.ChordMode:
		c.Collect(n.Body, ctx)
	case lilypond.ChordModeEntry:
		entry := n
		entry.Root = ctx.Resolve(n.Root)
		if n.Inversion != nil {
			inv := ctx.Resolve(*n.Inversion)
			entry.Inversion = &inv
		}
		if n.Bass != nil {
			bass := ctx.Resolve(*n.Bass)
			entry.Bass = &bass
		}
		c.emit(ChordModeEntry{Entry: entry, Text: lilypond.SerializeChordModeEntry(entry)})
	case lilypond.DrumMode:
		c.Collect(n.Body, ctx)
	case lilypond.DrumNote:
		c.emit(DrumEvent{Note: n, Text: lilypond.SerializeDrumNote(n)})
	case lilypond.DrumChord:
		c.emit(DrumChordEvent{Chord: n, Text: lilypond.SerializeDrumChord(n)})
	case lilypond.FigureMode:
		c.Collect(n.Body, ctx)
	case lilypond.Figure:
		c.emit(FigureEvent{Figure: n, Text: lilypond.SerializeFigure(n)})

	case lilypond.Once:
		if lilypond.IsPropertyOp(n.Music) {
			c.emit(PropertyOperation{Text: lilypond.SerializePropertyOp(n)})
			return
		}
		c.Collect(n.Music, ctx)
	case lilypond.Override, lilypond.Revert, lilypond.Set, lilypond.Unset:
		c.emit(PropertyOperation{Text: lilypond.SerializePropertyOp(n)})
	case lilypond.MusicFunction:
		c.emit(MusicFunctionCall{Name: n.Name, Text: lilypond.SerializeFunction(n)})
	case lilypond.SchemeMusic:
		c.emit(SchemeExpression{Text: lilypond.SerializeScheme(n)})

	case lilypond.AddLyrics:
		c.Collect(n.Music, ctx)
	case lilypond.LyricMode:
		// lyrics carry no events

	case lilypond.Identifier:
		body, ok := c.vars[n.Name]
		if !ok || c.expanding[n.Name] {
			return
		}
		c.expanding[n.Name] = true
		c.Collect(body, ctx)
		delete(c.expanding, n.Name)
	}
}

func (c *Collector) collectGrace(g GraceType, body lilypond.Music, ctx *PitchContext) {
	c.emit(GraceStart{Grace: g})
	c.Collect(body, ctx)
	c.emit(GraceEnd{})
}
