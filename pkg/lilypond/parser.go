package lilypond

import (
	"fmt"
	"strconv"
	"strings"
)

type inputMode int

const (
	noteMode inputMode = iota
	chordMode
	drumMode
	figureMode
)

var keyModes = map[string]bool{
	"major": true, "minor": true, "ionian": true, "dorian": true,
	"phrygian": true, "lydian": true, "mixolydian": true, "aeolian": true,
	"locrian": true,
}

var articulationScripts = map[TokenType]rune{
	DOT: '.', DASH: '-', GT: '>', CARET: '^', PLUS: '+', BANG: '!', UNDERSCORE: '_',
}

type parser struct {
	src  string
	toks []Token
	pos  int
	mode inputMode
	vars map[string]bool
}

// Parse parses a complete .ly file.
func Parse(src string) (*File, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	f := &File{}
	for p.peek().Type != EOF {
		if err := p.parseToplevel(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// ParseMusic parses a single music expression such as "\relative { c d e }".
func ParseMusic(src string) (Music, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	m, err := p.parseMusic()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type != EOF {
		return nil, p.errorf(tok, "unexpected %s after music expression", describe(tok))
	}
	return m, nil
}

func newParser(src string) (*parser, error) {
	toks, err := Lex(src)
	if err != nil {
		return nil, err
	}
	return &parser{src: src, toks: toks, vars: make(map[string]bool)}, nil
}

func (p *parser) peek() Token {
	return p.peekAt(0)
}

func (p *parser) peekAt(n int) Token {
	if p.pos+n < len(p.toks) {
		return p.toks[p.pos+n]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() Token {
	tok := p.peek()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) need(tt TokenType, what string) (Token, error) {
	tok := p.peek()
	if tok.Type != tt {
		return tok, p.errorf(tok, "expected %s, found %s", what, describe(tok))
	}
	return p.next(), nil
}

func (p *parser) isCommand(name string) bool {
	tok := p.peek()
	return tok.Type == COMMAND && tok.Text == name
}

// adjacent reports whether the next token follows without whitespace.
func (p *parser) adjacent(tt TokenType) bool {
	tok := p.peek()
	return tok.Type == tt && !tok.Space
}

func (p *parser) raw(tok Token) string {
	return p.src[tok.Pos:tok.End]
}

func (p *parser) errorf(tok Token, format string, args ...any) error {
	return &SyntaxError{Line: tok.Line, Col: tok.Col, Msg: fmt.Sprintf(format, args...)}
}

func describe(tok Token) string {
	switch tok.Type {
	case WORD, NUMBER:
		return fmt.Sprintf("%s %q", tok.Type, tok.Text)
	case COMMAND:
		return `\` + tok.Text
	}
	return tok.Type.String()
}

func (p *parser) number() (int, error) {
	tok, err := p.need(NUMBER, "number")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(tok.Text)
	if err != nil {
		return 0, p.errorf(tok, "invalid number %q", tok.Text)
	}
	return n, nil
}

func (p *parser) withMode(mode inputMode, fn func() (Music, error)) (Music, error) {
	saved := p.mode
	p.mode = mode
	defer func() { p.mode = saved }()
	return fn()
}

func (p *parser) parseToplevel(f *File) error {
	tok := p.peek()
	if tok.Type == WORD && p.peekAt(1).Type == EQUALS {
		return p.parseAssignment(f)
	}
	if tok.Type != COMMAND {
		m, err := p.parseMusic()
		if err != nil {
			return err
		}
		f.Music = append(f.Music, m)
		return nil
	}

	switch tok.Text {
	case "version":
		p.next()
		s, err := p.need(STRING, "version string")
		if err != nil {
			return err
		}
		f.Version = s.Text
	case "language", "include":
		p.next()
		if _, err := p.need(STRING, "string"); err != nil {
			return err
		}
	case "header":
		p.next()
		fields, err := p.parseHeader()
		if err != nil {
			return err
		}
		f.Header = append(f.Header, fields...)
	case "score":
		p.next()
		s, err := p.parseScore()
		if err != nil {
			return err
		}
		f.Scores = append(f.Scores, s)
	case "book", "bookpart":
		p.next()
		if _, err := p.need(LBRACE, "'{'"); err != nil {
			return err
		}
		for p.peek().Type != RBRACE {
			if p.peek().Type == EOF {
				return p.errorf(p.peek(), "unterminated \\%s block", tok.Text)
			}
			if err := p.parseToplevel(f); err != nil {
				return err
			}
		}
		p.next()
	case "paper", "layout", "midi":
		p.next()
		if _, err := p.rawBlock(); err != nil {
			return err
		}
	case "markup", "markuplist":
		p.next()
		text, err := p.parseMarkupArg()
		if err != nil {
			return err
		}
		f.Markups = append(f.Markups, Markup{Text: text})
	default:
		m, err := p.parseMusic()
		if err != nil {
			return err
		}
		f.Music = append(f.Music, m)
	}
	return nil
}

func (p *parser) parseAssignment(f *File) error {
	name := p.next().Text
	p.next() // =
	switch tok := p.peek(); tok.Type {
	case STRING, NUMBER, SCHEME:
		p.next()
		return nil
	}
	var value Music
	var err error
	if p.isCommand("markup") {
		p.next()
		var text string
		text, err = p.parseMarkupArg()
		value = Markup{Text: text}
	} else {
		value, err = p.parseMusic()
	}
	if err != nil {
		return err
	}
	f.Assignments = append(f.Assignments, Assignment{Name: name, Value: value})
	p.vars[name] = true
	return nil
}

func (p *parser) parseHeader() ([]HeaderField, error) {
	if _, err := p.need(LBRACE, "'{'"); err != nil {
		return nil, err
	}
	var fields []HeaderField
	for p.peek().Type != RBRACE {
		name, err := p.need(WORD, "header field name")
		if err != nil {
			return nil, err
		}
		if _, err := p.need(EQUALS, "'='"); err != nil {
			return nil, err
		}
		var value string
		switch tok := p.peek(); {
		case tok.Type == STRING:
			value = p.next().Text
		case tok.Type == SCHEME:
			value = "#" + p.next().Text
		case tok.Type == COMMAND && (tok.Text == "markup" || tok.Text == "markuplist"):
			p.next()
			arg, err := p.parseMarkupArg()
			if err != nil {
				return nil, err
			}
			value = `\` + tok.Text + " " + arg
		default:
			return nil, p.errorf(tok, "expected header value, found %s", describe(tok))
		}
		fields = append(fields, HeaderField{Name: name.Text, Value: value})
	}
	p.next()
	return fields, nil
}

func (p *parser) parseScore() (*Score, error) {
	if _, err := p.need(LBRACE, "'{'"); err != nil {
		return nil, err
	}
	s := &Score{}
	for {
		tok := p.peek()
		switch {
		case tok.Type == RBRACE:
			p.next()
			return s, nil
		case tok.Type == EOF:
			return nil, p.errorf(tok, "unterminated \\score block")
		case tok.Type == COMMAND && tok.Text == "header":
			p.next()
			fields, err := p.parseHeader()
			if err != nil {
				return nil, err
			}
			s.Header = append(s.Header, fields...)
		case tok.Type == COMMAND && (tok.Text == "layout" || tok.Text == "midi"):
			p.next()
			if _, err := p.rawBlock(); err != nil {
				return nil, err
			}
		case s.Music == nil:
			m, err := p.parseMusic()
			if err != nil {
				return nil, err
			}
			s.Music = m
		default:
			return nil, p.errorf(tok, "unexpected %s in \\score", describe(tok))
		}
	}
}

// rawBlock consumes a balanced { ... } and returns the trimmed text between
// the braces.
func (p *parser) rawBlock() (string, error) {
	open, err := p.need(LBRACE, "'{'")
	if err != nil {
		return "", err
	}
	rbrace, err := p.skipToClose(open)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(p.src[open.End:rbrace.Pos]), nil
}

func (p *parser) skipToClose(open Token) (Token, error) {
	depth := 1
	for {
		tok := p.next()
		switch tok.Type {
		case LBRACE:
			depth++
		case RBRACE:
			depth--
			if depth == 0 {
				return tok, nil
			}
		case EOF:
			return tok, p.errorf(open, "unbalanced '{'")
		}
	}
}

func (p *parser) parseMusic() (Music, error) {
	m, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.isCommand("addlyrics") {
		p.next()
		if p.isCommand("lyricmode") {
			p.next()
		}
		raw, err := p.rawBlock()
		if err != nil {
			return nil, err
		}
		if al, ok := m.(AddLyrics); ok {
			al.Lyrics = append(al.Lyrics, raw)
			m = al
		} else {
			m = AddLyrics{Music: m, Lyrics: []string{raw}}
		}
	}
	return m, nil
}

func (p *parser) parsePrimary() (Music, error) {
	tok := p.peek()
	switch tok.Type {
	case LBRACE:
		p.next()
		items, err := p.parseItems(RBRACE)
		if err != nil {
			return nil, err
		}
		return Sequential{Items: items}, nil
	case DLT:
		p.next()
		return p.parseSimultaneous()
	case LT:
		p.next()
		if p.mode == figureMode {
			return p.parseFigure(tok, false)
		}
		return p.parseChord(tok)
	case WORD:
		return p.parseWordEvent()
	case PIPE:
		p.next()
		return BarCheck{}, nil
	case SCHEME:
		p.next()
		return SchemeMusic{Expr: tok.Text}, nil
	case COMMAND:
		if tok.Text == "<" && p.mode == figureMode {
			p.next()
			return p.parseFigure(tok, true)
		}
		return p.parseCommand()
	}
	return nil, p.errorf(tok, "unexpected %s", describe(tok))
}

func (p *parser) parseItems(closer TokenType) ([]Music, error) {
	var items []Music
	for {
		tok := p.peek()
		if tok.Type == closer {
			p.next()
			return items, nil
		}
		if tok.Type == EOF {
			return nil, p.errorf(tok, "expected %s before end of input", closer)
		}
		m, err := p.parseMusic()
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
}

// parseSimultaneous handles << ... >>, splitting on \\ into implicit voices.
func (p *parser) parseSimultaneous() (Music, error) {
	groups := [][]Music{nil}
	for {
		tok := p.peek()
		switch {
		case tok.Type == DGT:
			p.next()
			if len(groups) == 1 {
				return Simultaneous{Items: groups[0]}, nil
			}
			voices := make([]Music, 0, len(groups))
			for _, g := range groups {
				voices = append(voices, ContextedMusic{Keyword: "new", Type: "Voice", Music: Sequential{Items: g}})
			}
			return Simultaneous{Items: voices}, nil
		case tok.Type == EOF:
			return nil, p.errorf(tok, "expected '>>' before end of input")
		case tok.Type == COMMAND && tok.Text == `\`:
			p.next()
			groups = append(groups, nil)
		default:
			m, err := p.parseMusic()
			if err != nil {
				return nil, err
			}
			groups[len(groups)-1] = append(groups[len(groups)-1], m)
		}
	}
}

func (p *parser) atNoteName() bool {
	tok := p.peek()
	if tok.Type != WORD {
		return false
	}
	_, _, ok := ParseNoteName(tok.Text)
	return ok
}

func (p *parser) parsePitch() (Pitch, error) {
	tok := p.peek()
	if tok.Type != WORD {
		return Pitch{}, p.errorf(tok, "expected pitch, found %s", describe(tok))
	}
	step, alter, ok := ParseNoteName(tok.Text)
	if !ok {
		return Pitch{}, p.errorf(tok, "unknown note name %q", tok.Text)
	}
	p.next()
	return p.parsePitchSuffix(Pitch{Step: step, Alter: alter}), nil
}

// parsePitchSuffix reads octave marks, ! and ? and an =marks octave check.
func (p *parser) parsePitchSuffix(pitch Pitch) Pitch {
	pitch.Octave = p.octaveMarks()
	if p.adjacent(BANG) {
		p.next()
		pitch.ForceAccidental = true
	}
	if p.adjacent(QUESTION) {
		p.next()
		pitch.Cautionary = true
	}
	if p.adjacent(EQUALS) {
		p.next()
		check := p.octaveMarks()
		pitch.OctaveCheck = &check
	}
	return pitch
}

func (p *parser) octaveMarks() int {
	marks := 0
	for {
		switch {
		case p.adjacent(QUOTE):
			marks++
		case p.adjacent(COMMA):
			marks--
		default:
			return marks
		}
		p.next()
	}
}

func (p *parser) parseDuration() (*Duration, error) {
	tok := p.peek()
	var d Duration
	switch {
	case tok.Type == NUMBER:
		p.next()
		n, err := strconv.Atoi(tok.Text)
		if err != nil || n < 1 || n > 128 || n&(n-1) != 0 {
			return nil, p.errorf(tok, "invalid duration %q", tok.Text)
		}
		d.Base = n
	case tok.Type == COMMAND && tok.Text == "breve":
		p.next()
		d.Base = BaseBreve
	case tok.Type == COMMAND && tok.Text == "longa":
		p.next()
		d.Base = BaseLonga
	default:
		return nil, nil
	}
	for p.adjacent(DOT) {
		p.next()
		d.Dots++
	}
	for p.peek().Type == STAR {
		p.next()
		num, err := p.number()
		if err != nil {
			return nil, err
		}
		den := 1
		if p.peek().Type == SLASH {
			p.next()
			if den, err = p.number(); err != nil {
				return nil, err
			}
		}
		d.Multipliers = append(d.Multipliers, Fraction{Num: num, Denom: den})
	}
	return &d, nil
}

func (p *parser) parseWordEvent() (Music, error) {
	tok := p.next()
	dur, err := p.parseDuration()
	if err != nil {
		return nil, err
	}

	switch tok.Text {
	case "r", "R", "s", "q":
		post, err := p.parsePostEvents()
		if err != nil {
			return nil, err
		}
		switch tok.Text {
		case "r":
			return RestEvent{Duration: dur, PostEvents: post}, nil
		case "R":
			return MultiMeasureRest{Duration: dur, PostEvents: post}, nil
		case "s":
			return SkipEvent{Duration: dur, PostEvents: post}, nil
		}
		return ChordRepetition{Duration: dur, PostEvents: post}, nil
	}

	if p.mode == drumMode {
		post, err := p.parsePostEvents()
		if err != nil {
			return nil, err
		}
		return DrumNote{Name: tok.Text, Duration: dur, PostEvents: post}, nil
	}

	step, alter, ok := ParseNoteName(tok.Text)
	if !ok {
		return nil, p.errorf(tok, "unknown note name %q", tok.Text)
	}
	if dur != nil {
		// octave marks come before the duration; c4' is not valid
		pitch := Pitch{Step: step, Alter: alter}
		return p.finishNote(pitch, dur)
	}
	pitch := p.parsePitchSuffix(Pitch{Step: step, Alter: alter})
	if dur, err = p.parseDuration(); err != nil {
		return nil, err
	}
	return p.finishNote(pitch, dur)
}

func (p *parser) finishNote(pitch Pitch, dur *Duration) (Music, error) {
	if p.mode == chordMode {
		return p.finishChordModeEntry(pitch, dur)
	}
	n := NoteEvent{Pitch: pitch, Duration: dur}
	if p.isCommand("rest") {
		p.next()
		n.PitchedRest = true
	}
	post, err := p.parsePostEvents()
	if err != nil {
		return nil, err
	}
	n.PostEvents = post
	return n, nil
}

func (p *parser) finishChordModeEntry(root Pitch, dur *Duration) (Music, error) {
	e := ChordModeEntry{Root: root, Duration: dur}
	if p.adjacent(COLON) {
		colon := p.next()
		e.Quality = p.chordQuality(colon)
	}
	for p.peek().Type == SLASH {
		p.next()
		if p.adjacent(PLUS) {
			p.next()
			bass, err := p.parsePitch()
			if err != nil {
				return nil, err
			}
			e.Bass = &bass
			continue
		}
		inv, err := p.parsePitch()
		if err != nil {
			return nil, err
		}
		e.Inversion = &inv
	}
	post, err := p.parsePostEvents()
	if err != nil {
		return nil, err
	}
	e.PostEvents = post
	return e, nil
}

// chordQuality returns the raw modifier text after the colon, e.g. "m7.5-".
func (p *parser) chordQuality(colon Token) string {
	end := colon.End
	for {
		tok := p.peek()
		if tok.Space {
			break
		}
		switch tok.Type {
		case WORD, NUMBER, DOT, CARET, PLUS, DASH:
			p.next()
			end = tok.End
			continue
		}
		break
	}
	return p.src[colon.End:end]
}

func (p *parser) parseChord(open Token) (Music, error) {
	if p.mode == drumMode {
		var names []string
		for p.peek().Type != GT {
			tok, err := p.need(WORD, "drum name")
			if err != nil {
				return nil, err
			}
			names = append(names, tok.Text)
		}
		p.next()
		dur, err := p.parseDuration()
		if err != nil {
			return nil, err
		}
		post, err := p.parsePostEvents()
		if err != nil {
			return nil, err
		}
		return DrumChord{Names: names, Duration: dur, PostEvents: post}, nil
	}

	var pitches []Pitch
	for p.peek().Type != GT {
		if p.peek().Type == EOF {
			return nil, p.errorf(open, "unterminated chord")
		}
		pitch, err := p.parsePitch()
		if err != nil {
			return nil, err
		}
		pitches = append(pitches, pitch)
	}
	p.next()
	dur, err := p.parseDuration()
	if err != nil {
		return nil, err
	}
	post, err := p.parsePostEvents()
	if err != nil {
		return nil, err
	}
	return ChordEvent{Pitches: pitches, Duration: dur, PostEvents: post}, nil
}

// parseFigure reads a figure group, either <6 4> or \<6 4\>.
func (p *parser) parseFigure(open Token, escaped bool) (Music, error) {
	start := open.End
	closed := func() bool {
		if escaped {
			return p.isCommand(">")
		}
		return p.peek().Type == GT
	}
	for !closed() {
		if p.peek().Type == EOF {
			return nil, p.errorf(open, "unterminated figure")
		}
		p.next()
	}
	closer := p.next()
	figures := strings.Fields(p.src[start:closer.Pos])
	dur, err := p.parseDuration()
	if err != nil {
		return nil, err
	}
	return Figure{Figures: figures, Duration: dur}, nil
}

func (p *parser) parsePostEvents() ([]PostEvent, error) {
	if p.mode == figureMode {
		return nil, nil
	}
	var out []PostEvent
	for {
		tok := p.peek()
		switch tok.Type {
		case TILDE:
			out = append(out, Tie{})
		case LPAREN:
			out = append(out, SlurStart{})
		case RPAREN:
			out = append(out, SlurEnd{})
		case LBRACKET:
			out = append(out, BeamStart{})
		case RBRACKET:
			out = append(out, BeamEnd{})
		case COLON:
			p.next()
			v := 0
			if p.adjacent(NUMBER) {
				n, err := p.number()
				if err != nil {
					return nil, err
				}
				v = n
			}
			out = append(out, Tremolo{Value: v})
			continue
		case DASH, CARET, UNDERSCORE:
			p.next()
			dir := Neutral
			if tok.Type == CARET {
				dir = Up
			} else if tok.Type == UNDERSCORE {
				dir = Down
			}
			ev, err := p.parseDirected(dir)
			if err != nil {
				return nil, err
			}
			out = append(out, ev)
			continue
		case COMMAND:
			ev, ok := commandPostEvent(tok.Text, Neutral)
			if !ok {
				return out, nil
			}
			out = append(out, ev)
		default:
			return out, nil
		}
		p.next()
	}
}

func (p *parser) parseDirected(dir Direction) (PostEvent, error) {
	tok := p.peek()
	if script, ok := articulationScripts[tok.Type]; ok {
		p.next()
		return Articulation{Direction: dir, Script: script}, nil
	}
	switch tok.Type {
	case NUMBER:
		n, err := p.number()
		if err != nil {
			return nil, err
		}
		return Fingering{Direction: dir, Digit: n}, nil
	case STRING:
		p.next()
		return TextScript{Direction: dir, Text: p.raw(tok)}, nil
	case LPAREN:
		p.next()
		return SlurStart{}, nil
	case RPAREN:
		p.next()
		return SlurEnd{}, nil
	case COMMAND:
		if tok.Text == "markup" {
			p.next()
			arg, err := p.parseMarkupArg()
			if err != nil {
				return nil, err
			}
			return TextScript{Direction: dir, Text: `\markup ` + arg}, nil
		}
		if ev, ok := commandPostEvent(tok.Text, dir); ok {
			p.next()
			return ev, nil
		}
	}
	return nil, p.errorf(tok, "expected articulation, found %s", describe(tok))
}

func commandPostEvent(name string, dir Direction) (PostEvent, bool) {
	switch name {
	case "(":
		return PhrasingSlurStart{}, true
	case ")":
		return PhrasingSlurEnd{}, true
	case "<":
		return Crescendo{}, true
	case ">":
		return Decrescendo{}, true
	case "!":
		return HairpinEnd{}, true
	}
	if KnownDynamics[name] {
		return Dynamic{Name: name}, true
	}
	if KnownArticulations[name] {
		return NamedArticulation{Direction: dir, Name: name}, true
	}
	if len(name) == 1 && name[0] >= '0' && name[0] <= '9' {
		return StringNumber{Direction: dir, Number: int(name[0] - '0')}, true
	}
	return nil, false
}

// parseMarkupArg reads the argument of \markup: markup commands and Scheme
// arguments up to the first braced block, string or word.
func (p *parser) parseMarkupArg() (string, error) {
	var parts []string
	for {
		tok := p.peek()
		switch tok.Type {
		case LBRACE:
			p.next()
			rbrace, err := p.skipToClose(tok)
			if err != nil {
				return "", err
			}
			parts = append(parts, p.src[tok.Pos:rbrace.End])
			return strings.Join(parts, " "), nil
		case STRING, WORD, NUMBER:
			p.next()
			parts = append(parts, p.raw(tok))
			return strings.Join(parts, " "), nil
		case COMMAND, SCHEME:
			p.next()
			parts = append(parts, p.raw(tok))
		default:
			return "", p.errorf(tok, "expected markup, found %s", describe(tok))
		}
	}
}

// parsePath reads a property path such as Staff.TimeSignature.font-size.
func (p *parser) parsePath() (string, error) {
	first, err := p.need(WORD, "property path")
	if err != nil {
		return "", err
	}
	end := first.End
	for {
		tok := p.peek()
		if tok.Space || (tok.Type != WORD && tok.Type != DOT && tok.Type != DASH) {
			break
		}
		p.next()
		end = tok.End
	}
	path := p.src[first.Pos:end]
	// old-style \override Stem #'direction
	if tok := p.peek(); tok.Type == SCHEME && strings.HasPrefix(tok.Text, "'") {
		p.next()
		path += " " + p.raw(tok)
	}
	return path, nil
}

func (p *parser) parseValue() (string, error) {
	tok := p.peek()
	switch tok.Type {
	case SCHEME, STRING, NUMBER, WORD:
		p.next()
		return p.raw(tok), nil
	case COMMAND:
		if tok.Text == "markup" {
			p.next()
			arg, err := p.parseMarkupArg()
			if err != nil {
				return "", err
			}
			return `\markup ` + arg, nil
		}
		p.next()
		return p.raw(tok), nil
	}
	return "", p.errorf(tok, "expected property value, found %s", describe(tok))
}

func (p *parser) parseFractionArg() (int, int, error) {
	n, err := p.number()
	if err != nil {
		return 0, 0, err
	}
	if _, err := p.need(SLASH, "'/'"); err != nil {
		return 0, 0, err
	}
	d, err := p.number()
	if err != nil {
		return 0, 0, err
	}
	return n, d, nil
}

func (p *parser) parseCommand() (Music, error) {
	tok := p.next()
	switch tok.Text {
	case "relative":
		var ref Music
		if p.atNoteName() {
			pitch, err := p.parsePitch()
			if err != nil {
				return nil, err
			}
			ref = NoteEvent{Pitch: pitch}
		}
		body, err := p.parseMusic()
		if err != nil {
			return nil, err
		}
		return Relative{Pitch: ref, Body: body}, nil

	case "fixed":
		pitch, err := p.parsePitch()
		if err != nil {
			return nil, err
		}
		body, err := p.parseMusic()
		if err != nil {
			return nil, err
		}
		return Fixed{Pitch: NoteEvent{Pitch: pitch}, Body: body}, nil

	case "transpose":
		from, err := p.parsePitch()
		if err != nil {
			return nil, err
		}
		to, err := p.parsePitch()
		if err != nil {
			return nil, err
		}
		body, err := p.parseMusic()
		if err != nil {
			return nil, err
		}
		return Transpose{From: NoteEvent{Pitch: from}, To: NoteEvent{Pitch: to}, Body: body}, nil

	case "tuplet", "times":
		n, d, err := p.parseFractionArg()
		if err != nil {
			return nil, err
		}
		t := Tuplet{Numerator: n, Denominator: d}
		if tok.Text == "times" {
			// \times 2/3 is \tuplet 3/2
			t.Numerator, t.Denominator = d, n
		} else if p.peek().Type == NUMBER {
			if t.Span, err = p.parseDuration(); err != nil {
				return nil, err
			}
		}
		if t.Body, err = p.parseMusic(); err != nil {
			return nil, err
		}
		return t, nil

	case "grace", "slashedGrace", "acciaccatura", "appoggiatura":
		body, err := p.parseMusic()
		if err != nil {
			return nil, err
		}
		switch tok.Text {
		case "acciaccatura":
			return Acciaccatura{Body: body}, nil
		case "appoggiatura":
			return Appoggiatura{Body: body}, nil
		}
		return Grace{Body: body}, nil

	case "afterGrace":
		ag := AfterGrace{}
		if p.peek().Type == NUMBER && p.peekAt(1).Type == SLASH {
			n, d, err := p.parseFractionArg()
			if err != nil {
				return nil, err
			}
			ag.Fraction = &Fraction{Num: n, Denom: d}
		}
		var err error
		if ag.Main, err = p.parseMusic(); err != nil {
			return nil, err
		}
		if ag.Grace, err = p.parseMusic(); err != nil {
			return nil, err
		}
		return ag, nil

	case "repeat":
		name, err := p.need(WORD, "repeat type")
		if err != nil {
			return nil, err
		}
		rt, ok := ParseRepeatType(name.Text)
		if !ok {
			return nil, p.errorf(name, "unknown repeat type %q", name.Text)
		}
		count, err := p.number()
		if err != nil {
			return nil, err
		}
		body, err := p.parseMusic()
		if err != nil {
			return nil, err
		}
		r := Repeat{Type: rt, Count: count, Body: body}
		if p.isCommand("alternative") {
			p.next()
			if _, err := p.need(LBRACE, "'{'"); err != nil {
				return nil, err
			}
			if r.Alternatives, err = p.parseItems(RBRACE); err != nil {
				return nil, err
			}
		}
		return r, nil

	case "new", "context":
		typ, err := p.need(WORD, "context type")
		if err != nil {
			return nil, err
		}
		cm := ContextedMusic{Keyword: tok.Text, Type: typ.Text}
		if p.peek().Type == EQUALS {
			p.next()
			name := p.next()
			if name.Type != STRING && name.Type != WORD {
				return nil, p.errorf(name, "expected context name, found %s", describe(name))
			}
			cm.Name = name.Text
		}
		if p.isCommand("with") {
			p.next()
			if cm.With, err = p.rawBlock(); err != nil {
				return nil, err
			}
		}
		if cm.Music, err = p.parseMusic(); err != nil {
			return nil, err
		}
		return cm, nil

	case "change":
		typ, err := p.need(WORD, "context type")
		if err != nil {
			return nil, err
		}
		if _, err := p.need(EQUALS, "'='"); err != nil {
			return nil, err
		}
		name := p.next()
		if name.Type != STRING && name.Type != WORD {
			return nil, p.errorf(name, "expected context name, found %s", describe(name))
		}
		return ContextChange{Type: typ.Text, Name: name.Text}, nil

	case "clef":
		name := p.next()
		if name.Type != STRING && name.Type != WORD {
			return nil, p.errorf(name, "expected clef name, found %s", describe(name))
		}
		return Clef{Name: name.Text}, nil

	case "key":
		pitch, err := p.parsePitch()
		if err != nil {
			return nil, err
		}
		mode := p.peek()
		if mode.Type != COMMAND || !keyModes[mode.Text] {
			return nil, p.errorf(mode, "expected key mode, found %s", describe(mode))
		}
		p.next()
		return KeySignature{Pitch: pitch, Mode: mode.Text}, nil

	case "time":
		var ts TimeSignature
		for {
			n, err := p.number()
			if err != nil {
				return nil, err
			}
			ts.Numerators = append(ts.Numerators, n)
			if p.peek().Type != PLUS {
				break
			}
			p.next()
		}
		if _, err := p.need(SLASH, "'/'"); err != nil {
			return nil, err
		}
		d, err := p.number()
		if err != nil {
			return nil, err
		}
		ts.Denominator = d
		return ts, nil

	case "tempo":
		return p.parseTempo(tok)

	case "mark":
		arg := p.peek()
		switch {
		case arg.Type == COMMAND && arg.Text == "default":
			p.next()
			return Mark{}, nil
		case arg.Type == COMMAND && arg.Text == "markup":
			p.next()
			text, err := p.parseMarkupArg()
			if err != nil {
				return nil, err
			}
			return Mark{Label: `\markup ` + text}, nil
		case arg.Type == NUMBER || arg.Type == STRING || arg.Type == SCHEME:
			p.next()
			return Mark{Label: p.raw(arg)}, nil
		}
		return nil, p.errorf(arg, "expected mark label, found %s", describe(arg))

	case "textMark":
		arg := p.peek()
		if arg.Type == STRING {
			p.next()
			return TextMark{Text: p.raw(arg)}, nil
		}
		if arg.Type == COMMAND && arg.Text == "markup" {
			p.next()
			text, err := p.parseMarkupArg()
			if err != nil {
				return nil, err
			}
			return TextMark{Text: `\markup ` + text}, nil
		}
		return nil, p.errorf(arg, "expected text mark, found %s", describe(arg))

	case "bar":
		s, err := p.need(STRING, "bar type")
		if err != nil {
			return nil, err
		}
		return BarLine{Type: s.Text}, nil

	case "autoBeamOn":
		return AutoBeamOn{}, nil
	case "autoBeamOff":
		return AutoBeamOff{}, nil

	case "override", "set":
		path, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(EQUALS, "'='"); err != nil {
			return nil, err
		}
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if tok.Text == "set" {
			return Set{Path: path, Value: value}, nil
		}
		return Override{Path: path, Value: value}, nil

	case "revert", "unset":
		path, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		if tok.Text == "unset" {
			return Unset{Path: path}, nil
		}
		return Revert{Path: path}, nil

	case "once":
		m, err := p.parseMusic()
		if err != nil {
			return nil, err
		}
		return Once{Music: m}, nil

	case "chordmode", "chords":
		body, err := p.withMode(chordMode, p.parseMusic)
		if err != nil {
			return nil, err
		}
		if tok.Text == "chords" {
			return ContextedMusic{Keyword: "new", Type: "ChordNames", Music: ChordMode{Body: body}}, nil
		}
		return ChordMode{Body: body}, nil

	case "drummode", "drums":
		body, err := p.withMode(drumMode, p.parseMusic)
		if err != nil {
			return nil, err
		}
		if tok.Text == "drums" {
			return ContextedMusic{Keyword: "new", Type: "DrumStaff", Music: DrumMode{Body: body}}, nil
		}
		return DrumMode{Body: body}, nil

	case "figuremode", "figures":
		body, err := p.withMode(figureMode, p.parseMusic)
		if err != nil {
			return nil, err
		}
		if tok.Text == "figures" {
			return ContextedMusic{Keyword: "new", Type: "FiguredBass", Music: FigureMode{Body: body}}, nil
		}
		return FigureMode{Body: body}, nil

	case "lyricmode", "lyrics":
		raw, err := p.rawBlock()
		if err != nil {
			return nil, err
		}
		if tok.Text == "lyrics" {
			return ContextedMusic{Keyword: "new", Type: "Lyrics", Music: LyricMode{Raw: raw}}, nil
		}
		return LyricMode{Raw: raw}, nil

	case "markup", "markuplist":
		text, err := p.parseMarkupArg()
		if err != nil {
			return nil, err
		}
		if tok.Text == "markuplist" {
			return MarkupList{Text: text}, nil
		}
		return Markup{Text: text}, nil

	case "partial":
		d, err := p.parseDuration()
		if err != nil {
			return nil, err
		}
		if d == nil {
			return nil, p.errorf(p.peek(), `expected duration after \partial`)
		}
		return MusicFunction{Name: tok.Text, Args: []string{d.String()}}, nil

	case "omit", "hide", "undo":
		path, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		return MusicFunction{Name: tok.Text, Args: []string{path}}, nil

	case "ottava", "barNumberCheck":
		arg := p.next()
		if arg.Type != NUMBER && arg.Type != SCHEME {
			return nil, p.errorf(arg, `expected argument to \%s, found %s`, tok.Text, describe(arg))
		}
		return MusicFunction{Name: tok.Text, Args: []string{p.raw(arg)}}, nil
	}

	if p.vars[tok.Text] {
		return Identifier{Name: tok.Text}, nil
	}
	if _, ok := commandPostEvent(tok.Text, Neutral); ok {
		return nil, p.errorf(tok, `\%s must follow a note`, tok.Text)
	}
	return MusicFunction{Name: tok.Text}, nil
}

func (p *parser) parseTempo(cmd Token) (Music, error) {
	var t Tempo
	switch tok := p.peek(); {
	case tok.Type == STRING:
		p.next()
		t.Text = p.raw(tok)
	case tok.Type == COMMAND && tok.Text == "markup":
		p.next()
		arg, err := p.parseMarkupArg()
		if err != nil {
			return nil, err
		}
		t.Text = `\markup ` + arg
	}
	if p.peek().Type == NUMBER {
		d, err := p.parseDuration()
		if err != nil {
			return nil, err
		}
		t.Duration = d
		if _, err := p.need(EQUALS, "'='"); err != nil {
			return nil, err
		}
		if t.BPM, err = p.number(); err != nil {
			return nil, err
		}
		if p.peek().Type == DASH {
			p.next()
			if t.BPMHigh, err = p.number(); err != nil {
				return nil, err
			}
		}
	}
	if t.Text == "" && t.Duration == nil {
		return nil, p.errorf(cmd, `\tempo needs text or a metronome mark`)
	}
	return t, nil
}
