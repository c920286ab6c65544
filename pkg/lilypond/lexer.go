package lilypond

import (
	"fmt"
	"strings"
	"unicode"
)

// TokenType represents the kind of token.
type TokenType int

const (
	EOF TokenType = iota
	ILLEGAL

	// Punctuation
	LBRACE     // {
	RBRACE     // }
	DLT        // <<
	DGT        // >>
	LT         // <
	GT         // >
	LBRACKET   // [
	RBRACKET   // ]
	LPAREN     // (
	RPAREN     // )
	TILDE      // ~
	PIPE       // |
	EQUALS     // =
	DASH       // -
	CARET      // ^
	UNDERSCORE // _
	DOT        // .
	STAR       // *
	SLASH      // /
	COLON      // :
	PLUS       // +
	COMMA      // ,
	QUOTE      // '
	BANG       // !
	QUESTION   // ?

	// Literals
	WORD    // cis, Staff, volta
	NUMBER  // 4, 16
	STRING  // "text", unquoted in Text
	COMMAND // \relative, \( ; Text holds the name without backslash
	SCHEME  // #(...), Text holds the expression without #
)

var tokenNames = map[TokenType]string{
	EOF: "end of input", ILLEGAL: "illegal character",
	LBRACE: "'{'", RBRACE: "'}'", DLT: "'<<'", DGT: "'>>'", LT: "'<'", GT: "'>'",
	LBRACKET: "'['", RBRACKET: "']'", LPAREN: "'('", RPAREN: "')'",
	TILDE: "'~'", PIPE: "'|'", EQUALS: "'='", DASH: "'-'", CARET: "'^'",
	UNDERSCORE: "'_'", DOT: "'.'", STAR: "'*'", SLASH: "'/'", COLON: "':'",
	PLUS: "'+'", COMMA: "','", QUOTE: "'''", BANG: "'!'", QUESTION: "'?'",
	WORD: "word", NUMBER: "number", STRING: "string", COMMAND: "command",
	SCHEME: "scheme expression",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Token is a lexical token with its position in the source.
type Token struct {
	Type  TokenType
	Text  string
	Pos   int // byte offset of the first character
	End   int // byte offset after the last character
	Line  int
	Col   int
	Space bool // preceded by whitespace or a comment
}

// SyntaxError reports a lexing or parsing problem at a source position.
type SyntaxError struct {
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Col, e.Msg)
}

var punctuation = map[byte]TokenType{
	'{': LBRACE, '}': RBRACE, '[': LBRACKET, ']': RBRACKET,
	'(': LPAREN, ')': RPAREN, '~': TILDE, '|': PIPE, '=': EQUALS,
	'-': DASH, '^': CARET, '_': UNDERSCORE, '.': DOT, '*': STAR,
	'/': SLASH, ':': COLON, '+': PLUS, ',': COMMA, '\'': QUOTE,
	'!': BANG, '?': QUESTION,
}

type lexer struct {
	src   string
	pos   int
	line  int
	col   int
	space bool
}

// Lex splits LilyPond source into tokens. The final token is always EOF.
func Lex(src string) ([]Token, error) {
	lx := &lexer{src: src, line: 1, col: 1}
	var toks []Token
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Type == EOF {
			return toks, nil
		}
	}
}

func (lx *lexer) peekByte(off int) byte {
	if lx.pos+off < len(lx.src) {
		return lx.src[lx.pos+off]
	}
	return 0
}

func (lx *lexer) advance(n int) {
	for i := 0; i < n && lx.pos < len(lx.src); i++ {
		if lx.src[lx.pos] == '\n' {
			lx.line++
			lx.col = 1
		} else {
			lx.col++
		}
		lx.pos++
	}
}

func (lx *lexer) errorf(format string, args ...any) error {
	return &SyntaxError{Line: lx.line, Col: lx.col, Msg: fmt.Sprintf(format, args...)}
}

func (lx *lexer) skipBlank() error {
	lx.space = false
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			lx.advance(1)
			lx.space = true
		case c == '%' && lx.peekByte(1) == '{':
			end := strings.Index(lx.src[lx.pos+2:], "%}")
			if end < 0 {
				return lx.errorf("unterminated block comment")
			}
			lx.advance(end + 4)
			lx.space = true
		case c == '%':
			for lx.pos < len(lx.src) && lx.src[lx.pos] != '\n' {
				lx.advance(1)
			}
			lx.space = true
		default:
			return nil
		}
	}
	return nil
}

func (lx *lexer) next() (Token, error) {
	if err := lx.skipBlank(); err != nil {
		return Token{}, err
	}
	tok := Token{Pos: lx.pos, Line: lx.line, Col: lx.col, Space: lx.space}
	if lx.pos >= len(lx.src) {
		tok.Type = EOF
		tok.End = lx.pos
		return tok, nil
	}

	c := lx.src[lx.pos]
	switch {
	case c == '<' && lx.peekByte(1) == '<':
		tok.Type = DLT
		lx.advance(2)
	case c == '>' && lx.peekByte(1) == '>':
		tok.Type = DGT
		lx.advance(2)
	case c == '<':
		tok.Type = LT
		lx.advance(1)
	case c == '>':
		tok.Type = GT
		lx.advance(1)
	case c == '"':
		s, err := lx.readString()
		if err != nil {
			return Token{}, err
		}
		tok.Type = STRING
		tok.Text = s
	case c == '\\':
		tok.Type = COMMAND
		tok.Text = lx.readCommand()
	case c == '#':
		expr, err := lx.readScheme()
		if err != nil {
			return Token{}, err
		}
		tok.Type = SCHEME
		tok.Text = expr
	case c >= '0' && c <= '9':
		start := lx.pos
		for lx.pos < len(lx.src) && lx.src[lx.pos] >= '0' && lx.src[lx.pos] <= '9' {
			lx.advance(1)
		}
		tok.Type = NUMBER
		tok.Text = lx.src[start:lx.pos]
	case isLetter(c):
		start := lx.pos
		for lx.pos < len(lx.src) && isLetter(lx.src[lx.pos]) {
			lx.advance(1)
		}
		tok.Type = WORD
		tok.Text = lx.src[start:lx.pos]
	default:
		tt, ok := punctuation[c]
		if !ok {
			tok.Type = ILLEGAL
			tok.Text = string(c)
			lx.advance(1)
			break
		}
		tok.Type = tt
		tok.Text = string(c)
		lx.advance(1)
	}
	tok.End = lx.pos
	return tok, nil
}

func isLetter(c byte) bool {
	return c < 0x80 && unicode.IsLetter(rune(c))
}

func (lx *lexer) readString() (string, error) {
	lx.advance(1) // opening quote
	var b strings.Builder
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch c {
		case '"':
			lx.advance(1)
			return b.String(), nil
		case '\\':
			n := lx.peekByte(1)
			switch n {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(n)
			}
			lx.advance(2)
		default:
			b.WriteByte(c)
			lx.advance(1)
		}
	}
	return "", lx.errorf("unterminated string")
}

// readCommand reads \name, or a single-character command such as \( \) \<
// \> \! \\ or a string number \1.
func (lx *lexer) readCommand() string {
	lx.advance(1) // backslash
	start := lx.pos
	if lx.pos < len(lx.src) && isLetter(lx.src[lx.pos]) {
		for lx.pos < len(lx.src) {
			c := lx.src[lx.pos]
			// \override-style names allow internal hyphens: \stemUp, \shape-foo
			if isLetter(c) || (c == '-' && isLetter(lx.peekByte(1))) {
				lx.advance(1)
				continue
			}
			break
		}
		return lx.src[start:lx.pos]
	}
	if lx.pos < len(lx.src) {
		lx.advance(1)
	}
	return lx.src[start:lx.pos]
}

// readScheme reads a Scheme expression after #: a parenthesised form, a
// quoted form, a string or an atom.
func (lx *lexer) readScheme() (string, error) {
	lx.advance(1) // #
	start := lx.pos
	if err := lx.readSchemeDatum(); err != nil {
		return "", err
	}
	return lx.src[start:lx.pos], nil
}

func (lx *lexer) readSchemeDatum() error {
	if lx.pos >= len(lx.src) {
		return lx.errorf("empty scheme expression")
	}
	switch c := lx.src[lx.pos]; c {
	case '\'', '`', ',', '#':
		lx.advance(1)
		return lx.readSchemeDatum()
	case '"':
		_, err := lx.readString()
		return err
	case '(':
		depth := 0
		for lx.pos < len(lx.src) {
			switch lx.src[lx.pos] {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					lx.advance(1)
					return nil
				}
			case '"':
				if _, err := lx.readString(); err != nil {
					return err
				}
				continue
			}
			lx.advance(1)
		}
		return lx.errorf("unbalanced scheme expression")
	default:
		for lx.pos < len(lx.src) {
			c := lx.src[lx.pos]
			if c == ' ' || c == '\t' || c == '\n' || c == '\r' || strings.IndexByte("{}()<>\"", c) >= 0 {
				break
			}
			lx.advance(1)
		}
		return nil
	}
}
