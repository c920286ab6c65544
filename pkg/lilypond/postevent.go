package lilypond

// Direction is the placement prefix of a post-event: ^ up, _ down, - neutral.
type Direction int

const (
	Neutral Direction = iota
	Up
	Down
)

// String returns "up", "down" or "".
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	}
	return ""
}

// PostEvent is something attached after a note, chord or rest.
type PostEvent interface {
	isPostEvent()
}

type (
	// Tie is ~.
	Tie struct{}
	// SlurStart is (.
	SlurStart struct{}
	// SlurEnd is ).
	SlurEnd struct{}
	// PhrasingSlurStart is \(.
	PhrasingSlurStart struct{}
	// PhrasingSlurEnd is \).
	PhrasingSlurEnd struct{}
	// BeamStart is [.
	BeamStart struct{}
	// BeamEnd is ].
	BeamEnd struct{}
	// Crescendo is \<.
	Crescendo struct{}
	// Decrescendo is \>.
	Decrescendo struct{}
	// HairpinEnd is \!.
	HairpinEnd struct{}
)

// Dynamic is an absolute dynamic such as \p or \sfz.
type Dynamic struct {
	Name string
}

// Articulation is a script abbreviation such as -. or ->.
type Articulation struct {
	Direction Direction
	Script    rune // the character after the direction prefix
}

// Name maps the script abbreviation to its articulation name.
func (a Articulation) Name() string {
	if name, ok := scriptAbbreviations[a.Script]; ok {
		return name
	}
	return string(a.Script)
}

var scriptAbbreviations = map[rune]string{
	'.': "staccato",
	'-': "tenuto",
	'>': "accent",
	'^': "marcato",
	'+': "stopped",
	'!': "staccatissimo",
	'_': "portato",
}

// NamedArticulation is a backslash script such as \trill or \fermata.
type NamedArticulation struct {
	Direction Direction
	Name      string
}

// Fingering is a digit after a direction prefix, e.g. -3.
type Fingering struct {
	Direction Direction
	Digit     int
}

// StringNumber is \1 .. \9.
type StringNumber struct {
	Direction Direction
	Number    int
}

// Tremolo is :N after a note. Value 0 means a bare colon.
type Tremolo struct {
	Value int
}

// TextScript is a quoted string or markup after a direction prefix.
type TextScript struct {
	Direction Direction
	Text      string // serialized LilyPond text, quotes included
}

func (Tie) isPostEvent()               {}
func (SlurStart) isPostEvent()         {}
func (SlurEnd) isPostEvent()           {}
func (PhrasingSlurStart) isPostEvent() {}
func (PhrasingSlurEnd) isPostEvent()   {}
func (BeamStart) isPostEvent()         {}
func (BeamEnd) isPostEvent()           {}
func (Crescendo) isPostEvent()         {}
func (Decrescendo) isPostEvent()       {}
func (HairpinEnd) isPostEvent()        {}
func (Dynamic) isPostEvent()           {}
func (Articulation) isPostEvent()      {}
func (NamedArticulation) isPostEvent() {}
func (Fingering) isPostEvent()         {}
func (StringNumber) isPostEvent()      {}
func (Tremolo) isPostEvent()           {}
func (TextScript) isPostEvent()        {}

// KnownDynamics lists the dynamic marks recognised after a backslash.
var KnownDynamics = map[string]bool{
	"ppppp": true, "pppp": true, "ppp": true, "pp": true, "p": true,
	"mp": true, "mf": true,
	"f": true, "ff": true, "fff": true, "ffff": true, "fffff": true,
	"fp": true, "sf": true, "sff": true, "sp": true, "spp": true,
	"sfz": true, "rfz": true, "fz": true, "sfp": true,
}

// KnownArticulations lists the named scripts recognised after a backslash.
var KnownArticulations = map[string]bool{
	"accent": true, "espressivo": true, "marcato": true, "portato": true,
	"staccatissimo": true, "staccato": true, "tenuto": true,
	"prallmordent": true, "prallprall": true, "prall": true, "mordent": true,
	"upprall": true, "downprall": true, "upmordent": true, "downmordent": true,
	"pralldown": true, "prallup": true, "lineprall": true,
	"trill": true, "turn": true, "reverseturn": true, "haydnturn": true,
	"shortfermata": true, "fermata": true, "longfermata": true,
	"verylongfermata": true, "henzeshortfermata": true, "henzelongfermata": true,
	"upbow": true, "downbow": true, "flageolet": true, "open": true,
	"halfopen": true, "snappizzicato": true, "stopped": true, "thumb": true,
	"lheel": true, "rheel": true, "ltoe": true, "rtoe": true,
	"segno": true, "coda": true, "varcoda": true, "signumcongruentiae": true,
}
