package lilypond

import (
	"fmt"
	"strconv"
	"strings"
)

// Special duration bases that are not powers of two in the written form.
const (
	BaseBreve = -1 // \breve
	BaseLonga = -2 // \longa
)

// Fraction is a rational number n/d used for multipliers and tuplet ratios.
type Fraction struct {
	Num   int
	Denom int
}

// Duration is a written LilyPond duration: base value, dots and multipliers.
type Duration struct {
	Base        int // 1, 2, 4, 8 ... or BaseBreve / BaseLonga
	Dots        int
	Multipliers []Fraction
}

// String renders the duration as LilyPond source, e.g. "8.", "4*2/3", "\breve".
func (d Duration) String() string {
	var b strings.Builder
	switch d.Base {
	case BaseBreve:
		b.WriteString(`\breve`)
	case BaseLonga:
		b.WriteString(`\longa`)
	default:
		b.WriteString(strconv.Itoa(d.Base))
	}
	b.WriteString(strings.Repeat(".", d.Dots))
	for _, m := range d.Multipliers {
		if m.Denom == 1 {
			fmt.Fprintf(&b, "*%d", m.Num)
		} else {
			fmt.Fprintf(&b, "*%d/%d", m.Num, m.Denom)
		}
	}
	return b.String()
}

// Length returns the duration as a fraction of a whole note.
func (d Duration) Length() Fraction {
	num, den := 1, 1
	switch d.Base {
	case BaseBreve:
		num = 2
	case BaseLonga:
		num = 4
	default:
		if d.Base > 0 {
			den = d.Base
		}
	}
	// each dot adds half of the previous value: total = (2^(n+1)-1)/2^n
	if d.Dots > 0 {
		num *= (1 << (d.Dots + 1)) - 1
		den *= 1 << d.Dots
	}
	for _, m := range d.Multipliers {
		if m.Denom == 0 {
			continue
		}
		num *= m.Num
		den *= m.Denom
	}
	return Fraction{Num: num, Denom: den}.Reduce()
}

// Reduce returns the fraction in lowest terms.
func (f Fraction) Reduce() Fraction {
	if f.Denom == 0 {
		return f
	}
	g := gcd(abs(f.Num), abs(f.Denom))
	if g == 0 {
		return f
	}
	return Fraction{Num: f.Num / g, Denom: f.Denom / g}
}

// String renders the fraction as n/d.
func (f Fraction) String() string {
	return fmt.Sprintf("%d/%d", f.Num, f.Denom)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// MarshalText encodes the duration in LilyPond notation.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
