package converter

import "fmt"

// DefaultIDPrefix is the first segment of every generated xml:id.
const DefaultIDPrefix = "ly"

// IDGen hands out xml:ids of the form prefix-kind-n. A single counter is
// shared by every kind, so ids are unique within one conversion.
type IDGen struct {
	prefix string
	n      int
}

// NewIDGen returns a generator; an empty prefix means DefaultIDPrefix.
func NewIDGen(prefix string) *IDGen {
	if prefix == "" {
		prefix = DefaultIDPrefix
	}
	return &IDGen{prefix: prefix}
}

// Next increments the counter and returns the new id.
func (g *IDGen) Next(kind string) string {
	g.n++
	return fmt.Sprintf("%s-%s-%d", g.prefix, kind, g.n)
}

// Count returns how many ids have been issued.
func (g *IDGen) Count() int {
	return g.n
}
