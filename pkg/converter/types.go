// Package converter turns LilyPond music into MEI, a flat event stream or
// a Standard MIDI File.
package converter

// Options configures a conversion.
type Options struct {
	IDPrefix       string // first segment of every xml:id
	LabelNamespace string // namespace of every round-trip label
}

// Option adjusts Options.
type Option func(*Options)

// WithIDPrefix sets the xml:id prefix.
func WithIDPrefix(prefix string) Option {
	return func(o *Options) { o.IDPrefix = prefix }
}

// WithLabelNamespace sets the label namespace.
func WithLabelNamespace(ns string) Option {
	return func(o *Options) { o.LabelNamespace = ns }
}

// ConversionResult holds the result of a conversion
type ConversionResult struct {
	Data     []byte
	Filename string
	Format   Format
	Error    error
}

// Converter handles format conversions
type Converter struct {
	opts Options
}

// New creates a new Converter
func New(opts ...Option) *Converter {
	o := Options{IDPrefix: DefaultIDPrefix, LabelNamespace: DefaultLabelNamespace}
	for _, opt := range opts {
		opt(&o)
	}
	if o.IDPrefix == "" {
		o.IDPrefix = DefaultIDPrefix
	}
	if o.LabelNamespace == "" {
		o.LabelNamespace = DefaultLabelNamespace
	}
	return &Converter{opts: o}
}

// Options returns the options in effect.
func (c *Converter) Options() Options {
	return c.opts
}

// newBuilder starts a fresh id sequence for one conversion.
func (c *Converter) newBuilder() *Builder {
	return NewBuilder(NewIDGen(c.opts.IDPrefix), c.opts.LabelNamespace)
}
