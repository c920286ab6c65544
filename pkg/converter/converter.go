package converter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/james-see/ly2mei/pkg/lilypond"
	"github.com/james-see/ly2mei/pkg/mei"
	"github.com/remeh/sizedwaitgroup"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"
)

// Format represents a file format
type Format string

const (
	FormatLilyPond Format = "ly"
	FormatMEI      Format = "mei"
	FormatMIDI     Format = "midi"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatUnknown  Format = "unknown"
)

var (
	// ErrNoMusic is returned when a file holds no music expression.
	ErrNoMusic = errors.New("no music found")
	// ErrUnsupported is returned for a conversion path that does not exist.
	ErrUnsupported = errors.New("unsupported conversion")
)

// DetectFormat detects the format of a file based on extension
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".ly", ".ily", ".lytex":
		return FormatLilyPond
	case ".mei", ".xml":
		return FormatMEI
	case ".mid", ".midi":
		return FormatMIDI
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatUnknown
	}
}

// DetectFormatFromContent detects format from file content
func DetectFormatFromContent(data []byte) Format {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(data) < 4 {
		return FormatUnknown
	}

	// Check for MIDI file signature "MThd"
	if string(data[:4]) == "MThd" {
		return FormatMIDI
	}

	text := bytes.TrimSpace(data)
	switch {
	case bytes.HasPrefix(text, []byte("<?xml")), bytes.HasPrefix(text, []byte("<mei")):
		return FormatMEI
	case bytes.HasPrefix(text, []byte("{")), bytes.HasPrefix(text, []byte("[")):
		return FormatJSON
	case bytes.HasPrefix(text, []byte("- kind:")):
		return FormatYAML
	case bytes.Contains(text, []byte(`\version`)),
		bytes.Contains(text, []byte(`\relative`)),
		bytes.Contains(text, []byte(`\score`)),
		bytes.Contains(text, []byte(`\new`)),
		bytes.Contains(text, []byte(`\fixed`)):
		return FormatLilyPond
	}
	return FormatUnknown
}

// decodeSource strips a byte-order mark and converts UTF-16 input to UTF-8.
func decodeSource(data []byte) (string, error) {
	fallback := unicode.UTF8.NewDecoder()
	out, _, err := transform.Bytes(unicode.BOMOverride(fallback), data)
	if err != nil {
		return "", fmt.Errorf("failed to decode source: %w", err)
	}
	return string(out), nil
}

// Parse decodes and parses LilyPond source.
func (c *Converter) Parse(data []byte) (*lilypond.File, error) {
	src, err := decodeSource(data)
	if err != nil {
		return nil, err
	}
	f, err := lilypond.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse LilyPond: %w", err)
	}
	return f, nil
}

// Convert builds the MEI document for the first score of f.
func (c *Converter) Convert(f *lilypond.File) (*mei.MEI, error) {
	music := f.FirstMusic()
	if music == nil {
		return nil, ErrNoMusic
	}
	a := NewAssembler(c.newBuilder(), f.Variables())
	return &mei.MEI{Title: f.Title(), Score: a.Score(music)}, nil
}

// Events returns the event stream of the first score of f, voice by voice
// in document order.
func (c *Converter) Events(f *lilypond.File) ([]Event, error) {
	music := f.FirstMusic()
	if music == nil {
		return nil, ErrNoMusic
	}
	col := NewCollector(f.Variables())
	col.Collect(music, NewPitchContext())
	return col.Events(), nil
}

// ConvertToMEI converts LilyPond source to MEI XML.
func (c *Converter) ConvertToMEI(data []byte) ([]byte, error) {
	f, err := c.Parse(data)
	if err != nil {
		return nil, err
	}
	doc, err := c.Convert(f)
	if err != nil {
		return nil, err
	}
	return mei.Marshal(doc), nil
}

// ConvertToEvents converts LilyPond source to an event dump in JSON or
// YAML.
func (c *Converter) ConvertToEvents(data []byte, format Format) ([]byte, error) {
	f, err := c.Parse(data)
	if err != nil {
		return nil, err
	}
	events, err := c.Events(f)
	if err != nil {
		return nil, err
	}
	return EncodeEvents(events, format)
}

// EncodeEvents writes events as JSON or YAML records.
func EncodeEvents(events []Event, format Format) ([]byte, error) {
	records := Records(events)
	switch format {
	case FormatJSON:
		out, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode events: %w", err)
		}
		return append(out, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return nil, fmt.Errorf("failed to encode events: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode events: %w", err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: events as %s", ErrUnsupported, format)
}

// ConvertToMIDI converts LilyPond source to a Standard MIDI File.
func (c *Converter) ConvertToMIDI(data []byte) ([]byte, error) {
	f, err := c.Parse(data)
	if err != nil {
		return nil, err
	}
	music := f.FirstMusic()
	if music == nil {
		return nil, ErrNoMusic
	}
	a := NewAssembler(c.newBuilder(), f.Variables())
	return NewMIDIConverter().GenerateMIDI(a.Voices(music))
}

// ConvertStream reads LilyPond from r and writes the requested format to w.
func (c *Converter) ConvertStream(r io.Reader, w io.Writer, to Format) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	out, err := c.ConvertBytes(data, to)
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// ConvertBytes converts LilyPond source to the given output format.
func (c *Converter) ConvertBytes(data []byte, to Format) ([]byte, error) {
	switch to {
	case FormatMEI:
		return c.ConvertToMEI(data)
	case FormatMIDI:
		return c.ConvertToMIDI(data)
	case FormatJSON, FormatYAML:
		return c.ConvertToEvents(data, to)
	}
	return nil, fmt.Errorf("%w: %s to %s", ErrUnsupported, FormatLilyPond, to)
}

// ConvertFile converts a file from one format to another
func (c *Converter) ConvertFile(inputPath, outputPath string) error {
	inputFormat := DetectFormat(inputPath)
	outputFormat := DetectFormat(outputPath)

	// Read input
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	if inputFormat == FormatUnknown {
		// Try to detect from content
		inputFormat = DetectFormatFromContent(data)
	}
	if inputFormat != FormatLilyPond {
		return fmt.Errorf("%w: %s to %s", ErrUnsupported, inputFormat, outputFormat)
	}

	if outputFormat == FormatUnknown {
		return errors.New("cannot determine output format from filename")
	}

	outputData, err := c.ConvertBytes(data, outputFormat)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	// Write output
	if err := os.WriteFile(outputPath, outputData, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	return nil
}

// ConvertFiles converts each input next to itself, into the format named
// by ext, running at most jobs conversions at once. jobs < 1 means one per
// CPU. Results come back in input order.
func (c *Converter) ConvertFiles(inputs []string, ext string, jobs int) []ConversionResult {
	if jobs < 1 {
		jobs = runtime.NumCPU()
	}
	results := make([]ConversionResult, len(inputs))
	wg := sizedwaitgroup.New(jobs)
	for i, in := range inputs {
		wg.Add()
		go func(i int, in string) {
			defer wg.Done()
			out := strings.TrimSuffix(in, filepath.Ext(in)) + ext
			results[i] = ConversionResult{
				Filename: out,
				Format:   DetectFormat(out),
				Error:    c.ConvertFile(in, out),
			}
		}(i, in)
	}
	wg.Wait()
	return results
}

// GetSupportedConversions returns a list of supported conversion paths
func GetSupportedConversions() []string {
	return []string{
		"ly -> mei",
		"ly -> midi",
		"ly -> json",
		"ly -> yaml",
	}
}
