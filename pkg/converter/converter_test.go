package converter

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		expected Format
	}{
		{"test.ly", FormatLilyPond},
		{"test.ily", FormatLilyPond},
		{"test.mei", FormatMEI},
		{"test.mid", FormatMIDI},
		{"test.midi", FormatMIDI},
		{"test.json", FormatJSON},
		{"test.YML", FormatYAML},
		{"test.txt", FormatUnknown},
		{"test", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			result := DetectFormat(tt.filename)
			if result != tt.expected {
				t.Errorf("DetectFormat(%q) = %v, want %v", tt.filename, result, tt.expected)
			}
		})
	}
}

func TestDetectFormatFromContent(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected Format
	}{
		{"MIDI file", []byte("MThd\x00\x00\x00\x06"), FormatMIDI},
		{"MEI document", []byte(`<?xml version="1.0"?><mei/>`), FormatMEI},
		{"LilyPond", []byte(`\version "2.24.0" { c }`), FormatLilyPond},
		{"LilyPond with BOM", []byte("\xef\xbb\xbf\\relative { c }"), FormatLilyPond},
		{"JSON dump", []byte(`[{"kind":"note"}]`), FormatJSON},
		{"Short data", []byte{0x00, 0x01}, FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DetectFormatFromContent(tt.data)
			if result != tt.expected {
				t.Errorf("DetectFormatFromContent() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestConverterNew(t *testing.T) {
	conv := New()
	if conv == nil {
		t.Fatal("New() returned nil")
	}
	if opts := conv.Options(); opts.IDPrefix != DefaultIDPrefix || opts.LabelNamespace != DefaultLabelNamespace {
		t.Errorf("default Options() = %+v", opts)
	}

	conv = New(WithIDPrefix("x"), WithLabelNamespace("ly"))
	if opts := conv.Options(); opts.IDPrefix != "x" || opts.LabelNamespace != "ly" {
		t.Errorf("Options() = %+v, want x, ly", opts)
	}

	conv = New(WithIDPrefix(""))
	if conv.Options().IDPrefix != DefaultIDPrefix {
		t.Error("empty prefix did not fall back to the default")
	}
}

func TestConvertToMEI(t *testing.T) {
	src := `\header { title = "Etude" }
\relative c'' { \clef treble \key g \major c4\fermata d8-> e }`

	out, err := New(WithIDPrefix("et")).ConvertToMEI([]byte(src))
	if err != nil {
		t.Fatalf("ConvertToMEI() failed: %v", err)
	}

	dec := xml.NewDecoder(bytes.NewReader(out))
	counts := map[string]int{}
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		if se, ok := tok.(xml.StartElement); ok {
			counts[se.Name.Local]++
		}
	}
	for name, want := range map[string]int{"note": 3, "fermata": 1, "dir": 1, "staffDef": 1, "title": 1} {
		if counts[name] != want {
			t.Errorf("<%s> count = %d, want %d", name, counts[name], want)
		}
	}

	for _, s := range []string{`xml:id="et-note-1"`, `keysig="1s"`, "Etude", `label="lilypond:artic,accent"`} {
		if !bytes.Contains(out, []byte(s)) {
			t.Errorf("output lacks %s", s)
		}
	}
}

func TestConvertNoMusic(t *testing.T) {
	_, err := New().ConvertToMEI([]byte(`\version "2.24.0"`))
	if !errors.Is(err, ErrNoMusic) {
		t.Errorf("ConvertToMEI() error = %v, want ErrNoMusic", err)
	}
}

func TestConvertParseError(t *testing.T) {
	if _, err := New().ConvertToMEI([]byte(`{ c4^"oops }`)); err == nil {
		t.Error("ConvertToMEI() succeeded on broken input")
	}
}

func TestConvertToEvents(t *testing.T) {
	src := []byte(`\relative c' { c4 <e g>8 q }`)

	out, err := New().ConvertToEvents(src, FormatJSON)
	if err != nil {
		t.Fatalf("ConvertToEvents(json) failed: %v", err)
	}
	var records []struct {
		Kind  string          `json:"kind"`
		Event json.RawMessage `json:"event"`
	}
	if err := json.Unmarshal(out, &records); err != nil {
		t.Fatalf("json output does not decode: %v", err)
	}
	wantKinds := []string{"note", "chord", "chord-repetition"}
	if len(records) != len(wantKinds) {
		t.Fatalf("got %d records, want %d", len(records), len(wantKinds))
	}
	for i, want := range wantKinds {
		if records[i].Kind != want {
			t.Errorf("record %d kind = %q, want %q", i, records[i].Kind, want)
		}
	}
	if !bytes.Contains(records[0].Event, []byte(`"c'"`)) {
		t.Errorf("note record = %s", records[0].Event)
	}

	out, err = New().ConvertToEvents(src, FormatYAML)
	if err != nil {
		t.Fatalf("ConvertToEvents(yaml) failed: %v", err)
	}
	var generic []map[string]interface{}
	if err := yaml.Unmarshal(out, &generic); err != nil {
		t.Fatalf("yaml output does not decode: %v", err)
	}
	if len(generic) != 3 || generic[1]["kind"] != "chord" {
		t.Errorf("yaml records = %v", generic)
	}

	if _, err := New().ConvertToEvents(src, FormatMIDI); !errors.Is(err, ErrUnsupported) {
		t.Errorf("ConvertToEvents(midi) error = %v, want ErrUnsupported", err)
	}
}

func TestPostEventsMarshal(t *testing.T) {
	src := []byte(`{ c'4( d') }`)
	for _, f := range []Format{FormatJSON, FormatYAML} {
		out, err := New().ConvertToEvents(src, f)
		if err != nil {
			t.Fatalf("ConvertToEvents(%s) failed: %v", f, err)
		}
		if !bytes.Contains(out, []byte("postEvents")) {
			t.Errorf("%s output has no postEvents:\n%s", f, out)
		}
	}

	data, err := json.Marshal(PostEvents(nil))
	if err != nil || string(data) != "[]" {
		t.Errorf("json.Marshal(nil PostEvents) = %s, %v, want []", data, err)
	}
}

func TestDecodeSource(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"utf-8", []byte("{ c }")},
		{"utf-8 bom", []byte("\xef\xbb\xbf{ c }")},
		{"utf-16le bom", []byte{0xff, 0xfe, '{', 0, ' ', 0, 'c', 0, ' ', 0, '}', 0}},
		{"utf-16be bom", []byte{0xfe, 0xff, 0, '{', 0, ' ', 0, 'c', 0, ' ', 0, '}'}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeSource(tt.data)
			if err != nil {
				t.Fatalf("decodeSource() failed: %v", err)
			}
			if got != "{ c }" {
				t.Errorf("decodeSource() = %q, want %q", got, "{ c }")
			}
		})
	}
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "tune.ly")
	if err := os.WriteFile(in, []byte(`{ c'4 d' }`), 0644); err != nil {
		t.Fatal(err)
	}

	conv := New()
	for _, name := range []string{"tune.mei", "tune.mid", "tune.json", "tune.yaml"} {
		out := filepath.Join(dir, name)
		if err := conv.ConvertFile(in, out); err != nil {
			t.Errorf("ConvertFile(%s) failed: %v", name, err)
			continue
		}
		if info, err := os.Stat(out); err != nil || info.Size() == 0 {
			t.Errorf("ConvertFile(%s) wrote nothing", name)
		}
	}

	if err := conv.ConvertFile(in, filepath.Join(dir, "tune.txt")); err == nil {
		t.Error("ConvertFile() to .txt succeeded, want error")
	}
	if err := conv.ConvertFile(filepath.Join(dir, "missing.ly"), filepath.Join(dir, "x.mei")); err == nil {
		t.Error("ConvertFile() of a missing file succeeded, want error")
	}
}

func TestConvertStream(t *testing.T) {
	var buf bytes.Buffer
	if err := New().ConvertStream(strings.NewReader(`{ c'4 }`), &buf, FormatMEI); err != nil {
		t.Fatalf("ConvertStream() failed: %v", err)
	}
	if !strings.Contains(buf.String(), "<note") {
		t.Errorf("ConvertStream() output lacks a note: %s", buf.String())
	}
}

func TestGetSupportedConversions(t *testing.T) {
	conversions := GetSupportedConversions()

	expected := []string{
		"ly -> mei",
		"ly -> midi",
		"ly -> json",
		"ly -> yaml",
	}
	if len(conversions) != len(expected) {
		t.Fatalf("GetSupportedConversions() returned %d conversions, want %d", len(conversions), len(expected))
	}
	for i, exp := range expected {
		if conversions[i] != exp {
			t.Errorf("conversions[%d] = %q, want %q", i, conversions[i], exp)
		}
	}
}

func TestConvertFiles(t *testing.T) {
	dir := t.TempDir()
	var inputs []string
	for _, name := range []string{"a.ly", "b.ly", "c.ly"} {
		in := filepath.Join(dir, name)
		if err := os.WriteFile(in, []byte(`{ c'4 e' }`), 0644); err != nil {
			t.Fatal(err)
		}
		inputs = append(inputs, in)
	}
	inputs = append(inputs, filepath.Join(dir, "missing.ly"))

	results := New().ConvertFiles(inputs, ".mei", 2)
	if len(results) != len(inputs) {
		t.Fatalf("got %d results, want %d", len(results), len(inputs))
	}
	for i, res := range results[:3] {
		if res.Error != nil {
			t.Errorf("ConvertFiles()[%d] failed: %v", i, res.Error)
		}
		if res.Format != FormatMEI || filepath.Ext(res.Filename) != ".mei" {
			t.Errorf("ConvertFiles()[%d] = %+v", i, res)
		}
		if _, err := os.Stat(res.Filename); err != nil {
			t.Errorf("output %s missing: %v", res.Filename, err)
		}
	}
	if results[3].Error == nil {
		t.Error("ConvertFiles() of a missing input succeeded")
	}
}
