package converter

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/james-see/ly2mei/pkg/lilypond"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const drumChannel = 9

// General MIDI percussion keys for the common drum-mode names.
var drumKeys = map[string]uint8{
	"bd": 36, "bassdrum": 36, "ss": 37, "sidestick": 37,
	"sn": 38, "snare": 38, "hc": 39, "handclap": 39,
	"hh": 42, "hihat": 42, "hhc": 42, "closedhihat": 42,
	"hhp": 44, "pedalhihat": 44, "hho": 46, "openhihat": 46,
	"tomfl": 41, "tomfh": 43, "toml": 45, "tomml": 47,
	"tommh": 48, "tomh": 50, "cymc": 49, "crashcymbal": 49,
	"cymr": 51, "ridecymbal": 51, "cymch": 52, "chinesecymbal": 52,
	"rb": 53, "ridebell": 53, "tamb": 54, "tambourine": 54,
	"cyms": 55, "splashcymbal": 55, "cb": 56, "cowbell": 56,
}

var dynamicVelocities = map[string]uint8{
	"ppppp": 8, "pppp": 12, "ppp": 16, "pp": 33, "p": 49, "mp": 64,
	"mf": 80, "f": 96, "ff": 112, "fff": 120, "ffff": 124, "fffff": 127,
	"sf": 112, "sfz": 112, "fz": 112, "rfz": 112,
}

const defaultVelocity = 80

// MIDIConverter handles MIDI file generation from voices
type MIDIConverter struct {
	ticksPerQuarter uint16
	tempo           float64
}

// NewMIDIConverter creates a new MIDI converter
func NewMIDIConverter() *MIDIConverter {
	return &MIDIConverter{
		ticksPerQuarter: 480,
		tempo:           120.0,
	}
}

// MIDIKey returns the MIDI key number of a resolved pitch; middle C is 60.
// Quarter tones round to the nearest semitone.
func MIDIKey(p lilypond.Pitch) int {
	semis := [7]int{0, 2, 4, 5, 7, 9, 11}[lilypond.StepIndex(p.Step)]
	return 12*(p.AbsoluteOctave()+1) + semis + int(math.Round(p.Alter))
}

type timedMessage struct {
	tick uint32
	off  bool
	msg  smf.Message
}

// voiceTrack turns one voice into absolute-tick note messages. Tied notes
// of the same key are merged into one.
type voiceTrack struct {
	tpq      float64
	channel  uint8
	velocity uint8
	clk      *clock
	held     map[uint8]bool
	messages []timedMessage
}

func (v *voiceTrack) ticks(pos float64) uint32 {
	return uint32(math.Round(pos * 4 * v.tpq))
}

func (v *voiceTrack) sound(keys []uint8, d *lilypond.Duration, pe PostEvents) {
	for _, p := range pe {
		if dyn, ok := p.(lilypond.Dynamic); ok {
			if vel, ok := dynamicVelocities[dyn.Name]; ok {
				v.velocity = vel
			}
		}
	}
	start, length := v.clk.advance(d)
	if length == 0 {
		return
	}
	tied := pe.Has(lilypond.Tie{})
	on, off := v.ticks(start), v.ticks(start+length)
	next := make(map[uint8]bool)
	for _, k := range keys {
		if !v.held[k] {
			v.messages = append(v.messages, timedMessage{tick: on, msg: smf.Message(midi.NoteOn(v.channel, k, v.velocity))})
		}
		if tied {
			next[k] = true
			continue
		}
		v.messages = append(v.messages, timedMessage{tick: off, off: true, msg: smf.Message(midi.NoteOff(v.channel, k))})
	}
	// a tie to a different pitch ends the held note
	for k := range v.held {
		if !next[k] && !contains(keys, k) {
			v.messages = append(v.messages, timedMessage{tick: on, off: true, msg: smf.Message(midi.NoteOff(v.channel, k))})
		}
	}
	v.held = next
}

func (v *voiceTrack) rest(d *lilypond.Duration) {
	start, _ := v.clk.advance(d)
	for k := range v.held {
		v.messages = append(v.messages, timedMessage{tick: v.ticks(start), off: true, msg: smf.Message(midi.NoteOff(v.channel, k))})
	}
	v.held = nil
}

func contains(keys []uint8, k uint8) bool {
	for _, x := range keys {
		if x == k {
			return true
		}
	}
	return false
}

func clampKey(k int) uint8 {
	switch {
	case k < 0:
		return 0
	case k > 127:
		return 127
	}
	return uint8(k)
}

func pitchKeys(ps []lilypond.Pitch) []uint8 {
	keys := make([]uint8, 0, len(ps))
	for _, p := range ps {
		keys = append(keys, clampKey(MIDIKey(p)))
	}
	return keys
}

func (v *voiceTrack) event(e Event) {
	v.clk.observe(e)
	switch ev := e.(type) {
	case Note:
		v.sound(pitchKeys([]lilypond.Pitch{ev.Pitch}), ev.Duration, ev.PostEvents)
	case Chord:
		v.sound(pitchKeys(ev.Pitches), ev.Duration, ev.PostEvents)
	case ChordRepetition:
		v.sound(pitchKeys(ev.Pitches), ev.Duration, ev.PostEvents)
	case DrumEvent:
		var keys []uint8
		if k, ok := drumKeys[ev.Note.Name]; ok {
			keys = append(keys, k)
		}
		v.sound(keys, ev.Note.Duration, ev.Note.PostEvents)
	case DrumChordEvent:
		var keys []uint8
		for _, name := range ev.Chord.Names {
			if k, ok := drumKeys[name]; ok {
				keys = append(keys, k)
			}
		}
		v.sound(keys, ev.Chord.Duration, ev.Chord.PostEvents)
	case Rest:
		v.rest(ev.Duration)
	case PitchedRest:
		v.rest(ev.Duration)
	case MultiMeasureRest:
		v.rest(ev.Duration)
	case Skip:
		v.rest(ev.Duration)
	}
}

// GenerateMIDI creates a type 1 Standard MIDI File with a conductor track
// and one track per voice. Each staff plays on its own channel; drum
// staves use channel 10.
func (m *MIDIConverter) GenerateMIDI(voices []Voice) ([]byte, error) {
	if len(voices) == 0 {
		return nil, errors.New("no voices")
	}

	tempo := m.tempo
	num, den := 4, 4
	tempoSet, meterSet := false, false
	for _, v := range voices {
		for _, e := range v.Events {
			switch ev := e.(type) {
			case Tempo:
				if !tempoSet && ev.Value.BPM > 0 && ev.Value.Duration != nil {
					l := ev.Value.Duration.Length()
					// BPM counts the written unit; convert to quarter notes
					tempo = float64(ev.Value.BPM) * float64(l.Num) * 4 / float64(l.Denom)
					tempoSet = true
				}
			case TimeSignature:
				if !meterSet && ev.Denominator > 0 {
					num = 0
					for _, n := range ev.Numerators {
						num += n
					}
					den = ev.Denominator
					meterSet = true
				}
			}
		}
	}
	if tempo <= 0 {
		tempo = 120.0
	}

	// Create SMF
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(m.ticksPerQuarter)

	var conductor smf.Track

	// Add tempo meta event
	microsecondsPerBeat := uint32(60000000.0 / tempo)
	tempoData := smf.Message([]byte{
		0xFF, 0x51, 0x03,
		byte(microsecondsPerBeat >> 16),
		byte(microsecondsPerBeat >> 8),
		byte(microsecondsPerBeat),
	})
	conductor.Add(0, tempoData)

	// Add time signature
	timeSigData := smf.Message([]byte{0xFF, 0x58, 0x04, byte(num), byte(meterPower(den)), 0x18, 0x08})
	conductor.Add(0, timeSigData)
	conductor.Close(0)
	if err := s.Add(conductor); err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}

	for _, v := range voices {
		vt := &voiceTrack{
			tpq:      float64(m.ticksPerQuarter),
			channel:  uint8((v.Staff - 1) % 16),
			velocity: defaultVelocity,
			clk:      newClock(),
		}
		if v.StaffType == "DrumStaff" {
			vt.channel = drumChannel
		} else if vt.channel >= drumChannel {
			vt.channel = (vt.channel + 1) % 16
		}
		for _, e := range v.Events {
			vt.event(e)
		}
		end := vt.ticks(vt.clk.pos)
		for k := range vt.held {
			vt.messages = append(vt.messages, timedMessage{tick: end, off: true, msg: smf.Message(midi.NoteOff(vt.channel, k))})
		}

		// note-offs sort before note-ons at the same tick
		sort.SliceStable(vt.messages, func(i, j int) bool {
			a, b := vt.messages[i], vt.messages[j]
			if a.tick != b.tick {
				return a.tick < b.tick
			}
			return a.off && !b.off
		})

		var track smf.Track
		var currentTick uint32
		for _, tm := range vt.messages {
			track.Add(tm.tick-currentTick, tm.msg)
			currentTick = tm.tick
		}
		track.Close(0)
		if err := s.Add(track); err != nil {
			return nil, fmt.Errorf("failed to add track: %w", err)
		}
	}

	// Write to buffer
	var buf bytes.Buffer
	_, err := s.WriteTo(&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to write MIDI: %w", err)
	}

	return buf.Bytes(), nil
}

// meterPower returns log2 of a power-of-two meter denominator.
func meterPower(den int) int {
	n := 0
	for den > 1 {
		den >>= 1
		n++
	}
	return n
}

// WriteMIDIFile writes the MIDI rendering of voices to a file
func (m *MIDIConverter) WriteMIDIFile(voices []Voice, filename string) error {
	data, err := m.GenerateMIDI(voices)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// NoteSpan is one sounding note read back from a MIDI file.
type NoteSpan struct {
	Channel uint8
	Key     uint8
	Start   int64
	End     int64
}

// ParseMIDI reads the notes and tempo of a Standard MIDI File.
func (m *MIDIConverter) ParseMIDI(data []byte) ([]NoteSpan, float64, error) {
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse MIDI: %w", err)
	}

	tempo := m.tempo
	var spans []NoteSpan
	for _, track := range s.Tracks {
		var currentTick int64
		open := map[[2]uint8]int{}
		for _, ev := range track {
			currentTick += int64(ev.Delta)
			msg := midi.Message(ev.Message)

			// Check for tempo meta message (FF 51 03 ...)
			if len(msg) >= 6 && msg[0] == 0xFF && msg[1] == 0x51 && msg[2] == 0x03 {
				microsecondsPerBeat := uint32(msg[3])<<16 | uint32(msg[4])<<8 | uint32(msg[5])
				if microsecondsPerBeat > 0 {
					tempo = 60000000.0 / float64(microsecondsPerBeat)
				}
				continue
			}

			var ch, key, vel uint8
			switch {
			case msg.GetNoteStart(&ch, &key, &vel):
				open[[2]uint8{ch, key}] = len(spans)
				spans = append(spans, NoteSpan{Channel: ch, Key: key, Start: currentTick, End: currentTick})
			case msg.GetNoteEnd(&ch, &key):
				if i, ok := open[[2]uint8{ch, key}]; ok {
					spans[i].End = currentTick
					delete(open, [2]uint8{ch, key})
				}
			}
		}
	}
	return spans, tempo, nil
}

// Length returns the playing time of a Standard MIDI File written by
// GenerateMIDI.
func (m *MIDIConverter) Length(data []byte) (time.Duration, error) {
	spans, tempo, err := m.ParseMIDI(data)
	if err != nil {
		return 0, err
	}
	var end int64
	for _, s := range spans {
		if s.End > end {
			end = s.End
		}
	}
	if tempo <= 0 {
		tempo = m.tempo
	}
	beats := float64(end) / float64(m.ticksPerQuarter)
	return time.Duration(beats * 60 / tempo * float64(time.Second)), nil
}
