package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/james-see/ly2mei/pkg/converter"
)

func press(m Model, k tea.KeyType) Model {
	next, _ := m.Update(tea.KeyMsg{Type: k})
	return next.(Model)
}

func TestMenuNavigation(t *testing.T) {
	m := New(nil)
	if m.state != StateMenu {
		t.Fatalf("initial state = %v, want menu", m.state)
	}

	m = press(m, tea.KeyUp)
	if m.menuIndex != 0 {
		t.Errorf("menuIndex after up at top = %d, want 0", m.menuIndex)
	}
	for i := 0; i < len(menuItems)+2; i++ {
		m = press(m, tea.KeyDown)
	}
	if m.menuIndex != len(menuItems)-1 {
		t.Errorf("menuIndex after scrolling = %d, want %d", m.menuIndex, len(menuItems)-1)
	}

	m = press(m, tea.KeyUp)
	m = press(m, tea.KeyEnter)
	if m.state != StateFilePicker {
		t.Fatalf("state after enter = %v, want file picker", m.state)
	}
	if m.conversion.Format != converter.FormatYAML {
		t.Errorf("conversion = %+v, want yaml", m.conversion)
	}

	m = press(m, tea.KeyEsc)
	if m.state != StateMenu {
		t.Errorf("state after esc = %v, want menu", m.state)
	}
}

func TestConversionDone(t *testing.T) {
	m := New(nil)
	m.state = StateConverting
	next, _ := m.Update(conversionDoneMsg{result: converter.ConversionResult{Filename: "a.mei", Data: []byte("<mei/>")}})
	m = next.(Model)
	if m.state != StateResult {
		t.Fatalf("state = %v, want result", m.state)
	}
	if !strings.Contains(m.View(), "a.mei") {
		t.Error("result view does not name the output file")
	}

	m = press(m, tea.KeyEnter)
	if m.state != StateMenu || m.result.Filename != "" {
		t.Errorf("result not cleared: %+v", m.result)
	}
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "tune.ly")
	if err := os.WriteFile(in, []byte(`{ c'4 }`), 0644); err != nil {
		t.Fatal(err)
	}

	for _, item := range menuItems[:len(menuItems)-1] {
		t.Run(item.Title, func(t *testing.T) {
			res := convertFile(converter.New(), in, item)
			if res.Error != nil {
				t.Fatalf("convertFile() failed: %v", res.Error)
			}
			if res.Filename != filepath.Join(dir, "tune"+item.Ext) {
				t.Errorf("Filename = %q", res.Filename)
			}
			if len(res.Data) == 0 {
				t.Error("no data written")
			}
		})
	}

	if res := convertFile(converter.New(), filepath.Join(dir, "missing.ly"), menuItems[0]); res.Error == nil {
		t.Error("convertFile() of a missing file succeeded")
	}
}
