package region

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"jordanella.com/scrollshot/internal/cv"
)

func TestParse(t *testing.T) {
	r, err := Parse("100, 200,800,600")
	if err != nil {
		t.Fatalf("Failed to parse region: %v", err)
	}
	if r != cv.RegionFromSize(100, 200, 800, 600) {
		t.Errorf("Unexpected region %v", r)
	}

	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "0,0,0,10", "0,0,10,-5"} {
		if _, err := Parse(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}

func TestFixedSelector(t *testing.T) {
	sel, ok, err := NewFixed(cv.RegionFromSize(0, 0, 10, 10)).WithWindow(42, "Editor").Select(context.Background())
	if err != nil || !ok {
		t.Fatalf("Expected selection, got ok=%v err=%v", ok, err)
	}
	if sel.Window != 42 || sel.WindowTitle != "Editor" {
		t.Errorf("Window not carried: %+v", sel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok, _ := NewFixed(cv.RegionFromSize(0, 0, 10, 10)).Select(ctx); ok {
		t.Error("Cancelled context should cancel the selection")
	}
}

const presetsYAML = `
presets:
  - name: browser
    x: 0
    y: 120
    width: 1280
    height: 800
    window: "Mozilla Firefox"
  - name: docs
    x: -1920
    y: 0
    width: 900
    height: 1000
`

func TestLoadPresets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	if err := os.WriteFile(path, []byte(presetsYAML), 0644); err != nil {
		t.Fatalf("Failed to write presets: %v", err)
	}

	presets, err := LoadPresets(path)
	if err != nil {
		t.Fatalf("Failed to load presets: %v", err)
	}

	names := presets.Names()
	if len(names) != 2 || names[0] != "browser" || names[1] != "docs" {
		t.Errorf("Unexpected names %v", names)
	}

	docs, ok := presets.Get("docs")
	if !ok {
		t.Fatal("Preset docs not found")
	}
	if docs.Region() != cv.RegionFromSize(-1920, 0, 900, 1000) {
		t.Errorf("Unexpected docs region %v", docs.Region())
	}
}

func TestParsePresetsRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"NoName":    "presets:\n  - x: 1\n    width: 10\n    height: 10\n",
		"ZeroSize":  "presets:\n  - name: a\n    width: 0\n    height: 10\n",
		"Duplicate": "presets:\n  - name: a\n    width: 1\n    height: 1\n  - name: a\n    width: 2\n    height: 2\n",
		"BadYAML":   "presets: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParsePresets([]byte(doc)); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestPresetSelectorResolvesWindow(t *testing.T) {
	presets, err := ParsePresets([]byte(presetsYAML))
	if err != nil {
		t.Fatalf("Failed to parse presets: %v", err)
	}
	browser, _ := presets.Get("browser")

	var asked string
	find := func(title string) (uintptr, error) {
		asked = title
		return 0x1234, nil
	}

	sel, ok, err := NewPresetSelector(browser, find).Select(context.Background())
	if err != nil || !ok {
		t.Fatalf("Expected selection, got ok=%v err=%v", ok, err)
	}
	if asked != "Mozilla Firefox" {
		t.Errorf("Expected lookup of window title, got %q", asked)
	}
	if sel.Window != 0x1234 {
		t.Errorf("Expected window handle 0x1234, got 0x%x", sel.Window)
	}

	missing := func(string) (uintptr, error) { return 0, errors.New("window not found") }
	sel, ok, err = NewPresetSelector(browser, missing).Select(context.Background())
	if err == nil || !ok {
		t.Errorf("Expected selection with lookup error, got ok=%v err=%v", ok, err)
	}
	if sel.Region.Empty() {
		t.Error("Region should still be returned when the window is missing")
	}
}
