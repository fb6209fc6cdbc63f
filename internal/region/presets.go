package region

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
	"jordanella.com/scrollshot/internal/cv"
)

// Preset is a named capture rectangle stored in a YAML file
type Preset struct {
	Name   string `yaml:"name"`
	X      int    `yaml:"x"`
	Y      int    `yaml:"y"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Window string `yaml:"window,omitempty"` // Exact title of the window to bring forward
}

// Region returns the preset rectangle
func (p Preset) Region() cv.Region {
	return cv.RegionFromSize(p.X, p.Y, p.Width, p.Height)
}

// Validate checks a preset loaded from disk
func (p Preset) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("preset has no name")
	}
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("preset '%s': width and height must be positive", p.Name)
	}
	return nil
}

type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// Presets is a set of named rectangles
type Presets struct {
	byName map[string]Preset
}

// LoadPresets reads presets from a YAML file
func LoadPresets(path string) (*Presets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets file %s: %w", path, err)
	}
	return ParsePresets(data)
}

// ParsePresets decodes a presets document
func ParsePresets(data []byte) (*Presets, error) {
	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal presets YAML: %w", err)
	}

	presets := &Presets{byName: make(map[string]Preset, len(file.Presets))}
	for i, p := range file.Presets {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("preset %d: %w", i+1, err)
		}
		if _, dup := presets.byName[p.Name]; dup {
			return nil, fmt.Errorf("duplicate preset '%s'", p.Name)
		}
		presets.byName[p.Name] = p
	}

	return presets, nil
}

// Get returns a preset by name
func (ps *Presets) Get(name string) (Preset, bool) {
	p, ok := ps.byName[name]
	return p, ok
}

// Names returns the preset names in order
func (ps *Presets) Names() []string {
	names := make([]string, 0, len(ps.byName))
	for name := range ps.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WindowFinder resolves a window title to a handle
type WindowFinder func(title string) (uintptr, error)

// PresetSelector selects a preset's rectangle and resolves its window
type PresetSelector struct {
	preset Preset
	find   WindowFinder
}

// NewPresetSelector creates a selector. find may be nil when windows are
// never activated.
func NewPresetSelector(p Preset, find WindowFinder) *PresetSelector {
	return &PresetSelector{preset: p, find: find}
}

// Select implements Selector. A preset whose window cannot be found is still
// captured, without activation.
func (s *PresetSelector) Select(ctx context.Context) (Selection, bool, error) {
	if err := ctx.Err(); err != nil {
		return Selection{}, false, nil
	}

	sel := Selection{Region: s.preset.Region(), WindowTitle: s.preset.Window}
	if s.preset.Window != "" && s.find != nil {
		hwnd, err := s.find(s.preset.Window)
		if err != nil {
			return sel, true, fmt.Errorf("preset '%s': %w", s.preset.Name, err)
		}
		sel.Window = hwnd
	}

	return sel, true, nil
}
