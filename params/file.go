package params

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk parameter override format:
//
//	preset: calibrated
//	overrides:
//	  threshold: 4.5
//	  male_effect: 1.8
//	ranges:
//	  - {name: threshold, min: 1, max: 4}
type File struct {
	Preset    string             `yaml:"preset"`
	Overrides map[string]float64 `yaml:"overrides"`
	Ranges    []Range            `yaml:"ranges"`
}

// Preset returns a fresh copy of the named preset.
func Preset(name string) (*Set, error) {
	f, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset: %q", name)
	}
	return f(), nil
}

// Load reads an override file and applies it to the preset named in the
// file, or to base if the file names none. A missing path returns base
// unchanged. Ranges are nil unless the file defines them.
func Load(path string, base *Set) (*Set, []Range, error) {
	if path == "" {
		return base.Clone(), nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return base.Clone(), nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	s := base
	if f.Preset != "" {
		if s, err = Preset(f.Preset); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	s, err = s.With(f.Overrides)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	for _, r := range f.Ranges {
		if _, err := s.Ptr(r.Name); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		if r.Min > r.Max {
			return nil, nil, fmt.Errorf("%s: range of %s is empty (%v > %v)", path, r.Name, r.Min, r.Max)
		}
	}
	return s, f.Ranges, nil
}
