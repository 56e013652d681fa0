// Package profile loads reusable discovery profiles: the search terms and
// place types that define an industry sweep.
package profile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Profile describes how to sweep one industry in one market.
type Profile struct {
	Name     string `yaml:"name"`
	Industry string `yaml:"industry"`
	// Terms are text queries run against the mapping API; the location is
	// appended to each at search time.
	Terms []string `yaml:"terms"`
	// PlaceTypes drive the nearby search; empty skips it.
	PlaceTypes []string `yaml:"place_types"`
	// RadiusKM bounds each search circle.
	RadiusKM float64 `yaml:"radius_km"`
	// MaxPages caps text-search pagination per term.
	MaxPages int `yaml:"max_pages"`
}

// Validate checks the profile is runnable.
func (p *Profile) Validate() error {
	if p.Industry == "" {
		return eris.New("profile: industry is required")
	}
	if len(p.Terms) == 0 && len(p.PlaceTypes) == 0 {
		return eris.New("profile: at least one term or place type is required")
	}
	return nil
}

// Default builds a single-term profile from an industry name, used when no
// profile file is given.
func Default(industry string) *Profile {
	return &Profile{
		Name:     strings.ToLower(strings.ReplaceAll(industry, " ", "-")),
		Industry: industry,
		Terms:    []string{industry},
		RadiusKM: 25,
		MaxPages: 3,
	}
}

// Load reads a profile from a YAML file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "profile: read %s", path)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, eris.Wrapf(err, "profile: parse %s", path)
	}
	if p.RadiusKM == 0 {
		p.RadiusKM = 25
	}
	if p.MaxPages == 0 {
		p.MaxPages = 3
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save writes the profile as YAML, creating the directory if needed.
func (p *Profile) Save(path string) error {
	if err := p.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "profile: marshal")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "profile: create dir for %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "profile: write %s", path)
	}
	return nil
}
