package samplebank

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ManifestEntry names one sample file and the key it is registered under.
type ManifestEntry struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// Manifest is the on-disk sample-bank description (spec.md §4.5): a flat
// list of name -> file mappings, loaded once at startup and whenever the
// control thread reloads a bank. Grounded on src/deviceid.go's
// read-file-then-yaml.Unmarshal loader shape, simplified to a single
// strongly-typed struct since this schema is ours to define rather than an
// externally fixed format.
type Manifest struct {
	Samples []ManifestEntry `yaml:"samples"`
}

// LoadManifest reads and parses a YAML manifest file. Relative sample paths
// are resolved against the manifest file's own directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("samplebank: reading manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("samplebank: parsing manifest %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i := range m.Samples {
		if !filepath.IsAbs(m.Samples[i].Path) {
			m.Samples[i].Path = filepath.Join(dir, m.Samples[i].Path)
		}
	}
	return &m, nil
}
