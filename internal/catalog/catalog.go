// Package catalog loads experiment classification catalogs from YAML so
// new pulse sequences can be recognized without a code change.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"nmrcore/pkg/domain"
)

type catalogFile struct {
	Experiments []catalogEntry `yaml:"experiments"`
}

type catalogEntry struct {
	Type          string   `yaml:"type"`
	Dims          int      `yaml:"dims"`
	Nuclei        []string `yaml:"nuclei"`
	PulsePrograms []string `yaml:"pulse_programs"`
}

func (e catalogEntry) validate() error {
	if e.Type == "" {
		return fmt.Errorf("missing type")
	}
	if e.Dims != 1 && e.Dims != 2 {
		return fmt.Errorf("type %s: dims must be 1 or 2, got %d", e.Type, e.Dims)
	}
	if len(e.Nuclei) == 0 {
		return fmt.Errorf("type %s: no nuclei listed", e.Type)
	}
	if len(e.PulsePrograms) == 0 {
		return fmt.Errorf("type %s: no pulse programs listed", e.Type)
	}
	return nil
}

// Parse decodes a YAML catalog. Entry declaration order is preserved; it is
// the classification priority. The same type tag may appear in several
// entries.
func Parse(data []byte) (domain.Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(file.Experiments) == 0 {
		return nil, fmt.Errorf("parse catalog: no experiments defined")
	}

	cat := make(domain.Catalog, 0, len(file.Experiments))
	for i, entry := range file.Experiments {
		if err := entry.validate(); err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		cat = append(cat, domain.CatalogEntry{
			Type:          domain.ExperimentType(entry.Type),
			PulsePrograms: entry.PulsePrograms,
			Nuclei:        entry.Nuclei,
			Dims:          entry.Dims,
		})
	}
	return cat, nil
}

// Load reads and parses the catalog file at path.
func Load(path string) (domain.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// LoadOrDefault loads the catalog at path, or returns the built-in catalog
// when path is empty.
func LoadOrDefault(path string) (domain.Catalog, error) {
	if path == "" {
		return domain.DefaultCatalog(), nil
	}
	return Load(path)
}
