// Package gazetteer loads the static list of named water features and
// answers search queries over it.
package gazetteer

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/water-advisory-service/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed data/india.yaml
var defaultDataset []byte

// ErrEmptyGazetteer is returned when a dataset declares no entries.
var ErrEmptyGazetteer = errors.New("gazetteer has no entries")

type document struct {
	WaterBodies []domain.WaterBody `yaml:"waterBodies"`
}

// Default parses the embedded India dataset.
func Default() ([]domain.WaterBody, error) {
	return Parse(defaultDataset)
}

// Load reads and validates a YAML gazetteer from disk.
func Load(path string) ([]domain.WaterBody, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gazetteer: %w", err)
	}
	entries, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("gazetteer %s: %w", path, err)
	}
	return entries, nil
}

// Parse decodes and validates a YAML gazetteer. Every invalid entry is
// reported; a single violation fails the whole dataset.
func Parse(data []byte) ([]domain.WaterBody, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode gazetteer: %w", err)
	}
	if len(doc.WaterBodies) == 0 {
		return nil, ErrEmptyGazetteer
	}

	var errs []error
	seen := make(map[string]int, len(doc.WaterBodies))
	for i, wb := range doc.WaterBodies {
		if err := wb.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
		}
		key := normalize(wb.Name)
		if key == "" {
			continue
		}
		if first, dup := seen[key]; dup {
			errs = append(errs, fmt.Errorf("entry %d: %w %q: duplicate name (first declared at entry %d)",
				i, domain.ErrInvalidWaterBody, wb.Name, first))
			continue
		}
		seen[key] = i
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return doc.WaterBodies, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
