// Package directory holds the machine directory: static reference data
// mapping machine ids to brands. It is loaded once at pipeline construction
// and read-only afterwards.
package directory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

// ErrUnknownMachine marks a lookup for an id the directory does not know.
var ErrUnknownMachine = errors.New("unknown machine id")

// Directory maps machine id to brand.
type Directory struct {
	brands map[string]string
}

// New builds a directory from an id -> brand map.
func New(brands map[string]string) *Directory {
	copied := make(map[string]string, len(brands))
	for id, brand := range brands {
		copied[id] = brand
	}
	return &Directory{brands: copied}
}

// LoadFile reads a JSON file of id -> brand.
func LoadFile(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read machine directory: %w", err)
	}
	var brands map[string]string
	if err := json.Unmarshal(data, &brands); err != nil {
		return nil, fmt.Errorf("parse machine directory %s: %w", path, err)
	}
	return New(brands), nil
}

// Lookup resolves a machine id to its brand. Returns ErrUnknownMachine for
// ids outside the directory; there is no fallback brand.
func (d *Directory) Lookup(machineID string) (string, error) {
	brand, ok := d.brands[machineID]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMachine, machineID)
	}
	return brand, nil
}

// MachineIDs returns the known ids in stable order.
func (d *Directory) MachineIDs() []string {
	ids := make([]string, 0, len(d.brands))
	for id := range d.brands {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of known machines.
func (d *Directory) Len() int {
	return len(d.brands)
}
