// Package models provisions NER model archives: an embedded registry of
// known models and a fetcher that downloads, verifies, and installs them
// under the configured models root.
package models

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

//go:embed registry.json
var embeddedRegistry []byte

// requiredFiles must all be present for a model directory to be usable.
var requiredFiles = []string{"model.onnx", "labels.json", "tokenizer.json"}

// Spec describes one downloadable model.
type Spec struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Version     string   `json:"version"`
	Language    string   `json:"language"`
	URL         string   `json:"url"`
	Checksum    string   `json:"checksum"`
	SizeBytes   int64    `json:"size_bytes"`
	EntityTypes []string `json:"entity_types"`
	Description string   `json:"description"`
	Recommended bool     `json:"recommended"`
}

// Registry is the set of models known to this build.
type Registry struct {
	Version string `json:"version"`
	Models  []Spec `json:"models"`
}

// LoadRegistry parses the registry embedded in the binary.
func LoadRegistry() (Registry, error) {
	var reg Registry
	if err := json.Unmarshal(embeddedRegistry, &reg); err != nil {
		return Registry{}, fmt.Errorf("parse model registry: %w", err)
	}
	sort.Slice(reg.Models, func(i, j int) bool { return reg.Models[i].Name < reg.Models[j].Name })
	return reg, nil
}

// Find returns the spec with the given name.
func (r Registry) Find(name string) (Spec, bool) {
	for _, m := range r.Models {
		if m.Name == name {
			return m, true
		}
	}
	return Spec{}, false
}

// InstallPath is the directory a model occupies under root.
func InstallPath(root, name string) string {
	return filepath.Join(root, name)
}

// IsInstalled reports whether every required model file is present.
func IsInstalled(root, name string) bool {
	dir := InstallPath(root, name)
	for _, f := range requiredFiles {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			return false
		}
	}
	return true
}
