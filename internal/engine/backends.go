// Package engine owns the lifecycle of Analyzer instances: one cached
// analyzer per NER backend, rebuilt only on an explicit backend switch.
package engine

import (
	"path/filepath"
	"sort"

	"piiguard/internal/ner"
)

// Backend names one selectable NER model configuration.
type Backend struct {
	ID          string
	DisplayName string
	Description string
	ModelDir    string
	LabelMap    map[string]string
}

// Backends is the set of registered backends.
type Backends struct {
	byID map[string]Backend
}

// NewBackends registers the given backends.
func NewBackends(list ...Backend) *Backends {
	byID := make(map[string]Backend, len(list))
	for _, b := range list {
		byID[b.ID] = b
	}
	return &Backends{byID: byID}
}

// DefaultBackends returns the two shipped backends rooted under
// modelsRoot: a spaCy-style German NER export and the eu-pii-safeguard
// transformer.
func DefaultBackends(modelsRoot string) *Backends {
	return NewBackends(
		Backend{
			ID:          "spacy",
			DisplayName: "spaCy German NER",
			Description: "Coarse-grained German NER (persons, locations, organizations)",
			ModelDir:    filepath.Join(modelsRoot, "spacy_de"),
			LabelMap:    ner.SpacyLabelMap,
		},
		Backend{
			ID:          "transformers",
			DisplayName: "eu-pii-safeguard",
			Description: "Fine-grained European PII token classifier",
			ModelDir:    filepath.Join(modelsRoot, "eu_pii_safeguard"),
			LabelMap:    ner.TransformersLabelMap,
		},
	)
}

// Find returns the backend with the given id.
func (b *Backends) Find(id string) (Backend, bool) {
	spec, ok := b.byID[id]
	return spec, ok
}

// List returns all backends sorted by id.
func (b *Backends) List() []Backend {
	out := make([]Backend, 0, len(b.byID))
	for _, spec := range b.byID {
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of registered backends.
func (b *Backends) Len() int { return len(b.byID) }
