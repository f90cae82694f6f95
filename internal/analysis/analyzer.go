package analysis

import (
	"context"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// Analyzer runs every applicable recognizer over input text and merges
// the pooled raw output into a final entity list. Safe for concurrent
// use; it holds no mutable state after construction.
type Analyzer struct {
	registry *Registry
	defaults []string
	log      *logrus.Entry
}

// NewAnalyzer builds an Analyzer over the given registry. defaults is the
// entity set used when a request does not name one.
func NewAnalyzer(registry *Registry, defaults []string, log *logrus.Entry) (*Analyzer, error) {
	if registry == nil || len(registry.Recognizers()) == 0 {
		return nil, fmt.Errorf("%w: analyzer needs at least one recognizer", ErrConfig)
	}
	if len(defaults) == 0 {
		return nil, fmt.Errorf("%w: analyzer needs a default entity set", ErrConfig)
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Analyzer{registry: registry, defaults: defaults, log: log}, nil
}

// Registry exposes the active recognizer set.
func (a *Analyzer) Registry() *Registry { return a.registry }

// DefaultEntities returns the configured default entity set.
func (a *Analyzer) DefaultEntities() []string {
	return append([]string(nil), a.defaults...)
}

// Analyze detects entities in text. entityTypes nil or empty means the
// configured default set. threshold filters the merged result, not the
// individual recognizer candidates.
//
// A failing recognizer is skipped, not fatal; the batch only errors when
// every applicable recognizer failed.
func (a *Analyzer) Analyze(ctx context.Context, text string, entityTypes []string, threshold float64) ([]Entity, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: score threshold %v outside [0,1]", ErrInput, threshold)
	}
	if text == "" {
		return nil, nil
	}

	requested := make(map[string]struct{})
	if len(entityTypes) == 0 {
		entityTypes = a.defaults
	}
	for _, t := range entityTypes {
		requested[t] = struct{}{}
	}

	textLen := utf8.RuneCountInString(text)
	pool := make([]Entity, 0)
	attempted, failed := 0, 0
	for _, rec := range a.registry.Recognizers() {
		if !intersects(rec.Entities(), requested) {
			continue
		}
		attempted++
		found, err := rec.Evaluate(ctx, text)
		if err != nil {
			failed++
			a.log.WithField("recognizer", rec.Name()).WithError(err).Warn("recognizer failed, skipping its contribution")
			continue
		}
		for _, e := range found {
			if e.Start < 0 || e.Start >= e.End || e.End > textLen {
				a.log.WithField("recognizer", rec.Name()).Debugf("dropping invalid span [%d,%d)", e.Start, e.End)
				continue
			}
			if _, ok := requested[e.Type]; !ok {
				continue
			}
			if e.Score < 0 {
				e.Score = 0
			}
			if e.Score > 1 {
				e.Score = 1
			}
			pool = append(pool, e)
		}
	}
	if attempted > 0 && failed == attempted {
		return nil, ErrNoUsableRecognizers
	}

	merged := mergeByType(pool)

	final := merged[:0]
	for _, e := range merged {
		if e.Score >= threshold {
			final = append(final, e)
		}
	}
	sort.Slice(final, func(i, j int) bool {
		if final[i].Start != final[j].Start {
			return final[i].Start < final[j].Start
		}
		return final[i].Type < final[j].Type
	})
	return final, nil
}

// mergeByType resolves overlaps within each entity type by weighted
// interval scheduling: the highest-scoring span is committed first and
// anything of the same type overlapping it is discarded. Overlaps across
// different types are left in place; they represent genuinely ambiguous
// text and are resolved at anonymization time.
func mergeByType(pool []Entity) []Entity {
	groups := make(map[string][]Entity)
	for _, e := range pool {
		groups[e.Type] = append(groups[e.Type], e)
	}
	out := make([]Entity, 0, len(pool))
	for _, group := range groups {
		out = append(out, pruneOverlaps(group)...)
	}
	return out
}

func intersects(declared []string, requested map[string]struct{}) bool {
	for _, t := range declared {
		if _, ok := requested[t]; ok {
			return true
		}
	}
	return false
}
