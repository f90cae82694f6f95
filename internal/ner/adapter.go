package ner

import (
	"context"
	"fmt"
	"sort"
	"unicode"

	"piiguard/internal/analysis"
)

// Recognizer adapts a TokenClassifier to the analysis.Recognizer
// interface: it merges token-level labels into character spans,
// snaps span boundaries to word boundaries, and remaps the model
// vocabulary into the canonical entity taxonomy.
type Recognizer struct {
	name     string
	model    TokenClassifier
	labelMap map[string]string
	entities []string
}

// NewRecognizer builds the adapter. labelMap must be non-empty; an empty
// table would silently drop everything the model finds, which is a
// configuration error, not a valid setup.
func NewRecognizer(name string, model TokenClassifier, labelMap map[string]string) (*Recognizer, error) {
	if name == "" || model == nil {
		return nil, fmt.Errorf("%w: ner recognizer needs a name and a model", analysis.ErrConfig)
	}
	if len(labelMap) == 0 {
		return nil, fmt.Errorf("%w: ner recognizer %q has an empty label mapping", analysis.ErrConfig, name)
	}
	seen := make(map[string]struct{})
	entities := make([]string, 0, len(labelMap))
	for _, mapped := range labelMap {
		if mapped == "" {
			return nil, fmt.Errorf("%w: ner recognizer %q maps a label to the empty entity type", analysis.ErrConfig, name)
		}
		if _, ok := seen[mapped]; ok {
			continue
		}
		seen[mapped] = struct{}{}
		entities = append(entities, mapped)
	}
	sort.Strings(entities)
	return &Recognizer{name: name, model: model, labelMap: labelMap, entities: entities}, nil
}

func (r *Recognizer) Name() string       { return r.name }
func (r *Recognizer) Entities() []string { return r.entities }

// Evaluate runs the model and reassembles its word predictions into
// entity spans. Consecutive words sharing the same normalized label
// (BIO prefixes stripped) merge into one span whose score is the mean
// of its members.
func (r *Recognizer) Evaluate(ctx context.Context, text string) ([]analysis.Entity, error) {
	if text == "" {
		return nil, nil
	}
	predictions, err := r.model.Predict(ctx, text)
	if err != nil {
		return nil, err
	}
	runes := []rune(text)
	spans := mergeLabeledWords(predictions)
	out := make([]analysis.Entity, 0, len(spans))
	for _, s := range spans {
		entity, ok := r.labelMap[s.label]
		if !ok {
			continue
		}
		start, end := expandToWordBounds(runes, s.start, s.end)
		if start >= end {
			continue
		}
		out = append(out, analysis.Entity{
			Type:   entity,
			Start:  start,
			End:    end,
			Score:  s.score,
			Source: r.name,
		})
	}
	return out, nil
}

type labeledSpan struct {
	label      string
	start, end int
	score      float64
}

// mergeLabeledWords folds consecutive words with the same normalized
// label into one span ("simple" aggregation). O-labeled and unlabeled
// words break the run.
func mergeLabeledWords(preds []WordPrediction) []labeledSpan {
	out := make([]labeledSpan, 0)
	var cur *labeledSpan
	var sum float64
	var n int
	flush := func() {
		if cur != nil {
			cur.score = sum / float64(n)
			out = append(out, *cur)
			cur = nil
		}
	}
	for _, p := range preds {
		label := normalizeLabel(p.Label)
		if label == "" {
			flush()
			continue
		}
		if cur != nil && cur.label == label {
			cur.end = p.Word.End
			sum += p.Score
			n++
			continue
		}
		flush()
		cur = &labeledSpan{label: label, start: p.Word.Start, end: p.Word.End}
		sum, n = p.Score, 1
	}
	flush()
	return out
}

// normalizeLabel strips BIO prefixes; "O" and empty labels normalize to
// the empty string.
func normalizeLabel(label string) string {
	if label == "" || label == "O" {
		return ""
	}
	if len(label) > 2 && label[1] == '-' && (label[0] == 'B' || label[0] == 'I') {
		return label[2:]
	}
	return label
}

// expandToWordBounds widens [start, end) outward to the nearest word
// boundaries of the original text, so a span never cuts a name or number
// in half. Offsets are rune offsets.
func expandToWordBounds(runes []rune, start, end int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end > len(runes) {
		end = len(runes)
	}
	for start > 0 && isWordRune(runes[start-1]) {
		start--
	}
	for end < len(runes) && isWordRune(runes[end]) {
		end++
	}
	return start, end
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
