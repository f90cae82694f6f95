// Package analysis detects PII entities in free text. Recognizers emit
// scored candidate spans; the Analyzer merges them into a consistent,
// non-overlapping (per entity type) result set.
//
// All span offsets are rune (code point) offsets into the original text,
// half-open [Start, End).
package analysis

import "context"

// Entity is one detected PII span. Immutable once produced by a
// recognizer; the merge stage drops or keeps candidates but never
// rewrites their fields.
type Entity struct {
	Type   string  `json:"entity_type"`
	Start  int     `json:"start"`
	End    int     `json:"end"`
	Score  float64 `json:"score"`
	Source string  `json:"source"`
}

// Overlaps reports whether the two spans share at least one code point.
func (e Entity) Overlaps(o Entity) bool {
	return e.Start < o.End && o.Start < e.End
}

// Len returns the span length in code points.
func (e Entity) Len() int { return e.End - e.Start }

// Recognizer is a strategy that scans text and emits scored candidates.
// Evaluate must be deterministic, safe on arbitrary Unicode input, and
// return an empty result for empty text.
type Recognizer interface {
	Name() string
	Entities() []string
	Evaluate(ctx context.Context, text string) ([]Entity, error)
}
