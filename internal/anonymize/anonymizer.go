package anonymize

import (
	"sort"

	"piiguard/internal/analysis"
)

// Result is the rewritten text plus, for traceability, the entities that
// were anonymized (the caller's list, unmodified).
type Result struct {
	Text     string            `json:"anonymized_text"`
	Entities []analysis.Entity `json:"entities"`
}

// Anonymize rewrites text by applying each entity's operator to its
// span. Entities are processed right-to-left (descending start) so that
// left-side offsets are never invalidated by a replacement whose length
// differs from the original span.
//
// Overlapping spans of different types can survive analysis. The
// right-to-left order means the leftmost-start entity is applied last,
// so its replacement wins the visible form of the contested range.
// Operators always receive the span text of the original input, never an
// already-rewritten fragment.
func Anonymize(text string, entities []analysis.Entity, ops *OperatorSet) Result {
	result := Result{Text: text, Entities: entities}
	if text == "" || len(entities) == 0 {
		return result
	}
	if ops == nil {
		ops = NewOperatorSet()
	}

	original := []rune(text)
	ordered := append([]analysis.Entity(nil), entities...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Start != ordered[j].Start {
			return ordered[i].Start > ordered[j].Start
		}
		return ordered[i].End > ordered[j].End
	})

	out := append([]rune(nil), original...)
	for _, e := range ordered {
		if e.Start < 0 || e.Start >= e.End || e.End > len(original) {
			continue
		}
		replacement := []rune(ops.For(e.Type).Apply(e.Type, string(original[e.Start:e.End])))
		end := e.End
		if end > len(out) {
			end = len(out)
		}
		if e.Start > len(out) {
			continue
		}
		rewritten := make([]rune, 0, len(out)-(end-e.Start)+len(replacement))
		rewritten = append(rewritten, out[:e.Start]...)
		rewritten = append(rewritten, replacement...)
		rewritten = append(rewritten, out[end:]...)
		out = rewritten
	}
	result.Text = string(out)
	return result
}
