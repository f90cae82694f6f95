package analysis

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// defaultContextBoost is added to a candidate's score when one of the
	// recognizer's context keywords appears near the match.
	defaultContextBoost = 0.35

	// contextWindowTokens bounds the keyword search to this many
	// whitespace-delimited tokens on either side of a match.
	contextWindowTokens = 5
)

// PatternSpec declares one regex with its base confidence score.
type PatternSpec struct {
	Name  string
	Expr  string
	Score float64
}

type compiledPattern struct {
	name  string
	score float64
	re    *regexp.Regexp
}

// PatternRecognizer evaluates a set of regular expressions for a single
// entity type, boosting scores when context keywords appear near a match.
// It is stateless after construction and safe for concurrent use.
type PatternRecognizer struct {
	name     string
	entity   string
	patterns []compiledPattern
	context  map[string]struct{}
	boost    float64
}

// NewPatternRecognizer compiles the given pattern specs. An invalid regex
// or an out-of-range score is a configuration error.
func NewPatternRecognizer(name, entity string, specs []PatternSpec, context []string) (*PatternRecognizer, error) {
	if name == "" || entity == "" {
		return nil, fmt.Errorf("%w: recognizer name and entity are required", ErrConfig)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: recognizer %q declares no patterns", ErrConfig, name)
	}
	compiled := make([]compiledPattern, 0, len(specs))
	for _, s := range specs {
		if s.Score < 0 || s.Score > 1 {
			return nil, fmt.Errorf("%w: pattern %q score %v outside [0,1]", ErrConfig, s.Name, s.Score)
		}
		re, err := regexp.Compile(s.Expr)
		if err != nil {
			return nil, fmt.Errorf("%w: pattern %q: %v", ErrConfig, s.Name, err)
		}
		compiled = append(compiled, compiledPattern{name: s.Name, score: s.Score, re: re})
	}
	keywords := make(map[string]struct{}, len(context))
	for _, kw := range context {
		keywords[foldToken(kw)] = struct{}{}
	}
	return &PatternRecognizer{
		name:     name,
		entity:   entity,
		patterns: compiled,
		context:  keywords,
		boost:    defaultContextBoost,
	}, nil
}

func (r *PatternRecognizer) Name() string       { return r.name }
func (r *PatternRecognizer) Entities() []string { return []string{r.entity} }

// Evaluate finds all pattern matches in text. Overlapping candidates from
// the same recognizer are pruned so only the strongest survives.
func (r *PatternRecognizer) Evaluate(_ context.Context, text string) ([]Entity, error) {
	if text == "" {
		return nil, nil
	}
	candidates := make([]Entity, 0)
	for _, p := range r.patterns {
		for _, idx := range p.re.FindAllStringIndex(text, -1) {
			if idx[0] == idx[1] {
				continue // zero-length match carries no information
			}
			score := p.score
			if r.hasContext(text, idx[0], idx[1]) {
				score = min(1.0, score+r.boost)
			}
			candidates = append(candidates, Entity{
				Type:   r.entity,
				Start:  utf8.RuneCountInString(text[:idx[0]]),
				End:    utf8.RuneCountInString(text[:idx[1]]),
				Score:  score,
				Source: r.name,
			})
		}
	}
	return pruneOverlaps(candidates), nil
}

// hasContext reports whether any declared context keyword appears within
// the token window around the matched byte range.
func (r *PatternRecognizer) hasContext(text string, start, end int) bool {
	if len(r.context) == 0 {
		return false
	}
	before := strings.Fields(text[:start])
	if n := len(before); n > contextWindowTokens {
		before = before[n-contextWindowTokens:]
	}
	after := strings.Fields(text[end:])
	if len(after) > contextWindowTokens {
		after = after[:contextWindowTokens]
	}
	for _, tok := range append(before, after...) {
		tok = strings.TrimFunc(tok, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if tok == "" {
			continue
		}
		if _, ok := r.context[foldToken(tok)]; ok {
			return true
		}
	}
	return false
}

// foldToken lowercases a token and strips combining diacritical marks so
// that e.g. "Überweisung" matches the keyword "uberweisung".
var diacriticsFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func foldToken(s string) string {
	lower := strings.ToLower(s)
	folded, _, err := transform.String(diacriticsFold, lower)
	if err != nil {
		return lower
	}
	return folded
}

// pruneOverlaps keeps the highest-scoring span of each overlapping group.
// Ties go to the longer span, then to the earlier start.
func pruneOverlaps(candidates []Entity) []Entity {
	if len(candidates) < 2 {
		return candidates
	}
	ranked := make([]Entity, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].Len() != ranked[j].Len() {
			return ranked[i].Len() > ranked[j].Len()
		}
		return ranked[i].Start < ranked[j].Start
	})
	kept := make([]Entity, 0, len(ranked))
	for _, c := range ranked {
		overlaps := false
		for _, k := range kept {
			if c.Overlaps(k) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, c)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	return kept
}
