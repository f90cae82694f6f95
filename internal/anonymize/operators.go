// Package anonymize rewrites text span-by-span according to a
// per-entity-type operator, preserving offset correctness under the
// evolving length of the output.
package anonymize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"piiguard/internal/analysis"
)

// Operator produces the replacement text for one detected span.
type Operator interface {
	Name() string
	Apply(entityType, spanText string) string
}

// Replace substitutes the span with a fixed marker derived from the
// entity type, e.g. "<EMAIL_ADDRESS>".
type Replace struct{}

func (Replace) Name() string { return "replace" }

func (Replace) Apply(entityType, _ string) string {
	return "<" + entityType + ">"
}

// Mask overwrites up to Count characters of the span with Char, from the
// span's end when FromEnd is set, otherwise from its start.
type Mask struct {
	Char    rune
	Count   int
	FromEnd bool
}

func (Mask) Name() string { return "mask" }

func (m Mask) Apply(_, spanText string) string {
	runes := []rune(spanText)
	n := m.Count
	if n >= len(runes) {
		n = len(runes)
	}
	if n <= 0 {
		return spanText
	}
	masked := strings.Repeat(string(m.Char), n)
	if m.FromEnd {
		return string(runes[:len(runes)-n]) + masked
	}
	return masked + string(runes[n:])
}

// Hash substitutes the span with the lowercase-hex SHA-256 digest of the
// exact original span text. Identical values hash identically, so
// consistency checks across documents stay possible without revealing
// the value.
type Hash struct{}

func (Hash) Name() string { return "hash" }

func (Hash) Apply(_, spanText string) string {
	sum := sha256.Sum256([]byte(spanText))
	return hex.EncodeToString(sum[:])
}

// Redact deletes the span. Surrounding whitespace is left untouched.
type Redact struct{}

func (Redact) Name() string { return "redact" }

func (Redact) Apply(_, _ string) string { return "" }

// OperatorSet resolves the operator for an entity type, falling back to
// the default operator (Replace unless overridden).
type OperatorSet struct {
	byType   map[string]Operator
	fallback Operator
}

// NewOperatorSet creates a set with Replace as the fallback.
func NewOperatorSet() *OperatorSet {
	return &OperatorSet{byType: make(map[string]Operator), fallback: Replace{}}
}

// Set assigns op to one entity type.
func (s *OperatorSet) Set(entityType string, op Operator) *OperatorSet {
	s.byType[entityType] = op
	return s
}

// SetDefault overrides the fallback operator.
func (s *OperatorSet) SetDefault(op Operator) *OperatorSet {
	s.fallback = op
	return s
}

// For returns the operator governing entityType.
func (s *OperatorSet) For(entityType string) Operator {
	if op, ok := s.byType[entityType]; ok {
		return op
	}
	return s.fallback
}

// ForStyle builds an OperatorSet applying one named style uniformly.
// Styles: replace, mask, hash, redact. Mask uses '*' with a generous
// character budget, matching the shipped product defaults.
func ForStyle(style string) (*OperatorSet, error) {
	set := NewOperatorSet()
	switch style {
	case "replace", "":
		set.SetDefault(Replace{})
	case "mask":
		set.SetDefault(Mask{Char: '*', Count: 100, FromEnd: false})
	case "hash":
		set.SetDefault(Hash{})
	case "redact":
		set.SetDefault(Redact{})
	default:
		return nil, fmt.Errorf("%w: unknown anonymization style %q", analysis.ErrInput, style)
	}
	return set, nil
}
