package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRecognizer struct {
	name     string
	entities []string
	result   []Entity
	err      error
	calls    int
}

func (s *stubRecognizer) Name() string       { return s.name }
func (s *stubRecognizer) Entities() []string { return s.entities }

func (s *stubRecognizer) Evaluate(_ context.Context, _ string) ([]Entity, error) {
	s.calls++
	return s.result, s.err
}

func newTestAnalyzer(t *testing.T, recs ...Recognizer) *Analyzer {
	t.Helper()
	defaults := make([]string, 0)
	seen := map[string]struct{}{}
	for _, r := range recs {
		for _, e := range r.Entities() {
			if _, ok := seen[e]; !ok {
				seen[e] = struct{}{}
				defaults = append(defaults, e)
			}
		}
	}
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	a, err := NewAnalyzer(NewRegistry(recs...), defaults, logrus.NewEntry(log))
	require.NoError(t, err)
	return a
}

func TestAnalyzeEmptyTextReturnsNothing(t *testing.T) {
	rec, err := NewSwissAHVRecognizer()
	require.NoError(t, err)
	a := newTestAnalyzer(t, rec)

	found, err := a.Analyze(context.Background(), "", nil, 0.5)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestAnalyzeMergeKeepsHighestScoringSameTypeSpan(t *testing.T) {
	// Overlapping same-type spans from different recognizers: the
	// higher-scoring [5,12) must win over [5,15).
	r1 := &stubRecognizer{name: "a", entities: []string{"X"},
		result: []Entity{{Type: "X", Start: 5, End: 15, Score: 0.6, Source: "a"}}}
	r2 := &stubRecognizer{name: "b", entities: []string{"X"},
		result: []Entity{{Type: "X", Start: 5, End: 12, Score: 0.9, Source: "b"}}}
	a := newTestAnalyzer(t, r1, r2)

	found, err := a.Analyze(context.Background(), "0123456789012345678", nil, 0.0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 5, found[0].Start)
	assert.Equal(t, 12, found[0].End)
	assert.Equal(t, "b", found[0].Source)
}

func TestAnalyzeCrossTypeOverlapSurvives(t *testing.T) {
	r1 := &stubRecognizer{name: "a", entities: []string{"X"},
		result: []Entity{{Type: "X", Start: 2, End: 8, Score: 0.8, Source: "a"}}}
	r2 := &stubRecognizer{name: "b", entities: []string{"Y"},
		result: []Entity{{Type: "Y", Start: 4, End: 10, Score: 0.7, Source: "b"}}}
	a := newTestAnalyzer(t, r1, r2)

	found, err := a.Analyze(context.Background(), "0123456789", nil, 0.0)
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestAnalyzeNoSameTypeOverlapInvariant(t *testing.T) {
	r := &stubRecognizer{name: "a", entities: []string{"X"},
		result: []Entity{
			{Type: "X", Start: 0, End: 4, Score: 0.5, Source: "a"},
			{Type: "X", Start: 3, End: 6, Score: 0.6, Source: "a"},
			{Type: "X", Start: 5, End: 9, Score: 0.7, Source: "a"},
		}}
	a := newTestAnalyzer(t, r)

	found, err := a.Analyze(context.Background(), "0123456789", nil, 0.0)
	require.NoError(t, err)
	for i := range found {
		for j := i + 1; j < len(found); j++ {
			assert.False(t, found[i].Overlaps(found[j]),
				"spans %v and %v overlap", found[i], found[j])
		}
	}
}

func TestAnalyzeThresholdMonotonicity(t *testing.T) {
	r := &stubRecognizer{name: "a", entities: []string{"X"},
		result: []Entity{
			{Type: "X", Start: 0, End: 2, Score: 0.3, Source: "a"},
			{Type: "X", Start: 3, End: 5, Score: 0.6, Source: "a"},
			{Type: "X", Start: 6, End: 8, Score: 0.9, Source: "a"},
		}}
	a := newTestAnalyzer(t, r)

	prev := -1
	for _, threshold := range []float64{0.0, 0.25, 0.5, 0.75, 1.0} {
		found, err := a.Analyze(context.Background(), "0123456789", nil, threshold)
		require.NoError(t, err)
		if prev >= 0 {
			assert.LessOrEqual(t, len(found), prev)
		}
		prev = len(found)
	}
}

func TestAnalyzeHighThresholdFiltersEverything(t *testing.T) {
	r := &stubRecognizer{name: "a", entities: []string{"X"},
		result: []Entity{{Type: "X", Start: 0, End: 4, Score: 0.95, Source: "a"}}}
	a := newTestAnalyzer(t, r)

	found, err := a.Analyze(context.Background(), "0123456789", nil, 0.99)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestAnalyzeThresholdOutsideRangeIsInputError(t *testing.T) {
	r := &stubRecognizer{name: "a", entities: []string{"X"}}
	a := newTestAnalyzer(t, r)

	_, err := a.Analyze(context.Background(), "text", nil, 1.5)
	require.ErrorIs(t, err, ErrInput)
}

func TestAnalyzeSkipsUnrelatedRecognizers(t *testing.T) {
	wanted := &stubRecognizer{name: "a", entities: []string{"X"}}
	unrelated := &stubRecognizer{name: "b", entities: []string{"Y"}}
	a := newTestAnalyzer(t, wanted, unrelated)

	_, err := a.Analyze(context.Background(), "text", []string{"X"}, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1, wanted.calls)
	assert.Equal(t, 0, unrelated.calls)
}

func TestAnalyzeIsolatesFailingRecognizer(t *testing.T) {
	good := &stubRecognizer{name: "good", entities: []string{"X"},
		result: []Entity{{Type: "X", Start: 0, End: 4, Score: 0.8, Source: "good"}}}
	bad := &stubRecognizer{name: "bad", entities: []string{"X"},
		err: errors.New("model exploded")}
	a := newTestAnalyzer(t, good, bad)

	found, err := a.Analyze(context.Background(), "0123456789", nil, 0.5)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestAnalyzeAllRecognizersFailingIsAnError(t *testing.T) {
	bad1 := &stubRecognizer{name: "b1", entities: []string{"X"}, err: errors.New("boom")}
	bad2 := &stubRecognizer{name: "b2", entities: []string{"X"}, err: errors.New("boom")}
	a := newTestAnalyzer(t, bad1, bad2)

	_, err := a.Analyze(context.Background(), "text", nil, 0.5)
	require.ErrorIs(t, err, ErrNoUsableRecognizers)
}

func TestAnalyzeDropsInvalidSpans(t *testing.T) {
	r := &stubRecognizer{name: "a", entities: []string{"X"},
		result: []Entity{
			{Type: "X", Start: 4, End: 4, Score: 0.9, Source: "a"},  // zero length
			{Type: "X", Start: 2, End: 99, Score: 0.9, Source: "a"}, // past end
			{Type: "X", Start: -1, End: 3, Score: 0.9, Source: "a"}, // negative
			{Type: "X", Start: 0, End: 4, Score: 0.9, Source: "a"},  // valid
		}}
	a := newTestAnalyzer(t, r)

	found, err := a.Analyze(context.Background(), "0123456789", nil, 0.0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 0, found[0].Start)
	assert.Equal(t, 4, found[0].End)
}

func TestAnalyzeResultOrdering(t *testing.T) {
	r := &stubRecognizer{name: "a", entities: []string{"B_TYPE", "A_TYPE"},
		result: []Entity{
			{Type: "B_TYPE", Start: 5, End: 8, Score: 0.9, Source: "a"},
			{Type: "A_TYPE", Start: 5, End: 7, Score: 0.9, Source: "a"},
			{Type: "A_TYPE", Start: 0, End: 2, Score: 0.9, Source: "a"},
		}}
	a := newTestAnalyzer(t, r)

	found, err := a.Analyze(context.Background(), "0123456789", nil, 0.0)
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, 0, found[0].Start)
	assert.Equal(t, "A_TYPE", found[1].Type)
	assert.Equal(t, "B_TYPE", found[2].Type)
}

func TestSpanValidityProperty(t *testing.T) {
	swiss, err := SwissRecognizers()
	require.NoError(t, err)
	generic, err := GenericRecognizers()
	require.NoError(t, err)
	a := newTestAnalyzer(t, append(swiss, generic...)...)

	texts := []string{
		"Meine AHV-Nummer ist 756.1234.5678.97.",
		"Rufen Sie mich an: 079 123 45 67",
		"Kontakt: anna@example.com, IBAN CH93 0076 2011 6238 5295 7",
		"Zürich 8004, Server 192.168.1.1, https://example.ch/über-uns",
	}
	for _, text := range texts {
		found, err := a.Analyze(context.Background(), text, nil, 0.0)
		require.NoError(t, err)
		n := len([]rune(text))
		for _, e := range found {
			assert.GreaterOrEqual(t, e.Start, 0)
			assert.Less(t, e.Start, e.End)
			assert.LessOrEqual(t, e.End, n)
			assert.GreaterOrEqual(t, e.Score, 0.0)
			assert.LessOrEqual(t, e.Score, 1.0)
		}
	}
}
