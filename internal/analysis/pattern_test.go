package analysis

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwissAHVWithContextBoost(t *testing.T) {
	rec, err := NewSwissAHVRecognizer()
	require.NoError(t, err)

	text := "Meine AHV-Nummer ist 756.1234.5678.97."
	found, err := rec.Evaluate(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, found, 1)

	e := found[0]
	assert.Equal(t, "CH_AHV", e.Type)
	assert.Equal(t, "756.1234.5678.97", substring(text, e.Start, e.End))
	assert.GreaterOrEqual(t, e.Score, 0.95)
	assert.LessOrEqual(t, e.Score, 1.0)
}

func TestContextBoostCappedAtOne(t *testing.T) {
	rec, err := NewSwissAHVRecognizer()
	require.NoError(t, err)

	// Several context keywords around the match must not push the score
	// past 1.0.
	text := "AHV Sozialversicherung Versichertennummer 756.1234.5678.97 AHV AVS"
	found, err := rec.Evaluate(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 1.0, found[0].Score)
}

func TestContextMatchIgnoresDiacritics(t *testing.T) {
	rec, err := NewSwissIBANRecognizer()
	require.NoError(t, err)

	boosted, err := rec.Evaluate(context.Background(), "Überweisung an CH9300762011623852957 senden")
	require.NoError(t, err)
	require.Len(t, boosted, 1)

	plain, err := rec.Evaluate(context.Background(), "Nummer lautet CH9300762011623852957 heute")
	require.NoError(t, err)
	require.Len(t, plain, 1)

	assert.Greater(t, boosted[0].Score, plain[0].Score)
}

func TestContextOutsideWindowDoesNotBoost(t *testing.T) {
	rec, err := NewSwissPostalCodeRecognizer()
	require.NoError(t, err)

	filler := strings.Repeat("und so weiter immer ", 3) // 12 tokens of padding
	text := "PLZ " + filler + "8004"
	found, err := rec.Evaluate(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.InDelta(t, 0.3, found[0].Score, 1e-9)
}

func TestPostalCodeBoostedByNearbyKeyword(t *testing.T) {
	rec, err := NewSwissPostalCodeRecognizer()
	require.NoError(t, err)

	found, err := rec.Evaluate(context.Background(), "Wohnort: 8004 Zürich")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.InDelta(t, 0.65, found[0].Score, 1e-9)
}

func TestOverlapKeepsHighestScore(t *testing.T) {
	// Two patterns of the same recognizer hitting overlapping spans:
	// only the stronger one may survive.
	rec, err := NewPatternRecognizer("digits", "NUM",
		[]PatternSpec{
			{Name: "long", Expr: `\d{6}`, Score: 0.6},
			{Name: "short", Expr: `\d{4}`, Score: 0.9},
		}, nil)
	require.NoError(t, err)

	found, err := rec.Evaluate(context.Background(), "id 123456 end")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.InDelta(t, 0.9, found[0].Score, 1e-9)
	assert.Equal(t, 4, found[0].Len())
}

func TestInvalidPatternIsConfigError(t *testing.T) {
	_, err := NewPatternRecognizer("broken", "X",
		[]PatternSpec{{Name: "bad", Expr: `([`, Score: 0.5}}, nil)
	require.ErrorIs(t, err, ErrConfig)
}

func TestScoreOutsideRangeIsConfigError(t *testing.T) {
	_, err := NewPatternRecognizer("broken", "X",
		[]PatternSpec{{Name: "bad", Expr: `\d+`, Score: 1.5}}, nil)
	require.ErrorIs(t, err, ErrConfig)
}

func TestEmptyTextYieldsNothing(t *testing.T) {
	rec, err := NewSwissPhoneRecognizer()
	require.NoError(t, err)
	found, err := rec.Evaluate(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestRuneOffsetsWithUmlauts(t *testing.T) {
	rec, err := NewSwissPhoneRecognizer()
	require.NoError(t, err)

	// The umlauts before the number shift byte offsets away from rune
	// offsets; spans must be rune-based.
	text := "Zürich Büro: 079 123 45 67"
	found, err := rec.Evaluate(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "079 123 45 67", substring(text, found[0].Start, found[0].End))
}

func substring(text string, start, end int) string {
	runes := []rune(text)
	return string(runes[start:end])
}
