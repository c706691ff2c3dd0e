package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSummaryPlainJSON(t *testing.T) {
	s, ok := parseSummary(`{"topic": "Q3 revenue", "key_points": ["up 12%", "EMEA flat"]}`)
	require.True(t, ok)
	assert.Equal(t, "Q3 revenue", s.Topic)
	assert.Equal(t, []string{"up 12%", "EMEA flat"}, s.KeyPoints)
}

func TestParseSummaryWrappedInChatter(t *testing.T) {
	raw := "Here is the analysis you asked for:\n```json\n" +
		`{"topic": "Architecture overview", "key_points": ["three services"]}` +
		"\n```\nLet me know if you need more."
	s, ok := parseSummary(raw)
	require.True(t, ok)
	assert.Equal(t, "Architecture overview", s.Topic)
}

func TestParseSummaryRejectsGarbage(t *testing.T) {
	for _, raw := range []string{
		"",
		"no json here at all",
		"{broken json",
		`{"key_points": ["missing topic"]}`,
		`{"topic": "   "}`,
	} {
		_, ok := parseSummary(raw)
		assert.False(t, ok, "raw=%q", raw)
	}
}

func TestTextSummaryUsesFirstLineAsTopic(t *testing.T) {
	s := textSummary(3, "\n  Roadmap 2026  \nWe ship the new engine in March. Beta opens in May.")
	assert.Equal(t, 3, s.SlideNumber)
	assert.Equal(t, "Roadmap 2026", s.Topic)
	require.NotEmpty(t, s.KeyPoints)
}

func TestTextSummaryEmptySlide(t *testing.T) {
	s := textSummary(7, "   \n  ")
	assert.Equal(t, "Slide 7", s.Topic)
	assert.Empty(t, s.KeyPoints)
}

func TestTextSummaryCapsKeyPoints(t *testing.T) {
	text := "Title\nOne. Two. Three. Four. Five. Six. Seven. Eight."
	s := textSummary(1, text)
	assert.LessOrEqual(t, len(s.KeyPoints), 5)
}
