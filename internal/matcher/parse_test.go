package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSectionsDirectJSONArray(t *testing.T) {
	got, strategy := extractSections(`["first section", "second section"]`)
	require.Len(t, got, 2)
	assert.Equal(t, StrategyJSON, strategy)
}

func TestExtractSectionsDirectJSONObjects(t *testing.T) {
	raw := `[{"slide_number":1,"script_section":"hello there.","confidence":88},
	        {"slide_number":2,"script_section":"goodbye now.","confidence":70}]`
	got, strategy := extractSections(raw)
	require.Len(t, got, 2)
	assert.Equal(t, StrategyJSON, strategy)
	assert.Equal(t, "hello there.", got[0])
}

func TestExtractSectionsCodeFenceStripped(t *testing.T) {
	got, strategy := extractSections("```json\n[\"a section\", \"b section\"]\n```")
	require.Len(t, got, 2)
	assert.Equal(t, StrategyJSON, strategy)
}

func TestExtractSectionsBracketScan(t *testing.T) {
	// The chatty wrapper from a model that cannot help being polite.
	raw := "Sure! Here you go:\n[\"a\",\"b\",\"c\"]\nHope that helps!"
	got, strategy := extractSections(raw)
	require.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, StrategyBracket, strategy)
}

func TestExtractSectionsNumberedList(t *testing.T) {
	raw := "Here are the sections:\n\n1. Welcome everyone to the talk.\nGlad you came.\n2) Now the demo part.\n\n3. Closing words."
	got, strategy := extractSections(raw)
	require.Len(t, got, 3)
	assert.Equal(t, StrategyNumbered, strategy)
	assert.Equal(t, "Welcome everyone to the talk. Glad you came.", got[0])
	assert.Equal(t, "Now the demo part.", got[1])
}

func TestExtractSectionsQuotedStrings(t *testing.T) {
	raw := `The model says "short" things but also "this is a much longer quoted sentence. truly." and "another quoted sentence that is long enough!"`
	got, strategy := extractSections(raw)
	require.Len(t, got, 2)
	assert.Equal(t, StrategyQuoted, strategy)
}

func TestExtractSectionsParagraphFallback(t *testing.T) {
	raw := "HEADER LINE\n\n" +
		"this paragraph is clearly part of the script because it is long enough to matter\n\n" +
		"short one\n\n" +
		"and a second sufficiently long paragraph that should also be kept around here"
	got, strategy := extractSections(raw)
	require.Len(t, got, 2)
	assert.Equal(t, StrategyParagraph, strategy)
}

func TestExtractSectionsGarbage(t *testing.T) {
	for _, raw := range []string{"", "   ", "?!", "{", "[]", "131313"} {
		got, _ := extractSections(raw)
		assert.Empty(t, got, "raw=%q", raw)
	}
}

func TestFitCountMergesShortestAdjacent(t *testing.T) {
	got := fitCount([]string{"a long opening section here", "tiny", "bit", "the closing section text"}, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "tiny bit", got[1])
}

func TestFitCountSplitsLongestAtSentenceBoundary(t *testing.T) {
	got := fitCount([]string{"First sentence here. Second sentence here.", "short one."}, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "First sentence here.", got[0])
	assert.Equal(t, "Second sentence here.", got[1])
	assert.Equal(t, "short one.", got[2])
}

func TestFitCountExactCountUntouched(t *testing.T) {
	in := []string{"one", "two"}
	assert.Equal(t, in, fitCount(in, 2))
}

func TestFitCountUnsplittableTailPadsEmpty(t *testing.T) {
	got := fitCount([]string{"word"}, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "word", got[0])
	assert.Equal(t, "", got[2])
}
