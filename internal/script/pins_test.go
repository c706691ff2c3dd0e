package script

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateSpansExactMatch(t *testing.T) {
	full := "the quick brown fox jumps over the lazy dog"
	spans := LocateSpans(full, []string{"brown fox jumps"})
	require.Len(t, spans, 1)
	assert.Equal(t, "brown fox jumps", full[spans[0].Start:spans[0].End])
}

func TestLocateSpansNeverOverlap(t *testing.T) {
	full := "alpha beta gamma delta"
	spans := LocateSpans(full, []string{"alpha beta gamma", "beta gamma delta"})
	require.Len(t, spans, 1, "overlapping candidate must be discarded")
	for i := range spans {
		for j := i + 1; j < len(spans); j++ {
			assert.False(t, spans[i].overlaps(spans[j]))
		}
	}
}

func TestLocateSpansLineParts(t *testing.T) {
	full := "intro line here\nmiddle line here\nclosing line here"
	// Pinned text was edited: one line survives verbatim, one did not.
	spans := LocateSpans(full, []string{"middle line here\ntotally rewritten line"})
	require.Len(t, spans, 1)
	assert.Equal(t, "middle line here", full[spans[0].Start:spans[0].End])
}

func TestLocateSpansMissIsSilent(t *testing.T) {
	spans := LocateSpans("some script text", []string{"not present at all"})
	assert.Empty(t, spans)
}

func TestRemoveSpansBackToFront(t *testing.T) {
	full := "keep one\n\nremove me\n\nkeep two\n\nremove too"
	spans := LocateSpans(full, []string{"remove me", "remove too"})
	require.Len(t, spans, 2)
	got := RemoveSpans(full, spans)
	assert.NotContains(t, got, "remove me")
	assert.NotContains(t, got, "remove too")
	assert.Contains(t, got, "keep one")
	assert.Contains(t, got, "keep two")
	assert.NotContains(t, got, "\n\n\n", "newline runs must collapse")
}

func TestRemoveSpansNoSpans(t *testing.T) {
	assert.Equal(t, "text", RemoveSpans("  text  ", nil))
}

func TestRemoveSpansRepeatedPhraseOnlyFirstOccurrenceRemoved(t *testing.T) {
	// Position tracking removes the located occurrence only; a verbatim
	// repeat elsewhere in the script must survive.
	full := "say hello twice\n\nsay hello twice again at the end"
	spans := LocateSpans(full, []string{"say hello twice"})
	require.Len(t, spans, 1)
	got := RemoveSpans(full, spans)
	assert.Equal(t, 1, strings.Count(got, "say hello twice"))
}
