package script

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rehearsalScript = "Good morning everyone. Today we talk about allocation. " +
	"First we look at the problem. Then we explore the engine. " +
	"After that comes the demo. Finally we take questions. Thank you all."

func newTestEngine() *Engine { return NewEngine(Options{}) }

func TestAllocateCoversEverySlide(t *testing.T) {
	e := newTestEngine()
	for _, n := range []int{1, 2, 3, 5, 10} {
		r, err := e.Allocate(rehearsalScript, n, nil)
		require.NoError(t, err)
		require.Len(t, r.Slides, n)
		for i, s := range r.Slides {
			assert.Equal(t, i, s.SlideIndex)
			assert.False(t, s.ManuallySet)
		}
	}
}

func TestAllocateRejectsBadSlideCount(t *testing.T) {
	e := newTestEngine()
	_, err := e.Allocate(rehearsalScript, 0, nil)
	var ie *InputError
	require.ErrorAs(t, err, &ie)
}

func TestAllocateRejectsOversizedScript(t *testing.T) {
	e := NewEngine(Options{MaxScriptBytes: 64})
	_, err := e.Allocate(strings.Repeat("a", 65), 2, nil)
	var ie *InputError
	require.ErrorAs(t, err, &ie)
}

func TestAllocateEmptyScript(t *testing.T) {
	e := newTestEngine()
	r, err := e.Allocate("", 3, nil)
	require.NoError(t, err)
	require.Len(t, r.Slides, 3)
	for _, s := range r.Slides {
		assert.Equal(t, "", s.Content)
	}
}

func TestAllocateStructuredScriptUsesSections(t *testing.T) {
	e := newTestEngine()
	script := "# One\nfirst section text\n# Two\nsecond section text\n# Three\nthird section text"
	r, err := e.Allocate(script, 3, nil)
	require.NoError(t, err)
	assert.Contains(t, r.Slides[0].Content, "first section text")
	assert.Contains(t, r.Slides[1].Content, "second section text")
	assert.Contains(t, r.Slides[2].Content, "third section text")
}

func TestUpdateSlidePinsAndRedistributes(t *testing.T) {
	e := newTestEngine()
	r, err := e.Allocate(rehearsalScript, 3, nil)
	require.NoError(t, err)

	const custom = "My fully custom slide text, nothing like the script."
	r2, err := e.UpdateSlide(r, 1, custom)
	require.NoError(t, err)

	assert.Equal(t, custom, r2.Slides[1].Content)
	assert.True(t, r2.Slides[1].ManuallySet)
	assert.NotContains(t, r2.Slides[0].Content, custom)
	assert.NotContains(t, r2.Slides[2].Content, custom)

	// The untouched script is redistributed over the two automatic slides.
	assert.NotEqual(t, "", r2.Slides[0].Content)
	assert.NotEqual(t, "", r2.Slides[2].Content)
}

func TestUpdateSlideRemovesPinnedTextFromNeighbors(t *testing.T) {
	e := newTestEngine()
	r, err := e.Allocate(rehearsalScript, 3, nil)
	require.NoError(t, err)

	// Pin slide 0 to the exact text it was auto-assigned: that text must now
	// be absent from the automatic slides.
	pinnedText := r.Slides[0].Content
	require.NotEqual(t, "", pinnedText)
	r2, err := e.UpdateSlide(r, 0, pinnedText)
	require.NoError(t, err)
	assert.NotContains(t, r2.Slides[1].Content, pinnedText)
	assert.NotContains(t, r2.Slides[2].Content, pinnedText)
}

func TestPinPreservedAcrossOtherEdits(t *testing.T) {
	e := newTestEngine()
	r, err := e.Allocate(rehearsalScript, 4, nil)
	require.NoError(t, err)

	r, err = e.UpdateSlide(r, 2, "pinned content stays")
	require.NoError(t, err)
	r, err = e.UpdateSlide(r, 0, "another manual slide")
	require.NoError(t, err)
	r, err = e.ResetSlide(r, 0)
	require.NoError(t, err)

	assert.Equal(t, "pinned content stays", r.Slides[2].Content)
	assert.True(t, r.Slides[2].ManuallySet)
}

func TestResetAfterUpdateMatchesFreshAllocation(t *testing.T) {
	e := newTestEngine()
	fresh, err := e.Allocate(rehearsalScript, 3, nil)
	require.NoError(t, err)

	edited, err := e.UpdateSlide(fresh, 1, "temporary override")
	require.NoError(t, err)
	restored, err := e.ResetSlide(edited, 1)
	require.NoError(t, err)

	assert.Equal(t, fresh.Slides, restored.Slides)
}

func TestUpdateSlideIndexOutOfRange(t *testing.T) {
	e := newTestEngine()
	r, err := e.Allocate(rehearsalScript, 2, nil)
	require.NoError(t, err)
	_, err = e.UpdateSlide(r, 5, "x")
	var ie *InputError
	require.ErrorAs(t, err, &ie)
	_, err = e.ResetSlide(r, -1)
	require.ErrorAs(t, err, &ie)
}

func TestAllocateHonorsExistingManualSlides(t *testing.T) {
	e := newTestEngine()
	existing := []SlideAllocation{{SlideIndex: 1, Content: "kept as is", ManuallySet: true}}
	r, err := e.Allocate(rehearsalScript, 3, existing)
	require.NoError(t, err)
	assert.Equal(t, "kept as is", r.Slides[1].Content)
	assert.True(t, r.Slides[1].ManuallySet)
	assert.NotEqual(t, "", r.Slides[0].Content)
}

func TestUpdateSlideDoesNotMutateInput(t *testing.T) {
	e := newTestEngine()
	r, err := e.Allocate(rehearsalScript, 3, nil)
	require.NoError(t, err)
	before := cloneRound(r)
	_, err = e.UpdateSlide(r, 0, "something else")
	require.NoError(t, err)
	assert.Equal(t, before.Slides, r.Slides)
}
