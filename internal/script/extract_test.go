package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionsMarkdownHeaders(t *testing.T) {
	text := "# Intro\nwelcome everyone\n\n## Body\nthe main part\n### Closing\nthank you"
	got := Sections(text)
	require.Len(t, got, 3)
	assert.Equal(t, "# Intro\nwelcome everyone", got[0])
	assert.Contains(t, got[1], "the main part")
	assert.Contains(t, got[2], "thank you")
}

func TestSectionsAllCapsAndBracketed(t *testing.T) {
	text := "OPENING\nhello\n[Demo Part]\nshow the thing\n1. Wrap up\nfinal words"
	got := Sections(text)
	require.Len(t, got, 3)
	assert.Equal(t, "OPENING\nhello", got[0])
	assert.Equal(t, "[Demo Part]\nshow the thing", got[1])
}

func TestSectionsHorizontalRuleIsSeparatorOnly(t *testing.T) {
	got := Sections("first part\n---\nsecond part")
	require.Len(t, got, 2)
	assert.Equal(t, "first part", got[0])
	assert.Equal(t, "second part", got[1])
}

func TestSectionsFallsBackToParagraphs(t *testing.T) {
	got := Sections("just some text\n\nand another paragraph")
	require.Len(t, got, 2)
	assert.Equal(t, "just some text", got[0])
}

func TestSectionsEmptyInput(t *testing.T) {
	assert.Empty(t, Sections(""))
	assert.Empty(t, Sections("   \n\t\n  "))
}

func TestSentences(t *testing.T) {
	got := Sentences("First one. Second one! Third one? Fourth")
	require.Len(t, got, 4)
	assert.Equal(t, "First one.", got[0])
	assert.Equal(t, "Second one!", got[1])
	assert.Equal(t, "Third one?", got[2])
	assert.Equal(t, "Fourth", got[3])
}

func TestSentencesParagraphBreakSplitsWithoutPunctuation(t *testing.T) {
	got := Sentences("no punctuation here\n\nbut a paragraph break")
	require.Len(t, got, 2)
}

func TestSentencesNoBoundaries(t *testing.T) {
	got := Sentences("one unbroken run of words with no terminal punctuation")
	require.Len(t, got, 1)
	assert.Equal(t, "one unbroken run of words with no terminal punctuation", got[0])
}

func TestSentencesAbbreviationStaysAttachedToWhitespaceRule(t *testing.T) {
	// Only punctuation followed by whitespace splits; "3.5" stays whole.
	got := Sentences("Version 3.5 ships today. Enjoy.")
	require.Len(t, got, 2)
	assert.Equal(t, "Version 3.5 ships today.", got[0])
}

func TestIsAllCapsHeader(t *testing.T) {
	assert.True(t, isAllCapsHeader("THE BIG FINALE"))
	assert.False(t, isAllCapsHeader("THE big finale"))
	assert.False(t, isAllCapsHeader("123 456"))
	assert.False(t, isAllCapsHeader("OK")) // too short to be a header
}
