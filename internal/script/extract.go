package script

import (
	"regexp"
	"strings"
	"unicode"
)

// Structural markers that open a new section when found at the start of a line.
var (
	reMarkdownHeader = regexp.MustCompile(`^#{1,3}\s+\S`)
	reHorizontalRule = regexp.MustCompile(`^-{3,}\s*$`)
	reBracketHeader  = regexp.MustCompile(`^\[[^\]]+\]\s*$`)
	reNumberedHeader = regexp.MustCompile(`^\d+[.)]\s+\S`)

	reParaBreak    = regexp.MustCompile(`\n{2,}`)
	reSentenceEnd  = regexp.MustCompile(`([.!?])\s+`)
	reExtraNewline = regexp.MustCompile(`\n{3,}`)
)

// Sections splits a script into structurally marked sections. A line matching
// any marker (markdown header, ALL-CAPS header, horizontal rule, [bracketed]
// header, numbered header) closes the accumulating section and starts a new
// one. Horizontal rules are separators and are not kept as content. When the
// text contains no markers at all, it falls back to blank-line paragraphs.
func Sections(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var sections []string
	var cur []string
	sawMarker := false

	flush := func() {
		s := strings.TrimSpace(strings.Join(cur, "\n"))
		if s != "" {
			sections = append(sections, s)
		}
		cur = cur[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if isSectionMarker(trimmed) {
			sawMarker = true
			flush()
			if reHorizontalRule.MatchString(trimmed) {
				continue
			}
			cur = append(cur, line)
			continue
		}
		cur = append(cur, line)
	}
	flush()

	if !sawMarker {
		return Paragraphs(text)
	}
	return sections
}

func isSectionMarker(line string) bool {
	if line == "" {
		return false
	}
	if reMarkdownHeader.MatchString(line) || reHorizontalRule.MatchString(line) ||
		reBracketHeader.MatchString(line) || reNumberedHeader.MatchString(line) {
		return true
	}
	return isAllCapsHeader(line)
}

// isAllCapsHeader reports whether a line looks like a shouted header: it has
// letters, none of them lowercase, and is short enough to be a title rather
// than an emphatic paragraph.
func isAllCapsHeader(line string) bool {
	if len(line) < 3 || len(line) > 60 {
		return false
	}
	hasLetter := false
	for _, r := range line {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// Paragraphs splits text on runs of two or more newlines.
func Paragraphs(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var out []string
	for _, p := range reParaBreak.Split(text, -1) {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		out = append(out, strings.TrimSpace(text))
	}
	return out
}

// sentenceMarker is inserted after terminal punctuation so the split needs no
// lookbehind. \x1f never occurs in script text.
const sentenceMarker = "\x1f"

// Sentences splits text into sentence units: paragraph breaks first, then
// after `.`, `!` or `?` followed by whitespace. Text with no recognizable
// boundary comes back as a single unit.
func Sentences(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	marked := reParaBreak.ReplaceAllString(text, sentenceMarker)
	marked = reSentenceEnd.ReplaceAllString(marked, "$1"+sentenceMarker)

	var out []string
	for _, s := range strings.Split(marked, sentenceMarker) {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		out = append(out, strings.TrimSpace(text))
	}
	return out
}

// wordCount counts whitespace-separated words.
func wordCount(s string) int { return len(strings.Fields(s)) }
