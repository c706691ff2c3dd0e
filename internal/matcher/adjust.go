package matcher

import (
	"strings"

	"github.com/local/slidescript/internal/script"
)

// fitCount reshapes sections until there are exactly want of them: too many
// merges the shortest adjacent pair, too few splits the longest entry at a
// sentence boundary. Order is preserved throughout.
func fitCount(sections []string, want int) []string {
	if want <= 0 || len(sections) == 0 {
		return nil
	}
	out := make([]string, len(sections))
	copy(out, sections)

	for len(out) > want {
		out = mergeShortestAdjacent(out)
	}
	for len(out) < want {
		grown := splitLongest(out)
		if len(grown) == len(out) {
			// nothing splittable left; pad with empties at the end
			for len(out) < want {
				out = append(out, "")
			}
			break
		}
		out = grown
	}
	return out
}

func mergeShortestAdjacent(sections []string) []string {
	best := 0
	bestLen := -1
	for i := 0; i+1 < len(sections); i++ {
		l := len(sections[i]) + len(sections[i+1])
		if bestLen < 0 || l < bestLen {
			best, bestLen = i, l
		}
	}
	merged := strings.TrimSpace(sections[best] + " " + sections[best+1])
	out := make([]string, 0, len(sections)-1)
	out = append(out, sections[:best]...)
	out = append(out, merged)
	out = append(out, sections[best+2:]...)
	return out
}

// splitLongest splits the longest section at the sentence boundary closest to
// its middle. Sections with a single sentence fall back to a whitespace split
// near the midpoint; a section with no whitespace cannot be split.
func splitLongest(sections []string) []string {
	longest := 0
	for i, s := range sections {
		if len(s) > len(sections[longest]) {
			longest = i
		}
	}
	a, b, ok := splitNearMiddle(sections[longest])
	if !ok {
		return sections
	}
	out := make([]string, 0, len(sections)+1)
	out = append(out, sections[:longest]...)
	out = append(out, a, b)
	out = append(out, sections[longest+1:]...)
	return out
}

func splitNearMiddle(s string) (string, string, bool) {
	sentences := script.Sentences(s)
	if len(sentences) > 1 {
		mid := len(s) / 2
		bestIdx, bestDist := -1, len(s)+1
		offset := 0
		for i := 0; i < len(sentences)-1; i++ {
			// locate sentence end in the original string
			pos := strings.Index(s[offset:], sentences[i])
			if pos < 0 {
				break
			}
			end := offset + pos + len(sentences[i])
			offset = end
			if d := abs(end - mid); d < bestDist {
				bestIdx, bestDist = end, d
			}
		}
		if bestIdx > 0 {
			return strings.TrimSpace(s[:bestIdx]), strings.TrimSpace(s[bestIdx:]), true
		}
	}
	// no sentence boundary: split at whitespace near the midpoint
	mid := len(s) / 2
	cut := strings.LastIndex(s[:mid], " ")
	if cut <= 0 {
		cut = strings.Index(s[mid:], " ")
		if cut < 0 {
			return "", "", false
		}
		cut += mid
	}
	return strings.TrimSpace(s[:cut]), strings.TrimSpace(s[cut:]), true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
