package script

import (
	"sort"
	"strings"
)

// Span is a half-open [Start,End) byte range into the original full script.
type Span struct {
	Start int
	End   int
}

func (s Span) overlaps(o Span) bool {
	return s.Start < o.End && s.End > o.Start
}

// LocateSpans finds where previously allocated texts live inside the original
// script. Each pinned text is searched line by line (a manual edit often keeps
// some original lines verbatim even when the whole block no longer matches).
// Matches that overlap an already accepted span are discarded rather than
// double-counted, and text that cannot be found is silently skipped: a miss
// just means the user rewrote that part, not an error.
func LocateSpans(full string, pinnedTexts []string) []Span {
	var accepted []Span
	for _, pinned := range pinnedTexts {
		for _, part := range strings.Split(pinned, "\n") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			idx := strings.Index(full, part)
			if idx < 0 {
				continue
			}
			cand := Span{Start: idx, End: idx + len(part)}
			conflict := false
			for _, a := range accepted {
				if cand.overlaps(a) {
					conflict = true
					break
				}
			}
			if !conflict {
				accepted = append(accepted, cand)
			}
		}
	}
	return accepted
}

// RemoveSpans returns the script with all spans spliced out. Spans are removed
// back to front so earlier offsets stay valid, then leftover runs of 3+
// newlines collapse to a paragraph break.
func RemoveSpans(full string, spans []Span) string {
	if len(spans) == 0 {
		return strings.TrimSpace(full)
	}
	ordered := make([]Span, len(spans))
	copy(ordered, spans)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Start > ordered[j].Start })

	out := full
	for _, s := range ordered {
		if s.Start < 0 || s.End > len(out) || s.Start >= s.End {
			continue
		}
		out = out[:s.Start] + out[s.End:]
	}
	out = reExtraNewline.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
