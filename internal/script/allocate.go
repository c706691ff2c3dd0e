package script

import "strings"

// sectionSep joins multiple section units assigned to one slide.
const sectionSep = "\n\n"

// Spread distributes units over exactly count buckets by cardinality:
//
//   - len(units) == count: identity, unit i goes to bucket i.
//   - len(units) > count: consecutive groups of ceil(len/count) units joined
//     with a blank line; the last bucket absorbs whatever remains.
//   - len(units) < count: unit i goes to bucket i*count/len(units); buckets
//     that receive nothing stay empty. (Index-proportional mapping; we never
//     invent sentence boundaries to fill every bucket.)
//
// The result always has length count and is deterministic.
func Spread(units []string, count int) []string {
	if count <= 0 {
		return nil
	}
	out := make([]string, count)
	switch {
	case len(units) == 0:
		// all empty
	case len(units) == count:
		copy(out, units)
	case len(units) > count:
		per := (len(units) + count - 1) / count
		for i := 0; i < count; i++ {
			start := i * per
			if start >= len(units) {
				break
			}
			end := start + per
			if i == count-1 || end > len(units) {
				end = len(units)
			}
			out[i] = strings.Join(units[start:end], sectionSep)
		}
	default:
		for i, u := range units {
			b := i * count / len(units)
			if out[b] == "" {
				out[b] = u
			} else {
				out[b] += sectionSep + u
			}
		}
	}
	return out
}

// ByWords distributes sentence units over count buckets aiming for an even
// word count per bucket. The target is recomputed after every closed bucket
// from the words and buckets still remaining, so an early overshoot is paid
// back later. Each bucket takes at least one unit while input remains, a
// bucket stops accumulating at 1.3x its target, and the last bucket absorbs
// every leftover unit so no trailing content is dropped.
func ByWords(units []string, count int) []string {
	if count <= 0 {
		return nil
	}
	out := make([]string, count)
	if len(units) == 0 {
		return out
	}

	remainingWords := 0
	for _, u := range units {
		remainingWords += wordCount(u)
	}

	next := 0
	for b := 0; b < count; b++ {
		if next >= len(units) {
			break
		}
		if b == count-1 {
			out[b] = strings.Join(units[next:], " ")
			break
		}

		remainingBuckets := count - b
		target := float64(remainingWords) / float64(remainingBuckets)
		ceiling := target * 1.3

		var sb strings.Builder
		words := 0
		for next < len(units) {
			w := wordCount(units[next])
			if words > 0 && float64(words+w) > ceiling {
				break
			}
			if words > 0 && float64(words) >= target {
				break
			}
			if sb.Len() > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(units[next])
			words += w
			next++
		}
		out[b] = sb.String()
		remainingWords -= words
	}
	return out
}
