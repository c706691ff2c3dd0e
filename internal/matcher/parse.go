package matcher

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode"
)

// Extraction strategy names, in the order they are tried. Models are told to
// answer with bare JSON but routinely wrap it in prose, markdown fences or
// numbered lists, so the parser walks down a ladder of progressively less
// strict extractors.
const (
	StrategyJSON      = "json"
	StrategyBracket   = "bracket"
	StrategyNumbered  = "numbered"
	StrategyQuoted    = "quoted"
	StrategyParagraph = "paragraph"
)

var (
	reNumberedLine = regexp.MustCompile(`^\s*\d+[.)]\s+(.*)$`)
	reQuoted       = regexp.MustCompile(`"([^"\n]{21,})"`)
	reCodeFence    = regexp.MustCompile("```(?:json)?")
)

// matchPayload is the object shape the prompt asks for.
type matchPayload struct {
	SlideNumber   int      `json:"slide_number"`
	ScriptSection string   `json:"script_section"`
	Confidence    int      `json:"confidence"`
	Reasoning     string   `json:"reasoning"`
	KeyAlignment  []string `json:"key_alignment"`
}

// extractSections pulls an ordered list of script sections out of a raw model
// response, returning the sections and the name of the strategy that
// produced them. An empty slice means every strategy failed.
func extractSections(raw string) ([]string, string) {
	raw = strings.TrimSpace(reCodeFence.ReplaceAllString(raw, ""))
	if raw == "" {
		return nil, ""
	}

	if s := parseJSONSections(raw); len(s) > 0 {
		return s, StrategyJSON
	}
	if s := parseBracketScan(raw); len(s) > 0 {
		return s, StrategyBracket
	}
	if s := parseNumberedList(raw); len(s) > 0 {
		return s, StrategyNumbered
	}
	if s := parseQuotedStrings(raw); len(s) > 0 {
		return s, StrategyQuoted
	}
	if s := parseParagraphs(raw); len(s) > 0 {
		return s, StrategyParagraph
	}
	return nil, ""
}

// parseJSONSections is the strict path: the whole response is a JSON array of
// strings or of match objects.
func parseJSONSections(raw string) []string {
	var strs []string
	if err := json.Unmarshal([]byte(raw), &strs); err == nil {
		return cleanSections(strs)
	}
	var objs []matchPayload
	if err := json.Unmarshal([]byte(raw), &objs); err == nil {
		out := make([]string, 0, len(objs))
		for _, o := range objs {
			out = append(out, o.ScriptSection)
		}
		return cleanSections(out)
	}
	return nil
}

// parseBracketScan cuts the substring between the first opening bracket and
// the last matching closing bracket and retries the JSON parse on it. This
// recovers "Sure! Here you go:\n[...]\nHope that helps!" style replies.
func parseBracketScan(raw string) []string {
	openSq, openBr := strings.Index(raw, "["), strings.Index(raw, "{")

	if openSq >= 0 && (openBr < 0 || openSq < openBr) {
		if close := strings.LastIndex(raw, "]"); close > openSq {
			return parseJSONSections(raw[openSq : close+1])
		}
	}
	if openBr >= 0 {
		if close := strings.LastIndex(raw, "}"); close > openBr {
			var obj matchPayload
			if err := json.Unmarshal([]byte(raw[openBr:close+1]), &obj); err == nil && obj.ScriptSection != "" {
				return []string{obj.ScriptSection}
			}
		}
	}
	return nil
}

// parseNumberedList extracts "1. text" / "2) text" entries, folding
// continuation lines into the current entry until the next number or a blank
// line.
func parseNumberedList(raw string) []string {
	var out []string
	var cur []string
	inEntry := false

	flush := func() {
		if len(cur) > 0 {
			if s := strings.TrimSpace(strings.Join(cur, " ")); s != "" {
				out = append(out, s)
			}
			cur = cur[:0]
		}
	}

	for _, line := range strings.Split(raw, "\n") {
		if m := reNumberedLine.FindStringSubmatch(line); m != nil {
			flush()
			cur = append(cur, m[1])
			inEntry = true
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			inEntry = false
			continue
		}
		if inEntry {
			cur = append(cur, trimmed)
		}
	}
	flush()
	return cleanSections(out)
}

// parseQuotedStrings collects every quoted run longer than 20 characters that
// carries sentence punctuation, on the theory that those are script text and
// shorter quotes are labels.
func parseQuotedStrings(raw string) []string {
	var out []string
	for _, m := range reQuoted.FindAllStringSubmatch(raw, -1) {
		if strings.ContainsAny(m[1], ".!?") {
			out = append(out, m[1])
		}
	}
	return cleanSections(out)
}

// parseParagraphs is the last resort: blank-line separated paragraphs over 50
// characters that do not look like headers or meta commentary.
func parseParagraphs(raw string) []string {
	var out []string
	for _, p := range regexp.MustCompile(`\n{2,}`).Split(raw, -1) {
		p = strings.TrimSpace(p)
		if len(p) <= 50 || looksLikeHeader(p) {
			continue
		}
		out = append(out, p)
	}
	return cleanSections(out)
}

func looksLikeHeader(p string) bool {
	if strings.HasPrefix(p, "#") || strings.HasPrefix(p, "[") {
		return true
	}
	lower := strings.ToLower(p)
	if strings.HasPrefix(lower, "note:") || strings.HasPrefix(lower, "here") {
		return true
	}
	// single short line in caps
	if !strings.Contains(p, "\n") {
		upper := true
		for _, r := range p {
			if unicode.IsLower(r) {
				upper = false
				break
			}
		}
		if upper {
			return true
		}
	}
	return false
}

func cleanSections(in []string) []string {
	out := in[:0:0]
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
