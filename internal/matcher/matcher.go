package matcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/slidescript/internal/ai"
	"github.com/local/slidescript/internal/metrics"
	"github.com/local/slidescript/internal/script"
)

// SlideSummary describes one analyzed slide, the matcher's view of the deck.
type SlideSummary struct {
	SlideNumber int      `json:"slide_number"`
	Topic       string   `json:"topic"`
	KeyPoints   []string `json:"key_points"`
}

// Match assigns one script section to one slide.
type Match struct {
	SlideNumber   int      `json:"slide_number"`
	ScriptSection string   `json:"script_section"`
	Confidence    int      `json:"confidence"` // 0..100
	Reasoning     string   `json:"reasoning"`
	KeyAlignment  []string `json:"key_alignment,omitempty"`
}

// Options is the explicit adapter configuration; the matcher reads nothing
// from the environment.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Matcher matches script text to slides through a language model, degrading
// to the deterministic allocator whenever the model misbehaves. Match never
// returns an error and never panics past its boundary: the caller always gets
// exactly one entry per slide.
type Matcher struct {
	client ai.Client
	opts   Options
}

func New(client ai.Client, opts Options) *Matcher {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Matcher{client: client, opts: opts}
}

// Confidence assigned per winning extraction strategy. The further down the
// ladder the parse had to go, the less the section boundaries can be trusted.
var strategyConfidence = map[string]int{
	StrategyJSON:      90,
	StrategyBracket:   80,
	StrategyNumbered:  60,
	StrategyQuoted:    45,
	StrategyParagraph: 35,
}

const fallbackConfidence = 30

// Match distributes fullScript across the given slides. The happy path asks
// the model for one section per slide; every failure mode (transport error,
// timeout, malformed response, wrong section count) is recovered locally.
func (m *Matcher) Match(ctx context.Context, summaries []SlideSummary, fullScript string) []Match {
	if len(summaries) == 0 {
		return []Match{}
	}

	cctx, cancel := context.WithTimeout(ctx, m.opts.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := m.client.Do(cctx, ai.Request{
		Model:        m.opts.Model,
		SystemPrompt: systemPrompt,
		Prompt:       m.buildPrompt(summaries, fullScript),
		MaxTokens:    m.opts.MaxTokens,
		Temperature:  m.opts.Temperature,
		Timeout:      m.opts.Timeout,
	})
	if err != nil {
		metrics.ObserveProvider(m.client.Name(), m.opts.Model, "error", time.Since(start))
		log.Warn().Err(err).Str("provider", m.client.Name()).Msg("match call failed; using allocator fallback")
		return m.fallback(summaries, fullScript)
	}
	metrics.ObserveProvider(m.client.Name(), m.opts.Model, "success", time.Since(start))

	sections, strategy := extractSections(resp.Text)
	if len(sections) == 0 {
		log.Warn().Int("response_len", len(resp.Text)).Msg("no strategy could parse match response; using allocator fallback")
		return m.fallback(summaries, fullScript)
	}
	metrics.IncParseStrategy(strategy)

	adjusted := fitCount(sections, len(summaries))
	if len(adjusted) != len(summaries) {
		return m.fallback(summaries, fullScript)
	}
	if len(adjusted) != len(sections) {
		log.Debug().
			Int("parsed", len(sections)).
			Int("expected", len(summaries)).
			Str("strategy", strategy).
			Msg("adjusted section count to slide count")
	}

	conf := strategyConfidence[strategy]
	out := make([]Match, len(summaries))
	for i, s := range summaries {
		out[i] = Match{
			SlideNumber:   s.SlideNumber,
			ScriptSection: adjusted[i],
			Confidence:    conf,
			Reasoning:     strategy,
			KeyAlignment:  alignKeyPoints(adjusted[i], s.KeyPoints),
		}
	}
	return out
}

// fallback hands the whole script to the proportional allocator.
func (m *Matcher) fallback(summaries []SlideSummary, fullScript string) []Match {
	parts := script.Distribute(fullScript, len(summaries))
	out := make([]Match, len(summaries))
	for i, s := range summaries {
		out[i] = Match{
			SlideNumber:   s.SlideNumber,
			ScriptSection: parts[i],
			Confidence:    fallbackConfidence,
			Reasoning:     "fallback",
		}
	}
	return out
}

const systemPrompt = "You match presentation script text to slides. " +
	"Respond ONLY with a JSON array, no prose, no markdown fences."

func (m *Matcher) buildPrompt(summaries []SlideSummary, fullScript string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Here are %d slides of a presentation:\n\n", len(summaries))
	for _, s := range summaries {
		fmt.Fprintf(&sb, "Slide %d: %s\n", s.SlideNumber, s.Topic)
		for _, kp := range s.KeyPoints {
			fmt.Fprintf(&sb, "  - %s\n", kp)
		}
	}
	fmt.Fprintf(&sb, "\nAnd the full speech script:\n\n%s\n\n", fullScript)
	fmt.Fprintf(&sb, "Split the script into exactly %d consecutive sections, one per slide, "+
		"covering the whole script in order. Respond with a JSON array of exactly %d objects "+
		`shaped like {"slide_number": n, "script_section": "...", "confidence": 0-100, `+
		`"reasoning": "...", "key_alignment": ["..."]}.`, len(summaries), len(summaries))
	return sb.String()
}

// alignKeyPoints lists the key points that literally occur in the assigned
// section, a cheap signal of how plausible the match is.
func alignKeyPoints(section string, keyPoints []string) []string {
	lower := strings.ToLower(section)
	var out []string
	for _, kp := range keyPoints {
		if kp == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kp)) {
			out = append(out, kp)
		}
	}
	return out
}
