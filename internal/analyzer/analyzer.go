package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/slidescript/internal/ai"
	"github.com/local/slidescript/internal/deck"
	"github.com/local/slidescript/internal/matcher"
	"github.com/local/slidescript/internal/script"
)

const visionSystemPrompt = `You are a presentation slide analyst. You receive one slide image ` +
	`plus any text extracted from it. Reply with a single JSON object: ` +
	`{"topic": "<one line summary of the slide>", "key_points": ["<point>", ...]}. ` +
	`Keep the topic under 15 words and list at most 5 key points. Reply with JSON only.`

// Options controls how a deck is summarized before matching.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
	CallTimeout time.Duration
	BatchSize   int
	BatchDelay  time.Duration
	Render      deck.RenderOptions
}

// Analyzer turns a PDF deck into per-slide summaries the matcher can
// hand to an AI provider.
type Analyzer struct {
	client ai.Client
	opts   Options
}

func New(client ai.Client, opts Options) *Analyzer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 3
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 30 * time.Second
	}
	return &Analyzer{client: client, opts: opts}
}

type slideSummaryPayload struct {
	Topic     string   `json:"topic"`
	KeyPoints []string `json:"key_points"`
}

// AnalyzeDeck summarizes every slide of the PDF at pdfPath. Vision calls
// run in bounded batches with a pause between batches so a large deck
// cannot saturate the provider. A slide whose vision call fails gets a
// text-derived summary instead; the overall analysis never fails because
// of a single slide.
func (a *Analyzer) AnalyzeDeck(ctx context.Context, pdfPath string, slideCount int) ([]matcher.SlideSummary, error) {
	texts, err := deck.AllSlideTexts(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("analyze deck: %w", err)
	}

	summaries := make([]matcher.SlideSummary, slideCount)
	for start := 0; start < slideCount; start += a.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + a.opts.BatchSize
		if end > slideCount {
			end = slideCount
		}

		for i := start; i < end; i++ {
			slideNum := i + 1
			summaries[i] = a.analyzeSlide(ctx, pdfPath, slideNum, texts[slideNum])
		}

		log.Debug().
			Int("from", start+1).
			Int("to", end).
			Int("total", slideCount).
			Msg("analyzed slide batch")

		if end < slideCount && a.opts.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(a.opts.BatchDelay):
			}
		}
	}
	return summaries, nil
}

func (a *Analyzer) analyzeSlide(ctx context.Context, pdfPath string, slideNum int, slideText string) matcher.SlideSummary {
	jpegData, err := deck.RenderSlideJPEG(pdfPath, slideNum, a.opts.Render)
	if err != nil {
		log.Warn().Err(err).Int("slide", slideNum).Msg("slide render failed, using text summary")
		return textSummary(slideNum, slideText)
	}

	prompt := "Describe this slide."
	if strings.TrimSpace(slideText) != "" {
		prompt = fmt.Sprintf("Describe this slide. Text extracted from it:\n%s", slideText)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.opts.CallTimeout)
	defer cancel()

	resp, err := a.client.Do(callCtx, ai.Request{
		Model:        a.opts.Model,
		SystemPrompt: visionSystemPrompt,
		Prompt:       prompt,
		MaxTokens:    a.opts.MaxTokens,
		Temperature:  a.opts.Temperature,
		ImageBase64:  deck.EncodeBase64(jpegData),
		ImageMIME:    "image/jpeg",
	})
	if err != nil {
		log.Warn().Err(err).Int("slide", slideNum).Str("provider", a.client.Name()).
			Msg("vision call failed, using text summary")
		return textSummary(slideNum, slideText)
	}

	summary, ok := parseSummary(resp.Text)
	if !ok {
		log.Warn().Int("slide", slideNum).Msg("unparseable vision response, using text summary")
		return textSummary(slideNum, slideText)
	}
	summary.SlideNumber = slideNum
	return summary
}

// parseSummary pulls the JSON object out of a provider reply. Providers
// sometimes wrap JSON in code fences or chatter, so it scans for the
// outermost braces before unmarshaling.
func parseSummary(raw string) (matcher.SlideSummary, bool) {
	text := strings.TrimSpace(raw)
	open := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if open < 0 || end <= open {
		return matcher.SlideSummary{}, false
	}

	var payload slideSummaryPayload
	if err := json.Unmarshal([]byte(text[open:end+1]), &payload); err != nil {
		return matcher.SlideSummary{}, false
	}
	if strings.TrimSpace(payload.Topic) == "" {
		return matcher.SlideSummary{}, false
	}
	return matcher.SlideSummary{
		Topic:     strings.TrimSpace(payload.Topic),
		KeyPoints: payload.KeyPoints,
	}, true
}

// textSummary builds a summary from embedded slide text alone: first
// non-empty line as topic, leading sentences as key points. Image-only
// slides with no text layer get a positional placeholder.
func textSummary(slideNum int, slideText string) matcher.SlideSummary {
	text := strings.TrimSpace(slideText)
	if text == "" {
		return matcher.SlideSummary{
			SlideNumber: slideNum,
			Topic:       fmt.Sprintf("Slide %d", slideNum),
		}
	}

	topic := ""
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			topic = line
			break
		}
	}
	if len(topic) > 120 {
		topic = topic[:120]
	}

	var points []string
	for _, sent := range script.Sentences(text) {
		sent = strings.TrimSpace(sent)
		if sent == "" || sent == topic {
			continue
		}
		points = append(points, sent)
		if len(points) == 5 {
			break
		}
	}

	return matcher.SlideSummary{
		SlideNumber: slideNum,
		Topic:       topic,
		KeyPoints:   points,
	}
}
