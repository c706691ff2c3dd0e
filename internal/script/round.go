package script

import (
	"fmt"
	"strings"
)

// InputError is a caller mistake: it is surfaced synchronously and nothing is
// allocated.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return fmt.Sprintf("invalid input: %s", e.Reason) }

// SlideAllocation is one slide's assigned script text.
type SlideAllocation struct {
	SlideIndex  int    `json:"slide_index"`
	Content     string `json:"content"`
	ManuallySet bool   `json:"manually_set"`
}

// Round is a full assignment of one script across every slide of a
// presentation. Script keeps the original full text; pinned-span tracking
// always runs against it, never against previously allocated fragments.
type Round struct {
	Script string            `json:"script"`
	Slides []SlideAllocation `json:"slides"`
}

// Options configures the allocation engine.
type Options struct {
	// MaxScriptBytes rejects oversized scripts up front. Zero means the
	// default limit.
	MaxScriptBytes int
}

const defaultMaxScriptBytes = 1 << 20 // 1 MiB of script text is already absurd

// Engine performs deterministic script-to-slide allocation. All methods are
// pure with respect to their inputs: a Round passed in is never mutated, the
// modified copy is returned.
type Engine struct {
	maxScriptBytes int
}

func NewEngine(opts Options) *Engine {
	if opts.MaxScriptBytes <= 0 {
		opts.MaxScriptBytes = defaultMaxScriptBytes
	}
	return &Engine{maxScriptBytes: opts.MaxScriptBytes}
}

// Allocate produces a full round for the given script and slide count.
// Existing allocations may carry manually set slides; those keep their content
// and only the rest of the script is distributed over the remaining slides.
func (e *Engine) Allocate(fullScript string, slideCount int, existing []SlideAllocation) (Round, error) {
	if slideCount < 1 {
		return Round{}, &InputError{Reason: fmt.Sprintf("slide count must be >= 1, got %d", slideCount)}
	}
	if len(fullScript) > e.maxScriptBytes {
		return Round{}, &InputError{Reason: fmt.Sprintf("script is %d bytes, limit is %d", len(fullScript), e.maxScriptBytes)}
	}

	r := Round{Script: fullScript, Slides: make([]SlideAllocation, slideCount)}
	for i := range r.Slides {
		r.Slides[i].SlideIndex = i
	}
	for _, ex := range existing {
		if ex.ManuallySet && ex.SlideIndex >= 0 && ex.SlideIndex < slideCount {
			r.Slides[ex.SlideIndex].Content = ex.Content
			r.Slides[ex.SlideIndex].ManuallySet = true
		}
	}

	e.reallocate(&r)
	return r, nil
}

// UpdateSlide pins one slide to user-provided content and redistributes the
// rest of the script over the slides that are still automatic.
func (e *Engine) UpdateSlide(r Round, slideIndex int, content string) (Round, error) {
	if err := checkIndex(r, slideIndex); err != nil {
		return Round{}, err
	}
	out := cloneRound(r)
	out.Slides[slideIndex].Content = content
	out.Slides[slideIndex].ManuallySet = true
	e.reallocate(&out)
	return out, nil
}

// ResetSlide is the inverse of UpdateSlide: the slide rejoins automatic
// allocation. With no other pins changed the slide comes back exactly as a
// fresh allocation would have produced it.
func (e *Engine) ResetSlide(r Round, slideIndex int) (Round, error) {
	if err := checkIndex(r, slideIndex); err != nil {
		return Round{}, err
	}
	out := cloneRound(r)
	out.Slides[slideIndex].Content = ""
	out.Slides[slideIndex].ManuallySet = false
	e.reallocate(&out)
	return out, nil
}

// reallocate rewrites every non-manual slide in r from the part of the
// original script not claimed by pinned slides. Manual slides are untouched.
func (e *Engine) reallocate(r *Round) {
	var pinned []string
	autoCount := 0
	for _, s := range r.Slides {
		if s.ManuallySet {
			pinned = append(pinned, s.Content)
		} else {
			autoCount++
		}
	}
	if autoCount == 0 {
		return
	}

	remaining := r.Script
	if len(pinned) > 0 {
		spans := LocateSpans(r.Script, pinned)
		remaining = RemoveSpans(r.Script, spans)
	}

	parts := Distribute(remaining, autoCount)
	j := 0
	for i := range r.Slides {
		if r.Slides[i].ManuallySet {
			continue
		}
		r.Slides[i].Content = parts[j]
		j++
	}
}

// Distribute splits text over count slots, picking the extraction
// granularity: structural sections when the script has them, word-balanced
// sentences otherwise. It is also the fallback the AI matcher degrades to.
func Distribute(text string, count int) []string {
	if strings.TrimSpace(text) == "" {
		return make([]string, count)
	}
	if hasStructure(text) {
		return Spread(Sections(text), count)
	}
	return ByWords(Sentences(text), count)
}

// hasStructure reports whether any line of the text is a section marker.
func hasStructure(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if isSectionMarker(strings.TrimSpace(line)) {
			return true
		}
	}
	return false
}

func checkIndex(r Round, slideIndex int) error {
	if slideIndex < 0 || slideIndex >= len(r.Slides) {
		return &InputError{Reason: fmt.Sprintf("slide index %d out of range [0,%d)", slideIndex, len(r.Slides))}
	}
	return nil
}

func cloneRound(r Round) Round {
	out := Round{Script: r.Script, Slides: make([]SlideAllocation, len(r.Slides))}
	copy(out.Slides, r.Slides)
	return out
}
