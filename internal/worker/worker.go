package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/slidescript/internal/analyzer"
	"github.com/local/slidescript/internal/config"
	"github.com/local/slidescript/internal/deck"
	"github.com/local/slidescript/internal/matcher"
	"github.com/local/slidescript/internal/metrics"
	"github.com/local/slidescript/internal/queue"
	"github.com/local/slidescript/internal/store"
)

// MatchJob is the queue payload for one deck-to-script matching run.
type MatchJob struct {
	JobID          string `json:"job_id"`
	PresentationID string `json:"presentation_id"`
	DeckRef        string `json:"deck_ref"`
	Engine         string `json:"engine,omitempty"`
	Attempt        int    `json:"attempt"`
}

// Worker consumes match jobs: fetch the deck, summarize its slides,
// match the stored script against them, and write the result back.
type Worker struct {
	cfg    config.Config
	q      *queue.RedisQueue
	rounds *store.RoundStore
	status *store.RedisStatus
	client *Failover
	stop   chan struct{}
}

func New(cfg config.Config, q *queue.RedisQueue, rounds *store.RoundStore, status *store.RedisStatus, client *Failover) *Worker {
	if cfg.Worker.Concurrency <= 0 {
		cfg.Worker.Concurrency = 2
	}
	return &Worker{cfg: cfg, q: q, rounds: rounds, status: status, client: client, stop: make(chan struct{})}
}

func (w *Worker) Start() {
	for i := 0; i < w.cfg.Worker.Concurrency; i++ {
		go w.loop(i)
	}
	go w.sampleDepths()
}

func (w *Worker) Stop(ctx context.Context) error {
	close(w.stop)
	return nil
}

func (w *Worker) loop(id int) {
	consumer := fmt.Sprintf("worker-%d", id)
	log.Info().Int("worker", id).Msg("match worker started")
	for {
		select {
		case <-w.stop:
			log.Info().Int("worker", id).Msg("match worker stopped")
			return
		default:
		}

		msgID, data, err := w.q.Dequeue(context.Background(), consumer, 2*time.Second)
		if err != nil {
			log.Error().Err(err).Msg("queue dequeue error")
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if data == nil {
			continue
		}
		_ = w.q.Ack(context.Background(), msgID)

		var job MatchJob
		if err := json.Unmarshal(data, &job); err != nil {
			log.Error().Err(err).Str("msg_id", msgID).Msg("malformed job payload, dropping")
			continue
		}
		w.handle(job, data)
	}
}

func (w *Worker) handle(job MatchJob, payload []byte) {
	ctx := context.Background()

	if done, _ := w.q.IsDone(ctx, job.JobID); done {
		log.Warn().Str("job_id", job.JobID).Msg("job already completed, skipping")
		return
	}
	if cancelled, _ := w.q.IsCancelled(ctx, job.JobID); cancelled {
		w.finishCancelled(ctx, job)
		return
	}

	err := w.process(ctx, job)
	if err == nil {
		return
	}
	if cancelled, _ := w.q.IsCancelled(ctx, job.JobID); cancelled {
		w.finishCancelled(ctx, job)
		return
	}

	if isTransientError(err) && job.Attempt+1 < w.cfg.Worker.JobMaxAttempts {
		w.scheduleRetry(ctx, job, err)
		return
	}

	// Retries exhausted or fatal: dead-letter the job
	log.Error().Err(err).
		Str("job_id", job.JobID).
		Int("attempt", job.Attempt+1).
		Msg("match job failed permanently")
	_ = w.q.AddDLQ(ctx, payload, err.Error())
	_ = w.q.MarkDone(ctx, job.JobID, 24*time.Hour)
	end := time.Now()
	_ = w.status.Set(ctx, job.JobID, store.Status{
		Status:  "failed",
		Message: err.Error(),
		End:     &end,
	})
	metrics.IncMatchJob("dlq")
}

func (w *Worker) scheduleRetry(ctx context.Context, job MatchJob, cause error) {
	retry := job
	retry.Attempt++
	delay := time.Duration(float64(w.cfg.Worker.RetryBaseDelay) * math.Pow(w.cfg.Worker.RetryBackoffFactor, float64(job.Attempt)))
	b, _ := json.Marshal(retry)
	if err := w.q.EnqueueDelayed(ctx, b, time.Now().Add(delay)); err != nil {
		log.Error().Err(err).Str("job_id", job.JobID).Msg("retry enqueue failed")
		return
	}
	metrics.IncRetry()
	_ = w.status.SetProgress(ctx, job.JobID, "retrying", 0,
		fmt.Sprintf("attempt %d failed: %v", job.Attempt+1, cause))
	log.Warn().Err(cause).
		Str("job_id", job.JobID).
		Int("next_attempt", retry.Attempt+1).
		Dur("delay", delay).
		Msg("match job scheduled for retry")
}

func (w *Worker) finishCancelled(ctx context.Context, job MatchJob) {
	end := time.Now()
	_ = w.status.Set(ctx, job.JobID, store.Status{
		Status:  "cancelled",
		Message: "cancelled by request",
		End:     &end,
	})
	_ = w.q.MarkDone(ctx, job.JobID, 24*time.Hour)
	metrics.IncMatchJob("cancelled")
	log.Info().Str("job_id", job.JobID).Msg("match job cancelled")
}

// process runs one matching attempt end to end. Only errors bubble up;
// success writes the result and marks the job done.
func (w *Worker) process(ctx context.Context, job MatchJob) error {
	startTime := time.Now()
	log.Info().
		Str("job_id", job.JobID).
		Str("presentation_id", job.PresentationID).
		Str("deck", job.DeckRef).
		Int("attempt", job.Attempt+1).
		Msg("starting match job")

	_ = w.status.Set(ctx, job.JobID, store.Status{
		Status:   "processing",
		Progress: 5,
		Message:  "Fetching deck",
		Start:    &startTime,
		Metadata: map[string]any{
			"presentation_id": job.PresentationID,
			"deck_ref":        job.DeckRef,
		},
	})

	round, found, err := w.rounds.Get(ctx, job.PresentationID)
	if err != nil {
		return fmt.Errorf("load round: %w", err)
	}
	if !found {
		return &ValidationError{Message: "unknown presentation " + job.PresentationID}
	}

	pdfPath, cleanup, err := w.prepareDeck(ctx, job)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		return err
	}

	slideCount, err := deck.PageCount(pdfPath)
	if err != nil {
		return fmt.Errorf("page count: %w", err)
	}
	if slideCount != len(round.Slides) {
		return &ValidationError{Message: fmt.Sprintf(
			"deck has %d slides but presentation has %d", slideCount, len(round.Slides))}
	}

	_ = w.status.SetProgress(ctx, job.JobID, "processing", 30, fmt.Sprintf("Analyzing %d slides", slideCount))

	client := w.client.WithPrimary(job.Engine)
	an := analyzer.New(client, analyzer.Options{
		Model:       "auto",
		MaxTokens:   w.cfg.AI.MaxTokens,
		Temperature: w.cfg.AI.Temperature,
		CallTimeout: w.cfg.AI.RequestTimeout,
		BatchSize:   w.cfg.AI.BatchSize,
		BatchDelay:  w.cfg.AI.BatchDelay,
		Render: deck.RenderOptions{
			DPI:       w.cfg.Deck.RenderDPI,
			Quality:   w.cfg.Deck.JPEGQuality,
			Grayscale: w.cfg.Deck.Grayscale,
		},
	})
	summaries, err := an.AnalyzeDeck(ctx, pdfPath, slideCount)
	if err != nil {
		return fmt.Errorf("analyze deck: %w", err)
	}

	if cancelled, _ := w.q.IsCancelled(ctx, job.JobID); cancelled {
		w.finishCancelled(ctx, job)
		return nil
	}

	_ = w.status.SetProgress(ctx, job.JobID, "processing", 80, "Matching script to slides")

	m := matcher.New(client, matcher.Options{
		Model:       "auto",
		MaxTokens:   w.cfg.AI.MaxTokens,
		Temperature: w.cfg.AI.Temperature,
		Timeout:     w.cfg.AI.RequestTimeout,
	})
	matches := m.Match(ctx, summaries, round.Script)

	// Pinned slides keep their text; matches land on the rest only.
	fellBack := true
	for i, m := range matches {
		if m.Reasoning != "fallback" {
			fellBack = false
		}
		if i < len(round.Slides) && !round.Slides[i].ManuallySet {
			round.Slides[i].Content = m.ScriptSection
		}
	}
	if err := w.rounds.Save(ctx, job.PresentationID, round); err != nil {
		return fmt.Errorf("save round: %w", err)
	}
	metrics.IncAllocation("match")

	result := "matched"
	if fellBack {
		result = "fallback"
	}
	metrics.IncMatchJob(result)
	_ = w.q.MarkDone(ctx, job.JobID, 24*time.Hour)

	end := time.Now()
	matchesJSON, _ := json.Marshal(matches)
	_ = w.status.Set(ctx, job.JobID, store.Status{
		Status:   "success",
		Progress: 100,
		Message:  "Matching completed",
		Start:    &startTime,
		End:      &end,
		Metadata: map[string]any{
			"presentation_id":  job.PresentationID,
			"deck_ref":         job.DeckRef,
			"slide_count":      slideCount,
			"result":           result,
			"matches":          json.RawMessage(matchesJSON),
			"duration_seconds": time.Since(startTime).Seconds(),
		},
	})

	log.Info().
		Str("job_id", job.JobID).
		Str("result", result).
		Dur("duration", time.Since(startTime)).
		Msg("match job completed")
	return nil
}

// prepareDeck downloads the deck and converts it to PDF when necessary.
func (w *Worker) prepareDeck(ctx context.Context, job MatchJob) (string, func(), error) {
	localPath, cleanup, err := deck.Fetch(ctx, job.DeckRef)
	if err != nil {
		return "", cleanup, fmt.Errorf("fetch deck: %w", err)
	}

	info, err := deck.Detect(localPath)
	if err != nil {
		return "", cleanup, &ValidationError{Message: err.Error()}
	}

	_ = w.status.SetProgress(ctx, job.JobID, "processing", 15, "Deck fetched")

	if info.IsPDF {
		return localPath, cleanup, nil
	}

	pdfPath, err := deck.ConvertToPDF(ctx, localPath, info.Extension, w.cfg.Deck.ConvertTimeout)
	if err != nil {
		return "", cleanup, fmt.Errorf("convert deck: %w", err)
	}
	_ = w.status.SetProgress(ctx, job.JobID, "processing", 25, "Deck converted to PDF")
	fetchCleanup := cleanup
	cleanup = func() {
		os.Remove(pdfPath)
		if fetchCleanup != nil {
			fetchCleanup()
		}
	}
	return pdfPath, cleanup, nil
}

// sampleDepths exports queue depth gauges until the worker stops.
func (w *Worker) sampleDepths() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			stream, delayed, dlq, err := w.q.Depths(ctx)
			cancel()
			if err != nil {
				continue
			}
			metrics.SetQueueDepth("stream", stream)
			metrics.SetQueueDepth("delayed", delayed)
			metrics.SetQueueDepth("dlq", dlq)
		}
	}
}
