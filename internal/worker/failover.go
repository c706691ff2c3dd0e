package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/slidescript/internal/ai"
	"github.com/local/slidescript/internal/config"
	"github.com/local/slidescript/internal/limiter"
	"github.com/local/slidescript/internal/metrics"
)

// Failover is an ai.Client that tries the primary provider, then the
// secondary, with a shared circuit breaker and a local inflight cap per
// provider:model. The model is picked per provider from the configured
// text/vision pair, based on whether the request carries an image.
type Failover struct {
	providers config.ProvidersConfig
	openai    ai.Client
	anthropic ai.Client
	lim       *limiter.Adaptive
	timeout   time.Duration
}

func NewFailover(providers config.ProvidersConfig, openai, anthropic ai.Client, lim *limiter.Adaptive, timeout time.Duration) *Failover {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Failover{providers: providers, openai: openai, anthropic: anthropic, lim: lim, timeout: timeout}
}

func (f *Failover) Name() string { return "failover" }

// WithPrimary returns a chain that tries the given provider first.
// Unknown or empty values keep the configured order.
func (f *Failover) WithPrimary(engine string) *Failover {
	engine = strings.ToLower(engine)
	if (engine != "openai" && engine != "anthropic") || engine == f.providers.PrimaryEngine {
		return f
	}
	c := *f
	c.providers.PrimaryEngine = engine
	if engine == "openai" {
		c.providers.SecondaryEngine = "anthropic"
	} else {
		c.providers.SecondaryEngine = "openai"
	}
	return &c
}

func (f *Failover) clientFor(provider string) ai.Client {
	if provider == "anthropic" {
		return f.anthropic
	}
	return f.openai
}

func (f *Failover) modelFor(provider string, vision bool) string {
	var m config.ProviderModels
	switch provider {
	case "anthropic":
		m = f.providers.Anthropic
	default:
		m = f.providers.OpenAI
	}
	if vision {
		return m.Vision
	}
	return m.Text
}

// Do attempts the request against each provider in failover order. A
// fatal error stops the chain; transient errors open the breaker and
// move to the next provider.
func (f *Failover) Do(ctx context.Context, req ai.Request) (ai.Response, error) {
	order := []string{f.providers.PrimaryEngine, f.providers.SecondaryEngine}
	vision := req.ImageBase64 != ""
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = f.timeout
	}

	var lastErr error
	for i, provider := range order {
		model := f.modelFor(provider, vision)
		if model == "" {
			continue
		}

		if f.lim.IsOpen(ctx, provider, model) {
			log.Debug().Str("provider", provider).Str("model", model).Msg("breaker open, skipping provider")
			lastErr = &RateLimitError{Provider: provider, Model: model, Reason: "breaker open"}
			continue
		}

		release, ok := f.lim.Allow(provider, model)
		if !ok {
			log.Debug().Str("provider", provider).Str("model", model).Msg("inflight limit reached, skipping provider")
			lastErr = &RateLimitError{Provider: provider, Model: model, Reason: "inflight limit"}
			continue
		}

		attemptReq := req
		attemptReq.Model = model
		attemptReq.Timeout = timeout

		// Fresh deadline per attempt so an exhausted first attempt does
		// not starve the second.
		cctx, cancel := context.WithTimeout(ctx, timeout)
		start := time.Now()
		resp, err := f.clientFor(provider).Do(cctx, attemptReq)
		dur := time.Since(start)
		cancel()
		release()

		if err == nil {
			metrics.ObserveProvider(provider, model, "success", dur)
			f.lim.Reset(ctx, provider, model)
			log.Debug().
				Str("provider", provider).
				Str("model", model).
				Dur("duration", dur).
				Int("tokens_in", resp.TokensIn).
				Int("tokens_out", resp.TokensOut).
				Msg("provider call success")
			return resp, nil
		}

		if cctx.Err() == context.DeadlineExceeded {
			err = &RateLimitError{Provider: provider, Model: model, Reason: "timeout"}
			metrics.ObserveProvider(provider, model, "timeout", dur)
		} else if ai.IsRateLimited(err) {
			metrics.ObserveProvider(provider, model, "rate_limited", dur)
		} else if isTransientError(err) {
			metrics.ObserveProvider(provider, model, "transient", dur)
		} else if isFatalError(err) {
			metrics.ObserveProvider(provider, model, "fatal", dur)
		} else {
			metrics.ObserveProvider(provider, model, "unknown", dur)
		}

		if isFatalError(err) {
			log.Error().Err(err).
				Str("provider", provider).
				Str("model", model).
				Msg("fatal provider error, aborting failover chain")
			return ai.Response{}, err
		}

		if isTransientError(err) {
			f.lim.Open(ctx, provider, model)
		}
		log.Warn().Err(err).
			Str("provider", provider).
			Str("model", model).
			Int("attempt", i+1).
			Msg("provider call failed, trying next")
		lastErr = err
	}

	metrics.ObserveProvider("all", "all", "exhausted", 0)
	if lastErr == nil {
		lastErr = fmt.Errorf("no provider configured")
	}
	return ai.Response{}, lastErr
}
