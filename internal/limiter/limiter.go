package limiter

import (
    "context"
    "fmt"
    "strings"
    "sync"
    "time"

    redis "github.com/redis/go-redis/v9"

    "github.com/local/slidescript/internal/metrics"
)

// Adaptive holds a per provider:model circuit breaker in Redis and a
// local inflight semaphore. The breaker state is shared across
// processes; the semaphore is per-process.
type Adaptive struct {
    rdb         *redis.Client
    maxInflight int
    baseBackoff time.Duration
    maxBackoff  time.Duration
    mu          sync.Mutex
    sem         map[string]chan struct{}
}

type Options struct {
    RedisURL    string
    MaxInflight int
    BaseBackoff time.Duration
    MaxBackoff  time.Duration
}

func New(opts Options) (*Adaptive, error) {
    if opts.MaxInflight <= 0 { opts.MaxInflight = 3 }
    if opts.BaseBackoff <= 0 { opts.BaseBackoff = 30 * time.Second }
    if opts.MaxBackoff <= 0 { opts.MaxBackoff = 5 * time.Minute }
    ro, err := redis.ParseURL(opts.RedisURL)
    if err != nil { return nil, err }
    c := redis.NewClient(ro)
    if err := c.Ping(context.Background()).Err(); err != nil { return nil, err }
    return &Adaptive{rdb: c, maxInflight: opts.MaxInflight, baseBackoff: opts.BaseBackoff, maxBackoff: opts.MaxBackoff, sem: map[string]chan struct{}{}}, nil
}

func (a *Adaptive) key(provider, model string) string {
    return fmt.Sprintf("cb:%s:%s", strings.ToLower(provider), strings.ToLower(model))
}

// IsOpen returns true if the breaker is open (cooldown active).
func (a *Adaptive) IsOpen(ctx context.Context, provider, model string) bool {
    ts, err := a.rdb.Get(ctx, a.key(provider, model)).Int64()
    if err != nil { return false }
    return time.Now().Unix() < ts
}

// Open sets or extends the cooldown, doubling per consecutive attempt
// up to maxBackoff.
func (a *Adaptive) Open(ctx context.Context, provider, model string) {
    k := a.key(provider, model)
    attempts, _ := a.rdb.Incr(ctx, k+":attempts").Result()
    if attempts < 1 { attempts = 1 }
    d := a.baseBackoff * (1 << (attempts - 1))
    if d > a.maxBackoff { d = a.maxBackoff }
    until := time.Now().Add(d).Unix()
    _ = a.rdb.Set(ctx, k, until, d).Err()
    metrics.BreakerOpened(provider, model)
}

// Reset clears the breaker after a successful call.
func (a *Adaptive) Reset(ctx context.Context, provider, model string) {
    k := a.key(provider, model)
    deleted, _ := a.rdb.Del(ctx, k, k+":attempts").Result()
    if deleted > 0 {
        metrics.BreakerClosed(provider, model)
    }
}

// Allow tries to reserve a local in-process slot for provider:model.
// Returns a release function and true if allowed; otherwise nil slot.
func (a *Adaptive) Allow(provider, model string) (func(), bool) {
    key := strings.ToLower(provider) + ":" + strings.ToLower(model)
    a.mu.Lock()
    ch, ok := a.sem[key]
    if !ok {
        ch = make(chan struct{}, a.maxInflight)
        a.sem[key] = ch
    }
    a.mu.Unlock()
    select {
    case ch <- struct{}{}:
        return func() { <-ch }, true
    default:
        return func(){}, false
    }
}

func (a *Adaptive) CloseClient() error { return a.rdb.Close() }
