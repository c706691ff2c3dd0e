package store

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    redis "github.com/redis/go-redis/v9"

    "github.com/local/slidescript/internal/script"
)

// RoundStore persists allocation rounds keyed by presentation ID.
type RoundStore struct {
    client *redis.Client
    ttl    time.Duration
}

func NewRoundStore(redisURL string, ttl time.Duration) (*RoundStore, error) {
    opt, err := redis.ParseURL(redisURL)
    if err != nil { return nil, err }
    c := redis.NewClient(opt)
    if err := c.Ping(context.Background()).Err(); err != nil { return nil, err }
    return &RoundStore{client: c, ttl: ttl}, nil
}

func (s *RoundStore) Close() error { return s.client.Close() }

func (s *RoundStore) key(presentationID string) string {
    return fmt.Sprintf("presentation:%s:round", presentationID)
}

// Save stores the full round as JSON, refreshing the TTL.
func (s *RoundStore) Save(ctx context.Context, presentationID string, r script.Round) error {
    b, err := json.Marshal(r)
    if err != nil { return fmt.Errorf("marshal round: %w", err) }
    return s.client.Set(ctx, s.key(presentationID), b, s.ttl).Err()
}

// Get loads a round. The bool reports whether the presentation exists.
func (s *RoundStore) Get(ctx context.Context, presentationID string) (script.Round, bool, error) {
    res, err := s.client.Get(ctx, s.key(presentationID)).Result()
    if err == redis.Nil { return script.Round{}, false, nil }
    if err != nil { return script.Round{}, false, err }
    var r script.Round
    if err := json.Unmarshal([]byte(res), &r); err != nil {
        return script.Round{}, false, fmt.Errorf("unmarshal round: %w", err)
    }
    return r, true, nil
}

// Delete removes a stored round.
func (s *RoundStore) Delete(ctx context.Context, presentationID string) error {
    return s.client.Del(ctx, s.key(presentationID)).Err()
}
