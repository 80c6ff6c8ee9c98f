package store

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    redis "github.com/redis/go-redis/v9"
)

// Record captures what one prediction call stored, so its retrieval links
// can be refreshed later. Keys are empty for inline-mode calls.
type Record struct {
    Task       string    `json:"task"`
    InputKey   string    `json:"input_key,omitempty"`
    OutputKeys []string  `json:"output_keys,omitempty"`
    Persisted  bool      `json:"persisted"`
    CreatedAt  time.Time `json:"created_at"`
}

// RedisPredictions persists prediction records keyed by correlation id.
// Records expire together with the longest possible presign TTL; a link
// that can no longer be refreshed has no record to refresh from.
type RedisPredictions struct {
    client *redis.Client
    keyNS  string
    ttl    time.Duration
}

func NewRedisPredictions(redisURL string) (*RedisPredictions, error) {
    opt, err := redis.ParseURL(redisURL)
    if err != nil {
        return nil, err
    }
    c := redis.NewClient(opt)
    if err := c.Ping(context.Background()).Err(); err != nil {
        return nil, err
    }
    return &RedisPredictions{client: c, keyNS: "prediction", ttl: 7 * 24 * time.Hour}, nil
}

func (s *RedisPredictions) key(id string) string { return fmt.Sprintf("%s:%s", s.keyNS, id) }

func (s *RedisPredictions) Save(ctx context.Context, id string, rec Record) error {
    b, err := json.Marshal(rec)
    if err != nil {
        return err
    }
    return s.client.Set(ctx, s.key(id), b, s.ttl).Err()
}

func (s *RedisPredictions) Get(ctx context.Context, id string) (Record, bool, error) {
    raw, err := s.client.Get(ctx, s.key(id)).Result()
    if err == redis.Nil {
        return Record{}, false, nil
    }
    if err != nil {
        return Record{}, false, err
    }
    var rec Record
    if err := json.Unmarshal([]byte(raw), &rec); err != nil {
        return Record{}, false, err
    }
    return rec, true, nil
}

// Ping reports Redis connectivity for health checks.
func (s *RedisPredictions) Ping(ctx context.Context) error {
    return s.client.Ping(ctx).Err()
}

func (s *RedisPredictions) Close() error { return s.client.Close() }
