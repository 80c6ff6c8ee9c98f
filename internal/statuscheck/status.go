package statuscheck

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "strings"
    "time"
)

// RedisPinger models the minimal Redis capability we need for status checks.
type RedisPinger interface {
    Ping(ctx context.Context) error
}

// BucketChecker models the minimal object-store capability we need for
// status checks.
type BucketChecker interface {
    Exists(ctx context.Context, key string) (bool, error)
}

// Checker aggregates health checks for external dependencies used by the dashboard.
type Checker struct {
    redis      RedisPinger
    blobs      BucketChecker
    runtimeURL string
    httpClient *http.Client
}

// Options configures the Checker.
type Options struct {
    Redis      RedisPinger
    Blobs      BucketChecker
    RuntimeURL string
    HTTPClient *http.Client
}

// Status represents the readiness of a subsystem.
type Status struct {
    OK      bool   `json:"ok"`
    Message string `json:"message"`
}

// Summary bundles all subsystem statuses for the dashboard.
type Summary struct {
    Redis   Status `json:"redis"`
    Storage Status `json:"storage"`
    Runtime Status `json:"runtime"`
}

// New creates a new Checker with the provided options.
func New(opts Options) *Checker {
    client := opts.HTTPClient
    if client == nil {
        client = &http.Client{Timeout: 5 * time.Second}
    }
    return &Checker{
        redis:      opts.Redis,
        blobs:      opts.Blobs,
        runtimeURL: strings.TrimRight(opts.RuntimeURL, "/"),
        httpClient: client,
    }
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
    return Summary{
        Redis:   c.checkRedis(ctx),
        Storage: c.checkStorage(ctx),
        Runtime: c.checkRuntime(ctx),
    }
}

func (c *Checker) checkRedis(ctx context.Context) Status {
    if c.redis == nil {
        return Status{OK: false, Message: "client unavailable"}
    }
    ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    if err := c.redis.Ping(ctx); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkStorage(ctx context.Context) Status {
    if c.blobs == nil {
        return Status{OK: false, Message: "Storage not configured"}
    }
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    // Any HeadObject answer, found or not, proves the bucket is reachable.
    if _, err := c.blobs.Exists(ctx, "florence/.statuscheck"); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkRuntime(ctx context.Context) Status {
    if c.runtimeURL == "" {
        return Status{OK: false, Message: "Runtime URL missing"}
    }
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    req, _ := http.NewRequestWithContext(ctx, http.MethodGet, c.runtimeURL+"/health", nil)
    resp, err := c.httpClient.Do(req)
    if err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    defer resp.Body.Close()
    if resp.StatusCode >= 400 {
        return Status{OK: false, Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
    }
    return Status{OK: true, Message: "Available"}
}

func trimError(err error) string {
    if err == nil {
        return ""
    }
    var netErr interface{ Timeout() bool }
    if errors.As(err, &netErr) && netErr.Timeout() {
        return "timeout"
    }
    msg := err.Error()
    if len(msg) > 120 {
        return msg[:120]
    }
    return msg
}
