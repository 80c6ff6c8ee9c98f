package materialize

import (
    "bytes"
    "context"
    "encoding/base64"
    "fmt"
    "image"
    "image/png"
    "path"
    "time"

    "github.com/rs/zerolog/log"

    "github.com/local/florenceapi/internal/vision"
)

// BlobStore is the storage capability the materializer consumes.
type BlobStore interface {
    Put(ctx context.Context, key string, data []byte, mime string) (string, error)
    Exists(ctx context.Context, key string) (bool, error)
    Presign(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Artifact kinds.
const (
    KindStored = "stored"
    KindInline = "inline"
)

// Artifact is the caller-facing representation of one materialized image:
// either a durable object-store reference with a time-limited URL, or an
// inline data URL carrying the encoded bytes.
type Artifact struct {
    Kind string `json:"kind"`
    Key  string `json:"key,omitempty"`
    URL  string `json:"url"`
}

// Materializer converts pipeline images into Artifacts. The persist flag is
// per request: true stores to the blob store and presigns, false encodes
// inline. The store write is the only side effect here.
type Materializer struct {
    store      BlobStore
    presignTTL time.Duration
}

func New(store BlobStore, presignTTL time.Duration) *Materializer {
    if presignTTL <= 0 || presignTTL > 7*24*time.Hour {
        presignTTL = 7 * 24 * time.Hour
    }
    return &Materializer{store: store, presignTTL: presignTTL}
}

// Output materializes an annotated image. A nil image produces no artifacts:
// text-only tasks and skipped annotations are not errors.
func (m *Materializer) Output(ctx context.Context, img image.Image, persist bool, taskID, correlationID string) ([]Artifact, error) {
    if img == nil {
        return nil, nil
    }

    data, err := encodePNG(img)
    if err != nil {
        return nil, err
    }

    key := fmt.Sprintf("florence/%s/result_%s.png", partition(correlationID), taskID)
    art, err := m.materialize(ctx, data, "image/png", key, persist)
    if err != nil {
        return nil, err
    }
    return []Artifact{art}, nil
}

// Input materializes the original uploaded image under the same request
// partition, with the same two-mode contract as Output.
func (m *Materializer) Input(ctx context.Context, data []byte, mime, filename string, persist bool, correlationID string) (Artifact, error) {
    name := path.Base(filename)
    if name == "" || name == "." || name == "/" {
        name = "input"
    }
    key := fmt.Sprintf("florence/%s/%s", partition(correlationID), name)
    return m.materialize(ctx, data, mime, key, persist)
}

func (m *Materializer) materialize(ctx context.Context, data []byte, mime, key string, persist bool) (Artifact, error) {
    if !persist {
        return Artifact{
            Kind: KindInline,
            URL:  fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data)),
        }, nil
    }

    if _, err := m.store.Put(ctx, key, data, mime); err != nil {
        return Artifact{}, err
    }
    url, err := m.store.Presign(ctx, key, m.presignTTL)
    if err != nil {
        return Artifact{}, err
    }

    log.Info().Str("key", key).Int("size", len(data)).Msg("materialized artifact to store")
    return Artifact{Kind: KindStored, Key: key, URL: url}, nil
}

// partition co-locates all artifacts of one request under its correlation
// id, falling back to a coarse timestamp for calls without one.
func partition(correlationID string) string {
    if correlationID != "" {
        return correlationID
    }
    return time.Now().UTC().Format("2006-01-02_15-04")
}

func encodePNG(img image.Image) ([]byte, error) {
    var buf bytes.Buffer
    if err := png.Encode(&buf, img); err != nil {
        return nil, &vision.RenderError{Stage: "png-encode", Err: err}
    }
    return buf.Bytes(), nil
}
