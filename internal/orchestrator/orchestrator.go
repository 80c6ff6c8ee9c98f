package orchestrator

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "image"
    _ "image/gif"
    _ "image/jpeg"
    _ "image/png"
    "time"

    "github.com/rs/zerolog/log"

    "github.com/local/florenceapi/internal/filetype"
    "github.com/local/florenceapi/internal/limiter"
    "github.com/local/florenceapi/internal/materialize"
    "github.com/local/florenceapi/internal/metrics"
    "github.com/local/florenceapi/internal/model"
    "github.com/local/florenceapi/internal/raster"
    "github.com/local/florenceapi/internal/storage"
    "github.com/local/florenceapi/internal/store"
    "github.com/local/florenceapi/internal/task"
    "github.com/local/florenceapi/internal/vision"
)

// placeholderText is the OpenAPI form default clients post without meaning
// to. It is treated the same as no text input.
const placeholderText = "string"

// PredictionStore records what each call stored, for later link refresh.
type PredictionStore interface {
    Save(ctx context.Context, id string, rec store.Record) error
    Get(ctx context.Context, id string) (store.Record, bool, error)
}

// Dependencies wires the orchestrator's collaborators. Records and Limiter
// are optional; everything else is required.
type Dependencies struct {
    Model        model.Client
    Materializer *materialize.Materializer
    Blobs        materialize.BlobStore
    Records      PredictionStore
    Limiter      *limiter.Inference

    // OutlineOnly strokes segmentation polygons without the translucent
    // fill. Default is filled masks.
    OutlineOnly bool
}

// Orchestrator coordinates one inference call end to end: validate the
// task, invoke the model, render the task-shaped overlay, materialize the
// artifacts, assemble the response. No state survives a call.
type Orchestrator struct {
    deps Dependencies
}

func New(deps Dependencies) *Orchestrator {
    return &Orchestrator{deps: deps}
}

// Request is one inference call. Persist selects stored references versus
// inline data URLs for every artifact of the call.
type Request struct {
    Task          string
    TextInput     string
    ImageBytes    []byte
    Filename      string
    Persist       bool
    CorrelationID string
}

// Response is the assembled caller payload.
type Response struct {
    RequestID        string                 `json:"request_id"`
    Task             string                 `json:"task"`
    InputImage       materialize.Artifact   `json:"input_image"`
    ResultData       json.RawMessage        `json:"result_data"`
    OutputVisualized []materialize.Artifact `json:"output_visualized"`
}

// Run executes the pipeline for one request. Stages run strictly in order;
// each consumes the previous stage's output.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Response, error) {
    start := time.Now()

    // Validated: membership check happens before anything touches the model.
    category, err := task.CategoryOf(req.Task)
    if err != nil {
        return Response{}, err
    }
    textInput := normalizeText(req.TextInput)

    imageBytes, mime, err := o.prepareImage(req)
    if err != nil {
        return Response{}, err
    }

    // ModelInvoked.
    if o.deps.Limiter != nil {
        release, ok := o.deps.Limiter.Allow()
        if !ok {
            return Response{}, ErrBusy
        }
        metrics.InferenceStarted()
        defer func() {
            release()
            metrics.InferenceFinished()
        }()
    }

    result, err := o.deps.Model.Infer(ctx, req.Task, textInput, imageBytes)
    if err != nil {
        metrics.ObserveInference(req.Task, "error", time.Since(start))
        return Response{}, err
    }

    // Visualized: only for tasks with a visual shape. A missing result key
    // is the same as an empty payload.
    var annotated image.Image
    if category != task.CategoryNone {
        payload, _ := result.Payload(req.Task)
        annotated = o.render(category, imageBytes, payload, req)
    }

    // Materialized.
    outputs, err := o.deps.Materializer.Output(ctx, annotated, req.Persist, req.Task, req.CorrelationID)
    if err != nil {
        var renderErr *vision.RenderError
        if errors.As(err, &renderErr) {
            log.Error().Err(err).Str("task", req.Task).Str("request_id", req.CorrelationID).Msg("artifact encoding failed, skipping annotation")
            metrics.IncRenderFailure(req.Task)
            outputs = nil
        } else {
            metrics.ObserveInference(req.Task, "error", time.Since(start))
            return Response{}, err
        }
    }
    if outputs == nil {
        outputs = []materialize.Artifact{}
    }

    inputArt, err := o.deps.Materializer.Input(ctx, imageBytes, mime, req.Filename, req.Persist, req.CorrelationID)
    if err != nil {
        metrics.ObserveInference(req.Task, "error", time.Since(start))
        return Response{}, err
    }

    o.saveRecord(ctx, req, inputArt, outputs)

    metrics.ObserveInference(req.Task, "success", time.Since(start))
    log.Info().
        Str("task", req.Task).
        Str("request_id", req.CorrelationID).
        Bool("persist", req.Persist).
        Int("artifacts", len(outputs)).
        Dur("duration", time.Since(start)).
        Msg("inference pipeline complete")

    // Responded.
    return Response{
        RequestID:        req.CorrelationID,
        Task:             req.Task,
        InputImage:       inputArt,
        ResultData:       result.Raw(),
        OutputVisualized: outputs,
    }, nil
}

// prepareImage sniffs the upload and normalizes it into raster image bytes,
// rasterizing the first page of PDF uploads.
func (o *Orchestrator) prepareImage(req Request) ([]byte, string, error) {
    if len(req.ImageBytes) == 0 {
        return nil, "", &ValidationError{Message: "empty image upload"}
    }
    info := filetype.Detect(req.ImageBytes)
    switch {
    case info.IsImage:
        return req.ImageBytes, info.MIMEType, nil
    case info.IsPDF:
        pngBytes, pages, err := raster.FirstPagePNG(req.ImageBytes, raster.DefaultDPI)
        if err != nil {
            return nil, "", &ValidationError{Message: fmt.Sprintf("unreadable PDF upload: %v", err)}
        }
        log.Info().Int("pages", pages).Str("request_id", req.CorrelationID).Msg("rasterized PDF upload for inference")
        return pngBytes, "image/png", nil
    default:
        return nil, "", &ValidationError{Message: fmt.Sprintf("unsupported upload type %s", info.MIMEType)}
    }
}

// render produces the annotated image for a visual category. Rendering is
// best effort: any failure logs and skips the overlay instead of failing
// the call.
func (o *Orchestrator) render(category task.Category, imageBytes []byte, payload model.Payload, req Request) image.Image {
    src, _, err := image.Decode(bytes.NewReader(imageBytes))
    if err != nil {
        log.Warn().Err(err).Str("task", req.Task).Str("request_id", req.CorrelationID).Msg("input image not decodable, skipping visualization")
        metrics.IncRenderFailure(req.Task)
        return nil
    }

    annotated, err := vision.Render(category, src, payload, !o.deps.OutlineOnly)
    if err != nil {
        log.Error().Err(err).Str("task", req.Task).Str("request_id", req.CorrelationID).Msg("visualization failed, skipping annotation")
        metrics.IncRenderFailure(req.Task)
        return nil
    }
    return annotated
}

// saveRecord is advisory: a record-store hiccup must not fail a call whose
// artifacts already exist.
func (o *Orchestrator) saveRecord(ctx context.Context, req Request, input materialize.Artifact, outputs []materialize.Artifact) {
    if o.deps.Records == nil {
        return
    }
    rec := store.Record{
        Task:      req.Task,
        Persisted: req.Persist,
        CreatedAt: time.Now().UTC(),
        InputKey:  input.Key,
    }
    for _, a := range outputs {
        if a.Key != "" {
            rec.OutputKeys = append(rec.OutputKeys, a.Key)
        }
    }
    if err := o.deps.Records.Save(ctx, req.CorrelationID, rec); err != nil {
        log.Warn().Err(err).Str("request_id", req.CorrelationID).Msg("failed to save prediction record")
    }
}

// normalizeText treats the form-default sentinel as absent input.
func normalizeText(s string) string {
    if s == placeholderText {
        return ""
    }
    return s
}

// RefreshedLinks is the link-refresh read payload: the same stored keys with
// fresh time-limited URLs.
type RefreshedLinks struct {
    RequestID string                 `json:"request_id"`
    Task      string                 `json:"task"`
    CreatedAt time.Time              `json:"created_at"`
    Input     *materialize.Artifact  `json:"input,omitempty"`
    Outputs   []materialize.Artifact `json:"outputs"`
}

// Refresh re-presigns every stored key of a past prediction. A missing
// record or a missing object is a not-found client fault, not a storage
// failure.
func (o *Orchestrator) Refresh(ctx context.Context, id string) (RefreshedLinks, error) {
    if o.deps.Records == nil {
        return RefreshedLinks{}, &storage.NotFoundError{Key: id}
    }
    rec, ok, err := o.deps.Records.Get(ctx, id)
    if err != nil {
        return RefreshedLinks{}, &storage.StoreError{Op: "record-get", Key: id, Err: err}
    }
    if !ok || !rec.Persisted {
        return RefreshedLinks{}, &storage.NotFoundError{Key: id}
    }

    out := RefreshedLinks{
        RequestID: id,
        Task:      rec.Task,
        CreatedAt: rec.CreatedAt,
        Outputs:   []materialize.Artifact{},
    }

    if rec.InputKey != "" {
        art, err := o.refreshKey(ctx, rec.InputKey)
        if err != nil {
            return RefreshedLinks{}, err
        }
        out.Input = &art
    }
    for _, key := range rec.OutputKeys {
        art, err := o.refreshKey(ctx, key)
        if err != nil {
            return RefreshedLinks{}, err
        }
        out.Outputs = append(out.Outputs, art)
    }
    return out, nil
}

func (o *Orchestrator) refreshKey(ctx context.Context, key string) (materialize.Artifact, error) {
    ok, err := o.deps.Blobs.Exists(ctx, key)
    if err != nil {
        return materialize.Artifact{}, err
    }
    if !ok {
        return materialize.Artifact{}, &storage.NotFoundError{Key: key}
    }
    url, err := o.deps.Blobs.Presign(ctx, key, storage.MaxPresignTTL)
    if err != nil {
        return materialize.Artifact{}, err
    }
    return materialize.Artifact{Kind: materialize.KindStored, Key: key, URL: url}, nil
}
