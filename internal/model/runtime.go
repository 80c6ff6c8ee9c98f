package model

import (
    "bytes"
    "context"
    "encoding/base64"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "time"

    "github.com/rs/zerolog/log"
)

// RuntimeClient talks to a Florence-2 model runtime over HTTP. The runtime
// is a black box: it receives the task token, optional text and the image,
// and answers with the task-keyed structured result.
type RuntimeClient struct {
    http    *http.Client
    baseURL string
}

// RuntimeOptions configures the runtime client.
type RuntimeOptions struct {
    BaseURL string
    Timeout time.Duration
}

func NewRuntimeClient(opts RuntimeOptions) *RuntimeClient {
    if opts.Timeout <= 0 {
        opts.Timeout = 120 * time.Second
    }
    return &RuntimeClient{
        http:    &http.Client{Timeout: opts.Timeout},
        baseURL: opts.BaseURL,
    }
}

func (c *RuntimeClient) Name() string { return "florence-runtime" }

type runtimeReq struct {
    Task        string `json:"task"`
    TextInput   string `json:"text_input,omitempty"`
    ImageBase64 string `json:"image_base64"`
    ImageMIME   string `json:"image_mime"`
}

// Infer runs one inference call against the runtime. Any failure, transport
// or otherwise, is wrapped as InferenceError with the task attached.
func (c *RuntimeClient) Infer(ctx context.Context, taskID, textInput string, imageBytes []byte) (Result, error) {
    payload := runtimeReq{
        Task:        taskID,
        TextInput:   textInput,
        ImageBase64: base64.StdEncoding.EncodeToString(imageBytes),
        ImageMIME:   http.DetectContentType(imageBytes),
    }
    body, _ := json.Marshal(payload)

    httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/run", bytes.NewReader(body))
    if err != nil {
        return Result{}, &InferenceError{Task: taskID, Err: err}
    }
    httpReq.Header.Set("Content-Type", "application/json")

    start := time.Now()
    resp, err := c.http.Do(httpReq)
    if err != nil {
        return Result{}, &InferenceError{Task: taskID, Err: err}
    }
    defer resp.Body.Close()

    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
        return Result{}, &InferenceError{Task: taskID, Err: fmt.Errorf("runtime status %d: %s", resp.StatusCode, snippet)}
    }

    raw, err := io.ReadAll(resp.Body)
    if err != nil {
        return Result{}, &InferenceError{Task: taskID, Err: fmt.Errorf("read runtime response: %w", err)}
    }
    result, err := ParseResult(raw)
    if err != nil {
        return Result{}, &InferenceError{Task: taskID, Err: fmt.Errorf("decode runtime response: %w", err)}
    }

    log.Debug().
        Str("task", taskID).
        Int("image_bytes", len(imageBytes)).
        Dur("duration", time.Since(start)).
        Msg("runtime inference complete")

    return result, nil
}
