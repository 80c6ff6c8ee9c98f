package model

import (
    "context"
    "fmt"
)

// Client is the model runtime collaborator. Implementations must not be
// called with an unsupported task identifier; validation happens upstream.
type Client interface {
    Name() string
    Infer(ctx context.Context, taskID, textInput string, imageBytes []byte) (Result, error)
}

// InferenceError wraps any failure inside the model runtime. It is a server
// fault: always reported to the caller, never retried here.
type InferenceError struct {
    Task string
    Err  error
}

func (e *InferenceError) Error() string {
    return fmt.Sprintf("inference failed for task %s: %v", e.Task, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }
