package vision

import (
    "fmt"
    "image"

    "github.com/local/florenceapi/internal/model"
    "github.com/local/florenceapi/internal/task"
)

// RenderError covers visualization and image-encoding failures. The pipeline
// recovers from it locally: the annotation is skipped, the request succeeds.
type RenderError struct {
    Stage string
    Err   error
}

func (e *RenderError) Error() string {
    return fmt.Sprintf("render failed at %s: %v", e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Render dispatches to the renderer matching the task's visualization
// category. CategoryNone returns nil with no error. A panic inside a
// renderer (malformed coordinates, degenerate geometry) is converted into a
// RenderError instead of taking down the request.
func Render(category task.Category, src image.Image, p model.Payload, fillMask bool) (out image.Image, err error) {
    defer func() {
        if r := recover(); r != nil {
            out = nil
            err = &RenderError{Stage: string(category), Err: fmt.Errorf("panic: %v", r)}
        }
    }()

    switch category {
    case task.CategoryDetection:
        return RenderDetection(src, p), nil
    case task.CategorySegmentation:
        return RenderSegmentation(src, p, fillMask), nil
    case task.CategoryOCRRegion:
        return RenderOCR(src, p), nil
    case task.CategoryNone:
        return nil, nil
    default:
        return nil, &RenderError{Stage: string(category), Err: fmt.Errorf("unknown visualization category")}
    }
}
