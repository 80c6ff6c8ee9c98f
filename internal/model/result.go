package model

import (
    "encoding/json"
)

// Payload is the task-shaped portion of a model result. Florence-style
// runtimes key fields differently per task and the shape is not guaranteed,
// so decoding is tolerant: absent or malformed fields stay zero-valued.
type Payload struct {
    BBoxes       [][]float64
    Labels       []string
    BBoxesLabels []string
    QuadBoxes    [][]float64
    Polygons     [][]float64 // one flat x,y coordinate list per polygon
    Text         string
}

// DetectionLabels returns labels for detection payloads, falling back to the
// bboxes_labels key used by open-vocabulary detection.
func (p Payload) DetectionLabels() []string {
    if len(p.Labels) > 0 {
        return p.Labels
    }
    return p.BBoxesLabels
}

// Result is the task-keyed structured output of one inference call. The raw
// bytes are kept verbatim so the response can echo the runtime output
// unmodified.
type Result struct {
    raw      json.RawMessage
    payloads map[string]Payload
}

// ParseResult decodes a runtime response body. Only the top-level task
// mapping must be valid JSON; each per-task payload is decoded loosely.
func ParseResult(raw []byte) (Result, error) {
    var top map[string]json.RawMessage
    if err := json.Unmarshal(raw, &top); err != nil {
        return Result{}, err
    }
    payloads := make(map[string]Payload, len(top))
    for taskID, body := range top {
        payloads[taskID] = parsePayload(body)
    }
    return Result{raw: append(json.RawMessage(nil), raw...), payloads: payloads}, nil
}

// Raw returns the unmodified runtime output.
func (r Result) Raw() json.RawMessage { return r.raw }

// Payload returns the decoded payload stored under exactly taskID.
func (r Result) Payload(taskID string) (Payload, bool) {
    p, ok := r.payloads[taskID]
    return p, ok
}

func parsePayload(body json.RawMessage) Payload {
    var p Payload

    // Caption-style tasks return a bare string.
    if err := json.Unmarshal(body, &p.Text); err == nil {
        return p
    }

    var fields map[string]json.RawMessage
    if err := json.Unmarshal(body, &fields); err != nil {
        return p
    }
    // Per-field failures are ignored: a malformed field degrades to empty,
    // it does not fail the call.
    _ = json.Unmarshal(fields["bboxes"], &p.BBoxes)
    _ = json.Unmarshal(fields["labels"], &p.Labels)
    _ = json.Unmarshal(fields["bboxes_labels"], &p.BBoxesLabels)
    _ = json.Unmarshal(fields["quad_boxes"], &p.QuadBoxes)
    _ = json.Unmarshal(fields["text"], &p.Text)
    p.Polygons = parsePolygons(fields["polygons"])
    return p
}

// parsePolygons normalizes the two nesting depths runtimes emit for the
// polygons key: a list of flat coordinate lists, or that list wrapped in one
// extra grouping level.
func parsePolygons(raw json.RawMessage) [][]float64 {
    if len(raw) == 0 {
        return nil
    }
    var flat [][]float64
    if err := json.Unmarshal(raw, &flat); err == nil {
        return flat
    }
    var grouped [][][]float64
    if err := json.Unmarshal(raw, &grouped); err == nil && len(grouped) > 0 {
        return grouped[0]
    }
    return nil
}
