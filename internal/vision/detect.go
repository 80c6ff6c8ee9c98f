package vision

import (
    "fmt"
    "image"
    "image/color"

    "github.com/rs/zerolog/log"

    "github.com/local/florenceapi/internal/model"
)

var (
    boxStroke = color.RGBA{255, 0, 0, 255}
    boxFill   = color.RGBA{255, 0, 0, 204}
    textWhite = color.RGBA{255, 255, 255, 255}
)

// RenderDetection draws one rectangle per bounding box with a text label
// above its top-left corner. Labels shorter than the box list are padded
// with positional obj_<i> labels; an empty box list yields an unannotated
// copy of the image.
func RenderDetection(src image.Image, p model.Payload) image.Image {
    out := cloneRGBA(src)
    w, h := out.Bounds().Dx(), out.Bounds().Dy()
    boxes := p.BBoxes
    labels := p.DetectionLabels()

    log.Info().Int("num_boxes", len(boxes)).Int("num_labels", len(labels)).Msg("rendering detection boxes")

    for i, box := range boxes {
        if len(box) < 4 {
            continue
        }
        label := ""
        if i < len(labels) {
            label = labels[i]
        }
        if label == "" {
            label = fmt.Sprintf("obj_%d", i)
        }

        // Coordinates are model output and can be arbitrarily far outside
        // the canvas; clamp before any per-pixel stepping.
        x0, y0 := clamp(int(box[0]), 0, w-1), clamp(int(box[1]), 0, h-1)
        x1, y1 := clamp(int(box[2]), 0, w-1), clamp(int(box[3]), 0, h-1)
        drawRect(out, x0, y0, x1, y1, boxStroke, 2)

        // Label box above the top-left corner, white text on red.
        m := labelFace().Metrics()
        h := (m.Ascent + m.Descent).Ceil()
        top := y0 - 5 - h
        fillPolygon(out, []image.Point{
            {x0, top}, {x0 + textWidth(label) + 6, top},
            {x0 + textWidth(label) + 6, top + h + 2}, {x0, top + h + 2},
        }, boxFill)
        drawText(out, x0+3, top+m.Ascent.Ceil(), label, textWhite)
    }
    return out
}
