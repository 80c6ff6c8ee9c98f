package vision

import (
    "fmt"
    "image"
    "image/color"

    "github.com/rs/zerolog/log"

    "github.com/local/florenceapi/internal/model"
)

var (
    maskFill    = color.RGBA{255, 0, 0, 128}
    maskOutline = color.RGBA{255, 0, 0, 255}
)

// RenderSegmentation overlays the first polygon of the payload. Points are
// clamped into the image bounds before drawing; four or more clamped points
// are required for a region, fewer draw nothing. When fillMask is set the
// polygon is filled translucently with a solid outline, otherwise only the
// outline is stroked. The "Segmentation applied" caption is drawn whenever a
// polygon list is present.
//
// An empty polygon list returns the original image untouched: a degenerate
// model output is not an error.
func RenderSegmentation(src image.Image, p model.Payload, fillMask bool) image.Image {
    if len(p.Polygons) == 0 {
        log.Warn().Msg("no polygons in segmentation payload, skipping overlay")
        return src
    }

    out := cloneRGBA(src)
    w, h := out.Bounds().Dx(), out.Bounds().Dy()

    // Single-instance overlay: only the first polygon is drawn.
    flat := p.Polygons[0]
    pts := make([]image.Point, 0, len(flat)/2)
    for i := 0; i+1 < len(flat); i += 2 {
        pts = append(pts, image.Point{
            X: clamp(int(flat[i]), 0, w-1),
            Y: clamp(int(flat[i+1]), 0, h-1),
        })
    }

    log.Info().
        Str("size", fmt.Sprintf("%dx%d", w, h)).
        Int("num_polygons", len(p.Polygons)).
        Int("point_count", len(pts)).
        Bool("fill_mask", fillMask).
        Msg("rendering segmentation polygon")

    if len(pts) > 3 {
        if fillMask {
            fillPolygon(out, pts, maskFill)
            drawPolygonOutline(out, pts, maskOutline, 1)
        } else {
            drawPolygonOutline(out, pts, maskOutline, 3)
        }
    }

    drawText(out, 10, 10+labelFace().Metrics().Ascent.Ceil(), "Segmentation applied", maskOutline)
    return out
}
