package vision

import (
    "image"
    "math/rand"

    "github.com/rs/zerolog/log"

    "github.com/local/florenceapi/internal/model"
)

const maxOCRLabelLen = 10

// RenderOCR draws one polygon outline per quad box, each in a color picked
// pseudo-randomly from the fixed palette, with a truncated label 20px above
// the first vertex.
func RenderOCR(src image.Image, p model.Payload) image.Image {
    out := cloneRGBA(src)
    w, h := out.Bounds().Dx(), out.Bounds().Dy()

    log.Info().Int("count", len(p.QuadBoxes)).Msg("rendering OCR region boxes")

    for i, quad := range p.QuadBoxes {
        if len(quad) < 8 {
            continue
        }
        col := palette[rand.Intn(len(palette))]

        // Eight numbers reshape into four (x, y) vertices, clamped into the
        // canvas so a malformed quad cannot blow up the stroke loops.
        pts := make([]image.Point, 0, 4)
        for j := 0; j+1 < len(quad) && len(pts) < 4; j += 2 {
            pts = append(pts, image.Pt(
                clamp(int(quad[j]), 0, w-1),
                clamp(int(quad[j+1]), 0, h-1),
            ))
        }
        drawPolygonOutline(out, pts, col, 2)

        label := ""
        if i < len(p.Labels) {
            label = p.Labels[i]
        }
        if label != "" {
            drawText(out, pts[0].X, pts[0].Y-20, truncateLabel(label, maxOCRLabelLen), col)
        }
    }
    return out
}

func truncateLabel(s string, n int) string {
    if len(s) <= n {
        return s
    }
    return s[:n]
}
