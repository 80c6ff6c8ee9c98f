package vision

import (
    "image"
    "image/color"
    "image/draw"
    "sort"
    "sync"

    "golang.org/x/image/font"
    "golang.org/x/image/font/basicfont"
    "golang.org/x/image/font/gofont/goregular"
    "golang.org/x/image/font/opentype"
    "golang.org/x/image/math/fixed"

    "github.com/rs/zerolog/log"
)

// palette holds the fixed overlay colors, one picked pseudo-randomly per
// OCR box.
var palette = []color.RGBA{
    {0, 0, 255, 255},     // blue
    {255, 165, 0, 255},   // orange
    {0, 128, 0, 255},     // green
    {128, 0, 128, 255},   // purple
    {165, 42, 42, 255},   // brown
    {255, 192, 203, 255}, // pink
    {128, 128, 128, 255}, // gray
    {128, 128, 0, 255},   // olive
    {0, 255, 255, 255},   // cyan
    {255, 0, 0, 255},     // red
    {0, 255, 0, 255},     // lime
    {75, 0, 130, 255},    // indigo
    {238, 130, 238, 255}, // violet
    {0, 255, 255, 255},   // aqua
    {255, 0, 255, 255},   // magenta
    {255, 127, 80, 255},  // coral
    {255, 215, 0, 255},   // gold
    {210, 180, 140, 255}, // tan
    {135, 206, 235, 255}, // skyblue
}

var (
    faceOnce  sync.Once
    labelFont font.Face
)

// labelFace returns the face used for overlay labels: the bundled scalable
// font when it parses, else the fixed-size fallback. Never fails.
func labelFace() font.Face {
    faceOnce.Do(func() {
        ft, err := opentype.Parse(goregular.TTF)
        if err != nil {
            log.Warn().Err(err).Msg("scalable label font unavailable, using fixed fallback")
            labelFont = basicfont.Face7x13
            return
        }
        face, err := opentype.NewFace(ft, &opentype.FaceOptions{Size: 15, DPI: 72, Hinting: font.HintingFull})
        if err != nil {
            log.Warn().Err(err).Msg("scalable label face unavailable, using fixed fallback")
            labelFont = basicfont.Face7x13
            return
        }
        labelFont = face
    })
    return labelFont
}

// cloneRGBA copies src into a fresh RGBA canvas. Renderers never mutate the
// original image.
func cloneRGBA(src image.Image) *image.RGBA {
    b := src.Bounds()
    dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
    draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
    return dst
}

func fillSpan(dst *image.RGBA, x0, x1, y int, col color.Color) {
    draw.Draw(dst, image.Rect(x0, y, x1+1, y+1), image.NewUniform(col), image.Point{}, draw.Over)
}

// drawLine draws a straight segment of the given stroke width using integer
// stepping; good enough for overlay strokes.
func drawLine(dst *image.RGBA, p0, p1 image.Point, col color.Color, width int) {
    if width < 1 {
        width = 1
    }
    // Stepping is per pixel of the larger axis delta, so endpoints are
    // clamped into the canvas to bound the loop.
    b := dst.Bounds()
    p0 = image.Pt(clamp(p0.X, b.Min.X, b.Max.X-1), clamp(p0.Y, b.Min.Y, b.Max.Y-1))
    p1 = image.Pt(clamp(p1.X, b.Min.X, b.Max.X-1), clamp(p1.Y, b.Min.Y, b.Max.Y-1))
    dx := abs(p1.X - p0.X)
    dy := abs(p1.Y - p0.Y)
    steps := dx
    if dy > steps {
        steps = dy
    }
    if steps == 0 {
        steps = 1
    }
    half := width / 2
    for i := 0; i <= steps; i++ {
        x := p0.X + (p1.X-p0.X)*i/steps
        y := p0.Y + (p1.Y-p0.Y)*i/steps
        draw.Draw(dst, image.Rect(x-half, y-half, x-half+width, y-half+width),
            image.NewUniform(col), image.Point{}, draw.Over)
    }
}

// drawRect strokes an axis-aligned rectangle.
func drawRect(dst *image.RGBA, x0, y0, x1, y1 int, col color.Color, width int) {
    drawLine(dst, image.Pt(x0, y0), image.Pt(x1, y0), col, width)
    drawLine(dst, image.Pt(x1, y0), image.Pt(x1, y1), col, width)
    drawLine(dst, image.Pt(x1, y1), image.Pt(x0, y1), col, width)
    drawLine(dst, image.Pt(x0, y1), image.Pt(x0, y0), col, width)
}

// drawPolygonOutline strokes a closed polygon.
func drawPolygonOutline(dst *image.RGBA, pts []image.Point, col color.Color, width int) {
    if len(pts) < 2 {
        return
    }
    for i := range pts {
        drawLine(dst, pts[i], pts[(i+1)%len(pts)], col, width)
    }
}

// fillPolygon fills a polygon with even-odd scanline coverage. Alpha in col
// is honored, so translucent fills composite over the image.
func fillPolygon(dst *image.RGBA, pts []image.Point, col color.Color) {
    if len(pts) < 3 {
        return
    }
    minY, maxY := pts[0].Y, pts[0].Y
    for _, p := range pts[1:] {
        if p.Y < minY {
            minY = p.Y
        }
        if p.Y > maxY {
            maxY = p.Y
        }
    }
    // Scan only rows inside the canvas; off-canvas geometry must not cost
    // iterations.
    b := dst.Bounds()
    minY = clamp(minY, b.Min.Y, b.Max.Y-1)
    maxY = clamp(maxY, b.Min.Y, b.Max.Y-1)
    for y := minY; y <= maxY; y++ {
        var xs []int
        scan := float64(y) + 0.5
        for i := range pts {
            a, b := pts[i], pts[(i+1)%len(pts)]
            ay, by := float64(a.Y), float64(b.Y)
            if (ay <= scan && by > scan) || (by <= scan && ay > scan) {
                t := (scan - ay) / (by - ay)
                xs = append(xs, a.X+int(t*float64(b.X-a.X)))
            }
        }
        sort.Ints(xs)
        for i := 0; i+1 < len(xs); i += 2 {
            fillSpan(dst, xs[i], xs[i+1], y, col)
        }
    }
}

// drawText renders s with its baseline at (x, y).
func drawText(dst *image.RGBA, x, y int, s string, col color.Color) {
    d := &font.Drawer{
        Dst:  dst,
        Src:  image.NewUniform(col),
        Face: labelFace(),
        Dot:  fixed.P(x, y),
    }
    d.DrawString(s)
}

// textWidth measures s in the label face.
func textWidth(s string) int {
    return font.MeasureString(labelFace(), s).Ceil()
}

func abs(n int) int {
    if n < 0 {
        return -n
    }
    return n
}

func clamp(v, lo, hi int) int {
    if v < lo {
        return lo
    }
    if v > hi {
        return hi
    }
    return v
}
