package vision

import (
    "image"
    "image/color"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/local/florenceapi/internal/model"
    "github.com/local/florenceapi/internal/task"
)

func testImage(w, h int) *image.RGBA {
    img := image.NewRGBA(image.Rect(0, 0, w, h))
    for y := 0; y < h; y++ {
        for x := 0; x < w; x++ {
            img.Set(x, y, color.RGBA{40, 40, 40, 255})
        }
    }
    return img
}

func TestRenderDetectionSynthesizesLabels(t *testing.T) {
    src := testImage(120, 120)
    out := RenderDetection(src, model.Payload{
        BBoxes: [][]float64{{20, 40, 80, 90}, {30, 60, 100, 110}},
        Labels: []string{"cat"},
    })
    require.NotNil(t, out)
    assert.NotSame(t, src, out)

    // The box edge must be stroked red.
    rgba := out.(*image.RGBA)
    assert.Equal(t, color.RGBA{255, 0, 0, 255}, rgba.RGBAAt(20, 65))
}

func TestRenderDetectionEmptyBoxes(t *testing.T) {
    src := testImage(50, 50)
    out := RenderDetection(src, model.Payload{})
    require.NotNil(t, out)

    rgba := out.(*image.RGBA)
    for y := 0; y < 50; y++ {
        for x := 0; x < 50; x++ {
            assert.Equal(t, src.RGBAAt(x, y), rgba.RGBAAt(x, y))
        }
    }
}

func TestRenderDetectionClampsOutOfRangeBoxes(t *testing.T) {
    src := testImage(64, 64)

    done := make(chan image.Image, 1)
    go func() {
        done <- RenderDetection(src, model.Payload{
            BBoxes: [][]float64{{-1e12, -1e12, 1e12, 1e12}, {0, 0, 1e12, 1e12}},
            Labels: []string{"huge", "huge"},
        })
    }()

    select {
    case out := <-done:
        require.NotNil(t, out)
        // Clamped corners stroke the canvas border.
        rgba := out.(*image.RGBA)
        assert.Equal(t, color.RGBA{255, 0, 0, 255}, rgba.RGBAAt(63, 32))
    case <-time.After(5 * time.Second):
        t.Fatal("detection rendering did not finish with out-of-range boxes")
    }
}

func TestRenderOCRClampsOutOfRangeQuads(t *testing.T) {
    src := testImage(64, 64)

    done := make(chan image.Image, 1)
    go func() {
        done <- RenderOCR(src, model.Payload{
            QuadBoxes: [][]float64{{-1e12, -1e12, 1e12, -1e12, 1e12, 1e12, -1e12, 1e12}},
            Labels:    []string{"huge"},
        })
    }()

    select {
    case out := <-done:
        require.NotNil(t, out)
        rgba := out.(*image.RGBA)
        assert.NotEqual(t, src.RGBAAt(0, 32), rgba.RGBAAt(0, 32))
    case <-time.After(5 * time.Second):
        t.Fatal("OCR rendering did not finish with out-of-range quads")
    }
}

func TestRenderDetectionFallsBackToBBoxesLabels(t *testing.T) {
    p := model.Payload{
        BBoxes:       [][]float64{{1, 1, 5, 5}},
        BBoxesLabels: []string{"door"},
    }
    assert.Equal(t, []string{"door"}, p.DetectionLabels())
}

func TestRenderSegmentationNoPolygons(t *testing.T) {
    src := testImage(64, 64)
    out := RenderSegmentation(src, model.Payload{}, true)

    // Degenerate output hands back the input image itself.
    assert.Same(t, image.Image(src), out)
}

func TestRenderSegmentationTooFewPoints(t *testing.T) {
    src := testImage(64, 64)
    out := RenderSegmentation(src, model.Payload{
        Polygons: [][]float64{{5, 5, 20, 20}},
    }, true)
    require.NotNil(t, out)
    assert.NotSame(t, image.Image(src), out)

    // Two points draw no region, only the caption near the top-left.
    rgba := out.(*image.RGBA)
    assert.Equal(t, src.RGBAAt(12, 40), rgba.RGBAAt(12, 40))
}

func TestRenderSegmentationClampsOutOfBounds(t *testing.T) {
    src := testImage(32, 32)
    out := RenderSegmentation(src, model.Payload{
        Polygons: [][]float64{{-100, -100, 500, -100, 500, 500, -100, 500}},
    }, true)
    require.NotNil(t, out)

    // Clamped corners fill the whole image with the translucent mask.
    rgba := out.(*image.RGBA)
    assert.NotEqual(t, src.RGBAAt(16, 25), rgba.RGBAAt(16, 25))
}

func TestRenderSegmentationFirstPolygonOnly(t *testing.T) {
    src := testImage(64, 64)
    out := RenderSegmentation(src, model.Payload{
        Polygons: [][]float64{
            {2, 2, 12, 2, 12, 12, 2, 12},
            {40, 40, 60, 40, 60, 60, 40, 60},
        },
    }, true)
    require.NotNil(t, out)

    rgba := out.(*image.RGBA)
    assert.NotEqual(t, src.RGBAAt(7, 7), rgba.RGBAAt(7, 7))
    assert.Equal(t, src.RGBAAt(50, 50), rgba.RGBAAt(50, 50))
}

func TestRenderOCRTruncatesLabels(t *testing.T) {
    assert.Equal(t, "short", truncateLabel("short", maxOCRLabelLen))
    assert.Equal(t, "exactlyten", truncateLabel("exactlyten!", maxOCRLabelLen))
    assert.Len(t, truncateLabel("a considerably longer transcription", maxOCRLabelLen), maxOCRLabelLen)
}

func TestRenderOCRSkipsShortQuads(t *testing.T) {
    src := testImage(80, 80)
    out := RenderOCR(src, model.Payload{
        QuadBoxes: [][]float64{{1, 2, 3}},
        Labels:    []string{"ignored"},
    })
    require.NotNil(t, out)

    rgba := out.(*image.RGBA)
    for y := 0; y < 80; y++ {
        for x := 0; x < 80; x++ {
            assert.Equal(t, src.RGBAAt(x, y), rgba.RGBAAt(x, y))
        }
    }
}

func TestRenderOCRDrawsQuads(t *testing.T) {
    src := testImage(80, 80)
    out := RenderOCR(src, model.Payload{
        QuadBoxes: [][]float64{{10, 30, 60, 30, 60, 50, 10, 50}},
        Labels:    []string{"hello"},
    })
    require.NotNil(t, out)

    rgba := out.(*image.RGBA)
    assert.NotEqual(t, src.RGBAAt(30, 30), rgba.RGBAAt(30, 30))
}

func TestRenderDispatch(t *testing.T) {
    src := testImage(16, 16)

    out, err := Render(task.CategoryNone, src, model.Payload{}, true)
    require.NoError(t, err)
    assert.Nil(t, out)

    out, err = Render(task.CategoryDetection, src, model.Payload{BBoxes: [][]float64{{1, 1, 8, 8}}}, true)
    require.NoError(t, err)
    assert.NotNil(t, out)

    _, err = Render(task.Category("bogus"), src, model.Payload{}, true)
    require.Error(t, err)
}

func TestRenderRecoversPanics(t *testing.T) {
    // A nil source panics inside the renderer; Render must convert that into
    // a RenderError instead of unwinding the caller.
    out, err := Render(task.CategoryDetection, nil, model.Payload{BBoxes: [][]float64{{1, 1, 8, 8}}}, true)
    assert.Nil(t, out)
    require.Error(t, err)
    var renderErr *RenderError
    assert.ErrorAs(t, err, &renderErr)
}
