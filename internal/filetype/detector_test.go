package filetype

import (
    "bytes"
    "image"
    "image/png"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestDetectPNG(t *testing.T) {
    var buf bytes.Buffer
    require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))

    info := Detect(buf.Bytes())
    assert.Equal(t, "image/png", info.MIMEType)
    assert.True(t, info.IsImage)
    assert.False(t, info.IsPDF)
    assert.True(t, info.Supported)
}

func TestDetectPDF(t *testing.T) {
    info := Detect([]byte("%PDF-1.4\n%stub\n"))
    assert.Equal(t, "application/pdf", info.MIMEType)
    assert.True(t, info.IsPDF)
    assert.False(t, info.IsImage)
    assert.True(t, info.Supported)
}

func TestDetectUnsupported(t *testing.T) {
    info := Detect([]byte("hello, definitely not an image"))
    assert.False(t, info.IsImage)
    assert.False(t, info.IsPDF)
    assert.False(t, info.Supported)
}
