package raster

import (
    "bytes"
    "fmt"
    "image/png"

    "github.com/gen2brain/go-fitz"
    "github.com/pdfcpu/pdfcpu/pkg/api"
    "github.com/rs/zerolog/log"
)

// DefaultDPI is the rasterization resolution for PDF pages fed into the
// vision pipeline.
const DefaultDPI = 150

// FirstPagePNG validates a PDF and rasterizes its first page to PNG bytes.
// Returns the PNG, the document's page count, and an error for documents
// that cannot be opened.
func FirstPagePNG(data []byte, dpi int) ([]byte, int, error) {
    if dpi <= 0 {
        dpi = DefaultDPI
    }

    // Validate and count pages first; fitz is tolerant of garbage pdfcpu
    // rejects outright.
    pages, err := api.PageCount(bytes.NewReader(data), nil)
    if err != nil {
        return nil, 0, fmt.Errorf("pdf page count failed: %w", err)
    }
    if pages < 1 {
        return nil, 0, fmt.Errorf("pdf has no pages")
    }

    doc, err := fitz.NewFromMemory(data)
    if err != nil {
        return nil, pages, fmt.Errorf("failed to open PDF: %w", err)
    }
    defer doc.Close()

    img, err := doc.ImageDPI(0, float64(dpi))
    if err != nil {
        return nil, pages, fmt.Errorf("failed to render page 1: %w", err)
    }

    var buf bytes.Buffer
    if err := png.Encode(&buf, img); err != nil {
        return nil, pages, fmt.Errorf("failed to encode PNG: %w", err)
    }

    log.Debug().
        Int("pages", pages).
        Int("dpi", dpi).
        Int("png_size", buf.Len()).
        Msg("rasterized PDF first page")

    return buf.Bytes(), pages, nil
}
