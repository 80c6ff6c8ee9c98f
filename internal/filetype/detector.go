package filetype

import (
    "strings"

    "github.com/gabriel-vasile/mimetype"
    "github.com/rs/zerolog/log"
)

// Info contains detected file type information.
type Info struct {
    MIMEType  string
    Extension string
    IsImage   bool
    IsPDF     bool
    Supported bool
}

// Detect identifies an upload by magic bytes, not by its filename. The
// pipeline accepts raster images directly and PDFs via rasterization.
func Detect(data []byte) Info {
    mtype := mimetype.Detect(data)
    mime := mtype.String()

    info := Info{
        MIMEType:  mime,
        Extension: mtype.Extension(),
        IsImage:   strings.HasPrefix(mime, "image/"),
        IsPDF:     mime == "application/pdf",
    }
    info.Supported = info.IsImage || info.IsPDF

    log.Debug().Str("mime", mime).Str("ext", info.Extension).Bool("supported", info.Supported).Msg("detected upload type")
    return info
}
