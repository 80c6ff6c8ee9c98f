package task

import (
    "fmt"
    "sort"
)

// Category selects which visualization branch applies to a task's
// structured output. Text-only tasks map to CategoryNone.
type Category string

const (
    CategoryNone         Category = "none"
    CategoryDetection    Category = "detection"
    CategorySegmentation Category = "polygon-segmentation"
    CategoryOCRRegion    Category = "ocr-region"
)

// Florence-2 task identifiers. The set is closed: the identifier picks both
// the prompt prefix sent to the model runtime and the result shape.
const (
    Caption                         = "<CAPTION>"
    DetailedCaption                 = "<DETAILED_CAPTION>"
    MoreDetailedCaption             = "<MORE_DETAILED_CAPTION>"
    ObjectDetection                 = "<OBJECT_DETECTION>"
    OD                              = "<OD>"
    OCR                             = "<OCR>"
    OCRWithRegion                   = "<OCR_WITH_REGION>"
    CaptionToPhraseGrounding        = "<CAPTION_TO_PHRASE_GROUNDING>"
    DenseRegionCaption              = "<DENSE_REGION_CAPTION>"
    RegionProposal                  = "<REGION_PROPOSAL>"
    ReferringExpressionSegmentation = "<REFERRING_EXPRESSION_SEGMENTATION>"
    RegionToSegmentation            = "<REGION_TO_SEGMENTATION>"
    OpenVocabularyDetection         = "<OPEN_VOCABULARY_DETECTION>"
    RegionToCategory                = "<REGION_TO_CATEGORY>"
    RegionToDescription             = "<REGION_TO_DESCRIPTION>"
)

// UnsupportedError is returned when a task identifier is not a member of the
// supported set. It is a client fault and must be raised before any model call.
type UnsupportedError struct {
    Task string
}

func (e *UnsupportedError) Error() string {
    return fmt.Sprintf("unsupported task: %q", e.Task)
}

type entry struct {
    category    Category
    description string
}

var registry = map[string]entry{
    Caption:                         {CategoryNone, "Generates a simple caption for the image."},
    DetailedCaption:                 {CategoryNone, "Provides a detailed description of the image."},
    MoreDetailedCaption:             {CategoryNone, "Generates a very comprehensive description of the image."},
    ObjectDetection:                 {CategoryDetection, "Detects and locates objects within the image."},
    OD:                              {CategoryDetection, "Short for Object Detection; locates main objects."},
    OCR:                             {CategoryNone, "Performs Optical Character Recognition (Text extraction)."},
    OCRWithRegion:                   {CategoryOCRRegion, "OCR on specific regions of the image with locations."},
    CaptionToPhraseGrounding:        {CategoryDetection, "Locates specific phrases or objects mentioned in a caption."},
    DenseRegionCaption:              {CategoryDetection, "Generates captions for many specific regions in the image."},
    RegionProposal:                  {CategoryDetection, "Suggests regions of interest without specific labels."},
    ReferringExpressionSegmentation: {CategorySegmentation, "Segments the image based on a specific text description."},
    RegionToSegmentation:            {CategorySegmentation, "Generates a segmentation mask for a specified box/region."},
    OpenVocabularyDetection:         {CategoryDetection, "Detects objects based on any category you type."},
    RegionToCategory:                {CategoryNone, "Classifies a specific region into a category."},
    RegionToDescription:             {CategoryNone, "Generates a detailed description for a specific region."},
}

// IsSupported reports whether id is a member of the supported task set.
func IsSupported(id string) bool {
    _, ok := registry[id]
    return ok
}

// CategoryOf returns the visualization category for id. The mapping is a pure
// function of the identifier; unknown identifiers yield UnsupportedError.
func CategoryOf(id string) (Category, error) {
    e, ok := registry[id]
    if !ok {
        return "", &UnsupportedError{Task: id}
    }
    return e.category, nil
}

// Describe returns the human description for id, or "" when unsupported.
func Describe(id string) string {
    return registry[id].description
}

// All returns the supported task identifiers in a stable order.
func All() []string {
    ids := make([]string, 0, len(registry))
    for id := range registry {
        ids = append(ids, id)
    }
    sort.Strings(ids)
    return ids
}
