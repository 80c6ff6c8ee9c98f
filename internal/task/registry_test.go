package task

import (
    "errors"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestCategoryOf(t *testing.T) {
    cases := map[string]Category{
        Caption:                         CategoryNone,
        MoreDetailedCaption:             CategoryNone,
        OCR:                             CategoryNone,
        RegionToCategory:                CategoryNone,
        OD:                              CategoryDetection,
        ObjectDetection:                 CategoryDetection,
        CaptionToPhraseGrounding:        CategoryDetection,
        DenseRegionCaption:              CategoryDetection,
        RegionProposal:                  CategoryDetection,
        OpenVocabularyDetection:         CategoryDetection,
        ReferringExpressionSegmentation: CategorySegmentation,
        RegionToSegmentation:            CategorySegmentation,
        OCRWithRegion:                   CategoryOCRRegion,
    }
    for id, want := range cases {
        got, err := CategoryOf(id)
        require.NoError(t, err, id)
        assert.Equal(t, want, got, id)
    }
}

func TestCategoryOfUnsupported(t *testing.T) {
    for _, id := range []string{"", "<CAPTION>x", "caption", "<UNKNOWN>"} {
        _, err := CategoryOf(id)
        require.Error(t, err, id)

        var unsupported *UnsupportedError
        require.True(t, errors.As(err, &unsupported), id)
        assert.Equal(t, id, unsupported.Task)
        assert.False(t, IsSupported(id))
    }
}

func TestAllStableAndComplete(t *testing.T) {
    ids := All()
    assert.Len(t, ids, 15)
    assert.Equal(t, ids, All())
    for _, id := range ids {
        assert.True(t, IsSupported(id))
        assert.NotEmpty(t, Describe(id), id)
    }
}
