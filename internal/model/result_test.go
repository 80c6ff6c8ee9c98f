package model

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestParseResultCaption(t *testing.T) {
    raw := []byte(`{"<CAPTION>": "a cat on a mat"}`)
    res, err := ParseResult(raw)
    require.NoError(t, err)
    assert.JSONEq(t, string(raw), string(res.Raw()))

    p, ok := res.Payload("<CAPTION>")
    require.True(t, ok)
    assert.Equal(t, "a cat on a mat", p.Text)
}

func TestParseResultDetection(t *testing.T) {
    raw := []byte(`{"<OD>": {"bboxes": [[10.5, 20, 100, 200]], "labels": ["cat"]}}`)
    res, err := ParseResult(raw)
    require.NoError(t, err)

    p, ok := res.Payload("<OD>")
    require.True(t, ok)
    assert.Equal(t, [][]float64{{10.5, 20, 100, 200}}, p.BBoxes)
    assert.Equal(t, []string{"cat"}, p.DetectionLabels())
}

func TestParseResultOpenVocabularyLabels(t *testing.T) {
    raw := []byte(`{"<OPEN_VOCABULARY_DETECTION>": {"bboxes": [[0, 0, 5, 5]], "bboxes_labels": ["door"]}}`)
    res, err := ParseResult(raw)
    require.NoError(t, err)

    p, ok := res.Payload("<OPEN_VOCABULARY_DETECTION>")
    require.True(t, ok)
    assert.Empty(t, p.Labels)
    assert.Equal(t, []string{"door"}, p.DetectionLabels())
}

func TestParseResultPolygonNesting(t *testing.T) {
    flat := []byte(`{"<REGION_TO_SEGMENTATION>": {"polygons": [[1, 2, 3, 4, 5, 6]]}}`)
    res, err := ParseResult(flat)
    require.NoError(t, err)
    p, _ := res.Payload("<REGION_TO_SEGMENTATION>")
    assert.Equal(t, [][]float64{{1, 2, 3, 4, 5, 6}}, p.Polygons)

    grouped := []byte(`{"<REGION_TO_SEGMENTATION>": {"polygons": [[[1, 2, 3, 4, 5, 6], [7, 8, 9, 10, 11, 12]]]}}`)
    res, err = ParseResult(grouped)
    require.NoError(t, err)
    p, _ = res.Payload("<REGION_TO_SEGMENTATION>")
    assert.Equal(t, [][]float64{{1, 2, 3, 4, 5, 6}, {7, 8, 9, 10, 11, 12}}, p.Polygons)
}

func TestParseResultMalformedFieldDegrades(t *testing.T) {
    raw := []byte(`{"<OD>": {"bboxes": "not-a-list", "labels": ["ok"]}}`)
    res, err := ParseResult(raw)
    require.NoError(t, err)

    p, ok := res.Payload("<OD>")
    require.True(t, ok)
    assert.Empty(t, p.BBoxes)
    assert.Equal(t, []string{"ok"}, p.Labels)
}

func TestParseResultMissingTaskKey(t *testing.T) {
    res, err := ParseResult([]byte(`{"<CAPTION>": "hi"}`))
    require.NoError(t, err)

    _, ok := res.Payload("<OD>")
    assert.False(t, ok)
}

func TestParseResultInvalidTopLevel(t *testing.T) {
    _, err := ParseResult([]byte(`not json`))
    assert.Error(t, err)
}
