package model

import (
    "context"
    "encoding/base64"
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestRuntimeClientInfer(t *testing.T) {
    imageBytes := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        require.Equal(t, http.MethodPost, r.Method)
        require.Equal(t, "/run", r.URL.Path)

        var req runtimeReq
        require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
        assert.Equal(t, "<CAPTION>", req.Task)
        assert.Equal(t, "", req.TextInput)
        assert.Equal(t, base64.StdEncoding.EncodeToString(imageBytes), req.ImageBase64)

        w.Header().Set("Content-Type", "application/json")
        w.Write([]byte(`{"<CAPTION>": "a test image"}`))
    }))
    defer srv.Close()

    cli := NewRuntimeClient(RuntimeOptions{BaseURL: srv.URL})
    res, err := cli.Infer(context.Background(), "<CAPTION>", "", imageBytes)
    require.NoError(t, err)

    p, ok := res.Payload("<CAPTION>")
    require.True(t, ok)
    assert.Equal(t, "a test image", p.Text)
}

func TestRuntimeClientInferServerError(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        http.Error(w, "model crashed", http.StatusInternalServerError)
    }))
    defer srv.Close()

    cli := NewRuntimeClient(RuntimeOptions{BaseURL: srv.URL})
    _, err := cli.Infer(context.Background(), "<OD>", "", []byte("img"))
    require.Error(t, err)

    var infErr *InferenceError
    require.True(t, errors.As(err, &infErr))
    assert.Equal(t, "<OD>", infErr.Task)
    assert.Contains(t, infErr.Error(), "500")
}

func TestRuntimeClientInferUnreachable(t *testing.T) {
    cli := NewRuntimeClient(RuntimeOptions{BaseURL: "http://127.0.0.1:1"})
    _, err := cli.Infer(context.Background(), "<OD>", "", []byte("img"))

    var infErr *InferenceError
    require.True(t, errors.As(err, &infErr))
}

func TestRuntimeClientInferBadBody(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Write([]byte("not json"))
    }))
    defer srv.Close()

    cli := NewRuntimeClient(RuntimeOptions{BaseURL: srv.URL})
    _, err := cli.Infer(context.Background(), "<OD>", "", []byte("img"))

    var infErr *InferenceError
    require.True(t, errors.As(err, &infErr))
}
