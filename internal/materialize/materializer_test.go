package materialize

import (
    "bytes"
    "context"
    "encoding/base64"
    "errors"
    "image"
    "image/png"
    "strings"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/local/florenceapi/internal/storage"
)

type fakeStore struct {
    puts     map[string][]byte
    putErr   error
    presigns []string
}

func newFakeStore() *fakeStore {
    return &fakeStore{puts: map[string][]byte{}}
}

func (f *fakeStore) Put(ctx context.Context, key string, data []byte, mime string) (string, error) {
    if f.putErr != nil {
        return "", f.putErr
    }
    f.puts[key] = data
    return "http://store/" + key, nil
}

func (f *fakeStore) Exists(ctx context.Context, key string) (bool, error) {
    _, ok := f.puts[key]
    return ok, nil
}

func (f *fakeStore) Presign(ctx context.Context, key string, ttl time.Duration) (string, error) {
    f.presigns = append(f.presigns, key)
    return "http://store/" + key + "?signed=1", nil
}

func testPNG(t *testing.T) image.Image {
    t.Helper()
    return image.NewRGBA(image.Rect(0, 0, 4, 4))
}

func TestOutputNilImage(t *testing.T) {
    m := New(newFakeStore(), time.Hour)
    arts, err := m.Output(context.Background(), nil, true, "<OD>", "req-1")
    require.NoError(t, err)
    assert.Nil(t, arts)
}

func TestOutputStored(t *testing.T) {
    store := newFakeStore()
    m := New(store, time.Hour)

    arts, err := m.Output(context.Background(), testPNG(t), true, "<OD>", "req-1")
    require.NoError(t, err)
    require.Len(t, arts, 1)

    art := arts[0]
    assert.Equal(t, KindStored, art.Kind)
    assert.Equal(t, "florence/req-1/result_<OD>.png", art.Key)
    assert.Contains(t, art.URL, "signed=1")
    assert.Contains(t, store.puts, art.Key)
    assert.Equal(t, []string{art.Key}, store.presigns)
}

func TestOutputInlineRoundTrip(t *testing.T) {
    m := New(newFakeStore(), time.Hour)
    src := testPNG(t)

    arts, err := m.Output(context.Background(), src, false, "<OD>", "req-1")
    require.NoError(t, err)
    require.Len(t, arts, 1)

    art := arts[0]
    assert.Equal(t, KindInline, art.Kind)
    assert.Empty(t, art.Key)
    require.True(t, strings.HasPrefix(art.URL, "data:image/png;base64,"))

    decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(art.URL, "data:image/png;base64,"))
    require.NoError(t, err)
    img, err := png.Decode(bytes.NewReader(decoded))
    require.NoError(t, err)
    assert.Equal(t, src.Bounds(), img.Bounds())
}

func TestOutputStoreFailurePropagates(t *testing.T) {
    store := newFakeStore()
    store.putErr = &storage.StoreError{Op: "put", Key: "k", Err: errors.New("boom")}
    m := New(store, time.Hour)

    _, err := m.Output(context.Background(), testPNG(t), true, "<OD>", "req-1")
    require.Error(t, err)

    var storeErr *storage.StoreError
    assert.True(t, errors.As(err, &storeErr))
}

func TestInputKeyUsesBaseFilename(t *testing.T) {
    store := newFakeStore()
    m := New(store, time.Hour)

    art, err := m.Input(context.Background(), []byte("img"), "image/jpeg", "/tmp/uploads/photo.jpg", true, "req-2")
    require.NoError(t, err)
    assert.Equal(t, "florence/req-2/photo.jpg", art.Key)

    art, err = m.Input(context.Background(), []byte("img"), "image/jpeg", "", true, "req-2")
    require.NoError(t, err)
    assert.Equal(t, "florence/req-2/input", art.Key)
}

func TestPartitionFallsBackToTimestamp(t *testing.T) {
    m := New(newFakeStore(), time.Hour)

    art, err := m.Input(context.Background(), []byte("img"), "image/png", "a.png", true, "")
    require.NoError(t, err)
    assert.Regexp(t, `^florence/\d{4}-\d{2}-\d{2}_\d{2}-\d{2}/a\.png$`, art.Key)
}

func TestPresignTTLCapped(t *testing.T) {
    m := New(newFakeStore(), 30*24*time.Hour)
    assert.Equal(t, 7*24*time.Hour, m.presignTTL)

    m = New(newFakeStore(), 0)
    assert.Equal(t, 7*24*time.Hour, m.presignTTL)

    m = New(newFakeStore(), time.Hour)
    assert.Equal(t, time.Hour, m.presignTTL)
}
