package narrative

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/planbook/internal/memstore"
	"github.com/mesh-intelligence/planbook/pkg/types"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

var testDefs = []types.SingleEntryDef{
	{Field: "life_cycle_model", Label: "Life Cycle Model", SupportsImage: true},
	{Field: "scope", Label: "Scope"},
}

// memFile is an in-memory FileReader.
type memFile struct {
	name string
	data []byte
}

func (f memFile) Name() string                 { return f.name }
func (f memFile) Open() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(f.data)), nil }

// flakyEntries wraps a repository and fails on demand.
type flakyEntries struct {
	types.SingleEntryRepository
	failGet, failPut bool
}

var errBackend = errors.New("backend unavailable")

func (f *flakyEntries) Get(ctx context.Context, field string) (types.SingleEntryValue, error) {
	if f.failGet {
		return types.SingleEntryValue{}, errBackend
	}
	return f.SingleEntryRepository.Get(ctx, field)
}

func (f *flakyEntries) Put(ctx context.Context, field string, v types.SingleEntryValue) error {
	if f.failPut {
		return errBackend
	}
	return f.SingleEntryRepository.Put(ctx, field, v)
}

func newEngine(t *testing.T, opts ...Option) (*Engine, *flakyEntries) {
	t.Helper()
	store := memstore.New()
	require.NoError(t, store.Entries("p1").Put(context.Background(), "scope", types.SingleEntryValue{Content: "A"}))
	repo := &flakyEntries{SingleEntryRepository: store.Entries("p1")}
	e := New(testDefs, repo, opts...)
	require.NoError(t, e.Load(context.Background()))
	return e, repo
}

func TestDirtyTracksBaseline(t *testing.T) {
	e, _ := newEngine(t)
	assert.Equal(t, "A", e.Content("scope"))
	assert.False(t, e.Dirty("scope"))

	require.NoError(t, e.SetContent("scope", "B"))
	assert.True(t, e.Dirty("scope"))

	require.NoError(t, e.SetContent("scope", "A"))
	assert.False(t, e.Dirty("scope"))

	for _, s := range []string{"", "a", "A ", "AB"} {
		require.NoError(t, e.SetContent("scope", s))
		assert.True(t, e.Dirty("scope"), "content %q", s)
	}
}

func TestSaveMovesOnlyThatBaseline(t *testing.T) {
	ctx := context.Background()
	e, repo := newEngine(t)

	require.NoError(t, e.SetContent("scope", "B"))
	require.NoError(t, e.SetContent("life_cycle_model", "Waterfall"))
	assert.True(t, e.AnyDirty())

	require.NoError(t, e.Save(ctx, "scope"))
	assert.False(t, e.Dirty("scope"))
	assert.True(t, e.Dirty("life_cycle_model"))

	stored, err := repo.Get(ctx, "scope")
	require.NoError(t, err)
	assert.Equal(t, "B", stored.Content)
}

func TestSaveFailureKeepsState(t *testing.T) {
	e, repo := newEngine(t)
	require.NoError(t, e.SetContent("scope", "B"))
	repo.failPut = true

	err := e.Save(context.Background(), "scope")
	var ae *ActionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "scope", ae.Field)
	assert.Equal(t, "Failed to save", ae.Message())
	assert.ErrorIs(t, err, errBackend)
	assert.True(t, e.Dirty("scope"))
	assert.Equal(t, "B", e.Content("scope"))
}

func TestLoadFailureResetsValues(t *testing.T) {
	e, repo := newEngine(t)
	repo.failGet = true

	err := e.Load(context.Background())
	assert.ErrorIs(t, err, errBackend)
	assert.Empty(t, e.Values())
	assert.Empty(t, e.Content("scope"))
	assert.False(t, e.Loading())
}

func TestAttachImage(t *testing.T) {
	e, _ := newEngine(t, WithImageLimit(64))

	require.NoError(t, e.AttachImage("life_cycle_model", memFile{"model.png", pngHeader}))
	v := e.Value("life_cycle_model")
	require.True(t, v.HasImage())
	assert.True(t, strings.HasPrefix(*v.ImageData, "data:image/png;base64,"))
	assert.True(t, e.Dirty("life_cycle_model"))

	mime, data, err := DecodeDataURL(*v.ImageData)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, pngHeader, data)

	require.NoError(t, e.RemoveImage("life_cycle_model"))
	assert.False(t, e.Value("life_cycle_model").HasImage())
	assert.False(t, e.Dirty("life_cycle_model"))
}

func TestAttachImageRejections(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		file    memFile
		wantErr error
	}{
		{
			name:    "too large",
			field:   "life_cycle_model",
			file:    memFile{"big.png", append(pngHeader, make([]byte, 100)...)},
			wantErr: types.ErrImageTooLarge,
		},
		{
			name:    "not an image",
			field:   "life_cycle_model",
			file:    memFile{"notes.txt", []byte("plain text")},
			wantErr: types.ErrImageType,
		},
		{
			name:    "field without image support",
			field:   "scope",
			file:    memFile{"model.png", pngHeader},
			wantErr: types.ErrInvalidData,
		},
		{
			name:    "unknown field",
			field:   "nope",
			file:    memFile{"model.png", pngHeader},
			wantErr: types.ErrUnknownField,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newEngine(t, WithImageLimit(64))
			err := e.AttachImage(tt.field, tt.file)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, e.Value(tt.field).HasImage())
		})
	}
}

func TestLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diagram.png")
	require.NoError(t, os.WriteFile(path, pngHeader, 0o644))

	url, err := ReadImage(LocalFile(path), 1024)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
	assert.Equal(t, "diagram.png", LocalFile(path).Name())

	_, err = ReadImage(LocalFile(filepath.Join(t.TempDir(), "missing.png")), 1024)
	assert.Error(t, err)
}

func TestCheckDataURL(t *testing.T) {
	good := EncodeDataURL("image/png", pngHeader)
	assert.NoError(t, CheckDataURL(good, 1024))
	assert.ErrorIs(t, CheckDataURL(good, 4), types.ErrImageTooLarge)
	assert.ErrorIs(t, CheckDataURL(EncodeDataURL("text/plain", []byte("hello")), 1024), types.ErrImageType)
	assert.ErrorIs(t, CheckDataURL("not a url", 1024), types.ErrInvalidData)
	assert.ErrorIs(t, CheckDataURL("data:image/png,raw", 1024), types.ErrInvalidData)
}

func TestDisplay(t *testing.T) {
	e, _ := newEngine(t)
	assert.Equal(t, "A", e.Display("scope"))
	assert.Equal(t, "No life cycle model provided yet.", e.Display("life_cycle_model"))
}

func TestUnknownFieldOperations(t *testing.T) {
	e, _ := newEngine(t)
	assert.ErrorIs(t, e.SetContent("nope", "x"), types.ErrUnknownField)
	assert.ErrorIs(t, e.RemoveImage("nope"), types.ErrUnknownField)
	assert.ErrorIs(t, e.Save(context.Background(), "nope"), types.ErrUnknownField)
}
