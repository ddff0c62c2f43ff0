package pipeline

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dunamismax/chromaflow/internal/codec"
	"github.com/dunamismax/chromaflow/internal/colorspace"
	"github.com/dunamismax/chromaflow/internal/domain"
	"github.com/dunamismax/chromaflow/internal/storage"
	"github.com/dunamismax/chromaflow/internal/store"
)

func TestProcessor_LookupFetchConvertStore(t *testing.T) {
	ctx := context.Background()
	records := store.NewMemoryStore()
	blobs := storage.LocalDir{Root: t.TempDir()}

	seedRecord(t, records, 42, "sunset.png")
	srcBytes := buildTestPNG(t, 64, 40)
	if err := blobs.Store(ctx, srcBytes, "/sunset.png"); err != nil {
		t.Fatalf("seed blob: %v", err)
	}

	processor, err := NewProcessor(records, blobs)
	if err != nil {
		t.Fatalf("new processor: %v", err)
	}

	result, err := processor.Process(ctx, Request{ImageID: 42, Mode: colorspace.ModeYCbCr})
	if err != nil {
		t.Fatalf("process request: %v", err)
	}

	if result.ConvertedName != "converted_sunset.png" {
		t.Fatalf("expected converted_sunset.png, got %s", result.ConvertedName)
	}
	if result.Format != "png" || result.Width != 64 || result.Height != 40 {
		t.Fatalf("unexpected result metadata: %+v", result)
	}
	if result.SourceBytes != len(srcBytes) {
		t.Fatalf("expected source bytes %d, got %d", len(srcBytes), result.SourceBytes)
	}

	stored, err := blobs.Fetch(ctx, "/converted_sunset.png")
	if err != nil {
		t.Fatalf("fetch converted blob: %v", err)
	}
	if result.OutputBytes != len(stored) {
		t.Fatalf("expected output bytes %d, got %d", len(stored), result.OutputBytes)
	}
	if bytes.Equal(stored, srcBytes) {
		t.Fatal("expected converted output to differ from source bytes")
	}

	rec, err := records.GetRecord(ctx, 42)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if rec.ConvertedName != "converted_sunset.png" {
		t.Fatalf("expected record to point at converted blob, got %q", rec.ConvertedName)
	}
}

func TestProcessor_UnknownImage(t *testing.T) {
	processor, err := NewProcessor(store.NewMemoryStore(), storage.LocalDir{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("new processor: %v", err)
	}

	_, err = processor.Process(context.Background(), Request{ImageID: 9, Mode: colorspace.ModeHSV})
	if !errors.Is(err, store.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestProcessor_UnsupportedSourceLeavesRecordUntouched(t *testing.T) {
	ctx := context.Background()
	records := store.NewMemoryStore()
	blobs := newMemoryBlobs()

	seedRecord(t, records, 3, "notes.txt")
	blobs.objects["/notes.txt"] = []byte("definitely not an image")

	processor, err := NewProcessor(records, blobs)
	if err != nil {
		t.Fatalf("new processor: %v", err)
	}

	_, err = processor.Process(ctx, Request{ImageID: 3, Mode: colorspace.ModeHSV})
	if !errors.Is(err, codec.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format error, got %v", err)
	}

	rec, _ := records.GetRecord(ctx, 3)
	if rec.ConvertedName != "" {
		t.Fatalf("record must not change on failure, got %q", rec.ConvertedName)
	}
	if _, ok := blobs.objects["/converted_notes.txt"]; ok {
		t.Fatal("no output must be stored on failure")
	}
}

func TestProcessor_StoreFailureKeepsRecord(t *testing.T) {
	ctx := context.Background()
	records := store.NewMemoryStore()
	blobs := newMemoryBlobs()
	blobs.storeErr = errors.New("bucket unavailable")

	seedRecord(t, records, 5, "cat.png")
	blobs.objects["/cat.png"] = buildTestPNG(t, 4, 4)

	processor, err := NewProcessor(records, blobs)
	if err != nil {
		t.Fatalf("new processor: %v", err)
	}

	if _, err := processor.Process(ctx, Request{ImageID: 5, Mode: colorspace.ModeIdentity}); err == nil {
		t.Fatal("expected store failure")
	}
	rec, _ := records.GetRecord(ctx, 5)
	if rec.ConvertedName != "" {
		t.Fatalf("record must not point at an unstored blob, got %q", rec.ConvertedName)
	}
}

func TestProcessor_RejectsInvalidRequest(t *testing.T) {
	processor, err := NewProcessor(store.NewMemoryStore(), newMemoryBlobs())
	if err != nil {
		t.Fatalf("new processor: %v", err)
	}

	for _, req := range []Request{
		{ImageID: 0, Mode: colorspace.ModeHSV},
		{ImageID: 1, Mode: colorspace.Mode(99)},
	} {
		if _, err := processor.Process(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("expected ErrInvalidRequest for %+v, got %v", req, err)
		}
	}
}

func TestNewProcessorRequiresCollaborators(t *testing.T) {
	if _, err := NewProcessor(nil, newMemoryBlobs()); err == nil {
		t.Fatal("expected error without name resolver")
	}
	if _, err := NewProcessor(store.NewMemoryStore(), nil); err == nil {
		t.Fatal("expected error without blob store")
	}
}

func seedRecord(t testing.TB, records *store.MemoryStore, id int64, name string) {
	t.Helper()
	now := time.Now().UTC()
	if err := records.CreateRecord(context.Background(), domain.ImageRecord{
		ID:        id,
		RawName:   name,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("seed record: %v", err)
	}
}

type memoryBlobs struct {
	objects  map[string][]byte
	storeErr error
}

func newMemoryBlobs() *memoryBlobs {
	return &memoryBlobs{objects: make(map[string][]byte)}
}

func (m *memoryBlobs) Fetch(_ context.Context, path string) ([]byte, error) {
	data, ok := m.objects[path]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

func (m *memoryBlobs) Store(_ context.Context, data []byte, path string) error {
	if m.storeErr != nil {
		return m.storeErr
	}
	m.objects[path] = data
	return nil
}
