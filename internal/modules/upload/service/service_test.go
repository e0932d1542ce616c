package upload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/IMRiesen/avitolike/pkg/apperror"
	"github.com/google/uuid"
)

type memoryStorage struct {
	folder string
	data   []byte
}

func (m *memoryStorage) UploadImage(ctx context.Context, r io.Reader, folder, fileName string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.folder, m.data = folder, b
	return "https://res.cloudinary.com/demo/image/upload/v1/" + folder + "/" + fileName, nil
}

func (m *memoryStorage) DeleteImage(ctx context.Context, fileURL string) error { return nil }

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func TestUploadImage(t *testing.T) {
	store := &memoryStorage{}
	svc := NewUploadService(store, "ads")

	resp, err := svc.UploadImage(context.Background(), uuid.New(), fileHeader(t, "bike.JPG", []byte("jpeg bytes")))
	if err != nil {
		t.Fatal(err)
	}
	if resp.URL != "https://res.cloudinary.com/demo/image/upload/v1/ads/bike.JPG" || resp.Size != int64(len("jpeg bytes")) {
		t.Fatalf("got %+v", resp)
	}
	if store.folder != "ads" || string(store.data) != "jpeg bytes" {
		t.Fatalf("stored folder=%q data=%q", store.folder, store.data)
	}
}

func TestUploadImageRejects(t *testing.T) {
	svc := NewUploadService(&memoryStorage{}, "ads")

	if _, err := svc.UploadImage(context.Background(), uuid.New(), fileHeader(t, "notes.txt", []byte("hi"))); !errors.Is(err, apperror.ErrBadRequest) {
		t.Fatalf("extension err = %v", err)
	}

	big := fileHeader(t, "huge.png", []byte("png"))
	big.Size = MaxImageSize + 1
	if _, err := svc.UploadImage(context.Background(), uuid.New(), big); !errors.Is(err, apperror.ErrBadRequest) {
		t.Fatalf("size err = %v", err)
	}
}

func TestUploadWithoutStorage(t *testing.T) {
	svc := NewUploadService(nil, "ads")

	_, err := svc.UploadImage(context.Background(), uuid.New(), fileHeader(t, "bike.png", []byte("png")))
	if apperror.MapErrorToStatus(err) != http.StatusServiceUnavailable {
		t.Fatalf("err = %v", err)
	}
}
