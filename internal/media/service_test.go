package media

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/storage/gcs"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01}
	webpHeader = []byte("RIFF\x24\x00\x00\x00WEBPVP8 ")
)

type stubStore struct {
	objects map[string]string
	err     error
}

func (s *stubStore) Upload(_ context.Context, objectName string, data []byte, contentType string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.objects == nil {
		s.objects = map[string]string{}
	}
	s.objects[objectName] = contentType
	return gcs.PublicURL("", "media", objectName), nil
}

func newTestService(t *testing.T, store *stubStore, max int64) *service {
	t.Helper()
	svc, err := NewService(store, max, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	s := svc.(*service)
	s.newName = func() string { return "fixed" }
	return s
}

func TestUploadSniffsContent(t *testing.T) {
	cases := []struct {
		name   string
		folder enums.UploadFolder
		data   []byte
		object string
		ctype  string
	}{
		{"png", enums.UploadFolderProducts, pngHeader, "products/fixed.png", "image/png"},
		{"jpeg", enums.UploadFolderBanners, jpegHeader, "banners/fixed.jpg", "image/jpeg"},
		{"webp", enums.UploadFolderProducts, webpHeader, "products/fixed.webp", "image/webp"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &stubStore{}
			svc := newTestService(t, store, 0)
			res, err := svc.Upload(context.Background(), tc.folder, bytes.NewReader(tc.data))
			if err != nil {
				t.Fatalf("upload: %v", err)
			}
			if res.URL != "https://storage.googleapis.com/media/"+tc.object {
				t.Fatalf("unexpected url %s", res.URL)
			}
			if store.objects[tc.object] != tc.ctype {
				t.Fatalf("expected %s stored as %s, got %v", tc.object, tc.ctype, store.objects)
			}
		})
	}
}

func TestUploadRejections(t *testing.T) {
	store := &stubStore{}
	svc := newTestService(t, store, 16)
	ctx := context.Background()

	if _, err := svc.Upload(ctx, "avatars", bytes.NewReader(pngHeader)); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation for folder, got %v", err)
	}
	if _, err := svc.Upload(ctx, enums.UploadFolderProducts, strings.NewReader("")); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation for empty file, got %v", err)
	}
	if _, err := svc.Upload(ctx, enums.UploadFolderProducts, bytes.NewReader(pngHeader)); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation for oversized file, got %v", err)
	}
	if _, err := svc.Upload(ctx, enums.UploadFolderProducts, strings.NewReader("plain text")); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation for text, got %v", err)
	}
	if len(store.objects) != 0 {
		t.Fatalf("nothing should be stored, got %v", store.objects)
	}
}

func TestUploadStorageFailure(t *testing.T) {
	svc := newTestService(t, &stubStore{err: errors.New("bucket gone")}, 0)
	_, err := svc.Upload(context.Background(), enums.UploadFolderBanners, bytes.NewReader(pngHeader))
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
