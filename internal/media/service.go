package media

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const defaultMaxUploadBytes = 5 * 1024 * 1024

type uploader interface {
	Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
}

// UploadResult is returned to the admin form.
type UploadResult struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

// Service stores admin uploaded images.
type Service interface {
	Upload(ctx context.Context, folder enums.UploadFolder, body io.Reader) (*UploadResult, error)
}

type service struct {
	store    uploader
	maxBytes int64
	logg     *logger.Logger
	newName  func() string
}

// NewService wires the bucket client. maxBytes <= 0 selects 5 MiB.
func NewService(store uploader, maxBytes int64, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	return &service{
		store:    store,
		maxBytes: maxBytes,
		logg:     logg,
		newName:  uuid.NewString,
	}, nil
}

func (s *service) Upload(ctx context.Context, folder enums.UploadFolder, body io.Reader) (*UploadResult, error) {
	if !folder.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid folder %q", folder)
	}
	if body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}

	data, err := io.ReadAll(io.LimitReader(body, s.maxBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
	}
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "file exceeds %d MB", s.maxBytes/(1024*1024))
	}

	contentType, ext, err := sniffImage(data)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "only "+allowedDescription+" are allowed")
	}

	objectName := path.Join(folder.String(), s.newName()+ext)
	url, err := s.store.Upload(ctx, objectName, data, contentType)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "object", objectName), "media.upload_failed", err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload file")
	}
	return &UploadResult{URL: url, ContentType: contentType, Size: len(data)}, nil
}
