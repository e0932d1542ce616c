package upload

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/IMRiesen/avitolike/internal/modules/upload/dto"
	"github.com/IMRiesen/avitolike/pkg/apperror"
	"github.com/IMRiesen/avitolike/pkg/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MaxImageSize is the largest listing photo accepted.
const MaxImageSize = 5 << 20

var errNotConfigured = apperror.New(http.StatusServiceUnavailable, "image uploads are not configured", nil)

type UploadService interface {
	UploadImage(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (*dto.UploadImageResponse, error)
}

type uploadService struct {
	fileStorage storage.ImageStorage
	folder      string
}

// NewUploadService returns a service that rejects every upload when
// fileStorage is nil.
func NewUploadService(fileStorage storage.ImageStorage, folder string) UploadService {
	return &uploadService{
		fileStorage: fileStorage,
		folder:      folder,
	}
}

func (s *uploadService) UploadImage(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (*dto.UploadImageResponse, error) {
	if s.fileStorage == nil {
		return nil, errNotConfigured
	}

	if !storage.IsImage(file.Filename) {
		return nil, fmt.Errorf("only jpg, jpeg, png, gif and webp images are allowed: %w", apperror.ErrBadRequest)
	}
	if file.Size > MaxImageSize {
		return nil, fmt.Errorf("image must not exceed 5 MB: %w", apperror.ErrBadRequest)
	}

	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", apperror.ErrBadRequest)
	}
	defer f.Close()

	url, err := s.fileStorage.UploadImage(ctx, f, s.folder, file.Filename)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"user_id": userID, "url": url}).Info("image uploaded")

	return &dto.UploadImageResponse{
		URL:      url,
		FileType: file.Header.Get("Content-Type"),
		Size:     file.Size,
	}, nil
}
