package media

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/pkg/errors"
)

type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
	Timeout   time.Duration
}

// CloudinaryStore is the image-storage collaborator: it takes raw binaries and returns stable URLs.
type CloudinaryStore struct {
	cld     *cloudinary.Cloudinary
	folder  string
	timeout time.Duration
}

func NewCloudinaryStore(cfg *Config) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, errors.Wrap(err, "create cloudinary client")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 40 * time.Second
	}
	return &CloudinaryStore{cld: cld, folder: cfg.Folder, timeout: timeout}, nil
}

// Upload stores one binary and returns its secure URL.
func (s *CloudinaryStore) Upload(ctx context.Context, r io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	uniqueFilename := true
	res, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:         s.folder,
		UniqueFilename: &uniqueFilename,
	})
	if err != nil {
		return "", errors.Wrap(err, "cloudinary upload")
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	return res.SecureURL, nil
}
