package imagehost

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"smart_cycle_market/pkg/database"

	"github.com/google/uuid"
)

// MinIO self hosted image storage; transforms are not applied, images are kept as uploaded
type MinIO struct {
	store     database.MinIOClientRepo
	publicURL string
	folder    string
}

// NewMinIO images are addressed as <publicURL>/<bucket>/<folder>/<uuid><ext>
func NewMinIO(store database.MinIOClientRepo, publicURL, folder string) *MinIO {
	return &MinIO{store: store, publicURL: strings.TrimRight(publicURL, "/"), folder: folder}
}

// Upload stores r under a fresh object name
func (m *MinIO) Upload(ctx context.Context, r io.Reader, fileName, contentType string, _ Transform) (Image, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return Image{}, ErrNotImage
	}

	objectName := uuid.NewString() + strings.ToLower(filepath.Ext(fileName))
	if m.folder != "" {
		objectName = m.folder + "/" + objectName
	}

	if err := m.store.PutObject(ctx, objectName, r, -1, contentType); err != nil {
		return Image{}, fmt.Errorf("minio upload %s: %w", fileName, err)
	}

	return Image{
		URL:      fmt.Sprintf("%s/%s/%s", m.publicURL, m.store.Bucket(), objectName),
		PublicID: objectName,
	}, nil
}

// Destroy removes the object
func (m *MinIO) Destroy(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	return m.store.RemoveObject(ctx, publicID)
}
