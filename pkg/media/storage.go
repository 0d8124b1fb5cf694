package media

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
)

// DiskStore writes uploaded media under Root and hands back public handles
// served by the static /uploads route.
type DiskStore struct {
	Root         string
	PublicPrefix string
}

func NewDiskStore(root, publicPrefix string) *DiskStore {
	return &DiskStore{Root: root, PublicPrefix: publicPrefix}
}

// Save stores data as <Root>/<kind>/<uuid><ext> and returns its handle.
func (s *DiskStore) Save(kind, ext string, data []byte) (string, error) {
	dir := filepath.Join(s.Root, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir %s: %w", dir, err)
	}

	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write media %s: %w", name, err)
	}
	return path.Join(s.PublicPrefix, kind, name), nil
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/heic": ".heic",
}

// ImageExtension maps an image MIME type to a file extension. Unknown types
// are refused.
func ImageExtension(mimeType string) (string, bool) {
	ext, ok := imageExtensions[baseType(mimeType)]
	return ext, ok
}
