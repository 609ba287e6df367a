// Package uploads stores token images submitted to the create-token registry.
package uploads

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// URLPrefix is where the disk store's files are served by the HTTP server
const URLPrefix = "/uploads/"

// ImageStore saves an uploaded image and returns the URL it is reachable at
type ImageStore interface {
	Save(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
}

// DiskStore writes images to a local directory under random names
type DiskStore struct {
	dir string
}

// NewDiskStore creates the uploads directory if needed
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the uploads directory
func (s *DiskStore) Dir() string {
	return s.dir
}

// Save writes the image and returns /uploads/<name>
func (s *DiskStore) Save(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := objectName(filename)
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload %s: %w", name, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to write upload %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to close upload %s: %w", name, err)
	}

	return URLPrefix + name, nil
}

// OctetStream is the content type of stored files that are not known images
const OctetStream = "application/octet-stream"

var imageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ImageContentType returns the content type for a raster image file name, or "" for anything else
func ImageContentType(name string) string {
	return imageTypes[strings.ToLower(filepath.Ext(name))]
}

// objectName is a uuid keeping the extension of raster images only, e.g. "0b7e...c2.png"
func objectName(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := imageTypes[ext]; !ok {
		ext = ""
	}
	return uuid.NewString() + ext
}
