package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Upload directories under the media root.
const (
	ProfilePictures = "users/profile_pictures"
	CoverPictures   = "users/cover_pictures"
)

var ErrUnsupportedImage = errors.New("unsupported image type")

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// Storage writes uploads below root and reports them under urlPrefix.
type Storage struct {
	root      string
	urlPrefix string
}

func NewStorage(root, urlPrefix string) *Storage {
	return &Storage{
		root:      root,
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
	}
}

// SaveImage copies src into dir under a random name that keeps the
// original extension and returns its public path.
func (s *Storage) SaveImage(dir, filename string, src io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := imageExtensions[ext]; !ok {
		return "", ErrUnsupportedImage
	}

	target := filepath.Join(s.root, filepath.FromSlash(dir))
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	name := uuid.NewString() + ext
	f, err := os.Create(filepath.Join(target, name))
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, src); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write media file: %w", err)
	}
	return path.Join(s.urlPrefix, dir, name), nil
}
