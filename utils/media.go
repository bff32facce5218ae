package utils

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrNotImage is returned when an upload does not sniff as a JPEG, PNG, GIF or WebP image.
var ErrNotImage = errors.New("upload a valid image; the file you uploaded was either not an image or a corrupted image")

// ErrFileTooLarge is returned when an upload exceeds the configured size.
var ErrFileTooLarge = errors.New("uploaded file is too large")

// imageTypes are the raster formats accepted for post images.
var imageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SaveImage validates header as an image and stores it under root/dir.
// It returns the stored path relative to root using forward slashes, e.g. "posts/small.gif".
// Names are kept when free; a colliding name gets a short random suffix.
func SaveImage(root, dir string, header *multipart.FileHeader, maxBytes int64) (string, error) {
	if maxBytes > 0 && header.Size > maxBytes {
		return "", ErrFileTooLarge
	}
	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	mt, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("sniff upload: %w", err)
	}
	if !isRasterImage(mt) {
		return "", ErrNotImage
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	targetDir := filepath.Join(root, filepath.FromSlash(dir))
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	name := cleanFileName(header.Filename, mt.Extension())
	dst, err := os.OpenFile(filepath.Join(targetDir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		ext := filepath.Ext(name)
		name = strings.TrimSuffix(name, ext) + "_" + uuid.NewString()[:8] + ext
		dst, err = os.OpenFile(filepath.Join(targetDir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	}
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	defer dst.Close()

	lr := &io.LimitedReader{R: src, N: maxBytes + 1}
	if maxBytes <= 0 {
		lr.N = 1 << 62
	}
	written, err := io.Copy(dst, lr)
	if err == nil && maxBytes > 0 && written > maxBytes {
		err = ErrFileTooLarge
	}
	if err != nil {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		return "", err
	}
	return path.Join(dir, name), nil
}

// MediaPath maps a stored relative name to its filesystem path.
func MediaPath(root, name string) string {
	return filepath.Join(root, filepath.FromSlash(name))
}

// MediaURL maps a stored relative name to its public URL.
func MediaURL(base, name string) string {
	if name == "" {
		return ""
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(name, "/")
}

func isRasterImage(mt *mimetype.MIME) bool {
	for _, t := range imageTypes {
		if mt.Is(t) {
			return true
		}
	}
	return false
}

func cleanFileName(name, ext string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = unsafeName.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		base = uuid.NewString()
	}
	if filepath.Ext(base) == "" {
		base += ext
	}
	return base
}
