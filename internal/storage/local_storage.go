package storage

import (
	"context"
	"fmt"
	"image"
	"net/url"
	"os"
	"path/filepath"
)

// LocalImageFetcher reads interferograms from the file system. It accepts
// file:// URLs and plain paths
type LocalImageFetcher struct{}

func NewLocalImageFetcher() *LocalImageFetcher {
	return &LocalImageFetcher{}
}

func (l *LocalImageFetcher) FetchImage(ctx context.Context, location string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := LocalPath(location)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := DecodeImage(f)
	return img, err
}

// SavePNG writes img to path as PNG, creating parent directories
func (l *LocalImageFetcher) SavePNG(path string, img image.Image) error {
	data, err := EncodePNG(img)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// LocalPath turns a file:// URL or a plain path into a file system path
func LocalPath(location string) (string, error) {
	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" {
		return location, nil
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("not a local file: %q", location)
	}
	if u.Path == "" {
		return "", fmt.Errorf("file URL %q has no path", location)
	}
	return filepath.FromSlash(u.Path), nil
}
