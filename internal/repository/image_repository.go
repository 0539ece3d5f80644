package repository

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"

	apperrors "go-fringe-tracer/internal/errors"
	"go-fringe-tracer/internal/storage"
	"go-fringe-tracer/pkg/validation"
)

// imageRepository resolves interferogram URLs through a fetcher
type imageRepository struct {
	fetcher   storage.ImageFetcher
	validator *validation.URLValidator
}

// NewImageRepository creates a repository on top of fetcher, checking URLs
// with validator
func NewImageRepository(fetcher storage.ImageFetcher, validator *validation.URLValidator) ImageRepository {
	if validator == nil {
		validator = validation.NewURLValidator()
	}
	return &imageRepository{
		fetcher:   fetcher,
		validator: validator,
	}
}

// FetchImage retrieves an image from a URL
func (r *imageRepository) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	img, err := r.fetcher.FetchImage(ctx, imageURL)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewNotFoundError("Image not found", fmt.Errorf("%w: %v", ErrImageNotFound, err))
		}
		return nil, err
	}
	return img, nil
}

// ValidateImageURL validates if the provided URL is acceptable
func (r *imageRepository) ValidateImageURL(imageURL string) error {
	if err := r.validator.ValidateImageURL(imageURL); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidImageURL, err)
	}
	return nil
}
