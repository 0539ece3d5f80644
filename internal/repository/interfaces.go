package repository

import (
	"context"
	"image"
)

// ImageRepository defines the interface for interferogram access
type ImageRepository interface {
	// FetchImage retrieves and decodes an image from a URL
	FetchImage(ctx context.Context, imageURL string) (image.Image, error)

	// ValidateImageURL validates if the provided URL is acceptable
	ValidateImageURL(imageURL string) error
}
