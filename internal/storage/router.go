package storage

import (
	"context"
	"fmt"
	"image"
	"net/url"
)

// RoutingImageFetcher picks a source per URL: file URLs go to the local
// fetcher, blob URLs of the configured account to azure, the rest to HTTP
type RoutingImageFetcher struct {
	http  ImageFetcher
	azure *AzureImageFetcher
	local *LocalImageFetcher
}

// NewRoutingImageFetcher wires the available sources. azure and local may be nil
func NewRoutingImageFetcher(http ImageFetcher, azure *AzureImageFetcher, local *LocalImageFetcher) *RoutingImageFetcher {
	return &RoutingImageFetcher{http: http, azure: azure, local: local}
}

func (r *RoutingImageFetcher) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	return r.sourceFor(imageURL).FetchImage(ctx, imageURL)
}

func (r *RoutingImageFetcher) sourceFor(imageURL string) ImageFetcher {
	u, err := url.Parse(imageURL)
	if err == nil && u.Scheme == "file" {
		if r.local != nil {
			return r.local
		}
		return unavailable("local files are disabled")
	}
	if r.azure != nil && r.azure.Handles(imageURL) {
		return r.azure
	}
	return r.http
}

type unavailable string

func (u unavailable) FetchImage(context.Context, string) (image.Image, error) {
	return nil, fmt.Errorf("image source unavailable: %s", string(u))
}
