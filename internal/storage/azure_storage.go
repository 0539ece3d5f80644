package storage

import (
	"context"
	"fmt"
	"image"
	"net/url"

	"go-fringe-tracer/pkg/validation"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzureImageFetcher downloads interferograms stored as blobs of one account
type AzureImageFetcher struct {
	client  *azblob.Client
	account string
}

func NewAzureStorage(accountName string, accountKey string) (*AzureImageFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure client: %w", err)
	}

	return &AzureImageFetcher{client: client, account: accountName}, nil
}

// Handles reports whether blobURL points into this fetcher's account
func (s *AzureImageFetcher) Handles(blobURL string) bool {
	u, err := url.Parse(blobURL)
	if err != nil {
		return false
	}
	return validation.IsAzureBlobHost(u.Host, s.account)
}

// FetchImage downloads https://<account>.blob.core.windows.net/<container>/<blob>
func (s *AzureImageFetcher) FetchImage(ctx context.Context, blobURL string) (image.Image, error) {
	parts, err := azblob.ParseURL(blobURL)
	if err != nil {
		return nil, fmt.Errorf("invalid blob URL: %w", err)
	}
	if parts.ContainerName == "" || parts.BlobName == "" {
		return nil, fmt.Errorf("invalid blob URL: %q has no container or blob name", blobURL)
	}

	downloadResponse, err := s.client.DownloadStream(ctx, parts.ContainerName, parts.BlobName, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}

	body := downloadResponse.Body
	defer body.Close()

	img, _, err := DecodeImage(body)
	return img, err
}
