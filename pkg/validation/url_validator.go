package validation

import (
	"net/url"
	"path"
	"slices"
	"strings"

	apperrors "go-fringe-tracer/internal/errors"
)

// ImageExtensions are the file extensions the interferogram decoders accept
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".tif", ".tiff", ".bmp", ".webp"}

const azureBlobSuffix = ".blob.core.windows.net"

// URLValidator checks that an interferogram URL can be served by one of the
// configured image sources
type URLValidator struct {
	localFiles   bool
	azureAccount string
	allowedHosts []string
}

// NewURLValidator accepts http and https URLs on any host
func NewURLValidator() *URLValidator {
	return &URLValidator{}
}

// WithLocalFiles returns a copy that also accepts file:// URLs naming an image
func (v *URLValidator) WithLocalFiles() *URLValidator {
	c := *v
	c.localFiles = true
	return &c
}

// WithAzureAccount returns a copy that checks blob URLs of account against
// what the blob source can download
func (v *URLValidator) WithAzureAccount(account string) *URLValidator {
	c := *v
	c.azureAccount = account
	return &c
}

// WithAllowedHosts returns a copy restricted to hosts. The configured Azure
// account stays reachable
func (v *URLValidator) WithAllowedHosts(hosts ...string) *URLValidator {
	c := *v
	c.allowedHosts = append([]string{}, hosts...)
	return &c
}

// ValidateImageURL validates if the provided URL is acceptable for tracing
func (v *URLValidator) ValidateImageURL(imageURL string) error {
	if strings.TrimSpace(imageURL) == "" {
		return apperrors.NewValidationError("URL cannot be empty", nil)
	}

	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return apperrors.NewValidationError("Invalid URL format", err)
	}

	switch parsedURL.Scheme {
	case "http", "https":
		return v.validateRemote(parsedURL)
	case "file":
		if !v.localFiles {
			return apperrors.NewValidationError("Local files are disabled", nil)
		}
		return validateFile(parsedURL)
	}
	return apperrors.NewValidationError("URL scheme not allowed", nil)
}

func (v *URLValidator) validateRemote(u *url.URL) error {
	if u.Hostname() == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}

	if IsAzureBlobHost(u.Host, v.azureAccount) {
		if u.Scheme != "https" {
			return apperrors.NewValidationError("Azure blob URLs must use https", nil)
		}
		container, blob, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		if container == "" || blob == "" {
			return apperrors.NewValidationError("Azure blob URL must name a container and a blob", nil)
		}
		return nil
	}

	if len(v.allowedHosts) > 0 && !slices.Contains(v.allowedHosts, u.Host) {
		return apperrors.NewValidationError("URL host not allowed", nil)
	}
	return nil
}

func validateFile(u *url.URL) error {
	if u.Host != "" && u.Host != "localhost" {
		return apperrors.NewValidationError("File URL must not name a remote host", nil)
	}
	if u.Path == "" {
		return apperrors.NewValidationError("File URL must have a path", nil)
	}
	if !HasImageExtension(u.Path) {
		return apperrors.NewValidationError(
			"File URL must name a png, jpeg, gif, tiff, bmp or webp image", nil)
	}
	return nil
}

// HasImageExtension reports whether p ends in one of ImageExtensions
func HasImageExtension(p string) bool {
	return slices.Contains(ImageExtensions, strings.ToLower(path.Ext(p)))
}

// IsAzureBlobHost reports whether host is the blob endpoint of account
func IsAzureBlobHost(host, account string) bool {
	if account == "" {
		return false
	}
	return strings.EqualFold(host, account+azureBlobSuffix)
}
