package factory

import (
	"fmt"
	"strings"

	"go-fringe-tracer/internal/config"
	apperrors "go-fringe-tracer/internal/errors"
	"go-fringe-tracer/internal/storage"
	"go-fringe-tracer/internal/strategy"
	"go-fringe-tracer/pkg/colormetric"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for HTTP-based image fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
	// LocalStorage for local file system
	LocalStorage StorageType = "local"
)

// ScorerFactory creates scoring strategies
type ScorerFactory interface {
	CreateScorer(scorer, metric string) (strategy.ScoringStrategy, error)
}

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageFetcher, error)
	CreateRouter() (storage.ImageFetcher, error)
}

// scorerFactory implements ScorerFactory
type scorerFactory struct{}

// NewScorerFactory creates a new scorer factory
func NewScorerFactory() ScorerFactory {
	return &scorerFactory{}
}

// CreateScorer creates a scoring strategy by name. The metric only applies
// to the perceptual strategy; empty names select the defaults
func (f *scorerFactory) CreateScorer(scorer, metric string) (strategy.ScoringStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(scorer)) {
	case "", strategy.PerceptualStrategyName:
		m, err := colormetric.ByName(metric)
		if err != nil {
			return nil, apperrors.NewMalformedConfigError(err.Error())
		}
		return strategy.NewPerceptualStrategy(m), nil
	case strategy.BrightnessStrategyName:
		return strategy.NewBrightnessStrategy(), nil
	default:
		return nil, apperrors.NewMalformedConfigError(fmt.Sprintf("unsupported scorer: %s", scorer))
	}
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageFetcher, error) {
	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPImageFetcher(f.cfg.ImageFetchTimeout), nil
	case AzureStorage:
		if !f.cfg.AzureEnabled() {
			return nil, fmt.Errorf("azure storage requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
		azure, err := storage.NewAzureStorage(f.cfg.AzureStorageAccount, f.cfg.AzureStorageKey)
		if err != nil {
			return nil, err
		}
		return azure, nil
	case LocalStorage:
		if !f.cfg.AllowLocalFiles {
			return nil, fmt.Errorf("local storage requires ALLOW_LOCAL_FILES")
		}
		return storage.NewLocalImageFetcher(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// CreateRouter combines every enabled storage type into one fetcher
func (f *storageFactory) CreateRouter() (storage.ImageFetcher, error) {
	httpFetcher, err := f.CreateStorage(HTTPStorage)
	if err != nil {
		return nil, err
	}

	var azure *storage.AzureImageFetcher
	if f.cfg.AzureEnabled() {
		azure, err = storage.NewAzureStorage(f.cfg.AzureStorageAccount, f.cfg.AzureStorageKey)
		if err != nil {
			return nil, err
		}
	}

	var local *storage.LocalImageFetcher
	if f.cfg.AllowLocalFiles {
		local = storage.NewLocalImageFetcher()
	}

	return storage.NewRoutingImageFetcher(httpFetcher, azure, local), nil
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	ScorerFactory  ScorerFactory
	StorageFactory StorageFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		ScorerFactory:  NewScorerFactory(),
		StorageFactory: NewStorageFactory(cfg),
	}
}
