package container

import (
	"fmt"
	"net/http"

	"go-fringe-tracer/internal/config"
	"go-fringe-tracer/internal/factory"
	"go-fringe-tracer/internal/logger"
	"go-fringe-tracer/internal/observer"
	"go-fringe-tracer/internal/repository"
	"go-fringe-tracer/internal/service"
	"go-fringe-tracer/internal/storage"
	"go-fringe-tracer/internal/tracer"
	"go-fringe-tracer/internal/transport"
	"go-fringe-tracer/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config       *config.Config
	imageFetcher storage.ImageFetcher
	pool         *tracer.WorkerPool
	metrics      *observer.MetricsObserver
	publisher    *observer.EventPublisher
	traceService service.FringeAnalysisService
	handler      http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	components := factory.NewComponentFactory(cfg)

	// Fail at startup on a bad TRACE_SCORER/TRACE_METRIC
	if _, err := components.ScorerFactory.CreateScorer(cfg.TraceScorer, cfg.TraceMetric); err != nil {
		return nil, fmt.Errorf("invalid scorer configuration: %w", err)
	}

	imageFetcher, err := components.StorageFactory.CreateRouter()
	if err != nil {
		return nil, fmt.Errorf("failed to create image sources: %w", err)
	}

	validator := validation.NewURLValidator()
	if cfg.AllowLocalFiles {
		validator = validator.WithLocalFiles()
	}
	if cfg.AzureEnabled() {
		validator = validator.WithAzureAccount(cfg.AzureStorageAccount)
	}
	imageRepository := repository.NewImageRepository(imageFetcher, validator)

	pool := tracer.NewWorkerPool(cfg.TraceWorkers)
	pool.Start()

	metrics := observer.NewMetricsObserver()
	publisher := observer.NewEventPublisher()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metrics)

	traceService := service.NewFringeAnalysisService(
		imageRepository,
		components.ScorerFactory,
		pool,
		publisher,
		service.Settings{
			Tracing:         tracer.DefaultConfig(),
			Scorer:          cfg.TraceScorer,
			Metric:          cfg.TraceMetric,
			AnalysisTimeout: cfg.AnalysisTimeout,
		},
	)
	handler := transport.NewHandler(traceService, metrics, pool, cfg)

	return &Container{
		config:       cfg,
		imageFetcher: imageFetcher,
		pool:         pool,
		metrics:      metrics,
		publisher:    publisher,
		traceService: traceService,
		handler:      handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Service returns the fringe analysis service
func (c *Container) Service() service.FringeAnalysisService {
	return c.traceService
}

// Close stops the tracing worker pool
func (c *Container) Close() {
	c.pool.Close()
}
