package service

import (
	"context"
	"errors"
	"time"

	apperrors "go-fringe-tracer/internal/errors"
	"go-fringe-tracer/internal/factory"
	"go-fringe-tracer/internal/logger"
	"go-fringe-tracer/internal/observer"
	"go-fringe-tracer/internal/repository"
	"go-fringe-tracer/internal/storage"
	"go-fringe-tracer/internal/tracer"
	"go-fringe-tracer/pkg/models"
	"go-fringe-tracer/pkg/pixbuf"
	"go-fringe-tracer/pkg/validation"

	"github.com/sirupsen/logrus"
)

// FringeAnalysisService traces fringes on remote interferograms
type FringeAnalysisService interface {
	TraceImage(ctx context.Context, req models.TraceRequest) (*models.TraceResponse, error)
	ValidateImageURL(imageURL string) error
}

// Settings are the service-wide tracing defaults
type Settings struct {
	Tracing         tracer.Config
	Scorer          string
	Metric          string
	AnalysisTimeout time.Duration // 0 disables the limit
}

// DefaultSettings returns the default tracing setup with no time limit
func DefaultSettings() Settings {
	return Settings{Tracing: tracer.DefaultConfig()}
}

type fringeAnalysisService struct {
	imageRepo repository.ImageRepository
	scorers   factory.ScorerFactory
	pool      *tracer.WorkerPool
	publisher observer.Subject
	contrast  *validation.ContrastValidator
	settings  Settings
}

// NewFringeAnalysisService creates a new fringe analysis service. pool and
// publisher may be nil
func NewFringeAnalysisService(
	imageRepository repository.ImageRepository,
	scorers factory.ScorerFactory,
	pool *tracer.WorkerPool,
	publisher observer.Subject,
	settings Settings,
) FringeAnalysisService {
	if publisher == nil {
		publisher = observer.NewSyncEventPublisher()
	}
	return &fringeAnalysisService{
		imageRepo: imageRepository,
		scorers:   scorers,
		pool:      pool,
		publisher: publisher,
		contrast:  validation.NewContrastValidator(),
		settings:  settings,
	}
}

// TraceImage fetches req.URL, traces from (req.X, req.Y) and straightens the
// result. A failed profile is reported in the response, not as an error
func (s *fringeAnalysisService) TraceImage(ctx context.Context, req models.TraceRequest) (*models.TraceResponse, error) {
	start := time.Now()
	s.publish(ctx, observer.TraceEvent{EventType: observer.TraceStarted, ImageURL: req.URL})

	if err := s.ValidateImageURL(req.URL); err != nil {
		return nil, s.fail(ctx, req.URL, start, apperrors.NewValidationError("invalid image URL", err))
	}
	if req.X == nil || req.Y == nil {
		return nil, s.fail(ctx, req.URL, start, apperrors.NewValidationError("x and y are required", nil))
	}

	cfg := applyOverrides(s.settings.Tracing, req.Config)
	if err := cfg.Validate(); err != nil {
		return nil, s.fail(ctx, req.URL, start, err)
	}

	scorerName, metricName := s.settings.Scorer, s.settings.Metric
	if req.Config != nil {
		if req.Config.Scorer != "" {
			scorerName = req.Config.Scorer
		}
		if req.Config.Metric != "" {
			metricName = req.Config.Metric
		}
	}
	scorer, err := s.scorers.CreateScorer(scorerName, metricName)
	if err != nil {
		return nil, s.fail(ctx, req.URL, start, err)
	}

	if s.settings.AnalysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.settings.AnalysisTimeout)
		defer cancel()
	}

	img, err := s.imageRepo.FetchImage(ctx, req.URL)
	if err != nil {
		fetchErr := classifyFetchError(err)
		s.publish(ctx, observer.TraceEvent{
			EventType:    observer.ImageFetchFailed,
			ImageURL:     req.URL,
			ErrorMessage: fetchErr.Error(),
		})
		return nil, s.fail(ctx, req.URL, start, fetchErr)
	}
	s.publish(ctx, observer.TraceEvent{EventType: observer.ImageFetched, ImageURL: req.URL, Success: true})

	buf, err := pixbuf.FromImage(img)
	if err != nil {
		return nil, s.fail(ctx, req.URL, start, err)
	}

	issues := s.contrast.Validate(buf, cfg.Ambit)

	opts := []tracer.Option{
		tracer.WithScorer(scorer),
		tracer.WithLogger(logger.WithFields(logrus.Fields{"component": "tracer", "image_url": req.URL})),
	}
	if s.pool != nil {
		opts = append(opts, tracer.WithWorkerPool(s.pool))
	}
	tr, err := tracer.New(buf, cfg, opts...)
	if err != nil {
		return nil, s.fail(ctx, req.URL, start, err)
	}

	result, err := tr.Trace(ctx, pixbuf.Pt(*req.X, *req.Y))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = apperrors.NewTimeoutError("fringe trace timed out", err)
		}
		return nil, s.fail(ctx, req.URL, start, err)
	}

	overlayPNG, err := storage.EncodePNG(result.Overlay.ToImage())
	if err != nil {
		return nil, s.fail(ctx, req.URL, start, apperrors.NewInternalError("failed to encode overlay", err))
	}

	resp := &models.TraceResponse{
		ImageURL:   req.URL,
		Timestamp:  time.Now().UTC(),
		Scorer:     scorer.GetStrategyName(),
		Seeds:      seedSummaries(result),
		OverlayPNG: overlayPNG,
		Warnings:   toWarnings(issues),
	}

	profile, err := tr.StraightenedProfile(result)
	if err != nil {
		resp.ProfileError = err.Error()
	} else {
		resp.Profile = toProfileResponse(profile)
		resp.ProfilePNG, err = storage.EncodePNG(profile.Image.ToImage())
		if err != nil {
			return nil, s.fail(ctx, req.URL, start, apperrors.NewInternalError("failed to encode profile", err))
		}
	}

	elapsed := time.Since(start)
	resp.ProcessingTimeSec = elapsed.Seconds()

	s.publish(ctx, observer.TraceEvent{
		EventType:      observer.TraceCompleted,
		ImageURL:       req.URL,
		ProcessingTime: elapsed,
		Success:        true,
		Seeds:          len(result.Traces),
		AbortedSeeds:   result.AbortedCount(),
		ProfileFailed:  resp.Profile == nil,
		Metadata:       map[string]interface{}{"scorer": resp.Scorer, "warnings": len(resp.Warnings)},
	})

	return resp, nil
}

// ValidateImageURL validates the image URL
func (s *fringeAnalysisService) ValidateImageURL(imageURL string) error {
	return s.imageRepo.ValidateImageURL(imageURL)
}

func (s *fringeAnalysisService) publish(ctx context.Context, event observer.TraceEvent) {
	event.Timestamp = time.Now()
	s.publisher.NotifyObservers(ctx, event)
}

// fail publishes a TraceFailed event and returns err
func (s *fringeAnalysisService) fail(ctx context.Context, imageURL string, start time.Time, err error) error {
	s.publish(ctx, observer.TraceEvent{
		EventType:      observer.TraceFailed,
		ImageURL:       imageURL,
		ProcessingTime: time.Since(start),
		ErrorMessage:   err.Error(),
	})
	return err
}

func classifyFetchError(err error) error {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("Image fetch timeout", err)
	default:
		return apperrors.NewNetworkError("Failed to fetch image", err)
	}
}

// applyOverrides copies the request's non-nil tracing parameters onto base
func applyOverrides(base tracer.Config, o *models.TraceConfigRequest) tracer.Config {
	if o == nil {
		return base
	}
	cfg := base
	if o.AmbitWidth != nil {
		cfg.Ambit.Width = *o.AmbitWidth
	}
	if o.AmbitHeight != nil {
		cfg.Ambit.Height = *o.AmbitHeight
	}
	if o.StepLength != nil {
		cfg.StepLength = *o.StepLength
	}
	if o.StepCount != nil {
		cfg.StepCount = *o.StepCount
	}
	if o.DirectionCount != nil {
		cfg.DirectionCount = *o.DirectionCount
	}
	if o.SeedWidth != nil {
		cfg.SeedAmbit.Width = *o.SeedWidth
	}
	if o.SeedHeight != nil {
		cfg.SeedAmbit.Height = *o.SeedHeight
	}
	if o.VerticalScale != nil {
		cfg.VerticalScale = *o.VerticalScale
	}
	if o.ReferenceIndex != nil {
		cfg.ReferenceIndex = *o.ReferenceIndex
	}
	return cfg
}

func seedSummaries(res *tracer.TraceResult) []models.SeedSummary {
	seeds := make([]models.SeedSummary, len(res.Traces))
	for i, st := range res.Traces {
		seeds[i] = models.SeedSummary{
			X:       st.Seed.X,
			Y:       st.Seed.Y,
			Length:  len(st.Path),
			Aborted: st.Aborted(),
		}
		if st.Err != nil {
			seeds[i].Error = st.Err.Error()
		}
	}
	return seeds
}

func toProfileResponse(p *tracer.Profile) *models.ProfileResponse {
	samples := make([]models.ProfileSample, len(p.Samples))
	for i, s := range p.Samples {
		samples[i] = models.ProfileSample{X: s.X, Height: s.Height}
	}
	return &models.ProfileResponse{
		Angle:   p.Angle,
		Samples: samples,
		Text:    p.Text(),
	}
}

func toWarnings(issues []validation.QualityIssue) []models.Warning {
	if len(issues) == 0 {
		return nil
	}
	warnings := make([]models.Warning, len(issues))
	for i, issue := range issues {
		warnings[i] = models.Warning{Type: issue.Type, Message: issue.Message, Value: issue.ActualValue}
	}
	return warnings
}
