package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	apperrors "go-fringe-tracer/internal/errors"
	"go-fringe-tracer/internal/factory"
	"go-fringe-tracer/internal/observer"
	"go-fringe-tracer/internal/tracer"
	"go-fringe-tracer/pkg/models"
	"go-fringe-tracer/pkg/validation"
)

type fakeRepository struct {
	img      image.Image
	err      error
	delay    time.Duration
	fetches  int
	validate *validation.URLValidator
}

func (f *fakeRepository) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	f.fetches++
	time.Sleep(f.delay)
	return f.img, f.err
}

func (f *fakeRepository) ValidateImageURL(imageURL string) error {
	return f.validate.ValidateImageURL(imageURL)
}

// columnImage is a bright interferogram crossed by one dark fringe at x
func columnImage(width, height, x int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for py := 0; py < height; py++ {
		for px := 0; px < width; px++ {
			c := color.NRGBA{R: 220, G: 220, B: 220, A: 255}
			if px == x {
				c = color.NRGBA{A: 255}
			}
			img.SetNRGBA(px, py, c)
		}
	}
	return img
}

func blackImage(width, height int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

func ptr[T any](v T) *T { return &v }

func newTestService(repo *fakeRepository, metrics *observer.MetricsObserver, pool *tracer.WorkerPool) FringeAnalysisService {
	if repo.validate == nil {
		repo.validate = validation.NewURLValidator()
	}
	publisher := observer.NewSyncEventPublisher()
	if metrics != nil {
		publisher.Subscribe(metrics)
	}
	return NewFringeAnalysisService(repo, factory.NewScorerFactory(), pool, publisher, DefaultSettings())
}

func columnRequest() models.TraceRequest {
	return models.TraceRequest{
		URL: "https://example.com/fringes.png",
		X:   ptr(27.0),
		Y:   ptr(25.0),
		Config: &models.TraceConfigRequest{
			AmbitWidth:  ptr(2.0),
			AmbitHeight: ptr(2.0),
			StepLength:  ptr(2.0),
			StepCount:   ptr(20),
			SeedWidth:   ptr(0.0),
			SeedHeight:  ptr(0.0),
		},
	}
}

func TestTraceImage_Success(t *testing.T) {
	metrics := observer.NewMetricsObserver()
	pool := tracer.NewWorkerPool(2)
	pool.Start()
	defer pool.Close()

	svc := newTestService(&fakeRepository{img: columnImage(60, 300, 25)}, metrics, pool)

	resp, err := svc.TraceImage(context.Background(), columnRequest())
	if err != nil {
		t.Fatalf("TraceImage failed: %v", err)
	}

	if len(resp.Seeds) != 1 {
		t.Fatalf("Expected 1 seed, got %d", len(resp.Seeds))
	}
	if resp.Seeds[0].Aborted || resp.Seeds[0].Length != 21 {
		t.Errorf("Expected complete 21-point path, got %+v", resp.Seeds[0])
	}
	if resp.Scorer != "perceptual/ciede2000" {
		t.Errorf("Expected default scorer, got %s", resp.Scorer)
	}
	if resp.Profile == nil {
		t.Fatalf("Expected profile, got error %q", resp.ProfileError)
	}
	if len(resp.Profile.Samples) != 21 || resp.Profile.Samples[0].Height != 0 {
		t.Errorf("Unexpected profile samples: %v", resp.Profile.Samples)
	}
	if strings.Count(resp.Profile.Text, "\n") != 21 {
		t.Errorf("Expected 21 text lines, got %q", resp.Profile.Text)
	}
	if len(resp.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", resp.Warnings)
	}

	overlay, err := png.Decode(bytes.NewReader(resp.OverlayPNG))
	if err != nil {
		t.Fatalf("Overlay is not a PNG: %v", err)
	}
	if overlay.Bounds().Dx() != 60 || overlay.Bounds().Dy() != 300 {
		t.Errorf("Expected overlay sized like the source, got %v", overlay.Bounds())
	}
	if _, err := png.Decode(bytes.NewReader(resp.ProfilePNG)); err != nil {
		t.Errorf("Profile image is not a PNG: %v", err)
	}

	m := metrics.GetMetrics()
	if m.TotalTraces != 1 || m.SuccessfulTraces != 1 || m.FailedTraces != 0 {
		t.Errorf("Unexpected metrics: %+v", m)
	}
}

func TestTraceImage_ProfileFailureStillReturnsOverlay(t *testing.T) {
	metrics := observer.NewMetricsObserver()
	svc := newTestService(&fakeRepository{img: blackImage(50, 50)}, metrics, nil)

	resp, err := svc.TraceImage(context.Background(), models.TraceRequest{
		URL: "https://example.com/dark.png",
		X:   ptr(25.0),
		Y:   ptr(25.0),
	})
	if err != nil {
		t.Fatalf("Expected response despite aborted seeds, got %v", err)
	}

	if len(resp.Seeds) != 9 {
		t.Errorf("Expected 9 seeds, got %d", len(resp.Seeds))
	}
	for _, s := range resp.Seeds {
		if !s.Aborted || s.Length != 1 || s.Error == "" {
			t.Errorf("Expected aborted seed with error, got %+v", s)
		}
	}
	if resp.Profile != nil || resp.ProfileError == "" {
		t.Errorf("Expected profile error, got profile %v", resp.Profile)
	}
	if len(resp.OverlayPNG) == 0 {
		t.Error("Expected overlay despite profile failure")
	}
	if len(resp.Warnings) == 0 {
		t.Error("Expected contrast warnings for a black image")
	}

	m := metrics.GetMetrics()
	if m.AbortedSeeds != 9 || m.ProfileFailures != 1 {
		t.Errorf("Unexpected metrics: %+v", m)
	}
}

func TestTraceImage_Errors(t *testing.T) {
	tests := []struct {
		name     string
		repo     *fakeRepository
		req      models.TraceRequest
		wantType apperrors.ErrorType
		fetches  int
	}{
		{
			name:     "invalid URL",
			repo:     &fakeRepository{},
			req:      models.TraceRequest{URL: "ftp://example.com/a.png", X: ptr(1.0), Y: ptr(1.0)},
			wantType: apperrors.ErrorTypeValidation,
		},
		{
			name:     "missing coordinates",
			repo:     &fakeRepository{},
			req:      models.TraceRequest{URL: "https://example.com/a.png", X: ptr(1.0)},
			wantType: apperrors.ErrorTypeValidation,
		},
		{
			name: "malformed config",
			repo: &fakeRepository{},
			req: models.TraceRequest{
				URL: "https://example.com/a.png", X: ptr(1.0), Y: ptr(1.0),
				Config: &models.TraceConfigRequest{StepCount: ptr(0)},
			},
			wantType: apperrors.ErrorTypeMalformedConfig,
		},
		{
			name: "oversized step count",
			repo: &fakeRepository{},
			req: models.TraceRequest{
				URL: "https://example.com/a.png", X: ptr(1.0), Y: ptr(1.0),
				Config: &models.TraceConfigRequest{StepCount: ptr(tracer.MaxStepCount + 1)},
			},
			wantType: apperrors.ErrorTypeMalformedConfig,
		},
		{
			name: "oversized seed ambit",
			repo: &fakeRepository{},
			req: models.TraceRequest{
				URL: "https://example.com/a.png", X: ptr(1.0), Y: ptr(1.0),
				Config: &models.TraceConfigRequest{SeedWidth: ptr(20000.0), SeedHeight: ptr(20000.0)},
			},
			wantType: apperrors.ErrorTypeMalformedConfig,
		},
		{
			name: "unknown scorer",
			repo: &fakeRepository{},
			req: models.TraceRequest{
				URL: "https://example.com/a.png", X: ptr(1.0), Y: ptr(1.0),
				Config: &models.TraceConfigRequest{Scorer: "sobel"},
			},
			wantType: apperrors.ErrorTypeMalformedConfig,
		},
		{
			name:     "fetch failure",
			repo:     &fakeRepository{err: errors.New("connection refused")},
			req:      models.TraceRequest{URL: "https://example.com/a.png", X: ptr(1.0), Y: ptr(1.0)},
			wantType: apperrors.ErrorTypeNetwork,
			fetches:  1,
		},
		{
			name:     "fetch timeout",
			repo:     &fakeRepository{err: context.DeadlineExceeded},
			req:      models.TraceRequest{URL: "https://example.com/a.png", X: ptr(1.0), Y: ptr(1.0)},
			wantType: apperrors.ErrorTypeTimeout,
			fetches:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := observer.NewMetricsObserver()
			svc := newTestService(tt.repo, metrics, nil)

			_, err := svc.TraceImage(context.Background(), tt.req)
			if !apperrors.IsType(err, tt.wantType) {
				t.Errorf("Expected %s error, got %v", tt.wantType, err)
			}
			if tt.repo.fetches != tt.fetches {
				t.Errorf("Expected %d fetches, got %d", tt.fetches, tt.repo.fetches)
			}
			if m := metrics.GetMetrics(); m.FailedTraces != 1 {
				t.Errorf("Expected one failed trace, got %+v", m)
			}
		})
	}
}

func TestTraceImage_Timeout(t *testing.T) {
	// The fake ignores ctx, so the deadline passes while "fetching"
	repo := &fakeRepository{
		img:      columnImage(60, 300, 25),
		delay:    20 * time.Millisecond,
		validate: validation.NewURLValidator(),
	}
	settings := DefaultSettings()
	settings.AnalysisTimeout = time.Millisecond
	svc := NewFringeAnalysisService(repo, factory.NewScorerFactory(), nil, nil, settings)

	_, err := svc.TraceImage(context.Background(), columnRequest())
	if !apperrors.IsType(err, apperrors.ErrorTypeTimeout) {
		t.Errorf("Expected timeout error, got %v", err)
	}
}

func TestApplyOverrides(t *testing.T) {
	base := tracer.DefaultConfig()

	if got := applyOverrides(base, nil); got != base {
		t.Error("Expected nil overrides to keep the base config")
	}

	got := applyOverrides(base, &models.TraceConfigRequest{
		StepCount:      ptr(50),
		VerticalScale:  ptr(3.0),
		ReferenceIndex: ptr(4),
	})
	if got.StepCount != 50 || got.VerticalScale != 3 || got.ReferenceIndex != 4 {
		t.Errorf("Overrides not applied: %+v", got)
	}
	if got.Ambit != base.Ambit || got.StepLength != base.StepLength {
		t.Error("Expected unset fields to keep defaults")
	}
}
