package tracer

import (
	"context"
	"errors"
	"math"
	"testing"

	apperrors "go-fringe-tracer/internal/errors"
	"go-fringe-tracer/internal/strategy"
	"go-fringe-tracer/pkg/pixbuf"
)

var (
	black  = pixbuf.Color{A: 255}
	bright = pixbuf.Color{R: 220, G: 220, B: 220, A: 255}
	red    = pixbuf.Color{R: 255, A: 255}
)

func solidBuffer(t *testing.T, width, height int, c pixbuf.Color) *pixbuf.Buffer {
	t.Helper()
	buf, err := pixbuf.New(width, height)
	if err != nil {
		t.Fatalf("Failed to create buffer: %v", err)
	}
	buf.Fill(c)
	return buf
}

// darkColumnBuffer is a bright image crossed by one black column at x
func darkColumnBuffer(t *testing.T, width, height, x int) *pixbuf.Buffer {
	t.Helper()
	buf := solidBuffer(t, width, height, bright)
	for y := 0; y < height; y++ {
		if err := buf.SetColorAt(pixbuf.Pt(float64(x), float64(y)), black); err != nil {
			t.Fatalf("Failed to paint column: %v", err)
		}
	}
	return buf
}

func columnConfig() Config {
	return DefaultConfig().
		WithAmbit(2, 2).
		WithStep(2, 20).
		WithSeedAmbit(0, 0)
}

type stubScorer struct {
	score func(at pixbuf.Point) (float64, error)
}

func (s *stubScorer) Score(_ *pixbuf.Buffer, at pixbuf.Point, _ pixbuf.Size) (float64, error) {
	return s.score(at)
}

func (s *stubScorer) GetStrategyName() string { return "stub" }

var _ strategy.ScoringStrategy = (*stubScorer)(nil)

func TestNew_MalformedConfig(t *testing.T) {
	_, err := New(solidBuffer(t, 10, 10, black), DefaultConfig().WithStep(5, 0))
	if !apperrors.IsType(err, apperrors.ErrorTypeMalformedConfig) {
		t.Errorf("Expected malformed_config error, got %v", err)
	}
}

func TestTrace_NoSourceImage(t *testing.T) {
	tr, err := New(nil, DefaultConfig())
	if err != nil {
		t.Fatalf("Expected nil source to be accepted, got %v", err)
	}

	_, err = tr.Trace(context.Background(), pixbuf.Pt(1, 1))
	if !apperrors.IsType(err, apperrors.ErrorTypeNoSourceImage) {
		t.Errorf("Expected no_source_image error, got %v", err)
	}
}

func TestTrace_DefaultWindowLeavesSmallImage(t *testing.T) {
	// Every first candidate sits at least 15 pixels from the seed, so the
	// 20x20 window falls off a 50x50 image on the very first step
	tr, err := New(solidBuffer(t, 50, 50, black), DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create tracer: %v", err)
	}

	res, err := tr.Trace(context.Background(), pixbuf.Pt(25, 25))
	if err != nil {
		t.Fatalf("Expected trace to succeed with aborted seeds, got %v", err)
	}

	if len(res.Traces) != 9 {
		t.Fatalf("Expected 9 seeds, got %d", len(res.Traces))
	}
	if res.AbortedCount() != 9 {
		t.Errorf("Expected every seed to abort, got %d", res.AbortedCount())
	}
	for i, st := range res.Traces {
		if len(st.Path) != 1 {
			t.Errorf("Seed %d: expected path of length 1, got %d", i, len(st.Path))
		}
		if st.Path[0] != st.Seed {
			t.Errorf("Seed %d: path does not start at seed", i)
		}
		if !apperrors.IsType(st.Err, apperrors.ErrorTypeOutOfBounds) {
			t.Errorf("Seed %d: expected out_of_bounds, got %v", i, st.Err)
		}
	}

	_, err = tr.StraightenedProfile(res)
	if !apperrors.IsType(err, apperrors.ErrorTypeInsufficientPathData) {
		t.Errorf("Expected insufficient_path_data, got %v", err)
	}
}

func TestTrace_TiesPickFirstDirection(t *testing.T) {
	cfg := DefaultConfig().
		WithAmbit(2, 2).
		WithStep(1, 3).
		WithSeedAmbit(0, 0)
	tr, err := New(solidBuffer(t, 50, 50, black), cfg)
	if err != nil {
		t.Fatalf("Failed to create tracer: %v", err)
	}

	res, err := tr.Trace(context.Background(), pixbuf.Pt(25, 25))
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}

	path := res.Traces[0].Path
	if len(path) != 4 {
		t.Fatalf("Expected 4 points, got %d", len(path))
	}
	// Uniform image: every candidate scores the same, 90 degrees wins
	for i, p := range path {
		wantY := 25 + 5*float64(i)
		if math.Abs(p.X-25) > 1e-9 || math.Abs(p.Y-wantY) > 1e-9 {
			t.Errorf("Point %d: expected (25,%g), got %v", i, wantY, p)
		}
	}
}

func TestTrace_OverlayLeavesSourceUntouched(t *testing.T) {
	src := solidBuffer(t, 50, 50, black)
	cfg := DefaultConfig().WithAmbit(2, 2).WithStep(1, 3).WithSeedAmbit(0, 0)
	tr, err := New(src, cfg)
	if err != nil {
		t.Fatalf("Failed to create tracer: %v", err)
	}

	res, err := tr.Trace(context.Background(), pixbuf.Pt(25, 25))
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}

	for y := 25; y <= 40; y++ {
		got, _ := res.Overlay.ColorAt(pixbuf.Pt(25, float64(y)))
		if got != red {
			t.Errorf("Expected overlay (25,%d) highlighted, got %v", y, got)
		}
		orig, _ := src.ColorAt(pixbuf.Pt(25, float64(y)))
		if orig != black {
			t.Errorf("Expected source (25,%d) untouched, got %v", y, orig)
		}
	}
}

func TestTrace_FollowsDarkFringe(t *testing.T) {
	tr, err := New(darkColumnBuffer(t, 60, 300, 25), columnConfig())
	if err != nil {
		t.Fatalf("Failed to create tracer: %v", err)
	}

	res, err := tr.Trace(context.Background(), pixbuf.Pt(27, 25))
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}

	st := res.Traces[0]
	if st.Aborted() {
		t.Fatalf("Expected complete trace, got %v", st.Err)
	}
	if len(st.Path) != 21 {
		t.Fatalf("Expected 21 points, got %d", len(st.Path))
	}
	for i, p := range st.Path {
		if math.Abs(p.X-25) > 2 {
			t.Errorf("Point %d strayed from the fringe: %v", i, p)
		}
		if i > 0 && p.Y <= st.Path[i-1].Y {
			t.Errorf("Point %d did not advance along the fringe: %v", i, p)
		}
	}
}

func TestTrace_PoolMatchesSequential(t *testing.T) {
	src := darkColumnBuffer(t, 60, 300, 25)
	cfg := columnConfig().WithSeedAmbit(2, 2)

	sequential, err := New(src, cfg)
	if err != nil {
		t.Fatalf("Failed to create tracer: %v", err)
	}

	pool := NewWorkerPool(3)
	pool.Start()
	defer pool.Close()
	pooled, err := New(src, cfg, WithWorkerPool(pool))
	if err != nil {
		t.Fatalf("Failed to create tracer: %v", err)
	}

	want, err := sequential.Trace(context.Background(), pixbuf.Pt(27, 25))
	if err != nil {
		t.Fatalf("Sequential trace failed: %v", err)
	}
	got, err := pooled.Trace(context.Background(), pixbuf.Pt(27, 25))
	if err != nil {
		t.Fatalf("Pooled trace failed: %v", err)
	}

	if len(got.Traces) != len(want.Traces) {
		t.Fatalf("Expected %d traces, got %d", len(want.Traces), len(got.Traces))
	}
	for i := range want.Traces {
		if got.Traces[i].Seed != want.Traces[i].Seed {
			t.Errorf("Trace %d: seed order differs", i)
		}
		if len(got.Traces[i].Path) != len(want.Traces[i].Path) {
			t.Errorf("Trace %d: path lengths differ", i)
			continue
		}
		for j := range want.Traces[i].Path {
			if got.Traces[i].Path[j] != want.Traces[i].Path[j] {
				t.Errorf("Trace %d point %d: %v != %v", i, j, got.Traces[i].Path[j], want.Traces[i].Path[j])
				break
			}
		}
	}
}

func TestTrace_SeedOutsideImage(t *testing.T) {
	tr, err := New(solidBuffer(t, 10, 10, black), DefaultConfig().WithSeedAmbit(0, 0))
	if err != nil {
		t.Fatalf("Failed to create tracer: %v", err)
	}

	res, err := tr.Trace(context.Background(), pixbuf.Pt(-3, 4))
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}
	st := res.Traces[0]
	if len(st.Path) != 1 || !apperrors.IsType(st.Err, apperrors.ErrorTypeOutOfBounds) {
		t.Errorf("Expected out_of_bounds abort with the seed only, got %d points, %v", len(st.Path), st.Err)
	}
}

func TestTrace_ScorerErrorAbortsSeed(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	scorer := &stubScorer{score: func(at pixbuf.Point) (float64, error) {
		calls++
		if calls > 25 {
			return 0, boom
		}
		return 1, nil
	}}

	cfg := DefaultConfig().WithAmbit(2, 2).WithStep(1, 5).WithSeedAmbit(0, 0)
	tr, err := New(solidBuffer(t, 50, 50, black), cfg, WithScorer(scorer))
	if err != nil {
		t.Fatalf("Failed to create tracer: %v", err)
	}

	res, err := tr.Trace(context.Background(), pixbuf.Pt(25, 25))
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}
	st := res.Traces[0]
	if !errors.Is(st.Err, boom) {
		t.Errorf("Expected scorer error, got %v", st.Err)
	}
	// Step 1 completes on the first 25 scores, step 2 fails
	if len(st.Path) != 2 {
		t.Errorf("Expected 2 points, got %d", len(st.Path))
	}
}

func TestTrace_LowestScoreWins(t *testing.T) {
	// Prefer the candidate furthest left
	scorer := &stubScorer{score: func(at pixbuf.Point) (float64, error) {
		return at.X, nil
	}}

	cfg := DefaultConfig().WithAmbit(2, 2).WithStep(1, 1).WithSeedAmbit(0, 0)
	tr, err := New(solidBuffer(t, 50, 50, black), cfg, WithScorer(scorer))
	if err != nil {
		t.Fatalf("Failed to create tracer: %v", err)
	}

	res, err := tr.Trace(context.Background(), pixbuf.Pt(25, 25))
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}
	got := res.Traces[0].Path[1]
	if math.Abs(got.X-24) > 1e-9 || math.Abs(got.Y-25) > 1e-9 {
		t.Errorf("Expected step to (24,25), got %v", got)
	}
}

func TestTrace_Cancelled(t *testing.T) {
	tr, err := New(darkColumnBuffer(t, 60, 300, 25), columnConfig())
	if err != nil {
		t.Fatalf("Failed to create tracer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = tr.Trace(ctx, pixbuf.Pt(27, 25))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestNew_RejectsOversizedConfigWithPool(t *testing.T) {
	src := solidBuffer(t, 50, 50, black)
	pool := NewWorkerPool(2)
	pool.Start()
	defer pool.Close()

	tests := []struct {
		name string
		cfg  Config
	}{
		{"step count", DefaultConfig().WithStep(1, math.MaxInt)},
		{"seed ambit", DefaultConfig().WithSeedAmbit(1e10, 1e10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := New(src, tt.cfg, WithWorkerPool(pool))
			if !apperrors.IsType(err, apperrors.ErrorTypeMalformedConfig) {
				t.Fatalf("Expected malformed_config error, got %v", err)
			}
			if tr != nil {
				t.Error("Expected no tracer for a rejected config")
			}
		})
	}
}

func TestTrace_NonFiniteSeed(t *testing.T) {
	tr, err := New(solidBuffer(t, 50, 50, black), columnConfig())
	if err != nil {
		t.Fatalf("Failed to create tracer: %v", err)
	}

	for _, p := range []pixbuf.Point{pixbuf.Pt(math.Inf(1), 10), pixbuf.Pt(10, math.NaN())} {
		if _, err := tr.Trace(context.Background(), p); !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
			t.Errorf("Expected validation error for %v, got %v", p, err)
		}
	}
}

func TestTrace_PooledPanicAbortsOnlyThatSeed(t *testing.T) {
	src := solidBuffer(t, 50, 50, black)
	pool := NewWorkerPool(2)
	pool.Start()
	defer pool.Close()

	scorer := &stubScorer{score: func(at pixbuf.Point) (float64, error) {
		if at.X == 25 {
			panic("scorer blew up")
		}
		return 0, nil
	}}
	cfg := columnConfig().
		WithStep(1, 3).
		WithDirections(1, 0, 0).
		WithSeedAmbit(2, 0)
	tr, err := New(src, cfg, WithScorer(scorer), WithWorkerPool(pool))
	if err != nil {
		t.Fatalf("Failed to create tracer: %v", err)
	}

	// Seeds at x=24,25,26 step rightwards; only the first one scores x=25
	res, err := tr.Trace(context.Background(), pixbuf.Pt(25, 25))
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}
	if len(res.Traces) != 3 {
		t.Fatalf("Expected 3 seeds, got %d", len(res.Traces))
	}
	if !apperrors.IsType(res.Traces[0].Err, apperrors.ErrorTypeInternal) {
		t.Errorf("Expected internal error for panicking seed, got %v", res.Traces[0].Err)
	}
	for _, st := range res.Traces[1:] {
		if st.Aborted() || len(st.Path) != 4 {
			t.Errorf("Expected full path for seed %v, got %d points (err %v)", st.Seed, len(st.Path), st.Err)
		}
	}
}
