// Package tracer follows dark interference fringes from a seed point and
// turns the traced geometry into a straightened height profile
package tracer

import (
	"context"
	"fmt"
	"sync"

	apperrors "go-fringe-tracer/internal/errors"
	"go-fringe-tracer/internal/logger"
	"go-fringe-tracer/internal/strategy"
	"go-fringe-tracer/pkg/colormetric"
	"go-fringe-tracer/pkg/pixbuf"

	"github.com/sirupsen/logrus"
)

// Path is the sequence of points visited from one seed. Index 0 is the seed,
// index i the position after i steps
type Path []pixbuf.Point

// SeedTrace is the outcome of tracing a single seed
type SeedTrace struct {
	Seed pixbuf.Point
	Path Path
	Err  error // set when the trace stopped before StepCount steps
}

// Aborted reports whether the trace stopped early
func (s SeedTrace) Aborted() bool {
	return s.Err != nil
}

// TraceResult holds the overlay and every seed's path, in seed order
type TraceResult struct {
	Overlay *pixbuf.Buffer
	Traces  []SeedTrace
}

// Paths returns the path of every seed in seed order
func (r *TraceResult) Paths() []Path {
	paths := make([]Path, len(r.Traces))
	for i, t := range r.Traces {
		paths[i] = t.Path
	}
	return paths
}

// AbortedCount returns how many seeds stopped early
func (r *TraceResult) AbortedCount() int {
	n := 0
	for _, t := range r.Traces {
		if t.Aborted() {
			n++
		}
	}
	return n
}

// Tracer traces fringes on one read-only source buffer
type Tracer struct {
	source     *pixbuf.Buffer
	config     Config
	scorer     strategy.ScoringStrategy
	pool       *WorkerPool
	log        *logrus.Entry
	directions []pixbuf.Point
}

// Option customizes a Tracer
type Option func(*Tracer)

// WithScorer replaces the default perceptual scoring strategy
func WithScorer(s strategy.ScoringStrategy) Option {
	return func(t *Tracer) {
		if s != nil {
			t.scorer = s
		}
	}
}

// WithWorkerPool runs seeds on a started pool instead of sequentially
func WithWorkerPool(p *WorkerPool) Option {
	return func(t *Tracer) {
		t.pool = p
	}
}

// WithLogger sets the log entry used for seed and step logging
func WithLogger(entry *logrus.Entry) Option {
	return func(t *Tracer) {
		if entry != nil {
			t.log = entry
		}
	}
}

// New creates a tracer for source. A nil source is accepted; Trace then
// fails with NoSourceImage
func New(source *pixbuf.Buffer, cfg Config, opts ...Option) (*Tracer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := &Tracer{
		source:     source,
		config:     cfg,
		scorer:     strategy.NewPerceptualStrategy(colormetric.NewCIEDE2000Squared()),
		log:        logger.WithField("component", "tracer"),
		directions: cfg.directions(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Config returns the tracing configuration
func (t *Tracer) Config() Config {
	return t.config
}

// Trace expands p into seeds, traces each of them and draws every path on a
// copy of the source. A seed that fails only shortens its own path. The
// whole call fails when there is no source or ctx is done
func (t *Tracer) Trace(ctx context.Context, p pixbuf.Point) (*TraceResult, error) {
	if t.source == nil {
		return nil, apperrors.NewNoSourceImageError()
	}
	if !finite(p.X) || !finite(p.Y) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("seed point must be finite (got %g,%g)", p.X, p.Y), nil)
	}

	seeds := t.config.seeds(p)
	traces := make([]SeedTrace, len(seeds))

	if t.pool != nil {
		var wg sync.WaitGroup
		for i, seed := range seeds {
			i, seed := i, seed
			wg.Add(1)
			submitted := t.pool.Submit(func() {
				defer wg.Done()
				traces[i] = t.safeTraceSeed(ctx, seed)
			})
			if !submitted {
				wg.Done()
				traces[i] = t.traceSeed(ctx, seed)
			}
		}
		wg.Wait()
	} else {
		for i, seed := range seeds {
			traces[i] = t.traceSeed(ctx, seed)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("trace cancelled: %w", err)
	}

	overlay := t.source.Clone()
	for _, tr := range traces {
		if err := overlay.DrawPolyline(tr.Path, t.config.HighlightColor); err != nil {
			t.log.WithError(err).Debug("Overlay path clipped")
		}
	}

	result := &TraceResult{Overlay: overlay, Traces: traces}
	t.log.WithFields(logrus.Fields{
		"x":       p.X,
		"y":       p.Y,
		"seeds":   len(seeds),
		"aborted": result.AbortedCount(),
		"scorer":  t.scorer.GetStrategyName(),
	}).Info("Fringe trace completed")

	return result, nil
}

// traceSeed walks StepCount steps from seed
func (t *Tracer) traceSeed(ctx context.Context, seed pixbuf.Point) SeedTrace {
	trace := SeedTrace{Seed: seed, Path: make(Path, 1, t.config.StepCount+1)}
	trace.Path[0] = seed

	if !t.source.Contains(seed) {
		trace.Err = apperrors.NewOutOfBoundsError(int(seed.X), int(seed.Y), t.source.Width(), t.source.Height())
		t.logAbort(trace, 0)
		return trace
	}

	current := seed
	for step := 1; step <= t.config.StepCount; step++ {
		if err := ctx.Err(); err != nil {
			trace.Err = err
			t.logAbort(trace, step)
			return trace
		}

		next, err := t.nextPoint(current)
		if err != nil {
			trace.Err = fmt.Errorf("step %d: %w", step, err)
			t.logAbort(trace, step)
			return trace
		}

		t.log.WithFields(logrus.Fields{
			"step": step,
			"x":    next.X,
			"y":    next.Y,
		}).Debug("Fringe step")

		trace.Path = append(trace.Path, next)
		current = next
	}
	return trace
}

// safeTraceSeed keeps a panicking seed from taking down the pool worker
func (t *Tracer) safeTraceSeed(ctx context.Context, seed pixbuf.Point) (trace SeedTrace) {
	defer func() {
		if r := recover(); r != nil {
			trace = SeedTrace{
				Seed: seed,
				Path: Path{seed},
				Err:  apperrors.NewInternalError(fmt.Sprintf("seed trace panicked: %v", r), nil),
			}
			t.logAbort(trace, 0)
		}
	}()
	return t.traceSeed(ctx, seed)
}

// nextPoint returns the candidate with the strictly lowest score; the first
// sampled direction wins ties. Any unscorable candidate aborts the step
func (t *Tracer) nextPoint(p pixbuf.Point) (pixbuf.Point, error) {
	var best pixbuf.Point
	bestScore := 0.0

	for i, d := range t.directions {
		candidate := pixbuf.Pt(p.X+d.X, p.Y+d.Y)
		score, err := t.scorer.Score(t.source, candidate, t.config.Ambit)
		if err != nil {
			return pixbuf.Point{}, err
		}
		if i == 0 || score < bestScore {
			best = candidate
			bestScore = score
		}
	}
	return best, nil
}

func (t *Tracer) logAbort(trace SeedTrace, step int) {
	t.log.WithError(trace.Err).WithFields(logrus.Fields{
		"seed_x": trace.Seed.X,
		"seed_y": trace.Seed.Y,
		"step":   step,
		"length": len(trace.Path),
	}).Warn("Seed trace aborted")
}
