package tracer

import (
	"fmt"
	"math"

	apperrors "go-fringe-tracer/internal/errors"
	"go-fringe-tracer/pkg/pixbuf"
)

// Upper bounds accepted by Validate
const (
	MaxStepCount      = 10000
	MaxDirectionCount = 360
	MaxAmbit          = 1024
	MaxSeedAmbit      = 32
)

// Config controls how fringes are traced and straightened
type Config struct {
	// Local averaging window around every candidate point
	Ambit pixbuf.Size

	// Search geometry
	StepLength     float64
	DirectionCount int
	StepCount      int
	VerticalScale  float64 // vertical step multiplier, fringes are denser along y
	StartAngle     float64 // radians
	EndAngle       float64 // radians

	// Neighborhood that multiplies one user click into several seeds
	SeedAmbit pixbuf.Size

	// Index of the point on the first path used for the tilt angle
	ReferenceIndex int

	HighlightColor pixbuf.Color
}

// DefaultConfig returns default tracing configuration
func DefaultConfig() Config {
	return Config{
		Ambit:          pixbuf.Size{Width: 20, Height: 20},
		StepLength:     5,
		DirectionCount: 25,
		StepCount:      200,
		VerticalScale:  5,
		StartAngle:     math.Pi / 2,
		EndAngle:       3 * math.Pi / 2,
		SeedAmbit:      pixbuf.Size{Width: 2, Height: 2},
		ReferenceIndex: 10,
		HighlightColor: pixbuf.Color{R: 255, A: 255},
	}
}

// WithAmbit sets the averaging window
func (c Config) WithAmbit(width, height float64) Config {
	c.Ambit = pixbuf.Size{Width: width, Height: height}
	return c
}

// WithStep sets the step length and the number of steps per path
func (c Config) WithStep(length float64, count int) Config {
	c.StepLength = length
	c.StepCount = count
	return c
}

// WithDirections sets how many directions are sampled between the two angles
func (c Config) WithDirections(count int, startAngle, endAngle float64) Config {
	c.DirectionCount = count
	c.StartAngle = startAngle
	c.EndAngle = endAngle
	return c
}

// WithSeedAmbit sets the seed neighborhood
func (c Config) WithSeedAmbit(width, height float64) Config {
	c.SeedAmbit = pixbuf.Size{Width: width, Height: height}
	return c
}

// WithVerticalScale sets the anisotropic vertical step multiplier
func (c Config) WithVerticalScale(scale float64) Config {
	c.VerticalScale = scale
	return c
}

// WithReferenceIndex sets the path index used for the tilt angle
func (c Config) WithReferenceIndex(index int) Config {
	c.ReferenceIndex = index
	return c
}

// Validate reports the first malformed parameter
func (c Config) Validate() error {
	switch {
	case !(c.Ambit.Width > 0 && c.Ambit.Height > 0):
		return apperrors.NewMalformedConfigError(
			fmt.Sprintf("ambit must be positive (got %gx%g)", c.Ambit.Width, c.Ambit.Height))
	case c.Ambit.Width > MaxAmbit || c.Ambit.Height > MaxAmbit:
		return apperrors.NewMalformedConfigError(
			fmt.Sprintf("ambit must be at most %d (got %gx%g)", MaxAmbit, c.Ambit.Width, c.Ambit.Height))
	case !finite(c.StepLength) || c.StepLength <= 0:
		return apperrors.NewMalformedConfigError(fmt.Sprintf("step length must be positive (got %g)", c.StepLength))
	case c.DirectionCount <= 0 || c.DirectionCount > MaxDirectionCount:
		return apperrors.NewMalformedConfigError(
			fmt.Sprintf("direction count must be in 1..%d (got %d)", MaxDirectionCount, c.DirectionCount))
	case c.StepCount <= 0 || c.StepCount > MaxStepCount:
		return apperrors.NewMalformedConfigError(
			fmt.Sprintf("step count must be in 1..%d (got %d)", MaxStepCount, c.StepCount))
	case !(c.SeedAmbit.Width >= 0 && c.SeedAmbit.Height >= 0):
		return apperrors.NewMalformedConfigError(
			fmt.Sprintf("seed ambit must not be negative (got %gx%g)", c.SeedAmbit.Width, c.SeedAmbit.Height))
	case c.SeedAmbit.Width > MaxSeedAmbit || c.SeedAmbit.Height > MaxSeedAmbit:
		return apperrors.NewMalformedConfigError(
			fmt.Sprintf("seed ambit must be at most %d (got %gx%g)", MaxSeedAmbit, c.SeedAmbit.Width, c.SeedAmbit.Height))
	case !finite(c.VerticalScale) || c.VerticalScale <= 0:
		return apperrors.NewMalformedConfigError(fmt.Sprintf("vertical scale must be positive (got %g)", c.VerticalScale))
	case !finite(c.StartAngle) || !finite(c.EndAngle):
		return apperrors.NewMalformedConfigError(
			fmt.Sprintf("angles must be finite (got %g..%g)", c.StartAngle, c.EndAngle))
	case c.EndAngle < c.StartAngle:
		return apperrors.NewMalformedConfigError(
			fmt.Sprintf("end angle %g precedes start angle %g", c.EndAngle, c.StartAngle))
	case c.ReferenceIndex < 1:
		return apperrors.NewMalformedConfigError(fmt.Sprintf("reference index must be at least 1 (got %d)", c.ReferenceIndex))
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// directions returns the step offset for every sampled angle, first angle first
func (c Config) directions() []pixbuf.Point {
	offsets := make([]pixbuf.Point, c.DirectionCount)
	for i := range offsets {
		angle := c.StartAngle
		if c.DirectionCount > 1 {
			k := float64(i) / float64(c.DirectionCount-1)
			angle = c.StartAngle*(1-k) + c.EndAngle*k
		}
		offsets[i] = pixbuf.Pt(
			c.StepLength*math.Cos(angle),
			c.VerticalScale*c.StepLength*math.Sin(angle),
		)
	}
	return offsets
}

// seeds enumerates every integer point of the seed ambit around p, inclusive
func (c Config) seeds(p pixbuf.Point) []pixbuf.Point {
	startX := int(math.Floor(p.X - c.SeedAmbit.Width/2))
	endX := int(math.Floor(p.X + c.SeedAmbit.Width/2))
	startY := int(math.Floor(p.Y - c.SeedAmbit.Height/2))
	endY := int(math.Floor(p.Y + c.SeedAmbit.Height/2))

	seeds := make([]pixbuf.Point, 0, (endX-startX+1)*(endY-startY+1))
	for x := startX; x <= endX; x++ {
		for y := startY; y <= endY; y++ {
			seeds = append(seeds, pixbuf.Pt(float64(x), float64(y)))
		}
	}
	return seeds
}
