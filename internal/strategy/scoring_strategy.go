package strategy

import (
	"go-fringe-tracer/pkg/colormetric"
	"go-fringe-tracer/pkg/pixbuf"
)

// ScoringStrategy rates a candidate point; the tracer moves to the lowest score
type ScoringStrategy interface {
	Score(buf *pixbuf.Buffer, at pixbuf.Point, ambit pixbuf.Size) (float64, error)
	GetStrategyName() string
}

// Strategy names
const (
	PerceptualStrategyName = "perceptual"
	BrightnessStrategyName = "brightness"
)

// PerceptualStrategy scores a point by the perceptual distance between its
// window-averaged color and pure black
type PerceptualStrategy struct {
	metric colormetric.Metric
	black  colormetric.Lab
}

// NewPerceptualStrategy creates a new perceptual difference strategy
func NewPerceptualStrategy(metric colormetric.Metric) ScoringStrategy {
	return &PerceptualStrategy{
		metric: metric,
		black:  metric.ToPerceptual(0, 0, 0),
	}
}

// Score returns the difference from black of the averaged window color
func (s *PerceptualStrategy) Score(buf *pixbuf.Buffer, at pixbuf.Point, ambit pixbuf.Size) (float64, error) {
	avg, err := buf.AverageColorInWindow(at, ambit)
	if err != nil {
		return 0, err
	}
	return s.metric.Difference(s.black, s.metric.ToPerceptual(avg.R, avg.G, avg.B)), nil
}

// GetStrategyName returns the strategy name
func (s *PerceptualStrategy) GetStrategyName() string {
	return PerceptualStrategyName + "/" + s.metric.GetMetricName()
}

// BrightnessStrategy scores a point by its average window brightness
type BrightnessStrategy struct{}

// NewBrightnessStrategy creates a new brightness strategy
func NewBrightnessStrategy() ScoringStrategy {
	return &BrightnessStrategy{}
}

// Score returns the mean brightness in [0,1]
func (s *BrightnessStrategy) Score(buf *pixbuf.Buffer, at pixbuf.Point, ambit pixbuf.Size) (float64, error) {
	return buf.AverageBrightnessInWindow(at, ambit)
}

// GetStrategyName returns the strategy name
func (s *BrightnessStrategy) GetStrategyName() string {
	return BrightnessStrategyName
}
