// Package colormetric converts 8-bit RGB colors into CIE L*a*b* and measures
// perceptual distances between them
package colormetric

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Lab is a point in CIE L*a*b* space (D65 white point)
type Lab struct {
	L, A, B float64
}

// Metric converts RGB to a perceptual space and measures differences there
type Metric interface {
	ToPerceptual(r, g, b uint8) Lab
	Difference(a, b Lab) float64
	GetMetricName() string
}

// Metric names accepted by ByName
const (
	CIEDE2000Squared = "ciede2000"
	CIE94            = "cie94"
	CIE76            = "cie76"
)

type distanceFunc func(c1, c2 colorful.Color) float64

type labMetric struct {
	name     string
	distance distanceFunc
}

// NewCIEDE2000Squared returns the squared CIEDE2000 difference
func NewCIEDE2000Squared() Metric {
	return &labMetric{
		name: CIEDE2000Squared,
		distance: func(c1, c2 colorful.Color) float64 {
			d := c1.DistanceCIEDE2000(c2)
			return d * d
		},
	}
}

// NewCIE94 returns the CIE94 difference
func NewCIE94() Metric {
	return &labMetric{
		name: CIE94,
		distance: func(c1, c2 colorful.Color) float64 {
			return c1.DistanceCIE94(c2)
		},
	}
}

// NewCIE76 returns the plain euclidean distance in Lab
func NewCIE76() Metric {
	return &labMetric{
		name: CIE76,
		distance: func(c1, c2 colorful.Color) float64 {
			return c1.DistanceCIE76(c2)
		},
	}
}

// ByName returns the metric registered under name
func ByName(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", CIEDE2000Squared:
		return NewCIEDE2000Squared(), nil
	case CIE94:
		return NewCIE94(), nil
	case CIE76:
		return NewCIE76(), nil
	default:
		return nil, fmt.Errorf("unsupported color metric: %s", name)
	}
}

// ToPerceptual converts an sRGB triple to Lab
func (m *labMetric) ToPerceptual(r, g, b uint8) Lab {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	l, a, bb := c.Lab()
	return Lab{L: l, A: a, B: bb}
}

// Difference measures the distance between two Lab points
func (m *labMetric) Difference(a, b Lab) float64 {
	return m.distance(colorful.Lab(a.L, a.A, a.B), colorful.Lab(b.L, b.A, b.B))
}

// GetMetricName returns the metric name
func (m *labMetric) GetMetricName() string {
	return m.name
}
