package validation

import (
	"fmt"

	"go-fringe-tracer/pkg/pixbuf"

	"gonum.org/v1/gonum/stat"
)

// ContrastThresholds defines when an interferogram is unlikely to trace well.
// Brightness values are normalized to [0,1]
type ContrastThresholds struct {
	MinStdDev float64 // fringes need some spread between dark and light
	MinMean   float64
	MaxMean   float64
}

// DefaultContrastThresholds returns the default contrast thresholds
func DefaultContrastThresholds() ContrastThresholds {
	return ContrastThresholds{
		MinStdDev: 0.05,
		MinMean:   0.05,
		MaxMean:   0.95,
	}
}

// ContrastValidator checks an interferogram before tracing
type ContrastValidator struct {
	thresholds ContrastThresholds
}

// NewContrastValidator creates a contrast validator with default thresholds
func NewContrastValidator() *ContrastValidator {
	return &ContrastValidator{thresholds: DefaultContrastThresholds()}
}

// NewContrastValidatorWithThresholds creates a contrast validator with custom thresholds
func NewContrastValidatorWithThresholds(thresholds ContrastThresholds) *ContrastValidator {
	return &ContrastValidator{thresholds: thresholds}
}

// QualityIssue represents a quality validation issue
type QualityIssue struct {
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	Severity    string  `json:"severity"` // "error", "warning", "info"
	ActualValue float64 `json:"actual_value,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
}

// ContrastMetrics summarizes the brightness distribution of an image
type ContrastMetrics struct {
	Width  int
	Height int
	Mean   float64
	StdDev float64
}

// Measure computes brightness statistics over every pixel of buf
func (cv *ContrastValidator) Measure(buf *pixbuf.Buffer) ContrastMetrics {
	img := buf.ToImage()
	values := make([]float64, 0, buf.Width()*buf.Height())
	for i := 0; i+3 < len(img.Pix); i += 4 {
		sum := int(img.Pix[i]) + int(img.Pix[i+1]) + int(img.Pix[i+2])
		values = append(values, float64(sum)/765)
	}

	mean, std := stat.MeanStdDev(values, nil)
	if len(values) < 2 {
		std = 0
	}
	return ContrastMetrics{
		Width:  buf.Width(),
		Height: buf.Height(),
		Mean:   mean,
		StdDev: std,
	}
}

// Validate reports issues that make tracing on buf with the given averaging
// window unreliable. Issues are advisory; tracing still runs
func (cv *ContrastValidator) Validate(buf *pixbuf.Buffer, ambit pixbuf.Size) []QualityIssue {
	var issues []QualityIssue
	m := cv.Measure(buf)

	if float64(m.Width) <= ambit.Width || float64(m.Height) <= ambit.Height {
		issues = append(issues, QualityIssue{
			Type: "window_exceeds_image",
			Message: fmt.Sprintf("Image is %dx%d, the %gx%g averaging window cannot fit anywhere.",
				m.Width, m.Height, ambit.Width, ambit.Height),
			Severity: "warning",
		})
	}

	if m.StdDev < cv.thresholds.MinStdDev {
		issues = append(issues, QualityIssue{
			Type:        "low_contrast",
			Message:     "Fringes are barely distinguishable from the background.",
			Severity:    "warning",
			ActualValue: m.StdDev,
			Threshold:   cv.thresholds.MinStdDev,
		})
	}

	if m.Mean < cv.thresholds.MinMean {
		issues = append(issues, QualityIssue{
			Type:        "too_dark",
			Message:     "Image is almost black, every direction scores alike.",
			Severity:    "warning",
			ActualValue: m.Mean,
			Threshold:   cv.thresholds.MinMean,
		})
	} else if m.Mean > cv.thresholds.MaxMean {
		issues = append(issues, QualityIssue{
			Type:        "too_bright",
			Message:     "Image is almost white, no dark fringes to follow.",
			Severity:    "warning",
			ActualValue: m.Mean,
			Threshold:   cv.thresholds.MaxMean,
		})
	}

	return issues
}
