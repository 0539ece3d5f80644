package tracer

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	apperrors "go-fringe-tracer/internal/errors"
	"go-fringe-tracer/pkg/pixbuf"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

// Sample is one point of a straightened profile
type Sample struct {
	X      float64 `json:"x"`
	Height float64 `json:"height"`
}

// Profile is the de-tilted mean of all seed paths
type Profile struct {
	Angle   float64 // tilt removed from the aggregate path, radians
	Path    Path
	Image   *pixbuf.Buffer
	Samples []Sample
}

// StraightenedProfile averages the paths of res positionally, rotates the
// result by minus the tilt of the first path and renders it. Every path must
// have the same length, greater than the reference index
func (t *Tracer) StraightenedProfile(res *TraceResult) (*Profile, error) {
	if res == nil || len(res.Traces) == 0 {
		return nil, apperrors.NewInsufficientPathDataError("no traced paths, run a trace first")
	}
	if t.source == nil {
		return nil, apperrors.NewNoSourceImageError()
	}

	paths := res.Paths()
	length := len(paths[0])
	for i, p := range paths {
		if len(p) != length {
			return nil, apperrors.NewInsufficientPathDataError(
				fmt.Sprintf("path %d has %d points, path 0 has %d", i, len(p), length))
		}
	}
	if length <= t.config.ReferenceIndex {
		return nil, apperrors.NewInsufficientPathDataError(
			fmt.Sprintf("paths have %d points, reference index %d needs at least %d",
				length, t.config.ReferenceIndex, t.config.ReferenceIndex+1))
	}

	aggregate := meanPath(paths)
	angle := tiltAngle(paths[0][0], paths[0][t.config.ReferenceIndex])

	rot := r2.NewRotation(-angle, r2.Vec{X: aggregate[0].X, Y: aggregate[0].Y})
	straight := make(Path, length)
	for i, p := range aggregate {
		v := rot.Rotate(r2.Vec{X: p.X, Y: p.Y})
		straight[i] = pixbuf.Pt(v.X, v.Y)
	}

	img, err := pixbuf.New(t.source.Width(), t.source.Height())
	if err != nil {
		return nil, err
	}
	if err := img.DrawPolyline(straight, t.config.HighlightColor); err != nil {
		t.log.WithError(err).Debug("Profile path clipped")
	}

	samples := make([]Sample, length)
	for i, p := range straight {
		samples[i] = Sample{X: p.X, Height: straight[0].Y - p.Y}
	}

	return &Profile{
		Angle:   angle,
		Path:    straight,
		Image:   img,
		Samples: samples,
	}, nil
}

// meanPath averages equal-length paths index by index
func meanPath(paths []Path) Path {
	length := len(paths[0])
	xs := make([]float64, len(paths))
	ys := make([]float64, len(paths))

	mean := make(Path, length)
	for i := 0; i < length; i++ {
		for j, p := range paths {
			xs[j] = p[i].X
			ys[j] = p[i].Y
		}
		mean[i] = pixbuf.Pt(stat.Mean(xs, nil), stat.Mean(ys, nil))
	}
	return mean
}

// tiltAngle is atan(dy/dx) between two points, 0 when they coincide
func tiltAngle(from, to pixbuf.Point) float64 {
	dx := to.X - from.X
	dy := to.Y - from.Y
	if dx == 0 && dy == 0 {
		return 0
	}
	return math.Atan(dy / dx)
}

// WriteText writes one "<x> <height>" line per sample
func (p *Profile) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, s := range p.Samples {
		if _, err := fmt.Fprintf(bw, "%s %s\n", formatFloat(s.X), formatFloat(s.Height)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Text returns the WriteText output as a string
func (p *Profile) Text() string {
	var sb strings.Builder
	_ = p.WriteText(&sb)
	return sb.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
