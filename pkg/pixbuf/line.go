package pixbuf

import (
	"math"

	apperrors "go-fringe-tracer/internal/errors"
)

// DrawLine sets c on every pixel of the segment from..to
//
// Segments whose endpoints share an integer column are drawn as a vertical
// run. Otherwise exactly one pixel per column is set from the leftmost to the
// rightmost column, so steep segments show vertical gaps
//
// Only the part of the segment inside the buffer is walked. The first pixel
// outside it is reported as an OutOfBounds error once the rest has been drawn
func (b *Buffer) DrawLine(from, to Point, c Color) error {
	if !finite(from) || !finite(to) {
		return b.outOfBounds(from.X, from.Y)
	}

	start, end := from, to
	if from.X > to.X {
		start, end = to, from
	}
	startX := math.Floor(start.X)
	endX := math.Floor(end.X)
	width, height := float64(b.width), float64(b.height)

	if startX == endX {
		startY := math.Floor(math.Min(start.Y, end.Y))
		endY := math.Floor(math.Max(start.Y, end.Y))
		switch {
		case startX < 0 || startX >= width || startY < 0:
			return b.drawColumn(startX, startY, endY, c, b.outOfBounds(startX, startY))
		case endY >= height:
			return b.drawColumn(startX, startY, endY, c, b.outOfBounds(startX, height))
		}
		return b.drawColumn(startX, startY, endY, c, nil)
	}

	span := endX - startX
	rowAt := func(x float64) float64 {
		k := (x - startX) / span
		return math.Round((1-k)*start.Y + k*end.Y)
	}

	var firstErr error
	if startX < 0 {
		firstErr = b.outOfBounds(startX, rowAt(startX))
	}

	lo := int(math.Max(math.Min(startX, width), 0))
	hi := int(math.Min(math.Max(endX, -1), width-1))
	for x := lo; x <= hi; x++ {
		y := rowAt(float64(x))
		if y < 0 || y >= height {
			if firstErr == nil {
				firstErr = b.outOfBounds(float64(x), y)
			}
			continue
		}
		b.pix[int(y)*b.width+x] = c
	}

	if endX >= width && firstErr == nil {
		x := math.Max(startX, width)
		firstErr = b.outOfBounds(x, rowAt(x))
	}
	return firstErr
}

// drawColumn fills the in-bounds rows of column x between y0 and y1
func (b *Buffer) drawColumn(x, y0, y1 float64, c Color, err error) error {
	if x < 0 || x >= float64(b.width) {
		return err
	}
	lo := int(math.Max(math.Min(y0, float64(b.height)), 0))
	hi := int(math.Min(math.Max(y1, -1), float64(b.height-1)))
	for y := lo; y <= hi; y++ {
		b.pix[y*b.width+int(x)] = c
	}
	return err
}

// DrawPolyline draws a line between each consecutive pair of points.
// Like DrawLine it keeps drawing past clipped pixels and returns the first
// error encountered
func (b *Buffer) DrawPolyline(points []Point, c Color) error {
	var firstErr error
	for i := 1; i < len(points); i++ {
		if err := b.DrawLine(points[i-1], points[i], c); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func finite(p Point) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// outOfBounds builds the error for pixel (x, y), saturating coordinates
// that do not fit an int32
func (b *Buffer) outOfBounds(x, y float64) error {
	return apperrors.NewOutOfBoundsError(pixelIndex(x), pixelIndex(y), b.width, b.height)
}

func pixelIndex(v float64) int {
	switch {
	case math.IsNaN(v):
		return -1
	case v <= math.MinInt32:
		return math.MinInt32
	case v >= math.MaxInt32:
		return math.MaxInt32
	}
	return int(math.Floor(v))
}
