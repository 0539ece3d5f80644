package pixbuf

import (
	"fmt"
	"math"

	apperrors "go-fringe-tracer/internal/errors"
)

// RGB holds the color channels of a window average
type RGB struct {
	R, G, B uint8
}

// window is an inclusive integer pixel rectangle
type window struct {
	x0, y0, x1, y1 int
}

func (w window) count() int {
	return (w.x1 - w.x0 + 1) * (w.y1 - w.y0 + 1)
}

// windowAt spans center ± size/2 on both axes, inclusive, and checks that
// every pixel in it exists
func (b *Buffer) windowAt(center Point, size Size) (window, error) {
	if size.Width < 0 || size.Height < 0 || math.IsNaN(size.Width) || math.IsNaN(size.Height) {
		return window{}, apperrors.NewMalformedConfigError(
			fmt.Sprintf("window size must be non-negative (got %gx%g)", size.Width, size.Height))
	}
	lo := Pt(center.X-size.Width/2, center.Y-size.Height/2)
	hi := Pt(center.X+size.Width/2, center.Y+size.Height/2)
	for _, corner := range []Point{lo, hi} {
		if !b.Contains(corner) {
			return window{}, b.outOfBounds(corner.X, corner.Y)
		}
	}
	return window{
		x0: int(lo.X),
		y0: int(lo.Y),
		x1: int(hi.X),
		y1: int(hi.Y),
	}, nil
}

// AverageColorInWindow returns the per-channel mean over the window of the
// given size centered at center. Each channel is truncated to 8 bits
func (b *Buffer) AverageColorInWindow(center Point, size Size) (RGB, error) {
	w, err := b.windowAt(center, size)
	if err != nil {
		return RGB{}, err
	}

	var sumR, sumG, sumB int
	for y := w.y0; y <= w.y1; y++ {
		row := b.pix[y*b.width : (y+1)*b.width]
		for x := w.x0; x <= w.x1; x++ {
			sumR += int(row[x].R)
			sumG += int(row[x].G)
			sumB += int(row[x].B)
		}
	}
	n := w.count()
	return RGB{R: uint8(sumR / n), G: uint8(sumG / n), B: uint8(sumB / n)}, nil
}

// AverageBrightnessInWindow returns the mean of (r+g+b)/3 over the window,
// normalized to [0,1]
func (b *Buffer) AverageBrightnessInWindow(center Point, size Size) (float64, error) {
	w, err := b.windowAt(center, size)
	if err != nil {
		return 0, err
	}

	var sum int
	for y := w.y0; y <= w.y1; y++ {
		row := b.pix[y*b.width : (y+1)*b.width]
		for x := w.x0; x <= w.x1; x++ {
			sum += int(row[x].R) + int(row[x].G) + int(row[x].B)
		}
	}
	return float64(sum) / float64(3*255*w.count()), nil
}
