// Package pixbuf provides a bounds-checked, row-major pixel buffer with
// per-pixel access, local window statistics and line rasterization
package pixbuf

import (
	"fmt"
	"image"
	"image/color"

	apperrors "go-fringe-tracer/internal/errors"

	"golang.org/x/image/draw"
)

// Color is a non-premultiplied 8-bit RGBA color
type Color = color.NRGBA

// Point is a real-valued image coordinate. Pixel access truncates it
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is a convenience function to create a Point
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Size is the extent of a rectangular window in pixels
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Buffer owns a width×height grid of colors, origin top-left
type Buffer struct {
	width  int
	height int
	pix    []Color
}

// New creates a zero-filled buffer
func New(width, height int) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, apperrors.NewMalformedConfigError(
			fmt.Sprintf("buffer dimensions must be positive (got %dx%d)", width, height))
	}
	return &Buffer{
		width:  width,
		height: height,
		pix:    make([]Color, width*height),
	}, nil
}

// FromImage copies decoded pixels into a new buffer sized to the image
func FromImage(img image.Image) (*Buffer, error) {
	if img == nil {
		return nil, apperrors.NewNoSourceImageError()
	}
	bounds := img.Bounds()
	buf, err := New(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}

	nrgba := image.NewNRGBA(image.Rect(0, 0, buf.width, buf.height))
	draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)

	for i := range buf.pix {
		o := i * 4
		buf.pix[i] = Color{R: nrgba.Pix[o], G: nrgba.Pix[o+1], B: nrgba.Pix[o+2], A: nrgba.Pix[o+3]}
	}
	return buf, nil
}

// ToImage encodes the grid into a new image. The buffer is not modified
func (b *Buffer) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.width, b.height))
	for i, c := range b.pix {
		o := i * 4
		img.Pix[o] = c.R
		img.Pix[o+1] = c.G
		img.Pix[o+2] = c.B
		img.Pix[o+3] = c.A
	}
	return img
}

// Width returns the width of the buffer
func (b *Buffer) Width() int {
	return b.width
}

// Height returns the height of the buffer
func (b *Buffer) Height() int {
	return b.height
}

// Clone returns an independent copy of the buffer
func (b *Buffer) Clone() *Buffer {
	pix := make([]Color, len(b.pix))
	copy(pix, b.pix)
	return &Buffer{width: b.width, height: b.height, pix: pix}
}

// Fill sets every pixel to c
func (b *Buffer) Fill(c Color) {
	for i := range b.pix {
		b.pix[i] = c
	}
}

// Contains reports whether p lies in [0,W)×[0,H)
func (b *Buffer) Contains(p Point) bool {
	return p.X >= 0 && p.X < float64(b.width) && p.Y >= 0 && p.Y < float64(b.height)
}

// ColorAt returns the color of the pixel containing p
func (b *Buffer) ColorAt(p Point) (Color, error) {
	i, err := b.offset(p)
	if err != nil {
		return Color{}, err
	}
	return b.pix[i], nil
}

// SetColorAt writes c to the pixel containing p
func (b *Buffer) SetColorAt(p Point, c Color) error {
	i, err := b.offset(p)
	if err != nil {
		return err
	}
	b.pix[i] = c
	return nil
}

// offset maps a point to its index in pix
func (b *Buffer) offset(p Point) (int, error) {
	if !b.Contains(p) {
		return 0, b.outOfBounds(p.X, p.Y)
	}
	return int(p.Y)*b.width + int(p.X), nil
}

