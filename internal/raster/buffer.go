package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// ErrInvalidBuffer is returned when a buffer's pixel slice does not match its dimensions.
var ErrInvalidBuffer = errors.New("invalid pixel buffer")

// Buffer is a decoded raster: Width*Height samples of non-premultiplied RGBA,
// stored row-major with no padding between rows.
type Buffer struct {
	Width  int
	Height int
	Pix    []byte
}

// New allocates a zeroed buffer of the given size.
func New(width, height int) *Buffer {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*4),
	}
}

// Len returns the number of pixels in the buffer.
func (b *Buffer) Len() int {
	return b.Width * b.Height
}

// Validate checks that the buffer is well formed.
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil buffer", ErrInvalidBuffer)
	}
	if b.Width < 0 || b.Height < 0 {
		return fmt.Errorf("%w: negative size %dx%d", ErrInvalidBuffer, b.Width, b.Height)
	}
	if len(b.Pix) != b.Width*b.Height*4 {
		return fmt.Errorf("%w: %d bytes for %dx%d", ErrInvalidBuffer, len(b.Pix), b.Width, b.Height)
	}
	return nil
}

// SameSize reports whether a and b have identical dimensions.
func SameSize(a, b *Buffer) bool {
	return a.Width == b.Width && a.Height == b.Height
}

func (b *Buffer) offset(x, y int) int {
	return (y*b.Width + x) * 4
}

// At returns the sample at (x, y). Out of range coordinates yield a zero color.
func (b *Buffer) At(x, y int) color.NRGBA {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return color.NRGBA{}
	}
	i := b.offset(x, y)
	return color.NRGBA{R: b.Pix[i], G: b.Pix[i+1], B: b.Pix[i+2], A: b.Pix[i+3]}
}

// Set writes the sample at (x, y). Out of range coordinates are ignored.
func (b *Buffer) Set(x, y int, c color.NRGBA) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	i := b.offset(x, y)
	b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3] = c.R, c.G, c.B, c.A
}

// Fill sets every sample to c.
func (b *Buffer) Fill(c color.NRGBA) {
	for i := 0; i+3 < len(b.Pix); i += 4 {
		b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3] = c.R, c.G, c.B, c.A
	}
}

// Image exposes the buffer as an *image.NRGBA sharing the same pixel memory.
func (b *Buffer) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// FromImage converts img into a Buffer. Packed NRGBA images anchored at the
// origin are wrapped without copying; anything else is redrawn.
func FromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	nrgba, ok := img.(*image.NRGBA)
	if ok && nrgba.Stride == w*4 && nrgba.Rect.Min == (image.Point{}) && len(nrgba.Pix) == w*h*4 {
		return &Buffer{Width: w, Height: h, Pix: nrgba.Pix}
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Rect, img, bounds.Min, draw.Src)
	return &Buffer{Width: w, Height: h, Pix: dst.Pix}
}
