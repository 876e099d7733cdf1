package pixel

import (
	"encoding/binary"
	"image"
	"image/color"
	"image/draw"
)

// Image is a drawable image that can be cleared and filled.
type Image interface {
	draw.Image

	// Clear the image.
	Clear()

	// Fill the image with a single color.
	Fill(color.Color)
}

// Buffer holds the pixel values and is a container that is used by all image formats in this package.
type Buffer struct {
	// Rect is the image bounding box.
	Rect image.Rectangle

	// Pix are the image pixels.
	Pix []byte

	// Stride is the Pix stride (in bytes) between vertically adjacent pixels.
	Stride int
}

// MakeBuffer allocates a w×h buffer with tightly packed rows.
func MakeBuffer(w, h, bytesPerPixel int) Buffer {
	stride := w * bytesPerPixel
	return Buffer{
		Rect:   image.Rect(0, 0, w, h),
		Pix:    make([]byte, stride*h),
		Stride: stride,
	}
}

func (p *Buffer) Bounds() image.Rectangle {
	return p.Rect
}

func (p *Buffer) Clear() {
	for i := range p.Pix {
		p.Pix[i] = 0x00
	}
}

// CopyFrom copies the rows of src into p, clipped to the smaller of both.
func (p *Buffer) CopyFrom(src *Buffer) {
	var (
		rows = min(p.Rect.Dy(), src.Rect.Dy())
		n    = min(p.Stride, src.Stride)
	)
	for y := 0; y < rows; y++ {
		var (
			d = y * p.Stride
			s = y * src.Stride
		)
		if d >= len(p.Pix) || s >= len(src.Pix) {
			return
		}
		copy(p.Pix[d:min(d+n, len(p.Pix))], src.Pix[s:min(s+n, len(src.Pix))])
	}
}

// CopyRect copies the pixels inside r from src into p. Both buffers must hold
// pixels of bytesPerPixel bytes.
func (p *Buffer) CopyRect(src *Buffer, r image.Rectangle, bytesPerPixel int) {
	r = r.Intersect(p.Rect).Intersect(src.Rect)
	n := r.Dx() * bytesPerPixel
	for y := r.Min.Y; y < r.Max.Y; y++ {
		var (
			d = p.offset(r.Min.X, y, bytesPerPixel)
			s = src.offset(r.Min.X, y, bytesPerPixel)
		)
		copy(p.Pix[d:d+n], src.Pix[s:s+n])
	}
}

// offset of the pixel at (x, y) for the given pixel size.
func (p *Buffer) offset(x, y, bytesPerPixel int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*bytesPerPixel
}

func (p *Buffer) fill(value []byte) {
	for y := 0; y < p.Rect.Dy(); y++ {
		row := p.Pix[y*p.Stride:]
		for i, l := 0, p.Rect.Dx()*len(value); i < l; i += len(value) {
			copy(row[i:], value)
		}
	}
}

// RGB565Image is a 16-bits per pixel 5-6-5-bit RGB image.
type RGB565Image struct {
	Buffer
	Order binary.ByteOrder
}

func (p *RGB565Image) ColorModel() color.Model {
	return RGB565Model
}

func (p *RGB565Image) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return color.Transparent
	}

	v := p.Order.Uint16(p.Pix[p.offset(x, y, 2):])
	return RGB565{v}
}

func (p *RGB565Image) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}

	v := rgb565Model(c).(RGB565).V
	p.Order.PutUint16(p.Pix[p.offset(x, y, 2):], v)
}

func (p *RGB565Image) Fill(c color.Color) {
	value := make([]byte, 2)
	p.Order.PutUint16(value, rgb565Model(c).(RGB565).V)
	p.fill(value)
}

// BGR565Image is a 16-bits per pixel 5-6-5-bit BGR image.
type BGR565Image struct {
	Buffer
	Order binary.ByteOrder
}

func (p *BGR565Image) ColorModel() color.Model {
	return BGR565Model
}

func (p *BGR565Image) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return color.Transparent
	}

	v := p.Order.Uint16(p.Pix[p.offset(x, y, 2):])
	return BGR565{v}
}

func (p *BGR565Image) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}

	v := bgr565Model(c).(BGR565).V
	p.Order.PutUint16(p.Pix[p.offset(x, y, 2):], v)
}

func (p *BGR565Image) Fill(c color.Color) {
	value := make([]byte, 2)
	p.Order.PutUint16(value, bgr565Model(c).(BGR565).V)
	p.fill(value)
}

// RGB888Image is a 24-bits per pixel 8-8-8-bit RGB image.
type RGB888Image struct {
	Buffer
}

func (p *RGB888Image) ColorModel() color.Model {
	return RGB888Model
}

func (p *RGB888Image) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return color.Transparent
	}

	i := p.offset(x, y, 3)
	return color.RGBA{R: p.Pix[i], G: p.Pix[i+1], B: p.Pix[i+2], A: 0xff}
}

func (p *RGB888Image) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}

	v := rgb888Model(c).(color.RGBA)
	i := p.offset(x, y, 3)
	p.Pix[i+0] = v.R
	p.Pix[i+1] = v.G
	p.Pix[i+2] = v.B
}

func (p *RGB888Image) Fill(c color.Color) {
	v := rgb888Model(c).(color.RGBA)
	p.fill([]byte{v.R, v.G, v.B})
}

// BGRAImage is a 32-bits per pixel 8-8-8-8-bit BGRA image with
// premultiplied alpha.
type BGRAImage struct {
	Buffer
}

func (p *BGRAImage) ColorModel() color.Model {
	return color.RGBAModel
}

func (p *BGRAImage) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return color.Transparent
	}

	i := p.offset(x, y, 4)
	return color.RGBA{R: p.Pix[i+2], G: p.Pix[i+1], B: p.Pix[i], A: p.Pix[i+3]}
}

func (p *BGRAImage) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}

	v := color.RGBAModel.Convert(c).(color.RGBA)
	i := p.offset(x, y, 4)
	p.Pix[i+0] = v.B
	p.Pix[i+1] = v.G
	p.Pix[i+2] = v.R
	p.Pix[i+3] = v.A
}

func (p *BGRAImage) Fill(c color.Color) {
	v := color.RGBAModel.Convert(c).(color.RGBA)
	p.fill([]byte{v.B, v.G, v.R, v.A})
}

// Interface checks.
var (
	_ Image = (*RGB565Image)(nil)
	_ Image = (*BGR565Image)(nil)
	_ Image = (*RGB888Image)(nil)
	_ Image = (*BGRAImage)(nil)
)
