package framebuffer

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/draw"

	"github.com/BeatGlow/surface"
	"github.com/BeatGlow/surface/pixel"
)

// page is the buffer handle of the devices in this package.
type page struct {
	// index of the video memory page, -1 for system memory.
	index   int
	yoffset int
	format  surface.Format
	buf     pixel.Buffer
}

func newSystemPage(width, height int, format surface.Format) *page {
	return &page{
		index:  -1,
		format: format,
		buf:    pixel.MakeBuffer(width, height, format.BytesPerPixel()),
	}
}

// Image is a view on the page pixels.
func (p *page) Image() draw.Image {
	return newImage(p.format, p.buf)
}

func (p *page) String() string {
	if p.index < 0 {
		return fmt.Sprintf("system memory %s %s", p.buf.Rect.Size(), p.format)
	}
	return fmt.Sprintf("video page %d %s %s", p.index, p.buf.Rect.Size(), p.format)
}

func newImage(format surface.Format, buf pixel.Buffer) draw.Image {
	switch format {
	case surface.FormatRGB565:
		return &pixel.RGB565Image{Buffer: buf, Order: binary.LittleEndian}
	case surface.FormatBGR565:
		return &pixel.BGR565Image{Buffer: buf, Order: binary.LittleEndian}
	case surface.FormatRGB888:
		return &pixel.RGB888Image{Buffer: buf}
	case surface.FormatRGBA8888, surface.FormatRGBX8888:
		return &image.RGBA{Pix: buf.Pix, Stride: buf.Stride, Rect: buf.Rect}
	case surface.FormatBGRA8888:
		return &pixel.BGRAImage{Buffer: buf}
	default:
		return nil
	}
}
