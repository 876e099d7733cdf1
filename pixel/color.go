package pixel

import "image/color"

// Models for the packed color types.
var (
	RGB565Model color.Model = color.ModelFunc(rgb565Model)
	BGR565Model color.Model = color.ModelFunc(bgr565Model)
	RGB888Model color.Model = color.ModelFunc(rgb888Model)
)

// RGB565 represents a 16-bit 5-6-5 RGB color.
type RGB565 struct {
	// Red, 5, Green, 6, Blue, 5
	V uint16
}

func (c RGB565) RGBA() (r, g, b, a uint32) {
	r, g, b = expand565(c.V)
	return r, g, b, 0xffff
}

func rgb565Model(c color.Color) color.Color {
	if _, ok := c.(RGB565); ok {
		return c
	}
	r, g, b, _ := c.RGBA()
	return RGB565{pack565(r, g, b)}
}

// BGR565 represents a 16-bit 5-6-5 BGR color.
type BGR565 struct {
	// Blue, 5, Green, 6, Red, 5
	V uint16
}

func (c BGR565) RGBA() (r, g, b, a uint32) {
	b, g, r = expand565(c.V)
	return r, g, b, 0xffff
}

func bgr565Model(c color.Color) color.Color {
	if _, ok := c.(BGR565); ok {
		return c
	}
	r, g, b, _ := c.RGBA()
	return BGR565{pack565(b, g, r)}
}

func rgb888Model(c color.Color) color.Color {
	r, g, b, _ := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 0xff}
}

// pack565 packs the high bits of three 16-bit components.
func pack565(hi, mid, lo uint32) uint16 {
	hi = hi & 0xF800
	mid = (mid & 0xFC00) >> 5
	lo = (lo & 0xF800) >> 11
	return uint16(hi | mid | lo)
}

// expand565 unpacks a 5-6-5 value into three 16-bit components.
func expand565(v uint16) (hi, mid, lo uint32) {
	// Build a 5- or 6-bit value at the top of the low byte of each component.
	h := (v & 0xF800) >> 8
	m := (v & 0x07E0) >> 3
	l := (v & 0x001F) << 3
	// Duplicate the high bits in the low bits.
	h |= h >> 5
	m |= m >> 6
	l |= l >> 5
	// Duplicate the whole value in the high byte.
	h |= h << 8
	m |= m << 8
	l |= l << 8
	return uint32(h), uint32(m), uint32(l)
}
