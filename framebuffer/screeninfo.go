package framebuffer

import (
	"periph.io/x/conn/v3/physic"

	"github.com/BeatGlow/surface"
)

const (
	// Used when the driver reports no timings.
	defaultRefreshRate = 60 * physic.Hertz

	// Used when the driver reports no physical size.
	defaultDPI = 160
)

// fixScreenInfo mirrors struct fb_fix_screeninfo from <linux/fb.h>.
type fixScreenInfo struct {
	ID         [16]byte  // Identification string eg "TT Builtin"
	SmemStart  uintptr   // Start of frame buffer mem
	SmemLen    uint32    // Length of frame buffer mem
	Type       uint32    // FB_TYPE_
	TypeAux    uint32    // Interleave for interleaved Planes
	Visual     uint32    // FB_VISUAL_
	Xpanstep   uint16    // Zero if no hardware panning
	Ypanstep   uint16    // Zero if no hardware panning
	Ywrapstep  uint16    // Zero if no hardware ywrap
	LineLength uint32    // Length of a line in bytes
	MmioStart  uintptr   // Start of Memory Mapped I/O (physical address)
	MmioLen    uint32    // Length of Memory Mapped I/O
	Accel      uint32    // Type of acceleration available
	Reserved   [3]uint16 // Reserved for future compatibility
}

// bitField describes one color channel.
type bitField struct {
	Offset   uint32 // Beginning of bitfield
	Length   uint32 // Length of bitfield
	MsbRight uint32 // != 0 : Most significant bit is right
}

// varScreenInfo mirrors struct fb_var_screeninfo from <linux/fb.h>.
type varScreenInfo struct {
	Xres                    uint32
	Yres                    uint32
	XresVirtual             uint32
	YresVirtual             uint32
	Xoffset                 uint32
	Yoffset                 uint32
	BitsPerPixel            uint32
	Grayscale               uint32
	Red, Green, Blue, Alpha bitField
	Nonstd                  uint32
	Activate                uint32
	Height                  uint32 // Height of picture in mm
	Width                   uint32 // Width of picture in mm
	AccelFlags              uint32
	Pixclock                uint32 // Pixel clock in ps
	LeftMargin              uint32
	RightMargin             uint32
	UpperMargin             uint32
	LowerMargin             uint32
	HsyncLen                uint32
	VsyncLen                uint32
	Sync                    uint32
	Vmode                   uint32
	Rotate                  uint32
	Colorspace              uint32
	Reserved                [4]uint32
}

func (c bitField) is(offset, length uint32) bool {
	return c.Offset == offset && c.Length == length
}

// parseFormat detects the surface pixel format from the channel layout.
func parseFormat(info *varScreenInfo) (surface.Format, error) {
	switch info.BitsPerPixel {
	case 16:
		switch {
		case info.Red.is(11, 5) && info.Green.is(5, 6) && info.Blue.is(0, 5):
			return surface.FormatRGB565, nil
		case info.Red.is(0, 5) && info.Green.is(5, 6) && info.Blue.is(11, 5):
			return surface.FormatBGR565, nil
		}

	case 24:
		if info.Red.is(0, 8) && info.Green.is(8, 8) && info.Blue.is(16, 8) {
			return surface.FormatRGB888, nil
		}

	case 32:
		switch {
		case info.Red.is(0, 8) && info.Green.is(8, 8) && info.Blue.is(16, 8):
			if info.Alpha.is(24, 8) {
				return surface.FormatRGBA8888, nil
			}
			if info.Alpha.Length == 0 {
				return surface.FormatRGBX8888, nil
			}

		case info.Blue.is(0, 8) && info.Green.is(8, 8) && info.Red.is(16, 8):
			// Without alpha the padding byte is simply ignored by the display.
			return surface.FormatBGRA8888, nil
		}
	}

	return surface.FormatUnknown, ErrFormat
}

// refreshRate derives the refresh rate from the display timings.
func refreshRate(info *varScreenInfo) physic.Frequency {
	var (
		lines  = uint64(info.UpperMargin) + uint64(info.LowerMargin) + uint64(info.VsyncLen) + uint64(info.Yres)
		pixels = uint64(info.LeftMargin) + uint64(info.RightMargin) + uint64(info.HsyncLen) + uint64(info.Xres)
		frame  = lines * pixels * uint64(info.Pixclock) // in ps
	)
	if frame == 0 {
		return defaultRefreshRate
	}
	mHz := uint64(1e15) / frame
	if mHz == 0 {
		return defaultRefreshRate
	}
	return physic.Frequency(mHz) * physic.MilliHertz
}

// dpi is the pixel density of a side of pixels pixels and mm millimeters.
func dpi(pixels, mm uint32) float32 {
	if mm == 0 || mm == ^uint32(0) {
		return defaultDPI
	}
	return float32(pixels) * 25.4 / float32(mm)
}

// deviceInfo translates the screen info into surface terms.
func deviceInfo(info *varScreenInfo, format surface.Format) surface.DeviceInfo {
	return surface.DeviceInfo{
		Width:           int(info.Xres),
		Height:          int(info.Yres),
		Format:          format,
		XDPI:            dpi(info.Xres, info.Width),
		YDPI:            dpi(info.Yres, info.Height),
		MinSwapInterval: 1,
		MaxSwapInterval: 1,
		RefreshRate:     refreshRate(info),
	}
}
