// Package surface implements a double-buffered presentation surface on top of
// a framebuffer style display device.
//
// A [Ring] owns exactly two buffers. A renderer takes the next back buffer
// with [Ring.Acquire], draws into it and hands it back with [Ring.Queue],
// which posts it to the display and makes it the front buffer. [Ring.Lock]
// waits until a buffer the renderer holds is no longer on screen.
//
// A [Window] wraps a ring around a [Device] and adds the optional device
// capabilities (partial updates, swap interval, composition notification).
package surface

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"os"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/physic"
)

var debug bool

func init() {
	debug = os.Getenv("SURFACE_DEBUG") != ""
}

// Errors
var (
	ErrUnknownAttribute = errors.New("surface: unknown attribute")
	ErrUnknownOperation = errors.New("surface: unknown operation")
	ErrUnsupported      = errors.New("surface: operation not supported by device")
	ErrForeignBuffer    = errors.New("surface: buffer does not belong to this ring")
	ErrClosed           = errors.New("surface: closed")
	ErrNoDevice         = errors.New("surface: no device")
	ErrInvalidConfig    = errors.New("surface: invalid configuration")
)

// AllocError is returned when one of the ring buffers could not be allocated.
type AllocError struct {
	Slot   int
	Width  int
	Height int
	Format Format
	Err    error
}

func (err *AllocError) Error() string {
	return fmt.Sprintf("surface: buffer %d allocation failed w=%d, h=%d, format=%s: %v",
		err.Slot, err.Width, err.Height, err.Format, err.Err)
}

func (err *AllocError) Unwrap() error {
	return err.Err
}

// PostError is returned by [Ring.Queue] when the display rejected a buffer.
// The buffer is still considered front.
type PostError struct {
	Slot int
	Err  error
}

func (err *PostError) Error() string {
	return fmt.Sprintf("surface: post of buffer %d failed: %v", err.Slot, err.Err)
}

func (err *PostError) Unwrap() error {
	return err.Err
}

// Format is a pixel format, numbered like the Android HAL pixel formats.
type Format int

// Supported pixel formats.
const (
	FormatUnknown  Format = 0
	FormatRGBA8888 Format = 1
	FormatRGBX8888 Format = 2
	FormatRGB888   Format = 3
	FormatRGB565   Format = 4
	FormatBGRA8888 Format = 5

	// FormatBGR565 has no HAL number.
	FormatBGR565 Format = 0x100
)

func (f Format) String() string {
	switch f {
	case FormatRGBA8888:
		return "RGBA8888"
	case FormatRGBX8888:
		return "RGBX8888"
	case FormatRGB888:
		return "RGB888"
	case FormatRGB565:
		return "RGB565"
	case FormatBGRA8888:
		return "BGRA8888"
	case FormatBGR565:
		return "BGR565"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// BytesPerPixel returns the storage size of one pixel, or 0 for unknown formats.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatRGBA8888, FormatRGBX8888, FormatBGRA8888:
		return 4
	case FormatRGB888:
		return 3
	case FormatRGB565, FormatBGR565:
		return 2
	default:
		return 0
	}
}

// Usage flags describe how a buffer will be accessed.
type Usage uint32

// Usage flags.
const (
	UsageSWRead Usage = 1 << iota
	UsageSWWrite
	UsageHWTexture
	UsageHWRender
	UsageHWFB // Buffer will be posted to the framebuffer

	UsageHW = UsageHWFB | UsageHWRender
)

// Attribute is a queryable surface attribute.
type Attribute int

// Queryable attributes.
const (
	AttrWidth Attribute = iota
	AttrHeight
	AttrFormat
)

func (a Attribute) String() string {
	switch a {
	case AttrWidth:
		return "width"
	case AttrHeight:
		return "height"
	case AttrFormat:
		return "format"
	default:
		return fmt.Sprintf("Attribute(%d)", int(a))
	}
}

// Handle is an opaque, device specific buffer handle.
type Handle any

// Allocator allocates and releases pixel buffers.
type Allocator interface {
	// Allocate a buffer, returning its handle and row stride in pixels.
	Allocate(width, height int, format Format, usage Usage) (Handle, int, error)

	// Free a buffer previously returned by Allocate.
	Free(Handle)
}

// Poster pushes a completed buffer to the physical display.
type Poster interface {
	// Post the buffer. May block until the display accepted it.
	Post(Handle) error
}

// Device is a display device that allocates buffers and displays them.
type Device interface {
	Allocator
	Poster

	// Info describes the display.
	Info() DeviceInfo

	// Close the device.
	Close() error
}

// DeviceInfo holds the capabilities a device reports at startup.
type DeviceInfo struct {
	// Width of the display in pixels.
	Width int

	// Height of the display in pixels.
	Height int

	// Format of the display pixels.
	Format Format

	// XDPI and YDPI are the physical pixel densities.
	XDPI, YDPI float32

	// MinSwapInterval and MaxSwapInterval bound the supported swap intervals.
	MinSwapInterval int
	MaxSwapInterval int

	// RefreshRate of the display.
	RefreshRate physic.Frequency

	// Flags are device specific.
	Flags uint32
}

// UpdateRectSetter is implemented by devices that support partial updates.
type UpdateRectSetter interface {
	SetUpdateRect(image.Rectangle) error
}

// CompositionCompleter is implemented by devices that want to be notified
// when composition of a frame finished.
type CompositionCompleter interface {
	CompositionComplete() error
}

// SwapIntervalSetter is implemented by devices with a configurable swap interval.
type SwapIntervalSetter interface {
	SetSwapInterval(int) error
}

// Drawable is implemented by handles that expose their pixels.
type Drawable interface {
	Image() draw.Image
}

var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// Logger returns the default logger for a component.
func Logger(component string) logrus.FieldLogger {
	return logger.WithField("component", component)
}
