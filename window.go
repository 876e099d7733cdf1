package surface

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/physic"
)

// Operation is a window control operation, see [Window.Perform].
type Operation int

// Window operations.
const (
	OpSetUsage Operation = iota
	OpConnect
	OpDisconnect
)

func (op Operation) String() string {
	switch op {
	case OpSetUsage:
		return "set usage"
	case OpConnect:
		return "connect"
	case OpDisconnect:
		return "disconnect"
	default:
		return fmt.Sprintf("Operation(%d)", int(op))
	}
}

// Config is the window configuration.
type Config struct {
	// Usage flags for the ring buffers.
	Usage Usage

	// Logger for the window and its ring. Defaults to [Logger]("window").
	Logger logrus.FieldLogger
}

// DefaultConfig are the default configuration values.
var DefaultConfig = Config{
	Usage: UsageHWFB,
}

// Window is a double-buffered surface on a display device.
type Window struct {
	ring           *Ring
	device         Device
	info           DeviceInfo
	log            logrus.FieldLogger
	updateOnDemand bool

	closeOnce sync.Once
	closeErr  error
}

// NewWindow creates a window with a two buffer ring sized to the device.
//
// On error no window is returned and the device is left open, so the caller
// can close it and fall back to another path.
func NewWindow(device Device, config *Config) (*Window, error) {
	if device == nil {
		return nil, ErrNoDevice
	}
	if config == nil {
		config = new(Config)
		*config = DefaultConfig
	}
	if config.Usage == 0 {
		config.Usage = DefaultConfig.Usage
	}

	w := &Window{
		device: device,
		info:   device.Info(),
		log:    config.Logger,
	}
	if w.log == nil {
		w.log = Logger("window")
	}
	_, w.updateOnDemand = device.(UpdateRectSetter)

	var err error
	if w.ring, err = NewRing(device, device, &RingConfig{
		Width:  w.info.Width,
		Height: w.info.Height,
		Format: w.info.Format,
		Usage:  config.Usage,
		Logger: w.log,
	}); err != nil {
		return nil, err
	}

	w.log.Debugf("window %dx%d %s, %s, update on demand %t",
		w.info.Width, w.info.Height, w.info.Format, w.info.RefreshRate, w.updateOnDemand)
	return w, nil
}

// Ring returns the window's buffer ring.
func (w *Window) Ring() *Ring {
	return w.ring
}

// Dequeue returns the next back buffer, blocking until one is free.
func (w *Window) Dequeue() *Buffer {
	return w.ring.Acquire()
}

// DequeueContext is like Dequeue, but gives up when ctx is done.
func (w *Window) DequeueContext(ctx context.Context) (*Buffer, error) {
	return w.ring.AcquireContext(ctx)
}

// Lock blocks until b is no longer displayed.
func (w *Window) Lock(b *Buffer) {
	w.ring.Lock(b)
}

// LockContext is like Lock, but gives up when ctx is done.
func (w *Window) LockContext(ctx context.Context, b *Buffer) error {
	return w.ring.LockContext(ctx, b)
}

// Queue displays b.
func (w *Window) Queue(b *Buffer) error {
	return w.ring.Queue(b)
}

// Query returns a window attribute.
func (w *Window) Query(attr Attribute) (int, error) {
	return w.ring.Query(attr)
}

// Perform executes a window control operation. The supported operations
// need no work for a framebuffer window.
func (w *Window) Perform(op Operation) error {
	switch op {
	case OpSetUsage, OpConnect, OpDisconnect:
		return nil
	default:
		return ErrUnknownOperation
	}
}

// SetSwapInterval sets the number of display refreshes per queued buffer.
func (w *Window) SetSwapInterval(interval int) error {
	s, ok := w.device.(SwapIntervalSetter)
	if !ok {
		return ErrUnsupported
	}
	if interval < w.info.MinSwapInterval {
		interval = w.info.MinSwapInterval
	}
	if interval > w.info.MaxSwapInterval {
		interval = w.info.MaxSwapInterval
	}
	return s.SetSwapInterval(interval)
}

// SetUpdateRectangle hints the device which part of the next frame changed.
func (w *Window) SetUpdateRectangle(r image.Rectangle) error {
	if !w.updateOnDemand {
		return ErrUnsupported
	}
	return w.device.(UpdateRectSetter).SetUpdateRect(r)
}

// CompositionComplete notifies the device that a frame was composed.
func (w *Window) CompositionComplete() error {
	if c, ok := w.device.(CompositionCompleter); ok {
		return c.CompositionComplete()
	}
	return ErrUnsupported
}

// UpdateOnDemand reports if the device supports partial updates.
func (w *Window) UpdateOnDemand() bool { return w.updateOnDemand }

// XDPI is the horizontal pixel density.
func (w *Window) XDPI() float32 { return w.info.XDPI }

// YDPI is the vertical pixel density.
func (w *Window) YDPI() float32 { return w.info.YDPI }

// MinSwapInterval is the smallest supported swap interval.
func (w *Window) MinSwapInterval() int { return w.info.MinSwapInterval }

// MaxSwapInterval is the largest supported swap interval.
func (w *Window) MaxSwapInterval() int { return w.info.MaxSwapInterval }

// RefreshRate of the display.
func (w *Window) RefreshRate() physic.Frequency { return w.info.RefreshRate }

// Flags are the device flags.
func (w *Window) Flags() uint32 { return w.info.Flags }

func (w *Window) String() string {
	return fmt.Sprintf("window %dx%d %s", w.info.Width, w.info.Height, w.info.Format)
}

// Close frees the buffers and closes the device.
func (w *Window) Close() error {
	w.closeOnce.Do(func() {
		_ = w.ring.Close()
		w.closeErr = w.device.Close()
	})
	return w.closeErr
}
