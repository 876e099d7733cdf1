// Package framebuffer provides [surface.Device] implementations.
//
// [Open] opens the operating system's native framebuffer. When the video
// memory holds two screens, the ring buffers live in video memory and are
// displayed by panning; otherwise buffers are kept in system memory and copied
// to the screen when posted. [NewMemory] returns a device that displays into
// an in-memory image, for hosts without a framebuffer.
package framebuffer

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"

	"github.com/BeatGlow/surface"
)

// Errors
var (
	ErrNotSupported = errors.New("framebuffer: not supported")
	ErrFormat       = errors.New("framebuffer: unsupported color model")
	ErrNoMemory     = errors.New("framebuffer: no free video memory page")
	ErrHandle       = errors.New("framebuffer: invalid buffer handle")
	ErrClosed       = errors.New("framebuffer: device closed")
)

// Config is the framebuffer device configuration.
type Config struct {
	// Backlight pin, switched on when the device is opened and off when it is
	// closed. Optional.
	Backlight gpio.PinOut

	// Logger defaults to [surface.Logger]("framebuffer").
	Logger logrus.FieldLogger
}

// DefaultConfig are the default configuration values.
var DefaultConfig = Config{}

// DefaultDevices are tried in order by [OpenSurface] when no device is named.
var DefaultDevices = []string{
	"/dev/graphics/fb0",
	"/dev/fb0",
}

// OpenSurface opens a framebuffer device and creates a window on it. An empty
// name tries [DefaultDevices].
//
// If the device can not be opened or the window buffers can not be
// allocated, no window is returned and the caller should fall back to
// another output.
func OpenSurface(name string, config *Config) (*surface.Window, error) {
	if config == nil {
		config = new(Config)
		*config = DefaultConfig
	}

	names := DefaultDevices
	if name != "" {
		names = []string{name}
	}

	var (
		dev surface.Device
		err error
	)
	for _, name := range names {
		if dev, err = Open(name, config); err == nil {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	w, err := surface.NewWindow(dev, &surface.Config{
		Usage:  surface.UsageHWFB,
		Logger: config.Logger,
	})
	if err != nil {
		_ = dev.Close()
		return nil, fmt.Errorf("framebuffer: %w", err)
	}
	return w, nil
}

func hasPin(pin gpio.PinOut) bool {
	return pin != nil && pin != gpio.INVALID
}

func setBacklight(pin gpio.PinOut, on bool) error {
	if !hasPin(pin) {
		return nil
	}
	return pin.Out(gpio.Level(on))
}

func loggerFor(config *Config) logrus.FieldLogger {
	if config.Logger != nil {
		return config.Logger
	}
	return surface.Logger("framebuffer")
}
