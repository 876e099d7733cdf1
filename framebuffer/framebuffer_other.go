//go:build !linux

package framebuffer

import "github.com/BeatGlow/surface"

// Open is not supported on this platform, use [NewMemory].
func Open(_ string, _ *Config) (surface.Device, error) {
	return nil, ErrNotSupported
}
