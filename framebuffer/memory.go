package framebuffer

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BeatGlow/surface"
	"github.com/BeatGlow/surface/pixel"
)

// Memory is a display device that shows posted buffers in an in-memory
// screen. It supports partial updates, swap intervals and composition
// notifications.
type Memory struct {
	// Throttle makes Post wait one refresh period per swap interval, like a
	// display synchronized to vertical blanking.
	Throttle bool

	mu           sync.Mutex
	info         surface.DeviceInfo
	screen       pixel.Buffer
	log          logrus.FieldLogger
	swapInterval int
	updateRect   image.Rectangle
	posts        int
	composed     int
	allocated    int
	closed       bool
}

// NewMemory returns an in-memory display of the given size and format.
func NewMemory(width, height int, format surface.Format) (*Memory, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("framebuffer: invalid size %dx%d", width, height)
	}
	if format.BytesPerPixel() == 0 {
		return nil, ErrFormat
	}
	return &Memory{
		info: surface.DeviceInfo{
			Width:           width,
			Height:          height,
			Format:          format,
			XDPI:            defaultDPI,
			YDPI:            defaultDPI,
			MinSwapInterval: 0,
			MaxSwapInterval: 4,
			RefreshRate:     defaultRefreshRate,
		},
		screen:       pixel.MakeBuffer(width, height, format.BytesPerPixel()),
		log:          surface.Logger("memory"),
		swapInterval: 1,
	}, nil
}

func (m *Memory) String() string {
	return fmt.Sprintf("memory %dx%d %s", m.info.Width, m.info.Height, m.info.Format)
}

// Info describes the display.
func (m *Memory) Info() surface.DeviceInfo {
	return m.info
}

// Allocate a system memory buffer.
func (m *Memory) Allocate(width, height int, format surface.Format, _ surface.Usage) (surface.Handle, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, 0, ErrClosed
	}
	if width <= 0 || height <= 0 || format.BytesPerPixel() == 0 {
		return nil, 0, fmt.Errorf("framebuffer: can't allocate %dx%d %s", width, height, format)
	}
	m.allocated++
	return newSystemPage(width, height, format), width, nil
}

// Free a buffer.
func (m *Memory) Free(h surface.Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := h.(*page); ok {
		m.allocated--
	}
}

// Post copies the buffer to the screen. With an update rectangle set, only
// that part of the screen changes; the rectangle applies to one post.
func (m *Memory) Post(h surface.Handle) error {
	p, ok := h.(*page)
	if !ok {
		return ErrHandle
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if p.format != m.info.Format {
		m.mu.Unlock()
		return fmt.Errorf("framebuffer: can't post %s buffer to %s display", p.format, m.info.Format)
	}

	if r := m.updateRect; !r.Empty() {
		m.screen.CopyRect(&p.buf, r, p.format.BytesPerPixel())
		m.updateRect = image.Rectangle{}
	} else {
		m.screen.CopyFrom(&p.buf)
	}
	m.posts++
	wait := time.Duration(m.swapInterval) * m.info.RefreshRate.Period()
	m.mu.Unlock()

	if m.Throttle && wait > 0 {
		time.Sleep(wait)
	}
	return nil
}

// SetUpdateRect limits the next post to r.
func (m *Memory) SetUpdateRect(r image.Rectangle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateRect = r
	return nil
}

// SetSwapInterval sets the number of refresh periods a throttled post takes.
func (m *Memory) SetSwapInterval(interval int) error {
	if interval < m.info.MinSwapInterval || interval > m.info.MaxSwapInterval {
		return fmt.Errorf("framebuffer: swap interval %d out of range [%d,%d]",
			interval, m.info.MinSwapInterval, m.info.MaxSwapInterval)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.swapInterval = interval
	return nil
}

// CompositionComplete counts composed frames.
func (m *Memory) CompositionComplete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.composed++
	m.log.Debugf("composition %d complete", m.composed)
	return nil
}

// Screen returns a copy of what is currently displayed.
func (m *Memory) Screen() image.Image {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf := pixel.MakeBuffer(m.info.Width, m.info.Height, m.info.Format.BytesPerPixel())
	buf.CopyFrom(&m.screen)
	return newImage(m.info.Format, buf)
}

// Posts is the number of posted buffers.
func (m *Memory) Posts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.posts
}

// Composed is the number of composition notifications.
func (m *Memory) Composed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.composed
}

// Allocated is the number of buffers that have not been freed.
func (m *Memory) Allocated() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allocated
}

// Close the device.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Interface checks.
var (
	_ surface.Device               = (*Memory)(nil)
	_ surface.UpdateRectSetter     = (*Memory)(nil)
	_ surface.SwapIntervalSetter   = (*Memory)(nil)
	_ surface.CompositionCompleter = (*Memory)(nil)
)
