package framebuffer

import (
	"fmt"
	"image"
	"sync"
	"unsafe"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
	"periph.io/x/conn/v3/gpio"

	"github.com/BeatGlow/surface"
	"github.com/BeatGlow/surface/internal/ioctl"
	"github.com/BeatGlow/surface/pixel"
)

// From <linux/fb.h>
var (
	fbioGetVScreenInfo = ioctl.Register(0x4600, "FBIOGET_VSCREENINFO")
	fbioPutVScreenInfo = ioctl.Register(0x4601, "FBIOPUT_VSCREENINFO")
	fbioGetFScreenInfo = ioctl.Register(0x4602, "FBIOGET_FSCREENINFO")
	fbioPanDisplay     = ioctl.Register(0x4606, "FBIOPAN_DISPLAY")
)

const (
	fbActivateNow = 0
	fbActivateVBL = 16
)

// numPages is the number of screens requested in video memory, one per ring buffer.
const numPages = 2

type linuxDevice struct {
	mu        sync.Mutex
	name      string
	fd        uintptr
	mem       []byte
	fixed     fixScreenInfo
	screen    varScreenInfo
	format    surface.Format
	pages     []*page
	used      [numPages]bool
	visible   int
	backlight gpio.PinOut
	log       logrus.FieldLogger
}

// Open a Linux FrameBuffer device (fbdev) by name, typically /dev/fb[0..x].
func Open(name string, config *Config) (surface.Device, error) {
	if config == nil {
		config = new(Config)
		*config = DefaultConfig
	}

	fd, err := unix.Open(name, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("framebuffer: open %s: %w", name, err)
	}

	d := &linuxDevice{
		name:      name,
		fd:        uintptr(fd),
		backlight: config.Backlight,
		log:       loggerFor(config).WithField("device", name),
	}
	if err = d.init(); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}

	if err = setBacklight(d.backlight, true); err != nil {
		_ = unix.Munmap(d.mem)
		_ = unix.Close(fd)
		return nil, err
	}

	d.log.Debugf("%s, %d page(s) in video memory", d, len(d.pages))
	return d, nil
}

func (d *linuxDevice) init() (err error) {
	if err = ioctl.Do(d.fd, fbioGetVScreenInfo, unsafe.Pointer(&d.screen)); err != nil {
		return err
	}

	// Request a virtual screen that holds all pages, for flipping by panning.
	request := d.screen
	request.YresVirtual = request.Yres * numPages
	request.Xoffset, request.Yoffset = 0, 0
	request.Activate = fbActivateNow
	if err = ioctl.Do(d.fd, fbioPutVScreenInfo, unsafe.Pointer(&request)); err != nil {
		d.log.WithError(err).Warn("page flipping not supported")
	}

	if err = ioctl.Do(d.fd, fbioGetVScreenInfo, unsafe.Pointer(&d.screen)); err != nil {
		return err
	}
	if err = ioctl.Do(d.fd, fbioGetFScreenInfo, unsafe.Pointer(&d.fixed)); err != nil {
		return err
	}
	if d.format, err = parseFormat(&d.screen); err != nil {
		return err
	}

	lineLength := int(d.fixed.LineLength)
	if lineLength == 0 {
		lineLength = int(d.screen.Xres) * d.format.BytesPerPixel()
	}
	pageSize := lineLength * int(d.screen.Yres)
	if pageSize == 0 || int(d.fixed.SmemLen) < pageSize {
		return fmt.Errorf("framebuffer: %d bytes of video memory can't hold a %dx%d screen",
			d.fixed.SmemLen, d.screen.Xres, d.screen.Yres)
	}

	// Map pixel buffer.
	if d.mem, err = unix.Mmap(int(d.fd), 0, int(d.fixed.SmemLen), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED); err != nil {
		return fmt.Errorf("framebuffer: mmap: %w", err)
	}

	n := max(min(int(d.fixed.SmemLen)/pageSize, int(d.screen.YresVirtual/d.screen.Yres), numPages), 1)
	for i := 0; i < n; i++ {
		d.pages = append(d.pages, &page{
			index:   i,
			yoffset: i * int(d.screen.Yres),
			format:  d.format,
			buf: pixel.Buffer{
				Rect:   image.Rect(0, 0, int(d.screen.Xres), int(d.screen.Yres)),
				Pix:    d.mem[i*pageSize : (i+1)*pageSize],
				Stride: lineLength,
			},
		})
	}
	d.visible = int(d.screen.Yoffset / d.screen.Yres)
	if d.visible >= n {
		d.visible = 0
	}
	return nil
}

func (d *linuxDevice) String() string {
	return fmt.Sprintf("framebuffer %s %dx%d %s", d.name, d.screen.Xres, d.screen.Yres, d.format)
}

// Info describes the display.
func (d *linuxDevice) Info() surface.DeviceInfo {
	return deviceInfo(&d.screen, d.format)
}

// stride in pixels.
func (d *linuxDevice) stride() int {
	return d.pages[0].buf.Stride / d.format.BytesPerPixel()
}

// Allocate a buffer. Framebuffer usage gets a video memory page when the
// device has more than one; everything else lives in system memory.
func (d *linuxDevice) Allocate(width, height int, format surface.Format, usage surface.Usage) (surface.Handle, int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.mem == nil {
		return nil, 0, ErrClosed
	}

	if usage&surface.UsageHWFB != 0 && len(d.pages) > 1 {
		if width != int(d.screen.Xres) || height != int(d.screen.Yres) || format != d.format {
			return nil, 0, fmt.Errorf("framebuffer: %dx%d %s does not match the %dx%d %s screen",
				width, height, format, d.screen.Xres, d.screen.Yres, d.format)
		}
		for i, p := range d.pages {
			if !d.used[i] {
				d.used[i] = true
				return p, d.stride(), nil
			}
		}
		return nil, 0, ErrNoMemory
	}

	if format.BytesPerPixel() == 0 {
		return nil, 0, ErrFormat
	}
	return newSystemPage(width, height, format), width, nil
}

// Free a buffer.
func (d *linuxDevice) Free(h surface.Handle) {
	p, ok := h.(*page)
	if !ok || p.index < 0 {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.used[p.index] = false
}

// Post displays the buffer: video memory pages are panned to, system memory
// is copied into the visible page.
func (d *linuxDevice) Post(h surface.Handle) error {
	p, ok := h.(*page)
	if !ok {
		return ErrHandle
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.mem == nil {
		return ErrClosed
	}

	if p.index < 0 {
		if p.format != d.format {
			return fmt.Errorf("framebuffer: can't post %s buffer to %s screen", p.format, d.format)
		}
		d.pages[d.visible].buf.CopyFrom(&p.buf)
		return nil
	}

	request := d.screen
	request.Xoffset = 0
	request.Yoffset = uint32(p.yoffset)
	request.Activate = fbActivateVBL
	if err := ioctl.Do(d.fd, fbioPanDisplay, unsafe.Pointer(&request)); err != nil {
		return err
	}
	d.screen.Yoffset = request.Yoffset
	d.visible = p.index
	return nil
}

// SetSwapInterval accepts the only interval fbdev panning provides.
func (d *linuxDevice) SetSwapInterval(interval int) error {
	if interval != 1 {
		return fmt.Errorf("framebuffer: swap interval %d not supported", interval)
	}
	return nil
}

// Close the framebuffer device.
func (d *linuxDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.mem == nil {
		return nil
	}
	if err := setBacklight(d.backlight, false); err != nil {
		d.log.WithError(err).Warn("backlight off failed")
	}
	if err := unix.Munmap(d.mem); err != nil {
		return err
	}
	d.mem, d.pages = nil, nil
	return unix.Close(int(d.fd))
}

// Interface checks.
var (
	_ surface.Device             = (*linuxDevice)(nil)
	_ surface.SwapIntervalSetter = (*linuxDevice)(nil)
)
