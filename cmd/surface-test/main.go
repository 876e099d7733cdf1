// Command surface-test renders frames to a double-buffered display surface.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/BeatGlow/surface"
	"github.com/BeatGlow/surface/framebuffer"
	"github.com/BeatGlow/surface/pixel"
)

func main() {
	deviceFlag := flag.String("device", "", `Framebuffer device, "mem" for an in-memory display (default: probe)`)
	widthFlag := flag.Int("width", 320, "In-memory display width")
	heightFlag := flag.Int("height", 240, "In-memory display height")
	formatFlag := flag.String("format", "rgb565", "In-memory display pixel format")
	blPinFlag := flag.String("bl", "", "Backlight GPIO pin")
	framesFlag := flag.Int("frames", 0, "Number of frames to render (default: until interrupted)")
	swapFlag := flag.Int("swap", 1, "Swap interval")
	throttleFlag := flag.Bool("throttle", true, "Throttle in-memory posts to the refresh rate")
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	log := logrus.New()
	if *debugFlag {
		log.SetLevel(logrus.DebugLevel)
	}

	if _, err := host.Init(); err != nil {
		fatal(err)
	}

	var (
		window *surface.Window
		err    error
	)
	if *deviceFlag == "mem" {
		window, err = openMemory(*widthFlag, *heightFlag, *formatFlag, *throttleFlag, log)
	} else {
		config := &framebuffer.Config{Logger: log}
		if *blPinFlag != "" {
			if config.Backlight = gpioreg.ByName(*blPinFlag); config.Backlight == nil {
				fatal(fmt.Errorf("unknown backlight pin %q", *blPinFlag))
			}
		} else {
			config.Backlight = gpio.INVALID
		}
		window, err = framebuffer.OpenSurface(*deviceFlag, config)
	}
	if err != nil {
		fatal(err)
	}
	defer window.Close()

	log.Infof("using %s, %.0f×%.0f dpi, %s", window, window.XDPI(), window.YDPI(), window.RefreshRate())
	if err = window.SetSwapInterval(*swapFlag); err != nil && !errors.Is(err, surface.ErrUnsupported) {
		log.WithError(err).Warn("swap interval not set")
	}

	face, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	log.Info("hit control-c to stop...")
	var (
		tile  = gradientTile(16)
		start = time.Now()
	)
	for frame := 0; *framesFlag == 0 || frame < *framesFlag; frame++ {
		b, err := window.DequeueContext(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			fatal(err)
		}
		if err = window.LockContext(ctx, b); err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			fatal(err)
		}

		img := b.Image()
		if img == nil {
			fatal(fmt.Errorf("%s has no pixels to draw to", b))
		}
		render(img, tile, face, window.XDPI(), frame, time.Since(start))

		if err = window.Queue(b); err != nil {
			fatal(err)
		}
		if err = window.CompositionComplete(); err != nil && !errors.Is(err, surface.ErrUnsupported) {
			log.WithError(err).Warn("composition complete failed")
		}
	}

	elapsed := time.Since(start)
	log.Infof("done after %s", elapsed.Round(time.Millisecond))
}

func openMemory(width, height int, format string, throttle bool, log logrus.FieldLogger) (*surface.Window, error) {
	f, err := parseFormat(format)
	if err != nil {
		return nil, err
	}
	m, err := framebuffer.NewMemory(width, height, f)
	if err != nil {
		return nil, err
	}
	m.Throttle = throttle

	w, err := surface.NewWindow(m, &surface.Config{Logger: log})
	if err != nil {
		_ = m.Close()
		return nil, err
	}
	return w, nil
}

func parseFormat(name string) (surface.Format, error) {
	switch strings.ToLower(name) {
	case "rgba", "rgba8888":
		return surface.FormatRGBA8888, nil
	case "rgbx", "rgbx8888":
		return surface.FormatRGBX8888, nil
	case "rgb", "rgb888":
		return surface.FormatRGB888, nil
	case "rgb565":
		return surface.FormatRGB565, nil
	case "bgr565":
		return surface.FormatBGR565, nil
	case "bgra", "bgra8888":
		return surface.FormatBGRA8888, nil
	default:
		return surface.FormatUnknown, fmt.Errorf("unsupported format %q", name)
	}
}

const margin = 4

var background = color.RGBA{R: 0x10, G: 0x10, B: 0x30, A: 0xff}

// gradientTile is a small diagonal gradient that gets scaled to the screen.
func gradientTile(size int) *image.RGBA {
	tile := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			tile.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 255 / size),
				G: uint8(y * 255 / size),
				B: uint8((x + y) * 127 / size),
				A: 0xff,
			})
		}
	}
	return tile
}

func render(dst draw.Image, tile *image.RGBA, face *truetype.Font, dpi float32, frame int, elapsed time.Duration) {
	r := dst.Bounds()

	if p, ok := dst.(pixel.Image); ok {
		p.Fill(background)
	} else {
		draw.Draw(dst, r, image.NewUniform(background), image.Point{}, draw.Src)
	}

	// Scroll the gradient by scaling a shifted part of the tile.
	var (
		size   = tile.Bounds().Dx()
		offset = frame % size
		src    = image.Rect(offset/2, 0, offset/2+size/2, size)
	)
	xdraw.ApproxBiLinear.Scale(dst, r.Inset(margin), tile, src, xdraw.Src, nil)

	// Box around edge
	white := image.NewUniform(color.White)
	for _, edge := range []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1),
		image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y),
		image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y),
	} {
		draw.Draw(dst, edge, white, image.Point{}, draw.Src)
	}

	c := freetype.NewContext()
	c.SetDPI(float64(dpi))
	c.SetFont(face)
	c.SetFontSize(12)
	c.SetClip(r)
	c.SetDst(dst)
	c.SetSrc(white)
	c.SetHinting(font.HintingFull)
	_, _ = c.DrawString("surface-test", freetype.Pt(r.Min.X+8, r.Min.Y+8+int(c.PointToFixed(12)>>6)))

	status := &font.Drawer{
		Dst:  dst,
		Src:  white,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(r.Min.X+8, r.Max.Y-8),
	}
	status.DrawString(fmt.Sprintf("frame %d %s", frame, elapsed.Round(time.Second)))
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "fatal: "+err.Error())
	os.Exit(1)
}
