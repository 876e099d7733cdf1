package framebuffer

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/BeatGlow/surface"
	"github.com/BeatGlow/surface/pixel"
)

func TestSetBacklight(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO19", Num: 19}

	require.NoError(t, setBacklight(pin, true))
	assert.Equal(t, gpio.High, pin.L)
	require.NoError(t, setBacklight(pin, false))
	assert.Equal(t, gpio.Low, pin.L)

	assert.NoError(t, setBacklight(nil, true))
	assert.NoError(t, setBacklight(gpio.INVALID, true))
}

func TestNewImage(t *testing.T) {
	tests := []struct {
		Format surface.Format
		Want   any
	}{
		{surface.FormatRGB565, &pixel.RGB565Image{}},
		{surface.FormatBGR565, &pixel.BGR565Image{}},
		{surface.FormatRGB888, &pixel.RGB888Image{}},
		{surface.FormatRGBA8888, &image.RGBA{}},
		{surface.FormatRGBX8888, &image.RGBA{}},
		{surface.FormatBGRA8888, &pixel.BGRAImage{}},
	}
	for _, test := range tests {
		t.Run(test.Format.String(), func(it *testing.T) {
			p := newSystemPage(3, 2, test.Format)
			img := p.Image()
			require.NotNil(it, img)
			assert.IsType(it, test.Want, img)
			assert.Equal(it, image.Rect(0, 0, 3, 2), img.Bounds())

			// The image is a view on the page, not a copy.
			img.Set(1, 1, color.White)
			r, g, b, _ := p.Image().At(1, 1).RGBA()
			assert.Equal(it, [3]uint32{0xffff, 0xffff, 0xffff}, [3]uint32{r, g, b})
		})
	}

	assert.Nil(t, newImage(surface.FormatUnknown, pixel.Buffer{}))
}

func TestPageString(t *testing.T) {
	p := newSystemPage(3, 2, surface.FormatRGB565)
	assert.Equal(t, "system memory (3,2) RGB565", p.String())

	p.index = 1
	assert.Equal(t, "video page 1 (3,2) RGB565", p.String())
}
