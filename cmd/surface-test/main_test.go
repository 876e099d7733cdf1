package main

import (
	"encoding/binary"
	"image"
	"image/color"
	"image/draw"
	"testing"
	"time"

	"github.com/golang/freetype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/BeatGlow/surface"
	"github.com/BeatGlow/surface/pixel"
)

func TestParseFormat(t *testing.T) {
	for name, want := range map[string]surface.Format{
		"rgba":     surface.FormatRGBA8888,
		"RGBX8888": surface.FormatRGBX8888,
		"rgb888":   surface.FormatRGB888,
		"rgb565":   surface.FormatRGB565,
		"bgr565":   surface.FormatBGR565,
		"bgra":     surface.FormatBGRA8888,
	} {
		format, err := parseFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, format, name)
	}

	_, err := parseFormat("yuv420")
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	face, err := freetype.ParseFont(goregular.TTF)
	require.NoError(t, err)

	for _, dst := range []draw.Image{
		&pixel.RGB565Image{Buffer: pixel.MakeBuffer(96, 64, 2), Order: binary.LittleEndian},
		image.NewRGBA(image.Rect(0, 0, 96, 64)),
	} {
		render(dst, gradientTile(16), face, 72, 3, time.Second)

		bg := dst.ColorModel().Convert(background)
		assert.Equal(t, bg, dst.ColorModel().Convert(dst.At(2, 2)), "margin is filled with the background")
		assert.Equal(t, dst.ColorModel().Convert(color.White), dst.ColorModel().Convert(dst.At(0, 0)), "edge")
		assert.NotEqual(t, bg, dst.ColorModel().Convert(dst.At(90, 32)), "gradient")
	}
}
