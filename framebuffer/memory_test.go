package framebuffer

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BeatGlow/surface"
)

func TestNewMemory(t *testing.T) {
	m, err := NewMemory(320, 240, surface.FormatRGB565)
	require.NoError(t, err)
	assert.Equal(t, "memory 320x240 RGB565", m.String())

	info := m.Info()
	assert.Equal(t, 320, info.Width)
	assert.Equal(t, 240, info.Height)
	assert.Equal(t, surface.FormatRGB565, info.Format)
	assert.Equal(t, float32(defaultDPI), info.XDPI)
	assert.Equal(t, 0, info.MinSwapInterval)
	assert.Equal(t, 4, info.MaxSwapInterval)

	_, err = NewMemory(0, 240, surface.FormatRGB565)
	assert.Error(t, err)
	_, err = NewMemory(320, 240, surface.FormatUnknown)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestMemoryPost(t *testing.T) {
	m, err := NewMemory(4, 4, surface.FormatRGBA8888)
	require.NoError(t, err)

	h, stride, err := m.Allocate(4, 4, surface.FormatRGBA8888, surface.UsageHWFB)
	require.NoError(t, err)
	assert.Equal(t, 4, stride)
	assert.Equal(t, 1, m.Allocated())

	p := h.(*page)
	draw.Draw(p.Image(), p.buf.Rect, image.NewUniform(color.RGBA{R: 0xff, A: 0xff}), image.Point{}, draw.Src)
	require.NoError(t, m.Post(h))
	assert.Equal(t, 1, m.Posts())
	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, m.Screen().At(3, 3))

	assert.ErrorIs(t, m.Post("bogus"), ErrHandle)

	other, _, err := m.Allocate(4, 4, surface.FormatRGB565, 0)
	require.NoError(t, err)
	assert.Error(t, m.Post(other), "format mismatch")

	m.Free(h)
	m.Free(other)
	assert.Equal(t, 0, m.Allocated())

	require.NoError(t, m.Close())
	assert.ErrorIs(t, m.Post(h), ErrClosed)
	_, _, err = m.Allocate(4, 4, surface.FormatRGBA8888, 0)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemoryUpdateRect(t *testing.T) {
	m, err := NewMemory(8, 8, surface.FormatRGBA8888)
	require.NoError(t, err)

	h, _, err := m.Allocate(8, 8, surface.FormatRGBA8888, 0)
	require.NoError(t, err)
	p := h.(*page)

	white := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	draw.Draw(p.Image(), p.buf.Rect, image.NewUniform(white), image.Point{}, draw.Src)

	require.NoError(t, m.SetUpdateRect(image.Rect(2, 2, 4, 4)))
	require.NoError(t, m.Post(h))

	screen := m.Screen()
	assert.Equal(t, white, screen.At(2, 2))
	assert.Equal(t, white, screen.At(3, 3))
	assert.Equal(t, color.RGBA{}, screen.At(0, 0))
	assert.Equal(t, color.RGBA{}, screen.At(4, 4))

	// The rectangle applies to a single post.
	require.NoError(t, m.Post(h))
	assert.Equal(t, white, m.Screen().At(0, 0))
}

func TestMemorySwapInterval(t *testing.T) {
	m, err := NewMemory(8, 8, surface.FormatRGBA8888)
	require.NoError(t, err)

	assert.NoError(t, m.SetSwapInterval(0))
	assert.NoError(t, m.SetSwapInterval(4))
	assert.Error(t, m.SetSwapInterval(5))
	assert.Error(t, m.SetSwapInterval(-1))
}

func TestMemoryWindow(t *testing.T) {
	m, err := NewMemory(64, 48, surface.FormatRGB565)
	require.NoError(t, err)

	w, err := surface.NewWindow(m, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Allocated())

	width, err := w.Query(surface.AttrWidth)
	require.NoError(t, err)
	assert.Equal(t, 64, width)
	assert.True(t, w.UpdateOnDemand())

	colors := []color.RGBA{
		{R: 0xff, A: 0xff},
		{G: 0xff, A: 0xff},
		{B: 0xff, A: 0xff},
	}
	for i, c := range colors {
		b := w.Dequeue()
		require.NotNil(t, b)
		assert.Equal(t, i%2, b.Slot())
		w.Lock(b)

		img := b.Image()
		require.NotNil(t, img)
		draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
		require.NoError(t, w.Queue(b))
		assert.Same(t, b, w.Ring().Front())

		r, g, b16, _ := m.Screen().At(10, 10).RGBA()
		cr, cg, cb, _ := c.RGBA()
		assert.Equal(t, [3]uint32{cr >> 8, cg >> 8, cb >> 8}, [3]uint32{r >> 8, g >> 8, b16 >> 8}, "frame %d", i)
	}
	assert.Equal(t, len(colors), m.Posts())

	require.NoError(t, w.SetSwapInterval(2))
	require.NoError(t, w.SetSwapInterval(10), "clamped to the maximum")
	require.NoError(t, w.CompositionComplete())
	assert.Equal(t, 1, m.Composed())

	require.NoError(t, w.Close())
	assert.Equal(t, 0, m.Allocated())
	assert.Nil(t, w.Dequeue())
}
