package surface

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

type testDevice struct {
	testAllocator
	testPoster
	info   DeviceInfo
	closed int
}

func (d *testDevice) Info() DeviceInfo { return d.info }

func (d *testDevice) Close() error {
	d.closed++
	return nil
}

// testFullDevice implements all optional device capabilities.
type testFullDevice struct {
	testDevice
	rect         image.Rectangle
	swapInterval int
	composed     int
}

func (d *testFullDevice) SetUpdateRect(r image.Rectangle) error {
	d.rect = r
	return nil
}

func (d *testFullDevice) SetSwapInterval(n int) error {
	d.swapInterval = n
	return nil
}

func (d *testFullDevice) CompositionComplete() error {
	d.composed++
	return nil
}

var testDeviceInfo = DeviceInfo{
	Width:           480,
	Height:          272,
	Format:          FormatRGB565,
	XDPI:            130,
	YDPI:            131,
	MinSwapInterval: 1,
	MaxSwapInterval: 2,
	RefreshRate:     60 * physic.Hertz,
	Flags:           0x4,
}

func TestNewWindow(t *testing.T) {
	d := &testDevice{info: testDeviceInfo}
	w, err := NewWindow(d, nil)
	require.NoError(t, err)

	for attr, want := range map[Attribute]int{
		AttrWidth:  480,
		AttrHeight: 272,
		AttrFormat: int(FormatRGB565),
	} {
		v, err := w.Query(attr)
		require.NoError(t, err)
		assert.Equal(t, want, v, attr.String())
	}

	b := w.Ring().Buffer(0)
	assert.Equal(t, UsageHWFB, b.Usage)
	assert.Equal(t, float32(130), w.XDPI())
	assert.Equal(t, float32(131), w.YDPI())
	assert.Equal(t, 1, w.MinSwapInterval())
	assert.Equal(t, 2, w.MaxSwapInterval())
	assert.Equal(t, 60*physic.Hertz, w.RefreshRate())
	assert.Equal(t, uint32(0x4), w.Flags())
	assert.False(t, w.UpdateOnDemand())

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.Equal(t, 1, d.closed)
	assert.Len(t, d.freed, 2)
}

func TestNewWindowErrors(t *testing.T) {
	_, err := NewWindow(nil, nil)
	assert.ErrorIs(t, err, ErrNoDevice)

	d := &testDevice{info: testDeviceInfo}
	d.failAt = 2
	w, err := NewWindow(d, &Config{Usage: UsageHW})
	assert.Nil(t, w)

	var allocErr *AllocError
	require.ErrorAs(t, err, &allocErr)
	assert.Equal(t, 1, allocErr.Slot)
	assert.Len(t, d.freed, 1)
	assert.Zero(t, d.closed, "the caller owns the device after a failed window")
}

func TestWindowQueue(t *testing.T) {
	d := &testDevice{info: testDeviceInfo}
	w, err := NewWindow(d, nil)
	require.NoError(t, err)
	defer w.Close()

	b := w.Dequeue()
	w.Lock(b)
	require.NoError(t, w.Queue(b))
	assert.Same(t, b, w.Ring().Front())
	require.Len(t, d.posted, 1)
	assert.Same(t, b.Handle, d.posted[0])

	d.testPoster.err = errors.New("test: vsync lost")
	next := w.Dequeue()
	var postErr *PostError
	assert.ErrorAs(t, w.Queue(next), &postErr)
	assert.Same(t, next, w.Ring().Front())
}

func TestWindowOptionalCapabilities(t *testing.T) {
	t.Run("unsupported", func(it *testing.T) {
		w, err := NewWindow(&testDevice{info: testDeviceInfo}, nil)
		require.NoError(it, err)
		defer w.Close()

		assert.ErrorIs(it, w.SetUpdateRectangle(image.Rect(0, 0, 10, 10)), ErrUnsupported)
		assert.ErrorIs(it, w.CompositionComplete(), ErrUnsupported)
		assert.ErrorIs(it, w.SetSwapInterval(1), ErrUnsupported)
	})

	t.Run("supported", func(it *testing.T) {
		d := &testFullDevice{testDevice: testDevice{info: testDeviceInfo}}
		w, err := NewWindow(d, nil)
		require.NoError(it, err)
		defer w.Close()

		assert.True(it, w.UpdateOnDemand())
		r := image.Rect(4, 8, 100, 50)
		require.NoError(it, w.SetUpdateRectangle(r))
		assert.Equal(it, r, d.rect)

		require.NoError(it, w.CompositionComplete())
		assert.Equal(it, 1, d.composed)

		require.NoError(it, w.SetSwapInterval(0))
		assert.Equal(it, 1, d.swapInterval, "interval is clamped to the minimum")
		require.NoError(it, w.SetSwapInterval(5))
		assert.Equal(it, 2, d.swapInterval, "interval is clamped to the maximum")
	})
}

func TestWindowPerform(t *testing.T) {
	w, err := NewWindow(&testDevice{info: testDeviceInfo}, nil)
	require.NoError(t, err)
	defer w.Close()

	for _, op := range []Operation{OpSetUsage, OpConnect, OpDisconnect} {
		assert.NoError(t, w.Perform(op), op.String())
	}
	assert.ErrorIs(t, w.Perform(Operation(99)), ErrUnknownOperation)
}
