package surface

import (
	"fmt"
	"image/draw"
)

// Buffer is one of the two ring buffers.
//
// All fields are set once at allocation and must be treated as read-only.
type Buffer struct {
	Width  int
	Height int
	Format Format
	Usage  Usage

	// Stride is the row stride in pixels, as reported by the allocator.
	Stride int

	// Handle is the allocator's handle for the pixels.
	Handle Handle

	slot int
}

// Slot is the buffer's position in the ring.
func (b *Buffer) Slot() int {
	return b.slot
}

// Image returns a drawable view of the buffer pixels, or nil if the handle
// does not expose them.
func (b *Buffer) Image() draw.Image {
	if d, ok := b.Handle.(Drawable); ok {
		return d.Image()
	}
	return nil
}

func (b *Buffer) String() string {
	return fmt.Sprintf("buffer %d (%dx%d %s, stride %d)", b.slot, b.Width, b.Height, b.Format, b.Stride)
}
