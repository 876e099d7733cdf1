package surface

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// ringCapacity is fixed: queueing one buffer frees the other, which only
// holds with exactly two buffers.
const ringCapacity = 2

// RingConfig is the ring buffer configuration.
type RingConfig struct {
	// Width of the buffers in pixels.
	Width int

	// Height of the buffers in pixels.
	Height int

	// Format of the buffer pixels.
	Format Format

	// Usage flags passed to the allocator.
	Usage Usage

	// Logger receives allocation and post failures. Defaults to [Logger]("ring").
	Logger logrus.FieldLogger
}

// Ring hands out two buffers in rotation to a single renderer and swaps them
// to the display.
//
// All state is guarded by one mutex. Waiters in Acquire and Lock sleep on a
// single condition that every Queue broadcasts; each waiter re-checks its own
// condition on wake up.
type Ring struct {
	mu        sync.Mutex
	cond      *sync.Cond
	allocator Allocator
	poster    Poster
	log       logrus.FieldLogger
	config    RingConfig
	buffers   [ringCapacity]*Buffer
	freeCount int
	head      int
	front     *Buffer
	closed    bool
}

// NewRing allocates the two ring buffers.
//
// If either allocation fails, the buffers that were allocated are freed and
// an [*AllocError] is returned.
func NewRing(allocator Allocator, poster Poster, config *RingConfig) (*Ring, error) {
	if allocator == nil || poster == nil {
		return nil, ErrNoDevice
	}
	if config == nil || config.Width <= 0 || config.Height <= 0 {
		return nil, ErrInvalidConfig
	}

	r := &Ring{
		allocator: allocator,
		poster:    poster,
		log:       config.Logger,
		config:    *config,
		freeCount: ringCapacity,
		head:      ringCapacity - 1,
	}
	if r.log == nil {
		r.log = Logger("ring")
	}
	r.cond = sync.NewCond(&r.mu)

	for i := range r.buffers {
		handle, stride, err := allocator.Allocate(config.Width, config.Height, config.Format, config.Usage)
		if err != nil {
			err = &AllocError{
				Slot:   i,
				Width:  config.Width,
				Height: config.Height,
				Format: config.Format,
				Err:    err,
			}
			r.log.Error(err)
			r.release()
			return nil, err
		}
		r.buffers[i] = &Buffer{
			Width:  config.Width,
			Height: config.Height,
			Format: config.Format,
			Usage:  config.Usage,
			Stride: stride,
			Handle: handle,
			slot:   i,
		}
	}

	r.log.Debugf("allocated %d buffers %dx%d %s", ringCapacity, config.Width, config.Height, config.Format)
	return r, nil
}

// Capacity is the number of ring buffers.
func (r *Ring) Capacity() int {
	return ringCapacity
}

// Buffer returns the buffer in slot i, or nil.
func (r *Ring) Buffer(i int) *Buffer {
	if i < 0 || i >= ringCapacity {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buffers[i]
}

// Front returns the buffer that is currently displayed, if any.
func (r *Ring) Front() *Buffer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.front
}

// FreeCount is the number of buffers Acquire can hand out without blocking.
func (r *Ring) FreeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.freeCount
}

// Acquire blocks until a buffer is free and returns the next buffer in
// rotation. There is no timeout; use [Ring.AcquireContext] to bound the wait.
//
// Acquire returns nil once the ring is closed.
func (r *Ring) Acquire() *Buffer {
	b, _ := r.AcquireContext(context.Background())
	return b
}

// AcquireContext is like Acquire, but gives up when ctx is done.
func (r *Ring) AcquireContext(ctx context.Context) (*Buffer, error) {
	stop := r.wakeOnDone(ctx)
	defer stop()

	r.mu.Lock()
	defer r.mu.Unlock()

	for r.freeCount == 0 && !r.closed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.cond.Wait()
	}
	if r.closed {
		return nil, ErrClosed
	}

	r.freeCount--
	r.head = (r.head + 1) % ringCapacity
	return r.buffers[r.head], nil
}

// Lock blocks until b is no longer the front buffer. It returns at once for
// buffers that are not slots of r.
func (r *Ring) Lock(b *Buffer) {
	_ = r.LockContext(context.Background(), b)
}

// LockContext is like Lock, but gives up when ctx is done. Buffers that are
// not slots of r yield [ErrForeignBuffer].
func (r *Ring) LockContext(ctx context.Context, b *Buffer) error {
	stop := r.wakeOnDone(ctx)
	defer stop()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if !r.owns(b) {
		return ErrForeignBuffer
	}
	for r.front == b && !r.closed {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.cond.Wait()
	}
	if r.closed {
		return ErrClosed
	}
	return nil
}

// Queue posts b to the display and makes it the front buffer.
//
// The post happens with the ring locked, so a slow display stalls the other
// ring operations. A failed post is returned as [*PostError], but b still
// becomes front and a buffer is still released.
func (r *Ring) Queue(b *Buffer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if !r.owns(b) {
		return ErrForeignBuffer
	}

	err := r.poster.Post(b.Handle)
	r.front = b
	if r.freeCount < ringCapacity {
		r.freeCount++
	}
	r.cond.Broadcast()

	if err != nil {
		r.log.WithError(err).WithField("slot", b.slot).Warn("post failed")
		return &PostError{Slot: b.slot, Err: err}
	}
	return nil
}

// Query returns a buffer attribute. Unknown attributes yield 0 and
// [ErrUnknownAttribute].
func (r *Ring) Query(attr Attribute) (int, error) {
	switch attr {
	case AttrWidth:
		return r.config.Width, nil
	case AttrHeight:
		return r.config.Height, nil
	case AttrFormat:
		return int(r.config.Format), nil
	default:
		return 0, ErrUnknownAttribute
	}
}

// Close frees the buffers and wakes all waiters. Close is idempotent.
func (r *Ring) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	r.front = nil
	r.release()
	r.cond.Broadcast()
	return nil
}

// owns reports if b is one of the ring's slots; r.mu must be held.
func (r *Ring) owns(b *Buffer) bool {
	return b != nil && b.slot >= 0 && b.slot < ringCapacity && r.buffers[b.slot] == b
}

// release frees the allocated buffers; r.mu must be held or r unshared.
func (r *Ring) release() {
	for i, b := range r.buffers {
		if b != nil {
			r.allocator.Free(b.Handle)
			r.buffers[i] = nil
		}
	}
}

// wakeOnDone broadcasts the ring condition when ctx is done, so waiters can
// observe the cancellation.
func (r *Ring) wakeOnDone(ctx context.Context) (stop func() bool) {
	if ctx.Done() == nil {
		return func() bool { return false }
	}
	return context.AfterFunc(ctx, func() {
		r.mu.Lock()
		r.cond.Broadcast()
		r.mu.Unlock()
	})
}
