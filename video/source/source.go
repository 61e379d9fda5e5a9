package source

import (
	"image"
	"time"
)

// Frame is one raw captured video image. Data is borrowed from the
// Source and is only valid until the next call to Next; callers must
// not hold a reference past that point (or past submitting the frame
// downstream).
type Frame struct {
	// Interleaved single-plane pixel data, Stride bytes per row.
	Data   []byte
	Stride int
	Width  int
	Height int

	// Monotonically increasing capture sequence number.
	Seq  uint64
	Time time.Time
}

// Source defines a pull-based stream of raw frames, such as a camera.
type Source interface {
	// Next blocks until a frame is available and returns it. The
	// returned frame's data is overwritten by the following call.
	// Camera faults are not surfaced here; a source that can no
	// longer produce frames simply never returns.
	Next() *Frame

	// Size returns the frame dimensions of the source.
	Size() image.Point

	// Close disconnects from the capture source and frees up all resources.
	Close()
}
