package encode

import (
	"github.com/sk8ersteve/realsense-color-to-h264/video/source"
)

// Packet is one unit of compressed elementary-stream output. The
// buffer belongs to the receiver once returned.
type Packet struct {
	Data []byte
}

// Encoder compresses raw frames into an elementary-stream packet
// sequence. Implementations may buffer internally; packets are emitted
// in final byte-stream order.
type Encoder interface {
	// Submit queues one raw frame for encoding. An error means the
	// frame was rejected (hardware/session fault); the encoder may
	// still hold packets recoverable via Finish + ReceivePacket.
	Submit(f *source.Frame) error

	// Finish signals end of stream. No Submit may follow.
	Finish() error

	// ReceivePacket returns the next compressed packet. Before
	// Finish it is a non-blocking poll: (nil, nil) means no packet
	// is ready yet, which is not an error. After Finish it drains
	// the encoder's remaining output, returning (nil, nil) only once
	// everything buffered has been recovered. A non-nil error is an
	// encode failure.
	ReceivePacket() (*Packet, error)

	// Close releases the encoder. Safe to call after a failure.
	Close()
}
