package encode

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sk8ersteve/realsense-color-to-h264/video/source"
)

type bufCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufCloser) Close() error {
	b.closed = true
	return nil
}

func TestPackedRowBytes(t *testing.T) {
	n, err := packedRowBytes("yuyv422", 640)
	require.NoError(t, err)
	assert.Equal(t, 1280, n)

	n, err = packedRowBytes("bgr24", 640)
	require.NoError(t, err)
	assert.Equal(t, 1920, n)

	_, err = packedRowBytes("nv12", 640)
	assert.Error(t, err)
}

func TestArgs(t *testing.T) {
	o := &VAAPIOptions{
		Width:       640,
		Height:      360,
		Framerate:   30,
		PixelFormat: "yuyv422",
		Codec:       "hevc_vaapi",
		Device:      "/dev/dri/renderD128",
		QP:          25,
	}
	args := o.args()
	assert.Contains(t, args, "rawvideo")
	assert.Contains(t, args, "640x360")
	assert.Contains(t, args, "hevc_vaapi")
	assert.Contains(t, args, "/dev/dri/renderD128")
	// Elementary-stream output, no container.
	assert.Equal(t, "pipe:1", args[len(args)-1])
	assert.Equal(t, "hevc", args[len(args)-2])

	o.Codec = "h264_vaapi"
	args = o.args()
	assert.Equal(t, "h264", args[len(args)-2])
}

// A frame whose stride equals the packed row width is written through
// as-is.
func TestSubmitPacked(t *testing.T) {
	w := &bufCloser{}
	e := &VAAPI{rowBytes: 4, stdin: w}

	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	err := e.Submit(&source.Frame{Data: data, Stride: 4, Width: 2, Height: 2})
	require.NoError(t, err)
	assert.Equal(t, data, w.Bytes())
}

// Row padding beyond the packed width is stripped on the way to the
// encoder.
func TestSubmitStrided(t *testing.T) {
	w := &bufCloser{}
	e := &VAAPI{rowBytes: 4, stdin: w}

	data := []byte{
		1, 2, 3, 4, 0xee, 0xee,
		5, 6, 7, 8, 0xee, 0xee,
	}
	err := e.Submit(&source.Frame{Data: data, Stride: 6, Width: 2, Height: 2})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, w.Bytes())
}

func TestSubmitShortBuffer(t *testing.T) {
	e := &VAAPI{rowBytes: 4, stdin: &bufCloser{}}
	err := e.Submit(&source.Frame{Data: []byte{1, 2}, Stride: 4, Width: 2, Height: 2})
	assert.Error(t, err)
}

func TestSubmitAfterFinish(t *testing.T) {
	w := &bufCloser{}
	e := &VAAPI{rowBytes: 4, stdin: w}
	require.NoError(t, e.Finish())
	assert.True(t, w.closed)
	assert.Error(t, e.Submit(&source.Frame{Data: make([]byte, 8), Stride: 4, Width: 2, Height: 2}))
	// Finish is idempotent.
	assert.NoError(t, e.Finish())
}

// Before Finish, ReceivePacket is a non-blocking poll: nothing ready
// is (nil, nil), not an error.
func TestReceivePacketPoll(t *testing.T) {
	e := &VAAPI{packets: make(chan *Packet, 2)}

	p, err := e.ReceivePacket()
	require.NoError(t, err)
	assert.Nil(t, p)

	e.packets <- &Packet{Data: []byte{0xab}}
	p, err = e.ReceivePacket()
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, []byte{0xab}, p.Data)
}

// A mid-stream process death surfaces as an encode failure, once.
func TestReceivePacketProcessDeath(t *testing.T) {
	e := &VAAPI{packets: make(chan *Packet, 1)}
	e.waitErr = errors.New("exit status 1")
	close(e.packets)

	p, err := e.ReceivePacket()
	assert.Nil(t, p)
	assert.Error(t, err)

	// After Finish, the remaining drain terminates cleanly.
	e.finished = true
	p, err = e.ReceivePacket()
	assert.Nil(t, p)
	assert.NoError(t, err)
}

// After Finish, draining returns every buffered packet before the
// terminating (nil, nil).
func TestReceivePacketDrain(t *testing.T) {
	e := &VAAPI{packets: make(chan *Packet, 2), finished: true}
	e.packets <- &Packet{Data: []byte{1}}
	e.packets <- &Packet{Data: []byte{2}}
	close(e.packets)

	p, err := e.ReceivePacket()
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, p.Data)

	p, err = e.ReceivePacket()
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, p.Data)

	p, err = e.ReceivePacket()
	assert.NoError(t, err)
	assert.Nil(t, p)
}
