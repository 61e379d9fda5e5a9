package source

import (
	"image"
	"time"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// CameraOptions describe the stream to negotiate with the device.
type CameraOptions struct {
	// Device path or capture URI, e.g. "/dev/video0".
	URI string

	Width     int
	Height    int
	Framerate int

	// FourCC of the raw pixel layout requested from the driver,
	// e.g. "YUYV". RGB conversion is disabled so frames come out as
	// a single interleaved plane.
	FourCC string
}

// Camera is a Source backed by a capture device. A single Mat backs
// every returned Frame, which is what enforces the borrow contract:
// the data is overwritten in place on the next read.
type Camera struct {
	opts CameraOptions
	cap  *gocv.VideoCapture
	mat  gocv.Mat
	seq  uint64
}

func NewCamera(opts CameraOptions) (*Camera, error) {
	cap, err := gocv.OpenVideoCapture(opts.URI)
	if err != nil {
		return nil, err
	}
	cap.Set(gocv.VideoCaptureFOURCC, fourcc(opts.FourCC))
	cap.Set(gocv.VideoCaptureConvertRGB, 0)
	cap.Set(gocv.VideoCaptureFrameWidth, float64(opts.Width))
	cap.Set(gocv.VideoCaptureFrameHeight, float64(opts.Height))
	cap.Set(gocv.VideoCaptureFPS, float64(opts.Framerate))
	return &Camera{
		opts: opts,
		cap:  cap,
		mat:  gocv.NewMat(),
	}, nil
}

func (c *Camera) Next() *Frame {
	for {
		if ok := c.cap.Read(&c.mat); !ok || c.mat.Empty() {
			// TODO timeout; disconnect detect.
			log.Warn("Read failure.")
			time.Sleep(time.Millisecond)
			continue
		}
		data, err := c.mat.DataPtrUint8()
		if err != nil {
			log.Errorf("Unreadable frame buffer: %v", err)
			time.Sleep(time.Millisecond)
			continue
		}
		c.seq++
		f := &Frame{
			Data:   data,
			Stride: c.mat.Cols() * c.mat.ElemSize(),
			Width:  c.mat.Cols(),
			Height: c.mat.Rows(),
			Seq:    c.seq,
			Time:   time.Now(),
		}
		log.Debugf("%d: width %d height %d stride=%d bytes %d",
			f.Seq, f.Width, f.Height, f.Stride, f.Stride*f.Height)
		return f
	}
}

func (c *Camera) Size() image.Point {
	return image.Pt(c.opts.Width, c.opts.Height)
}

func (c *Camera) Close() {
	c.mat.Close()
	if err := c.cap.Close(); err != nil {
		log.Errorf("Error closing capture device: %v", err)
	}
}

func fourcc(code string) float64 {
	if len(code) != 4 {
		return 0
	}
	return float64(uint32(code[0]) | uint32(code[1])<<8 | uint32(code[2])<<16 | uint32(code[3])<<24)
}
