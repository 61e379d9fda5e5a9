package encode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/sk8ersteve/realsense-color-to-h264/util"
	"github.com/sk8ersteve/realsense-color-to-h264/video/source"
)

// VAAPIOptions configure the hardware encoding session.
type VAAPIOptions struct {
	// Path to the ffmpeg binary. Resolved via util.LocateFFmpeg when
	// empty.
	FFmpeg string

	Width     int
	Height    int
	Framerate int

	// Raw input pixel format, single interleaved plane ("yuyv422").
	PixelFormat string

	// VAAPI codec, "hevc_vaapi" or "h264_vaapi".
	Codec string

	// DRM render node, e.g. "/dev/dri/renderD128".
	Device string

	// Constant-QP quality.
	QP int
}

// VAAPI drives a hardware encode session through an ffmpeg child
// process: raw frames in on stdin, elementary-stream packets out on
// stdout. The reader goroutine is internal to the encoder; callers
// interact with it strictly through Submit/Finish/ReceivePacket.
type VAAPI struct {
	opts     VAAPIOptions
	rowBytes int

	cmd     *exec.Cmd
	stdin   io.WriteCloser
	packets chan *Packet
	exited  *util.Event

	// Written by the reader goroutine before it closes packets;
	// read only after observing the close.
	waitErr  error
	finished bool
	reported bool
}

// packedRowBytes returns the bytes per row of pixel data (without
// stride padding) for the supported single-plane formats.
func packedRowBytes(format string, width int) (int, error) {
	switch format {
	case "yuyv422", "uyvy422", "yvyu422":
		return width * 2, nil
	case "bgr24", "rgb24":
		return width * 3, nil
	}
	return 0, fmt.Errorf("unsupported pixel format %q", format)
}

func elementaryFormat(codec string) string {
	if strings.Contains(codec, "h264") {
		return "h264"
	}
	return "hevc"
}

func (o *VAAPIOptions) args() []string {
	return []string{
		// Raw camera frames arrive on stdin.
		"-f", "rawvideo",
		"-pixel_format", o.PixelFormat,
		"-video_size", fmt.Sprintf("%dx%d", o.Width, o.Height),
		"-framerate", fmt.Sprintf("%d", o.Framerate),
		"-i", "-",
		// Upload to the GPU and encode there. The hardware encoders
		// take nv12 surfaces regardless of the input format.
		"-vaapi_device", o.Device,
		"-vf", "format=nv12,hwupload",
		"-c:v", o.Codec,
		"-qp", fmt.Sprintf("%d", o.QP),
		// Raw elementary stream on stdout, no container.
		"-f", elementaryFormat(o.Codec),
		"pipe:1",
	}
}

func NewVAAPI(opts VAAPIOptions) (*VAAPI, error) {
	rowBytes, err := packedRowBytes(opts.PixelFormat, opts.Width)
	if err != nil {
		return nil, err
	}
	if opts.FFmpeg == "" {
		opts.FFmpeg, err = util.LocateFFmpeg()
		if err != nil {
			return nil, fmt.Errorf("locate ffmpeg: %w", err)
		}
	}

	c := exec.Command(opts.FFmpeg, opts.args()...)
	c.Stderr = os.Stderr

	stdin, err := c.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := c.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("start encoder: %w", err)
	}
	log.Infof("Encoder session started: %v %v", opts.Codec, opts.Device)

	e := &VAAPI{
		opts:     opts,
		rowBytes: rowBytes,
		cmd:      c,
		stdin:    stdin,
		packets:  make(chan *Packet, 64),
		exited:   util.NewEvent(),
	}
	go e.read(stdout)
	return e, nil
}

// read chunks encoder output into packets until the stream ends, then
// reaps the child process.
func (e *VAAPI) read(stdout io.Reader) {
	buf := make([]byte, 64<<10)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			p := &Packet{Data: make([]byte, n)}
			copy(p.Data, buf[:n])
			e.packets <- p
		}
		if err != nil {
			if err != io.EOF {
				log.Errorf("Error reading encoder output: %v", err)
			}
			break
		}
	}
	e.waitErr = e.cmd.Wait()
	close(e.packets)
	e.exited.Notify()
}

func (e *VAAPI) Submit(f *source.Frame) error {
	if e.finished {
		return errors.New("submit after end of stream")
	}
	need := f.Stride*(f.Height-1) + e.rowBytes
	if len(f.Data) < need {
		return fmt.Errorf("frame %d: buffer %d bytes, need %d", f.Seq, len(f.Data), need)
	}
	if f.Stride == e.rowBytes {
		if _, err := e.stdin.Write(f.Data[:e.rowBytes*f.Height]); err != nil {
			return fmt.Errorf("frame %d: %w", f.Seq, err)
		}
		return nil
	}
	// Strided buffer: strip the row padding on the way out.
	for y := 0; y < f.Height; y++ {
		row := f.Data[y*f.Stride : y*f.Stride+e.rowBytes]
		if _, err := e.stdin.Write(row); err != nil {
			return fmt.Errorf("frame %d row %d: %w", f.Seq, y, err)
		}
	}
	return nil
}

func (e *VAAPI) Finish() error {
	if e.finished {
		return nil
	}
	e.finished = true
	if err := e.stdin.Close(); err != nil {
		return fmt.Errorf("close encoder input: %w", err)
	}
	return nil
}

func (e *VAAPI) ReceivePacket() (*Packet, error) {
	if e.finished {
		// Draining: wait out the encoder's shutdown so every
		// buffered packet is recovered.
		p, ok := <-e.packets
		if !ok {
			return nil, e.exitErr()
		}
		return p, nil
	}
	select {
	case p, ok := <-e.packets:
		if !ok {
			if err := e.exitErr(); err != nil {
				return nil, err
			}
			return nil, errors.New("encoder exited mid-stream")
		}
		return p, nil
	default:
		return nil, nil
	}
}

// exitErr surfaces an abnormal process exit exactly once.
func (e *VAAPI) exitErr() error {
	if e.reported || e.waitErr == nil {
		return nil
	}
	e.reported = true
	return fmt.Errorf("encoder process: %w", e.waitErr)
}

func (e *VAAPI) Close() {
	if !e.finished {
		e.finished = true
		e.stdin.Close()
	}
	log.Debug("Waiting for encoder shutdown.")
	e.exited.Wait()
	log.Debugf("Encoder exit status: %v", e.waitErr)
}
