// Package video drives the frame exchange between a capture source and
// a hardware encoder, persisting the compressed stream to a sink.
package video

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sk8ersteve/realsense-color-to-h264/video/encode"
	"github.com/sk8ersteve/realsense-color-to-h264/video/sink"
	"github.com/sk8ersteve/realsense-color-to-h264/video/source"
)

// Pump owns one capture run: warm-up, the per-frame submit/drain
// cycle, and the end-of-stream flush. Strictly sequential; the only
// blocking point is the source pull.
type Pump struct {
	Source  source.Source
	Encoder encode.Encoder
	Sink    sink.Sink
}

// Session is the state of one capture run, reported back to the
// caller when the run loop exits.
type Session struct {
	// Requested number of frames.
	Target int

	// Submission attempts made, including a failed one.
	Submitted int

	// Packets and bytes appended to the sink, flush included.
	Packets int
	Bytes   int64

	// True when all Target submissions completed without a
	// submission or encode failure. The flush stage's own outcome
	// never changes this.
	OK bool

	Elapsed time.Duration
}

// WarmUp pulls and discards count frames so camera auto-exposure and
// auto-gain can settle before the run starts. There is no failure
// path; a source that never produces is a startup hang, not an error.
func (p *Pump) WarmUp(count int) {
	for i := 0; i < count; i++ {
		p.Source.Next()
	}
	log.Debugf("Discarded %d warm-up frames", count)
}

// Run pulls target frames from the source in order, submits each to
// the encoder, and drains every packet the encoder has ready after
// each submission. A submission or encode failure stops the loop
// early. The flush stage always runs, success or failure, recovering
// whatever the encoder still buffers.
func (p *Pump) Run(target int) *Session {
	s := &Session{Target: target}
	start := time.Now()

	failed := false
	for i := 0; i < target; i++ {
		f := p.Source.Next()
		s.Submitted++
		if err := p.Encoder.Submit(f); err != nil {
			log.Errorf("Failed to send frame to encoder: %v", err)
			failed = true
			break
		}
		// The frame buffer is invalid from here on.

		if err := p.drain(s); err != nil {
			log.Errorf("Failed to encode frame: %v", err)
			failed = true
			break
		}
	}

	p.flush(s)

	s.OK = !failed && s.Submitted == target
	s.Elapsed = time.Since(start)
	return s
}

// drain polls the encoder until no packet is ready, appending each to
// the sink in emission order.
func (p *Pump) drain(s *Session) error {
	for {
		pkt, err := p.Encoder.ReceivePacket()
		if err != nil {
			return err
		}
		if pkt == nil {
			return nil
		}
		p.Sink.Put(pkt.Data)
		s.Packets++
		s.Bytes += int64(len(pkt.Data))
	}
}

// flush signals end of stream and drains the encoder's remaining
// buffered packets. Errors here are logged but never alter the run's
// success flag; every packet recovered is still written.
func (p *Pump) flush(s *Session) {
	if err := p.Encoder.Finish(); err != nil {
		log.Errorf("Failed to signal end of stream: %v", err)
	}
	if err := p.drain(s); err != nil {
		log.Errorf("Failed to drain encoder: %v", err)
	}
}
