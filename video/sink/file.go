package sink

import (
	"bufio"
	"os"

	log "github.com/sirupsen/logrus"
)

// FileSink appends the elementary stream to a file opened in binary
// create/truncate mode.
type FileSink struct {
	path  string
	f     *os.File
	w     *bufio.Writer
	bytes int64
}

func NewFileSink(path string) (*FileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &FileSink{
		path: path,
		f:    f,
		w:    bufio.NewWriterSize(f, 256<<10),
	}, nil
}

func (s *FileSink) Put(b []byte) {
	n, err := s.w.Write(b)
	s.bytes += int64(n)
	if err != nil {
		// Disk faults are out of scope for the capture loop; keep
		// whatever made it to disk.
		log.Errorf("Error writing %v: %v", s.path, err)
	}
}

// Bytes returns the number of bytes appended so far.
func (s *FileSink) Bytes() int64 {
	return s.bytes
}

func (s *FileSink) Close() {
	if err := s.w.Flush(); err != nil {
		log.Errorf("Error flushing %v: %v", s.path, err)
	}
	if err := s.f.Sync(); err != nil {
		log.Errorf("Error syncing %v: %v", s.path, err)
	}
	if err := s.f.Close(); err != nil {
		log.Errorf("Error closing %v: %v", s.path, err)
	}
}
