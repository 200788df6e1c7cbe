package codec

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
)

// Y4MSink writes frames into a YUV4MPEG2 file. Y4M has a single stream
// header, so frames must keep the dimensions of the first one.
type Y4MSink struct {
	path   string
	file   io.WriteCloser
	writer *bufio.Writer

	headerWritten bool
	width         int
	height        int
	fpsNum        int
	fpsDen        int
}

func NewY4MSink(filePath string, fpsNum, fpsDen int) *Y4MSink {
	return &Y4MSink{
		path:   filePath,
		fpsNum: fpsNum,
		fpsDen: fpsDen,
	}
}

// Open implements Sink.
func (s *Y4MSink) Open(_ context.Context, _ Info) error {
	if s.file != nil {
		return fmt.Errorf("Y4MSink: already open")
	}
	file, err := os.Create(s.path)
	if err != nil {
		return err
	}
	s.file = file
	s.writer = bufio.NewWriter(file)
	s.headerWritten = false
	return nil
}

// Push implements Sink.
func (s *Y4MSink) Push(f *Frame) error {
	if s.file == nil {
		return fmt.Errorf("Y4MSink: not open")
	}
	if err := f.Validate(); err != nil {
		return fmt.Errorf("Y4MSink: %w", err)
	}
	if !s.headerWritten {
		// Y4M header: YUV4MPEG2 W<width> H<height> F<fps_num>:<fps_den> Ip A<aspect> C<colorspace>
		header := fmt.Sprintf("YUV4MPEG2 W%d H%d F%d:%d Ip A0:0 C420jpeg\n", f.Width, f.Height, s.fpsNum, s.fpsDen)
		if _, err := s.writer.WriteString(header); err != nil {
			return err
		}
		s.width, s.height = f.Width, f.Height
		s.headerWritten = true
	} else if f.Width != s.width || f.Height != s.height {
		return fmt.Errorf("Y4MSink: dimension change %dx%d -> %dx%d not supported", s.width, s.height, f.Width, f.Height)
	}

	// frame header
	if _, err := s.writer.WriteString("FRAME\n"); err != nil {
		return err
	}
	for i := range f.Planes {
		for r := range f.PlaneHeight(i) {
			if _, err := s.writer.Write(f.Row(i, r)); err != nil {
				return err
			}
		}
	}
	return s.writer.Flush()
}

// Close implements Sink.
func (s *Y4MSink) Close() error {
	if s.file == nil {
		return nil
	}
	flushErr := s.writer.Flush()
	closeErr := s.file.Close()
	s.file = nil
	s.writer = nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
