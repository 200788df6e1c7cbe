package codec

import (
	"context"
	"fmt"
	"image"
)

// Info describes the stream a sink is opened for.
type Info struct {
	Width  uint
	Height uint

	// TimeBase applies to frames that do not carry their own time base.
	TimeBase Rational
}

type Writer interface {
	Write([]byte, Attributes) error
}

type WriterFunc func([]byte, Attributes) error

func (f WriterFunc) Write(b []byte, a Attributes) error {
	return f(b, a)
}

// Sink consumes decoded YUV 4:2:0 frames. A sink is driven by a single
// caller: Open once, Push per frame, Close once.
type Sink interface {
	// Open prepares the sink for a stream. It may block, e.g. until a
	// consumer attaches, and returns early when ctx is done.
	Open(ctx context.Context, i Info) error

	// Push writes one frame. The frame is only valid for the duration of
	// the call.
	Push(f *Frame) error

	Close() error
}

// NewSinkWriter returns a Writer that pushes tightly packed YUV 4:2:0
// buffers into s. Width, Height and PTS attributes are required, TimeBase is
// optional.
func NewSinkWriter(s Sink) Writer {
	return WriterFunc(func(b []byte, attrs Attributes) error {
		width, err := getWidth(attrs)
		if err != nil {
			return fmt.Errorf("SinkWriter: %w", err)
		}
		height, err := getHeight(attrs)
		if err != nil {
			return fmt.Errorf("SinkWriter: %w", err)
		}
		pts, err := getPTS(attrs)
		if err != nil {
			return fmt.Errorf("SinkWriter: %w", err)
		}
		if cs, err := getChromaSubsampling(attrs); err == nil && cs != image.YCbCrSubsampleRatio420 {
			return fmt.Errorf("SinkWriter: unsupported chroma subsampling: %v", cs)
		}
		f, err := NewPackedFrame(b, width, height)
		if err != nil {
			return fmt.Errorf("SinkWriter: %w", err)
		}
		f.PTS = pts
		f.TimeBase = getTimeBase(attrs)
		return s.Push(f)
	})
}
