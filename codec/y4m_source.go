package codec

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"

	"github.com/mengelbart/y4m"
	"golang.org/x/time/rate"
)

type Y4MSource struct {
	reader *y4m.Reader
	header *y4m.StreamHeader
	next   int64
}

func NewY4MSource(reader io.Reader) (*Y4MSource, error) {
	y4mReader, y4mHeader, err := y4m.NewReader(reader)
	if err != nil {
		return nil, err
	}
	if csr := convertSubsampleRatio(y4mHeader.ChromaSubsampling); csr != image.YCbCrSubsampleRatio420 {
		return nil, fmt.Errorf("unsupported y4m chroma subsampling: %v", csr)
	}
	if y4mHeader.FrameRate.Numerator <= 0 || y4mHeader.FrameRate.Denominator <= 0 {
		return nil, fmt.Errorf("invalid y4m frame rate: %v:%v", y4mHeader.FrameRate.Numerator, y4mHeader.FrameRate.Denominator)
	}
	return &Y4MSource{
		reader: y4mReader,
		header: y4mHeader,
	}, nil
}

// GetInfo returns the stream dimensions. The time base is the inverse frame
// rate, so frame indices are valid timestamps.
func (s *Y4MSource) GetInfo() Info {
	return Info{
		Width:  uint(s.header.Width),
		Height: uint(s.header.Height),
		TimeBase: Rational{
			Num: s.header.FrameRate.Denominator,
			Den: s.header.FrameRate.Numerator,
		},
	}
}

func (s *Y4MSource) GetFrame() ([]byte, Attributes, error) {
	frame, _, err := s.reader.ReadNextFrame()
	if err != nil {
		return nil, nil, err
	}
	attr := Attributes{
		ChromaSubsampling: convertSubsampleRatio(s.header.ChromaSubsampling),
		Width:             s.header.Width,
		Height:            s.header.Height,
		PTS:               s.next,
		TimeBase:          s.GetInfo().TimeBase,
	}
	s.next++
	return frame, attr, nil
}

// StartLive forwards frames to w until the file ends, ctx is done or w fails.
// With live set, frames are released at the file's frame rate.
func (s *Y4MSource) StartLive(ctx context.Context, w Writer, live bool) error {
	fps := float64(s.header.FrameRate.Numerator) / float64(s.header.FrameRate.Denominator)
	limiter := rate.NewLimiter(rate.Inf, 1)
	if live {
		limiter = rate.NewLimiter(rate.Limit(fps), 1)
	}
	for {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		frame, attrs, err := s.GetFrame()
		if errors.Is(err, io.EOF) {
			slog.Debug("y4m source done", "frames", s.next)
			return nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			slog.Warn("y4m file ends inside a frame", "frames", s.next)
			return fmt.Errorf("truncated y4m frame %v: %w", s.next, err)
		}
		if err != nil {
			return err
		}
		if err := w.Write(frame, attrs); err != nil {
			return err
		}
	}
}

func convertSubsampleRatio(s y4m.ChromaSubsamplingType) image.YCbCrSubsampleRatio {
	switch s {
	case y4m.CST411:
		return image.YCbCrSubsampleRatio411
	case y4m.CST420:
		return image.YCbCrSubsampleRatio420
	case y4m.CST420jpeg:
		return image.YCbCrSubsampleRatio420
	case y4m.CST420mpeg2:
		return image.YCbCrSubsampleRatio420
	case y4m.CST420paldv:
		return image.YCbCrSubsampleRatio420
	case y4m.CST422:
		return image.YCbCrSubsampleRatio422
	case y4m.CST444:
		return image.YCbCrSubsampleRatio444
	case y4m.CST444Alpha:
		return image.YCbCrSubsampleRatio444
	default:
		panic(fmt.Sprintf("unexpected y4m.ChromaSubsamplingType: %#v", s))
	}
}
