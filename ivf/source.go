package ivf

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mengelbart/yuvpipe/codec"
	"github.com/pion/webrtc/v4/pkg/media/ivfreader"
)

// Source reads encoded VP8/VP9 frames from an IVF container.
type Source struct {
	reader *ivfreader.IVFReader
	header *ivfreader.IVFFileHeader
	closer io.Closer
}

func NewSource(rc io.ReadCloser) (*Source, error) {
	ivfReader, ivfHeader, err := ivfreader.NewWith(rc)
	if err != nil {
		return nil, err
	}
	if ivfHeader.TimebaseNumerator == 0 || ivfHeader.TimebaseDenominator == 0 {
		return nil, fmt.Errorf("invalid ivf time base: %v/%v", ivfHeader.TimebaseNumerator, ivfHeader.TimebaseDenominator)
	}
	return &Source{
		reader: ivfReader,
		header: ivfHeader,
		closer: rc,
	}, nil
}

// Codec maps the IVF FourCC to a codec type.
func (s *Source) Codec() (codec.CodecType, error) {
	return codec.CodecFromFourCC(s.header.FourCC)
}

func (s *Source) GetInfo() codec.Info {
	return codec.Info{
		Width:  uint(s.header.Width),
		Height: uint(s.header.Height),
		TimeBase: codec.Rational{
			Num: int(s.header.TimebaseNumerator),
			Den: int(s.header.TimebaseDenominator),
		},
	}
}

// StartLive forwards every encoded frame to w until the file ends, ctx is
// done or w fails.
func (s *Source) StartLive(ctx context.Context, w codec.Writer) error {
	tb := s.GetInfo().TimeBase
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		payload, frameHeader, err := s.reader.ParseNextFrame()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		attrs := codec.Attributes{
			codec.PTS:      int64(frameHeader.Timestamp),
			codec.TimeBase: tb,
		}
		if err := w.Write(payload, attrs); err != nil {
			return err
		}
	}
}

func (s *Source) Close() error {
	return s.closer.Close()
}
