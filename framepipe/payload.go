package framepipe

import (
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/mengelbart/yuvpipe/codec"
	"golang.org/x/sys/unix"
)

func (s *Sink) writeHeader(width, height int) error {
	PutHeader(s.header[:], uint32(width), uint32(height))
	n, err := s.pipe.Write(s.header[:])
	if err != nil || n != HeaderSize {
		return s.writeError("header", n, HeaderSize, err)
	}
	s.width = width
	s.height = height
	s.logger.Info("header written", "width", width, "height", height)
	return nil
}

func (s *Sink) writeTimestamp(us int64) error {
	PutTimestamp(s.ts[:], us)
	n, err := s.pipe.Write(s.ts[:])
	if err != nil || n != TimestampSize {
		return s.writeError("timestamp", n, TimestampSize, err)
	}
	return nil
}

// writePayload writes the planes of f without stride padding. Packed frames
// go out in a single vectored write, others are copied into the frame buffer
// first.
func (s *Sink) writePayload(f *codec.Frame) error {
	size := PayloadSize(f.Width, f.Height)
	if f.Packed() {
		for i := range s.iov {
			s.iov[i] = f.Planes[i][:f.PlaneSize(i)]
		}
		n, err := s.pipe.Writev(s.iov[:])
		s.iov = [3][]byte{}
		if err != nil || n != size {
			return s.writeError("payload", n, size, err)
		}
		return nil
	}

	buf, err := s.frameBuffer(size)
	if err != nil {
		s.logger.Error("failed to allocate frame buffer", "size", size, "error", err)
		return err
	}
	packPlanes(buf, f)
	n, err := s.pipe.Write(buf)
	if err != nil || n != size {
		return s.writeError("payload", n, size, err)
	}
	return nil
}

// frameBuffer returns the first size bytes of the frame buffer, growing it
// if needed.
func (s *Sink) frameBuffer(size int) (buf []byte, err error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrAllocation, size)
	}
	if size <= cap(s.buf) {
		return s.buf[:size], nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v bytes: %v", ErrAllocation, size, r)
		}
	}()
	grown := s.alloc(size)
	s.logger.Debug("grew frame buffer", "from", humanize.Bytes(uint64(cap(s.buf))), "to", humanize.Bytes(uint64(size)))
	s.buf = grown
	return s.buf, nil
}

// packPlanes copies the rows of all planes of f back to back into dst.
func packPlanes(dst []byte, f *codec.Frame) int {
	n := 0
	for i := range f.Planes {
		for r := range f.PlaneHeight(i) {
			n += copy(dst[n:], f.Row(i, r))
		}
	}
	return n
}

func (s *Sink) writeError(packet string, n, want int, err error) error {
	if err == nil {
		err = io.ErrShortWrite
	}
	if errors.Is(err, unix.EPIPE) {
		s.logger.Debug("reader disconnected", "packet", packet)
		return fmt.Errorf("%w: %v: %w", ErrDisconnect, packet, err)
	}
	s.logger.Warn("write failed", "packet", packet, "written", n, "want", want, "error", err)
	return fmt.Errorf("%w: %v: wrote %d of %d bytes: %w", ErrWrite, packet, n, want, err)
}
