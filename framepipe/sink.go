// Package framepipe streams decoded YUV 4:2:0 frames into a named pipe.
//
// All integers on the wire are little-endian.
//
// Dimension packet (12 bytes), sent before the first frame and whenever the
// dimensions change:
//
//	"YUV4" (4B) | width (4B) | height (4B)
//
// Frame packet, sent for every frame:
//
//	pts in microseconds (8B) | Y plane | U plane | V plane
//
// The planes are tightly packed, width*height*3/2 bytes in total. A reader
// reads 4 bytes and compares them with "YUV4". If they differ they are the
// low half of a timestamp. Sink never writes a timestamp whose low half
// equals the magic: such a timestamp goes out 1 microsecond late, so the
// value on the wire can differ from the frame's presentation time by 1us.
package framepipe

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/mengelbart/yuvpipe/codec"
)

type State int

const (
	Unopened State = iota
	Streaming
	Stopped
)

func (s State) String() string {
	switch s {
	case Unopened:
		return "unopened"
	case Streaming:
		return "streaming"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// DefaultMode grants read and write access to owner and group.
const DefaultMode = 0o660

type Option func(*Sink) error

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) error {
		s.logger = logger
		return nil
	}
}

// WithMode sets the permission bits of the created pipe.
func WithMode(mode uint32) Option {
	return func(s *Sink) error {
		if mode&^0o777 != 0 {
			return fmt.Errorf("invalid pipe mode: %o", mode)
		}
		s.mode = mode
		return nil
	}
}

// Sink writes frames to a named pipe. It implements codec.Sink and is not
// safe for concurrent use.
type Sink struct {
	path   string
	mode   uint32
	logger *slog.Logger

	// transport hooks, replaced in tests
	create func(path string, mode uint32) error
	open   func(ctx context.Context, path string, logger *slog.Logger) (pipeWriter, error)
	remove func(path string) error
	alloc  func(size int) []byte

	pipe     pipeWriter
	width    int
	height   int
	stopped  bool
	timeBase codec.Rational

	header [HeaderSize]byte
	ts     [TimestampSize]byte
	iov    [3][]byte

	// frame buffer for the copy path, only ever grows
	buf []byte
}

func NewSink(path string, opts ...Option) (*Sink, error) {
	s := &Sink{
		path:   path,
		mode:   DefaultMode,
		logger: slog.Default(),
		create: createFIFO,
		open:   openFIFO,
		remove: removeFIFO,
		alloc:  func(size int) []byte { return make([]byte, size) },
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "framepipe", "path", path)
	return s, nil
}

func (s *Sink) State() State {
	switch {
	case s.pipe == nil:
		return Unopened
	case s.stopped:
		return Stopped
	default:
		return Streaming
	}
}

// Open creates the pipe and blocks until a reader opens it or ctx is done.
// Frames without a time base are rescaled from i.TimeBase.
func (s *Sink) Open(ctx context.Context, i codec.Info) error {
	if s.pipe != nil {
		return fmt.Errorf("%w: already open", ErrResource)
	}
	if err := s.create(s.path, s.mode); err != nil {
		s.logger.Error("failed to create pipe", "error", err)
		return fmt.Errorf("%w: create %v: %w", ErrResource, s.path, err)
	}
	s.logger.Info("created pipe, waiting for reader")

	pipe, err := s.open(ctx, s.path, s.logger)
	if err != nil {
		s.logger.Error("failed to open pipe", "error", err)
		if rerr := s.remove(s.path); rerr != nil {
			s.logger.Warn("failed to remove pipe", "error", rerr)
		}
		return fmt.Errorf("%w: open %v: %w", ErrResource, s.path, err)
	}

	s.pipe = pipe
	s.width = 0
	s.height = 0
	s.stopped = false
	s.timeBase = i.TimeBase
	s.logger.Info("reader connected, streaming frames", "time-base", s.timeBase)
	return nil
}

// Push writes f, preceded by a dimension packet if its dimensions differ
// from the previous frame. Any write failure stops the sink for good.
func (s *Sink) Push(f *codec.Frame) error {
	switch s.State() {
	case Unopened:
		return ErrNotOpen
	case Stopped:
		return ErrStopped
	}
	if err := f.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFrame, err)
	}
	if uint64(f.Width) > math.MaxUint32 || uint64(f.Height) > math.MaxUint32 {
		return fmt.Errorf("%w: dimensions %dx%d exceed 32 bits", ErrInvalidFrame, f.Width, f.Height)
	}
	if err := s.push(f); err != nil {
		s.stopped = true
		return err
	}
	return nil
}

func (s *Sink) push(f *codec.Frame) error {
	if f.Width != s.width || f.Height != s.height {
		if err := s.writeHeader(f.Width, f.Height); err != nil {
			return err
		}
	}
	if err := s.writeTimestamp(s.timestamp(f)); err != nil {
		return err
	}
	return s.writePayload(f)
}

// timestamp returns the frame's presentation time in microseconds.
func (s *Sink) timestamp(f *codec.Frame) int64 {
	if f.PTS == codec.NoPTS {
		return 0
	}
	tb := f.TimeBase
	if tb.IsZero() {
		tb = s.timeBase
	}
	if tb.IsZero() {
		return 0
	}
	us := codec.Rescale(f.PTS, tb, codec.Microseconds)
	if us == codec.NoPTS {
		return 0
	}
	// The low half recurs every ~72 minutes of stream time, the first time
	// after ~14.6 minutes. Shifting by 1us keeps the stream unambiguous.
	if uint32(us) == magicWord {
		us++
	}
	return us
}

// Close closes the pipe and removes it from the file system. It is safe to
// call more than once.
func (s *Sink) Close() error {
	var err error
	if s.pipe != nil {
		err = s.pipe.Close()
		s.pipe = nil
	}
	if rerr := s.remove(s.path); rerr != nil {
		s.logger.Warn("failed to remove pipe", "error", rerr)
	}
	s.logger.Info("closed")
	return err
}
