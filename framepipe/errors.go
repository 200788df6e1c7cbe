package framepipe

import (
	"errors"
	"fmt"
)

var (
	// ErrNotOpen is returned by Push before a successful Open.
	ErrNotOpen = errors.New("framepipe: sink not open")

	// ErrStopped is returned by Push after a failed write stopped the sink.
	ErrStopped = errors.New("framepipe: sink stopped")

	// ErrResource reports a failure to create or open the pipe.
	ErrResource = errors.New("framepipe: pipe setup failed")

	// ErrWrite reports a short write or an I/O error on the pipe.
	ErrWrite = errors.New("framepipe: write failed")

	// ErrDisconnect is the ErrWrite caused by the reader closing its end.
	ErrDisconnect = fmt.Errorf("%w: reader disconnected", ErrWrite)

	// ErrAllocation reports a failure to grow the frame buffer.
	ErrAllocation = errors.New("framepipe: frame buffer allocation failed")

	// ErrInvalidFrame is returned for frames whose planes do not match their
	// dimensions and strides.
	ErrInvalidFrame = errors.New("framepipe: invalid frame")

	// ErrFrameTooLarge is returned by Reader for a dimension packet above
	// MaxPixels.
	ErrFrameTooLarge = errors.New("framepipe: frame dimensions too large")

	// ErrMissingHeader is returned by Reader for a frame packet that is not
	// preceded by a dimension packet.
	ErrMissingHeader = errors.New("framepipe: frame packet before dimension packet")
)
