package codec

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

// NoPTS marks a frame without a presentation timestamp.
const NoPTS int64 = math.MinInt64

// Rational is a time base: one tick lasts Num/Den seconds.
type Rational struct {
	Num int
	Den int
}

// Microseconds is the time base of timestamps written to the wire.
var Microseconds = Rational{Num: 1, Den: 1_000_000}

func (r Rational) IsZero() bool {
	return r.Num == 0 || r.Den == 0
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// Rescale converts a from time base src to time base dst, rounding half away
// from zero. Results that do not fit into an int64 saturate to NoPTS.
func Rescale(a int64, src, dst Rational) int64 {
	b := int64(src.Num) * int64(dst.Den)
	c := int64(src.Den) * int64(dst.Num)
	if c == 0 {
		return NoPTS
	}
	if c < 0 {
		b, c = -b, -c
	}
	neg := (a < 0) != (b < 0)

	hi, lo := bits.Mul64(absU64(a), absU64(b))
	var carry uint64
	lo, carry = bits.Add64(lo, uint64(c)/2, 0)
	hi += carry
	if hi >= uint64(c) {
		return NoPTS
	}
	q, _ := bits.Div64(hi, lo, uint64(c))
	if q > math.MaxInt64 {
		return NoPTS
	}
	if neg {
		return -int64(q)
	}
	return int64(q)
}

func absU64(v int64) uint64 {
	if v < 0 {
		return uint64(-v)
	}
	return uint64(v)
}

var ErrFrameLayout = errors.New("invalid frame layout")

// Frame is a planar YUV 4:2:0 picture. Planes[0] holds luma, Planes[1] and
// Planes[2] the quarter resolution chroma planes. Strides may exceed the
// logical row width.
type Frame struct {
	Width    int
	Height   int
	Planes   [3][]byte
	Strides  [3]int
	PTS      int64
	TimeBase Rational
}

// NewPackedFrame wraps a tightly packed Y, U, V buffer without copying.
func NewPackedFrame(b []byte, width, height int) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrFrameLayout, width, height)
	}
	ySize := width * height
	cSize := (width / 2) * (height / 2)
	if len(b) < ySize+2*cSize {
		return nil, fmt.Errorf("%w: buffer too short: %v < %v", ErrFrameLayout, len(b), ySize+2*cSize)
	}
	return &Frame{
		Width:  width,
		Height: height,
		Planes: [3][]byte{
			b[:ySize],
			b[ySize : ySize+cSize],
			b[ySize+cSize : ySize+2*cSize],
		},
		Strides: [3]int{width, width / 2, width / 2},
		PTS:     NoPTS,
	}, nil
}

// PlaneWidth returns the logical row width of plane i in bytes.
func (f *Frame) PlaneWidth(i int) int {
	if i == 0 {
		return f.Width
	}
	return f.Width / 2
}

// PlaneHeight returns the number of rows of plane i.
func (f *Frame) PlaneHeight(i int) int {
	if i == 0 {
		return f.Height
	}
	return f.Height / 2
}

// PlaneSize returns the size of plane i without stride padding.
func (f *Frame) PlaneSize(i int) int {
	return f.PlaneWidth(i) * f.PlaneHeight(i)
}

// Packed reports whether every stride equals its plane's row width.
func (f *Frame) Packed() bool {
	for i := range f.Planes {
		if f.Strides[i] != f.PlaneWidth(i) {
			return false
		}
	}
	return true
}

// Validate checks that every plane holds enough bytes for its dimensions and
// stride.
func (f *Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrFrameLayout, f.Width, f.Height)
	}
	for i, p := range f.Planes {
		w, h := f.PlaneWidth(i), f.PlaneHeight(i)
		if f.Strides[i] < w {
			return fmt.Errorf("%w: plane %d stride %d < width %d", ErrFrameLayout, i, f.Strides[i], w)
		}
		if h == 0 {
			continue
		}
		if h > 1 && f.Strides[i] > (math.MaxInt-w)/(h-1) {
			return fmt.Errorf("%w: plane %d stride %d overflows", ErrFrameLayout, i, f.Strides[i])
		}
		if need := (h-1)*f.Strides[i] + w; len(p) < need {
			return fmt.Errorf("%w: plane %d has %d bytes, need %d", ErrFrameLayout, i, len(p), need)
		}
	}
	return nil
}

// Row returns row r of plane i without stride padding.
func (f *Frame) Row(i, r int) []byte {
	off := r * f.Strides[i]
	return f.Planes[i][off : off+f.PlaneWidth(i)]
}
