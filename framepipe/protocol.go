package framepipe

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/mengelbart/yuvpipe/codec"
)

const (
	// Magic starts every dimension packet.
	Magic = "YUV4"

	// HeaderSize is the size of a dimension packet.
	HeaderSize = 12

	// TimestampSize is the size of the timestamp leading a frame packet.
	TimestampSize = 8

	// MaxPixels bounds width*height of the frames Reader accepts.
	MaxPixels = 1 << 30

	// magicWord is Magic read as a little-endian uint32, i.e. the low half
	// of a timestamp that a reader would mistake for a dimension packet.
	magicWord = uint32('Y') | uint32('U')<<8 | uint32('V')<<16 | uint32('4')<<24
)

// PayloadSize returns the number of YUV 4:2:0 bytes of a width x height
// frame.
func PayloadSize(width, height int) int {
	return width*height + 2*(width/2)*(height/2)
}

// PutHeader encodes a dimension packet into b, which must hold HeaderSize
// bytes.
func PutHeader(b []byte, width, height uint32) {
	_ = b[HeaderSize-1]
	copy(b[:4], Magic)
	binary.LittleEndian.PutUint32(b[4:8], width)
	binary.LittleEndian.PutUint32(b[8:12], height)
}

// ParseHeader decodes a dimension packet.
func ParseHeader(b []byte) (width, height uint32, err error) {
	if len(b) < HeaderSize {
		return 0, 0, fmt.Errorf("framepipe: short dimension packet: %d bytes", len(b))
	}
	if string(b[:4]) != Magic {
		return 0, 0, fmt.Errorf("framepipe: bad magic %q", b[:4])
	}
	return binary.LittleEndian.Uint32(b[4:8]), binary.LittleEndian.Uint32(b[8:12]), nil
}

// PutTimestamp encodes a timestamp in microseconds into b, which must hold
// TimestampSize bytes.
func PutTimestamp(b []byte, pts int64) {
	binary.LittleEndian.PutUint64(b[:TimestampSize], uint64(pts))
}

// ParseTimestamp decodes a timestamp written by PutTimestamp.
func ParseTimestamp(b []byte) int64 {
	return int64(binary.LittleEndian.Uint64(b[:TimestampSize]))
}

type PacketKind int

const (
	HeaderPacket PacketKind = iota + 1
	FramePacket
)

func (k PacketKind) String() string {
	switch k {
	case HeaderPacket:
		return "header"
	case FramePacket:
		return "frame"
	default:
		return "unknown"
	}
}

// Packet is one decoded protocol unit. Width and Height are set for both
// kinds; PTS and Payload only for frame packets.
type Packet struct {
	Kind    PacketKind
	Width   int
	Height  int
	PTS     int64
	Payload []byte
}

// Reader decodes the stream written by Sink.
type Reader struct {
	r      io.Reader
	width  int
	height int
	buf    [HeaderSize]byte
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadPacket reads the next packet. It returns io.EOF only at a packet
// boundary.
func (r *Reader) ReadPacket() (Packet, error) {
	if _, err := io.ReadFull(r.r, r.buf[:4]); err != nil {
		return Packet{}, err
	}

	if string(r.buf[:4]) == Magic {
		if err := r.readFull(r.buf[4:HeaderSize]); err != nil {
			return Packet{}, err
		}
		w, h, err := ParseHeader(r.buf[:])
		if err != nil {
			return Packet{}, err
		}
		if uint64(w)*uint64(h) > MaxPixels {
			return Packet{}, fmt.Errorf("%w: %dx%d", ErrFrameTooLarge, w, h)
		}
		r.width, r.height = int(w), int(h)
		return Packet{Kind: HeaderPacket, Width: r.width, Height: r.height}, nil
	}

	if r.width == 0 || r.height == 0 {
		return Packet{}, ErrMissingHeader
	}
	if err := r.readFull(r.buf[4:TimestampSize]); err != nil {
		return Packet{}, err
	}
	payload := make([]byte, PayloadSize(r.width, r.height))
	if err := r.readFull(payload); err != nil {
		return Packet{}, err
	}
	return Packet{
		Kind:    FramePacket,
		Width:   r.width,
		Height:  r.height,
		PTS:     ParseTimestamp(r.buf[:TimestampSize]),
		Payload: payload,
	}, nil
}

// ReadFrame skips dimension packets and returns the next frame with
// timestamps in microseconds.
func (r *Reader) ReadFrame() (*codec.Frame, error) {
	for {
		pkt, err := r.ReadPacket()
		if err != nil {
			return nil, err
		}
		if pkt.Kind != FramePacket {
			continue
		}
		f, err := codec.NewPackedFrame(pkt.Payload, pkt.Width, pkt.Height)
		if err != nil {
			return nil, err
		}
		f.PTS = pkt.PTS
		f.TimeBase = codec.Microseconds
		return f, nil
	}
}

// readFull reads inside a packet, where EOF means a truncated stream.
func (r *Reader) readFull(b []byte) error {
	_, err := io.ReadFull(r.r, b)
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
