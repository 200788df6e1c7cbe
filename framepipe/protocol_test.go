package framepipe

import (
	"bytes"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	for _, d := range [][2]uint32{
		{2, 2},
		{640, 480},
		{1920, 1080},
		{7680, 4320},
		{math.MaxUint32 - 1, 2},
	} {
		var b [HeaderSize]byte
		PutHeader(b[:], d[0], d[1])
		assert.Equal(t, Magic, string(b[:4]))

		w, h, err := ParseHeader(b[:])
		require.NoError(t, err)
		assert.Equal(t, d, [2]uint32{w, h})
	}
}

func TestHeaderLayout(t *testing.T) {
	var b [HeaderSize]byte
	PutHeader(b[:], 0x0102, 0x030405)
	assert.Equal(t, []byte{'Y', 'U', 'V', '4', 0x02, 0x01, 0, 0, 0x05, 0x04, 0x03, 0}, b[:])
}

func TestParseHeaderErrors(t *testing.T) {
	_, _, err := ParseHeader([]byte("YUV4"))
	assert.Error(t, err)

	_, _, err = ParseHeader([]byte("YUV5\x02\x00\x00\x00\x02\x00\x00\x00"))
	assert.Error(t, err)
}

func TestTimestampRoundTrip(t *testing.T) {
	for _, ts := range []int64{0, 1, -1, 33_333, 1 << 40, math.MaxInt64, math.MinInt64, -123_456_789} {
		var b [TimestampSize]byte
		PutTimestamp(b[:], ts)
		assert.Equal(t, ts, ParseTimestamp(b[:]))
	}

	var b [TimestampSize]byte
	PutTimestamp(b[:], -2)
	assert.Equal(t, []byte{0xfe, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, b[:])
}

func TestMagicWord(t *testing.T) {
	var b [TimestampSize]byte
	PutTimestamp(b[:], int64(magicWord))
	assert.Equal(t, Magic, string(b[:4]))
}

func TestPayloadSize(t *testing.T) {
	assert.Equal(t, 6, PayloadSize(2, 2))
	assert.Equal(t, 640*480*3/2, PayloadSize(640, 480))
}

func stream(packets ...[]byte) *bytes.Reader {
	return bytes.NewReader(bytes.Join(packets, nil))
}

func header(w, h uint32) []byte {
	b := make([]byte, HeaderSize)
	PutHeader(b, w, h)
	return b
}

func timestamp(ts int64) []byte {
	b := make([]byte, TimestampSize)
	PutTimestamp(b, ts)
	return b
}

func TestReader(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6}
	r := NewReader(stream(
		header(2, 2),
		timestamp(10), payload,
		timestamp(20), payload,
		header(4, 2),
		timestamp(30), make([]byte, PayloadSize(4, 2)),
	))

	pkt, err := r.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, Packet{Kind: HeaderPacket, Width: 2, Height: 2}, pkt)

	f, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, int64(10), f.PTS)
	assert.Equal(t, []byte{1, 2, 3, 4}, f.Planes[0])
	assert.Equal(t, []byte{5}, f.Planes[1])
	assert.Equal(t, []byte{6}, f.Planes[2])

	pkt, err = r.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, FramePacket, pkt.Kind)
	assert.Equal(t, int64(20), pkt.PTS)

	f, err = r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, 4, f.Width)
	assert.Equal(t, int64(30), f.PTS)

	_, err = r.ReadPacket()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderErrors(t *testing.T) {
	_, err := NewReader(stream(timestamp(0), make([]byte, 6))).ReadPacket()
	assert.ErrorIs(t, err, ErrMissingHeader)

	_, err = NewReader(stream(header(2, 2)[:7])).ReadPacket()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	r := NewReader(stream(header(2, 2), timestamp(0), []byte{1, 2, 3}))
	_, err = r.ReadFrame()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReaderRejectsLargeDimensions(t *testing.T) {
	r := NewReader(stream(header(math.MaxUint32, math.MaxUint32), make([]byte, 16)))
	_, err := r.ReadPacket()
	assert.ErrorIs(t, err, ErrFrameTooLarge)

	// a frame packet after the rejected header has no dimensions to use
	_, err = r.ReadPacket()
	assert.ErrorIs(t, err, ErrMissingHeader)

	r = NewReader(stream(header(1<<15, 1<<15+2)))
	_, err = r.ReadPacket()
	assert.ErrorIs(t, err, ErrFrameTooLarge)

	pkt, err := NewReader(stream(header(1<<15, 1<<15))).ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, Packet{Kind: HeaderPacket, Width: 1 << 15, Height: 1 << 15}, pkt)
}
