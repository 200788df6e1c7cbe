package ivf

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"testing"

	"github.com/mengelbart/yuvpipe/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ivfFile(fourcc string, frames ...[]byte) io.ReadCloser {
	var b bytes.Buffer
	header := make([]byte, 32)
	copy(header[0:4], "DKIF")
	binary.LittleEndian.PutUint16(header[4:], 0)
	binary.LittleEndian.PutUint16(header[6:], 32)
	copy(header[8:12], fourcc)
	binary.LittleEndian.PutUint16(header[12:], 320)
	binary.LittleEndian.PutUint16(header[14:], 240)
	binary.LittleEndian.PutUint32(header[16:], 30)
	binary.LittleEndian.PutUint32(header[20:], 1)
	binary.LittleEndian.PutUint32(header[24:], uint32(len(frames)))
	b.Write(header)
	for i, f := range frames {
		fh := make([]byte, 12)
		binary.LittleEndian.PutUint32(fh[0:], uint32(len(f)))
		binary.LittleEndian.PutUint64(fh[4:], uint64(i))
		b.Write(fh)
		b.Write(f)
	}
	return io.NopCloser(&b)
}

func TestSource(t *testing.T) {
	src, err := NewSource(ivfFile("VP80", []byte{1, 2, 3}, []byte{4, 5}))
	require.NoError(t, err)
	defer src.Close()

	c, err := src.Codec()
	require.NoError(t, err)
	assert.Equal(t, codec.VP8, c)

	info := src.GetInfo()
	assert.Equal(t, uint(320), info.Width)
	assert.Equal(t, uint(240), info.Height)
	assert.Equal(t, codec.Rational{Num: 1, Den: 30}, info.TimeBase)

	var frames [][]byte
	var pts []int64
	err = src.StartLive(context.Background(), codec.WriterFunc(func(b []byte, attrs codec.Attributes) error {
		frames = append(frames, append([]byte(nil), b...))
		pts = append(pts, attrs[codec.PTS].(int64))
		assert.Equal(t, codec.Rational{Num: 1, Den: 30}, attrs[codec.TimeBase])
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{1, 2, 3}, {4, 5}}, frames)
	assert.Equal(t, []int64{0, 1}, pts)
}

func TestSourceUnsupportedCodec(t *testing.T) {
	src, err := NewSource(ivfFile("AV01"))
	require.NoError(t, err)

	_, err = src.Codec()
	assert.Error(t, err)
}
