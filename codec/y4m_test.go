package codec

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeY4M(t *testing.T, frames int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.y4m")
	sink := NewY4MSink(path, 30, 1)
	require.NoError(t, sink.Open(context.Background(), Info{}))

	for i := range frames {
		// padded luma rows must not end up in the file
		f := &Frame{
			Width:  4,
			Height: 2,
			Planes: [3][]byte{
				{byte(i), 1, 2, 3, 0xee, 4, 5, 6, 7, 0xee},
				{8, 9},
				{10, 11},
			},
			Strides: [3]int{5, 2, 2},
		}
		require.NoError(t, sink.Push(f))
	}
	require.NoError(t, sink.Close())
	return path
}

func TestY4MSink(t *testing.T) {
	path := writeY4M(t, 2)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	frame := func(i byte) string {
		return "FRAME\n" + string([]byte{i, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11})
	}
	assert.Equal(t, "YUV4MPEG2 W4 H2 F30:1 Ip A0:0 C420jpeg\n"+frame(0)+frame(1), string(b))
}

func TestY4MSinkDimensionChange(t *testing.T) {
	sink := NewY4MSink(filepath.Join(t.TempDir(), "test.y4m"), 30, 1)
	assert.Error(t, sink.Push(&Frame{}))

	require.NoError(t, sink.Open(context.Background(), Info{}))
	defer sink.Close()

	f, err := NewPackedFrame(make([]byte, 6), 2, 2)
	require.NoError(t, err)
	require.NoError(t, sink.Push(f))

	f, err = NewPackedFrame(make([]byte, 12), 4, 2)
	require.NoError(t, err)
	assert.Error(t, sink.Push(f))
}

func TestY4MSource(t *testing.T) {
	file, err := os.Open(writeY4M(t, 3))
	require.NoError(t, err)
	defer file.Close()

	source, err := NewY4MSource(file)
	require.NoError(t, err)

	info := source.GetInfo()
	assert.Equal(t, uint(4), info.Width)
	assert.Equal(t, uint(2), info.Height)
	assert.Equal(t, Rational{Num: 1, Den: 30}, info.TimeBase)

	for i := range 3 {
		frame, attrs, err := source.GetFrame()
		require.NoError(t, err)
		assert.Equal(t, []byte{byte(i), 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, frame)
		assert.Equal(t, int64(i), attrs[PTS])
		assert.Equal(t, 4, attrs[Width])
	}
}

func TestY4MSourceTruncated(t *testing.T) {
	path := writeY4M(t, 2)
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, info.Size()-3))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	source, err := NewY4MSource(file)
	require.NoError(t, err)

	sink := &recordingSink{}
	err = source.StartLive(context.Background(), NewSinkWriter(sink), false)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Len(t, sink.frames, 1)
}

func TestY4MSourceLive(t *testing.T) {
	path := writeY4M(t, 3)

	synctest.Test(t, func(t *testing.T) {
		file, err := os.Open(path)
		require.NoError(t, err)
		defer file.Close()

		source, err := NewY4MSource(file)
		require.NoError(t, err)

		sink := &recordingSink{}
		var times []time.Duration
		start := time.Now()
		w := WriterFunc(func(b []byte, attrs Attributes) error {
			times = append(times, time.Since(start))
			return NewSinkWriter(sink).Write(b, attrs)
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// the third read hits the end of the file
		_ = source.StartLive(ctx, w, true)
		require.Len(t, sink.frames, 3)
		assert.Equal(t, time.Duration(0), times[0])
		assert.GreaterOrEqual(t, times[2], 60*time.Millisecond)
	})
}
