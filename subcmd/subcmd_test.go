package subcmd

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime/debug"
	"testing"

	"github.com/mengelbart/yuvpipe/codec"
	"github.com/mengelbart/yuvpipe/framepipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadStream(t *testing.T) {
	var stream bytes.Buffer
	header := make([]byte, framepipe.HeaderSize)
	framepipe.PutHeader(header, 2, 2)
	stream.Write(header)
	for i := range 2 {
		ts := make([]byte, framepipe.TimestampSize)
		framepipe.PutTimestamp(ts, int64(i)*33_333)
		stream.Write(ts)
		stream.Write([]byte{byte(i), 1, 2, 3, 4, 5})
	}

	path := filepath.Join(t.TempDir(), "out.y4m")
	sink := codec.NewY4MSink(path, 30, 1)
	require.NoError(t, sink.Open(t.Context(), codec.Info{}))
	require.NoError(t, readStream(&stream, sink))
	require.NoError(t, sink.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "YUV4MPEG2 W2 H2 F30:1 Ip A0:0 C420jpeg\n"+
		"FRAME\n\x00\x01\x02\x03\x04\x05"+
		"FRAME\n\x01\x01\x02\x03\x04\x05", string(b))
}

func TestReadStreamTruncated(t *testing.T) {
	header := make([]byte, framepipe.HeaderSize)
	framepipe.PutHeader(header, 2, 2)
	stream := bytes.NewReader(append(header, 0, 0, 0, 0, 0, 0, 0, 0, 1, 2))

	assert.Error(t, readStream(stream, nil))
}

func TestVersion(t *testing.T) {
	v := newVersion(&debug.BuildInfo{
		Main: debug.Module{Path: "github.com/mengelbart/yuvpipe", Version: "v0.1.0"},
		Deps: []*debug.Module{{Path: "golang.org/x/sys", Version: "v0.40.0"}},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	var buf bytes.Buffer
	v.print(&buf, true)
	assert.Contains(t, buf.String(), "v0.1.0")
	assert.Contains(t, buf.String(), "abc123+dirty")
	assert.Contains(t, buf.String(), "golang.org/x/sys v0.40.0")
}
