package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodecFromFourCC(t *testing.T) {
	c, err := CodecFromFourCC("VP80")
	assert.NoError(t, err)
	assert.Equal(t, VP8, c)

	c, err = CodecFromFourCC("VP90")
	assert.NoError(t, err)
	assert.Equal(t, "vp9", c.String())

	_, err = CodecFromFourCC("H264")
	assert.Error(t, err)
}
