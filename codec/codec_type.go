package codec

import "fmt"

// CodecType identifies the compression of encoded frames fed to a decoder.
type CodecType int

const (
	VP8 CodecType = iota
	VP9
)

func (c CodecType) String() string {
	switch c {
	case VP8:
		return "vp8"
	case VP9:
		return "vp9"
	default:
		return "unknown"
	}
}

// CodecFromFourCC maps an IVF FourCC to a codec type.
func CodecFromFourCC(fourcc string) (CodecType, error) {
	switch fourcc {
	case "VP80":
		return VP8, nil
	case "VP90":
		return VP9, nil
	default:
		return 0, fmt.Errorf("unsupported fourcc: %q", fourcc)
	}
}
