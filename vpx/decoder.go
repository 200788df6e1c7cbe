// Package vpx decodes VP8 and VP9 frames with libvpx.
package vpx

import (
	"errors"
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/mengelbart/yuvpipe/codec"
)

/*
#cgo pkg-config: vpx
#include <stdlib.h>
#include <vpx/vpx_decoder.h>
#include <vpx/vp8dx.h>
#include <vpx/vpx_image.h>


vpx_codec_iface_t *ifaceVP8Decoder() {
   return vpx_codec_vp8_dx();
}
vpx_codec_iface_t *ifaceVP9Decoder() {
   return vpx_codec_vp9_dx();
}

// Allocates a new decoder context
vpx_codec_ctx_t* newDecoderCtx() {
    return (vpx_codec_ctx_t*)malloc(sizeof(vpx_codec_ctx_t));
}

// Initializes the decoder
vpx_codec_err_t decoderInit(vpx_codec_ctx_t* ctx, vpx_codec_iface_t* iface) {
    return vpx_codec_dec_init_ver(ctx, iface, NULL, 0, VPX_DECODER_ABI_VERSION);
}

// Decodes an encoded frame
vpx_codec_err_t decodeFrame(vpx_codec_ctx_t* ctx, const uint8_t* data, unsigned int data_sz) {
    return vpx_codec_decode(ctx, data, data_sz, NULL, 0);
}

// Returns the next decoded frame
vpx_image_t* getFrame(vpx_codec_ctx_t* ctx, vpx_codec_iter_t* iter) {
    return vpx_codec_get_frame(ctx, iter);
}

// Frees a decoder context
void freeDecoderCtx(vpx_codec_ctx_t* ctx) {
    vpx_codec_destroy(ctx);
    free(ctx);
}

*/
import "C"

// ErrNoImage is returned when the decoder consumed a frame without producing
// a picture, e.g. for a frame that is not shown.
var ErrNoImage = errors.New("decoder produced no image")

type Decoder struct {
	codecCtx *C.vpx_codec_ctx_t
	closed   bool

	iter C.vpx_codec_iter_t
}

func NewDecoder(c codec.CodecType) (*Decoder, error) {
	var iface *C.vpx_codec_iface_t
	switch c {
	case codec.VP8:
		iface = C.ifaceVP8Decoder()
	case codec.VP9:
		iface = C.ifaceVP9Decoder()
	default:
		return nil, fmt.Errorf("unsupported decoder codec: %v", c)
	}

	ctx := C.newDecoderCtx()
	if C.decoderInit(ctx, iface) != C.VPX_CODEC_OK {
		C.free(unsafe.Pointer(ctx))
		return nil, fmt.Errorf("vpx_codec_dec_init failed")
	}

	return &Decoder{
		codecCtx: ctx,
	}, nil
}

// Decode decodes one encoded frame. The returned frame points into decoder
// owned memory with libvpx strides and stays valid until the next call to
// Decode or Close.
func (d *Decoder) Decode(encFrame []byte, attrs codec.Attributes) (*codec.Frame, error) {
	if d.closed {
		return nil, fmt.Errorf("decoder is closed")
	}
	if len(encFrame) == 0 {
		return nil, fmt.Errorf("decode failed: empty frame")
	}

	status := C.decodeFrame(d.codecCtx, (*C.uint8_t)(&encFrame[0]), C.uint(len(encFrame)))
	if status != C.VPX_CODEC_OK {
		return nil, fmt.Errorf("decode failed: %v", status)
	}

	d.iter = nil

	img := C.getFrame(d.codecCtx, &d.iter)
	if img == nil {
		return nil, ErrNoImage
	}
	if img.fmt != C.VPX_IMG_FMT_I420 {
		return nil, fmt.Errorf("decode failed: unsupported image format: %v", img.fmt)
	}

	w := int(img.d_w)
	h := int(img.d_h)
	yStride := int(img.stride[0])
	uStride := int(img.stride[1])
	vStride := int(img.stride[2])
	ch := (h + 1) / 2

	pts, ok := attrs[codec.PTS].(int64)
	if !ok {
		pts = codec.NoPTS
	}
	tb, _ := attrs[codec.TimeBase].(codec.Rational)

	frame := &codec.Frame{
		Width:  w,
		Height: h,
		Planes: [3][]byte{
			unsafe.Slice((*byte)(unsafe.Pointer(img.planes[0])), yStride*h),
			unsafe.Slice((*byte)(unsafe.Pointer(img.planes[1])), uStride*ch),
			unsafe.Slice((*byte)(unsafe.Pointer(img.planes[2])), vStride*ch),
		},
		Strides:  [3]int{yStride, uStride, vStride},
		PTS:      pts,
		TimeBase: tb,
	}
	slog.Debug("decoded frame", "width", w, "height", h, "y-stride", yStride, "pts", pts)
	return frame, nil
}

// Into returns a Writer that decodes encoded frames and pushes the pictures
// into s. Frames that produce no picture are skipped.
func (d *Decoder) Into(s codec.Sink) codec.Writer {
	return codec.WriterFunc(func(encFrame []byte, attrs codec.Attributes) error {
		frame, err := d.Decode(encFrame, attrs)
		if errors.Is(err, ErrNoImage) {
			return nil
		}
		if err != nil {
			return err
		}
		return s.Push(frame)
	})
}

func (d *Decoder) Close() {
	if d.closed {
		return
	}
	C.freeDecoderCtx(d.codecCtx)
	d.closed = true
}
