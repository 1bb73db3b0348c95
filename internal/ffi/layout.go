package ffi

import "unsafe"

// AVFrame field offsets (FFmpeg 5.x through 7.x).
const (
	offsetFrameData     = 0   // uint8_t *data[8]
	offsetFrameLinesize = 64  // int linesize[8]
	offsetFrameWidth    = 104 // int width
	offsetFrameHeight   = 108 // int height
	offsetFrameFormat   = 116 // int format
	offsetFramePts      = 136 // int64_t pts

	frameDataPointers = 8
)

// frameColorOffsets returns the offsets of AVFrame color_range and
// colorspace for a libavutil major version. libavutil 59 dropped
// coded_picture_number, display_picture_number, reordered_opaque and
// channel_layout, which moves both fields 24 bytes closer to the start.
func frameColorOffsets(avutilMajor int) (colorRange, colorspace uintptr, ok bool) {
	switch avutilMajor {
	case 57, 58:
		return 320, 332, true
	case 59:
		return 296, 308, true
	default:
		return 0, 0, false
	}
}

// AVPacket field offsets (FFmpeg 5.x through 7.x).
const (
	offsetPacketPts   = 8  // int64 pts
	offsetPacketDts   = 16 // int64 dts
	offsetPacketData  = 24 // uint8_t *data
	offsetPacketSize  = 32 // int size
	offsetPacketFlags = 40 // int flags

	// PacketFlagKey marks a packet that starts with a keyframe.
	PacketFlagKey = 0x0001
)

// AVCodecContext field offsets. Only the leading fields, which did not move
// between FFmpeg 5.x and 7.x, are accessed directly; everything else goes
// through the AVOption API.
const (
	offsetCtxExtradata     = 88  // uint8_t *extradata
	offsetCtxExtradataSize = 96  // int extradata_size
	offsetCtxTimeBase      = 100 // AVRational time_base
	offsetCtxWidth         = 116 // int width
	offsetCtxHeight        = 120 // int height
	offsetCtxPixFmt        = 136 // enum AVPixelFormat pix_fmt
)

func readInt32(base uintptr, off uintptr) int32 {
	return *(*int32)(unsafe.Pointer(base + off))
}

func writeInt32(base uintptr, off uintptr, v int32) {
	*(*int32)(unsafe.Pointer(base + off)) = v
}

func readInt64(base uintptr, off uintptr) int64 {
	return *(*int64)(unsafe.Pointer(base + off))
}

func writeInt64(base uintptr, off uintptr, v int64) {
	*(*int64)(unsafe.Pointer(base + off)) = v
}

func readPtr(base uintptr, off uintptr) uintptr {
	return *(*uintptr)(unsafe.Pointer(base + off))
}
