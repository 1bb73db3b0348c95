package ffi

import (
	"fmt"

	"github.com/ebitengine/purego"
)

// libavutil
var (
	avutilVersion    func() uint32
	avFrameAlloc     func() uintptr
	avFrameFree      func(frame *uintptr)
	avFrameGetBuffer func(frame uintptr, align int32) int32
	avStrerror       func(errnum int32, buf *byte, size uintptr) int32
	avOptSet         func(obj uintptr, name, val string, flags int32) int32
	avOptSetInt      func(obj uintptr, name string, val int64, flags int32) int32
	avLogSetLevel    func(level int32)
	avGetPixFmtName  func(pixFmt int32) uintptr
)

// libavcodec
var (
	avcodecVersion           func() uint32
	avcodecFindEncoderByName func(name string) uintptr
	avcodecAllocContext3     func(codec uintptr) uintptr
	avcodecFreeContext       func(ctx *uintptr)
	avcodecOpen2             func(ctx, codec uintptr, options *uintptr) int32
	avcodecSendFrame         func(ctx, frame uintptr) int32
	avcodecReceivePacket     func(ctx, pkt uintptr) int32
	avPacketAlloc            func() uintptr
	avPacketFree             func(pkt *uintptr)
	avPacketUnref            func(pkt uintptr)
)

type binding struct {
	fptr any
	name string
}

func registerFunctions(util, codec uintptr) error {
	utilFuncs := []binding{
		{&avutilVersion, "avutil_version"},
		{&avFrameAlloc, "av_frame_alloc"},
		{&avFrameFree, "av_frame_free"},
		{&avFrameGetBuffer, "av_frame_get_buffer"},
		{&avStrerror, "av_strerror"},
		{&avOptSet, "av_opt_set"},
		{&avOptSetInt, "av_opt_set_int"},
		{&avLogSetLevel, "av_log_set_level"},
		{&avGetPixFmtName, "av_get_pix_fmt_name"},
	}
	codecFuncs := []binding{
		{&avcodecVersion, "avcodec_version"},
		{&avcodecFindEncoderByName, "avcodec_find_encoder_by_name"},
		{&avcodecAllocContext3, "avcodec_alloc_context3"},
		{&avcodecFreeContext, "avcodec_free_context"},
		{&avcodecOpen2, "avcodec_open2"},
		{&avcodecSendFrame, "avcodec_send_frame"},
		{&avcodecReceivePacket, "avcodec_receive_packet"},
		{&avPacketAlloc, "av_packet_alloc"},
		{&avPacketFree, "av_packet_free"},
		{&avPacketUnref, "av_packet_unref"},
	}

	if err := bindAll(util, utilFuncs); err != nil {
		return err
	}
	return bindAll(codec, codecFuncs)
}

func bindAll(handle uintptr, funcs []binding) error {
	for _, b := range funcs {
		sym, err := dlsymLibrary(handle, b.name)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", b.name, err)
		}
		purego.RegisterFunc(b.fptr, sym)
	}
	return nil
}
