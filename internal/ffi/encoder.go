package ffi

import (
	"fmt"
	"runtime"
	"unsafe"
)

// ContextConfig is the parameter set applied to an AVCodecContext before
// it is opened.
type ContextConfig struct {
	Width       int32
	Height      int32
	TimeBaseNum int32
	TimeBaseDen int32
	PixFmt      int32

	BitRate       int64
	MinRate       int64
	MaxRate       int64
	BufferSize    int64
	GlobalQuality int64
	GOPSize       int64

	ColorRange     int64
	ColorPrimaries int64
	ColorTrc       int64
	Colorspace     int64

	GlobalHeader bool

	// Options are encoder-private options, applied in order.
	Options [][2]string
}

// SetLogLevel sets libav's global log level.
func SetLogLevel(level int32) {
	if !libLoaded.Load() {
		return
	}
	avLogSetLevel(level)
}

// FindEncoder looks up an encoder by name.
func FindEncoder(name string) (uintptr, error) {
	if !libLoaded.Load() {
		return 0, ErrLibraryNotLoaded
	}
	codec := avcodecFindEncoderByName(name)
	runtime.KeepAlive(name)
	if codec == 0 {
		return 0, fmt.Errorf("%w: %s", ErrEncoderNotFound, name)
	}
	return codec, nil
}

// AllocContext allocates a codec context with the codec's private
// defaults applied.
func AllocContext(codec uintptr) (uintptr, error) {
	if !libLoaded.Load() {
		return 0, ErrLibraryNotLoaded
	}
	ctx := avcodecAllocContext3(codec)
	if ctx == 0 {
		return 0, fmt.Errorf("%w: codec context", ErrAllocFailed)
	}
	return ctx, nil
}

// FreeContext frees a codec context and zeroes the handle. Zero handles
// are ignored.
func FreeContext(ctx *uintptr) {
	if ctx == nil || *ctx == 0 || !libLoaded.Load() {
		return
	}
	avcodecFreeContext(ctx)
	*ctx = 0
}

// ConfigureContext applies cfg to an unopened codec context.
func ConfigureContext(ctx uintptr, cfg *ContextConfig) error {
	if !libLoaded.Load() {
		return ErrLibraryNotLoaded
	}
	if ctx == 0 || cfg == nil {
		return fmt.Errorf("configure context: nil argument")
	}

	writeInt32(ctx, offsetCtxWidth, cfg.Width)
	writeInt32(ctx, offsetCtxHeight, cfg.Height)
	writeInt32(ctx, offsetCtxTimeBase, cfg.TimeBaseNum)
	writeInt32(ctx, offsetCtxTimeBase+4, cfg.TimeBaseDen)
	writeInt32(ctx, offsetCtxPixFmt, cfg.PixFmt)

	ints := []struct {
		name string
		val  int64
	}{
		{"b", cfg.BitRate},
		{"minrate", cfg.MinRate},
		{"maxrate", cfg.MaxRate},
		{"bufsize", cfg.BufferSize},
		{"global_quality", cfg.GlobalQuality},
		{"g", cfg.GOPSize},
		{"color_range", cfg.ColorRange},
		{"color_primaries", cfg.ColorPrimaries},
		{"color_trc", cfg.ColorTrc},
		{"colorspace", cfg.Colorspace},
	}
	for _, o := range ints {
		if err := SetContextInt(ctx, o.name, o.val); err != nil {
			return err
		}
	}

	if cfg.GlobalHeader {
		if err := SetContextOption(ctx, "flags", "+global_header"); err != nil {
			return err
		}
	}

	for _, o := range cfg.Options {
		if err := SetContextOption(ctx, o[0], o[1]); err != nil {
			return err
		}
	}
	return nil
}

// SetContextInt sets an integer option on a codec context or its private
// data.
func SetContextInt(ctx uintptr, name string, val int64) error {
	if !libLoaded.Load() {
		return ErrLibraryNotLoaded
	}
	ret := avOptSetInt(ctx, name, val, optSearchChildren)
	runtime.KeepAlive(name)
	if err := AVError(ret); err != nil {
		return fmt.Errorf("set %s=%d: %w", name, val, err)
	}
	return nil
}

// SetContextOption sets a string option on a codec context or its
// private data.
func SetContextOption(ctx uintptr, name, value string) error {
	if !libLoaded.Load() {
		return ErrLibraryNotLoaded
	}
	ret := avOptSet(ctx, name, value, optSearchChildren)
	runtime.KeepAlive(name)
	runtime.KeepAlive(value)
	if err := AVError(ret); err != nil {
		return fmt.Errorf("set %s=%s: %w", name, value, err)
	}
	return nil
}

// OpenContext opens a configured codec context.
func OpenContext(ctx, codec uintptr) error {
	if !libLoaded.Load() {
		return ErrLibraryNotLoaded
	}
	return AVError(avcodecOpen2(ctx, codec, nil))
}

// Extradata returns a copy of the context's global headers.
func Extradata(ctx uintptr) []byte {
	if ctx == 0 || !libLoaded.Load() {
		return nil
	}
	ptr := readPtr(ctx, offsetCtxExtradata)
	size := int(readInt32(ctx, offsetCtxExtradataSize))
	if ptr == 0 || size <= 0 {
		return nil
	}
	return CopyBytes(nil, ptr, size)
}

// AllocFrame allocates a video frame with libav-owned buffers aligned to
// align bytes.
func AllocFrame(width, height, pixFmt, align int32) (uintptr, error) {
	if !libLoaded.Load() {
		return 0, ErrLibraryNotLoaded
	}
	f := avFrameAlloc()
	if f == 0 {
		return 0, fmt.Errorf("%w: frame", ErrAllocFailed)
	}
	writeInt32(f, offsetFrameWidth, width)
	writeInt32(f, offsetFrameHeight, height)
	writeInt32(f, offsetFrameFormat, pixFmt)

	if err := AVError(avFrameGetBuffer(f, align)); err != nil {
		avFrameFree(&f)
		return 0, fmt.Errorf("%w: frame buffer: %w", ErrAllocFailed, err)
	}
	return f, nil
}

// SetFrameColor sets the frame's color_range and colorspace fields. It is a
// no-op for a libavutil whose AVFrame layout is unknown.
func SetFrameColor(f uintptr, colorRange, colorspace int32) {
	if f == 0 || !libLoaded.Load() {
		return
	}
	rangeOff, spaceOff, ok := frameColorOffsets(int(avutilVersion() >> 16))
	if !ok {
		return
	}
	writeInt32(f, rangeOff, colorRange)
	writeInt32(f, spaceOff, colorspace)
}

// FreeFrame frees a frame and zeroes the handle. Zero handles are ignored.
func FreeFrame(f *uintptr) {
	if f == nil || *f == 0 || !libLoaded.Load() {
		return
	}
	avFrameFree(f)
	*f = 0
}

// FramePlanes returns the frame's plane data pointers and line sizes.
func FramePlanes(f uintptr) (data [frameDataPointers]uintptr, linesize [frameDataPointers]int) {
	for i := 0; i < frameDataPointers; i++ {
		data[i] = readPtr(f, offsetFrameData+uintptr(i)*8)
		linesize[i] = int(readInt32(f, offsetFrameLinesize+uintptr(i)*4))
	}
	return data, linesize
}

// PlaneSlice views size bytes of frame memory as a byte slice.
func PlaneSlice(ptr uintptr, size int) []byte {
	if ptr == 0 || size <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(ptr)), size)
}

// SetFramePTS sets the presentation timestamp of a frame.
func SetFramePTS(f uintptr, pts int64) {
	writeInt64(f, offsetFramePts, pts)
}

// SendFrame submits a frame to the encoder. A zero frame enters draining
// mode.
func SendFrame(ctx, f uintptr) error {
	if !libLoaded.Load() {
		return ErrLibraryNotLoaded
	}
	return AVError(avcodecSendFrame(ctx, f))
}

// AllocPacket allocates an empty packet.
func AllocPacket() (uintptr, error) {
	if !libLoaded.Load() {
		return 0, ErrLibraryNotLoaded
	}
	p := avPacketAlloc()
	if p == 0 {
		return 0, fmt.Errorf("%w: packet", ErrAllocFailed)
	}
	return p, nil
}

// FreePacket frees a packet and zeroes the handle. Zero handles are ignored.
func FreePacket(p *uintptr) {
	if p == nil || *p == 0 || !libLoaded.Load() {
		return
	}
	avPacketFree(p)
	*p = 0
}

// PacketInfo describes a received packet. Data points into libav memory
// that is valid until UnrefPacket.
type PacketInfo struct {
	Data  uintptr
	Size  int
	PTS   int64
	DTS   int64
	Flags int32
}

// ReceivePacket fetches the next encoded packet into pkt.
func ReceivePacket(ctx, pkt uintptr) (PacketInfo, error) {
	if !libLoaded.Load() {
		return PacketInfo{}, ErrLibraryNotLoaded
	}
	if err := AVError(avcodecReceivePacket(ctx, pkt)); err != nil {
		return PacketInfo{}, err
	}
	return PacketInfo{
		Data:  readPtr(pkt, offsetPacketData),
		Size:  int(readInt32(pkt, offsetPacketSize)),
		PTS:   readInt64(pkt, offsetPacketPts),
		DTS:   readInt64(pkt, offsetPacketDts),
		Flags: readInt32(pkt, offsetPacketFlags),
	}, nil
}

// UnrefPacket releases the packet's payload for reuse.
func UnrefPacket(pkt uintptr) {
	if pkt == 0 || !libLoaded.Load() {
		return
	}
	avPacketUnref(pkt)
}

// PixelFormatName returns libavutil's name for a pixel format.
func PixelFormatName(pixFmt int32) string {
	if !libLoaded.Load() {
		return ""
	}
	return GoString(avGetPixFmtName(pixFmt))
}
