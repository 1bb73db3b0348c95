package encoder

import (
	"errors"
	"fmt"

	"github.com/thesyncim/hwenc/internal/ffi"
	"github.com/thesyncim/hwenc/pkg/codec"
	"github.com/thesyncim/hwenc/pkg/frame"
)

// amfEngine runs h264_amf / hevc_amf through libavcodec.
type amfEngine struct {
	codec  uintptr
	ctx    uintptr
	pkt    uintptr
	frames map[*frame.VideoFrame]uintptr

	// Copied onto every frame so they match the context.
	colorRange int32
	colorspace int32

	// pending is set while pkt holds a reference that must be dropped
	// before the next receive.
	pending bool
}

// NewAMFEngine loads libavcodec on first use and looks up the AMF encoder
// for t.
func NewAMFEngine(t codec.Type) (Engine, error) {
	if err := ffi.LoadLibrary(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCodecNotFound, err)
	}

	c, err := ffi.FindEncoder(t.EncoderName())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCodecNotFound, err)
	}

	ctx, err := ffi.AllocContext(c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAllocFailed, err)
	}

	return &amfEngine{
		codec:  c,
		ctx:    ctx,
		frames: make(map[*frame.VideoFrame]uintptr),
	}, nil
}

func pixFmtFor(f frame.PixelFormat) int32 {
	switch f {
	case frame.PixelFormatI420:
		return ffi.PixFmtYUV420P
	case frame.PixelFormatNV12:
		return ffi.PixFmtNV12
	default:
		return ffi.PixFmtNone
	}
}

// PixelFormatName returns libavutil's name for f, or "" when it has none.
func (e *amfEngine) PixelFormatName(f frame.PixelFormat) string {
	pixFmt := pixFmtFor(f)
	if pixFmt == ffi.PixFmtNone {
		return ""
	}
	return ffi.PixelFormatName(pixFmt)
}

// engineError wraps libav failures so their text reaches the host.
func engineError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ffi.ErrAgain) || errors.Is(err, ffi.ErrEOF) {
		return err
	}
	ee := &EngineError{Op: op, Err: err}
	var ce *ffi.CodecError
	if errors.As(err, &ce) {
		ee.Code = int(ce.Code)
		ee.Text = ce.Message
	}
	return ee
}

// Open implements Engine.
func (e *amfEngine) Open(p *codec.Params) error {
	cfg := &ffi.ContextConfig{
		Width:          int32(p.Width),
		Height:         int32(p.Height),
		TimeBaseNum:    int32(p.TimeBase.Num),
		TimeBaseDen:    int32(p.TimeBase.Den),
		PixFmt:         pixFmtFor(p.PixelFormat),
		BitRate:        p.BitRate,
		MinRate:        p.RCMinRate,
		MaxRate:        p.RCMaxRate,
		BufferSize:     p.RCBufferSize,
		GlobalQuality:  int64(p.GlobalQuality),
		GOPSize:        int64(p.GOPSize),
		ColorRange:     int64(p.ColorRange),
		ColorPrimaries: int64(p.Color.Primaries),
		ColorTrc:       int64(p.Color.Transfer),
		Colorspace:     int64(p.Color.Matrix),
		GlobalHeader:   p.GlobalHeader,
	}
	for _, o := range p.Options {
		cfg.Options = append(cfg.Options, [2]string{o.Name, o.Value})
	}

	if err := ffi.ConfigureContext(e.ctx, cfg); err != nil {
		return engineError("configure", err)
	}
	e.colorRange = int32(cfg.ColorRange)
	e.colorspace = int32(cfg.Colorspace)
	if err := ffi.OpenContext(e.ctx, e.codec); err != nil {
		return engineError("open", err)
	}

	pkt, err := ffi.AllocPacket()
	if err != nil {
		return engineError("alloc packet", err)
	}
	e.pkt = pkt
	return nil
}

// AllocFrame implements Engine. The returned planes alias libav memory.
func (e *amfEngine) AllocFrame(format frame.PixelFormat, width, height, align int) (*frame.VideoFrame, error) {
	pixFmt := pixFmtFor(format)
	if pixFmt == ffi.PixFmtNone {
		return nil, fmt.Errorf("unsupported pixel format %s", format)
	}

	h, err := ffi.AllocFrame(int32(width), int32(height), pixFmt, int32(align))
	if err != nil {
		return nil, engineError("alloc frame", err)
	}
	ffi.SetFrameColor(h, e.colorRange, e.colorspace)

	data, linesize := ffi.FramePlanes(h)
	planes := format.Planes()
	f := &frame.VideoFrame{
		Width:  width,
		Height: height,
		Format: format,
		Data:   make([][]byte, planes),
		Stride: make([]int, planes),
	}
	for p := 0; p < planes; p++ {
		rows := frame.PlaneHeight(format, p, height)
		f.Data[p] = ffi.PlaneSlice(data[p], linesize[p]*rows)
		f.Stride[p] = linesize[p]
	}

	e.frames[f] = h
	return f, nil
}

// FreeFrame implements Engine.
func (e *amfEngine) FreeFrame(f *frame.VideoFrame) {
	h, ok := e.frames[f]
	if !ok {
		return
	}
	delete(e.frames, f)
	f.Data = nil
	ffi.FreeFrame(&h)
}

// SendFrame implements Engine.
func (e *amfEngine) SendFrame(f *frame.VideoFrame) error {
	if f == nil {
		return engineError("send", ffi.SendFrame(e.ctx, 0))
	}
	h, ok := e.frames[f]
	if !ok {
		return ErrInvalidFrame
	}
	ffi.SetFramePTS(h, f.PTS)
	return engineError("send", ffi.SendFrame(e.ctx, h))
}

// ReceivePacket implements Engine.
func (e *amfEngine) ReceivePacket() (RawPacket, error) {
	if e.pending {
		ffi.UnrefPacket(e.pkt)
		e.pending = false
	}

	info, err := ffi.ReceivePacket(e.ctx, e.pkt)
	if err != nil {
		return RawPacket{}, engineError("receive", err)
	}
	e.pending = true

	return RawPacket{
		Data:     ffi.PlaneSlice(info.Data, info.Size),
		PTS:      info.PTS,
		DTS:      info.DTS,
		Keyframe: info.Flags&ffi.PacketFlagKey != 0,
	}, nil
}

// Extradata implements Engine.
func (e *amfEngine) Extradata() []byte {
	return ffi.Extradata(e.ctx)
}

// SetBitrate implements Engine.
func (e *amfEngine) SetBitrate(bitRate, maxRate int64) error {
	if err := ffi.SetContextInt(e.ctx, "b", bitRate); err != nil {
		return engineError("set bitrate", err)
	}
	return engineError("set maxrate", ffi.SetContextInt(e.ctx, "maxrate", maxRate))
}

// Close implements Engine.
func (e *amfEngine) Close() error {
	if e.pending {
		ffi.UnrefPacket(e.pkt)
		e.pending = false
	}
	for f, h := range e.frames {
		ffi.FreeFrame(&h)
		delete(e.frames, f)
	}
	ffi.FreePacket(&e.pkt)
	ffi.FreeContext(&e.ctx)
	return nil
}
