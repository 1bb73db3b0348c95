package encoder

import (
	"bytes"
	"errors"
	"testing"

	"github.com/pion/logging"

	"github.com/thesyncim/hwenc/pkg/codec"
	"github.com/thesyncim/hwenc/pkg/frame"
)

// fakeEngine is a software Engine that delays output by a fixed number of
// frames and tracks every allocation it hands out.
type fakeEngine struct {
	delay     int
	gop       int
	extradata []byte

	openErr  error
	allocErr error
	sendErr  error
	recvErr  error

	params   *codec.Params
	opened   bool
	closed   bool
	eos      bool
	sent     int
	queue    []RawPacket
	frames   map[*frame.VideoFrame]bool
	ctxAlloc bool

	lastLuma  []byte
	drained   int
	rateCalls [][2]int64
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		delay:     0,
		gop:       30,
		extradata: []byte{0, 0, 0, 1, 0x67, 0x42, 0, 0, 0, 1, 0x68},
		frames:    make(map[*frame.VideoFrame]bool),
		ctxAlloc:  true,
	}
}

// factory returns an EngineFactory handing out e.
func (e *fakeEngine) factory() EngineFactory {
	return func(codec.Type) (Engine, error) { return e, nil }
}

// outstanding is the number of live allocations.
func (e *fakeEngine) outstanding() int {
	n := len(e.frames)
	if e.ctxAlloc {
		n++
	}
	return n
}

func (e *fakeEngine) Open(p *codec.Params) error {
	e.params = p
	if e.openErr != nil {
		return e.openErr
	}
	e.opened = true
	return nil
}

func (e *fakeEngine) AllocFrame(format frame.PixelFormat, width, height, align int) (*frame.VideoFrame, error) {
	if e.allocErr != nil {
		return nil, e.allocErr
	}
	f := frame.NewAlignedFrame(format, width, height, align)
	e.frames[f] = true
	return f, nil
}

func (e *fakeEngine) FreeFrame(f *frame.VideoFrame) {
	delete(e.frames, f)
}

func (e *fakeEngine) SendFrame(f *frame.VideoFrame) error {
	if e.eos {
		return ErrEOF
	}
	if f == nil {
		e.eos = true
		return nil
	}
	if e.sendErr != nil {
		return e.sendErr
	}
	if !e.frames[f] {
		return ErrInvalidFrame
	}

	e.lastLuma = append(e.lastLuma[:0], f.Data[0]...)
	e.queue = append(e.queue, RawPacket{
		Data:     []byte{0, 0, 0, 1, byte(e.sent), byte(f.PTS)},
		PTS:      f.PTS,
		DTS:      f.PTS,
		Keyframe: e.sent%e.gop == 0,
	})
	e.sent++
	return nil
}

func (e *fakeEngine) ReceivePacket() (RawPacket, error) {
	if e.recvErr != nil {
		return RawPacket{}, e.recvErr
	}
	if len(e.queue) == 0 {
		if e.eos {
			return RawPacket{}, ErrEOF
		}
		return RawPacket{}, ErrAgain
	}
	if !e.eos && len(e.queue) <= e.delay {
		return RawPacket{}, ErrAgain
	}
	pkt := e.queue[0]
	e.queue = e.queue[1:]
	if e.eos {
		e.drained++
	}
	return pkt, nil
}

func (e *fakeEngine) Extradata() []byte {
	return e.extradata
}

func (e *fakeEngine) SetBitrate(bitRate, maxRate int64) error {
	e.rateCalls = append(e.rateCalls, [2]int64{bitRate, maxRate})
	return nil
}

func (e *fakeEngine) Close() error {
	e.closed = true
	e.ctxAlloc = false
	return nil
}

func testStream() *StaticStream {
	return NewStaticStream("test_amf", codec.VideoInfo{
		Width:      64,
		Height:     36,
		FPS:        codec.Rational{Num: 30, Den: 1},
		Format:     frame.PixelFormatNV12,
		ColorSpace: codec.ColorSpace709,
		Range:      codec.VideoRangePartial,
	})
}

// quietLogger returns a logger factory writing warnings to buf.
func quietLogger(buf *bytes.Buffer) logging.LoggerFactory {
	lf := logging.NewDefaultLoggerFactory()
	lf.Writer = buf
	lf.DefaultLogLevel = logging.LogLevelWarn
	return lf
}

func newTestSession(t *testing.T, e *fakeEngine, settings codec.Settings, opts ...Option) *Session {
	t.Helper()

	var buf bytes.Buffer
	opts = append([]Option{WithEngineFactory(e.factory()), WithLoggerFactory(quietLogger(&buf))}, opts...)
	s, err := Create(settings, testStream(), codec.H264, opts...)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return s
}

// testFrame returns an NV12 frame filled with a pattern derived from seed.
func testFrame(width, height int, seed byte, pts int64) *frame.VideoFrame {
	f := frame.NewNV12Frame(width, height)
	for p := range f.Data {
		for i := range f.Data[p] {
			f.Data[p][i] = seed + byte(i)
		}
	}
	f.PTS = pts
	return f
}

func encodeUntilOutput(t *testing.T, s *Session, start int64, attempts int) (Packet, int64) {
	t.Helper()

	pts := start
	for i := 0; i < attempts; i++ {
		pkt, ok, err := s.Encode(testFrame(64, 36, byte(pts), pts))
		pts++
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if ok {
			return pkt, pts
		}
	}
	t.Fatalf("no packet after %d frames", attempts)
	return Packet{}, pts
}

var errDevice = errors.New("device lost")
