package encoder

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pion/logging"

	"github.com/thesyncim/hwenc/pkg/codec"
	"github.com/thesyncim/hwenc/pkg/frame"
	"github.com/thesyncim/hwenc/pkg/metrics"
)

func TestCreateOpensEngine(t *testing.T) {
	e := newFakeEngine()
	s := newTestSession(t, e, codec.DefaultSettings())
	defer s.Destroy()

	if !s.opened {
		t.Fatal("session should be opened")
	}
	if s.frame == nil {
		t.Fatal("frame buffer should be allocated")
	}
	if s.frame.Format != frame.PixelFormatNV12 || s.frame.Width != 64 || s.frame.Height != 36 {
		t.Errorf("frame = %v %dx%d", s.frame.Format, s.frame.Width, s.frame.Height)
	}
	if s.frame.Stride[0]%codec.FrameAlign != 0 {
		t.Errorf("stride %d not aligned to %d", s.frame.Stride[0], codec.FrameAlign)
	}
	if !e.params.GlobalHeader {
		t.Error("engine must be opened with global headers")
	}
	if e.params.RCMinRate != 2_500_000 || e.params.RCMaxRate != 2_500_000 {
		t.Errorf("CBR rates = %d/%d", e.params.RCMinRate, e.params.RCMaxRate)
	}
	if e.params.GOPSize != codec.DefaultGOPSize {
		t.Errorf("GOPSize = %d, want %d", e.params.GOPSize, codec.DefaultGOPSize)
	}
	if s.state != stateIdle {
		t.Errorf("state = %v, want idle", s.state)
	}
}

// namedEngine reports pixel format names the way the libav engine does.
type namedEngine struct {
	*fakeEngine
	names map[frame.PixelFormat]string
}

func (e namedEngine) PixelFormatName(f frame.PixelFormat) string {
	return e.names[f]
}

func TestSettingsLogFormatName(t *testing.T) {
	tests := []struct {
		name  string
		names map[frame.PixelFormat]string
		want  string
	}{
		{"engine name", map[frame.PixelFormat]string{frame.PixelFormatNV12: "nv12le"}, "format:       nv12le"},
		{"no engine name", nil, "format:       " + frame.PixelFormatNV12.String()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := namedEngine{fakeEngine: newFakeEngine(), names: tt.names}
			var logs bytes.Buffer
			lf := logging.NewDefaultLoggerFactory()
			lf.Writer = &logs
			lf.DefaultLogLevel = logging.LogLevelInfo

			s, err := Create(codec.DefaultSettings(), testStream(), codec.H264,
				WithEngineFactory(func(codec.Type) (Engine, error) { return e, nil }),
				WithLoggerFactory(lf))
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			defer s.Destroy()

			if !strings.Contains(logs.String(), tt.want) {
				t.Errorf("settings log = %q, want it to contain %q", logs.String(), tt.want)
			}
		})
	}
}

func TestEncodeProducesPackets(t *testing.T) {
	e := newFakeEngine()
	s := newTestSession(t, e, codec.DefaultSettings())
	defer s.Destroy()

	src := testFrame(64, 36, 7, 100)
	pkt, ok, err := s.Encode(src)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !ok {
		t.Fatal("expected a packet")
	}
	if pkt.PTS != 100 || pkt.DTS != 100 {
		t.Errorf("pts/dts = %d/%d, want 100", pkt.PTS, pkt.DTS)
	}
	if !pkt.Keyframe {
		t.Error("first packet should be a keyframe")
	}
	if pkt.Kind != MediaVideo {
		t.Errorf("Kind = %v, want video", pkt.Kind)
	}
	if len(pkt.Data) == 0 {
		t.Error("packet data empty")
	}
	if s.state != stateIdle {
		t.Errorf("state = %v, want idle", s.state)
	}
}

func TestEncodeCopiesPixels(t *testing.T) {
	e := newFakeEngine()
	s := newTestSession(t, e, codec.DefaultSettings())
	defer s.Destroy()

	src := testFrame(64, 36, 3, 0)
	if _, _, err := s.Encode(src); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	stride := s.frame.Stride[0]
	for y := 0; y < 36; y++ {
		got := e.lastLuma[y*stride : y*stride+64]
		want := src.Data[0][y*64 : y*64+64]
		if !bytes.Equal(got, want) {
			t.Fatalf("row %d differs", y)
		}
	}
	if s.frame.PTS != 0 {
		t.Errorf("frame PTS = %d", s.frame.PTS)
	}
}

func TestEncodeNoOutputIsNotError(t *testing.T) {
	e := newFakeEngine()
	e.delay = 2
	stats := &metrics.Stats{}
	s := newTestSession(t, e, codec.DefaultSettings(), WithStats(stats))
	defer s.Destroy()

	for i := 0; i < 2; i++ {
		pkt, ok, err := s.Encode(testFrame(64, 36, 0, int64(i)))
		if err != nil {
			t.Fatalf("Encode %d: %v", i, err)
		}
		if ok || pkt.Data != nil {
			t.Fatalf("Encode %d produced a packet before the encoder delay", i)
		}
	}

	pkt, ok, err := s.Encode(testFrame(64, 36, 0, 2))
	if err != nil || !ok {
		t.Fatalf("third Encode = %v, %v", ok, err)
	}
	if pkt.PTS != 0 {
		t.Errorf("first packet pts = %d, want 0", pkt.PTS)
	}

	snap := stats.Snapshot()
	if snap.NoOutput != 2 || snap.PacketsProduced != 1 || snap.FramesSubmitted != 3 {
		t.Errorf("stats = %+v", snap)
	}
}

func TestEncodeEmptyPacketNotProduced(t *testing.T) {
	e := &emptyPacketEngine{fakeEngine: newFakeEngine()}
	s, err := Create(codec.DefaultSettings(), testStream(), codec.H264,
		WithEngineFactory(func(codec.Type) (Engine, error) { return e, nil }),
		WithLoggerFactory(quietLogger(&bytes.Buffer{})))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer s.Destroy()

	_, ok, err := s.Encode(testFrame(64, 36, 0, 0))
	if err != nil || ok {
		t.Errorf("Encode = %v, %v; want not produced", ok, err)
	}
	if _, ok := s.HeaderBytes(); ok {
		t.Error("header must not be captured from an empty packet")
	}
}

type emptyPacketEngine struct {
	*fakeEngine
}

func (e *emptyPacketEngine) ReceivePacket() (RawPacket, error) {
	if _, err := e.fakeEngine.ReceivePacket(); err != nil {
		return RawPacket{}, err
	}
	return RawPacket{PTS: 1}, nil
}

func TestHeaderCapturedOnce(t *testing.T) {
	e := newFakeEngine()
	e.delay = 1
	s := newTestSession(t, e, codec.DefaultSettings())
	defer s.Destroy()

	if _, ok := s.HeaderBytes(); ok {
		t.Fatal("header available before any packet")
	}

	// No packet yet: header stays empty.
	if _, ok, _ := s.Encode(testFrame(64, 36, 0, 0)); ok {
		t.Fatal("unexpected packet")
	}
	if _, ok := s.HeaderBytes(); ok {
		t.Fatal("header captured without a packet")
	}

	want := append([]byte(nil), e.extradata...)
	_, next := encodeUntilOutput(t, s, 1, 4)

	got, ok := s.HeaderBytes()
	if !ok || !bytes.Equal(got, want) {
		t.Fatalf("header = %x, want %x", got, want)
	}

	// Later changes to the engine's extradata are not picked up.
	e.extradata = []byte{0xde, 0xad}
	encodeUntilOutput(t, s, next, 4)

	got, _ = s.HeaderBytes()
	if !bytes.Equal(got, want) {
		t.Errorf("header changed to %x", got)
	}
}

func TestPacketDataReused(t *testing.T) {
	e := newFakeEngine()
	s := newTestSession(t, e, codec.DefaultSettings())
	defer s.Destroy()

	p1, _, _ := s.Encode(testFrame(64, 36, 0, 10))
	first := append([]byte(nil), p1.Data...)

	p2, _, _ := s.Encode(testFrame(64, 36, 0, 11))
	if &p1.Data[0] != &p2.Data[0] {
		t.Error("packets should share the session output buffer")
	}
	if bytes.Equal(first, p2.Data) {
		t.Error("second packet should overwrite the first")
	}
}

func TestEncodeFailure(t *testing.T) {
	e := newFakeEngine()
	stats := &metrics.Stats{}
	s := newTestSession(t, e, codec.DefaultSettings(), WithStats(stats))
	defer s.Destroy()

	e.recvErr = &EngineError{Op: "receive", Code: -5, Text: "Input/output error"}
	_, ok, err := s.Encode(testFrame(64, 36, 0, 0))
	if !errors.Is(err, ErrEncodeFailed) {
		t.Fatalf("Encode = %v, want ErrEncodeFailed", err)
	}
	if ok {
		t.Error("failed encode must not report a packet")
	}
	if !strings.Contains(err.Error(), "Input/output error") {
		t.Errorf("error %q should carry the engine text", err)
	}
	if stats.EncodeErrors.Load() != 1 {
		t.Errorf("EncodeErrors = %d", stats.EncodeErrors.Load())
	}
}

func TestEncodeSendFailure(t *testing.T) {
	e := newFakeEngine()
	s := newTestSession(t, e, codec.DefaultSettings())
	defer s.Destroy()

	e.sendErr = errDevice
	if _, _, err := s.Encode(testFrame(64, 36, 0, 0)); !errors.Is(err, ErrEncodeFailed) || !errors.Is(err, errDevice) {
		t.Errorf("Encode = %v, want ErrEncodeFailed wrapping device error", err)
	}
}

func TestEncodeQueueFull(t *testing.T) {
	e := newFakeEngine()
	stats := &metrics.Stats{}
	s := newTestSession(t, e, codec.DefaultSettings(), WithStats(stats))
	defer s.Destroy()

	// Leave one packet queued, then refuse input.
	e.delay = 1
	s.Encode(testFrame(64, 36, 0, 0))
	e.delay = 0
	e.sendErr = ErrAgain

	pkt, ok, err := s.Encode(testFrame(64, 36, 0, 1))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !ok || pkt.PTS != 0 {
		t.Errorf("expected the queued packet, got ok=%v pts=%d", ok, pkt.PTS)
	}
	if stats.FramesDropped.Load() != 1 {
		t.Errorf("FramesDropped = %d, want 1", stats.FramesDropped.Load())
	}
}

func TestEncodeInvalidInput(t *testing.T) {
	e := newFakeEngine()
	s := newTestSession(t, e, codec.DefaultSettings())
	defer s.Destroy()

	if _, _, err := s.Encode(nil); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("Encode(nil) = %v", err)
	}
	if _, _, err := s.Encode(frame.NewI420Frame(64, 36)); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("Encode(I420) = %v", err)
	}
	if e.sent != 0 {
		t.Errorf("invalid frames reached the engine")
	}
}

func TestEncodeAfterDestroy(t *testing.T) {
	e := newFakeEngine()
	s := newTestSession(t, e, codec.DefaultSettings())
	s.Destroy()

	if _, _, err := s.Encode(testFrame(64, 36, 0, 0)); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Encode after Destroy = %v", err)
	}

	var nilSession *Session
	if _, _, err := nilSession.Encode(testFrame(64, 36, 0, 0)); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Encode on nil = %v", err)
	}
}

func TestCreateOpenFailure(t *testing.T) {
	tests := []struct {
		name    string
		openErr error
		want    string
	}{
		{
			name:    "codec text",
			openErr: &EngineError{Op: "open", Code: -22, Text: "Invalid argument"},
			want:    "Failed to open AMF codec: Invalid argument\r\n\r\n" + msgCheckDrivers,
		},
		{
			name:    "no codec text",
			openErr: errDevice,
			want:    msgOpenGeneric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newFakeEngine()
			e.openErr = tt.openErr
			stream := testStream()

			s, err := Create(codec.DefaultSettings(), stream, codec.H264,
				WithEngineFactory(e.factory()),
				WithLoggerFactory(quietLogger(&bytes.Buffer{})))

			if s != nil {
				t.Fatal("Create must return nil on open failure")
			}
			if !errors.Is(err, ErrOpenFailed) {
				t.Errorf("err = %v, want ErrOpenFailed", err)
			}
			if got := stream.LastError(); got != tt.want {
				t.Errorf("LastError = %q, want %q", got, tt.want)
			}
			if !e.closed || e.outstanding() != 0 {
				t.Errorf("engine closed=%v outstanding=%d", e.closed, e.outstanding())
			}
			if e.eos {
				t.Error("an unopened engine must not be drained")
			}

			// Destroy on the failed result is safe.
			s.Destroy()
		})
	}
}

func TestCreateKeepsExistingLastError(t *testing.T) {
	e := newFakeEngine()
	e.openErr = errDevice
	stream := testStream()
	stream.SetLastError("earlier")

	_, err := Create(codec.DefaultSettings(), stream, codec.H264,
		WithEngineFactory(e.factory()),
		WithLoggerFactory(quietLogger(&bytes.Buffer{})))
	if err == nil {
		t.Fatal("expected failure")
	}
	if stream.LastError() != "earlier" {
		t.Errorf("LastError = %q, want it unchanged", stream.LastError())
	}
}

func TestCreateCodecNotFound(t *testing.T) {
	stream := testStream()
	factory := func(codec.Type) (Engine, error) {
		return nil, fmt.Errorf("%w: no such encoder", ErrCodecNotFound)
	}

	s, err := Create(codec.DefaultSettings(), stream, codec.HEVC,
		WithEngineFactory(factory),
		WithLoggerFactory(quietLogger(&bytes.Buffer{})))
	if s != nil || !errors.Is(err, ErrCodecNotFound) {
		t.Fatalf("Create = %v, %v; want nil, ErrCodecNotFound", s, err)
	}
	if stream.LastError() != msgCodecNotFound {
		t.Errorf("LastError = %q", stream.LastError())
	}
}

func TestCreateEngineFactoryErrors(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		want          error
		wantLastError string
		wantLog       string
	}{
		{"codec not found", fmt.Errorf("%w: hevc_amf", ErrCodecNotFound), ErrCodecNotFound, msgCodecNotFound, "Couldn't find encoder"},
		{"context alloc", fmt.Errorf("%w: codec context", ErrAllocFailed), ErrAllocFailed, "", "Failed to create codec context"},
		{"other", errors.New("device lost"), ErrOpenFailed, "", "Failed to create codec context"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream := testStream()
			var logs bytes.Buffer
			factory := func(codec.Type) (Engine, error) { return nil, tt.err }

			s, err := Create(codec.DefaultSettings(), stream, codec.HEVC,
				WithEngineFactory(factory),
				WithLoggerFactory(quietLogger(&logs)))
			if s != nil || !errors.Is(err, tt.want) {
				t.Fatalf("Create = %v, %v; want nil, %v", s, err, tt.want)
			}
			if got := stream.LastError(); got != tt.wantLastError {
				t.Errorf("LastError = %q, want %q", got, tt.wantLastError)
			}
			if !strings.Contains(logs.String(), tt.wantLog) {
				t.Errorf("log = %q, want it to contain %q", logs.String(), tt.wantLog)
			}
		})
	}
}

func TestCreateAllocFailure(t *testing.T) {
	e := newFakeEngine()
	e.allocErr = errors.New("out of memory")

	s, err := Create(codec.DefaultSettings(), testStream(), codec.H264,
		WithEngineFactory(e.factory()),
		WithLoggerFactory(quietLogger(&bytes.Buffer{})))
	if s != nil || !errors.Is(err, ErrAllocFailed) {
		t.Fatalf("Create = %v, %v; want nil, ErrAllocFailed", s, err)
	}
	if !e.closed || e.outstanding() != 0 {
		t.Errorf("engine closed=%v outstanding=%d", e.closed, e.outstanding())
	}
}

func TestCreateNilStream(t *testing.T) {
	if _, err := Create(codec.DefaultSettings(), nil, codec.H264); !errors.Is(err, ErrOpenFailed) {
		t.Errorf("Create(nil stream) = %v", err)
	}
}

func TestDestroyDrains(t *testing.T) {
	for _, n := range []int{0, 1, 5, 12} {
		e := newFakeEngine()
		e.delay = 3
		stats := &metrics.Stats{}
		s := newTestSession(t, e, codec.DefaultSettings(), WithStats(stats))

		produced := 0
		for i := 0; i < n; i++ {
			_, ok, err := s.Encode(testFrame(64, 36, 0, int64(i)))
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if ok {
				produced++
			}
		}

		s.Destroy()

		if !e.eos {
			t.Errorf("n=%d: end of stream not signalled", n)
		}
		if len(e.queue) != 0 {
			t.Errorf("n=%d: %d packets left undrained", n, len(e.queue))
		}
		if produced+e.drained != n {
			t.Errorf("n=%d: produced %d + drained %d != submitted", n, produced, e.drained)
		}
		if got := stats.PacketsDrained.Load(); got != uint64(e.drained) {
			t.Errorf("n=%d: PacketsDrained = %d, want %d", n, got, e.drained)
		}
		if e.outstanding() != 0 {
			t.Errorf("n=%d: %d allocations outstanding", n, e.outstanding())
		}
		if s.output != nil || s.header != nil || s.frame != nil {
			t.Errorf("n=%d: buffers not released", n)
		}
		if s.state != stateDraining {
			t.Errorf("n=%d: state = %v, want draining", n, s.state)
		}
	}
}

func TestDestroyIdempotent(t *testing.T) {
	e := newFakeEngine()
	s := newTestSession(t, e, codec.DefaultSettings())
	s.Destroy()
	s.Destroy()

	var nilSession *Session
	nilSession.Destroy()
}

func TestReconfigureBitrate(t *testing.T) {
	tests := []struct {
		mode string
	}{
		{"CBR"},
		{"VBR"},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			e := newFakeEngine()
			settings := codec.DefaultSettings()
			settings.RateControl = tt.mode
			stats := &metrics.Stats{}
			s := newTestSession(t, e, settings, WithStats(stats))
			defer s.Destroy()

			frameBuf := s.frame
			settings.Bitrate = 8000
			if !s.Reconfigure(settings) {
				t.Fatal("Reconfigure returned false")
			}

			p := s.Params()
			if p.BitRate != 8_000_000 || p.RCMaxRate != 8_000_000 {
				t.Errorf("bitrate fields = %d/%d", p.BitRate, p.RCMaxRate)
			}
			if len(e.rateCalls) != 1 || e.rateCalls[0] != [2]int64{8_000_000, 8_000_000} {
				t.Errorf("engine rate calls = %v", e.rateCalls)
			}
			if s.frame != frameBuf {
				t.Error("reconfigure must not reallocate the frame buffer")
			}
			if stats.Reconfigurations.Load() != 1 {
				t.Errorf("Reconfigurations = %d", stats.Reconfigurations.Load())
			}
		})
	}
}

func TestReconfigureCQPNoop(t *testing.T) {
	e := newFakeEngine()
	settings := codec.DefaultSettings()
	settings.RateControl = "CQP"
	s := newTestSession(t, e, settings)
	defer s.Destroy()

	before := s.Params()
	settings.Bitrate = 9000
	settings.Preset = "speed"
	if !s.Reconfigure(settings) {
		t.Fatal("Reconfigure returned false")
	}
	after := s.Params()

	if after.BitRate != before.BitRate || after.RCMaxRate != before.RCMaxRate ||
		after.RCMinRate != before.RCMinRate || after.RCBufferSize != before.RCBufferSize {
		t.Errorf("bitrate fields changed: %+v -> %+v", before, after)
	}
	if len(e.rateCalls) != 0 {
		t.Errorf("engine rate calls = %v", e.rateCalls)
	}
}

func TestReconfigureUnknownModeNoop(t *testing.T) {
	tests := []struct {
		name    string
		opened  string
		next string
	}{
		{"cqp session, abr", "CQP", "abr"},
		{"cqp session, empty", "CQP", ""},
		{"cbr session, abr", "CBR", "abr"},
		{"vbr session, garbage", "VBR", "peak"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newFakeEngine()
			settings := codec.DefaultSettings()
			settings.RateControl = tt.opened
			stats := &metrics.Stats{}
			s := newTestSession(t, e, settings, WithStats(stats))
			defer s.Destroy()

			before := s.Params()
			settings.RateControl = tt.next
			settings.Bitrate = 9000
			if !s.Reconfigure(settings) {
				t.Fatal("Reconfigure returned false")
			}
			after := s.Params()

			if after.BitRate != before.BitRate || after.RCMaxRate != before.RCMaxRate {
				t.Errorf("bitrate fields changed: %d/%d -> %d/%d",
					before.BitRate, before.RCMaxRate, after.BitRate, after.RCMaxRate)
			}
			if len(e.rateCalls) != 0 {
				t.Errorf("engine rate calls = %v", e.rateCalls)
			}
			if stats.Reconfigurations.Load() != 0 {
				t.Errorf("Reconfigurations = %d", stats.Reconfigurations.Load())
			}
		})
	}
}

func TestReconfigureClosed(t *testing.T) {
	e := newFakeEngine()
	s := newTestSession(t, e, codec.DefaultSettings())
	s.Destroy()

	if !s.Reconfigure(codec.DefaultSettings()) {
		t.Error("Reconfigure always reports true")
	}
	if len(e.rateCalls) != 0 {
		t.Error("closed session must not touch the engine")
	}
}

func TestPreferredFormat(t *testing.T) {
	e := newFakeEngine()
	stream := testStream()
	stream.Preferred = frame.PixelFormatI420

	s, err := Create(codec.DefaultSettings(), stream, codec.H264,
		WithEngineFactory(e.factory()),
		WithLoggerFactory(quietLogger(&bytes.Buffer{})))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer s.Destroy()

	if e.params.PixelFormat != frame.PixelFormatI420 {
		t.Errorf("session format = %v, want I420", e.params.PixelFormat)
	}
	if got := s.PreferredFormat(frame.PixelFormatNV12); got != frame.PixelFormatI420 {
		t.Errorf("PreferredFormat = %v, want I420", got)
	}

	stream.Preferred = frame.PixelFormatRGBA
	if got := s.PreferredFormat(frame.PixelFormatBGRA); got != frame.PixelFormatNV12 {
		t.Errorf("PreferredFormat = %v, want NV12 fallback", got)
	}
}

func TestUnmappedColorspaceWarns(t *testing.T) {
	e := newFakeEngine()
	stream := testStream()
	stream.Info.ColorSpace = codec.ColorSpace2100PQ

	var buf bytes.Buffer
	s, err := Create(codec.DefaultSettings(), stream, codec.H264,
		WithEngineFactory(e.factory()),
		WithLoggerFactory(quietLogger(&buf)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer s.Destroy()

	if e.params.Color.Mapped {
		t.Error("2100PQ should be unmapped")
	}
	if !strings.Contains(buf.String(), "no color metadata mapping") {
		t.Errorf("expected a warning, log was:\n%s", buf.String())
	}
}

func TestHEVCSkipsProfile(t *testing.T) {
	e := newFakeEngine()
	s, err := Create(codec.DefaultSettings(), testStream(), codec.HEVC,
		WithEngineFactory(e.factory()),
		WithLoggerFactory(quietLogger(&bytes.Buffer{})))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer s.Destroy()

	if _, ok := e.params.Option("profile"); ok {
		t.Error("HEVC session must not set profile")
	}
	if s.Codec() != codec.HEVC {
		t.Errorf("Codec = %v", s.Codec())
	}
}

func TestPacketSample(t *testing.T) {
	p := Packet{Data: []byte{1, 2, 3}, PTS: 5, Keyframe: true}
	sample := p.Sample(33 * time.Millisecond)

	if !bytes.Equal(sample.Data, p.Data) {
		t.Errorf("sample data = %v", sample.Data)
	}
	if sample.Duration != 33*time.Millisecond {
		t.Errorf("duration = %v", sample.Duration)
	}
	p.Data[0] = 9
	if sample.Data[0] != 1 {
		t.Error("sample must own its payload")
	}
}

func TestFrameDuration(t *testing.T) {
	tests := []struct {
		num, den int
		want     time.Duration
	}{
		{30, 1, 33333333 * time.Nanosecond},
		{30000, 1001, 33366666 * time.Nanosecond},
		{60, 1, 16666666 * time.Nanosecond},
		{0, 1, 0},
	}
	for _, tt := range tests {
		if got := FrameDuration(tt.num, tt.den); got != tt.want {
			t.Errorf("FrameDuration(%d, %d) = %v, want %v", tt.num, tt.den, got, tt.want)
		}
	}
}

func TestEngineErrorMessage(t *testing.T) {
	tests := []struct {
		err  *EngineError
		want string
	}{
		{&EngineError{Op: "open", Text: "No device"}, "open: No device"},
		{&EngineError{Op: "open", Err: errDevice}, "open: device lost"},
		{&EngineError{Op: "open", Code: -1}, "open: error -1"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
	if engineText(errDevice) != "" {
		t.Error("plain errors carry no engine text")
	}
}
