package encoder

import (
	"errors"
	"fmt"
	"time"

	"github.com/pion/logging"

	"github.com/thesyncim/hwenc/pkg/codec"
	"github.com/thesyncim/hwenc/pkg/frame"
	"github.com/thesyncim/hwenc/pkg/metrics"
)

const loggerScope = "ffmpeg-amf"

// User-facing error text handed to the stream's error sink.
const (
	msgCodecNotFound = "Couldn't find AMF encoder"
	msgOpenFailed    = "Failed to open AMF codec: %s"
	msgCheckDrivers  = "Please check your video drivers are up to date."
	msgOpenGeneric   = "Failed to open AMF codec. " + msgCheckDrivers
)

func openErrorMessage(text string) string {
	if text == "" {
		return msgOpenGeneric
	}
	return fmt.Sprintf(msgOpenFailed, text) + "\r\n\r\n" + msgCheckDrivers
}

// state tracks where the session is in the submit/receive protocol.
type state int

const (
	stateIdle           state = iota // ready for a frame
	stateFrameSubmitted              // frame accepted, output not yet polled
	stateDraining                    // end of stream signalled
)

func (st state) String() string {
	switch st {
	case stateIdle:
		return "idle"
	case stateFrameSubmitted:
		return "frame-submitted"
	case stateDraining:
		return "draining"
	default:
		return "unknown"
	}
}

// Session is one live hardware encoder instance, bound to the geometry and
// pixel format it was created with.
//
// A Session is not safe for concurrent use. Callers serialise Encode,
// Reconfigure and Destroy.
type Session struct {
	typ    codec.Type
	stream Stream
	engine Engine
	params codec.Params

	frame  *frame.VideoFrame // engine-owned, matches params
	output []byte            // reused across Encode calls
	header []byte            // captured once from the first packet
	height int
	format frame.PixelFormat

	firstPacket bool
	opened      bool
	closed      bool
	state       state

	log   logging.LeveledLogger
	stats *metrics.Stats
}

// Create configures and opens a session for codec t on stream. On any
// failure everything built so far is torn down and (nil, err) is returned.
func Create(settings codec.Settings, stream Stream, t codec.Type, opts ...Option) (sess *Session, err error) {
	if stream == nil {
		return nil, fmt.Errorf("%w: nil stream", ErrOpenFailed)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{
		typ:         t,
		stream:      stream,
		firstPacket: true,
		format:      frame.PixelFormatUnknown,
		log:         o.loggerFactory.NewLogger(loggerScope),
		stats:       o.stats,
	}
	if s.stats == nil {
		s.stats = &metrics.Stats{}
	}

	defer func() {
		if err != nil {
			s.Destroy()
		}
	}()

	engine, err := o.engineFactory(t)
	if err != nil {
		if errors.Is(err, ErrCodecNotFound) {
			stream.SetLastError(msgCodecNotFound)
			s.warnf("Couldn't find encoder %s: %v", t.EncoderName(), err)
			return nil, err
		}
		s.warnf("Failed to create codec context: %v", err)
		return nil, fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}
	s.engine = engine

	if err := s.configure(settings); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) configure(settings codec.Settings) error {
	info := s.stream.VideoInfo()
	p := codec.BuildParams(s.typ, settings, info, s.stream.PreferredFormat())

	if _, ok := codec.ParseRateControl(settings.RateControl); !ok {
		s.warnf("unknown rate_control %q, using %s", settings.RateControl, p.RateControl)
	}
	if !p.Color.Mapped {
		s.warnf("colorspace %s has no color metadata mapping, leaving it unspecified", info.ColorSpace)
	}

	s.params = p
	s.height = p.Height
	s.format = p.PixelFormat
	s.logSettings(settings)

	if err := s.engine.Open(&s.params); err != nil {
		if s.stream.LastError() == "" {
			s.stream.SetLastError(openErrorMessage(engineText(err)))
		}
		s.warnf("Failed to open AMF codec: %v", err)
		return fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}
	s.opened = true

	f, err := s.engine.AllocFrame(p.PixelFormat, p.Width, p.Height, codec.FrameAlign)
	if err != nil {
		s.warnf("Failed to allocate video frame: %v", err)
		return fmt.Errorf("%w: %w", ErrAllocFailed, err)
	}
	s.frame = f
	return nil
}

func (s *Session) logSettings(settings codec.Settings) {
	profile := settings.Profile
	if !s.typ.UsesProfile() {
		profile = "(default)"
	}
	s.infof("settings:\n"+
		"\trate_control: %s\n"+
		"\tbitrate:      %d\n"+
		"\tcqp:          %d\n"+
		"\tkeyint:       %d\n"+
		"\tpreset:       %s\n"+
		"\tprofile:      %s\n"+
		"\twidth:        %d\n"+
		"\theight:       %d\n"+
		"\tformat:       %s",
		s.params.RateControl, s.params.BitRate/1000, s.params.GlobalQuality,
		s.params.GOPSize, settings.Preset, profile,
		s.params.Width, s.params.Height, s.formatName())
}

func (s *Session) formatName() string {
	if n, ok := s.engine.(formatNamer); ok {
		if name := n.PixelFormatName(s.params.PixelFormat); name != "" {
			return name
		}
	}
	return s.params.PixelFormat.String()
}

// Encode copies f into the session frame, submits it and returns at most
// one packet. produced is false, with a nil error, when the encoder has no
// output ready. The packet's Data is valid until the next Encode or Destroy.
func (s *Session) Encode(f *frame.VideoFrame) (pkt Packet, produced bool, err error) {
	if s == nil || s.closed {
		return Packet{}, false, ErrSessionClosed
	}
	if !s.opened || s.frame == nil {
		return Packet{}, false, ErrNotOpened
	}
	if f == nil {
		return Packet{}, false, ErrInvalidFrame
	}
	if f.Format != s.format {
		return Packet{}, false, fmt.Errorf("%w: format %s, session expects %s", ErrInvalidFrame, f.Format, s.format)
	}

	start := time.Now()
	defer func() { s.stats.UpdateEncodeLatency(time.Since(start)) }()

	frame.CopyPlanes(s.frame, f, s.height, s.format)
	s.frame.PTS = f.PTS

	s.stats.FramesSubmitted.Add(1)
	if err := s.submit(s.frame); err != nil {
		if !errors.Is(err, ErrAgain) {
			return Packet{}, false, s.encodeError(err)
		}
		s.stats.FramesDropped.Add(1)
		s.warnf("encoder input queue full, frame pts=%d dropped", f.PTS)
	}

	raw, ok, err := s.drainOne()
	if err != nil {
		return Packet{}, false, s.encodeError(err)
	}
	if !ok || len(raw.Data) == 0 {
		s.stats.NoOutput.Add(1)
		return Packet{}, false, nil
	}

	if s.firstPacket {
		if h := s.engine.Extradata(); len(h) > 0 {
			s.header = append(s.header[:0], h...)
		}
		s.firstPacket = false
	}

	s.output = append(s.output[:0], raw.Data...)
	s.stats.ObservePacket(len(s.output), raw.Keyframe)

	return Packet{
		Data:     s.output,
		PTS:      raw.PTS,
		DTS:      raw.DTS,
		Keyframe: raw.Keyframe,
		Kind:     MediaVideo,
	}, true, nil
}

func (s *Session) encodeError(err error) error {
	s.stats.EncodeErrors.Add(1)
	s.warnf("Error encoding: %v", err)
	return fmt.Errorf("%w: %w", ErrEncodeFailed, err)
}

// submit hands a frame to the engine. ErrAgain is returned to the caller
// but still moves the session on to polling.
func (s *Session) submit(f *frame.VideoFrame) error {
	if s.state == stateDraining {
		return ErrSessionClosed
	}
	err := s.engine.SendFrame(f)
	if err != nil && !errors.Is(err, ErrAgain) {
		return err
	}
	s.state = stateFrameSubmitted
	return err
}

// drainOne polls the engine for one packet. ok is false when the engine
// has nothing ready or is drained.
func (s *Session) drainOne() (pkt RawPacket, ok bool, err error) {
	pkt, err = s.engine.ReceivePacket()
	if s.state == stateFrameSubmitted {
		s.state = stateIdle
	}
	if errors.Is(err, ErrAgain) || errors.Is(err, ErrEOF) {
		return RawPacket{}, false, nil
	}
	if err != nil {
		return RawPacket{}, false, err
	}
	return pkt, true, nil
}

// flush signals end of stream and discards packets until the engine
// reports no more output. It returns the number of packets discarded.
func (s *Session) flush() int {
	s.state = stateDraining

	if err := s.engine.SendFrame(nil); err != nil && !errors.Is(err, ErrEOF) {
		s.debugf("end of stream: %v", err)
	}

	drained := 0
	for {
		_, err := s.engine.ReceivePacket()
		if err != nil {
			if !errors.Is(err, ErrEOF) {
				s.debugf("flush: %v", err)
			}
			return drained
		}
		drained++
	}
}

// Reconfigure applies a live bitrate change when settings name CBR or VBR
// explicitly. Unrecognised rate_control strings change nothing. Every other
// setting is fixed for the life of the session and is ignored. It always
// reports true.
func (s *Session) Reconfigure(settings codec.Settings) bool {
	if s == nil || s.closed || !s.opened {
		return true
	}
	mode, ok := codec.ParseRateControl(settings.RateControl)
	if !ok || !s.params.UpdateBitrate(mode, settings.Bitrate) {
		return true
	}
	if err := s.engine.SetBitrate(s.params.BitRate, s.params.RCMaxRate); err != nil {
		s.warnf("failed to update bitrate: %v", err)
		return true
	}
	s.stats.Reconfigurations.Add(1)
	s.infof("bitrate updated to %d kbps", settings.Bitrate)
	return true
}

// HeaderBytes returns the sequence headers captured from the first packet.
// ok is false until a packet has been produced or when the encoder exposes
// no headers.
func (s *Session) HeaderBytes() (header []byte, ok bool) {
	if s == nil || len(s.header) == 0 {
		return nil, false
	}
	return s.header, true
}

// PreferredFormat resolves the raw format the session wants given the
// host's proposed format.
func (s *Session) PreferredFormat(proposed frame.PixelFormat) frame.PixelFormat {
	return codec.ResolvePixelFormat(s.stream.PreferredFormat(), proposed)
}

// Params returns the parameter set the session was opened with, including
// live bitrate changes.
func (s *Session) Params() codec.Params {
	return s.params
}

// Codec returns the session's codec identity.
func (s *Session) Codec() codec.Type {
	return s.typ
}

// Destroy drains the encoder and releases every resource the session holds.
// It is safe to call on a nil or partially built session, and more than
// once.
func (s *Session) Destroy() {
	if s == nil || s.closed {
		return
	}
	s.closed = true

	if s.opened && s.engine != nil {
		if n := s.flush(); n > 0 {
			s.stats.PacketsDrained.Add(uint64(n))
			s.debugf("discarded %d packets while draining", n)
		}
	}

	if s.frame != nil && s.engine != nil {
		s.engine.FreeFrame(s.frame)
	}
	s.frame = nil
	s.output = nil
	s.header = nil

	if s.engine != nil {
		if err := s.engine.Close(); err != nil {
			s.debugf("close: %v", err)
		}
		s.engine = nil
	}
	s.opened = false
}

func (s *Session) infof(format string, args ...any) {
	s.log.Infof("[%s] "+format, append([]any{s.stream.Name()}, args...)...)
}

func (s *Session) warnf(format string, args ...any) {
	s.log.Warnf("[%s] "+format, append([]any{s.stream.Name()}, args...)...)
}

func (s *Session) debugf(format string, args ...any) {
	s.log.Debugf("[%s] "+format, append([]any{s.stream.Name()}, args...)...)
}
