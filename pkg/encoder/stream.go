package encoder

import (
	"sync"

	"github.com/thesyncim/hwenc/pkg/codec"
	"github.com/thesyncim/hwenc/pkg/frame"
)

// Stream is the host side of a session: the video it encodes and the sink
// for user-facing error text.
type Stream interface {
	// Name identifies the encoder instance in log output.
	Name() string

	// VideoInfo describes the raw video being encoded.
	VideoInfo() codec.VideoInfo

	// PreferredFormat is the raw format the host would like the encoder to
	// consume, or frame.PixelFormatUnknown.
	PreferredFormat() frame.PixelFormat

	// LastError returns the user-facing error text, if set.
	LastError() string

	// SetLastError records user-facing error text. It is distinct from
	// log output.
	SetLastError(msg string)
}

// StaticStream is a Stream with fixed video info.
type StaticStream struct {
	EncoderName string
	Info        codec.VideoInfo
	Preferred   frame.PixelFormat

	mu      sync.Mutex
	lastErr string
}

// NewStaticStream returns a stream for info with no preferred format.
func NewStaticStream(name string, info codec.VideoInfo) *StaticStream {
	return &StaticStream{
		EncoderName: name,
		Info:        info,
		Preferred:   frame.PixelFormatUnknown,
	}
}

// Name implements Stream.
func (s *StaticStream) Name() string { return s.EncoderName }

// VideoInfo implements Stream.
func (s *StaticStream) VideoInfo() codec.VideoInfo { return s.Info }

// PreferredFormat implements Stream.
func (s *StaticStream) PreferredFormat() frame.PixelFormat { return s.Preferred }

// LastError implements Stream.
func (s *StaticStream) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// SetLastError implements Stream.
func (s *StaticStream) SetLastError(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
}
