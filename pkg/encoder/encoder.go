// Package encoder drives a single hardware video encoder session through
// configuration, per-frame encoding, live bitrate changes and teardown.
package encoder

import (
	"errors"
	"fmt"

	"github.com/thesyncim/hwenc/internal/ffi"
	"github.com/thesyncim/hwenc/pkg/codec"
	"github.com/thesyncim/hwenc/pkg/frame"
)

// Common errors
var (
	ErrOpenFailed    = errors.New("failed to open encoder session")
	ErrEncodeFailed  = errors.New("encode failed")
	ErrAllocFailed   = errors.New("allocation failed")
	ErrCodecNotFound = errors.New("encoder not found")
	ErrNotOpened     = errors.New("encoder session not opened")
	ErrSessionClosed = errors.New("encoder session is closed")
	ErrInvalidFrame  = errors.New("invalid frame")
)

// Results an engine reports from ReceivePacket when it has nothing to hand
// out. Neither is a failure.
var (
	// ErrAgain means the engine needs more input before it produces output.
	ErrAgain = ffi.ErrAgain
	// ErrEOF means the engine has been fully drained.
	ErrEOF = ffi.ErrEOF
)

// EngineError is a failure reported by the codec implementation, carrying
// its own description when it supplied one.
type EngineError struct {
	Op   string
	Code int
	Text string
	Err  error
}

func (e *EngineError) Error() string {
	switch {
	case e.Text != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Text)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: error %d", e.Op, e.Code)
	}
}

func (e *EngineError) Unwrap() error { return e.Err }

// engineText returns the codec-supplied description of err, if any.
func engineText(err error) string {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Text
	}
	return ""
}

// RawPacket is a packet as handed out by an engine. Data is only valid
// until the next call into the engine.
type RawPacket struct {
	Data     []byte
	PTS      int64
	DTS      int64
	Keyframe bool
}

// Engine is the hardware codec behind a session: it accepts configuration,
// accepts frames, produces packets and must be closed.
//
// Engines are not safe for concurrent use; a session serialises all calls.
type Engine interface {
	// Open applies p and opens the codec.
	Open(p *codec.Params) error

	// AllocFrame allocates a codec-owned frame buffer whose rows are
	// aligned to align bytes.
	AllocFrame(format frame.PixelFormat, width, height, align int) (*frame.VideoFrame, error)

	// FreeFrame releases a frame returned by AllocFrame.
	FreeFrame(f *frame.VideoFrame)

	// SendFrame submits a frame returned by AllocFrame. A nil frame
	// signals end of stream. ErrAgain means the input queue is full.
	SendFrame(f *frame.VideoFrame) error

	// ReceivePacket returns the next encoded packet, or ErrAgain when none
	// is ready, or ErrEOF once drained.
	ReceivePacket() (RawPacket, error)

	// Extradata returns the out-of-band sequence headers, if any.
	Extradata() []byte

	// SetBitrate changes the target and peak bitrate of an open codec.
	SetBitrate(bitRate, maxRate int64) error

	// Close releases the codec. It is safe to call on an engine that was
	// never opened.
	Close() error
}

// formatNamer is implemented by engines that can name a pixel format the
// way their codec library does.
type formatNamer interface {
	PixelFormatName(f frame.PixelFormat) string
}

// EngineFactory looks up the engine for a codec identity. It returns an
// error wrapping ErrCodecNotFound when the codec is unavailable.
type EngineFactory func(t codec.Type) (Engine, error)
