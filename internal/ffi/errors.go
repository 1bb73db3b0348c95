package ffi

import (
	"errors"
	"fmt"
	"runtime"
	"syscall"
)

var (
	// ErrAgain is AVERROR(EAGAIN): the codec needs more input before it
	// can produce output, or its input queue is full.
	ErrAgain = errors.New("resource temporarily unavailable")

	// ErrEOF is AVERROR_EOF: the codec has been fully drained.
	ErrEOF = errors.New("end of file")

	// ErrEncoderNotFound is returned when libavcodec has no encoder by the
	// requested name.
	ErrEncoderNotFound = errors.New("encoder not found")

	// ErrAllocFailed is returned when libavcodec or libavutil fails to
	// allocate an object.
	ErrAllocFailed = errors.New("allocation failed")
)

// AVError codes
const (
	AVErrorEOF = -0x20464F45 // -MKTAG('E','O','F',' ')
)

// AVErrorAgain is AVERROR(EAGAIN) on the current platform. FFmpeg builds
// for Windows use the C runtime's EAGAIN, not the syscall package's.
var AVErrorAgain = func() int32 {
	if runtime.GOOS == "windows" {
		return -11
	}
	return -int32(syscall.EAGAIN)
}()

// CodecError is a negative libav error code with its description.
type CodecError struct {
	Code    int32
	Message string
}

func (e *CodecError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("libav error %d", e.Code)
	}
	return e.Message
}

// AVError converts a libav return code to a Go error. Non-negative codes
// are success. EAGAIN and EOF map to ErrAgain and ErrEOF so callers can
// use errors.Is.
func AVError(code int32) error {
	switch {
	case code >= 0:
		return nil
	case code == AVErrorAgain:
		return ErrAgain
	case code == AVErrorEOF:
		return ErrEOF
	default:
		return &CodecError{Code: code, Message: ErrorString(code)}
	}
}

const errorBufferSize = 256

// ErrorString returns libavutil's description of an error code, or an
// empty string when the library is not loaded or has no description.
func ErrorString(code int32) string {
	if !libLoaded.Load() || avStrerror == nil {
		return ""
	}
	var buf [errorBufferSize]byte
	if avStrerror(code, &buf[0], uintptr(len(buf))) < 0 {
		return ""
	}
	return GoStringN(buf[:])
}
