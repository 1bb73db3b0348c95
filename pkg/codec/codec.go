// Package codec defines the codec identities, user settings and the session
// parameter set of the hardware encoder adapter.
package codec

import "runtime"

// Type represents one of the codec identities served by the adapter.
type Type int

const (
	// H264 is AVC through the h264_amf encoder.
	H264 Type = iota
	// HEVC is H.265 through the hevc_amf encoder.
	HEVC
)

// Types lists every codec identity in registration order.
var Types = []Type{H264, HEVC}

// String returns the string representation of the codec type.
func (t Type) String() string {
	switch t {
	case H264:
		return "H264"
	case HEVC:
		return "HEVC"
	default:
		return "Unknown"
	}
}

// ID returns the host-facing encoder identifier.
func (t Type) ID() string {
	switch t {
	case H264:
		return "h264_ffmpeg_amf"
	case HEVC:
		return "h265_ffmpeg_amf"
	default:
		return ""
	}
}

// Codec returns the compression format name the host muxes the stream as.
func (t Type) Codec() string {
	switch t {
	case H264:
		return "h264"
	case HEVC:
		return "hevc"
	default:
		return ""
	}
}

// EncoderName returns the libavcodec encoder looked up for this identity.
func (t Type) EncoderName() string {
	switch t {
	case H264:
		return "h264_amf"
	case HEVC:
		return "hevc_amf"
	default:
		return ""
	}
}

// DisplayName returns the human-readable encoder name.
func (t Type) DisplayName() string {
	switch t {
	case H264:
		return "FFmpeg AMF H.264"
	case HEVC:
		return "FFmpeg AMF H.265"
	default:
		return ""
	}
}

// MimeType returns the MIME type for the codec.
func (t Type) MimeType() string {
	switch t {
	case H264:
		return "video/H264"
	case HEVC:
		return "video/H265"
	default:
		return ""
	}
}

// UsesProfile reports whether the profile setting applies to this codec.
// HEVC sessions always run the encoder's default profile.
func (t Type) UsesProfile() bool {
	return t == H264
}

// Caps returns the capability flags declared for this codec identity.
func (t Type) Caps() Caps {
	if t != H264 && t != HEVC {
		return 0
	}
	caps := CapDynBitrate
	if runtime.GOOS == "windows" {
		caps |= CapInternal
	}
	return caps
}

// ParseType maps a codec or identifier string to a Type.
func ParseType(s string) (Type, bool) {
	for _, t := range Types {
		if s == t.ID() || s == t.Codec() || s == t.EncoderName() {
			return t, true
		}
	}
	switch s {
	case "h265", "hevc", "H265", "HEVC":
		return HEVC, true
	case "H264", "avc":
		return H264, true
	}
	return 0, false
}

// Caps is a set of encoder capability flags.
type Caps uint32

const (
	// CapDynBitrate means the bitrate can be changed on a live session.
	CapDynBitrate Caps = 1 << iota
	// CapInternal means the encoder is hidden from user-facing lists.
	CapInternal
)

// Has reports whether every flag in c2 is set in c.
func (c Caps) Has(c2 Caps) bool {
	return c&c2 == c2
}
