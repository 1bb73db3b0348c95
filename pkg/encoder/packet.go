package encoder

import (
	"time"

	"github.com/pion/webrtc/v4/pkg/media"
)

// MediaKind tags the stream a packet belongs to.
type MediaKind int

const (
	MediaVideo MediaKind = iota
	MediaAudio
)

func (k MediaKind) String() string {
	switch k {
	case MediaVideo:
		return "video"
	case MediaAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// Packet is an encoded access unit. Data is a view into the session's
// output buffer and is only valid until the next Encode or Destroy.
type Packet struct {
	Data     []byte
	PTS      int64
	DTS      int64
	Keyframe bool
	Kind     MediaKind
}

// Sample converts the packet into a pion media sample for writing to a
// TrackLocalStaticSample. The payload is copied so the sample outlives the
// next Encode call.
func (p Packet) Sample(duration time.Duration) media.Sample {
	data := make([]byte, len(p.Data))
	copy(data, p.Data)
	return media.Sample{
		Data:     data,
		Duration: duration,
	}
}

// FrameDuration returns the duration of one frame at fps, or zero for an
// invalid rate.
func FrameDuration(num, den int) time.Duration {
	if num <= 0 || den <= 0 {
		return 0
	}
	return time.Duration(int64(time.Second) * int64(den) / int64(num))
}
