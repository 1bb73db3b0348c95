package codec

import (
	"math"
	"strconv"

	"github.com/thesyncim/hwenc/pkg/frame"
)

// Option is an encoder-private option applied by name.
type Option struct {
	Name  string
	Value string
}

// Params is the parameter set an encoder session is opened with.
// Field names follow the libavcodec context fields they end up in.
type Params struct {
	Codec Type

	Width       int
	Height      int
	TimeBase    Rational
	PixelFormat frame.PixelFormat
	ColorRange  ColorRange
	Color       ColorMetadata

	RateControl   RateControl
	BitRate       int64 // bits per second
	RCMinRate     int64
	RCMaxRate     int64
	RCBufferSize  int64
	GlobalQuality int
	GOPSize       int

	// GlobalHeader makes the encoder expose its sequence headers as
	// extradata instead of only in-band.
	GlobalHeader bool

	// Options are encoder-private options, applied in order.
	Options []Option
}

// Option returns the value of a private option.
func (p *Params) Option(name string) (string, bool) {
	for _, o := range p.Options {
		if o.Name == name {
			return o.Value, true
		}
	}
	return "", false
}

func (p *Params) setOption(name, value string) {
	for i := range p.Options {
		if p.Options[i].Name == name {
			p.Options[i].Value = value
			return
		}
	}
	p.Options = append(p.Options, Option{Name: name, Value: value})
}

// KeyframeInterval converts a keyframe interval in seconds into frames,
// rounding to the nearest frame. Zero (or negative) seconds selects
// DefaultGOPSize.
func KeyframeInterval(keyintSec int, fps Rational) int {
	if keyintSec <= 0 || fps.Num <= 0 || fps.Den <= 0 {
		return DefaultGOPSize
	}
	return int(math.Round(float64(keyintSec) * float64(fps.Num) / float64(fps.Den)))
}

// BuildParams derives the session parameter set from user settings and the
// attached video stream. preferred is the host's preferred raw format, or
// frame.PixelFormatUnknown when it has none.
func BuildParams(t Type, s Settings, info VideoInfo, preferred frame.PixelFormat) Params {
	p := Params{
		Codec:        t,
		Width:        info.Width,
		Height:       info.Height,
		TimeBase:     info.FPS.Invert(),
		PixelFormat:  ResolvePixelFormat(preferred, info.Format),
		ColorRange:   ColorRangeFor(info.Range),
		Color:        ColorMetadataFor(info.ColorSpace),
		GOPSize:      KeyframeInterval(s.KeyintSec, info.FPS),
		GlobalHeader: true,
	}

	if t.UsesProfile() {
		p.setOption("profile", s.Profile)
	}
	p.setOption("preset", s.Preset)

	bitrate := s.Bitrate
	p.RateControl = s.Mode()
	switch p.RateControl {
	case RateControlCQP:
		p.setOption("rc", "cqp")
		bitrate = 0
		p.GlobalQuality = s.CQP
	case RateControlLossless:
		p.setOption("rc", "cqp")
		bitrate = 0
		p.GlobalQuality = 0
	default:
		rate := int64(bitrate) * 1000
		if p.RateControl == RateControlVBR {
			p.setOption("rc", "vbr_peak")
		} else {
			p.setOption("rc", "cbr")
			p.RCMinRate = rate
		}
		p.RCMaxRate = rate
	}

	p.setOption("level", "auto")
	p.setOption("2pass", strconv.Itoa(0))

	rate := int64(bitrate) * 1000
	p.BitRate = rate
	p.RCBufferSize = rate

	return p
}

// UpdateBitrate applies a live bitrate change for the bitrate-driven modes.
// It reports false, leaving p untouched, for any other mode.
func (p *Params) UpdateBitrate(mode RateControl, kbps int) bool {
	if !mode.UsesBitrate() {
		return false
	}
	rate := int64(kbps) * 1000
	p.BitRate = rate
	p.RCMaxRate = rate
	return true
}
