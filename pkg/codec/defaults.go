package codec

// Defaults used when the host leaves a setting unset.
const (
	DefaultBitrate     = 2500 // kbps
	DefaultCQP         = 20
	DefaultRateControl = "CBR"
	DefaultPreset      = "quality"
	DefaultProfile     = "high"

	// DefaultGOPSize is the keyframe interval in frames when keyint_sec is 0.
	DefaultGOPSize = 250

	// FrameAlign is the row alignment of the session frame buffer in bytes.
	FrameAlign = 32
)

// Value ranges accepted by Settings.Validate.
const (
	MinBitrate   = 50
	MaxBitrate   = 300000
	MinCQP       = 1
	MaxCQP       = 30
	MaxKeyintSec = 10
)

// Presets lists the encoder presets offered to users.
var Presets = []string{"quality", "balanced", "speed"}

// Profiles lists the H.264 profiles offered to users.
var Profiles = []string{"high", "main", "baseline"}

// DefaultSettings returns the settings a new encoder starts from.
func DefaultSettings() Settings {
	return Settings{
		RateControl: DefaultRateControl,
		Bitrate:     DefaultBitrate,
		CQP:         DefaultCQP,
		Preset:      DefaultPreset,
		Profile:     DefaultProfile,
	}
}
