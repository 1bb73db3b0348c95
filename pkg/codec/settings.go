package codec

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// RateControl is the policy constraining the output bitrate.
type RateControl int

const (
	RateControlCBR      RateControl = iota // Constant bitrate
	RateControlVBR                         // Variable (peak constrained) bitrate
	RateControlCQP                         // Constant quantizer
	RateControlLossless                    // Lossless, constant quantizer 0
)

// String returns the settings spelling of the mode.
func (m RateControl) String() string {
	switch m {
	case RateControlCBR:
		return "CBR"
	case RateControlVBR:
		return "VBR"
	case RateControlCQP:
		return "CQP"
	case RateControlLossless:
		return "lossless"
	default:
		return "unknown"
	}
}

// UsesBitrate reports whether the mode is driven by the bitrate setting.
func (m RateControl) UsesBitrate() bool {
	return m == RateControlCBR || m == RateControlVBR
}

// ParseRateControl maps a rate_control setting to a mode, case-insensitively.
// Unrecognised strings fall back to CBR and report ok=false.
func ParseRateControl(s string) (mode RateControl, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cbr":
		return RateControlCBR, true
	case "vbr":
		return RateControlVBR, true
	case "cqp":
		return RateControlCQP, true
	case "lossless":
		return RateControlLossless, true
	default:
		return RateControlCBR, false
	}
}

// Settings is the user-facing key/value configuration of an encoder.
type Settings struct {
	RateControl string `mapstructure:"rate_control" yaml:"rate_control" json:"rate_control"`
	Bitrate     int    `mapstructure:"bitrate" yaml:"bitrate" json:"bitrate"` // kbps
	CQP         int    `mapstructure:"cqp" yaml:"cqp" json:"cqp"`
	KeyintSec   int    `mapstructure:"keyint_sec" yaml:"keyint_sec" json:"keyint_sec"`
	Preset      string `mapstructure:"preset" yaml:"preset" json:"preset"`
	Profile     string `mapstructure:"profile" yaml:"profile" json:"profile"`
}

// Mode returns the parsed rate control mode.
func (s Settings) Mode() RateControl {
	m, _ := ParseRateControl(s.RateControl)
	return m
}

// ErrInvalidSettings is returned by Validate.
var ErrInvalidSettings = errors.New("invalid encoder settings")

// Validate checks the settings against the ranges offered to users.
// Sessions themselves accept any values; Validate is for settings sources.
func (s Settings) Validate(t Type) error {
	var errs []error

	if _, ok := ParseRateControl(s.RateControl); !ok {
		errs = append(errs, fmt.Errorf("rate_control %q is not one of CBR, VBR, CQP, lossless", s.RateControl))
	}
	mode := s.Mode()
	if mode.UsesBitrate() && (s.Bitrate < MinBitrate || s.Bitrate > MaxBitrate) {
		errs = append(errs, fmt.Errorf("bitrate %d outside [%d, %d] kbps", s.Bitrate, MinBitrate, MaxBitrate))
	}
	if mode == RateControlCQP && (s.CQP < MinCQP || s.CQP > MaxCQP) {
		errs = append(errs, fmt.Errorf("cqp %d outside [%d, %d]", s.CQP, MinCQP, MaxCQP))
	}
	if s.KeyintSec < 0 || s.KeyintSec > MaxKeyintSec {
		errs = append(errs, fmt.Errorf("keyint_sec %d outside [0, %d]", s.KeyintSec, MaxKeyintSec))
	}
	if s.Preset != "" && !slices.Contains(Presets, s.Preset) {
		errs = append(errs, fmt.Errorf("preset %q is not one of %v", s.Preset, Presets))
	}
	if t.UsesProfile() && s.Profile != "" && !slices.Contains(Profiles, s.Profile) {
		errs = append(errs, fmt.Errorf("profile %q is not one of %v", s.Profile, Profiles))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidSettings, errors.Join(errs...))
}
