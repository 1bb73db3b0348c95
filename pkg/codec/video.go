package codec

import (
	"fmt"

	"github.com/thesyncim/hwenc/pkg/frame"
)

// Rational is a fraction such as a frame rate or time base.
type Rational struct {
	Num int
	Den int
}

// Float returns the value of the fraction, or 0 when Den is 0.
func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// Invert returns Den/Num.
func (r Rational) Invert() Rational {
	return Rational{Num: r.Den, Den: r.Num}
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// ColorSpace is the host's colorspace enumeration for the video output.
type ColorSpace int

const (
	ColorSpaceDefault ColorSpace = iota
	ColorSpace601
	ColorSpace709
	ColorSpaceSRGB
	ColorSpace2100PQ
	ColorSpace2100HLG
)

func (c ColorSpace) String() string {
	switch c {
	case ColorSpaceDefault:
		return "default"
	case ColorSpace601:
		return "601"
	case ColorSpace709:
		return "709"
	case ColorSpaceSRGB:
		return "sRGB"
	case ColorSpace2100PQ:
		return "2100PQ"
	case ColorSpace2100HLG:
		return "2100HLG"
	default:
		return "unknown"
	}
}

// ParseColorSpace maps a colorspace name to its enumeration value.
func ParseColorSpace(s string) (ColorSpace, bool) {
	switch s {
	case "", "default":
		return ColorSpaceDefault, true
	case "601", "bt601":
		return ColorSpace601, true
	case "709", "bt709":
		return ColorSpace709, true
	case "srgb", "sRGB":
		return ColorSpaceSRGB, true
	case "2100pq", "2100PQ":
		return ColorSpace2100PQ, true
	case "2100hlg", "2100HLG":
		return ColorSpace2100HLG, true
	default:
		return ColorSpaceDefault, false
	}
}

// VideoRange is the host's luma range enumeration.
type VideoRange int

const (
	VideoRangeDefault VideoRange = iota
	VideoRangePartial
	VideoRangeFull
)

// ColorRange values follow libavutil's AVColorRange.
type ColorRange int

const (
	ColorRangeUnspecified ColorRange = 0
	ColorRangeMPEG        ColorRange = 1 // limited
	ColorRangeJPEG        ColorRange = 2 // full
)

// ColorRangeFor maps the host range to the codec range. Anything other than
// full is signalled as limited.
func ColorRangeFor(r VideoRange) ColorRange {
	if r == VideoRangeFull {
		return ColorRangeJPEG
	}
	return ColorRangeMPEG
}

// Primaries values follow libavutil's AVColorPrimaries.
type Primaries int

const (
	PrimariesBT709       Primaries = 1
	PrimariesUnspecified Primaries = 2
	PrimariesSMPTE170M   Primaries = 6
)

// Transfer values follow libavutil's AVColorTransferCharacteristic.
type Transfer int

const (
	TransferBT709        Transfer = 1
	TransferUnspecified  Transfer = 2
	TransferSMPTE170M    Transfer = 6
	TransferIEC61966_2_1 Transfer = 13
)

// Matrix values follow libavutil's AVColorSpace.
type Matrix int

const (
	MatrixBT709       Matrix = 1
	MatrixUnspecified Matrix = 2
	MatrixSMPTE170M   Matrix = 6
)

// ColorMetadata is the color description signalled in the bitstream.
type ColorMetadata struct {
	Transfer  Transfer
	Primaries Primaries
	Matrix    Matrix

	// Mapped is false when the colorspace has no entry in the mapping and
	// the metadata was left unspecified.
	Mapped bool
}

// unspecifiedColor leaves every field for the encoder to decide.
var unspecifiedColor = ColorMetadata{
	Transfer:  TransferUnspecified,
	Primaries: PrimariesUnspecified,
	Matrix:    MatrixUnspecified,
}

// ColorMetadataFor maps a colorspace to bitstream color metadata.
//
// BT.601 maps to SMPTE 170M throughout; default and BT.709 map to BT.709;
// sRGB keeps BT.709 primaries and matrix with the IEC 61966-2-1 transfer.
// Every other colorspace, including the BT.2100 variants, is unmapped: the
// result is unspecified metadata with Mapped=false, and callers are expected
// to flag it.
func ColorMetadataFor(cs ColorSpace) ColorMetadata {
	switch cs {
	case ColorSpace601:
		return ColorMetadata{TransferSMPTE170M, PrimariesSMPTE170M, MatrixSMPTE170M, true}
	case ColorSpaceDefault, ColorSpace709:
		return ColorMetadata{TransferBT709, PrimariesBT709, MatrixBT709, true}
	case ColorSpaceSRGB:
		return ColorMetadata{TransferIEC61966_2_1, PrimariesBT709, MatrixBT709, true}
	default:
		return unspecifiedColor
	}
}

// VideoInfo describes the raw video the encoder is attached to.
type VideoInfo struct {
	Width      int
	Height     int
	FPS        Rational
	Format     frame.PixelFormat
	ColorSpace ColorSpace
	Range      VideoRange
}

// IsSupportedFormat reports whether the encoder accepts the raw format.
func IsSupportedFormat(f frame.PixelFormat) bool {
	return f == frame.PixelFormatI420 || f == frame.PixelFormatNV12
}

// ResolvePixelFormat picks the raw format the session consumes: the host's
// preferred format when supported, else the stream's native format when
// supported, else NV12.
func ResolvePixelFormat(preferred, native frame.PixelFormat) frame.PixelFormat {
	if IsSupportedFormat(preferred) {
		return preferred
	}
	if IsSupportedFormat(native) {
		return native
	}
	return frame.PixelFormatNV12
}
