// Package testutil provides shared test utilities for hwenc tests.
package testutil

import (
	"os"
	"testing"

	"github.com/thesyncim/hwenc/internal/ffi"
	"github.com/thesyncim/hwenc/pkg/frame"
)

// RequireEnv is the environment variable that turns missing hardware
// or libraries into test failures instead of skips.
const RequireEnv = "HWENC_TEST_REQUIRE_FFMPEG"

// RequireFFmpeg skips the test when libavcodec cannot be loaded, or fails it
// when RequireEnv is set.
func RequireFFmpeg(tb testing.TB) {
	tb.Helper()
	if err := ffi.LoadLibrary(); err != nil {
		if os.Getenv(RequireEnv) != "" {
			tb.Fatalf("FFmpeg libraries required: %v", err)
		}
		tb.Skipf("FFmpeg libraries not available: %v", err)
	}
}

// RequireEncoder is RequireFFmpeg plus a check that libavcodec was built
// with the named encoder.
func RequireEncoder(tb testing.TB, name string) {
	tb.Helper()
	RequireFFmpeg(tb)
	if _, err := ffi.FindEncoder(name); err != nil {
		if os.Getenv(RequireEnv) != "" {
			tb.Fatalf("encoder %s required: %v", name, err)
		}
		tb.Skipf("encoder %s not available: %v", name, err)
	}
}

// CreateTestVideoFrame creates a frame with a diagonal luma gradient that
// moves with pts and neutral chroma.
func CreateTestVideoFrame(format frame.PixelFormat, width, height int, pts int64) *frame.VideoFrame {
	f := newFrame(format, width, height)

	for y := 0; y < height; y++ {
		row := f.Data[0][y*f.Stride[0]:]
		for x := 0; x < width; x++ {
			row[x] = byte(x + y + int(pts))
		}
	}
	for p := 1; p < len(f.Data); p++ {
		for i := range f.Data[p] {
			f.Data[p][i] = 128
		}
	}

	f.PTS = pts
	return f
}

// CreateGrayVideoFrame creates a uniform gray frame. Gray frames compress
// very efficiently, which keeps benchmarks dominated by submission cost.
func CreateGrayVideoFrame(format frame.PixelFormat, width, height int) *frame.VideoFrame {
	f := newFrame(format, width, height)
	for p := range f.Data {
		for i := range f.Data[p] {
			f.Data[p][i] = 128
		}
	}
	return f
}

func newFrame(format frame.PixelFormat, width, height int) *frame.VideoFrame {
	if format == frame.PixelFormatI420 {
		return frame.NewI420Frame(width, height)
	}
	return frame.NewNV12Frame(width, height)
}
