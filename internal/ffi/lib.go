// Package ffi provides FFI bindings to FFmpeg's libavcodec and libavutil.
// It supports both purego (default) and CGO dlopen backends via build tags.
package ffi

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
)

var (
	// ErrLibraryNotLoaded is returned when the FFmpeg libraries haven't been loaded.
	ErrLibraryNotLoaded = errors.New("ffmpeg libraries not loaded")

	// ErrLibraryNotFound is returned when no supported libavcodec can be found.
	ErrLibraryNotFound = errors.New("ffmpeg libraries not found")

	// ErrUnsupportedVersion is returned when the loaded libavcodec has a
	// struct layout these bindings were not written for.
	ErrUnsupportedVersion = errors.New("unsupported libavcodec version")
)

// libPair is a libavcodec major version and the libavutil it ships with.
type libPair struct {
	avcodec int
	avutil  int
}

// supportedVersions lists FFmpeg 7.x, 6.x and 5.x, newest first. The
// AVFrame, AVPacket and leading AVCodecContext layouts are identical
// across them.
var supportedVersions = []libPair{
	{avcodec: 61, avutil: 59},
	{avcodec: 60, avutil: 58},
	{avcodec: 59, avutil: 57},
}

var (
	avcodecHandle uintptr
	avutilHandle  uintptr
	libLoaded     atomic.Bool // Use atomic for lock-free reads
	libMu         sync.Mutex  // Still used for load/unload operations
)

// LoadLibrary loads libavutil and libavcodec.
// It searches in the following locations:
// 1. Paths specified by HWENC_AVUTIL_PATH and HWENC_AVCODEC_PATH
// 2. ./lib/{os}_{arch}/ (executable and working directory relative)
// 3. System library paths, by versioned name
//
// Loading happens once per process; later calls return nil.
func LoadLibrary() error {
	libMu.Lock()
	defer libMu.Unlock()

	if libLoaded.Load() {
		return nil
	}

	utilPath, codecPath, err := resolveLibraries()
	if err != nil {
		return err
	}

	util, err := dlopenLibrary(utilPath, RTLD_NOW|RTLD_GLOBAL)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", utilPath, err)
	}
	codec, err := dlopenLibrary(codecPath, RTLD_NOW|RTLD_GLOBAL)
	if err != nil {
		_ = dlcloseLibrary(util)
		return fmt.Errorf("failed to load %s: %w", codecPath, err)
	}

	if err := registerFunctions(util, codec); err != nil {
		_ = dlcloseLibrary(codec)
		_ = dlcloseLibrary(util)
		return err
	}

	if major := int(avcodecVersion() >> 16); !isSupportedMajor(major) {
		_ = dlcloseLibrary(codec)
		_ = dlcloseLibrary(util)
		return fmt.Errorf("%w: libavcodec %d", ErrUnsupportedVersion, major)
	}

	avutilHandle = util
	avcodecHandle = codec
	libLoaded.Store(true)
	return nil
}

// MustLoadLibrary loads the libraries and panics on failure.
func MustLoadLibrary() {
	if err := LoadLibrary(); err != nil {
		panic(fmt.Sprintf("hwenc: %v", err))
	}
}

// IsLoaded returns true if the libraries are loaded.
// Thread-safe due to atomic.Bool.
func IsLoaded() bool {
	return libLoaded.Load()
}

// Close unloads the libraries.
func Close() error {
	libMu.Lock()
	defer libMu.Unlock()

	if !libLoaded.Load() {
		return nil
	}

	if err := dlcloseLibrary(avcodecHandle); err != nil {
		return err
	}
	if err := dlcloseLibrary(avutilHandle); err != nil {
		return err
	}

	libLoaded.Store(false)
	avcodecHandle = 0
	avutilHandle = 0
	return nil
}

// Version returns the loaded libavcodec version as "major.minor.micro",
// or an empty string if the library is not loaded.
func Version() string {
	if !libLoaded.Load() {
		return ""
	}
	return formatVersion(avcodecVersion())
}

func formatVersion(v uint32) string {
	return fmt.Sprintf("%d.%d.%d", v>>16, (v>>8)&0xff, v&0xff)
}

func isSupportedMajor(major int) bool {
	for _, p := range supportedVersions {
		if p.avcodec == major {
			return true
		}
	}
	return false
}

func resolveLibraries() (util, codec string, err error) {
	envUtil := os.Getenv("HWENC_AVUTIL_PATH")
	envCodec := os.Getenv("HWENC_AVCODEC_PATH")
	if envUtil != "" && envCodec != "" {
		return envUtil, envCodec, nil
	}

	for _, p := range supportedVersions {
		utilName := libraryNameFor(runtime.GOOS, "avutil", p.avutil)
		codecName := libraryNameFor(runtime.GOOS, "avcodec", p.avcodec)

		if u, ok := findLocalLibrary(utilName); ok {
			if c, ok := findLocalLibrary(codecName); ok {
				return u, c, nil
			}
		}
	}

	// Fall back to the dynamic loader's search path, probing each pair.
	for _, p := range supportedVersions {
		utilName := libraryNameFor(runtime.GOOS, "avutil", p.avutil)
		codecName := libraryNameFor(runtime.GOOS, "avcodec", p.avcodec)

		h, err := dlopenLibrary(codecName, RTLD_NOW)
		if err != nil {
			continue
		}
		_ = dlcloseLibrary(h)
		return utilName, codecName, nil
	}

	return "", "", ErrLibraryNotFound
}

func findLocalLibrary(libName string) (string, bool) {
	platformDir := fmt.Sprintf("%s_%s", runtime.GOOS, runtime.GOARCH)

	var searchPaths []string

	// Check relative to executable
	if execPath, err := os.Executable(); err == nil {
		execDir := filepath.Dir(execPath)
		searchPaths = append(searchPaths,
			filepath.Join(execDir, "lib", platformDir, libName),
			filepath.Join(execDir, libName),
		)
	}

	// Check working directory
	if wd, err := os.Getwd(); err == nil {
		searchPaths = append(searchPaths,
			filepath.Join(wd, "lib", platformDir, libName),
			filepath.Join(wd, "..", "lib", platformDir, libName),
		)
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			absPath, _ := filepath.Abs(path)
			return absPath, true
		}
	}

	return "", false
}

// libraryNameFor returns the platform file name of an FFmpeg library,
// e.g. libavcodec.so.61, libavcodec.61.dylib or avcodec-61.dll.
func libraryNameFor(goos, name string, major int) string {
	switch goos {
	case "darwin":
		return fmt.Sprintf("lib%s.%d.dylib", name, major)
	case "windows":
		return fmt.Sprintf("%s-%d.dll", name, major)
	default:
		return fmt.Sprintf("lib%s.so.%d", name, major)
	}
}
