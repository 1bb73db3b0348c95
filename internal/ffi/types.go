package ffi

import (
	"unsafe"
)

// PixelFormat values from libavutil's AVPixelFormat.
const (
	PixFmtNone    int32 = -1
	PixFmtYUV420P int32 = 0
	PixFmtNV12    int32 = 23
)

// AVOption search flags.
const (
	optSearchChildren int32 = 1
)

// Log levels for SetLogLevel.
const (
	LogQuiet   int32 = -8
	LogError   int32 = 16
	LogWarning int32 = 24
	LogInfo    int32 = 32
	LogVerbose int32 = 40
	LogDebug   int32 = 48
)

// ByteSlicePtr returns a uintptr to the first element of a byte slice.
// Returns 0 if the slice is empty.
func ByteSlicePtr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

// GoString copies a NUL-terminated C string.
func GoString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Pointer(ptr + uintptr(n))) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(ptr)), n))
}

// GoStringN returns the NUL-terminated prefix of buf as a string.
func GoStringN(buf []byte) string {
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}

// CopyBytes copies size bytes of C memory into dst, growing it as needed.
// The C memory remains owned by the library.
func CopyBytes(dst []byte, ptr uintptr, size int) []byte {
	if ptr == 0 || size <= 0 {
		return dst[:0]
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(ptr)), size)
	return append(dst[:0], src...)
}

// CString allocates a null-terminated C string from a Go string.
// The caller is responsible for keeping the returned byte slice alive
// for as long as the C code needs it.
func CString(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	b[len(s)] = 0
	return b
}
