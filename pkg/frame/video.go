// Package frame provides raw video frame types and plane helpers for the
// encoder session.
package frame

import (
	"sync"
)

// PixelFormat represents the pixel format of a raw video frame.
type PixelFormat int

const (
	// PixelFormatUnknown marks a format the host could not name.
	PixelFormatUnknown PixelFormat = iota - 1

	// PixelFormatI420 is the standard YUV 4:2:0 planar format.
	// Y plane followed by U plane followed by V plane.
	PixelFormatI420

	// PixelFormatNV12 is YUV 4:2:0 semi-planar format.
	// Y plane followed by interleaved UV plane.
	// Native input format of most hardware encoders (AMF, VAAPI, NVENC).
	PixelFormatNV12

	// PixelFormatNV21 is YUV 4:2:0 semi-planar format with VU ordering.
	PixelFormatNV21

	// PixelFormatRGBA is 32-bit RGBA format.
	PixelFormatRGBA

	// PixelFormatBGRA is 32-bit BGRA format.
	PixelFormatBGRA
)

// String returns the string representation of the pixel format.
func (f PixelFormat) String() string {
	switch f {
	case PixelFormatI420:
		return "I420"
	case PixelFormatNV12:
		return "NV12"
	case PixelFormatNV21:
		return "NV21"
	case PixelFormatRGBA:
		return "RGBA"
	case PixelFormatBGRA:
		return "BGRA"
	default:
		return "Unknown"
	}
}

// Planes returns the number of planes a frame of this format carries.
func (f PixelFormat) Planes() int {
	switch f {
	case PixelFormatI420:
		return 3
	case PixelFormatNV12, PixelFormatNV21:
		return 2
	case PixelFormatRGBA, PixelFormatBGRA:
		return 1
	default:
		return 0
	}
}

// rowBytes returns the number of meaningful bytes in one row of the given plane.
func (f PixelFormat) rowBytes(plane, width int) int {
	hShift, _ := ChromaShift(f)
	switch f {
	case PixelFormatI420:
		if plane == 0 {
			return width
		}
		return ceilShift(width, hShift)
	case PixelFormatNV12, PixelFormatNV21:
		if plane == 0 {
			return width
		}
		return ceilShift(width, hShift) * 2
	case PixelFormatRGBA, PixelFormatBGRA:
		return width * 4
	default:
		return 0
	}
}

// VideoFrame represents a raw video frame.
//
// Frames handed to an encoder session stay owned by the caller; the session
// only copies plane data out of them.
type VideoFrame struct {
	// Width of the frame in pixels.
	Width int

	// Height of the frame in pixels.
	Height int

	// Format specifies the pixel format.
	Format PixelFormat

	// Data contains the pixel data.
	// For I420: [Y, U, V] planes
	// For NV12/NV21: [Y, UV] planes
	// For RGBA/BGRA: single plane
	// A nil plane is treated as absent.
	Data [][]byte

	// Stride is the number of bytes per row for each plane.
	Stride []int

	// PTS is the presentation timestamp in the session time base
	// (one tick per frame at the configured frame rate).
	PTS int64

	// pool is the pool this frame belongs to (for recycling).
	pool *VideoFramePool
}

// Release returns the frame to its pool for reuse.
// After calling Release, the frame must not be used.
func (f *VideoFrame) Release() {
	if f.pool != nil {
		f.pool.Put(f)
	}
}

// Plane returns plane i and its stride, or (nil, 0) when the plane is absent.
func (f *VideoFrame) Plane(i int) ([]byte, int) {
	if i < 0 || i >= len(f.Data) || f.Data[i] == nil {
		return nil, 0
	}
	stride := 0
	if i < len(f.Stride) {
		stride = f.Stride[i]
	}
	return f.Data[i], stride
}

// NewI420Frame creates a new I420 video frame with tightly packed planes.
func NewI420Frame(width, height int) *VideoFrame {
	ySize := width * height
	uvWidth := (width + 1) / 2
	uvHeight := (height + 1) / 2
	uvSize := uvWidth * uvHeight

	return &VideoFrame{
		Width:  width,
		Height: height,
		Format: PixelFormatI420,
		Data: [][]byte{
			make([]byte, ySize),
			make([]byte, uvSize),
			make([]byte, uvSize),
		},
		Stride: []int{width, uvWidth, uvWidth},
	}
}

// NewNV12Frame creates a new NV12 video frame with tightly packed planes.
func NewNV12Frame(width, height int) *VideoFrame {
	ySize := width * height
	uvWidth := (width + 1) / 2
	uvHeight := (height + 1) / 2
	uvSize := uvWidth * uvHeight * 2 // Interleaved UV

	return &VideoFrame{
		Width:  width,
		Height: height,
		Format: PixelFormatNV12,
		Data: [][]byte{
			make([]byte, ySize),
			make([]byte, uvSize),
		},
		Stride: []int{width, uvWidth * 2},
	}
}

// NewAlignedFrame allocates a frame whose row strides are rounded up to a
// multiple of align bytes, the way hardware encoders lay out their input
// surfaces. align must be a power of two; values below 1 mean no alignment.
func NewAlignedFrame(format PixelFormat, width, height, align int) *VideoFrame {
	if align < 1 {
		align = 1
	}

	n := format.Planes()
	f := &VideoFrame{
		Width:  width,
		Height: height,
		Format: format,
		Data:   make([][]byte, n),
		Stride: make([]int, n),
	}
	for p := 0; p < n; p++ {
		stride := alignUp(format.rowBytes(p, width), align)
		f.Stride[p] = stride
		f.Data[p] = make([]byte, stride*PlaneHeight(format, p, height))
	}
	return f
}

// FrameSize returns the number of bytes a tightly packed frame of the given
// format and geometry occupies.
func FrameSize(format PixelFormat, width, height int) int {
	size := 0
	for p := 0; p < format.Planes(); p++ {
		size += format.rowBytes(p, width) * PlaneHeight(format, p, height)
	}
	return size
}

func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

// VideoFramePool manages reusable video frames to reduce allocations.
type VideoFramePool struct {
	mu      sync.Mutex
	frames  []*VideoFrame
	maxSize int
	width   int
	height  int
	format  PixelFormat
}

// NewVideoFramePool creates a pool for video frames of a specific size and format.
func NewVideoFramePool(width, height int, format PixelFormat, poolSize int) *VideoFramePool {
	pool := &VideoFramePool{
		maxSize: poolSize,
		width:   width,
		height:  height,
		format:  format,
		frames:  make([]*VideoFrame, 0, poolSize),
	}

	for i := 0; i < poolSize; i++ {
		f := pool.allocFrame()
		f.pool = pool
		pool.frames = append(pool.frames, f)
	}

	return pool
}

// Get returns a frame from the pool or allocates a new one.
func (p *VideoFramePool) Get() *VideoFrame {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.frames) > 0 {
		f := p.frames[len(p.frames)-1]
		p.frames = p.frames[:len(p.frames)-1]
		f.PTS = 0
		return f
	}

	f := p.allocFrame()
	f.pool = p
	return f
}

// Put returns a frame to the pool.
func (p *VideoFramePool) Put(f *VideoFrame) {
	if f == nil || f.pool != p {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.frames) < p.maxSize {
		p.frames = append(p.frames, f)
	}
}

func (p *VideoFramePool) allocFrame() *VideoFrame {
	switch p.format {
	case PixelFormatNV12:
		return NewNV12Frame(p.width, p.height)
	default:
		return NewI420Frame(p.width, p.height)
	}
}
