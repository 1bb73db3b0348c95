package frame

// MaxPlanes is the largest number of planes a frame may carry.
const MaxPlanes = 4

// ChromaShift returns the log2 horizontal and vertical chroma subsampling
// factors of a pixel format. Packed and unknown formats report (0, 0).
func ChromaShift(format PixelFormat) (h, v int) {
	switch format {
	case PixelFormatI420, PixelFormatNV12, PixelFormatNV21:
		return 1, 1
	default:
		return 0, 0
	}
}

// PlaneHeight returns the number of rows plane p holds for a frame of the
// given height. Chroma rows are rounded up so odd heights keep their last row.
func PlaneHeight(format PixelFormat, p, height int) int {
	if p == 0 {
		return height
	}
	_, v := ChromaShift(format)
	return ceilShift(height, v)
}

func ceilShift(n, shift int) int {
	return -((-n) >> shift)
}

// CopyPlanes copies the pixel data of src into dst row by row.
//
// Plane heights follow the chroma subsampling of format. Each row copies
// min(src stride, dst stride) bytes, so buffers with different stride
// alignment are handled. Planes missing from src or dst are skipped, and no
// read or write ever goes past the end of either plane buffer.
func CopyPlanes(dst, src *VideoFrame, height int, format PixelFormat) {
	if dst == nil || src == nil {
		return
	}

	for p := 0; p < MaxPlanes; p++ {
		srcData, srcStride := src.Plane(p)
		if srcData == nil {
			continue
		}
		dstData, dstStride := dst.Plane(p)
		if dstData == nil {
			continue
		}

		rowBytes := min(srcStride, dstStride)
		if rowBytes <= 0 {
			continue
		}

		rows := PlaneHeight(format, p, height)
		for y := 0; y < rows; y++ {
			srcPos := y * srcStride
			dstPos := y * dstStride
			n := min(rowBytes, len(srcData)-srcPos, len(dstData)-dstPos)
			if n <= 0 {
				break
			}
			copy(dstData[dstPos:dstPos+n], srcData[srcPos:srcPos+n])
		}
	}
}
