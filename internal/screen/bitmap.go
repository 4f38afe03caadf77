package screen

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"golang.org/x/image/bmp"

	apperrors "github.com/GriffinCanCode/snapocr/internal/errors"
)

// BMP container layout
const (
	fileHeaderSize = 14
	infoHeaderSize = 40
	pixelOffset    = fileHeaderSize + infoHeaderSize
	bitsPerPixel   = 32
	bytesPerPixel  = bitsPerPixel / 8
)

// EncodeBMP wraps canonical B,G,R,A pixels in an uncompressed top-down 32bpp
// bitmap. The height is written negated to flag top-down row order.
func EncodeBMP(width, height int, bgra []byte) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, apperrors.Newf(apperrors.EncodingInvariant, "invalid bitmap size %dx%d", width, height)
	}
	pixelBytes := uint64(width) * uint64(height) * bytesPerPixel
	if pixelBytes+pixelOffset > math.MaxUint32 || width > math.MaxInt32 || height > math.MaxInt32 {
		return nil, apperrors.Newf(apperrors.EncodingInvariant, "bitmap %dx%d too large", width, height)
	}
	if uint64(len(bgra)) < pixelBytes {
		return nil, apperrors.Newf(apperrors.EncodingInvariant,
			"pixel buffer too small: have %d bytes, need %d", len(bgra), pixelBytes)
	}

	fileSize := pixelOffset + int(pixelBytes)
	buf := make([]byte, fileSize)
	le := binary.LittleEndian

	buf[0], buf[1] = 'B', 'M'
	le.PutUint32(buf[2:6], uint32(fileSize))
	le.PutUint32(buf[10:14], pixelOffset)

	le.PutUint32(buf[14:18], infoHeaderSize)
	le.PutUint32(buf[18:22], uint32(int32(width)))
	le.PutUint32(buf[22:26], uint32(-int32(height)))
	le.PutUint16(buf[26:28], 1)
	le.PutUint16(buf[28:30], bitsPerPixel)
	le.PutUint32(buf[34:38], uint32(pixelBytes))

	copy(buf[pixelOffset:], bgra[:pixelBytes])
	return buf, nil
}

// Decode reads an encoded capture back into an image.
func Decode(m MonitorCapture) (image.Image, error) {
	img, err := bmp.Decode(bytes.NewReader(m.Image))
	if err != nil {
		return nil, fmt.Errorf("decode bmp: %w", err)
	}
	return img, nil
}
