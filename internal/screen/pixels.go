package screen

import (
	"image"

	apperrors "github.com/GriffinCanCode/snapocr/internal/errors"
)

// RGBAToBGRA converts an RGBA image into tightly packed B,G,R,A rows with
// alpha forced to fully opaque.
func RGBAToBGRA(img *image.RGBA) (width, height int, out []byte) {
	b := img.Bounds()
	width, height = b.Dx(), b.Dy()
	out = make([]byte, width*height*bytesPerPixel)
	row := width * bytesPerPixel

	for y := 0; y < height; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+row]
		dst := out[y*row : (y+1)*row]
		for i := 0; i < row; i += bytesPerPixel {
			dst[i+0] = src[i+2]
			dst[i+1] = src[i+1]
			dst[i+2] = src[i+0]
			dst[i+3] = 0xFF
		}
	}
	return width, height, out
}

// PackRows removes row padding from a B,G,R,A buffer whose rows are stride
// bytes apart and forces alpha to fully opaque.
func PackRows(src []byte, width, height, stride int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, apperrors.Newf(apperrors.EncodingInvariant, "empty capture size %dx%d", width, height)
	}
	row := width * bytesPerPixel
	if stride < row {
		return nil, apperrors.Newf(apperrors.EncodingInvariant, "row stride %d shorter than row %d", stride, row)
	}
	if len(src) < stride*(height-1)+row {
		return nil, apperrors.Newf(apperrors.EncodingInvariant,
			"capture buffer too small: have %d bytes, need %d", len(src), stride*(height-1)+row)
	}

	out := make([]byte, row*height)
	for y := 0; y < height; y++ {
		copy(out[y*row:(y+1)*row], src[y*stride:y*stride+row])
	}
	ForceOpaque(out)
	return out, nil
}

// ForceOpaque sets every alpha byte of a B,G,R,A buffer to 0xFF. Capture
// alpha is unreliable on some backends.
func ForceOpaque(bgra []byte) {
	for i := 3; i < len(bgra); i += bytesPerPixel {
		bgra[i] = 0xFF
	}
}
