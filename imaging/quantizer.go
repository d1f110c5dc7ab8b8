// Package imaging converts raster logos into the 1-bit monochrome graphic
// fields that thermal label printers embed inline in a command stream.
package imaging

import (
	"errors"
	"fmt"
	"image"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// ErrImageLoad is returned when a source image cannot be opened or decoded
var ErrImageLoad = errors.New("image load failed")

// InkThreshold is the fixed luminance cutoff: a pixel whose unweighted
// channel mean is below this value prints as ink.
const InkThreshold = 128

// Fragment is a packed monochrome bitmap ready for embedding in a command
// stream. Width is always a multiple of 8.
type Fragment struct {
	Width       int
	Height      int
	BytesPerRow int
	TotalBytes  int
	Data        []byte
}

// Hex returns the bitmap bytes as uppercase hexadecimal
func (f Fragment) Hex() string {
	const digits = "0123456789ABCDEF"
	out := make([]byte, 0, len(f.Data)*2)
	for _, b := range f.Data {
		out = append(out, digits[b>>4], digits[b&0x0f])
	}
	return string(out)
}

// Directive serializes the fragment as an inline graphic field directive
func (f Fragment) Directive() string {
	return fmt.Sprintf("^GFA,%d,%d,%d,%s", f.TotalBytes, f.TotalBytes, f.BytesPerRow, f.Hex())
}

// Quantize renders img onto a white canvas of the target size and packs it
// into a 1-bit bitmap, 8 horizontal pixels per byte, most significant bit
// first. A zero target dimension defaults to the source dimension. The
// width is rounded up to the next multiple of 8 to satisfy the printer's
// row alignment.
func Quantize(img image.Image, targetWidth, targetHeight int) Fragment {
	bounds := img.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()

	w := targetWidth
	if w <= 0 {
		w = srcW
	}
	h := targetHeight
	if h <= 0 {
		h = srcH
	}
	// round up to byte boundary; the padding columns stay blank
	padded := (w + 7) &^ 7

	bytesPerRow := padded / 8
	data := make([]byte, bytesPerRow*h)

	for y := 0; y < h; y++ {
		sy := bounds.Min.Y + y*srcH/h
		for x := 0; x < w; x++ {
			sx := bounds.Min.X + x*srcW/w
			if ink(img.At(sx, sy).RGBA()) {
				data[y*bytesPerRow+x/8] |= 0x80 >> (x % 8)
			}
		}
	}

	return Fragment{
		Width:       padded,
		Height:      h,
		BytesPerRow: bytesPerRow,
		TotalBytes:  bytesPerRow * h,
		Data:        data,
	}
}

// ink applies the fixed threshold to a pixel composited over white.
// RGBA returns premultiplied 16-bit channels, so adding the inverse alpha
// is exactly the white composite.
func ink(r, g, b, a uint32) bool {
	inv := 0xffff - a
	r8 := (r + inv) >> 8
	g8 := (g + inv) >> 8
	b8 := (b + inv) >> 8
	mean := (r8 + g8 + b8) / 3
	return mean < InkThreshold
}

// LoadFile opens and decodes an image file. PNG, JPEG and GIF are supported.
func LoadFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImageLoad, path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImageLoad, path, err)
	}
	return img, nil
}
