package libio

import (
	"fmt"
	goimg "image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeTexture decodes any registered image format into 4 channel rgba
// with its origin in the bottom left.
func DecodeTexture(r io.Reader) (*IntImage, string, error) {
	src, format, err := goimg.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("could not decode texture: %w", err)
	}
	return FromRGBA(toRGBA(src)), format, nil
}

func toRGBA(src goimg.Image) *goimg.RGBA {
	if rgba, ok := src.(*goimg.RGBA); ok && rgba.Rect.Min == (goimg.Point{}) {
		return rgba
	}
	b := src.Bounds()
	rgba := goimg.NewRGBA(goimg.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Rect, src, b.Min, draw.Src)
	return rgba
}

// Preview tonemaps a float image and scales it to the given width for inspection.
// A width <= 0 keeps the original size.
func Preview(img *FloatImage, gamma, scale float32, width int) *goimg.RGBA {
	rgba := img.ToIntImage(gamma, scale).ToRGBA()
	if width <= 0 || width == img.Width {
		return rgba
	}
	height := img.Height * width / img.Width
	if height < 1 {
		height = 1
	}
	dst := goimg.NewRGBA(goimg.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Rect, rgba, rgba.Rect, draw.Src, nil)
	return dst
}
