package platform

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
)

// iconSizes are the variants handed to the window system, which picks the
// closest match for the taskbar, the title bar and the task switcher.
var iconSizes = [...]int{16, 32, 48, 64, 128, 256}

// LoadIcon decodes an image file and scales it into the standard icon sizes.
// The result feeds NativeWindow.SetIcon.
func LoadIcon(path string) ([]image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening icon %s: %w", path, err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding icon %s: %w", path, err)
	}
	return IconVariants(src), nil
}

// IconVariants scales one source image into the standard icon sizes. Sizes
// larger than the source are skipped; upscaled icons only look worse.
func IconVariants(src image.Image) []image.Image {
	bounds := src.Bounds()
	out := make([]image.Image, 0, len(iconSizes))
	for _, size := range iconSizes {
		if size > bounds.Dx() || size > bounds.Dy() {
			continue
		}
		if size == bounds.Dx() && size == bounds.Dy() {
			out = append(out, src)
			continue
		}
		dst := image.NewRGBA(image.Rect(0, 0, size, size))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		out = append(out, dst)
	}
	if len(out) == 0 {
		out = append(out, src)
	}
	return out
}
