package export

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
)

// Scale enlarges img by an integer factor with nearest-neighbour sampling.
func Scale(img *image.NRGBA, k int) *image.NRGBA {
	if k <= 1 {
		return img
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx()*k, b.Dy()*k))
	for y := 0; y < out.Rect.Dy(); y++ {
		src := img.PixOffset(b.Min.X, b.Min.Y+y/k)
		dst := out.PixOffset(0, y)
		for x := 0; x < out.Rect.Dx(); x++ {
			s := src + 4*(x/k)
			copy(out.Pix[dst+4*x:dst+4*x+4], img.Pix[s:s+4])
		}
	}
	return out
}

func WritePNG(w io.Writer, img *image.NRGBA, scale int) error {
	return png.Encode(w, Scale(img, scale))
}

func SavePNG(path string, img *image.NRGBA, scale int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePNG(f, img, scale); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
