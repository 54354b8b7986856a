package assets

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"

	"github.com/spaghettifunk/anima-gfx/engine/renderer/metadata"
)

// Image is a decoded RGBA8 image with its mip chain. Levels[0] is the full
// size image and every further level halves both sides down to 1x1.
type Image struct {
	Name   string
	Width  uint32
	Height uint32
	Levels []*image.RGBA
}

func (i *Image) MipLevels() uint32 {
	return uint32(len(i.Levels))
}

// Level returns the size and tightly packed pixels of a mip level.
func (i *Image) Level(level uint32) (width, height uint32, pixels []byte) {
	l := i.Levels[level]
	b := l.Bounds()
	return uint32(b.Dx()), uint32(b.Dy()), l.Pix
}

// LoadImage decodes the image at path. With mips set the full chain is built.
func LoadImage(path string, mips bool) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return DecodeImage(f, path, mips)
}

func DecodeImage(r io.Reader, name string, mips bool) (*Image, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", name, err)
	}
	base := toRGBA(src)
	if base.Bounds().Empty() {
		return nil, fmt.Errorf("image %s (%s) has no pixels", name, format)
	}

	img := &Image{
		Name:   name,
		Width:  uint32(base.Bounds().Dx()),
		Height: uint32(base.Bounds().Dy()),
		Levels: []*image.RGBA{base},
	}
	if mips {
		img.Levels = MipChain(base)
	}
	return img, nil
}

// toRGBA converts src to RGBA8 with its origin at 0,0.
func toRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	if rgba, ok := src.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == 4*b.Dx() {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// MipChain returns base followed by bilinear downscales, each half the size of
// the previous one, ending at 1x1.
func MipChain(base *image.RGBA) []*image.RGBA {
	w, h := uint32(base.Bounds().Dx()), uint32(base.Bounds().Dy())
	count := metadata.MaxMipLevels(w, h)

	chain := make([]*image.RGBA, 0, count)
	chain = append(chain, base)
	for level := uint32(1); level < count; level++ {
		prev := chain[level-1]
		dst := image.NewRGBA(image.Rect(0, 0, int(metadata.MipLevelSize(w, level)), int(metadata.MipLevelSize(h, level))))
		draw.BiLinear.Scale(dst, dst.Bounds(), prev, prev.Bounds(), draw.Src, nil)
		chain = append(chain, dst)
	}
	return chain
}
