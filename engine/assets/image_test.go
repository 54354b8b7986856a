package assets

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

func TestMipChainHalvesDownToOne(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 8, 2))
	chain := MipChain(base)

	sizes := make([]image.Point, len(chain))
	for i, l := range chain {
		sizes[i] = l.Bounds().Size()
	}
	assert.Equal(t, []image.Point{{8, 2}, {4, 1}, {2, 1}, {1, 1}}, sizes)
	assert.Same(t, base, chain[0])
}

func TestMipChainAveragesSolidColour(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 4, 4))
	red := color.RGBA{R: 255, A: 255}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			base.SetRGBA(x, y, red)
		}
	}
	chain := MipChain(base)
	require.Len(t, chain, 3)
	c := chain[2].RGBAAt(0, 0)
	assert.InDelta(t, red.R, c.R, 1)
	assert.InDelta(t, 0, c.G, 1)
	assert.InDelta(t, red.A, c.A, 1)
}

func TestDecodeImageConvertsToRGBA(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	src.SetNRGBA(2, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	img, err := DecodeImage(encodePNG(t, src), "tiny.png", true)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), img.Width)
	assert.Equal(t, uint32(2), img.Height)
	assert.Equal(t, uint32(2), img.MipLevels())

	w, h, pix := img.Level(0)
	assert.Equal(t, uint32(3), w)
	assert.Equal(t, uint32(2), h)
	assert.Len(t, pix, 3*2*4)
	assert.Equal(t, []byte{10, 20, 30, 255}, pix[(1*3+2)*4:(1*3+2)*4+4])

	w, h, pix = img.Level(1)
	assert.Equal(t, uint32(1), w)
	assert.Equal(t, uint32(1), h)
	assert.Len(t, pix, 4)
}

func TestDecodeImageWithoutMips(t *testing.T) {
	img, err := DecodeImage(encodePNG(t, image.NewGray(image.Rect(0, 0, 4, 4))), "gray.png", false)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), img.MipLevels())
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	_, err := DecodeImage(bytes.NewReader([]byte("not an image")), "bad.png", true)
	assert.Error(t, err)
}
