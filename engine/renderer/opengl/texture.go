package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/spaghettifunk/anima-gfx/engine/core"
	"github.com/spaghettifunk/anima-gfx/engine/renderer/metadata"
)

type OpenGLTexture struct {
	device    *OpenGLDevice
	id        uint32
	width     uint32
	height    uint32
	mipLevels uint32
	format    metadata.PixelFormat
}

func (d *OpenGLDevice) CreateTexture(mipLevels, width, height uint32, format metadata.PixelFormat) (metadata.Texture, error) {
	if err := d.requireContext(); err != nil {
		return nil, err
	}
	internal, upload, xtype, err := pixelFormat(format)
	if err != nil {
		return nil, err
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: texture size %dx%d", metadata.ErrInvalidUpload, width, height)
	}
	if limit := metadata.MaxMipLevels(width, height); mipLevels == 0 || mipLevels > limit {
		return nil, fmt.Errorf("%w: %d mip levels for %dx%d (max %d)", metadata.ErrInvalidUpload, mipLevels, width, height, limit)
	}

	t := &OpenGLTexture{
		device:    d,
		id:        d.gl.GenTexture(),
		width:     width,
		height:    height,
		mipLevels: mipLevels,
		format:    format,
	}
	d.gl.BindTexture(gl.TEXTURE_2D, t.id)
	for level := uint32(0); level < mipLevels; level++ {
		w, h := metadata.MipLevelSize(width, level), metadata.MipLevelSize(height, level)
		d.gl.TexImage2D(gl.TEXTURE_2D, int32(level), internal, int32(w), int32(h), upload, xtype, nil)
	}
	d.gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_BASE_LEVEL, 0)
	d.gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAX_LEVEL, int32(mipLevels-1))
	core.LogDebug("created GL texture %d: %dx%d %s, %d mip levels", t.id, width, height, format, mipLevels)
	return t, nil
}

func (t *OpenGLTexture) Upload(level, offsetX, offsetY, width, height uint32, format metadata.PixelFormat, data []byte) error {
	_, upload, xtype, err := pixelFormat(format)
	if err != nil {
		return err
	}
	if err := checkRegion(t, level, offsetX, offsetY, width, height, format, data); err != nil {
		return err
	}
	f := t.device.gl
	f.BindTexture(gl.TEXTURE_2D, t.id)
	f.TexSubImage2D(gl.TEXTURE_2D, int32(level), int32(offsetX), int32(offsetY), int32(width), int32(height), upload, xtype, data)
	return nil
}

// checkRegion validates an upload against the texture's level dimensions.
func checkRegion(t metadata.Texture, level, x, y, width, height uint32, format metadata.PixelFormat, data []byte) error {
	if level >= t.MipLevels() {
		return fmt.Errorf("%w: mip level %d of %d", metadata.ErrInvalidUpload, level, t.MipLevels())
	}
	lw, lh := metadata.MipLevelSize(t.Width(), level), metadata.MipLevelSize(t.Height(), level)
	if x+width > lw || y+height > lh {
		return fmt.Errorf("%w: region %dx%d at (%d,%d) outside level %d (%dx%d)", metadata.ErrInvalidUpload, width, height, x, y, level, lw, lh)
	}
	if need := metadata.TextureSize(width, height, format); len(data) < need {
		return fmt.Errorf("%w: %d bytes for a %dx%d %s region, need %d", metadata.ErrInvalidUpload, len(data), width, height, format, need)
	}
	return nil
}

func (t *OpenGLTexture) GenerateMipLevels() {
	t.device.gl.BindTexture(gl.TEXTURE_2D, t.id)
	t.device.gl.GenerateMipmap(gl.TEXTURE_2D)
}

func (t *OpenGLTexture) ID() uint32                   { return t.id }
func (t *OpenGLTexture) Width() uint32                { return t.width }
func (t *OpenGLTexture) Height() uint32               { return t.height }
func (t *OpenGLTexture) MipLevels() uint32            { return t.mipLevels }
func (t *OpenGLTexture) Format() metadata.PixelFormat { return t.format }

func (t *OpenGLTexture) Destroy() {
	if t.id == 0 {
		return
	}
	t.device.gl.DeleteTexture(t.id)
	t.id = 0
}
