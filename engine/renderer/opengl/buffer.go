package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/spaghettifunk/anima-gfx/engine/core"
	"github.com/spaghettifunk/anima-gfx/engine/renderer/metadata"
)

type OpenGLBuffer struct {
	device *OpenGLDevice
	id     uint32
	usage  metadata.BufferUsage
	size   uint32
}

func (d *OpenGLDevice) CreateBuffer(usage metadata.BufferUsage, size uint32) (metadata.Buffer, error) {
	if err := d.requireContext(); err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, fmt.Errorf("%w: zero-sized %s buffer", metadata.ErrInvalidUpload, usage)
	}
	b := &OpenGLBuffer{device: d, id: d.gl.GenBuffer(), usage: usage, size: size}
	target := bufferTarget(usage)
	d.gl.BindBuffer(target, b.id)
	// zero-initialized storage
	d.gl.BufferData(target, int(size), make([]byte, size), gl.STATIC_DRAW)
	core.LogDebug("created GL %s buffer %d (%d bytes)", usage, b.id, size)
	return b, nil
}

func (b *OpenGLBuffer) Upload(offset uint32, data []byte) error {
	if uint64(offset)+uint64(len(data)) > uint64(b.size) {
		return fmt.Errorf("%w: %d bytes at offset %d overrun a %d byte buffer", metadata.ErrInvalidUpload, len(data), offset, b.size)
	}
	if len(data) == 0 {
		return nil
	}
	target := bufferTarget(b.usage)
	b.device.gl.BindBuffer(target, b.id)
	b.device.gl.BufferSubData(target, int(offset), data)
	return nil
}

func (b *OpenGLBuffer) Size() uint32                { return b.size }
func (b *OpenGLBuffer) Usage() metadata.BufferUsage { return b.usage }

func (b *OpenGLBuffer) Destroy() {
	if b.id == 0 {
		return
	}
	b.device.gl.DeleteBuffer(b.id)
	b.id = 0
}
