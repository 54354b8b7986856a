package renderer

import "github.com/spaghettifunk/anima-gfx/engine/renderer/metadata"

type BackendType = metadata.BackendType

const (
	OpenGL = metadata.BackendOpenGL
	Vulkan = metadata.BackendVulkan
)

/**
 * @brief The contract every graphics backend implements.
 *
 * Create and build calls run at load time and return errors. Bind, draw and
 * flip calls run every frame, return nothing and terminate the process on a
 * fatal condition. Binds must come in order: pipeline, then buffers, textures
 * and constants, then the draw.
 */
type Device interface {
	CreateTexture(mipLevels, width, height uint32, format metadata.PixelFormat) (metadata.Texture, error)
	CreateBuffer(usage metadata.BufferUsage, size uint32) (metadata.Buffer, error)
	// BuildPipeline compiles or bakes a pipeline. Expensive; call at load time only.
	BuildPipeline(desc metadata.PipelineDescription) (metadata.PipelineStateObject, error)

	BindPipeline(pso metadata.PipelineStateObject)
	BindVertexBuffers(firstSlot uint32, bindings []metadata.VertexBufferBinding)
	BindIndexBuffer(buffer metadata.Buffer, index metadata.IndexType)
	// BindTextures binds textures[i] to inputs[i]. A nil texture binds the backend default.
	BindTextures(inputs []metadata.TextureInput, textures []metadata.Texture)
	// SetConstants sets the bound pipeline's constant block, packed std140.
	SetConstants(data []byte)
	Draw(offset, count uint32, primitive metadata.PrimitiveType)
	// DrawElements draws count indices starting offset bytes into the bound index buffer.
	DrawElements(offset, count uint32, primitive metadata.PrimitiveType, index metadata.IndexType)
	// BindStreamedVertexBuffers uploads transient vertices and binds them at slot 0 for the next draw.
	BindStreamedVertexBuffers(data []byte)

	SetPolygonOffset(offset, slope float32)
	SetDepthRange(min, max float32)

	// Flip ends the frame, presents it and advances frame state.
	Flip()
	// SetSwapchain binds the device to its presentation surface. Called once at startup.
	SetSwapchain(window metadata.Window) error
	Backend() BackendType
	Destroy()
}
