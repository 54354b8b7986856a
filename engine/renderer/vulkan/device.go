package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-gfx/engine/core"
	"github.com/spaghettifunk/anima-gfx/engine/renderer/frames"
	"github.com/spaghettifunk/anima-gfx/engine/renderer/metadata"
)

/**
 * @brief Explicit device. Commands are recorded into per-image frame slots and
 * submitted on Flip. Transient data goes through one mapped scratch ring.
 *
 * Everything is created in SetSwapchain. Resources destroyed while frames are
 * in flight are released when their frame slot comes around again.
 */
type VulkanDevice struct {
	config  metadata.RendererConfig
	shaders metadata.ShaderSource
	window  metadata.Window

	context      *VulkanContext
	swapchain    *VulkanSwapchain
	renderpass   *VulkanRenderpass
	framebuffers []*VulkanFramebuffer
	frameData    []*VulkanFrame
	ring         *frames.Ring
	scratch      *VulkanScratchBuffer

	// indexed by metadata.SamplerType
	samplers        []vk.Sampler
	constantsLayout vk.DescriptorSetLayout
	defaultTexture  *VulkanTexture
	constantsAlign  uint32

	pipelines []*VulkanPipeline
	current   *VulkanPipeline
}

// NewDevice stores the configuration. The driver is not touched until SetSwapchain.
func NewDevice(cfg metadata.RendererConfig, shaders metadata.ShaderSource) (*VulkanDevice, error) {
	if shaders == nil {
		return nil, fmt.Errorf("vulkan device needs a shader source")
	}
	if cfg.ScratchBufferSize == 0 {
		cfg.ScratchBufferSize = metadata.DefaultScratchBufferSize
	}
	return &VulkanDevice{config: cfg, shaders: shaders}, nil
}

func (d *VulkanDevice) Backend() metadata.BackendType { return metadata.BackendVulkan }

func (d *VulkanDevice) requireSwapchain() error {
	if d.window == nil {
		return fmt.Errorf("vulkan device has no swapchain: %w", core.ErrNotInitialized)
	}
	return nil
}

// frame returns the slot resources commands are currently recorded into.
func (d *VulkanDevice) frame() *VulkanFrame {
	return d.frameData[d.ring.Current().Index()]
}

func (d *VulkanDevice) SetSwapchain(window metadata.Window) error {
	if d.window != nil || d.context != nil {
		return core.ErrAlreadyInitialized
	}
	if err := d.setup(window); err != nil {
		d.Destroy()
		return err
	}
	d.window = window
	return nil
}

func (d *VulkanDevice) setup(window metadata.Window) error {
	if err := loadLoader(); err != nil {
		return err
	}
	d.context = NewVulkanContext()
	ctx := d.context
	if err := createInstance(ctx, d.config, window); err != nil {
		return err
	}
	if err := createSurface(ctx, window); err != nil {
		return err
	}
	if err := SelectPhysicalDevice(ctx); err != nil {
		return err
	}
	if err := CreateLogicalDevice(ctx); err != nil {
		return err
	}
	ctx.Properties.Limits.Deref()
	d.constantsAlign = constantsAlignment
	if minAlign := uint32(ctx.Properties.Limits.MinUniformBufferOffsetAlignment); minAlign > d.constantsAlign {
		d.constantsAlign = minAlign
	}

	width, height := window.FramebufferSize()
	var err error
	if d.swapchain, err = NewSwapchain(ctx, uint32(width), uint32(height), d.config.VSync); err != nil {
		return err
	}
	extent := d.swapchain.Extent
	if d.renderpass, err = NewRenderpass(ctx, d.swapchain.ImageFormat.Format, float32(extent.Width), float32(extent.Height)); err != nil {
		return err
	}
	for _, view := range d.swapchain.Views {
		fb, err := NewFramebuffer(ctx, d.renderpass, extent.Width, extent.Height, []vk.ImageView{view, d.swapchain.DepthAttachment.View})
		if err != nil {
			return err
		}
		d.framebuffers = append(d.framebuffers, fb)
	}

	if err := d.createSamplers(); err != nil {
		return err
	}
	if d.constantsLayout, err = newConstantsLayout(ctx); err != nil {
		return err
	}
	if err := d.transitionAttachments(); err != nil {
		return err
	}

	slots := make([]frames.SlotSync, len(d.swapchain.Images))
	for i := range slots {
		f, err := NewFrame(ctx)
		if err != nil {
			return err
		}
		d.frameData = append(d.frameData, f)
		slots[i] = f
	}
	if d.scratch, err = NewScratchBuffer(ctx, d.config.ScratchBufferSize); err != nil {
		return err
	}
	d.ring = frames.NewRing(slots, d.swapchain, d.scratch.Ring)
	if err := d.ring.Start(); err != nil {
		return err
	}
	if err := d.beginFrame(); err != nil {
		return err
	}

	// Sampling a missing texture reads transparent black.
	if d.defaultTexture, err = d.newTexture(1, 2, 2, metadata.PixelFormatRGBA8, zeroSwizzle); err != nil {
		return err
	}
	if err := d.defaultTexture.Upload(0, 0, 0, 2, 2, metadata.PixelFormatRGBA8, make([]byte, 16)); err != nil {
		return err
	}

	core.LogInfo("Vulkan swapchain: %dx%d, %d images, scratch %d bytes, vsync %t",
		extent.Width, extent.Height, len(d.swapchain.Images), d.config.ScratchBufferSize, d.config.VSync)
	return nil
}

func (d *VulkanDevice) createSamplers() error {
	ctx := d.context
	maxAnisotropy := ctx.Properties.Limits.MaxSamplerAnisotropy
	d.samplers = make([]vk.Sampler, len(samplerTypes))
	for _, s := range samplerTypes {
		info := samplerCreateInfo(s)
		if info.MaxAnisotropy > maxAnisotropy && maxAnisotropy >= 1 {
			info.MaxAnisotropy = maxAnisotropy
		}
		var sampler vk.Sampler
		if err := vulkanError("vkCreateSampler", vk.CreateSampler(ctx.LogicalDevice, &info, ctx.Allocator, &sampler)); err != nil {
			return fmt.Errorf("sampler %s: %w", s, err)
		}
		d.samplers[s] = sampler
	}
	return nil
}

// transitionAttachments moves the depth image to its attachment layout and
// every swapchain image to PresentSrc, the layout each frame starts from.
func (d *VulkanDevice) transitionAttachments() error {
	ctx := d.context
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: ctx.QueueFamily,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateTransientBit),
	}
	var pool vk.CommandPool
	if err := vulkanError("vkCreateCommandPool", vk.CreateCommandPool(ctx.LogicalDevice, &poolCreateInfo, ctx.Allocator, &pool)); err != nil {
		return err
	}
	defer vk.DestroyCommandPool(ctx.LogicalDevice, pool, ctx.Allocator)

	cmd, err := AllocateAndBeginSingleUse(ctx, pool)
	if err != nil {
		return err
	}
	transitionImage(cmd, d.swapchain.DepthAttachment.Handle, undefinedToDepth)
	for _, image := range d.swapchain.Images {
		transitionImage(cmd, image, undefinedToPresent)
	}
	return cmd.EndSingleUse(ctx, pool)
}

// beginFrame starts the draw commands with the render pass open and the copy
// commands ready for uploads.
func (d *VulkanDevice) beginFrame() error {
	f := d.frame()
	index := d.ring.Current().Index()
	if err := f.DrawCmd.Begin(); err != nil {
		return err
	}
	transitionImage(f.DrawCmd, d.swapchain.Images[index], presentToColor)
	d.renderpass.Begin(f.DrawCmd, d.framebuffers[index])
	d.setViewport(f.DrawCmd, 0, 1)
	vk.CmdSetScissor(f.DrawCmd.Handle, 0, 1, []vk.Rect2D{{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: d.swapchain.Extent,
	}})
	return f.CopyCmd.Begin()
}

func (d *VulkanDevice) setViewport(cmd *VulkanCommandBuffer, minDepth, maxDepth float32) {
	vk.CmdSetViewport(cmd.Handle, 0, 1, []vk.Viewport{{
		X:        0,
		Y:        0,
		Width:    float32(d.swapchain.Extent.Width),
		Height:   float32(d.swapchain.Extent.Height),
		MinDepth: minDepth,
		MaxDepth: maxDepth,
	}})
}

// drawCmd returns the current draw command buffer, or nil after logging a
// fatal error when the device cannot record.
func (d *VulkanDevice) drawCmd(op string) *VulkanCommandBuffer {
	if d.ring == nil || d.ring.Current() == nil {
		core.LogFatal("%s called before SetSwapchain", op)
		return nil
	}
	return d.frame().DrawCmd
}

func (d *VulkanDevice) BindPipeline(pso metadata.PipelineStateObject) {
	cmd := d.drawCmd("BindPipeline")
	if cmd == nil {
		return
	}
	p, ok := pso.(*VulkanPipeline)
	if !ok || p == nil || p.Handle == nil {
		core.LogFatal("BindPipeline: %T is not a live Vulkan pipeline", pso)
		return
	}
	d.current = p
	vk.CmdBindPipeline(cmd.Handle, vk.PipelineBindPointGraphics, p.Handle)
}

func (d *VulkanDevice) BindVertexBuffers(firstSlot uint32, bindings []metadata.VertexBufferBinding) {
	cmd := d.drawCmd("BindVertexBuffers")
	if cmd == nil {
		return
	}
	if d.current == nil {
		core.LogFatal("BindVertexBuffers called before BindPipeline")
		return
	}
	if len(bindings) == 0 {
		return
	}
	buffers := make([]vk.Buffer, len(bindings))
	offsets := make([]vk.DeviceSize, len(bindings))
	for i, b := range bindings {
		slot := firstSlot + uint32(i)
		if slot >= uint32(len(d.current.desc.VertexBuffers)) {
			core.LogFatal("BindVertexBuffers: slot %d not in pipeline %s", slot, d.current.label)
			return
		}
		buf, ok := b.Buffer.(*VulkanBuffer)
		if !ok || buf == nil || buf.Handle == nil {
			core.LogFatal("BindVertexBuffers: %T is not a live Vulkan buffer", b.Buffer)
			return
		}
		buffers[i] = buf.Handle
		offsets[i] = vk.DeviceSize(b.Offset)
	}
	vk.CmdBindVertexBuffers(cmd.Handle, firstSlot, uint32(len(buffers)), buffers, offsets)
}

// BindStreamedVertexBuffers copies data into the scratch ring and binds it at slot 0.
func (d *VulkanDevice) BindStreamedVertexBuffers(data []byte) {
	cmd := d.drawCmd("BindStreamedVertexBuffers")
	if cmd == nil {
		return
	}
	if d.current == nil || len(d.current.desc.VertexBuffers) == 0 {
		core.LogFatal("BindStreamedVertexBuffers needs a bound pipeline with a vertex buffer")
		return
	}
	if len(data) == 0 {
		return
	}
	offset, err := d.scratch.Push(data, vertexStreamAlignment)
	if err != nil {
		core.LogFatal("BindStreamedVertexBuffers: %s", err)
		return
	}
	vk.CmdBindVertexBuffers(cmd.Handle, 0, 1, []vk.Buffer{d.scratch.Handle}, []vk.DeviceSize{vk.DeviceSize(offset)})
}

func (d *VulkanDevice) BindIndexBuffer(buffer metadata.Buffer, index metadata.IndexType) {
	cmd := d.drawCmd("BindIndexBuffer")
	if cmd == nil {
		return
	}
	buf, ok := buffer.(*VulkanBuffer)
	if !ok || buf == nil || buf.Handle == nil || buf.usage != metadata.BufferUsageIndex {
		core.LogFatal("BindIndexBuffer: %T is not a live Vulkan index buffer", buffer)
		return
	}
	if d.current != nil && index != d.current.desc.Index {
		core.LogWarn("BindIndexBuffer: %s indices bound to pipeline %s built for %s", index, d.current.label, d.current.desc.Index)
	}
	vk.CmdBindIndexBuffer(cmd.Handle, buf.Handle, 0, indexType(index))
}

// BindTextures writes a fresh descriptor set from the frame's pool and binds it at set 1.
func (d *VulkanDevice) BindTextures(inputs []metadata.TextureInput, textures []metadata.Texture) {
	cmd := d.drawCmd("BindTextures")
	if cmd == nil {
		return
	}
	if len(inputs) != len(textures) {
		core.LogFatal("BindTextures: %d inputs for %d textures", len(inputs), len(textures))
		return
	}
	if d.current == nil {
		core.LogFatal("BindTextures called before BindPipeline")
		return
	}
	if len(inputs) == 0 {
		return
	}
	set, err := allocateDescriptorSet(d.context, d.frame().DescriptorPool, d.current.TexturesLayout)
	if err != nil {
		core.LogFatal("BindTextures: %s", err)
		return
	}
	writes := make([]vk.WriteDescriptorSet, len(inputs))
	for i, in := range inputs {
		view := d.defaultTexture.image.View
		if textures[i] != nil {
			t, ok := textures[i].(*VulkanTexture)
			if !ok || t.image == nil || t.image.View == nil {
				core.LogFatal("BindTextures: %T is not a live Vulkan texture", textures[i])
				return
			}
			view = t.image.View
		}
		writes[i] = imageWrite(set, in.Slot, view)
	}
	vk.UpdateDescriptorSets(d.context.LogicalDevice, uint32(len(writes)), writes, 0, nil)
	vk.CmdBindDescriptorSets(cmd.Handle, vk.PipelineBindPointGraphics, d.current.PipelineLayout, texturesSet, 1, []vk.DescriptorSet{set}, 0, nil)
}

// SetConstants copies the std140 block into the scratch ring and binds it at set 0.
func (d *VulkanDevice) SetConstants(data []byte) {
	cmd := d.drawCmd("SetConstants")
	if cmd == nil {
		return
	}
	if d.current == nil {
		core.LogFatal("SetConstants called before BindPipeline")
		return
	}
	if need := d.current.shader.Constants.Size; uint32(len(data)) < need {
		core.LogFatal("SetConstants: %s: %d bytes for %s, need %d", metadata.ErrConstantBlockShape, len(data), d.current.shader.Name, need)
		return
	}
	if len(data) == 0 {
		return
	}
	offset, err := d.scratch.Push(data, d.constantsAlign)
	if err != nil {
		core.LogFatal("SetConstants: %s", err)
		return
	}
	set, err := allocateDescriptorSet(d.context, d.frame().DescriptorPool, d.constantsLayout)
	if err != nil {
		core.LogFatal("SetConstants: %s", err)
		return
	}
	writes := []vk.WriteDescriptorSet{uniformWrite(set, d.scratch.Handle, offset, uint32(len(data)))}
	vk.UpdateDescriptorSets(d.context.LogicalDevice, 1, writes, 0, nil)
	vk.CmdBindDescriptorSets(cmd.Handle, vk.PipelineBindPointGraphics, d.current.PipelineLayout, constantsSet, 1, []vk.DescriptorSet{set}, 0, nil)
}

// Draw ignores primitive. The topology is baked into the bound pipeline.
func (d *VulkanDevice) Draw(offset, count uint32, primitive metadata.PrimitiveType) {
	cmd := d.drawCmd("Draw")
	if cmd == nil {
		return
	}
	vk.CmdDraw(cmd.Handle, count, 1, offset, 0)
}

func (d *VulkanDevice) DrawElements(offset, count uint32, primitive metadata.PrimitiveType, index metadata.IndexType) {
	cmd := d.drawCmd("DrawElements")
	if cmd == nil {
		return
	}
	vk.CmdDrawIndexed(cmd.Handle, count, 1, offset/index.Size(), 0, 0)
}

func (d *VulkanDevice) SetPolygonOffset(offset, slope float32) {
	cmd := d.drawCmd("SetPolygonOffset")
	if cmd == nil {
		return
	}
	// A zero clamp leaves the bias unclamped and needs no device feature.
	vk.CmdSetDepthBias(cmd.Handle, offset, 0, slope)
}

func (d *VulkanDevice) SetDepthRange(near, far float32) {
	cmd := d.drawCmd("SetDepthRange")
	if cmd == nil {
		return
	}
	d.setViewport(cmd, near, far)
}

// Flip submits the frame's copy and draw commands, presents the image and
// begins recording into the slot of the next image.
func (d *VulkanDevice) Flip() {
	cmd := d.drawCmd("Flip")
	if cmd == nil {
		return
	}
	f := d.frame()
	index := d.ring.Current().Index()

	d.renderpass.End(cmd)
	transitionImage(cmd, d.swapchain.Images[index], colorToPresent)
	if err := cmd.End(); err != nil {
		core.LogFatal("Flip: end draw commands: %s", err)
		return
	}
	recordBufferUploadBarrier(f.CopyCmd)
	if err := f.CopyCmd.End(); err != nil {
		core.LogFatal("Flip: end copy commands: %s", err)
		return
	}
	if err := f.Submit(d.swapchain.ImageAvailable); err != nil {
		core.LogFatal("Flip: %s", err)
		return
	}
	if err := d.swapchain.Present(f.RenderFinished); err != nil {
		core.LogFatal("Flip: %s", err)
		return
	}
	if err := d.ring.Advance(); err != nil {
		core.LogFatal("Flip: %s", err)
		return
	}
	// Bindings do not carry over into a new command buffer.
	d.current = nil
	if err := d.beginFrame(); err != nil {
		core.LogFatal("Flip: %s", err)
	}
}

// Destroy waits for the GPU, then releases everything in reverse creation order.
func (d *VulkanDevice) Destroy() {
	ctx := d.context
	if ctx == nil {
		return
	}
	if ctx.LogicalDevice != nil {
		vk.DeviceWaitIdle(ctx.LogicalDevice)

		if d.ring != nil {
			if err := d.ring.Close(); err != nil {
				core.LogWarn("closing frame ring: %s", err)
			}
		}
		for _, p := range d.pipelines {
			p.destroy(ctx)
		}
		d.pipelines = nil
		d.current = nil
		if d.defaultTexture != nil {
			d.defaultTexture.image.Destroy(ctx)
			d.defaultTexture = nil
		}
		if d.scratch != nil {
			d.scratch.Destroy()
			d.scratch = nil
		}
		for _, f := range d.frameData {
			f.Destroy()
		}
		d.frameData = nil
		d.ring = nil
		for _, fb := range d.framebuffers {
			fb.Destroy(ctx)
		}
		d.framebuffers = nil
		if d.renderpass != nil {
			d.renderpass.Destroy(ctx)
			d.renderpass = nil
		}
		if d.swapchain != nil {
			d.swapchain.Destroy()
			d.swapchain = nil
		}
		for _, s := range d.samplers {
			if s != nil {
				vk.DestroySampler(ctx.LogicalDevice, s, ctx.Allocator)
			}
		}
		d.samplers = nil
		if d.constantsLayout != nil {
			vk.DestroyDescriptorSetLayout(ctx.LogicalDevice, d.constantsLayout, ctx.Allocator)
			d.constantsLayout = nil
		}
		DestroyLogicalDevice(ctx)
	}
	destroyInstance(ctx)
	d.context = nil
	d.window = nil
	core.LogInfo("Vulkan device destroyed")
}
