package testbed

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/anima-gfx/engine/assets"
	"github.com/spaghettifunk/anima-gfx/engine/renderer"
	"github.com/spaghettifunk/anima-gfx/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-gfx/engine/systems"
)

const (
	hudMargin = 8
	hudScale  = 1
)

// hudPipeline draws interleaved position and texture coordinate text
// vertices streamed every frame.
var hudPipeline = metadata.PipelineDescription{
	State: metadata.StateDescription{
		Blend:     metadata.BlendText,
		Depth:     metadata.DepthCmpAlwaysWriteOff,
		ColorMask: metadata.ColorMaskAll,
	},
	Shader:    metadata.ShaderGfxText,
	Primitive: metadata.PrimitiveTriangles,
	Textures:  []metadata.TextureInput{{Slot: 0, Sampler: metadata.SamplerNearestClamped}},
	VertexBuffers: []metadata.VertexBuffer{{
		Stride: 16,
		Attributes: []metadata.VertexAttribute{
			{Location: metadata.AttribPosition, Type: metadata.VertexAttributeFloat2, Offset: 0},
			{Location: metadata.AttribTexCoord, Type: metadata.VertexAttributeFloat2, Offset: 8},
		},
	}},
}

// hud renders frame statistics with a bitmap font.
type hud struct {
	font     *assets.BitmapFont
	page     metadata.Texture
	pipeline metadata.PipelineStateObject
	text     string
	vertices []byte
}

func newHUD(device renderer.Device, cache *systems.PipelineCache, fontPath string) (*hud, error) {
	font, err := assets.LoadBitmapFont(fontPath)
	if err != nil {
		return nil, err
	}
	if len(font.Pages) == 0 {
		return nil, fmt.Errorf("font %s has no pages", font.Face)
	}
	pso, err := cache.Get(hudPipeline)
	if err != nil {
		return nil, err
	}

	img := font.Pages[0]
	page, err := device.CreateTexture(img.MipLevels(), img.Width, img.Height, metadata.PixelFormatRGBA8)
	if err != nil {
		return nil, err
	}
	for level := uint32(0); level < img.MipLevels(); level++ {
		w, h, pixels := img.Level(level)
		if err := page.Upload(level, 0, 0, w, h, metadata.PixelFormatRGBA8, pixels); err != nil {
			page.Destroy()
			return nil, fmt.Errorf("failed to upload font page: %w", err)
		}
	}
	return &hud{font: font, page: page, pipeline: pso}, nil
}

// update lays the statistics out again when the displayed text changes.
func (h *hud) update(fps, frameTime, flipTime float64) {
	text := fmt.Sprintf("%.0f fps  frame %.2f ms  flip %.2f ms", fps, frameTime, flipTime)
	if text == h.text {
		return
	}
	h.text = text
	h.vertices = floatBytes(h.font.Layout(text, hudMargin, hudMargin, hudScale))
}

func (h *hud) draw(device renderer.Device, ortho mgl32.Mat4) error {
	if len(h.vertices) == 0 {
		return nil
	}
	constants, err := metadata.GfxTextConstants{
		Position: ortho,
		Color:    mgl32.Vec4{1, 1, 1, 1},
	}.Encode(metadata.ShaderGfxText)
	if err != nil {
		return err
	}
	device.BindPipeline(h.pipeline)
	device.BindStreamedVertexBuffers(h.vertices)
	device.BindTextures(h.pipeline.Description().Textures, []metadata.Texture{h.page})
	device.SetConstants(constants)
	device.Draw(0, uint32(len(h.vertices))/16, metadata.PrimitiveTriangles)
	return nil
}

func (h *hud) destroy() {
	if h.page != nil {
		h.page.Destroy()
		h.page = nil
	}
}
