package testbed

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/anima-gfx/engine"
	"github.com/spaghettifunk/anima-gfx/engine/core"
	"github.com/spaghettifunk/anima-gfx/engine/renderer/metadata"
)

const (
	logoTexture = "logo.png"
	hudFont     = "fonts/hud.fnt"
	logoSize    = 256
)

type TestGame struct {
	*engine.Game
	preload bool
}

type gameState struct {
	width  uint32
	height uint32
	// seconds since start, drives the shadow caster rotation
	elapsed float64

	unitQuad metadata.Buffer

	imagePipeline  metadata.PipelineStateObject
	shadowPipeline metadata.PipelineStateObject
	shadowBox      metadata.PipelineStateObject

	camera *Camera
	caster *shadowCaster
	hud    *hud
}

// NewTestGame returns a game drawing a textured quad, a stencil shadow and a
// text overlay. With preload set every predefined pipeline is built at startup.
func NewTestGame(cfg *engine.ApplicationConfig, preload bool) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: cfg,
			State:             &gameState{camera: NewCamera(), caster: newShadowCaster()},
		},
		preload: preload,
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Initialize() error {
	core.LogInfo("initializing testbed on the %s backend", g.Device.Backend())
	state := g.state()
	cache := g.SystemManager.PipelineCache

	if g.preload {
		if err := cache.Preload(); err != nil {
			return err
		}
		core.LogInfo("preloaded %d pipelines", cache.Len())
	}

	var err error
	if state.imagePipeline, err = cache.Named("DrawImage"); err != nil {
		return err
	}
	if state.shadowPipeline, err = cache.Named("DrawStencilShadow"); err != nil {
		return err
	}
	if state.shadowBox, err = cache.Named("ShadowBox2D"); err != nil {
		return err
	}

	state.unitQuad, err = g.Device.CreateBuffer(metadata.BufferUsageVertex, uint32(len(unitQuadVertices)))
	if err != nil {
		return err
	}
	if err := state.unitQuad.Upload(0, unitQuadVertices); err != nil {
		return fmt.Errorf("failed to upload the unit quad: %w", err)
	}

	if _, err := g.SystemManager.TextureSystem.Acquire(logoTexture); err != nil {
		return err
	}

	state.hud, err = newHUD(g.Device, cache, g.AssetManager.Resolve(hudFont))
	if err != nil {
		// the overlay is optional
		core.LogWarn("text overlay disabled: %s", err)
		state.hud = nil
	}
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.state()
	state.elapsed += deltaTime
	state.caster.update(float32(state.elapsed))
	state.camera.Orbit(mgl32.Vec3{0, 1, 0}, 7, float32(state.elapsed)*0.2, -0.45)
	if state.hud != nil {
		state.hud.update(core.MetricsFPS(), core.MetricsFrameTime(), core.MetricsFlipTime())
	}
	return nil
}

func (g *TestGame) Render(deltaTime float64) error {
	state := g.state()
	if state.width == 0 || state.height == 0 {
		return nil
	}
	ortho := mgl32.Ortho2D(0, float32(state.width), float32(state.height), 0)

	if err := g.drawLogo(state, ortho); err != nil {
		return err
	}
	if err := g.drawShadow(state, ortho); err != nil {
		return err
	}
	if state.hud != nil {
		return state.hud.draw(g.Device, ortho)
	}
	return nil
}

func (g *TestGame) drawLogo(state *gameState, ortho mgl32.Mat4) error {
	x := float32(state.width)/2 - logoSize/2
	y := float32(state.height)/2 - logoSize/2
	constants, err := metadata.TexturedRectConstants{
		Transformation: ortho.Mul4(rectTransform(x, y, logoSize, logoSize)),
		UVOffset:       mgl32.Vec2{0, 0},
		UVScale:        mgl32.Vec2{1, 1},
		Color:          mgl32.Vec4{1, 1, 1, 1},
	}.Encode(metadata.ShaderTexRect)
	if err != nil {
		return err
	}

	g.Device.BindPipeline(state.imagePipeline)
	g.Device.BindVertexBuffers(0, []metadata.VertexBufferBinding{{Buffer: state.unitQuad}})
	g.Device.BindTextures(state.imagePipeline.Description().Textures, []metadata.Texture{
		g.SystemManager.TextureSystem.Get(logoTexture),
	})
	g.Device.SetConstants(constants)
	g.Device.Draw(0, 4, metadata.PrimitiveTriangleStrip)
	return nil
}

// drawShadow marks the caster's shadow volume in the stencil buffer, then
// darkens every marked pixel with a full screen quad.
func (g *TestGame) drawShadow(state *gameState, ortho mgl32.Mat4) error {
	aspect := float32(state.width) / float32(state.height)
	volume, err := metadata.GenericColorConstants{
		ModelViewProjection: viewProjection(state.camera, aspect),
		Color:               mgl32.Vec4{0, 0, 0, 1},
	}.Encode(metadata.ShaderGenericColor)
	if err != nil {
		return err
	}

	g.Device.BindPipeline(state.shadowPipeline)
	g.Device.SetPolygonOffset(0.1, 1.0)
	g.Device.BindStreamedVertexBuffers(floatBytes(state.caster.vertices))
	g.Device.SetConstants(volume)
	g.Device.Draw(0, uint32(len(state.caster.vertices)/3), metadata.PrimitiveTriangles)
	g.Device.SetPolygonOffset(0, 0)

	box, err := metadata.RectConstants{
		Transformation: ortho.Mul4(rectTransform(0, 0, float32(state.width), float32(state.height))),
		Color:          mgl32.Vec4{0, 0, 0, 0.5},
	}.Encode(metadata.ShaderRect)
	if err != nil {
		return err
	}
	g.Device.BindPipeline(state.shadowBox)
	g.Device.BindVertexBuffers(0, []metadata.VertexBufferBinding{{Buffer: state.unitQuad}})
	g.Device.SetConstants(box)
	g.Device.Draw(0, 4, metadata.PrimitiveTriangleStrip)
	return nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.state()
	state.width = width
	state.height = height
	core.LogDebug("testbed viewport is now %dx%d", width, height)
	return nil
}

func (g *TestGame) Shutdown() error {
	state := g.state()
	if state.hud != nil {
		state.hud.destroy()
		state.hud = nil
	}
	if state.unitQuad != nil {
		state.unitQuad.Destroy()
		state.unitQuad = nil
	}
	if g.SystemManager != nil {
		if err := g.SystemManager.TextureSystem.Release(logoTexture); err != nil {
			core.LogWarn("%s", err)
		}
	}
	return nil
}
