package testbed

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-gfx/engine/renderer/metadata"
)

func TestShadowVolumeIsAClosedPrism(t *testing.T) {
	c := newShadowCaster()
	// two caps plus two triangles per side, three floats per vertex
	require.Len(t, c.vertices, (2+3*2)*3*3)

	c.update(1.25)
	require.Len(t, c.vertices, (2+3*2)*3*3, "rebuilding reuses the same shape")

	for _, corner := range c.corners {
		assert.InDelta(t, 1.5, corner.Y(), 1e-5)
		assert.InDelta(t, casterRadius, mgl32.Vec2{corner.X(), corner.Z()}.Len(), 1e-5)
	}
}

func TestHUDPipelineIsValid(t *testing.T) {
	require.NoError(t, hudPipeline.Validate())
	assert.Equal(t, uint32(16), hudPipeline.VertexBuffers[0].EffectiveStride())
}

func TestFloatBytesIsLittleEndian(t *testing.T) {
	out := floatBytes([]float32{1, -2.5})
	require.Len(t, out, 8)
	assert.Equal(t, math.Float32bits(1), binary.LittleEndian.Uint32(out[0:]))
	assert.Equal(t, math.Float32bits(-2.5), binary.LittleEndian.Uint32(out[4:]))
}

func TestRectTransformMapsTheUnitQuad(t *testing.T) {
	m := rectTransform(10, 20, 100, 50)
	far := m.Mul4x1(mgl32.Vec4{1, 1, 0, 1})
	assert.InDelta(t, 110, far.X(), 1e-4)
	assert.InDelta(t, 70, far.Y(), 1e-4)

	desc, err := metadata.PredefinedPipeline("DrawImage")
	require.NoError(t, err)
	assert.Equal(t, uint32(len(unitQuadVertices))/4, uint32(4))
	assert.Equal(t, uint32(4), desc.VertexBuffers[0].EffectiveStride())
}

func TestCameraOrbitLooksAtTarget(t *testing.T) {
	c := NewCamera()
	assert.Equal(t, mgl32.Ident4(), c.View())

	target := mgl32.Vec3{0, 1, 0}
	c.Orbit(target, 5, 0.7, -0.4)
	assert.InDelta(t, 5, c.Position().Sub(target).Len(), 1e-4)

	toTarget := target.Sub(c.Position()).Normalize()
	assert.InDelta(t, 1, c.Forward().Dot(toTarget), 1e-4)

	// the target sits straight ahead in view space
	inView := c.View().Mul4x1(target.Vec4(1))
	assert.InDelta(t, 0, inView.X(), 1e-4)
	assert.InDelta(t, 0, inView.Y(), 1e-4)
	assert.InDelta(t, -5, inView.Z(), 1e-4)
}

func TestCameraPitchIsClamped(t *testing.T) {
	c := NewCamera()
	c.Pitch(10)
	c.View()
	assert.InDelta(t, float64(pitchLimit), float64(c.rotation.X()), 1e-6)

	c.Yaw(0.5)
	c.MoveForward(2)
	assert.InDelta(t, 2, c.Position().Len(), 1e-4)
}
