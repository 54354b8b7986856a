package testbed

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// unitQuadVertices is a triangle strip over [0,1]x[0,1], one normalized
// u8x4 per corner.
var unitQuadVertices = []byte{
	0, 0, 0, 0,
	255, 0, 0, 0,
	0, 255, 0, 0,
	255, 255, 0, 0,
}

// rectTransform maps the unit quad onto a w x h rectangle at x, y.
func rectTransform(x, y, w, h float32) mgl32.Mat4 {
	return mgl32.Translate3D(x, y, 0).Mul4(mgl32.Scale3D(w, h, 1))
}

func floatBytes(values []float32) []byte {
	out := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

const (
	casterRadius = 1.0
	// volumeDepth is how far the caster is extruded away from the light.
	volumeDepth = 6.0
)

// shadowCaster is a triangle spinning above the ground plane. Every frame its
// shadow volume is rebuilt as a closed prism extruded along the light direction.
type shadowCaster struct {
	light    mgl32.Vec3
	corners  [3]mgl32.Vec3
	vertices []float32
}

func newShadowCaster() *shadowCaster {
	c := &shadowCaster{light: mgl32.Vec3{0.3, -1, 0.2}.Normalize()}
	c.update(0)
	return c
}

func (c *shadowCaster) update(elapsed float32) {
	rotation := mgl32.HomogRotate3DY(elapsed * 0.8)
	for i := range c.corners {
		angle := float64(i) * 2 * math.Pi / 3
		corner := mgl32.Vec4{
			casterRadius * float32(math.Cos(angle)),
			1.5,
			casterRadius * float32(math.Sin(angle)),
			1,
		}
		c.corners[i] = rotation.Mul4x1(corner).Vec3()
	}
	c.vertices = c.buildVolume(c.vertices[:0])
}

// buildVolume appends the front cap, the back cap and the three extruded
// sides of the volume as a float3 triangle list.
func (c *shadowCaster) buildVolume(out []float32) []float32 {
	var far [3]mgl32.Vec3
	for i, p := range c.corners {
		far[i] = p.Add(c.light.Mul(volumeDepth))
	}
	tri := func(a, b, d mgl32.Vec3) {
		out = append(out, a[0], a[1], a[2], b[0], b[1], b[2], d[0], d[1], d[2])
	}

	tri(c.corners[0], c.corners[1], c.corners[2])
	tri(far[2], far[1], far[0])
	for i := range c.corners {
		j := (i + 1) % len(c.corners)
		tri(c.corners[i], far[i], far[j])
		tri(c.corners[i], far[j], c.corners[j])
	}
	return out
}

func viewProjection(camera *Camera, aspect float32) mgl32.Mat4 {
	projection := mgl32.Perspective(mgl32.DegToRad(60), aspect, 0.1, 100)
	return projection.Mul4(camera.View())
}
