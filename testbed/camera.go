package testbed

import (
	"github.com/go-gl/mathgl/mgl32"
)

// pitchLimit is 89 degrees, short of the gimbal lock.
const pitchLimit = float32(1.55334306)

/**
 * @brief A free camera. The view matrix is rebuilt lazily after the
 * position or rotation changes.
 */
type Camera struct {
	position mgl32.Vec3
	// euler rotation as pitch, yaw, roll
	rotation mgl32.Vec3
	isDirty  bool
	view     mgl32.Mat4
}

func NewCamera() *Camera {
	c := &Camera{}
	c.Reset()
	return c
}

func (c *Camera) Reset() {
	c.position = mgl32.Vec3{}
	c.rotation = mgl32.Vec3{}
	c.isDirty = false
	c.view = mgl32.Ident4()
}

func (c *Camera) Position() mgl32.Vec3 {
	return c.position
}

func (c *Camera) SetPosition(position mgl32.Vec3) {
	c.position = position
	c.isDirty = true
}

func (c *Camera) SetRotation(pitch, yaw, roll float32) {
	c.rotation = mgl32.Vec3{mgl32.Clamp(pitch, -pitchLimit, pitchLimit), yaw, roll}
	c.isDirty = true
}

func (c *Camera) View() mgl32.Mat4 {
	if c.isDirty {
		rotation := mgl32.HomogRotate3DY(c.rotation.Y()).
			Mul4(mgl32.HomogRotate3DX(c.rotation.X())).
			Mul4(mgl32.HomogRotate3DZ(c.rotation.Z()))
		world := mgl32.Translate3D(c.position.Elem()).Mul4(rotation)
		c.view = world.Inv()
		c.isDirty = false
	}
	return c.view
}

// Forward returns the direction the camera looks at, -Z in view space.
func (c *Camera) Forward() mgl32.Vec3 {
	v := c.View()
	return mgl32.Vec3{-v.At(2, 0), -v.At(2, 1), -v.At(2, 2)}.Normalize()
}

func (c *Camera) Right() mgl32.Vec3 {
	v := c.View()
	return mgl32.Vec3{v.At(0, 0), v.At(0, 1), v.At(0, 2)}.Normalize()
}

func (c *Camera) MoveForward(amount float32) {
	c.SetPosition(c.position.Add(c.Forward().Mul(amount)))
}

func (c *Camera) MoveRight(amount float32) {
	c.SetPosition(c.position.Add(c.Right().Mul(amount)))
}

func (c *Camera) Yaw(amount float32) {
	c.SetRotation(c.rotation.X(), c.rotation.Y()+amount, c.rotation.Z())
}

func (c *Camera) Pitch(amount float32) {
	c.SetRotation(c.rotation.X()+amount, c.rotation.Y(), c.rotation.Z())
}

// Orbit places the camera distance units from target at the given yaw and
// pitch, looking at target.
func (c *Camera) Orbit(target mgl32.Vec3, distance, yaw, pitch float32) {
	pitch = mgl32.Clamp(pitch, -pitchLimit, pitchLimit)
	c.SetRotation(pitch, yaw, 0)
	c.SetPosition(target.Sub(c.Forward().Mul(distance)))
}
