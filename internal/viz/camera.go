package viz

import (
	"math"

	"github.com/san-kum/esail/internal/quantity"
)

// Camera is an orbiting perspective view of the sail, used when the top view
// hides the out-of-plane bending caused by drag.
type Camera struct {
	RotX, RotY, RotZ float64
	Zoom             float64
	Distance         float64 // in units of the scene extent
}

func NewCamera() *Camera {
	return &Camera{RotX: -1.0, RotY: 0.3, Zoom: 1, Distance: 4}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) RotateZ(a float64) { c.RotZ += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// RotatePoint applies the camera orientation, X then Y then Z.
func (c *Camera) RotatePoint(p quantity.LengthVector) quantity.LengthVector {
	p = p.RotateAbout(quantity.UnitX, c.RotX)
	p = p.RotateAbout(quantity.UnitY, c.RotY)
	return p.RotateAbout(quantity.UnitZ, c.RotZ)
}

// Project maps p onto the canvas. extent is the scene radius in meters. It
// reports false for points behind the near plane.
func (c *Camera) Project(p quantity.LengthVector, extent float64, canvas *Canvas) (int, int, bool) {
	if !(extent > 0) {
		extent = 1
	}
	rot := c.RotatePoint(p.Scale(1 / extent))
	dist := c.Distance
	if rot.Z >= dist-0.1 {
		return 0, 0, false
	}
	persp := dist / (dist - rot.Z) * c.Zoom

	w, h := canvas.PixelSize()
	half := float64(min(w, h)) / 2
	sx := w/2 + int(math.Round(rot.X*persp*half*0.9))
	sy := h/2 - int(math.Round(rot.Y*persp*half*0.9))
	return sx, sy, true
}
