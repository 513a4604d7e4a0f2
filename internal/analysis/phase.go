package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/esail/internal/quantity"
)

type Point struct{ X, Y float64 }

// PlaneTrack projects positions onto the plane normal to axis, using two
// in-plane reference directions. For a +z axis this is simply (x, y).
func PlaneTrack(positions []quantity.LengthVector, axis quantity.Direction) []Point {
	u, v := planeBasis(axis)
	out := make([]Point, len(positions))
	for i, p := range positions {
		d := quantity.NewDirection(p.X, p.Y, p.Z)
		out[i] = Point{X: d.Dot(u), Y: d.Dot(v)}
	}
	return out
}

func planeBasis(axis quantity.Direction) (quantity.Direction, quantity.Direction) {
	n := axis.Unit()
	if n.IsZero() {
		return quantity.UnitX, quantity.UnitY
	}
	ref := quantity.UnitX
	if math.Abs(n.X) > 0.9 {
		ref = quantity.UnitY
	}
	u := ref.Perpendicular(n).Unit()
	v := u.RotateAbout(n, math.Pi/2)
	return u, v
}

// Crossings returns the interpolated times at which the track crosses the
// positive X half-axis going counter-clockwise (Y from negative to
// non-negative with X > 0). Successive differences give the spin period.
func Crossings(times []float64, track []Point) []float64 {
	n := min(len(times), len(track))
	var out []float64
	for i := 1; i < n; i++ {
		a, b := track[i-1], track[i]
		if !(a.Y < 0 && b.Y >= 0) || (a.X <= 0 && b.X <= 0) {
			continue
		}
		frac := -a.Y / (b.Y - a.Y)
		if math.IsNaN(frac) || math.IsInf(frac, 0) {
			frac = 0.5
		}
		out = append(out, times[i-1]+frac*(times[i]-times[i-1]))
	}
	return out
}

// TrackToASCII plots a track on a width×height character grid.
func TrackToASCII(points []Point, width, height int) string {
	if len(points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := range height {
			canvas[row][col] = '│'
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := range width {
			if canvas[row][col] == '│' {
				canvas[row][col] = '┼'
			} else {
				canvas[row][col] = '─'
			}
		}
	}

	for _, p := range points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
