package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/esail/internal/analysis"
	"github.com/san-kum/esail/internal/quantity"
	"github.com/san-kum/esail/internal/sim"
)

type bounds struct {
	minX, minY, rangeX, rangeY float64
}

// fit returns padded bounds with equal scale on both axes, so circles stay
// circles.
func fit(points []analysis.Point) bounds {
	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	span := math.Max(maxX-minX, maxY-minY)
	if span == 0 {
		span = 1
	}
	span *= 1.2
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	return bounds{minX: cx - span/2, minY: cy - span/2, rangeX: span, rangeY: span}
}

func (b bounds) project(p analysis.Point, width, height int) (float64, float64) {
	x := (p.X - b.minX) / b.rangeX * float64(width)
	y := float64(height) - (p.Y-b.minY)/b.rangeY*float64(height)
	return x, y
}

func header(sb *strings.Builder, width, height int) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
}

// ChainToSVG draws a frame viewed down the spin axis: the spacecraft body at
// the origin, the tether as a polyline, stowed and deployed elements in
// different colors and the end mass enlarged.
func ChainToSVG(frame sim.Frame, axis quantity.Direction, width, height int) string {
	if len(frame.Positions) == 0 {
		return ""
	}
	track := analysis.PlaneTrack(frame.Positions, axis)
	b := fit(append([]analysis.Point{{}}, track...))

	var sb strings.Builder
	header(&sb, width, height)

	ox, oy := b.project(analysis.Point{}, width, height)
	fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="6" fill="#888888"/>
`, ox, oy)

	sb.WriteString(`<path fill="none" stroke="#3b82f6" stroke-width="1.5" d="M`)
	for i, p := range track {
		x, y := b.project(p, width, height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n")

	stowed := len(track) - frame.Deployed
	for i, p := range track {
		x, y := b.project(p, width, height)
		color, r := "#22c55e", 2.0
		if i < stowed {
			color = "#666666"
		}
		if i == len(track)-1 {
			color, r = "#f59e0b", 5
		}
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, x, y, r, color)
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// TrackToSVG draws a path such as the tip track.
func TrackToSVG(points []analysis.Point, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}
	b := fit(points)

	var sb strings.Builder
	header(&sb, width, height)
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor)
	for i, p := range points {
		x, y := b.project(p, width, height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
