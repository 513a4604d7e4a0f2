package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/san-kum/esail/internal/quantity"
	"github.com/san-kum/esail/internal/sim"
)

type exportFrame struct {
	Time      float64      `json:"time"`
	Deployed  int          `json:"deployed"`
	Positions [][3]float64 `json:"positions"`
	Forces    [][3]float64 `json:"forces"`
}

type ExportData struct {
	Run    *RunMetadata  `json:"run,omitempty"`
	Frames []exportFrame `json:"frames"`
}

// ExportJSON writes run metadata and frames to w as indented JSON.
func ExportJSON(w io.Writer, meta *RunMetadata, frames []sim.Frame) error {
	data := ExportData{Run: meta, Frames: make([]exportFrame, len(frames))}
	for i, f := range frames {
		ef := exportFrame{
			Time:      f.Time,
			Deployed:  f.Deployed,
			Positions: make([][3]float64, len(f.Positions)),
			Forces:    make([][3]float64, len(f.Forces)),
		}
		for j, p := range f.Positions {
			ef.Positions[j] = [3]float64{p.X, p.Y, p.Z}
		}
		for j, p := range f.Forces {
			ef.Forces[j] = [3]float64{p.X, p.Y, p.Z}
		}
		data.Frames[i] = ef
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportTipCSV writes the tip track, one row per frame, with its distance
// from axis.
func ExportTipCSV(w io.Writer, frames []sim.Frame, axis quantity.Direction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "deployed", "x", "y", "z", "radius"}); err != nil {
		return err
	}
	for _, f := range frames {
		if len(f.Positions) == 0 {
			continue
		}
		tip := f.Positions[len(f.Positions)-1]
		rec := []string{
			formatFloat(f.Time),
			formatFloat(float64(f.Deployed)),
			formatFloat(tip.X),
			formatFloat(tip.Y),
			formatFloat(tip.Z),
			formatFloat(tip.Perpendicular(axis).Magnitude()),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// TipSeries extracts one coordinate of the tip over time, for plotting and
// spectral analysis. axis is 0, 1 or 2 for x, y or z.
func TipSeries(frames []sim.Frame, axis int) []float64 {
	out := make([]float64, 0, len(frames))
	for _, f := range frames {
		if len(f.Positions) == 0 {
			continue
		}
		tip := f.Positions[len(f.Positions)-1]
		switch axis {
		case 0:
			out = append(out, tip.X)
		case 1:
			out = append(out, tip.Y)
		default:
			out = append(out, tip.Z)
		}
	}
	return out
}
