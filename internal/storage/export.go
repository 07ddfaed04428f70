package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/granule/internal/dynamo"
	"github.com/san-kum/granule/internal/engine"
)

type ExportData struct {
	Run    RunMetadata          `json:"run"`
	Frames []engine.FrameRecord `json:"frames"`
}

// ExportJSON writes a run's metadata and frame records as one JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	frames, err := s.LoadFrames(runID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: *meta, Frames: frames})
}

// SnapshotSVG draws particles as circles on a square canvas mapped from the
// [-1, 1]² world. Grabbed particles are highlighted.
func SnapshotSVG(ps []dynamo.Particle, size int) string {
	var sb strings.Builder
	scale := float64(size) / 2

	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00d7ff">
`, size, size, size, size)

	var grabbed []dynamo.Particle
	for _, p := range ps {
		if p.Grabbed {
			grabbed = append(grabbed, p)
			continue
		}
		writeCircle(&sb, p, scale)
	}
	sb.WriteString("</g>\n")

	if len(grabbed) > 0 {
		sb.WriteString(`<g fill="#ff5f87">` + "\n")
		for _, p := range grabbed {
			writeCircle(&sb, p, scale)
		}
		sb.WriteString("</g>\n")
	}
	sb.WriteString("</svg>")
	return sb.String()
}

func writeCircle(sb *strings.Builder, p dynamo.Particle, scale float64) {
	// flip y so +y points up
	cx := (float64(p.Position.X) + 1) * scale
	cy := (1 - float64(p.Position.Y)) * scale
	r := float64(p.Radius) * scale
	if r < 0.5 {
		r = 0.5
	}
	fmt.Fprintf(sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, r)
}
