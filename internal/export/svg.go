package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/gravsim/internal/sim"
)

const (
	bodyColor  = "#00ccff"
	mainColor  = "#ff00ff"
	background = "#0a0a0a"
)

// SnapshotSVG draws the bodies of snap as circles in a size x size image
// covering world coordinates [-viewRadius, viewRadius] on both axes, +Y up.
// The main body is highlighted; in center-of-mass mode the origin is marked
// instead.
func SnapshotSVG(w io.Writer, snap sim.Snapshot, viewRadius float64, size int) error {
	if viewRadius <= 0 || size <= 0 {
		return fmt.Errorf("export: view radius and size must be positive")
	}
	scale := float64(size) / (2 * viewRadius)
	half := float64(size) / 2
	px := func(x float64) float64 { return half + x*scale }
	py := func(y float64) float64 { return half - y*scale }

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, size, size, size, size, background)

	for _, b := range snap.Bodies {
		color := bodyColor
		if b.Main {
			color = mainColor
		}
		fmt.Fprintf(&sb, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="none" stroke="%s"/>
`, px(b.Position.X), py(b.Position.Y), b.Radius*scale, color)
	}

	if snap.MainBody < 0 && len(snap.Bodies) > 0 {
		fmt.Fprintf(&sb, `<path d="M %.2f %.2f h 8 M %.2f %.2f v 8" stroke="%s"/>
`, half-4, half, half, half-4, mainColor)
	}

	fmt.Fprintf(&sb, `<text x="8" y="16" fill="#888899" font-family="monospace" font-size="12">t=%.2f bodies=%d</text>
</svg>
`, snap.Diag.Time, len(snap.Bodies))

	_, err := io.WriteString(w, sb.String())
	return err
}
