// internal/grid/grid.go

// Package grid converts normalized 0-999 grid coordinates into concrete
// viewport pixels. The mapping is pure and is re-derived from the live
// viewport size for every dispatched event, never cached: the viewport can
// change between two events of the same action (for example mid-drag).
package grid

import (
	"math"

	"github.com/xkilldash9x/gridpilot-cli/api/schemas"
)

// Pixel is a concrete viewport position.
type Pixel struct {
	X int64
	Y int64
}

// ToViewportPixel maps a grid coordinate onto a viewport of the given size.
//
//	px = clamp(round(x/999 * max(1, w-1)), 0, w-1)
//
// and symmetrically for y. A degenerate axis (width or height <= 1) maps
// everything to pixel 0; the divisor is the grid span, so no viewport size can
// cause a division by zero.
func ToViewportPixel(c schemas.GridCoordinate, width, height int64) Pixel {
	return Pixel{
		X: mapAxis(c.X, width),
		Y: mapAxis(c.Y, height),
	}
}

func mapAxis(v, extent int64) int64 {
	if extent <= 1 {
		return 0
	}
	span := extent - 1
	px := int64(math.Round(float64(v) / float64(schemas.GridMax) * float64(span)))
	if px < 0 {
		return 0
	}
	if px > span {
		return span
	}
	return px
}
