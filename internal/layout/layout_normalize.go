package layout

import "math"

// snapEpsilon absorbs float rounding so that normalizing an already
// normalized layout leaves it untouched.
const snapEpsilon = 1e-9

// Bounds returns the box spanning every node circle. An empty layout is
// bounded by the central node's circle at the anchor.
func Bounds(nodes []PositionedNode, cfg Config) BoundingBox {
	if len(nodes) == 0 {
		return BoundingBox{
			MinX: cfg.CenterX - cfg.CentralRadius,
			MaxX: cfg.CenterX + cfg.CentralRadius,
			MinY: cfg.CenterY - cfg.CentralRadius,
			MaxY: cfg.CenterY + cfg.CentralRadius,
		}
	}

	box := BoundingBox{
		MinX: math.Inf(1),
		MaxX: math.Inf(-1),
		MinY: math.Inf(1),
		MaxY: math.Inf(-1),
	}
	for _, n := range nodes {
		box.MinX = math.Min(box.MinX, n.X-n.Radius)
		box.MaxX = math.Max(box.MaxX, n.X+n.Radius)
		box.MinY = math.Min(box.MinY, n.Y-n.Radius)
		box.MaxY = math.Max(box.MaxY, n.Y+n.Radius)
	}
	return box
}

// Viewport returns the canvas size for a bounding box: its extent plus a
// margin of one central radius on every side.
func Viewport(box BoundingBox, cfg Config) (width, height float64) {
	width = box.MaxX - box.MinX + 2*cfg.CentralRadius
	height = box.MaxY - box.MinY + 2*cfg.CentralRadius
	return width, height
}

// Normalize translates a layout so every circle lies inside a canvas with a
// margin of one central radius. The input is not modified. Normalizing the
// output again yields the same nodes.
func Normalize(nodes []PositionedNode, cfg Config) Normalized {
	box := Bounds(nodes, cfg)
	width, height := Viewport(box, cfg)

	dx := cfg.CentralRadius - box.MinX
	dy := cfg.CentralRadius - box.MinY
	if math.Abs(dx) < snapEpsilon {
		dx = 0
	}
	if math.Abs(dy) < snapEpsilon {
		dy = 0
	}

	out := make([]PositionedNode, len(nodes))
	for i, n := range nodes {
		n.X += dx
		n.Y += dy
		out[i] = n
	}

	return Normalized{
		Nodes:  out,
		Bounds: box,
		Width:  width,
		Height: height,
	}
}
