package layout

import "github.com/olehluchkiv/topicmap/internal/mindmap"

// Config holds the radial layout constants. They are fixed per deployment.
type Config struct {
	CenterX         float64 `toml:"center_x" validate:"gte=0"`
	CenterY         float64 `toml:"center_y" validate:"gte=0"`
	CentralRadius   float64 `toml:"central_radius" validate:"gt=0"`
	SatelliteRadius float64 `toml:"satellite_radius" validate:"gt=0"`
	BaseCapacity    int     `toml:"base_capacity" validate:"gte=1"`
	CapacityGrowth  int     `toml:"capacity_growth" validate:"gte=0"`
	RingSpacing     float64 `toml:"ring_spacing" validate:"gt=0"` // ring step in satellite radii
}

// DefaultConfig returns the constants of an 800x600 reference canvas.
func DefaultConfig() Config {
	return Config{
		CenterX:         400,
		CenterY:         300,
		CentralRadius:   75,
		SatelliteRadius: 50,
		BaseCapacity:    8,
		CapacityGrowth:  4,
		RingSpacing:     2.5,
	}
}

// Kind tags a positioned node as the central node or a satellite.
type Kind string

const (
	KindCentral   Kind = "central"
	KindSatellite Kind = "satellite"
)

// PositionedNode is a node with its circle on the canvas. Satellites carry
// the item they were built from, so a rendered element never has to be
// matched back to its source by index arithmetic.
type PositionedNode struct {
	Kind     Kind                `json:"kind" yaml:"kind"`
	X        float64             `json:"x" yaml:"x"`
	Y        float64             `json:"y" yaml:"y"`
	Radius   float64             `json:"radius" yaml:"radius"`
	Ring     int                 `json:"ring" yaml:"ring"`
	ImageRef mindmap.ImageRef    `json:"imageRef,omitempty" yaml:"imageRef,omitempty"`
	Topic    mindmap.Topic       `json:"topic,omitempty" yaml:"topic,omitempty"`
	Item     *mindmap.VisualNode `json:"item,omitempty" yaml:"item,omitempty"`
}

// IsCentral reports whether n is the central node.
func (n PositionedNode) IsCentral() bool {
	return n.Kind == KindCentral
}

// Ring describes one concentric ring of satellites.
type Ring struct {
	Index     int     `json:"index" yaml:"index"` // starts at 1; ring 0 is the central node
	Capacity  int     `json:"capacity" yaml:"capacity"`
	Count     int     `json:"count" yaml:"count"` // capacity, or what remained for the last ring
	Radius    float64 `json:"radius" yaml:"radius"`
	AngleStep float64 `json:"angleStep" yaml:"angleStep"`
}

// BoundingBox spans every node circle.
type BoundingBox struct {
	MinX float64 `json:"minX" yaml:"minX"`
	MaxX float64 `json:"maxX" yaml:"maxX"`
	MinY float64 `json:"minY" yaml:"minY"`
	MaxY float64 `json:"maxY" yaml:"maxY"`
}

// Normalized is a layout translated into canvas coordinates.
type Normalized struct {
	Nodes  []PositionedNode `json:"nodes" yaml:"nodes"`
	Bounds BoundingBox      `json:"bounds" yaml:"bounds"` // bounds before translation
	Width  float64          `json:"width" yaml:"width"`
	Height float64          `json:"height" yaml:"height"`
}
