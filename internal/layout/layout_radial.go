package layout

import (
	"math"

	"github.com/olehluchkiv/topicmap/internal/mindmap"
)

// Engine places a central node and its satellites on concentric rings.
// Ring k holds up to BaseCapacity + k*CapacityGrowth satellites at radius
// CentralRadius + k*RingSpacing*SatelliteRadius, spaced evenly from angle 0.
type Engine struct {
	cfg Config
}

// NewEngine creates a radial layout engine. Non-positive radii, base
// capacity and ring spacing, and a negative capacity growth, fall back to
// DefaultConfig values. The anchor and a zero growth are kept as given.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.CentralRadius <= 0 {
		cfg.CentralRadius = def.CentralRadius
	}
	if cfg.SatelliteRadius <= 0 {
		cfg.SatelliteRadius = def.SatelliteRadius
	}
	if cfg.BaseCapacity <= 0 {
		cfg.BaseCapacity = def.BaseCapacity
	}
	if cfg.CapacityGrowth < 0 {
		cfg.CapacityGrowth = def.CapacityGrowth
	}
	if cfg.RingSpacing <= 0 {
		cfg.RingSpacing = def.RingSpacing
	}
	return &Engine{cfg: cfg}
}

// Config returns the effective constants.
func (e *Engine) Config() Config {
	return e.cfg
}

// Plan partitions n satellites into rings. Ring capacities never decrease
// and the counts sum to n. Every ring but the last is full.
func (e *Engine) Plan(n int) []Ring {
	var rings []Ring
	remaining := n
	for k := 1; remaining > 0; k++ {
		capacity := e.capacity(k)
		count := min(remaining, capacity)
		rings = append(rings, Ring{
			Index:     k,
			Capacity:  capacity,
			Count:     count,
			Radius:    e.ringRadius(k),
			AngleStep: 2 * math.Pi / float64(count),
		})
		remaining -= count
	}
	return rings
}

func (e *Engine) capacity(k int) int {
	return e.cfg.BaseCapacity + k*e.cfg.CapacityGrowth
}

func (e *Engine) ringRadius(k int) float64 {
	return e.cfg.CentralRadius + float64(k)*(e.cfg.RingSpacing*e.cfg.SatelliteRadius)
}

// Layout positions the central node and every satellite in layout space.
// An empty selection yields an empty layout. Otherwise the central node comes
// first, followed by one satellite per input node in input order.
func (e *Engine) Layout(selection []mindmap.Topic, nodes []mindmap.VisualNode, central mindmap.ImageRef) []PositionedNode {
	if len(selection) == 0 {
		return nil
	}

	out := make([]PositionedNode, 0, len(nodes)+1)
	out = append(out, PositionedNode{
		Kind:     KindCentral,
		X:        e.cfg.CenterX,
		Y:        e.cfg.CenterY,
		Radius:   e.cfg.CentralRadius,
		ImageRef: central,
		Topic:    selection[0],
	})

	next := 0
	for _, ring := range e.Plan(len(nodes)) {
		for i := 0; i < ring.Count; i++ {
			angle := float64(i) * ring.AngleStep
			item := nodes[next]
			out = append(out, PositionedNode{
				Kind:     KindSatellite,
				X:        e.cfg.CenterX + ring.Radius*math.Cos(angle),
				Y:        e.cfg.CenterY + ring.Radius*math.Sin(angle),
				Radius:   e.cfg.SatelliteRadius,
				Ring:     ring.Index,
				ImageRef: item.ImageRef,
				Topic:    item.Topic,
				Item:     &item,
			})
			next++
		}
	}

	return out
}
