package view

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/olehluchkiv/topicmap/internal/interact"
	"github.com/olehluchkiv/topicmap/internal/layout"
	"github.com/olehluchkiv/topicmap/internal/mindmap"
)

// View is one immutable, fully laid-out map for a selection. It is replaced
// as a whole when the selection changes and never mutated afterwards.
type View struct {
	ID         string                  `json:"id" yaml:"id"`
	Generation uint64                  `json:"generation" yaml:"generation"`
	Topics     []mindmap.Topic         `json:"topics" yaml:"topics"`
	Nodes      []layout.PositionedNode `json:"nodes" yaml:"nodes"`
	Bounds     layout.BoundingBox      `json:"bounds" yaml:"bounds"`
	Width      float64                 `json:"width" yaml:"width"`
	Height     float64                 `json:"height" yaml:"height"`
	BuiltAt    time.Time               `json:"builtAt" yaml:"builtAt"`
}

// Header is the label drawn above the map: the first selected topic.
func (v *View) Header() string {
	if len(v.Topics) == 0 {
		return ""
	}
	return string(v.Topics[0])
}

// Satellites returns the number of satellite nodes.
func (v *View) Satellites() int {
	n := 0
	for _, node := range v.Nodes {
		if !node.IsCentral() {
			n++
		}
	}
	return n
}

// Mapper binds an interaction mapper to this view's rendering order.
func (v *View) Mapper(h interact.Handlers) *interact.Mapper {
	return interact.NewMapper(v.Nodes, h)
}

// Aggregator resolves a selection into nodes and a central image.
type Aggregator interface {
	Aggregate(ctx context.Context, topics []mindmap.Topic) ([]mindmap.VisualNode, error)
	CentralImage(ctx context.Context, topics []mindmap.Topic) (mindmap.ImageRef, error)
}

// Recorder observes completed and superseded builds.
type Recorder interface {
	RecordBuild(duration time.Duration, nodes int, err error)
	RecordSuperseded()
}

type nopRecorder struct{}

func (nopRecorder) RecordBuild(time.Duration, int, error) {}
func (nopRecorder) RecordSuperseded()                    {}

// Builder runs the aggregate → layout → normalize pipeline for a selection.
type Builder struct {
	agg      Aggregator
	engine   *layout.Engine
	recorder Recorder
	logger   *slog.Logger
}

// NewBuilder creates a builder. A nil recorder discards observations.
func NewBuilder(agg Aggregator, engine *layout.Engine, recorder Recorder, logger *slog.Logger) *Builder {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Builder{
		agg:      agg,
		engine:   engine,
		recorder: recorder,
		logger:   logger.With("component", "view-builder"),
	}
}

// Build produces a fresh view for topics. An empty selection yields an
// empty view. The only error returned is the context's.
func (b *Builder) Build(ctx context.Context, topics []mindmap.Topic) (*View, error) {
	start := time.Now()
	v, err := b.build(ctx, topics)
	nodes := 0
	if v != nil {
		nodes = len(v.Nodes)
	}
	b.recorder.RecordBuild(time.Since(start), nodes, err)
	return v, err
}

func (b *Builder) build(ctx context.Context, topics []mindmap.Topic) (*View, error) {
	topics = append([]mindmap.Topic(nil), topics...)

	// Step 1: aggregate satellites and fetch the central image concurrently.
	var (
		nodes   []mindmap.VisualNode
		central mindmap.ImageRef
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		nodes, err = b.agg.Aggregate(gctx, topics)
		return err
	})
	g.Go(func() error {
		ref, err := b.agg.CentralImage(gctx, topics)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.logger.Warn("central image unavailable, omitting it", "topic", topics[0], "error", err)
			return nil
		}
		central = ref
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Step 2: place nodes on rings.
	positioned := b.engine.Layout(topics, nodes, central)

	// Step 3: translate into canvas coordinates.
	norm := layout.Normalize(positioned, b.engine.Config())

	b.logger.Info("view built",
		"topics", len(topics),
		"satellites", len(nodes),
		"width", norm.Width,
		"height", norm.Height)

	return &View{
		ID:      uuid.NewString(),
		Topics:  topics,
		Nodes:   norm.Nodes,
		Bounds:  norm.Bounds,
		Width:   norm.Width,
		Height:  norm.Height,
		BuiltAt: time.Now().UTC(),
	}, nil
}
