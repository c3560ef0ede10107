package view

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/olehluchkiv/topicmap/internal/layout"
	"github.com/olehluchkiv/topicmap/internal/mindmap"
)

// ErrSuperseded is returned by Select when a newer selection replaced the
// one being built before it finished.
var ErrSuperseded = errors.New("selection superseded")

// Controller owns the current view. Each selection starts a new build and
// cancels the previous one; only the latest selection is ever published.
type Controller struct {
	builder *Builder
	logger  *slog.Logger

	mu         sync.RWMutex
	current    *View
	generation uint64
	cancel     context.CancelFunc
}

// NewController creates a controller whose current view is empty.
func NewController(builder *Builder, logger *slog.Logger) *Controller {
	empty := layout.Normalize(nil, builder.engine.Config())
	return &Controller{
		builder: builder,
		logger:  logger.With("component", "view-controller"),
		current: &View{
			Nodes:  empty.Nodes,
			Bounds: empty.Bounds,
			Width:  empty.Width,
			Height: empty.Height,
		},
	}
}

// Select replaces the selection and blocks until its view is built. If a
// later Select starts first, this one returns ErrSuperseded and its result
// is discarded.
func (c *Controller) Select(ctx context.Context, topics []mindmap.Topic) (*View, error) {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	if c.cancel != nil {
		c.cancel()
	}
	buildCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	c.logger.Info("selection changed", "generation", gen, "topics", topics)

	v, err := c.builder.Build(buildCtx, topics)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		c.logger.Info("discarding stale view", "generation", gen, "latest", c.generation)
		c.builder.recorder.RecordSuperseded()
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, err
	}
	v.Generation = gen
	c.current = v
	return v, nil
}

// Current returns the latest published view. It is never nil.
func (c *Controller) Current() *View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Lookup returns the current view if its id matches. Any other id refers to
// a view that has been replaced.
func (c *Controller) Lookup(id string) (*View, bool) {
	v := c.Current()
	if v.ID == "" || v.ID != id {
		return nil, false
	}
	return v, true
}
