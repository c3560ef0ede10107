package view

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehluchkiv/topicmap/internal/interact"
	"github.com/olehluchkiv/topicmap/internal/layout"
	"github.com/olehluchkiv/topicmap/internal/mindmap"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeAggregator returns one node per topic letter. Topics listed in gates
// block until their channel is closed.
type fakeAggregator struct {
	mu          sync.Mutex
	gates       map[mindmap.Topic]chan struct{}
	ignoreCtx   bool
	centralErr  error
	started     chan mindmap.Topic
	centralRefs map[mindmap.Topic]mindmap.ImageRef
}

func (f *fakeAggregator) Aggregate(ctx context.Context, topics []mindmap.Topic) ([]mindmap.VisualNode, error) {
	if len(topics) == 0 {
		return nil, nil
	}
	if f.started != nil {
		f.started <- topics[0]
	}
	f.mu.Lock()
	gate := f.gates[topics[0]]
	f.mu.Unlock()
	if gate != nil {
		if f.ignoreCtx {
			<-gate
		} else {
			select {
			case <-gate:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	var nodes []mindmap.VisualNode
	for _, topic := range topics {
		for _, id := range []string{"a", "b", "c"} {
			nodes = append(nodes, mindmap.VisualNode{
				SourceID: string(topic) + "-" + id,
				Title:    id,
				Topic:    topic,
				ImageRef: mindmap.ImageRef("/images/" + id),
			})
		}
	}
	return nodes, nil
}

func (f *fakeAggregator) CentralImage(_ context.Context, topics []mindmap.Topic) (mindmap.ImageRef, error) {
	if len(topics) == 0 {
		return "", nil
	}
	if f.centralErr != nil {
		return "", f.centralErr
	}
	return mindmap.ImageRef("data:image/png;base64,"+string(topics[0])), nil
}

type countingRecorder struct {
	mu         sync.Mutex
	builds     int
	superseded int
}

func (r *countingRecorder) RecordBuild(time.Duration, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builds++
}

func (r *countingRecorder) RecordSuperseded() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.superseded++
}

func newBuilder(agg Aggregator, rec Recorder) *Builder {
	return NewBuilder(agg, layout.NewEngine(layout.DefaultConfig()), rec, testLogger())
}

func TestBuild(t *testing.T) {
	b := newBuilder(&fakeAggregator{}, nil)
	v, err := b.Build(context.Background(), []mindmap.Topic{"Climate", "Energy"})
	require.NoError(t, err)

	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "Climate", v.Header())
	require.Len(t, v.Nodes, 7)
	assert.Equal(t, 6, v.Satellites())
	assert.True(t, v.Nodes[0].IsCentral())
	assert.Equal(t, mindmap.ImageRef("data:image/png;base64,Climate"), v.Nodes[0].ImageRef)
	assert.Equal(t, "Energy-a", v.Nodes[4].Item.SourceID)
	assert.Greater(t, v.Width, 0.0)
	assert.Greater(t, v.Height, 0.0)

	for _, n := range v.Nodes {
		assert.GreaterOrEqual(t, n.X-n.Radius, 0.0)
		assert.GreaterOrEqual(t, n.Y-n.Radius, 0.0)
	}
}

func TestBuild_EmptySelection(t *testing.T) {
	v, err := newBuilder(&fakeAggregator{}, nil).Build(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, v.Nodes)
	assert.Empty(t, v.Header())
	assert.Equal(t, 300.0, v.Width)
	assert.Equal(t, 300.0, v.Height)
}

func TestBuild_CentralImageFailureKeepsCentralNode(t *testing.T) {
	b := newBuilder(&fakeAggregator{centralErr: errors.New("down")}, nil)
	v, err := b.Build(context.Background(), []mindmap.Topic{"Climate"})
	require.NoError(t, err)
	require.Len(t, v.Nodes, 4)
	assert.True(t, v.Nodes[0].IsCentral())
	assert.Empty(t, v.Nodes[0].ImageRef)
}

func TestBuild_RecordsBuilds(t *testing.T) {
	rec := &countingRecorder{}
	_, err := newBuilder(&fakeAggregator{}, rec).Build(context.Background(), []mindmap.Topic{"X"})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.builds)
}

func TestView_MapperUsesRenderingOrder(t *testing.T) {
	v, err := newBuilder(&fakeAggregator{}, nil).Build(context.Background(), []mindmap.Topic{"Climate"})
	require.NoError(t, err)

	var navigated string
	m := v.Mapper(interact.Handlers{OnNavigate: func(id string) { navigated = id }})
	id, ok, err := m.Click(2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Climate-b", id)
	assert.Equal(t, "Climate-b", navigated)
}

func TestController_InitialViewIsEmpty(t *testing.T) {
	c := NewController(newBuilder(&fakeAggregator{}, nil), testLogger())
	v := c.Current()
	require.NotNil(t, v)
	assert.Empty(t, v.Nodes)
	assert.Positive(t, v.Width)

	_, ok := c.Lookup("")
	assert.False(t, ok)
}

func TestController_SelectPublishes(t *testing.T) {
	c := NewController(newBuilder(&fakeAggregator{}, nil), testLogger())

	v1, err := c.Select(context.Background(), []mindmap.Topic{"Climate"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v1.Generation)
	assert.Same(t, v1, c.Current())

	v2, err := c.Select(context.Background(), []mindmap.Topic{"Energy"})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v2.Generation)
	assert.NotEqual(t, v1.ID, v2.ID)

	_, ok := c.Lookup(v1.ID)
	assert.False(t, ok, "replaced view is stale")
	got, ok := c.Lookup(v2.ID)
	assert.True(t, ok)
	assert.Same(t, v2, got)
}

func testLastSelectionWins(t *testing.T, ignoreCtx bool) {
	t.Helper()
	gate := make(chan struct{})
	agg := &fakeAggregator{
		gates:     map[mindmap.Topic]chan struct{}{"Slow": gate},
		ignoreCtx: ignoreCtx,
		started:   make(chan mindmap.Topic, 2),
	}
	rec := &countingRecorder{}
	c := NewController(newBuilder(agg, rec), testLogger())

	type result struct {
		v   *View
		err error
	}
	slowDone := make(chan result, 1)
	go func() {
		v, err := c.Select(context.Background(), []mindmap.Topic{"Slow"})
		slowDone <- result{v, err}
	}()
	require.Equal(t, mindmap.Topic("Slow"), <-agg.started)

	fast, err := c.Select(context.Background(), []mindmap.Topic{"Fast"})
	require.NoError(t, err)
	<-agg.started

	close(gate)
	slow := <-slowDone
	assert.ErrorIs(t, slow.err, ErrSuperseded)
	assert.Nil(t, slow.v)

	current := c.Current()
	assert.Same(t, fast, current)
	assert.Equal(t, mindmap.Topic("Fast"), current.Nodes[1].Item.Topic)
	for _, n := range current.Nodes[1:] {
		assert.Equal(t, mindmap.Topic("Fast"), n.Item.Topic, "no stale nodes merged")
	}
	assert.Equal(t, 1, rec.superseded)
}

func TestController_LastSelectionWins(t *testing.T) {
	testLastSelectionWins(t, false)
}

func TestController_LastSelectionWinsWithoutCancellation(t *testing.T) {
	testLastSelectionWins(t, true)
}

func TestController_CallerCancellation(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	agg := &fakeAggregator{gates: map[mindmap.Topic]chan struct{}{"Slow": gate}}
	c := NewController(newBuilder(agg, nil), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Select(ctx, []mindmap.Topic{"Slow"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, c.Current().Nodes)
}
