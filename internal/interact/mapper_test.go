package interact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehluchkiv/topicmap/internal/layout"
	"github.com/olehluchkiv/topicmap/internal/mindmap"
)

func normalizedMap(t *testing.T) []layout.PositionedNode {
	t.Helper()
	nodes := []mindmap.VisualNode{
		{SourceID: "r1", Title: "First", Category: "Climate"},
		{SourceID: "r2", Title: "Second"},
		{SourceID: "r3", Title: "Third", Category: "Energy"},
	}
	cfg := layout.DefaultConfig()
	positioned := layout.NewEngine(cfg).Layout([]mindmap.Topic{"Climate"}, nodes, "data:x")
	return layout.Normalize(positioned, cfg).Nodes
}

func TestClick_ResolvesEveryIndexWithoutOffset(t *testing.T) {
	var navigated []string
	m := NewMapper(normalizedMap(t), Handlers{
		OnNavigate: func(id string) { navigated = append(navigated, id) },
	})
	require.Equal(t, 4, m.Len())

	for i, want := range []string{"r1", "r2", "r3"} {
		id, ok, err := m.Click(i + 1)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, want, id)
	}
	assert.Equal(t, []string{"r1", "r2", "r3"}, navigated)
}

func TestClick_CentralIsNoop(t *testing.T) {
	called := false
	m := NewMapper(normalizedMap(t), Handlers{OnNavigate: func(string) { called = true }})

	id, ok, err := m.Click(0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, id)
	assert.False(t, called)
}

func TestClick_OutOfRange(t *testing.T) {
	m := NewMapper(normalizedMap(t), Handlers{})
	for _, i := range []int{-1, 4, 100} {
		_, _, err := m.Click(i)
		assert.ErrorIs(t, err, ErrNoNode)
	}
}

func TestHover(t *testing.T) {
	type hover struct{ title, category string }
	var got []hover
	m := NewMapper(normalizedMap(t), Handlers{
		OnHover: func(title, category string) { got = append(got, hover{title, category}) },
	})

	text, err := m.Hover(1)
	require.NoError(t, err)
	assert.Equal(t, "First (Climate)", text)

	text, err = m.Hover(2)
	require.NoError(t, err)
	assert.Equal(t, "Second (Unknown Category)", text)

	text, err = m.Hover(0)
	require.NoError(t, err)
	assert.Equal(t, "Climate", text)

	assert.Equal(t, []hover{{"First", "Climate"}, {"Second", mindmap.UnknownCategory}}, got)

	_, err = m.Hover(9)
	assert.ErrorIs(t, err, ErrNoNode)
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "/views/abc/nodes/3", NodePath("abc", 3))
	assert.Equal(t, "/items/a%20b", ItemPath("a b"))
}
