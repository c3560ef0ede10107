package interact

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/olehluchkiv/topicmap/internal/layout"
	"github.com/olehluchkiv/topicmap/internal/mindmap"
)

// ErrNoNode is returned for a rendering index outside the layout.
var ErrNoNode = errors.New("no node at index")

// Handlers receive interaction events. Either may be nil.
type Handlers struct {
	OnNavigate func(sourceID string)
	OnHover    func(title, category string)
}

// Mapper resolves rendering indices back to the nodes they were drawn from.
// Indices address the positioned-and-translated sequence directly, central
// node included, so no offset is ever applied.
type Mapper struct {
	nodes    []layout.PositionedNode
	handlers Handlers
}

// NewMapper binds a mapper to the nodes in rendering order.
func NewMapper(nodes []layout.PositionedNode, handlers Handlers) *Mapper {
	return &Mapper{nodes: nodes, handlers: handlers}
}

// Len returns the number of addressable nodes.
func (m *Mapper) Len() int {
	return len(m.nodes)
}

// Resolve returns the node rendered at index i.
func (m *Mapper) Resolve(i int) (layout.PositionedNode, error) {
	if i < 0 || i >= len(m.nodes) {
		return layout.PositionedNode{}, fmt.Errorf("%w %d (have %d)", ErrNoNode, i, len(m.nodes))
	}
	return m.nodes[i], nil
}

// Click resolves a click on index i. Clicking a satellite navigates to its
// source item and returns its id; clicking the central node does nothing
// and returns ok == false.
func (m *Mapper) Click(i int) (sourceID string, ok bool, err error) {
	node, err := m.Resolve(i)
	if err != nil {
		return "", false, err
	}
	if node.IsCentral() || node.Item == nil {
		return "", false, nil
	}
	if m.handlers.OnNavigate != nil {
		m.handlers.OnNavigate(node.Item.SourceID)
	}
	return node.Item.SourceID, true, nil
}

// Hover returns the tooltip text for index i and notifies OnHover for
// satellites.
func (m *Mapper) Hover(i int) (string, error) {
	node, err := m.Resolve(i)
	if err != nil {
		return "", err
	}
	if node.Item != nil && m.handlers.OnHover != nil {
		m.handlers.OnHover(node.Item.Title, node.Item.DisplayCategory())
	}
	return Tooltip(node), nil
}

// Tooltip is the hover text of a node: "title (category)" for satellites,
// the topic name for the central node.
func Tooltip(node layout.PositionedNode) string {
	if node.Item == nil {
		return string(node.Topic)
	}
	return ItemTooltip(*node.Item)
}

// ItemTooltip formats "title (category)", using the unknown-category label
// when the category is empty.
func ItemTooltip(item mindmap.VisualNode) string {
	return item.Title + " (" + item.DisplayCategory() + ")"
}

// NodePath is the click target of node i in the view with the given id.
func NodePath(viewID string, i int) string {
	return "/views/" + url.PathEscape(viewID) + "/nodes/" + strconv.Itoa(i)
}

// ItemPath is the detail page of a source item.
func ItemPath(sourceID string) string {
	return "/items/" + url.PathEscape(sourceID)
}
