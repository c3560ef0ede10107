package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/olehluchkiv/topicmap/internal/interact"
	"github.com/olehluchkiv/topicmap/internal/view"
)

// Format is a layout export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "yml", case-insensitively. An empty
// string means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (want json or yaml)", s)
	}
}

// ContentType returns the media type of the encoding.
func (f Format) ContentType() string {
	if f == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// ExportedNode is a positioned node plus the text a client needs to draw
// and link it.
type ExportedNode struct {
	Index   int     `json:"index" yaml:"index"`
	Kind    string  `json:"kind" yaml:"kind"`
	X       float64 `json:"x" yaml:"x"`
	Y       float64 `json:"y" yaml:"y"`
	Radius  float64 `json:"radius" yaml:"radius"`
	Ring    int     `json:"ring" yaml:"ring"`
	Tooltip string  `json:"tooltip" yaml:"tooltip"`
	Href    string  `json:"href,omitempty" yaml:"href,omitempty"`
	Image   string  `json:"image,omitempty" yaml:"image,omitempty"`

	SourceID string `json:"sourceId,omitempty" yaml:"sourceId,omitempty"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	Author   string `json:"author,omitempty" yaml:"author,omitempty"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	Topic    string `json:"topic,omitempty" yaml:"topic,omitempty"`
}

// Document is the exported form of a view.
type Document struct {
	ViewID     string         `json:"viewId" yaml:"viewId"`
	Generation uint64         `json:"generation" yaml:"generation"`
	Topics     []string       `json:"topics" yaml:"topics"`
	Width      float64        `json:"width" yaml:"width"`
	Height     float64        `json:"height" yaml:"height"`
	Nodes      []ExportedNode `json:"nodes" yaml:"nodes"`
}

// NewDocument flattens v for export. Node indices match rendering order.
func NewDocument(v *view.View) Document {
	doc := Document{
		ViewID:     v.ID,
		Generation: v.Generation,
		Topics:     make([]string, 0, len(v.Topics)),
		Width:      v.Width,
		Height:     v.Height,
		Nodes:      make([]ExportedNode, 0, len(v.Nodes)),
	}
	for _, t := range v.Topics {
		doc.Topics = append(doc.Topics, string(t))
	}
	for i, n := range v.Nodes {
		en := ExportedNode{
			Index:   i,
			Kind:    string(n.Kind),
			X:       n.X,
			Y:       n.Y,
			Radius:  n.Radius,
			Ring:    n.Ring,
			Tooltip: interact.Tooltip(n),
			Image:   string(n.ImageRef),
			Topic:   string(n.Topic),
		}
		if n.Item != nil {
			en.SourceID = n.Item.SourceID
			en.Title = n.Item.Title
			en.Author = n.Item.Author
			en.Category = n.Item.DisplayCategory()
			if v.ID != "" {
				en.Href = interact.NodePath(v.ID, i)
			}
		}
		doc.Nodes = append(doc.Nodes, en)
	}
	return doc
}

// Export writes v in the given format.
func Export(w io.Writer, v *view.View, format Format) error {
	doc := NewDocument(v)
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
