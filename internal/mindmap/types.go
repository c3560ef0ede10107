package mindmap

import "strings"

// UnknownCategory is shown when the data service has no category for an item.
const UnknownCategory = "Unknown Category"

// Topic is a selectable category of content. The first selected topic
// becomes the central node of the map.
type Topic string

// ImageRef is an opaque reference to a raster image: a URL path served by
// this process or a data: URI holding the payload inline.
type ImageRef string

// VisualNode is one satellite item resolved from the data service.
type VisualNode struct {
	SourceID string   `json:"sourceId" yaml:"sourceId"`
	Title    string   `json:"title" yaml:"title"`
	Author   string   `json:"author,omitempty" yaml:"author,omitempty"`
	Category string   `json:"category" yaml:"category"`
	Topic    Topic    `json:"topic" yaml:"topic"`
	ImageRef ImageRef `json:"imageRef" yaml:"imageRef"`
}

// DisplayCategory returns the category, or UnknownCategory when empty.
func (n VisualNode) DisplayCategory() string {
	if n.Category == "" {
		return UnknownCategory
	}
	return n.Category
}

// Topics converts raw strings into topics, dropping blanks while keeping order.
func Topics(raw []string) []Topic {
	var out []Topic
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, Topic(s))
	}
	return out
}
