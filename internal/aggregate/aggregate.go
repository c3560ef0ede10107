package aggregate

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/olehluchkiv/topicmap/internal/dataservice"
	"github.com/olehluchkiv/topicmap/internal/mindmap"
)

// Source is the subset of the data service the aggregator needs.
type Source interface {
	ItemIDs(ctx context.Context, topic string) ([]string, error)
	Title(ctx context.Context, id string) (string, error)
	Category(ctx context.Context, id string) (string, error)
	CentralImage(ctx context.Context, topic string) (dataservice.Image, error)
}

// Recorder receives one observation per data service request.
type Recorder interface {
	RecordFetch(kind string, err error, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordFetch(string, error, time.Duration) {}

// Options controls aggregation behavior.
type Options struct {
	Suffix      string // stripped from item identifiers; default ".stm"
	Concurrency int    // max in-flight item lookups; 1 means strictly sequential
	// ImageRef maps an item identifier to the reference rendered for it.
	// Defaults to /images/<escaped id>.
	ImageRef func(id string) mindmap.ImageRef
	Recorder Recorder
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{Suffix: ".stm", Concurrency: 4}
}

// Aggregator resolves selected topics into ordered visual nodes.
type Aggregator struct {
	src    Source
	opts   Options
	logger *slog.Logger
}

// New creates an aggregator reading from src.
func New(src Source, opts Options, logger *slog.Logger) *Aggregator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultOptions().Concurrency
	}
	if opts.ImageRef == nil {
		opts.ImageRef = ItemImageRef
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	return &Aggregator{
		src:    src,
		opts:   opts,
		logger: logger.With("component", "aggregator"),
	}
}

// ItemImageRef is the default image reference for an item: a path on this
// server that proxies the data service image.
func ItemImageRef(id string) mindmap.ImageRef {
	return mindmap.ImageRef("/images/" + url.PathEscape(id))
}

type pendingItem struct {
	topic mindmap.Topic
	id    string
}

// Aggregate returns one node per resolvable item, ordered by topic and then
// by the order the data service listed the items. Individual topic or item
// failures are logged and skipped. The only error returned is the context's.
func (a *Aggregator) Aggregate(ctx context.Context, topics []mindmap.Topic) ([]mindmap.VisualNode, error) {
	if len(topics) == 0 {
		return nil, nil
	}

	// Step 1: fetch item lists per topic, keeping topic order.
	lists := make([][]string, len(topics))
	var g errgroup.Group
	g.SetLimit(a.opts.Concurrency)
	for i, topic := range topics {
		g.Go(func() error {
			start := time.Now()
			ids, err := a.src.ItemIDs(ctx, string(topic))
			a.opts.Recorder.RecordFetch("item_ids", err, time.Since(start))
			if err != nil {
				a.logger.Warn("topic item list failed, skipping topic", "topic", topic, "error", err)
				return nil
			}
			lists[i] = ids
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var pending []pendingItem
	for i, ids := range lists {
		for _, raw := range ids {
			id := StripSuffix(raw, a.opts.Suffix)
			if id == "" {
				a.logger.Warn("empty item identifier, skipping", "topic", topics[i], "raw", raw)
				continue
			}
			pending = append(pending, pendingItem{topic: topics[i], id: id})
		}
	}

	// Step 2: resolve items. Results land by index so output order does not
	// depend on completion order.
	results := make([]*mindmap.VisualNode, len(pending))
	g = errgroup.Group{}
	g.SetLimit(a.opts.Concurrency)
	for i, item := range pending {
		g.Go(func() error {
			if node, ok := a.resolveItem(ctx, item); ok {
				results[i] = &node
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	nodes := make([]mindmap.VisualNode, 0, len(results))
	for _, n := range results {
		if n != nil {
			nodes = append(nodes, *n)
		}
	}
	a.logger.Info("aggregation complete", "topics", len(topics), "items", len(pending), "nodes", len(nodes))
	return nodes, nil
}

func (a *Aggregator) resolveItem(ctx context.Context, item pendingItem) (mindmap.VisualNode, bool) {
	if ctx.Err() != nil {
		return mindmap.VisualNode{}, false
	}
	node := mindmap.VisualNode{
		SourceID: item.id,
		Title:    item.id,
		Topic:    item.topic,
		ImageRef: a.opts.ImageRef(item.id),
	}

	start := time.Now()
	raw, err := a.src.Title(ctx, item.id)
	a.opts.Recorder.RecordFetch("title", err, time.Since(start))
	if err != nil {
		a.logger.Warn("title lookup failed, using identifier", "topic", item.topic, "item", item.id, "error", err)
	} else {
		node.Author, node.Title = SplitTitle(raw)
		if node.Title == "" {
			node.Title = item.id
		}
	}

	start = time.Now()
	category, err := a.src.Category(ctx, item.id)
	a.opts.Recorder.RecordFetch("category", err, time.Since(start))
	switch {
	case err == nil:
		node.Category = category
	case errors.Is(err, dataservice.ErrNetwork):
		// No image could be reached for this item, so there is nothing to render.
		a.logger.Warn("item image unreachable, skipping item", "topic", item.topic, "item", item.id, "error", err)
		return mindmap.VisualNode{}, false
	default:
		a.logger.Warn("category lookup failed", "topic", item.topic, "item", item.id, "error", err)
		node.Category = mindmap.UnknownCategory
	}

	return node, true
}

// CentralImage resolves the image for the first selected topic. It returns
// an empty reference and no error when nothing is selected.
func (a *Aggregator) CentralImage(ctx context.Context, topics []mindmap.Topic) (mindmap.ImageRef, error) {
	if len(topics) == 0 {
		return "", nil
	}
	start := time.Now()
	img, err := a.src.CentralImage(ctx, string(topics[0]))
	a.opts.Recorder.RecordFetch("central_image", err, time.Since(start))
	if err != nil {
		return "", fmt.Errorf("central image: %w", err)
	}
	return DataURI(img), nil
}

// DataURI embeds an image payload as a data: URI.
func DataURI(img dataservice.Image) mindmap.ImageRef {
	if len(img.Data) == 0 {
		return ""
	}
	contentType := img.ContentType
	if contentType == "" {
		contentType = "image/png"
	}
	return mindmap.ImageRef("data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(img.Data))
}

// StripSuffix trims whitespace and the service's fixed identifier suffix.
// The suffix is removed only at the end of the identifier.
func StripSuffix(raw, suffix string) string {
	id := strings.TrimSpace(raw)
	if suffix != "" {
		id = strings.TrimSuffix(id, suffix)
	}
	return id
}

// SplitTitle splits "<author>: <title>" on the first colon. Both parts are
// trimmed and the title's first letter is upper-cased. Without a colon the
// whole string is the title.
func SplitTitle(raw string) (author, title string) {
	before, after, found := strings.Cut(raw, ":")
	if !found {
		return "", capitalize(strings.TrimSpace(raw))
	}
	return strings.TrimSpace(before), capitalize(strings.TrimSpace(after))
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
