package render

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strconv"

	svg "github.com/ajstarks/svgo/float"
	"github.com/google/uuid"

	"github.com/olehluchkiv/topicmap/internal/interact"
	"github.com/olehluchkiv/topicmap/internal/layout"
	"github.com/olehluchkiv/topicmap/internal/view"
)

// SVGOptions controls map rendering.
type SVGOptions struct {
	CentralFill   string
	SatelliteFill string
	Stroke        string
	StrokeWidth   float64
	HeaderY       float64
	HeaderStyle   string
	// LinkNodes wraps each satellite in a link to its click target.
	LinkNodes bool
	// Inline omits the XML prolog so the output can be embedded in HTML.
	Inline bool
	// ClipPrefix namespaces clip-path ids. A random prefix is used when empty.
	ClipPrefix string
}

// DefaultSVGOptions returns the two-color scheme of the map.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		CentralFill:   "lightblue",
		SatelliteFill: "lightgreen",
		Stroke:        "black",
		StrokeWidth:   2,
		HeaderY:       20,
		HeaderStyle:   "text-anchor:middle;font-family:sans-serif;font-size:18px;font-weight:bold",
		LinkNodes:     true,
	}
}

// WriteSVG draws v as an SVG document. Each node is a filled circle with its
// image clipped to the circle and its tooltip as a <title>. Nodes without an
// image are not drawn.
func WriteSVG(w io.Writer, v *view.View, opts SVGOptions) error {
	var buf bytes.Buffer
	prefix := opts.ClipPrefix
	if prefix == "" {
		prefix = uuid.NewString()
	}

	canvas := svg.New(&buf)
	canvas.Start(v.Width, v.Height, fmt.Sprintf(`viewBox="0 0 %s %s"`, formatFloat(v.Width), formatFloat(v.Height)))

	canvas.Def()
	for i, n := range v.Nodes {
		if n.ImageRef == "" {
			continue
		}
		canvas.ClipPath(`id="` + clipID(prefix, i) + `"`)
		canvas.Circle(n.X, n.Y, n.Radius)
		canvas.ClipEnd()
	}
	canvas.DefEnd()

	if header := v.Header(); header != "" {
		canvas.Text(v.Width/2, opts.HeaderY, header, opts.HeaderStyle)
	}

	for i, n := range v.Nodes {
		if n.ImageRef == "" {
			continue
		}
		drawNode(canvas, v, i, n, prefix, opts)
	}

	canvas.End()

	out := buf.Bytes()
	if opts.Inline {
		if idx := bytes.Index(out, []byte("<svg")); idx > 0 {
			out = out[idx:]
		}
	}
	_, err := w.Write(out)
	return err
}

func drawNode(canvas *svg.SVG, v *view.View, i int, n layout.PositionedNode, prefix string, opts SVGOptions) {
	tooltip := interact.Tooltip(n)
	linked := opts.LinkNodes && !n.IsCentral() && v.ID != ""
	if linked {
		canvas.Link(html.EscapeString(interact.NodePath(v.ID, i)), tooltip)
	}

	canvas.Gid(fmt.Sprintf("node-%d", i))
	canvas.Title(tooltip)

	fill := opts.SatelliteFill
	if n.IsCentral() {
		fill = opts.CentralFill
	}
	canvas.Circle(n.X, n.Y, n.Radius,
		fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%s", fill, opts.Stroke, formatFloat(opts.StrokeWidth)))

	size := int(2 * n.Radius)
	canvas.Image(n.X-n.Radius, n.Y-n.Radius, size, size, html.EscapeString(string(n.ImageRef)),
		`clip-path="url(#`+clipID(prefix, i)+`)"`,
		`preserveAspectRatio="xMidYMid slice"`)

	canvas.Gend()
	if linked {
		canvas.LinkEnd()
	}
}

func clipID(prefix string, i int) string {
	return "clip-" + prefix + "-" + strconv.Itoa(i)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
