package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/olehluchkiv/topicmap/internal/aggregate"
	"github.com/olehluchkiv/topicmap/internal/dataservice"
	"github.com/olehluchkiv/topicmap/internal/interact"
	"github.com/olehluchkiv/topicmap/internal/mindmap"
	"github.com/olehluchkiv/topicmap/internal/render"
	"github.com/olehluchkiv/topicmap/internal/view"
)

const maxSelectionBody = 64 << 10

// validate is a singleton validator instance.
var validate = validator.New()

// selectionRequest is the body of POST /selection.
type selectionRequest struct {
	Topics []string `json:"topics" validate:"max=32,dive,required,max=200"`
}

// selectionResponse summarizes the view a selection produced.
type selectionResponse struct {
	ViewID     string   `json:"viewId"`
	Generation uint64   `json:"generation"`
	Topics     []string `json:"topics"`
	Satellites int      `json:"satellites"`
	Width      float64  `json:"width"`
	Height     float64  `json:"height"`
}

// itemDetail is the navigation target of a satellite click.
type itemDetail struct {
	SourceID string `json:"sourceId"`
	Title    string `json:"title"`
	Author   string `json:"author,omitempty"`
	Category string `json:"category"`
	Topic    string `json:"topic,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// pathParam returns a decoded URL parameter. chi matches on the raw path
// when the request path contains encoded slashes.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}

type pageTopic struct {
	Name    string
	Checked bool
}

type pageData struct {
	Topics     []pageTopic
	TopicError string
	Header     string
	Satellites int
	ViewID     string
	SVG        template.HTML
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	v := s.views.Current()
	data := pageData{
		Header:     v.Header(),
		Satellites: v.Satellites(),
		ViewID:     v.ID,
	}

	selected := make(map[mindmap.Topic]bool, len(v.Topics))
	for _, t := range v.Topics {
		selected[t] = true
	}
	topics, err := s.data.Topics(r.Context())
	if err != nil {
		s.logger.Warn("topic listing failed", "error", err)
		data.TopicError = "Topics are unavailable right now."
	}
	for _, t := range topics {
		data.Topics = append(data.Topics, pageTopic{Name: t, Checked: selected[mindmap.Topic(t)]})
	}

	var svg bytes.Buffer
	opts := s.opts.SVG
	opts.Inline = true
	if err := render.WriteSVG(&svg, v, opts); err != nil {
		s.logger.Error("failed to render map", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	data.SVG = template.HTML(svg.String()) //nolint:gosec // generated by the SVG writer, which escapes all text

	var page bytes.Buffer
	if err := s.tmpl.Execute(&page, data); err != nil {
		s.logger.Error("failed to render template", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = page.WriteTo(w)
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	isJSON := strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")

	var req selectionRequest
	if isJSON {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxSelectionBody))
		if err != nil {
			writeError(w, http.StatusBadRequest, "cannot read body")
			return
		}
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxSelectionBody)
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		req.Topics = r.PostForm["topic"]
	}

	if err := validate.Struct(req); err != nil {
		if isJSON {
			writeError(w, http.StatusBadRequest, "invalid selection: "+err.Error())
		} else {
			http.Error(w, "invalid selection", http.StatusBadRequest)
		}
		return
	}

	v, err := s.views.Select(r.Context(), mindmap.Topics(req.Topics))
	switch {
	case errors.Is(err, view.ErrSuperseded):
		if !isJSON {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		writeError(w, http.StatusConflict, "selection superseded by a newer one")
		return
	case err != nil:
		s.logger.Warn("selection failed", "error", err)
		if isJSON {
			writeError(w, http.StatusServiceUnavailable, "selection cancelled")
		} else {
			http.Error(w, "selection cancelled", http.StatusServiceUnavailable)
		}
		return
	}

	if !isJSON {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	resp := selectionResponse{
		ViewID:     v.ID,
		Generation: v.Generation,
		Topics:     make([]string, 0, len(v.Topics)),
		Satellites: v.Satellites(),
		Width:      v.Width,
		Height:     v.Height,
	}
	for _, t := range v.Topics {
		resp.Topics = append(resp.Topics, string(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMapSVG(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := render.WriteSVG(&buf, s.views.Current(), s.opts.SVG); err != nil {
		s.logger.Error("failed to render map", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	format, err := render.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var buf bytes.Buffer
	if err := render.Export(&buf, s.views.Current(), format); err != nil {
		s.logger.Error("failed to export layout", "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	_, _ = buf.WriteTo(w)
}

// resolveNode returns the mapper of the addressed view and the node index,
// or writes the error response and returns ok == false.
func (s *Server) resolveNode(w http.ResponseWriter, r *http.Request) (*interact.Mapper, int, bool) {
	v, ok := s.views.Lookup(pathParam(r, "viewID"))
	if !ok {
		http.Error(w, "view has been replaced; reload the map", http.StatusConflict)
		return nil, 0, false
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.NotFound(w, r)
		return nil, 0, false
	}
	m := v.Mapper(interact.Handlers{
		OnNavigate: func(id string) { s.logger.Debug("node clicked", "view", v.ID, "index", index, "item", id) },
		OnHover:    func(title, category string) { s.logger.Debug("node hovered", "title", title, "category", category) },
	})
	if index < 0 || index >= m.Len() {
		http.Error(w, fmt.Sprintf("no node %d in a map of %d nodes", index, m.Len()), http.StatusNotFound)
		return nil, 0, false
	}
	return m, index, true
}

func (s *Server) handleNodeClick(w http.ResponseWriter, r *http.Request) {
	m, index, ok := s.resolveNode(w, r)
	if !ok {
		return
	}
	sourceID, navigate, err := m.Click(index)
	switch {
	case errors.Is(err, interact.ErrNoNode):
		http.NotFound(w, r)
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	case !navigate:
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Redirect(w, r, interact.ItemPath(sourceID), http.StatusSeeOther)
	}
}

func (s *Server) handleNodeTooltip(w http.ResponseWriter, r *http.Request) {
	m, index, ok := s.resolveNode(w, r)
	if !ok {
		return
	}
	text, err := m.Hover(index)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, text)
}

func (s *Server) handleItem(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "sourceID")

	for _, n := range s.views.Current().Nodes {
		if n.Item != nil && n.Item.SourceID == id {
			writeJSON(w, http.StatusOK, itemDetail{
				SourceID: id,
				Title:    n.Item.Title,
				Author:   n.Item.Author,
				Category: n.Item.DisplayCategory(),
				Topic:    string(n.Item.Topic),
			})
			return
		}
	}

	// Not on the current map: ask the data service.
	raw, err := s.data.Title(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, "item lookup failed", id, err)
		return
	}
	detail := itemDetail{SourceID: id, Category: mindmap.UnknownCategory}
	detail.Author, detail.Title = aggregate.SplitTitle(raw)
	if detail.Title == "" {
		detail.Title = id
	}
	if img, err := s.data.Image(r.Context(), id); err == nil && img.Category != "" {
		detail.Category = img.Category
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	img, err := s.data.Image(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, "image fetch failed", id, err)
		return
	}
	contentType := img.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(img.Data)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=300")
	if img.Category != "" {
		w.Header().Set("Category", img.Category)
	}
	_, _ = w.Write(img.Data)
}

func (s *Server) writeServiceError(w http.ResponseWriter, msg, id string, err error) {
	switch {
	case errors.Is(err, dataservice.ErrNotFound), errors.Is(err, dataservice.ErrMissingMetadata):
		writeError(w, http.StatusNotFound, "not found")
	default:
		s.logger.Warn(msg, "item", id, "error", err)
		writeError(w, http.StatusBadGateway, "data service unavailable")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}
