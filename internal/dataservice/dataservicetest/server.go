// Package dataservicetest runs an in-memory data service for tests.
package dataservicetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Suffix is appended to every item identifier the fake lists.
const Suffix = ".stm"

// PNG is a tiny payload that sniffs as image/png.
var PNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// Item is one piece of content under a topic.
type Item struct {
	ID       string
	Title    string // raw "<author>: <title>"; empty means the title is missing
	Category string // sent as the Category header; empty omits it
	// FailImage answers image requests with 503.
	FailImage bool
}

// Topic is a topic with its ordered items.
type Topic struct {
	Name       string
	Items      []Item
	NoCentral  bool
	FailTitles bool // answer every title request for this topic's items with 503
}

// Server is a fake data service.
type Server struct {
	*httptest.Server

	mu     sync.Mutex
	topics []Topic
	hits   map[string]int
}

// NewServer starts a fake data service serving topics.
func NewServer(topics ...Topic) *Server {
	s := &Server{topics: topics, hits: make(map[string]int)}
	r := chi.NewRouter()
	r.Get("/data", s.listTopics)
	r.Post("/data/categories", s.listItems)
	r.Post("/data/central-image", s.centralImage)
	r.Get("/get-title", s.title)
	r.Get("/images/{id}", s.image)
	s.Server = httptest.NewServer(r)
	return s
}

// Hits returns how many requests hit the route pattern.
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

func (s *Server) record(route string) {
	s.mu.Lock()
	s.hits[route]++
	s.mu.Unlock()
}

type categoriesRequest struct {
	Categories []string `json:"categories"`
}

func (s *Server) listTopics(w http.ResponseWriter, _ *http.Request) {
	s.record("/data")
	names := make([]string, 0, len(s.topics))
	for _, t := range s.topics {
		names = append(names, t.Name)
	}
	writeJSON(w, map[string][]string{"categories": names})
}

func (s *Server) topic(r *http.Request) (Topic, bool) {
	var req categoriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Categories) != 1 {
		return Topic{}, false
	}
	for _, t := range s.topics {
		if t.Name == req.Categories[0] {
			return t, true
		}
	}
	return Topic{}, false
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	s.record("/data/categories")
	t, ok := s.topic(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	ids := make([]string, 0, len(t.Items))
	for _, it := range t.Items {
		ids = append(ids, it.ID+Suffix)
	}
	writeJSON(w, ids)
}

func (s *Server) centralImage(w http.ResponseWriter, r *http.Request) {
	s.record("/data/central-image")
	t, ok := s.topic(r)
	if !ok || t.NoCentral {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(PNG)
}

func (s *Server) find(id string) (Topic, Item, bool) {
	for _, t := range s.topics {
		for _, it := range t.Items {
			if it.ID == id {
				return t, it, true
			}
		}
	}
	return Topic{}, Item{}, false
}

func (s *Server) title(w http.ResponseWriter, r *http.Request) {
	s.record("/get-title")
	t, it, ok := s.find(r.URL.Query().Get("filename"))
	switch {
	case !ok:
		http.NotFound(w, r)
	case t.FailTitles:
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	default:
		_, _ = w.Write([]byte(it.Title))
	}
}

func (s *Server) image(w http.ResponseWriter, r *http.Request) {
	s.record("/images/{id}")
	id := chi.URLParam(r, "id")
	if r.URL.RawPath != "" {
		if decoded, err := url.PathUnescape(id); err == nil {
			id = decoded
		}
	}
	_, it, ok := s.find(strings.TrimSuffix(id, Suffix))
	if !ok {
		http.NotFound(w, r)
		return
	}
	if it.FailImage {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	if it.Category != "" {
		w.Header().Set("Category", it.Category)
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(PNG)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
