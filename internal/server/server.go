// Package server exposes persisted articles and crawl telemetry over a small
// JSON API.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/TobiSchelling/mobnews/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Server is the HTTP server for browsing aggregated articles.
type Server struct {
	store *store.Store
	mux   *http.ServeMux
}

// New creates a new Server.
func New(st *store.Store) *Server {
	s := &Server{store: st, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/articles", s.handleArticles)
	s.mux.HandleFunc("/api/articles/", s.handleArticle)
	s.mux.HandleFunc("/api/sources", s.handleSources)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type articleJSON struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Summary      string    `json:"summary"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	PublishedAt  time.Time `json:"published_at"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	page := intParam(r, "page", 1)
	pageSize := intParam(r, "page_size", defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	category := r.URL.Query().Get("category")

	articles, total, err := s.store.ListArticles(page, pageSize, category)
	if err != nil {
		log.Printf("Error listing articles: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	results := make([]articleJSON, 0, len(articles))
	for _, a := range articles {
		results = append(results, toArticleJSON(a))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":     total,
		"page":      page,
		"page_size": pageSize,
		"results":   results,
	})
}

// handleArticle serves /api/articles/{id} plus the /like and /comments
// engagement actions beneath it.
func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/articles/")
	parts := strings.SplitN(path, "/", 2)

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		http.Error(w, "invalid article id", http.StatusBadRequest)
		return
	}

	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	switch action {
	case "":
		s.handleArticleDetail(w, r, id)
	case "like":
		s.handleLike(w, r, id)
	case "comments":
		s.handleComments(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleArticleDetail(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	article, err := s.store.GetArticleByID(id)
	if err != nil {
		log.Printf("Error loading article %d: %v", id, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if article == nil {
		http.NotFound(w, r)
		return
	}

	tags, _ := s.store.GetArticleTags(id)
	tagNames := make([]string, 0, len(tags))
	for _, t := range tags {
		tagNames = append(tagNames, t.Name)
	}

	comments, _ := s.store.ListComments(id)
	commentList := make([]map[string]any, 0, len(comments))
	for _, c := range comments {
		commentList = append(commentList, map[string]any{
			"id":         c.ID,
			"author":     c.Author,
			"body":       c.Body,
			"created_at": c.CreatedAt,
		})
	}

	detail := map[string]any{
		"article":  toArticleJSON(*article),
		"content":  article.Content,
		"tags":     tagNames,
		"comments": commentList,
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleLike(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ok, err := s.store.IncrementLikeCount(id)
	if err != nil {
		log.Printf("Error liking article %d: %v", id, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}

	article, _ := s.store.GetArticleByID(id)
	writeJSON(w, http.StatusOK, map[string]any{"like_count": article.LikeCount})
}

func (s *Server) handleComments(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	article, err := s.store.GetArticleByID(id)
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if article == nil {
		http.NotFound(w, r)
		return
	}

	var payload struct {
		Author string `json:"author"`
		Body   string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	payload.Author = strings.TrimSpace(payload.Author)
	payload.Body = strings.TrimSpace(payload.Body)
	if payload.Author == "" || payload.Body == "" {
		http.Error(w, "author and body are required", http.StatusBadRequest)
		return
	}

	commentID, err := s.store.AddComment(id, payload.Author, payload.Body)
	if err != nil {
		log.Printf("Error adding comment to article %d: %v", id, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"id": commentID})
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	statuses, err := s.store.ListSourceStatuses()
	if err != nil {
		log.Printf("Error listing sources: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	results := make([]map[string]any, 0, len(statuses))
	for _, st := range statuses {
		entry := map[string]any{
			"name":     st.Name,
			"url":      st.URL,
			"kind":     st.Kind,
			"category": st.CategorySlug,
		}
		if st.LastCrawledAt != nil {
			entry["last_crawled_at"] = st.LastCrawledAt
		}
		if st.LastStatus != "" {
			lastRun := map[string]any{
				"status":         st.LastStatus,
				"articles_found": st.LastFound,
			}
			if st.LastError != "" {
				lastRun["error"] = st.LastError
			}
			if st.LastStartedAt != nil {
				lastRun["started_at"] = st.LastStartedAt
			}
			entry["last_run"] = lastRun
		}
		results = append(results, entry)
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func toArticleJSON(a store.Article) articleJSON {
	return articleJSON{
		ID:           a.ID,
		Title:        a.Title,
		Summary:      a.Summary,
		URL:          a.URL,
		ThumbnailURL: a.ThumbnailURL,
		PublishedAt:  a.PublishedAt,
		LikeCount:    a.LikeCount,
		CommentCount: a.CommentCount,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func intParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// Serve starts the HTTP server on the given port.
func Serve(st *store.Store, port int) error {
	srv := New(st)
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
