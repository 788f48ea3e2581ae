package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)

	// API routes - F1 proxy when enabled, everything else under /api is unknown
	if s.proxy != nil {
		mux.Handle("/api/f1/", s.proxy)
	}
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "API endpoint not found"})
	})

	// Static files with SPA fallback
	mux.Handle("/", s.staticHandler(s.config.Server.PublicDir))

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// staticHandler serves files from dir. Client-side routes (extensionless paths with no
// matching file) get index.html so history.pushState URLs survive a reload.
func (s *Server) staticHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodGet, http.MethodHead) {
			return
		}

		clean := path.Clean("/" + r.URL.Path)
		if clean != "/" && path.Ext(clean) == "" {
			if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(clean, "/")))); os.IsNotExist(err) {
				http.ServeFile(w, r, filepath.Join(dir, "index.html"))
				return
			}
		}

		files.ServeHTTP(w, r)
	})
}
