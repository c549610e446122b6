package httpserver

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// handleIndex serves index.html directly. http.FileServer would redirect
// /index.html to /, which the dashboard does not expect.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	f, err := os.Open(filepath.Join(s.cfg.StaticDir, "index.html"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil || fi.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, "index.html", fi.ModTime(), f)
}

// handleStatic is the catch-all: plain file server semantics rooted at
// the static dir (listing for directories, 404 for missing or hidden files).
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if hasDotSegment(r.URL.Path) {
		http.NotFound(w, r)
		return
	}
	s.static.ServeHTTP(w, r)
}

// hasDotSegment reports whether any path element is hidden (.env, .git/...).
func hasDotSegment(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
