package httpadapter

import (
	"net/http"
	"path/filepath"
)

// registerStatic serves the single-page frontend when a static
// directory is configured. The API endpoints keep working without it.
func (rt *Router) registerStatic(mux *http.ServeMux) {
	if rt.staticDir == "" {
		return
	}

	indexPath := filepath.Join(rt.staticDir, "index.html")
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, indexPath)
	})

	assetsDir := http.Dir(filepath.Join(rt.staticDir, "assets"))
	mux.Handle("/assets/", http.StripPrefix("/assets/", http.FileServer(assetsDir)))
}
