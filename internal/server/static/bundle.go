package static

import (
	"embed"
	"net/http"
	"sort"
	"strconv"
)

//go:embed web/index.html web/style.css web/app.js
var webFS embed.FS

// Asset is one embedded file.
type Asset struct {
	Path string
	MIME string
	Body []byte
}

// Bundle is the immutable set of web client assets.
type Bundle struct {
	assets map[string]Asset
}

var files = []struct {
	path, file, mime string
}{
	{"/", "web/index.html", "text/html; charset=utf-8"},
	{"/style.css", "web/style.css", "text/css"},
	{"/app.js", "web/app.js", "application/javascript"},
}

// New returns the bundle of embedded assets.
func New() *Bundle {
	b := &Bundle{assets: make(map[string]Asset, len(files))}
	for _, f := range files {
		body, err := webFS.ReadFile(f.file)
		if err != nil {
			// Embedded at compile time; missing files fail the build.
			panic("static: " + err.Error())
		}
		b.assets[f.path] = Asset{Path: f.path, MIME: f.mime, Body: body}
	}
	return b
}

// Lookup returns the asset for an exact request path.
func (b *Bundle) Lookup(path string) (Asset, bool) {
	a, ok := b.assets[path]
	return a, ok
}

// Assets returns every asset sorted by path.
func (b *Bundle) Assets() []Asset {
	out := make([]Asset, 0, len(b.assets))
	for _, a := range b.assets {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Paths returns the served paths sorted.
func (b *Bundle) Paths() []string {
	paths := make([]string, 0, len(b.assets))
	for p := range b.assets {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ServeHTTP serves the asset matching r.URL.Path. Unknown paths get 404,
// methods other than GET get 405.
func (b *Bundle) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a, ok := b.Lookup(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h := w.Header()
	h.Set("Content-Type", a.MIME)
	h.Set("Content-Length", strconv.Itoa(len(a.Body)))
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	w.Write(a.Body)
}
