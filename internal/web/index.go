package web

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

var fallbackPage = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<div id="root"></div>
<p>The frontend has not been built. Run the frontend build to produce {{.Path}}.</p>
</body>
</html>
`))

// Index serves the frontend entry document loaded at startup.
type Index struct {
	page     []byte
	modified time.Time
}

// NewIndex loads buildDir/index.html, falling back to a built-in page when
// the frontend has not been built.
func NewIndex(buildDir string, logger *slog.Logger) (*Index, error) {
	path := filepath.Join(buildDir, "index.html")

	page, err := os.ReadFile(path)
	if err == nil {
		info, statErr := os.Stat(path)
		idx := &Index{page: page}
		if statErr == nil {
			idx.modified = info.ModTime()
		}
		return idx, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read index page: %w", err)
	}

	logger.Warn("Frontend build not found, serving fallback page", slog.String("path", path))

	var buf bytes.Buffer
	if err := fallbackPage.Execute(&buf, struct{ Title, Path string }{"Experiments Viewer", path}); err != nil {
		return nil, fmt.Errorf("render fallback page: %w", err)
	}
	return &Index{page: buf.Bytes(), modified: time.Now()}, nil
}

func (i *Index) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, "index.html", i.modified, bytes.NewReader(i.page))
}
