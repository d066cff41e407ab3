// Package assets serves the widget's static files from an index built at
// startup. Only files recorded by the walk are servable; request paths are
// exact-match lookups against the index, so traversal sequences cannot
// reach anything outside the asset root.
package assets

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/cobaltriver/chatkit-gateway/internal/infrastructure/logging"
)

// ServiceWorkerPath is the index key of the proxy's service-worker script,
// which browsers fetch from the site root rather than the asset mount.
const ServiceWorkerPath = "/sw.js"

// Asset is one indexed file.
type Asset struct {
	// Path is the file's location on disk.
	Path string

	// ContentType is resolved once, at index time.
	ContentType string

	// Size is the file's size in bytes at index time.
	Size int64
}

// Index maps request paths to allowlisted files under a root directory.
// It is immutable after Build and safe for concurrent use.
type Index struct {
	root    string
	entries map[string]Asset
}

// Build walks root and indexes regular files matching at least one
// doublestar pattern. Patterns match slash-separated paths relative to
// root. Symlinks are not followed; unreadable entries are skipped.
func Build(root string, patterns []string, log *logging.Logger) (*Index, error) {
	if log == nil {
		log = logging.Nop()
	}
	log = log.Named("assets")

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("asset root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("asset root %s is not a directory", root)
	}

	idx := &Index{
		root:    root,
		entries: make(map[string]Asset),
	}

	// fastwalk runs callbacks from multiple goroutines.
	var mu sync.Mutex

	conf := fastwalk.Config{Follow: false}
	err = fastwalk.Walk(&conf, root, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !matchAny(patterns, rel) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return nil
		}

		asset := Asset{
			Path:        p,
			ContentType: resolveContentType(p),
			Size:        fi.Size(),
		}

		mu.Lock()
		idx.entries["/"+rel] = asset
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk asset root: %w", err)
	}

	log.Info("asset index built",
		zap.String("root", root),
		zap.Int("files", len(idx.entries)),
	)
	return idx, nil
}

// Lookup resolves a request path against the index. The path is cleaned
// first, so "." and ".." segments collapse before the exact match.
func (ix *Index) Lookup(requestPath string) (Asset, bool) {
	key := path.Clean("/" + strings.TrimPrefix(requestPath, "/"))
	asset, ok := ix.entries[key]
	return asset, ok
}

// Len reports how many files are indexed.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// HasServiceWorker reports whether the index holds a root service-worker
// script.
func (ix *Index) HasServiceWorker() bool {
	_, ok := ix.entries[ServiceWorkerPath]
	return ok
}

// ServeHTTP serves the indexed file named by the request path. Callers
// mounting the index under a prefix strip it first.
func (ix *Index) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	asset, ok := ix.Lookup(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	f, err := os.Open(asset.Path)
	if err != nil {
		http.Error(w, "asset unavailable", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		http.Error(w, "asset unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", asset.ContentType)
	http.ServeContent(w, r, filepath.Base(asset.Path), fi.ModTime(), f)
}

func matchAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// resolveContentType prefers the extension's registered type and falls
// back to content sniffing for extensionless files.
func resolveContentType(p string) string {
	if ct := mime.TypeByExtension(filepath.Ext(p)); ct != "" {
		return ct
	}
	if mtype, err := mimetype.DetectFile(p); err == nil {
		return mtype.String()
	}
	return "application/octet-stream"
}
