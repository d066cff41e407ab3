package assets

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAsset(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func buildTestIndex(t *testing.T, patterns []string) *Index {
	t.Helper()
	root := t.TempDir()
	writeAsset(t, root, "sw.js", "self.addEventListener('fetch', () => {});")
	writeAsset(t, root, "app.css", "body { margin: 0; }")
	writeAsset(t, root, "scram/runtime.js", "export const scram = true;")
	writeAsset(t, root, "NOTICE", "plain text, no extension")

	idx, err := Build(root, patterns, nil)
	require.NoError(t, err)
	return idx
}

func TestBuildIndexesEverythingByDefault(t *testing.T) {
	idx := buildTestIndex(t, []string{"**"})

	assert.Equal(t, 4, idx.Len())

	for _, key := range []string{"/sw.js", "/app.css", "/scram/runtime.js", "/NOTICE"} {
		_, ok := idx.Lookup(key)
		assert.True(t, ok, "expected %s to be indexed", key)
	}
}

func TestBuildAppliesAllowlist(t *testing.T) {
	idx := buildTestIndex(t, []string{"**/*.js"})

	assert.Equal(t, 2, idx.Len())

	_, ok := idx.Lookup("/sw.js")
	assert.True(t, ok)
	_, ok = idx.Lookup("/scram/runtime.js")
	assert.True(t, ok)
	_, ok = idx.Lookup("/app.css")
	assert.False(t, ok)
}

func TestBuildRejectsMissingRoot(t *testing.T) {
	_, err := Build(filepath.Join(t.TempDir(), "nope"), []string{"**"}, nil)
	assert.Error(t, err)
}

func TestLookupNeverEscapesIndex(t *testing.T) {
	idx := buildTestIndex(t, []string{"**"})

	tests := []struct {
		name string
		path string
		ok   bool
	}{
		{name: "plain traversal", path: "/../assets.go", ok: false},
		{name: "relative traversal", path: "../../etc/passwd", ok: false},
		{name: "deep traversal", path: "/scram/../../../etc/passwd", ok: false},
		{name: "collapses onto indexed file", path: "/scram/../sw.js", ok: true},
		{name: "dot segments", path: "/./sw.js", ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := idx.Lookup(tt.path)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestContentTypes(t *testing.T) {
	idx := buildTestIndex(t, []string{"**"})

	js, ok := idx.Lookup("/sw.js")
	require.True(t, ok)
	assert.Contains(t, js.ContentType, "javascript")

	css, ok := idx.Lookup("/app.css")
	require.True(t, ok)
	assert.Contains(t, css.ContentType, "text/css")

	// No extension forces the sniffing fallback.
	notice, ok := idx.Lookup("/NOTICE")
	require.True(t, ok)
	assert.Contains(t, notice.ContentType, "text/plain")
}

func TestServeHTTP(t *testing.T) {
	idx := buildTestIndex(t, []string{"**"})

	t.Run("serves indexed file", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/sw.js", nil)

		idx.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "javascript")
		assert.Contains(t, rec.Body.String(), "addEventListener")
	})

	t.Run("unindexed path is 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/missing.js", nil)

		idx.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("traversal is 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/scram/../../assets.go", nil)

		idx.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHasServiceWorker(t *testing.T) {
	withWorker := buildTestIndex(t, []string{"**"})
	assert.True(t, withWorker.HasServiceWorker())

	root := t.TempDir()
	writeAsset(t, root, "app.css", "body {}")
	withoutWorker, err := Build(root, []string{"**"}, nil)
	require.NoError(t, err)
	assert.False(t, withoutWorker.HasServiceWorker())
}
