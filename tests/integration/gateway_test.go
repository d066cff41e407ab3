//go:build integration
// +build integration

package integration

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltriver/chatkit-gateway/internal/infrastructure/config"
	"github.com/cobaltriver/chatkit-gateway/internal/server"
)

// sessionRecorder plays the upstream ChatKit API and remembers what the
// gateway sent it.
type sessionRecorder struct {
	mu       sync.Mutex
	hits     int
	auth     string
	beta     string
	lastBody map[string]any
}

func (rec *sessionRecorder) serve(t *testing.T, respond func(hit int) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chatkit/sessions", r.URL.Path)

		raw, _ := io.ReadAll(r.Body)
		var decoded map[string]any
		_ = sonic.Unmarshal(raw, &decoded)

		rec.mu.Lock()
		rec.hits++
		hit := rec.hits
		rec.auth = r.Header.Get("Authorization")
		rec.beta = r.Header.Get("OpenAI-Beta")
		rec.lastBody = decoded
		rec.mu.Unlock()

		status, body := respond(hit)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (rec *sessionRecorder) snapshot() (int, string, string, map[string]any) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.hits, rec.auth, rec.beta, rec.lastBody
}

// newGateway assembles a full gateway around the given upstream and serves
// it over a test listener.
func newGateway(t *testing.T, upstreamURL string, mutate func(cfg *config.Config)) *httptest.Server {
	t.Helper()

	cfg := config.Default()
	cfg.ChatKit.APIKey = "sk-test"
	cfg.ChatKit.BaseURL = upstreamURL
	cfg.ChatKit.WorkflowID = "wf_default"
	cfg.Retry = config.RetryConfig{
		Max:       3,
		BaseDelay: 5 * time.Millisecond,
		MaxDelay:  50 * time.Millisecond,
	}
	cfg.Assets.Dir = ""
	cfg.RateLimit.Enabled = false
	cfg.Logging.Level = "error"
	if mutate != nil {
		mutate(cfg)
	}

	srv, err := server.New(cfg)
	require.NoError(t, err)

	gw := httptest.NewServer(srv.Handler())
	t.Cleanup(gw.Close)
	return gw
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, sonic.Unmarshal(raw, &decoded), "body: %s", raw)
	return decoded
}

func identityCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "chatkit_session_id" {
			return c
		}
	}
	return nil
}

func TestSessionIssuanceIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	rec := &sessionRecorder{}
	upstream := rec.serve(t, func(int) (int, string) {
		return http.StatusOK, `{"client_secret":"ek_live_abc","expires_after":600}`
	})
	gw := newGateway(t, upstream.URL, nil)

	resp := postJSON(t, gw.URL+"/api/create-session", `{"workflow":{"id":"wf_body"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "ek_live_abc", body["client_secret"])
	assert.Equal(t, 600.0, body["expires_after"])

	cookie := identityCookie(resp)
	require.NotNil(t, cookie, "issuance must set the identity cookie")
	assert.NotEmpty(t, cookie.Value)

	hits, auth, beta, sent := rec.snapshot()
	assert.Equal(t, 1, hits)
	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "chatkit_beta=v1", beta)
	workflow, ok := sent["workflow"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "wf_body", workflow["id"], "request body workflow must win over the configured default")
	assert.Equal(t, cookie.Value, sent["user"], "upstream user must be the cookie identity")

	t.Run("replayed cookie keeps the identity", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, gw.URL+"/api/create-session", strings.NewReader(`{}`))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.AddCookie(&http.Cookie{Name: "chatkit_session_id", Value: cookie.Value})

		resp2, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp2.Body.Close()

		require.Equal(t, http.StatusOK, resp2.StatusCode)
		assert.Empty(t, resp2.Header.Values("Set-Cookie"), "a recovered identity must not be re-set")

		_, _, _, sent := rec.snapshot()
		assert.Equal(t, cookie.Value, sent["user"])
		workflow, ok := sent["workflow"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "wf_default", workflow["id"], "empty body falls back to the configured workflow")
	})
}

func TestUpstreamErrorPassthroughIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	rec := &sessionRecorder{}
	upstream := rec.serve(t, func(int) (int, string) {
		return http.StatusNotFound, `{"error":{"message":"bad workflow"}}`
	})
	gw := newGateway(t, upstream.URL, nil)

	resp := postJSON(t, gw.URL+"/api/create-session", `{"workflow":{"id":"wf_missing"}}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode, "upstream status must pass through")

	body := decodeBody(t, resp)
	assert.Equal(t, "bad workflow", body["error"])
	details, ok := body["details"].(map[string]any)
	require.True(t, ok, "details must carry the upstream payload")
	assert.Contains(t, details, "error")

	assert.NotNil(t, identityCookie(resp), "failures still set the identity cookie")

	hits, _, _, _ := rec.snapshot()
	assert.Equal(t, 1, hits, "a 404 is terminal, not retriable")
}

func TestUpstreamRetryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	rec := &sessionRecorder{}
	upstream := rec.serve(t, func(hit int) (int, string) {
		if hit < 3 {
			return http.StatusServiceUnavailable, `{"error":"upstream hiccup"}`
		}
		return http.StatusOK, `{"client_secret":"ek_after_retry","expires_after":600}`
	})
	gw := newGateway(t, upstream.URL, nil)

	resp := postJSON(t, gw.URL+"/api/create-session", `{}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "ek_after_retry", body["client_secret"])

	hits, _, _, _ := rec.snapshot()
	assert.Equal(t, 3, hits, "two transient failures then success")
}

func TestMissingConfigurationIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	t.Run("missing workflow", func(t *testing.T) {
		rec := &sessionRecorder{}
		upstream := rec.serve(t, func(int) (int, string) {
			return http.StatusOK, `{"client_secret":"ek_unused","expires_after":600}`
		})
		gw := newGateway(t, upstream.URL, func(cfg *config.Config) {
			cfg.ChatKit.WorkflowID = ""
		})

		resp := postJSON(t, gw.URL+"/api/create-session", `{}`)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Missing workflow id", decodeBody(t, resp)["error"])
		assert.NotNil(t, identityCookie(resp))

		hits, _, _, _ := rec.snapshot()
		assert.Zero(t, hits)
	})

	t.Run("missing api key", func(t *testing.T) {
		rec := &sessionRecorder{}
		upstream := rec.serve(t, func(int) (int, string) {
			return http.StatusOK, `{"client_secret":"ek_unused","expires_after":600}`
		})
		gw := newGateway(t, upstream.URL, func(cfg *config.Config) {
			cfg.ChatKit.APIKey = ""
		})

		resp := postJSON(t, gw.URL+"/api/create-session", `{}`)
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "Missing OPENAI_API_KEY environment variable", decodeBody(t, resp)["error"])
		assert.NotNil(t, identityCookie(resp))

		hits, _, _, _ := rec.snapshot()
		assert.Zero(t, hits, "configuration failures must not reach the upstream")
	})
}

func TestClearSessionIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	rec := &sessionRecorder{}
	upstream := rec.serve(t, func(int) (int, string) {
		return http.StatusOK, `{"client_secret":"ek_live","expires_after":600}`
	})
	gw := newGateway(t, upstream.URL, nil)

	for _, method := range []string{http.MethodPost, http.MethodGet} {
		t.Run(method, func(t *testing.T) {
			req, err := http.NewRequest(method, gw.URL+"/api/clear-session", nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, true, decodeBody(t, resp)["cleared"])

			setCookie := resp.Header.Get("Set-Cookie")
			assert.Contains(t, setCookie, "chatkit_session_id=")
			assert.Contains(t, setCookie, "Max-Age=0")
		})
	}
}

func TestMethodGuardIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	rec := &sessionRecorder{}
	upstream := rec.serve(t, func(int) (int, string) {
		return http.StatusOK, `{"client_secret":"ek_live","expires_after":600}`
	})
	gw := newGateway(t, upstream.URL, nil)

	resp, err := http.Get(gw.URL + "/api/create-session")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, http.MethodPost, resp.Header.Get("Allow"))
	assert.Equal(t, "Method not allowed", decodeBody(t, resp)["error"])
}

func TestOpsEndpointsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	rec := &sessionRecorder{}
	upstream := rec.serve(t, func(int) (int, string) {
		return http.StatusOK, `{"client_secret":"ek_live","expires_after":600}`
	})
	gw := newGateway(t, upstream.URL, nil)

	t.Run("root", func(t *testing.T) {
		resp, err := http.Get(gw.URL + "/")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "online", body["status"])
		assert.Equal(t, "chatkit-gateway", body["service"])
	})

	t.Run("healthz", func(t *testing.T) {
		resp, err := http.Get(gw.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, true, body["upstream_configured"])
	})

	t.Run("metrics", func(t *testing.T) {
		// Issue once so the session counters exist.
		resp := postJSON(t, gw.URL+"/api/create-session", `{}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		mresp, err := http.Get(gw.URL + "/metrics")
		require.NoError(t, err)
		defer mresp.Body.Close()

		require.Equal(t, http.StatusOK, mresp.StatusCode)
		raw, err := io.ReadAll(mresp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "gateway_uptime_seconds")
		assert.Contains(t, string(raw), `gateway_sessions_issued_total{outcome="success"} 1`)
	})
}

func TestWidgetAssetsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sw.js"), []byte("self.addEventListener('fetch',()=>{})"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "widget.css"), []byte(".chatkit{display:block}"), 0o644))

	rec := &sessionRecorder{}
	upstream := rec.serve(t, func(int) (int, string) {
		return http.StatusOK, `{"client_secret":"ek_live","expires_after":600}`
	})
	gw := newGateway(t, upstream.URL, func(cfg *config.Config) {
		cfg.Assets.Dir = dir
	})

	t.Run("serves indexed assets", func(t *testing.T) {
		resp, err := http.Get(gw.URL + "/assets/widget.css")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/css")
		raw, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(raw), ".chatkit")
	})

	t.Run("service worker at the site root", func(t *testing.T) {
		resp, err := http.Get(gw.URL + "/sw.js")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "javascript")
	})

	t.Run("traversal stays inside the index", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, gw.URL+"/assets/..%2f..%2fetc%2fpasswd", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.NotEqual(t, http.StatusOK, resp.StatusCode)
	})
}
