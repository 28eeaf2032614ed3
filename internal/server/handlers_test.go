package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdview/mdv/internal/config"
	"github.com/mdview/mdv/internal/logging"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0},
		Watch:  config.WatchConfig{Interval: 20 * time.Millisecond},
		Log:    config.LogConfig{Level: "error", Format: "text"},
	}
	srv := New(cfg, logging.NewNop())
	ts := httptest.NewServer(srv.routes())

	t.Cleanup(ts.Close)
	t.Cleanup(srv.service.Close)
	return srv, ts
}

// newDocsWorkspace builds the canonical test tree: a.md, sub/b.md, and a
// non-markdown notes.txt.
func newDocsWorkspace(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "docs")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte("# a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.md"), []byte("# b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("notes"), 0o644))
	return root
}

func registerWorkspace(t *testing.T, ts *httptest.Server, path string) registerResponse {
	t.Helper()
	body, err := json.Marshal(registerRequest{Path: path})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/api/workspace/register", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reg registerResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reg))
	return reg
}

func doRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestRegisterEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	root := newDocsWorkspace(t)

	reg := registerWorkspace(t, ts, root)

	assert.Equal(t, "docs", reg.Name)
	assert.Regexp(t, `^docs-[0-9a-f]{4}$`, reg.ID)
	assert.Equal(t, "/view/"+reg.ID, reg.URL)

	// Registering the same root again returns the same descriptor.
	again := registerWorkspace(t, ts, root)
	assert.Equal(t, reg, again)
}

func TestRegisterEndpointRejectsBadInput(t *testing.T) {
	_, ts := newTestServer(t)

	testCases := []struct {
		name string
		body string
	}{
		{"not json", "not json"},
		{"empty path", `{"path":""}`},
		{"missing field", `{}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/workspace/register", "application/json", bytes.NewBufferString(tc.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	t.Run("nonexistent directory", func(t *testing.T) {
		body, _ := json.Marshal(registerRequest{Path: filepath.Join(t.TempDir(), "missing")})
		resp, err := http.Post(ts.URL+"/api/workspace/register", "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("file instead of directory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "f.md")
		require.NoError(t, os.WriteFile(file, []byte("# f"), 0o644))
		body, _ := json.Marshal(registerRequest{Path: file})
		resp, err := http.Post(ts.URL+"/api/workspace/register", "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestUnregisterEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	reg := registerWorkspace(t, ts, newDocsWorkspace(t))

	resp := doRequest(t, http.MethodDelete, ts.URL+"/api/workspace/"+reg.ID)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "ok", result["status"])
	assert.Equal(t, reg.ID, result["id"])

	// Second delete reports not found.
	resp2 := doRequest(t, http.MethodDelete, ts.URL+"/api/workspace/"+reg.ID)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestStatusEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	reg := registerWorkspace(t, ts, newDocsWorkspace(t))

	resp, err := http.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status statusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "ok", status.Status)
	require.Len(t, status.Workspaces, 1)
	assert.Equal(t, reg.ID, status.Workspaces[0].ID)
	assert.Equal(t, "docs", status.Workspaces[0].Name)
}

func TestActiveEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	root := newDocsWorkspace(t)
	reg := registerWorkspace(t, ts, root)

	target := filepath.Join(root, "sub", "b.md")
	resp, err := http.Get(fmt.Sprintf("%s/api/active?path=%s", ts.URL, target))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "/view/"+reg.ID+"/sub/b.md", result["url"])
	assert.Equal(t, reg.ID, result["workspace_id"])
}

func TestActiveEndpointErrors(t *testing.T) {
	_, ts := newTestServer(t)
	registerWorkspace(t, ts, newDocsWorkspace(t))

	t.Run("missing parameter", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/active")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("outside every workspace", func(t *testing.T) {
		stray := filepath.Join(t.TempDir(), "stray.md")
		require.NoError(t, os.WriteFile(stray, []byte("# stray"), 0o644))

		resp, err := http.Get(ts.URL + "/api/active?path=" + stray)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("nonexistent path", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/active?path=" + filepath.Join(t.TempDir(), "nope.md"))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestScrollEndpoint(t *testing.T) {
	srv, ts := newTestServer(t)

	commands, cancel := srv.service.SubscribeCommands()
	defer cancel()

	resp, err := http.Get(ts.URL + "/api/remote/scroll?percent=55")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	select {
	case cmd := <-commands:
		assert.Equal(t, "scroll", cmd.Kind())
	case <-time.After(time.Second):
		t.Fatal("scroll command not published")
	}

	for _, bad := range []string{"", "abc", "-1", "101"} {
		resp, err := http.Get(ts.URL + "/api/remote/scroll?percent=" + bad)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "percent=%q", bad)
	}
}

func TestHealthEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "healthy", health["status"])
}
