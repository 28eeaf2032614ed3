package server

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdview/mdv/internal/remote"
)

func dialWebSocket(t *testing.T, ctx context.Context, baseURL string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readCommand(t *testing.T, ctx context.Context, conn *websocket.Conn) (remote.Command, []byte) {
	t.Helper()
	typ, data, err := conn.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, websocket.MessageText, typ)

	cmd, err := remote.Decode(data)
	require.NoError(t, err)
	return cmd, data
}

func TestWebSocketReceivesFocusThenNavigate(t *testing.T) {
	srv, ts := newTestServer(t)
	root := newDocsWorkspace(t)
	reg := registerWorkspace(t, ts, root)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first := dialWebSocket(t, ctx, ts.URL)
	second := dialWebSocket(t, ctx, ts.URL)
	require.Eventually(t, func() bool {
		return srv.service.CommandSubscribers() == 2
	}, time.Second, 5*time.Millisecond, "websocket handlers did not subscribe")

	resp, err := http.Get(ts.URL + "/api/active?path=" + filepath.Join(root, "sub", "b.md"))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, conn := range []*websocket.Conn{first, second} {
		cmd, _ := readCommand(t, ctx, conn)
		focus, ok := cmd.(remote.Focus)
		require.True(t, ok, "expected focus first, got %q", cmd.Kind())
		assert.Equal(t, reg.ID, focus.WorkspaceID)
		assert.Equal(t, "sub/b.md", focus.FilePath)

		cmd, _ = readCommand(t, ctx, conn)
		nav, ok := cmd.(remote.Navigate)
		require.True(t, ok, "expected navigate second, got %q", cmd.Kind())
		assert.Equal(t, "/view/"+reg.ID+"/sub/b.md", nav.URL)
	}
}

func TestWebSocketScrollWireFormat(t *testing.T) {
	srv, ts := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWebSocket(t, ctx, ts.URL)
	require.Eventually(t, func() bool {
		return srv.service.CommandSubscribers() == 1
	}, time.Second, 5*time.Millisecond, "websocket handler did not subscribe")

	resp, err := http.Get(ts.URL + "/api/remote/scroll?percent=40")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, data := readCommand(t, ctx, conn)
	var frame map[string]any
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, "scroll", frame["type"])
	assert.Equal(t, float64(40), frame["percent"])
}

func TestWebSocketClosedOnShutdown(t *testing.T) {
	srv, ts := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWebSocket(t, ctx, ts.URL)
	require.Eventually(t, func() bool {
		return srv.service.CommandSubscribers() == 1
	}, time.Second, 5*time.Millisecond, "websocket handler did not subscribe")

	srv.service.Close()

	_, _, err := conn.Read(ctx)
	assert.Error(t, err, "connection should close once the command bus is gone")
}
