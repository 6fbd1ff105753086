package network

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cbodonnell/ducktag/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
)

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) Record(conn string, payload []byte) error {
	args := m.Called(conn, payload)
	return args.Error(0)
}

// syncBuffer collects log output written from the relay's handler goroutines.
type syncBuffer struct {
	lock sync.Mutex
	buf  bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.String()
}

func dial(t *testing.T, ctx context.Context, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	return conn
}

func readText(t *testing.T, ctx context.Context, conn *websocket.Conn) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	typ, b, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, typ)
	return string(b)
}

func TestRelayServer_FanOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recorder := &mockRecorder{}
	recorder.On("Record", mock.Anything, mock.Anything).Return(nil)
	cm := NewClientManager()
	relay := NewRelayServer(NewRelayServerOptions{ClientManager: cm, Recorder: recorder})
	server := httptest.NewServer(relay.Router())
	defer server.Close()

	a := dial(t, ctx, server)
	defer a.Close(websocket.StatusNormalClosure, "")
	b := dial(t, ctx, server)
	defer b.Close(websocket.StatusNormalClosure, "")
	c := dial(t, ctx, server)
	require.Eventually(t, func() bool { return cm.Count() == 3 }, 2*time.Second, 10*time.Millisecond)

	m1 := `{"type":"playerJoin","id":"a","x":1,"y":2,"isIt":false}`
	require.NoError(t, a.Write(ctx, websocket.MessageText, []byte(m1)))
	assert.Equal(t, m1, readText(t, ctx, b))
	assert.Equal(t, m1, readText(t, ctx, c))

	// the sender never gets its own message back
	m2 := `{"type":"playerLeave","id":"b"}`
	require.NoError(t, b.Write(ctx, websocket.MessageText, []byte(m2)))
	assert.Equal(t, m2, readText(t, ctx, a))
	assert.Equal(t, m2, readText(t, ctx, c))

	// payloads are not interpreted
	require.NoError(t, c.Close(websocket.StatusNormalClosure, ""))
	require.Eventually(t, func() bool { return cm.Count() == 2 }, 2*time.Second, 10*time.Millisecond)
	m3 := `not json at all`
	require.NoError(t, a.Write(ctx, websocket.MessageText, []byte(m3)))
	assert.Equal(t, m3, readText(t, ctx, b))

	recorder.AssertNumberOfCalls(t, "Record", 3)
	recorder.AssertCalled(t, "Record", mock.Anything, []byte(m3))
}

func TestRelayServer_Health(t *testing.T) {
	relay := NewRelayServer(NewRelayServerOptions{})
	server := httptest.NewServer(relay.Router())
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := map[string]string{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, map[string]string{"status": "OK"}, body)
}

func TestRelayServer_Static(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>ducktag</html>"), 0o644))
	cm := NewClientManager()
	relay := NewRelayServer(NewRelayServerOptions{StaticDir: dir, ClientManager: cm})
	server := httptest.NewServer(relay.Router())
	defer server.Close()

	resp, err := http.Get(server.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	conn := dial(t, ctx, server)
	defer conn.Close(websocket.StatusNormalClosure, "")
	require.Eventually(t, func() bool { return cm.Count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestClientManager(t *testing.T) {
	cm := NewClientManager()
	id, err := cm.ConnectClient(nil)
	require.NoError(t, err)
	assert.True(t, cm.Exists(id))
	assert.Len(t, cm.GetClients(), 1)

	cm.DisconnectClient(id)
	cm.DisconnectClient(id)
	assert.False(t, cm.Exists(id))
	assert.Zero(t, cm.Count())

	events := cm.GetClientEventChan()
	assert.Equal(t, ClientEvent{ClientID: id, Type: ClientEventTypeConnect}, <-events)
	assert.Equal(t, ClientEvent{ClientID: id, Type: ClientEventTypeDisconnect}, <-events)
	assert.Empty(t, events)
}

func TestRelayServer_ServeWaitsForConnections(t *testing.T) {
	out := &syncBuffer{}
	recorder := &mockRecorder{}
	recorder.On("Record", mock.Anything, mock.Anything).Return(nil)
	cm := NewClientManager()
	relay := NewRelayServer(NewRelayServerOptions{
		ClientManager: cm,
		Recorder:      recorder,
		Logger:        log.New(out, "", 0, log.LogLevelDebug),
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- relay.Serve(ctx, ln)
	}()

	dialCtx, dialCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer dialCancel()
	url := "ws://" + ln.Addr().String()
	a, _, err := websocket.Dial(dialCtx, url, nil)
	require.NoError(t, err)
	defer a.Close(websocket.StatusNormalClosure, "")
	b, _, err := websocket.Dial(dialCtx, url, nil)
	require.NoError(t, err)
	defer b.Close(websocket.StatusNormalClosure, "")
	require.Eventually(t, func() bool { return cm.Count() == 2 }, 2*time.Second, 10*time.Millisecond)

	ids := []string{}
	for _, client := range cm.GetClients() {
		ids = append(ids, client.ID)
	}

	require.NoError(t, a.Write(dialCtx, websocket.MessageText, []byte("hello")))
	assert.Equal(t, "hello", readText(t, dialCtx, b))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	// every handler has finished by the time Serve returns
	assert.Zero(t, cm.Count())
	recorder.AssertNumberOfCalls(t, "Record", 1)

	disconnected := []string{}
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		entry := map[string]string{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["msg"] == "Client disconnected" {
			disconnected = append(disconnected, entry["name"])
		}
	}
	assert.ElementsMatch(t, ids, disconnected)
}
