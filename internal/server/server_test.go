package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/TheAdaptoid/Altron-Core/internal/agent"
	"github.com/TheAdaptoid/Altron-Core/internal/config"
	"github.com/TheAdaptoid/Altron-Core/internal/inference"
	"github.com/TheAdaptoid/Altron-Core/internal/thread"
	"github.com/TheAdaptoid/Altron-Core/internal/tool"
	"github.com/TheAdaptoid/Altron-Core/internal/tool/builtin"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testServer wires a full agent against a canned SSE backend and returns
// the HTTP test server plus the underlying store.
func testServer(t *testing.T, sseLines []string) (*httptest.Server, *thread.Store) {
	t.Helper()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range sseLines {
			io.WriteString(w, line+"\n\n")
		}
	}))
	t.Cleanup(backend.Close)

	store, err := thread.NewStore(t.TempDir(), thread.LockConfig{
		Retry:    10 * time.Millisecond,
		MaxRetry: 100,
	})
	require.NoError(t, err)

	registry := tool.NewRegistry()
	registry.Register(&builtin.CalculatorTool{})

	client := inference.NewClient(backend.URL, "k", 5*time.Second)
	ag := agent.New(
		config.AgentConfig{Name: "Test", MaxToolRounds: 3},
		config.ModelsConfig{Default: "test-model"},
		client, registry, store,
	)

	srv, err := New(config.ServerConfig{Port: 0}, ag)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return ts, store
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	return resp
}

func TestCreateThreadEndpoint(t *testing.T) {
	ts, store := testServer(t, nil)

	resp := postJSON(t, ts.URL+"/thread", `{"title":"Fresh"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var th thread.Thread
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&th))
	assert.NotEmpty(t, th.ID)
	assert.Equal(t, "Fresh", th.Title)

	stored, err := store.Load(th.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fresh", stored.Title)
}

func TestCreateThreadEndpoint_DefaultTitle(t *testing.T) {
	ts, _ := testServer(t, nil)

	resp := postJSON(t, ts.URL+"/thread", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var th thread.Thread
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&th))
	assert.Equal(t, thread.DefaultTitle, th.Title)
}

func TestReadThreadEndpoint(t *testing.T) {
	ts, store := testServer(t, nil)

	th, err := store.Create("Readable")
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + "/thread/" + th.ID)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(ts.URL + "/thread/missing")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestListThreadsEndpoint(t *testing.T) {
	ts, store := testServer(t, nil)

	_, err := store.Create("one")
	require.NoError(t, err)
	_, err = store.Create("two")
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + "/threads")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Len(t, got, 2)

	// Summaries carry counts, not message bodies.
	_, hasMessages := got[0]["messages"].(float64)
	assert.True(t, hasMessages)
}

func TestUpdateThreadEndpoint(t *testing.T) {
	ts, store := testServer(t, nil)

	th, err := store.Create("old name")
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPatch, ts.URL+"/thread/"+th.ID,
		strings.NewReader(`{"title":"new name"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	stored, err := store.Load(th.ID)
	require.NoError(t, err)
	assert.Equal(t, "new name", stored.Title)
}

func TestUpdateThreadEndpoint_EmptyTitle(t *testing.T) {
	ts, store := testServer(t, nil)

	th, err := store.Create("keep me")
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPatch, ts.URL+"/thread/"+th.ID,
		strings.NewReader(`{"title":"  "}`))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteThreadEndpoint(t *testing.T) {
	ts, store := testServer(t, nil)

	th, err := store.Create("doomed")
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/thread/"+th.ID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, true, got["deleted"])

	resp2, err := http.DefaultClient.Do(req.Clone(req.Context()))
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := testServer(t, nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "ok", got["status"])
	assert.Equal(t, "test-model", got["model"])
}

func TestConverseWebsocket_StreamsEventsAndCloses(t *testing.T) {
	ts, store := testServer(t, []string{
		`data: {"choices":[{"delta":{"reasoning_content":"hm"}}]}`,
		`data: {"choices":[{"delta":{"content":"Hello"}}]}`,
		`data: {"choices":[{"delta":{"content":" there"}}]}`,
		`data: [DONE]`,
	})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(ConversePacket{
		Message: thread.NewMessage(thread.RoleUser, "hi"),
	}))

	var events []agent.Event
	for {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var ev agent.Event
		if err := conn.ReadJSON(&ev); err != nil {
			break
		}
		events = append(events, ev)
		if ev.State == agent.StateDone || ev.State == agent.StateFailed {
			break
		}
	}

	require.NotEmpty(t, events)
	assert.Equal(t, agent.StatePerceiving, events[0].State)
	assert.Equal(t, agent.StateDone, events[len(events)-1].State)

	var text strings.Builder
	for _, ev := range events {
		if ev.State == agent.StateResponding && ev.Token != nil {
			text.WriteString(*ev.Token)
		}
	}
	assert.Equal(t, "Hello there", text.String())

	threads, err := store.List()
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Len(t, threads[0].Messages, 2)
}

func TestConverseWebsocket_MissingThreadEmitsFailed(t *testing.T) {
	ts, _ := testServer(t, nil)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(ConversePacket{
		ThreadID: "no-such-thread",
		Message:  thread.NewMessage(thread.RoleUser, "hi"),
	}))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ev agent.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, agent.StateFailed, ev.State)
	require.NotNil(t, ev.Error)
	assert.Contains(t, *ev.Error, "no-such-thread")
}
