package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Firefly-HackGT/firefly-backend/internal/lecture"
)

func newTestServer(t *testing.T) (*httptest.Server, *lecture.Registry) {
	t.Helper()

	registry := lecture.NewRegistry()
	dispatcher := NewDispatcher(registry, &stubRecorder{})
	handler := NewHandler(dispatcher, 16, 2*time.Second, 30*time.Second, time.Minute)

	srv := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	t.Cleanup(srv.Close)
	return srv, registry
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestWebSocketLectureRoundTrip(t *testing.T) {
	srv, registry := newTestServer(t)

	presenter := dial(t, srv)
	require.NoError(t, presenter.WriteJSON(map[string]any{
		"type":      "init_lecture",
		"lecture":   "Systems",
		"professor": "prof",
		"sections":  []map[string]string{{"name": "A", "description": "intro"}},
	}))

	var keyEv struct {
		Type       string `json:"type"`
		SessionKey string `json:"session_key"`
	}
	require.NoError(t, presenter.ReadJSON(&keyEv))
	assert.Equal(t, "get_session_key", keyEv.Type)
	require.NotEmpty(t, keyEv.SessionKey)
	assert.Equal(t, 1, registry.Len())

	student := dial(t, srv)
	require.NoError(t, student.WriteJSON(map[string]any{
		"type":    "join_lecture",
		"session": keyEv.SessionKey,
		"name":    "alice",
	}))

	var section struct {
		Type   string `json:"type"`
		Name   string `json:"name"`
		Rating int    `json:"rating"`
		Curr   int    `json:"curr"`
		Length int    `json:"length"`
	}
	require.NoError(t, student.ReadJSON(&section))
	assert.Equal(t, "next_section", section.Type)
	assert.Equal(t, "A", section.Name)
	assert.Equal(t, lecture.DefaultRating, section.Rating)

	var agg struct {
		Type          string  `json:"type"`
		OverallRating float64 `json:"overall_rating"`
		NumStudents   int     `json:"num_students"`
	}
	require.NoError(t, presenter.ReadJSON(&agg))
	assert.Equal(t, "new_overall_rating", agg.Type)
	assert.Equal(t, 1, agg.NumStudents)

	require.NoError(t, student.WriteJSON(map[string]any{
		"type": "rate", "rating": 4, "section": 0,
	}))
	require.NoError(t, presenter.ReadJSON(&agg))
	assert.Equal(t, 4.0, agg.OverallRating)

	// Advancing past the only section completes the lecture.
	require.NoError(t, presenter.WriteJSON(map[string]any{"type": "advance"}))

	var fin struct {
		Type          string  `json:"type"`
		OverallRating float64 `json:"overall_rating"`
	}
	require.NoError(t, presenter.ReadJSON(&fin))
	assert.Equal(t, "final_results", fin.Type)
	assert.Equal(t, 4.0, fin.OverallRating)

	require.NoError(t, student.ReadJSON(&fin))
	assert.Equal(t, "final_results", fin.Type)

	assert.Eventually(t, func() bool { return registry.Len() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestWebSocketMalformedFirstMessageDrops(t *testing.T) {
	srv, registry := newTestServer(t)

	conn := dial(t, srv)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, registry.Len())
}
