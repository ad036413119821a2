package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mindhaven/backend/internal/model/helpline"
	chatmodel "github.com/zhouzirui/mindhaven/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/mindhaven/backend/internal/service/chat"
	"github.com/zhouzirui/mindhaven/backend/internal/service/mood"
	"github.com/zhouzirui/mindhaven/backend/internal/service/reply"
)

type chatResponse struct {
	Reply   string         `json:"reply"`
	Stats   map[string]int `json:"stats"`
	Crisis  bool           `json:"crisis"`
	Emotion string         `json:"emotion"`
}

func setupRouter(t *testing.T) *chi.Mux {
	t.Helper()
	chatSvc, err := chatservice.NewService(
		mood.NewTracker(mood.NewMemoryStore(0), 0),
		reply.New(helpline.Seed()[0], reply.NewSeeded(3)),
		nil,
	)
	require.NoError(t, err)

	r := chi.NewRouter()
	New(chatSvc, nil).RegisterRoutes(r)
	return r
}

func postChat(t *testing.T, r http.Handler, body string) chatResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var out chatResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out
}

func getJSON(t *testing.T, r http.Handler, path string, target any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), target))
}

func TestChatClassifiesAndCounts(t *testing.T) {
	r := setupRouter(t)

	payload, _ := json.Marshal(map[string]string{"message": "I feel so sad and alone"})
	out := postChat(t, r, string(payload))

	assert.Equal(t, "sadness", out.Emotion)
	assert.False(t, out.Crisis)
	assert.Equal(t, 1, out.Stats["sadness"])
	assert.Len(t, out.Stats, 6)
}

func TestChatCrisis(t *testing.T) {
	r := setupRouter(t)

	out := postChat(t, r, `{"message":"I want to kill myself"}`)
	assert.True(t, out.Crisis)
	assert.Equal(t, reply.CrisisMessage(helpline.Seed()[0]), out.Reply)
}

func TestChatEmptyAndMalformedBodies(t *testing.T) {
	r := setupRouter(t)
	postChat(t, r, `{"message":"so happy"}`)

	for _, body := range []string{`{"message":"   "}`, `{}`, `not json`, ``} {
		out := postChat(t, r, body)
		assert.Equal(t, reply.EmptyReply, out.Reply, "body %q", body)
		assert.False(t, out.Crisis)
		assert.Equal(t, 1, out.Stats["joy"], "body %q must not change stats", body)
	}

	var stats map[string]int
	getJSON(t, r, "/stats", &stats)
	assert.Equal(t, 1, stats["joy"])
}

func TestStatsStartsAtZero(t *testing.T) {
	r := setupRouter(t)

	var stats map[string]int
	getJSON(t, r, "/stats", &stats)
	assert.Equal(t, map[string]int{
		"joy": 0, "sadness": 0, "anger": 0, "fear": 0, "neutral": 0, "disgust": 0,
	}, stats)
}

func TestHistoryReturnsLastFiftyInOrder(t *testing.T) {
	r := setupRouter(t)

	for i := 0; i < 55; i++ {
		body, _ := json.Marshal(map[string]string{"message": fmt.Sprintf("entry %d", i)})
		req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	var history []chatmodel.Record
	getJSON(t, r, "/history", &history)
	require.Len(t, history, 50)
	assert.Equal(t, "entry 5", history[0].User)
	assert.Equal(t, "entry 54", history[49].User)
	assert.NotEmpty(t, history[0].Bot)
	assert.NotEmpty(t, history[0].Timestamp)
}
