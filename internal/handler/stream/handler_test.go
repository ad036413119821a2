package stream

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mindhaven/backend/internal/middleware"
	"github.com/zhouzirui/mindhaven/backend/internal/model/helpline"
	chatservice "github.com/zhouzirui/mindhaven/backend/internal/service/chat"
	"github.com/zhouzirui/mindhaven/backend/internal/service/mood"
	"github.com/zhouzirui/mindhaven/backend/internal/service/reply"
)

func setupRouter(t *testing.T, limit func(http.Handler) http.Handler) *chi.Mux {
	t.Helper()
	chatSvc, err := chatservice.NewService(
		mood.NewTracker(mood.NewMemoryStore(0), 0),
		reply.New(helpline.Seed()[0], reply.NewSeeded(1)),
		nil,
	)
	require.NoError(t, err)

	r := chi.NewRouter()
	New(chatSvc, limit).RegisterRoutes(r)
	return r
}

func TestStreamEmitsEventsInOrder(t *testing.T) {
	r := setupRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/stream?message="+url.QueryEscape("I am so angry"), nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))

	body := rr.Body.String()
	order := []string{"event: emotion", "event: reply", "event: stats", "event: end"}
	last := -1
	for _, marker := range order {
		idx := strings.Index(body, marker)
		require.Greater(t, idx, last, "missing or out of order: %s", marker)
		last = idx
	}
	assert.Contains(t, body, `"emotion":"anger"`)
}

func TestStreamEmptyMessageSkipsEmotion(t *testing.T) {
	r := setupRouter(t, nil)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stream", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.NotContains(t, body, "event: emotion")
	assert.Contains(t, body, reply.EmptyReply)
}

func TestStreamIsRateLimited(t *testing.T) {
	r := setupRouter(t, middleware.NewRateLimiter(0.001, 1).Middleware)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stream?message=hello", nil))
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}
