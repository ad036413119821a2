package helpline

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mindhaven/backend/internal/model/helpline"
)

func TestListHelplines(t *testing.T) {
	r := chi.NewRouter()
	New(helpline.NewMemoryStore(helpline.Seed()), "india").RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/helplines", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		Active    string              `json:"active"`
		Helplines []helpline.Helpline `json:"helplines"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if body.Active != "india" {
		t.Fatalf("unexpected active region: %s", body.Active)
	}
	if len(body.Helplines) != len(helpline.Seed()) {
		t.Fatalf("expected %d helplines, got %d", len(helpline.Seed()), len(body.Helplines))
	}
}
