package page

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/mindhaven/backend/internal/model/helpline"
)

//go:embed index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

type pageData struct {
	Active helpline.Helpline
	Others []helpline.Helpline
}

// Handler serves the chat page. The page is rendered once at startup since its
// only dynamic part, the helpline panel, is fixed for the process lifetime.
type Handler struct {
	body []byte
}

// New renders the page for the active helpline.
func New(helplines helpline.Store, active helpline.Helpline) (*Handler, error) {
	data := pageData{Active: active}
	for _, item := range helplines.List() {
		if item.Region != active.Region {
			data.Others = append(data.Others, item)
		}
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render index page: %w", err)
	}
	return &Handler{body: buf.Bytes()}, nil
}

// RegisterRoutes registers GET /.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleIndex)
}

func (h *Handler) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(h.body); err != nil {
		log.Debug().Err(err).Msg("write index page failed")
	}
}
