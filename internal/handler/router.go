package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/mindhaven/backend/internal/handler/chat"
	"github.com/zhouzirui/mindhaven/backend/internal/handler/health"
	helplineHandler "github.com/zhouzirui/mindhaven/backend/internal/handler/helpline"
	"github.com/zhouzirui/mindhaven/backend/internal/handler/page"
	"github.com/zhouzirui/mindhaven/backend/internal/handler/realtime"
	"github.com/zhouzirui/mindhaven/backend/internal/handler/stream"
	middlewarePkg "github.com/zhouzirui/mindhaven/backend/internal/middleware"
	"github.com/zhouzirui/mindhaven/backend/internal/model/helpline"
	chatService "github.com/zhouzirui/mindhaven/backend/internal/service/chat"
)

// Deps 汇总路由需要的服务。
type Deps struct {
	Helplines  helpline.Store
	Active     helpline.Helpline
	Chat       *chatService.Service
	Limiter    *middlewarePkg.RateLimiter
	CORSOrigin string
	StoreName  string
	Classifier string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) (http.Handler, error) {
	pageHandler, err := page.New(deps.Helplines, deps.Active)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.CORSOrigin))

	pageHandler.RegisterRoutes(r)

	var limit func(http.Handler) http.Handler
	if deps.Limiter != nil {
		limit = deps.Limiter.Middleware
	}

	r.Route("/api", func(api chi.Router) {
		chat.New(deps.Chat, limit).RegisterRoutes(api)
		stream.New(deps.Chat, limit).RegisterRoutes(api)
		realtime.NewWebSocketHandler(deps.Chat, deps.Limiter, deps.CORSOrigin).RegisterRoutes(api)
		helplineHandler.New(deps.Helplines, deps.Active.Region).RegisterRoutes(api)
		health.New(deps.StoreName, deps.Classifier).RegisterRoutes(api)
	})

	return r, nil
}
