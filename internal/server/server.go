package server

import (
	"time"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/ruizlenato/tunefetch/internal/modules"
	"github.com/ruizlenato/tunefetch/internal/utils"
)

const (
	Name        = "tunefetch"
	ReadTimeout = 30 * time.Second
)

// NewRouter builds the route table: module routes, the downloads directory
// and the liveness probe.
func NewRouter(services modules.Services, downloadsDir string) *router.Router {
	r := router.New()
	r.GET("/health", health)
	r.ServeFiles("/downloads/{filepath:*}", downloadsDir)
	modules.Load(r, services)
	return r
}

// Handler wraps the router with the middleware every request goes through.
func Handler(r *router.Router) fasthttp.RequestHandler {
	return withRequestID(withAccessLog(withCORS(r.Handler)))
}

func New(handler fasthttp.RequestHandler) *fasthttp.Server {
	// No WriteTimeout: a stream lasts as long as the song.
	return &fasthttp.Server{
		Handler:     handler,
		Name:        Name,
		ReadTimeout: ReadTimeout,
	}
}

func health(ctx *fasthttp.RequestCtx) {
	utils.WriteJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
}
