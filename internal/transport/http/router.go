package http

import (
	"log/slog"
	"net/http"

	"formflow/internal/app"
	"formflow/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterOption customizes NewRouter.
type RouterOption func(*routerConfig)

type routerConfig struct {
	logger  *slog.Logger
	metrics http.Handler
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) RouterOption {
	return func(c *routerConfig) {
		c.logger = logger
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) RouterOption {
	return func(c *routerConfig) {
		c.metrics = h
	}
}

// NewRouter builds the HTTP surface: authoring, responses, fill sessions and the websocket channel.
func NewRouter(forms *app.FormService, fill *app.FillService, opts ...RouterOption) http.Handler {
	cfg := routerConfig{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	fh := &formHandler{forms: forms, fill: fill, logger: cfg.logger}
	sh := &sessionHandler{fill: fill, logger: cfg.logger}
	ws := NewWSHandler(fill, cfg.logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if cfg.metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.metrics)
	}

	r.Route("/forms", func(r chi.Router) {
		r.Get("/", fh.list)
		r.Post("/", fh.create)
		r.Route("/{formID}", func(r chi.Router) {
			r.Get("/", fh.get)
			r.Put("/", fh.update)
			r.Delete("/", fh.delete)
			r.Get("/responses", fh.listResponses)
			r.Post("/responses", fh.saveResponse)
			r.Post("/sessions", sh.start)
		})
	})
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", sh.get)
		r.Put("/answers/{questionID}", sh.answer)
		r.Post("/next", sh.next)
		r.Post("/back", sh.back)
		r.Post("/submit", sh.submit)
	})
	r.Get("/ws", ws.ServeWS)
	return r
}
