package worker

import (
	"net/http"
	"time"

	"housetrades/src/utils"
	handlers "housetrades/src/worker/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	Router  *chi.Mux
	Handler *handlers.Handler
	Metrics *utils.Metrics
}

func NewServer(handler *handlers.Handler, metrics *utils.Metrics) *Server {
	server := &Server{
		Router:  chi.NewRouter(),
		Handler: handler,
		Metrics: metrics,
	}
	server.InitRoutes()
	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) InitRoutes() {
	s.Router.Use(middleware.RequestID)
	s.Router.Use(middleware.Recoverer)

	s.Router.Get("/alive", handlers.Healthcheck)
	s.Router.Handle("/metrics", s.Metrics.Handler())

	s.Router.Route("/api/ingestion", func(r chi.Router) {
		r.Get("/runs", s.Handler.GetRecentRuns)
		r.Get("/validation", s.Handler.GetValidationReport)
		r.Get("/schedules", s.Handler.GetSchedules)
		r.Post("/{kind}", s.Handler.RunIngestion)
	})
}

// NewHTTPServer allows writes for as long as an ingestion run may take, since
// the trigger endpoint answers only once the run has finished.
func NewHTTPServer(server *Server, port string, runTimeout time.Duration) *http.Server {
	writeTimeout := 30 * time.Second
	if runTimeout > 0 {
		writeTimeout += runTimeout
	}
	httpServer := &http.Server{
		Addr:         ":" + port,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: writeTimeout,
		Handler:      server,
	}
	return httpServer
}
