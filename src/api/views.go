package api

import (
	"net/http"
	"time"

	handlers "housetrades/src/api/handlers"
	"housetrades/src/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
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
	s.Router.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}).Handler)

	s.Router.Get("/alive", handlers.Healthcheck)
	s.Router.Handle("/metrics", s.Metrics.Handler())

	s.Router.Route("/api/representatives", func(r chi.Router) {
		r.Get("/", s.Handler.GetAllRepresentatives)
		r.Get("/overview", s.Handler.GetRepresentativeOverview)
		r.Get("/sectors", s.Handler.GetSectorAnalysis)
		r.Get("/positions", s.Handler.GetCurrentPositions)
		r.Get("/series", s.Handler.GetPositionSeries)
		r.Get("/portfolio", s.Handler.GetPortfolioValue)
		r.Get("/activity", s.Handler.GetDailyActivity)
		r.Get("/report", s.Handler.GetRepresentativeReport)
	})

	s.Router.Route("/api/stocks", func(r chi.Router) {
		r.Get("/", s.Handler.GetStocksWithPrices)
		r.Get("/tickers", s.Handler.GetAllTickers)
		r.Get("/overview", s.Handler.GetStockOverview)
		r.Get("/{ticker}/prices", s.Handler.GetStockPrices)
		r.Get("/{ticker}/positions", s.Handler.GetStockPositions)
		r.Get("/{ticker}/timeline", s.Handler.GetStockTradingTimeline)
		r.Get("/{ticker}/parties", s.Handler.GetPartyDistribution)
	})

	s.Router.Get("/api/timeline", s.Handler.GetTradingTimeline)
}

func NewHTTPServer(server *Server, port string) *http.Server {
	httpServer := &http.Server{
		Addr:         ":" + port,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Handler:      server,
	}
	return httpServer
}
