package http

import (
	"net/http"

	_ "github.com/DRSN-tech/imgcluster/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/imgcluster/internal/usecase"
	"github.com/DRSN-tech/imgcluster/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// RouterOptions — параметры HTTP API.
type RouterOptions struct {
	APIKey string
	Limits Limits
}

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(clusterUC usecase.ClusterUC, indexUC usecase.IndexUC, opts RouterOptions) {
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.RealIP)
	r.router.Use(requestLogger(r.logger))
	r.router.Use(middleware.Recoverer)

	r.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"), // ссылка на JSON
	))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(apiKeyAuth(opts.APIKey))

		jobHandler := NewJobHandler(clusterUC, opts.Limits, r.logger)
		registerJobRoutes(v1, jobHandler)

		indexHandler := NewIndexHandler(indexUC, r.logger)
		registerIndexRoutes(v1, indexHandler)
	})
}

func registerJobRoutes(router chi.Router, jobHandler *JobHandler) {
	router.Route("/jobs", func(jr chi.Router) {
		jr.Post("/", jobHandler.submitJob)
		jr.Get("/{id}/status", jobHandler.jobStatus)
		jr.Get("/{id}/groups", jobHandler.jobGroups)
		jr.Get("/{id}/centroids", jobHandler.jobCentroids)
	})
	router.Post("/search", jobHandler.search)
}

func registerIndexRoutes(router chi.Router, indexHandler *IndexHandler) {
	router.Route("/index", func(ir chi.Router) {
		ir.Post("/build", indexHandler.build)
		ir.Post("/search", indexHandler.searchVector)
	})
}
