package http

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/DRSN-tech/imgcluster/internal/cfg"
)

// maxHeaderBytes ограничивает заголовки; тело загрузок ограничивается в обработчиках.
const maxHeaderBytes = 1 << 20

type Server struct {
	httpServer *http.Server
}

func NewServer(handler http.Handler, cfg *cfg.HTTPConfig) *Server {
	const defaultReadHeaderTimeout = 10 * time.Second

	readHeaderTimeout := defaultReadHeaderTimeout
	if cfg.ReadTimeout > 0 && cfg.ReadTimeout < readHeaderTimeout {
		readHeaderTimeout = cfg.ReadTimeout
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
			MaxHeaderBytes:    maxHeaderBytes,
		},
	}
}

func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

// Serve обслуживает уже открытый listener.
func (s *Server) Serve(lis net.Listener) error {
	return s.httpServer.Serve(lis)
}

// Stop дожидается активных запросов, но не фоновых задач: их ждёт ClusterUseCase.Wait.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
