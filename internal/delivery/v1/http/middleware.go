package http

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/DRSN-tech/imgcluster/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
)

const APIKeyHeader = "X-API-KEY"

// apiKeyAuth пропускает запрос только с верным X-API-KEY. Пустой ключ отключает проверку.
func apiKeyAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if apiKey == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(APIKeyHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(apiKey)) != 1 {
				WriteError(w, e.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger пишет метод, путь, статус и длительность каждого запроса.
func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			if strings.HasPrefix(r.URL.Path, "/swagger") {
				return
			}
			log.Debugf("%s %s -> %d (%s) request_id=%s",
				r.Method, r.URL.Path, ww.Status(), time.Since(start), middleware.GetReqID(r.Context()))
		})
	}
}
