package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/DRSN-tech/imgcluster/internal/domain"
	"github.com/DRSN-tech/imgcluster/pkg/e"
)

const APIKeyHeader = "X-API-KEY"

// SearchRequest — тело запроса поиска ближайшей группы.
type SearchRequest struct {
	ImageVector []float64 `json:"imageVector"`
}

// SearchResponse — ответ поиска ближайшей группы.
type SearchResponse struct {
	Group string `json:"group"`
}

// HTTPIndex — клиент удалённого сервиса поиска по центроидам (POST /build, POST /search).
type HTTPIndex struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPIndex(baseURL, apiKey string, timeout time.Duration) *HTTPIndex {
	const defaultTimeout = 10 * time.Second

	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &HTTPIndex{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Build отправляет таблицу центроидов целиком, удалённая сторона заменяет свой индекс.
func (h *HTTPIndex) Build(ctx context.Context, _ string, centroids domain.Centroids) error {
	const op = "HTTPIndex.Build"

	if err := h.post(ctx, "/build", centroids, nil); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

func (h *HTTPIndex) Nearest(ctx context.Context, vector []float64) (string, error) {
	const op = "HTTPIndex.Nearest"

	var res SearchResponse
	if err := h.post(ctx, "/search", SearchRequest{ImageVector: vector}, &res); err != nil {
		return "", e.Wrap(op, err)
	}
	if res.Group == "" {
		return "", e.Wrap(op, e.ErrIndexEmpty)
	}

	return res.Group, nil
}

func (h *HTTPIndex) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set(APIKeyHeader, h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		// таймаут или сетевая ошибка: индекс временно недоступен
		return fmt.Errorf("%w: %v", e.ErrIndexUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		return e.ErrIndexEmpty
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: lookup service rejected request (%d)", e.ErrVectorSizeMismatch, resp.StatusCode)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: lookup service returned %d", e.ErrIndexUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("lookup service returned %d", resp.StatusCode)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
