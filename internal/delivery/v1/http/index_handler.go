package http

import (
	"net/http"

	"github.com/DRSN-tech/imgcluster/internal/domain"
	"github.com/DRSN-tech/imgcluster/internal/usecase"
	"github.com/DRSN-tech/imgcluster/pkg/logger"
)

// maxIndexBody ограничивает тело /index/build (таблица центроидов в JSON).
const maxIndexBody = 64 << 20

// IndexHandler обслуживает протокол сервиса поиска по центроидам.
type IndexHandler struct {
	indexUsecase usecase.IndexUC
	logger       logger.Logger
}

func NewIndexHandler(indexUsecase usecase.IndexUC, logger logger.Logger) *IndexHandler {
	return &IndexHandler{indexUsecase: indexUsecase, logger: logger}
}

// build
//
//	@Summary		Перестроить индекс центроидов
//	@Description	Полностью заменяет таблицу "имя группы -> центроид"
//	@Tags			index
//	@Accept			json
//	@Produce		json
//	@Param			centroids	body		map[string][]number	true	"Таблица центроидов"
//	@Success		200			{object}	BuildIndexResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse	"Разная размерность центроидов"
//	@Router			/index/build [post]
func (h *IndexHandler) build(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxIndexBody)

	var centroids domain.Centroids
	if err := decodeJSON(r, &centroids); err != nil {
		WriteError(w, err)
		return
	}

	if err := h.indexUsecase.BuildIndex(r.Context(), centroids); err != nil {
		h.logger.Warnf("index build failed: %s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, BuildIndexResponse{Groups: len(centroids)})
}

// searchVector
//
//	@Summary	Ближайшая группа для вектора
//	@Tags		index
//	@Accept		json
//	@Produce	json
//	@Param		request	body		SearchVectorRequest	true	"Вектор изображения"
//	@Success	200		{object}	SearchResponse
//	@Failure	409		{object}	ErrorResponse	"Индекс пуст"
//	@Failure	422		{object}	ErrorResponse	"Размерность вектора не совпадает"
//	@Router		/index/search [post]
func (h *IndexHandler) searchVector(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxIndexBody)

	var req SearchVectorRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	group, err := h.indexUsecase.SearchIndex(r.Context(), req.ImageVector)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, SearchResponse{Group: group})
}
