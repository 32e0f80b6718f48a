package http

import (
	"net/http"

	"github.com/DRSN-tech/imgcluster/internal/usecase"
	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/DRSN-tech/imgcluster/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// Limits — ограничения загрузки.
type Limits struct {
	MaxImages   int
	MaxFileSize int64
}

type JobHandler struct {
	clusterUsecase usecase.ClusterUC
	limits         Limits
	logger         logger.Logger
}

func NewJobHandler(clusterUsecase usecase.ClusterUC, limits Limits, logger logger.Logger) *JobHandler {
	return &JobHandler{clusterUsecase: clusterUsecase, limits: limits, logger: logger}
}

// submitJob
//
//	@Summary		Кластеризация батча изображений
//	@Description	Принимает изображения и асинхронно запускает задачу кластеризации
//	@Tags			jobs
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			images	formData	file				true	"Изображения батча"
//	@Success		202		{object}	SubmitJobResponse	"Задача принята"
//	@Failure		400		{object}	ErrorResponse		"Ошибка валидации"
//	@Failure		413		{object}	ErrorResponse		"Файл слишком большой"
//	@Router			/jobs [post]
func (h *JobHandler) submitJob(w http.ResponseWriter, r *http.Request) {
	const maxMemory = 32 << 20

	if h.limits.MaxImages > 0 && h.limits.MaxFileSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, int64(h.limits.MaxImages)*h.limits.MaxFileSize+maxMemory)
	}

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		h.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	images, err := parseImages(r.MultipartForm.File["images"], h.limits.MaxImages, h.limits.MaxFileSize)
	if err != nil {
		h.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	job, err := h.clusterUsecase.Submit(r.Context(), images)
	if err != nil {
		h.logger.Warnf("submit failed: %s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusAccepted, SubmitJobResponse{JobID: job.ID, Status: job.Status})
}

// jobStatus
//
//	@Summary	Статус задачи
//	@Tags		jobs
//	@Produce	json
//	@Param		id	path		string				true	"ID задачи"
//	@Success	200	{object}	JobStatusResponse
//	@Failure	404	{object}	ErrorResponse	"Задача не найдена"
//	@Router		/jobs/{id}/status [get]
func (h *JobHandler) jobStatus(w http.ResponseWriter, r *http.Request) {
	job, err := h.clusterUsecase.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewJobStatusResponse(job))
}

// jobGroups
//
//	@Summary	Группы завершённой задачи
//	@Tags		jobs
//	@Produce	json
//	@Param		id	path		string	true	"ID задачи"
//	@Success	200	{object}	domain.ClusterResult
//	@Failure	404	{object}	ErrorResponse	"Задача не найдена"
//	@Failure	409	{object}	ErrorResponse	"Задача ещё выполняется или завершилась ошибкой"
//	@Router		/jobs/{id}/groups [get]
func (h *JobHandler) jobGroups(w http.ResponseWriter, r *http.Request) {
	result, err := h.clusterUsecase.Result(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, result)
}

// jobCentroids
//
//	@Summary	Центроиды групп завершённой задачи
//	@Tags		jobs
//	@Produce	json
//	@Param		id	path		string	true	"ID задачи"
//	@Success	200	{object}	map[string][]number
//	@Failure	404	{object}	ErrorResponse	"Задача не найдена"
//	@Failure	409	{object}	ErrorResponse	"Задача ещё выполняется или завершилась ошибкой"
//	@Router		/jobs/{id}/centroids [get]
func (h *JobHandler) jobCentroids(w http.ResponseWriter, r *http.Request) {
	centroids, err := h.clusterUsecase.Centroids(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, centroids)
}

// search
//
//	@Summary		Ближайшая группа для изображения
//	@Tags			search
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			image	formData	file	true	"Изображение"
//	@Success		200		{object}	SearchResponse
//	@Failure		409		{object}	ErrorResponse	"Индекс пуст"
//	@Failure		422		{object}	ErrorResponse	"Изображение не декодируется"
//	@Failure		503		{object}	ErrorResponse	"Индекс недоступен"
//	@Router			/search [post]
func (h *JobHandler) search(w http.ResponseWriter, r *http.Request) {
	const maxMemory = 32 << 20

	if h.limits.MaxFileSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.limits.MaxFileSize+maxMemory)
	}

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		WriteError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["image"]
	if len(files) == 0 {
		WriteError(w, e.ErrMissingImage)
		return
	}

	image, err := readFile(files[0], h.limits.MaxFileSize)
	if err != nil {
		WriteError(w, err)
		return
	}

	group, err := h.clusterUsecase.Search(r.Context(), image)
	if err != nil {
		h.logger.Warnf("search failed: %s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, SearchResponse{Group: group})
}
