package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/DRSN-tech/imgcluster/internal/usecase"
	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/jimlawless/whereami"
)

// retryAfterSeconds — подсказка клиенту при временной недоступности зависимостей.
const retryAfterSeconds = 5

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrUnauthorized):
		return http.StatusUnauthorized, e.ErrUnauthorized.Error()
	case errors.Is(err, e.ErrJobNotFound):
		return http.StatusNotFound, e.ErrJobNotFound.Error()
	case errors.Is(err, e.ErrJobNotFinished):
		return http.StatusConflict, e.ErrJobNotFinished.Error()
	case errors.Is(err, e.ErrJobFailed):
		return http.StatusConflict, e.ErrJobFailed.Error()
	case errors.Is(err, e.ErrIndexEmpty):
		return http.StatusConflict, e.ErrIndexEmpty.Error()
	case errors.Is(err, e.ErrIndexUnavailable):
		return http.StatusServiceUnavailable, e.ErrIndexUnavailable.Error()
	case errors.Is(err, e.ErrInferenceUnavailable):
		return http.StatusServiceUnavailable, e.ErrInferenceUnavailable.Error()
	case errors.Is(err, e.ErrUndecodableImage):
		return http.StatusUnprocessableEntity, e.ErrUndecodableImage.Error()
	case errors.Is(err, e.ErrVectorSizeMismatch):
		return http.StatusUnprocessableEntity, e.ErrVectorSizeMismatch.Error()
	case errors.Is(err, e.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType, e.ErrUnsupportedMediaType.Error()
	case errors.Is(err, e.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, e.ErrFileTooLarge.Error()
	case errors.Is(err, e.ErrExpectedMultipart):
		return http.StatusBadRequest, e.ErrExpectedMultipart.Error()
	case errors.Is(err, e.ErrNoImages):
		return http.StatusBadRequest, e.ErrNoImages.Error()
	case errors.Is(err, e.ErrMissingImage):
		return http.StatusBadRequest, e.ErrMissingImage.Error()
	case errors.Is(err, e.ErrTooManyImages):
		return http.StatusBadRequest, e.ErrTooManyImages.Error()
	case errors.Is(err, e.ErrDuplicateFileName):
		return http.StatusBadRequest, e.ErrDuplicateFileName.Error()
	case errors.Is(err, e.ErrInvalidFileName):
		return http.StatusBadRequest, e.ErrInvalidFileName.Error()
	case errors.Is(err, e.ErrInvalidJSON):
		return http.StatusBadRequest, e.ErrInvalidJSON.Error()
	case errors.Is(err, e.ErrEmptyVectors):
		return http.StatusBadRequest, e.ErrEmptyVectors.Error()
	case errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, e.ErrStatusBadRequest.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	if code == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func ensureMultipartForm(r *http.Request, maxMemory int64) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return e.Wrap(whereami.WhereAmI(), e.ErrExpectedMultipart)
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return e.Wrap(whereami.WhereAmI(), e.ErrFileTooLarge)
		}
		return e.Wrap(whereami.WhereAmI(), errors.Join(e.ErrStatusBadRequest, err))
	}

	return nil
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return e.Wrap(whereami.WhereAmI(), e.ErrFileTooLarge)
		}
		return e.Wrap(whereami.WhereAmI(), errors.Join(e.ErrInvalidJSON, err))
	}

	return nil
}

func parseImages(files []*multipart.FileHeader, maxCount int, maxFileSize int64) ([]usecase.UploadedImage, error) {
	if len(files) == 0 {
		return nil, e.ErrNoImages
	}
	if maxCount > 0 && len(files) > maxCount {
		return nil, e.ErrTooManyImages
	}

	images := make([]usecase.UploadedImage, 0, len(files))
	for _, fh := range files {
		img, err := readFile(fh, maxFileSize)
		if err != nil {
			return nil, err
		}
		images = append(images, *img)
	}

	return images, nil
}

func readFile(fh *multipart.FileHeader, maxSize int64) (*usecase.UploadedImage, error) {
	if maxSize > 0 && fh.Size > maxSize {
		return nil, e.Wrap(fh.Filename, e.ErrFileTooLarge)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, e.ErrInternalServerError
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, e.ErrInternalServerError
	}

	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data[:min(len(data), 512)])
	}

	return usecase.NewUploadedImage(fh.Filename, data, mimeType), nil
}
