package e

import "fmt"

var (
	// Конфигурация
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
	ErrUnknownBackend       = fmt.Errorf("unknown backend")

	// Хранилища
	ErrTransactionNotFound = fmt.Errorf("transaction not found in context")

	// Внутренние ошибки с векторами
	ErrEmptyVectors          = fmt.Errorf("empty vectors")
	ErrVectorEmbeddingEmpty  = fmt.Errorf("vector embedding is empty")
	ErrEmbeddingDimMismatch  = fmt.Errorf("embedding dimensionality mismatch")
	ErrImageVectorMismatch   = fmt.Errorf("image vector mismatch")
	ErrVectorSizeMismatch    = fmt.Errorf("vector size mismatch")
	ErrMalformedTensor       = fmt.Errorf("malformed tensor payload")
	ErrInferenceUnavailable  = fmt.Errorf("inference service unavailable")
	ErrNoDecodableImages     = fmt.Errorf("no decodable images")
	ErrUndecodableImage      = fmt.Errorf("image could not be decoded")
	ErrClusteringDegenerated = fmt.Errorf("clustering degenerated")

	// Задачи кластеризации
	ErrJobNotFound        = fmt.Errorf("job not found")
	ErrJobExists          = fmt.Errorf("job already exists")
	ErrJobNotFinished     = fmt.Errorf("job is still running")
	ErrJobFailed          = fmt.Errorf("job failed")
	ErrJobAlreadyFinished = fmt.Errorf("job already finished")

	// Индекс центроидов
	ErrIndexEmpty       = fmt.Errorf("centroid index is empty")
	ErrIndexUnavailable = fmt.Errorf("centroid index unavailable")

	// 400 Bad Request
	ErrStatusBadRequest     = fmt.Errorf("bad request")
	ErrExpectedMultipart    = fmt.Errorf("expected multipart/form-data")
	ErrNoImages             = fmt.Errorf("no images provided")
	ErrMissingImage         = fmt.Errorf("image file is required")
	ErrTooManyImages        = fmt.Errorf("too many images")
	ErrFileTooLarge         = fmt.Errorf("file too large")
	ErrDuplicateFileName    = fmt.Errorf("duplicate file name")
	ErrInvalidFileName      = fmt.Errorf("invalid file name")
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")
	ErrInvalidJSON          = fmt.Errorf("invalid json body")

	// 401
	ErrUnauthorized = fmt.Errorf("invalid or missing api key")

	// 500
	ErrInternalServerError = fmt.Errorf("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
