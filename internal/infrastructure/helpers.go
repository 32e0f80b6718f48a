package infrastructure

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/DRSN-tech/imgcluster/pkg/e"
)

// GetExtensionFromMIME возвращает расширение файла по MIME-типу изображения.
// Возвращает ошибку e.ErrUnsupportedMediaType для неподдерживаемых типов.
func GetExtensionFromMIME(mime string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(mime, ";", 2)[0])) {
	case "image/jpeg", "image/jpg":
		return "jpg", nil
	case "image/png":
		return "png", nil
	case "image/webp":
		return "webp", nil
	case "image/gif":
		return "gif", nil
	case "image/bmp", "image/x-ms-bmp":
		return "bmp", nil
	case "image/tiff":
		return "tiff", nil
	default:
		return "bin", e.ErrUnsupportedMediaType
	}
}

// DetectMIME определяет тип содержимого по первым байтам, если клиент его не прислал
// или прислал неинформативный application/octet-stream.
func DetectMIME(declared string, data []byte) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}

	return http.DetectContentType(data)
}

// ObjectKey формирует ключ объекта задачи: jobs/<id>/<имя>.
// Неподдерживаемый тип не мешает размещению, изображение отсеется при декодировании.
func ObjectKey(jobID, name, mime string) string {
	key := "jobs/" + jobID + "/" + name
	if filepath.Ext(name) != "" {
		return key
	}

	ext, _ := GetExtensionFromMIME(mime)
	return key + "." + ext
}
