package domain

// Image описывает загруженное изображение батча, размещённое во временном хранилище задачи
type Image struct {
	Name      string // исходное имя файла, идентификатор в результатах
	Bucket    string
	ObjectKey string
	Bytes     []byte
	// Передайте значение -1 в Size, если размер потока неизвестен
	// (внимание: при передаче значения -1 будет выделен большой объем памяти).
	Size        int64
	ContentType string // Example: "image/png"
}

func NewImage(name string, bucket string, objectKey string, data []byte, contentType string) *Image {
	return &Image{
		Name:        name,
		Bucket:      bucket,
		ObjectKey:   objectKey,
		Bytes:       data,
		Size:        int64(len(data)),
		ContentType: contentType,
	}
}
