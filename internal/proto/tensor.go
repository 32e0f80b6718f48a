// Package proto содержит описания gRPC-сервисов imgcluster. Сообщения — стандартные
// обёртки google.protobuf, тензоры и векторы передаются как little-endian float32.
package proto

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/DRSN-tech/imgcluster/pkg/e"
)

const float32Size = 4

// EncodeFloat32 упаковывает значения в little-endian float32.
func EncodeFloat32(values []float32) []byte {
	buf := make([]byte, len(values)*float32Size)
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*float32Size:], math.Float32bits(v))
	}

	return buf
}

// DecodeFloat32 распаковывает little-endian float32.
func DecodeFloat32(data []byte) ([]float32, error) {
	if len(data)%float32Size != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", e.ErrMalformedTensor, len(data), float32Size)
	}

	out := make([]float32, len(data)/float32Size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*float32Size:]))
	}

	return out, nil
}
