package features

import (
	"gonum.org/v1/gonum/floats"
)

// ColorWeight — фиксированный вес цветового дескриптора после нормировки.
// Одинаков при кластеризации и при одиночном запросе, из данных не подбирается.
const ColorWeight = 0.25

// Fuse L2-нормирует семантические и цветовые векторы построчно, умножает цветовые
// на weight и склеивает их. Нулевая строка остаётся нулевой.
func Fuse(semantic [][]float32, color [][]float64, weight float64) [][]float64 {
	out := make([][]float64, len(semantic))
	for i := range semantic {
		out[i] = FuseOne(semantic[i], color[i], weight)
	}

	return out
}

// FuseOne собирает итоговый вектор одного изображения.
func FuseOne(semantic []float32, color []float64, weight float64) []float64 {
	fused := make([]float64, len(semantic)+len(color))

	sem := fused[:len(semantic)]
	for j, v := range semantic {
		sem[j] = float64(v)
	}
	normalizeL2(sem)

	col := fused[len(semantic):]
	copy(col, color)
	normalizeL2(col)
	floats.Scale(weight, col)

	return fused
}

func normalizeL2(v []float64) {
	n := floats.Norm(v, 2)
	if n == 0 {
		return
	}
	floats.Scale(1/n, v)
}
