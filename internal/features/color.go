package features

import (
	"image"

	"github.com/nfnt/resize"
)

const (
	histogramSide  = 64
	binsPerChannel = 4
	// ColorDim — размерность цветового дескриптора (4x4x4).
	ColorDim = binsPerChannel * binsPerChannel * binsPerChannel

	histogramEpsilon = 1e-6
)

// ColorHistogram строит совместную RGB-гистограмму 4x4x4 по уменьшенной до 64x64 копии
// изображения и нормирует её на сумму. Индекс корзины: r*16 + g*4 + b.
// При любой ошибке возвращается нулевой вектор той же размерности.
func ColorHistogram(img image.Image) (hist []float64) {
	hist = make([]float64, ColorDim)

	defer func() {
		if recover() != nil {
			hist = make([]float64, ColorDim)
		}
	}()

	if img == nil || img.Bounds().Empty() {
		return hist
	}

	small := resize.Resize(histogramSide, histogramSide, img, resize.Bicubic)

	var sum float64
	eachRGB(small, func(_ int, r, g, b uint8) {
		idx := int(r>>6)*binsPerChannel*binsPerChannel + int(g>>6)*binsPerChannel + int(b>>6)
		hist[idx]++
		sum++
	})

	for i := range hist {
		hist[i] /= sum + histogramEpsilon
	}

	return hist
}

// ColorHistograms считает дескрипторы для всего батча в исходном порядке.
func ColorHistograms(items []Decoded) [][]float64 {
	out := make([][]float64, len(items))
	for i, it := range items {
		var img image.Image
		if it.Image != nil {
			img = it.Image
		}
		out[i] = ColorHistogram(img)
	}

	return out
}
