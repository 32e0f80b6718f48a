package features

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/DRSN-tech/imgcluster/pkg/logger"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

const (
	// TargetSize — сторона квадратного входа сети (ResNet50).
	TargetSize = 224
	Channels   = 3
	TensorLen  = TargetSize * TargetSize * Channels

	defaultMaxBytes  = 32 << 20
	defaultMaxPixels = 64 << 20
)

// Средние значения каналов ImageNet в порядке BGR (предобработка "caffe" для ResNet50).
var imagenetMeanBGR = [Channels]float32{103.939, 116.779, 123.68}

// Tensor — одно изображение 224x224x3 в раскладке HWC, каналы BGR со смещением на среднее.
type Tensor []float32

// Decoded — успешно декодированное изображение.
type Decoded struct {
	ID     string
	Image  *image.RGBA // RGB в исходном разрешении, альфа принудительно 255
	Tensor Tensor
}

// ItemError — ошибка обработки одного изображения батча.
type ItemError struct {
	ID  string
	Err error
}

func (i ItemError) Error() string {
	return fmt.Sprintf("%s: %v", i.ID, i.Err)
}

// Batch — результат загрузки: выжившие изображения в исходном порядке и пропущенные.
type Batch struct {
	Items    []Decoded
	Failures []ItemError
}

func (b *Batch) Len() int {
	return len(b.Items)
}

func (b *Batch) IDs() []string {
	ids := make([]string, len(b.Items))
	for i, it := range b.Items {
		ids[i] = it.ID
	}

	return ids
}

func (b *Batch) Tensors() []Tensor {
	out := make([]Tensor, len(b.Items))
	for i, it := range b.Items {
		out[i] = it.Tensor
	}

	return out
}

func (b *Batch) SkippedIDs() []string {
	ids := make([]string, len(b.Failures))
	for i, f := range b.Failures {
		ids[i] = f.ID
	}

	return ids
}

// Loader декодирует изображения и готовит их к инференсу.
type Loader struct {
	workers   int
	maxBytes  int64
	maxPixels int
	logger    logger.Logger
}

func NewLoader(workers int, logger logger.Logger) *Loader {
	if workers <= 0 {
		workers = 1
	}

	return &Loader{
		workers:   workers,
		maxBytes:  defaultMaxBytes,
		maxPixels: defaultMaxPixels,
		logger:    logger,
	}
}

// Load декодирует все источники. Ошибка отдельного изображения не прерывает батч:
// оно попадает в Failures и исключается из дальнейшей обработки.
// Ошибка возвращается только при отмене контекста.
func (l *Loader) Load(ctx context.Context, sources []Source) (*Batch, error) {
	const op = "Loader.Load"

	type slot struct {
		decoded *Decoded
		err     error
	}
	slots := make([]slot, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d, err := l.LoadOne(gctx, src)
			slots[i] = slot{decoded: d, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, e.Wrap(op, err)
	}

	batch := &Batch{Items: make([]Decoded, 0, len(sources))}
	for i, s := range slots {
		if s.err != nil {
			l.logger.Warnf("skipping image %q: %v", sources[i].Name, s.err)
			batch.Failures = append(batch.Failures, ItemError{ID: sources[i].Name, Err: s.err})
			continue
		}
		batch.Items = append(batch.Items, *s.decoded)
	}

	if len(batch.Failures) > 0 {
		l.logger.Infof("%s: %d/%d images decoded, %d skipped", op, batch.Len(), len(sources), len(batch.Failures))
	}

	return batch, nil
}

// LoadOne декодирует один источник. Используется и батчем, и одиночным запросом,
// поэтому предобработка в обоих путях совпадает.
func (l *Loader) LoadOne(ctx context.Context, src Source) (*Decoded, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, e.Wrap("open", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, l.maxBytes+1))
	if err != nil {
		return nil, e.Wrap("read", err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, e.ErrFileTooLarge
	}

	img, err := l.decode(data)
	if err != nil {
		return nil, err
	}

	return &Decoded{
		ID:     src.Name,
		Image:  img,
		Tensor: ToTensor(img),
	}, nil
}

func (l *Loader) decode(data []byte) (*image.RGBA, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrUndecodableImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > l.maxPixels {
		return nil, fmt.Errorf("%w: unsupported dimensions %dx%d", e.ErrUndecodableImage, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrUndecodableImage, err)
	}

	return ToRGB(img), nil
}

// ToRGB приводит изображение к трёхканальному виду: альфа-канал отбрасывается без
// смешивания с фоном, начало координат переносится в (0, 0).
func ToRGB(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	if o, ok := src.(interface{ Opaque() bool }); ok && o.Opaque() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		return dst
	}

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			dst.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}

	return dst
}

// ToTensor масштабирует изображение до 224x224 и применяет предобработку ResNet50.
func ToTensor(img image.Image) Tensor {
	small := resize.Resize(TargetSize, TargetSize, img, resize.Bicubic)

	t := make(Tensor, TensorLen)
	eachRGB(small, func(i int, r, g, b uint8) {
		base := i * Channels
		t[base+0] = float32(b) - imagenetMeanBGR[0]
		t[base+1] = float32(g) - imagenetMeanBGR[1]
		t[base+2] = float32(r) - imagenetMeanBGR[2]
	})

	return t
}

// eachRGB обходит пиксели построчно, i — линейный индекс пикселя.
func eachRGB(img image.Image, fn func(i int, r, g, b uint8)) {
	b := img.Bounds()
	w := b.Dx()

	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			row := rgba.Pix[y*rgba.Stride:]
			for x := 0; x < w; x++ {
				p := row[x*4:]
				fn(y*w+x, p[0], p[1], p[2])
			}
		}
		return
	}

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			fn(y*w+x, uint8(r>>8), uint8(g>>8), uint8(bl>>8))
		}
	}
}
