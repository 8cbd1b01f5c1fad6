package media

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"sync"

	// Decoders for the source formats providers serve.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/nfnt/resize"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/synzr/torobooru/internal/domain"
)

// ContentType is the MIME type of every derivative.
const ContentType = "image/jpeg"

// ImageDownloader fetches source images.
type ImageDownloader interface {
	Download(ctx context.Context, rawURL string) ([]byte, error)
}

// Processor downloads source images, derives one JPEG per requested
// ImageType and uploads it under a key derived from its MD5 digest.
type Processor struct {
	downloader  ImageDownloader
	store       domain.BlobStore
	concurrency int
	logger      *zap.Logger
}

// NewProcessor creates a Processor. ProcessBatch handles at most concurrency
// source URLs at a time; values below 1 mean one.
func NewProcessor(downloader ImageDownloader, store domain.BlobStore, concurrency int, logger *zap.Logger) *Processor {
	if concurrency < 1 {
		concurrency = 1
	}

	return &Processor{
		downloader:  downloader,
		store:       store,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Process downloads imageURL once and returns the storage key of each
// requested derivative.
func (p *Processor) Process(ctx context.Context, imageURL string, types []domain.ImageType) (map[domain.ImageType]string, error) {
	data, err := p.downloader.Download(ctx, imageURL)
	if err != nil {
		return nil, err
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", imageURL, err)
	}

	keys := make(map[domain.ImageType]string, len(types))
	for _, t := range types {
		if _, done := keys[t]; done {
			continue
		}

		key, err := p.derive(ctx, src, t)
		if err != nil {
			return nil, fmt.Errorf("processing %s as %s: %w", imageURL, t, err)
		}
		keys[t] = key
	}

	p.logger.Debug("image processed",
		zap.String("url", imageURL),
		zap.String("format", format),
		zap.Int("derivatives", len(keys)),
	)

	return keys, nil
}

// ProcessBatch processes every distinct URL once and returns the keys per URL.
// The first failure cancels the remaining work.
func (p *Processor) ProcessBatch(ctx context.Context, images map[string][]domain.ImageType) (map[string]map[domain.ImageType]string, error) {
	var (
		mu      sync.Mutex
		results = make(map[string]map[domain.ImageType]string, len(images))
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for imageURL, types := range images {
		g.Go(func() error {
			keys, err := p.Process(gCtx, imageURL, types)
			if err != nil {
				return err
			}

			mu.Lock()
			results[imageURL] = keys
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func (p *Processor) derive(ctx context.Context, src image.Image, t domain.ImageType) (string, error) {
	encoded, err := Encode(src, t)
	if err != nil {
		return "", err
	}

	key := StorageKey(encoded, t)
	if err := p.store.Put(ctx, key, encoded, ContentType); err != nil {
		return "", err
	}

	return key, nil
}

// StorageKey is the content-addressed key of an encoded derivative.
func StorageKey(encoded []byte, t domain.ImageType) string {
	sum := md5.Sum(encoded)
	return t.StorageKey(hex.EncodeToString(sum[:]))
}

// Encode applies the policy of t to src and returns the JPEG bytes:
// transparency is flattened onto black, images taller than the policy's
// maximum height are scaled down to it keeping the aspect ratio, and the
// result is written as an opaque three-channel JPEG.
func Encode(src image.Image, t domain.ImageType) ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown image type %d", int(t))
	}
	policy := t.Policy()

	img := flatten(src)

	b := img.Bounds()
	if b.Dy() > policy.MaxHeight {
		width := b.Dx() * policy.MaxHeight / b.Dy()
		if width < 1 {
			width = 1
		}
		img = resize.Resize(uint(width), uint(policy.MaxHeight), img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, toRGB(img), &jpeg.Options{Quality: policy.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}

	return buf.Bytes(), nil
}

type opaque interface {
	Opaque() bool
}

// flatten composites src over opaque black when it may carry transparency.
func flatten(src image.Image) image.Image {
	if o, ok := src.(opaque); ok && o.Opaque() {
		return src
	}

	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)

	return dst
}

// toRGB copies img into an RGBA buffer with every pixel fully opaque.
func toRGB(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)

	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}

	return dst
}
