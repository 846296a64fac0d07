package media

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"math"

	"github.com/camden-git/dancereg/logging"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

const (
	ThumbnailJpegQuality   = 90
	ThumbnailFileExtension = ".jpg"
)

// Processor generates thumbnails and relies on a Store for saving the results.
type Processor struct {
	store Store
	log   *zap.Logger
}

func NewProcessor(store Store) *Processor {
	return &Processor{store: store, log: logging.Named("media.processor")}
}

// thumbnailSize scales w x h so the longest side is at most maxSize.
func thumbnailSize(w, h, maxSize int) (int, int) {
	if w <= maxSize && h <= maxSize {
		return w, h
	}
	if w > h {
		return maxSize, max(1, int(math.Round(float64(h)*float64(maxSize)/float64(w))))
	}
	return max(1, int(math.Round(float64(w)*float64(maxSize)/float64(h)))), maxSize
}

// GenerateThumbnail creates a thumbnail where the longest side matches maxSize.
// returns relative path to saved thumb or error.
func (p *Processor) GenerateThumbnail(originalImg image.Image, originalRelPath string, maxSize int) (string, error) {
	if maxSize <= 0 {
		return "", fmt.Errorf("invalid thumbnail size %d", maxSize)
	}
	bounds := originalImg.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return "", fmt.Errorf("invalid original image dimensions: %dx%d", bounds.Dx(), bounds.Dy())
	}
	newWidth, newHeight := thumbnailSize(bounds.Dx(), bounds.Dy(), maxSize)
	thumb := imaging.Resize(originalImg, newWidth, newHeight, imaging.Lanczos)

	reader, writer := io.Pipe()
	go func() {
		err := imaging.Encode(writer, thumb, imaging.JPEG, imaging.JPEGQuality(ThumbnailJpegQuality))
		writer.CloseWithError(err)
	}()

	thumbUUID, err := uuid.NewRandom()
	if err != nil {
		reader.CloseWithError(err)
		return "", fmt.Errorf("failed to generate UUID for thumbnail: %w", err)
	}

	savedRelPath, err := p.store.Save(AssetTypeThumbnail, "", thumbUUID.String()+ThumbnailFileExtension, reader)
	if err != nil {
		reader.CloseWithError(err)
		return "", fmt.Errorf("failed to save thumbnail via store: %w", err)
	}

	p.log.Debug("generated thumbnail",
		zap.String("original", originalRelPath),
		zap.String("thumbnail", savedRelPath),
		zap.Int("width", newWidth),
		zap.Int("height", newHeight))
	return savedRelPath, nil
}

// ThumbnailFor decodes a stored original, honours its EXIF orientation and stores a
// thumbnail for it.
func (p *Processor) ThumbnailFor(originalRelPath string, maxSize int) (string, error) {
	rc, _, err := p.store.Get(originalRelPath)
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return "", fmt.Errorf("failed to read original '%s': %w", originalRelPath, err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode original '%s': %w", originalRelPath, err)
	}
	img = applyOrientation(img, readOrientation(data))
	return p.GenerateThumbnail(img, originalRelPath, maxSize)
}
