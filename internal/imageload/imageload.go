// Package imageload reads images referenced from Markdown documents and
// prepares them for embedding.
package imageload

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/alnah/go-mdblocks/internal/element"
	"github.com/alnah/go-mdblocks/internal/fileutil"
)

// Sentinel errors.
var (
	ErrRemoteImage = errors.New("remote images are not supported")
	ErrNotImage    = errors.New("file is not an image")
	ErrTooLarge    = errors.New("image file too large")
	ErrDecode      = errors.New("unable to decode image")
)

// DefaultMaxBytes bounds the size of a single image file.
const DefaultMaxBytes = 32 << 20

// passthrough lists the formats embedded as-is; everything else is
// re-encoded to PNG.
var passthrough = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
}

// Loader loads images from the local filesystem. Relative paths resolve
// against BaseDir, normally the directory of the Markdown source.
type Loader struct {
	BaseDir  string
	MaxBytes int64
}

// New creates a Loader rooted at baseDir.
func New(baseDir string) *Loader {
	return &Loader{BaseDir: baseDir, MaxBytes: DefaultMaxBytes}
}

// LoadImage reads, sniffs and decodes the image at path. Orientation from
// EXIF metadata is applied to the reported size.
func (l *Loader) LoadImage(path string) (*element.Image, error) {
	if fileutil.IsURL(path) {
		return nil, fmt.Errorf("%w: %s", ErrRemoteImage, path)
	}

	data, err := l.read(l.resolve(path))
	if err != nil {
		return nil, err
	}

	kind, err := filetype.Match(data)
	if err != nil || !filetype.IsImage(data) {
		return nil, fmt.Errorf("%w: %s", ErrNotImage, path)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}

	mime := kind.MIME.Value
	if !passthrough[mime] {
		if data, err = encodePNG(img); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
		}
		mime = "image/png"
	}

	return &element.Image{
		Source: path,
		Data:   data,
		MIME:   mime,
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

func (l *Loader) resolve(path string) string {
	path = fileutil.StripFileScheme(path)
	if filepath.IsAbs(path) || l.BaseDir == "" {
		return path
	}
	return filepath.Join(l.BaseDir, path)
}

func (l *Loader) read(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotImage, path)
	}
	limit := l.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	if info.Size() > limit {
		return nil, fmt.Errorf("%w: %s (%d bytes, limit %d)", ErrTooLarge, path, info.Size(), limit)
	}
	return os.ReadFile(path) // #nosec G304 -- document-referenced image
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Rotate returns data re-encoded as PNG with the image turned clockwise by
// degrees. Areas uncovered by the rotation are transparent.
func Rotate(data []byte, degrees float64) ([]byte, int, int, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	// imaging rotates counter-clockwise.
	rotated := imaging.Rotate(img, -degrees, color.Transparent)
	out, err := encodePNG(rotated)
	if err != nil {
		return nil, 0, 0, err
	}
	return out, rotated.Bounds().Dx(), rotated.Bounds().Dy(), nil
}
