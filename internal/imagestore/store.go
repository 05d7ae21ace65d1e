package imagestore

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"storefront/internal/domain"
)

const (
	// DefaultMaxSide caps the longest edge of stored product images.
	DefaultMaxSide = 1600
	// DefaultMaxPixels bounds the decoded size of an upload. The header is checked
	// before any pixel data is decoded.
	DefaultMaxPixels = 40_000_000
	productsFolder   = "products"
	maxUploadBytes   = 10 << 20
)

var allowedExt = map[string]imaging.Format{
	".jpg":  imaging.JPEG,
	".jpeg": imaging.JPEG,
	".png":  imaging.PNG,
	".gif":  imaging.GIF,
}

// Store keeps product images on local disk and serves them under PublicPrefix.
type Store struct {
	dir       string
	baseURL   string
	maxSide   int
	maxPixels int
	maxBytes  int64
	logger    zerolog.Logger
	now       func() time.Time
	encode    func(w io.Writer, img image.Image, format imaging.Format, opts ...imaging.EncodeOption) error
}

const PublicPrefix = "/files"

func New(dir, baseURL string, logger zerolog.Logger) *Store {
	return &Store{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		maxSide:   DefaultMaxSide,
		maxPixels: DefaultMaxPixels,
		maxBytes:  maxUploadBytes,
		logger:    logger,
		now:       time.Now,
		encode:    imaging.Encode,
	}
}

func (s *Store) Dir() string { return s.dir }

// Save decodes the upload, shrinks it to fit maxSide and writes it under
// products/<unix-ms>-<uuid>.<ext>. It returns the public URL. Uploads over the byte
// limit or whose header declares more than maxPixels are rejected undecoded, and a
// failed write leaves no file behind.
func (s *Store) Save(filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	format, ok := allowedExt[ext]
	if !ok {
		return "", fmt.Errorf("%w: unsupported image type %q", domain.ErrInvalidRequest, ext)
	}

	raw, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: read upload: %v", domain.ErrInvalidRequest, err)
	}
	if int64(len(raw)) > s.maxBytes {
		return "", fmt.Errorf("%w: image larger than %d bytes", domain.ErrInvalidRequest, s.maxBytes)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%w: decode image header: %v", domain.ErrInvalidRequest, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > s.maxPixels/cfg.Height {
		return "", fmt.Errorf("%w: image %dx%d exceeds %d pixels", domain.ErrInvalidRequest, cfg.Width, cfg.Height, s.maxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: decode image: %v", domain.ErrInvalidRequest, err)
	}
	b := img.Bounds()
	if b.Dx() > s.maxSide || b.Dy() > s.maxSide {
		img = imaging.Fit(img, s.maxSide, s.maxSide, imaging.Lanczos)
	}

	name := fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), uuid.NewString(), ext)
	folder := filepath.Join(s.dir, productsFolder)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	if err := s.write(filepath.Join(folder, name), img, format); err != nil {
		return "", err
	}

	rel := path.Join(productsFolder, name)
	s.logger.Info().Str("object", rel).Int("width", img.Bounds().Dx()).Int("height", img.Bounds().Dy()).Msg("imagestore: saved")
	return s.baseURL + PublicPrefix + "/" + rel, nil
}

// write encodes into a temp file in the target folder and renames it into place.
func (s *Store) write(dst string, img image.Image, format imaging.Format) error {
	f, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	tmp := f.Name()

	err = s.encode(f, img, format, imaging.JPEGQuality(85))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, dst)
	}
	if err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil && !os.IsNotExist(rmErr) {
			s.logger.Warn().Err(rmErr).Str("file", tmp).Msg("imagestore: remove partial upload")
		}
		return fmt.Errorf("%w: write image: %w", domain.ErrStorage, err)
	}
	return nil
}
