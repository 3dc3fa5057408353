package storage

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	// MaxImageSize caps the decoded size of an uploaded image.
	MaxImageSize = 5 * 1024 * 1024
	// maxDimension bounds the longest side of stored images.
	maxDimension = 4096
	// MaxImagePixels caps the decoded area of an upload.
	MaxImagePixels = 2 * maxDimension * maxDimension

	AvatarPrefix      = "avatars/"
	RecipeImagePrefix = "recipes/images/"
)

var (
	ErrInvalidDataURI       = errors.New("image must be a base64 encoded data URI")
	ErrUnsupportedImageType = errors.New("unsupported image type, only JPEG and PNG are allowed")
	ErrInvalidBase64        = errors.New("image payload is not valid base64")
	ErrImageTooLarge        = errors.New("image must not exceed 5 MB")
	ErrNotAnImage           = errors.New("image payload is not a valid JPEG or PNG file")
	ErrImageDimensions      = errors.New("image dimensions are too large")
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

// Image is a decoded and re-encoded upload ready to be stored.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

// DecodeDataURI parses "data:<mime>;base64,<payload>" into an Image. The MIME type
// is checked against the allow-list before the payload is decoded, and the decoded
// bytes must be a real JPEG or PNG.
func DecodeDataURI(uri string) (*Image, error) {
	header, payload, ok := strings.Cut(strings.TrimSpace(uri), ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, ErrInvalidDataURI
	}

	mime := strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64"))
	if !allowedTypes[mime] {
		return nil, ErrUnsupportedImageType
	}

	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageSize+2 {
		return nil, ErrImageTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrInvalidBase64
	}
	if len(data) > MaxImageSize {
		return nil, ErrImageTooLarge
	}

	return normalize(data)
}

// normalize applies EXIF orientation, bounds the dimensions and re-encodes the
// image, which also drops any embedded metadata.
func normalize(data []byte) (*Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ErrNotAnImage
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, ErrNotAnImage
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, ErrImageDimensions
	}

	var (
		out  imaging.Format
		img  = &Image{}
		opts []imaging.EncodeOption
	)
	switch format {
	case "jpeg":
		out, img.ContentType, img.Ext = imaging.JPEG, "image/jpeg", "jpg"
		opts = append(opts, imaging.JPEGQuality(90))
	case "png":
		out, img.ContentType, img.Ext = imaging.PNG, "image/png", "png"
	default:
		return nil, ErrNotAnImage
	}

	decoded, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrNotAnImage
	}
	if b := decoded.Bounds(); b.Dx() > maxDimension || b.Dy() > maxDimension {
		decoded = imaging.Fit(decoded, maxDimension, maxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, decoded, out, opts...); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	img.Data = buf.Bytes()
	return img, nil
}

// AvatarKey names a new avatar file: avatars/avatar_<uuid>.<ext>.
func AvatarKey(img *Image) string {
	return AvatarPrefix + "avatar_" + uniqueName() + "." + img.Ext
}

// RecipeImageKey names a new recipe image: recipes/images/<uuid>.<ext>.
func RecipeImageKey(img *Image) string {
	return RecipeImagePrefix + uniqueName() + "." + img.Ext
}

func uniqueName() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
