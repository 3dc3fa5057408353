package storage

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func TestDecodeDataURI(t *testing.T) {
	t.Run("png", func(t *testing.T) {
		img, err := DecodeDataURI(testhelpers.PNGDataURI(t, "image/png"))
		require.NoError(t, err)
		assert.Equal(t, "png", img.Ext)
		assert.Equal(t, "image/png", img.ContentType)
		assert.NotEmpty(t, img.Data)
	})

	t.Run("jpeg", func(t *testing.T) {
		img, err := DecodeDataURI(testhelpers.JPEGDataURI(t))
		require.NoError(t, err)
		assert.Equal(t, "jpg", img.Ext)
		assert.Equal(t, "image/jpeg", img.ContentType)
	})

	t.Run("image/jpg alias is accepted", func(t *testing.T) {
		uri := strings.Replace(testhelpers.JPEGDataURI(t), "image/jpeg", "image/jpg", 1)
		_, err := DecodeDataURI(uri)
		assert.NoError(t, err)
	})
}

func TestDecodeDataURIRejects(t *testing.T) {
	validPNG := testhelpers.PNGDataURI(t, "image/png")
	_, payload, _ := strings.Cut(validPNG, ",")

	tests := []struct {
		name string
		uri  string
		want error
	}{
		{"plain url", "https://example.com/cat.png", ErrInvalidDataURI},
		{"missing base64 marker", "data:image/png," + payload, ErrInvalidDataURI},
		{"gif mime with valid png payload", "data:image/gif;base64," + payload, ErrUnsupportedImageType},
		{"svg mime", "data:image/svg+xml;base64," + payload, ErrUnsupportedImageType},
		{"broken base64", "data:image/png;base64,@@not-base64@@", ErrInvalidBase64},
		{"not an image", "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("hello world")), ErrNotAnImage},
		{"too large", "data:image/png;base64," + base64.StdEncoding.EncodeToString(make([]byte, MaxImageSize+1)), ErrImageTooLarge},
		{"huge dimensions in a tiny payload", pngHeaderURI(12000, 12000), ErrImageDimensions},
		{"zero width", pngHeaderURI(0, 10), ErrNotAnImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDataURI(tt.uri)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestImageKeys(t *testing.T) {
	img := &Image{Ext: "png"}

	avatar := AvatarKey(img)
	assert.True(t, strings.HasPrefix(avatar, "avatars/avatar_"))
	assert.True(t, strings.HasSuffix(avatar, ".png"))

	recipe := RecipeImageKey(img)
	assert.True(t, strings.HasPrefix(recipe, "recipes/images/"))
	assert.NotEqual(t, recipe, RecipeImageKey(img))
}

// pngHeaderURI returns a PNG holding only the signature and an IHDR chunk for a
// grayscale image of the given size. It is enough for image.DecodeConfig.
func pngHeaderURI(width, height uint32) string {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], width)
	binary.BigEndian.PutUint32(ihdr[4:8], height)
	ihdr[8] = 8 // bit depth, grayscale colour type 0

	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}
