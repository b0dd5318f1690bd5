package gateway

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const megabyte = 1 << 20

// CheckSize rejects empty images and images above maxBytes. A maxBytes of
// zero or less disables the upper bound.
func CheckSize(data []byte, maxBytes int64) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty upload", ErrUnsupportedImage)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return fmt.Errorf("%w: %.2f MB, the limit is %.2f MB",
			ErrImageTooLarge, float64(len(data))/megabyte, float64(maxBytes)/megabyte)
	}
	return nil
}

// NormalizePNG decodes any supported format and re-encodes it as PNG.
func NormalizePNG(data []byte) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if format == "png" {
		return data, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
