package images

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// OptimizeJPEG re-encodes JPEG data at the requested quality, optionally
// downscaling by scale and converting to grayscale. Images that are already
// grayscale are not converted again.
func OptimizeJPEG(data []byte, scale float64, gray bool, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to decode image: %w", err)
	}

	if scale > 0 && scale != 1.0 {
		h := int(float64(img.Bounds().Dy()) * scale)
		if h > 0 {
			img = imaging.Resize(img, 0, h, imaging.Linear)
		}
	}
	if gray && !IsGrayscale(img) {
		img = imaging.Grayscale(img)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("unable to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
