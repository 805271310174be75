package images

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func makeTestJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 100, 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestOptimizeJPEG_Scale(t *testing.T) {
	data := makeTestJPEG(t, 200, 100)

	out, err := OptimizeJPEG(data, 0.5, false, 80)
	if err != nil {
		t.Fatalf("OptimizeJPEG() error = %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if cfg.Height != 50 {
		t.Errorf("height = %d, want 50", cfg.Height)
	}
	if cfg.Width != 100 {
		t.Errorf("width = %d, want 100", cfg.Width)
	}
}

func TestOptimizeJPEG_Grayscale(t *testing.T) {
	data := makeTestJPEG(t, 64, 64)

	out, err := OptimizeJPEG(data, 0, true, 80)
	if err != nil {
		t.Fatalf("OptimizeJPEG() error = %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}

	// JPEG chroma subsampling leaves some color noise, check a few points
	b := img.Bounds()
	for _, p := range []image.Point{{8, 8}, {32, 32}, {56, 56}} {
		c := color.NRGBAModel.Convert(img.At(b.Min.X+p.X, b.Min.Y+p.Y)).(color.NRGBA)
		if diff(c.R, c.G) > 8 || diff(c.G, c.B) > 8 {
			t.Errorf("pixel %v = %+v, want near-gray", p, c)
		}
	}
}

func TestOptimizeJPEG_BadInput(t *testing.T) {
	if _, err := OptimizeJPEG([]byte("not an image"), 0, false, 80); err == nil {
		t.Error("OptimizeJPEG() accepted garbage input")
	}
}

func TestIsGrayscale(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 4, 4))
	if !IsGrayscale(gray) {
		t.Error("IsGrayscale() = false for *image.Gray")
	}

	colored := image.NewRGBA(image.Rect(0, 0, 4, 4))
	colored.Set(2, 2, color.RGBA{200, 10, 10, 255})
	if IsGrayscale(colored) {
		t.Error("IsGrayscale() = true for colored image")
	}

	flat := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			flat.Set(x, y, color.RGBA{90, 90, 90, 255})
		}
	}
	if !IsGrayscale(flat) {
		t.Error("IsGrayscale() = false for uniform gray RGBA")
	}
}

func diff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
