package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestGenerateVariantsScalesDown(t *testing.T) {
	out, err := GenerateVariants(pngOf(t, 1600, 1200), nil)
	if err != nil {
		t.Fatalf("GenerateVariants: %v", err)
	}
	if len(out) != len(DefaultVariants) {
		t.Fatalf("got %d variants, want %d", len(out), len(DefaultVariants))
	}

	want := map[string][2]int{"sm": {320, 240}, "md": {800, 600}}
	for _, v := range out {
		if got := [2]int{v.Width, v.Height}; got != want[v.Name] {
			t.Errorf("%s = %v, want %v", v.Name, got, want[v.Name])
		}
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(v.Data))
		if err != nil {
			t.Fatalf("%s is not a JPEG: %v", v.Name, err)
		}
		if cfg.Width != v.Width || cfg.Height != v.Height {
			t.Errorf("%s encoded as %dx%d", v.Name, cfg.Width, cfg.Height)
		}
	}
}

func TestGenerateVariantsNeverUpscales(t *testing.T) {
	out, err := GenerateVariants(pngOf(t, 200, 100), nil)
	if err != nil {
		t.Fatalf("GenerateVariants: %v", err)
	}
	for _, v := range out {
		if v.Width != 200 || v.Height != 100 {
			t.Errorf("%s = %dx%d, want source size", v.Name, v.Width, v.Height)
		}
	}
}

func TestGenerateVariantsRejectsGarbage(t *testing.T) {
	_, err := GenerateVariants([]byte("definitely not an image"), nil)
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}
