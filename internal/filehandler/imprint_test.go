package filehandler

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 0, 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestLoadImprint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	writePNG(t, path, 400, 300)

	tests := []struct {
		name       string
		opts       ImprintOptions
		wantWidth  int
		wantHeight int
	}{
		{"full frame", ImprintOptions{}, 400, 300},
		{"bottom band", ImprintOptions{Region: RegionBottom, Fraction: 0.1}, 400, 30},
		{"top band downscaled", ImprintOptions{Region: RegionTop, Fraction: 0.5, MaxDimension: 200}, 200, 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := LoadImprint(context.Background(), path, tt.opts)
			if err != nil {
				t.Fatalf("LoadImprint() error = %v", err)
			}
			img, err := jpeg.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("output is not a JPEG: %v", err)
			}
			b := img.Bounds()
			if b.Dx() != tt.wantWidth || b.Dy() != tt.wantHeight {
				t.Errorf("LoadImprint() size = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantWidth, tt.wantHeight)
			}
		})
	}
}

func TestLoadImprintUnsupported(t *testing.T) {
	if _, err := LoadImprint(context.Background(), "notes.txt", ImprintOptions{}); err == nil {
		t.Error("LoadImprint() error = nil, want error for unsupported type")
	}
}

func TestScaledDimensions(t *testing.T) {
	tests := []struct {
		w, h, max     int
		wantW, wantH int
	}{
		{100, 50, 200, 100, 50},
		{4000, 3000, 1600, 1600, 1200},
		{3000, 4000, 1600, 1200, 1600},
		{5000, 2, 100, 100, 1},
	}
	for _, tt := range tests {
		w, h := scaledDimensions(tt.w, tt.h, tt.max)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("scaledDimensions(%d, %d, %d) = (%d, %d), want (%d, %d)", tt.w, tt.h, tt.max, w, h, tt.wantW, tt.wantH)
		}
	}
}
