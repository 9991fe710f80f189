package filehandler

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

// Imprint regions. Trail cameras burn the date/time into a band along the
// top or bottom edge of every frame.
const (
	RegionFull   = "full"
	RegionTop    = "top"
	RegionBottom = "bottom"
)

// DefaultImprintMaxDimension caps the width or height of the image handed
// to a text recognizer.
const DefaultImprintMaxDimension = 1600

// ImprintOptions selects which part of a frame is handed to a text
// recognizer.
type ImprintOptions struct {
	// Region is RegionFull, RegionTop or RegionBottom. Empty means full.
	Region string

	// Fraction is the band height as a fraction of the frame for the top
	// and bottom regions. Zero selects 0.15.
	Fraction float64

	// MaxDimension caps the output size. Zero selects
	// DefaultImprintMaxDimension.
	MaxDimension int
}

// LoadImprint returns a JPEG of the imprint region of a media file. Videos
// are sampled at the 1-second mark with ffmpeg (0s for shorter clips).
func LoadImprint(ctx context.Context, path string, opts ImprintOptions) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var img image.Image
	var err error
	switch {
	case IsImage(ext):
		img, err = decodeImage(path)
	case IsVideo(ext):
		img, err = videoFrame(ctx, path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
	if err != nil {
		return nil, err
	}

	region := cropRegion(img.Bounds(), opts)
	maxDim := opts.MaxDimension
	if maxDim <= 0 {
		maxDim = DefaultImprintMaxDimension
	}
	newWidth, newHeight := scaledDimensions(region.Dx(), region.Dy(), maxDim)

	out := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(out, out.Bounds(), img, region, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode imprint: %w", err)
	}

	log.Debug().
		Str("path", path).
		Str("region", opts.Region).
		Int("width", newWidth).
		Int("height", newHeight).
		Int("output_size", buf.Len()).
		Msg("Imprint image prepared")

	return buf.Bytes(), nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// videoFrame extracts one frame with ffmpeg into a temporary JPEG.
func videoFrame(ctx context.Context, videoPath string) (image.Image, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found: video frame extraction requires ffmpeg")
	}

	tmpFile, err := os.CreateTemp("", "imprint-*.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)

	// -ss 1 skips the black frames some cameras record while the IR
	// illuminator warms up.
	output, err := exec.CommandContext(ctx, ffmpegPath,
		"-ss", "1", "-i", videoPath, "-vframes", "1", "-f", "image2", "-y", tmpPath,
	).CombinedOutput()
	if err != nil {
		output2, err2 := exec.CommandContext(ctx, ffmpegPath,
			"-i", videoPath, "-vframes", "1", "-f", "image2", "-y", tmpPath,
		).CombinedOutput()
		if err2 != nil {
			return nil, fmt.Errorf("ffmpeg frame extraction failed: %w: %s / %s", err2, string(output), string(output2))
		}
	}

	return decodeImage(tmpPath)
}

func cropRegion(b image.Rectangle, opts ImprintOptions) image.Rectangle {
	fraction := opts.Fraction
	if fraction <= 0 || fraction > 1 {
		fraction = 0.15
	}
	band := max(int(float64(b.Dy())*fraction), 1)

	switch opts.Region {
	case RegionTop:
		return image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+band)
	case RegionBottom:
		return image.Rect(b.Min.X, b.Max.Y-band, b.Max.X, b.Max.Y)
	default:
		return b
	}
}

// scaledDimensions fits width x height within maxDimension, keeping the
// aspect ratio. Images already within bounds are unchanged.
func scaledDimensions(width, height, maxDimension int) (int, int) {
	if width <= maxDimension && height <= maxDimension {
		return width, height
	}
	if width > height {
		return maxDimension, max(int(float64(height)*float64(maxDimension)/float64(width)), 1)
	}
	return max(int(float64(width)*float64(maxDimension)/float64(height)), 1), maxDimension
}
