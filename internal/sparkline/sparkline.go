// Package sparkline renders monthly play counts as small inline bitmaps.
package sparkline

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"golang.org/x/image/bmp"
)

const (
	// Height of every image in pixels, which is also the tallest bar.
	Height = 40

	background = 210
	bar        = 0

	scalePercentile = 99

	dataURLPrefix = "data:image/bmp;base64,"
)

// Series maps a month index to the play count of that month.
type Series map[int]int

// Result holds one image per entity of a batch.
type Result[K comparable] struct {
	Images map[K]string
	// MaxPlays is the count that maps to a full-height bar.
	MaxPlays int
}

// Percentile interpolates linearly between the closest ranks of values.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}

// Render draws every series of the batch on a shared scale: the 99th
// percentile of all counts in the batch maps to a full-height bar. Images are
// as wide as the largest month index in the batch plus one.
func Render[K comparable](batch map[K]Series) (Result[K], error) {
	result := Result[K]{Images: make(map[K]string, len(batch))}

	var counts []float64
	width := 0
	for _, s := range batch {
		for month, count := range s {
			counts = append(counts, float64(count))
			width = max(width, month+1)
		}
	}
	if len(counts) == 0 {
		return result, nil
	}

	multiplier := Height / Percentile(counts, scalePercentile)
	result.MaxPlays = int(Height / multiplier)

	for key, s := range batch {
		img := draw(s, width, multiplier)
		encoded, err := encode(img)
		if err != nil {
			return Result[K]{}, fmt.Errorf("encoding image: %w", err)
		}
		result.Images[key] = encoded
	}
	return result, nil
}

func draw(s Series, width int, multiplier float64) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, Height))
	for i := range img.Pix {
		img.Pix[i] = background
	}
	for month, count := range s {
		h := min(int(math.RoundToEven(float64(count)*multiplier)), Height)
		for y := Height - h; y < Height; y++ {
			img.SetGray(month, y, color.Gray{Y: bar})
		}
	}
	return img
}

func encode(img *image.Gray) (string, error) {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		return "", err
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
