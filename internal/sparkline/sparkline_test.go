package sparkline

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"image"
	"image/color"
	"math"
	"strings"
	"testing"

	"golang.org/x/image/bmp"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		values []float64
		p      float64
		want   float64
	}{
		{[]float64{5}, 99, 5},
		{[]float64{1, 2, 3, 4}, 50, 2.5},
		{[]float64{4, 1, 3, 2}, 100, 4},
		{[]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 100}, 99, 91.81},
		{nil, 99, 0},
	}
	for _, tt := range tests {
		got := Percentile(tt.values, tt.p)
		if math.Abs(got-tt.want) > 1e-6 {
			t.Errorf("Percentile(%v, %v) = %v, want %v", tt.values, tt.p, got, tt.want)
		}
	}
}

func decode(t *testing.T, encoded string) (image.Image, []byte) {
	t.Helper()
	if !strings.HasPrefix(encoded, dataURLPrefix) {
		t.Fatalf("missing data URL prefix: %.40s", encoded)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(encoded, dataURLPrefix))
	if err != nil {
		t.Fatalf("base64: %v", err)
	}
	img, err := bmp.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("bmp.Decode: %v", err)
	}
	return img, raw
}

func grayAt(img image.Image, x, y int) uint8 {
	return color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
}

func TestRender(t *testing.T) {
	batch := map[string]Series{
		"a": {0: 4, 2: 2},
		"b": {1: 4},
	}
	result, err := Render(batch)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if result.MaxPlays != 4 {
		t.Errorf("MaxPlays = %d, want 4", result.MaxPlays)
	}
	if len(result.Images) != 2 {
		t.Fatalf("got %d images, want 2", len(result.Images))
	}

	img, raw := decode(t, result.Images["a"])
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != Height {
		t.Fatalf("bounds = %v, want 3x%d", b, Height)
	}
	if offset := binary.LittleEndian.Uint32(raw[10:14]); offset != 1078 {
		t.Errorf("pixel offset = %d, want 1078", offset)
	}
	if bpp := binary.LittleEndian.Uint16(raw[28:30]); bpp != 8 {
		t.Errorf("bits per pixel = %d, want 8", bpp)
	}

	// Month 0 is a full bar, month 1 is empty, month 2 is half height.
	for y := 0; y < Height; y++ {
		if got := grayAt(img, 0, y); got != bar {
			t.Errorf("(0,%d) = %d, want %d", y, got, bar)
		}
		if got := grayAt(img, 1, y); got != background {
			t.Errorf("(1,%d) = %d, want %d", y, got, background)
		}
		want := uint8(background)
		if y >= Height/2 {
			want = bar
		}
		if got := grayAt(img, 2, y); got != want {
			t.Errorf("(2,%d) = %d, want %d", y, got, want)
		}
	}
}

func TestRenderClampsAboveScale(t *testing.T) {
	batch := map[int]Series{}
	for i := 0; i < 200; i++ {
		batch[i] = Series{0: 1}
	}
	batch[-1] = Series{0: 1000}

	result, err := Render(batch)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if result.MaxPlays != 1 {
		t.Errorf("MaxPlays = %d, want 1", result.MaxPlays)
	}
	img, _ := decode(t, result.Images[-1])
	if got := grayAt(img, 0, 0); got != bar {
		t.Errorf("outlier bar not clamped to full height, top pixel = %d", got)
	}
}

func TestRenderEmpty(t *testing.T) {
	result, err := Render(map[string]Series{})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if len(result.Images) != 0 || result.MaxPlays != 0 {
		t.Errorf("Render(empty) = %+v", result)
	}
}
