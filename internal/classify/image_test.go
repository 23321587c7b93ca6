package classify

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chromastack/printmesh/internal/lut"
)

func grayTable() *testTable {
	return &testTable{
		label: "test",
		samples: []lut.Sample{
			graySample(0, lut.Black),
			graySample(128, lut.White),
			graySample(255, lut.White),
		},
	}
}

// checkerImage alternates two colors; odd pixels of the last row are
// transparent when transparent is set.
func checkerImage(w, h int, a, b color.NRGBA, transparent bool) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := a
			if (x+y)%2 == 1 {
				c = b
			}
			if transparent && y == h-1 && x%2 == 1 {
				c.A = 0
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestImageMatchesExhaustive(t *testing.T) {
	table := grayTable()
	img := checkerImage(9, 7, color.NRGBA{10, 10, 10, 255}, color.NRGBA{240, 240, 240, 255}, false)

	res, err := Image(context.Background(), img, table, Options{BlockRows: 2, Workers: 4})
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	if res.Width != 9 || res.Height != 7 {
		t.Fatalf("result %dx%d, want 9x7", res.Width, res.Height)
	}
	for y := 0; y < 7; y++ {
		for x := 0; x < 9; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			want := Exhaustive(table.samples, lut.RGB{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}, MetricLab)
			got := res.At(x, y)
			if got.Index != want.Index || got.Stack != want.Stack {
				t.Fatalf("(%d,%d): got index %d, want %d", x, y, got.Index, want.Index)
			}
		}
	}
}

func TestImageDeterministicAcrossWorkerCounts(t *testing.T) {
	table := grayTable()
	img := checkerImage(33, 21, color.NRGBA{5, 5, 5, 255}, color.NRGBA{250, 250, 250, 255}, true)

	base, err := Image(context.Background(), img, table, Options{Workers: 1, BlockRows: 64})
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	for _, workers := range []int{2, 4, 8} {
		res, err := Image(context.Background(), img, table, Options{Workers: workers, BlockRows: 3})
		if err != nil {
			t.Fatalf("Image(workers=%d): %v", workers, err)
		}
		if diff := cmp.Diff(base.Classes, res.Classes); diff != "" {
			t.Fatalf("workers=%d: classifications differ (-base +got):\n%s", workers, diff)
		}
	}
}

func TestImageTransparentPositions(t *testing.T) {
	table := grayTable()
	img := checkerImage(4, 4, color.NRGBA{0, 0, 0, 255}, color.NRGBA{255, 255, 255, 255}, true)

	res, err := Image(context.Background(), img, table, Options{})
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	// Odd pixels of the last row are transparent: never classified.
	for x := 0; x < 4; x++ {
		c := res.At(x, 3)
		if x%2 == 1 {
			if c.Index != -1 {
				t.Errorf("transparent (%d,3) classified to index %d", x, c.Index)
			}
		} else if c.Index < 0 {
			t.Errorf("solid (%d,3) left unclassified", x)
		}
	}
}

func TestImageThresholdFallback(t *testing.T) {
	table := grayTable()
	// Saturated red is far from every gray sample in Lab.
	img := checkerImage(3, 3, color.NRGBA{255, 0, 0, 255}, color.NRGBA{255, 0, 0, 255}, false)

	res, err := Image(context.Background(), img, table, Options{
		MaxDistance: 5,
		FallbackID:  lut.Yellow,
	})
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	if res.Failures != 9 {
		t.Fatalf("Failures = %d, want 9", res.Failures)
	}
	wantStack := lut.Stack{lut.Yellow, lut.Yellow, lut.Yellow, lut.Yellow, lut.Yellow}
	for i, c := range res.Classes {
		if !c.Fallback || c.Stack != wantStack {
			t.Fatalf("class %d = %+v, want yellow fallback", i, c)
		}
	}
	if len(res.Warnings) != 9 {
		t.Errorf("got %d warnings, want 9 itemized", len(res.Warnings))
	}
	for _, w := range res.Warnings {
		if w.Code != "classification-failure" {
			t.Errorf("warning code %q, want classification-failure", w.Code)
		}
	}
}

func TestImageWarningSummaryCap(t *testing.T) {
	table := grayTable()
	img := checkerImage(10, 10, color.NRGBA{255, 0, 0, 255}, color.NRGBA{255, 0, 0, 255}, false)

	res, err := Image(context.Background(), img, table, Options{MaxDistance: 5})
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	if res.Failures != 100 {
		t.Fatalf("Failures = %d, want 100", res.Failures)
	}
	// 32 itemized positions plus one summary.
	if len(res.Warnings) != maxPositionWarnings+1 {
		t.Errorf("got %d warnings, want %d", len(res.Warnings), maxPositionWarnings+1)
	}
}

func TestImageLiveContextSucceeds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	table := grayTable()
	img := checkerImage(2, 2, color.NRGBA{0, 0, 0, 255}, color.NRGBA{255, 255, 255, 255}, false)
	res, err := Image(ctx, img, table, Options{})
	if err != nil {
		t.Fatalf("Image with live context: %v", err)
	}
	for i, c := range res.Classes {
		if c.Index < 0 {
			t.Errorf("class %d left unclassified", i)
		}
	}
}

func TestImageSemiTransparentKeepsColor(t *testing.T) {
	table := &testTable{
		label: "test",
		samples: []lut.Sample{
			graySample(100, lut.Black),
			graySample(200, lut.White),
		},
	}
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	// Half-transparent light gray: premultiplied components read back
	// as ~100, but the true color is 200.
	img.SetNRGBA(0, 0, color.NRGBA{200, 200, 200, 128})

	res, err := Image(context.Background(), img, table, Options{})
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	if got := res.At(0, 0); got.Index != 1 {
		t.Errorf("semi-transparent pixel classified to index %d, want 1", got.Index)
	}
}

func TestImageCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	table := grayTable()
	img := checkerImage(8, 8, color.NRGBA{0, 0, 0, 255}, color.NRGBA{255, 255, 255, 255}, false)
	_, err := Image(ctx, img, table, Options{})
	if err != context.Canceled {
		t.Fatalf("Image with canceled context: err = %v, want context.Canceled", err)
	}
}

func TestImageEmpty(t *testing.T) {
	res, err := Image(context.Background(), image.NewNRGBA(image.Rect(0, 0, 0, 0)), grayTable(), Options{})
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	if res.Width != 0 || res.Height != 0 || len(res.Classes) != 0 {
		t.Errorf("empty image result = %+v", res)
	}
}
