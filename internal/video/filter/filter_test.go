package filter

import (
	"testing"

	"github.com/hydrobotics/rov-relay/internal/video/types"
)

func solidFrame(w, h int, b, g, r byte) types.RawFrame {
	px := make([]byte, w*h*3)
	for i := 0; i < w*h; i++ {
		px[i*3] = b
		px[i*3+1] = g
		px[i*3+2] = r
	}
	return types.RawFrame{Pixels: px, Width: w, Height: h, Channels: 3}
}

func TestBrightnessClamps(t *testing.T) {
	f := solidFrame(2, 2, 250, 10, 0)
	out := Brightness(f, 20)
	if out.Pixels[0] != 255 {
		t.Fatalf("expected clamp to 255, got %d", out.Pixels[0])
	}
	if out.Pixels[1] != 30 {
		t.Fatalf("expected 30, got %d", out.Pixels[1])
	}
}

func TestContrastClamps(t *testing.T) {
	f := solidFrame(2, 2, 200, 100, 10)
	out := Contrast(f, 2.0)
	if out.Pixels[0] != 255 {
		t.Fatalf("expected clamp to 255, got %d", out.Pixels[0])
	}
	if out.Pixels[1] != 200 {
		t.Fatalf("expected 200, got %d", out.Pixels[1])
	}
}

func TestGreyscaleReducesChannels(t *testing.T) {
	f := solidFrame(3, 3, 100, 100, 100)
	out := Greyscale(f, 0)
	if out.Channels != 1 {
		t.Fatalf("expected 1 channel, got %d", out.Channels)
	}
	if len(out.Pixels) != 9 {
		t.Fatalf("expected 9 pixels, got %d", len(out.Pixels))
	}
	if out.Pixels[0] != 100 {
		t.Fatalf("expected uniform grey value 100, got %d", out.Pixels[0])
	}
}

func TestResizeScalesDimensions(t *testing.T) {
	f := solidFrame(10, 10, 50, 60, 70)
	out := Resize(f, 0.5)
	if out.Width != 5 || out.Height != 5 {
		t.Fatalf("expected 5x5, got %dx%d", out.Width, out.Height)
	}
	if len(out.Pixels) != 5*5*3 {
		t.Fatalf("unexpected pixel buffer length: %d", len(out.Pixels))
	}
}

func TestLowpassForcesOddKernel(t *testing.T) {
	f := solidFrame(8, 8, 10, 20, 30)
	out := Lowpass(f, 4) // even, forced to 5
	if out.Width != f.Width || out.Height != f.Height {
		t.Fatalf("lowpass should not change frame dimensions")
	}
	// A uniform frame blurred with any kernel stays uniform.
	for i, v := range out.Pixels {
		want := f.Pixels[i%3]
		if v != want {
			t.Fatalf("expected uniform blur output at %d: got %d want %d", i, v, want)
		}
	}
}

func TestChainIgnoresUnknownFilters(t *testing.T) {
	c := NewChain([]types.FilterSpec{
		{Name: "brightness", Param: 10},
		{Name: "not-a-real-filter", Param: 1},
	})
	if len(c.steps) != 1 {
		t.Fatalf("expected unknown filter to be dropped, got %d steps", len(c.steps))
	}
}

func TestChainAppliesInOrder(t *testing.T) {
	f := solidFrame(4, 4, 10, 10, 10)
	c := NewChain([]types.FilterSpec{
		{Name: "brightness", Param: 10},
		{Name: "greyscale"},
	})
	out := c.Apply(f)
	if out.Channels != 1 {
		t.Fatalf("expected greyscale applied after brightness, got channels=%d", out.Channels)
	}
	if out.Pixels[0] != 20 {
		t.Fatalf("expected brightened-then-greyscaled value 20, got %d", out.Pixels[0])
	}
}
