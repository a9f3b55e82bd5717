// Package filter implements the ordered per-frame image transform pipeline
// applied by the decoder stage before a frame is queued.
package filter

import (
	stdimage "image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/hydrobotics/rov-relay/internal/video/types"
)

// Func transforms a frame in place (or returns a differently-shaped one, in
// the case of resize/greyscale) given its configured parameter.
type Func func(f types.RawFrame, param float64) types.RawFrame

var registry = map[string]Func{
	"brightness": Brightness,
	"contrast":   Contrast,
	"greyscale":  Greyscale,
	"resize":     Resize,
	"lowpass":    Lowpass,
}

// Chain builds an ordered pipeline of filter functions from config specs.
// Unknown filter names are ignored, matching the source behavior.
type Chain struct {
	steps []step
}

type step struct {
	fn    Func
	param float64
}

// NewChain resolves each spec against the registry, dropping unknown names.
func NewChain(specs []types.FilterSpec) *Chain {
	c := &Chain{}
	for _, s := range specs {
		if fn, ok := registry[s.Name]; ok {
			c.steps = append(c.steps, step{fn: fn, param: s.Param})
		}
	}
	return c
}

// Apply runs every configured step over the frame in order.
func (c *Chain) Apply(f types.RawFrame) types.RawFrame {
	for _, st := range c.steps {
		f = st.fn(f, st.param)
	}
	return f
}

func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// Brightness adds delta to every channel, clamped to [0, 255].
func Brightness(f types.RawFrame, delta float64) types.RawFrame {
	out := make([]byte, len(f.Pixels))
	for i, v := range f.Pixels {
		out[i] = clampByte(float64(v) + delta)
	}
	return types.RawFrame{Pixels: out, Width: f.Width, Height: f.Height, Channels: f.Channels}
}

// Contrast multiplies every channel by alpha, clamped to [0, 255].
func Contrast(f types.RawFrame, alpha float64) types.RawFrame {
	out := make([]byte, len(f.Pixels))
	for i, v := range f.Pixels {
		out[i] = clampByte(float64(v) * alpha)
	}
	return types.RawFrame{Pixels: out, Width: f.Width, Height: f.Height, Channels: f.Channels}
}

// Greyscale reduces a 3-channel BGR frame to 1 channel via the standard
// luminance weighting. Frames already at 1 channel pass through unchanged.
func Greyscale(f types.RawFrame, _ float64) types.RawFrame {
	if f.Channels == 1 {
		return f
	}
	out := make([]byte, f.Width*f.Height)
	stride := f.Channels
	for px := 0; px < f.Width*f.Height; px++ {
		i := px * stride
		b := float64(f.Pixels[i])
		g := float64(f.Pixels[i+1])
		r := float64(f.Pixels[i+2])
		out[px] = clampByte(0.114*b + 0.587*g + 0.299*r)
	}
	return types.RawFrame{Pixels: out, Width: f.Width, Height: f.Height, Channels: 1}
}

// bgrImage adapts a raw BGR/gray byte buffer to image.Image so it can be
// driven through golang.org/x/image/draw.
type bgrImage struct {
	pixels   []byte
	w, h, ch int
}

func (b *bgrImage) ColorModel() color.Model { return color.RGBAModel }
func (b *bgrImage) Bounds() stdimage.Rectangle {
	return stdimage.Rect(0, 0, b.w, b.h)
}
func (b *bgrImage) At(x, y int) color.Color {
	i := (y*b.w + x) * b.ch
	if b.ch == 1 {
		v := b.pixels[i]
		return color.RGBA{R: v, G: v, B: v, A: 255}
	}
	return color.RGBA{R: b.pixels[i+2], G: b.pixels[i+1], B: b.pixels[i], A: 255}
}

func newBGRImage(f types.RawFrame) *bgrImage {
	return &bgrImage{pixels: f.Pixels, w: f.Width, h: f.Height, ch: f.Channels}
}

// Resize bilinear-scales a frame by the given factor.
func Resize(f types.RawFrame, scale float64) types.RawFrame {
	if scale <= 0 {
		return f
	}
	newW := int(float64(f.Width) * scale)
	newH := int(float64(f.Height) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	src := newBGRImage(f)
	dst := stdimage.NewRGBA(stdimage.Rect(0, 0, newW, newH))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	out := make([]byte, newW*newH*f.Channels)
	for y := 0; y < newH; y++ {
		for x := 0; x < newW; x++ {
			c := dst.RGBAAt(x, y)
			oi := (y*newW + x) * f.Channels
			if f.Channels == 1 {
				out[oi] = clampByte(0.114*float64(c.B) + 0.587*float64(c.G) + 0.299*float64(c.R))
				continue
			}
			out[oi] = c.B
			out[oi+1] = c.G
			out[oi+2] = c.R
		}
	}
	return types.RawFrame{Pixels: out, Width: newW, Height: newH, Channels: f.Channels}
}

// Lowpass applies a Gaussian blur with the kernel size forced odd.
func Lowpass(f types.RawFrame, ksize float64) types.RawFrame {
	k := int(ksize)
	if k < 1 {
		k = 1
	}
	if k%2 == 0 {
		k++
	}
	kernel := gaussianKernel(k)
	radius := k / 2

	out := make([]byte, len(f.Pixels))
	ch := f.Channels
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			for c := 0; c < ch; c++ {
				var sum, weight float64
				for ky := -radius; ky <= radius; ky++ {
					sy := y + ky
					if sy < 0 || sy >= f.Height {
						continue
					}
					for kx := -radius; kx <= radius; kx++ {
						sx := x + kx
						if sx < 0 || sx >= f.Width {
							continue
						}
						w := kernel[ky+radius] * kernel[kx+radius]
						idx := (sy*f.Width+sx)*ch + c
						sum += w * float64(f.Pixels[idx])
						weight += w
					}
				}
				oi := (y*f.Width+x)*ch + c
				if weight > 0 {
					out[oi] = clampByte(math.Round(sum / weight))
				} else {
					out[oi] = f.Pixels[oi]
				}
			}
		}
	}
	return types.RawFrame{Pixels: out, Width: f.Width, Height: f.Height, Channels: ch}
}

func gaussianKernel(k int) []float64 {
	sigma := float64(k) / 6.0
	if sigma <= 0 {
		sigma = 1
	}
	radius := k / 2
	kernel := make([]float64, k)
	for i := -radius; i <= radius; i++ {
		kernel[i+radius] = math.Exp(-float64(i*i) / (2 * sigma * sigma))
	}
	return kernel
}
