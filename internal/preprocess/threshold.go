package preprocess

import (
	"image"
	"math"
)

// adaptiveThreshold marks a pixel as ink when it is not brighter than the
// Gaussian-weighted mean of its block x block neighbourhood minus c.
func adaptiveThreshold(g *image.Gray, block int, c float64) mask {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	kernel := gaussianKernel(block)
	r := block / 2

	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := g.Pix[y*g.Stride:]
		for x := 0; x < w; x++ {
			var s float64
			for k, kv := range kernel {
				s += kv * float64(row[clamp(x+k-r, 0, w-1)])
			}
			tmp[y*w+x] = s
		}
	}

	m := newMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var mean float64
			for k, kv := range kernel {
				mean += kv * tmp[clamp(y+k-r, 0, h-1)*w+x]
			}
			if float64(g.Pix[y*g.Stride+x]) <= mean-c {
				m.bits[y*w+x] = 1
			}
		}
	}
	return m
}

// gaussianKernel returns a normalized 1-D kernel of the given odd size with
// sigma derived from the size the way common vision libraries do.
func gaussianKernel(size int) []float64 {
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	r := size / 2
	k := make([]float64, size)
	var sum float64
	for i := range k {
		x := float64(i - r)
		k[i] = math.Exp(-x * x / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}
