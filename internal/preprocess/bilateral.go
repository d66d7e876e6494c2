package preprocess

import (
	"image"
	"math"
)

// bilateral smooths flat regions while keeping glyph edges. The window is a
// disc of diameter d; borders replicate the edge pixels.
func bilateral(g *image.Gray, d int, sigmaColor, sigmaSpace float64) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	r := max(1, d/2)

	type tap struct {
		dx, dy int
		w      float64
	}
	var taps []tap
	spaceCoeff := -0.5 / (sigmaSpace * sigmaSpace)
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			dist2 := float64(dx*dx + dy*dy)
			if dist2 > float64(r*r) {
				continue
			}
			taps = append(taps, tap{dx, dy, math.Exp(dist2 * spaceCoeff)})
		}
	}

	var colorW [256]float64
	colorCoeff := -0.5 / (sigmaColor * sigmaColor)
	for i := range colorW {
		colorW[i] = math.Exp(float64(i*i) * colorCoeff)
	}

	out := image.NewGray(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := int(g.Pix[y*g.Stride+x])
			var sum, norm float64
			for _, t := range taps {
				xx := clamp(x+t.dx, 0, w-1)
				yy := clamp(y+t.dy, 0, h-1)
				v := int(g.Pix[yy*g.Stride+xx])
				diff := v - c
				if diff < 0 {
					diff = -diff
				}
				wt := t.w * colorW[diff]
				sum += wt * float64(v)
				norm += wt
			}
			out.Pix[y*out.Stride+x] = clampByte(sum / norm)
		}
	}
	return out
}
