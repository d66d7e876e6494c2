package preprocess

import (
	"image"
	"math"
)

// clahe applies contrast-limited adaptive histogram equalization on a
// grid x grid layout of tiles, interpolating bilinearly between tile centres.
func clahe(g *image.Gray, clipLimit float64, grid int) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	tx, ty := min(grid, w), min(grid, h)
	xs := tileEdges(w, tx)
	ys := tileEdges(h, ty)

	luts := make([][256]uint8, tx*ty)
	for j := 0; j < ty; j++ {
		for i := 0; i < tx; i++ {
			luts[j*tx+i] = tileLUT(g, xs[i], xs[i+1], ys[j], ys[j+1], clipLimit)
		}
	}

	cols := interpAxis(xs)
	rows := interpAxis(ys)
	out := image.NewGray(b)
	for y := 0; y < h; y++ {
		ry := rows[y]
		src := g.Pix[y*g.Stride : y*g.Stride+w]
		dst := out.Pix[y*out.Stride : y*out.Stride+w]
		for x, v := range src {
			cx := cols[x]
			top := (1-cx.w)*float64(luts[ry.lo*tx+cx.lo][v]) + cx.w*float64(luts[ry.lo*tx+cx.hi][v])
			bot := (1-cx.w)*float64(luts[ry.hi*tx+cx.lo][v]) + cx.w*float64(luts[ry.hi*tx+cx.hi][v])
			dst[x] = clampByte((1-ry.w)*top + ry.w*bot)
		}
	}
	return out
}

// tileEdges splits n pixels into k non-empty tiles; tile i is [e[i], e[i+1]).
func tileEdges(n, k int) []int {
	e := make([]int, k+1)
	for i := 0; i <= k; i++ {
		e[i] = i * n / k
	}
	return e
}

func tileLUT(g *image.Gray, x0, x1, y0, y1 int, clipLimit float64) [256]uint8 {
	var hist [256]int
	for y := y0; y < y1; y++ {
		for _, v := range g.Pix[y*g.Stride+x0 : y*g.Stride+x1] {
			hist[v]++
		}
	}
	area := (x1 - x0) * (y1 - y0)

	limit := max(1, int(clipLimit*float64(area)/256))
	excess := 0
	for i := range hist {
		if hist[i] > limit {
			excess += hist[i] - limit
			hist[i] = limit
		}
	}
	batch, residual := excess/256, excess%256
	for i := range hist {
		hist[i] += batch
	}
	if residual > 0 {
		step := max(1, 256/residual)
		for i := 0; i < 256 && residual > 0; i += step {
			hist[i]++
			residual--
		}
	}

	var lut [256]uint8
	scale := 255.0 / float64(area)
	sum := 0
	for i := range hist {
		sum += hist[i]
		lut[i] = uint8(math.Min(255, math.Round(float64(sum)*scale)))
	}
	return lut
}

type axisWeight struct {
	lo, hi int
	w      float64
}

// interpAxis gives, per pixel, the two neighbouring tile indices along one
// axis and the weight of the higher one.
func interpAxis(edges []int) []axisWeight {
	k := len(edges) - 1
	n := edges[k]
	centers := make([]float64, k)
	for i := 0; i < k; i++ {
		centers[i] = float64(edges[i]+edges[i+1]-1) / 2
	}
	out := make([]axisWeight, n)
	t := 0
	for p := 0; p < n; p++ {
		fp := float64(p)
		for t+1 < k && centers[t+1] <= fp {
			t++
		}
		switch {
		case fp <= centers[0]:
			out[p] = axisWeight{lo: 0, hi: 0}
		case t+1 >= k:
			out[p] = axisWeight{lo: k - 1, hi: k - 1}
		default:
			out[p] = axisWeight{lo: t, hi: t + 1, w: (fp - centers[t]) / (centers[t+1] - centers[t])}
		}
	}
	return out
}
