package preprocess

import (
	"fmt"
	"image"
	"math"
	"sort"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// inkLevel: gray values below it count as foreground when estimating skew.
const inkLevel = 128

// Deskew rotates img so the minimum-area rectangle around its ink is axis
// aligned. Angles within the deadband return img itself, untouched.
func (p *Preprocessor) Deskew(img image.Image) (out image.Image) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("deskew failed, using original image", "error", fmt.Sprint(r))
			out = img
		}
	}()
	angle, ok := p.EstimateSkew(img)
	if !ok || math.Abs(angle) <= p.cfg.DeskewDeadband {
		return img
	}
	p.logger.Debug("deskewing page", "angle_deg", angle)
	return rotate(toGray(img), angle)
}

// EstimateSkew returns the text angle in degrees, normalized into [-45, 45).
// Positive means lines descend to the right. ok is false when there is not
// enough ink to tell.
func (p *Preprocessor) EstimateSkew(img image.Image) (angle float64, ok bool) {
	if img == nil || img.Bounds().Empty() {
		return 0, false
	}
	hull := convexHull(rowExtremes(toGray(img)))
	if len(hull) < 3 {
		return 0, false
	}
	return normalizeAngle(minAreaRectAngle(hull)), true
}

type point struct{ x, y int64 }

// rowExtremes keeps the leftmost and rightmost ink pixel of each row; the
// convex hull of those equals the hull of all ink.
func rowExtremes(g *image.Gray) []point {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	var pts []point
	for y := 0; y < h; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+w]
		left, right := -1, -1
		for x, v := range row {
			if v < inkLevel {
				if left < 0 {
					left = x
				}
				right = x
			}
		}
		if left < 0 {
			continue
		}
		pts = append(pts, point{int64(left), int64(y)})
		if right != left {
			pts = append(pts, point{int64(right), int64(y)})
		}
	}
	return pts
}

func cross(o, a, b point) int64 {
	return (a.x-o.x)*(b.y-o.y) - (a.y-o.y)*(b.x-o.x)
}

// convexHull is Andrew's monotone chain; collinear points are dropped.
func convexHull(pts []point) []point {
	if len(pts) < 3 {
		return pts
	}
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].x != pts[j].x {
			return pts[i].x < pts[j].x
		}
		return pts[i].y < pts[j].y
	})
	hull := make([]point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// minAreaRectAngle returns the direction, in degrees, of the hull edge that
// bounds the smallest enclosing rectangle (rotating calipers).
func minAreaRectAngle(hull []point) float64 {
	best, bestAngle := math.Inf(1), 0.0
	n := len(hull)
	for i := 0; i < n; i++ {
		a, b := hull[i], hull[(i+1)%n]
		dx, dy := float64(b.x-a.x), float64(b.y-a.y)
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		ux, uy := dx/l, dy/l
		minU, maxU := math.Inf(1), math.Inf(-1)
		minV, maxV := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			px, py := float64(p.x), float64(p.y)
			u := px*ux + py*uy
			v := -px*uy + py*ux
			minU, maxU = math.Min(minU, u), math.Max(maxU, u)
			minV, maxV = math.Min(minV, v), math.Max(maxV, v)
		}
		if area := (maxU - minU) * (maxV - minV); area < best {
			best = area
			bestAngle = math.Atan2(dy, dx) * 180 / math.Pi
		}
	}
	return bestAngle
}

// normalizeAngle folds a rectangle edge direction into [-45, 45).
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 90)
	if a >= 45 {
		a -= 90
	} else if a < -45 {
		a += 90
	}
	return a
}

// rotate turns g by -angle degrees about its centre with Catmull-Rom
// sampling, replicating edge pixels into the uncovered corners.
func rotate(g *image.Gray, angle float64) *image.Gray {
	b := g.Bounds()
	rad := angle * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	cx := float64(b.Min.X) + float64(b.Dx())/2
	cy := float64(b.Min.Y) + float64(b.Dy())/2

	// source -> destination: p = c + R(-angle)(s - c)
	s2d := f64.Aff3{
		cos, sin, cx - cos*cx - sin*cy,
		-sin, cos, cy + sin*cx - cos*cy,
	}
	// destination corners sample at most this far outside the page
	pad := int(math.Ceil(float64(b.Dx()+b.Dy())/2*(math.Abs(sin)+1-cos))) + 4
	src := padReplicate(g, pad)

	dst := image.NewGray(b)
	draw.CatmullRom.Transform(dst, s2d, src, src.Bounds(), draw.Src, nil)
	return dst
}

// padReplicate returns g grown by pad pixels on every side, in the same
// coordinate space, with the border pixels repeated outward.
func padReplicate(g *image.Gray, pad int) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b.Inset(-pad))
	ob := out.Bounds()
	for y := ob.Min.Y; y < ob.Max.Y; y++ {
		sy := clamp(y, b.Min.Y, b.Max.Y-1)
		srcRow := g.Pix[g.PixOffset(b.Min.X, sy):g.PixOffset(b.Min.X, sy)+b.Dx()]
		dstRow := out.Pix[out.PixOffset(ob.Min.X, y):out.PixOffset(ob.Min.X, y)+ob.Dx()]
		left, right := srcRow[0], srcRow[len(srcRow)-1]
		for x := 0; x < pad; x++ {
			dstRow[x] = left
			dstRow[pad+b.Dx()+x] = right
		}
		copy(dstRow[pad:pad+b.Dx()], srcRow)
	}
	return out
}
