package preprocess

import "image"

// mask is a binary ink map, 1 = ink.
type mask struct {
	w, h int
	bits []uint8
}

func newMask(w, h int) mask {
	return mask{w: w, h: h, bits: make([]uint8, w*h)}
}

// span returns the window offsets of a k-wide kernel anchored at its centre.
// erode uses the reflected span so that close and open do not shift strokes.
func span(k int, reflect bool) (lo, hi int) {
	a := k / 2
	lo, hi = -a, k-1-a
	if reflect {
		lo, hi = -hi, -lo
	}
	return lo, hi
}

// dilate grows ink by a k x k square.
func (m mask) dilate(k int) mask { return m.rank(k, false) }

// erode shrinks ink by a k x k square.
func (m mask) erode(k int) mask { return m.rank(k, true) }

// close fills small gaps inside strokes.
func (m mask) close(k int) mask { return m.dilate(k).erode(k) }

// open removes speckles smaller than the kernel.
func (m mask) open(k int) mask { return m.erode(k).dilate(k) }

// rank is a separable max (dilate) or min (erode) filter. Pixels outside the
// image are ignored.
func (m mask) rank(k int, erode bool) mask {
	if k <= 1 {
		return m
	}
	lo, hi := span(k, erode)
	pick := func(acc, v uint8) uint8 {
		if erode {
			return acc & v
		}
		return acc | v
	}
	start := uint8(0)
	if erode {
		start = 1
	}

	tmp := newMask(m.w, m.h)
	for y := 0; y < m.h; y++ {
		row := m.bits[y*m.w : (y+1)*m.w]
		for x := 0; x < m.w; x++ {
			acc := start
			for d := lo; d <= hi; d++ {
				if xx := x + d; xx >= 0 && xx < m.w {
					acc = pick(acc, row[xx])
				}
			}
			tmp.bits[y*m.w+x] = acc
		}
	}
	out := newMask(m.w, m.h)
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			acc := start
			for d := lo; d <= hi; d++ {
				if yy := y + d; yy >= 0 && yy < m.h {
					acc = pick(acc, tmp.bits[yy*m.w+x])
				}
			}
			out.bits[y*m.w+x] = acc
		}
	}
	return out
}

// toGray renders ink as 0 and background as 255.
func (m mask) toGray(b image.Rectangle) *image.Gray {
	g := image.NewGray(b)
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			v := uint8(255)
			if m.bits[y*m.w+x] == 1 {
				v = 0
			}
			g.Pix[y*g.Stride+x] = v
		}
	}
	return g
}

func (m mask) count() int {
	n := 0
	for _, b := range m.bits {
		n += int(b)
	}
	return n
}
