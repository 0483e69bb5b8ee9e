package seglabel

import "math"

// far exceeds any squared pixel distance of a real raster; kept finite so the
// parabola intersections below stay well defined on boundary-free lines.
const far = 1e20

// CarveUnknownBorder overwrites every pixel closer than half of borderPx to a
// class boundary with ignore, and returns the number of carved pixels. The
// half width centers the unknown band on the boundary so that it extends the
// configured width symmetrically into both adjoining classes. labels is a
// row-major (h, w) array and is modified in place.
func CarveUnknownBorder(labels []uint8, w, h int, borderPx float64, ignore uint8) int {
	if borderPx <= 0 || w == 0 || h == 0 {
		return 0
	}
	mask := boundaryMask(labels, w, h, ignore)
	dist := distanceToBoundary(mask, w, h)
	half := borderPx / 2
	carved := 0
	for i, d := range dist {
		if d < half && labels[i] != ignore {
			labels[i] = ignore
			carved++
		}
	}
	return carved
}

// boundaryMask marks pixels whose class differs from any 4-connected neighbor.
// The grid edge is treated as replicated, so border-of-image pixels are only
// boundaries towards their in-grid neighbors. Transitions into ignore-valued
// pixels do not count as boundaries: an already-carved band must not seed new
// carving, so a second pass over carved output is a no-op.
func boundaryMask(labels []uint8, w, h int, ignore uint8) []bool {
	mask := make([]bool, len(labels))
	differs := func(a, b uint8) bool {
		return a != b && a != ignore && b != ignore
	}
	for y := 0; y < h; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			i := row + x
			v := labels[i]
			if (x > 0 && differs(labels[i-1], v)) ||
				(x < w-1 && differs(labels[i+1], v)) ||
				(y > 0 && differs(labels[i-w], v)) ||
				(y < h-1 && differs(labels[i+w], v)) {
				mask[i] = true
			}
		}
	}
	return mask
}

// distanceToBoundary is an exact Euclidean distance transform: per pixel, the
// distance in pixel units to the nearest masked pixel. Two-pass 1D squared
// parabola method (Felzenszwalb/Huttenlocher), columns then rows.
func distanceToBoundary(mask []bool, w, h int) []float64 {
	sq := make([]float64, len(mask))
	for i, m := range mask {
		if m {
			sq[i] = 0
		} else {
			sq[i] = far
		}
	}
	n := w
	if h > n {
		n = h
	}
	var (
		f = make([]float64, n)
		d = make([]float64, n)
		v = make([]int, n)
		z = make([]float64, n+1)
	)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			f[y] = sq[y*w+x]
		}
		edt1d(f, d, v, z, h)
		for y := 0; y < h; y++ {
			sq[y*w+x] = d[y]
		}
	}
	for y := 0; y < h; y++ {
		row := y * w
		copy(f, sq[row:row+w])
		edt1d(f, d, v, z, w)
		for x := 0; x < w; x++ {
			sq[row+x] = math.Sqrt(d[x])
		}
	}
	return sq
}

// edt1d computes the 1D squared distance transform of the sampled function f
// into d, using v and z as scratch space for the parabola envelope.
func edt1d(f, d []float64, v []int, z []float64, n int) {
	k := 0
	v[0] = 0
	z[0] = -far
	z[1] = far
	for q := 1; q < n; q++ {
		s := intersect(f, v[k], q)
		for s <= z[k] {
			k--
			s = intersect(f, v[k], q)
		}
		k++
		v[k] = q
		z[k] = s
		z[k+1] = far
	}
	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		dx := float64(q - v[k])
		d[q] = dx*dx + f[v[k]]
	}
}

// intersect returns the abscissa where the parabolas rooted at p and q cross.
func intersect(f []float64, p, q int) float64 {
	return (f[q] + float64(q*q) - f[p] - float64(p*p)) / float64(2*(q-p))
}
