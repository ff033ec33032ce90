package lattice

import "math"

// Abstract counterparts of the integer operators. All operations
// propagate ⊥ and are sound over-approximations of their concrete
// counterparts: for all v1 ∈ γ(e1), v2 ∈ γ(e2), v1 op v2 ∈ γ(e1 op e2).
//
// Bound computations that leave the signed 64-bit range saturate to the
// respective extremum. The `sat` result reports whether any bound was
// clamped; a clamped bound lies outside the representable range, so the
// saturated interval still covers every representable concrete result.

// Neg computes -e = [-hi, -lo].
func (e Interval) Neg() (Interval, bool) {
	if e.empty {
		return bot, false
	}
	lo, s1 := satNeg(e.hi)
	hi, s2 := satNeg(e.lo)
	return Interval{lo: lo, hi: hi}, s1 || s2
}

// Add computes e1 + e2 = [lo1+lo2, hi1+hi2].
func (e1 Interval) Add(e2 Interval) (Interval, bool) {
	if e1.empty || e2.empty {
		return bot, false
	}
	lo, s1 := satAdd(e1.lo, e2.lo)
	hi, s2 := satAdd(e1.hi, e2.hi)
	return Interval{lo: lo, hi: hi}, s1 || s2
}

// Sub computes e1 - e2 = [lo1-hi2, hi1-lo2].
func (e1 Interval) Sub(e2 Interval) (Interval, bool) {
	if e1.empty || e2.empty {
		return bot, false
	}
	lo, s1 := satSub(e1.lo, e2.hi)
	hi, s2 := satSub(e1.hi, e2.lo)
	return Interval{lo: lo, hi: hi}, s1 || s2
}

// Mul computes e1 * e2 as the hull of the four corner products.
func (e1 Interval) Mul(e2 Interval) (Interval, bool) {
	if e1.empty || e2.empty {
		return bot, false
	}
	lo, hi, sat := corners(e1, e2, satMul)
	return Interval{lo: lo, hi: hi}, sat
}

// Div computes e1 / e2 with truncation toward zero. A divisor interval
// containing zero cannot be divided; the result is then [-∞, ∞] and
// maybeZero reports the condition so the caller can warn. Otherwise the
// result is the hull of the four corner quotients.
func (e1 Interval) Div(e2 Interval) (res Interval, maybeZero bool) {
	if e1.empty || e2.empty {
		return bot, false
	}
	if e2.Contains(0) {
		return top, true
	}
	// The only overflowing quotient is MinInt64 / -1; satDiv clamps it.
	lo, hi, _ := corners(e1, e2, satDiv)
	return Interval{lo: lo, hi: hi}, false
}

// corners applies op to the four bound pairs and returns the hull.
func corners(e1, e2 Interval, op func(a, b int64) (int64, bool)) (lo, hi int64, sat bool) {
	a, s1 := op(e1.lo, e2.lo)
	b, s2 := op(e1.lo, e2.hi)
	c, s3 := op(e1.hi, e2.lo)
	d, s4 := op(e1.hi, e2.hi)
	lo = min64(min64(a, b), min64(c, d))
	hi = max64(max64(a, b), max64(c, d))
	return lo, hi, s1 || s2 || s3 || s4
}

func satNeg(a int64) (int64, bool) {
	if a == math.MinInt64 {
		return math.MaxInt64, true
	}
	return -a, false
}

func satAdd(a, b int64) (int64, bool) {
	switch {
	case b > 0 && a > math.MaxInt64-b:
		return math.MaxInt64, true
	case b < 0 && a < math.MinInt64-b:
		return math.MinInt64, true
	}
	return a + b, false
}

func satSub(a, b int64) (int64, bool) {
	switch {
	case b < 0 && a > math.MaxInt64+b:
		return math.MaxInt64, true
	case b > 0 && a < math.MinInt64+b:
		return math.MinInt64, true
	}
	return a - b, false
}

func satMul(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, false
	}
	c := a * b
	// Signed multiplication overflow check by reversal; MinInt64 / -1
	// wraps in Go, so guard that pair explicitly.
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) || c/b != a {
		if (a > 0) == (b > 0) {
			return math.MaxInt64, true
		}
		return math.MinInt64, true
	}
	return c, false
}

func satDiv(a, b int64) (int64, bool) {
	if b == 0 {
		panic("division corner with zero divisor: " + errInternal.Error())
	}
	if a == math.MinInt64 && b == -1 {
		return math.MaxInt64, true
	}
	return a / b, false
}
