package lattice

import (
	"fmt"
	"math"
	"strconv"
)

// Interval is a member of the interval lattice over signed 64-bit
// integers. A non-empty interval [lo, hi] abstracts the set of integers
// between its bounds, inclusive. The empty interval is the bottom element
// and is tracked with an explicit flag rather than by bound inversion, so
// that meet can produce it safely and join can absorb it.
type Interval struct {
	lo, hi int64
	empty  bool
}

var (
	top = Interval{lo: math.MinInt64, hi: math.MaxInt64}
	bot = Interval{empty: true}
)

// Top yields [-∞, ∞], the full signed 64-bit range.
func Top() Interval {
	return top
}

// Bot yields ⊥, the empty interval.
func Bot() Interval {
	return bot
}

// Finite creates the interval [lo, hi]. The bounds must be ordered.
func Finite(lo, hi int64) Interval {
	if lo > hi {
		panic(fmt.Sprintf("invalid interval [%d, %d]: %v", lo, hi, errInternal))
	}
	return Interval{lo: lo, hi: hi}
}

// Singleton creates the one-point interval [v, v].
func Singleton(v int64) Interval {
	return Interval{lo: v, hi: v}
}

// mk normalizes a candidate interval: inverted bounds collapse to ⊥.
func mk(lo, hi int64) Interval {
	if lo > hi {
		return bot
	}
	return Interval{lo: lo, hi: hi}
}

// IsBot checks whether the interval is ⊥.
func (e Interval) IsBot() bool {
	return e.empty
}

// IsTop checks whether the interval is [-∞, ∞].
func (e Interval) IsTop() bool {
	return !e.empty && e.lo == math.MinInt64 && e.hi == math.MaxInt64
}

// Lo returns the lower bound. Panics on ⊥.
func (e Interval) Lo() int64 {
	if e.empty {
		panic("Lo of ⊥: " + errInternal.Error())
	}
	return e.lo
}

// Hi returns the upper bound. Panics on ⊥.
func (e Interval) Hi() int64 {
	if e.empty {
		panic("Hi of ⊥: " + errInternal.Error())
	}
	return e.hi
}

// Contains checks v ∈ [lo, hi], inclusive on both bounds.
func (e Interval) Contains(v int64) bool {
	return !e.empty && e.lo <= v && v <= e.hi
}

// Eq computes e1 = e2. Equality is structural; any two empty intervals
// are equal regardless of bound storage.
func (e1 Interval) Eq(e2 Interval) bool {
	if e1.empty || e2.empty {
		return e1.empty == e2.empty
	}
	return e1.lo == e2.lo && e1.hi == e2.hi
}

// Leq computes e1 ⊑ e2, i.e. inclusion of concretizations.
func (e1 Interval) Leq(e2 Interval) bool {
	if e1.empty {
		return true
	}
	if e2.empty {
		return false
	}
	return e2.lo <= e1.lo && e1.hi <= e2.hi
}

// Geq computes e1 ⊒ e2.
func (e1 Interval) Geq(e2 Interval) bool {
	return e2.Leq(e1)
}

// Join computes e1 ⊔ e2. The resulting interval takes the lowest of the
// lower bounds and the highest of the upper bounds; ⊥ is absorbed.
func (e1 Interval) Join(e2 Interval) Interval {
	if e1.empty {
		return e2
	}
	if e2.empty {
		return e1
	}
	return Interval{lo: min64(e1.lo, e2.lo), hi: max64(e1.hi, e2.hi)}
}

// Meet computes e1 ⊓ e2. Disjoint operands yield ⊥.
func (e1 Interval) Meet(e2 Interval) Interval {
	if e1.empty || e2.empty {
		return bot
	}
	return mk(max64(e1.lo, e2.lo), min64(e1.hi, e2.hi))
}

// Widen computes e1 ∇ e2, where e1 is the previous value of an ascending
// chain and e2 the next. An unstable lower bound drops to the minimum,
// an unstable upper bound rises to the maximum, and stable bounds are
// kept, so any chain stabilizes after at most one widening per bound.
func (e1 Interval) Widen(e2 Interval) Interval {
	if e1.empty {
		return e2
	}
	if e2.empty {
		return e1
	}
	lo, hi := e1.lo, e1.hi
	if e2.lo < e1.lo {
		lo = math.MinInt64
	}
	if e2.hi > e1.hi {
		hi = math.MaxInt64
	}
	return Interval{lo: lo, hi: hi}
}

func (e Interval) String() string {
	if e.empty {
		return colorize.Element("⊥")
	}
	return "[" + boundString(e.lo) + ", " + boundString(e.hi) + "]"
}

// boundString renders saturated bounds as infinities.
func boundString(b int64) string {
	switch b {
	case math.MinInt64:
		return colorize.Element("-∞")
	case math.MaxInt64:
		return colorize.Element("∞")
	}
	return colorize.Element(strconv.FormatInt(b, 10))
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
