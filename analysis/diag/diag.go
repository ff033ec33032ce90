// Package diag collects analysis warnings and assertion outcomes.
// The engine threads a Sink through transfer evaluation instead of
// printing, so it can be used as a library; rendering happens once,
// after the fixpoint is reached.
package diag

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"github.com/tia-lang/tia/analysis/store"
	"github.com/tia-lang/tia/lang/ast"
	"github.com/tia-lang/tia/utils"
)

var colorize = struct {
	Warning func(...interface{}) string
	Proved  func(...interface{}) string
	MayFail func(...interface{}) string
	Pos     func(...interface{}) string
}{
	Warning: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgYellow).SprintFunc())(is...)
	},
	Proved: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgGreen).SprintFunc())(is...)
	},
	MayFail: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgHiRed).SprintFunc())(is...)
	},
	Pos: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgHiWhite).SprintFunc())(is...)
	},
}

// Category classifies analysis warnings.
type Category int

const (
	Overflow Category = iota
	DivisionByZero
)

func (c Category) String() string {
	switch c {
	case Overflow:
		return "overflow"
	case DivisionByZero:
		return "division-by-zero"
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Warning is a non-fatal report about the analyzed program: the
// operation at Pos may overflow or divide by zero. Store snapshots the
// abstract state in which the operation was last evaluated.
type Warning struct {
	Pos      ast.Pos
	Category Category
	Store    store.Store
}

// Outcome is the verdict for one assertion.
type Outcome struct {
	Pos    ast.Pos
	Cond   string
	Proved bool
	Store  store.Store
}

type warnKey struct {
	pos ast.Pos
	cat Category
}

// Sink accumulates warnings and outcomes. Chaotic iteration evaluates
// the same operation many times, so warnings deduplicate on (position,
// category); the snapshot of a re-reported warning is replaced, which
// leaves the fixpoint store in place once the solver converges. This
// also makes reports independent of the iteration strategy.
type Sink struct {
	disabled  map[Category]bool
	warnings  []Warning
	index     map[warnKey]int
	outcomes  []Outcome
	anyFailed bool
}

func NewSink(disabled ...Category) *Sink {
	s := &Sink{
		disabled: make(map[Category]bool),
		index:    make(map[warnKey]int),
	}
	for _, c := range disabled {
		s.disabled[c] = true
	}
	return s
}

// Warn records a warning of the given category at pos, evaluated in σ.
func (s *Sink) Warn(pos ast.Pos, cat Category, σ store.Store) {
	if s.disabled[cat] {
		return
	}
	key := warnKey{pos, cat}
	if i, seen := s.index[key]; seen {
		s.warnings[i].Store = σ
		return
	}
	s.index[key] = len(s.warnings)
	s.warnings = append(s.warnings, Warning{Pos: pos, Category: cat, Store: σ})
}

// Proved records a successfully discharged assertion.
func (s *Sink) Proved(pos ast.Pos, cond string) {
	s.outcomes = append(s.outcomes, Outcome{Pos: pos, Cond: cond, Proved: true})
}

// MayFail records an assertion the analysis could not discharge,
// together with the abstract state at the assertion point.
func (s *Sink) MayFail(pos ast.Pos, cond string, σ store.Store) {
	s.outcomes = append(s.outcomes, Outcome{Pos: pos, Cond: cond, Store: σ})
	s.anyFailed = true
}

// Warnings returns the collected warnings ordered by position.
func (s *Sink) Warnings() []Warning {
	ws := make([]Warning, len(s.warnings))
	copy(ws, s.warnings)
	sort.Slice(ws, func(i, j int) bool {
		if ws[i].Pos.Line != ws[j].Pos.Line {
			return ws[i].Pos.Line < ws[j].Pos.Line
		}
		if ws[i].Pos.Col != ws[j].Pos.Col {
			return ws[i].Pos.Col < ws[j].Pos.Col
		}
		return ws[i].Category < ws[j].Category
	})
	return ws
}

// Outcomes returns assertion outcomes in the order they were checked.
func (s *Sink) Outcomes() []Outcome {
	return s.outcomes
}

// Failed reports whether any assertion may fail.
func (s *Sink) Failed() bool {
	return s.anyFailed
}

// Render writes the line-oriented report: warnings ordered by position,
// then assertion outcomes in program order. Warnings and failed
// assertions are followed by a store dump, one `x = [lo, hi]` line per
// variable.
func (s *Sink) Render(w io.Writer) {
	for _, warn := range s.Warnings() {
		fmt.Fprintf(w, "%s: %s\n",
			colorize.Pos(warn.Pos),
			colorize.Warning("warning: "+warn.Category.String()))
		dumpStore(w, warn.Store)
	}
	for _, out := range s.outcomes {
		if out.Proved {
			fmt.Fprintf(w, "%s: %s: %s\n",
				colorize.Pos(out.Pos), colorize.Proved("assertion proved"), out.Cond)
			continue
		}
		fmt.Fprintf(w, "%s: %s: %s\n",
			colorize.Pos(out.Pos), colorize.MayFail("assertion may fail"), out.Cond)
		dumpStore(w, out.Store)
	}
}

func dumpStore(w io.Writer, σ store.Store) {
	for _, x := range σ.Vars() {
		fmt.Fprintf(w, "  %s = %s\n", x, σ.Get(x))
	}
}
