// Package store implements the abstract store: a finite mapping from
// variable names to intervals, with value semantics. Stores are backed
// by persistent sorted maps, so Set and Join produce new stores without
// copying and iteration order is deterministic.
package store

import (
	"strings"

	"github.com/benbjohnson/immutable"

	"github.com/tia-lang/tia/analysis/lattice"
)

// Store maps variable names to intervals. A variable absent from a
// non-bottom store reads as ⊤. The bottom store is a distinct state
// denoting an unreachable program point; it is the identity of Join and
// maps every variable to ⊥.
type Store struct {
	m   *immutable.SortedMap[string, lattice.Interval]
	bot bool
}

// Bot yields the bottom store.
func Bot() Store {
	return Store{bot: true}
}

// Empty yields the store with no bindings, i.e. every variable at ⊤.
func Empty() Store {
	return Store{m: immutable.NewSortedMap[string, lattice.Interval](nil)}
}

// IsBot checks whether the store denotes an unreachable point.
func (s Store) IsBot() bool {
	return s.bot
}

// Get reads the interval bound to x. Absent variables read as ⊤;
// every variable of the bottom store reads as ⊥.
func (s Store) Get(x string) lattice.Interval {
	if s.bot {
		return lattice.Bot()
	}
	if iv, found := s.m.Get(x); found {
		return iv
	}
	return lattice.Top()
}

// Set binds x to iv in a new store. The bottom store absorbs updates:
// assigning at an unreachable point leaves it unreachable.
func (s Store) Set(x string, iv lattice.Interval) Store {
	if s.bot {
		return s
	}
	return Store{m: s.m.Set(x, iv)}
}

// Join computes the pointwise join over the union of keys. A variable
// present in only one operand keeps its interval unchanged, which
// deliberately keeps variables that are fresh in one branch at their
// known value rather than widening them to ⊤.
func (s Store) Join(o Store) Store {
	if s.bot {
		return o
	}
	if o.bot {
		return s
	}
	res := s.m
	itr := o.m.Iterator()
	for !itr.Done() {
		x, iv, _ := itr.Next()
		if cur, found := s.m.Get(x); found {
			res = res.Set(x, cur.Join(iv))
		} else {
			res = res.Set(x, iv)
		}
	}
	return Store{m: res}
}

// Widen computes the pointwise widening of s (the previous value of an
// ascending chain) by o (the next).
func (s Store) Widen(o Store) Store {
	if s.bot {
		return o
	}
	if o.bot {
		return s
	}
	res := s.m
	itr := o.m.Iterator()
	for !itr.Done() {
		x, iv, _ := itr.Next()
		res = res.Set(x, s.Get(x).Widen(iv))
	}
	return Store{m: res}
}

// Eq checks pointwise equality over the union of keys, treating absent
// variables as ⊤.
func (s Store) Eq(o Store) bool {
	if s.bot || o.bot {
		return s.bot == o.bot
	}
	itr := s.m.Iterator()
	for !itr.Done() {
		x, iv, _ := itr.Next()
		if !iv.Eq(o.Get(x)) {
			return false
		}
	}
	itr = o.m.Iterator()
	for !itr.Done() {
		x, iv, _ := itr.Next()
		if !iv.Eq(s.Get(x)) {
			return false
		}
	}
	return true
}

// Vars returns the bound variable names in sorted order.
func (s Store) Vars() []string {
	if s.bot {
		return nil
	}
	vars := make([]string, 0, s.m.Len())
	itr := s.m.Iterator()
	for !itr.Done() {
		x, _, _ := itr.Next()
		vars = append(vars, x)
	}
	return vars
}

func (s Store) String() string {
	if s.bot {
		return "⊥"
	}
	var parts []string
	itr := s.m.Iterator()
	for !itr.Done() {
		x, iv, _ := itr.Next()
		parts = append(parts, x+" = "+iv.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
