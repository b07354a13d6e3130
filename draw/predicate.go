/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package draw

// Predicate decides whether a may occupy slot 0 and b slot 1 of the same
// matchup, given the matchups completed before it. A false verdict is a hard
// constraint. Implementations must be deterministic; any dependence on
// matchups must be on the set of earlier matchups and not their order, and
// an additional earlier matchup may turn a legal pair illegal but never the
// reverse.
//
// A non-nil error is returned to the caller of Pick/PossiblePairings as is.
type Predicate interface {
	Legal(a, b Team, matchups []Matchup) (bool, error)
}

// HistoryFree is implemented by predicates whose verdict never depends on
// the matchups argument. The feasibility checker uses a bipartite matching
// for these instead of a search over draw orders.
type HistoryFree interface {
	HistoryFree() bool
}

// PredicateFunc adapts a function to a history-aware Predicate.
type PredicateFunc func(a, b Team, matchups []Matchup) (bool, error)

func (f PredicateFunc) Legal(a, b Team, matchups []Matchup) (bool, error) {
	return f(a, b, matchups)
}

type staticPredicate func(a, b Team) (bool, error)

func (f staticPredicate) Legal(a, b Team, _ []Matchup) (bool, error) {
	return f(a, b)
}

func (f staticPredicate) HistoryFree() bool { return true }

// Static adapts a pairwise rule that ignores draw history.
func Static(fn func(a, b Team) (bool, error)) Predicate {
	return staticPredicate(fn)
}

type allPredicate []Predicate

// All returns the conjunction of preds, evaluated in order and stopping at
// the first false verdict or error. It is history-free iff every member is.
func All(preds ...Predicate) Predicate {
	return allPredicate(append([]Predicate(nil), preds...))
}

func (all allPredicate) Legal(a, b Team, matchups []Matchup) (bool, error) {
	for _, p := range all {
		ok, err := p.Legal(a, b, matchups)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (all allPredicate) HistoryFree() bool {
	for _, p := range all {
		if !isHistoryFree(p) {
			return false
		}
	}
	return true
}

func isHistoryFree(p Predicate) bool {
	hf, ok := p.(HistoryFree)
	return ok && hf.HistoryFree()
}
