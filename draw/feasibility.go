/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package draw

import (
	"fmt"
	"sort"
)

const maxPotSize = 64

// PossiblePairings returns the ascending positions in pots[1] which may be
// drawn into slot 1 of the active matchup (the one whose slot 0 alone is
// filled) such that the remaining teams of pots[0] and pots[1] can still be
// paired off legally. pots and matchups are not modified.
func PossiblePairings(pots [2][]Team, matchups []Matchup,
	pred Predicate) ([]int, error) {

	active := -1
	var history []Matchup
	for idx, m := range matchups {
		if m.Complete() {
			history = append(history, m)
		} else if m.Len() == 1 && active < 0 {
			active = idx
		}
	}
	if active < 0 {
		return nil, invalidTransition(AwaitingFirstOfPair, -1,
			"no matchup is awaiting its second team")
	}
	out, in := pots[0], pots[1]
	if len(in) != len(out)+1 {
		return nil, fmt.Errorf("%w: %d outgoing vs %d incoming while pairing",
			ErrUnbalancedPots, len(out), len(in))
	}
	if len(in) > maxPotSize {
		return nil, ErrPotTooLarge
	}
	host := matchups[active].Teams[0]

	if isHistoryFree(pred) {
		return matchingCandidates(host, out, in, history, pred)
	}
	return searchCandidates(host, out, in, history, pred)
}

// Feasible reports whether first and second can be paired off completely
// under pred, i.e. whether a draw started from these pots can be completed.
func Feasible(first, second []Team, pred Predicate) (bool, error) {
	if len(first) != len(second) {
		return false, fmt.Errorf("%w: %d vs %d", ErrUnbalancedPots,
			len(first), len(second))
	}
	if len(first) > maxPotSize {
		return false, ErrPotTooLarge
	}

	if !isHistoryFree(pred) {
		s := &search{
			pred:   pred,
			out:    first,
			in:     second,
			failed: make(map[string]struct{}),
		}
		return s.completable(fullMask(len(first)), fullMask(len(second)), nil,
			nil)
	}

	compat := make([][]bool, len(first))
	for u := range first {
		compat[u] = make([]bool, len(second))
		for v := range second {
			ok, err := pred.Legal(first[u], second[v], nil)
			if err != nil {
				return false, err
			}
			compat[u][v] = ok
		}
	}
	return hasPerfectMatching(compat, len(second), -1), nil
}

// matchingCandidates evaluates the predicate once per pair and then asks,
// per candidate, whether the compatibility graph minus that candidate has a
// perfect matching.
func matchingCandidates(host Team, out, in []Team, history []Matchup,
	pred Predicate) ([]int, error) {

	compat := make([][]bool, len(out))
	for u := range out {
		compat[u] = make([]bool, len(in))
		for v := range in {
			ok, err := pred.Legal(out[u], in[v], history)
			if err != nil {
				return nil, err
			}
			compat[u][v] = ok
		}
	}

	candidates := make([]int, 0, len(in))
	for c := range in {
		ok, err := pred.Legal(host, in[c], history)
		if err != nil {
			return nil, err
		}
		if ok && hasPerfectMatching(compat, len(in), c) {
			candidates = append(candidates, c)
		}
	}

	return candidates, nil
}

func searchCandidates(host Team, out, in []Team, history []Matchup,
	pred Predicate) ([]int, error) {

	candidates := make([]int, 0, len(in))
	for c := range in {
		ok, err := pred.Legal(host, in[c], history)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		s := &search{
			pred:   pred,
			out:    out,
			in:     in,
			failed: make(map[string]struct{}),
		}
		fixed := appendMatchup(history, Matchup{Teams: []Team{host, in[c]}})
		ok, err = s.completable(fullMask(len(out)), fullMask(len(in))&^bit(c),
			fixed, nil)
		if err != nil {
			return nil, err
		}
		if ok {
			candidates = append(candidates, c)
		}
	}

	return candidates, nil
}

type placement struct{ out, in int }

// search is an exhaustive search over the remaining draw for history-aware
// predicates. Any remaining outgoing team may be drawn next, so every order
// is explored; failed states are memoized by the set of placed pairs, which
// fully determines both the remaining teams and the history seen by the
// predicate.
//
// Every node first asks whether its legal-pair graph still has a perfect
// matching. A longer history only removes edges, so a node without one can
// never be completed and is cut before branching.
type search struct {
	pred   Predicate
	out    []Team
	in     []Team
	failed map[string]struct{}
}

// pairGraph is the legal-pair graph over the teams still in the pots under
// one history. compat[i][j] relates outs[i] and ins[j].
type pairGraph struct {
	outs   []int
	ins    []int
	compat [][]bool
	degree []int
}

func (s *search) completable(outMask, inMask uint64, history []Matchup,
	placed []placement) (bool, error) {

	if outMask == 0 {
		return true, nil
	}
	key := placementKey(placed)
	if _, ok := s.failed[key]; ok {
		return false, nil
	}

	g, err := s.graph(outMask, inMask, history)
	if err != nil {
		return false, err
	}
	if !hasPerfectMatching(g.compat, len(g.ins), -1) {
		s.failed[key] = struct{}{}
		return false, nil
	}

	// most constrained outgoing team first
	order := make([]int, len(g.outs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return g.degree[order[i]] < g.degree[order[j]]
	})

	for _, i := range order {
		u := g.outs[i]
		for j, legal := range g.compat[i] {
			if !legal {
				continue
			}
			v := g.ins[j]
			next := appendMatchup(history,
				Matchup{Teams: []Team{s.out[u], s.in[v]}})
			ok, err := s.completable(outMask&^bit(u), inMask&^bit(v), next,
				append(placed[:len(placed):len(placed)], placement{u, v}))
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
	}

	s.failed[key] = struct{}{}
	return false, nil
}

// graph evaluates the predicate once for every remaining pair.
func (s *search) graph(outMask, inMask uint64,
	history []Matchup) (*pairGraph, error) {

	g := &pairGraph{}
	for v := range s.in {
		if inMask&bit(v) != 0 {
			g.ins = append(g.ins, v)
		}
	}
	for u := range s.out {
		if outMask&bit(u) == 0 {
			continue
		}
		row := make([]bool, len(g.ins))
		deg := 0
		for j, v := range g.ins {
			ok, err := s.pred.Legal(s.out[u], s.in[v], history)
			if err != nil {
				return nil, err
			}
			if ok {
				row[j] = true
				deg++
			}
		}
		g.outs = append(g.outs, u)
		g.compat = append(g.compat, row)
		g.degree = append(g.degree, deg)
	}

	return g, nil
}

func placementKey(placed []placement) string {
	sorted := append([]placement(nil), placed...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].out < sorted[j].out
	})
	key := make([]byte, 0, 2*len(sorted))
	for _, p := range sorted {
		key = append(key, byte(p.out), byte(p.in))
	}
	return string(key)
}

func appendMatchup(history []Matchup, m Matchup) []Matchup {
	return append(history[:len(history):len(history)], m)
}

func bit(i int) uint64 {
	return uint64(1) << uint(i)
}

func fullMask(n int) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return bit(n) - 1
}
