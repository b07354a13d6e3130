/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package draw

import (
	"fmt"
)

type State int

const (
	AwaitingFirstOfPair State = iota
	AwaitingSecondOfPair
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case AwaitingFirstOfPair:
		return "awaiting-first"
	case AwaitingSecondOfPair:
		return "awaiting-second"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "?"
	}
}

// Draw owns the authoritative state of one knockout draw. Teams are drawn
// from pot 0 into slot 0 of the active matchup, then from the feasible subset
// of pot 1 into slot 1, until every matchup is full.
//
// A Draw is not safe for concurrent use.
type Draw struct {
	pots       [2][]Team
	matchups   []Matchup
	pred       Predicate
	potNum     int
	matchupNum int
	candidates []int
	state      State
	failure    error
}

// New starts a draw with first supplying slot 0 and second slot 1 of each
// matchup. Pots are used in the order given.
func New(first, second []Team, pred Predicate) (*Draw, error) {
	if pred == nil {
		return nil, fmt.Errorf("draw.new: nil predicate")
	}
	if len(first) != len(second) {
		return nil, fmt.Errorf("draw.new: %w: %d vs %d", ErrUnbalancedPots,
			len(first), len(second))
	}
	if len(first) > maxPotSize {
		return nil, fmt.Errorf("draw.new: %w", ErrPotTooLarge)
	}

	d := &Draw{
		pots:     [2][]Team{cloneTeams(first), cloneTeams(second)},
		matchups: make([]Matchup, len(first)),
		pred:     pred,
		state:    AwaitingFirstOfPair,
	}
	if len(first) == 0 {
		d.state = Completed
	}

	return d, nil
}

func (d *Draw) State() State {
	return d.state
}

func (d *Draw) IsComplete() bool {
	return d.state == Completed
}

// Err returns the error that moved the draw into Failed, if any.
func (d *Draw) Err() error {
	return d.failure
}

// CurrentCandidates returns the feasible positions in pot 1 for the pending
// second-of-pair pick. Pick takes an index into this slice, not a pot
// position.
func (d *Draw) CurrentCandidates() ([]int, error) {
	if d.state != AwaitingSecondOfPair {
		return nil, invalidTransition(d.state, -1,
			"candidates are only defined while awaiting the second team")
	}
	return append([]int(nil), d.candidates...), nil
}

// Forced returns the position to pick when exactly one ball can be drawn:
// a single team left in the outgoing pot, or a single candidate.
func (d *Draw) Forced() (int, bool) {
	switch d.state {
	case AwaitingFirstOfPair:
		return 0, len(d.pots[0]) == 1
	case AwaitingSecondOfPair:
		return 0, len(d.candidates) == 1
	}
	return 0, false
}

// AutoPick applies the forced pick, if there is one, and reports whether a
// pick was made.
func (d *Draw) AutoPick() (bool, error) {
	pos, ok := d.Forced()
	if !ok {
		return false, nil
	}
	if _, err := d.Pick(pos); err != nil {
		return false, err
	}
	return true, nil
}

// Pick draws the ball at position. While awaiting the first team position
// indexes pot 0; while awaiting the second it indexes CurrentCandidates().
//
// A predicate error leaves the draw unchanged. An empty candidate set moves
// the draw to Failed and returns an INFEASIBLE_DRAW error.
func (d *Draw) Pick(position int) (State, error) {
	switch d.state {
	case AwaitingFirstOfPair:
		return d.pickFirst(position)
	case AwaitingSecondOfPair:
		return d.pickSecond(position)
	default:
		return d.state, invalidTransition(d.state, position,
			"no further picks accepted")
	}
}

func (d *Draw) pickFirst(position int) (State, error) {
	if position < 0 || position >= len(d.pots[0]) {
		return d.state, invalidTransition(d.state, position,
			"position outside pot of %d", len(d.pots[0]))
	}

	pots := [2][]Team{removeIndex(cloneTeams(d.pots[0]), position), d.pots[1]}
	matchups := cloneMatchups(d.matchups)
	team := d.pots[0][position]
	matchups[d.matchupNum].Teams = append(matchups[d.matchupNum].Teams, team)

	var candidates []int
	if len(pots[1]) == 1 {
		// last ball is forced; no search
		candidates = []int{0}
	} else {
		var err error
		candidates, err = PossiblePairings(pots, matchups, d.pred)
		if err != nil {
			return d.state, err
		}
	}

	d.pots = pots
	d.matchups = matchups
	d.potNum = 1
	if len(candidates) == 0 {
		d.state = Failed
		d.failure = infeasibleDraw(d.matchupNum, team)
		return d.state, d.failure
	}
	d.candidates = candidates
	d.state = AwaitingSecondOfPair

	return d.state, nil
}

func (d *Draw) pickSecond(position int) (State, error) {
	if position < 0 || position >= len(d.candidates) {
		return d.state, invalidTransition(d.state, position,
			"position outside candidate set of %d", len(d.candidates))
	}

	idx := d.candidates[position]
	team := d.pots[1][idx]
	d.pots[1] = removeIndex(d.pots[1], idx)
	d.matchups[d.matchupNum].Teams = append(d.matchups[d.matchupNum].Teams,
		team)
	d.candidates = nil
	d.potNum = 0
	d.matchupNum++

	if d.matchupNum >= len(d.matchups) {
		d.state = Completed
	} else {
		d.state = AwaitingFirstOfPair
	}

	return d.state, nil
}
