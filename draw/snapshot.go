/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package draw

// Snapshot is a copy of a draw's state for presentation layers. Mutating it
// has no effect on the draw.
type Snapshot struct {
	State      State     `json:"state"`
	Pots       [2][]Team `json:"pots"`
	Matchups   []Matchup `json:"matchups"`
	ActivePot  int       `json:"activePot"`
	Matchup    int       `json:"matchup"`
	Candidates []int     `json:"candidates,omitempty"`
}

func (d *Draw) Snapshot() Snapshot {
	snap := Snapshot{
		State:     d.state,
		Pots:      [2][]Team{cloneTeams(d.pots[0]), cloneTeams(d.pots[1])},
		Matchups:  cloneMatchups(d.matchups),
		ActivePot: d.potNum,
		Matchup:   d.matchupNum,
	}
	if d.candidates != nil {
		snap.Candidates = append([]int(nil), d.candidates...)
	}

	return snap
}

// CandidateTeams resolves Candidates against the incoming pot.
func (s Snapshot) CandidateTeams() []Team {
	teams := make([]Team, 0, len(s.Candidates))
	for _, idx := range s.Candidates {
		teams = append(teams, s.Pots[1][idx])
	}
	return teams
}
