/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */

// Package draw implements the knockout draw engine: a state machine that
// alternates between two pots filling matchups, and a feasibility checker
// that narrows each second-of-pair pick to the teams which still leave the
// rest of the draw completable.
package draw

// Team is a single club taking part in a draw. Only ID is used by the engine
// itself; the remaining attributes exist for legality predicates.
type Team struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Country string `json:"country" yaml:"country"`
	Group   string `json:"group,omitempty" yaml:"group,omitempty"`
	Seed    int    `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// Matchup is one bracket fixture. Teams[0] is filled first, Teams[1] second.
type Matchup struct {
	Teams []Team `json:"teams"`
}

// Len returns the number of filled slots (0, 1 or 2).
func (m Matchup) Len() int {
	return len(m.Teams)
}

func (m Matchup) Complete() bool {
	return len(m.Teams) == 2
}

// Has reports whether the team with the given id occupies either slot.
func (m Matchup) Has(id string) bool {
	for _, t := range m.Teams {
		if t.ID == id {
			return true
		}
	}
	return false
}

func (m Matchup) clone() Matchup {
	return Matchup{Teams: append([]Team(nil), m.Teams...)}
}

func cloneTeams(teams []Team) []Team {
	return append([]Team(nil), teams...)
}

func cloneMatchups(matchups []Matchup) []Matchup {
	out := make([]Matchup, len(matchups))
	for i, m := range matchups {
		out[i] = m.clone()
	}
	return out
}

func removeIndex(s []Team, i int) []Team {
	return append(s[:i], s[i+1:]...)
}
