/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package draw

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkTeams(prefix string, countries ...string) []Team {
	teams := make([]Team, len(countries))
	for i, c := range countries {
		teams[i] = Team{
			ID:      fmt.Sprintf("%s%d", prefix, i),
			Name:    fmt.Sprintf("%s club %d", c, i),
			Country: c,
			Group:   string(rune('A' + i)),
		}
	}
	return teams
}

// forbidden is a history-free rule table keyed by (slot0 id, slot1 id).
type forbidden map[[2]string]bool

func (f forbidden) static() Predicate {
	return Static(func(a, b Team) (bool, error) {
		return !f[[2]string{a.ID, b.ID}], nil
	})
}

// aware wraps the same table without advertising HistoryFree, forcing the
// search path.
func (f forbidden) aware() Predicate {
	return PredicateFunc(func(a, b Team, _ []Matchup) (bool, error) {
		return !f[[2]string{a.ID, b.ID}], nil
	})
}

// noRepeatedCountryPair forbids same-country ties and any country pairing
// that already occurred in an earlier matchup.
var noRepeatedCountryPair = PredicateFunc(func(a, b Team,
	matchups []Matchup) (bool, error) {

	if a.Country == b.Country {
		return false, nil
	}
	for _, m := range matchups {
		x, y := m.Teams[0].Country, m.Teams[1].Country
		if (x == a.Country && y == b.Country) ||
			(x == b.Country && y == a.Country) {
			return false, nil
		}
	}
	return true, nil
})

func without(teams []Team, i int) []Team {
	out := append([]Team(nil), teams[:i]...)
	return append(out, teams[i+1:]...)
}

// bruteCompletable enumerates every draw order of the remaining teams.
func bruteCompletable(t *testing.T, out, in []Team, history []Matchup,
	pred Predicate) bool {

	if len(out) == 0 {
		return true
	}
	for u := range out {
		for v := range in {
			ok, err := pred.Legal(out[u], in[v], history)
			require.NoError(t, err)
			if !ok {
				continue
			}
			next := append(append([]Matchup(nil), history...),
				Matchup{Teams: []Team{out[u], in[v]}})
			if bruteCompletable(t, without(out, u), without(in, v), next, pred) {
				return true
			}
		}
	}
	return false
}

func bruteCandidates(t *testing.T, pots [2][]Team, matchups []Matchup,
	pred Predicate) []int {

	var history []Matchup
	var host Team
	for _, m := range matchups {
		if m.Complete() {
			history = append(history, m)
		} else if m.Len() == 1 {
			host = m.Teams[0]
		}
	}
	candidates := []int{}
	for c := range pots[1] {
		ok, err := pred.Legal(host, pots[1][c], history)
		require.NoError(t, err)
		if !ok {
			continue
		}
		next := append(append([]Matchup(nil), history...),
			Matchup{Teams: []Team{host, pots[1][c]}})
		if bruteCompletable(t, pots[0], without(pots[1], c), next, pred) {
			candidates = append(candidates, c)
		}
	}
	return candidates
}

func TestPossiblePairingsExcludesStrandingCandidate(t *testing.T) {
	out := mkTeams("R", "ESP", "ENG", "ITA", "GER")
	in := mkTeams("W", "FRA", "POR", "NED", "BEL")
	// R1 may only meet W0, so drawing W0 for R0 strands R1.
	f := forbidden{
		{"R1", "W1"}: true,
		{"R1", "W2"}: true,
		{"R1", "W3"}: true,
	}

	for name, pred := range map[string]Predicate{
		"matching": f.static(),
		"search":   f.aware(),
	} {
		t.Run(name, func(t *testing.T) {
			pots := [2][]Team{out[1:], in}
			matchups := []Matchup{{Teams: []Team{out[0]}}, {}, {}, {}}

			got, err := PossiblePairings(pots, matchups, pred)
			require.NoError(t, err)
			assert.Equal(t, []int{1, 2, 3}, got)
		})
	}
}

func TestPossiblePairingsMatchesBruteForce(t *testing.T) {
	countries := []string{"ESP", "ENG", "ITA"}
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		n := 2 + rng.Intn(3)
		outC := make([]string, n)
		inC := make([]string, n)
		for i := 0; i < n; i++ {
			outC[i] = countries[rng.Intn(len(countries))]
			inC[i] = countries[rng.Intn(len(countries))]
		}
		out := mkTeams("R", outC...)
		in := mkTeams("W", inC...)
		f := forbidden{}
		for _, a := range out {
			for _, b := range in {
				if rng.Float64() < 0.35 {
					f[[2]string{a.ID, b.ID}] = true
				}
			}
		}

		host := rng.Intn(n)
		pots := [2][]Team{without(out, host), in}
		matchups := make([]Matchup, n)
		matchups[0] = Matchup{Teams: []Team{out[host]}}

		for name, pred := range map[string]Predicate{
			"static":  f.static(),
			"aware":   f.aware(),
			"history": noRepeatedCountryPair,
		} {
			got, err := PossiblePairings(pots, matchups, pred)
			require.NoError(t, err, "trial %d %s", trial, name)
			want := bruteCandidates(t, pots, matchups, pred)
			require.Equal(t, want, got, "trial %d %s", trial, name)
		}
	}
}

func TestPossiblePairingsHistoryAware(t *testing.T) {
	// ESP-ENG already happened, so R1 (ESP) can only take W0 and R0 must be
	// given W1.
	done := Matchup{Teams: []Team{
		{ID: "X", Country: "ESP"}, {ID: "Y", Country: "ENG"},
	}}
	out := []Team{{ID: "R1", Country: "ESP"}}
	in := []Team{{ID: "W0", Country: "ITA"}, {ID: "W1", Country: "ENG"}}
	host := Team{ID: "R0", Country: "GER"}

	got, err := PossiblePairings([2][]Team{out, in},
		[]Matchup{done, {Teams: []Team{host}}, {}}, noRepeatedCountryPair)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got)
}

func TestPossiblePairingsPropagatesPredicateError(t *testing.T) {
	boom := fmt.Errorf("rule table missing")
	pred := Static(func(a, b Team) (bool, error) { return false, boom })

	out := mkTeams("R", "ESP", "ENG")
	in := mkTeams("W", "ITA", "GER")
	_, err := PossiblePairings([2][]Team{out[1:], in},
		[]Matchup{{Teams: []Team{out[0]}}, {}}, pred)
	assert.Same(t, boom, err)
}

func TestPossiblePairingsRequiresActiveMatchup(t *testing.T) {
	out := mkTeams("R", "ESP")
	in := mkTeams("W", "ITA")
	_, err := PossiblePairings([2][]Team{out, in}, []Matchup{{}},
		forbidden{}.static())
	assert.True(t, IsInvalidTransition(err))
}

func TestAllHistoryFree(t *testing.T) {
	free := forbidden{}.static()
	aware := forbidden{}.aware()

	assert.True(t, isHistoryFree(All(free, free)))
	assert.False(t, isHistoryFree(All(free, aware)))
	assert.False(t, isHistoryFree(aware))
}

func TestHasPerfectMatching(t *testing.T) {
	compat := [][]bool{
		{true, false, false},
		{true, true, false},
	}
	assert.True(t, hasPerfectMatching(compat, 3, 2))
	assert.False(t, hasPerfectMatching(compat, 3, 0))
	assert.True(t, hasPerfectMatching(nil, 1, 0))
}

func TestFeasible(t *testing.T) {
	out := mkTeams("R", "ESP", "ENG", "ITA")
	in := mkTeams("W", "FRA", "POR", "NED")
	f := forbidden{
		{"R0", "W0"}: true,
		{"R1", "W0"}: true,
	}

	for name, pred := range map[string]Predicate{
		"static": f.static(),
		"aware":  f.aware(),
	} {
		ok, err := Feasible(out, in, pred)
		require.NoError(t, err, name)
		assert.True(t, ok, name)
	}

	f[[2]string{"R2", "W0"}] = true
	for name, pred := range map[string]Predicate{
		"static": f.static(),
		"aware":  f.aware(),
	} {
		ok, err := Feasible(out, in, pred)
		require.NoError(t, err, name)
		assert.False(t, ok, name)
	}

	_, err := Feasible(out, in[:2], f.static())
	assert.ErrorIs(t, err, ErrUnbalancedPots)
}

func repeat(country string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = country
	}
	return out
}

// differentCountry is a plain association rule that does not advertise
// HistoryFree, so the checker has to take the search path.
var differentCountry = PredicateFunc(func(a, b Team,
	_ []Matchup) (bool, error) {

	return a.Country != b.Country, nil
})

// withinDeadline runs fn and fails the test if it is still going after d.
func withinDeadline(t *testing.T, d time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("still running after %v", d)
	}
}

func TestPossiblePairingsSearchRejectsStrandingQuickly(t *testing.T) {
	// eight ESP clubs in pot 0 need the eight ENG clubs of pot 1, so the ITA
	// host must not take an ENG club
	const n = 16
	out := mkTeams("R", append(repeat("ESP", 8), repeat("ITA", n-9)...)...)
	in := mkTeams("W", append(repeat("ENG", 8), repeat("ESP", n-8)...)...)
	host := Team{ID: "H", Country: "ITA"}
	matchups := make([]Matchup, n)
	matchups[0] = Matchup{Teams: []Team{host}}

	var got []int
	var err error
	withinDeadline(t, 2*time.Second, func() {
		got, err = PossiblePairings([2][]Team{out, in}, matchups,
			differentCountry)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{8, 9, 10, 11, 12, 13, 14, 15}, got)
}

func TestFeasibleSearchAtBracketSize(t *testing.T) {
	const n = 16
	in := mkTeams("W", append(repeat("ENG", 8), repeat("ESP", n-8)...)...)

	tests := []struct {
		name string
		out  []Team
		want bool
	}{
		{"feasible",
			mkTeams("R", append(repeat("ESP", 8), repeat("ITA", n-8)...)...),
			true},
		{"one ESP club too many",
			mkTeams("R", append(repeat("ESP", 9), repeat("ITA", n-9)...)...),
			false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var ok bool
			var err error
			withinDeadline(t, 2*time.Second, func() {
				ok, err = Feasible(tc.out, in, differentCountry)
			})
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}
