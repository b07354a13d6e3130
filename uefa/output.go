/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package uefa

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mikeb26/uefa-drawbot/draw"
)

// GroupSorter implements sort.Interface ordering teams by group letter and
// then by name.
type GroupSorter []draw.Team

func (s GroupSorter) Len() int { return len(s) }

func (s GroupSorter) Swap(i, j int) { s[i], s[j] = s[j], s[i] }

func (s GroupSorter) Less(i, j int) bool {
	if s[i].Group != s[j].Group {
		return s[i].Group < s[j].Group
	}
	return s[i].Name < s[j].Name
}

var potTitles = [2]string{"Runners-up", "Group winners"}

// BuildPotsOutput formats a season's pots as aligned tables.
func BuildPotsOutput(s *Season) string {
	name, err := TournamentName(s.Tournament)
	if err != nil {
		name = s.Tournament
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%v %v round of %d draw\n", name, s.Season,
		2*len(s.Pots[0])))
	if !s.DrawDate.IsZero() {
		sb.WriteString(fmt.Sprintf("Draw date: %v\n",
			s.DrawDate.Format("2 January 2006")))
	}
	sb.WriteString("\n")

	for potNum, pot := range s.Pots {
		teams := append([]draw.Team(nil), pot...)
		sort.Sort(GroupSorter(teams))
		sb.WriteString(fmt.Sprintf("%v:\n", potTitles[potNum]))
		sb.WriteString(buildTeamTable(teams))
		sb.WriteString("\n")
	}

	return sb.String()
}

func buildTeamTable(teams []draw.Team) string {
	maxG, maxN := len("Grp"), len("Club")
	for _, t := range teams {
		if l := len(t.Group); l > maxG {
			maxG = l
		}
		if l := len([]rune(t.Name)); l > maxN {
			maxN = l
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-*s  %v  Assoc\n", maxG, "Grp",
		padRight("Club", maxN)))
	for _, t := range teams {
		sb.WriteString(fmt.Sprintf("%-*s  %v  %v\n", maxG, t.Group,
			padRight(t.Name, maxN), t.Country))
	}
	return sb.String()
}

// BuildDrawOutput formats the matchups of a draw in progress along with the
// balls remaining and, when choosing a group winner, the feasible choices.
func BuildDrawOutput(snap draw.Snapshot) string {
	type row struct{ tie, home, away string }
	var rows []row
	for i, m := range snap.Matchups {
		r := row{tie: fmt.Sprintf("%d.", i+1), home: "?", away: "?"}
		if m.Len() > 0 {
			r.home = teamLabel(m.Teams[0])
		}
		if m.Len() > 1 {
			r.away = teamLabel(m.Teams[1])
		}
		rows = append(rows, r)
	}

	maxT, maxH := len("Tie"), len(potTitles[0])
	for _, r := range rows {
		if l := len(r.tie); l > maxT {
			maxT = l
		}
		if l := len([]rune(r.home)); l > maxH {
			maxH = l
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-*s  %v  %v\n", maxT, "Tie",
		padRight(potTitles[0], maxH), potTitles[1]))
	for _, r := range rows {
		sb.WriteString(strings.TrimRight(fmt.Sprintf("%-*s  %v  %v", maxT,
			r.tie, padRight(r.home, maxH), r.away), " "))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	switch snap.State {
	case draw.Completed:
		sb.WriteString("Draw complete.\n")
		return sb.String()
	case draw.Failed:
		sb.WriteString("Draw failed: no legal completion remains.\n")
		return sb.String()
	}

	for potNum, pot := range snap.Pots {
		sb.WriteString(fmt.Sprintf("%v remaining: %d\n", potTitles[potNum],
			len(pot)))
	}
	if snap.State == draw.AwaitingFirstOfPair {
		sb.WriteString(fmt.Sprintf("\nDrawing a runner-up for tie %d.\n",
			snap.Matchup+1))
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("\nPossible opponents for tie %d:\n",
		snap.Matchup+1))
	for i, t := range snap.CandidateTeams() {
		sb.WriteString(fmt.Sprintf("  %d) %v\n", i+1, teamLabel(t)))
	}

	return sb.String()
}

func teamLabel(t draw.Team) string {
	if t.Country == "" {
		return t.Name
	}
	return fmt.Sprintf("%v (%v)", t.Name, t.Country)
}

// padRight pads by rune count so accented names line up.
func padRight(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
