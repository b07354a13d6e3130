/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package uefa

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mikeb26/uefa-drawbot/draw"
	"github.com/mikeb26/uefa-drawbot/internal"
)

// Standing is one row of a final group table.
type Standing struct {
	Position int       `json:"position"`
	Team     draw.Team `json:"team"`
}

// Table is the final standings of one group-stage group.
type Table struct {
	Group     string     `json:"group"`
	Standings []Standing `json:"standings"`
}

// ParseGroups extracts the final group tables from a standings page, e.g.
//
//	<div class="group" data-group="A">
//	  <table class="standings"><tbody>
//	    <tr><td class="pos">1</td><td class="team" data-id="rma">Real Madrid</td>
//	        <td class="country">ESP</td></tr>
func ParseGroups(r io.Reader) ([]Table, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("unable to parse standings page: %w", err)
	}

	return parseGroups(doc)
}

func parseGroups(doc *goquery.Document) ([]Table, error) {
	var tables []Table
	var parseErr error
	doc.Find("div.group[data-group]").EachWithBreak(func(_ int,
		g *goquery.Selection) bool {

		table := Table{Group: strings.TrimSpace(g.AttrOr("data-group", ""))}
		g.Find("table.standings tbody tr").EachWithBreak(func(_ int,
			row *goquery.Selection) bool {

			st, err := parseStanding(row, table.Group)
			if err != nil {
				parseErr = fmt.Errorf("group %v: %w", table.Group, err)
				return false
			}
			table.Standings = append(table.Standings, st)
			return true
		})
		if parseErr != nil {
			return false
		}
		sort.Slice(table.Standings, func(i, j int) bool {
			return table.Standings[i].Position < table.Standings[j].Position
		})
		tables = append(tables, table)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: no group tables found", ErrInvalidPots)
	}

	return tables, nil
}

func parseStanding(row *goquery.Selection, group string) (Standing, error) {
	posText := strings.TrimSuffix(strings.TrimSpace(row.Find("td.pos").Text()),
		".")
	pos, err := strconv.Atoi(posText)
	if err != nil {
		return Standing{}, fmt.Errorf("bad position %q: %w", posText, err)
	}

	cell := row.Find("td.team")
	name := internal.NormalizeName(cell.Text())
	id, ok := cell.Attr("data-id")
	if !ok || strings.TrimSpace(id) == "" {
		return Standing{}, fmt.Errorf("team %q has no id", name)
	}

	return Standing{
		Position: pos,
		Team: draw.Team{
			ID:      strings.TrimSpace(id),
			Name:    name,
			Country: internal.CountryCode(row.Find("td.country").Text()),
			Group:   group,
		},
	}, nil
}

// KnockoutPots builds the round-of-16 pots from final group tables. Pot 0
// holds the runners-up, who are drawn first and fill slot 0 of each tie;
// pot 1 holds the group winners.
func KnockoutPots(tables []Table) ([2][]draw.Team, error) {
	var pots [2][]draw.Team
	for _, t := range tables {
		var winner, runnerUp *draw.Team
		for i := range t.Standings {
			switch t.Standings[i].Position {
			case 1:
				winner = &t.Standings[i].Team
			case 2:
				runnerUp = &t.Standings[i].Team
			}
		}
		if winner == nil || runnerUp == nil {
			return pots, fmt.Errorf("%w: group %v lacks a winner or runner-up",
				ErrInvalidPots, t.Group)
		}
		w, r := *winner, *runnerUp
		w.Seed, r.Seed = 1, 2
		pots[0] = append(pots[0], r)
		pots[1] = append(pots[1], w)
	}

	if err := validatePots(pots); err != nil {
		return pots, err
	}
	return pots, nil
}

// validatePots checks that both pots are the same non-zero size and that no
// club appears twice, by id or by folded name.
func validatePots(pots [2][]draw.Team) error {
	if len(pots[0]) == 0 || len(pots[0]) != len(pots[1]) {
		return fmt.Errorf("%w: pot sizes %d and %d", ErrInvalidPots,
			len(pots[0]), len(pots[1]))
	}

	ids := make(map[string]struct{})
	names := make(map[string]struct{})
	for _, pot := range pots {
		for _, t := range pot {
			if _, dup := ids[t.ID]; dup {
				return fmt.Errorf("%w: duplicate team id %q", ErrInvalidPots, t.ID)
			}
			ids[t.ID] = struct{}{}
			key := internal.NameKey(t.Name)
			if _, dup := names[key]; dup {
				return fmt.Errorf("%w: duplicate team %q", ErrInvalidPots, t.Name)
			}
			names[key] = struct{}{}
		}
	}
	return nil
}
