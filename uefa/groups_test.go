/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package uefa

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixtureTables(t *testing.T) []Table {
	t.Helper()

	f, err := os.Open("testdata/groups.html")
	require.NoError(t, err)
	defer f.Close()

	tables, err := ParseGroups(f)
	require.NoError(t, err)
	return tables
}

func TestParseGroups(t *testing.T) {
	tables := loadFixtureTables(t)
	require.Len(t, tables, 4)

	a := tables[0]
	assert.Equal(t, "A", a.Group)
	require.Len(t, a.Standings, 3)
	assert.Equal(t, 1, a.Standings[0].Position)
	assert.Equal(t, "whu", a.Standings[0].Team.ID)
	assert.Equal(t, "SC Freiburg", a.Standings[1].Team.Name)
	assert.Equal(t, "GER", a.Standings[1].Team.Country)
	assert.Equal(t, "A", a.Standings[1].Team.Group)
	assert.Equal(t, "Brighton & Hove Albion", tables[1].Standings[0].Team.Name)
}

func TestParseGroupsErrors(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{"no groups", `<html><body><p>nothing here</p></body></html>`},
		{"bad position", `<div class="group" data-group="A"><table class="standings"><tbody>
			<tr><td class="pos">first</td><td class="team" data-id="x">X</td><td class="country">ESP</td></tr>
			</tbody></table></div>`},
		{"missing id", `<div class="group" data-group="A"><table class="standings"><tbody>
			<tr><td class="pos">1</td><td class="team">X</td><td class="country">ESP</td></tr>
			</tbody></table></div>`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseGroups(strings.NewReader(tc.html))
			assert.Error(t, err)
		})
	}
}

func TestKnockoutPots(t *testing.T) {
	pots, err := KnockoutPots(loadFixtureTables(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"scf", "om", "spa", "scp"}, ids(pots[0]))
	assert.Equal(t, []string{"whu", "bha", "rfc", "ata"}, ids(pots[1]))
	assert.Equal(t, 2, pots[0][0].Seed)
	assert.Equal(t, 1, pots[1][0].Seed)
}

func TestKnockoutPotsRejectsDuplicates(t *testing.T) {
	tables := loadFixtureTables(t)
	tables[1].Standings[1].Team.Name = "West Ham  UNITED"

	_, err := KnockoutPots(tables)
	assert.ErrorIs(t, err, ErrInvalidPots)
}

func TestKnockoutPotsRequiresRunnerUp(t *testing.T) {
	tables := loadFixtureTables(t)
	tables[2].Standings = tables[2].Standings[:1]

	_, err := KnockoutPots(tables)
	assert.ErrorIs(t, err, ErrInvalidPots)
}
