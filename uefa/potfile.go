/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package uefa

import (
	"fmt"
	"os"

	"github.com/mikeb26/uefa-drawbot/draw"
	"github.com/mikeb26/uefa-drawbot/internal"
	"gopkg.in/yaml.v3"
)

// PotFile is the on-disk description of a draw, for seasons the data host
// does not cover or for hypothetical draws.
//
//	tournament: el
//	season: 2024
//	drawDate: 2023-12-18
//	pots:
//	  runnersUp:
//	    - {id: mil, name: AC Milan, country: ITA, group: F}
//	  winners:
//	    - {id: liv, name: Liverpool, country: ENG, group: E}
//	restrictions:
//	  - countries: [RUS, UKR]
type PotFile struct {
	Tournament   string        `yaml:"tournament"`
	Stage        string        `yaml:"stage,omitempty"`
	Season       int           `yaml:"season"`
	DrawDate     string        `yaml:"drawDate,omitempty"`
	Pots         PotFilePots   `yaml:"pots"`
	Restrictions []Restriction `yaml:"restrictions,omitempty"`
}

type PotFilePots struct {
	RunnersUp []draw.Team `yaml:"runnersUp"`
	Winners   []draw.Team `yaml:"winners"`
}

// LoadPotFile reads and validates a pot file.
func LoadPotFile(path string) (*Season, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read pot file: %w", err)
	}

	s, err := ParsePotFile(data)
	if err != nil {
		return nil, fmt.Errorf("unable to load %v: %w", path, err)
	}
	return s, nil
}

// ParsePotFile validates data against the pot file schema and converts it
// to a Season.
func ParsePotFile(data []byte) (*Season, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unable to parse pot file: %w", err)
	}
	if err := validatePotFile(doc); err != nil {
		return nil, err
	}

	var pf PotFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("unable to parse pot file: %w", err)
	}

	drawDate, err := internal.ParseDateOrZero(pf.DrawDate)
	if err != nil {
		return nil, fmt.Errorf("%w: bad drawDate %q: %v", ErrInvalidPots,
			pf.DrawDate, err)
	}

	s := &Season{
		Tournament:   pf.Tournament,
		Stage:        StageKnockout,
		Season:       pf.Season,
		DrawDate:     drawDate,
		Restrictions: pf.Restrictions,
		Pots: [2][]draw.Team{
			normalizeTeams(pf.Pots.RunnersUp, 2),
			normalizeTeams(pf.Pots.Winners, 1),
		},
	}
	if err := validatePots(s.Pots); err != nil {
		return nil, err
	}

	return s, nil
}

func normalizeTeams(teams []draw.Team, seed int) []draw.Team {
	out := make([]draw.Team, len(teams))
	for i, t := range teams {
		t.Name = internal.NormalizeName(t.Name)
		t.Country = internal.CountryCode(t.Country)
		if t.Seed == 0 {
			t.Seed = seed
		}
		out[i] = t
	}
	return out
}
