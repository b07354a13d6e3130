/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */

// Package uefa supplies competition data and rules for UEFA club knockout
// draws: loading group-stage results, building the two pots and the
// legality predicate, and rendering pots and draws as text.
package uefa

import (
	"errors"
	"fmt"

	"github.com/mikeb26/uefa-drawbot/draw"
	"github.com/mikeb26/uefa-drawbot/internal"
)

var (
	ErrUnknownTournament = errors.New("unknown tournament")
	ErrUnsupportedStage  = errors.New("unsupported stage")
	ErrInvalidPots       = errors.New("invalid pots")
)

var tournamentNames = map[string]string{
	"cl": "UEFA Champions League",
	"el": "UEFA Europa League",
}

// TournamentName returns the display name of a competition code.
func TournamentName(tournament string) (string, error) {
	name, ok := tournamentNames[tournament]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTournament, tournament)
	}
	return name, nil
}

// Restriction keeps two associations apart in every draw from season From
// onwards (until Until, inclusive, when non-zero). Seasons are named by the
// year in which the knockout draw takes place.
type Restriction struct {
	Countries [2]string `json:"countries" yaml:"countries"`
	From      int       `json:"from,omitempty" yaml:"from,omitempty"`
	Until     int       `json:"until,omitempty" yaml:"until,omitempty"`
}

func (r Restriction) appliesTo(season int) bool {
	if r.From != 0 && season < r.From {
		return false
	}
	return r.Until == 0 || season <= r.Until
}

// prohibited clashes decided by the UEFA emergency panel
var builtinRestrictions = []Restriction{
	{Countries: [2]string{"RUS", "UKR"}, From: 2015},
	{Countries: [2]string{"ESP", "GIB"}, From: 2015},
	{Countries: [2]string{"ARM", "AZE"}, From: 2015},
	{Countries: [2]string{"KOS", "SRB"}, From: 2017},
	{Countries: [2]string{"KOS", "BIH"}, From: 2017},
	{Countries: [2]string{"KOS", "RUS"}, From: 2020},
	{Countries: [2]string{"BLR", "UKR"}, From: 2023},
}

type countryPair [2]string

func newCountryPair(a, b string) countryPair {
	a, b = internal.CountryCode(a), internal.CountryCode(b)
	if b < a {
		a, b = b, a
	}
	return countryPair{a, b}
}

// knockoutRules is the round-of-16 rule set: no rematch of a group, no
// two clubs of one association, no prohibited clash.
type knockoutRules struct {
	banned map[countryPair]struct{}
}

// PredicateFor returns the legality predicate for a knockout draw of the
// given competition and season. restrictions are merged with the built-in
// prohibited clashes.
func PredicateFor(tournament string, season int,
	restrictions []Restriction) (draw.Predicate, error) {

	if _, err := TournamentName(tournament); err != nil {
		return nil, err
	}

	rules := &knockoutRules{banned: make(map[countryPair]struct{})}
	for _, list := range [][]Restriction{builtinRestrictions, restrictions} {
		for _, r := range list {
			if r.appliesTo(season) {
				rules.banned[newCountryPair(r.Countries[0], r.Countries[1])] =
					struct{}{}
			}
		}
	}

	return rules, nil
}

func (k *knockoutRules) Legal(a, b draw.Team, _ []draw.Matchup) (bool, error) {
	if a.Group != "" && a.Group == b.Group {
		return false, nil
	}
	if internal.CountryCode(a.Country) == internal.CountryCode(b.Country) {
		return false, nil
	}
	_, banned := k.banned[newCountryPair(a.Country, b.Country)]
	return !banned, nil
}

func (k *knockoutRules) HistoryFree() bool { return true }
