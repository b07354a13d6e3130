/* Copyright © 2025-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package internal

import (
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// ParseDateOrZero returns a parsed time or zero if input is empty or "null".
func ParseDateOrZero(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return time.Time{}, nil
	}
	return dateparse.ParseAny(s)
}

var folder = cases.Fold()

// NormalizeName returns the NFC form of a club name with runs of whitespace
// collapsed.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(norm.NFC.String(name)), " ")
}

// NameKey folds a club name for comparisons, so "Bayern München" and
// "BAYERN MUNCHEN" collide.
func NameKey(name string) string {
	decomposed := norm.NFD.String(NormalizeName(name))
	var sb strings.Builder
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		sb.WriteRune(r)
	}
	return folder.String(sb.String())
}

// CountryCode upper-cases a three letter association code.
func CountryCode(code string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(code))
}
