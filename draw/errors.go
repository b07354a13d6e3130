/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package draw

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes draw errors.
type ErrorCode string

const (
	// ErrCodeInvalidTransition indicates a caller error: a pick in a terminal
	// state, a position out of range, or a query in the wrong state.
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"

	// ErrCodeInfeasibleDraw indicates no candidate can complete the draw. The
	// pots violate the invariant that every seeded bracket is constructible and
	// the draw instance is dead.
	ErrCodeInfeasibleDraw ErrorCode = "INFEASIBLE_DRAW"
)

// ErrPotTooLarge is returned when a pot exceeds the checker's capacity.
var ErrPotTooLarge = errors.New("pot exceeds 64 teams")

// ErrUnbalancedPots is returned by New when the two pots differ in size.
var ErrUnbalancedPots = errors.New("pots must be equal-sized")

// Error is returned for invalid transitions and infeasible draws. Predicate
// errors are never wrapped in an Error.
type Error struct {
	Code     ErrorCode
	Message  string
	State    State
	Position int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (state=%v, position=%d)", e.Code, e.Message,
		e.State, e.Position)
}

// IsInvalidTransition returns true if err is or wraps an invalid transition.
func IsInvalidTransition(err error) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == ErrCodeInvalidTransition
	}
	return false
}

// IsInfeasibleDraw returns true if err is or wraps an infeasible draw.
func IsInfeasibleDraw(err error) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == ErrCodeInfeasibleDraw
	}
	return false
}

func invalidTransition(s State, pos int, format string, args ...any) *Error {
	return &Error{
		Code:     ErrCodeInvalidTransition,
		Message:  fmt.Sprintf(format, args...),
		State:    s,
		Position: pos,
	}
}

func infeasibleDraw(matchupNum int, team Team) *Error {
	return &Error{
		Code: ErrCodeInfeasibleDraw,
		Message: fmt.Sprintf("no opponent for %v leaves matchup %d onward completable",
			team.ID, matchupNum+1),
		State:    AwaitingSecondOfPair,
		Position: -1,
	}
}
