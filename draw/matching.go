/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package draw

// hasPerfectMatching reports whether every left vertex (row of compat) can be
// matched to a distinct right vertex other than excluded. Kuhn's augmenting
// path algorithm; callers guarantee len(compat) == nRight-1 when excluded >= 0.
func hasPerfectMatching(compat [][]bool, nRight int, excluded int) bool {
	matchR := make([]int, nRight)
	for i := range matchR {
		matchR[i] = -1
	}
	for u := range compat {
		seen := make([]bool, nRight)
		if !augment(u, compat, excluded, matchR, seen) {
			return false
		}
	}
	return true
}

func augment(u int, compat [][]bool, excluded int, matchR []int,
	seen []bool) bool {

	for v, ok := range compat[u] {
		if !ok || v == excluded || seen[v] {
			continue
		}
		seen[v] = true
		if matchR[v] < 0 || augment(matchR[v], compat, excluded, matchR, seen) {
			matchR[v] = u
			return true
		}
	}
	return false
}
