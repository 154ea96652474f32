package textutil

import "slices"

// Distance is the Levenshtein edit distance between a and b, counted in runes.
func Distance(a, b string) int {
	src, dst := []rune(a), []rune(b)
	if len(src) < len(dst) {
		src, dst = dst, src
	}

	// One row of the DP table, indexed by prefix length of dst.
	row := make([]int, len(dst)+1)
	for idx := range row {
		row[idx] = idx
	}

	for i, srcRune := range src {
		diag := row[0]
		row[0] = i + 1

		for j, dstRune := range dst {
			cost := 1
			if srcRune == dstRune {
				cost = 0
			}

			above := row[j+1]
			row[j+1] = min(above+1, row[j]+1, diag+cost)
			diag = above
		}
	}

	return row[len(dst)]
}

// Suggest returns the candidate closest to name when it is within a third of
// the name's length, for "did you mean" hints. Ties go to the first candidate
// in sorted order.
func Suggest(name string, candidates []string) (string, bool) {
	limit := max(len([]rune(name))/3, 1)
	best, bestDistance := "", limit+1

	for _, candidate := range slices.Sorted(slices.Values(candidates)) {
		distance := Distance(name, candidate)
		if distance < bestDistance {
			best, bestDistance = candidate, distance
		}
	}

	return best, best != ""
}
