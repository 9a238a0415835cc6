// Package typoutil provides edit-distance helpers for the fuzzy search
// path.
package typoutil

// Distance computes the Levenshtein distance between two strings: the
// minimum number of single-character insertions, deletions, and
// substitutions turning one into the other. Operates on runes so
// multi-byte characters count as one edit.
func Distance(a, b string) int {
	return DistanceWithLimit(a, b, -1)
}

// DistanceWithLimit computes the Levenshtein distance with early
// termination: once the distance provably exceeds maxDistance it returns
// maxDistance + 1. A negative maxDistance disables the cutoff.
func DistanceWithLimit(a, b string, maxDistance int) int {
	runesA := []rune(a)
	runesB := []rune(b)

	lenA := len(runesA)
	lenB := len(runesB)

	if maxDistance >= 0 {
		lengthDiff := lenA - lenB
		if lengthDiff < 0 {
			lengthDiff = -lengthDiff
		}
		if lengthDiff > maxDistance {
			return maxDistance + 1
		}
	}

	if lenA == 0 {
		return lenB
	}
	if lenB == 0 {
		return lenA
	}

	prevRow := make([]int, lenB+1)
	currRow := make([]int, lenB+1)
	for j := 0; j <= lenB; j++ {
		prevRow[j] = j
	}

	for i := 1; i <= lenA; i++ {
		currRow[0] = i
		minInRow := i

		for j := 1; j <= lenB; j++ {
			cost := 0
			if runesA[i-1] != runesB[j-1] {
				cost = 1
			}

			deletion := prevRow[j] + 1
			insertion := currRow[j-1] + 1
			substitution := prevRow[j-1] + cost

			currRow[j] = min3(deletion, insertion, substitution)
			if currRow[j] < minInRow {
				minInRow = currRow[j]
			}
		}

		if maxDistance >= 0 && minInRow > maxDistance {
			return maxDistance + 1
		}

		prevRow, currRow = currRow, prevRow
	}

	return prevRow[lenB]
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
