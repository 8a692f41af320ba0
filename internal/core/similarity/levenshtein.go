package similarity

// levenshtein computes the classic edit distance between two rune slices with
// a single DP row, using O(min(len(a), len(b))) auxiliary memory.
func levenshtein(a, b []rune) int {
	// Keep the shorter slice as the row dimension.
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return len(a)
	}

	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}

	for i := 1; i <= len(a); i++ {
		prev := row[0] // diagonal value from the previous row
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cur := row[j]
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			row[j] = min(row[j]+1, row[j-1]+1, prev+cost)
			prev = cur
		}
	}

	return row[len(b)]
}
