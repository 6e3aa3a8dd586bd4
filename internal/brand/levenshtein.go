package brand

import "strings"

// editDistance computes optimal string alignment distance: insertions,
// deletions, substitutions, and adjacent transpositions all cost one.
// Transpositions matter here because swapped letters are the most
// common typosquat.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev2 := make([]int, lb+1)
	prev := make([]int, lb+1)
	cur := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		cur[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(cur[j-1]+1, prev[j]+1, prev[j-1]+cost)
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				if v := prev2[j-2] + 1; v < cur[j] {
					cur[j] = v
				}
			}
		}
		prev2, prev, cur = prev, cur, prev2
	}
	return prev[lb]
}

// leetSubstitutions maps the digit-for-letter swaps attackers rely on.
var leetSubstitutions = map[rune]rune{
	'0': 'o',
	'1': 'l',
	'3': 'e',
	'4': 'a',
	'5': 's',
	'7': 't',
	'8': 'b',
	'9': 'g',
	'$': 's',
	'@': 'a',
	'!': 'i',
}

// leetNormalize folds character substitutions back to letters, so
// paypa1 and g00gle compare equal to their targets.
func leetNormalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if sub, ok := leetSubstitutions[r]; ok {
			r = sub
		}
		b.WriteRune(r)
	}
	return b.String()
}
