package rules

import "math"

// Shannon returns the Shannon entropy of s in bits per character.
// Empty strings score zero.
func Shannon(s string) float64 {
	if s == "" {
		return 0
	}
	freq := make(map[rune]int)
	total := 0
	for _, r := range s {
		freq[r]++
		total++
	}
	h := 0.0
	for _, count := range freq {
		p := float64(count) / float64(total)
		h -= p * math.Log2(p)
	}
	return h
}

// LongestLabel returns the longest host label; the first one wins
// ties so the result is deterministic.
func LongestLabel(labels []string) string {
	longest := ""
	for _, l := range labels {
		if len(l) > len(longest) {
			longest = l
		}
	}
	return longest
}
