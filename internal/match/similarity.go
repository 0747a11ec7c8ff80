package match

import (
	"strings"

	"github.com/agext/levenshtein"
)

// NameSimilarity combines edit-distance similarity over the full strings with
// a word-level measure, averaged. Inputs are expected to be normalized.
func NameSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	edit := levenshtein.Similarity(a, b, nil)
	word := wordLevelSimilarity(strings.Fields(a), strings.Fields(b))
	return (edit + word) / 2
}

// wordLevelSimilarity averages, over the shorter word list, the best edit
// similarity each word achieves against the other list.
func wordLevelSimilarity(aw, bw []string) float64 {
	if len(aw) == 0 || len(bw) == 0 {
		return 0
	}
	if len(aw) > len(bw) {
		aw, bw = bw, aw
	}
	var sum float64
	for _, w := range aw {
		best := 0.0
		for _, v := range bw {
			if s := levenshtein.Similarity(w, v, nil); s > best {
				best = s
			}
		}
		sum += best
	}
	return sum / float64(len(aw))
}

// wordOverlapRatio is the share of exact word matches over the shorter list.
func wordOverlapRatio(aw, bw []string) float64 {
	if len(aw) == 0 || len(bw) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(bw))
	for _, w := range bw {
		set[w] = struct{}{}
	}
	hits := 0
	for _, w := range aw {
		if _, ok := set[w]; ok {
			hits++
		}
	}
	n := len(aw)
	if len(bw) < n {
		n = len(bw)
	}
	return float64(hits) / float64(n)
}

// wordOrderSimilarity is the fraction of shared words that appear in the same
// relative order in both lists.
func wordOrderSimilarity(aw, bw []string) float64 {
	pos := make(map[string]int, len(bw))
	for i, w := range bw {
		pos[w] = i
	}
	var shared []int
	for _, w := range aw {
		if i, ok := pos[w]; ok {
			shared = append(shared, i)
		}
	}
	if len(shared) < 2 {
		if len(shared) == 1 {
			return 1
		}
		return 0
	}
	ordered := 0
	for i := 1; i < len(shared); i++ {
		if shared[i] > shared[i-1] {
			ordered++
		}
	}
	return float64(ordered) / float64(len(shared)-1)
}
