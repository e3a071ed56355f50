package story

import "sort"

// ComputeStatistics derives statistics from the story words. Top words are
// ranked by count, ties broken by first occurrence, and cut to topK entries.
// A topK of zero or less keeps every distinct word.
func ComputeStatistics(words []string, contributor string, topK int) Statistics {
	if contributor == "" {
		contributor = UnknownContributor
	}
	return Statistics{
		WordCount:       len(words),
		TopWords:        rankWords(words, topK),
		LastContributor: contributor,
	}
}

func rankWords(words []string, topK int) []WordCount {
	index := make(map[string]int, len(words))
	counts := make([]WordCount, 0, len(words))
	for _, w := range words {
		if i, ok := index[w]; ok {
			counts[i].Count++
			continue
		}
		index[w] = len(counts)
		counts = append(counts, WordCount{Word: w, Count: 1})
	}

	// counts is in first-occurrence order, so a stable sort keeps ties in it.
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	if topK > 0 && len(counts) > topK {
		counts = counts[:topK]
	}
	return counts
}
