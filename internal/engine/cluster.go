package engine

// clusterIssues partitions issue numbers into clusters by bounded greedy
// agglomeration:
//
//  1. Every issue starts in its own singleton cluster.
//  2. Inter-cluster affinity is the arithmetic mean of the known pairwise
//     scores between the two clusters' members. Pairs absent from the matrix
//     contribute nothing; no known cross-pair means affinity 0.
//  3. The pair of clusters with the highest affinity is merged, repeatedly,
//     until the best affinity drops below threshold or the best merge would
//     exceed maxSize. The size check terminates the merge phase outright
//     rather than searching for the next-best pair, trading optimality for
//     determinism.
//
// Tie-breaking is stable: the first pair encountered in enumeration order
// wins, so results are reproducible for a given input order. This is a
// greedy heuristic, not linkage-correct clustering; its only guarantees are
// that every merge had mean affinity at or above threshold when it happened
// and that no cluster exceeds maxSize.
func clusterIssues(issueNumbers []int, matrix ScoreMatrix, threshold float64, maxSize int) [][]int {
	clusters := make([][]int, 0, len(issueNumbers))
	for _, n := range issueNumbers {
		clusters = append(clusters, []int{n})
	}

	for len(clusters) > 1 {
		bestScore := 0.0
		bestI, bestJ := -1, -1

		for i := 0; i < len(clusters); i++ {
			for j := i + 1; j < len(clusters); j++ {
				score := clusterAffinity(clusters[i], clusters[j], matrix)
				if score > bestScore {
					bestScore = score
					bestI, bestJ = i, j
				}
			}
		}

		if bestScore < threshold {
			break
		}

		merged := append(append([]int{}, clusters[bestI]...), clusters[bestJ]...)
		if len(merged) > maxSize {
			break
		}

		next := make([][]int, 0, len(clusters)-1)
		for k, c := range clusters {
			if k != bestI && k != bestJ {
				next = append(next, c)
			}
		}
		clusters = append(next, merged)
	}

	return clusters
}

// clusterAffinity returns the mean of the known pairwise scores between the
// members of c1 and c2, or 0 when no cross-pair is in the matrix.
func clusterAffinity(c1, c2 []int, matrix ScoreMatrix) float64 {
	var sum float64
	var count int

	for _, a := range c1 {
		for _, b := range c2 {
			if score, ok := matrix.Score(a, b); ok {
				sum += score
				count++
			}
		}
	}

	if count == 0 {
		return 0.0
	}
	return sum / float64(count)
}
