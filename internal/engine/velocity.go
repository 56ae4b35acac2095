package engine

import "time"

// DetectHighVelocity flags every account with at least
// cfg.HighVelocityThreshold transactions (inbound and outbound combined,
// counted with multiplicity) in any cfg.HighVelocityWindow window. Unlike
// the other detectors this never produces a FraudRing: it only contributes a
// score and a pattern label to the flagged account.
func DetectHighVelocity(g *Graph, cfg DetectorConfig) map[int32]bool {
	flagged := make(map[int32]bool)
	for _, node := range g.SortedNodes() {
		merged := mergeByTimestamp(g.OutEdges(node), g.InEdges(node))
		if len(merged) < cfg.HighVelocityThreshold {
			continue
		}
		if slidesOverThreshold(merged, cfg.HighVelocityWindow, cfg.HighVelocityThreshold) {
			flagged[node] = true
		}
	}
	return flagged
}

func mergeByTimestamp(a, b []Edge) []Edge {
	merged := make([]Edge, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].Timestamp.Before(b[j].Timestamp) {
			merged = append(merged, a[i])
			i++
		} else {
			merged = append(merged, b[j])
			j++
		}
	}
	merged = append(merged, a[i:]...)
	merged = append(merged, b[j:]...)
	return merged
}

func slidesOverThreshold(edges []Edge, window time.Duration, threshold int) bool {
	left := 0
	for right := 0; right < len(edges); right++ {
		for edges[right].Timestamp.Sub(edges[left].Timestamp) > window {
			left++
		}
		if right-left+1 >= threshold {
			return true
		}
	}
	return false
}
