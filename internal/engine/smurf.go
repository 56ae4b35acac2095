package engine

import "sort"

// detectSmurfDirection runs the fan-in or fan-out sliding-window detector
// over every account: fan-in draws counterparties from edges' senders,
// fan-out from edges' receivers.
//
// An account triggers at most once per direction: the first window whose
// distinct-counterparty count reaches cfg.SmurfMinCounterparties produces one
// ring naming the account plus every counterparty active in that window.
// Accounts suppressed by the matching counter-heuristic (merchant-like for
// fan-in, payroll-like for fan-out) never trigger.
func detectSmurfDirection(g *Graph, h *Heuristics, cfg DetectorConfig, fanIn bool) []CycleRing {
	var rings []CycleRing
	for _, node := range g.SortedNodes() {
		if fanIn && h.IsMerchantLike(node) {
			continue
		}
		if !fanIn && h.IsPayrollLike(node) {
			continue
		}
		var edges []Edge
		if fanIn {
			edges = g.InEdges(node)
		} else {
			edges = g.OutEdges(node)
		}
		if len(edges) < cfg.SmurfMinCounterparties {
			continue
		}
		if ring, ok := slideForFanThreshold(g, node, edges, cfg, fanIn); ok {
			rings = append(rings, ring)
		}
	}
	return rings
}

// slideForFanThreshold walks edges (already ascending by timestamp) with a
// two-pointer window of width cfg.SmurfWindow, maintaining a counterparty
// frequency map incrementally so each edge is processed in amortized O(1).
func slideForFanThreshold(g *Graph, center int32, edges []Edge, cfg DetectorConfig, fanIn bool) (CycleRing, bool) {
	counterparty := func(e Edge) int32 {
		if fanIn {
			return e.From
		}
		return e.To
	}

	freq := make(map[int32]int)
	left := 0
	for right := 0; right < len(edges); right++ {
		cp := counterparty(edges[right])
		freq[cp]++

		for edges[right].Timestamp.Sub(edges[left].Timestamp) > cfg.SmurfWindow {
			leftCP := counterparty(edges[left])
			freq[leftCP]--
			if freq[leftCP] == 0 {
				delete(freq, leftCP)
			}
			left++
		}

		if len(freq) >= cfg.SmurfMinCounterparties {
			members := make([]string, 0, len(freq)+1)
			for cp := range freq {
				members = append(members, g.AccountID(cp))
			}
			sort.Strings(members)
			members = append([]string{g.AccountID(center)}, members...)
			return CycleRing{Members: members, RiskScore: cfg.SmurfRiskScore}, true
		}
	}
	return CycleRing{}, false
}

// SmurfRing pairs a detected ring with its direction-specific pattern type.
type SmurfRing struct {
	Ring    CycleRing
	Pattern PatternType
}

// DetectSmurf runs both the fan-in and fan-out smurf detectors.
func DetectSmurf(g *Graph, h *Heuristics, cfg DetectorConfig) []SmurfRing {
	var out []SmurfRing
	for _, r := range detectSmurfDirection(g, h, cfg, true) {
		out = append(out, SmurfRing{Ring: r, Pattern: PatternSmurfFanIn})
	}
	for _, r := range detectSmurfDirection(g, h, cfg, false) {
		out = append(out, SmurfRing{Ring: r, Pattern: PatternSmurfFanOut})
	}
	return out
}
