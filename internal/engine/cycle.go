package engine

import "sort"

// CycleRing is one deduplicated cycle found by the cycle detector, before
// ring-ID assignment.
type CycleRing struct {
	Members   []string // directed order, first-seen during the DFS that found it
	RiskScore int
}

// DetectCycles finds every simple directed cycle of length between
// cfg.MinCycleLength and cfg.MaxCycleLength (inclusive), restricted to edges
// inside a single strongly connected component. Cycles are canonicalized by
// their sorted member-account-ID set so that the same cycle discovered from
// different starting nodes is reported once.
func DetectCycles(g *Graph, cfg DetectorConfig) ([]CycleRing, error) {
	sccs := tarjanSCC(g)

	seen := make(map[string]CycleRing)
	for _, scc := range sccs {
		if len(scc) < cfg.MinCycleLength {
			continue
		}
		if len(scc) > cfg.MaxSCCSize {
			continue
		}
		inSCC := make(map[int32]bool, len(scc))
		for _, n := range scc {
			inSCC[n] = true
		}
		for _, start := range scc {
			enumerateCycles(g, start, inSCC, cfg, seen)
		}
	}

	rings := make([]CycleRing, 0, len(seen))
	for _, r := range seen {
		if r.RiskScore > cfg.RiskScoreCap {
			return nil, invariantViolation("cycle", "risk score %d exceeds cap %d for ring %v", r.RiskScore, cfg.RiskScoreCap, r.Members)
		}
		rings = append(rings, r)
	}
	sort.Slice(rings, func(i, j int) bool {
		return canonicalKey(rings[i].Members) < canonicalKey(rings[j].Members)
	})
	return rings, nil
}

// enumerateCycles runs a bounded-depth DFS from start, following only edges
// whose endpoints both lie in inSCC, and records every simple cycle that
// returns to start with length between cfg.MinCycleLength and
// cfg.MaxCycleLength.
func enumerateCycles(g *Graph, start int32, inSCC map[int32]bool, cfg DetectorConfig, seen map[string]CycleRing) {
	path := []int32{start}
	onPath := map[int32]bool{start: true}

	var walk func(current int32)
	walk = func(current int32) {
		if len(path) > cfg.MaxCycleLength {
			return
		}
		for _, next := range g.OutNeighbors(current) {
			if !inSCC[next] {
				continue
			}
			if next == start {
				if len(path) >= cfg.MinCycleLength {
					recordCycle(g, path, cfg, seen)
				}
				continue
			}
			if onPath[next] || next < start {
				// next < start: this cycle will be (or was) enumerated in
				// full starting from its own smallest node, so skip it here
				// to avoid rediscovering the same simple cycle from every
				// member's DFS.
				continue
			}
			path = append(path, next)
			onPath[next] = true
			walk(next)
			onPath[next] = false
			path = path[:len(path)-1]
		}
	}
	walk(start)
}

func recordCycle(g *Graph, path []int32, cfg DetectorConfig, seen map[string]CycleRing) {
	members := make([]string, len(path))
	for i, n := range path {
		members[i] = g.AccountID(n)
	}
	key := canonicalKey(members)
	if _, ok := seen[key]; ok {
		return
	}
	hops := len(members)
	risk := cfg.CycleRiskBase + cfg.CycleRiskPerHop*(hops-cfg.MinCycleLength)
	if risk > cfg.RiskScoreCap {
		risk = cfg.RiskScoreCap
	}
	seen[key] = CycleRing{Members: append([]string(nil), members...), RiskScore: risk}
}

func canonicalKey(members []string) string {
	sorted := append([]string(nil), members...)
	sort.Strings(sorted)
	key := ""
	for _, m := range sorted {
		key += m + "\x00"
	}
	return key
}

// tarjanSCC computes strongly connected components with an explicit stack,
// avoiding recursion depth proportional to the input size.
func tarjanSCC(g *Graph) [][]int32 {
	n := g.NodeCount()
	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	visited := make([]bool, n)
	for i := range index {
		index[i] = -1
	}

	var stack []int32
	var sccs [][]int32
	nextIndex := 0

	type frame struct {
		node    int32
		child   int
		parent  int32
		hasParent bool
	}

	for root := int32(0); root < int32(n); root++ {
		if visited[root] {
			continue
		}
		var work []frame
		work = append(work, frame{node: root})

		for len(work) > 0 {
			top := &work[len(work)-1]
			v := top.node

			if !visited[v] {
				visited[v] = true
				index[v] = nextIndex
				lowlink[v] = nextIndex
				nextIndex++
				stack = append(stack, v)
				onStack[v] = true
			}

			neighbors := g.OutNeighbors(v)
			advanced := false
			for top.child < len(neighbors) {
				w := neighbors[top.child]
				top.child++
				if !visited[w] {
					work = append(work, frame{node: w, parent: v, hasParent: true})
					advanced = true
					break
				} else if onStack[w] {
					if index[w] < lowlink[v] {
						lowlink[v] = index[w]
					}
				}
			}
			if advanced {
				continue
			}

			// v is finished.
			if top.hasParent {
				if lowlink[v] < lowlink[top.parent] {
					lowlink[top.parent] = lowlink[v]
				}
			}
			if lowlink[v] == index[v] {
				var component []int32
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					component = append(component, w)
					if w == v {
						break
					}
				}
				sccs = append(sccs, component)
			}
			work = work[:len(work)-1]
			if len(work) > 0 {
				parent := &work[len(work)-1]
				if lowlink[v] < lowlink[parent.node] {
					lowlink[parent.node] = lowlink[v]
				}
			}
		}
	}
	return sccs
}
