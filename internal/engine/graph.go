package engine

import (
	"sort"
	"time"
)

// Edge is one transaction rendered as a directed multigraph edge. From/To are
// interned node indices rather than account ID strings, per the arena
// adjacency layout described by the design notes: this keeps every detector's
// hot path free of map/hash lookups once the graph is built.
type Edge struct {
	ID        string
	From      int32
	To        int32
	Amount    float64
	Timestamp time.Time
}

// Graph is a directed, time-stamped transaction multigraph over interned
// account IDs. It is built once by BuildGraph and is read-only afterwards: no
// exported method mutates it, so it can be shared by reference across the
// detectors that run concurrently against it.
type Graph struct {
	ids   []string       // dense node index -> account ID
	index map[string]int32 // account ID -> dense node index

	// outEdges[n]/inEdges[n] are node n's outbound/inbound edges, stable
	// sorted ascending by timestamp (ties preserve input order).
	outEdges [][]Edge
	inEdges  [][]Edge

	// outNeighbors[n]/inNeighbors[n] are the distinct successor/predecessor
	// node indices of n, ascending, used by the cycle detector's traversal.
	outNeighbors [][]int32
	inNeighbors  [][]int32

	edgeCount int
}

// BuildGraph consumes a finite sequence of transaction records and produces
// the transaction multigraph plus its per-account derived indices. Nodes are
// materialized on first sighting; edges are appended in input order.
func BuildGraph(records []TransactionRecord) *Graph {
	g := &Graph{index: make(map[string]int32, len(records)*2)}

	internAll := func(id string) int32 {
		if idx, ok := g.index[id]; ok {
			return idx
		}
		idx := int32(len(g.ids))
		g.index[id] = idx
		g.ids = append(g.ids, id)
		return idx
	}

	edges := make([]Edge, 0, len(records))
	for _, rec := range records {
		from := internAll(rec.SenderID)
		to := internAll(rec.ReceiverID)
		edges = append(edges, Edge{
			ID:        rec.TransactionID,
			From:      from,
			To:        to,
			Amount:    rec.Amount,
			Timestamp: rec.Timestamp,
		})
	}
	g.edgeCount = len(edges)

	n := len(g.ids)
	g.outEdges = make([][]Edge, n)
	g.inEdges = make([][]Edge, n)
	for _, e := range edges {
		g.outEdges[e.From] = append(g.outEdges[e.From], e)
		g.inEdges[e.To] = append(g.inEdges[e.To], e)
	}

	for i := 0; i < n; i++ {
		sort.SliceStable(g.outEdges[i], func(a, b int) bool {
			return g.outEdges[i][a].Timestamp.Before(g.outEdges[i][b].Timestamp)
		})
		sort.SliceStable(g.inEdges[i], func(a, b int) bool {
			return g.inEdges[i][a].Timestamp.Before(g.inEdges[i][b].Timestamp)
		})
	}

	g.outNeighbors = make([][]int32, n)
	g.inNeighbors = make([][]int32, n)
	for i := 0; i < n; i++ {
		g.outNeighbors[i] = distinctSorted(g.outEdges[i], func(e Edge) int32 { return e.To })
		g.inNeighbors[i] = distinctSorted(g.inEdges[i], func(e Edge) int32 { return e.From })
	}

	return g
}

func distinctSorted(edges []Edge, key func(Edge) int32) []int32 {
	seen := make(map[int32]struct{}, len(edges))
	out := make([]int32, 0, len(edges))
	for _, e := range edges {
		k := key(e)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NodeCount returns the number of distinct accounts seen in the batch.
func (g *Graph) NodeCount() int { return len(g.ids) }

// EdgeCount returns the total number of transaction edges in the batch.
func (g *Graph) EdgeCount() int { return g.edgeCount }

// AccountID resolves a dense node index back to its account ID string.
func (g *Graph) AccountID(node int32) string { return g.ids[node] }

// NodeIndex resolves an account ID to its dense node index.
func (g *Graph) NodeIndex(accountID string) (int32, bool) {
	idx, ok := g.index[accountID]
	return idx, ok
}

// SortedNodes returns every node index, ordered by ascending account ID, so
// that detectors iterating accounts produce reproducible ring numbering.
func (g *Graph) SortedNodes() []int32 {
	nodes := make([]int32, len(g.ids))
	for i := range nodes {
		nodes[i] = int32(i)
	}
	sort.Slice(nodes, func(i, j int) bool { return g.ids[nodes[i]] < g.ids[nodes[j]] })
	return nodes
}

// OutEdges returns node's outbound transactions, ascending by timestamp.
func (g *Graph) OutEdges(node int32) []Edge { return g.outEdges[node] }

// InEdges returns node's inbound transactions, ascending by timestamp.
func (g *Graph) InEdges(node int32) []Edge { return g.inEdges[node] }

// OutNeighbors returns node's distinct successor node indices, ascending.
func (g *Graph) OutNeighbors(node int32) []int32 { return g.outNeighbors[node] }

// InNeighbors returns node's distinct predecessor node indices, ascending.
func (g *Graph) InNeighbors(node int32) []int32 { return g.inNeighbors[node] }

// TotalDegree is in-degree plus out-degree, counted with multiplicity.
func (g *Graph) TotalDegree(node int32) int {
	return len(g.outEdges[node]) + len(g.inEdges[node])
}
