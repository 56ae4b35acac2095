package engine

import (
	"testing"
	"time"
)

func tsAt(hour int) time.Time {
	return time.Date(2024, 1, 15, hour, 0, 0, 0, time.UTC)
}

func TestBuildGraphInternsNodesAndSortsEdgesByTimestamp(t *testing.T) {
	records := []TransactionRecord{
		{TransactionID: "T2", SenderID: "A", ReceiverID: "B", Amount: 10, Timestamp: tsAt(5)},
		{TransactionID: "T1", SenderID: "A", ReceiverID: "B", Amount: 10, Timestamp: tsAt(1)},
	}
	g := BuildGraph(records)

	if g.NodeCount() != 2 {
		t.Fatalf("NodeCount() = %d, want 2", g.NodeCount())
	}
	if g.EdgeCount() != 2 {
		t.Fatalf("EdgeCount() = %d, want 2", g.EdgeCount())
	}

	a, ok := g.NodeIndex("A")
	if !ok {
		t.Fatal("expected node A to be interned")
	}
	out := g.OutEdges(a)
	if len(out) != 2 || out[0].ID != "T1" || out[1].ID != "T2" {
		t.Fatalf("OutEdges(A) not sorted by timestamp: %+v", out)
	}
}

func TestSortedNodesOrdersByAccountID(t *testing.T) {
	records := []TransactionRecord{
		{TransactionID: "T1", SenderID: "Z", ReceiverID: "A", Amount: 1, Timestamp: tsAt(1)},
	}
	g := BuildGraph(records)
	nodes := g.SortedNodes()
	if g.AccountID(nodes[0]) != "A" || g.AccountID(nodes[1]) != "Z" {
		t.Fatalf("SortedNodes() not in account-ID order: %v, %v", g.AccountID(nodes[0]), g.AccountID(nodes[1]))
	}
}

func TestDistinctNeighborsDeduplicateMultiEdges(t *testing.T) {
	records := []TransactionRecord{
		{TransactionID: "T1", SenderID: "A", ReceiverID: "B", Amount: 1, Timestamp: tsAt(1)},
		{TransactionID: "T2", SenderID: "A", ReceiverID: "B", Amount: 2, Timestamp: tsAt(2)},
	}
	g := BuildGraph(records)
	a, _ := g.NodeIndex("A")
	if got := g.OutNeighbors(a); len(got) != 1 {
		t.Fatalf("OutNeighbors(A) = %v, want single distinct neighbor", got)
	}
	if got := len(g.OutEdges(a)); got != 2 {
		t.Fatalf("OutEdges(A) lost a multi-edge: got %d edges, want 2", got)
	}
}
