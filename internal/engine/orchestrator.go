package engine

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"
)

// detectorError accumulates the errors produced by the concurrent detector
// fan-out in Analyze, in the style of the bulk-ingestion worker pool this
// package's orchestration is modeled on.
type detectorError struct {
	errs []error
}

func (e *detectorError) Error() string {
	if len(e.errs) == 1 {
		return e.errs[0].Error()
	}
	msg := "multiple detector errors:"
	for _, err := range e.errs {
		msg += " " + err.Error() + ";"
	}
	return msg
}

func (e *detectorError) append(err error) {
	if err != nil {
		e.errs = append(e.errs, err)
	}
}

func (e *detectorError) asError() error {
	if len(e.errs) == 0 {
		return nil
	}
	return e
}

// Analyze is the core entry point: it builds the transaction graph from
// records, runs the cycle, smurf, shell, and high-velocity detectors
// concurrently against the read-only graph, aggregates their output into
// suspicion scores and fraud rings, and renders the visualization-facing
// graph payload. It is stateless — nothing is persisted — and deterministic
// for a fixed input and configuration, aside from processing_time_seconds.
//
// An empty records slice is not an error: Analyze returns a zero-value
// result and payload with a zero summary.
func Analyze(ctx context.Context, records []TransactionRecord, cfg DetectorConfig) (AnalysisResult, GraphPayload, error) {
	start := time.Now()

	if len(records) == 0 {
		return AnalysisResult{Summary: Summary{}}, GraphPayload{}, nil
	}

	g := BuildGraph(records)
	h := BuildHeuristics(g, cfg)

	var (
		wg                         sync.WaitGroup
		cycles                     []CycleRing
		smurfs                     []SmurfRing
		shells                     []CycleRing
		highVelocity               map[int32]bool
		cycleErr                   error
	)
	derr := &detectorError{}
	var mu sync.Mutex

	run := func(fn func() error) {
		defer wg.Done()
		if err := fn(); err != nil {
			mu.Lock()
			derr.append(err)
			mu.Unlock()
		}
	}

	wg.Add(4)
	go run(func() error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		var err error
		cycles, err = DetectCycles(g, cfg)
		cycleErr = err
		return err
	})
	go run(func() error {
		smurfs = DetectSmurf(g, h, cfg)
		return nil
	})
	go run(func() error {
		shells = DetectShell(g, cfg)
		return nil
	})
	go run(func() error {
		highVelocity = DetectHighVelocity(g, cfg)
		return nil
	})
	wg.Wait()

	if err := derr.asError(); err != nil {
		return AnalysisResult{}, GraphPayload{}, err
	}
	if cycleErr != nil {
		return AnalysisResult{}, GraphPayload{}, cycleErr
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return AnalysisResult{}, GraphPayload{}, ctx.Err()
	}

	var fanIn, fanOut []CycleRing
	for _, s := range smurfs {
		if s.Pattern == PatternSmurfFanIn {
			fanIn = append(fanIn, s.Ring)
		} else {
			fanOut = append(fanOut, s.Ring)
		}
	}

	rings := assignRingIDs(detectorRings{
		cycle:       cycles,
		smurfFanIn:  fanIn,
		smurfFanOut: fanOut,
		shell:       shells,
	})

	accounts, err := aggregate(g, rings, highVelocity, cfg)
	if err != nil {
		return AnalysisResult{}, GraphPayload{}, err
	}

	result := AnalysisResult{
		SuspiciousAccounts: accounts,
		FraudRings:         rings,
		Summary: Summary{
			TotalAccountsAnalyzed:     g.NodeCount(),
			SuspiciousAccountsFlagged: len(accounts),
			FraudRingsDetected:        len(rings),
			ProcessingTimeSeconds:     math.Round(time.Since(start).Seconds()*1000) / 1000,
		},
	}

	payload := renderGraphPayload(g, accounts)
	return result, payload, nil
}

func renderGraphPayload(g *Graph, accounts []SuspiciousAccount) GraphPayload {
	byAccount := make(map[string]SuspiciousAccount, len(accounts))
	for _, a := range accounts {
		byAccount[a.AccountID] = a
	}

	nodes := make([]GraphNode, 0, g.NodeCount())
	for _, node := range g.SortedNodes() {
		id := g.AccountID(node)
		n := GraphNode{ID: id, Label: id}
		if a, ok := byAccount[id]; ok {
			n.SuspicionScore = a.SuspicionScore
			n.DetectedPatterns = a.DetectedPatterns
		}
		nodes = append(nodes, n)
	}

	edges := make([]GraphEdge, 0, g.EdgeCount())
	for _, node := range g.SortedNodes() {
		for _, e := range g.OutEdges(node) {
			edges = append(edges, GraphEdge{
				ID:        e.ID,
				Source:    g.AccountID(e.From),
				Target:    g.AccountID(e.To),
				Amount:    e.Amount,
				Timestamp: e.Timestamp,
			})
		}
	}

	return GraphPayload{Nodes: nodes, Edges: edges}
}
