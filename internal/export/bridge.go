package export

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/finflow/muleguard/internal/engine"
)

// Bridge persists an engine.GraphPayload and its accompanying fraud rings
// into a graph store, for a downstream visualization layer that is out of
// scope for this module. Nothing in internal/engine calls Bridge; a caller
// (typically the API's POST /analyze handler, whenever cmd/server has
// configured a bridge) invokes it after Analyze returns.
type Bridge struct {
	client  Client
	workers int
}

// NewBridge wraps client in a Bridge that runs up to 4 concurrent
// ExecuteWrite calls in each phase of Push (nodes, edges, rings); use
// WithWorkers to change that number.
func NewBridge(client Client) *Bridge {
	return &Bridge{client: client, workers: 4}
}

// WithWorkers overrides the concurrency used by Push. Present mainly for
// tests that want to force sequential execution (workers=1) to make
// ExecuteWrite call order deterministic.
func (b *Bridge) WithWorkers(workers int) *Bridge {
	if workers > 0 {
		b.workers = workers
	}
	return b
}

// Push writes every node, then every edge, then every fraud ring. Nodes and
// edges within a phase are written concurrently across b.workers goroutines
// (edges MATCH their endpoint accounts, so the node phase must fully
// complete before the edge phase starts); rings are written last since they
// MATCH the accounts they name. Every MERGE is idempotent, so re-exporting
// the same analysis is safe, and a partial failure in one phase does not
// block the others from being retried independently.
func (b *Bridge) Push(ctx context.Context, payload engine.GraphPayload, rings []engine.FraudRing) error {
	if err := b.pushConcurrent(ctx, len(payload.Nodes), func(i int) error {
		return b.pushNode(ctx, payload.Nodes[i])
	}); err != nil {
		return err
	}

	if err := b.pushConcurrent(ctx, len(payload.Edges), func(i int) error {
		return b.pushEdge(ctx, payload.Edges[i])
	}); err != nil {
		return err
	}

	if err := b.pushConcurrent(ctx, len(rings), func(i int) error {
		return b.pushRing(ctx, rings[i])
	}); err != nil {
		return err
	}

	return nil
}

func (b *Bridge) pushNode(ctx context.Context, node engine.GraphNode) error {
	params := map[string]any{
		"accountId":        node.ID,
		"label":            node.Label,
		"suspicionScore":   node.SuspicionScore,
		"detectedPatterns": node.DetectedPatterns,
	}
	if _, err := b.client.ExecuteWrite(ctx, mergeAccountCypher, params); err != nil {
		return fmt.Errorf("merge account %s: %w", node.ID, err)
	}
	return nil
}

func (b *Bridge) pushEdge(ctx context.Context, edge engine.GraphEdge) error {
	params := map[string]any{
		"transactionId": edge.ID,
		"sourceId":      edge.Source,
		"targetId":      edge.Target,
		"amount":        edge.Amount,
		"timestamp":     edge.Timestamp.UTC().Format("2006-01-02T15:04:05.999999999Z07:00"),
	}
	if _, err := b.client.ExecuteWrite(ctx, mergeTransactionCypher, params); err != nil {
		return fmt.Errorf("merge transaction %s: %w", edge.ID, err)
	}
	return nil
}

func (b *Bridge) pushRing(ctx context.Context, ring engine.FraudRing) error {
	params := map[string]any{
		"ringId":         ring.RingID,
		"patternType":    string(ring.PatternType),
		"riskScore":      ring.RiskScore,
		"memberAccounts": ring.MemberAccounts,
	}
	if _, err := b.client.ExecuteWrite(ctx, mergeFraudRingCypher, params); err != nil {
		return fmt.Errorf("merge fraud ring %s: %w", ring.RingID, err)
	}
	return nil
}

// pushError accumulates every failure from one phase of pushConcurrent, in
// the teacher's worker-pool idiom generalized from "ingest index i of a
// dataset" to "push index i of a payload phase".
type pushError struct {
	errs []error
}

func (e *pushError) Error() string {
	if len(e.errs) == 1 {
		return e.errs[0].Error()
	}
	msg := fmt.Sprintf("%d export writes failed:", len(e.errs))
	for _, err := range e.errs {
		msg += " " + err.Error() + ";"
	}
	return msg
}

// Unwrap exposes every accumulated error to errors.Is and errors.As.
func (e *pushError) Unwrap() []error {
	return e.errs
}

func (e *pushError) append(err error) {
	if err != nil {
		e.errs = append(e.errs, err)
	}
}

func (e *pushError) asError() error {
	if len(e.errs) == 0 {
		return nil
	}
	return e
}

func (b *Bridge) pushConcurrent(ctx context.Context, total int, writeFn func(i int) error) error {
	if total == 0 {
		return nil
	}

	indexCh := make(chan int)
	errCh := make(chan error, total)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for idx := range indexCh {
			if err := writeFn(idx); err != nil {
				select {
				case errCh <- err:
				case <-ctx.Done():
					return
				}
			}
		}
	}

	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go worker()
	}

feed:
	for i := 0; i < total; i++ {
		select {
		case indexCh <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(indexCh)
	wg.Wait()
	close(errCh)

	var accum pushError
	for err := range errCh {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		accum.append(err)
	}
	return accum.asError()
}

const mergeAccountCypher = `
MERGE (a:Account {accountId: $accountId})
SET a.label = $label,
    a.suspicionScore = $suspicionScore,
    a.detectedPatterns = $detectedPatterns
RETURN a.accountId AS accountId
`

const mergeTransactionCypher = `
MATCH (source:Account {accountId: $sourceId})
MATCH (target:Account {accountId: $targetId})
MERGE (t:Transaction {transactionId: $transactionId})
SET t.amount = $amount,
    t.timestamp = $timestamp
MERGE (source)-[st:SENT_TO {transactionId: $transactionId}]->(target)
SET st.amount = $amount,
    st.timestamp = $timestamp
RETURN t.transactionId AS transactionId
`

const mergeFraudRingCypher = `
MERGE (r:FraudRing {ringId: $ringId})
SET r.patternType = $patternType,
    r.riskScore = $riskScore
WITH r, $memberAccounts AS members
UNWIND members AS accountId
MATCH (a:Account {accountId: accountId})
MERGE (a)-[:MEMBER_OF]->(r)
RETURN r.ringId AS ringId
`
