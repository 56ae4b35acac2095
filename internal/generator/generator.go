// Package generator produces synthetic transaction batches for local
// testing: a random noise floor plus deliberately injected fraud rings, in
// the format internal/ingest and internal/engine expect.
package generator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/finflow/muleguard/internal/engine"
)

// Generator produces synthetic transaction batches.
type Generator struct {
	cfg  Config
	rand *rand.Rand
}

// New returns a configured Generator instance. A non-positive NumAccounts or
// NumNoiseTransactions falls back to DefaultConfig; a zero Seed is replaced
// by the current time. The ring counts are used as given.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.NumAccounts <= 0 {
		cfg.NumAccounts = def.NumAccounts
	}
	if cfg.NumNoiseTransactions <= 0 {
		cfg.NumNoiseTransactions = def.NumNoiseTransactions
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:  cfg,
		rand: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Generate synthesizes a transaction batch. It respects context
// cancellation between injection stages.
func (g *Generator) Generate(ctx context.Context) ([]engine.TransactionRecord, error) {
	accounts := make([]string, g.cfg.NumAccounts)
	for i := range accounts {
		accounts[i] = fmt.Sprintf("ACC-%06d", i+1)
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	txSeq := 0
	nextTxID := func() string {
		txSeq++
		return fmt.Sprintf("TX-%07d", txSeq)
	}

	var records []engine.TransactionRecord

	for i := 0; i < g.cfg.NumNoiseTransactions; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		senderIdx := g.rand.Intn(len(accounts))
		receiverIdx := g.rand.Intn(len(accounts))
		if senderIdx == receiverIdx {
			receiverIdx = (receiverIdx + 1) % len(accounts)
		}
		records = append(records, engine.TransactionRecord{
			TransactionID: nextTxID(),
			SenderID:      accounts[senderIdx],
			ReceiverID:    accounts[receiverIdx],
			Amount:        50 + g.rand.Float64()*2000,
			Timestamp:     base.Add(time.Duration(g.rand.Intn(30*24*60)) * time.Minute),
		})
	}

	for i := 0; i < g.cfg.NumCycleRings; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records = append(records, g.injectCycle(fmt.Sprintf("CYCLE%d", i), nextTxID, base)...)
	}

	for i := 0; i < g.cfg.NumSmurfFanInRings; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records = append(records, g.injectSmurfFanIn(fmt.Sprintf("SMURF%d", i), nextTxID, base)...)
	}

	for i := 0; i < g.cfg.NumShellChains; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records = append(records, g.injectShellChain(fmt.Sprintf("SHELL%d", i), nextTxID, base)...)
	}

	for i := 0; i < g.cfg.NumHighVelocityAccounts; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records = append(records, g.injectHighVelocity(fmt.Sprintf("VELOCITY%d", i), nextTxID, base)...)
	}

	return records, nil
}

// injectCycle produces a minimal 3-hop A->B->C->A cycle with uniform
// amounts, well within the cycle detector's default 3-5 hop window.
func (g *Generator) injectCycle(prefix string, nextTxID func() string, base time.Time) []engine.TransactionRecord {
	a, b, c := prefix+"-A", prefix+"-B", prefix+"-C"
	amount := 500 + g.rand.Float64()*500
	return []engine.TransactionRecord{
		{TransactionID: nextTxID(), SenderID: a, ReceiverID: b, Amount: amount, Timestamp: base},
		{TransactionID: nextTxID(), SenderID: b, ReceiverID: c, Amount: amount, Timestamp: base.Add(time.Hour)},
		{TransactionID: nextTxID(), SenderID: c, ReceiverID: a, Amount: amount, Timestamp: base.Add(2 * time.Hour)},
	}
}

// injectSmurfFanIn sends from 12 distinct senders into one collector within
// an hour, comfortably over the default 10-counterparty threshold.
func (g *Generator) injectSmurfFanIn(prefix string, nextTxID func() string, base time.Time) []engine.TransactionRecord {
	const senders = 12
	collector := prefix + "-COLLECTOR"
	records := make([]engine.TransactionRecord, 0, senders)
	for i := 0; i < senders; i++ {
		records = append(records, engine.TransactionRecord{
			TransactionID: nextTxID(),
			SenderID:      fmt.Sprintf("%s-S%02d", prefix, i),
			ReceiverID:    collector,
			Amount:        200 + g.rand.Float64()*300,
			Timestamp:     base.Add(time.Duration(i) * 5 * time.Minute),
		})
	}
	return records
}

// injectShellChain produces a 3-hop low-activity chain source->m1->m2->sink,
// where the intermediates never touch any other account.
func (g *Generator) injectShellChain(prefix string, nextTxID func() string, base time.Time) []engine.TransactionRecord {
	source, m1, m2, sink := prefix+"-SRC", prefix+"-M1", prefix+"-M2", prefix+"-SINK"
	amount := 1000 + g.rand.Float64()*500
	return []engine.TransactionRecord{
		{TransactionID: nextTxID(), SenderID: source, ReceiverID: m1, Amount: amount, Timestamp: base},
		{TransactionID: nextTxID(), SenderID: m1, ReceiverID: m2, Amount: amount, Timestamp: base.Add(time.Hour)},
		{TransactionID: nextTxID(), SenderID: m2, ReceiverID: sink, Amount: amount, Timestamp: base.Add(2 * time.Hour)},
	}
}

// injectHighVelocity sends 40 transactions from one account to a single
// counterparty within an hour: over the default 30-transaction threshold by
// multiplicity but under the smurf fan-out counterparty-distinctness floor.
func (g *Generator) injectHighVelocity(prefix string, nextTxID func() string, base time.Time) []engine.TransactionRecord {
	const bursts = 40
	source, sink := prefix+"-SRC", prefix+"-SINK"
	records := make([]engine.TransactionRecord, 0, bursts)
	for i := 0; i < bursts; i++ {
		records = append(records, engine.TransactionRecord{
			TransactionID: nextTxID(),
			SenderID:      source,
			ReceiverID:    sink,
			Amount:        20 + g.rand.Float64()*30,
			Timestamp:     base.Add(time.Duration(i) * 90 * time.Second),
		})
	}
	return records
}
