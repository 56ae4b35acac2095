package engine

import (
	"math"
	"time"
)

// Heuristics caches the merchant-like/payroll-like classification for every
// account in a graph, computed once after the graph is built.
type Heuristics struct {
	merchant []bool
	payroll  []bool
}

// BuildHeuristics evaluates the merchant-like and payroll-like predicates for
// every node in g, per the thresholds in cfg.
func BuildHeuristics(g *Graph, cfg DetectorConfig) *Heuristics {
	n := g.NodeCount()
	h := &Heuristics{
		merchant: make([]bool, n),
		payroll:  make([]bool, n),
	}
	for node := int32(0); node < int32(n); node++ {
		h.merchant[node] = isMerchantLike(g, node, cfg)
		h.payroll[node] = isPayrollLike(g, node, cfg)
	}
	return h
}

// IsMerchantLike reports whether node should be suppressed from smurf fan-in.
func (h *Heuristics) IsMerchantLike(node int32) bool { return h.merchant[node] }

// IsPayrollLike reports whether node should be suppressed from smurf fan-out.
func (h *Heuristics) IsPayrollLike(node int32) bool { return h.payroll[node] }

func isMerchantLike(g *Graph, node int32, cfg DetectorConfig) bool {
	in := g.InEdges(node)
	if len(in) < cfg.MerchantTxCountThreshold {
		return false
	}
	amounts := make([]float64, len(in))
	for i, e := range in {
		amounts[i] = e.Amount
	}
	if coefficientOfVariation(amounts) > cfg.MerchantAmountCVThreshold {
		return false
	}
	spanDays := daysBetween(in[0].Timestamp, in[len(in)-1].Timestamp)
	return spanDays >= cfg.MerchantMinObservationDays
}

func isPayrollLike(g *Graph, node int32, cfg DetectorConfig) bool {
	out := g.OutEdges(node)
	if len(out) < cfg.PayrollTxCountThreshold {
		return false
	}
	amounts := make([]float64, len(out))
	for i, e := range out {
		amounts[i] = e.Amount
	}
	if coefficientOfVariation(amounts) > cfg.PayrollAmountCVThreshold {
		return false
	}
	dates := make(map[string]struct{}, len(out))
	for _, e := range out {
		dates[e.Timestamp.UTC().Format("2006-01-02")] = struct{}{}
	}
	return len(dates) >= cfg.PayrollMinPayDates
}

// coefficientOfVariation is population standard deviation divided by the
// mean. For a degenerate sample (fewer than 2 values, or a zero mean) it
// returns +Inf, so a caller's "CV <= threshold" check is always false and
// the merchant/payroll predicate fails without a special case at every call
// site.
func coefficientOfVariation(amounts []float64) float64 {
	if len(amounts) < 2 {
		return math.Inf(1)
	}
	mean := 0.0
	for _, a := range amounts {
		mean += a
	}
	mean /= float64(len(amounts))
	if mean == 0 {
		return math.Inf(1)
	}
	var sumSq float64
	for _, a := range amounts {
		d := a - mean
		sumSq += d * d
	}
	stddev := math.Sqrt(sumSq / float64(len(amounts)))
	return stddev / mean
}

func daysBetween(earliest, latest time.Time) int {
	return int(latest.Sub(earliest).Hours() / 24)
}
