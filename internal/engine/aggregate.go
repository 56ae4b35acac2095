package engine

import "sort"

// detectorRings bundles every ring found by the cycle, smurf, and shell
// detectors in the fixed order ring IDs are assigned in: cycle, smurf
// fan-in, smurf fan-out, shell.
type detectorRings struct {
	cycle       []CycleRing
	smurfFanIn  []CycleRing
	smurfFanOut []CycleRing
	shell       []CycleRing
}

// assignRingIDs numbers every ring R1, R2, ... in detector order, and within
// a detector by ascending minimum member account ID, per the spec's
// determinism requirement.
func assignRingIDs(d detectorRings) []FraudRing {
	type labeled struct {
		ring    CycleRing
		pattern PatternType
	}
	order := []labeled{}
	for _, group := range []struct {
		rings   []CycleRing
		pattern PatternType
	}{
		{d.cycle, PatternCycle},
		{d.smurfFanIn, PatternSmurfFanIn},
		{d.smurfFanOut, PatternSmurfFanOut},
		{d.shell, PatternShell},
	} {
		rings := append([]CycleRing(nil), group.rings...)
		sort.Slice(rings, func(i, j int) bool {
			return minMember(rings[i].Members) < minMember(rings[j].Members)
		})
		for _, r := range rings {
			order = append(order, labeled{ring: r, pattern: group.pattern})
		}
	}

	out := make([]FraudRing, len(order))
	for i, l := range order {
		out[i] = FraudRing{
			RingID:         ringID(i + 1),
			PatternType:    l.pattern,
			MemberAccounts: l.ring.Members,
			RiskScore:      l.ring.RiskScore,
		}
	}
	return out
}

func minMember(members []string) string {
	min := members[0]
	for _, m := range members[1:] {
		if m < min {
			min = m
		}
	}
	return min
}

func ringID(seq int) string {
	digits := []byte{}
	if seq == 0 {
		digits = append(digits, '0')
	}
	for seq > 0 {
		digits = append([]byte{byte('0' + seq%10)}, digits...)
		seq /= 10
	}
	return "R" + string(digits)
}

// aggregate combines the fraud rings and the high-velocity flag set into the
// per-account suspicion scores, per the scoring weights in cfg. The summary
// is built by the caller.
func aggregate(g *Graph, rings []FraudRing, highVelocity map[int32]bool, cfg DetectorConfig) ([]SuspiciousAccount, error) {
	type accumulator struct {
		score    int
		patterns []string
		ringID   string // first ring (in detector/assignment order) this account joined
	}
	acc := make(map[string]*accumulator)

	get := func(accountID string) *accumulator {
		a, ok := acc[accountID]
		if !ok {
			a = &accumulator{}
			acc[accountID] = a
		}
		return a
	}

	scoreFor := func(p PatternType) int {
		switch p {
		case PatternCycle:
			return cfg.ScoreCycle
		case PatternSmurfFanIn:
			return cfg.ScoreFanIn
		case PatternSmurfFanOut:
			return cfg.ScoreFanOut
		case PatternShell:
			return cfg.ScoreShell
		default:
			return 0
		}
	}

	for _, ring := range rings {
		for _, accountID := range ring.MemberAccounts {
			if _, ok := g.NodeIndex(accountID); !ok {
				return nil, invariantViolation("aggregate", "ring %s names account %q absent from the graph", ring.RingID, accountID)
			}
			a := get(accountID)
			a.score += scoreFor(ring.PatternType)
			a.patterns = append(a.patterns, string(ring.PatternType))
			if a.ringID == "" {
				a.ringID = ring.RingID
			}
		}
	}

	// High-velocity is a boost, not a standalone signal: it only applies to
	// accounts that already carry a positive score from another detector.
	for node := range highVelocity {
		a := get(g.AccountID(node))
		if a.score == 0 {
			continue
		}
		a.score += cfg.ScoreHighVelocity
		a.patterns = append(a.patterns, patternHighVelocity)
	}

	out := make([]SuspiciousAccount, 0, len(acc))
	for accountID, a := range acc {
		if a.score == 0 {
			continue
		}
		score := a.score
		if score > cfg.ScoreMax {
			score = cfg.ScoreMax
		}
		out = append(out, SuspiciousAccount{
			AccountID:        accountID,
			SuspicionScore:   score,
			DetectedPatterns: dedupPatterns(a.patterns),
			RingID:           a.ringID,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SuspicionScore != out[j].SuspicionScore {
			return out[i].SuspicionScore > out[j].SuspicionScore
		}
		return out[i].AccountID < out[j].AccountID
	})
	return out, nil
}

func dedupPatterns(patterns []string) []string {
	seen := make(map[string]bool, len(patterns))
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
