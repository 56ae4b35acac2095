package engine

import "time"

// DetectorConfig collects every tunable threshold used by the detectors and
// counter-heuristics. DefaultDetectorConfig returns the thresholds named
// explicitly in the specification; internal/config overrides them from
// environment variables for a running server.
type DetectorConfig struct {
	// Smurf detector.
	SmurfWindow            time.Duration
	SmurfMinCounterparties  int

	// Shell detector.
	ShellMinHops               int
	ShellMaxHops               int
	ShellMaxIntermediateTxCount int

	// High-velocity detector.
	HighVelocityWindow    time.Duration
	HighVelocityThreshold int

	// Cycle detector.
	MinCycleLength int
	MaxCycleLength int
	MaxSCCSize     int

	// Counter-heuristics.
	MerchantTxCountThreshold   int
	MerchantAmountCVThreshold  float64
	MerchantMinObservationDays int

	PayrollTxCountThreshold  int
	PayrollAmountCVThreshold float64
	PayrollMinPayDates       int

	// Scoring weights, aggregation.
	ScoreCycle        int
	ScoreFanIn        int
	ScoreFanOut       int
	ScoreShell        int
	ScoreHighVelocity int
	ScoreMax          int

	// Risk score formula bases.
	CycleRiskBase    int
	CycleRiskPerHop  int
	ShellRiskBase    int
	ShellRiskPerHop  int
	SmurfRiskScore   int
	RiskScoreCap     int
}

// DefaultDetectorConfig returns the thresholds specified by the money-mule
// detection spec.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		SmurfWindow:            72 * time.Hour,
		SmurfMinCounterparties: 10,

		ShellMinHops:                3,
		ShellMaxHops:                4,
		ShellMaxIntermediateTxCount: 3,

		HighVelocityWindow:    24 * time.Hour,
		HighVelocityThreshold: 30,

		MinCycleLength: 3,
		MaxCycleLength: 5,
		MaxSCCSize:     100,

		MerchantTxCountThreshold:   300,
		MerchantAmountCVThreshold:  0.30,
		MerchantMinObservationDays: 14,

		PayrollTxCountThreshold:  100,
		PayrollAmountCVThreshold: 0.20,
		PayrollMinPayDates:       3,

		ScoreCycle:        40,
		ScoreFanIn:        30,
		ScoreFanOut:       30,
		ScoreShell:        35,
		ScoreHighVelocity: 10,
		ScoreMax:          100,

		CycleRiskBase:   70,
		CycleRiskPerHop: 10,
		ShellRiskBase:   60,
		ShellRiskPerHop: 10,
		SmurfRiskScore:  75,
		RiskScoreCap:    100,
	}
}
