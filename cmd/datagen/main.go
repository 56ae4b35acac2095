// Command datagen writes a synthetic transaction CSV: a random noise floor
// plus a configurable number of injected fraud rings of each pattern type,
// ready to feed into cmd/analyze or POST /analyze.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/finflow/muleguard/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		accounts     = flag.Int("accounts", cfg.NumAccounts, "number of accounts in the noise floor")
		noise        = flag.Int("noise-transactions", cfg.NumNoiseTransactions, "number of random noise transactions")
		cycles       = flag.Int("cycle-rings", cfg.NumCycleRings, "number of injected cycle rings")
		smurfFanIn   = flag.Int("smurf-rings", cfg.NumSmurfFanInRings, "number of injected smurf fan-in rings")
		shellChains  = flag.Int("shell-chains", cfg.NumShellChains, "number of injected shell layering chains")
		highVelocity = flag.Int("high-velocity-accounts", cfg.NumHighVelocityAccounts, "number of injected high-velocity accounts")
		seed         = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		outputPath   = flag.String("output", "data/transactions.csv", "path to write the generated CSV")
	)
	flag.Parse()

	genCfg := generator.Config{
		NumAccounts:             *accounts,
		NumNoiseTransactions:    *noise,
		NumCycleRings:           *cycles,
		NumSmurfFanInRings:      *smurfFanIn,
		NumShellChains:          *shellChains,
		NumHighVelocityAccounts: *highVelocity,
		Seed:                    *seed,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	gen := generator.New(genCfg)
	records, err := gen.Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if err := generator.WriteCSV(records, *outputPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write dataset: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d transactions into %s\n", len(records), *outputPath)
}
