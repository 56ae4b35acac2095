// Command analyze runs the fraud detection engine against a single CSV file
// and writes the indented JSON result to stdout. It has no server, no
// export step, and no flags beyond the input path, mirroring the teacher's
// single-purpose cmd/ingest tool.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/finflow/muleguard/internal/engine"
	"github.com/finflow/muleguard/internal/ingest"
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: analyze <transactions.csv>")
		os.Exit(2)
	}

	path := flag.Arg(0)
	file, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open %s: %v\n", path, err)
		os.Exit(1)
	}
	defer file.Close()

	records, err := ingest.Parse(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse %s: %v\n", path, err)
		os.Exit(1)
	}

	result, _, err := engine.Analyze(context.Background(), records, engine.DefaultDetectorConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write result: %v\n", err)
		os.Exit(1)
	}
}
