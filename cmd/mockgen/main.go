package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"indent-mcp/cmd/mockgen/generator"
)

func main() {
	scenario := flag.String("scenario", "steady", "Scenario to generate: steady, sparse, drift")
	outDir := flag.String("out", "./data", "Output directory for the CSV files")
	centers := flag.Int("centers", 5, "Number of collection centers")
	days := flag.Int("days", 120, "Days of history before today")
	seed := flag.Uint64("seed", 1, "Random seed")
	aliases := flag.Bool("aliases", false, "Record the first center under a legacy code and write mapping.csv")
	flag.Parse()

	cfg := generator.GeneratorConfig{
		Scenario: *scenario,
		Centers:  *centers,
		Days:     *days,
		Seed:     *seed,
		Now:      time.Now(),
		Aliases:  *aliases,
	}

	fmt.Printf("Generating scenario '%s' (Centers: %d, Days: %d, Seed: %d) to %s...\n", cfg.Scenario, cfg.Centers, cfg.Days, cfg.Seed, *outDir)

	ds, err := generator.Generate(cfg)
	if err != nil {
		fmt.Printf("Failed to generate mock data: %v\n", err)
		os.Exit(1)
	}
	if err := generator.Save(*outDir, ds); err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Done: %d indents, %d purchases.\n", len(ds.Indents), len(ds.Purchases))
}
