package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"cartorio/pkg/database"
	"cartorio/process/sanitize"
)

func main() {
	var opts sanitize.Options
	flag.BoolVar(&opts.DryRun, "dry-run", true, "don't perform destructive actions; show what would be done")
	flag.BoolVar(&opts.Yes, "yes", false, "confirm destructive action (required to actually truncate)")
	flag.BoolVar(&opts.Reseed, "reseed", false, "after truncation, reseed the default payment types")
	flag.Parse()

	ctx := context.Background()
	gdb, _ := database.MustOpenFromEnv(ctx)
	defer database.Close(gdb)

	if err := sanitize.Run(ctx, gdb, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "sanitize failed: %v\n", err)
		os.Exit(1)
	}
}
