package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"cartorio/pkg/database"
	"cartorio/process/report"
)

func main() {
	month := flag.String("month", time.Now().Format("2006-01"), "month to report (YYYY-MM)")
	list := flag.Bool("list", false, "list matching payments")
	flag.Parse()

	ctx := context.Background()
	gdb, _ := database.MustOpenFromEnv(ctx)
	defer database.Close(gdb)

	if err := report.Run(ctx, gdb, *month, *list, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "report failed: %v\n", err)
		os.Exit(1)
	}
}
