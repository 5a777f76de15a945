package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"cartorio/pkg/database"
	"cartorio/pkg/payments"
	"cartorio/pkg/receipts"
	"cartorio/process/orphans"
)

func main() {
	del := flag.Bool("delete", false, "remove orphaned receipt files")
	watch := flag.Bool("watch", false, "keep running and re-check whenever the receipts folder changes")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	gdb, cfg := database.MustOpenFromEnv(ctx)
	defer database.Close(gdb)
	store, err := receipts.NewStore(cfg.UploadBase)
	if err != nil {
		fmt.Fprintf(os.Stderr, "receipts dir: %v\n", err)
		os.Exit(1)
	}
	svc := payments.NewService(gdb)

	check := func() {
		if err := orphans.Run(ctx, svc, store, *del, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "check failed: %v\n", err)
		}
	}
	check()
	if !*watch {
		return
	}
	if err := orphans.Watch(ctx, store.Dir(), 300*time.Millisecond, check); err != nil {
		fmt.Fprintf(os.Stderr, "watch failed: %v\n", err)
		os.Exit(1)
	}
}
