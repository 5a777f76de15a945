package orphans

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"cartorio/pkg/payments"
	"cartorio/pkg/receipts"

	"github.com/fsnotify/fsnotify"
)

// Find returns receipt files on disk that no payment references.
func Find(ctx context.Context, svc *payments.Service, store *receipts.Store) ([]string, error) {
	refs, err := svc.ReceiptPaths(ctx)
	if err != nil {
		return nil, err
	}
	return store.Orphans(refs)
}

// Run prints the orphaned receipts and removes them when del is set.
func Run(ctx context.Context, svc *payments.Service, store *receipts.Store, del bool, out io.Writer) error {
	names, err := Find(ctx, svc, store)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(out, "no orphaned receipts")
		return nil
	}
	for _, n := range names {
		fmt.Fprintf(out, "orphan %s\n", receipts.RelPath(n))
	}
	if !del {
		fmt.Fprintf(out, "%d orphaned receipts; pass -delete to remove them\n", len(names))
		return nil
	}
	removed, err := store.Remove(names)
	if err != nil {
		return fmt.Errorf("remove orphans: %w", err)
	}
	fmt.Fprintf(out, "removed %d orphaned receipts\n", removed)
	return nil
}

// Watch calls fn after changes in dir settle for quiet, until ctx is done.
func Watch(ctx context.Context, dir string, quiet time.Duration, fn func()) error {
	if quiet <= 0 {
		quiet = 300 * time.Millisecond
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	slog.Info("watching receipts", "dir", dir)

	ticker := time.NewTicker(quiet / 2)
	defer ticker.Stop()
	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				last = time.Now()
			}
		case <-ticker.C:
			if !last.IsZero() && time.Since(last) > quiet { // stable
				last = time.Time{}
				fn()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "err", err)
		}
	}
}
