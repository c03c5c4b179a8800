package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/posmart/internal/client/archive"
	"github.com/dmitrijs2005/posmart/internal/client/connectivity"
	"github.com/dmitrijs2005/posmart/internal/client/lifecycle"
)

func (a *App) Pending(ctx context.Context) error {
	pending, err := a.queue.ListPending(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		printlnFn("Nothing to sync")
		return nil
	}
	for _, tx := range pending {
		printlnFn(fmt.Sprintf("%s  %-6s %s", tx.CreatedAt.Local().Format(time.DateTime), tx.Type, tx.Key))
	}
	return nil
}

// Sync reconciles the queue now. It refuses while offline, since every
// delivery would fail and be retried anyway.
func (a *App) Sync(ctx context.Context) error {
	if a.monitor.Check(ctx) != connectivity.Online {
		printlnFn("Offline: sync postponed")
		return nil
	}

	res, err := a.reconciler.Reconcile(ctx)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Synced %d of %d pending transactions", res.Synced, res.Pending))
	return nil
}

func (a *App) Status(ctx context.Context) error {
	pending, err := a.queue.PendingCount(ctx)
	if err != nil {
		return err
	}

	printlnFn("Connection:", a.monitor.State())
	printlnFn("Pending:   ", pending)
	printlnFn("Cache:     ", valueOr(a.registry.Active(), "none"))
	if a.lifecycle != nil {
		if waiting := a.lifecycle.Waiting(); waiting != "" {
			printlnFn("Update:    ", waiting, "waiting")
		}
	}
	return nil
}

// Update installs a new cache version for the worker gateway.
func (a *App) Update(ctx context.Context) error {
	if a.worker == nil {
		printlnFn("Worker is not running")
		return nil
	}

	version, err := GetSimpleText(a.reader, "Version", a.out)
	if err != nil {
		return err
	}
	if version == "" {
		return errors.New("version is required")
	}

	generation := lifecycle.CacheName(a.config.AppName, version)
	installed, err := a.worker.Update(ctx, generation)
	if err != nil {
		return err
	}
	if !installed {
		printlnFn("Already on", generation)
		return nil
	}
	printlnFn("Installed", generation)
	return nil
}

func (a *App) Archive(ctx context.Context) error {
	res, err := a.archiver.Archive(ctx)
	if errors.Is(err, archive.ErrDisabled) {
		printlnFn("Archive is not configured")
		return nil
	}
	if err != nil {
		return err
	}
	if res.Archived == 0 {
		printlnFn("Nothing to archive")
		return nil
	}
	printlnFn(fmt.Sprintf("Archived %d transactions to %s", res.Archived, res.Object))
	return nil
}

func valueOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
