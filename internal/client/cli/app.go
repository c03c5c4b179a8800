package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/posmart/internal/client/archive"
	"github.com/dmitrijs2005/posmart/internal/client/cache"
	"github.com/dmitrijs2005/posmart/internal/client/client"
	"github.com/dmitrijs2005/posmart/internal/client/config"
	"github.com/dmitrijs2005/posmart/internal/client/connectivity"
	"github.com/dmitrijs2005/posmart/internal/client/interceptor"
	"github.com/dmitrijs2005/posmart/internal/client/lifecycle"
	"github.com/dmitrijs2005/posmart/internal/client/messages"
	"github.com/dmitrijs2005/posmart/internal/client/models"
	"github.com/dmitrijs2005/posmart/internal/client/queue"
	"github.com/dmitrijs2005/posmart/internal/client/reconcile"
	"github.com/dmitrijs2005/posmart/internal/client/repositories/products"
	"github.com/dmitrijs2005/posmart/internal/client/repositories/sales"
	"github.com/dmitrijs2005/posmart/internal/client/services"
	"github.com/dmitrijs2005/posmart/internal/client/storage"
	"github.com/dmitrijs2005/posmart/internal/client/worker"
	"github.com/dmitrijs2005/posmart/internal/common"
	"github.com/dmitrijs2005/posmart/internal/kv"
	"github.com/dmitrijs2005/posmart/internal/logging"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	remote client.Client

	inventory  services.InventoryService
	queue      *queue.Queue
	monitor    *connectivity.Monitor
	reconciler *reconcile.Reconciler
	sync       *reconcile.BackgroundSync
	bus        *messages.Bus
	registry   *cache.Registry
	lifecycle  *lifecycle.Manager
	transport  *interceptor.Transport
	worker     *worker.Worker
	archiver   *archive.Archiver

	reader *bufio.Reader
	out    io.Writer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewText(os.Stderr, c.LogLevel)

	db, err := storage.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	remote, err := client.NewInventoryClient(c.ServerEndpointAddr, c.AccessToken)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	store := kv.NewSQLiteStore(db, c.StorageQuotaBytes)
	q := queue.New(store)
	bus := messages.NewBus()
	monitor := connectivity.NewMonitor(remote, c.OnlineCheckInterval, logger)

	app := &App{
		config:   c,
		logger:   logger,
		db:       db,
		remote:   remote,
		queue:    q,
		monitor:  monitor,
		bus:      bus,
		registry: cache.NewRegistry(),
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}

	app.inventory = services.NewInventoryService(remote,
		products.NewKVRepository(store), sales.NewKVRepository(store), q, monitor, logger)

	app.reconciler = reconcile.New(q, logger, reconcile.NotifierFunc(app.publishProgress))
	app.reconciler.Register(common.TransactionTypeSale, reconcile.SaleDeliverer(remote))
	app.initBackgroundSync()

	monitor.OnTransition(app.onTransition)

	if err := app.initWorker(db); err != nil {
		_ = remote.Close()
		_ = db.Close()
		return nil, err
	}

	if err := app.initArchive(ctx); err != nil {
		_ = remote.Close()
		_ = db.Close()
		return nil, err
	}

	return app, nil
}

// initBackgroundSync registers the sync-sales tag. It shares a.reconciler
// with the "sync" command, and additionally hands the pending sales to
// connected pages.
func (a *App) initBackgroundSync() {
	notifier := reconcile.NotifierFunc(func(ctx context.Context, pending []models.QueuedTransaction) {
		a.publishProgress(ctx, pending)
		a.publish(ctx, messages.SyncOfflineSales, pending)
	})

	a.sync = reconcile.NewBackgroundSync(a.logger, a.config.SyncRetries, a.config.SyncRetryBase)
	a.sync.Register(common.SyncTagSales, func(ctx context.Context) error {
		res, err := a.reconciler.ReconcileNotify(ctx, notifier)
		if err != nil {
			return err
		}
		if res.Failed > 0 {
			return fmt.Errorf("%d of %d transactions not synced", res.Failed, res.Pending)
		}
		return nil
	})
}

func (a *App) initWorker(db *sql.DB) error {
	cacheStorage := cache.NewSQLiteStorage(db)
	var opts []interceptor.Option
	if a.config.CacheStatusHeader {
		opts = append(opts, interceptor.WithStatusHeader())
	}
	a.transport = interceptor.New(http.DefaultTransport, cache.New(cacheStorage, a.registry), a.logger, opts...)

	lm, err := lifecycle.New(lifecycle.Options{
		Storage:     cacheStorage,
		Registry:    a.registry,
		Bus:         a.bus,
		Origin:      a.config.AssetOrigin,
		Manifest:    lifecycle.DefaultManifest,
		SkipWaiting: true,
		Logger:      a.logger,
	})
	if err != nil {
		return err
	}
	a.lifecycle = lm

	generation := lifecycle.CacheName(a.config.AppName, a.config.CacheVersion)
	a.worker, err = worker.New(worker.Options{
		Address:        a.config.GatewayAddr,
		Origin:         a.config.AssetOrigin,
		Transport:      a.transport,
		Lifecycle:      lm,
		Bus:            a.bus,
		Sync:           a.sync,
		Version:        func(context.Context) (string, error) { return generation, nil },
		UpdateInterval: a.config.UpdateCheckInterval,
		Logger:         a.logger,
	})
	return err
}

func (a *App) initArchive(ctx context.Context) error {
	uploader, err := archive.NewS3Uploader(ctx, archive.S3Config{
		Bucket:       a.config.S3Bucket,
		Region:       a.config.S3Region,
		BaseEndpoint: a.config.S3BaseEndpoint,
		AccessKey:    a.config.S3AccessKey,
		SecretKey:    a.config.S3SecretKey,
	})
	switch {
	case errors.Is(err, archive.ErrDisabled):
		a.archiver = archive.New(a.queue, nil, a.config.ArchiveRetention, a.logger)
		return nil
	case err != nil:
		return fmt.Errorf("archive init: %w", err)
	}
	a.archiver = archive.New(a.queue, uploader, a.config.ArchiveRetention, a.logger)
	return nil
}

// onTransition publishes the new state to pages and, on reconnect, drains
// the queue in the background.
func (a *App) onTransition(ctx context.Context, _, to connectivity.State) {
	printlnFn("Switched to", to, "mode")

	if to == connectivity.Offline {
		a.publish(ctx, messages.Offline, nil)
		return
	}

	a.publish(ctx, messages.Online, nil)
	go a.syncInBackground(context.WithoutCancel(ctx))
}

func (a *App) syncInBackground(ctx context.Context) {
	if err := a.sync.Fire(ctx, common.SyncTagSales); err != nil {
		a.logger.Warn(ctx, "background sync failed", "error", err)
	}
}

func (a *App) publishProgress(ctx context.Context, pending []models.QueuedTransaction) {
	a.publish(ctx, messages.SyncProgress, messages.Progress{Count: len(pending)})
}

func (a *App) publish(ctx context.Context, t messages.Type, data any) {
	msg, err := messages.New(t, data)
	if err != nil {
		a.logger.Error(ctx, "failed to build message", "type", t, "error", err)
		return
	}
	a.bus.Publish(msg)
}

func (a *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (a *App) getStatus() string {
	s := string(a.monitor.State())
	if n, err := a.queue.PendingCount(context.Background()); err == nil && n > 0 {
		s = fmt.Sprintf("%s, %d pending", s, n)
	}
	return fmt.Sprintf("(%s)", s)
}

// Run starts the connectivity monitor and the worker gateway, then blocks
// in the REPL until the user exits or the process is signalled.
func (a *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	a.initSignalHandler(cancelFunc)

	printlnFn("Welcome to posmart (type 'help' for commands)")

	if a.monitor.Init(ctx) == connectivity.Online {
		if _, err := a.inventory.RefreshProducts(ctx); err != nil {
			a.logger.Warn(ctx, "initial product refresh failed", "error", err)
		}
		go a.syncInBackground(ctx)
	}

	if err := a.worker.Start(ctx); err != nil {
		a.logger.Warn(ctx, "worker install failed", "error", err)
	}

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		a.monitor.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := a.worker.Run(ctx); err != nil {
			a.logger.Error(ctx, "worker gateway stopped", "error", err)
		}
	}()

	go func() {
		runREPL(ctx, a, a.getStatus, a.reader)
		cancelFunc()
	}()

	<-ctx.Done()
	wg.Wait()
	a.close(ctx)
}

func (a *App) close(ctx context.Context) {
	a.transport.Wait()
	if err := a.remote.Close(); err != nil {
		a.logger.Warn(ctx, "failed to close client", "error", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn(ctx, "failed to close database", "error", err)
	}
}
