// Package server initializes and runs the inventory server: it opens the
// database, applies migrations, and serves gRPC until the process is
// signalled.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/posmart/internal/logging"
	"github.com/dmitrijs2005/posmart/internal/server/auth"
	"github.com/dmitrijs2005/posmart/internal/server/config"
	"github.com/dmitrijs2005/posmart/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/posmart/internal/server/services"

	gs "github.com/dmitrijs2005/posmart/internal/server/grpc"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	inventory *services.InventoryService
}

// openDB is a seam for tests.
var openDB = repomanager.Open

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return &App{
		config:    c,
		logger:    logger,
		db:        db,
		inventory: services.NewInventoryService(db, rm, logger),
	}, nil
}

// IssueToken writes a store access token signed with the configured secret.
func IssueToken(w io.Writer, c *config.Config) error {
	if c.IssueStoreID == "" {
		return errors.New("store id is required")
	}
	token, err := auth.GenerateToken(c.IssueStoreID, []byte(c.SecretKey), c.AccessTokenValidityDuration)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, token)
	return err
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.inventory, app.config.SecretKey)
	runErr := s.Run(ctx)
	if runErr != nil {
		app.logger.Error(ctx, "gRPC server stopped", "error", runErr)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "failed to close database", "error", err)
	}
	return runErr
}
