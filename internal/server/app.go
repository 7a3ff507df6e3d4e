// Package server initializes and runs the journal server: configuration,
// database, identity key, services, the HTTP endpoint, and graceful
// shutdown.
package server

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/DAC098/TJ2-sub001/internal/filex"
	"github.com/DAC098/TJ2-sub001/internal/keys"
	"github.com/DAC098/TJ2-sub001/internal/logging"
	"github.com/DAC098/TJ2-sub001/internal/server/config"
	"github.com/DAC098/TJ2-sub001/internal/server/httpapi"
	"github.com/DAC098/TJ2-sub001/internal/server/repositories/repomanager"
	"github.com/DAC098/TJ2-sub001/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	filesDir, err := filex.EnsureDir(cfg.DataDir, "files")
	if err != nil {
		return nil, err
	}

	serverKey, err := loadOrGenerateKey(cfg)
	if err != nil {
		return nil, fmt.Errorf("server key error: %w", err)
	}

	authService := services.NewAuthService(db, m, serverKey, cfg)
	syncService := services.NewSyncService(db, m, logger, filesDir)
	storageService := services.NewStorageService(db, m, cfg)

	server := httpapi.NewServer(cfg.EndpointAddr, logger, authService, syncService, storageService, cfg.RequestTimeout)

	return &App{config: cfg, logger: logger, db: db, server: server}, nil
}

// loadOrGenerateKey reads the server's identity key, creating a fresh one on
// first start.
func loadOrGenerateKey(cfg *config.Config) (*keys.PrivateKey, error) {
	path := cfg.PrivateKeyFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.DataDir, path)
	}

	key, err := keys.Load(path)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	key, err = keys.Generate(rand.Reader)
	if err != nil {
		return nil, err
	}
	if err := key.Save(path, false); err != nil {
		return nil, err
	}
	return key, nil
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

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}
