// Package server initializes and runs the vault server: it wires the
// database, object store, content cipher, and token verifier into the
// services, runs schema migrations, and serves the HTTP API until the
// process is signalled to stop.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mediavault/mediavault/internal/cryptox"
	"github.com/mediavault/mediavault/internal/logging"
	"github.com/mediavault/mediavault/internal/server/auth"
	"github.com/mediavault/mediavault/internal/server/config"
	"github.com/mediavault/mediavault/internal/server/httpapi"
	"github.com/mediavault/mediavault/internal/server/objstore"
	"github.com/mediavault/mediavault/internal/server/repositories/repomanager"
	"github.com/mediavault/mediavault/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	handler http.Handler
}

func NewApp(c *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	if c.MasterKey == "" {
		return nil, errors.New("master key is not set")
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	store, err := objstore.NewS3Store(context.Background(), objstore.Config{
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		AccessKey:    c.S3AccessKey,
		SecretKey:    c.S3SecretKey,
		BaseEndpoint: c.S3BaseEndpoint,
		CDNDomain:    c.CDNDomain,
	})
	if err != nil {
		return nil, fmt.Errorf("object store init error: %w", err)
	}

	cipher := cryptox.NewCipher(c.MasterKey)
	verifier := auth.NewVerifier(auth.NewKeyCache(c.JWKSURL, c.JWKSCacheTTL), c.TokenIssuer, c.TokenAudience)

	handler := httpapi.NewRouter(&httpapi.Services{
		Files:          services.NewFileService(db, rm, store, cipher, c, logger),
		Albums:         services.NewAlbumService(db, rm, store, c, logger),
		Bin:            services.NewRecycleBinService(db, rm, store, logger),
		Users:          services.NewUserService(db, rm),
		Verifier:       verifier,
		MaxUploadBytes: c.MaxUploadBytes,
	})

	return &App{config: c, logger: logger, db: db, handler: handler}, nil
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

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	srv := &http.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: app.handler,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "server shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "addr", app.config.EndpointAddrHTTP)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
