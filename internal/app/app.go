// Package app wires configuration, connections, stores and services into
// the object graph shared by the API server and the booker CLI.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/pkordes/campsite-booking/internal/config"
	"github.com/pkordes/campsite-booking/internal/docstore"
	"github.com/pkordes/campsite-booking/internal/document"
	"github.com/pkordes/campsite-booking/internal/domain"
	"github.com/pkordes/campsite-booking/internal/repo"
	"github.com/pkordes/campsite-booking/internal/retry"
	"github.com/pkordes/campsite-booking/internal/service"
)

// App owns the live connections and the services built on them.
type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Inventory *domain.Inventory
	Bookings  *service.BookingService
	Summaries *service.SummaryService
	Campsites *service.CampsiteService

	pool      *pgxpool.Pool
	localPool *pgxpool.Pool
	mongo     *mongo.Client
}

// NewLogger returns a JSON slog.Logger writing to w at the named level;
// unknown levels fall back to info.
func NewLogger(w io.Writer, level string) *slog.Logger {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		logLevel = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

// New connects to Postgres and MongoDB and builds the services. The caller
// must Close the returned App.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	inventory, err := domain.NewInventory(domain.DefaultSiteClasses())
	if err != nil {
		return nil, fmt.Errorf("app.New: inventory: %w", err)
	}

	pool, err := openPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("app.New: head office: %w", err)
	}
	logger.Info("database connection established")

	var localPool *pgxpool.Pool
	if cfg.LocalDatabaseURL != "" {
		localPool, err = openPool(ctx, cfg.LocalDatabaseURL)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("app.New: local database: %w", err)
		}
		logger.Info("local database connection established")
	}
	closePools := func() {
		pool.Close()
		if localPool != nil {
			localPool.Close()
		}
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := docstore.Connect(connectCtx, cfg.MongoURI)
	if err != nil {
		closePools()
		return nil, fmt.Errorf("app.New: %w", err)
	}
	logger.Info("document store connection established", "database", cfg.MongoDatabase)

	db := client.Database(cfg.MongoDatabase)
	bookingStore := docstore.NewBookingStore(db)
	documentStore := docstore.NewDocumentStore(db)
	if err := docstore.EnsureIndexes(connectCtx, bookingStore, documentStore); err != nil {
		closePools()
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("app.New: %w", err)
	}

	policy := retry.Policy{MaxAttempts: cfg.RetryAttempts, Delay: cfg.RetryDelay, Logger: logger}
	bookings := docstore.WithRetry(bookingStore, policy)
	documents := docstore.DocumentsWithRetry(documentStore, policy)

	headOffice := repo.BookingsWithRetry(repo.NewBookingRepo(pool), policy)

	// Local first, then head office.
	var targets []service.SummaryTarget
	if localPool != nil {
		targets = append(targets, service.SummaryTarget{
			Name: "local",
			Sink: repo.SummariesWithRetry(repo.NewSummaryRepo(localPool), policy),
		})
	}
	targets = append(targets, service.SummaryTarget{
		Name: "head office",
		Sink: repo.SummariesWithRetry(repo.NewSummaryRepo(pool), policy),
	})

	generator := document.NewGenerator(cfg.PDFDir, documents, logger)

	processor := service.NewProcessor(inventory, service.NewEngine(cfg.MatchCampsiteSize), cfg.CampgroundID, service.ProcessorDeps{
		Sink:      bookings,
		Confirmer: generator,
		Assigner:  headOffice,
		Logger:    logger,
	})

	return &App{
		Config:    cfg,
		Logger:    logger,
		Inventory: inventory,
		Bookings:  service.NewBookingService(headOffice, cfg.SourceCampgroundID, processor, bookings, generator, logger),
		Summaries: service.NewSummaryService(inventory, cfg.CampgroundID, bookings, targets, generator, time.Now, logger),
		Campsites: service.NewCampsiteService(inventory),
		pool:      pool,
		localPool: localPool,
		mongo:     client,
	}, nil
}

// Close releases every connection.
func (a *App) Close(ctx context.Context) {
	if err := a.mongo.Disconnect(ctx); err != nil {
		a.Logger.Warn("document store disconnect failed", "error", err)
	}
	a.pool.Close()
	if a.localPool != nil {
		a.localPool.Close()
	}
}

// openPool creates a pool and pings it; pgxpool.New does not dial.
func openPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return pool, nil
}
