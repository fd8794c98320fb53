package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"the-escrow-ledger/internal/config"
	"the-escrow-ledger/internal/database"
	"the-escrow-ledger/internal/domain"
	"the-escrow-ledger/internal/events"
	httpapi "the-escrow-ledger/internal/http"
	"the-escrow-ledger/internal/infrastructure/payment"
	"the-escrow-ledger/internal/logger"
	"the-escrow-ledger/internal/repo"
	"the-escrow-ledger/internal/service"
	"the-escrow-ledger/internal/worker"
)

func main() {
	cfg := config.Load()
	log, err := logger.Init(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if cfg.Logger.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eventLog := events.NewLog()
	ledger := payment.NewLedger()
	catalog := service.NewCatalog(domain.Identity(cfg.Owner), ledger, eventLog)
	app := &httpapi.App{Catalog: catalog, Funds: ledger, Events: eventLog}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Relay.Enabled {
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			zap.L().Fatal("database connect failed", zap.Error(err))
		}
		dbService := database.New(db, cfg.Database.Name)
		defer dbService.Close()
		app.DB = dbService

		journal := repo.NewJournalRepo(db)
		if err := journal.Migrate(ctx); err != nil {
			zap.L().Fatal("journal migration failed", zap.Error(err))
		}
		relay := worker.NewJournalRelay(eventLog, journal, cfg.Relay.Interval, cfg.Relay.Batch)
		g.Go(func() error { return relay.Run(ctx) })
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(app),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g.Go(func() error {
		zap.L().Info("http listen", zap.String("addr", cfg.HTTPAddr), zap.String("owner", cfg.Owner))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zap.L().Error("ledgerd stopped with error", zap.Error(err))
		return
	}
	zap.L().Info("ledgerd stopped")
}
