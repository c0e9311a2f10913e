package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Cheertaboi/offer-engine/internal/api"
	"github.com/Cheertaboi/offer-engine/internal/config"
	"github.com/Cheertaboi/offer-engine/internal/repository"
	"github.com/Cheertaboi/offer-engine/internal/repository/memory"
	"github.com/Cheertaboi/offer-engine/internal/service"
	"github.com/Cheertaboi/offer-engine/pkg/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer closeStore()

	svc := service.NewOfferService(store, service.Options{
		Workers:           cfg.Workers,
		CodeIssueAttempts: cfg.CodeIssueAttempts,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api.NewRouter(svc),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// graceful shutdown
	idleConnsClosed := make(chan struct{})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server Shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	log.Printf("starting offer-service on %s (store=%s)", cfg.HTTPAddr, cfg.Store)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("listen: %s\n", err)
	}

	<-idleConnsClosed
	log.Println("server stopped")
}

func openStore(ctx context.Context, cfg config.Config) (service.Store, func(), error) {
	if cfg.Store == config.StoreMemory {
		store := memory.NewStore()
		if cfg.OffersFile != "" {
			if err := store.LoadFile(cfg.OffersFile); err != nil {
				return nil, nil, err
			}
			log.Printf("loaded offers from %s", cfg.OffersFile)
		}
		return store, func() {}, nil
	}

	pgCfg, err := db.LoadPostgresConfig()
	if err != nil {
		return nil, nil, err
	}
	conn, err := db.NewPostgresConnection(ctx, pgCfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Migrate {
		if err := db.Migrate(ctx, conn); err != nil {
			conn.Close()
			return nil, nil, err
		}
		log.Println("schema migrated")
	}
	return repository.NewStore(conn), closer(conn), nil
}

func closer(conn *sql.DB) func() {
	return func() {
		if err := conn.Close(); err != nil {
			log.Printf("db close: %v", err)
		}
	}
}
