package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skincheck.org/internal/account"
	"skincheck.org/internal/analysis"
	"skincheck.org/internal/config"
	"skincheck.org/internal/httpapi"
	"skincheck.org/internal/obs"
	"skincheck.org/internal/predict"
	"skincheck.org/internal/session"
	"skincheck.org/internal/stats"
	"skincheck.org/internal/store"
	"skincheck.org/internal/stream"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	cfg := config.Load()

	obs.Init()
	obs.InitBuildInfo(version, commit)

	st, err := store.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := st.EnsureSchema(ctx); err != nil {
		cancel()
		log.Fatalf("ensure schema: %v", err)
	}

	accounts := account.NewRepository(st.DB())
	if err := accounts.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		cancel()
		log.Fatalf("ensure admin account: %v", err)
	}
	cancel()

	sessions := session.NewManager(st.DB())
	analyses := analysis.NewRepository(st.DB())
	aggregator := stats.NewAggregator(st.DB(), analyses)
	events := stream.New()

	api := httpapi.New(httpapi.ReadyProbe{DB: st.DB()}, version, httpapi.Deps{
		Accounts:      accounts,
		Sessions:      sessions,
		Analyses:      analyses,
		Stats:         aggregator,
		Predict:       predict.Random,
		Events:        events,
		SecureCookies: cfg.SecureCookies,
		RateBurst:     cfg.RateBurst,
		RatePerSec:    cfg.RatePerSec,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting skincheck-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// Expired sessions are already filtered at lookup; the sweep is hygiene
	// so the table does not grow without bound.
	sweepDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sweepCtx, sweepCancel := context.WithTimeout(context.Background(), 10*time.Second)
				if n, err := sessions.SweepExpired(sweepCtx); err != nil {
					log.Printf("session sweep: %v", err)
				} else if n > 0 {
					log.Printf("session sweep removed %d expired sessions", n)
				}
				sweepCancel()
			case <-sweepDone:
				return
			}
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	close(sweepDone)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	_ = st.Close()
	log.Println("Stopped")
}
