package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sidlawliet/whiteroom-mentor/internal/activity"
	"github.com/sidlawliet/whiteroom-mentor/internal/app"
	"github.com/sidlawliet/whiteroom-mentor/internal/chat"
	"github.com/sidlawliet/whiteroom-mentor/internal/config"
	"github.com/sidlawliet/whiteroom-mentor/internal/httpapi"
	"github.com/sidlawliet/whiteroom-mentor/internal/httpapi/handlers"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("[api] startup: %v", err)
	}
	defer a.Close()

	// the activity table lives next to the session records when both use gorm
	var act *activity.Repo
	if a.DB != nil {
		act = activity.NewRepo(a.DB)
		if err := act.Migrate(); err != nil {
			log.Fatalf("[api] migrate activity: %v", err)
		}
	}

	hub := chat.NewHub(func() *chat.Controller { return a.NewController(nil) })
	r := httpapi.NewRouter(handlers.NewHandler(cfg, hub, act))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[api] listening on :%s storage=%s provider=%s", cfg.Port, cfg.StorageBackend, cfg.AIProvider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[api] serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("[api] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[api] shutdown: %v", err)
	}
}
