package main

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/crypto/hkdf"

	"suarawarga/internal/config"
	"suarawarga/internal/logger"
	"suarawarga/internal/middleware"
	"suarawarga/internal/router"
	"suarawarga/internal/services"
)

func serveRun(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Logger)
	log.Info().Str("env", cfg.App.Environment).Str("driver", cfg.Store.Driver).Msg("starting " + programName)

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close store")
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc, err := services.New(st, services.OptionsFromConfig(cfg.Engine), log, registry)
	if err != nil {
		return err
	}

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	// Setup Sessions
	store, err := newSessionStore(cfg.Session)
	if err != nil {
		return err
	}
	r.Use(sessions.Sessions(cfg.Session.Name, store))
	r.Use(middleware.LoadWallet())

	pages := false
	if _, err := os.Stat(cfg.Server.TemplatesDir + "/layouts"); err == nil {
		r.HTMLRender = loadTemplates(cfg.Server.TemplatesDir)
		pages = true
	} else {
		log.Warn().Str("dir", cfg.Server.TemplatesDir).Msg("templates not found, HTML pages disabled")
	}

	router.RegisterRoutes(r, router.Deps{
		Services: svc,
		Store:    st,
		Gatherer: registry,
		SiteURL:  cfg.App.SiteURL,
		Pages:    pages,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      corsHandler(cfg.Server.CORSOrigins).Handler(r),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newSessionStore 从配置的密钥派生签名和加密两把 key
func newSessionStore(cfg config.SessionConfig) (cookie.Store, error) {
	kdf := hkdf.New(sha256.New, []byte(cfg.Secret), nil, []byte(programName+" session"))
	authKey := make([]byte, 32)
	encKey := make([]byte, 32)
	if _, err := io.ReadFull(kdf, authKey); err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}
	if _, err := io.ReadFull(kdf, encKey); err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}

	store := cookie.NewStore(authKey, encKey)
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

func corsHandler(origins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}
