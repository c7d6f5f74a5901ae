package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"espotifai/config"
	"espotifai/core/catalog"
	"espotifai/db"
	"espotifai/events"
	"espotifai/logger"
	"espotifai/metrics"
	"espotifai/repository"

	"github.com/gorilla/mux"
)

// NewRouter registers the catalog endpoints together with /health and /metrics.
func NewRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter().UseEncodedPath()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := router.NewRoute().Subrouter()
	api.Use(requestIDMiddleware, instrumentMiddleware, recoverMiddleware)

	// 艺术家
	api.HandleFunc("/artists", h.CreateArtistHandler).Methods(http.MethodPost)
	api.HandleFunc("/artists", h.GetArtistsHandler).Methods(http.MethodGet)
	api.HandleFunc("/artists/{id}", h.GetArtistHandler).Methods(http.MethodGet)
	api.HandleFunc("/artists/{id}", h.DeleteArtistHandler).Methods(http.MethodDelete)
	api.HandleFunc("/artists/{id}/albums", h.CreateAlbumHandler).Methods(http.MethodPost)
	api.HandleFunc("/artists/{id}/albums", h.GetArtistAlbumsHandler).Methods(http.MethodGet)
	api.HandleFunc("/artists/{id}/tracks", h.GetArtistTracksHandler).Methods(http.MethodGet)
	api.HandleFunc("/artists/{id}/albums/play", h.PlayArtistHandler).Methods(http.MethodPut)

	// 专辑
	api.HandleFunc("/albums", h.GetAlbumsHandler).Methods(http.MethodGet)
	api.HandleFunc("/albums/{id}", h.GetAlbumHandler).Methods(http.MethodGet)
	api.HandleFunc("/albums/{id}", h.DeleteAlbumHandler).Methods(http.MethodDelete)
	api.HandleFunc("/albums/{id}/tracks", h.CreateTrackHandler).Methods(http.MethodPost)
	api.HandleFunc("/albums/{id}/tracks", h.GetAlbumTracksHandler).Methods(http.MethodGet)
	api.HandleFunc("/albums/{id}/tracks/play", h.PlayAlbumHandler).Methods(http.MethodPut)

	// 歌曲
	api.HandleFunc("/tracks", h.GetTracksHandler).Methods(http.MethodGet)
	api.HandleFunc("/tracks/{id}", h.GetTrackHandler).Methods(http.MethodGet)
	api.HandleFunc("/tracks/{id}", h.DeleteTrackHandler).Methods(http.MethodDelete)
	api.HandleFunc("/tracks/{id}/play", h.PlayTrackHandler).Methods(http.MethodPut)

	return router
}

// NewHandler wraps the router with CORS so preflight requests are answered
// before route matching.
func NewHandler(h *APIHandler) http.Handler {
	return corsMiddleware(NewRouter(h))
}

// Start connects the store and optional Redis, serves HTTP and shuts down
// gracefully on SIGINT/SIGTERM.
func Start(cfg *config.Config) error {
	gormDB, err := db.ConnectGormDB(cfg.DB)
	if err != nil {
		return err
	}
	defer db.CloseGormDB(gormDB)

	if err := db.AutoMigrateModels(gormDB); err != nil {
		return err
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Redis.Enabled() {
		client, err := db.ConnectRedis(context.Background(), cfg.Redis)
		if err != nil {
			return err
		}
		defer db.CloseRedis(client)
		publisher = events.NewRedisPublisher(client, cfg.Redis.PlayChannel)
		logger.Info("Publishing play events",
			logger.String("redis", cfg.Redis.Addr()),
			logger.String("channel", cfg.Redis.PlayChannel),
		)
	}

	svc := catalog.NewService(repository.NewGormCatalogRepository(gormDB), cfg.BaseURL, publisher)

	// 设置服务器超时
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      NewHandler(NewAPIHandler(svc)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			logger.String("addr", server.Addr),
			logger.String("baseURL", cfg.BaseURL),
			logger.Bool("playEvents", cfg.Redis.Enabled()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-stop:
	}

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}
