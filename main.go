package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/camden-git/dancereg/config"
	"github.com/camden-git/dancereg/database"
	"github.com/camden-git/dancereg/forms"
	"github.com/camden-git/dancereg/handlers"
	"github.com/camden-git/dancereg/i18n"
	"github.com/camden-git/dancereg/logging"
	"github.com/camden-git/dancereg/media"
	"github.com/camden-git/dancereg/metadata"
	"github.com/camden-git/dancereg/realtime"
	"github.com/camden-git/dancereg/repository"
	"github.com/camden-git/dancereg/services"
	"github.com/camden-git/dancereg/workers"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	log := logging.Named("main")
	defer logging.Sync()

	if err := godotenv.Load(); err != nil {
		log.Info("no .env file loaded", zap.Error(err))
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	for _, p := range []string{cfg.ProfileImagesPath, cfg.ThumbnailsPath, filepath.Dir(cfg.DatabasePath)} {
		if err := os.MkdirAll(p, 0755); err != nil {
			log.Fatal("failed to create storage directory", zap.String("path", p), zap.Error(err))
		}
	}

	catalog, err := i18n.LoadDefault(cfg.DefaultLocale)
	if err != nil {
		log.Fatal("failed to load translations", zap.Error(err))
	}

	db, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	if err := database.AutoMigrateModels(db); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	profileSubDir := filepath.Base(cfg.ProfileImagesPath)
	thumbSubDir := filepath.Base(cfg.ThumbnailsPath)
	store, err := media.NewLocalStorage(cfg.MediaStoragePath, map[media.AssetType]string{
		media.AssetTypeProfileImage: profileSubDir,
		media.AssetTypeThumbnail:    thumbSubDir,
	})
	if err != nil {
		log.Fatal("failed to initialize media store", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := realtime.NewHub()
	go hub.Run(ctx)

	peopleRepo := repository.NewPersonRepository(db)
	thumbnails := workers.NewThumbnailGenerator(media.NewProcessor(store), store, peopleRepo, hub,
		cfg.ThumbnailMaxSize, cfg.ThumbnailQueueSize, cfg.NumThumbnailWorkers)
	defer thumbnails.Stop()

	extended, err := metadata.LoadExtendedConfig(cfg.PersonExtendedConfigPath)
	if err != nil {
		log.Fatal("failed to load extended person config", zap.Error(err))
	}
	if extended != nil {
		log.Info("using extended person config", zap.String("path", cfg.PersonExtendedConfigPath))
	}
	descriptor := metadata.NewPersonDescriptor(extended, metadata.ImageLimits{
		MinWidth:  cfg.ImageMinWidth,
		MinHeight: cfg.ImageMinHeight,
		MaxWidth:  cfg.ImageMaxWidth,
		MaxHeight: cfg.ImageMaxHeight,
	})

	people := services.NewPersonService(services.PersonDeps{
		People:        peopleRepo,
		Addresses:     repository.NewAddressRepository(db),
		Descriptor:    descriptor,
		Store:         store,
		Thumbnails:    thumbnails,
		Events:        hub,
		MaxUploadSize: cfg.MaxUploadSize,
	})
	users := services.NewUserService(repository.NewGormUserRepository(db), repository.NewGormGroupRepository(db), hub)

	renderer, err := forms.NewRenderer("/api", cfg.ThumbnailMaxSize)
	if err != nil {
		log.Fatal("failed to load form templates", zap.Error(err))
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		People:              &handlers.PersonHandler{Service: people, Forms: renderer, MaxUploadSize: cfg.MaxUploadSize},
		Users:               &handlers.UserHandler{Service: users, Forms: renderer},
		Catalog:             catalog,
		Store:               store,
		Events:              hub.ServeWS,
		ProfileImagesSubDir: profileSubDir,
		ThumbnailsSubDir:    thumbSubDir,
		AllowedOrigins:      cfg.AllowedOrigins,
	})

	log.Info("configuration",
		zap.String("database", cfg.DatabasePath),
		zap.String("media", cfg.MediaStoragePath),
		zap.Int("thumbnail_max_size", cfg.ThumbnailMaxSize),
		zap.Int64("max_upload_size", cfg.MaxUploadSize),
		zap.Strings("languages", catalog.Languages()))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	listenErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-listenErr:
		log.Error("listen failed", zap.Error(err))
	case <-stop:
		log.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}
	log.Info("server exited")
}
