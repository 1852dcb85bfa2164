package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"meeting-tracker/internal/archive"
	"meeting-tracker/internal/client/gemini"
	"meeting-tracker/internal/config"
	apphttp "meeting-tracker/internal/http"
	"meeting-tracker/internal/repository/sqlite"
	"meeting-tracker/internal/service"
	"meeting-tracker/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatalf("auth jwt secret is required")
	}
	if strings.TrimSpace(cfg.Gemini.APIKey) == "" {
		logger.Fatalf("gemini api key is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	meetingRepo := sqlite.NewMeetingRepository(db)
	actionRepo := sqlite.NewActionItemRepository(db)

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := meetingRepo.Init(ctx); err != nil {
		logger.Fatalf("init meeting repository: %v", err)
	}
	if err := actionRepo.Init(ctx); err != nil {
		logger.Fatalf("init action item repository: %v", err)
	}

	userService := service.NewUserService(userRepo)
	meetingService := service.NewMeetingService(meetingRepo, actionRepo)

	insight := gemini.NewClient(gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		BaseURL: cfg.Gemini.BaseURL,
	})

	archiver, err := buildArchiver(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup export archive: %v", err)
	}
	if archiver != nil {
		archiver.Start(ctx)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(
		userService,
		meetingService,
		insight,
		archiver,
		logger,
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute,
	)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	if archiver != nil {
		archiver.Shutdown()
	}

	logger.Info("bye")
}

// buildArchiver returns nil when no storage bucket is configured; archiving
// is optional.
func buildArchiver(ctx context.Context, cfg config.Config, logger *logrus.Logger) (archive.Archiver, error) {
	if cfg.Storage.Bucket == "" {
		logger.Info("no storage bucket configured, export archiving disabled")
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("archiving exports to s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)

	store := storage.NewS3Service(client)
	return archive.NewArchiver(archive.Config{
		Bucket:    cfg.Storage.Bucket,
		KeyPrefix: cfg.Storage.KeyPrefix,
		Logger:    logger,
	}, store), nil
}
