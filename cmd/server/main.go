package main

import (
	"context"
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

	"people-search/internal/config"
	apphttp "people-search/internal/http"
	"people-search/internal/ranking"
	"people-search/internal/repository/sqlite"
	"people-search/internal/search"
	"people-search/internal/service"
	"people-search/internal/storage"
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
	if strings.TrimSpace(cfg.Auth.RegisterSecret) == "" {
		logger.Fatalf("auth registration secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	relationRepo := sqlite.NewRelationRepository(db)

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := relationRepo.Init(ctx); err != nil {
		logger.Fatalf("init relation repository: %v", err)
	}

	avatars, err := buildAvatarResolver(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup avatar storage: %v", err)
	}

	searchSvc := search.NewService(userRepo, ranking.Scorer{}, avatars, logger)
	userSvc := service.NewUserService(userRepo, cfg.Auth.RegisterSecret)
	relationSvc := service.NewRelationService(userRepo, relationRepo)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(
		searchSvc,
		userSvc,
		relationSvc,
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute,
		logger,
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

	logger.Info("bye")
}

// buildAvatarResolver returns nil when no bucket is configured; avatar
// object keys then pass through unresolved.
func buildAvatarResolver(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.URLResolver, error) {
	if cfg.Avatars.Bucket == "" {
		logger.Info("avatar storage not configured, serving raw avatar values")
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Avatars.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Avatars.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Avatars.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("resolving avatars from s3 bucket %s (region %s)", cfg.Avatars.Bucket, cfg.Avatars.Region)
	return storage.NewS3Resolver(client, cfg.Avatars.Bucket, cfg.Avatars.KeyPrefix, time.Duration(cfg.Avatars.ExpireMinutes)*time.Minute), nil
}
