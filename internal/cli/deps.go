package cli

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/iliyamo/recipe-share/internal/config"
	"github.com/iliyamo/recipe-share/internal/database"
	"github.com/iliyamo/recipe-share/internal/mail"
	"github.com/iliyamo/recipe-share/internal/middleware"
	"github.com/iliyamo/recipe-share/internal/repository"
	"github.com/iliyamo/recipe-share/internal/router"
	"github.com/iliyamo/recipe-share/internal/service"
	"github.com/iliyamo/recipe-share/internal/storage"
	"github.com/iliyamo/recipe-share/internal/token"
)

// openDB connects to the configured database. Tests replace it.
var openDB = func(ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	return database.Open(ctx, database.Params{
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		Name: cfg.DBName,
	})
}

func closeDB(db *gorm.DB) {
	if err := database.Close(db); err != nil {
		log.Error().Err(err).Msg("close database")
	}
}

func newCodec(cfg config.Config) (*token.Codec, error) {
	return token.NewCodec(token.Options{
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	})
}

func newAuthService(cfg config.Config, db *gorm.DB, codec *token.Codec, mailer mail.Mailer) *service.AuthService {
	return service.NewAuthService(
		repository.NewUserRepo(db),
		repository.NewTokenRepo(db),
		repository.NewResetTokenRepo(db),
		codec,
		mailer,
		service.AuthOptions{
			BcryptCost: cfg.BcryptCost,
			FrontURL:   cfg.FrontURL,
			AppName:    cfg.Mail.FromName,
			ResetTTL:   cfg.ResetTokenTTL,
		},
	)
}

// buildDeps assembles the services behind the HTTP router. rdb may be nil.
func buildDeps(ctx context.Context, cfg config.Config, db *gorm.DB, rdb *redis.Client) (router.Deps, error) {
	codec, err := newCodec(cfg)
	if err != nil {
		return router.Deps{}, fmt.Errorf("token codec: %w", err)
	}
	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return router.Deps{}, err
	}
	mailer, err := mail.New(cfg.Mail, cfg.RabbitURL)
	if err != nil {
		return router.Deps{}, err
	}

	recipeRepo := repository.NewRecipeRepo(db)
	recipes := service.NewRecipeService(recipeRepo)
	users := service.NewUserService(repository.NewUserRepo(db), store)
	if rdb != nil && cfg.Cache.Enabled {
		prefix := cfg.Cache.Prefix
		purge := func(ctx context.Context) {
			if err := middleware.Purge(ctx, rdb, prefix); err != nil {
				log.Warn().Err(err).Msg("purge recipe cache")
			}
		}
		recipes.OnChange = purge
		users.OnChange = purge
	}

	return router.Deps{
		Cfg:       cfg,
		Auth:      newAuthService(cfg, db, codec, mailer),
		Recipes:   recipes,
		Favorites: service.NewFavoriteService(repository.NewFavoriteRepo(db), recipeRepo),
		Images:    service.NewImageService(repository.NewImageRepo(db), store, cfg.Storage.MaxImageBytes),
		Users:     users,
		Redis:     rdb,
		Metrics:   middleware.NewMetrics(),
	}, nil
}
