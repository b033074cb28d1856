package di

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"recommendation-service/configs"
	"recommendation-service/internal/cache"
	"recommendation-service/internal/engagement"
	"recommendation-service/internal/ratelimit"
	"recommendation-service/internal/recommend"
	"recommendation-service/internal/shared/redisx"
	"recommendation-service/pkg/db"
)

type Container struct {
	DB         *gorm.DB
	Redis      *redis.Client
	Cache      *cache.Cache
	Engagement engagement.Service
	Recommend  recommend.Service
	Limiter    *ratelimit.Limiter
}

func Build(cfg *configs.Config, log zerolog.Logger) (*Container, error) {
	conn, err := db.Open(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := conn.AutoMigrate(&engagement.InteractionSummary{}, &engagement.PostView{}); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	rdb := redisx.Open(cfg)

	engRepo := engagement.NewRepository(conn)
	engSvc := engagement.NewService(engRepo, log)

	recRepo := recommend.NewRepository(conn)
	recSvc := recommend.NewService(recRepo, log)

	return &Container{
		DB:         conn,
		Redis:      rdb,
		Cache:      cache.New(cfg.CacheMaxEntries, log),
		Engagement: engSvc,
		Recommend:  recSvc,
		Limiter:    ratelimit.New(rdb, log),
	}, nil
}
