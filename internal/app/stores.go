package app

import (
	"context"
	"fmt"

	"courtbook/internal/config"
	"courtbook/internal/database"
	"courtbook/internal/repository"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Stores holds the opened persistence layer. Users always live in SQL;
// bookings live in SQL or MongoDB, optionally behind a redis day cache.
type Stores struct {
	DB       *gorm.DB
	Users    *repository.UserRepository
	Bookings repository.BookingStore

	mongo *mongo.Client
	redis *redis.Client
	log   *zap.Logger
}

func OpenStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Stores, error) {
	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	s := &Stores{
		DB:    db,
		Users: repository.NewUserRepository(db),
		log:   log,
	}

	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, err := database.ConnectMongo(ctx, cfg.MongoURI, log)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.mongo = client

		repo := repository.NewMongoBookingRepository(client.Database(cfg.MongoDatabase))
		if err := repo.EnsureIndexes(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		s.Bookings = repo
	default:
		s.Bookings = repository.NewBookingRepository(db)
	}

	if cfg.RedisAddr != "" {
		client, err := database.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
		if err != nil {
			// The cache is optional; run against the store alone.
			log.Warn("redis unavailable, day cache disabled", zap.Error(err))
		} else {
			s.redis = client
			cache := repository.NewRedisDayCache(client, cfg.SnapshotCacheTTL)
			s.Bookings = repository.NewCachedBookingStore(s.Bookings, cache, log)
		}
	}

	log.Info("stores ready",
		zap.String("booking_store", cfg.StoreDriver),
		zap.Bool("day_cache", s.redis != nil))
	return s, nil
}

// Ping checks every backing store.
func (s *Stores) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("sql: %w", err)
	}
	if s.mongo != nil {
		if err := s.mongo.Ping(ctx, nil); err != nil {
			return fmt.Errorf("mongo: %w", err)
		}
	}
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (s *Stores) Close() {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.log.Warn("close redis", zap.Error(err))
		}
	}
	if s.mongo != nil {
		if err := s.mongo.Disconnect(context.Background()); err != nil {
			s.log.Warn("disconnect mongo", zap.Error(err))
		}
	}
	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
