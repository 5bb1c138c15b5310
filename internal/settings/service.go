package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RepositoryPort defines data access methods for tax settings.
type RepositoryPort interface {
	GetTaxSettings(ctx context.Context, ownerID int64) (SchemeConfig, error)
	UpsertTaxSettings(ctx context.Context, cfg SchemeConfig) error
}

// Service reads tax settings through a Redis cache. Settings change
// rarely and are read on every calculation, so a short TTL keeps the
// hot path off Postgres without risking a stale scheme for long.
type Service struct {
	repo   RepositoryPort
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewService constructs a settings Service. A nil cache client disables
// caching entirely.
func NewService(repo RepositoryPort, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

func cacheKey(ownerID int64) string {
	return fmt.Sprintf("settings:tax:%d", ownerID)
}

// TaxSettings returns the owner's scheme configuration, preferring the
// cache. Cache failures degrade to a direct store read.
func (s *Service) TaxSettings(ctx context.Context, ownerID int64) (SchemeConfig, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, cacheKey(ownerID)).Bytes()
		if err == nil {
			var cfg SchemeConfig
			if jsonErr := json.Unmarshal(raw, &cfg); jsonErr == nil {
				return cfg, nil
			}
		} else if !errors.Is(err, redis.Nil) && s.logger != nil {
			s.logger.Warn("settings cache read", slog.Any("error", err))
		}
	}

	cfg, err := s.repo.GetTaxSettings(ctx, ownerID)
	if err != nil {
		return SchemeConfig{}, err
	}

	if s.cache != nil {
		if raw, jsonErr := json.Marshal(cfg); jsonErr == nil {
			if err := s.cache.Set(ctx, cacheKey(ownerID), raw, s.ttl).Err(); err != nil && s.logger != nil {
				s.logger.Warn("settings cache write", slog.Any("error", err))
			}
		}
	}
	return cfg, nil
}

// UpdateTaxSettings persists new settings and drops the cached copy.
func (s *Service) UpdateTaxSettings(ctx context.Context, cfg SchemeConfig) error {
	if cfg.OwnerID == 0 {
		return errors.New("settings: owner id required")
	}
	if err := s.repo.UpsertTaxSettings(ctx, cfg); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Del(ctx, cacheKey(cfg.OwnerID)).Err(); err != nil && s.logger != nil {
			s.logger.Warn("settings cache invalidate", slog.Any("error", err))
		}
	}
	return nil
}
