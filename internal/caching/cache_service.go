package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type CacheService interface {
	// Identity provider management tokens, keyed by audience
	GetManagementToken(ctx context.Context, audience string) (string, error)
	SetManagementToken(ctx context.Context, audience, token string, ttl time.Duration) error
	DeleteManagementToken(ctx context.Context, audience string) error

	// Permission names per identity reference
	GetPermissions(ctx context.Context, identityRef string) ([]string, bool, error)
	SetPermissions(ctx context.Context, identityRef string, permissions []string, ttl time.Duration) error
	InvalidatePermissions(ctx context.Context, identityRef string) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	Ping(ctx context.Context) error
	Close() error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// accept redis://host:port as well as host:port
	parsedAddr := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		slog.Warn("redis ping failed on initialization", "address", parsedAddr, "error", pingErr)
	} else {
		slog.Info("redis connection established", "address", parsedAddr)
	}

	return &redisCacheService{client: client}
}

func tokenKey(audience string) string {
	return fmt.Sprintf("bizmanager:idp-token:%s", audience)
}

func permissionsKey(identityRef string) string {
	return fmt.Sprintf("bizmanager:permissions:%s", identityRef)
}

func (r *redisCacheService) GetManagementToken(ctx context.Context, audience string) (string, error) {
	val, err := r.client.Get(ctx, tokenKey(audience)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil // cache miss
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) SetManagementToken(ctx context.Context, audience, token string, ttl time.Duration) error {
	return r.client.Set(ctx, tokenKey(audience), token, ttl).Err()
}

func (r *redisCacheService) DeleteManagementToken(ctx context.Context, audience string) error {
	return r.client.Del(ctx, tokenKey(audience)).Err()
}

func (r *redisCacheService) GetPermissions(ctx context.Context, identityRef string) ([]string, bool, error) {
	data, err := r.client.Get(ctx, permissionsKey(identityRef)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var permissions []string
	if err := json.Unmarshal(data, &permissions); err != nil {
		return nil, false, err
	}
	return permissions, true, nil
}

func (r *redisCacheService) SetPermissions(ctx context.Context, identityRef string, permissions []string, ttl time.Duration) error {
	if permissions == nil {
		permissions = []string{}
	}
	data, err := json.Marshal(permissions)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, permissionsKey(identityRef), data, ttl).Err()
}

func (r *redisCacheService) InvalidatePermissions(ctx context.Context, identityRef string) error {
	return r.client.Del(ctx, permissionsKey(identityRef)).Err()
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := fmt.Sprintf("bizmanager:ratelimit:%s", key)
	count, err := r.client.Incr(ctx, cacheKey).Result()
	if err != nil {
		return false, err
	}

	// first hit in the window starts the expiry; a counter without one
	// would never reset
	if count == 1 {
		if err := r.client.Expire(ctx, cacheKey, window).Err(); err != nil {
			r.client.Del(ctx, cacheKey)
			return false, fmt.Errorf("set rate limit window: %w", err)
		}
	}

	return count > int64(limit), nil
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisCacheService) Close() error {
	return r.client.Close()
}
