package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tailtown/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "tailtown"

type CacheService interface {
	// Tenant resolution
	GetTenantBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error)
	GetTenantByID(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error)
	SetTenant(ctx context.Context, tenant *models.Tenant, ttl time.Duration) error
	DeleteTenant(ctx context.Context, tenant *models.Tenant) error

	// Import job status
	GetImportJob(ctx context.Context, tenantID, jobID uuid.UUID) (*models.ImportJob, error)
	SetImportJob(ctx context.Context, job *models.ImportJob, ttl time.Duration) error

	// Cache invalidation
	InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	ResetRateLimit(ctx context.Context, key string) error

	// Generic string operations for token management
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
	log    *zap.Logger
}

// NewRedisClient builds a client from an address that may carry a redis:// scheme.
func NewRedisClient(addr, password string, db int) *redis.Client {
	parsedAddr := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")
	return redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})
}

func NewRedisCacheService(client *redis.Client, log *zap.Logger) CacheService {
	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Warn("redis ping failed on initialization", zap.Error(pingErr), zap.String("addr", client.Options().Addr))
	}
	return &redisCacheService{client: client, log: log}
}

func tenantSubdomainKey(subdomain string) string {
	return fmt.Sprintf("%s:tenant:subdomain:%s", keyPrefix, subdomain)
}

func tenantIDKey(id uuid.UUID) string {
	return fmt.Sprintf("%s:tenant:id:%s", keyPrefix, id)
}

func importJobKey(tenantID, jobID uuid.UUID) string {
	return fmt.Sprintf("%s:import:%s:%s", keyPrefix, tenantID, jobID)
}

// getJSON returns (false, nil) on a cache miss.
func (r *redisCacheService) getJSON(ctx context.Context, key string, dest any) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (r *redisCacheService) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) GetTenantBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	var tenant models.Tenant
	ok, err := r.getJSON(ctx, tenantSubdomainKey(subdomain), &tenant)
	if err != nil || !ok {
		return nil, err
	}
	return &tenant, nil
}

func (r *redisCacheService) GetTenantByID(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	var tenant models.Tenant
	ok, err := r.getJSON(ctx, tenantIDKey(tenantID), &tenant)
	if err != nil || !ok {
		return nil, err
	}
	return &tenant, nil
}

// SetTenant stores the tenant under both its subdomain and its id.
func (r *redisCacheService) SetTenant(ctx context.Context, tenant *models.Tenant, ttl time.Duration) error {
	data, err := json.Marshal(tenant)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, tenantSubdomainKey(tenant.Subdomain), data, ttl)
	pipe.Set(ctx, tenantIDKey(tenant.ID), data, ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *redisCacheService) DeleteTenant(ctx context.Context, tenant *models.Tenant) error {
	return r.client.Del(ctx, tenantSubdomainKey(tenant.Subdomain), tenantIDKey(tenant.ID)).Err()
}

func (r *redisCacheService) GetImportJob(ctx context.Context, tenantID, jobID uuid.UUID) (*models.ImportJob, error) {
	var job models.ImportJob
	ok, err := r.getJSON(ctx, importJobKey(tenantID, jobID), &job)
	if err != nil || !ok {
		return nil, err
	}
	return &job, nil
}

func (r *redisCacheService) SetImportJob(ctx context.Context, job *models.ImportJob, ttl time.Duration) error {
	return r.setJSON(ctx, importJobKey(job.TenantID, job.ID), job, ttl)
}

// InvalidateTenantCache drops every per-tenant key. SCAN keeps Redis responsive on large keyspaces.
func (r *redisCacheService) InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error {
	pattern := fmt.Sprintf("%s:*:%s*", keyPrefix, tenantID)
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}
	return nil
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := fmt.Sprintf("%s:ratelimit:%s", keyPrefix, key)
	count, err := r.client.Incr(ctx, cacheKey).Result()
	if err != nil {
		return false, err
	}

	// Set expiry on first request
	if count == 1 {
		if err := r.client.Expire(ctx, cacheKey, window).Err(); err != nil {
			r.log.Warn("failed to set rate limit expiry", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	return count > int64(limit), nil
}

func (r *redisCacheService) ResetRateLimit(ctx context.Context, key string) error {
	return r.client.Del(ctx, fmt.Sprintf("%s:ratelimit:%s", keyPrefix, key)).Err()
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil // cache miss
	}
	return val, err
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
