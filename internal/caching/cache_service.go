package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"stockpilot/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// CacheService fronts redis for the read paths that are expensive to
// recompute: product snapshots, reorder suggestion queries and dashboard
// metrics. A cache miss is (nil, nil), never an error.
type CacheService interface {
	// Product caching
	GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error)
	SetProduct(ctx context.Context, tenantID uuid.UUID, product *models.Product, ttl time.Duration) error
	DeleteProduct(ctx context.Context, tenantID, productID uuid.UUID) error

	// Reorder suggestion memoization, keyed by the option fingerprint.
	GetSuggestions(ctx context.Context, tenantID uuid.UUID, fingerprint string) ([]models.ReorderSuggestion, error)
	SetSuggestions(ctx context.Context, tenantID uuid.UUID, fingerprint string, suggestions []models.ReorderSuggestion, ttl time.Duration) error
	GetMLSuggestions(ctx context.Context, tenantID uuid.UUID, fingerprint string) ([]models.MLReorderSuggestion, error)
	SetMLSuggestions(ctx context.Context, tenantID uuid.UUID, fingerprint string, suggestions []models.MLReorderSuggestion, ttl time.Duration) error
	InvalidateSuggestions(ctx context.Context, tenantID uuid.UUID) error

	// Dashboard caching
	GetDashboard(ctx context.Context, tenantID uuid.UUID) (*models.DashboardMetrics, error)
	SetDashboard(ctx context.Context, tenantID uuid.UUID, metrics *models.DashboardMetrics, ttl time.Duration) error
	DeleteDashboard(ctx context.Context, tenantID uuid.UUID) error

	// Cache invalidation
	InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
	log    *logrus.Logger
}

func NewRedisCacheService(addr, password string, db int, log *logrus.Logger) CacheService {
	if log == nil {
		log = logrus.StandardLogger()
	}

	// Accept redis://host:port URLs as well as plain host:port.
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.WithError(pingErr).WithField("addr", parsedAddr).Warn("redis ping failed on initialization")
	} else {
		log.WithField("addr", parsedAddr).Debug("redis connection established")
	}

	return &redisCacheService{client: client, log: log}
}

func (r *redisCacheService) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error) {
	key := fmt.Sprintf("stockpilot:product:%s:%s", tenantID.String(), productID.String())
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var product models.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *redisCacheService) SetProduct(ctx context.Context, tenantID uuid.UUID, product *models.Product, ttl time.Duration) error {
	key := fmt.Sprintf("stockpilot:product:%s:%s", tenantID.String(), product.ID.String())
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeleteProduct(ctx context.Context, tenantID, productID uuid.UUID) error {
	key := fmt.Sprintf("stockpilot:product:%s:%s", tenantID.String(), productID.String())
	return r.client.Del(ctx, key).Err()
}

// GetSuggestions returns a memoized suggestion query result. A cached empty
// result round-trips as an empty, non-nil slice, so nil still means miss.
func (r *redisCacheService) GetSuggestions(ctx context.Context, tenantID uuid.UUID, fingerprint string) ([]models.ReorderSuggestion, error) {
	key := fmt.Sprintf("stockpilot:reorder:%s:base:%s", tenantID.String(), fingerprint)
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	suggestions := []models.ReorderSuggestion{}
	if err := json.Unmarshal(data, &suggestions); err != nil {
		return nil, err
	}
	return suggestions, nil
}

func (r *redisCacheService) SetSuggestions(ctx context.Context, tenantID uuid.UUID, fingerprint string, suggestions []models.ReorderSuggestion, ttl time.Duration) error {
	key := fmt.Sprintf("stockpilot:reorder:%s:base:%s", tenantID.String(), fingerprint)
	if suggestions == nil {
		suggestions = []models.ReorderSuggestion{}
	}
	data, err := json.Marshal(suggestions)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) GetMLSuggestions(ctx context.Context, tenantID uuid.UUID, fingerprint string) ([]models.MLReorderSuggestion, error) {
	key := fmt.Sprintf("stockpilot:reorder:%s:ml:%s", tenantID.String(), fingerprint)
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	suggestions := []models.MLReorderSuggestion{}
	if err := json.Unmarshal(data, &suggestions); err != nil {
		return nil, err
	}
	return suggestions, nil
}

func (r *redisCacheService) SetMLSuggestions(ctx context.Context, tenantID uuid.UUID, fingerprint string, suggestions []models.MLReorderSuggestion, ttl time.Duration) error {
	key := fmt.Sprintf("stockpilot:reorder:%s:ml:%s", tenantID.String(), fingerprint)
	if suggestions == nil {
		suggestions = []models.MLReorderSuggestion{}
	}
	data, err := json.Marshal(suggestions)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

// InvalidateSuggestions drops every memoized suggestion query for the
// tenant, across all option fingerprints. Called whenever stock or sales
// history changes underneath the engine.
func (r *redisCacheService) InvalidateSuggestions(ctx context.Context, tenantID uuid.UUID) error {
	pattern := fmt.Sprintf("stockpilot:reorder:%s:*", tenantID.String())
	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil {
		return err
	}

	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}
	return nil
}

func (r *redisCacheService) GetDashboard(ctx context.Context, tenantID uuid.UUID) (*models.DashboardMetrics, error) {
	key := fmt.Sprintf("stockpilot:dashboard:%s:metrics", tenantID.String())
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var metrics models.DashboardMetrics
	if err := json.Unmarshal(data, &metrics); err != nil {
		return nil, err
	}
	return &metrics, nil
}

func (r *redisCacheService) SetDashboard(ctx context.Context, tenantID uuid.UUID, metrics *models.DashboardMetrics, ttl time.Duration) error {
	key := fmt.Sprintf("stockpilot:dashboard:%s:metrics", tenantID.String())
	data, err := json.Marshal(metrics)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeleteDashboard(ctx context.Context, tenantID uuid.UUID) error {
	key := fmt.Sprintf("stockpilot:dashboard:%s:metrics", tenantID.String())
	return r.client.Del(ctx, key).Err()
}

// InvalidateTenantCache drops everything cached for one tenant. Used after
// bulk stock movements where per-key invalidation would be noisier than a
// clean slate.
func (r *redisCacheService) InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error {
	pattern := fmt.Sprintf("stockpilot:*:%s:*", tenantID.String())
	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil {
		return err
	}

	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}
	return nil
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
