package services

import (
	"context"
	"time"

	"infinite-experiment/hangar/internal/common"
	"infinite-experiment/hangar/internal/constants"
	"infinite-experiment/hangar/internal/logging"
	"infinite-experiment/hangar/internal/metrics"

	"golang.org/x/sync/singleflight"
)

// AdminLookup reads the admin flag from the pilots table.
type AdminLookup interface {
	IsAdmin(ctx context.Context, authUserID string) (bool, error)
}

// AdminService is the privileged role check. Results are cached for a short
// TTL and concurrent lookups for the same user share one query.
type AdminService struct {
	lookup  AdminLookup
	cache   common.CacheInterface
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.MetricsRegistry
}

func NewAdminService(lookup AdminLookup, cache common.CacheInterface, ttl time.Duration, metricsReg *metrics.MetricsRegistry) *AdminService {
	return &AdminService{
		lookup:  lookup,
		cache:   cache,
		ttl:     ttl,
		metrics: metricsReg,
	}
}

func adminKey(authUserID string) string {
	return string(constants.CachePrefixAdminRole) + authUserID
}

// IsAdmin never trusts token claims; the answer always comes from the store
// or from a recent cached copy of it.
func (s *AdminService) IsAdmin(ctx context.Context, authUserID string) (bool, error) {
	if authUserID == "" {
		return false, nil
	}

	key := adminKey(authUserID)
	if s.cache == nil {
		return s.load(ctx, key, authUserID)
	}

	missed := false
	v, err := s.cache.GetOrSet(ctx, key, s.ttl, func() (any, error) {
		missed = true
		return s.load(ctx, key, authUserID)
	})
	if err != nil {
		return false, err
	}
	s.count(!missed)

	isAdmin, ok := v.(bool)
	if !ok {
		logging.Warn("Replacing malformed cached admin flag", "auth_user_id", authUserID)
		if isAdmin, err = s.load(ctx, key, authUserID); err != nil {
			return false, err
		}
		s.cache.Set(ctx, key, isAdmin, s.ttl)
	}
	return isAdmin, nil
}

// load shares one store query between concurrent callers for the same user.
func (s *AdminService) load(ctx context.Context, key, authUserID string) (bool, error) {
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.lookup.IsAdmin(ctx, authUserID)
	})
	if err != nil {
		logging.Error("Admin lookup failed", "auth_user_id", authUserID, "error", err)
		return false, newServiceError(constants.ErrCodeDatabase, err)
	}
	return v.(bool), nil
}

// Invalidate drops the cached flag after an admin edit.
func (s *AdminService) Invalidate(ctx context.Context, authUserID string) {
	if s.cache == nil || authUserID == "" {
		return
	}
	s.cache.Delete(ctx, adminKey(authUserID))
}

func (s *AdminService) count(hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.CacheHitsTotal.WithLabelValues(string(constants.CachePrefixAdminRole)).Inc()
	} else {
		s.metrics.CacheMissesTotal.WithLabelValues(string(constants.CachePrefixAdminRole)).Inc()
	}
}
