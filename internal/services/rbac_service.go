package services

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"bizmanager/internal/caching"
	"bizmanager/internal/repositories"
)

const permissionCacheTTL = 5 * time.Minute

type RBACService interface {
	UserHasPermission(ctx context.Context, identityRef, permissionName string) (bool, error)
	GetUserPermissions(ctx context.Context, identityRef string) ([]string, error)
	InvalidateUserPermissions(ctx context.Context, identityRef string)
}

type rbacService struct {
	permissionRepo repositories.PermissionRepository
	cache          caching.CacheService
	logger         *slog.Logger
}

// NewRBACService resolves permissions through the role tables. cache may be nil.
func NewRBACService(permissionRepo repositories.PermissionRepository, cache caching.CacheService, logger *slog.Logger) RBACService {
	return &rbacService{
		permissionRepo: permissionRepo,
		cache:          cache,
		logger:         logger,
	}
}

func (s *rbacService) UserHasPermission(ctx context.Context, identityRef, permissionName string) (bool, error) {
	perms, err := s.GetUserPermissions(ctx, identityRef)
	if err != nil {
		return false, err
	}
	return slices.Contains(perms, permissionName), nil
}

func (s *rbacService) GetUserPermissions(ctx context.Context, identityRef string) ([]string, error) {
	if s.cache != nil {
		perms, ok, err := s.cache.GetPermissions(ctx, identityRef)
		if err != nil {
			s.logger.WarnContext(ctx, "permission cache read failed", "identity_ref", identityRef, "error", err)
		} else if ok {
			return perms, nil
		}
	}

	perms, err := s.permissionRepo.ListForIdentity(ctx, identityRef)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetPermissions(ctx, identityRef, perms, permissionCacheTTL); err != nil {
			s.logger.WarnContext(ctx, "permission cache write failed", "identity_ref", identityRef, "error", err)
		}
	}
	return perms, nil
}

// InvalidateUserPermissions drops cached permissions, e.g. after the user is
// deleted.
func (s *rbacService) InvalidateUserPermissions(ctx context.Context, identityRef string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePermissions(ctx, identityRef); err != nil {
		s.logger.WarnContext(ctx, "permission cache invalidation failed", "identity_ref", identityRef, "error", err)
	}
}
