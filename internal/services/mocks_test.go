package services

import (
	"context"
	"io"
	"time"

	"bizmanager/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByIdentityRef(ctx context.Context, ref models.IdentityRef) (*models.User, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateDemographics(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockUserRepository) MarkDeleted(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockIdentityProviderService struct {
	mock.Mock
}

func (m *MockIdentityProviderService) UpdateEmail(ctx context.Context, ref models.IdentityRef, email models.Email) error {
	args := m.Called(ctx, ref, email)
	return args.Error(0)
}

type MockRBACService struct {
	mock.Mock
}

func (m *MockRBACService) UserHasPermission(ctx context.Context, identityRef, permissionName string) (bool, error) {
	args := m.Called(ctx, identityRef, permissionName)
	return args.Bool(0), args.Error(1)
}

func (m *MockRBACService) GetUserPermissions(ctx context.Context, identityRef string) ([]string, error) {
	args := m.Called(ctx, identityRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRBACService) InvalidateUserPermissions(ctx context.Context, identityRef string) {
	m.Called(ctx, identityRef)
}

type MockBusinessRepository struct {
	mock.Mock
}

func (m *MockBusinessRepository) Create(ctx context.Context, business *models.Business) error {
	args := m.Called(ctx, business)
	return args.Error(0)
}

func (m *MockBusinessRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Business), args.Error(1)
}

func (m *MockBusinessRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Business, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Business), args.Error(1)
}

func (m *MockBusinessRepository) Update(ctx context.Context, business *models.Business) error {
	args := m.Called(ctx, business)
	return args.Error(0)
}

func (m *MockBusinessRepository) MarkDeleted(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockInventoryItemRepository struct {
	mock.Mock
}

func (m *MockInventoryItemRepository) Create(ctx context.Context, item *models.InventoryItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockInventoryItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InventoryItem), args.Error(1)
}

func (m *MockInventoryItemRepository) ListForBusiness(ctx context.Context, businessID uuid.UUID) ([]*models.InventoryItem, error) {
	args := m.Called(ctx, businessID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.InventoryItem), args.Error(1)
}

func (m *MockInventoryItemRepository) Update(ctx context.Context, item *models.InventoryItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockInventoryItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInventoryItemRepository) SetImageKey(ctx context.Context, id uuid.UUID, key string) error {
	args := m.Called(ctx, id, key)
	return args.Error(0)
}

func (m *MockInventoryItemRepository) ListBelowReorder(ctx context.Context) ([]*models.InventoryItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.InventoryItem), args.Error(1)
}

func (m *MockInventoryItemRepository) ListExpiringBefore(ctx context.Context, before time.Time) ([]*models.InventoryItem, error) {
	args := m.Called(ctx, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.InventoryItem), args.Error(1)
}

type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) PutImage(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, key, reader, size, contentType)
	return args.Error(0)
}

func (m *MockImageStore) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, key, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockImageStore) RemoveImage(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockImageStore) EnsureBucket(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetManagementToken(ctx context.Context, audience string) (string, error) {
	args := m.Called(ctx, audience)
	return args.String(0), args.Error(1)
}

func (m *MockCacheService) SetManagementToken(ctx context.Context, audience, token string, ttl time.Duration) error {
	args := m.Called(ctx, audience, token, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteManagementToken(ctx context.Context, audience string) error {
	args := m.Called(ctx, audience)
	return args.Error(0)
}

func (m *MockCacheService) GetPermissions(ctx context.Context, identityRef string) ([]string, bool, error) {
	args := m.Called(ctx, identityRef)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]string), args.Bool(1), args.Error(2)
}

func (m *MockCacheService) SetPermissions(ctx context.Context, identityRef string, permissions []string, ttl time.Duration) error {
	args := m.Called(ctx, identityRef, permissions, ttl)
	return args.Error(0)
}

func (m *MockCacheService) InvalidatePermissions(ctx context.Context, identityRef string) error {
	args := m.Called(ctx, identityRef)
	return args.Error(0)
}

func (m *MockCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCacheService) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockPermissionRepository struct {
	mock.Mock
}

func (m *MockPermissionRepository) ListForIdentity(ctx context.Context, ref string) ([]string, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
