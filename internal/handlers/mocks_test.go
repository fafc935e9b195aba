package handlers

import (
	"context"
	"io"
	"time"

	"bizmanager/internal/jobs"
	"bizmanager/internal/jobs/background"
	"bizmanager/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Signup(ctx context.Context, identityRef string, req services.SignupRequest) (*services.SignupResponse, bool, error) {
	args := m.Called(ctx, identityRef, req)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*services.SignupResponse), args.Bool(1), args.Error(2)
}

func (m *MockUserService) GetUser(ctx context.Context, id uuid.UUID) (*services.UserResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.UserResponse), args.Error(1)
}

func (m *MockUserService) UpdateDemographics(ctx context.Context, id uuid.UUID, req services.UpdateDemographicsRequest) (*services.DemographicsResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.DemographicsResponse), args.Error(1)
}

func (m *MockUserService) MarkDeleted(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockBusinessService struct {
	mock.Mock
}

func (m *MockBusinessService) Create(ctx context.Context, req services.CreateBusinessRequest) (*services.BusinessResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.BusinessResponse), args.Error(1)
}

func (m *MockBusinessService) Get(ctx context.Context, id uuid.UUID) (*services.BusinessResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.BusinessResponse), args.Error(1)
}

func (m *MockBusinessService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*services.BusinessResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*services.BusinessResponse), args.Error(1)
}

func (m *MockBusinessService) Update(ctx context.Context, id uuid.UUID, req services.UpdateBusinessRequest) (*services.BusinessResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.BusinessResponse), args.Error(1)
}

func (m *MockBusinessService) MarkDeleted(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockInventoryService struct {
	mock.Mock
}

func (m *MockInventoryService) Add(ctx context.Context, businessID uuid.UUID, req services.InventoryItemRequest) (*services.InventoryItemResponse, error) {
	args := m.Called(ctx, businessID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.InventoryItemResponse), args.Error(1)
}

func (m *MockInventoryService) Get(ctx context.Context, id uuid.UUID) (*services.InventoryItemResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.InventoryItemResponse), args.Error(1)
}

func (m *MockInventoryService) ListForBusiness(ctx context.Context, businessID uuid.UUID) ([]*services.InventoryItemResponse, error) {
	args := m.Called(ctx, businessID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*services.InventoryItemResponse), args.Error(1)
}

func (m *MockInventoryService) Update(ctx context.Context, id uuid.UUID, req services.InventoryItemRequest) (*services.InventoryItemResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.InventoryItemResponse), args.Error(1)
}

func (m *MockInventoryService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInventoryService) UploadImage(ctx context.Context, id uuid.UUID, reader io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, id, reader, size, contentType)
	return args.Error(0)
}

func (m *MockInventoryService) ImageURL(ctx context.Context, id uuid.UUID) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
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

type MockJobRunner struct {
	mock.Mock
}

func (m *MockJobRunner) GetJobStatus() []background.JobStatus {
	args := m.Called()
	return args.Get(0).([]background.JobStatus)
}

func (m *MockJobRunner) RunNow(name string) error {
	args := m.Called(name)
	return args.Error(0)
}

type MockAlertChecker struct {
	mock.Mock
}

func (m *MockAlertChecker) CheckReorder(ctx context.Context) ([]jobs.InventoryAlert, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]jobs.InventoryAlert), args.Error(1)
}

func (m *MockAlertChecker) CheckExpiring(ctx context.Context, window time.Duration) ([]jobs.InventoryAlert, error) {
	args := m.Called(ctx, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]jobs.InventoryAlert), args.Error(1)
}
