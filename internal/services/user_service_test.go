package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"bizmanager/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const testIdentityRef = "auth0|5f1b2c3d4e5f6a7b8c9d0e1f"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

func mustEmail(t *testing.T, address string) models.Email {
	t.Helper()
	e, err := models.NewEmail(address)
	require.NoError(t, err)
	return e
}

func newTestUser(t *testing.T, first, last, email string) *models.User {
	t.Helper()
	ref, err := models.NewIdentityRef(testIdentityRef)
	require.NoError(t, err)
	name, err := models.NewName(first, last)
	require.NoError(t, err)
	user, err := models.NewUser(uuid.New(), ref, name, mustEmail(t, email), time.Now().Add(-time.Hour), false, false)
	require.NoError(t, err)
	return user
}

type UserServiceTestSuite struct {
	suite.Suite
	userRepo *MockUserRepository
	idp      *MockIdentityProviderService
	rbac     *MockRBACService
	service  UserService
}

func (suite *UserServiceTestSuite) SetupTest() {
	suite.userRepo = new(MockUserRepository)
	suite.idp = new(MockIdentityProviderService)
	suite.rbac = new(MockRBACService)
	suite.service = NewUserService(suite.userRepo, suite.idp, suite.rbac,
		RollbackPolicy{MaxAttempts: 3, Delay: time.Millisecond, Timeout: time.Second}, discardLogger())
}

func (suite *UserServiceTestSuite) TearDownTest() {
	suite.userRepo.AssertExpectations(suite.T())
	suite.idp.AssertExpectations(suite.T())
	suite.rbac.AssertExpectations(suite.T())
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}

func (suite *UserServiceTestSuite) TestUpdateDemographics_UnchangedFieldsIsNoOp() {
	ctx := context.Background()
	user := newTestUser(suite.T(), "Jane", "Smith", "jane@x.com")
	suite.userRepo.On("GetByID", ctx, user.ID()).Return(user, nil)

	resp, err := suite.service.UpdateDemographics(ctx, user.ID(), UpdateDemographicsRequest{
		FirstName:    strPtr("Jane"),
		LastName:     strPtr(" Smith "),
		EmailAddress: strPtr("jane@x.com"),
	})

	suite.Require().NoError(err)
	suite.Equal(&DemographicsResponse{FirstName: "Jane", LastName: "Smith", EmailAddress: "jane@x.com"}, resp)
	suite.userRepo.AssertNotCalled(suite.T(), "UpdateDemographics", mock.Anything, mock.Anything)
	suite.idp.AssertNotCalled(suite.T(), "UpdateEmail", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *UserServiceTestSuite) TestUpdateDemographics_AbsentFieldsKeepCurrentValues() {
	ctx := context.Background()
	user := newTestUser(suite.T(), "Jane", "Smith", "jane@x.com")
	suite.userRepo.On("GetByID", ctx, user.ID()).Return(user, nil)

	resp, err := suite.service.UpdateDemographics(ctx, user.ID(), UpdateDemographicsRequest{
		FirstName:    nil,
		LastName:     strPtr("   "),
		EmailAddress: strPtr(""),
	})

	suite.Require().NoError(err)
	suite.Equal("Smith", resp.LastName)
	suite.userRepo.AssertNotCalled(suite.T(), "UpdateDemographics", mock.Anything, mock.Anything)
}

func (suite *UserServiceTestSuite) TestUpdateDemographics_LastNameOnlySkipsIdentityProvider() {
	ctx := context.Background()
	user := newTestUser(suite.T(), "Jane", "Smith", "jane@x.com")
	suite.userRepo.On("GetByID", ctx, user.ID()).Return(user, nil)
	suite.userRepo.On("UpdateDemographics", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Name().Last() == "Doe" && u.Email().String() == "jane@x.com"
	})).Return(nil).Once()

	resp, err := suite.service.UpdateDemographics(ctx, user.ID(), UpdateDemographicsRequest{
		FirstName:    strPtr("Jane"),
		LastName:     strPtr("Doe"),
		EmailAddress: strPtr("jane@x.com"),
	})

	suite.Require().NoError(err)
	suite.Equal(&DemographicsResponse{FirstName: "Jane", LastName: "Doe", EmailAddress: "jane@x.com"}, resp)
	suite.idp.AssertNotCalled(suite.T(), "UpdateEmail", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *UserServiceTestSuite) TestUpdateDemographics_EmailChangeUpdatesIdentityProviderFirst() {
	ctx := context.Background()
	user := newTestUser(suite.T(), "Jane", "Smith", "jane@x.com")
	newEmail := mustEmail(suite.T(), "jane.doe@x.com")

	var order []string
	suite.userRepo.On("GetByID", ctx, user.ID()).Return(user, nil)
	suite.idp.On("UpdateEmail", ctx, user.IdentityRef(), newEmail).
		Run(func(mock.Arguments) { order = append(order, "idp") }).Return(nil).Once()
	suite.userRepo.On("UpdateDemographics", ctx, user).
		Run(func(mock.Arguments) { order = append(order, "db") }).Return(nil).Once()

	resp, err := suite.service.UpdateDemographics(ctx, user.ID(), UpdateDemographicsRequest{
		EmailAddress: strPtr("jane.doe@x.com"),
	})

	suite.Require().NoError(err)
	suite.Equal("jane.doe@x.com", resp.EmailAddress)
	suite.Equal([]string{"idp", "db"}, order)
}

func (suite *UserServiceTestSuite) TestUpdateDemographics_IdentityProviderFailureNeverPersists() {
	ctx := context.Background()
	user := newTestUser(suite.T(), "Jane", "Smith", "jane@x.com")
	suite.userRepo.On("GetByID", ctx, user.ID()).Return(user, nil)
	suite.idp.On("UpdateEmail", ctx, user.IdentityRef(), mock.Anything).
		Return(models.NewTransientError("identity provider returned status 503", nil)).Once()

	resp, err := suite.service.UpdateDemographics(ctx, user.ID(), UpdateDemographicsRequest{
		FirstName:    strPtr("Janet"),
		EmailAddress: strPtr("janet@x.com"),
	})

	suite.Nil(resp)
	suite.Equal(models.KindIdentityProviderFailed, models.KindOf(err))
	suite.userRepo.AssertNumberOfCalls(suite.T(), "UpdateDemographics", 0)
	suite.Equal("Jane", user.Name().First(), "local entity must stay untouched")
	suite.Equal("jane@x.com", user.Email().String())
}

func (suite *UserServiceTestSuite) TestUpdateDemographics_PersistenceFailureWithoutEmailChange() {
	ctx := context.Background()
	user := newTestUser(suite.T(), "Jane", "Smith", "jane@x.com")
	suite.userRepo.On("GetByID", ctx, user.ID()).Return(user, nil)
	suite.userRepo.On("UpdateDemographics", ctx, user).Return(errors.New("connection reset")).Once()

	_, err := suite.service.UpdateDemographics(ctx, user.ID(), UpdateDemographicsRequest{LastName: strPtr("Doe")})

	suite.Equal(models.KindPersistenceFailed, models.KindOf(err))
	suite.idp.AssertNotCalled(suite.T(), "UpdateEmail", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *UserServiceTestSuite) TestUpdateDemographics_RollbackRevertsToPreviousEmail() {
	ctx := context.Background()
	user := newTestUser(suite.T(), "Jane", "Smith", "jane@x.com")
	previous := mustEmail(suite.T(), "jane@x.com")
	next := mustEmail(suite.T(), "jane.doe@x.com")
	persistErr := models.NewPersistenceError("update user demographics", errors.New("deadlock detected"))

	suite.userRepo.On("GetByID", ctx, user.ID()).Return(user, nil)
	suite.idp.On("UpdateEmail", ctx, user.IdentityRef(), next).Return(nil).Once()
	suite.userRepo.On("UpdateDemographics", ctx, user).Return(persistErr).Once()
	suite.idp.On("UpdateEmail", mock.Anything, user.IdentityRef(), previous).
		Return(errors.New("timeout")).Once()
	suite.idp.On("UpdateEmail", mock.Anything, user.IdentityRef(), previous).
		Return(nil).Once()

	resp, err := suite.service.UpdateDemographics(ctx, user.ID(), UpdateDemographicsRequest{
		EmailAddress: strPtr("jane.doe@x.com"),
	})

	suite.Nil(resp)
	suite.Equal(models.KindPersistenceFailed, models.KindOf(err))
	suite.Contains(err.Error(), "identity provider email was reverted")
	suite.ErrorIs(err, persistErr)
	suite.idp.AssertNumberOfCalls(suite.T(), "UpdateEmail", 3)
}

func (suite *UserServiceTestSuite) TestUpdateDemographics_RollbackGivesUpAfterMaxAttempts() {
	ctx := context.Background()
	user := newTestUser(suite.T(), "Jane", "Smith", "jane@x.com")
	previous := mustEmail(suite.T(), "jane@x.com")
	next := mustEmail(suite.T(), "jane.doe@x.com")
	lastIdPErr := models.NewTransientError("identity provider returned status 500", nil)

	suite.userRepo.On("GetByID", ctx, user.ID()).Return(user, nil)
	suite.idp.On("UpdateEmail", ctx, user.IdentityRef(), next).Return(nil).Once()
	suite.userRepo.On("UpdateDemographics", ctx, user).Return(errors.New("disk full")).Once()
	suite.idp.On("UpdateEmail", mock.Anything, user.IdentityRef(), previous).Return(lastIdPErr).Times(3)

	_, err := suite.service.UpdateDemographics(ctx, user.ID(), UpdateDemographicsRequest{
		EmailAddress: strPtr("jane.doe@x.com"),
	})

	suite.Require().Error(err)
	suite.Equal(models.KindRollbackFailed, models.KindOf(err))
	suite.ErrorIs(err, models.ErrRollbackFailed)
	suite.NotErrorIs(err, models.ErrPersistenceFailed)
	suite.ErrorIs(err, lastIdPErr)
	suite.idp.AssertNumberOfCalls(suite.T(), "UpdateEmail", 4)
}

func (suite *UserServiceTestSuite) TestUpdateDemographics_RollbackSurvivesRequestCancellation() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	user := newTestUser(suite.T(), "Jane", "Smith", "jane@x.com")
	previous := mustEmail(suite.T(), "jane@x.com")

	suite.userRepo.On("GetByID", ctx, user.ID()).Return(user, nil)
	suite.idp.On("UpdateEmail", ctx, user.IdentityRef(), mustEmail(suite.T(), "new@x.com")).Return(nil).Once()
	suite.userRepo.On("UpdateDemographics", ctx, user).
		Run(func(mock.Arguments) { cancel() }).
		Return(errors.New("client went away")).Once()
	suite.idp.On("UpdateEmail", mock.MatchedBy(func(c context.Context) bool { return c.Err() == nil }),
		user.IdentityRef(), previous).Return(nil).Once()

	_, err := suite.service.UpdateDemographics(ctx, user.ID(), UpdateDemographicsRequest{
		EmailAddress: strPtr("new@x.com"),
	})

	suite.Equal(models.KindPersistenceFailed, models.KindOf(err))
}

func (suite *UserServiceTestSuite) TestUpdateDemographics_UnknownUser() {
	ctx := context.Background()
	id := uuid.New()
	suite.userRepo.On("GetByID", ctx, id).Return(nil, models.NewNotFoundError("user not found"))

	_, err := suite.service.UpdateDemographics(ctx, id, UpdateDemographicsRequest{LastName: strPtr("Doe")})

	suite.ErrorIs(err, models.ErrNotFound)
}

func (suite *UserServiceTestSuite) TestUpdateDemographics_InvalidNameFailsBeforeIdentityProvider() {
	ctx := context.Background()
	ref, err := models.NewIdentityRef(testIdentityRef)
	suite.Require().NoError(err)
	user, err := models.NewUser(uuid.New(), ref, models.NewNameFromFull("", "cher"), mustEmail(suite.T(), "cher@x.com"),
		time.Now().Add(-time.Minute), false, false)
	suite.Require().NoError(err)
	suite.userRepo.On("GetByID", ctx, user.ID()).Return(user, nil)

	_, err = suite.service.UpdateDemographics(ctx, user.ID(), UpdateDemographicsRequest{
		FirstName:    strPtr("Cherilyn"),
		EmailAddress: strPtr("cherilyn@x.com"),
	})

	var vErr *models.Error
	suite.Require().ErrorAs(err, &vErr)
	suite.Equal(models.KindValidationFailed, vErr.Kind)
	suite.Equal("last_name", vErr.Field)
	suite.idp.AssertNotCalled(suite.T(), "UpdateEmail", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *UserServiceTestSuite) TestSignup_CreatesUser() {
	ctx := context.Background()
	suite.userRepo.On("GetByIdentityRef", ctx, mock.Anything).Return(nil, models.NewNotFoundError("user not found"))
	suite.userRepo.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Name().First() == "Jane" && u.Name().Last() == "Doe" &&
			u.Email().String() == "jane@x.com" && u.Username().Display() == "jane_d" && u.LastLogin() != nil
	})).Return(nil).Once()

	resp, created, err := suite.service.Signup(ctx, testIdentityRef, SignupRequest{
		FullName: "Dr. Jane Doe",
		Nickname: "jd",
		Email:    " jane@x.com ",
		Username: "jane_d",
	})

	suite.Require().NoError(err)
	suite.True(created)
	suite.Equal("Jane", resp.FirstName)
	suite.Equal("Doe", resp.LastName)
	suite.NotEqual(uuid.Nil, resp.UserID)
}

func (suite *UserServiceTestSuite) TestSignup_ReturningUserIsIdempotent() {
	ctx := context.Background()
	user := newTestUser(suite.T(), "Jane", "Smith", "jane@x.com")
	suite.userRepo.On("GetByIdentityRef", ctx, user.IdentityRef()).Return(user, nil)
	suite.userRepo.On("RecordLogin", ctx, user.ID(), mock.AnythingOfType("time.Time")).Return(nil).Once()

	resp, created, err := suite.service.Signup(ctx, testIdentityRef, SignupRequest{FullName: "Someone Else", Email: "other@x.com"})

	suite.Require().NoError(err)
	suite.False(created)
	suite.Equal(user.ID(), resp.UserID)
	suite.userRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *UserServiceTestSuite) TestSignup_RejectsMalformedIdentityRef() {
	_, _, err := suite.service.Signup(context.Background(), "auth0-abc", SignupRequest{FullName: "Jane Doe", Email: "jane@x.com"})
	suite.ErrorIs(err, models.ErrValidationFailed)
}

func (suite *UserServiceTestSuite) TestSignup_RequiresFullName() {
	ctx := context.Background()
	suite.userRepo.On("GetByIdentityRef", ctx, mock.Anything).Return(nil, models.NewNotFoundError("user not found"))

	_, _, err := suite.service.Signup(ctx, testIdentityRef, SignupRequest{FullName: "  ", Email: "jane@x.com"})

	var vErr *models.Error
	suite.Require().ErrorAs(err, &vErr)
	suite.Equal("full_name", vErr.Field)
}

func (suite *UserServiceTestSuite) TestGetUser() {
	ctx := context.Background()
	user := newTestUser(suite.T(), "Jane", "Smith", "jane@x.com")
	suite.userRepo.On("GetByID", ctx, user.ID()).Return(user, nil)

	resp, err := suite.service.GetUser(ctx, user.ID())

	suite.Require().NoError(err)
	suite.Equal(testIdentityRef, resp.IdentityRef)
	suite.Equal("Smith", resp.LastName)
	suite.False(resp.IsDeleted)
}

func (suite *UserServiceTestSuite) TestMarkDeleted_InvalidatesPermissions() {
	ctx := context.Background()
	user := newTestUser(suite.T(), "Jane", "Smith", "jane@x.com")
	suite.userRepo.On("GetByID", ctx, user.ID()).Return(user, nil)
	suite.userRepo.On("MarkDeleted", ctx, user.ID()).Return(nil).Once()
	suite.rbac.On("InvalidateUserPermissions", ctx, testIdentityRef).Once()

	suite.NoError(suite.service.MarkDeleted(ctx, user.ID()))
}

func (suite *UserServiceTestSuite) TestMarkDeleted_AlreadyDeleted() {
	ctx := context.Background()
	id := uuid.New()
	suite.userRepo.On("GetByID", ctx, id).Return(nil, models.NewNotFoundError("user not found"))

	err := suite.service.MarkDeleted(ctx, id)

	suite.ErrorIs(err, models.ErrNotFound)
	suite.rbac.AssertNotCalled(suite.T(), "InvalidateUserPermissions", mock.Anything, mock.Anything)
}

func TestRollbackStopsAtTimeout(t *testing.T) {
	userRepo := new(MockUserRepository)
	idp := new(MockIdentityProviderService)
	svc := NewUserService(userRepo, idp, nil,
		RollbackPolicy{MaxAttempts: 3, Delay: time.Hour, Timeout: 20 * time.Millisecond}, discardLogger())

	ctx := context.Background()
	user := newTestUser(t, "Jane", "Smith", "jane@x.com")
	userRepo.On("GetByID", ctx, user.ID()).Return(user, nil)
	idp.On("UpdateEmail", ctx, user.IdentityRef(), mustEmail(t, "new@x.com")).Return(nil).Once()
	userRepo.On("UpdateDemographics", ctx, user).Return(errors.New("boom")).Once()
	idp.On("UpdateEmail", mock.Anything, user.IdentityRef(), mustEmail(t, "jane@x.com")).Return(errors.New("unreachable"))

	start := time.Now()
	_, err := svc.UpdateDemographics(ctx, user.ID(), UpdateDemographicsRequest{EmailAddress: strPtr("new@x.com")})

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, models.KindRollbackFailed, models.KindOf(err))
	idp.AssertNumberOfCalls(t, "UpdateEmail", 2)
}

func TestRollbackRetriesWhenIdentityProviderHangs(t *testing.T) {
	fake := &fakeIdentityProvider{hangOnEmail: "jane.doe@x.com"}
	idp, _ := newIdentityProviderForTest(t, fake, nil)

	user := newTestUser(t, "Jane", "Doe", "jane.doe@x.com")

	userRepo := new(MockUserRepository)
	userRepo.On("GetByID", mock.Anything, user.ID()).Return(user, nil)
	userRepo.On("UpdateDemographics", mock.Anything, user).Return(errors.New("connection reset"))

	svc := NewUserService(userRepo, idp, nil, RollbackPolicy{
		MaxAttempts:    3,
		Delay:          time.Millisecond,
		AttemptTimeout: 50 * time.Millisecond,
		Timeout:        time.Second,
	}, discardLogger())

	_, err := svc.UpdateDemographics(context.Background(), user.ID(), UpdateDemographicsRequest{EmailAddress: strPtr("jane.new@x.com")})

	assert.Equal(t, models.KindRollbackFailed, models.KindOf(err))
	// one forward update plus three rollback attempts
	assert.Equal(t, int32(4), fake.patchCalls.Load())
}

func TestRollbackLogsRetryOnlyBeforeAnotherAttempt(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	userRepo := new(MockUserRepository)
	idp := new(MockIdentityProviderService)
	svc := NewUserService(userRepo, idp, nil,
		RollbackPolicy{MaxAttempts: 3, Delay: time.Millisecond, Timeout: time.Second}, logger)

	ctx := context.Background()
	user := newTestUser(t, "Jane", "Smith", "jane@x.com")
	userRepo.On("GetByID", ctx, user.ID()).Return(user, nil)
	idp.On("UpdateEmail", ctx, user.IdentityRef(), mustEmail(t, "new@x.com")).Return(nil).Once()
	userRepo.On("UpdateDemographics", ctx, user).Return(errors.New("boom")).Once()
	idp.On("UpdateEmail", mock.Anything, user.IdentityRef(), mustEmail(t, "jane@x.com")).Return(errors.New("unreachable"))

	_, err := svc.UpdateDemographics(ctx, user.ID(), UpdateDemographicsRequest{EmailAddress: strPtr("new@x.com")})

	require.Equal(t, models.KindRollbackFailed, models.KindOf(err))
	assert.Equal(t, 2, strings.Count(buf.String(), "rollback failed, retrying"))
	assert.Equal(t, 1, strings.Count(buf.String(), "manual reconciliation required"))
}
