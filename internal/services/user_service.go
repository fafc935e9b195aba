package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"bizmanager/internal/models"
	"bizmanager/internal/repositories"

	"github.com/google/uuid"
)

type SignupRequest struct {
	FullName string `json:"full_name"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}

type SignupResponse struct {
	UserID          uuid.UUID `json:"user_uuid"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Email           string    `json:"email"`
	IsPremiumMember bool      `json:"is_premium_member"`
}

type UserResponse struct {
	UserID          uuid.UUID   `json:"user_uuid"`
	IdentityRef     string      `json:"identity_ref"`
	FirstName       string      `json:"first_name"`
	LastName        string      `json:"last_name"`
	Email           string      `json:"email"`
	Username        string      `json:"username,omitempty"`
	BusinessIDs     []uuid.UUID `json:"businesses"`
	LastLogin       *time.Time  `json:"last_login,omitempty"`
	IsPremiumMember bool        `json:"is_premium_member"`
	IsDeleted       bool        `json:"is_deleted"`
}

// UpdateDemographicsRequest fields that are nil or blank keep their current
// value.
type UpdateDemographicsRequest struct {
	FirstName    *string `json:"first_name,omitempty"`
	LastName     *string `json:"last_name,omitempty"`
	EmailAddress *string `json:"email_address,omitempty"`
}

type DemographicsResponse struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	EmailAddress string `json:"email_address"`
}

type UserService interface {
	// Signup registers the caller. It is idempotent per identity reference:
	// a returning user gets the existing record and created=false.
	Signup(ctx context.Context, identityRef string, req SignupRequest) (resp *SignupResponse, created bool, err error)
	GetUser(ctx context.Context, id uuid.UUID) (*UserResponse, error)
	UpdateDemographics(ctx context.Context, id uuid.UUID, req UpdateDemographicsRequest) (*DemographicsResponse, error)
	MarkDeleted(ctx context.Context, id uuid.UUID) error
}

// RollbackPolicy bounds the compensation that reverts an identity provider
// email change after the local write fails. AttemptTimeout caps a single
// call; Timeout caps the whole compensation.
type RollbackPolicy struct {
	MaxAttempts    int
	Delay          time.Duration
	AttemptTimeout time.Duration
	Timeout        time.Duration
}

func DefaultRollbackPolicy() RollbackPolicy {
	return RollbackPolicy{
		MaxAttempts:    3,
		Delay:          500 * time.Millisecond,
		AttemptTimeout: 3 * time.Second,
		Timeout:        12 * time.Second,
	}
}

type userService struct {
	userRepo repositories.UserRepository
	idp      IdentityProviderService
	rbac     RBACService
	rollback RollbackPolicy
	logger   *slog.Logger
	now      func() time.Time
}

func NewUserService(userRepo repositories.UserRepository, idp IdentityProviderService, rbac RBACService, rollback RollbackPolicy, logger *slog.Logger) UserService {
	if rollback.MaxAttempts < 1 {
		rollback.MaxAttempts = 1
	}
	if rollback.Timeout <= 0 {
		rollback.Timeout = DefaultRollbackPolicy().Timeout
	}
	if rollback.AttemptTimeout <= 0 {
		rollback.AttemptTimeout = rollback.Timeout / time.Duration(rollback.MaxAttempts)
	}
	return &userService{
		userRepo: userRepo,
		idp:      idp,
		rbac:     rbac,
		rollback: rollback,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *userService) Signup(ctx context.Context, identityRef string, req SignupRequest) (*SignupResponse, bool, error) {
	ref, err := models.NewIdentityRef(identityRef)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.userRepo.GetByIdentityRef(ctx, ref)
	switch {
	case err == nil:
		if err := s.userRepo.RecordLogin(ctx, existing.ID(), s.now()); err != nil {
			s.logger.WarnContext(ctx, "failed to record login", "user_id", existing.ID(), "error", err)
		}
		return toSignupResponse(existing), false, nil
	case !errors.Is(err, models.ErrNotFound):
		return nil, false, err
	}

	if strings.TrimSpace(req.FullName) == "" {
		return nil, false, models.NewValidationError("full_name", "must not be blank")
	}
	email, err := models.NewEmail(req.Email)
	if err != nil {
		return nil, false, err
	}

	createdAt := s.now()
	user, err := models.NewUser(uuid.New(), ref, models.NewNameFromFull(req.FullName, req.Nickname), email, createdAt, false, false)
	if err != nil {
		return nil, false, err
	}
	if strings.TrimSpace(req.Username) != "" {
		username, err := models.NewUsername(req.Username)
		if err != nil {
			return nil, false, err
		}
		user.SetUsername(username)
	}
	user.MarkLoggedIn(createdAt)

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, false, err
	}
	s.logger.InfoContext(ctx, "user signed up", "user_id", user.ID(), "provider", ref.Provider())
	return toSignupResponse(user), true, nil
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &UserResponse{
		UserID:          user.ID(),
		IdentityRef:     user.IdentityRef().String(),
		FirstName:       user.Name().First(),
		LastName:        user.Name().Last(),
		Email:           user.Email().String(),
		Username:        user.Username().Display(),
		BusinessIDs:     user.BusinessIDs(),
		LastLogin:       user.LastLogin(),
		IsPremiumMember: user.IsPremium(),
		IsDeleted:       user.IsDeleted(),
	}, nil
}

// UpdateDemographics applies name and email changes. An email change is pushed
// to the identity provider before the local write; see runDemographicsUpdate.
func (s *userService) UpdateDemographics(ctx context.Context, id uuid.UUID, req UpdateDemographicsRequest) (*DemographicsResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	update, err := stageDemographicsUpdate(user, req)
	if err != nil {
		return nil, err
	}
	if !update.changed() {
		return toDemographicsResponse(user), nil
	}

	if err := s.runDemographicsUpdate(ctx, update); err != nil {
		return nil, err
	}
	return toDemographicsResponse(user), nil
}

func (s *userService) MarkDeleted(ctx context.Context, id uuid.UUID) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.userRepo.MarkDeleted(ctx, id); err != nil {
		return err
	}
	if s.rbac != nil {
		s.rbac.InvalidateUserPermissions(ctx, user.IdentityRef().String())
	}
	s.logger.InfoContext(ctx, "user marked deleted", "user_id", id)
	return nil
}

func toSignupResponse(u *models.User) *SignupResponse {
	return &SignupResponse{
		UserID:          u.ID(),
		FirstName:       u.Name().First(),
		LastName:        u.Name().Last(),
		Email:           u.Email().String(),
		IsPremiumMember: u.IsPremium(),
	}
}

func toDemographicsResponse(u *models.User) *DemographicsResponse {
	return &DemographicsResponse{
		FirstName:    u.Name().First(),
		LastName:     u.Name().Last(),
		EmailAddress: u.Email().String(),
	}
}
