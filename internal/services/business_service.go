package services

import (
	"context"
	"log/slog"

	"bizmanager/internal/models"
	"bizmanager/internal/repositories"

	"github.com/google/uuid"
)

type AddressRequest struct {
	Street1    string `json:"street1"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type CreateBusinessRequest struct {
	OwnerID         uuid.UUID       `json:"business_owner_uuid"`
	FullName        string          `json:"business_fullname"`
	DisplayName     string          `json:"business_display_name,omitempty"`
	StructureTypeID int             `json:"business_structure_type_id"`
	CountryCode     string          `json:"country_code"`
	Industry        string          `json:"business_industry"`
	Address         *AddressRequest `json:"address,omitempty"`
}

// UpdateBusinessRequest replaces the business information wholesale. The
// owner cannot be changed.
type UpdateBusinessRequest struct {
	FullName        string          `json:"business_fullname"`
	DisplayName     string          `json:"business_display_name,omitempty"`
	StructureTypeID int             `json:"business_structure_type_id"`
	CountryCode     string          `json:"country_code"`
	Industry        string          `json:"business_industry"`
	Address         *AddressRequest `json:"address,omitempty"`
}

type AddressResponse struct {
	Street1    string `json:"street1"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type BusinessResponse struct {
	BusinessID      uuid.UUID        `json:"business_uuid"`
	OwnerID         uuid.UUID        `json:"business_owner_uuid"`
	FullName        string           `json:"business_fullname"`
	DisplayName     string           `json:"business_display_name"`
	StructureTypeID int              `json:"business_structure_type_id"`
	CountryCode     string           `json:"country_code"`
	Industry        string           `json:"business_industry"`
	Address         *AddressResponse `json:"address,omitempty"`
	IsDeleted       bool             `json:"is_deleted"`
}

type BusinessService interface {
	Create(ctx context.Context, req CreateBusinessRequest) (*BusinessResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*BusinessResponse, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*BusinessResponse, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateBusinessRequest) (*BusinessResponse, error)
	MarkDeleted(ctx context.Context, id uuid.UUID) error
}

type businessService struct {
	businessRepo repositories.BusinessRepository
	userRepo     repositories.UserRepository
	logger       *slog.Logger
}

func NewBusinessService(businessRepo repositories.BusinessRepository, userRepo repositories.UserRepository, logger *slog.Logger) BusinessService {
	return &businessService{
		businessRepo: businessRepo,
		userRepo:     userRepo,
		logger:       logger,
	}
}

// Create registers a business owned by an existing, non-deleted user.
func (s *businessService) Create(ctx context.Context, req CreateBusinessRequest) (*BusinessResponse, error) {
	if req.OwnerID == uuid.Nil {
		return nil, models.NewValidationError("business_owner_uuid", "must not be empty")
	}
	name, structure, address, err := businessValues(req.FullName, req.DisplayName, req.StructureTypeID, req.CountryCode, req.Address, uuid.New())
	if err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByID(ctx, req.OwnerID); err != nil {
		return nil, err
	}

	business, err := models.NewBusiness(uuid.New(), req.OwnerID, name, structure, req.Industry, false)
	if err != nil {
		return nil, err
	}
	business.SetAddress(address)

	if err := s.businessRepo.Create(ctx, business); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "business created", "business_id", business.ID(), "owner_id", req.OwnerID)
	return toBusinessResponse(business), nil
}

func (s *businessService) Get(ctx context.Context, id uuid.UUID) (*BusinessResponse, error) {
	business, err := s.businessRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toBusinessResponse(business), nil
}

func (s *businessService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*BusinessResponse, error) {
	businesses, err := s.businessRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := make([]*BusinessResponse, 0, len(businesses))
	for _, b := range businesses {
		resp = append(resp, toBusinessResponse(b))
	}
	return resp, nil
}

func (s *businessService) Update(ctx context.Context, id uuid.UUID, req UpdateBusinessRequest) (*BusinessResponse, error) {
	business, err := s.businessRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	addressID := uuid.New()
	if current := business.Address(); current != nil {
		addressID = current.ID()
	}
	name, structure, address, err := businessValues(req.FullName, req.DisplayName, req.StructureTypeID, req.CountryCode, req.Address, addressID)
	if err != nil {
		return nil, err
	}
	if err := business.SetIndustry(req.Industry); err != nil {
		return nil, err
	}
	business.SetName(name)
	business.SetStructure(structure)
	if address != nil {
		business.SetAddress(address)
	}

	if err := s.businessRepo.Update(ctx, business); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "business updated", "business_id", id)
	return toBusinessResponse(business), nil
}

func (s *businessService) MarkDeleted(ctx context.Context, id uuid.UUID) error {
	if err := s.businessRepo.MarkDeleted(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "business marked deleted", "business_id", id)
	return nil
}

func businessValues(fullName, displayName string, typeID int, country string, addr *AddressRequest, addressID uuid.UUID) (models.BusinessName, models.BusinessStructure, *models.Address, error) {
	name, err := models.NewBusinessName(fullName, displayName)
	if err != nil {
		return models.BusinessName{}, models.BusinessStructure{}, nil, err
	}
	structure, err := models.NewBusinessStructure(typeID, country)
	if err != nil {
		return models.BusinessName{}, models.BusinessStructure{}, nil, err
	}
	if addr == nil {
		return name, structure, nil, nil
	}
	address, err := models.NewAddress(addressID, addr.Street1, addr.Street2, addr.City, addr.State, addr.PostalCode, addr.Country)
	if err != nil {
		return models.BusinessName{}, models.BusinessStructure{}, nil, err
	}
	return name, structure, &address, nil
}

func toBusinessResponse(b *models.Business) *BusinessResponse {
	resp := &BusinessResponse{
		BusinessID:      b.ID(),
		OwnerID:         b.OwnerID(),
		FullName:        b.Name().Full(),
		DisplayName:     b.Name().Display(),
		StructureTypeID: b.Structure().TypeID(),
		CountryCode:     b.Structure().CountryCode(),
		Industry:        b.Industry(),
		IsDeleted:       b.IsDeleted(),
	}
	if a := b.Address(); a != nil {
		resp.Address = &AddressResponse{
			Street1:    a.Street1(),
			Street2:    a.Street2(),
			City:       a.City(),
			State:      a.State(),
			PostalCode: a.PostalCode(),
			Country:    a.Country(),
		}
	}
	return resp
}
