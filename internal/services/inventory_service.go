package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"bizmanager/internal/models"
	"bizmanager/internal/repositories"

	"github.com/google/uuid"
)

const imageURLExpiry = 15 * time.Minute

// InventoryItemRequest is used both to add an item and to replace one.
type InventoryItemRequest struct {
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	SKU             string     `json:"sku,omitempty"`
	CostCents       int64      `json:"cost_cents"`
	SerialNumber    string     `json:"serial_number,omitempty"`
	PurchaseDate    *time.Time `json:"purchase_date,omitempty"`
	Supplier        string     `json:"supplier,omitempty"`
	Brand           string     `json:"brand,omitempty"`
	Model           string     `json:"model,omitempty"`
	Quantity        int        `json:"quantity"`
	ReorderQuantity *int       `json:"reorder_quantity,omitempty"`
	Location        string     `json:"location,omitempty"`
	ExpirationDate  *time.Time `json:"expiration_date,omitempty"`
	Category        int        `json:"category"`
	CustomPackageID *uuid.UUID `json:"custom_package_uuid,omitempty"`
	ItemWeightGrams int        `json:"item_weight_g,omitempty"`
	IsListed        bool       `json:"is_listed"`
	IsLot           bool       `json:"is_lot"`
	Notes           string     `json:"notes,omitempty"`
}

type InventoryItemResponse struct {
	InventoryItemID uuid.UUID  `json:"inventory_item_uuid"`
	BusinessID      uuid.UUID  `json:"business_uuid"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	SKU             string     `json:"sku,omitempty"`
	CostCents       int64      `json:"cost_cents"`
	SerialNumber    string     `json:"serial_number,omitempty"`
	PurchaseDate    *time.Time `json:"purchase_date,omitempty"`
	Supplier        string     `json:"supplier,omitempty"`
	Brand           string     `json:"brand,omitempty"`
	Model           string     `json:"model,omitempty"`
	Quantity        int        `json:"quantity"`
	ReorderQuantity *int       `json:"reorder_quantity,omitempty"`
	Location        string     `json:"location,omitempty"`
	ExpirationDate  *time.Time `json:"expiration_date,omitempty"`
	Category        int        `json:"category"`
	CustomPackageID *uuid.UUID `json:"custom_package_uuid,omitempty"`
	ItemWeightGrams int        `json:"item_weight_g,omitempty"`
	IsListed        bool       `json:"is_listed"`
	IsLot           bool       `json:"is_lot"`
	Notes           string     `json:"notes,omitempty"`
	HasImage        bool       `json:"has_image"`
}

type InventoryService interface {
	Add(ctx context.Context, businessID uuid.UUID, req InventoryItemRequest) (*InventoryItemResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*InventoryItemResponse, error)
	ListForBusiness(ctx context.Context, businessID uuid.UUID) ([]*InventoryItemResponse, error)
	Update(ctx context.Context, id uuid.UUID, req InventoryItemRequest) (*InventoryItemResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UploadImage(ctx context.Context, id uuid.UUID, reader io.Reader, size int64, contentType string) error
	ImageURL(ctx context.Context, id uuid.UUID) (string, error)
}

type inventoryService struct {
	inventoryRepo repositories.InventoryRepository
	businessRepo  repositories.BusinessRepository
	images        ImageStore
	logger        *slog.Logger
}

// NewInventoryService wires the inventory use cases. images may be nil, in
// which case image operations report a configuration error.
func NewInventoryService(inventoryRepo repositories.InventoryRepository, businessRepo repositories.BusinessRepository, images ImageStore, logger *slog.Logger) InventoryService {
	return &inventoryService{
		inventoryRepo: inventoryRepo,
		businessRepo:  businessRepo,
		images:        images,
		logger:        logger,
	}
}

func (s *inventoryService) Add(ctx context.Context, businessID uuid.UUID, req InventoryItemRequest) (*InventoryItemResponse, error) {
	item, detail, extras, err := inventoryValues(req)
	if err != nil {
		return nil, err
	}
	inv, err := models.NewInventoryItem(uuid.New(), businessID, item, detail, extras)
	if err != nil {
		return nil, err
	}
	if err := s.inventoryRepo.Create(ctx, inv); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "inventory item added", "inventory_item_id", inv.ID(), "business_id", businessID)
	return toInventoryItemResponse(inv), nil
}

func (s *inventoryService) Get(ctx context.Context, id uuid.UUID) (*InventoryItemResponse, error) {
	inv, err := s.inventoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toInventoryItemResponse(inv), nil
}

// ListForBusiness reports NotFound for an unknown or deleted business rather
// than an empty list.
func (s *inventoryService) ListForBusiness(ctx context.Context, businessID uuid.UUID) ([]*InventoryItemResponse, error) {
	if _, err := s.businessRepo.GetByID(ctx, businessID); err != nil {
		return nil, err
	}
	items, err := s.inventoryRepo.ListForBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	resp := make([]*InventoryItemResponse, 0, len(items))
	for _, inv := range items {
		resp = append(resp, toInventoryItemResponse(inv))
	}
	return resp, nil
}

func (s *inventoryService) Update(ctx context.Context, id uuid.UUID, req InventoryItemRequest) (*InventoryItemResponse, error) {
	item, detail, extras, err := inventoryValues(req)
	if err != nil {
		return nil, err
	}
	inv, err := s.inventoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// run the replacement through the constructor so extras get normalized
	replacement, err := models.NewInventoryItem(inv.ID(), inv.BusinessID(), item, detail, extras)
	if err != nil {
		return nil, err
	}
	inv.SetItem(replacement.Item())
	inv.SetDetail(replacement.Detail())
	inv.SetExtras(replacement.Extras())

	if err := s.inventoryRepo.Update(ctx, inv); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "inventory item updated", "inventory_item_id", id)
	return toInventoryItemResponse(inv), nil
}

// Delete removes the item permanently. A stored image is removed on a best
// effort basis after the rows are gone.
func (s *inventoryService) Delete(ctx context.Context, id uuid.UUID) error {
	inv, err := s.inventoryRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.inventoryRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "inventory item deleted", "inventory_item_id", id)

	if key := inv.ImageKey(); key != "" && s.images != nil {
		if err := s.images.RemoveImage(ctx, key); err != nil {
			s.logger.WarnContext(ctx, "failed to remove inventory image", "inventory_item_id", id, "key", key, "error", err)
		}
	}
	return nil
}

func (s *inventoryService) UploadImage(ctx context.Context, id uuid.UUID, reader io.Reader, size int64, contentType string) error {
	if s.images == nil {
		return models.NewConfigurationMissingError("MINIO_ENDPOINT")
	}
	if _, err := s.inventoryRepo.GetByID(ctx, id); err != nil {
		return err
	}

	key := "inventory/" + id.String()
	if err := s.images.PutImage(ctx, key, reader, size, contentType); err != nil {
		return models.NewTransientError("failed to store inventory image", err)
	}
	if err := s.inventoryRepo.SetImageKey(ctx, id, key); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "inventory image stored", "inventory_item_id", id, "size", size)
	return nil
}

func (s *inventoryService) ImageURL(ctx context.Context, id uuid.UUID) (string, error) {
	if s.images == nil {
		return "", models.NewConfigurationMissingError("MINIO_ENDPOINT")
	}
	inv, err := s.inventoryRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if inv.ImageKey() == "" {
		return "", models.NewNotFoundError("inventory item has no image")
	}
	url, err := s.images.PresignedURL(ctx, inv.ImageKey(), imageURLExpiry)
	if err != nil {
		return "", models.NewTransientError("failed to presign inventory image", err)
	}
	return url, nil
}

func inventoryValues(req InventoryItemRequest) (models.Item, models.ItemDetail, models.InventoryExtras, error) {
	item, err := models.NewItem(models.ItemParams{
		Name:           req.Name,
		Description:    req.Description,
		CostCents:      req.CostCents,
		Quantity:       req.Quantity,
		ExpirationDate: req.ExpirationDate,
		Category:       req.Category,
		WeightGrams:    req.ItemWeightGrams,
	})
	if err != nil {
		return models.Item{}, models.ItemDetail{}, models.InventoryExtras{}, err
	}
	detail, err := models.NewItemDetail(req.SKU, req.SerialNumber, req.Supplier, req.Brand, req.Model)
	if err != nil {
		return models.Item{}, models.ItemDetail{}, models.InventoryExtras{}, err
	}
	extras := models.InventoryExtras{
		PurchaseDate:    req.PurchaseDate,
		ReorderQuantity: req.ReorderQuantity,
		CustomPackageID: req.CustomPackageID,
		Location:        req.Location,
		IsListed:        req.IsListed,
		IsLot:           req.IsLot,
		Notes:           req.Notes,
	}
	return item, detail, extras, nil
}

func toInventoryItemResponse(inv *models.InventoryItem) *InventoryItemResponse {
	item, detail, extras := inv.Item(), inv.Detail(), inv.Extras()
	return &InventoryItemResponse{
		InventoryItemID: inv.ID(),
		BusinessID:      inv.BusinessID(),
		Name:            item.Name(),
		Description:     item.Description(),
		SKU:             detail.SKU(),
		CostCents:       item.CostCents(),
		SerialNumber:    detail.SerialNumber(),
		PurchaseDate:    extras.PurchaseDate,
		Supplier:        detail.Supplier(),
		Brand:           detail.Brand(),
		Model:           detail.Model(),
		Quantity:        item.Quantity(),
		ReorderQuantity: extras.ReorderQuantity,
		Location:        extras.Location,
		ExpirationDate:  item.ExpirationDate(),
		Category:        item.Category(),
		CustomPackageID: extras.CustomPackageID,
		ItemWeightGrams: item.WeightGrams(),
		IsListed:        extras.IsListed,
		IsLot:           extras.IsLot,
		Notes:           extras.Notes,
		HasImage:        inv.ImageKey() != "",
	}
}
