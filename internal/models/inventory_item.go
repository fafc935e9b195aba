package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// InventoryExtras are the item-level fields that sit outside Item and
// ItemDetail.
type InventoryExtras struct {
	PurchaseDate    *time.Time
	ReorderQuantity *int
	CustomPackageID *uuid.UUID
	Location        string
	IsListed        bool
	IsLot           bool
	Notes           string
}

type InventoryItem struct {
	id         uuid.UUID
	businessID uuid.UUID
	item       Item
	detail     ItemDetail
	extras     InventoryExtras
	imageKey   string
}

func NewInventoryItem(id, businessID uuid.UUID, item Item, detail ItemDetail, extras InventoryExtras) (*InventoryItem, error) {
	if id == uuid.Nil {
		return nil, NewValidationError("inventory_item_id", "must not be empty")
	}
	if businessID == uuid.Nil {
		return nil, NewValidationError("business_id", "must not be empty")
	}
	if item.Name() == "" {
		return nil, NewValidationError("name", "item must have a name")
	}
	if extras.ReorderQuantity != nil && *extras.ReorderQuantity < 0 {
		return nil, NewValidationError("reorder_quantity", "must not be negative")
	}
	if extras.CustomPackageID != nil && *extras.CustomPackageID == uuid.Nil {
		return nil, NewValidationError("custom_package_id", "must not be empty when set")
	}
	extras.Location = strings.TrimSpace(extras.Location)
	extras.Notes = strings.TrimSpace(extras.Notes)
	if extras.PurchaseDate != nil {
		t := extras.PurchaseDate.UTC().Truncate(time.Microsecond)
		extras.PurchaseDate = &t
	}
	return &InventoryItem{
		id:         id,
		businessID: businessID,
		item:       item,
		detail:     detail,
		extras:     extras,
	}, nil
}

func (i *InventoryItem) ID() uuid.UUID           { return i.id }
func (i *InventoryItem) BusinessID() uuid.UUID   { return i.businessID }
func (i *InventoryItem) Item() Item              { return i.item }
func (i *InventoryItem) Detail() ItemDetail      { return i.detail }
func (i *InventoryItem) Extras() InventoryExtras { return i.extras }
func (i *InventoryItem) ImageKey() string        { return i.imageKey }

func (i *InventoryItem) SetItem(item Item)           { i.item = item }
func (i *InventoryItem) SetDetail(detail ItemDetail) { i.detail = detail }
func (i *InventoryItem) SetExtras(e InventoryExtras) { i.extras = e }
func (i *InventoryItem) SetImageKey(key string)      { i.imageKey = key }

// NeedsReorder reports whether stock has fallen to the reorder level. Items
// without a reorder level never need reordering.
func (i *InventoryItem) NeedsReorder() bool {
	if i.extras.ReorderQuantity == nil {
		return false
	}
	return i.item.Quantity() <= *i.extras.ReorderQuantity
}

// ExpiresWithin reports whether the item expires before now+window.
func (i *InventoryItem) ExpiresWithin(window time.Duration, now time.Time) bool {
	exp := i.item.ExpirationDate()
	if exp == nil {
		return false
	}
	return exp.Before(now.Add(window))
}
