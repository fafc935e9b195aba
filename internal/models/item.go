package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxItemNameLength        = 50
	maxItemDescriptionLength = 500
	maxSKULength             = 16
)

// Item is the descriptive and stock part of an inventory item.
type Item struct {
	name           string
	description    string
	costCents      int64
	quantity       int
	expirationDate *time.Time
	category       int
	weightGrams    int
}

type ItemParams struct {
	Name           string
	Description    string
	CostCents      int64
	Quantity       int
	ExpirationDate *time.Time
	Category       int
	WeightGrams    int
}

func NewItem(p ItemParams) (Item, error) {
	name := strings.TrimSpace(p.Name)
	description := strings.TrimSpace(p.Description)
	switch {
	case name == "":
		return Item{}, NewValidationError("name", "item must have a name")
	case utf8.RuneCountInString(name) > maxItemNameLength:
		return Item{}, NewValidationError("name", "must be at most 50 characters")
	case utf8.RuneCountInString(description) > maxItemDescriptionLength:
		return Item{}, NewValidationError("description", "must be at most 500 characters")
	case p.Quantity < 0:
		return Item{}, NewValidationError("quantity", "must not be negative")
	case p.CostCents < 0:
		return Item{}, NewValidationError("cost", "must not be negative")
	case p.Category < 0:
		return Item{}, NewValidationError("category", "must not be negative")
	case p.WeightGrams < 0:
		return Item{}, NewValidationError("item_weight_g", "must not be negative")
	}
	var expiration *time.Time
	if p.ExpirationDate != nil {
		t := p.ExpirationDate.UTC().Truncate(time.Microsecond)
		expiration = &t
	}
	return Item{
		name:           name,
		description:    description,
		costCents:      p.CostCents,
		quantity:       p.Quantity,
		expirationDate: expiration,
		category:       p.Category,
		weightGrams:    p.WeightGrams,
	}, nil
}

func (i Item) Name() string        { return i.name }
func (i Item) Description() string { return i.description }
func (i Item) CostCents() int64    { return i.costCents }
func (i Item) Quantity() int       { return i.quantity }
func (i Item) Category() int       { return i.category }
func (i Item) WeightGrams() int    { return i.weightGrams }

func (i Item) ExpirationDate() *time.Time {
	if i.expirationDate == nil {
		return nil
	}
	t := *i.expirationDate
	return &t
}

// ItemDetail carries identifying and sourcing details of an item. All fields
// are optional.
type ItemDetail struct {
	sku          string
	serialNumber string
	supplier     string
	brand        string
	model        string
}

func NewItemDetail(sku, serialNumber, supplier, brand, model string) (ItemDetail, error) {
	sku = strings.TrimSpace(sku)
	if utf8.RuneCountInString(sku) > maxSKULength {
		return ItemDetail{}, NewValidationError("sku", "must be at most 16 characters")
	}
	return ItemDetail{
		sku:          sku,
		serialNumber: strings.TrimSpace(serialNumber),
		supplier:     strings.TrimSpace(supplier),
		brand:        strings.TrimSpace(brand),
		model:        strings.TrimSpace(model),
	}, nil
}

func (d ItemDetail) SKU() string          { return d.sku }
func (d ItemDetail) SerialNumber() string { return d.serialNumber }
func (d ItemDetail) Supplier() string     { return d.supplier }
func (d ItemDetail) Brand() string        { return d.brand }
func (d ItemDetail) Model() string        { return d.model }
